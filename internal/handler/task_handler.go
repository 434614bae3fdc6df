package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskplanner/internal/apperr"
	"taskplanner/internal/service/task"
)

const dateLayout = "2006-01-02"

type TaskHandler struct {
	svc    *task.Service
	logger *zap.Logger
}

func NewTaskHandler(svc *task.Service, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{svc: svc, logger: logger}
}

type subTaskIn struct {
	ID          *int   `json:"id"`
	Title       string `json:"title"`
	IsCompleted bool   `json:"is_completed"`
}

type taskIn struct {
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Category      *int    `json:"category"`
	PriorityLevel string  `json:"priority_level"`
	ScheduledDate *string `json:"scheduled_date"`
	DeadLine      *string `json:"dead_line"`
	StartTime     *string `json:"start_time"`
	EndTime       *string `json:"end_time"`
	IsCompleted   bool    `json:"is_completed"`
}

type fullTaskIn struct {
	taskIn
	// Pointers distinguish an absent collection ("leave unchanged" on update)
	// from a present empty one ("replace entirely").
	Tags     *[]int       `json:"tags"`
	SubTasks *[]subTaskIn `json:"subTasks"`
}

type taskPatchIn struct {
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	Category      *int    `json:"category"`
	PriorityLevel *string `json:"priority_level"`
	ScheduledDate *string `json:"scheduled_date"`
	DeadLine      *string `json:"dead_line"`
	StartTime     *string `json:"start_time"`
	EndTime       *string `json:"end_time"`
	IsCompleted   *bool   `json:"is_completed"`
}

func (in taskIn) fields() (task.Fields, error) {
	scheduled, err := parseDate(in.ScheduledDate)
	if err != nil {
		return task.Fields{}, err
	}
	deadline, err := parseDate(in.DeadLine)
	if err != nil {
		return task.Fields{}, err
	}
	return task.Fields{
		Title:         in.Title,
		Description:   in.Description,
		CategoryID:    in.Category,
		PriorityLevel: in.PriorityLevel,
		ScheduledDate: scheduled,
		DeadLine:      deadline,
		StartTime:     in.StartTime,
		EndTime:       in.EndTime,
		IsCompleted:   in.IsCompleted,
	}, nil
}

func subTaskInputs(in []subTaskIn) []task.SubTaskInput {
	out := make([]task.SubTaskInput, len(in))
	for i, s := range in {
		out[i] = task.SubTaskInput{ID: s.ID, Title: s.Title, IsCompleted: s.IsCompleted}
	}
	return out
}

func parseDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *s)
	if err != nil {
		return nil, apperr.New(apperr.Validation, "Invalid date: %q", *s)
	}
	return &t, nil
}

func (h *TaskHandler) ListTasks(c *gin.Context) {
	var scheduledDate *time.Time
	if raw := c.Query("scheduled_date"); raw != "" {
		parsed, err := parseDate(&raw)
		if err != nil {
			respondError(c, err)
			return
		}
		scheduledDate = parsed
	}

	tasks, err := h.svc.List(c.Request.Context(), ownerID(c), scheduledDate)
	if err != nil {
		h.logger.Error("ListTasks failed", zap.Int("user_id", ownerID(c)), zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tasks)
}

func (h *TaskHandler) GetTask(c *gin.Context) {
	taskID, ok := pathID(c)
	if !ok {
		return
	}
	agg, err := h.svc.Get(c.Request.Context(), ownerID(c), taskID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, agg)
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	var in taskIn
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	fields, err := in.fields()
	if err != nil {
		respondError(c, err)
		return
	}

	agg, err := h.svc.Create(c.Request.Context(), ownerID(c), fields)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, agg)
}

func (h *TaskHandler) CreateFullTask(c *gin.Context) {
	var in fullTaskIn
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	fields, err := in.fields()
	if err != nil {
		respondError(c, err)
		return
	}

	var tags []int
	if in.Tags != nil {
		tags = *in.Tags
	}
	var subs []task.SubTaskInput
	if in.SubTasks != nil {
		subs = subTaskInputs(*in.SubTasks)
	}

	agg, err := h.svc.CreateFull(c.Request.Context(), ownerID(c), fields, tags, subs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, agg)
}

// ReplaceTask assigns the full scalar field set and leaves both child
// collections unchanged.
func (h *TaskHandler) ReplaceTask(c *gin.Context) {
	taskID, ok := pathID(c)
	if !ok {
		return
	}
	var in taskIn
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	fields, err := in.fields()
	if err != nil {
		respondError(c, err)
		return
	}

	agg, err := h.svc.Replace(c.Request.Context(), ownerID(c), taskID, fields, nil, nil)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, agg)
}

// ReplaceFullTask assigns the scalar fields and reconciles whichever child
// collections the request carries.
func (h *TaskHandler) ReplaceFullTask(c *gin.Context) {
	taskID, ok := pathID(c)
	if !ok {
		return
	}
	var in fullTaskIn
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	fields, err := in.fields()
	if err != nil {
		respondError(c, err)
		return
	}

	var subs *[]task.SubTaskInput
	if in.SubTasks != nil {
		converted := subTaskInputs(*in.SubTasks)
		subs = &converted
	}

	agg, err := h.svc.Replace(c.Request.Context(), ownerID(c), taskID, fields, in.Tags, subs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, agg)
}

func (h *TaskHandler) PatchTask(c *gin.Context) {
	taskID, ok := pathID(c)
	if !ok {
		return
	}
	var in taskPatchIn
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	scheduled, err := parseDate(in.ScheduledDate)
	if err != nil {
		respondError(c, err)
		return
	}
	deadline, err := parseDate(in.DeadLine)
	if err != nil {
		respondError(c, err)
		return
	}
	patch := task.Patch{
		Title:         in.Title,
		Description:   in.Description,
		CategoryID:    in.Category,
		PriorityLevel: in.PriorityLevel,
		ScheduledDate: scheduled,
		DeadLine:      deadline,
		StartTime:     in.StartTime,
		EndTime:       in.EndTime,
		IsCompleted:   in.IsCompleted,
	}

	agg, err := h.svc.PartialUpdate(c.Request.Context(), ownerID(c), taskID, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, agg)
}

func (h *TaskHandler) DeleteTask(c *gin.Context) {
	taskID, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), ownerID(c), taskID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func pathID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

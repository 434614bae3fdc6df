package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskplanner/internal/repository"
)

type TagHandler struct {
	store  *repository.Store
	logger *zap.Logger
}

func NewTagHandler(store *repository.Store, logger *zap.Logger) *TagHandler {
	return &TagHandler{store: store, logger: logger}
}

type tagIn struct {
	Title string `json:"title" binding:"required"`
}

func (h *TagHandler) ListTags(c *gin.Context) {
	tags, err := h.store.ListTags(c.Request.Context(), ownerID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tags)
}

func (h *TagHandler) GetTag(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	tag, err := h.store.GetTag(c.Request.Context(), ownerID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tag)
}

func (h *TagHandler) CreateTag(c *gin.Context) {
	var in tagIn
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title required"})
		return
	}

	tag, err := h.store.CreateTag(c.Request.Context(), ownerID(c), strings.TrimSpace(in.Title))
	if err != nil {
		h.logger.Warn("CreateTag failed", zap.Int("user_id", ownerID(c)), zap.Error(err))
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tag)
}

func (h *TagHandler) DeleteTag(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.store.DeleteTag(c.Request.Context(), ownerID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

package task

import (
	"context"
	"time"

	"go.uber.org/zap"

	"taskplanner/contracts/mq"
	"taskplanner/internal/apperr"
	"taskplanner/internal/model"
	"taskplanner/pkg/metrics"
)

// Service is the task aggregate reconciliation engine. Every mutating
// operation validates ownership and temporal invariants up front, then applies
// the scalar write and both child-collection reconciliations inside one
// transaction, so a failure at any point leaves the aggregate untouched.
type Service struct {
	store  Store
	cache  Cache
	pub    Publisher
	logger *zap.Logger
	now    func() time.Time
}

func NewService(store Store, cache Cache, pub Publisher, logger *zap.Logger) *Service {
	return &Service{
		store:  store,
		cache:  cache,
		pub:    pub,
		logger: logger,
		now:    time.Now,
	}
}

// Create creates a task with no children.
func (s *Service) Create(ctx context.Context, ownerID int, fields Fields) (*Aggregate, error) {
	agg, err := s.CreateFull(ctx, ownerID, fields, nil, nil)
	return agg, err
}

// CreateFull creates a task together with its tag associations and subtasks.
// Validation failures abort before any write; any persistence failure rolls
// back the task row and every child row created so far.
func (s *Service) CreateFull(ctx context.Context, ownerID int, fields Fields, tagIDs []int, subTasks []SubTaskInput) (*Aggregate, error) {
	fields, err := s.normalizeFields(fields)
	if err != nil {
		return nil, s.finish("create", err)
	}
	if err := s.resolveCategory(ctx, ownerID, fields.CategoryID); err != nil {
		return nil, s.finish("create", err)
	}
	resolvedTags, err := s.resolveTags(ctx, ownerID, tagIDs)
	if err != nil {
		return nil, s.finish("create", err)
	}

	t := &model.Task{
		UserID:        ownerID,
		CategoryID:    fields.CategoryID,
		Title:         fields.Title,
		Description:   fields.Description,
		PriorityLevel: model.Priority(fields.PriorityLevel),
		ScheduledDate: *fields.ScheduledDate,
		DeadLine:      fields.DeadLine,
		StartTime:     fields.StartTime,
		EndTime:       fields.EndTime,
		IsCompleted:   fields.IsCompleted,
	}

	err = s.store.InTx(ctx, func(tx Tx) error {
		id, err := tx.InsertTask(ctx, t)
		if err != nil {
			return err
		}
		t.ID = id

		if len(resolvedTags) > 0 {
			if err := tx.InsertTagLinks(ctx, id, resolvedTags); err != nil {
				return err
			}
		}
		if len(subTasks) > 0 {
			subs := make([]model.SubTask, len(subTasks))
			for i, in := range subTasks {
				subs[i] = model.SubTask{TaskID: id, Title: in.Title, IsCompleted: in.IsCompleted}
			}
			if err := tx.InsertSubTasks(ctx, id, subs); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.finish("create", err)
	}

	s.logger.Info("Task created",
		zap.Int("task_id", t.ID),
		zap.Int("user_id", ownerID),
		zap.Int("tags", len(resolvedTags)),
		zap.Int("subtasks", len(subTasks)),
	)
	s.publish(mq.RoutingKeyTaskCreated, mq.TaskCreatedPayload{
		TaskID:        t.ID,
		UserID:        ownerID,
		Title:         t.Title,
		ScheduledDate: t.ScheduledDate.Format(dateLayout),
	})

	agg, err := s.project(ctx, t)
	return agg, s.finish("create", err)
}

// Get returns the projected aggregate for one task.
func (s *Service) Get(ctx context.Context, ownerID, taskID int) (*Aggregate, error) {
	if s.cache != nil {
		if agg, ok := s.cache.GetAggregate(ctx, ownerID, taskID); ok {
			metrics.CacheHitCount.WithLabelValues("hit").Inc()
			return agg, nil
		}
		metrics.CacheHitCount.WithLabelValues("miss").Inc()
	}

	t, err := s.store.GetTask(ctx, ownerID, taskID)
	if err != nil {
		return nil, s.finish("get", err)
	}
	agg, err := s.project(ctx, t)
	if err != nil {
		return nil, s.finish("get", err)
	}
	if s.cache != nil {
		s.cache.SetAggregate(ctx, ownerID, agg)
	}
	return agg, s.finish("get", nil)
}

// List returns the projected aggregates of all tasks owned by ownerID,
// optionally filtered to one scheduled date.
func (s *Service) List(ctx context.Context, ownerID int, scheduledDate *time.Time) ([]*Aggregate, error) {
	tasks, err := s.store.ListTasks(ctx, ownerID, scheduledDate)
	if err != nil {
		return nil, s.finish("list", err)
	}
	aggs := make([]*Aggregate, 0, len(tasks))
	for i := range tasks {
		agg, err := s.project(ctx, &tasks[i])
		if err != nil {
			return nil, s.finish("list", err)
		}
		aggs = append(aggs, agg)
	}
	return aggs, s.finish("list", nil)
}

// Replace assigns the full scalar field set and reconciles the collections
// that were explicitly supplied. A nil collection means "leave unchanged"; a
// present empty collection means "replace entirely". The projection re-reads
// children after commit.
func (s *Service) Replace(ctx context.Context, ownerID, taskID int, fields Fields, tagIDs *[]int, subTasks *[]SubTaskInput) (*Aggregate, error) {
	current, err := s.store.GetTask(ctx, ownerID, taskID)
	if err != nil {
		return nil, s.finish("replace", err)
	}

	fields, err = s.normalizeFields(fields)
	if err != nil {
		return nil, s.finish("replace", err)
	}
	if err := s.resolveCategory(ctx, ownerID, fields.CategoryID); err != nil {
		return nil, s.finish("replace", err)
	}
	var resolvedTags []int
	if tagIDs != nil {
		if resolvedTags, err = s.resolveTags(ctx, ownerID, *tagIDs); err != nil {
			return nil, s.finish("replace", err)
		}
	}

	updated := *current
	updated.CategoryID = fields.CategoryID
	updated.Title = fields.Title
	updated.Description = fields.Description
	updated.PriorityLevel = model.Priority(fields.PriorityLevel)
	updated.ScheduledDate = *fields.ScheduledDate
	updated.DeadLine = fields.DeadLine
	updated.StartTime = fields.StartTime
	updated.EndTime = fields.EndTime
	updated.IsCompleted = fields.IsCompleted

	err = s.store.InTx(ctx, func(tx Tx) error {
		if err := tx.UpdateTask(ctx, &updated); err != nil {
			return err
		}
		if tagIDs != nil {
			if err := s.reconcileTagLinks(ctx, tx, taskID, resolvedTags); err != nil {
				return err
			}
		}
		if subTasks != nil {
			if err := s.reconcileSubTasks(ctx, tx, taskID, *subTasks); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.finish("replace", err)
	}

	s.logger.Info("Task replaced",
		zap.Int("task_id", taskID),
		zap.Int("user_id", ownerID),
		zap.Bool("tags_supplied", tagIDs != nil),
		zap.Bool("subtasks_supplied", subTasks != nil),
	)
	s.invalidate(ctx, ownerID, taskID)
	s.publish(mq.RoutingKeyTaskUpdated, mq.TaskUpdatedPayload{TaskID: taskID, UserID: ownerID})

	agg, err := s.project(ctx, &updated)
	return agg, s.finish("replace", err)
}

// PartialUpdate applies only the fields present in patch, then re-validates
// the resulting temporal state, since an isolated field change can violate a
// cross-field invariant with an unchanged sibling field.
func (s *Service) PartialUpdate(ctx context.Context, ownerID, taskID int, patch Patch) (*Aggregate, error) {
	current, err := s.store.GetTask(ctx, ownerID, taskID)
	if err != nil {
		return nil, s.finish("partial_update", err)
	}

	merged := *current
	if patch.Title != nil {
		title, err := checkTitle(*patch.Title)
		if err != nil {
			return nil, s.finish("partial_update", err)
		}
		merged.Title = title
	}
	if patch.Description != nil {
		merged.Description = *patch.Description
	}
	if patch.CategoryID != nil {
		if err := s.resolveCategory(ctx, ownerID, patch.CategoryID); err != nil {
			return nil, s.finish("partial_update", err)
		}
		merged.CategoryID = patch.CategoryID
	}
	if patch.PriorityLevel != nil {
		priority, err := model.ParsePriority(*patch.PriorityLevel)
		if err != nil {
			return nil, s.finish("partial_update", apperr.Wrap(apperr.Validation, err, "Invalid priority level"))
		}
		merged.PriorityLevel = priority
	}
	if patch.ScheduledDate != nil {
		merged.ScheduledDate = dateOnly(*patch.ScheduledDate)
	}
	if patch.DeadLine != nil {
		merged.DeadLine = patch.DeadLine
	}
	if patch.StartTime != nil {
		merged.StartTime = patch.StartTime
	}
	if patch.EndTime != nil {
		merged.EndTime = patch.EndTime
	}
	if patch.IsCompleted != nil {
		merged.IsCompleted = *patch.IsCompleted
	}

	if err := checkDeadline(merged.ScheduledDate, merged.DeadLine); err != nil {
		return nil, s.finish("partial_update", err)
	}
	if err := checkTimeWindow(merged.StartTime, merged.EndTime); err != nil {
		return nil, s.finish("partial_update", err)
	}

	err = s.store.InTx(ctx, func(tx Tx) error {
		return tx.UpdateTask(ctx, &merged)
	})
	if err != nil {
		return nil, s.finish("partial_update", err)
	}

	s.logger.Info("Task patched", zap.Int("task_id", taskID), zap.Int("user_id", ownerID))
	s.invalidate(ctx, ownerID, taskID)
	s.publish(mq.RoutingKeyTaskUpdated, mq.TaskUpdatedPayload{TaskID: taskID, UserID: ownerID})

	agg, err := s.project(ctx, &merged)
	return agg, s.finish("partial_update", err)
}

// Delete removes a task with its subtasks and tag associations.
func (s *Service) Delete(ctx context.Context, ownerID, taskID int) error {
	if _, err := s.store.GetTask(ctx, ownerID, taskID); err != nil {
		return s.finish("delete", err)
	}

	err := s.store.InTx(ctx, func(tx Tx) error {
		if err := tx.DeleteAllTagLinks(ctx, taskID); err != nil {
			return err
		}
		if err := tx.DeleteAllSubTasks(ctx, taskID); err != nil {
			return err
		}
		return tx.DeleteTask(ctx, ownerID, taskID)
	})
	if err != nil {
		return s.finish("delete", err)
	}

	s.logger.Info("Task deleted", zap.Int("task_id", taskID), zap.Int("user_id", ownerID))
	s.invalidate(ctx, ownerID, taskID)
	s.publish(mq.RoutingKeyTaskDeleted, mq.TaskDeletedPayload{TaskID: taskID, UserID: ownerID})
	return s.finish("delete", nil)
}

// reconcileTagLinks converges the persisted association set to exactly the
// desired tag set. Pure set difference: nothing to update on an association.
func (s *Service) reconcileTagLinks(ctx context.Context, tx Tx, taskID int, desired []int) error {
	currentTags, err := tx.TagsByTask(ctx, taskID)
	if err != nil {
		return err
	}
	current := make([]int, len(currentTags))
	for i, t := range currentTags {
		current[i] = t.ID
	}

	d := reconcileIDs(current, desired)
	if len(d.toCreate) > 0 {
		if err := tx.InsertTagLinks(ctx, taskID, d.toCreate); err != nil {
			return err
		}
	}
	if len(d.toDelete) > 0 {
		if err := tx.DeleteTagLinks(ctx, taskID, d.toDelete); err != nil {
			return err
		}
	}
	return nil
}

// reconcileSubTasks converges the owned subtask collection: descriptors with a
// known ID update the existing row, descriptors without one create a new row,
// and rows no longer named are deleted.
func (s *Service) reconcileSubTasks(ctx context.Context, tx Tx, taskID int, desired []SubTaskInput) error {
	current, err := tx.SubTasksByTask(ctx, taskID)
	if err != nil {
		return err
	}
	currentByID := make(map[int]model.SubTask, len(current))
	for _, sub := range current {
		currentByID[sub.ID] = sub
	}

	d := reconcile(
		current,
		desired,
		func(c model.SubTask) int { return c.ID },
		func(in SubTaskInput) (int, bool) {
			if in.ID == nil {
				return 0, false
			}
			return *in.ID, true
		},
		func(c model.SubTask, in SubTaskInput) bool {
			return c.Title != in.Title || c.IsCompleted != in.IsCompleted
		},
	)

	if len(d.toCreate) > 0 {
		subs := make([]model.SubTask, len(d.toCreate))
		for i, in := range d.toCreate {
			subs[i] = model.SubTask{TaskID: taskID, Title: in.Title, IsCompleted: in.IsCompleted}
		}
		if err := tx.InsertSubTasks(ctx, taskID, subs); err != nil {
			return err
		}
	}
	for _, in := range d.toUpdate {
		sub := currentByID[*in.ID]
		sub.Title = in.Title
		sub.IsCompleted = in.IsCompleted
		if err := tx.UpdateSubTask(ctx, sub); err != nil {
			return err
		}
	}
	if len(d.toDelete) > 0 {
		if err := tx.DeleteSubTasks(ctx, taskID, d.toDelete); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) publish(routingKey string, payload any) {
	if s.pub == nil {
		return
	}
	if err := s.pub.Publish(routingKey, payload); err != nil {
		s.logger.Error("Failed to publish event",
			zap.String("routing_key", routingKey),
			zap.Error(err),
		)
	}
}

func (s *Service) invalidate(ctx context.Context, ownerID, taskID int) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, ownerID, taskID)
	}
}

// finish records the operation outcome metric and passes err through.
func (s *Service) finish(operation string, err error) error {
	status := "ok"
	if err != nil {
		status = apperr.KindOf(err).String()
	}
	metrics.TaskOperationCount.WithLabelValues(operation, status).Inc()
	return err
}

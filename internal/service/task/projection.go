package task

import (
	"context"
	"time"

	"taskplanner/internal/model"
)

const dateLayout = "2006-01-02"

// project builds the external aggregate view. Children are read back from the
// store strictly after any write has committed, so the snapshot never reflects
// rolled-back or stale in-memory state.
func (s *Service) project(ctx context.Context, t *model.Task) (*Aggregate, error) {
	subs, err := s.store.SubTasksByTask(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	tags, err := s.store.TagsByTask(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	return buildAggregate(t, subs, tags), nil
}

func buildAggregate(t *model.Task, subs []model.SubTask, tags []model.Tag) *Aggregate {
	agg := &Aggregate{
		ID:            t.ID,
		Title:         t.Title,
		Description:   t.Description,
		Category:      t.CategoryID,
		PriorityLevel: string(t.PriorityLevel),
		ScheduledDate: t.ScheduledDate.Format(dateLayout),
		DeadLine:      formatDate(t.DeadLine),
		StartTime:     t.StartTime,
		EndTime:       t.EndTime,
		IsCompleted:   t.IsCompleted,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
		SubTasks:      make([]SubTaskView, 0, len(subs)),
		Tags:          make([]TagView, 0, len(tags)),
	}
	for _, sub := range subs {
		agg.SubTasks = append(agg.SubTasks, SubTaskView{
			ID:          sub.ID,
			Title:       sub.Title,
			IsCompleted: sub.IsCompleted,
		})
	}
	for _, tag := range tags {
		agg.Tags = append(agg.Tags, TagView{ID: tag.ID, Title: tag.Title})
	}
	return agg
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

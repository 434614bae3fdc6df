package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"taskplanner/internal/apperr"
	"taskplanner/internal/model"
	"taskplanner/pkg/metrics"
)

const taskColumns = `id, user_id, category_id, title, description, priority_level,
       scheduled_date, dead_line, start_time, end_time, is_completed, created_at, updated_at`

func (s *Store) GetTask(ctx context.Context, ownerID, taskID int) (*model.Task, error) {
	defer observe("select", "tasks", time.Now())
	query := `
        SELECT ` + taskColumns + `
        FROM tasks
        WHERE id = $1 AND user_id = $2
    `
	t, err := scanTask(s.pool.QueryRow(ctx, query, taskID, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.NotFound, "Invalid Task ID: %d", taskID)
		}
		s.logger.Error("Failed to fetch task",
			zap.Error(err),
			zap.Int("task_id", taskID),
			zap.Int("user_id", ownerID),
		)
		return nil, classify(err)
	}
	return t, nil
}

func (s *Store) ListTasks(ctx context.Context, ownerID int, scheduledDate *time.Time) ([]model.Task, error) {
	defer observe("select", "tasks", time.Now())
	query := `
        SELECT ` + taskColumns + `
        FROM tasks
        WHERE user_id = $1
        ORDER BY created_at DESC
    `
	args := []any{ownerID}
	if scheduledDate != nil {
		query = `
        SELECT ` + taskColumns + `
        FROM tasks
        WHERE user_id = $1 AND scheduled_date = $2
        ORDER BY created_at DESC
    `
		args = append(args, *scheduledDate)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		s.logger.Error("Failed to query tasks", zap.Error(err), zap.Int("user_id", ownerID))
		return nil, classify(err)
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, classify(err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return tasks, nil
}

func (t *txStore) InsertTask(ctx context.Context, task *model.Task) (int, error) {
	defer observe("insert", "tasks", time.Now())
	query := `
        INSERT INTO tasks (user_id, category_id, title, description, priority_level,
                           scheduled_date, dead_line, start_time, end_time, is_completed)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
        RETURNING id, created_at, updated_at
    `
	err := t.q.QueryRow(ctx, query,
		task.UserID,
		task.CategoryID,
		task.Title,
		task.Description,
		string(task.PriorityLevel),
		task.ScheduledDate,
		task.DeadLine,
		task.StartTime,
		task.EndTime,
		task.IsCompleted,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		t.logger.Error("Failed to insert task", zap.Error(err), zap.Int("user_id", task.UserID))
		return 0, err
	}
	return task.ID, nil
}

func (t *txStore) UpdateTask(ctx context.Context, task *model.Task) error {
	defer observe("update", "tasks", time.Now())
	query := `
        UPDATE tasks
        SET category_id = $1, title = $2, description = $3, priority_level = $4,
            scheduled_date = $5, dead_line = $6, start_time = $7, end_time = $8,
            is_completed = $9, updated_at = NOW()
        WHERE id = $10 AND user_id = $11
        RETURNING updated_at
    `
	err := t.q.QueryRow(ctx, query,
		task.CategoryID,
		task.Title,
		task.Description,
		string(task.PriorityLevel),
		task.ScheduledDate,
		task.DeadLine,
		task.StartTime,
		task.EndTime,
		task.IsCompleted,
		task.ID,
		task.UserID,
	).Scan(&task.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.New(apperr.NotFound, "Invalid Task ID: %d", task.ID)
		}
		t.logger.Error("Failed to update task", zap.Error(err), zap.Int("task_id", task.ID))
		return err
	}
	return nil
}

func (t *txStore) DeleteTask(ctx context.Context, ownerID, taskID int) error {
	defer observe("delete", "tasks", time.Now())
	tag, err := t.q.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, taskID, ownerID)
	if err != nil {
		t.logger.Error("Failed to delete task", zap.Error(err), zap.Int("task_id", taskID))
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.NotFound, "Invalid Task ID: %d", taskID)
	}
	return nil
}

func scanTask(row pgx.Row) (*model.Task, error) {
	var t model.Task
	var priority string
	if err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.CategoryID,
		&t.Title,
		&t.Description,
		&priority,
		&t.ScheduledDate,
		&t.DeadLine,
		&t.StartTime,
		&t.EndTime,
		&t.IsCompleted,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	t.PriorityLevel = model.Priority(priority)
	return &t, nil
}

func observe(operation, table string, start time.Time) {
	metrics.DBQueryDuration.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
}

package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"taskplanner/internal/model"
)

func (s *Store) SubTasksByTask(ctx context.Context, taskID int) ([]model.SubTask, error) {
	return subTasksByTask(ctx, s.pool, taskID)
}

func (t *txStore) SubTasksByTask(ctx context.Context, taskID int) ([]model.SubTask, error) {
	return subTasksByTask(ctx, t.q, taskID)
}

func subTasksByTask(ctx context.Context, q querier, taskID int) ([]model.SubTask, error) {
	defer observe("select", "subtasks", time.Now())
	query := `
        SELECT id, task_id, title, is_completed
        FROM subtasks
        WHERE task_id = $1
        ORDER BY id
    `
	rows, err := q.Query(ctx, query, taskID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	subs := []model.SubTask{}
	for rows.Next() {
		var sub model.SubTask
		if err := rows.Scan(&sub.ID, &sub.TaskID, &sub.Title, &sub.IsCompleted); err != nil {
			return nil, classify(err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return subs, nil
}

// InsertSubTasks bulk-creates subtasks in one round trip. Issued inside the
// surrounding transaction, so a failure rolls back the whole batch.
func (t *txStore) InsertSubTasks(ctx context.Context, taskID int, subs []model.SubTask) error {
	defer observe("insert", "subtasks", time.Now())
	batch := &pgx.Batch{}
	for _, sub := range subs {
		batch.Queue(
			`INSERT INTO subtasks (task_id, title, is_completed) VALUES ($1, $2, $3)`,
			taskID, sub.Title, sub.IsCompleted,
		)
	}
	if err := t.q.SendBatch(ctx, batch).Close(); err != nil {
		t.logger.Error("Failed to bulk insert subtasks",
			zap.Error(err),
			zap.Int("task_id", taskID),
			zap.Int("count", len(subs)),
		)
		return err
	}
	return nil
}

func (t *txStore) UpdateSubTask(ctx context.Context, sub model.SubTask) error {
	defer observe("update", "subtasks", time.Now())
	_, err := t.q.Exec(ctx,
		`UPDATE subtasks SET title = $1, is_completed = $2 WHERE id = $3 AND task_id = $4`,
		sub.Title, sub.IsCompleted, sub.ID, sub.TaskID,
	)
	if err != nil {
		t.logger.Error("Failed to update subtask", zap.Error(err), zap.Int("subtask_id", sub.ID))
	}
	return err
}

func (t *txStore) DeleteSubTasks(ctx context.Context, taskID int, subIDs []int) error {
	defer observe("delete", "subtasks", time.Now())
	_, err := t.q.Exec(ctx,
		`DELETE FROM subtasks WHERE task_id = $1 AND id = ANY($2)`,
		taskID, subIDs,
	)
	return err
}

func (t *txStore) DeleteAllSubTasks(ctx context.Context, taskID int) error {
	defer observe("delete", "subtasks", time.Now())
	_, err := t.q.Exec(ctx, `DELETE FROM subtasks WHERE task_id = $1`, taskID)
	return err
}

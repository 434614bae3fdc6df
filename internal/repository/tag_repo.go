package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"taskplanner/internal/apperr"
	"taskplanner/internal/model"
)

func (s *Store) ListTags(ctx context.Context, ownerID int) ([]model.Tag, error) {
	defer observe("select", "tags", time.Now())
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, title FROM tags WHERE user_id = $1 ORDER BY title`,
		ownerID,
	)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	return collectTags(rows)
}

func (s *Store) GetTag(ctx context.Context, ownerID, tagID int) (*model.Tag, error) {
	defer observe("select", "tags", time.Now())
	var t model.Tag
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, title FROM tags WHERE id = $1 AND user_id = $2`,
		tagID, ownerID,
	).Scan(&t.ID, &t.UserID, &t.Title)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.NotFound, "Tag with ID %d not found", tagID)
		}
		return nil, classify(err)
	}
	return &t, nil
}

// TagsByIDs returns the subset of tagIDs owned by ownerID. Missing IDs are
// simply absent from the result.
func (s *Store) TagsByIDs(ctx context.Context, ownerID int, tagIDs []int) ([]model.Tag, error) {
	defer observe("select", "tags", time.Now())
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, title FROM tags WHERE user_id = $1 AND id = ANY($2)`,
		ownerID, tagIDs,
	)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	return collectTags(rows)
}

func (s *Store) CreateTag(ctx context.Context, ownerID int, title string) (*model.Tag, error) {
	defer observe("insert", "tags", time.Now())
	t := model.Tag{UserID: ownerID, Title: title}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO tags (user_id, title) VALUES ($1, $2) RETURNING id`,
		ownerID, title,
	).Scan(&t.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Wrap(apperr.Conflict, err, "The tag already exists")
		}
		s.logger.Error("Failed to insert tag", zap.Error(err), zap.Int("user_id", ownerID))
		return nil, classify(err)
	}
	return &t, nil
}

func (s *Store) DeleteTag(ctx context.Context, ownerID, tagID int) error {
	defer observe("delete", "tags", time.Now())
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM tags WHERE id = $1 AND user_id = $2`,
		tagID, ownerID,
	)
	if err != nil {
		return classify(err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.NotFound, "Tag with ID %d not found", tagID)
	}
	return nil
}

func (s *Store) TagsByTask(ctx context.Context, taskID int) ([]model.Tag, error) {
	return tagsByTask(ctx, s.pool, taskID)
}

func (t *txStore) TagsByTask(ctx context.Context, taskID int) ([]model.Tag, error) {
	return tagsByTask(ctx, t.q, taskID)
}

func tagsByTask(ctx context.Context, q querier, taskID int) ([]model.Tag, error) {
	defer observe("select", "tagged_items", time.Now())
	rows, err := q.Query(ctx, `
        SELECT t.id, t.user_id, t.title
        FROM tags t
        JOIN tagged_items ti ON ti.tag_id = t.id
        WHERE ti.task_id = $1
        ORDER BY t.id
    `, taskID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	return collectTags(rows)
}

// InsertTagLinks bulk-creates association rows. The (task_id, tag_id) unique
// constraint turns a duplicate into a Conflict at the transaction boundary.
func (t *txStore) InsertTagLinks(ctx context.Context, taskID int, tagIDs []int) error {
	defer observe("insert", "tagged_items", time.Now())
	batch := &pgx.Batch{}
	for _, tagID := range tagIDs {
		batch.Queue(
			`INSERT INTO tagged_items (task_id, tag_id) VALUES ($1, $2)`,
			taskID, tagID,
		)
	}
	if err := t.q.SendBatch(ctx, batch).Close(); err != nil {
		t.logger.Error("Failed to bulk insert tag links",
			zap.Error(err),
			zap.Int("task_id", taskID),
			zap.Int("count", len(tagIDs)),
		)
		return err
	}
	return nil
}

func (t *txStore) DeleteTagLinks(ctx context.Context, taskID int, tagIDs []int) error {
	defer observe("delete", "tagged_items", time.Now())
	_, err := t.q.Exec(ctx,
		`DELETE FROM tagged_items WHERE task_id = $1 AND tag_id = ANY($2)`,
		taskID, tagIDs,
	)
	return err
}

func (t *txStore) DeleteAllTagLinks(ctx context.Context, taskID int) error {
	defer observe("delete", "tagged_items", time.Now())
	_, err := t.q.Exec(ctx, `DELETE FROM tagged_items WHERE task_id = $1`, taskID)
	return err
}

func collectTags(rows pgx.Rows) ([]model.Tag, error) {
	tags := []model.Tag{}
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.UserID, &t.Title); err != nil {
			return nil, classify(err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return tags, nil
}

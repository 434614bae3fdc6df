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

func (s *Store) ListCategories(ctx context.Context, ownerID int) ([]model.Category, error) {
	defer observe("select", "categories", time.Now())
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, title FROM categories WHERE user_id = $1 ORDER BY title`,
		ownerID,
	)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title); err != nil {
			return nil, classify(err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	return categories, nil
}

func (s *Store) GetCategory(ctx context.Context, ownerID, categoryID int) (*model.Category, error) {
	defer observe("select", "categories", time.Now())
	var c model.Category
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, title FROM categories WHERE id = $1 AND user_id = $2`,
		categoryID, ownerID,
	).Scan(&c.ID, &c.UserID, &c.Title)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.NotFound, "Invalid Category ID: %d", categoryID)
		}
		return nil, classify(err)
	}
	return &c, nil
}

func (s *Store) CreateCategory(ctx context.Context, ownerID int, title string) (*model.Category, error) {
	defer observe("insert", "categories", time.Now())
	c := model.Category{UserID: ownerID, Title: title}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO categories (user_id, title) VALUES ($1, $2) RETURNING id`,
		ownerID, title,
	).Scan(&c.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Wrap(apperr.Conflict, err, "The category already exists")
		}
		s.logger.Error("Failed to insert category", zap.Error(err), zap.Int("user_id", ownerID))
		return nil, classify(err)
	}
	return &c, nil
}

func (s *Store) UpdateCategory(ctx context.Context, ownerID, categoryID int, title string) (*model.Category, error) {
	defer observe("update", "categories", time.Now())
	c := model.Category{ID: categoryID, UserID: ownerID, Title: title}
	tag, err := s.pool.Exec(ctx,
		`UPDATE categories SET title = $1 WHERE id = $2 AND user_id = $3`,
		title, categoryID, ownerID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Wrap(apperr.Conflict, err, "The category already exists")
		}
		return nil, classify(err)
	}
	if tag.RowsAffected() == 0 {
		return nil, apperr.New(apperr.NotFound, "Invalid Category ID: %d", categoryID)
	}
	return &c, nil
}

func (s *Store) DeleteCategory(ctx context.Context, ownerID, categoryID int) error {
	defer observe("delete", "categories", time.Now())
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM categories WHERE id = $1 AND user_id = $2`,
		categoryID, ownerID,
	)
	if err != nil {
		return classify(err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.New(apperr.NotFound, "Invalid Category ID: %d", categoryID)
	}
	return nil
}

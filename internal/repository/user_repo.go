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

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	defer observe("select", "users", time.Now())
	var u model.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = $1`,
		email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.NotFound, "User not found")
		}
		return nil, classify(err)
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	defer observe("insert", "users", time.Now())
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (email, password_hash) VALUES ($1, $2) RETURNING id, created_at`,
		u.Email, u.PasswordHash,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Wrap(apperr.Conflict, err, "Email already exists")
		}
		s.logger.Error("Failed to insert user", zap.Error(err))
		return classify(err)
	}
	return nil
}

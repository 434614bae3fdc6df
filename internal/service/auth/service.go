package auth

import (
	"context"
	"strings"

	"taskplanner/internal/apperr"
	"taskplanner/internal/model"
	"taskplanner/pkg/util"
)

// UserStore is the narrow persistence contract auth needs.
type UserStore interface {
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)
	CreateUser(ctx context.Context, u *model.User) error
}

type Service struct {
	users     UserStore
	jwtSecret string
}

func NewService(users UserStore, jwtSecret string) *Service {
	return &Service{users: users, jwtSecret: jwtSecret}
}

// Register creates a new user.
func (s *Service) Register(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperr.New(apperr.Validation, "Email and password are required")
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &model.User{
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login checks user credentials and returns a signed JWT.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.users.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", apperr.New(apperr.Validation, "Invalid email or password")
	}
	if !util.CheckPassword(password, u.PasswordHash) {
		return "", apperr.New(apperr.Validation, "Invalid email or password")
	}
	return util.GenerateJWT(u.ID, s.jwtSecret)
}

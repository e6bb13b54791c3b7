package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/voisinage/entraide-backend/internal/models"
	"github.com/voisinage/entraide-backend/internal/pkg/apperror"
	"github.com/voisinage/entraide-backend/internal/repository"
)

// UserRepositoryReader описывает чтение профилей участников.
type UserRepositoryReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// UserService отдаёт профили соседей. Учётные записи ведёт внешний
// сервис аутентификации, поэтому здесь только чтение.
type UserService struct {
	repo UserRepositoryReader
}

func NewUserService(repo UserRepositoryReader) *UserService {
	return &UserService{repo: repo}
}

// GetUser возвращает профиль участника по идентификатору.
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить профиль пользователя")
	}
	return user, nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/voisinage/entraide-backend/internal/models"
	"github.com/voisinage/entraide-backend/internal/repository/common"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository читает профили участников. Учётные записи создаёт
// внешний сервис аутентификации, поэтому здесь только чтение.
type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return common.GetByID[models.User](ctx, r.db, "users", id, ErrUserNotFound)
}

// GetSimpleByID возвращает краткий профиль для обсуждений.
func (r *UserRepository) GetSimpleByID(ctx context.Context, id uuid.UUID) (*models.UserSimple, error) {
	var user models.UserSimple
	err := r.db.GetContext(ctx, &user,
		`SELECT id, first_name, last_name, avatar_url FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user repository: get simple %w", err)
	}
	return &user, nil
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// User — участник платформы взаимопомощи. Аутентификация и сессии живут
// во внешнем сервисе; здесь хранится только профиль для отображения.
type User struct {
	ID        uuid.UUID `db:"id" json:"id"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	Email     string    `db:"email" json:"email"`
	City      string    `db:"city" json:"city"`
	AvatarURL *string   `db:"avatar_url" json:"avatar_url,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// UserSimple — краткое представление участника в обсуждениях.
type UserSimple struct {
	ID        uuid.UUID `db:"id" json:"id"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	AvatarURL *string   `db:"avatar_url" json:"avatar_url,omitempty"`
}

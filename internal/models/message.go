package models

import (
	"time"

	"github.com/google/uuid"
)

// Message описывает сообщение в обсуждении предложения помощи.
// Лента только дополняется; порядок задаёт серверная метка времени.
type Message struct {
	ID             uuid.UUID `db:"id" json:"id"`
	HelpOfferID    uuid.UUID `db:"help_offer_id" json:"help_offer_id"`
	SenderID       uuid.UUID `db:"sender_id" json:"sender_id"`
	Content        string    `db:"content" json:"content"`
	ReadByReceiver bool      `db:"read_by_receiver" json:"read_by_receiver"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Notification описывает событие, отправленное пользователю.
type Notification struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Payload   []byte    `db:"payload" json:"payload"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

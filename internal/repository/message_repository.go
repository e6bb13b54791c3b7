package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/voisinage/entraide-backend/internal/models"
)

// MessageRepository хранит ленту сообщений обсуждения предложения помощи.
// Лента только дополняется; редактирования и удаления нет.
type MessageRepository struct {
	db *sqlx.DB
}

func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create добавляет сообщение; порядок задаёт серверная метка времени.
func (r *MessageRepository) Create(ctx context.Context, message *models.Message) error {
	return r.db.QueryRowxContext(ctx, `
		INSERT INTO help_offer_messages (help_offer_id, sender_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, read_by_receiver, created_at
	`, message.HelpOfferID, message.SenderID, message.Content).
		Scan(&message.ID, &message.ReadByReceiver, &message.CreatedAt)
}

// ListByOffer возвращает ленту в порядке отправки.
func (r *MessageRepository) ListByOffer(ctx context.Context, offerID uuid.UUID) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.SelectContext(ctx, &messages, `
		SELECT * FROM help_offer_messages WHERE help_offer_id = $1 ORDER BY created_at ASC, id ASC
	`, offerID)
	if err != nil {
		return nil, fmt.Errorf("message repository: list by offer %w", err)
	}
	return messages, nil
}

// MarkAllAsRead отмечает прочитанными все сообщения, адресованные пользователю.
func (r *MessageRepository) MarkAllAsRead(ctx context.Context, offerID, readerID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE help_offer_messages
		SET read_by_receiver = TRUE
		WHERE help_offer_id = $1 AND sender_id <> $2 AND read_by_receiver = FALSE
	`, offerID, readerID)
	if err != nil {
		return fmt.Errorf("message repository: mark all as read %w", err)
	}
	return nil
}

// CountUnread возвращает число непрочитанных сообщений для пользователя.
func (r *MessageRepository) CountUnread(ctx context.Context, offerID, readerID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM help_offer_messages
		WHERE help_offer_id = $1 AND sender_id <> $2 AND read_by_receiver = FALSE
	`, offerID, readerID)
	if err != nil {
		return 0, fmt.Errorf("message repository: count unread %w", err)
	}
	return count, nil
}

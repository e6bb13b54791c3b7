package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/voisinage/entraide-backend/internal/logger"
	"github.com/voisinage/entraide-backend/internal/models"
)

// NotificationRepository описывает взаимодействие сервиса с хранилищем уведомлений.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	ListUnread(ctx context.Context, userID uuid.UUID) ([]models.Notification, error)
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
}

// Broadcaster доставляет событие пользователю, если он онлайн.
type Broadcaster interface {
	BroadcastToUser(userID uuid.UUID, event string, data interface{}) error
}

// NotificationService доставляет события жизненного цикла участникам:
// сразу по WebSocket и в хранилище — для доставки при следующем входе.
type NotificationService struct {
	repo NotificationRepository
	hub  Broadcaster
}

// NewNotificationService создаёт сервис уведомлений.
func NewNotificationService(repo NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

// SetHub устанавливает WebSocket hub для мгновенной доставки.
func (s *NotificationService) SetHub(hub Broadcaster) {
	s.hub = hub
}

// Notify сохраняет уведомление и рассылает его онлайн-подключениям.
// Ошибка доставки не прерывает вызывающую операцию.
func (s *NotificationService) Notify(userID uuid.UUID, event string, payload map[string]interface{}) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	body := map[string]interface{}{"event": event}
	for k, v := range payload {
		body[k] = v
	}
	payloadBytes, err := json.Marshal(body)
	if err != nil {
		logger.Log.WithError(err).Warn("notification service: не удалось сериализовать уведомление")
		return
	}

	notification := &models.Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Payload:   payloadBytes,
		CreatedAt: time.Now(),
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		logger.Log.WithError(err).WithField("user_id", userID).
			Warn("notification service: не удалось сохранить уведомление")
	}

	if s.hub != nil {
		if err := s.hub.BroadcastToUser(userID, event, payload); err != nil {
			logger.Log.WithError(err).WithField("user_id", userID).
				Debug("notification service: пользователь офлайн, доставим при следующем входе")
		}
	}
}

// ListUnread возвращает неполученные уведомления пользователя.
func (s *NotificationService) ListUnread(ctx context.Context, userID uuid.UUID) ([]models.Notification, error) {
	return s.repo.ListUnread(ctx, userID)
}

// MarkAllAsRead отмечает все уведомления пользователя доставленными.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

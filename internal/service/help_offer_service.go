package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/voisinage/entraide-backend/internal/logger"
	"github.com/voisinage/entraide-backend/internal/models"
	"github.com/voisinage/entraide-backend/internal/pkg/apperror"
	"github.com/voisinage/entraide-backend/internal/repository"
)

// HelpOfferStore описывает взаимодействие сервиса с хранилищем предложений.
type HelpOfferStore interface {
	CreateWithFirstMessage(ctx context.Context, offer *models.HelpOffer, message *models.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.HelpOffer, error)
	GetActiveByRequestAndHelper(ctx context.Context, requestID, helperID uuid.UUID) (*models.HelpOffer, error)
	ListByParticipant(ctx context.Context, userID uuid.UUID) ([]models.HelpOffer, error)
	UpdateStatus(ctx context.Context, offer *models.HelpOffer, expected models.OfferStatus) error
	SetClosedAt(ctx context.Context, offerID uuid.UUID, closedAt time.Time) error
	ListStalledAfterConfirmation(ctx context.Context, cutoff time.Time, limit int) ([]models.HelpOffer, error)
}

// HelpRequestStore — минимальный контракт для чтения запросов о помощи.
type HelpRequestStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.HelpRequest, error)
}

// MessageStore описывает хранилище сообщений обсуждения.
type MessageStore interface {
	Create(ctx context.Context, message *models.Message) error
	ListByOffer(ctx context.Context, offerID uuid.UUID) ([]models.Message, error)
	MarkAllAsRead(ctx context.Context, offerID, readerID uuid.UUID) error
	CountUnread(ctx context.Context, offerID, readerID uuid.UUID) (int, error)
}

// ReviewStore описывает хранилище отзывов и отчётов об инцидентах.
type ReviewStore interface {
	Create(ctx context.Context, entry *models.ReviewEntry) error
	ListByOffer(ctx context.Context, offerID uuid.UUID) ([]models.ReviewEntry, error)
}

// UserReader — минимальный контракт для кратких профилей участников.
type UserReader interface {
	GetSimpleByID(ctx context.Context, id uuid.UUID) (*models.UserSimple, error)
}

// Notifier доставляет событие участнику: по WebSocket, если он онлайн,
// иначе откладывает до следующего входа.
type Notifier interface {
	Notify(userID uuid.UUID, event string, payload map[string]interface{})
}

// HelpOfferService содержит бизнес-логику жизненного цикла предложений помощи.
type HelpOfferService struct {
	offers   HelpOfferStore
	requests HelpRequestStore
	messages MessageStore
	reviews  ReviewStore
	users    UserReader
	notifier Notifier

	policy models.ExpirationPolicy
	// Льготный период после назначенного времени помощи: подтверждённая
	// встреча без единого отзыва после него считается истёкшей.
	grace time.Duration

	now func() time.Time
}

// NewHelpOfferService создаёт сервис предложений помощи.
func NewHelpOfferService(
	offers HelpOfferStore,
	requests HelpRequestStore,
	messages MessageStore,
	reviews ReviewStore,
	users UserReader,
	policy models.ExpirationPolicy,
	grace time.Duration,
) *HelpOfferService {
	return &HelpOfferService{
		offers:   offers,
		requests: requests,
		messages: messages,
		reviews:  reviews,
		users:    users,
		policy:   policy,
		grace:    grace,
		now:      time.Now,
	}
}

// SetNotifier устанавливает доставку событий участникам.
func (s *HelpOfferService) SetNotifier(n Notifier) {
	s.notifier = n
}

// ProposeOfferInput описывает входные данные нового предложения.
type ProposeOfferInput struct {
	HelpRequestID uuid.UUID
	HelperID      uuid.UUID
	Message       string
}

// ProposeOffer создаёт предложение помощи вместе с вступительным сообщением.
// У пары (запрос, помощник) может быть только одно активное предложение.
func (s *HelpOfferService) ProposeOffer(ctx context.Context, in ProposeOfferInput) (*models.HelpOffer, error) {
	if in.Message == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "вступительное сообщение не может быть пустым")
	}

	request, err := s.requests.GetByID(ctx, in.HelpRequestID)
	if err != nil {
		if errors.Is(err, repository.ErrHelpRequestNotFound) {
			return nil, apperror.ErrHelpRequestNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить запрос о помощи")
	}

	existing, err := s.offers.GetActiveByRequestAndHelper(ctx, in.HelpRequestID, in.HelperID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось проверить существующие предложения")
	}
	if existing != nil {
		return nil, apperror.New(apperror.ErrCodeConflict, "у вас уже есть активное предложение по этому запросу")
	}

	offer, err := models.NewHelpOffer(request, in.HelperID, s.now())
	if err != nil {
		return nil, err
	}

	message := &models.Message{
		HelpOfferID: offer.ID,
		SenderID:    in.HelperID,
		Content:     in.Message,
	}
	if err := s.offers.CreateWithFirstMessage(ctx, offer, message); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить предложение помощи")
	}

	s.notify(offer.RequesterID, "help_offer.proposed", offer)

	return offer, nil
}

// GetOffer возвращает предложение для его участника, предварительно применив
// ленивое истечение: просроченное окно ожидания фиксируется при первом чтении.
func (s *HelpOfferService) GetOffer(ctx context.Context, offerID, viewerID uuid.UUID) (*models.HelpOffer, error) {
	offer, err := s.loadOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if !offer.IsParticipant(viewerID) {
		return nil, apperror.New(apperror.ErrCodePermission, "предложение доступно только его участникам")
	}
	return s.reconcileExpiration(ctx, offer)
}

// ValidateOffer — запрашивающий принимает предложение.
func (s *HelpOfferService) ValidateOffer(ctx context.Context, offerID, actorID uuid.UUID) (*models.HelpOffer, error) {
	return s.transition(ctx, offerID, "help_offer.validated", func(o *models.HelpOffer, now time.Time) error {
		return o.Validate(actorID, now)
	})
}

// ConfirmOffer — помощник подтверждает участие.
func (s *HelpOfferService) ConfirmOffer(ctx context.Context, offerID, actorID uuid.UUID) (*models.HelpOffer, error) {
	return s.transition(ctx, offerID, "help_offer.confirmed", func(o *models.HelpOffer, now time.Time) error {
		return o.Confirm(actorID, now)
	})
}

// CancelOffer — участник выходит из активного цикла. Терминальный статус
// называет отменившую сторону.
func (s *HelpOfferService) CancelOffer(ctx context.Context, offerID, actorID uuid.UUID, justification string) (*models.HelpOffer, error) {
	return s.transition(ctx, offerID, "help_offer.canceled", func(o *models.HelpOffer, now time.Time) error {
		return o.Cancel(actorID, justification, now)
	})
}

// MarkOfferDone — запрашивающий закрывает состоявшуюся встречу.
func (s *HelpOfferService) MarkOfferDone(ctx context.Context, offerID, actorID uuid.UUID) (*models.HelpOffer, error) {
	return s.transition(ctx, offerID, "help_offer.done", func(o *models.HelpOffer, now time.Time) error {
		return o.MarkDone(actorID, now)
	})
}

// transition выполняет пользовательский переход: загрузка, ленивое истечение,
// мутация и CAS-запись с ожидаемым исходным статусом. Проигравший гонку
// получает STALE_STATE и должен перечитать снапшот.
func (s *HelpOfferService) transition(
	ctx context.Context,
	offerID uuid.UUID,
	event string,
	mutate func(o *models.HelpOffer, now time.Time) error,
) (*models.HelpOffer, error) {
	offer, err := s.loadOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	offer, err = s.reconcileExpiration(ctx, offer)
	if err != nil {
		return nil, err
	}

	expected := offer.Status
	if err := mutate(offer, s.now()); err != nil {
		return nil, err
	}

	if err := s.offers.UpdateStatus(ctx, offer, expected); err != nil {
		if errors.Is(err, repository.ErrOfferModified) {
			return nil, apperror.ErrStaleOffer
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить переход")
	}

	s.notifyCounterparts(offer, event)

	return offer, nil
}

// loadOffer переводит ошибку хранилища в ошибку уровня приложения.
func (s *HelpOfferService) loadOffer(ctx context.Context, offerID uuid.UUID) (*models.HelpOffer, error) {
	offer, err := s.offers.GetByID(ctx, offerID)
	if err != nil {
		if errors.Is(err, repository.ErrHelpOfferNotFound) {
			return nil, apperror.ErrHelpOfferNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить предложение помощи")
	}
	return offer, nil
}

// reconcileExpiration применяет ленивое истечение: если окно ожидания истекло,
// предложение переводится в EXPIRED при первом же обращении. Запись идёт через
// тот же CAS; проигравшая гонку сторона просто перечитывает снапшот — истечение
// идемпотентно и наблюдаемый результат у обоих читателей одинаков.
func (s *HelpOfferService) reconcileExpiration(ctx context.Context, offer *models.HelpOffer) (*models.HelpOffer, error) {
	now := s.now()
	if !s.policy.IsExpired(offer.Status, offer.ExpirationReference, now) {
		return offer, nil
	}

	expected := offer.Status
	reason := s.policy.ReasonFor(offer.Status)
	if err := offer.Expire(reason, now); err != nil {
		return nil, err
	}

	if err := s.offers.UpdateStatus(ctx, offer, expected); err != nil {
		if errors.Is(err, repository.ErrOfferModified) {
			return s.loadOffer(ctx, offer.ID)
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось зафиксировать истечение")
	}

	s.notifyCounterparts(offer, "help_offer.expired")

	return offer, nil
}

// SubmitFeedbackInput описывает отзыв участника о встрече.
type SubmitFeedbackInput struct {
	HelpOfferID uuid.UUID
	ActorID     uuid.UUID
	Content     string
}

// SubmitFeedback записывает отзыв участника. Доступно в DONE и FAILED;
// повторная отправка тем же участником отклоняется без изменения первой записи.
func (s *HelpOfferService) SubmitFeedback(ctx context.Context, in SubmitFeedbackInput) (*models.ReviewEntry, error) {
	if in.Content == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "текст отзыва не может быть пустым")
	}

	offer, err := s.loadOffer(ctx, in.HelpOfferID)
	if err != nil {
		return nil, err
	}
	offer, err = s.reconcileExpiration(ctx, offer)
	if err != nil {
		return nil, err
	}

	role := offer.RoleOf(in.ActorID)
	if role == models.RoleNone {
		return nil, apperror.New(apperror.ErrCodePermission, "оставить отзыв может только участник предложения")
	}
	if offer.Status != models.OfferStatusDone && offer.Status != models.OfferStatusFailed {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "отзыв доступен только после завершения встречи")
	}

	entry := &models.ReviewEntry{
		ID:            uuid.New(),
		HelpOfferID:   offer.ID,
		ParticipantID: in.ActorID,
		Role:          role,
		Kind:          models.ReviewKindFeedback,
		Content:       in.Content,
		SubmittedAt:   s.now(),
	}
	if err := s.createReview(ctx, offer, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// ReportIncidentInput описывает отчёт об инциденте.
type ReportIncidentInput struct {
	HelpOfferID  uuid.UUID
	ActorID      uuid.UUID
	IncidentType models.IncidentType
	Content      string
}

// ReportIncident записывает отчёт об инциденте. Первый отчёт из
// CONFIRMED_BY_HELPER переводит предложение в FAILED; из DONE и FAILED
// отчёт добавляется без смены статуса.
func (s *HelpOfferService) ReportIncident(ctx context.Context, in ReportIncidentInput) (*models.ReviewEntry, error) {
	if _, ok := models.ValidIncidentTypes[in.IncidentType]; !ok {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректный тип инцидента")
	}

	offer, err := s.loadOffer(ctx, in.HelpOfferID)
	if err != nil {
		return nil, err
	}
	offer, err = s.reconcileExpiration(ctx, offer)
	if err != nil {
		return nil, err
	}

	role := offer.RoleOf(in.ActorID)
	if role == models.RoleNone {
		return nil, apperror.New(apperror.ErrCodePermission, "сообщить об инциденте может только участник")
	}

	switch offer.Status {
	case models.OfferStatusConfirmedByHelper:
		expected := offer.Status
		if err := offer.FailWithIncident(in.ActorID, s.now()); err != nil {
			return nil, err
		}
		if err := s.offers.UpdateStatus(ctx, offer, expected); err != nil {
			if errors.Is(err, repository.ErrOfferModified) {
				return nil, apperror.ErrStaleOffer
			}
			return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить переход")
		}
		s.notifyCounterparts(offer, "help_offer.failed")
	case models.OfferStatusDone, models.OfferStatusFailed:
		// Отчёт второго участника или инцидент после формального завершения.
	default:
		return nil, apperror.New(apperror.ErrCodeInvalidState,
			"сообщить об инциденте можно только по подтверждённой или завершённой встрече")
	}

	incidentType := in.IncidentType
	entry := &models.ReviewEntry{
		ID:            uuid.New(),
		HelpOfferID:   offer.ID,
		ParticipantID: in.ActorID,
		Role:          role,
		Kind:          models.ReviewKindIncident,
		IncidentType:  &incidentType,
		Content:       in.Content,
		SubmittedAt:   s.now(),
	}
	if err := s.createReview(ctx, offer, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// createReview сохраняет запись участника и закрывает предложение,
// когда записи обеих сторон на месте.
func (s *HelpOfferService) createReview(ctx context.Context, offer *models.HelpOffer, entry *models.ReviewEntry) error {
	if err := s.reviews.Create(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrReviewAlreadyExists) {
			return apperror.New(apperror.ErrCodeAlreadyResolved, "вы уже отправили отзыв по этой встрече")
		}
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить отзыв")
	}

	entries, err := s.reviews.ListByOffer(ctx, offer.ID)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить отзывы")
	}
	if models.NewReviewSet(entries).FullyResolved() {
		now := s.now()
		offer.CloseResolved(now)
		if err := s.offers.SetClosedAt(ctx, offer.ID, now); err != nil {
			return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось зафиксировать разрешение")
		}
		s.notifyCounterparts(offer, "help_offer.resolved")
	}
	return nil
}

// SendMessage добавляет сообщение в обсуждение предложения.
// После отмены или истечения лента доступна только для чтения.
func (s *HelpOfferService) SendMessage(ctx context.Context, offerID, senderID uuid.UUID, content string) (*models.Message, error) {
	if content == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "текст сообщения не может быть пустым")
	}
	if len(content) > 5000 {
		return nil, apperror.New(apperror.ErrCodeValidation, "сообщение слишком длинное (максимум 5000 символов)")
	}

	offer, err := s.loadOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	offer, err = s.reconcileExpiration(ctx, offer)
	if err != nil {
		return nil, err
	}

	if !offer.IsParticipant(senderID) {
		return nil, apperror.New(apperror.ErrCodePermission, "писать в обсуждение могут только участники")
	}
	switch offer.Status {
	case models.OfferStatusCanceledByRequester, models.OfferStatusCanceledByHelper, models.OfferStatusExpired:
		return nil, apperror.New(apperror.ErrCodeInvalidState, "обсуждение закрыто")
	}

	message := &models.Message{
		HelpOfferID: offerID,
		SenderID:    senderID,
		Content:     content,
	}
	if err := s.messages.Create(ctx, message); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось отправить сообщение")
	}

	counterpart := offer.RequesterID
	if senderID == offer.RequesterID {
		counterpart = offer.HelperID
	}
	s.notify(counterpart, "help_offer.message", message)

	return message, nil
}

// ListMessages возвращает ленту обсуждения и отмечает входящие прочитанными.
func (s *HelpOfferService) ListMessages(ctx context.Context, offerID, viewerID uuid.UUID) ([]models.Message, error) {
	offer, err := s.loadOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if !offer.IsParticipant(viewerID) {
		return nil, apperror.New(apperror.ErrCodePermission, "обсуждение доступно только участникам")
	}

	messages, err := s.messages.ListByOffer(ctx, offerID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить сообщения")
	}

	if err := s.messages.MarkAllAsRead(ctx, offerID, viewerID); err != nil {
		logger.Log.WithError(err).WithField("offer_id", offerID).
			Warn("help offer service: не удалось отметить сообщения прочитанными")
	}

	return messages, nil
}

// Discussion — предложение глазами одного участника: собеседник, роль,
// лента, состояние отзывов и подсказка статуса для интерфейса.
type Discussion struct {
	Offer              *models.HelpOffer      `json:"offer"`
	Counterpart        *models.UserSimple     `json:"counterpart"`
	Role               models.ParticipantRole `json:"role"`
	Messages           []models.Message       `json:"messages,omitempty"`
	UnreadCount        int                    `json:"unread_count"`
	AwaitingExperience bool                   `json:"awaiting_experience"`
	Presentation       *StatusPresentation    `json:"presentation,omitempty"`
}

// GetDiscussion возвращает полное обсуждение предложения для участника.
func (s *HelpOfferService) GetDiscussion(ctx context.Context, offerID, viewerID uuid.UUID) (*Discussion, error) {
	offer, err := s.GetOffer(ctx, offerID, viewerID)
	if err != nil {
		return nil, err
	}

	messages, err := s.messages.ListByOffer(ctx, offerID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить сообщения")
	}

	discussion, err := s.buildDiscussion(ctx, offer, viewerID)
	if err != nil {
		return nil, err
	}
	discussion.Messages = messages
	return discussion, nil
}

// ListMyDiscussions возвращает все обсуждения пользователя, свежие первыми.
// Ленивое истечение применяется к каждому предложению в списке.
func (s *HelpOfferService) ListMyDiscussions(ctx context.Context, userID uuid.UUID) ([]Discussion, error) {
	offers, err := s.offers.ListByParticipant(ctx, userID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить обсуждения")
	}

	discussions := make([]Discussion, 0, len(offers))
	for i := range offers {
		offer, err := s.reconcileExpiration(ctx, &offers[i])
		if err != nil {
			return nil, err
		}
		discussion, err := s.buildDiscussion(ctx, offer, userID)
		if err != nil {
			return nil, err
		}
		discussions = append(discussions, *discussion)
	}
	return discussions, nil
}

func (s *HelpOfferService) buildDiscussion(ctx context.Context, offer *models.HelpOffer, viewerID uuid.UUID) (*Discussion, error) {
	role := offer.RoleOf(viewerID)

	counterpartID := offer.RequesterID
	if role == models.RoleRequester {
		counterpartID = offer.HelperID
	}
	counterpart, err := s.users.GetSimpleByID(ctx, counterpartID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить профиль собеседника")
	}

	unread, err := s.messages.CountUnread(ctx, offer.ID, viewerID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось посчитать непрочитанные")
	}

	entries, err := s.reviews.ListByOffer(ctx, offer.ID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить отзывы")
	}
	reviewSet := models.NewReviewSet(entries)

	return &Discussion{
		Offer:              offer,
		Counterpart:        counterpart,
		Role:               role,
		UnreadCount:        unread,
		AwaitingExperience: reviewSet.ShouldSubmitExperience(offer.Status, role),
		Presentation:       PresentOfferStatus(offer.Status, role, offer.CancellationJustification),
	}, nil
}

// ReconcileStalled закрывает подтверждённые встречи, по которым назначенное
// время и льготный период прошли, а отзывов так и нет. Вызывается фоновой
// сверкой; проигрыш гонки с пользовательским переходом молча пропускается.
func (s *HelpOfferService) ReconcileStalled(ctx context.Context, limit int) (int, error) {
	cutoff := s.now().Add(-s.grace)
	offers, err := s.offers.ListStalledAfterConfirmation(ctx, cutoff, limit)
	if err != nil {
		return 0, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить зависшие предложения")
	}

	expired := 0
	for i := range offers {
		offer := &offers[i]
		expected := offer.Status
		if err := offer.ExpireForMissingFeedback(s.now()); err != nil {
			continue
		}
		if err := s.offers.UpdateStatus(ctx, offer, expected); err != nil {
			if errors.Is(err, repository.ErrOfferModified) {
				continue
			}
			return expired, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось зафиксировать истечение")
		}
		expired++
		s.notifyCounterparts(offer, "help_offer.expired")
	}
	return expired, nil
}

// notify отправляет событие одному участнику, если доставка подключена.
func (s *HelpOfferService) notify(userID uuid.UUID, event string, data interface{}) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(userID, event, map[string]interface{}{
		"data": data,
	})
}

// notifyCounterparts отправляет событие обеим сторонам предложения.
func (s *HelpOfferService) notifyCounterparts(offer *models.HelpOffer, event string) {
	s.notify(offer.RequesterID, event, offer)
	s.notify(offer.HelperID, event, offer)
}

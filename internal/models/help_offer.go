package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/voisinage/entraide-backend/internal/pkg/apperror"
)

// HelpOffer — предложение помощи по конкретному запросу.
// Статус меняется только через методы-переходы; прямой записи снаружи нет.
type HelpOffer struct {
	ID                        uuid.UUID   `db:"id" json:"id"`
	HelpRequestID             uuid.UUID   `db:"help_request_id" json:"help_request_id"`
	RequesterID               uuid.UUID   `db:"requester_id" json:"requester_id"`
	HelperID                  uuid.UUID   `db:"helper_id" json:"helper_id"`
	Status                    OfferStatus `db:"status" json:"status"`
	ExpirationReference       time.Time   `db:"expiration_reference" json:"expiration_reference"`
	CancellationJustification *string     `db:"cancellation_justification" json:"cancellation_justification,omitempty"`
	// HelpDate денормализуется из запроса о помощи при чтении (JOIN),
	// чтобы временные предусловия проверялись без второго запроса.
	HelpDate   time.Time  `db:"help_date" json:"help_date"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
	CanceledAt *time.Time `db:"canceled_at" json:"canceled_at,omitempty"`
	ClosedAt   *time.Time `db:"closed_at" json:"closed_at,omitempty"`
}

// NewHelpOffer создаёт предложение в начальном статусе PROPOSED.
func NewHelpOffer(request *HelpRequest, helperID uuid.UUID, now time.Time) (*HelpOffer, error) {
	if request.RequesterID == helperID {
		return nil, apperror.New(apperror.ErrCodeBadRequest, "нельзя предложить помощь на собственный запрос")
	}

	return &HelpOffer{
		ID:                  uuid.New(),
		HelpRequestID:       request.ID,
		RequesterID:         request.RequesterID,
		HelperID:            helperID,
		Status:              OfferStatusProposed,
		ExpirationReference: now,
		HelpDate:            request.HelpDate,
		CreatedAt:           now,
		UpdatedAt:           now,
	}, nil
}

// RoleOf возвращает роль пользователя в этом предложении.
func (o *HelpOffer) RoleOf(userID uuid.UUID) ParticipantRole {
	switch userID {
	case o.RequesterID:
		return RoleRequester
	case o.HelperID:
		return RoleHelper
	}
	return RoleNone
}

func (o *HelpOffer) IsParticipant(userID uuid.UUID) bool {
	return o.RoleOf(userID) != RoleNone
}

// guardTransition проверяет легальность ребра до проверки прав участника:
// из терминального статуса любой запрос отклоняется как INVALID_STATE.
func (o *HelpOffer) guardTransition(next OfferStatus) error {
	if !o.Status.CanTransitionTo(next) {
		return apperror.New(apperror.ErrCodeInvalidState,
			"переход недоступен в текущем статусе предложения")
	}
	return nil
}

// applyStatus выполняет переход. Опорная точка истечения сдвигается только вперёд
// и только при входе в статус с окном ожидания.
func (o *HelpOffer) applyStatus(next OfferStatus, now time.Time) {
	o.Status = next
	o.UpdatedAt = now
	if next.IsExpirable() && now.After(o.ExpirationReference) {
		o.ExpirationReference = now
	}
}

// Validate — запрашивающий принимает предложение: PROPOSED -> VALIDATED_BY_REQUESTER.
func (o *HelpOffer) Validate(actorID uuid.UUID, now time.Time) error {
	if err := o.guardTransition(OfferStatusValidatedByRequester); err != nil {
		return err
	}
	if o.RoleOf(actorID) != RoleRequester {
		return apperror.New(apperror.ErrCodePermission, "валидировать предложение может только запрашивающий")
	}
	o.applyStatus(OfferStatusValidatedByRequester, now)
	return nil
}

// Confirm — помощник подтверждает участие: VALIDATED_BY_REQUESTER -> CONFIRMED_BY_HELPER.
func (o *HelpOffer) Confirm(actorID uuid.UUID, now time.Time) error {
	if err := o.guardTransition(OfferStatusConfirmedByHelper); err != nil {
		return err
	}
	if o.RoleOf(actorID) != RoleHelper {
		return apperror.New(apperror.ErrCodePermission, "подтвердить участие может только помощник")
	}
	o.applyStatus(OfferStatusConfirmedByHelper, now)
	return nil
}

// Cancel — любой участник выходит из активного цикла. Терминальный статус всегда
// называет отменившую сторону; смысловой оттенок (отклонить/отозвать) остаётся на UI.
// После подтверждения отмена легальна строго до назначенного времени помощи.
func (o *HelpOffer) Cancel(actorID uuid.UUID, justification string, now time.Time) error {
	role := o.RoleOf(actorID)

	target := OfferStatusCanceledByRequester
	if role == RoleHelper {
		target = OfferStatusCanceledByHelper
	}

	if err := o.guardTransition(target); err != nil {
		return err
	}
	if role == RoleNone {
		return apperror.New(apperror.ErrCodePermission, "отменить предложение может только его участник")
	}
	if o.Status == OfferStatusConfirmedByHelper && !now.Before(o.HelpDate) {
		return apperror.New(apperror.ErrCodePrecondition,
			"после назначенного времени помощи отмена недоступна, сообщите об инциденте")
	}

	o.applyStatus(target, now)
	o.CanceledAt = &now
	if justification != "" {
		o.CancellationJustification = &justification
	}
	return nil
}

// MarkDone — запрашивающий закрывает встречу: CONFIRMED_BY_HELPER -> DONE.
// Доступно не раньше назначенного времени помощи; отзывы участников ещё ожидаются.
func (o *HelpOffer) MarkDone(actorID uuid.UUID, now time.Time) error {
	if err := o.guardTransition(OfferStatusDone); err != nil {
		return err
	}
	if o.RoleOf(actorID) != RoleRequester {
		return apperror.New(apperror.ErrCodePermission, "завершить помощь может только запрашивающий")
	}
	if now.Before(o.HelpDate) {
		return apperror.New(apperror.ErrCodePrecondition,
			"завершить помощь можно только после назначенного времени")
	}
	o.applyStatus(OfferStatusDone, now)
	return nil
}

// FailWithIncident — участник сообщает о проблеме: CONFIRMED_BY_HELPER -> FAILED.
// Как и MarkDone, доступно только после назначенного времени помощи.
func (o *HelpOffer) FailWithIncident(actorID uuid.UUID, now time.Time) error {
	if err := o.guardTransition(OfferStatusFailed); err != nil {
		return err
	}
	if !o.IsParticipant(actorID) {
		return apperror.New(apperror.ErrCodePermission, "сообщить об инциденте может только участник")
	}
	if now.Before(o.HelpDate) {
		return apperror.New(apperror.ErrCodePrecondition,
			"сообщить об инциденте можно только после назначенного времени")
	}
	o.applyStatus(OfferStatusFailed, now)
	return nil
}

// Expire — системный переход по истечении окна ожидания. Идемпотентен:
// на уже истёкшем предложении ничего не меняет.
func (o *HelpOffer) Expire(reason ExpirationReason, now time.Time) error {
	if o.Status == OfferStatusExpired {
		return nil
	}
	if err := o.guardTransition(OfferStatusExpired); err != nil {
		return err
	}
	o.applyStatus(OfferStatusExpired, now)
	tag := string(reason)
	o.CancellationJustification = &tag
	return nil
}

// ExpireForMissingFeedback — системное ребро внешней сверки: назначенное время
// прошло, льготный период истёк, а отзывов нет. В отличие от пользовательских
// переходов допускается и из DONE, ожидающего отзывов. Идемпотентен.
func (o *HelpOffer) ExpireForMissingFeedback(now time.Time) error {
	switch o.Status {
	case OfferStatusExpired:
		return nil
	case OfferStatusConfirmedByHelper, OfferStatusDone:
	default:
		return apperror.New(apperror.ErrCodeInvalidState,
			"истечение по отсутствию отзывов применимо только к подтверждённой помощи")
	}
	o.applyStatus(OfferStatusExpired, now)
	tag := string(ExpirationNoFeedbackAfterConfirmation)
	o.CancellationJustification = &tag
	return nil
}

// CloseResolved фиксирует полное разрешение: оба участника отправили свой отзыв
// или отчёт об инциденте.
func (o *HelpOffer) CloseResolved(now time.Time) {
	if o.ClosedAt == nil {
		o.ClosedAt = &now
		o.UpdatedAt = now
	}
}

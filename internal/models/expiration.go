package models

import "time"

// ExpirationReason — тег причины истечения, сохраняется в cancellation_justification.
// Значения совпадают с контрактом фронтенда и не локализуются.
type ExpirationReason string

const (
	// Запрашивающий не отреагировал на предложение в статусе PROPOSED.
	ExpirationAfterRequesterInaction ExpirationReason = "EXPIRATION_AFTER_REQUESTER_INACTION"
	// Помощник не подтвердил участие в статусе VALIDATED_BY_REQUESTER.
	ExpirationAfterHelperInaction ExpirationReason = "EXPIRATION_AFTER_HELPER_INACTION"
	// Ни один участник не оставил отзыв после подтверждённой встречи.
	ExpirationNoFeedbackAfterConfirmation ExpirationReason = "EXPIRATION_NO_FEEDBACK_AFTER_CONFIRMATION"
)

// IsExpirationReason сообщает, является ли строка тегом истечения,
// а не свободным текстом обоснования отмены.
func IsExpirationReason(justification string) bool {
	switch ExpirationReason(justification) {
	case ExpirationAfterRequesterInaction, ExpirationAfterHelperInaction,
		ExpirationNoFeedbackAfterConfirmation:
		return true
	}
	return false
}

// DefaultExpirationWindow — окно ожидания для PROPOSED и VALIDATED_BY_REQUESTER.
const DefaultExpirationWindow = 24 * time.Hour

// ExpirationPolicy — чистая политика истечения статусов, ограниченных по времени.
// Окна задаются на стадию; по наблюдаемому дизайну обе стадии используют 24 часа.
type ExpirationPolicy struct {
	ProposedWindow  time.Duration
	ValidatedWindow time.Duration
}

// DefaultExpirationPolicy возвращает политику с окнами по умолчанию.
func DefaultExpirationPolicy() ExpirationPolicy {
	return ExpirationPolicy{
		ProposedWindow:  DefaultExpirationWindow,
		ValidatedWindow: DefaultExpirationWindow,
	}
}

// Window возвращает окно ожидания для статуса, 0 для неистекаемых статусов.
func (p ExpirationPolicy) Window(status OfferStatus) time.Duration {
	switch status {
	case OfferStatusProposed:
		return p.ProposedWindow
	case OfferStatusValidatedByRequester:
		return p.ValidatedWindow
	}
	return 0
}

// Deadline возвращает момент истечения, отсчитанный от опорной точки.
func (p ExpirationPolicy) Deadline(status OfferStatus, reference time.Time) time.Time {
	return reference.Add(p.Window(status))
}

// IsExpired проверяет условие истечения: now - reference >= window.
func (p ExpirationPolicy) IsExpired(status OfferStatus, reference, now time.Time) bool {
	if !status.IsExpirable() {
		return false
	}
	return !now.Before(p.Deadline(status, reference))
}

// ReasonFor возвращает тег причины для ленивого истечения из данного статуса.
func (p ExpirationPolicy) ReasonFor(status OfferStatus) ExpirationReason {
	if status == OfferStatusValidatedByRequester {
		return ExpirationAfterHelperInaction
	}
	return ExpirationAfterRequesterInaction
}

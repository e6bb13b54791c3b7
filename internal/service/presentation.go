package service

import "github.com/voisinage/entraide-backend/internal/models"

// Severity — оттенок баннера статуса в интерфейсе.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
	SeveritySuccess Severity = "success"
)

// StatusPresentation — подсказка статуса глазами конкретной роли.
type StatusPresentation struct {
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// PresentOfferStatus строит подсказку статуса для участника. Чистая функция
// над (статус, роль, обоснование отмены); ничего не знает о хранилище.
// Для неизвестного статуса возвращает nil: баннер просто не рендерится.
func PresentOfferStatus(status models.OfferStatus, role models.ParticipantRole, justification *string) *StatusPresentation {
	isRequester := role == models.RoleRequester

	switch status {
	case models.OfferStatusProposed:
		if isRequester {
			return &StatusPresentation{
				Message:  "Вам предложили помощь. Предложение ждёт вашей валидации.",
				Severity: SeverityInfo,
			}
		}
		return &StatusPresentation{
			Message:  "Ваше предложение помощи отправлено запрашивающему.",
			Severity: SeverityInfo,
		}

	case models.OfferStatusValidatedByRequester:
		if isRequester {
			return &StatusPresentation{
				Message:  "Вы валидировали предложение помощи. Ждём подтверждения помощника.",
				Severity: SeverityInfo,
			}
		}
		return &StatusPresentation{
			Message:  "Ваше предложение валидировано. Подтвердите своё участие.",
			Severity: SeverityInfo,
		}

	case models.OfferStatusConfirmedByHelper:
		if isRequester {
			return &StatusPresentation{
				Message:  "Помощник подтвердил участие. Теперь вы можете организовать встречу вместе.",
				Severity: SeverityInfo,
			}
		}
		return &StatusPresentation{
			Message:  "Вы подтвердили своё участие. Помощь может начинаться!",
			Severity: SeverityInfo,
		}

	case models.OfferStatusCanceledByRequester:
		if isRequester {
			return &StatusPresentation{
				Message:  "Вы отменили это предложение помощи.",
				Severity: SeverityWarning,
			}
		}
		return &StatusPresentation{
			Message:  "Запрашивающий отменил отправленное вами предложение.",
			Severity: SeverityWarning,
		}

	case models.OfferStatusCanceledByHelper:
		if isRequester {
			return &StatusPresentation{
				Message:  "Помощник отозвал своё предложение помощи.",
				Severity: SeverityWarning,
			}
		}
		return &StatusPresentation{
			Message:  "Вы отозвали своё предложение помощи.",
			Severity: SeverityWarning,
		}

	case models.OfferStatusExpired:
		return presentExpired(isRequester, justification)

	case models.OfferStatusDone:
		if isRequester {
			return &StatusPresentation{
				Message:  "Спасибо за участие. Эта помощь завершена.",
				Severity: SeveritySuccess,
			}
		}
		return &StatusPresentation{
			Message:  "Спасибо, что помогли соседу. Эта помощь завершена.",
			Severity: SeveritySuccess,
		}

	case models.OfferStatusFailed:
		return &StatusPresentation{
			Message:  "Встреча не состоялась как планировалось. Поделитесь тем, что произошло.",
			Severity: SeverityError,
		}
	}

	return nil
}

// presentExpired подбирает формулировку по тегу причины истечения.
// Свободный текст или отсутствие тега дают нейтральную формулировку.
func presentExpired(isRequester bool, justification *string) *StatusPresentation {
	reason := ""
	if justification != nil {
		reason = *justification
	}

	var message string
	switch models.ExpirationReason(reason) {
	case models.ExpirationAfterRequesterInaction:
		if isRequester {
			message = "Слишком поздно — вы не валидировали предложение вовремя."
		} else {
			message = "Запрашивающий не отреагировал вовремя. Ваше предложение истекло."
		}
	case models.ExpirationAfterHelperInaction:
		if isRequester {
			message = "Помощник не подтвердил участие вовремя. Предложение истекло."
		} else {
			message = "Слишком поздно — вы не подтвердили участие вовремя."
		}
	case models.ExpirationNoFeedbackAfterConfirmation:
		message = "Встреча осталась без отзывов, предложение закрыто автоматически."
	default:
		message = "Это предложение помощи истекло."
	}

	return &StatusPresentation{Message: message, Severity: SeverityError}
}

package models

// OfferStatus описывает положение предложения помощи в жизненном цикле.
type OfferStatus string

const (
	OfferStatusProposed             OfferStatus = "PROPOSED"
	OfferStatusValidatedByRequester OfferStatus = "VALIDATED_BY_REQUESTER"
	OfferStatusConfirmedByHelper    OfferStatus = "CONFIRMED_BY_HELPER"
	OfferStatusDone                 OfferStatus = "DONE"
	OfferStatusFailed               OfferStatus = "FAILED"
	OfferStatusCanceledByRequester  OfferStatus = "CANCELED_BY_REQUESTER"
	OfferStatusCanceledByHelper     OfferStatus = "CANCELED_BY_HELPER"
	OfferStatusExpired              OfferStatus = "EXPIRED"

	// OfferStatusUnknown — страховочное значение для строки вне перечисления.
	// Никогда не приводится к известному статусу и не участвует в переходах.
	OfferStatusUnknown OfferStatus = "UNKNOWN"
)

func (s OfferStatus) IsValid() bool {
	switch s {
	case OfferStatusProposed, OfferStatusValidatedByRequester, OfferStatusConfirmedByHelper,
		OfferStatusDone, OfferStatusFailed, OfferStatusCanceledByRequester,
		OfferStatusCanceledByHelper, OfferStatusExpired:
		return true
	}
	return false
}

// IsTerminal сообщает, является ли статус поглощающим: дальнейших переходов нет.
func (s OfferStatus) IsTerminal() bool {
	switch s {
	case OfferStatusDone, OfferStatusFailed, OfferStatusCanceledByRequester,
		OfferStatusCanceledByHelper, OfferStatusExpired:
		return true
	}
	return false
}

// IsExpirable сообщает, ограничен ли статус окном ожидания.
func (s OfferStatus) IsExpirable() bool {
	return s == OfferStatusProposed || s == OfferStatusValidatedByRequester
}

// offerTransitions — единственный источник легальных рёбер жизненного цикла.
var offerTransitions = map[OfferStatus][]OfferStatus{
	OfferStatusProposed: {
		OfferStatusValidatedByRequester,
		OfferStatusCanceledByRequester,
		OfferStatusCanceledByHelper,
		OfferStatusExpired,
	},
	OfferStatusValidatedByRequester: {
		OfferStatusConfirmedByHelper,
		OfferStatusCanceledByRequester,
		OfferStatusCanceledByHelper,
		OfferStatusExpired,
	},
	OfferStatusConfirmedByHelper: {
		OfferStatusDone,
		OfferStatusFailed,
		OfferStatusCanceledByRequester,
		OfferStatusCanceledByHelper,
		OfferStatusExpired,
	},
	OfferStatusDone:                {},
	OfferStatusFailed:              {},
	OfferStatusCanceledByRequester: {},
	OfferStatusCanceledByHelper:    {},
	OfferStatusExpired:             {},
}

func (s OfferStatus) CanTransitionTo(next OfferStatus) bool {
	allowed, ok := offerTransitions[s]
	if !ok {
		return false
	}
	for _, status := range allowed {
		if status == next {
			return true
		}
	}
	return false
}

// ParseOfferStatus приводит внешнюю строку к статусу.
// Всё вне перечисления становится OfferStatusUnknown, без ошибки.
func ParseOfferStatus(value string) OfferStatus {
	s := OfferStatus(value)
	if !s.IsValid() {
		return OfferStatusUnknown
	}
	return s
}

// ParticipantRole — роль участника по отношению к предложению помощи.
type ParticipantRole string

const (
	RoleRequester ParticipantRole = "requester"
	RoleHelper    ParticipantRole = "helper"

	// RoleNone возвращается для пользователя, не участвующего в предложении.
	RoleNone ParticipantRole = ""
)

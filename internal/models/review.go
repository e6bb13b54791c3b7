package models

import (
	"time"

	"github.com/google/uuid"
)

// ReviewKind различает положительный отзыв и отчёт об инциденте.
type ReviewKind string

const (
	ReviewKindFeedback ReviewKind = "feedback"
	ReviewKindIncident ReviewKind = "incident"
)

// IncidentType — структурированная причина неудавшейся встречи.
type IncidentType string

const (
	IncidentNoShow           IncidentType = "NO_SHOW"
	IncidentMisconduct       IncidentType = "MISCONDUCT"
	IncidentIncompleteHelp   IncidentType = "INCOMPLETE_HELP"
	IncidentMisunderstanding IncidentType = "MISUNDERSTANDING"
	IncidentOther            IncidentType = "OTHER"
)

// ValidIncidentTypes — допустимые значения для входящих отчётов.
var ValidIncidentTypes = map[IncidentType]struct{}{
	IncidentNoShow:           {},
	IncidentMisconduct:       {},
	IncidentIncompleteHelp:   {},
	IncidentMisunderstanding: {},
	IncidentOther:            {},
}

// ReviewEntry — запись одного участника о завершённой или сорвавшейся встрече.
// Повторная отправка тем же участником отклоняется; запись за другого невозможна.
type ReviewEntry struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	HelpOfferID   uuid.UUID       `db:"help_offer_id" json:"help_offer_id"`
	ParticipantID uuid.UUID       `db:"participant_id" json:"participant_id"`
	Role          ParticipantRole `db:"role" json:"role"`
	Kind          ReviewKind      `db:"kind" json:"kind"`
	IncidentType  *IncidentType   `db:"incident_type" json:"incident_type,omitempty"`
	Content       string          `db:"content" json:"content"`
	SubmittedAt   time.Time       `db:"submitted_at" json:"submitted_at"`
}

// ReviewSet — записи обоих участников, ключ — роль.
// Заменяет россыпь булевых флагов вида helperFeedbackSubmitted.
type ReviewSet map[ParticipantRole]*ReviewEntry

// NewReviewSet собирает набор из строк хранилища.
func NewReviewSet(entries []ReviewEntry) ReviewSet {
	set := make(ReviewSet, len(entries))
	for i := range entries {
		set[entries[i].Role] = &entries[i]
	}
	return set
}

// Submitted сообщает, отправил ли участник с данной ролью свою запись.
func (s ReviewSet) Submitted(role ParticipantRole) bool {
	return s[role] != nil
}

// FullyResolved — предикат полного разрешения: обе записи на месте.
func (s ReviewSet) FullyResolved() bool {
	return s.Submitted(RoleRequester) && s.Submitted(RoleHelper)
}

// FirstIncidentReporter возвращает участника, первым сообщившего об инциденте.
func (s ReviewSet) FirstIncidentReporter() *uuid.UUID {
	var first *ReviewEntry
	for _, entry := range s {
		if entry == nil || entry.Kind != ReviewKindIncident {
			continue
		}
		if first == nil || entry.SubmittedAt.Before(first.SubmittedAt) {
			first = entry
		}
	}
	if first == nil {
		return nil
	}
	return &first.ParticipantID
}

// ShouldSubmitExperience: предложение ждёт запись этой роли.
// Истинно в DONE и FAILED, пока участник не отправил свою часть.
func (s ReviewSet) ShouldSubmitExperience(status OfferStatus, role ParticipantRole) bool {
	if status != OfferStatusDone && status != OfferStatusFailed {
		return false
	}
	return !s.Submitted(role)
}

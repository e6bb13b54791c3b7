package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voisinage/entraide-backend/internal/pkg/apperror"
)

func newTestOffer(t *testing.T, helpDate time.Time, now time.Time) (*HelpOffer, uuid.UUID, uuid.UUID) {
	t.Helper()

	requesterID := uuid.New()
	helperID := uuid.New()
	request := &HelpRequest{
		ID:          uuid.New(),
		RequesterID: requesterID,
		Category:    CategoryGroceries,
		Description: "Помочь с покупками",
		HelpDate:    helpDate,
	}

	offer, err := NewHelpOffer(request, helperID, now)
	require.NoError(t, err)
	return offer, requesterID, helperID
}

func TestNewHelpOffer_RejectsSelfOffer(t *testing.T) {
	requesterID := uuid.New()
	request := &HelpRequest{ID: uuid.New(), RequesterID: requesterID}

	_, err := NewHelpOffer(request, requesterID, time.Now())
	assert.Error(t, err)
}

func TestHelpOffer_HappyPath(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	helpDate := now.Add(48 * time.Hour)
	offer, requesterID, helperID := newTestOffer(t, helpDate, now)

	require.NoError(t, offer.Validate(requesterID, now.Add(time.Hour)))
	assert.Equal(t, OfferStatusValidatedByRequester, offer.Status)

	require.NoError(t, offer.Confirm(helperID, now.Add(2*time.Hour)))
	assert.Equal(t, OfferStatusConfirmedByHelper, offer.Status)

	require.NoError(t, offer.MarkDone(requesterID, helpDate.Add(time.Hour)))
	assert.Equal(t, OfferStatusDone, offer.Status)
}

func TestHelpOffer_Validate_WrongActor(t *testing.T) {
	now := time.Now()
	offer, _, helperID := newTestOffer(t, now.Add(48*time.Hour), now)

	// Помощник на легальном ребре получает отказ по правам, не по состоянию.
	err := offer.Validate(helperID, now)
	assert.True(t, apperror.IsPermission(err))
	assert.Equal(t, OfferStatusProposed, offer.Status)

	err = offer.Validate(uuid.New(), now)
	assert.True(t, apperror.IsPermission(err))
}

func TestHelpOffer_TerminalAbsorbs_StateBeforePermission(t *testing.T) {
	now := time.Now()
	offer, requesterID, helperID := newTestOffer(t, now.Add(48*time.Hour), now)

	require.NoError(t, offer.Cancel(helperID, "", now))
	assert.Equal(t, OfferStatusCanceledByHelper, offer.Status)

	// Из терминального статуса даже легитимный участник получает INVALID_STATE.
	err := offer.Validate(requesterID, now)
	assert.True(t, apperror.IsInvalidState(err))

	err = offer.Cancel(helperID, "", now)
	assert.True(t, apperror.IsInvalidState(err))
}

func TestHelpOffer_Cancel_NamesCancelingParty(t *testing.T) {
	now := time.Now()

	offer, requesterID, _ := newTestOffer(t, now.Add(48*time.Hour), now)
	require.NoError(t, offer.Cancel(requesterID, "передумал", now))
	assert.Equal(t, OfferStatusCanceledByRequester, offer.Status)
	require.NotNil(t, offer.CancellationJustification)
	assert.Equal(t, "передумал", *offer.CancellationJustification)

	offer, _, helperID := newTestOffer(t, now.Add(48*time.Hour), now)
	require.NoError(t, offer.Cancel(helperID, "", now))
	assert.Equal(t, OfferStatusCanceledByHelper, offer.Status)
	assert.Nil(t, offer.CancellationJustification)
	require.NotNil(t, offer.CanceledAt)
}

func TestHelpOffer_Cancel_AfterHelpDateConfirmed(t *testing.T) {
	now := time.Now()
	helpDate := now.Add(time.Hour)
	offer, requesterID, helperID := newTestOffer(t, helpDate, now)

	require.NoError(t, offer.Validate(requesterID, now))
	require.NoError(t, offer.Confirm(helperID, now))

	// После назначенного времени отмена подтверждённой встречи недоступна.
	err := offer.Cancel(requesterID, "", helpDate.Add(time.Minute))
	assert.True(t, apperror.IsPrecondition(err))
	assert.Equal(t, OfferStatusConfirmedByHelper, offer.Status)

	// До назначенного времени — легальна.
	require.NoError(t, offer.Cancel(requesterID, "", helpDate.Add(-time.Minute)))
	assert.Equal(t, OfferStatusCanceledByRequester, offer.Status)
}

func TestHelpOffer_MarkDone_BeforeHelpDate(t *testing.T) {
	now := time.Now()
	helpDate := now.Add(24 * time.Hour)
	offer, requesterID, helperID := newTestOffer(t, helpDate, now)

	require.NoError(t, offer.Validate(requesterID, now))
	require.NoError(t, offer.Confirm(helperID, now))

	err := offer.MarkDone(requesterID, helpDate.Add(-time.Minute))
	assert.True(t, apperror.IsPrecondition(err))

	err = offer.MarkDone(helperID, helpDate.Add(time.Minute))
	assert.True(t, apperror.IsPermission(err))

	require.NoError(t, offer.MarkDone(requesterID, helpDate))
	assert.Equal(t, OfferStatusDone, offer.Status)
}

func TestHelpOffer_FailWithIncident(t *testing.T) {
	now := time.Now()
	helpDate := now.Add(time.Hour)
	offer, requesterID, helperID := newTestOffer(t, helpDate, now)

	require.NoError(t, offer.Validate(requesterID, now))
	require.NoError(t, offer.Confirm(helperID, now))

	err := offer.FailWithIncident(helperID, helpDate.Add(-time.Minute))
	assert.True(t, apperror.IsPrecondition(err))

	err = offer.FailWithIncident(uuid.New(), helpDate.Add(time.Minute))
	assert.True(t, apperror.IsPermission(err))

	require.NoError(t, offer.FailWithIncident(helperID, helpDate.Add(time.Minute)))
	assert.Equal(t, OfferStatusFailed, offer.Status)
}

func TestHelpOffer_Expire_Idempotent(t *testing.T) {
	now := time.Now()
	offer, _, _ := newTestOffer(t, now.Add(48*time.Hour), now)

	require.NoError(t, offer.Expire(ExpirationAfterRequesterInaction, now.Add(25*time.Hour)))
	assert.Equal(t, OfferStatusExpired, offer.Status)
	require.NotNil(t, offer.CancellationJustification)
	assert.Equal(t, string(ExpirationAfterRequesterInaction), *offer.CancellationJustification)

	// Повторное истечение ничего не меняет.
	firstUpdate := offer.UpdatedAt
	require.NoError(t, offer.Expire(ExpirationAfterHelperInaction, now.Add(30*time.Hour)))
	assert.Equal(t, string(ExpirationAfterRequesterInaction), *offer.CancellationJustification)
	assert.Equal(t, firstUpdate, offer.UpdatedAt)
}

func TestHelpOffer_Expire_FromOtherTerminal(t *testing.T) {
	now := time.Now()
	offer, requesterID, _ := newTestOffer(t, now.Add(48*time.Hour), now)

	require.NoError(t, offer.Cancel(requesterID, "", now))
	err := offer.Expire(ExpirationAfterRequesterInaction, now)
	assert.True(t, apperror.IsInvalidState(err))
}

func TestHelpOffer_ExpireForMissingFeedback(t *testing.T) {
	now := time.Now()
	helpDate := now.Add(time.Hour)
	offer, requesterID, helperID := newTestOffer(t, helpDate, now)

	require.NoError(t, offer.Validate(requesterID, now))
	require.NoError(t, offer.Confirm(helperID, now))

	// Допустим и из CONFIRMED, и из DONE; из остальных — нет.
	require.NoError(t, offer.ExpireForMissingFeedback(helpDate.Add(80*time.Hour)))
	assert.Equal(t, OfferStatusExpired, offer.Status)
	require.NotNil(t, offer.CancellationJustification)
	assert.Equal(t, string(ExpirationNoFeedbackAfterConfirmation), *offer.CancellationJustification)

	// Идемпотентен.
	require.NoError(t, offer.ExpireForMissingFeedback(helpDate.Add(90*time.Hour)))

	fresh, _, _ := newTestOffer(t, helpDate, now)
	err := fresh.ExpireForMissingFeedback(now)
	assert.True(t, apperror.IsInvalidState(err))
}

func TestHelpOffer_ExpirationReferenceMovesForwardOnly(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	offer, requesterID, _ := newTestOffer(t, now.Add(96*time.Hour), now)

	assert.Equal(t, now, offer.ExpirationReference)

	later := now.Add(5 * time.Hour)
	require.NoError(t, offer.Validate(requesterID, later))
	// Вход в VALIDATED_BY_REQUESTER открывает новое окно ожидания.
	assert.Equal(t, later, offer.ExpirationReference)
}

func TestExpirationPolicy(t *testing.T) {
	policy := DefaultExpirationPolicy()
	reference := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	// Граница включительно: ровно через 24 часа окно истекло.
	assert.False(t, policy.IsExpired(OfferStatusProposed, reference, reference.Add(23*time.Hour)))
	assert.True(t, policy.IsExpired(OfferStatusProposed, reference, reference.Add(24*time.Hour)))
	assert.True(t, policy.IsExpired(OfferStatusValidatedByRequester, reference, reference.Add(25*time.Hour)))

	// Неистекаемые статусы не истекают никогда.
	assert.False(t, policy.IsExpired(OfferStatusConfirmedByHelper, reference, reference.Add(1000*time.Hour)))
	assert.False(t, policy.IsExpired(OfferStatusDone, reference, reference.Add(1000*time.Hour)))

	assert.Equal(t, ExpirationAfterRequesterInaction, policy.ReasonFor(OfferStatusProposed))
	assert.Equal(t, ExpirationAfterHelperInaction, policy.ReasonFor(OfferStatusValidatedByRequester))
}

func TestReviewSet(t *testing.T) {
	offerID := uuid.New()
	requesterEntry := ReviewEntry{
		ID: uuid.New(), HelpOfferID: offerID, ParticipantID: uuid.New(),
		Role: RoleRequester, Kind: ReviewKindFeedback,
		SubmittedAt: time.Now(),
	}
	incidentType := IncidentNoShow
	helperEntry := ReviewEntry{
		ID: uuid.New(), HelpOfferID: offerID, ParticipantID: uuid.New(),
		Role: RoleHelper, Kind: ReviewKindIncident, IncidentType: &incidentType,
		SubmittedAt: time.Now().Add(-time.Hour),
	}

	partial := NewReviewSet([]ReviewEntry{requesterEntry})
	assert.True(t, partial.Submitted(RoleRequester))
	assert.False(t, partial.Submitted(RoleHelper))
	assert.False(t, partial.FullyResolved())
	assert.Nil(t, partial.FirstIncidentReporter())

	full := NewReviewSet([]ReviewEntry{requesterEntry, helperEntry})
	assert.True(t, full.FullyResolved())
	require.NotNil(t, full.FirstIncidentReporter())
	assert.Equal(t, helperEntry.ParticipantID, *full.FirstIncidentReporter())

	assert.True(t, partial.ShouldSubmitExperience(OfferStatusDone, RoleHelper))
	assert.False(t, partial.ShouldSubmitExperience(OfferStatusDone, RoleRequester))
	assert.False(t, partial.ShouldSubmitExperience(OfferStatusConfirmedByHelper, RoleHelper))
	assert.False(t, full.ShouldSubmitExperience(OfferStatusFailed, RoleHelper))
}

package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voisinage/entraide-backend/internal/models"
)

func TestPresentOfferStatus_CoversEveryKnownStatus(t *testing.T) {
	statuses := []models.OfferStatus{
		models.OfferStatusProposed,
		models.OfferStatusValidatedByRequester,
		models.OfferStatusConfirmedByHelper,
		models.OfferStatusCanceledByRequester,
		models.OfferStatusCanceledByHelper,
		models.OfferStatusExpired,
		models.OfferStatusDone,
		models.OfferStatusFailed,
	}
	roles := []models.ParticipantRole{models.RoleRequester, models.RoleHelper}

	for _, status := range statuses {
		for _, role := range roles {
			p := PresentOfferStatus(status, role, nil)
			require.NotNil(t, p, "нет подсказки для %s / %s", status, role)
			assert.NotEmpty(t, p.Message)
			assert.NotEmpty(t, p.Severity)
		}
	}
}

func TestPresentOfferStatus_UnknownStatus(t *testing.T) {
	assert.Nil(t, PresentOfferStatus(models.OfferStatusUnknown, models.RoleRequester, nil))
}

func TestPresentOfferStatus_SeverityByOutcome(t *testing.T) {
	done := PresentOfferStatus(models.OfferStatusDone, models.RoleHelper, nil)
	assert.Equal(t, SeveritySuccess, done.Severity)

	failed := PresentOfferStatus(models.OfferStatusFailed, models.RoleRequester, nil)
	assert.Equal(t, SeverityError, failed.Severity)

	canceled := PresentOfferStatus(models.OfferStatusCanceledByHelper, models.RoleRequester, nil)
	assert.Equal(t, SeverityWarning, canceled.Severity)

	active := PresentOfferStatus(models.OfferStatusConfirmedByHelper, models.RoleHelper, nil)
	assert.Equal(t, SeverityInfo, active.Severity)
}

func TestPresentOfferStatus_ExpiredVariesByReason(t *testing.T) {
	tag := func(r models.ExpirationReason) *string {
		s := string(r)
		return &s
	}
	freeText := "передумал"

	requesterInaction := PresentOfferStatus(models.OfferStatusExpired, models.RoleRequester, tag(models.ExpirationAfterRequesterInaction))
	helperInaction := PresentOfferStatus(models.OfferStatusExpired, models.RoleRequester, tag(models.ExpirationAfterHelperInaction))
	noFeedback := PresentOfferStatus(models.OfferStatusExpired, models.RoleRequester, tag(models.ExpirationNoFeedbackAfterConfirmation))
	generic := PresentOfferStatus(models.OfferStatusExpired, models.RoleRequester, &freeText)

	assert.NotEqual(t, requesterInaction.Message, helperInaction.Message)
	assert.NotEqual(t, helperInaction.Message, noFeedback.Message)
	assert.Equal(t, "Это предложение помощи истекло.", generic.Message)

	for _, p := range []*StatusPresentation{requesterInaction, helperInaction, noFeedback, generic} {
		assert.Equal(t, SeverityError, p.Severity)
	}
}

func TestPresentOfferStatus_ExpirationBlameFollowsRole(t *testing.T) {
	// Бездействовавшая сторона видит упрёк себе, вторая — объяснение.
	reason := string(models.ExpirationAfterRequesterInaction)

	asRequester := PresentOfferStatus(models.OfferStatusExpired, models.RoleRequester, &reason)
	asHelper := PresentOfferStatus(models.OfferStatusExpired, models.RoleHelper, &reason)

	assert.NotEqual(t, asRequester.Message, asHelper.Message)
	assert.Contains(t, asRequester.Message, "вы не валидировали")
}

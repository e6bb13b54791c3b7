package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOfferStatus_TerminalsAbsorb(t *testing.T) {
	terminals := []OfferStatus{
		OfferStatusDone,
		OfferStatusFailed,
		OfferStatusCanceledByRequester,
		OfferStatusCanceledByHelper,
		OfferStatusExpired,
	}
	all := []OfferStatus{
		OfferStatusProposed, OfferStatusValidatedByRequester, OfferStatusConfirmedByHelper,
		OfferStatusDone, OfferStatusFailed, OfferStatusCanceledByRequester,
		OfferStatusCanceledByHelper, OfferStatusExpired,
	}

	for _, terminal := range terminals {
		assert.True(t, terminal.IsTerminal(), "статус %s должен быть терминальным", terminal)
		for _, next := range all {
			assert.False(t, terminal.CanTransitionTo(next),
				"из %s не должно быть перехода в %s", terminal, next)
		}
	}
}

func TestOfferStatus_ActiveEdges(t *testing.T) {
	cases := []struct {
		from    OfferStatus
		to      OfferStatus
		allowed bool
	}{
		{OfferStatusProposed, OfferStatusValidatedByRequester, true},
		{OfferStatusProposed, OfferStatusConfirmedByHelper, false},
		{OfferStatusProposed, OfferStatusDone, false},
		{OfferStatusProposed, OfferStatusExpired, true},
		{OfferStatusProposed, OfferStatusCanceledByRequester, true},
		{OfferStatusProposed, OfferStatusCanceledByHelper, true},

		{OfferStatusValidatedByRequester, OfferStatusConfirmedByHelper, true},
		{OfferStatusValidatedByRequester, OfferStatusProposed, false},
		{OfferStatusValidatedByRequester, OfferStatusDone, false},
		{OfferStatusValidatedByRequester, OfferStatusExpired, true},

		{OfferStatusConfirmedByHelper, OfferStatusDone, true},
		{OfferStatusConfirmedByHelper, OfferStatusFailed, true},
		{OfferStatusConfirmedByHelper, OfferStatusValidatedByRequester, false},
		{OfferStatusConfirmedByHelper, OfferStatusExpired, true},
		{OfferStatusConfirmedByHelper, OfferStatusCanceledByRequester, true},
		{OfferStatusConfirmedByHelper, OfferStatusCanceledByHelper, true},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to),
			"переход %s -> %s", tc.from, tc.to)
	}
}

func TestOfferStatus_IsExpirable(t *testing.T) {
	assert.True(t, OfferStatusProposed.IsExpirable())
	assert.True(t, OfferStatusValidatedByRequester.IsExpirable())
	assert.False(t, OfferStatusConfirmedByHelper.IsExpirable())
	assert.False(t, OfferStatusDone.IsExpirable())
	assert.False(t, OfferStatusExpired.IsExpirable())
}

func TestParseOfferStatus(t *testing.T) {
	assert.Equal(t, OfferStatusProposed, ParseOfferStatus("PROPOSED"))
	assert.Equal(t, OfferStatusExpired, ParseOfferStatus("EXPIRED"))

	// Всё вне перечисления становится UNKNOWN, без приведения к известному статусу.
	assert.Equal(t, OfferStatusUnknown, ParseOfferStatus("proposed"))
	assert.Equal(t, OfferStatusUnknown, ParseOfferStatus("ARCHIVED"))
	assert.Equal(t, OfferStatusUnknown, ParseOfferStatus(""))

	// UNKNOWN не участвует в переходах.
	assert.False(t, OfferStatusUnknown.CanTransitionTo(OfferStatusProposed))
	assert.False(t, OfferStatusProposed.CanTransitionTo(OfferStatusUnknown))
}

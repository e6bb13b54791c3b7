package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/voisinage/entraide-backend/internal/models"
	"github.com/voisinage/entraide-backend/internal/pkg/apperror"
	"github.com/voisinage/entraide-backend/internal/repository"
)

type mockOfferStore struct {
	mock.Mock
}

func (m *mockOfferStore) CreateWithFirstMessage(ctx context.Context, offer *models.HelpOffer, message *models.Message) error {
	args := m.Called(ctx, offer, message)
	return args.Error(0)
}

func (m *mockOfferStore) GetByID(ctx context.Context, id uuid.UUID) (*models.HelpOffer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.HelpOffer), args.Error(1)
}

func (m *mockOfferStore) GetActiveByRequestAndHelper(ctx context.Context, requestID, helperID uuid.UUID) (*models.HelpOffer, error) {
	args := m.Called(ctx, requestID, helperID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.HelpOffer), args.Error(1)
}

func (m *mockOfferStore) ListByParticipant(ctx context.Context, userID uuid.UUID) ([]models.HelpOffer, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.HelpOffer), args.Error(1)
}

func (m *mockOfferStore) UpdateStatus(ctx context.Context, offer *models.HelpOffer, expected models.OfferStatus) error {
	args := m.Called(ctx, offer, expected)
	return args.Error(0)
}

func (m *mockOfferStore) SetClosedAt(ctx context.Context, offerID uuid.UUID, closedAt time.Time) error {
	args := m.Called(ctx, offerID, closedAt)
	return args.Error(0)
}

func (m *mockOfferStore) ListStalledAfterConfirmation(ctx context.Context, cutoff time.Time, limit int) ([]models.HelpOffer, error) {
	args := m.Called(ctx, cutoff, limit)
	return args.Get(0).([]models.HelpOffer), args.Error(1)
}

type mockRequestStore struct {
	mock.Mock
}

func (m *mockRequestStore) GetByID(ctx context.Context, id uuid.UUID) (*models.HelpRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.HelpRequest), args.Error(1)
}

type mockMessageStore struct {
	mock.Mock
}

func (m *mockMessageStore) Create(ctx context.Context, message *models.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *mockMessageStore) ListByOffer(ctx context.Context, offerID uuid.UUID) ([]models.Message, error) {
	args := m.Called(ctx, offerID)
	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *mockMessageStore) MarkAllAsRead(ctx context.Context, offerID, readerID uuid.UUID) error {
	args := m.Called(ctx, offerID, readerID)
	return args.Error(0)
}

func (m *mockMessageStore) CountUnread(ctx context.Context, offerID, readerID uuid.UUID) (int, error) {
	args := m.Called(ctx, offerID, readerID)
	return args.Int(0), args.Error(1)
}

type mockReviewStore struct {
	mock.Mock
}

func (m *mockReviewStore) Create(ctx context.Context, entry *models.ReviewEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *mockReviewStore) ListByOffer(ctx context.Context, offerID uuid.UUID) ([]models.ReviewEntry, error) {
	args := m.Called(ctx, offerID)
	return args.Get(0).([]models.ReviewEntry), args.Error(1)
}

type mockUserReader struct {
	mock.Mock
}

func (m *mockUserReader) GetSimpleByID(ctx context.Context, id uuid.UUID) (*models.UserSimple, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserSimple), args.Error(1)
}

type offerFixture struct {
	offers   *mockOfferStore
	requests *mockRequestStore
	messages *mockMessageStore
	reviews  *mockReviewStore
	users    *mockUserReader
	svc      *HelpOfferService
}

func newOfferFixture(now time.Time) *offerFixture {
	f := &offerFixture{
		offers:   new(mockOfferStore),
		requests: new(mockRequestStore),
		messages: new(mockMessageStore),
		reviews:  new(mockReviewStore),
		users:    new(mockUserReader),
	}
	f.svc = NewHelpOfferService(
		f.offers, f.requests, f.messages, f.reviews, f.users,
		models.DefaultExpirationPolicy(), 72*time.Hour,
	)
	f.svc.now = func() time.Time { return now }
	return f
}

var t0 = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func fixtureOffer(status models.OfferStatus, reference, helpDate time.Time) *models.HelpOffer {
	return &models.HelpOffer{
		ID:                  uuid.New(),
		HelpRequestID:       uuid.New(),
		RequesterID:         uuid.New(),
		HelperID:            uuid.New(),
		Status:              status,
		ExpirationReference: reference,
		HelpDate:            helpDate,
		CreatedAt:           reference,
		UpdatedAt:           reference,
	}
}

func TestHelpOfferService_ProposeOffer_Success(t *testing.T) {
	f := newOfferFixture(t0)
	ctx := context.Background()

	helperID := uuid.New()
	request := &models.HelpRequest{
		ID:          uuid.New(),
		RequesterID: uuid.New(),
		HelpDate:    t0.Add(72 * time.Hour),
	}

	f.requests.On("GetByID", ctx, request.ID).Return(request, nil)
	f.offers.On("GetActiveByRequestAndHelper", ctx, request.ID, helperID).Return(nil, nil)
	f.offers.On("CreateWithFirstMessage", ctx, mock.AnythingOfType("*models.HelpOffer"), mock.AnythingOfType("*models.Message")).Return(nil)

	offer, err := f.svc.ProposeOffer(ctx, ProposeOfferInput{
		HelpRequestID: request.ID,
		HelperID:      helperID,
		Message:       "Могу помочь в субботу",
	})

	require.NoError(t, err)
	assert.Equal(t, models.OfferStatusProposed, offer.Status)
	assert.Equal(t, t0, offer.ExpirationReference)
	f.offers.AssertExpectations(t)
}

func TestHelpOfferService_ProposeOffer_DuplicateActive(t *testing.T) {
	f := newOfferFixture(t0)
	ctx := context.Background()

	helperID := uuid.New()
	request := &models.HelpRequest{ID: uuid.New(), RequesterID: uuid.New()}
	active := fixtureOffer(models.OfferStatusValidatedByRequester, t0, t0.Add(72*time.Hour))

	f.requests.On("GetByID", ctx, request.ID).Return(request, nil)
	f.offers.On("GetActiveByRequestAndHelper", ctx, request.ID, helperID).Return(active, nil)

	_, err := f.svc.ProposeOffer(ctx, ProposeOfferInput{
		HelpRequestID: request.ID,
		HelperID:      helperID,
		Message:       "Я тоже могу",
	})

	assert.Error(t, err)
	f.offers.AssertNotCalled(t, "CreateWithFirstMessage", mock.Anything, mock.Anything, mock.Anything)
}

func TestHelpOfferService_GetOffer_LazyExpiration(t *testing.T) {
	// T0 + 25h: окно PROPOSED истекло, первое чтение фиксирует EXPIRED.
	f := newOfferFixture(t0.Add(25 * time.Hour))
	ctx := context.Background()

	offer := fixtureOffer(models.OfferStatusProposed, t0, t0.Add(72*time.Hour))

	f.offers.On("GetByID", ctx, offer.ID).Return(offer, nil)
	f.offers.On("UpdateStatus", ctx, offer, models.OfferStatusProposed).Return(nil)

	got, err := f.svc.GetOffer(ctx, offer.ID, offer.RequesterID)

	require.NoError(t, err)
	assert.Equal(t, models.OfferStatusExpired, got.Status)
	require.NotNil(t, got.CancellationJustification)
	assert.Equal(t, string(models.ExpirationAfterRequesterInaction), *got.CancellationJustification)
	f.offers.AssertExpectations(t)
}

func TestHelpOfferService_GetOffer_InsideWindow(t *testing.T) {
	// T0 + 23h: окно ещё открыто, записи нет.
	f := newOfferFixture(t0.Add(23 * time.Hour))
	ctx := context.Background()

	offer := fixtureOffer(models.OfferStatusProposed, t0, t0.Add(72*time.Hour))
	f.offers.On("GetByID", ctx, offer.ID).Return(offer, nil)

	got, err := f.svc.GetOffer(ctx, offer.ID, offer.HelperID)

	require.NoError(t, err)
	assert.Equal(t, models.OfferStatusProposed, got.Status)
	f.offers.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestHelpOfferService_GetOffer_ExpiredIsIdempotent(t *testing.T) {
	// Повторное чтение уже истёкшего предложения ничего не пишет.
	f := newOfferFixture(t0.Add(30 * time.Hour))
	ctx := context.Background()

	tag := string(models.ExpirationAfterRequesterInaction)
	offer := fixtureOffer(models.OfferStatusExpired, t0, t0.Add(72*time.Hour))
	offer.CancellationJustification = &tag

	f.offers.On("GetByID", ctx, offer.ID).Return(offer, nil)

	got, err := f.svc.GetOffer(ctx, offer.ID, offer.RequesterID)

	require.NoError(t, err)
	assert.Equal(t, models.OfferStatusExpired, got.Status)
	f.offers.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestHelpOfferService_GetOffer_NotParticipant(t *testing.T) {
	f := newOfferFixture(t0)
	ctx := context.Background()

	offer := fixtureOffer(models.OfferStatusProposed, t0, t0.Add(72*time.Hour))
	f.offers.On("GetByID", ctx, offer.ID).Return(offer, nil)

	_, err := f.svc.GetOffer(ctx, offer.ID, uuid.New())
	assert.True(t, apperror.IsPermission(err))
}

func TestHelpOfferService_ValidateOffer_WrongActor(t *testing.T) {
	f := newOfferFixture(t0.Add(time.Hour))
	ctx := context.Background()

	offer := fixtureOffer(models.OfferStatusProposed, t0, t0.Add(72*time.Hour))
	f.offers.On("GetByID", ctx, offer.ID).Return(offer, nil)

	_, err := f.svc.ValidateOffer(ctx, offer.ID, offer.HelperID)

	assert.True(t, apperror.IsPermission(err))
	f.offers.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestHelpOfferService_ValidateOffer_AfterExpiration(t *testing.T) {
	// Просроченное предложение сперва истекает, затем валидация
	// отклоняется уже по терминальному состоянию.
	f := newOfferFixture(t0.Add(25 * time.Hour))
	ctx := context.Background()

	offer := fixtureOffer(models.OfferStatusProposed, t0, t0.Add(72*time.Hour))
	f.offers.On("GetByID", ctx, offer.ID).Return(offer, nil)
	f.offers.On("UpdateStatus", ctx, offer, models.OfferStatusProposed).Return(nil)

	_, err := f.svc.ValidateOffer(ctx, offer.ID, offer.RequesterID)

	assert.True(t, apperror.IsInvalidState(err))
	assert.Equal(t, models.OfferStatusExpired, offer.Status)
}

func TestHelpOfferService_ValidateOffer_StaleLoser(t *testing.T) {
	f := newOfferFixture(t0.Add(time.Hour))
	ctx := context.Background()

	offer := fixtureOffer(models.OfferStatusProposed, t0, t0.Add(72*time.Hour))
	f.offers.On("GetByID", ctx, offer.ID).Return(offer, nil)
	f.offers.On("UpdateStatus", ctx, offer, models.OfferStatusProposed).Return(repository.ErrOfferModified)

	_, err := f.svc.ValidateOffer(ctx, offer.ID, offer.RequesterID)

	assert.True(t, apperror.IsStaleState(err))
}

func TestHelpOfferService_ConfirmOffer_Success(t *testing.T) {
	f := newOfferFixture(t0.Add(time.Hour))
	ctx := context.Background()

	offer := fixtureOffer(models.OfferStatusValidatedByRequester, t0, t0.Add(72*time.Hour))
	f.offers.On("GetByID", ctx, offer.ID).Return(offer, nil)
	f.offers.On("UpdateStatus", ctx, offer, models.OfferStatusValidatedByRequester).Return(nil)

	got, err := f.svc.ConfirmOffer(ctx, offer.ID, offer.HelperID)

	require.NoError(t, err)
	assert.Equal(t, models.OfferStatusConfirmedByHelper, got.Status)
	f.offers.AssertExpectations(t)
}

func TestHelpOfferService_ReportIncident_FromConfirmed(t *testing.T) {
	helpDate := t0.Add(24 * time.Hour)
	f := newOfferFixture(helpDate.Add(time.Hour))
	ctx := context.Background()

	offer := fixtureOffer(models.OfferStatusConfirmedByHelper, t0, helpDate)
	f.offers.On("GetByID", ctx, offer.ID).Return(offer, nil)
	f.offers.On("UpdateStatus", ctx, offer, models.OfferStatusConfirmedByHelper).Return(nil)
	f.reviews.On("Create", ctx, mock.AnythingOfType("*models.ReviewEntry")).Return(nil)
	f.reviews.On("ListByOffer", ctx, offer.ID).Return([]models.ReviewEntry{}, nil)

	entry, err := f.svc.ReportIncident(ctx, ReportIncidentInput{
		HelpOfferID:  offer.ID,
		ActorID:      offer.RequesterID,
		IncidentType: models.IncidentNoShow,
		Content:      "Никто не пришёл",
	})

	require.NoError(t, err)
	assert.Equal(t, models.OfferStatusFailed, offer.Status)
	assert.Equal(t, models.ReviewKindIncident, entry.Kind)
	assert.Equal(t, models.RoleRequester, entry.Role)
}

func TestHelpOfferService_ReportIncident_InvalidType(t *testing.T) {
	f := newOfferFixture(t0)
	ctx := context.Background()

	_, err := f.svc.ReportIncident(ctx, ReportIncidentInput{
		HelpOfferID:  uuid.New(),
		ActorID:      uuid.New(),
		IncidentType: "VANDALISM",
	})

	assert.Error(t, err)
	f.offers.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestHelpOfferService_SubmitFeedback_SecondClosesOffer(t *testing.T) {
	helpDate := t0.Add(24 * time.Hour)
	now := helpDate.Add(2 * time.Hour)
	f := newOfferFixture(now)
	ctx := context.Background()

	offer := fixtureOffer(models.OfferStatusDone, t0, helpDate)

	requesterEntry := models.ReviewEntry{
		Role: models.RoleRequester, Kind: models.ReviewKindFeedback, SubmittedAt: now,
	}
	helperEntry := models.ReviewEntry{
		Role: models.RoleHelper, Kind: models.ReviewKindFeedback, SubmittedAt: now,
	}

	f.offers.On("GetByID", ctx, offer.ID).Return(offer, nil)
	f.reviews.On("Create", ctx, mock.AnythingOfType("*models.ReviewEntry")).Return(nil)
	f.reviews.On("ListByOffer", ctx, offer.ID).Return([]models.ReviewEntry{requesterEntry, helperEntry}, nil)
	f.offers.On("SetClosedAt", ctx, offer.ID, now).Return(nil)

	entry, err := f.svc.SubmitFeedback(ctx, SubmitFeedbackInput{
		HelpOfferID: offer.ID,
		ActorID:     offer.HelperID,
		Content:     "Всё прошло отлично",
	})

	require.NoError(t, err)
	assert.Equal(t, models.RoleHelper, entry.Role)
	require.NotNil(t, offer.ClosedAt)
	f.offers.AssertExpectations(t)
}

func TestHelpOfferService_SubmitFeedback_Duplicate(t *testing.T) {
	helpDate := t0.Add(24 * time.Hour)
	f := newOfferFixture(helpDate.Add(time.Hour))
	ctx := context.Background()

	offer := fixtureOffer(models.OfferStatusDone, t0, helpDate)
	f.offers.On("GetByID", ctx, offer.ID).Return(offer, nil)
	f.reviews.On("Create", ctx, mock.AnythingOfType("*models.ReviewEntry")).Return(repository.ErrReviewAlreadyExists)

	_, err := f.svc.SubmitFeedback(ctx, SubmitFeedbackInput{
		HelpOfferID: offer.ID,
		ActorID:     offer.RequesterID,
		Content:     "Ещё раз спасибо",
	})

	assert.True(t, apperror.IsAlreadyResolved(err))
}

func TestHelpOfferService_SubmitFeedback_WrongState(t *testing.T) {
	f := newOfferFixture(t0.Add(time.Hour))
	ctx := context.Background()

	offer := fixtureOffer(models.OfferStatusConfirmedByHelper, t0, t0.Add(72*time.Hour))
	f.offers.On("GetByID", ctx, offer.ID).Return(offer, nil)

	_, err := f.svc.SubmitFeedback(ctx, SubmitFeedbackInput{
		HelpOfferID: offer.ID,
		ActorID:     offer.RequesterID,
		Content:     "Заранее спасибо",
	})

	assert.True(t, apperror.IsInvalidState(err))
}

func TestHelpOfferService_SendMessage_ClosedDiscussion(t *testing.T) {
	f := newOfferFixture(t0.Add(time.Hour))
	ctx := context.Background()

	tag := string(models.ExpirationAfterHelperInaction)
	offer := fixtureOffer(models.OfferStatusExpired, t0, t0.Add(72*time.Hour))
	offer.CancellationJustification = &tag

	f.offers.On("GetByID", ctx, offer.ID).Return(offer, nil)

	_, err := f.svc.SendMessage(ctx, offer.ID, offer.RequesterID, "Ау?")

	assert.True(t, apperror.IsInvalidState(err))
	f.messages.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestHelpOfferService_ReconcileStalled(t *testing.T) {
	now := t0.Add(200 * time.Hour)
	f := newOfferFixture(now)
	ctx := context.Background()

	helpDate := t0.Add(24 * time.Hour)
	confirmed := fixtureOffer(models.OfferStatusConfirmedByHelper, t0, helpDate)
	done := fixtureOffer(models.OfferStatusDone, t0, helpDate)

	f.offers.On("ListStalledAfterConfirmation", ctx, now.Add(-72*time.Hour), 100).
		Return([]models.HelpOffer{*confirmed, *done}, nil)
	f.offers.On("UpdateStatus", ctx, mock.AnythingOfType("*models.HelpOffer"), models.OfferStatusConfirmedByHelper).Return(nil)
	f.offers.On("UpdateStatus", ctx, mock.AnythingOfType("*models.HelpOffer"), models.OfferStatusDone).Return(repository.ErrOfferModified)

	expired, err := f.svc.ReconcileStalled(ctx, 100)

	require.NoError(t, err)
	// Проигрыш гонки с пользовательским переходом молча пропускается.
	assert.Equal(t, 1, expired)
}

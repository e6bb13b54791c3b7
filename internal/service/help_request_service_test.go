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
)

type mockHelpRequestRepo struct {
	mock.Mock
}

func (m *mockHelpRequestRepo) Create(ctx context.Context, request *models.HelpRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *mockHelpRequestRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.HelpRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.HelpRequest), args.Error(1)
}

func (m *mockHelpRequestRepo) ListFeed(ctx context.Context, limit, offset int) ([]models.HelpRequest, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]models.HelpRequest), args.Error(1)
}

func validCreateInput(now time.Time) CreateHelpRequestInput {
	return CreateHelpRequestInput{
		RequesterID: uuid.New(),
		Category:    models.CategoryGroceries,
		Description: "Нужна помощь с покупками на неделю",
		HelpDate:    now.Add(48 * time.Hour),
		Address: models.Address{
			Street:     "12 rue des Lilas",
			PostalCode: "75011",
			City:       "Paris",
		},
	}
}

func TestHelpRequestService_CreateHelpRequest_Success(t *testing.T) {
	repo := new(mockHelpRequestRepo)
	svc := NewHelpRequestService(repo)
	svc.now = func() time.Time { return t0 }
	ctx := context.Background()

	in := validCreateInput(t0)
	repo.On("Create", ctx, mock.AnythingOfType("*models.HelpRequest")).Return(nil)

	request, err := svc.CreateHelpRequest(ctx, in)

	require.NoError(t, err)
	assert.Equal(t, in.Category, request.Category)
	assert.Equal(t, t0, request.CreatedAt)
	repo.AssertExpectations(t)
}

func TestHelpRequestService_CreateHelpRequest_Validation(t *testing.T) {
	repo := new(mockHelpRequestRepo)
	svc := NewHelpRequestService(repo)
	svc.now = func() time.Time { return t0 }
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(in *CreateHelpRequestInput)
	}{
		{"неизвестная категория", func(in *CreateHelpRequestInput) { in.Category = "JARDINAGE" }},
		{"пустое описание", func(in *CreateHelpRequestInput) { in.Description = "" }},
		{"дата в прошлом", func(in *CreateHelpRequestInput) { in.HelpDate = t0.Add(-time.Hour) }},
		{"без города", func(in *CreateHelpRequestInput) { in.Address.City = "" }},
		{"без улицы", func(in *CreateHelpRequestInput) { in.Address.Street = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validCreateInput(t0)
			tt.mutate(&in)

			_, err := svc.CreateHelpRequest(ctx, in)
			assert.True(t, apperror.IsValidation(err))
		})
	}
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestHelpRequestService_ListFeed_ClampsPagination(t *testing.T) {
	repo := new(mockHelpRequestRepo)
	svc := NewHelpRequestService(repo)
	ctx := context.Background()

	repo.On("ListFeed", ctx, 20, 0).Return([]models.HelpRequest{}, nil)

	_, err := svc.ListFeed(ctx, 500, -3)

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

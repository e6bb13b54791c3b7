package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/voisinage/entraide-backend/internal/models"
	"github.com/voisinage/entraide-backend/internal/pkg/apperror"
	"github.com/voisinage/entraide-backend/internal/repository"
)

// HelpRequestRepository описывает взаимодействие сервиса с хранилищем запросов.
type HelpRequestRepository interface {
	Create(ctx context.Context, request *models.HelpRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.HelpRequest, error)
	ListFeed(ctx context.Context, limit, offset int) ([]models.HelpRequest, error)
}

// HelpRequestService содержит бизнес-логику запросов о помощи.
type HelpRequestService struct {
	repo HelpRequestRepository
	now  func() time.Time
}

// NewHelpRequestService создаёт сервис запросов о помощи.
func NewHelpRequestService(repo HelpRequestRepository) *HelpRequestService {
	return &HelpRequestService{repo: repo, now: time.Now}
}

// CreateHelpRequestInput описывает входные данные нового запроса.
type CreateHelpRequestInput struct {
	RequesterID uuid.UUID
	Category    string
	Description string
	HelpDate    time.Time
	Address     models.Address
}

// CreateHelpRequest публикует запрос о помощи.
func (s *HelpRequestService) CreateHelpRequest(ctx context.Context, in CreateHelpRequestInput) (*models.HelpRequest, error) {
	if _, ok := models.ValidHelpCategories[in.Category]; !ok {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректная категория запроса")
	}
	if in.Description == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "описание запроса не может быть пустым")
	}
	now := s.now()
	if !in.HelpDate.After(now) {
		return nil, apperror.New(apperror.ErrCodeValidation, "дата помощи не может быть в прошлом")
	}
	if in.Address.City == "" || in.Address.Street == "" {
		return nil, apperror.New(apperror.ErrCodeValidation, "адрес места встречи обязателен")
	}

	request := &models.HelpRequest{
		ID:          uuid.New(),
		RequesterID: in.RequesterID,
		Category:    in.Category,
		Description: in.Description,
		HelpDate:    in.HelpDate,
		Address:     in.Address,
		CreatedAt:   now,
	}
	if err := s.repo.Create(ctx, request); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить запрос о помощи")
	}
	return request, nil
}

// GetHelpRequest возвращает запрос по идентификатору.
func (s *HelpRequestService) GetHelpRequest(ctx context.Context, id uuid.UUID) (*models.HelpRequest, error) {
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrHelpRequestNotFound) {
			return nil, apperror.ErrHelpRequestNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить запрос о помощи")
	}
	return request, nil
}

// ListFeed возвращает ленту актуальных запросов.
func (s *HelpRequestService) ListFeed(ctx context.Context, limit, offset int) ([]models.HelpRequest, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	requests, err := s.repo.ListFeed(ctx, limit, offset)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить ленту запросов")
	}
	return requests, nil
}

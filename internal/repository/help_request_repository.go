package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/voisinage/entraide-backend/internal/models"
)

var ErrHelpRequestNotFound = errors.New("help request not found")

// HelpRequestRepository отвечает за работу с запросами о помощи.
type HelpRequestRepository struct {
	db *sqlx.DB
}

func NewHelpRequestRepository(db *sqlx.DB) *HelpRequestRepository {
	return &HelpRequestRepository{db: db}
}

// Create сохраняет запрос о помощи.
func (r *HelpRequestRepository) Create(ctx context.Context, request *models.HelpRequest) error {
	query := `
		INSERT INTO help_requests (id, requester_id, category, description, help_date,
			street, postal_code, city, latitude, longitude, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		request.ID, request.RequesterID, request.Category, request.Description, request.HelpDate,
		request.Address.Street, request.Address.PostalCode, request.Address.City,
		request.Address.Latitude, request.Address.Longitude, request.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("help request repository: create %w", err)
	}
	return nil
}

// GetByID возвращает запрос по идентификатору.
func (r *HelpRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.HelpRequest, error) {
	row := r.db.QueryRowxContext(ctx, `
		SELECT id, requester_id, category, description, help_date,
		       street, postal_code, city, latitude, longitude, created_at
		FROM help_requests WHERE id = $1
	`, id)
	return scanHelpRequest(row)
}

// ListFeed возвращает ленту запросов, ближайшие даты помощи первыми.
func (r *HelpRequestRepository) ListFeed(ctx context.Context, limit, offset int) ([]models.HelpRequest, error) {
	rows, err := r.db.QueryxContext(ctx, `
		SELECT id, requester_id, category, description, help_date,
		       street, postal_code, city, latitude, longitude, created_at
		FROM help_requests
		WHERE help_date > NOW()
		ORDER BY help_date ASC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("help request repository: list feed %w", err)
	}
	defer rows.Close()

	var requests []models.HelpRequest
	for rows.Next() {
		request, err := scanHelpRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *request)
	}
	return requests, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanHelpRequest(row rowScanner) (*models.HelpRequest, error) {
	var request models.HelpRequest
	err := row.Scan(
		&request.ID, &request.RequesterID, &request.Category, &request.Description, &request.HelpDate,
		&request.Address.Street, &request.Address.PostalCode, &request.Address.City,
		&request.Address.Latitude, &request.Address.Longitude, &request.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrHelpRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("help request repository: scan %w", err)
	}
	return &request, nil
}

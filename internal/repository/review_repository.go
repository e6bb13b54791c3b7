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

var ErrReviewAlreadyExists = errors.New("review already submitted by participant")

// ReviewRepository хранит отзывы и отчёты об инцидентах по предложениям помощи.
type ReviewRepository struct {
	db *sqlx.DB
}

func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create сохраняет запись участника. Уникальный индекс (help_offer_id,
// participant_id) страхует от гонки двух одновременных отправок.
func (r *ReviewRepository) Create(ctx context.Context, entry *models.ReviewEntry) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO help_offer_reviews (help_offer_id, participant_id, role, kind, incident_type, content)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (help_offer_id, participant_id) DO NOTHING
		RETURNING id, submitted_at
	`, entry.HelpOfferID, entry.ParticipantID, entry.Role, entry.Kind, entry.IncidentType, entry.Content).
		Scan(&entry.ID, &entry.SubmittedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrReviewAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("review repository: create %w", err)
	}
	return nil
}

// ListByOffer возвращает записи обоих участников.
func (r *ReviewRepository) ListByOffer(ctx context.Context, offerID uuid.UUID) ([]models.ReviewEntry, error) {
	var entries []models.ReviewEntry
	err := r.db.SelectContext(ctx, &entries, `
		SELECT * FROM help_offer_reviews WHERE help_offer_id = $1 ORDER BY submitted_at ASC
	`, offerID)
	if err != nil {
		return nil, fmt.Errorf("review repository: list by offer %w", err)
	}
	return entries, nil
}

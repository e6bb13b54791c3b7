package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/voisinage/entraide-backend/internal/models"
	"github.com/voisinage/entraide-backend/internal/repository/common"
)

// Ошибки уровня репозитория.
var (
	ErrHelpOfferNotFound = errors.New("help offer not found")
	ErrOfferModified     = errors.New("help offer concurrently modified")
)

// HelpOfferRepository отвечает за хранение предложений помощи.
type HelpOfferRepository struct {
	db *sqlx.DB
}

func NewHelpOfferRepository(db *sqlx.DB) *HelpOfferRepository {
	return &HelpOfferRepository{db: db}
}

// offerColumns — столбцы предложения плюс help_date из запроса о помощи.
const offerColumns = `
	ho.id, ho.help_request_id, ho.requester_id, ho.helper_id, ho.status,
	ho.expiration_reference, ho.cancellation_justification,
	ho.created_at, ho.updated_at, ho.canceled_at, ho.closed_at,
	hr.help_date AS help_date
`

// Create вставляет строку предложения в рамках открытой транзакции.
func (r *HelpOfferRepository) Create(ctx context.Context, tx *sqlx.Tx, offer *models.HelpOffer) error {
	query := `
		INSERT INTO help_offers (id, help_request_id, requester_id, helper_id, status,
			expiration_reference, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := tx.ExecContext(ctx, query,
		offer.ID, offer.HelpRequestID, offer.RequesterID, offer.HelperID, offer.Status,
		offer.ExpirationReference, offer.CreatedAt, offer.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("help offer repository: create %w", err)
	}
	return nil
}

// GetByID возвращает предложение по идентификатору.
func (r *HelpOfferRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.HelpOffer, error) {
	var offer models.HelpOffer
	query := `
		SELECT ` + offerColumns + `
		FROM help_offers ho
		JOIN help_requests hr ON hr.id = ho.help_request_id
		WHERE ho.id = $1
	`
	if err := r.db.GetContext(ctx, &offer, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrHelpOfferNotFound
		}
		return nil, fmt.Errorf("help offer repository: get by id %w", err)
	}
	return &offer, nil
}

// GetActiveByRequestAndHelper ищет нетерминальное предложение пары (запрос, помощник).
// Инвариант «одно активное предложение на пару» проверяется здесь и страхуется
// частичным уникальным индексом в схеме.
func (r *HelpOfferRepository) GetActiveByRequestAndHelper(ctx context.Context, requestID, helperID uuid.UUID) (*models.HelpOffer, error) {
	var offer models.HelpOffer
	query := `
		SELECT ` + offerColumns + `
		FROM help_offers ho
		JOIN help_requests hr ON hr.id = ho.help_request_id
		WHERE ho.help_request_id = $1 AND ho.helper_id = $2
		  AND ho.status IN ('PROPOSED', 'VALIDATED_BY_REQUESTER', 'CONFIRMED_BY_HELPER')
	`
	err := r.db.GetContext(ctx, &offer, query, requestID, helperID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("help offer repository: get active %w", err)
	}
	return &offer, nil
}

// ListByParticipant возвращает все предложения, где пользователь — одна из сторон.
func (r *HelpOfferRepository) ListByParticipant(ctx context.Context, userID uuid.UUID) ([]models.HelpOffer, error) {
	var offers []models.HelpOffer
	query := `
		SELECT ` + offerColumns + `
		FROM help_offers ho
		JOIN help_requests hr ON hr.id = ho.help_request_id
		WHERE ho.requester_id = $1 OR ho.helper_id = $1
		ORDER BY ho.updated_at DESC
	`
	if err := r.db.SelectContext(ctx, &offers, query, userID); err != nil {
		return nil, fmt.Errorf("help offer repository: list by participant %w", err)
	}
	return offers, nil
}

// UpdateStatus записывает результат перехода, сверяясь с ожидаемым исходным
// статусом (optimistic concurrency). Ноль затронутых строк означает, что
// предложение изменили параллельно — вызывающий получает ErrOfferModified
// и должен перечитать снапшот.
func (r *HelpOfferRepository) UpdateStatus(ctx context.Context, offer *models.HelpOffer, expected models.OfferStatus) error {
	query := `
		UPDATE help_offers
		SET status = $1, expiration_reference = $2, cancellation_justification = $3,
		    canceled_at = $4, closed_at = $5, updated_at = $6
		WHERE id = $7 AND status = $8
	`
	res, err := r.db.ExecContext(ctx, query,
		offer.Status, offer.ExpirationReference, offer.CancellationJustification,
		offer.CanceledAt, offer.ClosedAt, offer.UpdatedAt,
		offer.ID, expected,
	)
	if err != nil {
		return fmt.Errorf("help offer repository: update status %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("help offer repository: rows affected %w", err)
	}
	if affected == 0 {
		return ErrOfferModified
	}
	return nil
}

// SetClosedAt фиксирует полное разрешение предложения без смены статуса.
func (r *HelpOfferRepository) SetClosedAt(ctx context.Context, offerID uuid.UUID, closedAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE help_offers SET closed_at = $2, updated_at = $2 WHERE id = $1 AND closed_at IS NULL
	`, offerID, closedAt)
	if err != nil {
		return fmt.Errorf("help offer repository: set closed_at %w", err)
	}
	return nil
}

// ListStalledAfterConfirmation возвращает кандидатов для сверки «нет отзывов
// после подтверждения»: подтверждённые или завершённые, но не разрешённые
// предложения, чьё назначенное время прошло раньше cutoff.
func (r *HelpOfferRepository) ListStalledAfterConfirmation(ctx context.Context, cutoff time.Time, limit int) ([]models.HelpOffer, error) {
	var offers []models.HelpOffer
	query := `
		SELECT ` + offerColumns + `
		FROM help_offers ho
		JOIN help_requests hr ON hr.id = ho.help_request_id
		WHERE ho.status IN ('CONFIRMED_BY_HELPER', 'DONE')
		  AND ho.closed_at IS NULL
		  AND hr.help_date < $1
		  AND (SELECT COUNT(*) FROM help_offer_reviews rv WHERE rv.help_offer_id = ho.id) = 0
		ORDER BY hr.help_date ASC
		LIMIT $2
	`
	if err := r.db.SelectContext(ctx, &offers, query, cutoff, limit); err != nil {
		return nil, fmt.Errorf("help offer repository: list stalled %w", err)
	}
	return offers, nil
}

// CreateWithFirstMessage сохраняет предложение и вступительное сообщение
// в одной транзакции: предложение без сообщения существовать не может.
func (r *HelpOfferRepository) CreateWithFirstMessage(ctx context.Context, offer *models.HelpOffer, message *models.Message) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := r.Create(ctx, tx, offer); err != nil {
			return err
		}
		return tx.QueryRowxContext(ctx, `
			INSERT INTO help_offer_messages (help_offer_id, sender_id, content)
			VALUES ($1, $2, $3)
			RETURNING id, read_by_receiver, created_at
		`, message.HelpOfferID, message.SenderID, message.Content).
			Scan(&message.ID, &message.ReadByReceiver, &message.CreatedAt)
	})
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// HelpCategory константы категорий запросов о помощи
const (
	CategoryGroceries      = "COURSES"
	CategoryMoving         = "DEMENAGEMENT"
	CategoryChildcare      = "GARDE_ENFANT"
	CategoryTutoring       = "SOUTIEN_SCOLAIRE"
	CategoryHandiwork      = "PETITS_TRAVAUX"
	CategoryComputer       = "INFORMATIQUE"
	CategoryCompanionship  = "COMPAGNIE_VISITE"
	CategoryTransport      = "TRANSPORT"
	CategoryCooking        = "CUISINE"
	CategoryAdministrative = "ADMINISTRATIF"
	CategoryOther          = "AUTRE"
)

// ValidHelpCategories список валидных категорий
var ValidHelpCategories = map[string]struct{}{
	CategoryGroceries:      {},
	CategoryMoving:         {},
	CategoryChildcare:      {},
	CategoryTutoring:       {},
	CategoryHandiwork:      {},
	CategoryComputer:       {},
	CategoryCompanionship:  {},
	CategoryTransport:      {},
	CategoryCooking:        {},
	CategoryAdministrative: {},
	CategoryOther:          {},
}

// Address — адрес места встречи; заполняется внешним автодополнением,
// ядро использует его как непрозрачное значение.
type Address struct {
	Street     string  `db:"street" json:"street"`
	PostalCode string  `db:"postal_code" json:"postal_code"`
	City       string  `db:"city" json:"city"`
	Latitude   *string `db:"latitude" json:"latitude,omitempty"`
	Longitude  *string `db:"longitude" json:"longitude,omitempty"`
}

// HelpRequest описывает опубликованную потребность в помощи.
type HelpRequest struct {
	ID          uuid.UUID `db:"id" json:"id"`
	RequesterID uuid.UUID `db:"requester_id" json:"requester_id"`
	Category    string    `db:"category" json:"category"`
	Description string    `db:"description" json:"description"`
	// HelpDate — назначенные дата и время помощи; от них считаются
	// временные предусловия переходов после подтверждения.
	HelpDate  time.Time `db:"help_date" json:"help_date"`
	Address   Address   `json:"address"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

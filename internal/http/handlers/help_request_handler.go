package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/voisinage/entraide-backend/internal/http/handlers/common"
	"github.com/voisinage/entraide-backend/internal/models"
	"github.com/voisinage/entraide-backend/internal/service"
)

// HelpRequestHandler отвечает за запросы о помощи.
type HelpRequestHandler struct {
	requests *service.HelpRequestService
}

func NewHelpRequestHandler(requests *service.HelpRequestService) *HelpRequestHandler {
	return &HelpRequestHandler{requests: requests}
}

// Create POST /help-requests
func (h *HelpRequestHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req struct {
		Category    string    `json:"category" binding:"required"`
		Description string    `json:"description" binding:"required"`
		HelpDate    time.Time `json:"help_date" binding:"required"`
		Address     struct {
			Street     string  `json:"street" binding:"required"`
			PostalCode string  `json:"postal_code" binding:"required"`
			City       string  `json:"city" binding:"required"`
			Latitude   *string `json:"latitude"`
			Longitude  *string `json:"longitude"`
		} `json:"address" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "некорректное тело запроса")
		return
	}

	request, err := h.requests.CreateHelpRequest(c.Request.Context(), service.CreateHelpRequestInput{
		RequesterID: userID,
		Category:    req.Category,
		Description: req.Description,
		HelpDate:    req.HelpDate,
		Address: models.Address{
			Street:     req.Address.Street,
			PostalCode: req.Address.PostalCode,
			City:       req.Address.City,
			Latitude:   req.Address.Latitude,
			Longitude:  req.Address.Longitude,
		},
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, request)
}

// Get GET /help-requests/:id
func (h *HelpRequestHandler) Get(c *gin.Context) {
	requestID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "неверный id запроса")
		return
	}

	request, err := h.requests.GetHelpRequest(c.Request.Context(), requestID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, request)
}

// ListFeed GET /help-requests
func (h *HelpRequestHandler) ListFeed(c *gin.Context) {
	limit, offset := common.GetPagination(c)

	requests, err := h.requests.ListFeed(c.Request.Context(), limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"help_requests": requests})
}

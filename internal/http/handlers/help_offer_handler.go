package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/voisinage/entraide-backend/internal/http/handlers/common"
	"github.com/voisinage/entraide-backend/internal/models"
	"github.com/voisinage/entraide-backend/internal/service"
)

// HelpOfferHandler отвечает за жизненный цикл предложений помощи
// и их обсуждения.
type HelpOfferHandler struct {
	offers *service.HelpOfferService
}

func NewHelpOfferHandler(offers *service.HelpOfferService) *HelpOfferHandler {
	return &HelpOfferHandler{offers: offers}
}

// Propose POST /help-offers
func (h *HelpOfferHandler) Propose(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req struct {
		HelpRequestID uuid.UUID `json:"help_request_id" binding:"required"`
		Message       string    `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "некорректное тело запроса")
		return
	}

	offer, err := h.offers.ProposeOffer(c.Request.Context(), service.ProposeOfferInput{
		HelpRequestID: req.HelpRequestID,
		HelperID:      userID,
		Message:       req.Message,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, offer)
}

// Get GET /help-offers/:id
func (h *HelpOfferHandler) Get(c *gin.Context) {
	userID, offerID, ok := h.actorAndOffer(c)
	if !ok {
		return
	}

	discussion, err := h.offers.GetDiscussion(c.Request.Context(), offerID, userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, discussion)
}

// Validate POST /help-offers/:id/validate
func (h *HelpOfferHandler) Validate(c *gin.Context) {
	h.transition(c, h.offers.ValidateOffer)
}

// Confirm POST /help-offers/:id/confirm
func (h *HelpOfferHandler) Confirm(c *gin.Context) {
	h.transition(c, h.offers.ConfirmOffer)
}

// Done POST /help-offers/:id/done
func (h *HelpOfferHandler) Done(c *gin.Context) {
	h.transition(c, h.offers.MarkOfferDone)
}

// Cancel POST /help-offers/:id/cancel
func (h *HelpOfferHandler) Cancel(c *gin.Context) {
	userID, offerID, ok := h.actorAndOffer(c)
	if !ok {
		return
	}

	var req struct {
		Justification string `json:"justification"`
	}
	// Тело необязательно: отмена без обоснования легальна.
	_ = c.ShouldBindJSON(&req)

	offer, err := h.offers.CancelOffer(c.Request.Context(), offerID, userID, req.Justification)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, offer)
}

// SubmitFeedback POST /help-offers/:id/feedback
func (h *HelpOfferHandler) SubmitFeedback(c *gin.Context) {
	userID, offerID, ok := h.actorAndOffer(c)
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "текст отзыва обязателен")
		return
	}

	entry, err := h.offers.SubmitFeedback(c.Request.Context(), service.SubmitFeedbackInput{
		HelpOfferID: offerID,
		ActorID:     userID,
		Content:     req.Content,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// ReportIncident POST /help-offers/:id/incident
func (h *HelpOfferHandler) ReportIncident(c *gin.Context) {
	userID, offerID, ok := h.actorAndOffer(c)
	if !ok {
		return
	}

	var req struct {
		IncidentType models.IncidentType `json:"incident_type" binding:"required"`
		Content      string              `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "тип инцидента обязателен")
		return
	}

	entry, err := h.offers.ReportIncident(c.Request.Context(), service.ReportIncidentInput{
		HelpOfferID:  offerID,
		ActorID:      userID,
		IncidentType: req.IncidentType,
		Content:      req.Content,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// MyDiscussions GET /help-offers/my-discussions
func (h *HelpOfferHandler) MyDiscussions(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	discussions, err := h.offers.ListMyDiscussions(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"discussions": discussions})
}

// SendMessage POST /help-offers/:id/messages
func (h *HelpOfferHandler) SendMessage(c *gin.Context) {
	userID, offerID, ok := h.actorAndOffer(c)
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "текст сообщения обязателен")
		return
	}

	message, err := h.offers.SendMessage(c.Request.Context(), offerID, userID, req.Content)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, message)
}

// ListMessages GET /help-offers/:id/messages
// Попутно отмечает входящие сообщения прочитанными.
func (h *HelpOfferHandler) ListMessages(c *gin.Context) {
	userID, offerID, ok := h.actorAndOffer(c)
	if !ok {
		return
	}

	messages, err := h.offers.ListMessages(c.Request.Context(), offerID, userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// transition выполняет переход без тела запроса.
func (h *HelpOfferHandler) transition(
	c *gin.Context,
	op func(ctx context.Context, offerID, actorID uuid.UUID) (*models.HelpOffer, error),
) {
	userID, offerID, ok := h.actorAndOffer(c)
	if !ok {
		return
	}

	offer, err := op(c.Request.Context(), offerID, userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, offer)
}

// actorAndOffer извлекает пользователя и идентификатор предложения;
// при ошибке ответ уже отправлен.
func (h *HelpOfferHandler) actorAndOffer(c *gin.Context) (userID, offerID uuid.UUID, ok bool) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return uuid.Nil, uuid.Nil, false
	}

	offerID, err = common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "неверный id предложения")
		return uuid.Nil, uuid.Nil, false
	}

	return userID, offerID, true
}

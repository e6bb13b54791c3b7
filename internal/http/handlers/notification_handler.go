package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/voisinage/entraide-backend/internal/http/handlers/common"
	"github.com/voisinage/entraide-backend/internal/service"
)

// NotificationHandler отвечает за отложенные уведомления.
type NotificationHandler struct {
	notifications *service.NotificationService
}

func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// ListUnread GET /notifications/unread
func (h *NotificationHandler) ListUnread(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	notifications, err := h.notifications.ListUnread(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

// MarkAllAsRead POST /notifications/mark-all-as-read
func (h *NotificationHandler) MarkAllAsRead(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	if err := h.notifications.MarkAllAsRead(c.Request.Context(), userID); err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondSuccess(c, http.StatusOK, "уведомления отмечены прочитанными", nil)
}

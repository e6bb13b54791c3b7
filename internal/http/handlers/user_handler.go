package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/voisinage/entraide-backend/internal/http/handlers/common"
	"github.com/voisinage/entraide-backend/internal/service"
)

// UserHandler отдаёт профили соседей.
type UserHandler struct {
	users *service.UserService
}

func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Get GET /users/:id
func (h *UserHandler) Get(c *gin.Context) {
	userID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, "неверный id пользователя")
		return
	}

	user, err := h.users.GetUser(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

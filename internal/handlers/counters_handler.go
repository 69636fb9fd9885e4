package handlers

import (
	"net/http"

	"github.com/anonto42/memepie/backend/internal/repositories"
	"github.com/anonto42/memepie/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// CountersHandler reports the badge counts shown in the navigation bar
type CountersHandler struct {
	inbox                  *services.InboxService
	notificationRepository repositories.NotificationRepository
}

func NewCountersHandler(inbox *services.InboxService, notifRepo repositories.NotificationRepository) *CountersHandler {
	return &CountersHandler{inbox: inbox, notificationRepository: notifRepo}
}

func (h *CountersHandler) RegisterCounterRoutes(g *echo.Group) {
	g.GET("/counters", h.GetCounters)
}

// GetCounters returns zero counts for anonymous viewers
func (h *CountersHandler) GetCounters(c echo.Context) error {
	userID := getUserIDFromContext(c)
	if userID == 0 {
		return success(c, http.StatusOK, echo.Map{"unread_messages": 0, "unread_notifications": 0})
	}
	ctx := c.Request().Context()

	messages, err := h.inbox.UnreadCount(ctx, userID)
	if err != nil {
		return httpError(err, "Counters")
	}
	notifications, err := h.notificationRepository.GetUnreadCount(ctx, userID)
	if err != nil {
		return httpError(err, "Counters")
	}
	return success(c, http.StatusOK, echo.Map{"unread_messages": messages, "unread_notifications": notifications})
}

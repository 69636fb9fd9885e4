package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/anonto42/memepie/backend/internal/models"
	"github.com/anonto42/memepie/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	notificationRepository repositories.NotificationRepository
	userRepository         repositories.UserRepository
	now                    func() time.Time
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifRepo repositories.NotificationRepository, userRepo repositories.UserRepository) *NotificationHandler {
	return &NotificationHandler{
		notificationRepository: notifRepo,
		userRepository:         userRepo,
		now:                    time.Now,
	}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/grouped", h.GetGroupedNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.PUT("/notifications/read-all", h.MarkAllAsRead)
	g.PUT("/notifications/:id/read", h.MarkAsRead)
}

// EnrichedNotification includes actor info
type EnrichedNotification struct {
	models.Notification
	Actor models.UserCompact `json:"actor"`
}

func (h *NotificationHandler) enrichNotifications(ctx context.Context, notifications []models.Notification) ([]EnrichedNotification, error) {
	enriched := make([]EnrichedNotification, len(notifications))
	if len(notifications) == 0 {
		return enriched, nil
	}

	actorIDs := make([]uint, len(notifications))
	for i, n := range notifications {
		actorIDs[i] = n.ActorID
	}
	actors, err := h.userRepository.GetUsersByIDs(ctx, actorIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.UserCompact, len(actors))
	for i := range actors {
		byID[actors[i].ID] = actors[i].ToCompact()
	}

	for i, n := range notifications {
		enriched[i] = EnrichedNotification{Notification: n, Actor: byID[n.ActorID]}
	}
	return enriched, nil
}

// GetNotifications returns paginated notifications, newest first.
// With ?mark_read=true everything is marked read after the page is loaded.
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	page, limit := pagination(c, 20, 50)

	notifications, total, err := h.notificationRepository.GetByRecipientID(ctx, currentUserID, page, limit)
	if err != nil {
		return httpError(err, "Notifications")
	}
	enriched, err := h.enrichNotifications(ctx, notifications)
	if err != nil {
		return httpError(err, "Notifications")
	}

	if c.QueryParam("mark_read") == "true" {
		if err := h.notificationRepository.MarkAllAsRead(ctx, currentUserID); err != nil {
			log.Warn().Err(err).Uint("user_id", currentUserID).Msg("failed to mark notifications read")
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data": echo.Map{
			"notifications": enriched,
		},
		"meta": pageMeta(page, limit, total),
	})
}

// GetGroupedNotifications returns notifications grouped by time period
func (h *NotificationHandler) GetGroupedNotifications(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	today, yesterday, thisWeek, older, err := h.notificationRepository.GetGrouped(ctx, currentUserID, h.now())
	if err != nil {
		return httpError(err, "Notifications")
	}

	groups := echo.Map{}
	for name, list := range map[string][]models.Notification{
		"today":     today,
		"yesterday": yesterday,
		"thisWeek":  thisWeek,
		"older":     older,
	} {
		enriched, err := h.enrichNotifications(ctx, list)
		if err != nil {
			return httpError(err, "Notifications")
		}
		groups[name] = enriched
	}

	unreadCount, err := h.notificationRepository.GetUnreadCount(ctx, currentUserID)
	if err != nil {
		return httpError(err, "Notifications")
	}

	return success(c, http.StatusOK, echo.Map{
		"notifications": groups,
		"unreadCount":   unreadCount,
	})
}

// GetUnreadCount returns the unread notification count
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	count, err := h.notificationRepository.GetUnreadCount(c.Request().Context(), currentUserID)
	if err != nil {
		return httpError(err, "Notifications")
	}

	return success(c, http.StatusOK, echo.Map{"count": count})
}

// MarkAsRead marks one of the caller's notifications as read
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	notifID, err := parseUintParam(c, "id", "notification ID")
	if err != nil {
		return err
	}

	if err := h.notificationRepository.MarkAsRead(c.Request().Context(), notifID, currentUserID); err != nil {
		return httpError(err, "Notification")
	}

	return success(c, http.StatusOK, echo.Map{"id": notifID, "is_read": true})
}

// MarkAllAsRead marks all notifications as read
func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}

	if err := h.notificationRepository.MarkAllAsRead(c.Request().Context(), currentUserID); err != nil {
		return httpError(err, "Notifications")
	}

	return success(c, http.StatusOK, echo.Map{"is_read": true})
}

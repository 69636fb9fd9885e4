package handlers

import (
	"net/http"
	"strings"

	"github.com/anonto42/memepie/backend/internal/models"
	"github.com/anonto42/memepie/backend/internal/repositories"
	"github.com/anonto42/memepie/backend/internal/services"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// InboxHandler serves direct messages and message requests
type InboxHandler struct {
	inbox          *services.InboxService
	userRepository repositories.UserRepository
}

func NewInboxHandler(inbox *services.InboxService, userRepo repositories.UserRepository) *InboxHandler {
	return &InboxHandler{inbox: inbox, userRepository: userRepo}
}

// RegisterInboxRoutes registers messaging routes. Every route needs an authenticated user.
func (h *InboxHandler) RegisterInboxRoutes(g *echo.Group) {
	g.GET("/inbox", h.GetInbox)
	g.GET("/inbox/unread-count", h.GetUnreadCount)
	g.POST("/inbox/start/:username", h.StartChat)
	g.GET("/inbox/:id", h.GetThread)
	g.POST("/inbox/:id/messages", h.SendMessage)
	g.POST("/inbox/:id/accept", h.AcceptRequest)
	g.POST("/inbox/:id/decline", h.DeclineRequest)
	g.POST("/memes/:id/share", h.ShareMeme)
}

// GetInbox lists one tab of the inbox together with the size of both tabs
func (h *InboxHandler) GetInbox(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	tab := services.Folder(c.QueryParam("tab"))
	switch tab {
	case "":
		tab = services.FolderPrimary
	case services.FolderPrimary, services.FolderRequests:
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid tab")
	}

	inbox, err := h.inbox.Inbox(c.Request().Context(), userID)
	if err != nil {
		return httpError(err, "Inbox")
	}
	threads := inbox.Primary
	if tab == services.FolderRequests {
		threads = inbox.Requests
	}

	return success(c, http.StatusOK, echo.Map{
		"tab":            tab,
		"threads":        threads,
		"primary_count":  len(inbox.Primary),
		"requests_count": len(inbox.Requests),
	})
}

// StartChat returns the conversation with :username, creating it when needed
func (h *InboxHandler) StartChat(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	other, err := h.userRepository.GetUserByUsername(ctx, c.Param("username"))
	if err != nil {
		return httpError(err, "User")
	}
	thread, created, err := h.inbox.CreateThread(ctx, userID, other.ID)
	if err != nil {
		return httpError(err, "User")
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		log.Info().Uint("thread_id", thread.ID).Uint("initiator_id", userID).Bool("accepted", thread.IsAccepted).Msg("thread created")
	}
	return success(c, status, echo.Map{"thread": thread, "other_user": other.ToCompact()})
}

// GetThread opens a conversation and marks the inbound messages read
func (h *InboxHandler) GetThread(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	threadID, err := parseUintParam(c, "id", "thread ID")
	if err != nil {
		return err
	}

	view, err := h.inbox.OpenThread(c.Request().Context(), threadID, userID)
	if err != nil {
		return httpError(err, "Thread")
	}
	return success(c, http.StatusOK, view)
}

// SendMessage posts a message into a thread
func (h *InboxHandler) SendMessage(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	threadID, err := parseUintParam(c, "id", "thread ID")
	if err != nil {
		return err
	}
	var req models.SendMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	msg, err := h.inbox.SendMessage(c.Request().Context(), threadID, userID, req.Text, req.MemeID)
	if err != nil {
		return httpError(err, "Thread")
	}
	return success(c, http.StatusCreated, msg)
}

// AcceptRequest moves a message request into the primary tab
func (h *InboxHandler) AcceptRequest(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	threadID, err := parseUintParam(c, "id", "thread ID")
	if err != nil {
		return err
	}

	thread, err := h.inbox.Accept(c.Request().Context(), threadID, userID)
	if err != nil {
		return httpError(err, "Thread")
	}
	return success(c, http.StatusOK, thread)
}

// DeclineRequest deletes the thread with its messages
func (h *InboxHandler) DeclineRequest(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	threadID, err := parseUintParam(c, "id", "thread ID")
	if err != nil {
		return err
	}

	if err := h.inbox.Decline(c.Request().Context(), threadID, userID); err != nil {
		return httpError(err, "Thread")
	}
	return c.NoContent(http.StatusNoContent)
}

// GetUnreadCount counts unread inbound messages across all threads
func (h *InboxHandler) GetUnreadCount(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	count, err := h.inbox.UnreadCount(c.Request().Context(), userID)
	if err != nil {
		return httpError(err, "Inbox")
	}
	return success(c, http.StatusOK, echo.Map{"count": count})
}

// ShareMeme sends the meme to another user as a message
func (h *InboxHandler) ShareMeme(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	var req models.ShareMemeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	recipient, err := h.userRepository.GetUserByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		return httpError(err, "User")
	}
	thread, msg, err := h.inbox.ShareMeme(ctx, userID, recipient.ID, c.Param("id"), req.Text)
	if err != nil {
		return httpError(err, "Meme")
	}
	return success(c, http.StatusCreated, echo.Map{"thread": thread, "message": msg})
}

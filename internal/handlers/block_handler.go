package handlers

import (
	"errors"
	"net/http"

	"github.com/anonto42/memepie/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// BlockHandler manages the caller's blocked accounts
type BlockHandler struct {
	blockRepository repositories.BlockRepository
	userRepository  repositories.UserRepository
}

func NewBlockHandler(blockRepo repositories.BlockRepository, userRepo repositories.UserRepository) *BlockHandler {
	return &BlockHandler{blockRepository: blockRepo, userRepository: userRepo}
}

func (h *BlockHandler) RegisterBlockRoutes(g *echo.Group) {
	g.GET("/blocks", h.ListBlocked)
	g.POST("/users/:id/block", h.Block)
	g.DELETE("/users/:id/block", h.Unblock)
}

func (h *BlockHandler) ListBlocked(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	users, err := h.blockRepository.GetBlockedUsers(c.Request().Context(), userID)
	if err != nil {
		return httpError(err, "Block")
	}
	return success(c, http.StatusOK, echo.Map{"users": compactUsers(users)})
}

// Block is idempotent
func (h *BlockHandler) Block(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	targetID, err := parseUintParam(c, "id", "user ID")
	if err != nil {
		return err
	}
	if targetID == userID {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot block yourself")
	}

	ctx := c.Request().Context()
	if _, err := h.userRepository.GetUserByID(ctx, targetID); err != nil {
		return httpError(err, "User")
	}
	if err := h.blockRepository.CreateBlock(ctx, userID, targetID); err != nil {
		return httpError(err, "User")
	}
	return success(c, http.StatusOK, echo.Map{"blocked": true})
}

// Unblock succeeds even when the user was not blocked
func (h *BlockHandler) Unblock(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	targetID, err := parseUintParam(c, "id", "user ID")
	if err != nil {
		return err
	}
	if err := h.blockRepository.DeleteBlock(c.Request().Context(), userID, targetID); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return httpError(err, "Block")
	}
	return success(c, http.StatusOK, echo.Map{"blocked": false})
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/anonto42/memepie/backend/internal/models"
	"github.com/anonto42/memepie/backend/internal/repositories"
	"github.com/anonto42/memepie/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// FollowHandler handles follow/unfollow HTTP requests
type FollowHandler struct {
	followRepository repositories.FollowRepository
	userRepository   repositories.UserRepository
	notifier         *services.Notifier
	suggestions      *services.SuggestionService
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(followRepo repositories.FollowRepository, userRepo repositories.UserRepository, notifier *services.Notifier, suggestions *services.SuggestionService) *FollowHandler {
	return &FollowHandler{
		followRepository: followRepo,
		userRepository:   userRepo,
		notifier:         notifier,
		suggestions:      suggestions,
	}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:id/follow", h.FollowUser)
	g.DELETE("/users/:id/follow", h.UnfollowUser)
}

// FollowUser follows a user
func (h *FollowHandler) FollowUser(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	targetID, err := parseUintParam(c, "id", "user ID")
	if err != nil {
		return err
	}
	if currentUserID == targetID {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot follow yourself")
	}

	ctx := c.Request().Context()
	if _, err := h.userRepository.GetUserByID(ctx, targetID); err != nil {
		return httpError(err, "User")
	}

	isFollowing, err := h.followRepository.IsFollowing(ctx, currentUserID, targetID)
	if err != nil {
		return httpError(err, "User")
	}
	if isFollowing {
		return echo.NewHTTPError(http.StatusConflict, "Already following this user")
	}

	follow := &models.Follow{FollowerID: currentUserID, FollowingID: targetID}
	if err := h.followRepository.CreateFollow(ctx, follow); err != nil {
		if errors.Is(err, repositories.ErrAlreadyExists) {
			return echo.NewHTTPError(http.StatusConflict, "Already following this user")
		}
		return httpError(err, "User")
	}
	h.suggestions.Invalidate(ctx, currentUserID)

	if actor, err := h.userRepository.GetUserByID(ctx, currentUserID); err == nil {
		h.notifier.Followed(ctx, actor, targetID)
	}

	return h.followState(c, targetID, true)
}

// UnfollowUser unfollows a user
func (h *FollowHandler) UnfollowUser(c echo.Context) error {
	currentUserID, err := requireUser(c)
	if err != nil {
		return err
	}
	targetID, err := parseUintParam(c, "id", "user ID")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if err := h.followRepository.DeleteFollow(ctx, currentUserID, targetID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Not following this user")
		}
		return httpError(err, "Follow")
	}
	h.suggestions.Invalidate(ctx, currentUserID)

	return h.followState(c, targetID, false)
}

// followState reports the relation along with the target's refreshed counters
func (h *FollowHandler) followState(c echo.Context, targetID uint, following bool) error {
	ctx := c.Request().Context()
	followers, err := h.followRepository.GetFollowersCount(ctx, targetID)
	if err != nil {
		return httpError(err, "User")
	}
	followingCount, err := h.followRepository.GetFollowingCount(ctx, targetID)
	if err != nil {
		return httpError(err, "User")
	}
	return success(c, http.StatusOK, echo.Map{
		"following":       following,
		"followers_count": followers,
		"following_count": followingCount,
	})
}

package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/anonto42/memepie/backend/internal/models"
	"github.com/anonto42/memepie/backend/internal/repositories"
	"github.com/anonto42/memepie/backend/internal/services"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// LikeHandler handles HTTP requests related to likes
type LikeHandler struct {
	likeRepository repositories.LikeRepository
	memeRepository repositories.MemeRepository
	userRepository repositories.UserRepository
	notifier       *services.Notifier
	suggestions    *services.SuggestionService
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(likeRepo repositories.LikeRepository, memeRepo repositories.MemeRepository, userRepo repositories.UserRepository, notifier *services.Notifier, suggestions *services.SuggestionService) *LikeHandler {
	return &LikeHandler{
		likeRepository: likeRepo,
		memeRepository: memeRepo,
		userRepository: userRepo,
		notifier:       notifier,
		suggestions:    suggestions,
	}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/memes/:id/likes", h.LikeMeme)
	g.DELETE("/memes/:id/likes", h.UnlikeMeme)
	g.POST("/memes/:id/likes/toggle", h.ToggleLike)
	g.GET("/memes/:id/likes/count", h.GetLikesCount)
	g.GET("/memes/:id/likes/status", h.GetLikeStatus)
}

func (h *LikeHandler) like(ctx context.Context, userID uint, meme *models.Meme) error {
	if err := h.likeRepository.CreateLike(ctx, &models.Like{MemeID: meme.HexID(), UserID: userID}); err != nil {
		return err
	}
	if err := h.memeRepository.IncrementLikesCount(ctx, meme.HexID()); err != nil {
		log.Warn().Err(err).Str("meme_id", meme.HexID()).Msg("failed to increment likes count")
	}
	h.suggestions.Invalidate(ctx, userID)
	if actor, err := h.userRepository.GetUserByID(ctx, userID); err == nil {
		h.notifier.MemeLiked(ctx, actor, meme)
	}
	return nil
}

func (h *LikeHandler) unlike(ctx context.Context, userID uint, meme *models.Meme) error {
	if err := h.likeRepository.DeleteLike(ctx, meme.HexID(), userID); err != nil {
		return err
	}
	if err := h.memeRepository.DecrementLikesCount(ctx, meme.HexID()); err != nil {
		log.Warn().Err(err).Str("meme_id", meme.HexID()).Msg("failed to decrement likes count")
	}
	h.suggestions.Invalidate(ctx, userID)
	return nil
}

// LikeMeme handles liking a meme
func (h *LikeHandler) LikeMeme(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	meme, err := h.memeRepository.GetMemeByID(ctx, c.Param("id"))
	if err != nil {
		return httpError(err, "Meme")
	}

	hasLiked, err := h.likeRepository.HasUserLikedMeme(ctx, meme.HexID(), userID)
	if err != nil {
		return httpError(err, "Meme")
	}
	if hasLiked {
		return echo.NewHTTPError(http.StatusConflict, "Meme already liked by this user")
	}
	if err := h.like(ctx, userID, meme); err != nil {
		if errors.Is(err, repositories.ErrAlreadyExists) {
			return echo.NewHTTPError(http.StatusConflict, "Meme already liked by this user")
		}
		return httpError(err, "Meme")
	}
	return h.likeState(c, meme.HexID(), true, http.StatusCreated)
}

// UnlikeMeme handles unliking a meme
func (h *LikeHandler) UnlikeMeme(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	meme, err := h.memeRepository.GetMemeByID(ctx, c.Param("id"))
	if err != nil {
		return httpError(err, "Meme")
	}

	if err := h.unlike(ctx, userID, meme); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Like not found")
		}
		return httpError(err, "Meme")
	}
	return c.NoContent(http.StatusNoContent)
}

// ToggleLike likes the meme if the caller has not, otherwise unlikes it
func (h *LikeHandler) ToggleLike(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	meme, err := h.memeRepository.GetMemeByID(ctx, c.Param("id"))
	if err != nil {
		return httpError(err, "Meme")
	}

	hasLiked, err := h.likeRepository.HasUserLikedMeme(ctx, meme.HexID(), userID)
	if err != nil {
		return httpError(err, "Meme")
	}
	if hasLiked {
		err = h.unlike(ctx, userID, meme)
	} else {
		err = h.like(ctx, userID, meme)
	}
	if err != nil {
		return httpError(err, "Like")
	}
	return h.likeState(c, meme.HexID(), !hasLiked, http.StatusOK)
}

func (h *LikeHandler) likeState(c echo.Context, memeID string, liked bool, status int) error {
	count, err := h.likeRepository.GetLikesCountByMemeID(c.Request().Context(), memeID)
	if err != nil {
		return httpError(err, "Meme")
	}
	return success(c, status, echo.Map{"meme_id": memeID, "liked": liked, "likes_count": count})
}

// GetLikesCount retrieves the total number of likes for a meme
func (h *LikeHandler) GetLikesCount(c echo.Context) error {
	ctx := c.Request().Context()
	meme, err := h.memeRepository.GetMemeByID(ctx, c.Param("id"))
	if err != nil {
		return httpError(err, "Meme")
	}
	count, err := h.likeRepository.GetLikesCountByMemeID(ctx, meme.HexID())
	if err != nil {
		return httpError(err, "Meme")
	}
	return success(c, http.StatusOK, echo.Map{"meme_id": meme.HexID(), "likes_count": count})
}

// GetLikeStatus reports whether the caller has liked a meme
func (h *LikeHandler) GetLikeStatus(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	meme, err := h.memeRepository.GetMemeByID(ctx, c.Param("id"))
	if err != nil {
		return httpError(err, "Meme")
	}
	hasLiked, err := h.likeRepository.HasUserLikedMeme(ctx, meme.HexID(), userID)
	if err != nil {
		return httpError(err, "Meme")
	}
	return success(c, http.StatusOK, echo.Map{"meme_id": meme.HexID(), "user_id": userID, "has_liked": hasLiked})
}

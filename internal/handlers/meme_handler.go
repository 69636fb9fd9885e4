package handlers

import (
	"net/http"
	"strings"

	"github.com/anonto42/memepie/backend/internal/models"
	"github.com/anonto42/memepie/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// MemeHandler handles HTTP requests related to memes
type MemeHandler struct {
	memeRepository        repositories.MemeRepository
	userRepository        repositories.UserRepository
	likeRepository        repositories.LikeRepository
	commentRepository     repositories.CommentRepository
	commentLikeRepository repositories.CommentLikeRepository
}

// NewMemeHandler creates a new MemeHandler
func NewMemeHandler(memeRepo repositories.MemeRepository, userRepo repositories.UserRepository, likeRepo repositories.LikeRepository, commentRepo repositories.CommentRepository, commentLikeRepo repositories.CommentLikeRepository) *MemeHandler {
	return &MemeHandler{
		memeRepository:        memeRepo,
		userRepository:        userRepo,
		likeRepository:        likeRepo,
		commentRepository:     commentRepo,
		commentLikeRepository: commentLikeRepo,
	}
}

// RegisterMemeRoutes registers routes that need an authenticated user
func (h *MemeHandler) RegisterMemeRoutes(g *echo.Group) {
	g.POST("/memes", h.CreateMeme)
	g.DELETE("/memes/:id", h.DeleteMeme)
}

// RegisterPublicRoutes registers meme routes open to anonymous viewers
func (h *MemeHandler) RegisterPublicRoutes(g *echo.Group) {
	g.GET("/memes/:id", h.GetMeme)
}

// CreateMeme creates a new meme
func (h *MemeHandler) CreateMeme(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	var req models.CreateMemeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	meme := &models.Meme{
		AuthorID: userID,
		ImageURL: req.ImageURL,
		Caption:  strings.TrimSpace(req.Caption),
	}
	if err := h.memeRepository.CreateMeme(c.Request().Context(), meme); err != nil {
		return httpError(err, "Meme")
	}

	log.Info().Str("meme_id", meme.HexID()).Uint("author_id", userID).Msg("meme uploaded")
	return success(c, http.StatusCreated, meme)
}

// GetMeme returns the meme with its author, threaded comments and the viewer's like state
func (h *MemeHandler) GetMeme(c echo.Context) error {
	ctx := c.Request().Context()
	viewerID := getUserIDFromContext(c)

	meme, err := h.memeRepository.GetMemeByID(ctx, c.Param("id"))
	if err != nil {
		return httpError(err, "Meme")
	}

	enriched, err := enrichMemes(ctx, h.userRepository, h.likeRepository, []models.Meme{*meme}, viewerID)
	if err != nil {
		return httpError(err, "Meme")
	}
	comments, err := buildCommentTree(ctx, h.commentRepository, h.commentLikeRepository, h.userRepository, meme.HexID(), viewerID)
	if err != nil {
		return httpError(err, "Meme")
	}

	return success(c, http.StatusOK, echo.Map{
		"meme":     enriched[0],
		"comments": comments,
	})
}

// DeleteMeme removes a meme together with its likes, comments and comment likes
func (h *MemeHandler) DeleteMeme(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	meme, err := h.memeRepository.GetMemeByID(ctx, c.Param("id"))
	if err != nil {
		return httpError(err, "Meme")
	}
	if meme.AuthorID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to delete this meme")
	}

	id := meme.HexID()
	if err := h.likeRepository.DeleteLikesByMemeID(ctx, id); err != nil {
		return httpError(err, "Meme")
	}
	if err := h.commentRepository.DeleteCommentsByMemeID(ctx, id); err != nil {
		return httpError(err, "Meme")
	}
	if err := h.memeRepository.DeleteMeme(ctx, id); err != nil {
		return httpError(err, "Meme")
	}

	return c.NoContent(http.StatusNoContent)
}

package handlers

import (
	"context"
	"net/http"

	"github.com/anonto42/memepie/backend/internal/metrics"
	"github.com/anonto42/memepie/backend/internal/models"
	"github.com/anonto42/memepie/backend/internal/repositories"
	"github.com/anonto42/memepie/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// FeedHandler handles feed-related HTTP requests
type FeedHandler struct {
	feedService    *services.FeedService
	userRepository repositories.UserRepository
	likeRepository repositories.LikeRepository
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(feed *services.FeedService, userRepo repositories.UserRepository, likeRepo repositories.LikeRepository) *FeedHandler {
	return &FeedHandler{
		feedService:    feed,
		userRepository: userRepo,
		likeRepository: likeRepo,
	}
}

// RegisterFeedRoutes registers the feed route. The group must carry optional auth.
func (h *FeedHandler) RegisterFeedRoutes(g *echo.Group) {
	g.GET("/feed", h.GetFeed)
}

// EnrichedMeme includes author info and the viewer's like state
type EnrichedMeme struct {
	models.Meme
	Author  models.UserCompact `json:"author"`
	IsLiked bool               `json:"is_liked"`
	Tier    string             `json:"tier,omitempty"`
}

func enrichMemes(ctx context.Context, users repositories.UserRepository, likes repositories.LikeRepository, memes []models.Meme, viewerID uint) ([]EnrichedMeme, error) {
	enriched := make([]EnrichedMeme, len(memes))
	if len(memes) == 0 {
		return enriched, nil
	}

	authorIDs := make([]uint, 0, len(memes))
	memeIDs := make([]string, len(memes))
	for i := range memes {
		authorIDs = append(authorIDs, memes[i].AuthorID)
		memeIDs[i] = memes[i].HexID()
	}

	authors, err := users.GetUsersByIDs(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	authorByID := make(map[uint]models.UserCompact, len(authors))
	for i := range authors {
		authorByID[authors[i].ID] = authors[i].ToCompact()
	}

	liked := map[string]bool{}
	if viewerID != 0 {
		if liked, err = likes.GetLikedAmong(ctx, viewerID, memeIDs); err != nil {
			return nil, err
		}
	}

	for i := range memes {
		enriched[i] = EnrichedMeme{
			Meme:    memes[i],
			Author:  authorByID[memes[i].AuthorID],
			IsLiked: liked[memeIDs[i]],
		}
	}
	return enriched, nil
}

// GetFeed returns one page of the composed feed. Anonymous viewers get the
// popularity ordering.
func (h *FeedHandler) GetFeed(c echo.Context) error {
	ctx := c.Request().Context()
	viewerID := getUserIDFromContext(c)
	page, limit := pagination(c, 10, 50)

	entries, err := h.feedService.Feed(ctx, viewerID)
	if err != nil {
		return httpError(err, "Feed")
	}

	start, end := pageBounds(page, limit, len(entries))
	window := entries[start:end]
	memes := make([]models.Meme, len(window))
	for i, e := range window {
		memes[i] = e.Meme
		metrics.FeedEntries.WithLabelValues(e.Tier).Inc()
	}

	enriched, err := enrichMemes(ctx, h.userRepository, h.likeRepository, memes, viewerID)
	if err != nil {
		return httpError(err, "Feed")
	}
	for i := range enriched {
		enriched[i].Tier = window[i].Tier
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"memes": enriched},
		"meta":    pageMeta(page, limit, int64(len(entries))),
	})
}

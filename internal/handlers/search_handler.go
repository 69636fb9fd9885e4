package handlers

import (
	"net/http"
	"strings"

	"github.com/anonto42/memepie/backend/internal/models"
	"github.com/anonto42/memepie/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

const searchLimit = 20

type SearchHandler struct {
	userRepository repositories.UserRepository
	memeRepository repositories.MemeRepository
}

func NewSearchHandler(userRepo repositories.UserRepository, memeRepo repositories.MemeRepository) *SearchHandler {
	return &SearchHandler{userRepository: userRepo, memeRepository: memeRepo}
}

func (h *SearchHandler) RegisterSearchRoutes(g *echo.Group) {
	g.GET("/search", h.Search)
}

// Search matches users by username or name and memes by caption, case-insensitively
func (h *SearchHandler) Search(c echo.Context) error {
	query := strings.TrimSpace(c.QueryParam("q"))
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Search query 'q' is required")
	}
	ctx := c.Request().Context()

	users, err := h.userRepository.SearchUsers(ctx, query, searchLimit)
	if err != nil {
		return httpError(err, "User")
	}
	memes, err := h.memeRepository.SearchMemes(ctx, query, searchLimit)
	if err != nil {
		return httpError(err, "Meme")
	}
	if memes == nil {
		memes = []models.Meme{}
	}

	return success(c, http.StatusOK, echo.Map{
		"query": query,
		"users": compactUsers(users),
		"memes": memes,
	})
}

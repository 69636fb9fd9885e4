package handlers

import (
	"net/http"
	"strconv"

	"github.com/anonto42/memepie/backend/internal/services"
	"github.com/labstack/echo/v4"
)

const (
	defaultSuggestionLimit = 5
	maxSuggestionLimit     = 50
)

// SuggestionHandler serves follow suggestions
type SuggestionHandler struct {
	suggestions *services.SuggestionService
}

func NewSuggestionHandler(suggestions *services.SuggestionService) *SuggestionHandler {
	return &SuggestionHandler{suggestions: suggestions}
}

// RegisterSuggestionRoutes registers the suggestion route. The group must carry optional auth.
func (h *SuggestionHandler) RegisterSuggestionRoutes(g *echo.Group) {
	g.GET("/suggestions", h.GetSuggestions)
	g.GET("/suggestions/all", h.GetAllSuggestions)
}

// GetSuggestions returns ranked follow suggestions. Anonymous viewers get an empty list.
func (h *SuggestionHandler) GetSuggestions(c echo.Context) error {
	limit := defaultSuggestionLimit
	if raw := c.QueryParam("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid limit")
		}
		if v > maxSuggestionLimit {
			v = maxSuggestionLimit
		}
		limit = v
	}

	suggestions, err := h.suggestions.Suggest(c.Request().Context(), getUserIDFromContext(c), limit)
	if err != nil {
		return httpError(err, "Suggestions")
	}
	return success(c, http.StatusOK, echo.Map{"suggestions": suggestions})
}

// GetAllSuggestions returns every ranked candidate without random padding
func (h *SuggestionHandler) GetAllSuggestions(c echo.Context) error {
	suggestions, err := h.suggestions.Suggest(c.Request().Context(), getUserIDFromContext(c), 0)
	if err != nil {
		return httpError(err, "Suggestions")
	}
	return success(c, http.StatusOK, echo.Map{"suggestions": suggestions})
}

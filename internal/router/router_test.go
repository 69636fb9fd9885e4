package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/anonto42/memepie/backend/internal/repositories/memstore"
	"github.com/anonto42/memepie/backend/pkg/cache"
	"github.com/anonto42/memepie/backend/validators"
	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
)

func memoryRepositories(s *memstore.Store) Repositories {
	return Repositories{
		Users:         s.Users(),
		Follows:       s.Follows(),
		Blocks:        s.Blocks(),
		Memes:         s.Memes(),
		Likes:         s.Likes(),
		Comments:      s.Comments(),
		CommentLikes:  s.CommentLikes(),
		Notifications: s.Notifications(),
		Threads:       s.Threads(),
		Messages:      s.Messages(),
	}
}

func newServer(t *testing.T) *echo.Echo {
	t.Helper()
	e := echo.New()
	e.Validator = validators.NewValidator()
	SetupMiddleware(e)
	RegisterRoutes(e, Deps{
		Repos:         memoryRepositories(memstore.New()),
		Cache:         cache.Noop{},
		JWTSecret:     "router-test",
		SuggestionTTL: time.Minute,
	})
	return e
}

func call(e *echo.Echo, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRoutesRegistered(t *testing.T) {
	e := newServer(t)
	registered := make(map[string]bool)
	for _, r := range e.Routes() {
		registered[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /health",
		"POST /api/v1/auth/signup",
		"POST /api/v1/auth/signin",
		"POST /api/v1/auth/firebase-login",
		"GET /api/v1/me",
		"PUT /api/v1/settings/password",
		"GET /api/v1/users/:username",
		"POST /api/v1/users/:id/follow",
		"POST /api/v1/users/:id/block",
		"GET /api/v1/blocks",
		"POST /api/v1/memes",
		"GET /api/v1/memes/:id",
		"POST /api/v1/memes/:id/likes/toggle",
		"POST /api/v1/memes/:id/comments",
		"GET /api/v1/memes/:id/comments",
		"POST /api/v1/comments/:id/likes/toggle",
		"GET /api/v1/feed",
		"GET /api/v1/suggestions",
		"GET /api/v1/suggestions/all",
		"GET /api/v1/search",
		"GET /api/v1/notifications/grouped",
		"GET /api/v1/inbox",
		"POST /api/v1/inbox/start/:username",
		"POST /api/v1/inbox/:id/accept",
		"POST /api/v1/memes/:id/share",
		"GET /api/v1/counters",
	} {
		if !registered[want] {
			t.Errorf("route %s not registered", want)
		}
	}
}

func TestSignupToFeed(t *testing.T) {
	e := newServer(t)

	rec := call(e, http.MethodPost, "/api/v1/auth/signup",
		`{"username":"alice","email":"alice@example.com","password":"password123","birth_date":"1992-02-29"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup = %d: %s", rec.Code, rec.Body.String())
	}
	var auth struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &auth); err != nil || auth.Token == "" {
		t.Fatalf("token: %v %s", err, rec.Body.String())
	}

	if rec := call(e, http.MethodPost, "/api/v1/memes", `{"image_url":"https://img.example.com/a.png","caption":"first"}`, auth.Token); rec.Code != http.StatusCreated {
		t.Fatalf("create meme = %d: %s", rec.Code, rec.Body.String())
	}
	if rec := call(e, http.MethodPost, "/api/v1/memes", `{"image_url":"https://img.example.com/a.png"}`, ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous create = %d, want 401", rec.Code)
	}

	for _, token := range []string{auth.Token, ""} {
		rec := call(e, http.MethodGet, "/api/v1/feed", "", token)
		if rec.Code != http.StatusOK {
			t.Fatalf("feed = %d", rec.Code)
		}
		var feed struct {
			Data struct {
				Memes []struct {
					Caption string `json:"caption"`
				} `json:"memes"`
			} `json:"data"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &feed); err != nil || len(feed.Data.Memes) != 1 || feed.Data.Memes[0].Caption != "first" {
			t.Errorf("feed (token=%v) = %s", token != "", rec.Body.String())
		}
	}

	if rec := call(e, http.MethodGet, "/api/v1/inbox/unread-count", "", auth.Token); rec.Code != http.StatusOK {
		t.Errorf("unread-count = %d, want 200 (static route must win over :id)", rec.Code)
	}
	if rec := call(e, http.MethodGet, "/health", "", ""); rec.Code != http.StatusOK {
		t.Errorf("health = %d", rec.Code)
	}
}

package handlers

import (
	"bytes"
	"context"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anonto42/memepie/backend/internal/middleware"
	"github.com/anonto42/memepie/backend/internal/models"
	"github.com/anonto42/memepie/backend/internal/repositories/memstore"
	"github.com/anonto42/memepie/backend/internal/services"
	"github.com/anonto42/memepie/backend/pkg/cache"
	"github.com/anonto42/memepie/backend/validators"
	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
)

const testSecret = "handler-test-secret"

type harness struct {
	t     *testing.T
	ctx   context.Context
	e     *echo.Echo
	store *memstore.Store
	auth  *AuthHandler
}

func newHarness(t *testing.T) *harness {
	return newHarnessWithVerifier(t, nil)
}

func newHarnessWithVerifier(t *testing.T, verifier TokenVerifier) *harness {
	t.Helper()
	s := memstore.New()
	e := echo.New()
	e.Validator = validators.NewValidator()

	notifier := services.NewNotifier(s.Notifications())
	suggestions := services.NewSuggestionService(s.Users(), s.Follows(), s.Likes(), cache.Noop{}, time.Minute)
	feed := services.NewFeedService(s.Memes(), s.Follows(), s.Likes(), s.Comments())
	inbox := services.NewInboxService(s.Threads(), s.Messages(), s.Follows(), s.Users(), s.Memes())

	auth := NewAuthHandler(s.Users(), verifier, testSecret)
	auth.RegisterAuthRoutes(e.Group("/api/v1/auth"))

	api := e.Group("/api/v1")
	public := api.Group("", middleware.OptionalJWTAuthMiddleware(testSecret))
	protected := api.Group("", middleware.JWTAuthMiddleware(testSecret))

	users := NewUserHandler(s.Users(), s.Follows(), s.Blocks(), s.Memes())
	users.RegisterProfileRoutes(protected)
	users.RegisterPublicRoutes(public)
	NewSearchHandler(s.Users(), s.Memes()).RegisterSearchRoutes(public)
	NewFollowHandler(s.Follows(), s.Users(), notifier, suggestions).RegisterFollowRoutes(protected)
	NewBlockHandler(s.Blocks(), s.Users()).RegisterBlockRoutes(protected)
	memes := NewMemeHandler(s.Memes(), s.Users(), s.Likes(), s.Comments(), s.CommentLikes())
	memes.RegisterMemeRoutes(protected)
	memes.RegisterPublicRoutes(public)
	NewLikeHandler(s.Likes(), s.Memes(), s.Users(), notifier, suggestions).RegisterLikeRoutes(protected)
	comments := NewCommentHandler(s.Comments(), s.CommentLikes(), s.Memes(), s.Users(), notifier)
	comments.RegisterCommentRoutes(protected)
	comments.RegisterPublicRoutes(public)
	NewFeedHandler(feed, s.Users(), s.Likes()).RegisterFeedRoutes(public)
	NewSuggestionHandler(suggestions).RegisterSuggestionRoutes(public)
	NewNotificationHandler(s.Notifications(), s.Users()).RegisterNotificationRoutes(protected)
	NewInboxHandler(inbox, s.Users()).RegisterInboxRoutes(protected)
	NewCountersHandler(inbox, s.Notifications()).RegisterCounterRoutes(public)

	return &harness{t: t, ctx: context.Background(), e: e, store: s, auth: auth}
}

// user creates an account directly in the store and returns it with a valid token
func (h *harness) user(username string) (*models.User, string) {
	h.t.Helper()
	u := &models.User{Username: username, Email: username + "@example.com", FirstName: username}
	if err := h.store.Users().CreateUser(h.ctx, u); err != nil {
		h.t.Fatalf("create user %s: %v", username, err)
	}
	token, err := h.auth.generateJWT(u)
	if err != nil {
		h.t.Fatalf("token for %s: %v", username, err)
	}
	return u, token
}

func (h *harness) meme(author *models.User, caption string) *models.Meme {
	h.t.Helper()
	m := &models.Meme{AuthorID: author.ID, ImageURL: "https://img.example.com/" + caption + ".png", Caption: caption}
	if err := h.store.Memes().CreateMeme(h.ctx, m); err != nil {
		h.t.Fatalf("create meme: %v", err)
	}
	return m
}

func (h *harness) follow(a, b *models.User) {
	h.t.Helper()
	if err := h.store.Follows().CreateFollow(h.ctx, &models.Follow{FollowerID: a.ID, FollowingID: b.ID}); err != nil {
		h.t.Fatalf("follow: %v", err)
	}
}

// do sends a request; body is JSON-encoded unless nil
func (h *harness) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			h.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.e.ServeHTTP(rec, req)
	return rec
}

// expect asserts the status and decodes the data field of the envelope into dst
func (h *harness) expect(rec *httptest.ResponseRecorder, status int, dst interface{}) {
	h.t.Helper()
	if rec.Code != status {
		h.t.Fatalf("status = %d, want %d: %s", rec.Code, status, rec.Body.String())
	}
	if dst == nil {
		return
	}
	var env struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		h.t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
	}
	if !env.Success {
		h.t.Fatalf("success = false: %s", rec.Body.String())
	}
	if err := json.Unmarshal(env.Data, dst); err != nil {
		h.t.Fatalf("decode data: %v (%s)", err, string(env.Data))
	}
}

func memePath(m *models.Meme, suffix string) string {
	return fmt.Sprintf("/api/v1/memes/%s%s", m.HexID(), suffix)
}

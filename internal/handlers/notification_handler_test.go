package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anonto42/memepie/backend/internal/middleware"
	"github.com/anonto42/memepie/backend/internal/models"
	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
)

func TestNotificationHandler(t *testing.T) {
	h := newHarness(t)
	alice, aliceToken := h.user("alice")
	_, bobToken := h.user("bob")
	m := h.meme(alice, "dog")

	h.expect(h.do(http.MethodPost, fmt.Sprintf("/api/v1/users/%d/follow", alice.ID), nil, bobToken), http.StatusOK, nil)
	h.expect(h.do(http.MethodPost, memePath(m, "/likes"), nil, bobToken), http.StatusCreated, nil)
	h.expect(h.do(http.MethodPost, memePath(m, "/comments"), map[string]string{"content": "good boy"}, bobToken), http.StatusCreated, nil)

	var count struct {
		Count int64 `json:"count"`
	}
	h.expect(h.do(http.MethodGet, "/api/v1/notifications/unread-count", nil, aliceToken), http.StatusOK, &count)
	if count.Count != 3 {
		t.Fatalf("unread = %d, want 3", count.Count)
	}

	var list struct {
		Notifications []EnrichedNotification `json:"notifications"`
	}
	h.expect(h.do(http.MethodGet, "/api/v1/notifications?limit=2", nil, aliceToken), http.StatusOK, &list)
	if len(list.Notifications) != 2 {
		t.Fatalf("page size = %d, want 2", len(list.Notifications))
	}
	var far struct {
		Notifications []EnrichedNotification `json:"notifications"`
	}
	h.expect(h.do(http.MethodGet, "/api/v1/notifications?limit=2&page=1000000000000000000", nil, aliceToken), http.StatusOK, &far)
	if len(far.Notifications) != 0 {
		t.Errorf("page past the end returned %d notifications", len(far.Notifications))
	}

	newest := list.Notifications[0]
	if newest.Type != models.NotificationComment || newest.Actor.Username != "bob" || newest.IsRead {
		t.Errorf("newest = %+v", newest)
	}

	// bob cannot mark alice's notification
	markPath := fmt.Sprintf("/api/v1/notifications/%d/read", newest.ID)
	if rec := h.do(http.MethodPut, markPath, nil, bobToken); rec.Code != http.StatusNotFound {
		t.Errorf("foreign mark read = %d, want 404", rec.Code)
	}
	h.expect(h.do(http.MethodPut, markPath, nil, aliceToken), http.StatusOK, nil)
	h.expect(h.do(http.MethodGet, "/api/v1/notifications/unread-count", nil, aliceToken), http.StatusOK, &count)
	if count.Count != 2 {
		t.Errorf("unread after mark one = %d, want 2", count.Count)
	}

	// viewing with mark_read returns the unread state as it was, then clears it
	h.expect(h.do(http.MethodGet, "/api/v1/notifications?mark_read=true", nil, aliceToken), http.StatusOK, &list)
	unreadSeen := 0
	for _, n := range list.Notifications {
		if !n.IsRead {
			unreadSeen++
		}
	}
	if unreadSeen != 2 {
		t.Errorf("unread in viewed page = %d, want 2", unreadSeen)
	}
	h.expect(h.do(http.MethodGet, "/api/v1/notifications/unread-count", nil, aliceToken), http.StatusOK, &count)
	if count.Count != 0 {
		t.Errorf("unread after mark_read view = %d", count.Count)
	}
}

func TestGroupedNotifications(t *testing.T) {
	h := newHarness(t)
	alice, _ := h.user("alice")
	bob, _ := h.user("bob")
	for i := 0; i < 2; i++ {
		if err := h.store.Notifications().CreateNotification(h.ctx, &models.Notification{
			Type: models.NotificationFollow, ActorID: bob.ID, RecipientID: alice.ID, TextPreview: "bob started following you",
		}); err != nil {
			t.Fatal(err)
		}
	}
	created := h.store.Now()

	tests := []struct {
		name  string
		now   time.Time
		group string
	}{
		{"same day", created, "today"},
		{"next day", created.AddDate(0, 0, 1), "yesterday"},
		{"a month later", created.AddDate(0, 1, 0), "older"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewNotificationHandler(h.store.Notifications(), h.store.Users())
			handler.now = func() time.Time { return tt.now }

			e := echo.New()
			e.GET("/grouped", handler.GetGroupedNotifications, func(next echo.HandlerFunc) echo.HandlerFunc {
				return func(c echo.Context) error {
					c.Set(middleware.UserContextKey, &models.JwtCustomClaims{UserID: alice.ID})
					return next(c)
				}
			})
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/grouped", nil))

			var resp struct {
				Data struct {
					Notifications map[string][]EnrichedNotification `json:"notifications"`
					UnreadCount   int64                             `json:"unreadCount"`
				} `json:"data"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v (%s)", err, rec.Body.String())
			}
			for group, list := range resp.Data.Notifications {
				want := 0
				if group == tt.group {
					want = 2
				}
				if len(list) != want {
					t.Errorf("%s holds %d, want %d", group, len(list), want)
				}
			}
			if len(resp.Data.Notifications) != 4 || resp.Data.UnreadCount != 2 {
				t.Errorf("groups = %d, unread = %d", len(resp.Data.Notifications), resp.Data.UnreadCount)
			}
			if got := resp.Data.Notifications[tt.group]; len(got) > 0 && got[0].Actor.Username != "bob" {
				t.Errorf("actor = %q", got[0].Actor.Username)
			}
		})
	}
}

func TestCounters(t *testing.T) {
	h := newHarness(t)
	alice, aliceToken := h.user("alice")
	_, bobToken := h.user("bob")

	h.expect(h.do(http.MethodPost, fmt.Sprintf("/api/v1/users/%d/follow", alice.ID), nil, bobToken), http.StatusOK, nil)
	thread := h.startChat(bobToken, "alice", http.StatusCreated)
	h.expect(h.do(http.MethodPost, threadPath(thread, "/messages"), map[string]string{"text": "hi"}, bobToken), http.StatusCreated, nil)

	var counters struct {
		UnreadMessages      int64 `json:"unread_messages"`
		UnreadNotifications int64 `json:"unread_notifications"`
	}
	h.expect(h.do(http.MethodGet, "/api/v1/counters", nil, aliceToken), http.StatusOK, &counters)
	if counters.UnreadMessages != 1 || counters.UnreadNotifications != 1 {
		t.Errorf("alice counters = %+v", counters)
	}
	h.expect(h.do(http.MethodGet, "/api/v1/counters", nil, ""), http.StatusOK, &counters)
	if counters.UnreadMessages != 0 || counters.UnreadNotifications != 0 {
		t.Errorf("anonymous counters = %+v", counters)
	}
}

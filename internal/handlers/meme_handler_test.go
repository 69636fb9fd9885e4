package handlers

import (
	"fmt"
	"net/http"
	"sync"
	"testing"
)

type memeJSON struct {
	ID            string `json:"id"`
	AuthorID      uint   `json:"author_id"`
	Caption       string `json:"caption"`
	LikesCount    int64  `json:"likes_count"`
	CommentsCount int64  `json:"comments_count"`
	IsLiked       bool   `json:"is_liked"`
	Tier          string `json:"tier"`
	Author        struct {
		Username string `json:"username"`
	} `json:"author"`
}

func TestCreateMeme(t *testing.T) {
	h := newHarness(t)
	_, token := h.user("alice")

	tests := []struct {
		name   string
		body   map[string]string
		token  string
		status int
	}{
		{"valid", map[string]string{"image_url": "https://img.example.com/cat.png", "caption": "  cat  "}, token, http.StatusCreated},
		{"missing image", map[string]string{"caption": "no image"}, token, http.StatusBadRequest},
		{"bad url", map[string]string{"image_url": "not a url"}, token, http.StatusBadRequest},
		{"anonymous", map[string]string{"image_url": "https://img.example.com/cat.png"}, "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.do(http.MethodPost, "/api/v1/memes", tt.body, tt.token)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
			if tt.status == http.StatusCreated {
				var m memeJSON
				h.expect(rec, http.StatusCreated, &m)
				if m.Caption != "cat" || len(m.ID) != 24 {
					t.Errorf("meme = %+v", m)
				}
			}
		})
	}
}

func TestGetMeme(t *testing.T) {
	h := newHarness(t)
	alice, _ := h.user("alice")
	_, bobToken := h.user("bob")
	m := h.meme(alice, "dog")

	var anon struct {
		Meme     memeJSON      `json:"meme"`
		Comments []CommentView `json:"comments"`
	}
	h.expect(h.do(http.MethodGet, memePath(m, ""), nil, ""), http.StatusOK, &anon)
	if anon.Meme.Author.Username != "alice" || anon.Meme.IsLiked || anon.Comments == nil {
		t.Errorf("anonymous view = %+v", anon)
	}

	h.expect(h.do(http.MethodPost, memePath(m, "/likes"), nil, bobToken), http.StatusCreated, nil)
	var liked struct {
		Meme memeJSON `json:"meme"`
	}
	h.expect(h.do(http.MethodGet, memePath(m, ""), nil, bobToken), http.StatusOK, &liked)
	if !liked.Meme.IsLiked || liked.Meme.LikesCount != 1 {
		t.Errorf("bob's view = %+v", liked.Meme)
	}

	rec := h.do(http.MethodGet, "/api/v1/memes/000000000000000000000000", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing meme status = %d", rec.Code)
	}
}

func TestLikeLifecycle(t *testing.T) {
	h := newHarness(t)
	alice, _ := h.user("alice")
	_, bobToken := h.user("bob")
	m := h.meme(alice, "dog")

	steps := []struct {
		method string
		suffix string
		status int
	}{
		{http.MethodPost, "/likes", http.StatusCreated},
		{http.MethodPost, "/likes", http.StatusConflict},
		{http.MethodDelete, "/likes", http.StatusNoContent},
		{http.MethodDelete, "/likes", http.StatusNotFound},
		{http.MethodPost, "/likes/toggle", http.StatusOK},
	}
	for i, s := range steps {
		rec := h.do(s.method, memePath(m, s.suffix), nil, bobToken)
		if rec.Code != s.status {
			t.Fatalf("step %d %s %s = %d, want %d", i, s.method, s.suffix, rec.Code, s.status)
		}
	}

	var status struct {
		HasLiked bool `json:"has_liked"`
	}
	h.expect(h.do(http.MethodGet, memePath(m, "/likes/status"), nil, bobToken), http.StatusOK, &status)
	if !status.HasLiked {
		t.Error("has_liked = false after toggle")
	}

	var count struct {
		LikesCount int64 `json:"likes_count"`
	}
	h.expect(h.do(http.MethodPost, memePath(m, "/likes/toggle"), nil, bobToken), http.StatusOK, &count)
	if count.LikesCount != 0 {
		t.Errorf("likes_count after second toggle = %d", count.LikesCount)
	}

	stored, _ := h.store.Memes().GetMemeByID(h.ctx, m.HexID())
	if stored.LikesCount != 0 {
		t.Errorf("stored likes_count = %d", stored.LikesCount)
	}

	// two likes by bob, but only one notification each time alice's meme is liked
	n, err := h.store.Notifications().GetUnreadCount(h.ctx, alice.ID)
	if err != nil || n != 2 {
		t.Errorf("alice unread notifications = %d, %v; want 2", n, err)
	}
}

func TestDeleteMeme(t *testing.T) {
	h := newHarness(t)
	alice, aliceToken := h.user("alice")
	bob, bobToken := h.user("bob")
	m := h.meme(alice, "dog")

	h.expect(h.do(http.MethodPost, memePath(m, "/likes"), nil, bobToken), http.StatusCreated, nil)
	h.expect(h.do(http.MethodPost, memePath(m, "/comments"), map[string]string{"content": "lol"}, bobToken), http.StatusCreated, nil)

	if rec := h.do(http.MethodDelete, memePath(m, ""), nil, bobToken); rec.Code != http.StatusForbidden {
		t.Fatalf("non-owner delete = %d, want 403", rec.Code)
	}
	if rec := h.do(http.MethodDelete, memePath(m, ""), nil, aliceToken); rec.Code != http.StatusNoContent {
		t.Fatalf("owner delete = %d, want 204", rec.Code)
	}
	if rec := h.do(http.MethodGet, memePath(m, ""), nil, ""); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d", rec.Code)
	}

	liked, _ := h.store.Likes().HasUserLikedMeme(h.ctx, m.HexID(), bob.ID)
	comments, _ := h.store.Comments().GetCommentsByMemeID(h.ctx, m.HexID())
	if liked || len(comments) != 0 {
		t.Errorf("leftovers: liked=%v comments=%d", liked, len(comments))
	}
}

func TestProfile(t *testing.T) {
	h := newHarness(t)
	alice, _ := h.user("alice")
	bob, bobToken := h.user("bob")
	h.meme(alice, "one")
	h.meme(alice, "two")

	h.expect(h.do(http.MethodPost, fmt.Sprintf("/api/v1/users/%d/follow", alice.ID), nil, bobToken), http.StatusOK, nil)
	h.expect(h.do(http.MethodPost, fmt.Sprintf("/api/v1/users/%d/block", alice.ID), nil, bobToken), http.StatusOK, nil)

	var profile struct {
		Memes          []memeJSON `json:"memes"`
		MemesCount     int        `json:"memes_count"`
		FollowersCount int64      `json:"followers_count"`
		FollowingCount int64      `json:"following_count"`
		IsFollowing    bool       `json:"is_following"`
		IsBlocked      bool       `json:"is_blocked"`
	}
	h.expect(h.do(http.MethodGet, "/api/v1/users/alice", nil, bobToken), http.StatusOK, &profile)
	if profile.MemesCount != 2 || profile.FollowersCount != 1 || !profile.IsFollowing || !profile.IsBlocked {
		t.Errorf("profile = %+v", profile)
	}
	if profile.Memes[0].Caption != "two" {
		t.Errorf("memes not newest first: %+v", profile.Memes)
	}

	h.expect(h.do(http.MethodGet, "/api/v1/users/alice", nil, ""), http.StatusOK, &profile)
	if profile.IsFollowing || profile.IsBlocked {
		t.Errorf("anonymous relation flags = %v %v", profile.IsFollowing, profile.IsBlocked)
	}

	if rec := h.do(http.MethodGet, "/api/v1/users/nobody", nil, ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown profile = %d", rec.Code)
	}
	if rec := h.do(http.MethodPost, fmt.Sprintf("/api/v1/users/%d/follow", bob.ID), nil, bobToken); rec.Code != http.StatusBadRequest {
		t.Errorf("self follow = %d, want 400", rec.Code)
	}
	if rec := h.do(http.MethodPost, fmt.Sprintf("/api/v1/users/%d/follow", alice.ID), nil, bobToken); rec.Code != http.StatusConflict {
		t.Errorf("double follow = %d, want 409", rec.Code)
	}
}

func TestConcurrentLikeAndFollow(t *testing.T) {
	h := newHarness(t)
	alice, _ := h.user("alice")
	_, bobToken := h.user("bob")
	m := h.meme(alice, "race")

	tests := []struct {
		name string
		path string
	}{
		{"like", memePath(m, "/likes")},
		{"follow", fmt.Sprintf("/api/v1/users/%d/follow", alice.ID)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const workers = 12
			codes := make([]int, workers)
			var wg sync.WaitGroup
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					codes[i] = h.do(http.MethodPost, tt.path, nil, bobToken).Code
				}(i)
			}
			wg.Wait()

			won := 0
			for _, code := range codes {
				switch code {
				case http.StatusOK, http.StatusCreated:
					won++
				case http.StatusConflict:
				default:
					t.Errorf("unexpected status %d", code)
				}
			}
			if won != 1 {
				t.Errorf("%d requests succeeded, want 1 (%v)", won, codes)
			}
		})
	}

	got, err := h.store.Memes().GetMemeByID(h.ctx, m.HexID())
	if err != nil {
		t.Fatal(err)
	}
	if got.LikesCount != 1 {
		t.Errorf("likes_count = %d, want 1", got.LikesCount)
	}
	if n, _ := h.store.Notifications().GetUnreadCount(h.ctx, alice.ID); n != 2 {
		t.Errorf("alice has %d notifications, want one like and one follow", n)
	}
}

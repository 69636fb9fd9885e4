package services

import (
	"context"
	"testing"
	"time"

	"github.com/anonto42/memepie/backend/internal/models"
	"github.com/anonto42/memepie/backend/internal/repositories/memstore"
)

type fixture struct {
	t     *testing.T
	ctx   context.Context
	store *memstore.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{t: t, ctx: context.Background(), store: memstore.New()}
}

func (f *fixture) user(username string) *models.User {
	f.t.Helper()
	u := &models.User{Username: username, Email: username + "@example.com"}
	if err := f.store.Users().CreateUser(f.ctx, u); err != nil {
		f.t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

func (f *fixture) follow(follower, following *models.User) {
	f.t.Helper()
	if err := f.store.Follows().CreateFollow(f.ctx, &models.Follow{FollowerID: follower.ID, FollowingID: following.ID}); err != nil {
		f.t.Fatalf("follow %s -> %s: %v", follower.Username, following.Username, err)
	}
}

func (f *fixture) meme(author *models.User, caption string) *models.Meme {
	f.t.Helper()
	m := &models.Meme{AuthorID: author.ID, ImageURL: "https://img.example.com/" + caption, Caption: caption}
	if err := f.store.Memes().CreateMeme(f.ctx, m); err != nil {
		f.t.Fatalf("create meme: %v", err)
	}
	return m
}

func (f *fixture) like(u *models.User, m *models.Meme) {
	f.t.Helper()
	if err := f.store.Likes().CreateLike(f.ctx, &models.Like{MemeID: m.HexID(), UserID: u.ID}); err != nil {
		f.t.Fatalf("like: %v", err)
	}
	if err := f.store.Memes().IncrementLikesCount(f.ctx, m.HexID()); err != nil {
		f.t.Fatalf("increment likes: %v", err)
	}
}

func (f *fixture) comment(u *models.User, m *models.Meme, content string) {
	f.t.Helper()
	if err := f.store.Comments().CreateComment(f.ctx, &models.Comment{MemeID: m.HexID(), UserID: u.ID, Content: content}); err != nil {
		f.t.Fatalf("comment: %v", err)
	}
}

// mapCache is an in-process stand-in for the redis cache
type mapCache struct {
	entries map[string]map[string][]Suggestion
	deletes int
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string]map[string][]Suggestion)}
}

func (c *mapCache) GetJSON(_ context.Context, key, field string, dst interface{}) (bool, error) {
	v, ok := c.entries[key][field]
	if !ok {
		return false, nil
	}
	*(dst.(*[]Suggestion)) = v
	return true, nil
}

func (c *mapCache) SetJSON(_ context.Context, key, field string, v interface{}, _ time.Duration) error {
	if c.entries[key] == nil {
		c.entries[key] = make(map[string][]Suggestion)
	}
	c.entries[key][field] = v.([]Suggestion)
	return nil
}

func (c *mapCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.entries, k)
		c.deletes++
	}
	return nil
}

func userIDs(suggestions []Suggestion) []uint {
	ids := make([]uint, len(suggestions))
	for i, s := range suggestions {
		ids[i] = s.User.ID
	}
	return ids
}

func containsID(ids []uint, id uint) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

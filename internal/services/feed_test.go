package services

import (
	"testing"

	"github.com/anonto42/memepie/backend/internal/models"
)

func newFeedService(f *fixture) *FeedService {
	s := f.store
	return NewFeedService(s.Memes(), s.Follows(), s.Likes(), s.Comments())
}

func memeIDs(entries []FeedEntry) []string {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.Meme.HexID()
	}
	return ids
}

func TestFeedAnonymousIsPopularityThenRecency(t *testing.T) {
	f := newFixture(t)
	a, b, c := f.user("a"), f.user("b"), f.user("c")
	old := f.meme(a, "old")
	mid := f.meme(b, "mid")
	newest := f.meme(c, "newest")
	f.like(b, old)
	f.like(c, old)
	f.like(a, mid)

	got, err := newFeedService(f).Feed(f.ctx, 0)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	want := []string{old.HexID(), mid.HexID(), newest.HexID()}
	assertIDs(t, memeIDs(got), want)
	for _, e := range got {
		if e.Tier != TierPopular {
			t.Errorf("anonymous entry tier = %q, want popular", e.Tier)
		}
	}

	// equal like counts fall back to recency
	f.like(a, newest)
	got, err = newFeedService(f).Feed(f.ctx, 0)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	assertIDs(t, memeIDs(got), []string{old.HexID(), newest.HexID(), mid.HexID()})
}

func TestFeedTiers(t *testing.T) {
	f := newFixture(t)
	viewer := f.user("viewer")
	followed := f.user("followed")
	liked := f.user("liked")
	commented := f.user("commented")
	stranger := f.user("stranger")
	f.follow(viewer, followed)

	f1 := f.meme(followed, "f1")
	l1 := f.meme(liked, "l1")
	s1 := f.meme(stranger, "s1")
	f2 := f.meme(followed, "f2")
	c1 := f.meme(commented, "c1")
	l2 := f.meme(liked, "l2")
	own := f.meme(viewer, "own")

	f.like(viewer, l1)
	f.like(viewer, f1) // a followed author stays in the following tier
	f.like(viewer, own)
	f.comment(viewer, c1, "nice")
	f.like(stranger, s1)
	f.like(liked, s1)

	got, err := newFeedService(f).Feed(f.ctx, viewer.ID)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}

	want := []struct {
		id   string
		tier string
	}{
		{f2.HexID(), TierFollowing},
		{f1.HexID(), TierFollowing},
		{l2.HexID(), TierInterest},
		{c1.HexID(), TierInterest},
		{l1.HexID(), TierInterest},
		{s1.HexID(), TierPopular},  // 2 likes
		{own.HexID(), TierPopular}, // 1 like
	}

	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d (%v)", len(got), len(want), memeIDs(got))
	}
	for i, w := range want {
		if got[i].Meme.HexID() != w.id || got[i].Tier != w.tier {
			t.Errorf("entry %d = (%s, %s), want (%s, %s)", i, got[i].Meme.Caption, got[i].Tier, w.id, w.tier)
		}
	}
}

func TestFeedHasNoDuplicatesAndFollowingFirst(t *testing.T) {
	f := newFixture(t)
	viewer := f.user("viewer")
	var authors []*models.User
	for _, name := range []string{"a", "b", "c", "d"} {
		authors = append(authors, f.user(name))
	}
	f.follow(viewer, authors[0])
	f.follow(viewer, authors[1])

	var all []*models.Meme
	for i := 0; i < 3; i++ {
		for _, a := range authors {
			all = append(all, f.meme(a, a.Username))
		}
	}
	f.like(viewer, all[2]) // author c becomes an interest author
	f.like(viewer, all[0])
	f.comment(viewer, all[2], "again")

	got, err := newFeedService(f).Feed(f.ctx, viewer.ID)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	if len(got) != len(all) {
		t.Fatalf("len = %d, want every meme once (%d)", len(got), len(all))
	}

	seen := make(map[string]bool)
	lastFollowing := -1
	firstOther := len(got)
	for i, e := range got {
		if seen[e.Meme.HexID()] {
			t.Errorf("duplicate meme %s", e.Meme.HexID())
		}
		seen[e.Meme.HexID()] = true
		if e.Tier == TierFollowing {
			lastFollowing = i
			if e.Meme.AuthorID != authors[0].ID && e.Meme.AuthorID != authors[1].ID {
				t.Errorf("following tier holds meme by %d", e.Meme.AuthorID)
			}
		} else if i < firstOther {
			firstOther = i
		}
	}
	if lastFollowing >= firstOther {
		t.Errorf("following tier entry at %d after other tier at %d", lastFollowing, firstOther)
	}
}

func TestFeedWithoutActivityFallsBackToPopular(t *testing.T) {
	f := newFixture(t)
	viewer := f.user("viewer")
	other := f.user("other")
	m1 := f.meme(other, "one")
	m2 := f.meme(other, "two")

	got, err := newFeedService(f).Feed(f.ctx, viewer.ID)
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	assertIDs(t, memeIDs(got), []string{m2.HexID(), m1.HexID()})
}

func assertIDs(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d ids %v, want %d %v", len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d = %s, want %s", i, got[i], want[i])
		}
	}
}

package services

import (
	"context"
	"fmt"

	"github.com/anonto42/memepie/backend/internal/models"
	"github.com/anonto42/memepie/backend/internal/repositories"
)

const (
	TierFollowing = "following"
	TierInterest  = "interest"
	TierPopular   = "popular"
)

type FeedEntry struct {
	Meme models.Meme
	Tier string
}

type FeedService struct {
	memes    repositories.MemeRepository
	follows  repositories.FollowRepository
	likes    repositories.LikeRepository
	comments repositories.CommentRepository
}

func NewFeedService(memes repositories.MemeRepository, follows repositories.FollowRepository, likes repositories.LikeRepository, comments repositories.CommentRepository) *FeedService {
	return &FeedService{memes: memes, follows: follows, likes: likes, comments: comments}
}

// Feed composes the meme sequence for userID: memes of followed authors,
// then memes of authors the user liked or commented on without following,
// then everything else by popularity. No meme appears twice. An anonymous
// viewer (userID 0) gets the popularity ordering only.
func (s *FeedService) Feed(ctx context.Context, userID uint) ([]FeedEntry, error) {
	var entries []FeedEntry
	seen := make(map[string]bool)
	add := func(memes []models.Meme, tier string) {
		for _, m := range memes {
			id := m.HexID()
			if seen[id] {
				continue
			}
			seen[id] = true
			entries = append(entries, FeedEntry{Meme: m, Tier: tier})
		}
	}

	if userID == 0 {
		popular, err := s.memes.GetPopularMemes(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("load popular memes: %w", err)
		}
		add(popular, TierPopular)
		return entries, nil
	}

	following, err := s.follows.GetFollowingIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load following: %w", err)
	}
	followed, err := s.memes.GetMemesByAuthorIDs(ctx, following)
	if err != nil {
		return nil, fmt.Errorf("load followed memes: %w", err)
	}
	add(followed, TierFollowing)

	interestAuthors, err := s.interestAuthors(ctx, userID, following)
	if err != nil {
		return nil, err
	}
	interest, err := s.memes.GetMemesByAuthorIDs(ctx, interestAuthors)
	if err != nil {
		return nil, fmt.Errorf("load interest memes: %w", err)
	}
	add(interest, TierInterest)

	exclude := make([]string, 0, len(seen))
	for id := range seen {
		exclude = append(exclude, id)
	}
	popular, err := s.memes.GetPopularMemes(ctx, exclude)
	if err != nil {
		return nil, fmt.Errorf("load popular memes: %w", err)
	}
	add(popular, TierPopular)

	return entries, nil
}

// interestAuthors returns the authors of memes userID liked or commented on,
// minus userID and everyone in following
func (s *FeedService) interestAuthors(ctx context.Context, userID uint, following []uint) ([]uint, error) {
	liked, err := s.likes.GetLikedMemeIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load liked memes: %w", err)
	}
	commented, err := s.comments.GetCommentedMemeIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load commented memes: %w", err)
	}
	interacted := append(append([]string{}, liked...), commented...)
	if len(interacted) == 0 {
		return nil, nil
	}

	authors, err := s.memes.GetAuthorIDs(ctx, interacted)
	if err != nil {
		return nil, fmt.Errorf("load interacted authors: %w", err)
	}

	skip := map[uint]bool{userID: true}
	for _, id := range following {
		skip[id] = true
	}
	out := make([]uint, 0, len(authors))
	for _, a := range authors {
		if !skip[a] {
			skip[a] = true
			out = append(out, a)
		}
	}
	return out, nil
}

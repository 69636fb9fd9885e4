package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/anonto42/memepie/backend/internal/metrics"
	"github.com/anonto42/memepie/backend/internal/models"
	"github.com/anonto42/memepie/backend/internal/repositories"
	"github.com/rs/zerolog/log"
)

const (
	ReasonMutual         = "mutual"
	ReasonSharedInterest = "shared_interest"
	ReasonRandom         = "random"
)

// Suggestion is a user the viewer may want to follow.
// Score counts followed users who follow the candidate plus memes both have liked.
type Suggestion struct {
	User   models.UserCompact `json:"user"`
	Score  int                `json:"score"`
	Reason string             `json:"reason"`
}

// Cache is the subset of pkg/cache the services need
type Cache interface {
	GetJSON(ctx context.Context, key, field string, dst interface{}) (bool, error)
	SetJSON(ctx context.Context, key, field string, v interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type SuggestionService struct {
	users   repositories.UserRepository
	follows repositories.FollowRepository
	likes   repositories.LikeRepository
	cache   Cache
	ttl     time.Duration
}

func NewSuggestionService(users repositories.UserRepository, follows repositories.FollowRepository, likes repositories.LikeRepository, cache Cache, ttl time.Duration) *SuggestionService {
	return &SuggestionService{users: users, follows: follows, likes: likes, cache: cache, ttl: ttl}
}

func suggestionKey(userID uint) string {
	return fmt.Sprintf("suggestions:%d", userID)
}

// Suggest ranks follow candidates for userID. With limit > 0 the result holds
// at most limit users and is padded with random users when there are fewer
// candidates. With limit <= 0 every candidate is returned and nothing is padded.
// An anonymous viewer (userID 0) gets nothing.
func (s *SuggestionService) Suggest(ctx context.Context, userID uint, limit int) ([]Suggestion, error) {
	if userID == 0 {
		return []Suggestion{}, nil
	}

	field := strconv.Itoa(limit)
	var cached []Suggestion
	if ok, err := s.cache.GetJSON(ctx, suggestionKey(userID), field, &cached); err != nil {
		log.Warn().Err(err).Uint("user_id", userID).Msg("suggestion cache read failed")
	} else if ok {
		metrics.SuggestionCacheLookups.WithLabelValues("hit").Inc()
		return cached, nil
	}
	metrics.SuggestionCacheLookups.WithLabelValues("miss").Inc()

	result, err := s.compute(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetJSON(ctx, suggestionKey(userID), field, result, s.ttl); err != nil {
		log.Warn().Err(err).Uint("user_id", userID).Msg("suggestion cache write failed")
	}
	for _, sg := range result {
		metrics.SuggestionsServed.WithLabelValues(sg.Reason).Inc()
	}
	return result, nil
}

// Invalidate drops every cached suggestion list of userID
func (s *SuggestionService) Invalidate(ctx context.Context, userID uint) {
	if err := s.cache.Delete(ctx, suggestionKey(userID)); err != nil {
		log.Warn().Err(err).Uint("user_id", userID).Msg("suggestion cache invalidation failed")
	}
}

type candidate struct {
	id     uint
	mutual int
	shared int
}

func (c candidate) score() int { return c.mutual + c.shared }

func (c candidate) reason() string {
	if c.mutual >= c.shared {
		return ReasonMutual
	}
	return ReasonSharedInterest
}

func (s *SuggestionService) compute(ctx context.Context, userID uint, limit int) ([]Suggestion, error) {
	following, err := s.follows.GetFollowingIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load following: %w", err)
	}

	excluded := map[uint]bool{userID: true}
	for _, id := range following {
		excluded[id] = true
	}

	candidates := make(map[uint]*candidate)
	get := func(id uint) *candidate {
		c, ok := candidates[id]
		if !ok {
			c = &candidate{id: id}
			candidates[id] = c
		}
		return c
	}

	// friends of friends
	edges, err := s.follows.GetFollowsFrom(ctx, following)
	if err != nil {
		return nil, fmt.Errorf("load second-degree follows: %w", err)
	}
	for _, e := range edges {
		if !excluded[e.FollowingID] {
			get(e.FollowingID).mutual++
		}
	}

	// co-likers
	liked, err := s.likes.GetLikedMemeIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load liked memes: %w", err)
	}
	if len(liked) > 0 {
		coLikes, err := s.likes.GetLikesByMemeIDs(ctx, liked)
		if err != nil {
			return nil, fmt.Errorf("load co-likers: %w", err)
		}
		for _, l := range coLikes {
			if !excluded[l.UserID] {
				get(l.UserID).shared++
			}
		}
	}

	ranked := make([]candidate, 0, len(candidates))
	for _, c := range candidates {
		ranked = append(ranked, *c)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score() != ranked[j].score() {
			return ranked[i].score() > ranked[j].score()
		}
		return ranked[i].id < ranked[j].id
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	ids := make([]uint, len(ranked))
	for i, c := range ranked {
		ids[i] = c.id
	}
	users, err := s.users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load candidate users: %w", err)
	}
	byID := make(map[uint]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	result := make([]Suggestion, 0, len(ranked))
	for _, c := range ranked {
		u, ok := byID[c.id]
		if !ok {
			continue
		}
		result = append(result, Suggestion{User: u.ToCompact(), Score: c.score(), Reason: c.reason()})
	}

	if limit > 0 && len(result) < limit {
		exclude := make([]uint, 0, len(excluded)+len(candidates))
		for id := range excluded {
			exclude = append(exclude, id)
		}
		for id := range candidates {
			exclude = append(exclude, id)
		}
		random, err := s.users.GetRandomUsers(ctx, exclude, limit-len(result))
		if err != nil {
			return nil, fmt.Errorf("load random users: %w", err)
		}
		for _, u := range random {
			result = append(result, Suggestion{User: u.ToCompact(), Reason: ReasonRandom})
		}
	}
	return result, nil
}

// Package memstore is an in-memory implementation of every repository
// interface. Services and handlers are exercised against it in tests.
package memstore

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/anonto42/memepie/backend/internal/models"
	"github.com/anonto42/memepie/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// errDuplicate mirrors a unique index violation
var errDuplicate = errors.New("duplicate key value violates unique constraint")

// Store holds all rows. Timestamps come from a logical clock that advances
// one second per write, so insertion order equals recency order.
type Store struct {
	mu     sync.RWMutex
	nextID uint
	clock  time.Time

	users         map[uint]*models.User
	follows       []models.Follow
	blocks        []models.Block
	memes         map[string]*models.Meme
	likes         []models.Like
	comments      map[uint]*models.Comment
	commentLikes  []models.CommentLike
	notifications []models.Notification
	threads       map[uint]*models.Thread
	messages      []models.Message

	rng *rand.Rand
}

func New() *Store {
	return &Store{
		clock:    time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		users:    make(map[uint]*models.User),
		memes:    make(map[string]*models.Meme),
		comments: make(map[uint]*models.Comment),
		threads:  make(map[uint]*models.Thread),
		rng:      rand.New(rand.NewSource(1)),
	}
}

// Now returns the store's current logical time
func (s *Store) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clock
}

func (s *Store) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

func (s *Store) id() uint {
	s.nextID++
	return s.nextID
}

func (s *Store) Users() repositories.UserRepository                 { return userRepo{s} }
func (s *Store) Follows() repositories.FollowRepository             { return followRepo{s} }
func (s *Store) Blocks() repositories.BlockRepository               { return blockRepo{s} }
func (s *Store) Memes() repositories.MemeRepository                 { return memeRepo{s} }
func (s *Store) Likes() repositories.LikeRepository                 { return likeRepo{s} }
func (s *Store) Comments() repositories.CommentRepository           { return commentRepo{s} }
func (s *Store) CommentLikes() repositories.CommentLikeRepository   { return commentLikeRepo{s} }
func (s *Store) Notifications() repositories.NotificationRepository { return notificationRepo{s} }
func (s *Store) Threads() repositories.ThreadRepository             { return threadRepo{s} }
func (s *Store) Messages() repositories.MessageRepository           { return messageRepo{s} }

func contains[T comparable](xs []T, x T) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

// users

type userRepo struct{ s *Store }

func (r userRepo) CreateUser(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Username, user.Username) || (user.Email != "" && strings.EqualFold(u.Email, user.Email)) {
			return errDuplicate
		}
	}
	user.ID = r.s.id()
	user.CreatedAt = r.s.tick()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r userRepo) find(match func(*models.User) bool) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r userRepo) GetUserByID(_ context.Context, id uint) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.ID == id })
}

func (r userRepo) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Username == username })
}

func (r userRepo) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r userRepo) GetUserByFirebaseUID(_ context.Context, uid string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.FirebaseUID != nil && *u.FirebaseUID == uid })
}

func (r userRepo) GetUsersByIDs(_ context.Context, ids []uint) ([]models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []models.User
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r userRepo) GetRandomUsers(_ context.Context, exclude []uint, limit int) ([]models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var pool []models.User
	for _, u := range r.s.users {
		if !contains(exclude, u.ID) {
			pool = append(pool, *u)
		}
	}
	sort.Slice(pool, func(i, j int) bool { return pool[i].ID < pool[j].ID })
	r.s.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	if len(pool) > limit {
		pool = pool[:limit]
	}
	return pool, nil
}

func (r userRepo) UpdateUser(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.ID]; !ok {
		return repositories.ErrNotFound
	}
	user.UpdatedAt = r.s.tick()
	cp := *user
	r.s.users[user.ID] = &cp
	return nil
}

func (r userRepo) SearchUsers(_ context.Context, query string, limit int) ([]models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	q := strings.ToLower(query)
	var out []models.User
	for _, u := range r.s.users {
		if strings.Contains(strings.ToLower(u.Username), q) ||
			strings.Contains(strings.ToLower(u.FirstName), q) ||
			strings.Contains(strings.ToLower(u.LastName), q) {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// follows

type followRepo struct{ s *Store }

func (r followRepo) CreateFollow(_ context.Context, follow *models.Follow) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, f := range r.s.follows {
		if f.FollowerID == follow.FollowerID && f.FollowingID == follow.FollowingID {
			return repositories.ErrAlreadyExists
		}
	}
	follow.ID = r.s.id()
	follow.CreatedAt = r.s.tick()
	r.s.follows = append(r.s.follows, *follow)
	return nil
}

func (r followRepo) DeleteFollow(_ context.Context, followerID, followingID uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, f := range r.s.follows {
		if f.FollowerID == followerID && f.FollowingID == followingID {
			r.s.follows = append(r.s.follows[:i], r.s.follows[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (r followRepo) IsFollowing(_ context.Context, followerID, followingID uint) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, f := range r.s.follows {
		if f.FollowerID == followerID && f.FollowingID == followingID {
			return true, nil
		}
	}
	return false, nil
}

func (r followRepo) usersWhere(pick func(models.Follow) (uint, bool)) []models.User {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []models.User
	for _, f := range r.s.follows {
		if id, ok := pick(f); ok {
			if u, found := r.s.users[id]; found {
				out = append(out, *u)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

func (r followRepo) GetFollowers(_ context.Context, userID uint) ([]models.User, error) {
	return r.usersWhere(func(f models.Follow) (uint, bool) { return f.FollowerID, f.FollowingID == userID }), nil
}

func (r followRepo) GetFollowing(_ context.Context, userID uint) ([]models.User, error) {
	return r.usersWhere(func(f models.Follow) (uint, bool) { return f.FollowingID, f.FollowerID == userID }), nil
}

func (r followRepo) GetFollowersCount(ctx context.Context, userID uint) (int64, error) {
	users, _ := r.GetFollowers(ctx, userID)
	return int64(len(users)), nil
}

func (r followRepo) GetFollowingCount(ctx context.Context, userID uint) (int64, error) {
	users, _ := r.GetFollowing(ctx, userID)
	return int64(len(users)), nil
}

func (r followRepo) GetFollowingIDs(_ context.Context, userID uint) ([]uint, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var ids []uint
	for _, f := range r.s.follows {
		if f.FollowerID == userID {
			ids = append(ids, f.FollowingID)
		}
	}
	return ids, nil
}

func (r followRepo) GetFollowsFrom(_ context.Context, followerIDs []uint) ([]models.Follow, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []models.Follow
	for _, f := range r.s.follows {
		if contains(followerIDs, f.FollowerID) {
			out = append(out, f)
		}
	}
	return out, nil
}

// blocks

type blockRepo struct{ s *Store }

func (r blockRepo) CreateBlock(_ context.Context, blockerID, blockedID uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, b := range r.s.blocks {
		if b.BlockerID == blockerID && b.BlockedID == blockedID {
			return nil
		}
	}
	r.s.blocks = append(r.s.blocks, models.Block{ID: r.s.id(), BlockerID: blockerID, BlockedID: blockedID, CreatedAt: r.s.tick()})
	return nil
}

func (r blockRepo) DeleteBlock(_ context.Context, blockerID, blockedID uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, b := range r.s.blocks {
		if b.BlockerID == blockerID && b.BlockedID == blockedID {
			r.s.blocks = append(r.s.blocks[:i], r.s.blocks[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (r blockRepo) IsBlocked(_ context.Context, blockerID, blockedID uint) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, b := range r.s.blocks {
		if b.BlockerID == blockerID && b.BlockedID == blockedID {
			return true, nil
		}
	}
	return false, nil
}

func (r blockRepo) GetBlockedUsers(_ context.Context, blockerID uint) ([]models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []models.User
	for _, b := range r.s.blocks {
		if b.BlockerID == blockerID {
			if u, ok := r.s.users[b.BlockedID]; ok {
				out = append(out, *u)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

// memes

type memeRepo struct{ s *Store }

func (r memeRepo) CreateMeme(_ context.Context, meme *models.Meme) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	meme.ID = primitive.NewObjectID()
	meme.CreatedAt = r.s.tick()
	cp := *meme
	r.s.memes[meme.ID.Hex()] = &cp
	return nil
}

func (r memeRepo) GetMemeByID(_ context.Context, id string) (*models.Meme, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.memes[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (r memeRepo) collect(match func(*models.Meme) bool) []models.Meme {
	var out []models.Meme
	for _, m := range r.s.memes {
		if match(m) {
			out = append(out, *m)
		}
	}
	return out
}

func newestFirst(memes []models.Meme) {
	sort.Slice(memes, func(i, j int) bool {
		if !memes[i].CreatedAt.Equal(memes[j].CreatedAt) {
			return memes[i].CreatedAt.After(memes[j].CreatedAt)
		}
		return memes[i].ID.Hex() > memes[j].ID.Hex()
	})
}

func (r memeRepo) GetMemesByAuthorIDs(_ context.Context, authorIDs []uint) ([]models.Meme, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := r.collect(func(m *models.Meme) bool { return contains(authorIDs, m.AuthorID) })
	newestFirst(out)
	return out, nil
}

func (r memeRepo) CountMemesByAuthor(_ context.Context, authorID uint) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.collect(func(m *models.Meme) bool { return m.AuthorID == authorID }))), nil
}

func (r memeRepo) GetAuthorIDs(_ context.Context, memeIDs []string) ([]uint, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var ids []uint
	for _, id := range memeIDs {
		if m, ok := r.s.memes[id]; ok && !contains(ids, m.AuthorID) {
			ids = append(ids, m.AuthorID)
		}
	}
	return ids, nil
}

func (r memeRepo) GetPopularMemes(_ context.Context, excludeIDs []string) ([]models.Meme, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := r.collect(func(m *models.Meme) bool { return !contains(excludeIDs, m.ID.Hex()) })
	newestFirst(out)
	sort.SliceStable(out, func(i, j int) bool { return out[i].LikesCount > out[j].LikesCount })
	return out, nil
}

func (r memeRepo) SearchMemes(_ context.Context, query string, limit int64) ([]models.Meme, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	q := strings.ToLower(query)
	out := r.collect(func(m *models.Meme) bool { return strings.Contains(strings.ToLower(m.Caption), q) })
	newestFirst(out)
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memeRepo) DeleteMeme(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.memes[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.s.memes, id)
	return nil
}

func (r memeRepo) adjust(id string, apply func(*models.Meme)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.memes[id]
	if !ok {
		return repositories.ErrNotFound
	}
	apply(m)
	return nil
}

func (r memeRepo) IncrementLikesCount(_ context.Context, id string) error {
	return r.adjust(id, func(m *models.Meme) { m.LikesCount++ })
}

func (r memeRepo) DecrementLikesCount(_ context.Context, id string) error {
	return r.adjust(id, func(m *models.Meme) { m.LikesCount-- })
}

func (r memeRepo) IncrementCommentsCount(_ context.Context, id string) error {
	return r.adjust(id, func(m *models.Meme) { m.CommentsCount++ })
}

func (r memeRepo) DecrementCommentsCount(_ context.Context, id string, n int64) error {
	return r.adjust(id, func(m *models.Meme) { m.CommentsCount -= n })
}

// likes

type likeRepo struct{ s *Store }

func (r likeRepo) CreateLike(_ context.Context, like *models.Like) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, l := range r.s.likes {
		if l.MemeID == like.MemeID && l.UserID == like.UserID {
			return repositories.ErrAlreadyExists
		}
	}
	like.ID = r.s.id()
	like.CreatedAt = r.s.tick()
	r.s.likes = append(r.s.likes, *like)
	return nil
}

func (r likeRepo) DeleteLike(_ context.Context, memeID string, userID uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, l := range r.s.likes {
		if l.MemeID == memeID && l.UserID == userID {
			r.s.likes = append(r.s.likes[:i], r.s.likes[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (r likeRepo) HasUserLikedMeme(_ context.Context, memeID string, userID uint) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, l := range r.s.likes {
		if l.MemeID == memeID && l.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r likeRepo) GetLikesCountByMemeID(_ context.Context, memeID string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var n int64
	for _, l := range r.s.likes {
		if l.MemeID == memeID {
			n++
		}
	}
	return n, nil
}

func (r likeRepo) GetLikedMemeIDs(_ context.Context, userID uint) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var ids []string
	for _, l := range r.s.likes {
		if l.UserID == userID {
			ids = append(ids, l.MemeID)
		}
	}
	return ids, nil
}

func (r likeRepo) GetLikesByMemeIDs(_ context.Context, memeIDs []string) ([]models.Like, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []models.Like
	for _, l := range r.s.likes {
		if contains(memeIDs, l.MemeID) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r likeRepo) GetLikedAmong(_ context.Context, userID uint, memeIDs []string) (map[string]bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	liked := make(map[string]bool)
	for _, l := range r.s.likes {
		if l.UserID == userID && contains(memeIDs, l.MemeID) {
			liked[l.MemeID] = true
		}
	}
	return liked, nil
}

func (r likeRepo) DeleteLikesByMemeID(_ context.Context, memeID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kept := r.s.likes[:0]
	for _, l := range r.s.likes {
		if l.MemeID != memeID {
			kept = append(kept, l)
		}
	}
	r.s.likes = kept
	return nil
}

// comments

type commentRepo struct{ s *Store }

func (r commentRepo) CreateComment(_ context.Context, comment *models.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	comment.ID = r.s.id()
	comment.CreatedAt = r.s.tick()
	comment.UpdatedAt = comment.CreatedAt
	cp := *comment
	r.s.comments[comment.ID] = &cp
	return nil
}

func (r commentRepo) GetCommentByID(_ context.Context, id uint) (*models.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.comments[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r commentRepo) GetCommentsByMemeID(_ context.Context, memeID string) ([]models.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []models.Comment
	for _, c := range r.s.comments {
		if c.MemeID == memeID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r commentRepo) removeLocked(match func(*models.Comment) bool) int64 {
	var removed []uint
	for id, c := range r.s.comments {
		if match(c) {
			removed = append(removed, id)
		}
	}
	for _, id := range removed {
		delete(r.s.comments, id)
	}
	kept := r.s.commentLikes[:0]
	for _, cl := range r.s.commentLikes {
		if !contains(removed, cl.CommentID) {
			kept = append(kept, cl)
		}
	}
	r.s.commentLikes = kept
	return int64(len(removed))
}

func (r commentRepo) DeleteComment(_ context.Context, id uint) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.comments[id]; !ok {
		return 0, repositories.ErrNotFound
	}
	return r.removeLocked(func(c *models.Comment) bool {
		return c.ID == id || (c.ParentID != nil && *c.ParentID == id)
	}), nil
}

func (r commentRepo) GetCommentedMemeIDs(_ context.Context, userID uint) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var ids []string
	for _, c := range r.s.comments {
		if c.UserID == userID && !contains(ids, c.MemeID) {
			ids = append(ids, c.MemeID)
		}
	}
	return ids, nil
}

func (r commentRepo) DeleteCommentsByMemeID(_ context.Context, memeID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.removeLocked(func(c *models.Comment) bool { return c.MemeID == memeID })
	return nil
}

// comment likes

type commentLikeRepo struct{ s *Store }

func (r commentLikeRepo) CreateCommentLike(_ context.Context, like *models.CommentLike) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, cl := range r.s.commentLikes {
		if cl.CommentID == like.CommentID && cl.UserID == like.UserID {
			return repositories.ErrAlreadyExists
		}
	}
	like.ID = r.s.id()
	like.CreatedAt = r.s.tick()
	r.s.commentLikes = append(r.s.commentLikes, *like)
	return nil
}

func (r commentLikeRepo) DeleteCommentLike(_ context.Context, commentID, userID uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i, cl := range r.s.commentLikes {
		if cl.CommentID == commentID && cl.UserID == userID {
			r.s.commentLikes = append(r.s.commentLikes[:i], r.s.commentLikes[i+1:]...)
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (r commentLikeRepo) HasUserLikedComment(_ context.Context, commentID, userID uint) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, cl := range r.s.commentLikes {
		if cl.CommentID == commentID && cl.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r commentLikeRepo) GetLikesCounts(_ context.Context, commentIDs []uint) (map[uint]int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	counts := make(map[uint]int64)
	for _, cl := range r.s.commentLikes {
		if contains(commentIDs, cl.CommentID) {
			counts[cl.CommentID]++
		}
	}
	return counts, nil
}

func (r commentLikeRepo) GetLikedAmong(_ context.Context, userID uint, commentIDs []uint) (map[uint]bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	liked := make(map[uint]bool)
	for _, cl := range r.s.commentLikes {
		if cl.UserID == userID && contains(commentIDs, cl.CommentID) {
			liked[cl.CommentID] = true
		}
	}
	return liked, nil
}

// notifications

type notificationRepo struct{ s *Store }

func (r notificationRepo) CreateNotification(_ context.Context, n *models.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n.ID = r.s.id()
	n.CreatedAt = r.s.tick()
	r.s.notifications = append(r.s.notifications, *n)
	return nil
}

func (r notificationRepo) forRecipient(recipientID uint) []models.Notification {
	var out []models.Notification
	for i := len(r.s.notifications) - 1; i >= 0; i-- {
		if r.s.notifications[i].RecipientID == recipientID {
			out = append(out, r.s.notifications[i])
		}
	}
	return out
}

func (r notificationRepo) GetByRecipientID(_ context.Context, recipientID uint, page, limit int) ([]models.Notification, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	all := r.forRecipient(recipientID)
	total := int64(len(all))
	if page < 1 || limit < 1 || page-1 > len(all)/limit {
		return nil, total, nil
	}
	start := (page - 1) * limit
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r notificationRepo) GetGrouped(_ context.Context, recipientID uint, now time.Time) (today, yesterday, thisWeek, older []models.Notification, err error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	todayStart, yesterdayStart, weekStart := repositories.GroupBounds(now)
	for _, n := range r.forRecipient(recipientID) {
		switch {
		case !n.CreatedAt.Before(todayStart):
			today = append(today, n)
		case !n.CreatedAt.Before(yesterdayStart):
			yesterday = append(yesterday, n)
		case !n.CreatedAt.Before(weekStart):
			thisWeek = append(thisWeek, n)
		case len(older) < 50:
			older = append(older, n)
		}
	}
	return today, yesterday, thisWeek, older, nil
}

func (r notificationRepo) GetUnreadCount(_ context.Context, recipientID uint) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var n int64
	for _, x := range r.s.notifications {
		if x.RecipientID == recipientID && !x.IsRead {
			n++
		}
	}
	return n, nil
}

func (r notificationRepo) MarkAsRead(_ context.Context, notificationID, recipientID uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.notifications {
		if r.s.notifications[i].ID == notificationID && r.s.notifications[i].RecipientID == recipientID {
			r.s.notifications[i].IsRead = true
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (r notificationRepo) MarkAllAsRead(_ context.Context, recipientID uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.notifications {
		if r.s.notifications[i].RecipientID == recipientID {
			r.s.notifications[i].IsRead = true
		}
	}
	return nil
}

// threads

type threadRepo struct{ s *Store }

func (r threadRepo) findLocked(low, high uint) *models.Thread {
	for _, t := range r.s.threads {
		if t.UserLowID == low && t.UserHighID == high {
			return t
		}
	}
	return nil
}

func (r threadRepo) GetOrCreateThread(_ context.Context, initiatorID, otherID uint, accepted bool) (*models.Thread, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	low, high := models.OrderedPair(initiatorID, otherID)
	if t := r.findLocked(low, high); t != nil {
		cp := *t
		return &cp, false, nil
	}
	now := r.s.tick()
	t := &models.Thread{
		ID:          r.s.id(),
		UserLowID:   low,
		UserHighID:  high,
		InitiatorID: initiatorID,
		IsAccepted:  accepted,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.s.threads[t.ID] = t
	cp := *t
	return &cp, true, nil
}

func (r threadRepo) GetThreadByID(_ context.Context, id uint) (*models.Thread, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.threads[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r threadRepo) FindThreadBetween(_ context.Context, a, b uint) (*models.Thread, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	low, high := models.OrderedPair(a, b)
	t := r.findLocked(low, high)
	if t == nil {
		return nil, repositories.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r threadRepo) GetThreadsForUser(_ context.Context, userID uint) ([]models.Thread, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []models.Thread
	for _, t := range r.s.threads {
		if t.HasParticipant(userID) {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r threadRepo) AcceptThread(_ context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.threads[id]
	if !ok {
		return repositories.ErrNotFound
	}
	t.IsAccepted = true
	return nil
}

func (r threadRepo) DeleteThread(_ context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.threads[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.s.threads, id)
	kept := r.s.messages[:0]
	for _, m := range r.s.messages {
		if m.ThreadID != id {
			kept = append(kept, m)
		}
	}
	r.s.messages = kept
	return nil
}

func (r threadRepo) TouchThread(_ context.Context, id uint, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.threads[id]
	if !ok {
		return repositories.ErrNotFound
	}
	t.UpdatedAt = at
	return nil
}

// messages

type messageRepo struct{ s *Store }

func (r messageRepo) CreateMessage(_ context.Context, m *models.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m.ID = r.s.id()
	m.CreatedAt = r.s.tick()
	r.s.messages = append(r.s.messages, *m)
	return nil
}

func (r messageRepo) GetMessagesByThreadID(_ context.Context, threadID uint) ([]models.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []models.Message
	for _, m := range r.s.messages {
		if m.ThreadID == threadID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r messageRepo) GetLastMessages(_ context.Context, threadIDs []uint) (map[uint]models.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	last := make(map[uint]models.Message)
	for _, m := range r.s.messages {
		if contains(threadIDs, m.ThreadID) {
			last[m.ThreadID] = m
		}
	}
	return last, nil
}

func (r messageRepo) GetUnreadThreadIDs(_ context.Context, viewerID uint, threadIDs []uint) (map[uint]bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	unread := make(map[uint]bool)
	for _, m := range r.s.messages {
		if contains(threadIDs, m.ThreadID) && m.SenderID != viewerID && !m.IsRead {
			unread[m.ThreadID] = true
		}
	}
	return unread, nil
}

func (r messageRepo) MarkThreadRead(_ context.Context, threadID, viewerID uint) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for i := range r.s.messages {
		m := &r.s.messages[i]
		if m.ThreadID == threadID && m.SenderID != viewerID && !m.IsRead {
			m.IsRead = true
			n++
		}
	}
	return n, nil
}

func (r messageRepo) CountUnread(_ context.Context, viewerID uint) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var n int64
	for _, m := range r.s.messages {
		t, ok := r.s.threads[m.ThreadID]
		if ok && t.HasParticipant(viewerID) && m.SenderID != viewerID && !m.IsRead {
			n++
		}
	}
	return n, nil
}

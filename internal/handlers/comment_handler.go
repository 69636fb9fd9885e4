package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/anonto42/memepie/backend/internal/models"
	"github.com/anonto42/memepie/backend/internal/repositories"
	"github.com/anonto42/memepie/backend/internal/services"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	commentRepository     repositories.CommentRepository
	commentLikeRepository repositories.CommentLikeRepository
	memeRepository        repositories.MemeRepository
	userRepository        repositories.UserRepository
	notifier              *services.Notifier
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(commentRepo repositories.CommentRepository, commentLikeRepo repositories.CommentLikeRepository, memeRepo repositories.MemeRepository, userRepo repositories.UserRepository, notifier *services.Notifier) *CommentHandler {
	return &CommentHandler{
		commentRepository:     commentRepo,
		commentLikeRepository: commentLikeRepo,
		memeRepository:        memeRepo,
		userRepository:        userRepo,
		notifier:              notifier,
	}
}

// RegisterCommentRoutes registers routes that need an authenticated user
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/memes/:id/comments", h.CreateComment)
	g.DELETE("/comments/:id", h.DeleteComment)
	g.POST("/comments/:id/likes/toggle", h.ToggleCommentLike)
}

// RegisterPublicRoutes registers comment routes open to anonymous viewers
func (h *CommentHandler) RegisterPublicRoutes(g *echo.Group) {
	g.GET("/memes/:id/comments", h.GetComments)
}

// CommentView is a comment with its author, like state and, for top-level comments, replies
type CommentView struct {
	models.Comment
	Author     models.UserCompact `json:"author"`
	LikesCount int64              `json:"likes_count"`
	IsLiked    bool               `json:"is_liked"`
	Replies    []CommentView      `json:"replies,omitempty"`
}

// buildCommentTree groups a meme's comments into top-level comments with one level of replies
func buildCommentTree(ctx context.Context, comments repositories.CommentRepository, commentLikes repositories.CommentLikeRepository, users repositories.UserRepository, memeID string, viewerID uint) ([]CommentView, error) {
	all, err := comments.GetCommentsByMemeID(ctx, memeID)
	if err != nil {
		return nil, err
	}
	tree := make([]CommentView, 0)
	if len(all) == 0 {
		return tree, nil
	}

	ids := make([]uint, len(all))
	authorIDs := make([]uint, 0, len(all))
	for i, cm := range all {
		ids[i] = cm.ID
		authorIDs = append(authorIDs, cm.UserID)
	}
	counts, err := commentLikes.GetLikesCounts(ctx, ids)
	if err != nil {
		return nil, err
	}
	liked := map[uint]bool{}
	if viewerID != 0 {
		if liked, err = commentLikes.GetLikedAmong(ctx, viewerID, ids); err != nil {
			return nil, err
		}
	}
	authors, err := users.GetUsersByIDs(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	authorByID := make(map[uint]models.UserCompact, len(authors))
	for i := range authors {
		authorByID[authors[i].ID] = authors[i].ToCompact()
	}

	view := func(cm models.Comment) CommentView {
		return CommentView{Comment: cm, Author: authorByID[cm.UserID], LikesCount: counts[cm.ID], IsLiked: liked[cm.ID]}
	}

	position := make(map[uint]int)
	for _, cm := range all {
		if cm.ParentID == nil {
			position[cm.ID] = len(tree)
			tree = append(tree, view(cm))
		}
	}
	for _, cm := range all {
		if cm.ParentID == nil {
			continue
		}
		if i, ok := position[*cm.ParentID]; ok {
			tree[i].Replies = append(tree[i].Replies, view(cm))
		}
	}
	return tree, nil
}

// CreateComment adds a comment or a reply to a meme
func (h *CommentHandler) CreateComment(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	var req models.CreateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Content is required")
	}

	ctx := c.Request().Context()
	meme, err := h.memeRepository.GetMemeByID(ctx, c.Param("id"))
	if err != nil {
		return httpError(err, "Meme")
	}

	comment := &models.Comment{MemeID: meme.HexID(), UserID: userID, Content: content}
	if req.ParentID != nil {
		parentID, err := h.resolveParent(ctx, *req.ParentID, meme.HexID())
		if err != nil {
			return httpError(err, "Parent comment")
		}
		comment.ParentID = &parentID
	}

	if err := h.commentRepository.CreateComment(ctx, comment); err != nil {
		return httpError(err, "Meme")
	}
	if err := h.memeRepository.IncrementCommentsCount(ctx, meme.HexID()); err != nil {
		log.Warn().Err(err).Str("meme_id", meme.HexID()).Msg("failed to increment comments count")
	}

	actor, err := h.userRepository.GetUserByID(ctx, userID)
	if err == nil {
		h.notifier.MemeCommented(ctx, actor, meme, content)
	}

	view := CommentView{Comment: *comment}
	if actor != nil {
		view.Author = actor.ToCompact()
	}
	return success(c, http.StatusCreated, view)
}

// resolveParent returns the top-level comment a reply attaches to
func (h *CommentHandler) resolveParent(ctx context.Context, parentID uint, memeID string) (uint, error) {
	parent, err := h.commentRepository.GetCommentByID(ctx, parentID)
	if err != nil {
		return 0, err
	}
	if parent.MemeID != memeID {
		return 0, services.ErrInvalidParent
	}
	if parent.ParentID != nil {
		return *parent.ParentID, nil
	}
	return parent.ID, nil
}

// GetComments returns a meme's comments threaded one level deep
func (h *CommentHandler) GetComments(c echo.Context) error {
	ctx := c.Request().Context()
	meme, err := h.memeRepository.GetMemeByID(ctx, c.Param("id"))
	if err != nil {
		return httpError(err, "Meme")
	}
	tree, err := buildCommentTree(ctx, h.commentRepository, h.commentLikeRepository, h.userRepository, meme.HexID(), getUserIDFromContext(c))
	if err != nil {
		return httpError(err, "Meme")
	}
	return success(c, http.StatusOK, echo.Map{"comments": tree})
}

// DeleteComment deletes a comment and its replies
func (h *CommentHandler) DeleteComment(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	commentID, err := parseUintParam(c, "id", "comment ID")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	comment, err := h.commentRepository.GetCommentByID(ctx, commentID)
	if err != nil {
		return httpError(err, "Comment")
	}
	if comment.UserID != userID {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to delete this comment")
	}

	removed, err := h.commentRepository.DeleteComment(ctx, commentID)
	if err != nil {
		return httpError(err, "Comment")
	}
	if err := h.memeRepository.DecrementCommentsCount(ctx, comment.MemeID, removed); err != nil && !errors.Is(err, repositories.ErrNotFound) {
		log.Warn().Err(err).Str("meme_id", comment.MemeID).Msg("failed to decrement comments count")
	}

	return c.NoContent(http.StatusNoContent)
}

// ToggleCommentLike likes or unlikes a comment
func (h *CommentHandler) ToggleCommentLike(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	commentID, err := parseUintParam(c, "id", "comment ID")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	if _, err := h.commentRepository.GetCommentByID(ctx, commentID); err != nil {
		return httpError(err, "Comment")
	}

	hasLiked, err := h.commentLikeRepository.HasUserLikedComment(ctx, commentID, userID)
	if err != nil {
		return httpError(err, "Comment")
	}
	if hasLiked {
		err = h.commentLikeRepository.DeleteCommentLike(ctx, commentID, userID)
	} else {
		err = h.commentLikeRepository.CreateCommentLike(ctx, &models.CommentLike{CommentID: commentID, UserID: userID})
	}
	if errors.Is(err, repositories.ErrAlreadyExists) {
		return echo.NewHTTPError(http.StatusConflict, "Comment already liked by this user")
	}
	if err != nil {
		return httpError(err, "Comment")
	}

	counts, err := h.commentLikeRepository.GetLikesCounts(ctx, []uint{commentID})
	if err != nil {
		return httpError(err, "Comment")
	}
	return success(c, http.StatusOK, echo.Map{"comment_id": commentID, "liked": !hasLiked, "likes_count": counts[commentID]})
}

package models

import "time"

// Comment represents a comment on a meme. Replies point at a top-level ParentID.
type Comment struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	MemeID    string    `json:"meme_id" gorm:"size:24;index"`
	UserID    uint      `json:"user_id" gorm:"index"`
	ParentID  *uint     `json:"parent_id,omitempty" gorm:"index"`
	Content   string    `json:"content" gorm:"size:500"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateCommentRequest struct {
	Content  string `json:"content" validate:"required,min=1,max=500"`
	ParentID *uint  `json:"parent_id,omitempty"`
}

// CommentLike is unique per (comment, user)
type CommentLike struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CommentID uint      `json:"comment_id" gorm:"uniqueIndex:idx_comment_likes_pair"`
	UserID    uint      `json:"user_id" gorm:"index;uniqueIndex:idx_comment_likes_pair"`
	CreatedAt time.Time `json:"created_at"`
}

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Meme is stored in MongoDB; likes and comments live in PostgreSQL keyed by the hex id
type Meme struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	AuthorID      uint               `json:"author_id" bson:"author_id"`
	ImageURL      string             `json:"image_url" bson:"image_url"`
	Caption       string             `json:"caption" bson:"caption"`
	LikesCount    int64              `json:"likes_count" bson:"likes_count"`
	CommentsCount int64              `json:"comments_count" bson:"comments_count"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
}

func (m *Meme) HexID() string {
	return m.ID.Hex()
}

type CreateMemeRequest struct {
	ImageURL string `json:"image_url" validate:"required,url"`
	Caption  string `json:"caption" validate:"omitempty,max=500"`
}

type ShareMemeRequest struct {
	Username string `json:"username" validate:"required"`
	Text     string `json:"text" validate:"omitempty,max=2000"`
}

package models

import "time"

// Like is a user's like on a meme (MongoDB ObjectID as hex string)
type Like struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	MemeID    string    `json:"meme_id" gorm:"size:24;index;uniqueIndex:idx_meme_user_like"`
	UserID    uint      `json:"user_id" gorm:"index;uniqueIndex:idx_meme_user_like"`
	CreatedAt time.Time `json:"created_at"`
}

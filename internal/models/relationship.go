package models

import "time"

// Follow is a directed edge: FollowerID follows FollowingID
type Follow struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	FollowerID  uint      `json:"follower_id" gorm:"uniqueIndex:idx_follows_pair"`
	FollowingID uint      `json:"following_id" gorm:"index;uniqueIndex:idx_follows_pair"`
	CreatedAt   time.Time `json:"created_at"`
}

// Block hides nothing by itself; it is surfaced on profiles and in the blocked list
type Block struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	BlockerID uint      `json:"blocker_id" gorm:"uniqueIndex:idx_blocks_pair"`
	BlockedID uint      `json:"blocked_id" gorm:"index;uniqueIndex:idx_blocks_pair"`
	CreatedAt time.Time `json:"created_at"`
}

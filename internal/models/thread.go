package models

import "time"

// Thread is a direct conversation between exactly two users. The pair is
// stored ordered (UserLowID < UserHighID) so it is unique regardless of who
// started the conversation.
type Thread struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserLowID   uint      `json:"-" gorm:"not null;uniqueIndex:idx_thread_pair;check:chk_thread_pair,user_low_id < user_high_id"`
	UserHighID  uint      `json:"-" gorm:"not null;uniqueIndex:idx_thread_pair"`
	InitiatorID uint      `json:"initiator_id" gorm:"not null"`
	IsAccepted  bool      `json:"is_accepted" gorm:"default:false"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"index"`
}

// OrderedPair returns the two ids as (low, high)
func OrderedPair(a, b uint) (uint, uint) {
	if a < b {
		return a, b
	}
	return b, a
}

func (t *Thread) HasParticipant(userID uint) bool {
	return userID != 0 && (t.UserLowID == userID || t.UserHighID == userID)
}

// OtherParticipant returns the participant that is not userID
func (t *Thread) OtherParticipant(userID uint) uint {
	if t.UserLowID == userID {
		return t.UserHighID
	}
	return t.UserLowID
}

// Message belongs to one thread. IsRead only concerns the non-sender.
type Message struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ThreadID  uint      `json:"thread_id" gorm:"index"`
	SenderID  uint      `json:"sender_id" gorm:"index"`
	Text      string    `json:"text"`
	MemeID    *string   `json:"meme_id,omitempty" gorm:"size:24"`
	IsRead    bool      `json:"is_read" gorm:"default:false;index"`
	CreatedAt time.Time `json:"created_at"`
}

type SendMessageRequest struct {
	Text   string  `json:"text" validate:"max=2000"`
	MemeID *string `json:"meme_id,omitempty" validate:"omitempty,len=24,hexadecimal"`
}

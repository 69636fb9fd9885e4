package repositories

import (
	"context"

	"github.com/anonto42/memepie/backend/internal/models"
	"gorm.io/gorm"
)

// MessageRepository defines the interface for direct messages
type MessageRepository interface {
	CreateMessage(ctx context.Context, message *models.Message) error
	// GetMessagesByThreadID returns the thread's messages, oldest first
	GetMessagesByThreadID(ctx context.Context, threadID uint) ([]models.Message, error)
	// GetLastMessages returns the newest message of each thread that has one
	GetLastMessages(ctx context.Context, threadIDs []uint) (map[uint]models.Message, error)
	// GetUnreadThreadIDs reports which threads hold a message not sent by viewerID that is still unread
	GetUnreadThreadIDs(ctx context.Context, viewerID uint, threadIDs []uint) (map[uint]bool, error)
	// MarkThreadRead flips is_read on every inbound message of viewerID in the thread
	MarkThreadRead(ctx context.Context, threadID, viewerID uint) (int64, error)
	// CountUnread counts unread inbound messages across all of viewerID's threads
	CountUnread(ctx context.Context, viewerID uint) (int64, error)
}

// PostgresMessageRepository implements MessageRepository for PostgreSQL
type PostgresMessageRepository struct {
	db *gorm.DB
}

// NewPostgresMessageRepository creates a new PostgresMessageRepository
func NewPostgresMessageRepository(db *gorm.DB) *PostgresMessageRepository {
	return &PostgresMessageRepository{db: db}
}

func (r *PostgresMessageRepository) CreateMessage(ctx context.Context, message *models.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *PostgresMessageRepository) GetMessagesByThreadID(ctx context.Context, threadID uint) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.WithContext(ctx).Where("thread_id = ?", threadID).Order("created_at ASC, id ASC").Find(&messages).Error
	return messages, err
}

func (r *PostgresMessageRepository) GetLastMessages(ctx context.Context, threadIDs []uint) (map[uint]models.Message, error) {
	last := make(map[uint]models.Message, len(threadIDs))
	if len(threadIDs) == 0 {
		return last, nil
	}
	var messages []models.Message
	err := r.db.WithContext(ctx).
		Raw(`SELECT DISTINCT ON (thread_id) * FROM messages
			WHERE thread_id IN ?
			ORDER BY thread_id, created_at DESC, id DESC`, threadIDs).
		Scan(&messages).Error
	if err != nil {
		return nil, err
	}
	for _, m := range messages {
		last[m.ThreadID] = m
	}
	return last, nil
}

func (r *PostgresMessageRepository) GetUnreadThreadIDs(ctx context.Context, viewerID uint, threadIDs []uint) (map[uint]bool, error) {
	unread := make(map[uint]bool)
	if len(threadIDs) == 0 {
		return unread, nil
	}
	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("thread_id IN ? AND sender_id <> ? AND is_read = false", threadIDs, viewerID).
		Distinct("thread_id").
		Pluck("thread_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		unread[id] = true
	}
	return unread, nil
}

func (r *PostgresMessageRepository) MarkThreadRead(ctx context.Context, threadID, viewerID uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("thread_id = ? AND sender_id <> ? AND is_read = false", threadID, viewerID).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

func (r *PostgresMessageRepository) CountUnread(ctx context.Context, viewerID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Message{}).
		Joins("JOIN threads ON threads.id = messages.thread_id").
		Where("(threads.user_low_id = ? OR threads.user_high_id = ?) AND messages.sender_id <> ? AND messages.is_read = false",
			viewerID, viewerID, viewerID).
		Count(&count).Error
	return count, err
}

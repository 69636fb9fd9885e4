package repositories

import (
	"context"
	"time"

	"github.com/anonto42/memepie/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ThreadRepository defines the interface for direct-message threads
type ThreadRepository interface {
	// GetOrCreateThread returns the thread between the two users, inserting it
	// with the given acceptance state when absent. created reports whether this
	// call inserted it. Concurrent callers for the same pair all observe one row.
	GetOrCreateThread(ctx context.Context, initiatorID, otherID uint, accepted bool) (thread *models.Thread, created bool, err error)
	GetThreadByID(ctx context.Context, id uint) (*models.Thread, error)
	FindThreadBetween(ctx context.Context, a, b uint) (*models.Thread, error)
	// GetThreadsForUser returns the user's threads, most recently active first
	GetThreadsForUser(ctx context.Context, userID uint) ([]models.Thread, error)
	AcceptThread(ctx context.Context, id uint) error
	// DeleteThread removes the thread together with its messages
	DeleteThread(ctx context.Context, id uint) error
	TouchThread(ctx context.Context, id uint, at time.Time) error
}

// PostgresThreadRepository implements ThreadRepository for PostgreSQL
type PostgresThreadRepository struct {
	db *gorm.DB
}

// NewPostgresThreadRepository creates a new PostgresThreadRepository
func NewPostgresThreadRepository(db *gorm.DB) *PostgresThreadRepository {
	return &PostgresThreadRepository{db: db}
}

func (r *PostgresThreadRepository) GetOrCreateThread(ctx context.Context, initiatorID, otherID uint, accepted bool) (*models.Thread, bool, error) {
	low, high := models.OrderedPair(initiatorID, otherID)
	db := r.db.WithContext(ctx)

	candidate := models.Thread{
		UserLowID:   low,
		UserHighID:  high,
		InitiatorID: initiatorID,
		IsAccepted:  accepted,
	}
	// ON CONFLICT DO NOTHING waits for a concurrent insert of the same pair to
	// settle, so the follow-up read always finds the winning row.
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_low_id"}, {Name: "user_high_id"}},
		DoNothing: true,
	}).Create(&candidate)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 1 {
		return &candidate, true, nil
	}

	var existing models.Thread
	if err := db.Where("user_low_id = ? AND user_high_id = ?", low, high).First(&existing).Error; err != nil {
		return nil, false, translate(err)
	}
	return &existing, false, nil
}

func (r *PostgresThreadRepository) GetThreadByID(ctx context.Context, id uint) (*models.Thread, error) {
	var thread models.Thread
	if err := r.db.WithContext(ctx).First(&thread, id).Error; err != nil {
		return nil, translate(err)
	}
	return &thread, nil
}

func (r *PostgresThreadRepository) FindThreadBetween(ctx context.Context, a, b uint) (*models.Thread, error) {
	low, high := models.OrderedPair(a, b)
	var thread models.Thread
	if err := r.db.WithContext(ctx).Where("user_low_id = ? AND user_high_id = ?", low, high).First(&thread).Error; err != nil {
		return nil, translate(err)
	}
	return &thread, nil
}

func (r *PostgresThreadRepository) GetThreadsForUser(ctx context.Context, userID uint) ([]models.Thread, error) {
	var threads []models.Thread
	err := r.db.WithContext(ctx).
		Where("user_low_id = ? OR user_high_id = ?", userID, userID).
		Order("updated_at DESC, id DESC").
		Find(&threads).Error
	return threads, err
}

func (r *PostgresThreadRepository) AcceptThread(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&models.Thread{}).Where("id = ?", id).Update("is_accepted", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresThreadRepository) DeleteThread(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("thread_id = ?", id).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Thread{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *PostgresThreadRepository) TouchThread(ctx context.Context, id uint, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Thread{}).Where("id = ?", id).UpdateColumn("updated_at", at).Error
}

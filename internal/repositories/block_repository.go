package repositories

import (
	"context"

	"github.com/anonto42/memepie/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BlockRepository defines the interface for block list operations
type BlockRepository interface {
	// CreateBlock is idempotent: blocking an already blocked user is not an error
	CreateBlock(ctx context.Context, blockerID, blockedID uint) error
	DeleteBlock(ctx context.Context, blockerID, blockedID uint) error
	IsBlocked(ctx context.Context, blockerID, blockedID uint) (bool, error)
	GetBlockedUsers(ctx context.Context, blockerID uint) ([]models.User, error)
}

// PostgresBlockRepository implements BlockRepository for PostgreSQL
type PostgresBlockRepository struct {
	db *gorm.DB
}

// NewPostgresBlockRepository creates a new PostgresBlockRepository
func NewPostgresBlockRepository(db *gorm.DB) *PostgresBlockRepository {
	return &PostgresBlockRepository{db: db}
}

func (r *PostgresBlockRepository) CreateBlock(ctx context.Context, blockerID, blockedID uint) error {
	block := &models.Block{BlockerID: blockerID, BlockedID: blockedID}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "blocker_id"}, {Name: "blocked_id"}},
		DoNothing: true,
	}).Create(block).Error
}

func (r *PostgresBlockRepository) DeleteBlock(ctx context.Context, blockerID, blockedID uint) error {
	res := r.db.WithContext(ctx).Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).Delete(&models.Block{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresBlockRepository) IsBlocked(ctx context.Context, blockerID, blockedID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Block{}).
		Where("blocker_id = ? AND blocked_id = ?", blockerID, blockedID).
		Count(&count).Error
	return count > 0, err
}

func (r *PostgresBlockRepository) GetBlockedUsers(ctx context.Context, blockerID uint) ([]models.User, error) {
	db := r.db.WithContext(ctx)
	var users []models.User
	err := db.Where("id IN (?)",
		db.Table("blocks").Select("blocked_id").Where("blocker_id = ?", blockerID),
	).Order("username").Find(&users).Error
	return users, err
}

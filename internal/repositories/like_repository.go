package repositories

import (
	"context"

	"github.com/anonto42/memepie/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeRepository defines the interface for meme like operations
type LikeRepository interface {
	CreateLike(ctx context.Context, like *models.Like) error
	DeleteLike(ctx context.Context, memeID string, userID uint) error
	HasUserLikedMeme(ctx context.Context, memeID string, userID uint) (bool, error)
	GetLikesCountByMemeID(ctx context.Context, memeID string) (int64, error)
	// GetLikedMemeIDs lists the memes userID has liked
	GetLikedMemeIDs(ctx context.Context, userID uint) ([]string, error)
	GetLikesByMemeIDs(ctx context.Context, memeIDs []string) ([]models.Like, error)
	// GetLikedAmong reports which of memeIDs userID has liked
	GetLikedAmong(ctx context.Context, userID uint, memeIDs []string) (map[string]bool, error)
	DeleteLikesByMemeID(ctx context.Context, memeID string) error
}

// PostgresLikeRepository implements LikeRepository for PostgreSQL
type PostgresLikeRepository struct {
	db *gorm.DB
}

// NewPostgresLikeRepository creates a new PostgresLikeRepository
func NewPostgresLikeRepository(db *gorm.DB) *PostgresLikeRepository {
	return &PostgresLikeRepository{db: db}
}

func (r *PostgresLikeRepository) CreateLike(ctx context.Context, like *models.Like) error {
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "meme_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(like)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func (r *PostgresLikeRepository) DeleteLike(ctx context.Context, memeID string, userID uint) error {
	res := r.db.WithContext(ctx).Where("meme_id = ? AND user_id = ?", memeID, userID).Delete(&models.Like{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresLikeRepository) HasUserLikedMeme(ctx context.Context, memeID string, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("meme_id = ? AND user_id = ?", memeID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PostgresLikeRepository) GetLikesCountByMemeID(ctx context.Context, memeID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Like{}).Where("meme_id = ?", memeID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostgresLikeRepository) GetLikedMemeIDs(ctx context.Context, userID uint) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.Like{}).Where("user_id = ?", userID).Pluck("meme_id", &ids).Error
	return ids, err
}

func (r *PostgresLikeRepository) GetLikesByMemeIDs(ctx context.Context, memeIDs []string) ([]models.Like, error) {
	if len(memeIDs) == 0 {
		return nil, nil
	}
	var likes []models.Like
	err := r.db.WithContext(ctx).Where("meme_id IN ?", memeIDs).Find(&likes).Error
	return likes, err
}

func (r *PostgresLikeRepository) GetLikedAmong(ctx context.Context, userID uint, memeIDs []string) (map[string]bool, error) {
	liked := make(map[string]bool)
	if userID == 0 || len(memeIDs) == 0 {
		return liked, nil
	}
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.Like{}).
		Where("user_id = ? AND meme_id IN ?", userID, memeIDs).
		Pluck("meme_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}

func (r *PostgresLikeRepository) DeleteLikesByMemeID(ctx context.Context, memeID string) error {
	return r.db.WithContext(ctx).Where("meme_id = ?", memeID).Delete(&models.Like{}).Error
}

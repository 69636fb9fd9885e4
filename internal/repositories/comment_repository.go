package repositories

import (
	"context"

	"github.com/anonto42/memepie/backend/internal/models"
	"gorm.io/gorm"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetCommentByID(ctx context.Context, id uint) (*models.Comment, error)
	// GetCommentsByMemeID returns top-level comments and replies, oldest first
	GetCommentsByMemeID(ctx context.Context, memeID string) ([]models.Comment, error)
	// DeleteComment removes the comment, its replies and their likes; it returns the number of comments removed
	DeleteComment(ctx context.Context, id uint) (int64, error)
	GetCommentedMemeIDs(ctx context.Context, userID uint) ([]string, error)
	DeleteCommentsByMemeID(ctx context.Context, memeID string) error
}

// PostgresCommentRepository implements CommentRepository for PostgreSQL
type PostgresCommentRepository struct {
	db *gorm.DB
}

// NewPostgresCommentRepository creates a new PostgresCommentRepository
func NewPostgresCommentRepository(db *gorm.DB) *PostgresCommentRepository {
	return &PostgresCommentRepository{db: db}
}

func (r *PostgresCommentRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *PostgresCommentRepository) GetCommentByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		return nil, translate(err)
	}
	return &comment, nil
}

func (r *PostgresCommentRepository) GetCommentsByMemeID(ctx context.Context, memeID string) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.WithContext(ctx).Where("meme_id = ?", memeID).Order("created_at ASC, id ASC").Find(&comments).Error
	return comments, err
}

func (r *PostgresCommentRepository) DeleteComment(ctx context.Context, id uint) (int64, error) {
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uint
		if err := tx.Model(&models.Comment{}).Where("id = ? OR parent_id = ?", id, id).Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return ErrNotFound
		}
		if err := tx.Where("comment_id IN ?", ids).Delete(&models.CommentLike{}).Error; err != nil {
			return err
		}
		res := tx.Where("id IN ?", ids).Delete(&models.Comment{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected
		return nil
	})
	return removed, err
}

func (r *PostgresCommentRepository) GetCommentedMemeIDs(ctx context.Context, userID uint) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Model(&models.Comment{}).
		Where("user_id = ?", userID).
		Distinct("meme_id").
		Pluck("meme_id", &ids).Error
	return ids, err
}

func (r *PostgresCommentRepository) DeleteCommentsByMemeID(ctx context.Context, memeID string) error {
	db := r.db.WithContext(ctx)
	return db.Transaction(func(tx *gorm.DB) error {
		sub := tx.Model(&models.Comment{}).Select("id").Where("meme_id = ?", memeID)
		if err := tx.Where("comment_id IN (?)", sub).Delete(&models.CommentLike{}).Error; err != nil {
			return err
		}
		return tx.Where("meme_id = ?", memeID).Delete(&models.Comment{}).Error
	})
}

package repositories

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/anonto42/memepie/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MemeRepository defines the interface for meme data operations
type MemeRepository interface {
	CreateMeme(ctx context.Context, meme *models.Meme) error
	GetMemeByID(ctx context.Context, id string) (*models.Meme, error)
	// GetMemesByAuthorIDs returns the memes of the given authors, newest first
	GetMemesByAuthorIDs(ctx context.Context, authorIDs []uint) ([]models.Meme, error)
	CountMemesByAuthor(ctx context.Context, authorID uint) (int64, error)
	// GetAuthorIDs resolves the distinct authors of the given memes
	GetAuthorIDs(ctx context.Context, memeIDs []string) ([]uint, error)
	// GetPopularMemes returns every meme not in excludeIDs, most liked first, then newest
	GetPopularMemes(ctx context.Context, excludeIDs []string) ([]models.Meme, error)
	SearchMemes(ctx context.Context, query string, limit int64) ([]models.Meme, error)
	DeleteMeme(ctx context.Context, id string) error
	IncrementLikesCount(ctx context.Context, memeID string) error
	DecrementLikesCount(ctx context.Context, memeID string) error
	IncrementCommentsCount(ctx context.Context, memeID string) error
	// DecrementCommentsCount lowers the counter by n
	DecrementCommentsCount(ctx context.Context, memeID string, n int64) error
}

// MongoMemeRepository implements MemeRepository for MongoDB
type MongoMemeRepository struct {
	collection *mongo.Collection
}

// NewMongoMemeRepository creates a new MongoMemeRepository
func NewMongoMemeRepository(db *mongo.Database) *MongoMemeRepository {
	return &MongoMemeRepository{collection: db.Collection("memes")}
}

// EnsureIndexes creates the indexes the feed and profile queries sort on
func (r *MongoMemeRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "author_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "likes_count", Value: -1}, {Key: "created_at", Value: -1}}},
	})
	return err
}

func (r *MongoMemeRepository) CreateMeme(ctx context.Context, meme *models.Meme) error {
	meme.ID = primitive.NewObjectID()
	meme.CreatedAt = time.Now().UTC()
	_, err := r.collection.InsertOne(ctx, meme)
	return err
}

func (r *MongoMemeRepository) GetMemeByID(ctx context.Context, id string) (*models.Meme, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		// a malformed id can never match a document
		return nil, ErrNotFound
	}

	var meme models.Meme
	if err := r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&meme); err != nil {
		return nil, translate(err)
	}
	return &meme, nil
}

func (r *MongoMemeRepository) find(ctx context.Context, filter interface{}, opts *options.FindOptions) ([]models.Meme, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var memes []models.Meme
	if err = cursor.All(ctx, &memes); err != nil {
		return nil, err
	}
	return memes, nil
}

func (r *MongoMemeRepository) GetMemesByAuthorIDs(ctx context.Context, authorIDs []uint) ([]models.Meme, error) {
	if len(authorIDs) == 0 {
		return nil, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	return r.find(ctx, bson.M{"author_id": bson.M{"$in": authorIDs}}, opts)
}

func (r *MongoMemeRepository) CountMemesByAuthor(ctx context.Context, authorID uint) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"author_id": authorID})
}

func (r *MongoMemeRepository) GetAuthorIDs(ctx context.Context, memeIDs []string) ([]uint, error) {
	objIDs := toObjectIDs(memeIDs)
	if len(objIDs) == 0 {
		return nil, nil
	}
	raw, err := r.collection.Distinct(ctx, "author_id", bson.M{"_id": bson.M{"$in": objIDs}})
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(raw))
	for _, v := range raw {
		// numbers come back as int32 or int64 depending on magnitude
		switch n := v.(type) {
		case int32:
			ids = append(ids, uint(n))
		case int64:
			ids = append(ids, uint(n))
		default:
			return nil, fmt.Errorf("unexpected author_id type %T", v)
		}
	}
	return ids, nil
}

func (r *MongoMemeRepository) GetPopularMemes(ctx context.Context, excludeIDs []string) ([]models.Meme, error) {
	filter := bson.M{}
	if objIDs := toObjectIDs(excludeIDs); len(objIDs) > 0 {
		filter["_id"] = bson.M{"$nin": objIDs}
	}
	opts := options.Find().SetSort(bson.D{
		{Key: "likes_count", Value: -1},
		{Key: "created_at", Value: -1},
		{Key: "_id", Value: -1},
	})
	return r.find(ctx, filter, opts)
}

// SearchMemes matches the caption case-insensitively
func (r *MongoMemeRepository) SearchMemes(ctx context.Context, query string, limit int64) ([]models.Meme, error) {
	filter := bson.M{"caption": primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	return r.find(ctx, filter, opts)
}

func (r *MongoMemeRepository) DeleteMeme(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoMemeRepository) inc(ctx context.Context, memeID, field string, delta int64) error {
	objID, err := primitive.ObjectIDFromHex(memeID)
	if err != nil {
		return ErrNotFound
	}
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$inc": bson.M{field: delta}})
	return err
}

func (r *MongoMemeRepository) IncrementLikesCount(ctx context.Context, memeID string) error {
	return r.inc(ctx, memeID, "likes_count", 1)
}

func (r *MongoMemeRepository) DecrementLikesCount(ctx context.Context, memeID string) error {
	return r.inc(ctx, memeID, "likes_count", -1)
}

func (r *MongoMemeRepository) IncrementCommentsCount(ctx context.Context, memeID string) error {
	return r.inc(ctx, memeID, "comments_count", 1)
}

func (r *MongoMemeRepository) DecrementCommentsCount(ctx context.Context, memeID string, n int64) error {
	return r.inc(ctx, memeID, "comments_count", -n)
}

func toObjectIDs(hexIDs []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(hexIDs))
	for _, h := range hexIDs {
		if id, err := primitive.ObjectIDFromHex(h); err == nil {
			out = append(out, id)
		}
	}
	return out
}

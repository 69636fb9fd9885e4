package router

import (
	"context"
	"fmt"
	"time"

	"github.com/anonto42/memepie/backend/internal/handlers"
	"github.com/anonto42/memepie/backend/internal/metrics"
	"github.com/anonto42/memepie/backend/internal/middleware"
	"github.com/anonto42/memepie/backend/internal/models"
	"github.com/anonto42/memepie/backend/internal/repositories"
	"github.com/anonto42/memepie/backend/internal/services"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// Repositories bundles every store the handlers depend on
type Repositories struct {
	Users         repositories.UserRepository
	Follows       repositories.FollowRepository
	Blocks        repositories.BlockRepository
	Memes         repositories.MemeRepository
	Likes         repositories.LikeRepository
	Comments      repositories.CommentRepository
	CommentLikes  repositories.CommentLikeRepository
	Notifications repositories.NotificationRepository
	Threads       repositories.ThreadRepository
	Messages      repositories.MessageRepository
}

// Deps is everything RegisterRoutes wires together
type Deps struct {
	Repos         Repositories
	Cache         services.Cache
	FirebaseAuth  handlers.TokenVerifier
	JWTSecret     string
	SuggestionTTL time.Duration
	HealthChecks  map[string]handlers.HealthCheck
}

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	e.Use(middleware.RequestLogger())
	e.Use(metrics.Middleware())
	log.Info().Msg("Global middleware configured")
}

// Migrate runs the PostgreSQL auto-migrations
func Migrate(pgdb *gorm.DB) error {
	err := pgdb.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.Block{},
		&models.Like{},
		&models.Comment{},
		&models.CommentLike{},
		&models.Notification{},
		&models.Thread{},
		&models.Message{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	log.Info().Msg("PostgreSQL auto-migrations completed for all models")
	return nil
}

// PersistentRepositories builds the PostgreSQL and MongoDB backed stores
func PersistentRepositories(pgdb *gorm.DB, mdb *mongo.Database) Repositories {
	return Repositories{
		Users:         repositories.NewPostgresUserRepository(pgdb),
		Follows:       repositories.NewPostgresFollowRepository(pgdb),
		Blocks:        repositories.NewPostgresBlockRepository(pgdb),
		Memes:         repositories.NewMongoMemeRepository(mdb),
		Likes:         repositories.NewPostgresLikeRepository(pgdb),
		Comments:      repositories.NewPostgresCommentRepository(pgdb),
		CommentLikes:  repositories.NewPostgresCommentLikeRepository(pgdb),
		Notifications: repositories.NewPostgresNotificationRepository(pgdb),
		Threads:       repositories.NewPostgresThreadRepository(pgdb),
		Messages:      repositories.NewPostgresMessageRepository(pgdb),
	}
}

// DatabaseChecks returns health checks that ping both databases
func DatabaseChecks(pgdb *gorm.DB, mgClient *mongo.Client) map[string]handlers.HealthCheck {
	return map[string]handlers.HealthCheck{
		"postgres": func(ctx context.Context) error {
			sqlDB, err := pgdb.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		"mongo": func(ctx context.Context) error {
			return mgClient.Ping(ctx, nil)
		},
	}
}

// RegisterRoutes configures all application routes and injects dependencies
func RegisterRoutes(e *echo.Echo, deps Deps) {
	r := deps.Repos

	// --- Services ---
	notifier := services.NewNotifier(r.Notifications)
	suggestionService := services.NewSuggestionService(r.Users, r.Follows, r.Likes, deps.Cache, deps.SuggestionTTL)
	feedService := services.NewFeedService(r.Memes, r.Follows, r.Likes, r.Comments)
	inboxService := services.NewInboxService(r.Threads, r.Messages, r.Follows, r.Users, r.Memes)

	// Health check - always accessible
	e.GET("/health", handlers.NewHealthHandler(deps.HealthChecks).Health)

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	handlers.NewAuthHandler(r.Users, deps.FirebaseAuth, deps.JWTSecret).RegisterAuthRoutes(authGroup)
	log.Info().Msg("Auth routes configured")

	api := e.Group("/api/v1")
	// Routes anonymous viewers may use; a valid token personalises them
	public := api.Group("", middleware.OptionalJWTAuthMiddleware(deps.JWTSecret))
	// Routes that require JWT authentication
	protected := api.Group("", middleware.JWTAuthMiddleware(deps.JWTSecret))

	userHandler := handlers.NewUserHandler(r.Users, r.Follows, r.Blocks, r.Memes)
	userHandler.RegisterProfileRoutes(protected)
	userHandler.RegisterPublicRoutes(public)
	log.Info().Msg("User profile routes configured")

	handlers.NewSearchHandler(r.Users, r.Memes).RegisterSearchRoutes(public)
	log.Info().Msg("Search routes configured")

	handlers.NewFollowHandler(r.Follows, r.Users, notifier, suggestionService).RegisterFollowRoutes(protected)
	handlers.NewBlockHandler(r.Blocks, r.Users).RegisterBlockRoutes(protected)
	log.Info().Msg("Follow and block routes configured")

	memeHandler := handlers.NewMemeHandler(r.Memes, r.Users, r.Likes, r.Comments, r.CommentLikes)
	memeHandler.RegisterMemeRoutes(protected)
	memeHandler.RegisterPublicRoutes(public)
	log.Info().Msg("Meme routes configured")

	handlers.NewLikeHandler(r.Likes, r.Memes, r.Users, notifier, suggestionService).RegisterLikeRoutes(protected)
	log.Info().Msg("Like routes configured")

	commentHandler := handlers.NewCommentHandler(r.Comments, r.CommentLikes, r.Memes, r.Users, notifier)
	commentHandler.RegisterCommentRoutes(protected)
	commentHandler.RegisterPublicRoutes(public)
	log.Info().Msg("Comment routes configured")

	handlers.NewFeedHandler(feedService, r.Users, r.Likes).RegisterFeedRoutes(public)
	handlers.NewSuggestionHandler(suggestionService).RegisterSuggestionRoutes(public)
	log.Info().Msg("Feed and suggestion routes configured")

	handlers.NewNotificationHandler(r.Notifications, r.Users).RegisterNotificationRoutes(protected)
	log.Info().Msg("Notification routes configured")

	handlers.NewInboxHandler(inboxService, r.Users).RegisterInboxRoutes(protected)
	handlers.NewCountersHandler(inboxService, r.Notifications).RegisterCounterRoutes(public)
	log.Info().Msg("Inbox routes configured")

	log.Info().Int("routes", len(e.Routes())).Msg("All routes configured")
}

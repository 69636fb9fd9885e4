package handlers

import (
	"net/http"
	"time"

	"github.com/anonto42/memepie/backend/internal/models"
	"github.com/anonto42/memepie/backend/internal/repositories"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

// UserHandler handles profile and settings requests
type UserHandler struct {
	userRepository   repositories.UserRepository
	followRepository repositories.FollowRepository
	blockRepository  repositories.BlockRepository
	memeRepository   repositories.MemeRepository
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userRepo repositories.UserRepository, followRepo repositories.FollowRepository, blockRepo repositories.BlockRepository, memeRepo repositories.MemeRepository) *UserHandler {
	return &UserHandler{
		userRepository:   userRepo,
		followRepository: followRepo,
		blockRepository:  blockRepo,
		memeRepository:   memeRepo,
	}
}

// RegisterProfileRoutes registers routes that need an authenticated user
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/me", h.GetMe)
	g.PUT("/me", h.UpdateMe)
	g.PUT("/settings/password", h.ChangePassword)
}

// RegisterPublicRoutes registers profile routes open to anonymous viewers
func (h *UserHandler) RegisterPublicRoutes(g *echo.Group) {
	g.GET("/users/:username", h.GetProfile)
	g.GET("/users/:username/followers", h.GetFollowers)
	g.GET("/users/:username/following", h.GetFollowing)
}

// PublicUser is a profile without private fields
type PublicUser struct {
	models.UserCompact
	Bio       string    `json:"bio"`
	CreatedAt time.Time `json:"created_at"`
}

func toPublic(u *models.User) PublicUser {
	return PublicUser{UserCompact: u.ToCompact(), Bio: u.Bio, CreatedAt: u.CreatedAt}
}

func compactUsers(users []models.User) []models.UserCompact {
	out := make([]models.UserCompact, len(users))
	for i := range users {
		out[i] = users[i].ToCompact()
	}
	return out
}

// GetProfile returns a user's page: memes, counts and the viewer's relation to them
func (h *UserHandler) GetProfile(c echo.Context) error {
	ctx := c.Request().Context()
	user, err := h.userRepository.GetUserByUsername(ctx, c.Param("username"))
	if err != nil {
		return httpError(err, "User")
	}

	memes, err := h.memeRepository.GetMemesByAuthorIDs(ctx, []uint{user.ID})
	if err != nil {
		return httpError(err, "User")
	}
	if memes == nil {
		memes = []models.Meme{}
	}
	followers, err := h.followRepository.GetFollowersCount(ctx, user.ID)
	if err != nil {
		return httpError(err, "User")
	}
	following, err := h.followRepository.GetFollowingCount(ctx, user.ID)
	if err != nil {
		return httpError(err, "User")
	}

	isFollowing, isBlocked := false, false
	if viewerID := getUserIDFromContext(c); viewerID != 0 && viewerID != user.ID {
		if isFollowing, err = h.followRepository.IsFollowing(ctx, viewerID, user.ID); err != nil {
			return httpError(err, "User")
		}
		if isBlocked, err = h.blockRepository.IsBlocked(ctx, viewerID, user.ID); err != nil {
			return httpError(err, "User")
		}
	}

	return success(c, http.StatusOK, echo.Map{
		"user":            toPublic(user),
		"memes":           memes,
		"memes_count":     len(memes),
		"followers_count": followers,
		"following_count": following,
		"is_following":    isFollowing,
		"is_blocked":      isBlocked,
	})
}

func (h *UserHandler) GetFollowers(c echo.Context) error {
	ctx := c.Request().Context()
	user, err := h.userRepository.GetUserByUsername(ctx, c.Param("username"))
	if err != nil {
		return httpError(err, "User")
	}
	users, err := h.followRepository.GetFollowers(ctx, user.ID)
	if err != nil {
		return httpError(err, "User")
	}
	return success(c, http.StatusOK, echo.Map{"users": compactUsers(users)})
}

func (h *UserHandler) GetFollowing(c echo.Context) error {
	ctx := c.Request().Context()
	user, err := h.userRepository.GetUserByUsername(ctx, c.Param("username"))
	if err != nil {
		return httpError(err, "User")
	}
	users, err := h.followRepository.GetFollowing(ctx, user.ID)
	if err != nil {
		return httpError(err, "User")
	}
	return success(c, http.StatusOK, echo.Map{"users": compactUsers(users)})
}

// GetMe retrieves the authenticated user's profile
func (h *UserHandler) GetMe(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	user, err := h.userRepository.GetUserByID(c.Request().Context(), userID)
	if err != nil {
		return httpError(err, "User profile")
	}
	return success(c, http.StatusOK, user)
}

// UpdateMe updates the authenticated user's names, bio and avatar
func (h *UserHandler) UpdateMe(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	var req models.UpdateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	user, err := h.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		return httpError(err, "User profile")
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.AvatarURL != nil {
		user.AvatarURL = *req.AvatarURL
	}

	if err := h.userRepository.UpdateUser(ctx, user); err != nil {
		return httpError(err, "User profile")
	}
	return success(c, http.StatusOK, user)
}

// ChangePassword replaces the password after checking the old one
func (h *UserHandler) ChangePassword(c echo.Context) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}
	var req models.ChangePasswordRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	user, err := h.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		return httpError(err, "User profile")
	}
	if user.Password == "" || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.OldPassword)) != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Old password is incorrect")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password")
	}
	user.Password = string(hashed)
	if err := h.userRepository.UpdateUser(ctx, user); err != nil {
		return httpError(err, "User profile")
	}
	return success(c, http.StatusOK, echo.Map{"password_changed": true})
}

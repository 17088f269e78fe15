package service

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/okastudio/tripsplit/internal/auth"
	"github.com/okastudio/tripsplit/internal/middleware"
	"github.com/okastudio/tripsplit/internal/models"
)

// AuthService implements the registration and login endpoints.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	users         auth.UserStorage
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, users auth.UserStorage) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		users:         users,
	}
}

// RegisterRoutes mounts the auth endpoints on the given router.
func (s *AuthService) RegisterRoutes(r fiber.Router, requireAuth fiber.Handler) {
	r.Post("/auth/register", s.Register)
	r.Post("/auth/login", s.Login)
	r.Get("/auth/me", requireAuth, s.Me)
}

type registerRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Password    string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	CreatedAt   int64  `json:"created_at"`
}

type sessionResponse struct {
	User  userResponse `json:"user"`
	Token string       `json:"token"`
}

func toUserResponse(user *models.User) userResponse {
	return userResponse{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		CreatedAt:   user.CreatedAt,
	}
}

// Register creates a new user account and returns a session token.
func (s *AuthService) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" || req.DisplayName == "" {
		return fiber.NewError(fiber.StatusBadRequest, "email and display_name are required")
	}

	user, err := s.authenticator.Register(c.Context(), req.Email, req.DisplayName, req.Password)
	if err != nil {
		slog.Warn("registration failed", "email", req.Email, "error", err)
		switch {
		case errors.Is(err, auth.ErrEmailExists):
			return fiber.NewError(fiber.StatusConflict, err.Error())
		case errors.Is(err, auth.ErrWeakPassword):
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		default:
			return fiber.NewError(fiber.StatusInternalServerError, "registration failed")
		}
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		slog.Error("failed to generate token", "user_id", user.ID, "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "registration failed")
	}

	slog.Info("user registered", "user_id", user.ID, "email", user.Email)
	return c.Status(fiber.StatusCreated).JSON(sessionResponse{User: toUserResponse(user), Token: token})
}

// Login authenticates a user and returns a session token.
func (s *AuthService) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return fiber.NewError(fiber.StatusBadRequest, "email and password are required")
	}

	user, err := s.authenticator.Authenticate(c.Context(), req.Email, req.Password)
	if err != nil {
		slog.Warn("login failed", "email", req.Email, "error", err)
		return fiber.NewError(fiber.StatusUnauthorized, auth.ErrInvalidCredentials.Error())
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		slog.Error("failed to generate token", "user_id", user.ID, "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "login failed")
	}

	slog.Info("user logged in", "user_id", user.ID)
	return c.JSON(sessionResponse{User: toUserResponse(user), Token: token})
}

// Me returns the currently authenticated user.
func (s *AuthService) Me(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	user, err := s.users.GetUserByID(c.Context(), userID)
	if err != nil {
		slog.Error("failed to load current user", "user_id", userID, "error", err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load user")
	}
	if user == nil {
		return fiber.NewError(fiber.StatusUnauthorized, "account no longer exists")
	}

	return c.JSON(toUserResponse(user))
}

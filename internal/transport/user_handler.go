package transport

import (
	"errors"
	"net/http"

	"butcher-shop/internal/domain"
	"butcher-shop/internal/middleware"
	"butcher-shop/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type (
	RegisterRequest struct {
		Email     string `json:"email" validate:"required,email"`
		Password  string `json:"password" validate:"required,min=8"`
		FirstName string `json:"first_name" validate:"required"`
		LastName  string `json:"last_name" validate:"required"`
	}

	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	// RefreshRequest is the body of both /refresh and /logout
	RefreshRequest struct {
		RefreshToken string `json:"refresh_token" validate:"required"`
	}

	ProfileRequest struct {
		FirstName string `json:"first_name" validate:"required"`
		LastName  string `json:"last_name" validate:"required"`
		Phone     string `json:"phone" validate:"omitempty,max=20"`
	}
)

type (
	LoginResponse struct {
		AccessToken  string      `json:"access_token"`
		RefreshToken string      `json:"refresh_token"`
		User         UserProfile `json:"user"`
	}

	RefreshResponse struct {
		AccessToken string `json:"access_token"`
	}

	// UserProfile is a user as shown to its owner; the password hash never leaves the service
	UserProfile struct {
		ID        string `json:"id"`
		Email     string `json:"email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Phone     string `json:"phone,omitempty"`
		Role      string `json:"role"`
	}
)

func profileOf(user *domain.User) UserProfile {
	return UserProfile{
		ID:        user.ID.String(),
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Phone:     user.Phone,
		Role:      user.Role,
	}
}

// respondAccountError maps credential and token failures to 401 and the
// rest through respondServiceError
func respondAccountError(w http.ResponseWriter, logger *zap.Logger, err error, action string) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		middleware.RespondWithError(w, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, service.ErrInvalidToken):
		middleware.RespondWithError(w, http.StatusUnauthorized, "invalid refresh token")
	case errors.Is(err, service.ErrTokenExpired):
		middleware.RespondWithError(w, http.StatusUnauthorized, "refresh token expired")
	default:
		respondServiceError(w, logger, err, action)
	}
}

// UserHandler serves /api/users
type UserHandler struct {
	userService service.UserService
	logger      *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

func (h *UserHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/users", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/refresh", h.RefreshToken)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/logout", h.Logout)
			r.Get("/profile", h.GetProfile)
			r.Put("/profile", h.UpdateProfile)
		})
	})
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	user, err := h.userService.Register(r.Context(), req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		respondAccountError(w, h.logger, err, "register user")
		return
	}

	h.logger.Info("Account created", zap.Stringer("user_id", user.ID))
	middleware.RespondWithJSON(w, http.StatusCreated, profileOf(user))
}

// Login answers 401 for an unknown email or a wrong password alike
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	accessToken, refreshToken, user, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondAccountError(w, h.logger, err, "login")
		return
	}

	h.logger.Info("Session opened", zap.Stringer("user_id", user.ID), zap.String("role", user.Role))
	middleware.RespondWithJSON(w, http.StatusOK, LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         profileOf(user),
	})
}

// Logout revokes the submitted refresh token
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	if err := h.userService.Logout(r.Context(), req.RefreshToken); err != nil {
		respondAccountError(w, h.logger, err, "logout")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "logged out successfully"})
}

func (h *UserHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	newAccessToken, err := h.userService.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		respondAccountError(w, h.logger, err, "refresh token")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, RefreshResponse{AccessToken: newAccessToken})
}

// GetProfile returns the authenticated user's profile
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	user, err := h.userService.GetUserByID(r.Context(), userID)
	if err != nil {
		respondServiceError(w, h.logger, err, "get user profile")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, profileOf(user))
}

// UpdateProfile changes name and phone of the authenticated user
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}

	var req ProfileRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithDecodeError(w, err)
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), userID, service.ProfileInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		respondServiceError(w, h.logger, err, "update user profile")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, profileOf(user))
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dom/techxchange/internal/api/respond"
	"github.com/dom/techxchange/internal/domain"
	"github.com/dom/techxchange/internal/service"
	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 1 << 20

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Token    string `json:"token"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID.String(),
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role.String(),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func newAuthResponse(result *service.AuthResult) AuthResponse {
	return AuthResponse{
		ID:       result.User.ID.String(),
		Username: result.User.Username,
		Email:    result.User.Email,
		Role:     result.User.Role.String(),
		Token:    result.Token,
	}
}

func readJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

// decodeJSON reads a bounded JSON body into v. It writes the 400 itself and
// reports whether the handler should continue.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := readJSON(w, r, v); err != nil {
		respond.Message(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.authService.Register(r.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		if errors.Is(err, service.ErrUserExists) {
			log.Info().Str("username", req.Username).Msg("registration rejected: user exists")
		}
		respond.Error(w, r, err)
		return
	}

	log.Info().Str("user_id", result.User.ID.String()).Str("role", result.User.Role.String()).Msg("user registered")
	respond.JSON(w, http.StatusCreated, newAuthResponse(result))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	// An unreadable body is one more failed login.
	var req LoginRequest
	if err := readJSON(w, r, &req); err != nil {
		respond.Error(w, r, service.ErrInvalidCredentials)
		return
	}

	result, err := h.authService.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			log.Info().Str("remote_addr", r.RemoteAddr).Msg("failed login attempt")
		}
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, newAuthResponse(result))
}

// Profile returns the identity the Gate resolved for this request.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request, user *domain.User) {
	respond.JSON(w, http.StatusOK, newUserResponse(user))
}

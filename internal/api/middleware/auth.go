package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dom/techxchange/internal/api/respond"
	"github.com/dom/techxchange/internal/auth"
	"github.com/dom/techxchange/internal/domain"
	"github.com/dom/techxchange/internal/service"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

type contextKey string

const (
	UserKey contextKey = "user"
)

// Rejection messages. Every token problem shares one message.
const (
	MsgNoToken      = "Not authorized, no token provided"
	MsgTokenFailed  = "Not authorized, token failed"
	MsgUserNotFound = "Not authorized, user not found"
)

// AuthenticatedHandlerFunc receives the identity resolved by the Gate. Handlers
// with this signature cannot be mounted without authentication.
type AuthenticatedHandlerFunc func(w http.ResponseWriter, r *http.Request, user *domain.User)

// Gate authenticates requests: bearer token -> verified subject -> current
// user record. Authorization always runs after it.
type Gate struct {
	authService *service.AuthService
}

func NewGate(authService *service.AuthService) *Gate {
	return &Gate{authService: authService}
}

// Protect wraps h so it only runs with an authenticated user. The user is
// also attached to the request context for code further down the chain.
func (g *Gate) Protect(h AuthenticatedHandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := g.authenticate(w, r)
		if !ok {
			return
		}

		ctx := context.WithValue(r.Context(), UserKey, user)
		h(w, r.WithContext(ctx), user)
	})
}

// Require is Protect plus a role check.
func (g *Gate) Require(allowed auth.RoleSet, h AuthenticatedHandlerFunc) http.Handler {
	return g.Protect(func(w http.ResponseWriter, r *http.Request, user *domain.User) {
		if err := auth.Authorize(user, allowed); err != nil {
			log.Warn().
				Str("user_id", user.ID.String()).
				Str("role", user.Role.String()).
				Str("path", r.URL.Path).
				Msg("role not authorized")
			respond.Error(w, r, err)
			return
		}
		h(w, r, user)
	})
}

func (g *Gate) authenticate(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	reqID := chiMiddleware.GetReqID(r.Context())

	token, ok := bearerToken(r)
	if !ok {
		respond.Message(w, http.StatusUnauthorized, MsgNoToken)
		return nil, false
	}

	identity, err := g.authService.ValidateToken(token)
	if err != nil {
		log.Warn().Str("request_id", reqID).Str("remote_addr", r.RemoteAddr).Msg("token verification failed")
		respond.Message(w, http.StatusUnauthorized, MsgTokenFailed)
		return nil, false
	}

	user, err := g.authService.GetUserByID(r.Context(), identity.Subject)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			log.Warn().Str("request_id", reqID).Str("user_id", identity.Subject.String()).Msg("token subject no longer exists")
			respond.Message(w, http.StatusUnauthorized, MsgUserNotFound)
			return nil, false
		}
		respond.Error(w, r, err)
		return nil, false
	}

	return user, true
}

// bearerToken extracts the credential from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

func GetUser(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(UserKey).(*domain.User)
	return user, ok && user != nil
}

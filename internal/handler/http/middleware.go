package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"

	"github.com/GabrielMhv/D-Market-sub000/internal/user"
)

type contextKey string

const (
	claimsKey  contextKey = "claims"
	tokenKey   contextKey = "token"
	sessionKey contextKey = "cart_session"

	SessionHeader = "X-Cart-Session"
	SessionCookie = "cart_session"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*user.Claims, error)
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// Authenticate rejects requests without a valid, unrevoked bearer token.
func Authenticate(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				respondWithError(w, http.StatusUnauthorized, "Missing bearer token")
				return
			}

			claims, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				log.Warn().Err(err).Str("path", r.URL.Path).Msg("Rejected bearer token")
				respondWithServiceError(w, err, "Failed to authenticate")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			ctx = context.WithValue(ctx, tokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin must run after Authenticate.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFrom(r.Context())
		if claims == nil {
			respondWithError(w, http.StatusUnauthorized, errUnauthorized.Error())
			return
		}
		if claims.Role != user.RoleAdmin {
			respondWithError(w, http.StatusForbidden, errForbidden.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

func claimsFrom(ctx context.Context) *user.Claims {
	claims, _ := ctx.Value(claimsKey).(*user.Claims)
	return claims
}

func tokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}

// CartSession resolves the cart session from the header or cookie and issues
// a new one when neither is present or well formed.
func CartSession(cookieTTL time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := r.Header.Get(SessionHeader)
			if session == "" {
				if c, err := r.Cookie(SessionCookie); err == nil {
					session = c.Value
				}
			}

			if _, err := uuid.FromString(session); err != nil {
				session = uuid.Must(uuid.NewV4()).String()
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookie,
					Value:    session,
					Path:     "/",
					MaxAge:   int(cookieTTL.Seconds()),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
				log.Debug().Str("session_id", session).Msg("Issued cart session")
			}
			w.Header().Set(SessionHeader, session)

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, session)))
		})
	}
}

func sessionFrom(ctx context.Context) string {
	session, _ := ctx.Value(sessionKey).(string)
	return session
}

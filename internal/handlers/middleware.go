package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"streamsphere-api/internal/models"
	"streamsphere-api/internal/repository"
	"streamsphere-api/internal/responses"
	"streamsphere-api/internal/utils"

	"golang.org/x/time/rate"
)

type contextKey string

const (
	sessionKey contextKey = "session"
)

// SessionMiddleware attaches the caller's session to the request context when
// a valid token is presented. It never rejects a request itself.
func SessionMiddleware(jwtUtil *utils.JWTUtil, sessions SessionStore, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := sessionToken(r, cookieName)
			if tokenString == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := jwtUtil.ValidateToken(tokenString)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			session, err := sessions.Get(r.Context(), claims.Id)
			if err != nil {
				if !errors.Is(err, repository.ErrNotFound) {
					log.Printf("Session lookup failed: %v", err)
				}
				next.ServeHTTP(w, r)
				return
			}

			if session.UserID != claims.UserID || session.Expired(time.Now()) {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionToken(r *http.Request, cookieName string) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		if token := strings.TrimPrefix(authHeader, "Bearer "); token != authHeader {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(cookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// GetSession returns the session attached by SessionMiddleware, if any.
func GetSession(r *http.Request) (*models.Session, bool) {
	session, ok := r.Context().Value(sessionKey).(*models.Session)
	return session, ok && session != nil
}

// RequireSession fails closed with 401 when no session is attached.
func RequireSession(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetSession(r); !ok {
			responses.SendErrorResponse(w, http.StatusUnauthorized, "Authentication required", responses.CodeUnauthorized)
			return
		}
		next(w, r)
	}
}

func RateLimitMiddleware(limiter *rate.Limiter) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				responses.SendErrorResponse(w, http.StatusTooManyRequests, "Too many requests. Please try again later.", responses.CodeRateLimited)
				return
			}
			next(w, r)
		}
	}
}

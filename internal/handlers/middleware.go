package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"strings"
	"time"

	"resourceroom/internal/models"
	"resourceroom/internal/security"
	"resourceroom/internal/service"
	"resourceroom/internal/validation"

	"github.com/google/uuid"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	TeacherContextKey   ContextKey = "teacher"
	RequestIDContextKey ContextKey = "requestID"
)

// Authenticator resolves a bearer token to an active teacher
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Teacher, error)
}

// Middleware holds dependencies for middleware functions
type Middleware struct {
	auth           Authenticator
	limiter        *security.RateLimiter
	allowedOrigins map[string]bool
}

// NewMiddleware creates a new middleware instance. limiter may be nil.
func NewMiddleware(auth Authenticator, limiter *security.RateLimiter, allowedOrigins []string) *Middleware {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[strings.TrimRight(o, "/")] = true
	}
	return &Middleware{
		auth:           auth,
		limiter:        limiter,
		allowedOrigins: origins,
	}
}

// RequireTeacher rejects requests without a valid bearer token for an active teacher
func (m *Middleware) RequireTeacher(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			respondWithMessage(w, http.StatusUnauthorized, ErrUnauthorized, "Missing bearer token")
			return
		}

		teacher, err := m.auth.Authenticate(r.Context(), strings.TrimSpace(token))
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondWithMessage(w, http.StatusUnauthorized, ErrUnauthorized, "Invalid or expired token")
			return
		}
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Failed to authenticate request", err)
			return
		}

		ctx := context.WithValue(r.Context(), TeacherContextKey, teacher)
		next(w, r.WithContext(ctx))
	}
}

// RateLimit throttles a handler per client IP
func (m *Middleware) RateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.limiter != nil {
			ip := security.GetClientIP(r)
			if !m.limiter.Allow(ip) {
				retry := int(math.Ceil(m.limiter.RetryAfter(ip).Seconds()))
				w.Header().Set("Retry-After", fmt.Sprintf("%d", retry))
				respondWithError(w, http.StatusTooManyRequests, ErrTooManyRequests, "", nil)
				return
			}
		}
		next(w, r)
	}
}

// CORS allows credentialed requests from the configured frontend origins
func (m *Middleware) CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && m.allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequestID tags every request with an ID, reusing one supplied by a proxy
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), RequestIDContextKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		id, _ := r.Context().Value(RequestIDContextKey).(string)
		log.Printf("%s %s %d %s [%s]", r.Method, r.URL.Path, rec.status, time.Since(start), id)
	})
}

// GetTeacherFromContext retrieves the authenticated teacher from the request context
func GetTeacherFromContext(ctx context.Context) *models.Teacher {
	teacher, ok := ctx.Value(TeacherContextKey).(*models.Teacher)
	if !ok {
		return nil
	}
	return teacher
}

// decodeJSON reads a request body into dst and validates its tags
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		respondWithMessage(w, http.StatusBadRequest, ErrInvalidJSON, err.Error())
		return false
	}
	if err := validation.Struct(dst); err != nil {
		respondWithServiceError(w, err, "")
		return false
	}
	return true
}

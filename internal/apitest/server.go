// Package apitest is an in-memory implementation of the journaling backend's
// REST surface. Tests point the api client at it through httptest; the CLI's
// fakeapi command serves it for local development.
package apitest

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"spinlog/internal/models"
)

// Options configures a Server.
type Options struct {
	// JWTSecret signs the session tokens issued by the auth routes.
	JWTSecret string
	// RequireAuth rejects writes without a valid bearer token.
	RequireAuth bool
	// TokenTTL bounds issued tokens. Zero means 30 days.
	TokenTTL time.Duration
	// Now overrides the clock used for created_at and token expiry.
	Now func() time.Time
}

type account struct {
	user         models.User
	passwordHash []byte
}

type voteSet struct {
	up   []string
	down []string
}

type injected struct {
	status  int
	message string
}

// Server holds the backend state behind a mutex.
type Server struct {
	opts Options

	mu        sync.Mutex
	accounts  map[string]*account // by user id
	byEmail   map[string]string
	reviews   []*models.Review
	votes     map[models.ID]*voteSet
	comments  map[models.ID][]models.Comment
	follows   map[string][]models.Follow
	favorites map[string][]models.Favorite
	lists     []*models.List
	failures  map[string][]injected
	calls     map[string]int
	hooks     map[string]func()
}

// New constructs an empty backend.
func New(opts Options) *Server {
	if opts.JWTSecret == "" {
		opts.JWTSecret = "apitest-secret-please-change"
	}
	if opts.TokenTTL == 0 {
		opts.TokenTTL = 30 * 24 * time.Hour
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Server{
		opts:      opts,
		accounts:  make(map[string]*account),
		byEmail:   make(map[string]string),
		votes:     make(map[models.ID]*voteSet),
		comments:  make(map[models.ID][]models.Comment),
		follows:   make(map[string][]models.Follow),
		favorites: make(map[string][]models.Favorite),
		failures:  make(map[string][]injected),
		calls:     make(map[string]int),
		hooks:     make(map[string]func()),
	}
}

// Routes exposes the REST handlers.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/register", s.handleRegister)

	r.Get("/user/{userId}", s.handleProfile)
	r.Get("/review/{spotifyId}", s.handleListReviews)
	r.Get("/review/score/{reviewId}", s.handleScore)
	r.Get("/review/comments/{reviewId}", s.handleListComments)
	r.Get("/list/user/{userId}", s.handleListLists)

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)
		r.Put("/user/{userId}", s.handleUpdateUser)
		r.Post("/review/vote", s.handleVote)
		r.Post("/review/comment", s.handleAddComment)
		r.Post("/review/{userId}", s.handleSaveReview)
		r.Post("/list", s.handleCreateList)
		r.Put("/list/{listId}/items", s.handleReorderList)
	})

	return r
}

// FailNext makes the next call to op answer with status and message.
// Operation names match the api client's ("review.vote", "user.profile", ...).
func (s *Server) FailNext(op string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = append(s.failures[op], injected{status: status, message: message})
}

// Hook runs fn at the start of every call to op, outside the state lock.
func (s *Server) Hook(op string, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn == nil {
		delete(s.hooks, op)
		return
	}
	s.hooks[op] = fn
}

// Calls returns how many times op has been requested.
func (s *Server) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// enter counts the call, runs hooks and applies injected failures. It reports
// false when the response has already been written.
func (s *Server) enter(w http.ResponseWriter, op string) bool {
	s.mu.Lock()
	s.calls[op]++
	hook := s.hooks[op]
	var fail *injected
	if queue := s.failures[op]; len(queue) > 0 {
		fail = &queue[0]
		s.failures[op] = queue[1:]
	}
	s.mu.Unlock()

	if hook != nil {
		hook()
	}
	if fail != nil {
		writeJSON(w, fail.status, errorResponse{Error: fail.message})
		return false
	}
	return true
}

func (s *Server) now() time.Time {
	return s.opts.Now().UTC()
}

func newID() models.ID {
	return models.ID(uuid.NewString())
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON payload"})
		return false
	}
	return true
}

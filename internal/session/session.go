// Package session holds the signed-in user, their token and cached profile,
// persisted across restarts in a storage.KV.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"spinlog/internal/logging"
	"spinlog/internal/models"
	"spinlog/internal/storage"
)

// Persisted keys.
const (
	KeyToken   = "userToken"
	KeyUser    = "user"
	KeyProfile = "userProfile"
)

var allKeys = []string{KeyToken, KeyUser, KeyProfile}

var (
	// ErrNotSignedIn is returned by operations that need a current user.
	ErrNotSignedIn = errors.New("not signed in")
	// ErrProfileMissing is returned when the profile endpoint answers with no rows.
	ErrProfileMissing = errors.New("profile not found")
	// ErrInvalidSession is returned when SignIn is given an empty token or user.
	ErrInvalidSession = errors.New("token and user id are required")
)

// State is the store's lifecycle position.
type State int

const (
	Uninitialized State = iota
	Loading
	Authenticated
	Anonymous
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Loading:
		return "loading"
	case Authenticated:
		return "authenticated"
	case Anonymous:
		return "anonymous"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Backend fetches the profile aggregate.
type Backend interface {
	UserProfile(ctx context.Context, userID string) ([]models.Profile, error)
}

// Store is the process-wide session. Reads may happen from anywhere; writes
// (Restore, SignIn, UpdateUserProfile, SignOut) run one at a time.
type Store struct {
	kv      storage.KV
	backend Backend
	log     *logging.Logger
	now     func() time.Time

	write sync.Mutex // held for the whole of a write operation

	mu      sync.RWMutex
	state   State
	token   string
	user    *models.User
	profile *models.Profile
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Store) { s.log = logging.OrNop(l).With("session") }
}

// WithClock overrides the clock used for token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New constructs an Uninitialized store.
func New(kv storage.KV, backend Backend, opts ...Option) *Store {
	s := &Store{
		kv:      kv,
		backend: backend,
		log:     logging.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the lifecycle position.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsLoading reports whether Restore has not finished yet.
func (s *Store) IsLoading() bool {
	st := s.State()
	return st == Uninitialized || st == Loading
}

// Token returns the session token, or "". It satisfies api.TokenSource.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns a copy of the signed-in user, or nil.
func (s *Store) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// UserID returns the signed-in user's id, or "".
func (s *Store) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return ""
	}
	return s.user.ID
}

// Profile returns the cached profile, or nil.
func (s *Store) Profile() *models.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return nil
	}
	p := *s.profile
	return &p
}

// Restore loads the persisted triple. It runs once; later calls are no-ops.
// Every failure is logged and ends in Anonymous.
func (s *Store) Restore(ctx context.Context) State {
	s.write.Lock()
	defer s.write.Unlock()

	s.mu.Lock()
	if s.state != Uninitialized {
		st := s.state
		s.mu.Unlock()
		return st
	}
	s.state = Loading
	s.mu.Unlock()

	token, user, profile, err := s.readPersisted(ctx)
	if err != nil {
		s.log.ReadFailed(ctx, "session.restore", err)
		token = ""
	}

	if token != "" && s.expired(token) {
		s.log.Info("persisted session token expired, signing out")
		if err := s.kv.Delete(ctx, allKeys...); err != nil {
			s.log.Error(err, "clear expired session")
		}
		token = ""
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if token == "" {
		s.state = Anonymous
		s.token, s.user, s.profile = "", nil, nil
		return s.state
	}
	s.state = Authenticated
	s.token, s.user, s.profile = token, user, profile
	return s.state
}

func (s *Store) readPersisted(ctx context.Context) (string, *models.User, *models.Profile, error) {
	token, ok, err := s.kv.Get(ctx, KeyToken)
	if err != nil || !ok {
		return "", nil, nil, err
	}

	var user *models.User
	if raw, ok, err := s.kv.Get(ctx, KeyUser); err != nil {
		return "", nil, nil, err
	} else if ok {
		user = &models.User{}
		if err := json.Unmarshal([]byte(raw), user); err != nil {
			return "", nil, nil, fmt.Errorf("decode persisted user: %w", err)
		}
	}

	var profile *models.Profile
	if raw, ok, err := s.kv.Get(ctx, KeyProfile); err != nil {
		return "", nil, nil, err
	} else if ok {
		profile = &models.Profile{}
		if err := json.Unmarshal([]byte(raw), profile); err != nil {
			// A stale profile is refetchable; keep the session.
			s.log.WithContext(ctx).Warn().Err(err).Msg("discarding unreadable persisted profile")
			profile = nil
		}
	}

	return token, user, profile, nil
}

// expired reports whether token is a JWT whose exp has passed. Opaque
// tokens never expire client-side.
func (s *Store) expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.Time.After(s.now())
}

// SignIn persists token and user, fetches and persists the profile, and
// moves to Authenticated. If any step fails the persisted entries and the
// in-memory state are left as they were before the call.
func (s *Store) SignIn(ctx context.Context, token string, user models.User) error {
	if token == "" || user.ID == "" {
		return ErrInvalidSession
	}

	s.write.Lock()
	defer s.write.Unlock()

	ctx = logging.ContextWithUserID(ctx, user.ID)

	userJSON, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	prior := s.snapshotPersisted(ctx)
	rollback := func() {
		if err := prior.restore(ctx, s.kv); err != nil {
			s.log.Error(err, "roll back session entries")
		}
	}

	if err := s.kv.Set(ctx, KeyToken, token); err != nil {
		rollback()
		return fmt.Errorf("persist token: %w", err)
	}
	if err := s.kv.Set(ctx, KeyUser, string(userJSON)); err != nil {
		rollback()
		return fmt.Errorf("persist user: %w", err)
	}

	profile, err := s.fetchProfile(ctx, user.ID)
	if err != nil {
		rollback()
		return err
	}
	if err := s.persistProfile(ctx, profile); err != nil {
		rollback()
		return err
	}

	s.mu.Lock()
	s.state = Authenticated
	s.token = token
	s.user = &user
	s.profile = profile
	s.mu.Unlock()

	s.log.WithContext(ctx).Info().Msg("signed in")
	return nil
}

// UpdateUserProfile stores profile as-is when non-nil. Otherwise it refetches
// the current user's profile and stores the first row; that path returns
// network and lookup errors to the caller.
func (s *Store) UpdateUserProfile(ctx context.Context, profile *models.Profile) error {
	s.write.Lock()
	defer s.write.Unlock()

	if profile != nil {
		p := *profile
		if err := s.persistProfile(ctx, &p); err != nil {
			s.log.Error(err, "persist explicit profile")
		}
		s.mu.Lock()
		s.profile = &p
		s.mu.Unlock()
		return nil
	}

	userID := s.UserID()
	if userID == "" {
		return ErrNotSignedIn
	}
	ctx = logging.ContextWithUserID(ctx, userID)

	fetched, err := s.fetchProfile(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.persistProfile(ctx, fetched); err != nil {
		s.log.Error(err, "persist refreshed profile")
	}

	s.mu.Lock()
	s.profile = fetched
	s.mu.Unlock()
	return nil
}

// SignOut clears the persisted entries and resets to Anonymous. Calling it
// while signed out is harmless. In-memory state is cleared even when the
// storage delete fails.
func (s *Store) SignOut(ctx context.Context) error {
	s.write.Lock()
	defer s.write.Unlock()

	err := s.kv.Delete(ctx, allKeys...)

	s.mu.Lock()
	s.state = Anonymous
	s.token, s.user, s.profile = "", nil, nil
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *Store) fetchProfile(ctx context.Context, userID string) (*models.Profile, error) {
	rows, err := s.backend.UserProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrProfileMissing
	}
	p := rows[0]
	return &p, nil
}

func (s *Store) persistProfile(ctx context.Context, profile *models.Profile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := s.kv.Set(ctx, KeyProfile, string(data)); err != nil {
		return fmt.Errorf("persist profile: %w", err)
	}
	return nil
}

type persisted map[string]*string

func (s *Store) snapshotPersisted(ctx context.Context) persisted {
	snap := persisted{}
	for _, key := range allKeys {
		value, ok, err := s.kv.Get(ctx, key)
		if err != nil || !ok {
			snap[key] = nil
			continue
		}
		v := value
		snap[key] = &v
	}
	return snap
}

func (p persisted) restore(ctx context.Context, kv storage.KV) error {
	var errs []error
	for key, value := range p {
		if value == nil {
			errs = append(errs, kv.Delete(ctx, key))
			continue
		}
		errs = append(errs, kv.Set(ctx, key, *value))
	}
	return errors.Join(errs...)
}

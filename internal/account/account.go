// Package account runs the sign-in, sign-up and profile-edit flows: input
// is validated locally, sent to the backend, and the result is handed to the
// session store.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"spinlog/internal/api"
	"spinlog/internal/logging"
	"spinlog/internal/models"
	"spinlog/internal/session"
)

var (
	// ErrSignInFailed wraps a rejected or failed login.
	ErrSignInFailed = errors.New("could not sign in, check your email and password")
	// ErrSignUpFailed wraps a rejected or failed registration.
	ErrSignUpFailed = errors.New("could not create your account, try again")
	// ErrUpdateFailed wraps a rejected or failed profile edit.
	ErrUpdateFailed = errors.New("could not update your profile, try again")
)

// Backend is the slice of the REST client the flows need.
type Backend interface {
	Login(ctx context.Context, req api.LoginRequest) (*api.AuthResponse, error)
	Register(ctx context.Context, req api.RegisterRequest) (*api.AuthResponse, error)
	UpdateUser(ctx context.Context, userID string, req api.UpdateUserRequest) ([]models.Profile, error)
}

// Sessions is the slice of session.Store the flows write to.
type Sessions interface {
	SignIn(ctx context.Context, token string, user models.User) error
	UpdateUserProfile(ctx context.Context, profile *models.Profile) error
	UserID() string
}

// Service runs the account flows.
type Service struct {
	backend  Backend
	sessions Sessions
	log      *logging.Logger
}

// New constructs a Service.
func New(backend Backend, sessions Sessions, log *logging.Logger) *Service {
	return &Service{backend: backend, sessions: sessions, log: logging.OrNop(log).With("account")}
}

// SignIn logs in with email and password and starts a session.
func (s *Service) SignIn(ctx context.Context, email, password string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	if password == "" {
		return invalid("password", "Password is required")
	}

	resp, err := s.backend.Login(ctx, api.LoginRequest{
		Email:    strings.TrimSpace(email),
		Password: password,
	})
	if err != nil {
		s.log.WithContext(ctx).Warn().Err(err).Msg("login failed")
		return fmt.Errorf("%w: %w", ErrSignInFailed, err)
	}
	return s.start(ctx, resp)
}

// SignUpInput is the registration form.
type SignUpInput struct {
	Username string
	Email    string
	Password string
	Confirm  string
}

// Validate checks the form in display order.
func (in SignUpInput) Validate() error {
	if err := validateUsername(in.Username); err != nil {
		return err
	}
	if err := validateEmail(in.Email); err != nil {
		return err
	}
	if err := validatePassword(in.Password); err != nil {
		return err
	}
	if in.Password != in.Confirm {
		return invalid("confirm", "Passwords do not match")
	}
	return nil
}

// SignUp registers an account and starts a session.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) error {
	if err := in.Validate(); err != nil {
		return err
	}

	resp, err := s.backend.Register(ctx, api.RegisterRequest{
		Username: strings.TrimSpace(in.Username),
		Email:    strings.TrimSpace(in.Email),
		Password: in.Password,
	})
	if err != nil {
		s.log.WithContext(ctx).Warn().Err(err).Msg("registration failed")
		return fmt.Errorf("%w: %w", ErrSignUpFailed, err)
	}
	return s.start(ctx, resp)
}

func (s *Service) start(ctx context.Context, resp *api.AuthResponse) error {
	if err := s.sessions.SignIn(ctx, resp.Token, resp.User); err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	return nil
}

// EditProfile changes the username and avatar. On success the returned
// profile is applied to the session without another fetch.
func (s *Service) EditProfile(ctx context.Context, username, avatar string) (*models.Profile, error) {
	userID := s.sessions.UserID()
	if userID == "" {
		return nil, session.ErrNotSignedIn
	}
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	ctx = logging.ContextWithUserID(ctx, userID)

	rows, err := s.backend.UpdateUser(ctx, userID, api.UpdateUserRequest{
		Username: strings.TrimSpace(username),
		Avatar:   avatar,
	})
	if err != nil {
		s.log.WithContext(ctx).Warn().Err(err).Msg("profile update failed")
		return nil, fmt.Errorf("%w: %w", ErrUpdateFailed, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrUpdateFailed, session.ErrProfileMissing)
	}

	updated := rows[0]
	if err := s.sessions.UpdateUserProfile(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

package main

import (
	"context"
	"errors"
	"fmt"

	"spinlog/internal/account"
	"spinlog/internal/api"
	"spinlog/internal/catalog"
	"spinlog/internal/config"
	"spinlog/internal/lists"
	"spinlog/internal/logging"
	"spinlog/internal/reviews"
	"spinlog/internal/session"
	"spinlog/internal/storage"
	"spinlog/internal/votes"
)

// app wires the client packages for one CLI invocation.
type app struct {
	cfg     *config.Config
	log     *logging.Logger
	kv      storage.KV
	client  *api.Client
	session *session.Store
	account *account.Service
	reviews *reviews.Aggregator
	votes   *votes.Reconciler
	lists   *lists.Manager
	catalog catalog.Catalog
}

func loadConfig() (*config.Config, *logging.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	level := cfg.Logging.Level
	if debug {
		level = "debug"
	}
	logger := logging.New(logging.Config{Level: level, Format: cfg.Logging.Format})
	logging.SetGlobalLogger(logger)
	return cfg, logger, nil
}

// newApp loads configuration, opens the session storage and restores the
// persisted session.
func newApp(ctx context.Context) (*app, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}

	kv, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open session storage: %w", err)
	}

	a := &app{cfg: cfg, log: logger, kv: kv}

	a.client = api.New(cfg.API.BaseURL,
		api.WithTimeout(cfg.API.Timeout),
		api.WithLogger(logger),
		api.WithTokenSource(api.TokenFunc(func() string { return a.session.Token() })),
	)
	a.session = session.New(kv, a.client, session.WithLogger(logger))
	a.account = account.New(a.client, a.session, logger)
	a.votes = votes.New(a.client, logger)
	a.lists = lists.NewManager(a.client, logger)

	opts := []reviews.Option{reviews.WithLogger(logger)}
	if cfg.Spotify.Enabled() {
		a.catalog = catalog.NewSpotify(ctx, cfg.Spotify.ClientID, cfg.Spotify.ClientSecret)
		opts = append(opts, reviews.WithCatalog(a.catalog))
	} else {
		logger.Debug("spotify credentials not set, catalog lookups disabled")
	}
	a.reviews = reviews.New(a.client, a.session, opts...)

	a.session.Restore(ctx)
	return a, nil
}

func (a *app) close() {
	if err := a.kv.Close(); err != nil {
		a.log.Error(err, "close session storage")
	}
}

var errSignedOut = errors.New("not signed in, run `spinlog login` first")

// requireUser returns the signed-in user's id.
func (a *app) requireUser() (string, error) {
	if a.session.State() != session.Authenticated || a.session.UserID() == "" {
		return "", errSignedOut
	}
	return a.session.UserID(), nil
}

// withApp runs fn with a wired app and closes it afterwards.
func withApp(ctx context.Context, fn func(ctx context.Context, a *app) error) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if id := a.session.UserID(); id != "" {
		ctx = logging.ContextWithUserID(ctx, id)
	}
	return fn(ctx, a)
}

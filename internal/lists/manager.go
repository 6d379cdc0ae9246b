package lists

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"spinlog/internal/api"
	"spinlog/internal/logging"
	"spinlog/internal/models"
)

var (
	// ErrTitleRequired is returned when creating a list with a blank title.
	ErrTitleRequired = errors.New("give your list a title")
	// ErrSaveFailed wraps a list write the backend did not accept.
	ErrSaveFailed = errors.New("could not save your list, try again")
)

// Backend is the slice of the REST client the manager needs.
type Backend interface {
	Lists(ctx context.Context, userID string) ([]models.List, error)
	CreateList(ctx context.Context, req api.CreateListRequest) (*models.List, error)
	ReorderList(ctx context.Context, listID models.ID, items []api.ItemPosition) (*models.List, error)
}

// Manager loads and edits a user's lists.
type Manager struct {
	backend Backend
	log     *logging.Logger
}

// NewManager constructs a Manager.
func NewManager(backend Backend, log *logging.Logger) *Manager {
	return &Manager{backend: backend, log: logging.OrNop(log).With("lists")}
}

// Load returns the user's lists with items in position order. A failed read
// is logged and yields no lists.
func (m *Manager) Load(ctx context.Context, userID string) []models.List {
	all, err := m.backend.Lists(ctx, userID)
	if err != nil {
		m.log.ReadFailed(ctx, "list.list", err)
		return []models.List{}
	}
	for i := range all {
		all[i].ListItems = Normalize(all[i].ListItems)
	}
	return all
}

// CreateInput describes a new list.
type CreateInput struct {
	UserID      string
	Title       string
	Description string
	IsPublic    bool
}

// Create validates and creates an empty list.
func (m *Manager) Create(ctx context.Context, in CreateInput) (*models.List, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	list, err := m.backend.CreateList(ctx, api.CreateListRequest{
		UserID:      in.UserID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		IsPublic:    in.IsPublic,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}
	list.ListItems = Normalize(list.ListItems)
	return list, nil
}

// Reorder moves one item and persists every position in a single call. The
// returned list reflects the backend's answer; on failure the input list is
// returned unchanged alongside the error.
func (m *Manager) Reorder(ctx context.Context, list models.List, from, to int) (models.List, error) {
	moved, err := Move(list.ListItems, from, to)
	if err != nil {
		return list, err
	}

	saved, err := m.backend.ReorderList(ctx, list.ID, Positions(moved))
	if err != nil {
		m.log.WithContext(ctx).Warn().Err(err).Str("list_id", list.ID.String()).Msg("reorder list failed")
		return list, fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	saved.ListItems = Normalize(saved.ListItems)
	return *saved, nil
}

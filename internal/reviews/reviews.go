// Package reviews separates the current user's review of a catalog item from
// everyone else's, saves edits, and computes the display order of a review
// board.
package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"spinlog/internal/api"
	"spinlog/internal/catalog"
	"spinlog/internal/logging"
	"spinlog/internal/models"
)

var (
	// ErrInvalidRating is returned for ratings outside 1-5.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")
	// ErrMissingUser is returned when saving without a user id.
	ErrMissingUser = errors.New("sign in to write a review")
	// ErrMissingItem is returned when saving without an item id or type.
	ErrMissingItem = errors.New("choose an album, track or artist to review")
	// ErrSaveFailed wraps a save the backend did not accept.
	ErrSaveFailed = errors.New("could not save your review, try again")
)

// Backend is the slice of the REST client the aggregator needs.
type Backend interface {
	ReviewsForItem(ctx context.Context, spotifyID string, itemType models.ItemType) ([]models.Review, error)
	SaveReview(ctx context.Context, userID string, req api.SaveReviewRequest) (*models.Review, error)
}

// ProfileRefresher refetches the signed-in user's profile. session.Store
// satisfies it.
type ProfileRefresher interface {
	UpdateUserProfile(ctx context.Context, profile *models.Profile) error
}

// Result is one item's reviews split by author.
type Result struct {
	Mine   *models.Review
	Others []models.Review
}

// Partition puts the first review by currentUserID in Mine and everything
// else, in order, in Others.
func Partition(all []models.Review, currentUserID string) Result {
	res := Result{Others: make([]models.Review, 0, len(all))}
	for _, review := range all {
		if res.Mine == nil && currentUserID != "" && review.UserID == currentUserID {
			r := review
			res.Mine = &r
			continue
		}
		res.Others = append(res.Others, review)
	}
	return res
}

// Aggregator loads and saves reviews.
type Aggregator struct {
	backend  Backend
	profiles ProfileRefresher
	catalog  catalog.Catalog
	log      *logging.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithCatalog fills missing names and artwork from cat before saving.
func WithCatalog(cat catalog.Catalog) Option {
	return func(a *Aggregator) { a.catalog = cat }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(a *Aggregator) { a.log = logging.OrNop(l).With("reviews") }
}

// New constructs an Aggregator. profiles may be nil.
func New(backend Backend, profiles ProfileRefresher, opts ...Option) *Aggregator {
	a := &Aggregator{backend: backend, profiles: profiles, log: logging.Nop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Load fetches every review of (itemID, itemType) and partitions it for
// currentUserID. A failed read is logged and yields an empty result.
func (a *Aggregator) Load(ctx context.Context, itemID string, itemType models.ItemType, currentUserID string) Result {
	all, err := a.backend.ReviewsForItem(ctx, itemID, itemType)
	if err != nil {
		a.log.ReadFailed(ctx, "review.list", err)
		return Result{Others: []models.Review{}}
	}
	return Partition(all, currentUserID)
}

// SaveInput is one review edit.
type SaveInput struct {
	UserID     string
	SpotifyID  string
	Type       models.ItemType
	Rating     int
	Text       string
	ArtistName string
	ItemName   string
	Image      string
}

// Validate checks the input before anything is sent.
func (in SaveInput) Validate() error {
	switch {
	case strings.TrimSpace(in.UserID) == "":
		return ErrMissingUser
	case strings.TrimSpace(in.SpotifyID) == "" || in.Type == "":
		return ErrMissingItem
	case in.Rating < 1 || in.Rating > 5:
		return ErrInvalidRating
	}
	return nil
}

// Save upserts the review, reloads the item's reviews and refreshes the
// signed-in profile. The backend decides between insert and update on
// (user, item, type). A failed profile refresh is logged and does not fail
// the save.
func (a *Aggregator) Save(ctx context.Context, in SaveInput) (Result, error) {
	if err := in.Validate(); err != nil {
		return Result{}, err
	}
	ctx = logging.ContextWithUserID(ctx, in.UserID)

	in = a.fillFromCatalog(ctx, in)

	_, err := a.backend.SaveReview(ctx, in.UserID, api.SaveReviewRequest{
		SpotifyID:  in.SpotifyID,
		Text:       in.Text,
		Types:      in.Type,
		Rating:     in.Rating,
		ArtistName: in.ArtistName,
		ItemName:   in.ItemName,
		Image:      in.Image,
	})
	if err != nil {
		a.log.WithContext(ctx).Warn().Err(err).Str("spotify_id", in.SpotifyID).Msg("save review failed")
		return Result{}, fmt.Errorf("%w: %w", ErrSaveFailed, err)
	}

	result := a.Load(ctx, in.SpotifyID, in.Type, in.UserID)

	if a.profiles != nil {
		if err := a.profiles.UpdateUserProfile(ctx, nil); err != nil {
			a.log.WithContext(ctx).Warn().Err(err).Msg("profile refresh after review save failed")
		}
	}
	return result, nil
}

func (a *Aggregator) fillFromCatalog(ctx context.Context, in SaveInput) SaveInput {
	if a.catalog == nil || (in.ArtistName != "" && in.ItemName != "" && in.Image != "") {
		return in
	}

	item, err := a.catalog.Lookup(ctx, models.CatalogRef{SpotifyID: in.SpotifyID, Type: in.Type})
	if err != nil {
		a.log.ReadFailed(ctx, "catalog.lookup", err)
		return in
	}
	if in.ArtistName == "" {
		in.ArtistName = item.ArtistName
	}
	if in.ItemName == "" {
		in.ItemName = item.Name
	}
	if in.Image == "" {
		in.Image = item.Image
	}
	return in
}

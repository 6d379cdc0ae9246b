package votes

import (
	"context"
	"fmt"
	"sync"

	"spinlog/internal/api"
	"spinlog/internal/logging"
	"spinlog/internal/models"
)

// Tracker holds the vote state of one review as seen by one user.
type Tracker struct {
	rec      *Reconciler
	reviewID models.ID
	userID   string

	mu        sync.Mutex
	counts    Counts
	gen       uint64
	observers []func(Counts)
}

// Track returns a tracker for reviewID as seen by userID ("" when signed out).
func (r *Reconciler) Track(reviewID models.ID, userID string) *Tracker {
	return &Tracker{rec: r, reviewID: reviewID, userID: userID}
}

// OnChange registers fn to run after every state change.
func (t *Tracker) OnChange(fn func(Counts)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observers = append(t.observers, fn)
}

// Counts returns the current state.
func (t *Tracker) Counts() Counts {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts
}

// Load replaces the state with the backend's (empty on failure).
func (t *Tracker) Load(ctx context.Context) Counts {
	t.mu.Lock()
	gen := t.gen
	t.mu.Unlock()

	score := t.rec.GetScore(ctx, t.reviewID)
	counts, _ := t.apply(gen, FromScore(score, t.userID))
	return counts
}

// Toggle flips the own vote locally, sends the pressed direction and
// replaces the local state with the refetched vote sets. A failure of either
// call leaves the optimistic state in place and is returned; nothing is
// retried. A reconciliation that completes after a newer toggle is dropped.
func (t *Tracker) Toggle(ctx context.Context, direction models.Vote) (Counts, error) {
	if !direction.Valid() {
		return t.Counts(), ErrInvalidDirection
	}
	if t.userID == "" {
		return t.Counts(), ErrSignedOut
	}

	t.mu.Lock()
	t.gen++
	gen := t.gen
	t.counts.Own = Next(t.counts.Own, direction)
	optimistic := t.counts
	observers := t.snapshotObservers()
	t.mu.Unlock()
	notify(observers, optimistic)

	ctx = logging.ContextWithUserID(ctx, t.userID)
	log := t.rec.log

	if _, err := t.rec.backend.Vote(ctx, api.VoteRequest{
		UserID:   t.userID,
		ReviewID: t.reviewID,
		Type:     direction,
	}); err != nil {
		log.WithContext(ctx).Warn().Err(err).Str("review_id", t.reviewID.String()).Msg("vote mutation failed")
		return optimistic, fmt.Errorf("%w: %w", ErrVoteFailed, err)
	}

	score, err := t.rec.backend.Score(ctx, t.reviewID)
	if err != nil {
		log.WithContext(ctx).Warn().Err(err).Str("review_id", t.reviewID.String()).Msg("vote refetch failed")
		return optimistic, fmt.Errorf("%w: %w", ErrVoteFailed, err)
	}

	counts, applied := t.apply(gen, FromScore(normalize(score), t.userID))
	if !applied {
		log.WithContext(ctx).Debug().Str("review_id", t.reviewID.String()).Msg("dropped stale vote reconciliation")
	}
	return counts, nil
}

// apply stores next if no toggle started since gen was read.
func (t *Tracker) apply(gen uint64, next Counts) (Counts, bool) {
	t.mu.Lock()
	if t.gen != gen {
		current := t.counts
		t.mu.Unlock()
		return current, false
	}
	t.counts = next
	observers := t.snapshotObservers()
	t.mu.Unlock()

	notify(observers, next)
	return next, true
}

func (t *Tracker) snapshotObservers() []func(Counts) {
	return append([]func(Counts){}, t.observers...)
}

func notify(observers []func(Counts), c Counts) {
	for _, fn := range observers {
		fn(c)
	}
}

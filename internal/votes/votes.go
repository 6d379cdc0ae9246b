// Package votes tracks a user's own up/down vote on a review separately from
// the aggregate counts, applying toggles optimistically and reconciling them
// against the backend's vote sets.
package votes

import (
	"context"
	"errors"

	"spinlog/internal/api"
	"spinlog/internal/logging"
	"spinlog/internal/models"
)

var (
	// ErrInvalidDirection is returned when a toggle is neither up nor down.
	ErrInvalidDirection = errors.New("vote direction must be up or down")
	// ErrSignedOut is returned when voting without a current user.
	ErrSignedOut = errors.New("sign in to vote")
	// ErrVoteFailed wraps a failed vote mutation or refetch.
	ErrVoteFailed = errors.New("your vote could not be saved, try again")
)

// Backend is the slice of the REST client the reconciler needs.
type Backend interface {
	Score(ctx context.Context, reviewID models.ID) (models.Score, error)
	Vote(ctx context.Context, req api.VoteRequest) (models.Score, error)
}

// Reconciler reads scores and hands out per-review trackers.
type Reconciler struct {
	backend Backend
	log     *logging.Logger
}

// New constructs a Reconciler.
func New(backend Backend, log *logging.Logger) *Reconciler {
	return &Reconciler{backend: backend, log: logging.OrNop(log).With("votes")}
}

// GetScore returns the vote sets for a review. Any failure is logged and
// degrades to empty sets.
func (r *Reconciler) GetScore(ctx context.Context, reviewID models.ID) models.Score {
	score, err := r.backend.Score(ctx, reviewID)
	if err != nil {
		r.log.ReadFailed(ctx, "review.score", err)
		return emptyScore()
	}
	return normalize(score)
}

// DeriveOwnVote reports userID's vote. Upvotes are checked first, so an id
// present in both sets reads as up.
func DeriveOwnVote(upvotes, downvotes []string, userID string) models.Vote {
	if userID == "" {
		return models.VoteNone
	}
	for _, id := range upvotes {
		if id == userID {
			return models.VoteUp
		}
	}
	for _, id := range downvotes {
		if id == userID {
			return models.VoteDown
		}
	}
	return models.VoteNone
}

// Counts splits the displayed totals into everyone else's votes (base) and
// the current user's own vote.
type Counts struct {
	BaseUp   int
	BaseDown int
	Own      models.Vote
}

// FromScore derives Counts for userID from authoritative vote sets.
func FromScore(score models.Score, userID string) Counts {
	own := DeriveOwnVote(score.Upvotes, score.Downvotes, userID)
	c := Counts{
		BaseUp:   len(score.Upvotes),
		BaseDown: len(score.Downvotes),
		Own:      own,
	}
	switch own {
	case models.VoteUp:
		c.BaseUp--
	case models.VoteDown:
		c.BaseDown--
	}
	return c
}

// Shown is the count displayed for direction.
func (c Counts) Shown(direction models.Vote) int {
	base := c.BaseUp
	if direction == models.VoteDown {
		base = c.BaseDown
	}
	if c.Own != models.VoteNone && c.Own == direction {
		base++
	}
	return base
}

// Next applies the toggle rule: pressing the held direction clears it,
// pressing the other direction switches to it.
func Next(own, pressed models.Vote) models.Vote {
	if own == pressed {
		return models.VoteNone
	}
	return pressed
}

func emptyScore() models.Score {
	return models.Score{Upvotes: []string{}, Downvotes: []string{}}
}

func normalize(score models.Score) models.Score {
	if score.Upvotes == nil {
		score.Upvotes = []string{}
	}
	if score.Downvotes == nil {
		score.Downvotes = []string{}
	}
	return score
}

// Package comments manages the comment thread under a review.
package comments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"spinlog/internal/api"
	"spinlog/internal/logging"
	"spinlog/internal/models"
)

// ErrAddFailed is returned when the backend did not accept a comment.
var ErrAddFailed = errors.New("could not post your comment, try again")

// Backend is the slice of the REST client a thread needs.
type Backend interface {
	Comments(ctx context.Context, reviewID models.ID) ([]models.Comment, error)
	AddComment(ctx context.Context, req api.CommentRequest) (*models.Comment, error)
}

// Thread is the locally held comment list of one review. The list only ever
// changes by wholesale replacement with a server read.
type Thread struct {
	backend  Backend
	log      *logging.Logger
	reviewID models.ID

	mu       sync.RWMutex
	comments []models.Comment
}

// NewThread constructs an empty thread for reviewID.
func NewThread(backend Backend, reviewID models.ID, log *logging.Logger) *Thread {
	return &Thread{
		backend:  backend,
		log:      logging.OrNop(log).With("comments"),
		reviewID: reviewID,
		comments: []models.Comment{},
	}
}

// Comments returns a copy of the local list.
func (t *Thread) Comments() []models.Comment {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]models.Comment{}, t.comments...)
}

// Load fetches the thread in server order and replaces the local list. A
// failed read is logged and yields an empty list.
func (t *Thread) Load(ctx context.Context) []models.Comment {
	list, err := t.backend.Comments(ctx, t.reviewID)
	if err != nil {
		t.log.ReadFailed(ctx, "review.comments", err)
		list = []models.Comment{}
	}

	t.mu.Lock()
	t.comments = list
	t.mu.Unlock()
	return append([]models.Comment{}, list...)
}

// Add posts text as userID. Blank text is ignored and reports false with no
// error. On success the thread is reloaded; on failure the local list is
// left untouched and ErrAddFailed is returned.
func (t *Thread) Add(ctx context.Context, userID, text string) (bool, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return false, nil
	}

	created, err := t.backend.AddComment(ctx, api.CommentRequest{
		ReviewID: t.reviewID,
		UserID:   userID,
		Text:     text,
	})
	if err != nil {
		t.log.WithContext(logging.ContextWithUserID(ctx, userID)).Warn().
			Err(err).
			Str("review_id", t.reviewID.String()).
			Msg("add comment failed")
		return false, fmt.Errorf("%w: %w", ErrAddFailed, err)
	}
	if created == nil {
		return false, ErrAddFailed
	}

	t.Load(ctx)
	return true, nil
}

// ResolveAvatar returns what to draw for a comment author: the avatar image
// when set, otherwise the upper-cased first letter of the username, otherwise "?".
func ResolveAvatar(author models.Author) Avatar {
	if models.HasAvatar(author.Avatar) {
		return Avatar{Image: author.Avatar}
	}
	if r, _ := utf8.DecodeRuneInString(author.Username); r != utf8.RuneError {
		return Avatar{Initial: string(unicode.ToUpper(r))}
	}
	return Avatar{Initial: "?"}
}

// Avatar is either an image URI or a one-character placeholder.
type Avatar struct {
	Image   string
	Initial string
}

// String returns the image URI or the initial.
func (a Avatar) String() string {
	if a.Image != "" {
		return a.Image
	}
	return a.Initial
}

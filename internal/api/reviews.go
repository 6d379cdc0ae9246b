package api

import (
	"context"
	"net/http"

	"spinlog/internal/models"
)

// SaveReviewRequest is the upsert body for POST /review/{userId}. The backend
// keys the row on (user, spotifyId, types).
type SaveReviewRequest struct {
	SpotifyID  string          `json:"spotifyId"`
	Text       string          `json:"text"`
	Types      models.ItemType `json:"types"`
	Rating     int             `json:"rating"`
	ArtistName string          `json:"artistName"`
	ItemName   string          `json:"itemName"`
	Image      string          `json:"image"`
}

// VoteRequest is the body for POST /review/vote.
type VoteRequest struct {
	UserID   string      `json:"userId"`
	ReviewID models.ID   `json:"reviewId"`
	Type     models.Vote `json:"type"`
}

// CommentRequest is the body for POST /review/comment.
type CommentRequest struct {
	ReviewID models.ID `json:"reviewId"`
	UserID   string    `json:"userId"`
	Text     string    `json:"text"`
}

// SaveReview upserts the user's review of one catalog item.
func (c *Client) SaveReview(ctx context.Context, userID string, req SaveReviewRequest) (*models.Review, error) {
	return decodeOne[models.Review](ctx, c, call{
		op:         "review.save",
		method:     http.MethodPost,
		path:       "/review/{userId}",
		pathParams: map[string]string{"userId": userID},
		body:       req,
	})
}

// ReviewsForItem lists every review of (spotifyID, itemType).
func (c *Client) ReviewsForItem(ctx context.Context, spotifyID string, itemType models.ItemType) ([]models.Review, error) {
	return decodeList[models.Review](ctx, c, call{
		op:         "review.list",
		method:     http.MethodGet,
		path:       "/review/{spotifyId}",
		pathParams: map[string]string{"spotifyId": spotifyID},
		query:      map[string]string{"type": string(itemType)},
	})
}

// Score fetches the up/down voter sets of a review.
func (c *Client) Score(ctx context.Context, reviewID models.ID) (models.Score, error) {
	score, err := decodeOne[models.Score](ctx, c, call{
		op:         "review.score",
		method:     http.MethodGet,
		path:       "/review/score/{reviewId}",
		pathParams: map[string]string{"reviewId": reviewID.String()},
	})
	if err != nil {
		return models.Score{}, err
	}
	return *score, nil
}

// Vote records the user's vote; the backend toggles when the same direction is
// sent twice.
func (c *Client) Vote(ctx context.Context, req VoteRequest) (models.Score, error) {
	score, err := decodeOne[models.Score](ctx, c, call{
		op:     "review.vote",
		method: http.MethodPost,
		path:   "/review/vote",
		body:   req,
	})
	if err != nil {
		return models.Score{}, err
	}
	return *score, nil
}

// AddComment appends a comment to a review.
func (c *Client) AddComment(ctx context.Context, req CommentRequest) (*models.Comment, error) {
	return decodeOne[models.Comment](ctx, c, call{
		op:     "review.comment",
		method: http.MethodPost,
		path:   "/review/comment",
		body:   req,
	})
}

// Comments lists a review's comments in server order.
func (c *Client) Comments(ctx context.Context, reviewID models.ID) ([]models.Comment, error) {
	return decodeList[models.Comment](ctx, c, call{
		op:         "review.comments",
		method:     http.MethodGet,
		path:       "/review/comments/{reviewId}",
		pathParams: map[string]string{"reviewId": reviewID.String()},
	})
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spinlog/internal/models"
)

func TestClient_SaveReviewSendsBodyAndToken(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/review/u1", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		body, _ := io.ReadAll(r.Body)
		var got map[string]any
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, "alb1", got["spotifyId"])
		assert.Equal(t, "album", got["types"])
		assert.Equal(t, float64(4), got["rating"])
		assert.Equal(t, "Air", got["artistName"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id": 17, "user_id": "u1", "spotifyId": "alb1", "type": "album", "rating": 4, "text": "Great", "created_at": "2025-01-02T03:04:05.123456"}]`))
	}))
	defer ts.Close()

	c := New(ts.URL, WithTokenSource(TokenFunc(func() string { return "tok" })))
	review, err := c.SaveReview(context.Background(), "u1", SaveReviewRequest{
		SpotifyID: "alb1", Types: models.ItemAlbum, Rating: 4, Text: "Great", ArtistName: "Air",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ID("17"), review.ID)
	assert.Equal(t, 2025, review.CreatedAt.Year())
}

func TestClient_ErrorClassification(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		kind        Kind
		message     string
		recoverable bool
	}{
		{name: "server error with error field", status: 500, body: `{"error":"db down"}`, kind: KindRejected, message: "db down", recoverable: true},
		{name: "bad request with message field", status: 400, body: `{"message":"bad rating"}`, kind: KindRejected, message: "bad rating"},
		{name: "rate limited", status: 429, body: ``, kind: KindRejected, recoverable: true},
		{name: "not found", status: 404, body: `not json`, kind: KindRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer ts.Close()

			_, err := New(ts.URL).Comments(context.Background(), "r1")
			var apiErr *Error
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.kind, apiErr.Kind)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.message, apiErr.Message)
			assert.Equal(t, tt.recoverable, apiErr.Recoverable())
			assert.Equal(t, "review.comments", apiErr.Op)
		})
	}
}

func TestClient_TransportFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer ts.Close()

	_, err := New(ts.URL, WithTimeout(20*time.Millisecond)).Score(context.Background(), "r1")
	require.Error(t, err)
	assert.True(t, IsTransport(err))
	assert.Zero(t, StatusCode(err))
}

func TestClient_FalsyBodies(t *testing.T) {
	body := "null"
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer ts.Close()
	c := New(ts.URL)

	comments, err := c.Comments(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, []models.Comment{}, comments)

	_, err = c.AddComment(context.Background(), CommentRequest{ReviewID: "r1", UserID: "u1", Text: "hi"})
	assert.ErrorIs(t, err, ErrEmptyResponse)

	body = "[]"
	_, err = c.SaveReview(context.Background(), "u1", SaveReviewRequest{SpotifyID: "a"})
	assert.ErrorIs(t, err, ErrEmptyResponse)

	body = `{"token":"","user":{"id":"u1"}}`
	_, err = c.Login(context.Background(), LoginRequest{Email: "a@b.co", Password: "x"})
	assert.ErrorIs(t, err, ErrEmptyResponse)

	body = `{}`
	score, err := c.Score(context.Background(), "r1")
	require.NoError(t, err)
	assert.Empty(t, score.Upvotes)
}

func TestClient_ReviewsForItemQuery(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/review/trk9", r.URL.Path)
		assert.Equal(t, "track", r.URL.Query().Get("type"))
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[{"id":"a","user_id":"u2","users":{"username":"zed","avatar":"NULL"},"review_comments":[{"id":"c1","text":"yo"}]}]`))
	}))
	defer ts.Close()

	reviews, err := New(ts.URL).ReviewsForItem(context.Background(), "trk9", models.ItemTrack)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, "zed", reviews[0].Users.Username)
	require.Len(t, reviews[0].ReviewComments, 1)
}

func TestClient_UserProfileUnwrapsWrappers(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"u1","username":"ann","follows":[{"follow":[{"id":1,"artist_name":"Low"}]}],"favorites":{"oops":true},"reviews":[],"review_comments":[]}]`))
	}))
	defer ts.Close()

	rows, err := New(ts.URL).UserProfile(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Len(t, rows[0].Follows, 1)
	assert.Equal(t, "Low", rows[0].Follows[0].ArtistName)
	assert.Equal(t, []models.Favorite{}, rows[0].Favorites)
}

func TestClient_ReorderList(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/list/l1/items", r.URL.Path)
		var body struct {
			Items []ItemPosition `json:"items"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []ItemPosition{{ID: "b", Position: 0}, {ID: "a", Position: 1}}, body.Items)
		_, _ = w.Write([]byte(`{"id":"l1","title":"t","isPublic":true,"list_items":[{"id":"b","position":0},{"id":"a","position":1}]}`))
	}))
	defer ts.Close()

	list, err := New(ts.URL).ReorderList(context.Background(), "l1", []ItemPosition{{ID: "b", Position: 0}, {ID: "a", Position: 1}})
	require.NoError(t, err)
	assert.True(t, list.IsPublic)
	assert.Len(t, list.ListItems, 2)
}

func TestClient_NilLoggerFallsBackToNop(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"nope"}`, http.StatusBadRequest)
	}))
	defer ts.Close()

	var c *Client
	require.NotPanics(t, func() { c = New(ts.URL, WithLogger(nil)) })

	_, err := c.Score(context.Background(), "r1")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, StatusCode(err))
}

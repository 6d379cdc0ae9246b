package activity

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spinlog/internal/models"
)

var base = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func at(hoursAgo int) models.Timestamp {
	return models.NewTimestamp(base.Add(-time.Duration(hoursAgo) * time.Hour))
}

func TestMerge_CapAndOrder(t *testing.T) {
	reviews := []models.Review{
		{ID: "r1", ItemName: "Loveless", ArtistName: "My Bloody Valentine", CreatedAt: at(1)},
		{ID: "r2", CreatedAt: at(30)},
		{ID: "r-undated"},
	}
	follows := []models.Follow{
		{ID: "f1", ArtistName: "Slowdive", CreatedAt: at(5)},
		{ID: "f2", CreatedAt: at(50)},
	}
	favorites := []models.Favorite{
		{ID: "v1", ItemName: "Souvlaki", CreatedAt: at(2)},
		{ID: "v-undated", ItemName: "Pygmalion"},
	}
	comments := []models.Comment{
		{ID: "c1", Text: "agreed", CreatedAt: at(3)},
		{ID: "c2", Text: "old", CreatedAt: at(100)},
	}

	got := Merge(reviews, follows, favorites, comments)
	require.Len(t, got, Limit)

	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].CreatedAt.After(got[i-1].CreatedAt), "entry %d is newer than %d", i, i-1)
	}
	for _, a := range got {
		assert.False(t, a.CreatedAt.IsZero())
	}

	assert.Equal(t, []Kind{KindReview, KindFavorite, KindComment, KindFollow, KindReview}, kinds(got))
	assert.Equal(t, "Reviewed Loveless", got[0].Title)
	assert.Equal(t, "My Bloody Valentine", got[0].Subtitle)
	assert.Equal(t, "Favorited Souvlaki", got[1].Title)
	assert.Equal(t, "Unknown artist", got[1].Subtitle)
	assert.Equal(t, "Commented on a review", got[2].Title)
	assert.Equal(t, "agreed", got[2].Subtitle)
	assert.Equal(t, "Followed Slowdive", got[3].Title)
	assert.Equal(t, "Reviewed an album", got[4].Title)
}

func TestMerge_DropsOnlyUnparseableDates(t *testing.T) {
	body := `[
		{"id": "good", "item_name": "Loveless", "created_at": "2025-05-31T12:00:00Z"},
		{"id": "bad", "item_name": "Souvlaki", "created_at": "sometime in 1993"}
	]`
	var reviews []models.Review
	require.NoError(t, json.Unmarshal([]byte(body), &reviews))

	got := Merge(reviews, nil, nil, nil)
	require.Len(t, got, 1)
	assert.Equal(t, "Reviewed Loveless", got[0].Title)
}

func TestMerge_Fallbacks(t *testing.T) {
	got := Merge(nil,
		[]models.Follow{{CreatedAt: at(1)}},
		[]models.Favorite{{CreatedAt: at(2)}},
		nil)
	require.Len(t, got, 2)
	assert.Equal(t, "Followed an artist", got[0].Title)
	assert.Equal(t, "Favorited item", got[1].Title)
}

func TestMerge_Empty(t *testing.T) {
	assert.Empty(t, Merge(nil, nil, nil, nil))
	assert.Empty(t, FromProfile(nil))
}

func TestFromProfile_UnwrapsBackendShape(t *testing.T) {
	payload := `{
		"id": "u1",
		"username": "ann",
		"follows": [{"follow": [{"id": 1, "artist_name": "Broadcast", "created_at": "2025-05-30T10:00:00Z"}]}],
		"favorites": [{"favorite": [{"id": 2, "item_name": "Tender Buttons", "created_at": "2025-05-31T10:00:00+00:00"}]}],
		"reviews": [{"id": 3, "item_name": "Haha Sound", "created_at": null}],
		"review_comments": []
	}`

	var profile models.Profile
	require.NoError(t, json.Unmarshal([]byte(payload), &profile))

	got := FromProfile(&profile)
	require.Len(t, got, 2)
	assert.Equal(t, "Favorited Tender Buttons", got[0].Title)
	assert.Equal(t, "Followed Broadcast", got[1].Title)
}

func TestFormatDate(t *testing.T) {
	d := 24 * time.Hour

	tests := []struct {
		name    string
		elapsed time.Duration
		want    string
	}{
		{name: "just now", elapsed: 0, want: "Today"},
		{name: "an hour", elapsed: time.Hour, want: "Today"},
		{name: "exactly a day", elapsed: d, want: "Today"},
		{name: "a day and a bit", elapsed: d + time.Minute, want: "Yesterday"},
		{name: "two days", elapsed: 2 * d, want: "Yesterday"},
		{name: "three days", elapsed: 3 * d, want: "2 days ago"},
		{name: "seven days", elapsed: 7 * d, want: "6 days ago"},
		{name: "eight days", elapsed: 8 * d, want: "a week ago"},
		{name: "fourteen days", elapsed: 14 * d, want: "a week ago"},
		{name: "fifteen days", elapsed: 15 * d, want: "2 weeks ago"},
		{name: "twenty two days rounds weeks down", elapsed: 22 * d, want: "3 weeks ago"},
		{name: "thirty days", elapsed: 30 * d, want: "4 weeks ago"},
		{name: "thirty one days", elapsed: 31 * d, want: "2 months ago"},
		{name: "ninety days", elapsed: 90 * d, want: "3 months ago"},
		{name: "future is symmetric", elapsed: -3 * d, want: "2 days ago"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDate(base, base.Add(-tt.elapsed)))
		})
	}
}

func kinds(list []Activity) []Kind {
	out := make([]Kind, len(list))
	for i, a := range list {
		out[i] = a.Type
	}
	return out
}

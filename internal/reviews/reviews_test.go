package reviews

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spinlog/internal/api"
	"spinlog/internal/apitest"
	"spinlog/internal/catalog"
	"spinlog/internal/models"
)

type countingRefresher struct {
	calls int
	err   error
}

func (r *countingRefresher) UpdateUserProfile(_ context.Context, profile *models.Profile) error {
	r.calls++
	return r.err
}

type stubCatalog struct {
	item  catalog.Item
	err   error
	calls int
}

func (c *stubCatalog) Lookup(_ context.Context, ref models.CatalogRef) (catalog.Item, error) {
	c.calls++
	if c.err != nil {
		return catalog.Item{}, c.err
	}
	item := c.item
	item.Ref = ref
	return item, nil
}

func (c *stubCatalog) Search(context.Context, string, models.ItemType, int) ([]catalog.Item, error) {
	return nil, nil
}

type fixture struct {
	srv     *apitest.Server
	client  *api.Client
	user    models.User
	refresh *countingRefresher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	srv := apitest.New(apitest.Options{})
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)

	user, err := srv.AddUser("kim", "kim@example.com", "secret1")
	require.NoError(t, err)

	return &fixture{srv: srv, client: api.New(ts.URL), user: user, refresh: &countingRefresher{}}
}

func TestPartition(t *testing.T) {
	all := []models.Review{
		{ID: "1", UserID: "a"},
		{ID: "2", UserID: "me"},
		{ID: "3", UserID: "b"},
		{ID: "4", UserID: "me"},
	}

	res := Partition(all, "me")
	require.NotNil(t, res.Mine)
	assert.Equal(t, models.ID("2"), res.Mine.ID)
	assert.Equal(t, []models.ID{"1", "3", "4"}, ids(res.Others))

	res = Partition(all, "")
	assert.Nil(t, res.Mine)
	assert.Len(t, res.Others, 4)
}

func TestSave_UpsertKeepsOneReview(t *testing.T) {
	f := newFixture(t)
	agg := New(f.client, f.refresh)
	ctx := context.Background()

	f.srv.AddReview(models.Review{UserID: "other", SpotifyID: "alb9", Type: models.ItemAlbum, Rating: 2})

	res, err := agg.Save(ctx, SaveInput{UserID: f.user.ID, SpotifyID: "alb9", Type: models.ItemAlbum, Rating: 4, Text: "Great"})
	require.NoError(t, err)
	require.NotNil(t, res.Mine)
	assert.Equal(t, 4, res.Mine.Rating)

	_, err = agg.Save(ctx, SaveInput{UserID: f.user.ID, SpotifyID: "alb9", Type: models.ItemAlbum, Rating: 5, Text: "Even better"})
	require.NoError(t, err)

	res = agg.Load(ctx, "alb9", models.ItemAlbum, f.user.ID)
	require.NotNil(t, res.Mine)
	assert.Equal(t, 5, res.Mine.Rating)
	assert.Equal(t, "Even better", res.Mine.Text)
	assert.Len(t, res.Others, 1)
	for _, other := range res.Others {
		assert.NotEqual(t, f.user.ID, other.UserID)
	}
	assert.Equal(t, 2, f.refresh.calls)
}

func TestSave_TypesAreSeparate(t *testing.T) {
	f := newFixture(t)
	agg := New(f.client, nil)
	ctx := context.Background()

	_, err := agg.Save(ctx, SaveInput{UserID: f.user.ID, SpotifyID: "x1", Type: models.ItemAlbum, Rating: 3})
	require.NoError(t, err)

	res := agg.Load(ctx, "x1", models.ItemTrack, f.user.ID)
	assert.Nil(t, res.Mine)
}

func TestSave_Validation(t *testing.T) {
	f := newFixture(t)
	agg := New(f.client, f.refresh)

	tests := []struct {
		name string
		in   SaveInput
		want error
	}{
		{name: "no user", in: SaveInput{SpotifyID: "a", Type: models.ItemAlbum, Rating: 3}, want: ErrMissingUser},
		{name: "no item", in: SaveInput{UserID: "u", Type: models.ItemAlbum, Rating: 3}, want: ErrMissingItem},
		{name: "no type", in: SaveInput{UserID: "u", SpotifyID: "a", Rating: 3}, want: ErrMissingItem},
		{name: "rating zero", in: SaveInput{UserID: "u", SpotifyID: "a", Type: models.ItemAlbum}, want: ErrInvalidRating},
		{name: "rating six", in: SaveInput{UserID: "u", SpotifyID: "a", Type: models.ItemAlbum, Rating: 6}, want: ErrInvalidRating},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := agg.Save(context.Background(), tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	assert.Zero(t, f.srv.Calls("review.save"))
}

func TestSave_BackendRejection(t *testing.T) {
	f := newFixture(t)
	agg := New(f.client, f.refresh)

	f.srv.FailNext("review.save", http.StatusInternalServerError, "constraint violation")
	_, err := agg.Save(context.Background(), SaveInput{UserID: f.user.ID, SpotifyID: "a", Type: models.ItemAlbum, Rating: 3})
	assert.ErrorIs(t, err, ErrSaveFailed)
	assert.Zero(t, f.refresh.calls)
	assert.Zero(t, f.srv.Calls("review.list"))
}

func TestSave_ProfileRefreshFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.refresh.err = errors.New("offline")
	agg := New(f.client, f.refresh)

	res, err := agg.Save(context.Background(), SaveInput{UserID: f.user.ID, SpotifyID: "a", Type: models.ItemAlbum, Rating: 3})
	require.NoError(t, err)
	assert.NotNil(t, res.Mine)
}

func TestSave_FillsFromCatalog(t *testing.T) {
	f := newFixture(t)
	cat := &stubCatalog{item: catalog.Item{Name: "Moon Safari", ArtistName: "Air", Image: "https://img/moon"}}
	agg := New(f.client, nil, WithCatalog(cat))

	res, err := agg.Save(context.Background(), SaveInput{
		UserID: f.user.ID, SpotifyID: "moon", Type: models.ItemAlbum, Rating: 5, ItemName: "Custom name",
	})
	require.NoError(t, err)
	require.NotNil(t, res.Mine)
	assert.Equal(t, "Custom name", res.Mine.ItemName)
	assert.Equal(t, "Air", res.Mine.ArtistName)
	assert.Equal(t, "https://img/moon", res.Mine.Image)

	cat.err = catalog.ErrNotFound
	_, err = agg.Save(context.Background(), SaveInput{UserID: f.user.ID, SpotifyID: "other", Type: models.ItemAlbum, Rating: 2})
	require.NoError(t, err, "catalog failures do not block the save")
	assert.Equal(t, 2, cat.calls)
}

func TestLoad_FailsSoft(t *testing.T) {
	f := newFixture(t)
	agg := New(f.client, nil)

	f.srv.FailNext("review.list", http.StatusServiceUnavailable, "")
	res := agg.Load(context.Background(), "a", models.ItemAlbum, f.user.ID)
	assert.Nil(t, res.Mine)
	assert.Empty(t, res.Others)
}

func ids(reviews []models.Review) []models.ID {
	out := make([]models.ID, len(reviews))
	for i, r := range reviews {
		out[i] = r.ID
	}
	return out
}

package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spinlog/internal/models"
	"spinlog/internal/storage"
)

type stubProfiles struct {
	rows  []models.Profile
	err   error
	calls int
}

func (s *stubProfiles) UserProfile(_ context.Context, userID string) ([]models.Profile, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.rows, nil
}

func newKV(t *testing.T) storage.KV {
	t.Helper()
	kv, err := storage.OpenBunt(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })
	return kv
}

var alice = models.User{ID: "u1", Username: "alice", Email: "alice@example.com", Avatar: models.NoAvatar}

func aliceProfile(reviews int) models.Profile {
	p := models.Profile{ID: "u1", Username: "alice", Email: "alice@example.com"}
	for i := 0; i < reviews; i++ {
		p.Reviews = append(p.Reviews, models.Review{ID: models.ID(string(rune('a' + i))), UserID: "u1"})
	}
	p.Follows = []models.Follow{{ID: "f1", ArtistName: "Low"}}
	return p
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": "u1", "exp": exp.Unix()})
	signed, err := token.SignedString([]byte("test-secret-value"))
	require.NoError(t, err)
	return signed
}

func TestRestore_EmptyIsAnonymous(t *testing.T) {
	store := New(newKV(t), &stubProfiles{})

	assert.True(t, store.IsLoading())
	assert.Equal(t, Uninitialized, store.State())

	assert.Equal(t, Anonymous, store.Restore(context.Background()))
	assert.False(t, store.IsLoading())
	assert.Nil(t, store.User())
	assert.Empty(t, store.Token())
}

func TestSignIn_PersistsAndRestores(t *testing.T) {
	ctx := context.Background()
	kv := newKV(t)
	backend := &stubProfiles{rows: []models.Profile{aliceProfile(2)}}

	store := New(kv, backend)
	store.Restore(ctx)
	require.NoError(t, store.SignIn(ctx, "opaque-token", alice))

	assert.Equal(t, Authenticated, store.State())
	assert.Equal(t, "opaque-token", store.Token())
	assert.Equal(t, 2, store.Profile().ReviewCount())

	for _, key := range []string{KeyToken, KeyUser, KeyProfile} {
		_, ok, err := kv.Get(ctx, key)
		require.NoError(t, err)
		assert.True(t, ok, key)
	}

	restarted := New(kv, backend)
	assert.Equal(t, Authenticated, restarted.Restore(ctx))
	assert.Equal(t, alice, *restarted.User())
	require.NotNil(t, restarted.Profile())
	assert.Equal(t, 2, restarted.Profile().ReviewCount())
	assert.Equal(t, "Low", restarted.Profile().Follows[0].ArtistName)
	assert.Equal(t, 1, backend.calls, "restore does not hit the network")
}

func TestSignOut_ClearsEverything(t *testing.T) {
	ctx := context.Background()
	kv := newKV(t)
	store := New(kv, &stubProfiles{rows: []models.Profile{aliceProfile(1)}})
	store.Restore(ctx)
	require.NoError(t, store.SignIn(ctx, "tok", alice))

	require.NoError(t, store.SignOut(ctx))
	require.NoError(t, store.SignOut(ctx))

	assert.Equal(t, Anonymous, store.State())
	assert.Nil(t, store.User())
	assert.Nil(t, store.Profile())
	assert.Empty(t, store.Token())
	for _, key := range []string{KeyToken, KeyUser, KeyProfile} {
		_, ok, err := kv.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok, key)
	}
}

func TestSignIn_ProfileFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	kv := newKV(t)
	backend := &stubProfiles{err: errors.New("timeout")}
	store := New(kv, backend)
	store.Restore(ctx)

	err := store.SignIn(ctx, "tok", alice)
	require.Error(t, err)
	assert.Equal(t, Anonymous, store.State())

	_, ok, err := kv.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)

	backend.err = nil
	backend.rows = nil
	assert.ErrorIs(t, store.SignIn(ctx, "tok", alice), ErrProfileMissing)
	_, ok, _ = kv.Get(ctx, KeyUser)
	assert.False(t, ok)
}

func TestSignIn_RejectsEmpty(t *testing.T) {
	store := New(newKV(t), &stubProfiles{})
	assert.ErrorIs(t, store.SignIn(context.Background(), "", alice), ErrInvalidSession)
	assert.ErrorIs(t, store.SignIn(context.Background(), "tok", models.User{}), ErrInvalidSession)
}

func TestRestore_TokenExpiry(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		token string
		want  State
	}{
		{name: "expired jwt", token: signedToken(t, now.Add(-time.Minute)), want: Anonymous},
		{name: "valid jwt", token: signedToken(t, now.Add(time.Hour)), want: Authenticated},
		{name: "opaque token", token: "not-a-jwt", want: Authenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			kv := newKV(t)
			require.NoError(t, kv.Set(ctx, KeyToken, tt.token))
			require.NoError(t, kv.Set(ctx, KeyUser, `{"id":"u1","username":"alice"}`))

			store := New(kv, &stubProfiles{}, WithClock(func() time.Time { return now }))
			assert.Equal(t, tt.want, store.Restore(ctx))

			_, ok, err := kv.Get(ctx, KeyToken)
			require.NoError(t, err)
			assert.Equal(t, tt.want == Authenticated, ok)
		})
	}
}

func TestRestore_RunsOnce(t *testing.T) {
	ctx := context.Background()
	kv := newKV(t)
	store := New(kv, &stubProfiles{})
	assert.Equal(t, Anonymous, store.Restore(ctx))

	require.NoError(t, kv.Set(ctx, KeyToken, "late"))
	assert.Equal(t, Anonymous, store.Restore(ctx))
}

func TestRestore_CorruptUserIsAnonymous(t *testing.T) {
	ctx := context.Background()
	kv := newKV(t)
	require.NoError(t, kv.Set(ctx, KeyToken, "tok"))
	require.NoError(t, kv.Set(ctx, KeyUser, "{not json"))

	store := New(kv, &stubProfiles{})
	assert.Equal(t, Anonymous, store.Restore(ctx))
}

func TestUpdateUserProfile(t *testing.T) {
	ctx := context.Background()
	backend := &stubProfiles{rows: []models.Profile{aliceProfile(1)}}
	store := New(newKV(t), backend)
	store.Restore(ctx)

	assert.ErrorIs(t, store.UpdateUserProfile(ctx, nil), ErrNotSignedIn)

	require.NoError(t, store.SignIn(ctx, "tok", alice))

	explicit := aliceProfile(0)
	explicit.Username = "alice2"
	require.NoError(t, store.UpdateUserProfile(ctx, &explicit))
	assert.Equal(t, "alice2", store.Profile().Username)
	assert.Equal(t, 1, backend.calls)

	backend.rows = []models.Profile{aliceProfile(3)}
	require.NoError(t, store.UpdateUserProfile(ctx, nil))
	assert.Equal(t, 3, store.Profile().ReviewCount())

	backend.err = errors.New("offline")
	assert.Error(t, store.UpdateUserProfile(ctx, nil))
	assert.Equal(t, 3, store.Profile().ReviewCount(), "failed refresh keeps the cached profile")
}

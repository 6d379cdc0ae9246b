package apitest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"spinlog/internal/models"
)

func newTestServer(t *testing.T, requireAuth bool) *Server {
	t.Helper()
	return New(Options{
		JWTSecret:   "apitest-test-secret",
		RequireAuth: requireAuth,
		Now:         func() time.Time { return time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC) },
	})
}

func do(t *testing.T, s *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.Routes().ServeHTTP(rr, req)
	return rr
}

func TestHandleRegisterAndLogin(t *testing.T) {
	s := newTestServer(t, true)

	rr := do(t, s, http.MethodPost, "/auth/register", "", registerRequest{Username: "ann", Email: "Ann@Example.com", Password: "secret1"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body)
	}

	rr = do(t, s, http.MethodPost, "/auth/register", "", registerRequest{Username: "ann2", Email: "ann@example.com", Password: "secret1"})
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", rr.Code)
	}

	rr = do(t, s, http.MethodPost, "/auth/login", "", loginRequest{Email: "ann@example.com", Password: "wrong"})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}

	rr = do(t, s, http.MethodPost, "/auth/login", "", loginRequest{Email: "ann@example.com", Password: "secret1"})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var resp authResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Token == "" || resp.User.Username != "ann" || resp.User.Avatar != models.NoAvatar {
		t.Fatalf("unexpected auth response: %#v", resp)
	}

	userID, err := s.validateToken(resp.Token)
	if err != nil || userID != resp.User.ID {
		t.Fatalf("token does not validate: %q %v", userID, err)
	}
}

func TestWritesRequireMatchingToken(t *testing.T) {
	s := newTestServer(t, true)
	alice, _ := s.AddUser("alice", "alice@example.com", "secret1")
	bob, _ := s.AddUser("bob", "bob@example.com", "secret1")
	bobToken, _ := s.IssueToken(bob.ID)

	body := saveReviewRequest{SpotifyID: "a1", Types: models.ItemAlbum, Rating: 3}

	if rr := do(t, s, http.MethodPost, "/review/"+alice.ID, "", body); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 without token, got %d", rr.Code)
	}
	if rr := do(t, s, http.MethodPost, "/review/"+alice.ID, "garbage", body); rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 with bad token, got %d", rr.Code)
	}
	if rr := do(t, s, http.MethodPost, "/review/"+alice.ID, bobToken, body); rr.Code != http.StatusForbidden {
		t.Fatalf("expected status 403 writing as another user, got %d", rr.Code)
	}
	if rr := do(t, s, http.MethodPost, "/review/"+bob.ID, bobToken, body); rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	now := time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	s := New(Options{JWTSecret: "apitest-test-secret", RequireAuth: true, TokenTTL: time.Hour, Now: func() time.Time { return now }})
	user, _ := s.AddUser("c", "c@example.com", "secret1")
	token, _ := s.IssueToken(user.ID)

	now = now.Add(2 * time.Hour)
	rr := do(t, s, http.MethodPut, "/user/"+user.ID, token, updateUserRequest{Username: "d"})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
}

func TestSaveReviewUpserts(t *testing.T) {
	s := newTestServer(t, false)
	user, _ := s.AddUser("u", "u@example.com", "secret1")

	for _, rating := range []int{2, 5} {
		rr := do(t, s, http.MethodPost, "/review/"+user.ID, "", saveReviewRequest{SpotifyID: "a1", Types: models.ItemAlbum, Rating: rating})
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}
		var rows []models.Review
		if err := json.NewDecoder(rr.Body).Decode(&rows); err != nil || len(rows) != 1 {
			t.Fatalf("expected one-row array, got %v %v", rows, err)
		}
	}

	rr := do(t, s, http.MethodGet, "/review/a1?type=album", "", nil)
	var reviews []models.Review
	if err := json.NewDecoder(rr.Body).Decode(&reviews); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(reviews) != 1 || reviews[0].Rating != 5 || reviews[0].Users.Username != "u" {
		t.Fatalf("unexpected reviews: %#v", reviews)
	}

	if rr := do(t, s, http.MethodPost, "/review/"+user.ID, "", saveReviewRequest{SpotifyID: "a1", Types: models.ItemAlbum, Rating: 9}); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for rating 9, got %d", rr.Code)
	}
}

func TestVoteToggles(t *testing.T) {
	s := newTestServer(t, false)
	review := s.AddReview(models.Review{UserID: "x", SpotifyID: "a1", Type: models.ItemAlbum})

	steps := []struct {
		vote models.Vote
		up   int
		down int
	}{
		{models.VoteUp, 1, 0},
		{models.VoteDown, 0, 1},
		{models.VoteDown, 0, 0},
		{models.VoteUp, 1, 0},
		{models.VoteUp, 0, 0},
	}
	for i, step := range steps {
		rr := do(t, s, http.MethodPost, "/review/vote", "", voteRequest{UserID: "me", ReviewID: review.ID, Type: step.vote})
		var score models.Score
		if err := json.NewDecoder(rr.Body).Decode(&score); err != nil {
			t.Fatalf("step %d: decode: %v", i, err)
		}
		if len(score.Upvotes) != step.up || len(score.Downvotes) != step.down {
			t.Fatalf("step %d: got up=%v down=%v", i, score.Upvotes, score.Downvotes)
		}
	}

	if rr := do(t, s, http.MethodPost, "/review/vote", "", voteRequest{UserID: "me", ReviewID: "nope", Type: models.VoteUp}); rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}

func TestProfileWrapsFollowsAndFavorites(t *testing.T) {
	s := newTestServer(t, false)
	user, _ := s.AddUser("p", "p@example.com", "secret1")
	s.AddFollow(user.ID, models.Follow{ArtistName: "Low"})
	s.AddFavorite(user.ID, models.Favorite{ItemName: "Souvlaki", Type: models.ItemAlbum})

	rr := do(t, s, http.MethodGet, "/user/"+user.ID, "", nil)
	var raw []map[string]json.RawMessage
	if err := json.NewDecoder(bytes.NewReader(rr.Body.Bytes())).Decode(&raw); err != nil || len(raw) != 1 {
		t.Fatalf("expected single-element array, got %s", rr.Body)
	}
	if !bytes.HasPrefix(raw[0]["follows"], []byte(`[{"follow":[`)) {
		t.Fatalf("follows not wrapped: %s", raw[0]["follows"])
	}

	var profiles []models.Profile
	if err := json.Unmarshal(rr.Body.Bytes(), &profiles); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if len(profiles[0].Follows) != 1 || len(profiles[0].Favorites) != 1 {
		t.Fatalf("unexpected profile: %#v", profiles[0])
	}

	if rr := do(t, s, http.MethodGet, "/user/missing", "", nil); rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rr.Code)
	}
}

func TestReorderValidatesPositions(t *testing.T) {
	s := newTestServer(t, false)
	list := s.AddList(models.List{UserID: "u", Title: "t", ListItems: []models.ListItem{{ID: "a"}, {ID: "b", Position: 1}}})
	path := "/list/" + list.ID.String() + "/items"

	bad := []reorderRequest{
		{Items: []itemPosition{{ID: "a", Position: 0}}},
		{Items: []itemPosition{{ID: "a", Position: 0}, {ID: "b", Position: 0}}},
		{Items: []itemPosition{{ID: "a", Position: 0}, {ID: "b", Position: 2}}},
		{Items: []itemPosition{{ID: "a", Position: 0}, {ID: "zzz", Position: 1}}},
	}
	for i, body := range bad {
		if rr := do(t, s, http.MethodPut, path, "", body); rr.Code != http.StatusBadRequest {
			t.Fatalf("case %d: expected status 400, got %d", i, rr.Code)
		}
	}

	rr := do(t, s, http.MethodPut, path, "", reorderRequest{Items: []itemPosition{{ID: "a", Position: 1}, {ID: "b", Position: 0}}})
	var got models.List
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ListItems[0].ID != "b" || got.ListItems[1].ID != "a" {
		t.Fatalf("unexpected order: %#v", got.ListItems)
	}
}

func TestFailNextAndHooks(t *testing.T) {
	s := newTestServer(t, false)
	hooked := 0
	s.Hook("review.score", func() { hooked++ })
	s.FailNext("review.score", http.StatusTeapot, "later")

	if rr := do(t, s, http.MethodGet, "/review/score/r1", "", nil); rr.Code != http.StatusTeapot {
		t.Fatalf("expected injected status, got %d", rr.Code)
	}
	if rr := do(t, s, http.MethodGet, "/review/score/r1", "", nil); rr.Code != http.StatusOK {
		t.Fatalf("expected status 200 after failure drained, got %d", rr.Code)
	}
	if hooked != 2 || s.Calls("review.score") != 2 {
		t.Fatalf("hooked=%d calls=%d", hooked, s.Calls("review.score"))
	}
}

package apitest

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"spinlog/internal/models"
)

type saveReviewRequest struct {
	SpotifyID  string          `json:"spotifyId"`
	Text       string          `json:"text"`
	Types      models.ItemType `json:"types"`
	Rating     int             `json:"rating"`
	ArtistName string          `json:"artistName"`
	ItemName   string          `json:"itemName"`
	Image      string          `json:"image"`
}

type voteRequest struct {
	UserID   string      `json:"userId"`
	ReviewID models.ID   `json:"reviewId"`
	Type     models.Vote `json:"type"`
}

type commentRequest struct {
	ReviewID models.ID `json:"reviewId"`
	UserID   string    `json:"userId"`
	Text     string    `json:"text"`
}

// AddReview stores a review as-is (seeding other users' reviews). Missing id
// and created_at are filled in.
func (s *Server) AddReview(review models.Review) models.Review {
	s.mu.Lock()
	defer s.mu.Unlock()

	if review.ID == "" {
		review.ID = newID()
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = models.NewTimestamp(s.now())
	}
	if acct, ok := s.accounts[review.UserID]; ok {
		review.Users = authorOf(acct.user)
	}
	stored := review
	s.reviews = append(s.reviews, &stored)
	return stored
}

// SetVotes replaces the voter sets of a review.
func (s *Server) SetVotes(reviewID models.ID, up, down []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.votes[reviewID] = &voteSet{
		up:   append([]string(nil), up...),
		down: append([]string(nil), down...),
	}
}

func (s *Server) handleSaveReview(w http.ResponseWriter, r *http.Request) {
	if !s.enter(w, "review.save") {
		return
	}

	userID := chi.URLParam(r, "userId")
	if !s.canActAs(r, userID) {
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "not authorized to review as this user"})
		return
	}

	var req saveReviewRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.SpotifyID == "" || req.Types == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "spotifyId and types are required"})
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "rating must be between 1 and 5"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[userID]
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "user not found"})
		return
	}

	var row *models.Review
	for _, existing := range s.reviews {
		if existing.UserID == userID && existing.SpotifyID == req.SpotifyID && existing.Type == req.Types {
			row = existing
			break
		}
	}
	if row == nil {
		row = &models.Review{
			ID:        newID(),
			UserID:    userID,
			SpotifyID: req.SpotifyID,
			Type:      req.Types,
			CreatedAt: models.NewTimestamp(s.now()),
		}
		s.reviews = append(s.reviews, row)
	}
	row.Rating = req.Rating
	row.Text = req.Text
	row.ArtistName = req.ArtistName
	row.ItemName = req.ItemName
	row.Image = req.Image
	row.Users = authorOf(acct.user)

	// Inserted rows come back as a one-element array.
	writeJSON(w, http.StatusOK, []models.Review{*row})
}

func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	if !s.enter(w, "review.list") {
		return
	}

	spotifyID := chi.URLParam(r, "spotifyId")
	itemType, _ := models.ParseItemType(r.URL.Query().Get("type"))

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Review, 0)
	for _, review := range s.reviews {
		if review.SpotifyID != spotifyID {
			continue
		}
		if itemType != "" && review.Type != itemType {
			continue
		}
		out = append(out, s.denormalizeLocked(*review))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	if !s.enter(w, "review.score") {
		return
	}

	reviewID := models.ID(chi.URLParam(r, "reviewId"))

	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.scoreLocked(reviewID))
}

func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	if !s.enter(w, "review.vote") {
		return
	}

	var req voteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !req.Type.Valid() {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "type must be up or down"})
		return
	}
	if !s.canActAs(r, req.UserID) {
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "not authorized to vote as this user"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findReviewLocked(req.ReviewID) == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "review not found"})
		return
	}

	set := s.votes[req.ReviewID]
	if set == nil {
		set = &voteSet{}
		s.votes[req.ReviewID] = set
	}

	wasUp := contains(set.up, req.UserID)
	wasDown := contains(set.down, req.UserID)
	set.up = without(set.up, req.UserID)
	set.down = without(set.down, req.UserID)

	switch {
	case req.Type == models.VoteUp && !wasUp:
		set.up = append(set.up, req.UserID)
	case req.Type == models.VoteDown && !wasDown:
		set.down = append(set.down, req.UserID)
	}

	writeJSON(w, http.StatusOK, s.scoreLocked(req.ReviewID))
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	if !s.enter(w, "review.comment") {
		return
	}

	var req commentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "text is required"})
		return
	}
	if !s.canActAs(r, req.UserID) {
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "not authorized to comment as this user"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.findReviewLocked(req.ReviewID) == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "review not found"})
		return
	}
	acct, ok := s.accounts[req.UserID]
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "user not found"})
		return
	}

	comment := models.Comment{
		ID:        newID(),
		ReviewID:  req.ReviewID,
		UserID:    req.UserID,
		Text:      req.Text,
		CreatedAt: models.NewTimestamp(s.now()),
		Users:     authorOf(acct.user),
	}
	s.comments[req.ReviewID] = append(s.comments[req.ReviewID], comment)
	writeJSON(w, http.StatusCreated, comment)
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	if !s.enter(w, "review.comments") {
		return
	}

	reviewID := models.ID(chi.URLParam(r, "reviewId"))

	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.commentsLocked(reviewID))
}

func (s *Server) findReviewLocked(id models.ID) *models.Review {
	for _, review := range s.reviews {
		if review.ID == id {
			return review
		}
	}
	return nil
}

func (s *Server) scoreLocked(id models.ID) models.Score {
	score := models.Score{Upvotes: []string{}, Downvotes: []string{}}
	if set := s.votes[id]; set != nil {
		score.Upvotes = append(score.Upvotes, set.up...)
		score.Downvotes = append(score.Downvotes, set.down...)
	}
	return score
}

func (s *Server) commentsLocked(reviewID models.ID) []models.Comment {
	out := make([]models.Comment, 0, len(s.comments[reviewID]))
	for _, comment := range s.comments[reviewID] {
		if acct, ok := s.accounts[comment.UserID]; ok {
			comment.Users = authorOf(acct.user)
		}
		out = append(out, comment)
	}
	return out
}

func (s *Server) denormalizeLocked(review models.Review) models.Review {
	if acct, ok := s.accounts[review.UserID]; ok {
		review.Users = authorOf(acct.user)
	}
	review.ReviewComments = s.commentsLocked(review.ID)
	return review
}

func authorOf(user models.User) models.Author {
	return models.Author{Username: user.Username, Avatar: user.Avatar}
}

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func without(ids []string, id string) []string {
	out := ids[:0]
	for _, candidate := range ids {
		if candidate != id {
			out = append(out, candidate)
		}
	}
	return out
}

package apitest

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"spinlog/internal/models"
)

type updateUserRequest struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// AddFollow records userID following an artist.
func (s *Server) AddFollow(userID string, follow models.Follow) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if follow.ID == "" {
		follow.ID = newID()
	}
	follow.UserID = userID
	s.follows[userID] = append(s.follows[userID], follow)
}

// AddFavorite records userID favoriting an item.
func (s *Server) AddFavorite(userID string, favorite models.Favorite) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if favorite.ID == "" {
		favorite.ID = newID()
	}
	favorite.UserID = userID
	s.favorites[userID] = append(s.favorites[userID], favorite)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	if !s.enter(w, "user.profile") {
		return
	}

	userID := chi.URLParam(r, "userId")

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[userID]; !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "user not found"})
		return
	}
	writeJSON(w, http.StatusOK, []models.Profile{s.profileLocked(userID)})
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	if !s.enter(w, "user.update") {
		return
	}

	userID := chi.URLParam(r, "userId")
	if !s.canActAs(r, userID) {
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "not authorized to edit this user"})
		return
	}

	var req updateUserRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[userID]
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "user not found"})
		return
	}
	if name := strings.TrimSpace(req.Username); name != "" {
		acct.user.Username = name
	}
	if req.Avatar != "" {
		acct.user.Avatar = req.Avatar
	}
	writeJSON(w, http.StatusOK, []models.Profile{s.profileLocked(userID)})
}

func (s *Server) profileLocked(userID string) models.Profile {
	acct := s.accounts[userID]
	profile := models.Profile{
		ID:             acct.user.ID,
		Username:       acct.user.Username,
		Email:          acct.user.Email,
		Avatar:         acct.user.Avatar,
		Follows:        append([]models.Follow{}, s.follows[userID]...),
		Favorites:      append([]models.Favorite{}, s.favorites[userID]...),
		Reviews:        []models.Review{},
		ReviewComments: []models.Comment{},
	}
	for _, review := range s.reviews {
		if review.UserID == userID {
			profile.Reviews = append(profile.Reviews, s.denormalizeLocked(*review))
		}
	}
	for _, review := range s.reviews {
		for _, comment := range s.commentsLocked(review.ID) {
			if comment.UserID == userID {
				profile.ReviewComments = append(profile.ReviewComments, comment)
			}
		}
	}
	return profile
}

package apitest

import (
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"spinlog/internal/models"
)

type createListRequest struct {
	UserID      string `json:"userId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	IsPublic    bool   `json:"isPublic"`
}

type itemPosition struct {
	ID       models.ID `json:"id"`
	Position int       `json:"position"`
}

type reorderRequest struct {
	Items []itemPosition `json:"items"`
}

// AddList stores a list with its items (positions are kept as given).
func (s *Server) AddList(list models.List) models.List {
	s.mu.Lock()
	defer s.mu.Unlock()
	if list.ID == "" {
		list.ID = newID()
	}
	if list.CreatedAt.IsZero() {
		list.CreatedAt = models.NewTimestamp(s.now())
	}
	items := make([]models.ListItem, len(list.ListItems))
	for i, item := range list.ListItems {
		if item.ID == "" {
			item.ID = newID()
		}
		items[i] = item
	}
	list.ListItems = items
	stored := list
	s.lists = append(s.lists, &stored)
	return cloneList(stored)
}

func (s *Server) handleListLists(w http.ResponseWriter, r *http.Request) {
	if !s.enter(w, "list.list") {
		return
	}

	userID := chi.URLParam(r, "userId")

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.List, 0)
	for _, list := range s.lists {
		if list.UserID == userID {
			out = append(out, cloneList(*list))
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateList(w http.ResponseWriter, r *http.Request) {
	if !s.enter(w, "list.create") {
		return
	}

	var req createListRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "title is required"})
		return
	}
	if !s.canActAs(r, req.UserID) {
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "not authorized to create lists for this user"})
		return
	}

	list := s.AddList(models.List{
		UserID:      req.UserID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		IsPublic:    req.IsPublic,
	})
	writeJSON(w, http.StatusCreated, list)
}

func (s *Server) handleReorderList(w http.ResponseWriter, r *http.Request) {
	if !s.enter(w, "list.reorder") {
		return
	}

	listID := models.ID(chi.URLParam(r, "listId"))

	var req reorderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var list *models.List
	for _, candidate := range s.lists {
		if candidate.ID == listID {
			list = candidate
			break
		}
	}
	if list == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "list not found"})
		return
	}
	if !s.canActAs(r, list.UserID) {
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "not authorized to modify this list"})
		return
	}
	if len(req.Items) != len(list.ListItems) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "every item must be positioned"})
		return
	}

	positions := make(map[models.ID]int, len(req.Items))
	seen := make(map[int]bool, len(req.Items))
	for _, item := range req.Items {
		if item.Position < 0 || item.Position >= len(req.Items) || seen[item.Position] {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "positions must be unique and contiguous"})
			return
		}
		seen[item.Position] = true
		positions[item.ID] = item.Position
	}
	for i, item := range list.ListItems {
		pos, ok := positions[item.ID]
		if !ok {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown list item"})
			return
		}
		list.ListItems[i].Position = pos
	}
	sort.SliceStable(list.ListItems, func(i, j int) bool {
		return list.ListItems[i].Position < list.ListItems[j].Position
	})

	writeJSON(w, http.StatusOK, cloneList(*list))
}

func cloneList(list models.List) models.List {
	list.ListItems = append([]models.ListItem{}, list.ListItems...)
	return list
}

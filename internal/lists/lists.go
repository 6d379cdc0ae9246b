// Package lists keeps user-curated lists in order. Item positions are
// zero-based, unique and contiguous after every operation.
package lists

import (
	"errors"
	"fmt"
	"sort"

	"spinlog/internal/api"
	"spinlog/internal/models"
)

var (
	// ErrOutOfRange is returned when a move index is outside the list.
	ErrOutOfRange = errors.New("list position out of range")
	// ErrItemNotFound is returned when an item id is not in the list.
	ErrItemNotFound = errors.New("list item not found")
)

// Normalize sorts items by position (ties keep their input order) and
// renumbers them 0..n-1. The input is not modified.
func Normalize(items []models.ListItem) []models.ListItem {
	out := append([]models.ListItem{}, items...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Position < out[j].Position
	})
	return renumber(out)
}

// Move relocates the item at from to index to, shifting the items between.
func Move(items []models.ListItem, from, to int) ([]models.ListItem, error) {
	out := Normalize(items)
	if from < 0 || from >= len(out) || to < 0 || to >= len(out) {
		return nil, fmt.Errorf("%w: move %d to %d in list of %d", ErrOutOfRange, from, to, len(out))
	}
	if from == to {
		return out, nil
	}

	item := out[from]
	if from < to {
		copy(out[from:to], out[from+1:to+1])
	} else {
		copy(out[to+1:from+1], out[to:from])
	}
	out[to] = item
	return renumber(out), nil
}

// Remove drops the item with id and closes the gap.
func Remove(items []models.ListItem, id models.ID) ([]models.ListItem, error) {
	out := Normalize(items)
	for i, item := range out {
		if item.ID == id {
			return renumber(append(out[:i], out[i+1:]...)), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
}

// Append adds item at the end.
func Append(items []models.ListItem, item models.ListItem) []models.ListItem {
	out := Normalize(items)
	item.Position = len(out)
	return append(out, item)
}

// Positions is the reorder payload for items.
func Positions(items []models.ListItem) []api.ItemPosition {
	out := make([]api.ItemPosition, len(items))
	for i, item := range items {
		out[i] = api.ItemPosition{ID: item.ID, Position: item.Position}
	}
	return out
}

func renumber(items []models.ListItem) []models.ListItem {
	for i := range items {
		items[i].Position = i
	}
	return items
}

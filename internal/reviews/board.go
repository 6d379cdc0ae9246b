package reviews

import "spinlog/internal/models"

// Board is the display state of an item's reviews: the loaded result plus
// at most one active (expanded) review. Not safe for concurrent use.
type Board struct {
	result Result
	active models.ID
}

// NewBoard constructs a board with no active review.
func NewBoard(result Result) *Board {
	return &Board{result: result}
}

// Active returns the active review id, or "".
func (b *Board) Active() models.ID {
	return b.active
}

// Toggle activates id, replacing any other active review. Toggling the
// active review clears it.
func (b *Board) Toggle(id models.ID) {
	if b.active == id {
		b.active = ""
		return
	}
	b.active = id
}

// ShowAddReview reports whether the "add review" affordance is shown.
func (b *Board) ShowAddReview() bool {
	return b.result.Mine == nil
}

// Order is mine (if any) followed by others, with the active review pulled
// to the front. Everything else keeps its relative order.
func (b *Board) Order() []models.Review {
	order := make([]models.Review, 0, len(b.result.Others)+1)
	if b.result.Mine != nil {
		order = append(order, *b.result.Mine)
	}
	order = append(order, b.result.Others...)

	if b.active == "" {
		return order
	}
	for i, review := range order {
		if review.ID == b.active {
			copy(order[1:i+1], order[:i])
			order[0] = review
			break
		}
	}
	return order
}

// Row is one rendered review.
type Row struct {
	Review        models.Review
	Expanded      bool
	DividerBefore bool
}

// Render lays the order out as rows. The active review is expanded; every
// other row is collapsed and preceded by a divider, except the first
// collapsed row when nothing (no active review, no add-review affordance)
// sits above it.
func (b *Board) Render() []Row {
	order := b.Order()
	rows := make([]Row, 0, len(order))

	hasActive := len(order) > 0 && b.active != "" && order[0].ID == b.active
	collapsed := 0
	for i, review := range order {
		if hasActive && i == 0 {
			rows = append(rows, Row{Review: review, Expanded: true})
			continue
		}
		rows = append(rows, Row{
			Review:        review,
			DividerBefore: collapsed > 0 || hasActive || b.ShowAddReview(),
		})
		collapsed++
	}
	return rows
}

package models

import "strings"

// ItemType names the kind of catalog entity a review, favorite or list item refers to.
type ItemType string

const (
	ItemAlbum  ItemType = "album"
	ItemTrack  ItemType = "track"
	ItemArtist ItemType = "artist"
)

// ParseItemType accepts the spellings used across the app ("song" is an alias of track).
func ParseItemType(raw string) (ItemType, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "album":
		return ItemAlbum, true
	case "track", "song":
		return ItemTrack, true
	case "artist":
		return ItemArtist, true
	default:
		return "", false
	}
}

// CatalogRef identifies an entity in the third-party catalog.
type CatalogRef struct {
	SpotifyID string   `json:"spotifyId"`
	Type      ItemType `json:"type"`
}

// Review is a user's rating and text for one catalog item. A user holds at
// most one review per (user_id, spotifyId, type).
type Review struct {
	ID             ID        `json:"id"`
	UserID         string    `json:"user_id"`
	SpotifyID      string    `json:"spotifyId"`
	Type           ItemType  `json:"type"`
	Rating         int       `json:"rating"`
	Text           string    `json:"text"`
	ArtistName     string    `json:"artist_name,omitempty"`
	ItemName       string    `json:"item_name,omitempty"`
	Image          string    `json:"image,omitempty"`
	CreatedAt      Timestamp `json:"created_at"`
	Users          Author    `json:"users"`
	ReviewComments []Comment `json:"review_comments,omitempty"`
}

// Comment is a reply on a review.
type Comment struct {
	ID        ID        `json:"id"`
	ReviewID  ID        `json:"review_id"`
	UserID    string    `json:"user_id"`
	Text      string    `json:"text"`
	CreatedAt Timestamp `json:"created_at"`
	Users     Author    `json:"users"`
}

// Score is the authoritative vote sets for a review.
type Score struct {
	Upvotes   []string `json:"upvotes"`
	Downvotes []string `json:"downvotes"`
}

// Vote is a user's own vote on a review.
type Vote string

const (
	VoteNone Vote = ""
	VoteUp   Vote = "up"
	VoteDown Vote = "down"
)

// Valid reports whether v is a direction that can be sent to the backend.
func (v Vote) Valid() bool {
	return v == VoteUp || v == VoteDown
}

// String renders "none" for the empty vote.
func (v Vote) String() string {
	if v == VoteNone {
		return "none"
	}
	return string(v)
}

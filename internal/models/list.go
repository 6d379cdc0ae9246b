package models

// ListItem is one entry in a user-curated list. Position is zero-based and
// dense within its list.
type ListItem struct {
	ID         ID       `json:"id"`
	ItemName   string   `json:"item_name"`
	ArtistName string   `json:"artist_name"`
	Type       ItemType `json:"type"`
	SpotifyID  string   `json:"spotifyId,omitempty"`
	Position   int      `json:"position"`
	Cover      string   `json:"cover,omitempty"`
	ImageURL   string   `json:"image_url,omitempty"`
}

// Artwork returns the cover, falling back to image_url.
func (i ListItem) Artwork() string {
	if i.Cover != "" {
		return i.Cover
	}
	return i.ImageURL
}

// List is an ordered, user-curated collection.
type List struct {
	ID          ID         `json:"id"`
	UserID      string     `json:"user_id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	IsPublic    bool       `json:"isPublic"`
	CreatedAt   Timestamp  `json:"created_at"`
	ListItems   []ListItem `json:"list_items"`
}

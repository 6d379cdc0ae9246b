package models

// Follow records a user following an artist.
type Follow struct {
	ID         ID        `json:"id"`
	UserID     string    `json:"user_id"`
	SpotifyID  string    `json:"spotifyId"`
	ArtistName string    `json:"artist_name,omitempty"`
	Image      string    `json:"image,omitempty"`
	CreatedAt  Timestamp `json:"created_at"`
}

// Favorite records a user favoriting a catalog item.
type Favorite struct {
	ID         ID        `json:"id"`
	UserID     string    `json:"user_id"`
	SpotifyID  string    `json:"spotifyId"`
	Type       ItemType  `json:"type"`
	ItemName   string    `json:"item_name,omitempty"`
	ArtistName string    `json:"artist_name,omitempty"`
	Image      string    `json:"image,omitempty"`
	CreatedAt  Timestamp `json:"created_at"`
}

package main

import (
	"fmt"
	"time"

	"spinlog/internal/apitest"
	"spinlog/internal/models"
)

const (
	demoEmail    = "demo@spinlog.dev"
	demoPassword = "demo123"
)

type seedAlbum struct {
	SpotifyID string
	Cover     string
	Artist    string
	Title     string
	Rating    int
	Text      string
	Favorited bool
}

var demoAlbums = []seedAlbum{
	{
		SpotifyID: "1vi1WySkgPGkbR8NnQzlXu",
		Cover:     "https://i.scdn.co/image/ab67616d0000b273boc-mhtrtc",
		Artist:    "Boards of Canada",
		Title:     "Music Has the Right to Children",
		Rating:    5,
		Text:      "Warm tape hiss and half-remembered melodies.",
		Favorited: true,
	},
	{
		SpotifyID: "49MNmJhZQewjt06rpwp6QR",
		Artist:    "Massive Attack",
		Title:     "Mezzanine",
		Rating:    4,
		Text:      "Teardrop alone earns the spin.",
		Favorited: true,
	},
	{
		SpotifyID: "3539EbNgIdEDGBKkUf4wno",
		Artist:    "Portishead",
		Title:     "Dummy",
		Rating:    5,
	},
	{
		SpotifyID: "6dVIqQ8qmQ5GBnJ9shOYGE",
		Artist:    "Radiohead",
		Title:     "OK Computer",
		Rating:    5,
		Favorited: true,
	},
}

// seedDemoData registers a demo account and a second reviewer so the board,
// votes, comments and timeline have something to show.
func seedDemoData(backend *apitest.Server) (models.User, error) {
	demo, err := backend.AddUser("demo", demoEmail, demoPassword)
	if err != nil {
		return models.User{}, fmt.Errorf("bootstrap demo user: %w", err)
	}
	friend, err := backend.AddUser("crate_digger", "crate@spinlog.dev", demoPassword)
	if err != nil {
		return models.User{}, fmt.Errorf("bootstrap second user: %w", err)
	}

	now := time.Now().UTC()
	list := models.List{UserID: demo.ID, Title: "Late night", IsPublic: true}
	for i, album := range demoAlbums {
		mine := backend.AddReview(models.Review{
			UserID:     demo.ID,
			SpotifyID:  album.SpotifyID,
			Type:       models.ItemAlbum,
			Rating:     album.Rating,
			Text:       album.Text,
			ArtistName: album.Artist,
			ItemName:   album.Title,
		})
		theirs := backend.AddReview(models.Review{
			UserID:     friend.ID,
			SpotifyID:  album.SpotifyID,
			Type:       models.ItemAlbum,
			Rating:     max(1, album.Rating-1),
			Text:       "Solid record.",
			ArtistName: album.Artist,
			ItemName:   album.Title,
		})
		backend.SetVotes(theirs.ID, []string{demo.ID}, nil)
		backend.SetVotes(mine.ID, []string{friend.ID}, nil)

		if album.Favorited {
			backend.AddFavorite(demo.ID, models.Favorite{
				SpotifyID:  album.SpotifyID,
				Type:       models.ItemAlbum,
				ItemName:   album.Title,
				ArtistName: album.Artist,
				CreatedAt:  models.NewTimestamp(now.Add(-time.Duration(i+1) * 24 * time.Hour)),
			})
		}
		list.ListItems = append(list.ListItems, models.ListItem{
			ItemName:   album.Title,
			ArtistName: album.Artist,
			Type:       models.ItemAlbum,
			SpotifyID:  album.SpotifyID,
			Position:   i,
			Cover:      album.Cover,
		})
	}

	backend.AddFollow(demo.ID, models.Follow{
		ArtistName: "Boards of Canada",
		SpotifyID:  "2VAvhf61GgLYmC6C8anyX1",
		CreatedAt:  models.NewTimestamp(now.Add(-10 * 24 * time.Hour)),
	})
	backend.AddList(list)
	return demo, nil
}

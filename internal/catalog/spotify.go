package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"

	"spinlog/internal/models"
)

const maxSearchLimit = 50

// Spotify implements Catalog on the Spotify Web API.
type Spotify struct {
	api *spotify.Client
}

// NewSpotify authenticates with the client-credentials flow. The token is
// fetched lazily and refreshed by the oauth2 transport.
func NewSpotify(ctx context.Context, clientID, clientSecret string) *Spotify {
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	return NewSpotifyWithClient(spotify.New(cfg.Client(ctx)))
}

// NewSpotifyWithClient wraps an already-authenticated client.
func NewSpotifyWithClient(api *spotify.Client) *Spotify {
	return &Spotify{api: api}
}

// Lookup implements Catalog.
func (s *Spotify) Lookup(ctx context.Context, ref models.CatalogRef) (Item, error) {
	id := spotify.ID(ref.SpotifyID)

	switch ref.Type {
	case models.ItemAlbum:
		album, err := s.api.GetAlbum(ctx, id)
		if err != nil {
			return Item{}, lookupError("album", ref.SpotifyID, err)
		}
		return convertAlbum(album.SimpleAlbum), nil
	case models.ItemTrack:
		track, err := s.api.GetTrack(ctx, id)
		if err != nil {
			return Item{}, lookupError("track", ref.SpotifyID, err)
		}
		return convertTrack(*track), nil
	case models.ItemArtist:
		artist, err := s.api.GetArtist(ctx, id)
		if err != nil {
			return Item{}, lookupError("artist", ref.SpotifyID, err)
		}
		return convertArtist(*artist), nil
	default:
		return Item{}, fmt.Errorf("%w: %q", ErrUnsupportedType, ref.Type)
	}
}

// Search implements Catalog.
func (s *Spotify) Search(ctx context.Context, query string, itemType models.ItemType, limit int) ([]Item, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Item{}, nil
	}
	if limit <= 0 || limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	var searchType spotify.SearchType
	switch itemType {
	case models.ItemAlbum:
		searchType = spotify.SearchTypeAlbum
	case models.ItemTrack:
		searchType = spotify.SearchTypeTrack
	case models.ItemArtist:
		searchType = spotify.SearchTypeArtist
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, itemType)
	}

	result, err := s.api.Search(ctx, query, searchType, spotify.Limit(limit))
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", itemType, err)
	}

	items := []Item{}
	if result.Albums != nil {
		for _, album := range result.Albums.Albums {
			items = append(items, convertAlbum(album))
		}
	}
	if result.Tracks != nil {
		for _, track := range result.Tracks.Tracks {
			items = append(items, convertTrack(track))
		}
	}
	if result.Artists != nil {
		for _, artist := range result.Artists.Artists {
			items = append(items, convertArtist(artist))
		}
	}
	return items, nil
}

func lookupError(kind, id string, err error) error {
	var status int
	var valueErr spotify.Error
	var ptrErr *spotify.Error
	switch {
	case errors.As(err, &ptrErr):
		status = ptrErr.Status
	case errors.As(err, &valueErr):
		status = valueErr.Status
	}
	if status == http.StatusNotFound || status == http.StatusBadRequest {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return fmt.Errorf("getting %s %s: %w", kind, id, err)
}

// convertAlbum converts a Spotify album to an Item.
func convertAlbum(album spotify.SimpleAlbum) Item {
	return Item{
		Ref:        models.CatalogRef{SpotifyID: album.ID.String(), Type: models.ItemAlbum},
		Name:       album.Name,
		ArtistName: joinArtists(album.Artists),
		Image:      firstImage(album.Images),
	}
}

// convertTrack converts a Spotify track to an Item, using the album cover.
func convertTrack(track spotify.FullTrack) Item {
	return Item{
		Ref:        models.CatalogRef{SpotifyID: track.ID.String(), Type: models.ItemTrack},
		Name:       track.Name,
		ArtistName: joinArtists(track.Artists),
		Image:      firstImage(track.Album.Images),
	}
}

// convertArtist converts a Spotify artist to an Item.
func convertArtist(artist spotify.FullArtist) Item {
	return Item{
		Ref:        models.CatalogRef{SpotifyID: artist.ID.String(), Type: models.ItemArtist},
		Name:       artist.Name,
		ArtistName: artist.Name,
		Image:      firstImage(artist.Images),
	}
}

func joinArtists(artists []spotify.SimpleArtist) string {
	names := make([]string, len(artists))
	for i, a := range artists {
		names[i] = a.Name
	}
	return strings.Join(names, ", ")
}

// Spotify lists images widest first.
func firstImage(images []spotify.Image) string {
	for _, img := range images {
		if img.URL != "" {
			return img.URL
		}
	}
	return ""
}

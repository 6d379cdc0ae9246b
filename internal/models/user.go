package models

import (
	"bytes"
	"encoding/json"
)

// NoAvatar is the sentinel the backend stores when a user has not set an avatar.
const NoAvatar = "NULL"

// User is the authenticated account as returned by the auth endpoints.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar,omitempty"`
}

// Author is the denormalized author summary embedded in reviews and comments.
type Author struct {
	Username string `json:"username"`
	Avatar   string `json:"avatar,omitempty"`
}

// HasAvatar reports whether avatar points at an image.
func HasAvatar(avatar string) bool {
	return avatar != "" && avatar != NoAvatar
}

// Profile is the aggregate served by GET /user/{id}. Follows and Favorites are
// flattened from the backend's single-element wrapper on decode.
type Profile struct {
	ID             string     `json:"id"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	Avatar         string     `json:"avatar,omitempty"`
	Follows        []Follow   `json:"-"`
	Favorites      []Favorite `json:"-"`
	Reviews        []Review   `json:"reviews"`
	ReviewComments []Comment  `json:"review_comments"`
}

type profileAlias Profile

type profileWire struct {
	profileAlias
	Follows   json.RawMessage `json:"follows,omitempty"`
	Favorites json.RawMessage `json:"favorites,omitempty"`
}

// UnmarshalJSON decodes the profile and unwraps follows[0].follow and
// favorites[0].favorite.
func (p *Profile) UnmarshalJSON(data []byte) error {
	var wire profileWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*p = Profile(wire.profileAlias)
	p.Follows = UnwrapFollows(wire.Follows)
	p.Favorites = UnwrapFavorites(wire.Favorites)
	return nil
}

// MarshalJSON re-wraps follows and favorites so a persisted profile decodes
// back through UnmarshalJSON unchanged.
func (p Profile) MarshalJSON() ([]byte, error) {
	follows, err := json.Marshal([]followGroup{{Follow: nonNilFollows(p.Follows)}})
	if err != nil {
		return nil, err
	}
	favorites, err := json.Marshal([]favoriteGroup{{Favorite: nonNilFavorites(p.Favorites)}})
	if err != nil {
		return nil, err
	}
	return json.Marshal(profileWire{
		profileAlias: profileAlias(p),
		Follows:      follows,
		Favorites:    favorites,
	})
}

// ReviewCount is the "reviews" stat shown on the profile screen.
func (p *Profile) ReviewCount() int {
	if p == nil {
		return 0
	}
	return len(p.Reviews)
}

type followGroup struct {
	Follow []Follow `json:"follow"`
}

type favoriteGroup struct {
	Favorite []Favorite `json:"favorite"`
}

// UnwrapFollows extracts follows[0].follow from the raw wrapper. A missing,
// null or malformed wrapper yields an empty slice.
func UnwrapFollows(raw json.RawMessage) []Follow {
	var groups []followGroup
	if !decodeWrapper(raw, &groups) || len(groups) == 0 || groups[0].Follow == nil {
		return []Follow{}
	}
	return groups[0].Follow
}

// UnwrapFavorites extracts favorites[0].favorite from the raw wrapper. A
// missing, null or malformed wrapper yields an empty slice.
func UnwrapFavorites(raw json.RawMessage) []Favorite {
	var groups []favoriteGroup
	if !decodeWrapper(raw, &groups) || len(groups) == 0 || groups[0].Favorite == nil {
		return []Favorite{}
	}
	return groups[0].Favorite
}

func decodeWrapper(raw json.RawMessage, dst any) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

func nonNilFollows(in []Follow) []Follow {
	if in == nil {
		return []Follow{}
	}
	return in
}

func nonNilFavorites(in []Favorite) []Favorite {
	if in == nil {
		return []Favorite{}
	}
	return in
}

// Package activity merges a profile's reviews, follows, favorites and
// comments into one short, newest-first timeline.
package activity

import (
	"fmt"
	"math"
	"sort"
	"time"

	"spinlog/internal/models"
)

// Limit is the number of entries a timeline keeps.
const Limit = 5

// Kind is the source collection of an entry.
type Kind string

const (
	KindReview   Kind = "review"
	KindFollow   Kind = "follow"
	KindFavorite Kind = "favorite"
	KindComment  Kind = "comment"
)

// Activity is one timeline entry. Data holds the source record
// (models.Review, models.Follow, models.Favorite or models.Comment).
type Activity struct {
	Type      Kind
	CreatedAt time.Time
	Title     string
	Subtitle  string
	Data      any
}

// Merge maps the four collections into entries, drops undated ones, sorts
// newest first and keeps the first Limit.
func Merge(reviews []models.Review, follows []models.Follow, favorites []models.Favorite, comments []models.Comment) []Activity {
	all := make([]Activity, 0, len(reviews)+len(follows)+len(favorites)+len(comments))

	for _, r := range reviews {
		all = append(all, Activity{
			Type:      KindReview,
			CreatedAt: r.CreatedAt.Time,
			Title:     "Reviewed " + orDefault(r.ItemName, "an album"),
			Subtitle:  orDefault(r.ArtistName, "Unknown artist"),
			Data:      r,
		})
	}
	for _, f := range follows {
		all = append(all, Activity{
			Type:      KindFollow,
			CreatedAt: f.CreatedAt.Time,
			Title:     "Followed " + orDefault(f.ArtistName, "an artist"),
			Data:      f,
		})
	}
	for _, f := range favorites {
		all = append(all, Activity{
			Type:      KindFavorite,
			CreatedAt: f.CreatedAt.Time,
			Title:     "Favorited " + orDefault(f.ItemName, "item"),
			Subtitle:  orDefault(f.ArtistName, "Unknown artist"),
			Data:      f,
		})
	}
	for _, c := range comments {
		all = append(all, Activity{
			Type:      KindComment,
			CreatedAt: c.CreatedAt.Time,
			Title:     "Commented on a review",
			Subtitle:  c.Text,
			Data:      c,
		})
	}

	dated := all[:0]
	for _, a := range all {
		if !a.CreatedAt.IsZero() {
			dated = append(dated, a)
		}
	}

	sort.SliceStable(dated, func(i, j int) bool {
		return dated[i].CreatedAt.After(dated[j].CreatedAt)
	})

	if len(dated) > Limit {
		dated = dated[:Limit]
	}
	return dated
}

// FromProfile merges the collections carried by a profile. A nil profile
// has no activity.
func FromProfile(p *models.Profile) []Activity {
	if p == nil {
		return []Activity{}
	}
	return Merge(p.Reviews, p.Follows, p.Favorites, p.ReviewComments)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

const day = 24 * time.Hour

// FormatDate renders createdAt relative to now. Days are counted by rounding
// the elapsed time up, so anything within the first 24 hours is "Today".
// Weeks round down (15 days is "2 weeks ago"); months round up.
func FormatDate(now, createdAt time.Time) string {
	elapsed := now.Sub(createdAt)
	if elapsed < 0 {
		elapsed = -elapsed
	}
	days := int(math.Ceil(float64(elapsed) / float64(day)))

	switch {
	case days <= 1:
		return "Today"
	case days == 2:
		return "Yesterday"
	case days <= 7:
		return fmt.Sprintf("%d days ago", days-1)
	case days <= 14:
		return "a week ago"
	case days <= 30:
		return fmt.Sprintf("%d weeks ago", days/7)
	default:
		return fmt.Sprintf("%d months ago", (days+29)/30)
	}
}

// Package feed orders the ticker and ad lists shown around the player.
package feed

import (
	"sort"
	"strings"

	"github.com/voyagen/nowplaying/internal/models"
)

// MarqueeSeparator joins ticker texts in the marquee.
const MarqueeSeparator = " • "

// Tickers filters to active items when activeOnly is set and orders by ascending
// priority, then id. The input slice is not modified.
func Tickers(items []models.TickerItem, activeOnly bool) []models.TickerItem {
	out := make([]models.TickerItem, 0, len(items))
	for _, t := range items {
		if activeOnly && !t.Active {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Ads is Tickers for ads.
func Ads(items []models.Ad, activeOnly bool) []models.Ad {
	out := make([]models.Ad, 0, len(items))
	for _, a := range items {
		if activeOnly && !a.Active {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Marquee joins the ticker texts in order, or returns fallback when there are none.
func Marquee(items []models.TickerItem, fallback string) string {
	texts := make([]string, 0, len(items))
	for _, t := range items {
		if s := strings.TrimSpace(t.Text); s != "" {
			texts = append(texts, s)
		}
	}
	if len(texts) == 0 {
		return fallback
	}
	return strings.Join(texts, MarqueeSeparator)
}

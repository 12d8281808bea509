package models

import "time"

// TickerItem is one line of the breaking-news marquee. Lower Priority is shown first.
type TickerItem struct {
	ID        int64      `json:"id,omitempty"`
	Text      string     `json:"text"`
	Priority  int        `json:"priority"`
	Active    bool       `json:"active"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// Ad is a sidebar banner.
type Ad struct {
	ID        int64      `json:"id,omitempty"`
	Title     string     `json:"title"`
	ImageURL  string     `json:"image_url"`
	ClickURL  *string    `json:"click_url,omitempty"`
	Priority  int        `json:"priority"`
	Active    bool       `json:"active"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

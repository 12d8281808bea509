package models

import "time"

// Channel is a broadcast channel. DefaultEmbedURL is played when nothing is scheduled.
type Channel struct {
	ID              int64      `json:"id,omitempty"`
	Name            string     `json:"name"`
	Slug            string     `json:"slug"`
	Description     *string    `json:"description,omitempty"`
	DefaultEmbedURL *string    `json:"default_embed_url,omitempty"`
	CreatedAt       *time.Time `json:"created_at,omitempty"`
}

package models

import "time"

// Program is catalog metadata that schedule items point at.
type Program struct {
	ID              int64      `json:"id,omitempty"`
	ChannelID       int64      `json:"channel_id"`
	Title           string     `json:"title"`
	Description     *string    `json:"description,omitempty"`
	EmbedURL        *string    `json:"embed_url,omitempty"`
	ContentKind     string     `json:"content_kind"`
	DurationSeconds *int       `json:"duration_seconds,omitempty"`
	Tags            *string    `json:"tags,omitempty"`
	CreatedAt       *time.Time `json:"created_at,omitempty"`
}

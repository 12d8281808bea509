package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/voyagen/nowplaying/internal/fetcher"
	"github.com/voyagen/nowplaying/internal/models"
	"github.com/voyagen/nowplaying/internal/store"
)

// Default channel created on first start when the store has none.
const (
	DefaultChannelName = "Nzuri Digital TV"
	DefaultChannelSlug = "nzuri-tv"
)

// ImportPrograms fetches an M3U playlist and adds its entries as programs of channelID.
// Entries whose title already exists on the channel are skipped.
func ImportPrograms(ctx context.Context, s store.Store, channelID int64, m3uURL, userAgent string, timeout time.Duration) (created int, err error) {
	if m3uURL == "" {
		return 0, fmt.Errorf("m3u URL is required: %w", store.ErrInvalidInput)
	}
	if _, err := s.GetChannel(ctx, channelID); err != nil {
		return 0, fmt.Errorf("GetChannel: %w", err)
	}

	drafts, err := fetcher.FetchPlaylist(ctx, m3uURL, userAgent, timeout)
	if err != nil {
		return 0, fmt.Errorf("fetch: %w", err)
	}

	known, err := programsByTitle(ctx, s, channelID)
	if err != nil {
		return 0, err
	}
	for i := range drafts {
		// Allow graceful shutdown during long imports.
		if err := ctx.Err(); err != nil {
			return created, fmt.Errorf("import cancelled: %w", err)
		}
		p := &drafts[i]
		key := strings.ToLower(p.Title)
		if _, ok := known[key]; ok {
			continue
		}
		p.ChannelID = channelID
		out, err := s.CreateProgram(ctx, p)
		if err != nil {
			return created, fmt.Errorf("CreateProgram %q: %w", p.Title, err)
		}
		known[key] = *out
		created++
	}
	return created, nil
}

// EnsureDefaultChannel returns the first channel, creating the default one on an empty store.
func EnsureDefaultChannel(ctx context.Context, s store.Store) (*models.Channel, error) {
	channels, err := s.ListChannels(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListChannels: %w", err)
	}
	if len(channels) > 0 {
		return &channels[0], nil
	}
	desc := "24-hour African news, business and music"
	ch, err := s.CreateChannel(ctx, &models.Channel{
		Name:        DefaultChannelName,
		Slug:        DefaultChannelSlug,
		Description: &desc,
	})
	if err != nil {
		return nil, fmt.Errorf("CreateChannel: %w", err)
	}
	return ch, nil
}

package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/voyagen/nowplaying/internal/models"
)

// maxPlaylistBytes caps how much of a remote playlist is read.
const maxPlaylistBytes = 8 << 20

// FetchPlaylist downloads the M3U playlist at url and parses it into program drafts.
// userAgent is optional.
func FetchPlaylist(ctx context.Context, url, userAgent string, timeout time.Duration) ([]models.Program, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("NewRequest: %w", err)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}
	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Do: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return ParsePlaylist(io.LimitReader(resp.Body, maxPlaylistBytes))
}

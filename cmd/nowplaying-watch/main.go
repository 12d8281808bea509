// Command nowplaying-watch follows a channel the way the player page does: it
// polls now-playing every 10 seconds and the ticker every 30 seconds, and prints
// an on-air line whenever either changes.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/voyagen/nowplaying/internal/client"
	"github.com/voyagen/nowplaying/internal/feed"
	nplog "github.com/voyagen/nowplaying/internal/log"
	"github.com/voyagen/nowplaying/internal/models"
	"github.com/voyagen/nowplaying/internal/poller"
	"github.com/voyagen/nowplaying/internal/schedule"
)

const marqueeFallback = "Welcome to the channel"

func main() {
	serverURL := flag.String("server", "http://localhost:8080", "API base URL")
	channelID := flag.Int64("channel", 1, "Channel id")
	level := flag.String("log-level", "warn", "Log level")
	flag.Parse()

	nplog.Configure(nplog.Config{Level: *level, Service: "nowplaying-watch"})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	api := client.New(*serverURL, nil)
	out := &display{}

	nowPlaying := poller.New("now-playing", poller.NowPlayingInterval,
		func(ctx context.Context) (*schedule.NowPlaying, error) {
			return api.NowPlaying(ctx, *channelID)
		},
		func(s poller.Snapshot[*schedule.NowPlaying]) { out.setNowPlaying(s) },
	)
	ticker := poller.New("ticker", poller.TickerInterval,
		func(ctx context.Context) ([]models.TickerItem, error) {
			return api.Tickers(ctx, true)
		},
		func(s poller.Snapshot[[]models.TickerItem]) { out.setMarquee(s) },
	)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); nowPlaying.Start(ctx) }()
	go func() { defer wg.Done(); ticker.Start(ctx) }()
	wg.Wait()
}

// display renders the last known state and suppresses repeated lines.
type display struct {
	mu      sync.Mutex
	onAir   string
	marquee string
	last    string
}

func (d *display) setNowPlaying(s poller.Snapshot[*schedule.NowPlaying]) {
	if s.Value == nil {
		return
	}
	d.mu.Lock()
	d.onAir = onAirLine(s.Value, s.Stale)
	d.mu.Unlock()
	d.print()
}

func (d *display) setMarquee(s poller.Snapshot[[]models.TickerItem]) {
	if s.FetchedAt.IsZero() {
		return
	}
	d.mu.Lock()
	d.marquee = feed.Marquee(s.Value, marqueeFallback)
	d.mu.Unlock()
	d.print()
}

func (d *display) print() {
	d.mu.Lock()
	defer d.mu.Unlock()
	line := d.onAir
	if d.marquee != "" {
		line += "\n  " + d.marquee
	}
	if line == "" || line == d.last {
		return
	}
	d.last = line
	fmt.Fprintf(os.Stdout, "[%s] %s\n", time.Now().Format(time.TimeOnly), line)
}

func onAirLine(np *schedule.NowPlaying, stale bool) string {
	var line string
	switch {
	case np.CurrentItem != nil:
		title := schedule.MissingProgramTitle
		if np.CurrentProgram != nil {
			title = np.CurrentProgram.Title
		}
		tag := "ON AIR"
		if np.CurrentItem.IsLive {
			tag = "LIVE"
		}
		line = fmt.Sprintf("%s: %s (until %s)", tag, title, np.CurrentItem.EndTime.Local().Format("15:04"))
	case np.FallbackEmbedURL != nil:
		line = "OFF AIR: playing channel loop"
	default:
		line = "OFF AIR"
	}
	if np.NextItem != nil {
		title := schedule.MissingProgramTitle
		if np.NextProgram != nil {
			title = np.NextProgram.Title
		}
		line += fmt.Sprintf(" | next: %s at %s", title, np.NextItem.StartTime.Local().Format("15:04"))
	}
	if stale {
		line += " (stale)"
	}
	return line
}

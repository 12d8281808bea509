package store

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/voyagen/nowplaying/internal/cache"
	nplog "github.com/voyagen/nowplaying/internal/log"
	"github.com/voyagen/nowplaying/internal/metrics"
	"github.com/voyagen/nowplaying/internal/models"
)

// Cache TTLs for different entity types. The schedule TTL stays well under the
// 10s now-playing poll so admin edits show up on the next tick or two.
const (
	ttlChannels = 5 * time.Minute
	ttlChannel  = 5 * time.Minute
	ttlPrograms = 1 * time.Minute
	ttlProgram  = 5 * time.Minute
	ttlSchedule = 5 * time.Second
	ttlTickers  = 15 * time.Second
	ttlAds      = 1 * time.Minute
)

// CachedStore wraps a Store with a Redis caching layer.
// Polled reads are served from cache when possible; writes invalidate the keys they touch.
type CachedStore struct {
	inner  Store
	cache  *cache.Redis
	logger zerolog.Logger
}

// NewCachedStore creates a CachedStore that wraps inner with Redis caching.
func NewCachedStore(inner Store, c *cache.Redis) *CachedStore {
	return &CachedStore{inner: inner, cache: c, logger: nplog.WithComponent("cache")}
}

// cached serves key from Redis or fills it from load. Cache errors are logged and
// fall through to load.
func cached[T any](ctx context.Context, c *CachedStore, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	if v, err := cache.Get[T](ctx, c.cache, key); err == nil {
		metrics.RecordCacheLookup(true)
		return v, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache get")
	}
	metrics.RecordCacheLookup(false)
	v, err := load()
	if err != nil {
		return v, err
	}
	if err := cache.Set(ctx, c.cache, key, v, ttl); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache set")
	}
	return v, nil
}

// --- cached reads ---

func (c *CachedStore) GetChannel(ctx context.Context, channelID int64) (*models.Channel, error) {
	return cached(ctx, c, fmt.Sprintf("channel:%d", channelID), ttlChannel, func() (*models.Channel, error) {
		return c.inner.GetChannel(ctx, channelID)
	})
}

func (c *CachedStore) ListChannels(ctx context.Context) ([]models.Channel, error) {
	return cached(ctx, c, "channels:all", ttlChannels, func() ([]models.Channel, error) {
		return c.inner.ListChannels(ctx)
	})
}

func (c *CachedStore) GetProgram(ctx context.Context, programID int64) (*models.Program, error) {
	return cached(ctx, c, fmt.Sprintf("program:%d", programID), ttlProgram, func() (*models.Program, error) {
		return c.inner.GetProgram(ctx, programID)
	})
}

func (c *CachedStore) ListPrograms(ctx context.Context, channelID int64) ([]models.Program, error) {
	return cached(ctx, c, fmt.Sprintf("programs:%d", channelID), ttlPrograms, func() ([]models.Program, error) {
		return c.inner.ListPrograms(ctx, channelID)
	})
}

func (c *CachedStore) ListSchedule(ctx context.Context, channelID int64, window *TimeRange) ([]models.ScheduleItem, error) {
	key := fmt.Sprintf("schedule:%d:%s", channelID, windowHash(window))
	return cached(ctx, c, key, ttlSchedule, func() ([]models.ScheduleItem, error) {
		return c.inner.ListSchedule(ctx, channelID, window)
	})
}

func (c *CachedStore) ListTickers(ctx context.Context, activeOnly bool) ([]models.TickerItem, error) {
	return cached(ctx, c, fmt.Sprintf("tickers:%t", activeOnly), ttlTickers, func() ([]models.TickerItem, error) {
		return c.inner.ListTickers(ctx, activeOnly)
	})
}

func (c *CachedStore) ListAds(ctx context.Context, activeOnly bool) ([]models.Ad, error) {
	return cached(ctx, c, fmt.Sprintf("ads:%t", activeOnly), ttlAds, func() ([]models.Ad, error) {
		return c.inner.ListAds(ctx, activeOnly)
	})
}

// --- writes with cache invalidation ---

func (c *CachedStore) CreateChannel(ctx context.Context, ch *models.Channel) (*models.Channel, error) {
	out, err := c.inner.CreateChannel(ctx, ch)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, "channels:all")
	return out, nil
}

func (c *CachedStore) CreateProgram(ctx context.Context, p *models.Program) (*models.Program, error) {
	out, err := c.inner.CreateProgram(ctx, p)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, "programs:0", fmt.Sprintf("programs:%d", out.ChannelID))
	return out, nil
}

func (c *CachedStore) UpdateProgram(ctx context.Context, programID int64, fields ProgramUpdate) (*models.Program, error) {
	out, err := c.inner.UpdateProgram(ctx, programID, fields)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, fmt.Sprintf("program:%d", programID))
	c.invalidatePattern(ctx, "programs:*")
	return out, nil
}

func (c *CachedStore) DeleteProgram(ctx context.Context, programID int64) error {
	if err := c.inner.DeleteProgram(ctx, programID); err != nil {
		return err
	}
	c.invalidate(ctx, fmt.Sprintf("program:%d", programID))
	c.invalidatePattern(ctx, "programs:*")
	return nil
}

func (c *CachedStore) CreateSchedule(ctx context.Context, item *models.ScheduleItem) (*models.ScheduleItem, error) {
	out, err := c.inner.CreateSchedule(ctx, item)
	if err != nil {
		return nil, err
	}
	c.invalidatePattern(ctx, fmt.Sprintf("schedule:%d:*", out.ChannelID))
	return out, nil
}

func (c *CachedStore) UpdateSchedule(ctx context.Context, itemID int64, fields ScheduleUpdate) (*models.ScheduleItem, error) {
	out, err := c.inner.UpdateSchedule(ctx, itemID, fields)
	if err != nil {
		return nil, err
	}
	c.invalidatePattern(ctx, fmt.Sprintf("schedule:%d:*", out.ChannelID))
	return out, nil
}

func (c *CachedStore) DeleteSchedule(ctx context.Context, itemID int64) error {
	// Look the item up first so only its channel's keys are dropped.
	it, err := c.inner.GetSchedule(ctx, itemID)
	if err != nil {
		return err
	}
	if err := c.inner.DeleteSchedule(ctx, itemID); err != nil {
		return err
	}
	c.invalidatePattern(ctx, fmt.Sprintf("schedule:%d:*", it.ChannelID))
	return nil
}

func (c *CachedStore) CreateTicker(ctx context.Context, t *models.TickerItem) (*models.TickerItem, error) {
	out, err := c.inner.CreateTicker(ctx, t)
	if err != nil {
		return nil, err
	}
	c.invalidatePattern(ctx, "tickers:*")
	return out, nil
}

func (c *CachedStore) UpdateTicker(ctx context.Context, tickerID int64, t *models.TickerItem) (*models.TickerItem, error) {
	out, err := c.inner.UpdateTicker(ctx, tickerID, t)
	if err != nil {
		return nil, err
	}
	c.invalidatePattern(ctx, "tickers:*")
	return out, nil
}

func (c *CachedStore) DeleteTicker(ctx context.Context, tickerID int64) error {
	if err := c.inner.DeleteTicker(ctx, tickerID); err != nil {
		return err
	}
	c.invalidatePattern(ctx, "tickers:*")
	return nil
}

func (c *CachedStore) CreateAd(ctx context.Context, ad *models.Ad) (*models.Ad, error) {
	out, err := c.inner.CreateAd(ctx, ad)
	if err != nil {
		return nil, err
	}
	c.invalidatePattern(ctx, "ads:*")
	return out, nil
}

func (c *CachedStore) DeleteAd(ctx context.Context, adID int64) error {
	if err := c.inner.DeleteAd(ctx, adID); err != nil {
		return err
	}
	c.invalidatePattern(ctx, "ads:*")
	return nil
}

// --- passthrough (no caching) ---

func (c *CachedStore) GetSchedule(ctx context.Context, itemID int64) (*models.ScheduleItem, error) {
	return c.inner.GetSchedule(ctx, itemID)
}

func (c *CachedStore) CreateContact(ctx context.Context, msg *models.ContactMessage) (*models.ContactMessage, error) {
	return c.inner.CreateContact(ctx, msg)
}

func (c *CachedStore) ListContacts(ctx context.Context) ([]models.ContactMessage, error) {
	return c.inner.ListContacts(ctx)
}

// --- helpers ---

// invalidate deletes exact cache keys, logging any errors.
func (c *CachedStore) invalidate(ctx context.Context, keys ...string) {
	if err := cache.Del(ctx, c.cache, keys...); err != nil {
		c.logger.Warn().Err(err).Strs("keys", keys).Msg("cache del")
	}
}

// invalidatePattern deletes all keys matching the given glob patterns.
func (c *CachedStore) invalidatePattern(ctx context.Context, patterns ...string) {
	for _, p := range patterns {
		if err := cache.DelPattern(ctx, c.cache, p); err != nil {
			c.logger.Warn().Err(err).Str("pattern", p).Msg("cache del pattern")
		}
	}
}

// windowHash produces a short deterministic key fragment for a TimeRange.
func windowHash(w *TimeRange) string {
	if w == nil {
		return "all"
	}
	raw := fmt.Sprintf("%d|%d|%d", unixOrZero(w.From), unixOrZero(w.To), unixOrZero(w.EndAfter))
	h := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%x", h[:8])
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

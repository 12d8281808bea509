package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/voyagen/nowplaying/internal/cache"
	"github.com/voyagen/nowplaying/internal/config"
	nplog "github.com/voyagen/nowplaying/internal/log"
	"github.com/voyagen/nowplaying/internal/metrics"
	"github.com/voyagen/nowplaying/internal/models"
	"github.com/voyagen/nowplaying/internal/schedule"
	"github.com/voyagen/nowplaying/internal/store"
)

// seedLockTTL bounds how long one instance may hold a day's seed lock.
const seedLockTTL = time.Minute

// SeedDay materialises template on the calendar day containing day in loc.
// Slots whose exact start already has an item are skipped, so seeding is idempotent.
// Titles missing from the channel's catalog are created as live programs.
// It returns the number of schedule items created.
func SeedDay(ctx context.Context, s store.Store, channelID int64, day time.Time, template []config.SeedSlot, loc *time.Location) (int, error) {
	if loc == nil {
		loc = time.UTC
	}
	midnight := schedule.StartOfDay(day, loc)
	existing, err := s.ListSchedule(ctx, channelID, &store.TimeRange{From: midnight, To: midnight.AddDate(0, 0, 1)})
	if err != nil {
		return 0, fmt.Errorf("ListSchedule: %w", err)
	}
	taken := make(map[int64]bool, len(existing))
	for _, it := range existing {
		taken[it.StartTime.Unix()] = true
	}

	programs, err := programsByTitle(ctx, s, channelID)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, slot := range template {
		if err := ctx.Err(); err != nil {
			return created, fmt.Errorf("seed cancelled: %w", err)
		}
		start, end, err := slotBounds(midnight, slot.Slot, loc)
		if err != nil {
			return created, err
		}
		if taken[start.Unix()] {
			continue
		}
		p, err := ensureProgram(ctx, s, channelID, slot, programs)
		if err != nil {
			return created, err
		}
		if _, err := s.CreateSchedule(ctx, &models.ScheduleItem{
			ChannelID: channelID,
			ProgramID: p.ID,
			StartTime: start,
			EndTime:   end,
		}); err != nil {
			return created, fmt.Errorf("CreateSchedule %s: %w", slot.Slot, err)
		}
		taken[start.Unix()] = true
		created++
	}
	metrics.AddSeededItems(created)
	return created, nil
}

// slotBounds places an "HH:MM-HH:MM" slot on the day starting at midnight.
// Wall-clock fields go through time.Date so DST days get the right instants.
func slotBounds(midnight time.Time, slot string, loc *time.Location) (start, end time.Time, err error) {
	from, to, err := config.ParseSlot(slot)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	y, m, d := midnight.Date()
	start = time.Date(y, m, d, int(from/time.Hour), int(from%time.Hour/time.Minute), 0, 0, loc)
	endDay := d
	if to <= from {
		endDay++
	}
	end = time.Date(y, m, endDay, int(to/time.Hour), int(to%time.Hour/time.Minute), 0, 0, loc)
	return start.UTC(), end.UTC(), nil
}

func programsByTitle(ctx context.Context, s store.Store, channelID int64) (map[string]models.Program, error) {
	list, err := s.ListPrograms(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("ListPrograms: %w", err)
	}
	out := make(map[string]models.Program, len(list))
	for _, p := range list {
		key := strings.ToLower(p.Title)
		if _, ok := out[key]; !ok {
			out[key] = p
		}
	}
	return out, nil
}

func ensureProgram(ctx context.Context, s store.Store, channelID int64, slot config.SeedSlot, known map[string]models.Program) (models.Program, error) {
	key := strings.ToLower(strings.TrimSpace(slot.Title))
	if p, ok := known[key]; ok {
		return p, nil
	}
	draft := &models.Program{
		ChannelID:   channelID,
		Title:       slot.Title,
		ContentKind: models.ContentKindLive,
		Tags:        &slot.Slot,
	}
	if slot.EmbedURL != "" {
		draft.EmbedURL = &slot.EmbedURL
	}
	p, err := s.CreateProgram(ctx, draft)
	if err != nil {
		return models.Program{}, fmt.Errorf("CreateProgram %q: %w", slot.Title, err)
	}
	known[key] = *p
	return *p, nil
}

// Seeder keeps the next week of a channel's schedule filled from a day template.
type Seeder struct {
	store     store.Store
	redis     *cache.Redis
	channelID int64
	template  []config.SeedSlot
	loc       *time.Location
	now       func() time.Time
	logger    zerolog.Logger
}

// NewSeeder builds a Seeder. redis may be nil; then no cross-instance lock is taken.
func NewSeeder(s store.Store, redis *cache.Redis, channelID int64, template []config.SeedSlot, loc *time.Location) *Seeder {
	if loc == nil {
		loc = time.UTC
	}
	return &Seeder{
		store:     s,
		redis:     redis,
		channelID: channelID,
		template:  template,
		loc:       loc,
		now:       time.Now,
		logger:    nplog.WithComponent("seeder"),
	}
}

// SeedWeek seeds today and the following six days. Days locked by another
// instance are skipped.
func (sd *Seeder) SeedWeek(ctx context.Context) (int, error) {
	first := schedule.StartOfDay(sd.now(), sd.loc)
	total := 0
	for i := 0; i < schedule.WeekDays; i++ {
		day := first.AddDate(0, 0, i)
		n, err := sd.seedLocked(ctx, day)
		if errors.Is(err, cache.ErrLocked) {
			sd.logger.Debug().Str("day", day.Format(time.DateOnly)).Msg("seed skipped, locked elsewhere")
			continue
		}
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (sd *Seeder) seedLocked(ctx context.Context, day time.Time) (int, error) {
	if sd.redis != nil {
		key := fmt.Sprintf("lock:seed:%d:%s", sd.channelID, day.Format(time.DateOnly))
		unlock, err := cache.TryLock(ctx, sd.redis, key, seedLockTTL)
		if err != nil {
			return 0, err
		}
		defer unlock()
	}
	return SeedDay(ctx, sd.store, sd.channelID, day, sd.template, sd.loc)
}

// Run seeds once immediately and then every interval until ctx is done.
func (sd *Seeder) Run(ctx context.Context, interval time.Duration) {
	tick := time.NewTicker(interval)
	defer tick.Stop()
	for {
		n, err := sd.SeedWeek(ctx)
		switch {
		case err != nil && ctx.Err() == nil:
			sd.logger.Error().Err(err).Int64(nplog.FieldChannelID, sd.channelID).Msg("seed week")
		case n > 0:
			sd.logger.Info().Int("created", n).Int64(nplog.FieldChannelID, sd.channelID).Msg("seeded schedule")
		}
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
		}
	}
}

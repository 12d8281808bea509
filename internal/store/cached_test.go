package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyagen/nowplaying/internal/cache"
	"github.com/voyagen/nowplaying/internal/models"
)

func newCachedStore(t *testing.T) (*miniredis.Miniredis, *Memory, *CachedStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := cache.NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "t:")
	t.Cleanup(func() { _ = rc.Close() })
	mem := NewMemory()
	return mr, mem, NewCachedStore(mem, rc)
}

func TestCachedScheduleInvalidatedOnWrite(t *testing.T) {
	mr, _, cs := newCachedStore(t)
	ctx := context.Background()

	ch, err := cs.CreateChannel(ctx, &models.Channel{Name: "Nzuri", Slug: "nzuri"})
	require.NoError(t, err)
	start := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	items, err := cs.ListSchedule(ctx, ch.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NotEmpty(t, mr.Keys(), "empty result is cached too")

	it, err := cs.CreateSchedule(ctx, &models.ScheduleItem{
		ChannelID: ch.ID, ProgramID: 1, StartTime: start, EndTime: start.Add(time.Hour),
	})
	require.NoError(t, err)

	items, err = cs.ListSchedule(ctx, ch.ID, nil)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].StartTime.Equal(start))

	end := start.Add(2 * time.Hour)
	_, err = cs.UpdateSchedule(ctx, it.ID, ScheduleUpdate{EndTime: &end})
	require.NoError(t, err)
	items, err = cs.ListSchedule(ctx, ch.ID, nil)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].EndTime.Equal(end))

	require.NoError(t, cs.DeleteSchedule(ctx, it.ID))
	items, err = cs.ListSchedule(ctx, ch.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCachedScheduleWindowsKeyedSeparately(t *testing.T) {
	_, _, cs := newCachedStore(t)
	ctx := context.Background()
	start := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	_, err := cs.CreateSchedule(ctx, &models.ScheduleItem{
		ChannelID: 1, ProgramID: 1, StartTime: start, EndTime: start.Add(time.Hour),
	})
	require.NoError(t, err)

	all, err := cs.ListSchedule(ctx, 1, nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	later, err := cs.ListSchedule(ctx, 1, &TimeRange{From: start.Add(time.Minute)})
	require.NoError(t, err)
	assert.Empty(t, later)

	finished, err := cs.ListSchedule(ctx, 1, &TimeRange{EndAfter: start.Add(time.Hour)})
	require.NoError(t, err)
	assert.Empty(t, finished)
	running, err := cs.ListSchedule(ctx, 1, &TimeRange{EndAfter: start})
	require.NoError(t, err)
	assert.Len(t, running, 1)
}

func TestCachedProgramServesStaleUntilInvalidated(t *testing.T) {
	_, mem, cs := newCachedStore(t)
	ctx := context.Background()

	p, err := cs.CreateProgram(ctx, &models.Program{ChannelID: 1, Title: "Jazz"})
	require.NoError(t, err)
	got, err := cs.GetProgram(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jazz", got.Title)

	// A write that bypasses the cache is not visible until the TTL expires.
	title := "Blues"
	_, err = mem.UpdateProgram(ctx, p.ID, ProgramUpdate{Title: &title})
	require.NoError(t, err)
	got, err = cs.GetProgram(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jazz", got.Title)

	// Through the cached store the key is dropped.
	title = "Soul"
	_, err = cs.UpdateProgram(ctx, p.ID, ProgramUpdate{Title: &title})
	require.NoError(t, err)
	got, err = cs.GetProgram(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Soul", got.Title)

	require.NoError(t, cs.DeleteProgram(ctx, p.ID))
	_, err = cs.GetProgram(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCachedNotFoundIsNotCached(t *testing.T) {
	mr, _, cs := newCachedStore(t)
	_, err := cs.GetChannel(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, mr.Keys())
}

func TestCachedTickersInvalidated(t *testing.T) {
	_, _, cs := newCachedStore(t)
	ctx := context.Background()

	tk, err := cs.CreateTicker(ctx, &models.TickerItem{Text: "Breaking", Priority: 1, Active: true})
	require.NoError(t, err)
	active, err := cs.ListTickers(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)

	_, err = cs.UpdateTicker(ctx, tk.ID, &models.TickerItem{Text: "Breaking", Priority: 1, Active: false})
	require.NoError(t, err)
	active, err = cs.ListTickers(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := cs.ListTickers(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCachedFallsThroughWhenRedisDown(t *testing.T) {
	mr, _, cs := newCachedStore(t)
	ctx := context.Background()
	ch, err := cs.CreateChannel(ctx, &models.Channel{Name: "Nzuri", Slug: "nzuri"})
	require.NoError(t, err)

	mr.Close()
	got, err := cs.GetChannel(ctx, ch.ID)
	require.NoError(t, err)
	assert.Equal(t, "Nzuri", got.Name)
}

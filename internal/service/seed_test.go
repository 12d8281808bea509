package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyagen/nowplaying/internal/cache"
	"github.com/voyagen/nowplaying/internal/config"
	"github.com/voyagen/nowplaying/internal/models"
	"github.com/voyagen/nowplaying/internal/store"
)

var template = []config.SeedSlot{
	{Slot: "06:00-09:00", Title: "Good Morning", EmbedURL: "https://example.com/embed/morning"},
	{Slot: "09:00-12:00", Title: "Business Live"},
	{Slot: "21:00-00:00", Title: "Lofi Radio"},
	{Slot: "00:00-03:00", Title: "Smooth Jazz"},
}

func newChannel(t *testing.T, s store.Store) *models.Channel {
	t.Helper()
	ch, err := EnsureDefaultChannel(context.Background(), s)
	require.NoError(t, err)
	return ch
}

func sortedSchedule(t *testing.T, s store.Store, channelID int64) []models.ScheduleItem {
	t.Helper()
	items, err := s.ListSchedule(context.Background(), channelID, nil)
	require.NoError(t, err)
	sort.Slice(items, func(i, j int) bool { return items[i].StartTime.Before(items[j].StartTime) })
	return items
}

func TestSeedDayCreatesSlotsAndPrograms(t *testing.T) {
	mem := store.NewMemory()
	ch := newChannel(t, mem)
	ctx := context.Background()
	day := time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC)

	n, err := SeedDay(ctx, mem, ch.ID, day, template, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	items := sortedSchedule(t, mem, ch.ID)
	require.Len(t, items, 4)
	assert.Equal(t, time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), items[0].StartTime)
	assert.Equal(t, time.Date(2026, 10, 19, 3, 0, 0, 0, time.UTC), items[0].EndTime)
	assert.Equal(t, time.Date(2026, 10, 19, 21, 0, 0, 0, time.UTC), items[3].StartTime)
	assert.Equal(t, time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC), items[3].EndTime, "slot ending at midnight ends next day")

	programs, err := mem.ListPrograms(ctx, ch.ID)
	require.NoError(t, err)
	require.Len(t, programs, 4)
	assert.Equal(t, "Good Morning", programs[0].Title)
	assert.Equal(t, models.ContentKindLive, programs[0].ContentKind)
	require.NotNil(t, programs[0].EmbedURL)
	assert.Equal(t, "https://example.com/embed/morning", *programs[0].EmbedURL)
}

func TestSeedDayIsIdempotent(t *testing.T) {
	mem := store.NewMemory()
	ch := newChannel(t, mem)
	ctx := context.Background()
	day := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

	_, err := SeedDay(ctx, mem, ch.ID, day, template, time.UTC)
	require.NoError(t, err)
	n, err := SeedDay(ctx, mem, ch.ID, day, template, time.UTC)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, sortedSchedule(t, mem, ch.ID), 4)

	programs, err := mem.ListPrograms(ctx, ch.ID)
	require.NoError(t, err)
	assert.Len(t, programs, 4, "existing programs are reused by title")
}

func TestSeedDayReusesExistingProgramCaseInsensitive(t *testing.T) {
	mem := store.NewMemory()
	ch := newChannel(t, mem)
	ctx := context.Background()
	p, err := mem.CreateProgram(ctx, &models.Program{ChannelID: ch.ID, Title: "smooth jazz"})
	require.NoError(t, err)

	_, err = SeedDay(ctx, mem, ch.ID, time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), template[3:], time.UTC)
	require.NoError(t, err)
	items := sortedSchedule(t, mem, ch.ID)
	require.Len(t, items, 1)
	assert.Equal(t, p.ID, items[0].ProgramID)
}

func TestSeedDayFollowsZoneAcrossDST(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	mem := store.NewMemory()
	ch := newChannel(t, mem)

	// 2026-10-25 is the autumn change in Berlin: 25 hours long.
	day := time.Date(2026, 10, 25, 12, 0, 0, 0, berlin)
	_, err = SeedDay(context.Background(), mem, ch.ID, day, []config.SeedSlot{{Slot: "06:00-09:00", Title: "Morning"}}, berlin)
	require.NoError(t, err)

	items := sortedSchedule(t, mem, ch.ID)
	require.Len(t, items, 1)
	assert.Equal(t, time.Date(2026, 10, 25, 5, 0, 0, 0, time.UTC), items[0].StartTime, "06:00 CET is 05:00 UTC")
	assert.Equal(t, 6, items[0].StartTime.In(berlin).Hour())
}

func TestSeederSeedWeek(t *testing.T) {
	mem := store.NewMemory()
	ch := newChannel(t, mem)
	sd := NewSeeder(mem, nil, ch.ID, template[:2], time.UTC)
	sd.now = func() time.Time { return time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC) }

	n, err := sd.SeedWeek(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 14, n)

	items := sortedSchedule(t, mem, ch.ID)
	assert.Equal(t, time.Date(2026, 10, 19, 6, 0, 0, 0, time.UTC), items[0].StartTime)
	assert.Equal(t, time.Date(2026, 10, 25, 9, 0, 0, 0, time.UTC), items[len(items)-1].StartTime)
}

func TestSeederSkipsDaysLockedElsewhere(t *testing.T) {
	mr := miniredis.RunT(t)
	rc := cache.NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "t:")
	t.Cleanup(func() { _ = rc.Close() })

	mem := store.NewMemory()
	ch := newChannel(t, mem)
	sd := NewSeeder(mem, rc, ch.ID, template[:1], time.UTC)
	sd.now = func() time.Time { return time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC) }

	unlock, err := cache.TryLock(context.Background(), rc, "lock:seed:1:2026-10-19", time.Minute)
	require.NoError(t, err)
	defer unlock()

	n, err := sd.SeedWeek(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.False(t, mr.Exists("t:lock:seed:1:2026-10-20"), "lock released after seeding")
}

func TestEnsureDefaultChannelReturnsExisting(t *testing.T) {
	mem := store.NewMemory()
	first := newChannel(t, mem)
	assert.Equal(t, DefaultChannelSlug, first.Slug)

	again, err := EnsureDefaultChannel(context.Background(), mem)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
}

func TestImportPrograms(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("#EXTM3U\n" +
			"#EXTINF:-1 group-title=\"News\",Africa News\nhttps://stream.example/africa.m3u8\n" +
			"#EXTINF:-1,Smooth Jazz\nhttps://stream.example/jazz.m3u8\n"))
	}))
	defer srv.Close()

	mem := store.NewMemory()
	ch := newChannel(t, mem)
	ctx := context.Background()
	_, err := mem.CreateProgram(ctx, &models.Program{ChannelID: ch.ID, Title: "Smooth Jazz"})
	require.NoError(t, err)

	n, err := ImportPrograms(ctx, mem, ch.ID, srv.URL, "", time.Second)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	programs, err := mem.ListPrograms(ctx, ch.ID)
	require.NoError(t, err)
	require.Len(t, programs, 2)
	assert.Equal(t, "Africa News", programs[1].Title)
	assert.Equal(t, ch.ID, programs[1].ChannelID)
	require.NotNil(t, programs[1].Tags)
	assert.Equal(t, "News", *programs[1].Tags)
}

func TestImportProgramsUnknownChannel(t *testing.T) {
	_, err := ImportPrograms(context.Background(), store.NewMemory(), 7, "http://unused", "", time.Second)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = ImportPrograms(context.Background(), store.NewMemory(), 7, "", "", time.Second)
	assert.ErrorIs(t, err, store.ErrInvalidInput)
}

package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyagen/nowplaying/internal/models"
)

var day = time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

// at returns day at hh:mm UTC.
func at(hh, mm int) time.Time {
	return day.Add(time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute)
}

func item(id int64, start, end time.Time, live bool) models.ScheduleItem {
	return models.ScheduleItem{ID: id, ChannelID: 1, ProgramID: id * 10, StartTime: start, EndTime: end, IsLive: live}
}

func TestResolveSingleActiveItem(t *testing.T) {
	items := []models.ScheduleItem{item(1, at(9, 0), at(10, 0), false)}

	res := Resolve(items, at(9, 30))
	require.NotNil(t, res.Current)
	assert.Equal(t, int64(1), res.Current.ID)
	assert.Equal(t, models.StatusRunning, res.Current.Status)
	assert.Nil(t, res.Next)
}

func TestResolveNonOverlappingPicksContainingItem(t *testing.T) {
	items := []models.ScheduleItem{
		item(3, at(11, 0), at(12, 0), false),
		item(1, at(9, 0), at(10, 0), false),
		item(2, at(10, 0), at(11, 0), false),
	}
	for _, tc := range []struct {
		now      time.Time
		wantCur  int64
		wantNext int64
	}{
		{at(9, 0), 1, 2},
		{at(9, 59), 1, 2},
		{at(10, 0), 2, 3},
		{at(11, 30), 3, 0},
	} {
		res := Resolve(items, tc.now)
		require.NotNil(t, res.Current, "now=%s", tc.now)
		assert.Equal(t, tc.wantCur, res.Current.ID, "now=%s", tc.now)
		if tc.wantNext == 0 {
			assert.Nil(t, res.Next)
		} else {
			require.NotNil(t, res.Next)
			assert.Equal(t, tc.wantNext, res.Next.ID)
		}
	}
}

func TestResolveLiveOverrideWins(t *testing.T) {
	items := []models.ScheduleItem{
		item(1, at(9, 0), at(10, 0), false),
		item(2, at(9, 15), at(9, 45), true),
	}
	res := Resolve(items, at(9, 30))
	require.NotNil(t, res.Current)
	assert.Equal(t, int64(2), res.Current.ID)

	// Live wins even when it started earlier than the filler.
	items = []models.ScheduleItem{
		item(1, at(8, 0), at(11, 0), true),
		item(2, at(9, 15), at(9, 45), false),
	}
	res = Resolve(items, at(9, 30))
	require.NotNil(t, res.Current)
	assert.Equal(t, int64(1), res.Current.ID)
}

func TestResolveLatestStartWinsWithoutLive(t *testing.T) {
	items := []models.ScheduleItem{
		item(1, at(9, 0), at(10, 0), false),
		item(2, at(9, 20), at(9, 50), false),
		item(3, at(9, 10), at(10, 30), false),
	}
	res := Resolve(items, at(9, 30))
	require.NotNil(t, res.Current)
	assert.Equal(t, int64(2), res.Current.ID)
}

func TestResolveTieBreaksOnSmallestID(t *testing.T) {
	items := []models.ScheduleItem{
		item(7, at(9, 0), at(10, 0), false),
		item(4, at(9, 0), at(9, 45), false),
		item(5, at(9, 0), at(11, 0), false),
	}
	res := Resolve(items, at(9, 30))
	require.NotNil(t, res.Current)
	assert.Equal(t, int64(4), res.Current.ID)

	// Several live items fall through to start time, then id.
	items = []models.ScheduleItem{
		item(9, at(9, 0), at(10, 0), true),
		item(8, at(9, 10), at(10, 0), true),
		item(6, at(9, 10), at(10, 0), true),
		item(1, at(9, 20), at(10, 0), false),
	}
	res = Resolve(items, at(9, 30))
	require.NotNil(t, res.Current)
	assert.Equal(t, int64(6), res.Current.ID)
}

func TestResolveIsOrderIndependent(t *testing.T) {
	items := []models.ScheduleItem{
		item(1, at(9, 0), at(10, 0), false),
		item(2, at(9, 15), at(9, 45), true),
		item(3, at(9, 15), at(9, 40), true),
		item(4, at(11, 0), at(12, 0), false),
		item(5, at(11, 0), at(12, 0), false),
	}
	want := Resolve(items, at(9, 30))
	require.NotNil(t, want.Current)
	require.NotNil(t, want.Next)
	assert.Equal(t, int64(2), want.Current.ID)
	assert.Equal(t, int64(4), want.Next.ID)

	reversed := make([]models.ScheduleItem, len(items))
	for i := range items {
		reversed[len(items)-1-i] = items[i]
	}
	got := Resolve(reversed, at(9, 30))
	assert.Equal(t, want.Current.ID, got.Current.ID)
	assert.Equal(t, want.Next.ID, got.Next.ID)
}

func TestResolveBeforeEverything(t *testing.T) {
	items := []models.ScheduleItem{
		item(2, at(12, 0), at(13, 0), false),
		item(1, at(10, 0), at(11, 0), true),
		item(3, at(14, 0), at(15, 0), false),
	}
	res := Resolve(items, at(6, 0))
	assert.Nil(t, res.Current)
	require.NotNil(t, res.Next)
	assert.Equal(t, int64(1), res.Next.ID)
	assert.Equal(t, models.StatusScheduled, res.Next.Status)
}

func TestResolveAfterEverything(t *testing.T) {
	items := []models.ScheduleItem{
		item(1, at(9, 0), at(10, 0), false),
		item(2, at(10, 0), at(11, 0), false),
	}
	res := Resolve(items, at(11, 0))
	assert.Nil(t, res.Current)
	assert.Nil(t, res.Next)
}

func TestResolveEmpty(t *testing.T) {
	res := Resolve(nil, at(9, 0))
	assert.Nil(t, res.Current)
	assert.Nil(t, res.Next)
}

func TestResolveDoesNotMutateInput(t *testing.T) {
	items := []models.ScheduleItem{item(1, at(9, 0), at(10, 0), false)}
	items[0].Status = models.StatusScheduled

	res := Resolve(items, at(9, 30))
	require.NotNil(t, res.Current)
	assert.Equal(t, models.StatusRunning, res.Current.Status)
	assert.Equal(t, models.StatusScheduled, items[0].Status)
}

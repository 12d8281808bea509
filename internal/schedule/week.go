package schedule

import (
	"sort"
	"time"

	"github.com/voyagen/nowplaying/internal/models"
)

// WeekDays is the number of calendar days in the grid.
const WeekDays = 7

// Day is one calendar day of the grid. Items are sorted by start time.
type Day struct {
	Date  time.Time
	Items []models.ScheduleItem
}

// StartOfDay returns midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// WeekWindow returns the [from, to) range covering the seven calendar days starting
// with anchor's day in loc.
func WeekWindow(anchor time.Time, loc *time.Location) (from, to time.Time) {
	from = StartOfDay(anchor, loc)
	to = from.AddDate(0, 0, WeekDays)
	return from, to
}

// GroupWeek partitions items into seven day buckets starting at anchor's calendar day
// in loc. An item belongs to the day its start falls on in loc; items starting outside
// the window are dropped. Day lengths follow the zone, so DST days are 23 or 25 hours.
func GroupWeek(items []models.ScheduleItem, anchor time.Time, loc *time.Location) []Day {
	if loc == nil {
		loc = time.UTC
	}
	days := make([]Day, WeekDays)
	first := StartOfDay(anchor, loc)
	for i := range days {
		days[i].Date = first.AddDate(0, 0, i)
		days[i].Items = []models.ScheduleItem{}
	}
	for _, it := range items {
		idx := dayIndex(first, it.StartTime, loc)
		if idx < 0 || idx >= WeekDays {
			continue
		}
		days[idx].Items = append(days[idx].Items, it)
	}
	for i := range days {
		SortByStart(days[i].Items)
	}
	return days
}

// dayIndex counts calendar days from first to t in loc.
func dayIndex(first, t time.Time, loc *time.Location) int {
	d := StartOfDay(t, loc)
	// Calendar dates in UTC differ by whole days, which keeps DST out of the division.
	a := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// SortByStart orders items by start time, then id.
func SortByStart(items []models.ScheduleItem) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].StartTime.Equal(items[j].StartTime) {
			return items[i].StartTime.Before(items[j].StartTime)
		}
		return items[i].ID < items[j].ID
	})
}

// Package schedule resolves what a channel is playing and lays out its weekly grid.
//
// The functions in this file are pure: the current instant is always passed in, and
// nothing is read from or written to a store.
package schedule

import (
	"time"

	"github.com/voyagen/nowplaying/internal/models"
)

// Resolution is the outcome of Resolve. Either pointer may be nil.
type Resolution struct {
	Current *models.ScheduleItem
	Next    *models.ScheduleItem
}

// Resolve picks the item playing at now and the nearest upcoming item.
//
// When several items are active, a live item beats a non-live one, then the latest
// start wins, then the smallest id. Next is the item with the earliest start after now
// (smallest id on equal starts). Returned items are copies with Status set for now.
func Resolve(items []models.ScheduleItem, now time.Time) Resolution {
	var res Resolution
	var cur, next *models.ScheduleItem
	for i := range items {
		it := &items[i]
		switch {
		case it.ActiveAt(now):
			if cur == nil || preferCurrent(it, cur) {
				cur = it
			}
		case it.StartTime.After(now):
			if next == nil || it.StartTime.Before(next.StartTime) ||
				(it.StartTime.Equal(next.StartTime) && it.ID < next.ID) {
				next = it
			}
		}
	}
	if cur != nil {
		c := cur.WithStatus(now)
		res.Current = &c
	}
	if next != nil {
		n := next.WithStatus(now)
		res.Next = &n
	}
	return res
}

// preferCurrent reports whether a should win over b as the current item.
func preferCurrent(a, b *models.ScheduleItem) bool {
	if a.IsLive != b.IsLive {
		return a.IsLive
	}
	if !a.StartTime.Equal(b.StartTime) {
		return a.StartTime.After(b.StartTime)
	}
	return a.ID < b.ID
}

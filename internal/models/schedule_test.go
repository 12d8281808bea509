package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScheduleItemStatusAt(t *testing.T) {
	start := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	item := ScheduleItem{StartTime: start, EndTime: start.Add(time.Hour)}

	tests := []struct {
		name string
		now  time.Time
		want string
	}{
		{"before start", start.Add(-time.Second), StatusScheduled},
		{"at start", start, StatusRunning},
		{"mid", start.Add(30 * time.Minute), StatusRunning},
		{"at end", start.Add(time.Hour), StatusCompleted},
		{"after end", start.Add(2 * time.Hour), StatusCompleted},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, item.StatusAt(tc.now))
			assert.Equal(t, tc.want == StatusRunning, item.ActiveAt(tc.now))
		})
	}
}

func TestWithStatusOverridesStoredValue(t *testing.T) {
	start := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	item := ScheduleItem{StartTime: start, EndTime: start.Add(time.Hour), Status: StatusScheduled}

	got := item.WithStatus(start.Add(2 * time.Hour))
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, StatusScheduled, item.Status)
}

func TestValidContentKind(t *testing.T) {
	assert.True(t, ValidContentKind(ContentKindVideo))
	assert.True(t, ValidContentKind(ContentKindLive))
	assert.True(t, ValidContentKind(ContentKindPlaylist))
	assert.False(t, ValidContentKind(""))
	assert.False(t, ValidContentKind("podcast"))
}

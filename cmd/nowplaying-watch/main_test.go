package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/voyagen/nowplaying/internal/models"
	"github.com/voyagen/nowplaying/internal/schedule"
)

func TestOnAirLine(t *testing.T) {
	start := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	loop := "https://example.com/loop"

	tests := []struct {
		name  string
		np    schedule.NowPlaying
		stale bool
		want  string
	}{
		{
			name: "live with next",
			np: schedule.NowPlaying{
				CurrentItem:    &models.ScheduleItem{IsLive: true, EndTime: start.Add(time.Hour)},
				CurrentProgram: &models.Program{Title: "Breaking"},
				NextItem:       &models.ScheduleItem{StartTime: start.Add(2 * time.Hour)},
				NextProgram:    &models.Program{Title: "Jazz"},
			},
			want: "LIVE: Breaking (until " + start.Add(time.Hour).Local().Format("15:04") +
				") | next: Jazz at " + start.Add(2*time.Hour).Local().Format("15:04"),
		},
		{
			name: "missing program",
			np: schedule.NowPlaying{
				CurrentItem: &models.ScheduleItem{EndTime: start},
			},
			stale: true,
			want:  "ON AIR: " + schedule.MissingProgramTitle + " (until " + start.Local().Format("15:04") + ") (stale)",
		},
		{name: "fallback", np: schedule.NowPlaying{FallbackEmbedURL: &loop}, want: "OFF AIR: playing channel loop"},
		{name: "empty", want: "OFF AIR"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, onAirLine(&tc.np, tc.stale))
		})
	}
}

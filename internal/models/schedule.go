package models

import "time"

// ScheduleItem places a program on a channel between StartTime and EndTime (UTC).
// Status is a projection of the wall clock and is recomputed on every read.
type ScheduleItem struct {
	ID        int64      `json:"id,omitempty"`
	ChannelID int64      `json:"channel_id"`
	ProgramID int64      `json:"program_id"`
	StartTime time.Time  `json:"start_time"`
	EndTime   time.Time  `json:"end_time"`
	IsLive    bool       `json:"is_live"`
	Status    string     `json:"status"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// ActiveAt reports whether now falls in [StartTime, EndTime).
func (s ScheduleItem) ActiveAt(now time.Time) bool {
	return !now.Before(s.StartTime) && now.Before(s.EndTime)
}

// StatusAt derives the item's status at now.
func (s ScheduleItem) StatusAt(now time.Time) string {
	switch {
	case now.Before(s.StartTime):
		return StatusScheduled
	case now.Before(s.EndTime):
		return StatusRunning
	default:
		return StatusCompleted
	}
}

// WithStatus returns a copy with Status set for now.
func (s ScheduleItem) WithStatus(now time.Time) ScheduleItem {
	s.Status = s.StatusAt(now)
	return s
}

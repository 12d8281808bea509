package models

// Content kinds for programs.
const (
	ContentKindVideo    = "video"
	ContentKindLive     = "live"
	ContentKindPlaylist = "playlist"
)

// Schedule item statuses. They are always derived from the wall clock, see ScheduleItem.StatusAt.
const (
	StatusScheduled = "scheduled"
	StatusRunning   = "running"
	StatusCompleted = "completed"
)

// Feed defaults.
const (
	DefaultTickerPriority = 5
	DefaultAdPriority     = 10
)

// ValidContentKind reports whether k is one of the known content kinds.
func ValidContentKind(k string) bool {
	switch k {
	case ContentKindVideo, ContentKindLive, ContentKindPlaylist:
		return true
	}
	return false
}

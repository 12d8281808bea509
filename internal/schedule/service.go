package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	nplog "github.com/voyagen/nowplaying/internal/log"
	"github.com/voyagen/nowplaying/internal/metrics"
	"github.com/voyagen/nowplaying/internal/models"
	"github.com/voyagen/nowplaying/internal/store"
)

// MissingProgramTitle is shown in the grid for items whose program no longer exists.
const MissingProgramTitle = "Untitled program"

// Reader is the subset of store.Store the read side needs.
type Reader interface {
	GetChannel(ctx context.Context, channelID int64) (*models.Channel, error)
	GetProgram(ctx context.Context, programID int64) (*models.Program, error)
	ListSchedule(ctx context.Context, channelID int64, window *store.TimeRange) ([]models.ScheduleItem, error)
}

// Service answers the two polled read queries: now playing and the weekly grid.
// It holds no mutable state and is safe for concurrent use.
type Service struct {
	store Reader
	loc   *time.Location
}

// NewService creates a Service grouping days in loc (UTC when nil).
func NewService(r Reader, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{store: r, loc: loc}
}

// Location returns the reference timezone used for calendar days.
func (s *Service) Location() *time.Location {
	return s.loc
}

// NowPlaying is the resolved state of a channel at ResolvedAt.
type NowPlaying struct {
	ChannelID        int64                `json:"channel_id"`
	ResolvedAt       time.Time            `json:"resolved_at"`
	CurrentItem      *models.ScheduleItem `json:"current_item,omitempty"`
	CurrentProgram   *models.Program      `json:"current_program,omitempty"`
	NextItem         *models.ScheduleItem `json:"next_item,omitempty"`
	NextProgram      *models.Program      `json:"next_program,omitempty"`
	NextStartTime    *time.Time           `json:"next_start_time,omitempty"`
	FallbackEmbedURL *string              `json:"fallback_embed_url,omitempty"`
}

// NowPlaying resolves the channel's current and next items at now.
// Unknown channels and deleted programs yield empty fields, never errors; only a
// failing schedule fetch is returned.
func (s *Service) NowPlaying(ctx context.Context, channelID int64, now time.Time) (*NowPlaying, error) {
	// Only items ending after now can be current or next. The bound is truncated to
	// the minute so consecutive polls share a cache key; Resolve filters exactly.
	items, err := s.store.ListSchedule(ctx, channelID, &store.TimeRange{EndAfter: now.UTC().Truncate(time.Minute)})
	if err != nil {
		metrics.RecordResolution(metrics.OutcomeError)
		return nil, fmt.Errorf("list schedule: %w", err)
	}

	res := Resolve(items, now)
	out := &NowPlaying{ChannelID: channelID, ResolvedAt: now.UTC()}

	if res.Current != nil {
		out.CurrentItem = res.Current
		out.CurrentProgram = s.program(ctx, res.Current.ProgramID)
	}
	if res.Next != nil {
		out.NextItem = res.Next
		out.NextProgram = s.program(ctx, res.Next.ProgramID)
		start := res.Next.StartTime
		out.NextStartTime = &start
	}

	switch {
	case out.CurrentItem != nil:
		metrics.RecordResolution(metrics.OutcomeScheduled)
	default:
		out.FallbackEmbedURL = s.fallback(ctx, channelID)
		if out.FallbackEmbedURL != nil {
			metrics.RecordResolution(metrics.OutcomeFallback)
		} else {
			metrics.RecordResolution(metrics.OutcomeEmpty)
		}
	}
	return out, nil
}

// GridEntry is a schedule item enriched for display.
type GridEntry struct {
	models.ScheduleItem
	Title          string  `json:"title"`
	Description    *string `json:"description,omitempty"`
	ProgramMissing bool    `json:"program_missing,omitempty"`
	Playing        bool    `json:"playing"`
}

// GridDay is one calendar day of the weekly grid.
type GridDay struct {
	Date    string      `json:"date"` // YYYY-MM-DD in the reference timezone
	Weekday string      `json:"weekday"`
	Today   bool        `json:"today"`
	Entries []GridEntry `json:"entries"`
}

// Week is the seven-day grid for a channel.
type Week struct {
	ChannelID int64     `json:"channel_id"`
	Timezone  string    `json:"timezone"`
	From      time.Time `json:"from"`
	To        time.Time `json:"to"`
	Days      []GridDay `json:"days"`
}

// Week returns the grid for the seven calendar days starting today (in the reference
// timezone). Items are fetched once and then partitioned by day.
func (s *Service) Week(ctx context.Context, channelID int64, now time.Time) (*Week, error) {
	from, to := WeekWindow(now, s.loc)
	// Items ending after the window start: every bucketed item, plus one that began
	// before today and is still running, so the playing flag agrees with NowPlaying.
	// GroupWeek drops the latter from the buckets.
	items, err := s.store.ListSchedule(ctx, channelID, &store.TimeRange{To: to.UTC(), EndAfter: from.UTC()})
	if err != nil {
		return nil, fmt.Errorf("list schedule: %w", err)
	}
	playing := Resolve(items, now).Current

	programs := make(map[int64]*models.Program)
	week := &Week{
		ChannelID: channelID,
		Timezone:  s.loc.String(),
		From:      from,
		To:        to,
		Days:      make([]GridDay, 0, WeekDays),
	}
	for i, day := range GroupWeek(items, now, s.loc) {
		gd := GridDay{
			Date:    day.Date.Format("2006-01-02"),
			Weekday: day.Date.Weekday().String(),
			Today:   i == 0,
			Entries: make([]GridEntry, 0, len(day.Items)),
		}
		for _, it := range day.Items {
			p, ok := programs[it.ProgramID]
			if !ok {
				p = s.program(ctx, it.ProgramID)
				programs[it.ProgramID] = p
			}
			e := GridEntry{
				ScheduleItem: it.WithStatus(now),
				Playing:      playing != nil && playing.ID == it.ID,
			}
			if p != nil {
				e.Title = p.Title
				e.Description = p.Description
			} else {
				e.Title = MissingProgramTitle
				e.ProgramMissing = true
			}
			gd.Entries = append(gd.Entries, e)
		}
		week.Days = append(week.Days, gd)
	}
	return week, nil
}

// program looks up a program, treating any failure as absence.
func (s *Service) program(ctx context.Context, programID int64) *models.Program {
	p, err := s.store.GetProgram(ctx, programID)
	if err == nil {
		return p
	}
	if errors.Is(err, store.ErrNotFound) {
		metrics.RecordDanglingProgram()
		return nil
	}
	l := nplog.FromContext(ctx, "schedule")
	l.Warn().Err(err).Int64(nplog.FieldProgramID, programID).Msg("program lookup failed")
	return nil
}

// fallback returns the channel's default embed, or nil when unavailable.
func (s *Service) fallback(ctx context.Context, channelID int64) *string {
	ch, err := s.store.GetChannel(ctx, channelID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			l := nplog.FromContext(ctx, "schedule")
			l.Warn().Err(err).Int64(nplog.FieldChannelID, channelID).Msg("channel lookup failed")
		}
		return nil
	}
	if ch.DefaultEmbedURL == nil || *ch.DefaultEmbedURL == "" {
		return nil
	}
	return ch.DefaultEmbedURL
}

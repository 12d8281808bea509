package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/voyagen/nowplaying/internal/models"
)

var (
	// ErrNotFound is returned when a referenced id does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidRange is returned when a schedule item's end is not after its start.
	ErrInvalidRange = errors.New("end_time must be after start_time")
	// ErrEmptyTitle is returned when a program has no title.
	ErrEmptyTitle = errors.New("title is required")
	// ErrInvalidKind is returned for an unknown program content kind.
	ErrInvalidKind = errors.New("content_kind must be one of video, live, playlist")
	// ErrInvalidInput covers the remaining field validation failures.
	ErrInvalidInput = errors.New("invalid input")
)

// Store defines persistence for channels, programs, schedule items, tickers, ads and contact messages.
// Writes are assumed to come from a single admin actor; reads may run concurrently.
type Store interface {
	// CreateChannel inserts a channel and returns it with its id.
	CreateChannel(ctx context.Context, ch *models.Channel) (*models.Channel, error)
	// GetChannel returns a channel by id.
	GetChannel(ctx context.Context, channelID int64) (*models.Channel, error)
	// ListChannels returns all channels ordered by id.
	ListChannels(ctx context.Context) ([]models.Channel, error)

	// CreateProgram validates and inserts a program.
	CreateProgram(ctx context.Context, p *models.Program) (*models.Program, error)
	// GetProgram returns a program by id.
	GetProgram(ctx context.Context, programID int64) (*models.Program, error)
	// ListPrograms returns programs of a channel; channelID 0 lists all.
	ListPrograms(ctx context.Context, channelID int64) ([]models.Program, error)
	// UpdateProgram applies a patch and returns the stored program.
	UpdateProgram(ctx context.Context, programID int64, fields ProgramUpdate) (*models.Program, error)
	// DeleteProgram removes a program. Schedule items referencing it are kept.
	DeleteProgram(ctx context.Context, programID int64) error

	// CreateSchedule inserts a schedule item. Overlapping items are allowed.
	CreateSchedule(ctx context.Context, item *models.ScheduleItem) (*models.ScheduleItem, error)
	// GetSchedule returns a schedule item by id.
	GetSchedule(ctx context.Context, itemID int64) (*models.ScheduleItem, error)
	// ListSchedule returns a channel's items, optionally limited to starts within window.
	// Ordering is unspecified.
	ListSchedule(ctx context.Context, channelID int64, window *TimeRange) ([]models.ScheduleItem, error)
	// UpdateSchedule applies a patch, re-checking the time range.
	UpdateSchedule(ctx context.Context, itemID int64, fields ScheduleUpdate) (*models.ScheduleItem, error)
	// DeleteSchedule removes a schedule item.
	DeleteSchedule(ctx context.Context, itemID int64) error

	// CreateTicker inserts a ticker item.
	CreateTicker(ctx context.Context, t *models.TickerItem) (*models.TickerItem, error)
	// ListTickers returns ticker items ordered by priority then id.
	ListTickers(ctx context.Context, activeOnly bool) ([]models.TickerItem, error)
	// UpdateTicker replaces text, priority and active flag.
	UpdateTicker(ctx context.Context, tickerID int64, t *models.TickerItem) (*models.TickerItem, error)
	// DeleteTicker removes a ticker item.
	DeleteTicker(ctx context.Context, tickerID int64) error

	// CreateAd inserts an ad.
	CreateAd(ctx context.Context, ad *models.Ad) (*models.Ad, error)
	// ListAds returns ads ordered by priority then id.
	ListAds(ctx context.Context, activeOnly bool) ([]models.Ad, error)
	// DeleteAd removes an ad.
	DeleteAd(ctx context.Context, adID int64) error

	// CreateContact stores a contact form submission.
	CreateContact(ctx context.Context, msg *models.ContactMessage) (*models.ContactMessage, error)
	// ListContacts returns all contact messages, newest first.
	ListContacts(ctx context.Context) ([]models.ContactMessage, error)
}

// TimeRange is a half-open window [From, To) on schedule start times.
// EndAfter additionally keeps only items whose end is after it. A zero bound is open.
type TimeRange struct {
	From     time.Time
	To       time.Time
	EndAfter time.Time
}

// Contains reports whether t falls inside the range.
func (r *TimeRange) Contains(t time.Time) bool {
	if r == nil {
		return true
	}
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && !t.Before(r.To) {
		return false
	}
	return true
}

// Includes reports whether item matches every bound of the range.
func (r *TimeRange) Includes(item models.ScheduleItem) bool {
	if !r.Contains(item.StartTime) {
		return false
	}
	return r == nil || r.EndAfter.IsZero() || item.EndTime.After(r.EndAfter)
}

// ProgramUpdate holds mutable fields for PATCH /programs/{id}.
// Pointer fields: nil = don't change, non-nil = set.
type ProgramUpdate struct {
	Title           *string
	Description     *string
	EmbedURL        *string
	ContentKind     *string
	DurationSeconds *int
	Tags            *string
}

// ScheduleUpdate holds mutable fields for PUT /schedule/{id}.
type ScheduleUpdate struct {
	ProgramID *int64
	StartTime *time.Time
	EndTime   *time.Time
	IsLive    *bool
}

// validateProgram normalises and checks a program before it is written.
func validateProgram(p *models.Program) error {
	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" {
		return ErrEmptyTitle
	}
	if p.ContentKind == "" {
		p.ContentKind = models.ContentKindVideo
	}
	if !models.ValidContentKind(p.ContentKind) {
		return ErrInvalidKind
	}
	if p.DurationSeconds != nil && *p.DurationSeconds < 0 {
		return ErrInvalidInput
	}
	return nil
}

// validateRange normalises both bounds to UTC and requires end > start.
func validateRange(item *models.ScheduleItem) error {
	item.StartTime = item.StartTime.UTC()
	item.EndTime = item.EndTime.UTC()
	if !item.EndTime.After(item.StartTime) {
		return ErrInvalidRange
	}
	return nil
}

func applyProgramUpdate(p *models.Program, f ProgramUpdate) {
	if f.Title != nil {
		p.Title = *f.Title
	}
	if f.Description != nil {
		p.Description = f.Description
	}
	if f.EmbedURL != nil {
		p.EmbedURL = f.EmbedURL
	}
	if f.ContentKind != nil {
		p.ContentKind = *f.ContentKind
	}
	if f.DurationSeconds != nil {
		p.DurationSeconds = f.DurationSeconds
	}
	if f.Tags != nil {
		p.Tags = f.Tags
	}
}

func applyScheduleUpdate(item *models.ScheduleItem, f ScheduleUpdate) {
	if f.ProgramID != nil {
		item.ProgramID = *f.ProgramID
	}
	if f.StartTime != nil {
		item.StartTime = *f.StartTime
	}
	if f.EndTime != nil {
		item.EndTime = *f.EndTime
	}
	if f.IsLive != nil {
		item.IsLive = *f.IsLive
	}
}

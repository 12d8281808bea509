package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/voyagen/nowplaying/internal/models"
	"github.com/voyagen/nowplaying/internal/schedule"
	"github.com/voyagen/nowplaying/internal/store"
)

// --- polled read endpoints ---

func (s *Server) handleNowPlaying(w http.ResponseWriter, r *http.Request) {
	channelID, err := queryID(r, "channel_id")
	if err != nil {
		writeErr(w, r, http.StatusBadRequest, err)
		return
	}
	np, err := s.sched.NowPlaying(r.Context(), channelID, s.now())
	if err != nil {
		writeErr(w, r, http.StatusServiceUnavailable, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, np)
}

func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	channelID, err := queryID(r, "channel_id")
	if err != nil {
		writeErr(w, r, http.StatusBadRequest, err)
		return
	}
	week, err := s.sched.Week(r.Context(), channelID, s.now())
	if err != nil {
		writeErr(w, r, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, week)
}

// --- schedule CRUD ---

func (s *Server) handleListSchedule(w http.ResponseWriter, r *http.Request) {
	channelID, err := queryID(r, "channel_id")
	if err != nil {
		writeErr(w, r, http.StatusBadRequest, err)
		return
	}
	window, err := parseWindow(r)
	if err != nil {
		writeErr(w, r, http.StatusBadRequest, err)
		return
	}
	items, err := s.store.ListSchedule(r.Context(), channelID, window)
	if err != nil {
		writeStoreErr(w, r, err)
		return
	}
	now := s.now()
	out := make([]models.ScheduleItem, len(items))
	for i, it := range items {
		out[i] = it.WithStatus(now)
	}
	schedule.SortByStart(out)
	writeJSON(w, http.StatusOK, out)
}

type scheduleRequest struct {
	ChannelID int64     `json:"channel_id"`
	ProgramID int64     `json:"program_id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	IsLive    bool      `json:"is_live"`
}

func (s *Server) handleCreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErr(w, r, http.StatusBadRequest, err)
		return
	}
	if req.ChannelID <= 0 || req.ProgramID <= 0 {
		writeErr(w, r, http.StatusBadRequest, fmt.Errorf("channel_id and program_id are required"))
		return
	}
	ctx := r.Context()
	if _, err := s.store.GetChannel(ctx, req.ChannelID); err != nil {
		writeStoreErr(w, r, fmt.Errorf("channel %d: %w", req.ChannelID, err))
		return
	}
	if _, err := s.store.GetProgram(ctx, req.ProgramID); err != nil {
		writeStoreErr(w, r, fmt.Errorf("program %d: %w", req.ProgramID, err))
		return
	}
	item, err := s.store.CreateSchedule(ctx, &models.ScheduleItem{
		ChannelID: req.ChannelID,
		ProgramID: req.ProgramID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		IsLive:    req.IsLive,
	})
	if err != nil {
		writeStoreErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item.WithStatus(s.now()))
}

func (s *Server) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	itemID, err := parseID(r, "id")
	if err != nil {
		writeErr(w, r, http.StatusBadRequest, err)
		return
	}
	item, err := s.store.GetSchedule(r.Context(), itemID)
	if err != nil {
		writeStoreErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item.WithStatus(s.now()))
}

type updateScheduleRequest struct {
	ProgramID *int64     `json:"program_id"`
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	IsLive    *bool      `json:"is_live"`
}

func (s *Server) handleUpdateSchedule(w http.ResponseWriter, r *http.Request) {
	itemID, err := parseID(r, "id")
	if err != nil {
		writeErr(w, r, http.StatusBadRequest, err)
		return
	}
	var req updateScheduleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErr(w, r, http.StatusBadRequest, err)
		return
	}
	if req.ProgramID != nil {
		if _, err := s.store.GetProgram(r.Context(), *req.ProgramID); err != nil {
			writeStoreErr(w, r, fmt.Errorf("program %d: %w", *req.ProgramID, err))
			return
		}
	}
	item, err := s.store.UpdateSchedule(r.Context(), itemID, store.ScheduleUpdate{
		ProgramID: req.ProgramID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		IsLive:    req.IsLive,
	})
	if err != nil {
		writeStoreErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item.WithStatus(s.now()))
}

func (s *Server) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	itemID, err := parseID(r, "id")
	if err != nil {
		writeErr(w, r, http.StatusBadRequest, err)
		return
	}
	if err := s.store.DeleteSchedule(r.Context(), itemID); err != nil {
		writeStoreErr(w, r, err)
		return
	}
	writeNoContent(w)
}

// parseWindow reads optional RFC 3339 from/to query bounds.
func parseWindow(r *http.Request) (*store.TimeRange, error) {
	q := r.URL.Query()
	if q.Get("from") == "" && q.Get("to") == "" {
		return nil, nil
	}
	var window store.TimeRange
	for _, b := range []struct {
		name string
		dst  *time.Time
	}{{"from", &window.From}, {"to", &window.To}} {
		v := q.Get(b.name)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: must be RFC 3339", b.name)
		}
		*b.dst = t.UTC()
	}
	if !window.From.IsZero() && !window.To.IsZero() && !window.To.After(window.From) {
		return nil, fmt.Errorf("to must be after from: %w", store.ErrInvalidRange)
	}
	return &window, nil
}

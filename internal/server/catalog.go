package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/voyagen/nowplaying/internal/models"
	"github.com/voyagen/nowplaying/internal/service"
	"github.com/voyagen/nowplaying/internal/store"
)

// --- channel handlers ---

func (s *Server) handleListChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := s.store.ListChannels(r.Context())
	if err != nil {
		writeStoreErr(w, r, err)
		return
	}
	if channels == nil {
		channels = []models.Channel{}
	}
	writeJSON(w, http.StatusOK, channels)
}

type createChannelRequest struct {
	Name            string  `json:"name"`
	Slug            string  `json:"slug"`
	Description     *string `json:"description"`
	DefaultEmbedURL *string `json:"default_embed_url"`
}

func (s *Server) handleCreateChannel(w http.ResponseWriter, r *http.Request) {
	var req createChannelRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErr(w, r, http.StatusBadRequest, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeErr(w, r, http.StatusBadRequest, fmt.Errorf("name is required"))
		return
	}
	if req.Slug == "" {
		req.Slug = slugify(req.Name)
	}
	ch, err := s.store.CreateChannel(r.Context(), &models.Channel{
		Name:            req.Name,
		Slug:            req.Slug,
		Description:     req.Description,
		DefaultEmbedURL: req.DefaultEmbedURL,
	})
	if err != nil {
		writeStoreErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ch)
}

func (s *Server) handleGetChannel(w http.ResponseWriter, r *http.Request) {
	channelID, err := parseID(r, "id")
	if err != nil {
		writeErr(w, r, http.StatusBadRequest, err)
		return
	}
	ch, err := s.store.GetChannel(r.Context(), channelID)
	if err != nil {
		writeStoreErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ch)
}

type importProgramsRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleImportPrograms(w http.ResponseWriter, r *http.Request) {
	channelID, err := parseID(r, "id")
	if err != nil {
		writeErr(w, r, http.StatusBadRequest, err)
		return
	}
	var req importProgramsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErr(w, r, http.StatusBadRequest, err)
		return
	}
	if !validHTTPURL(req.URL) {
		writeErr(w, r, http.StatusBadRequest, fmt.Errorf("url must be a valid http or https URL"))
		return
	}
	count, err := service.ImportPrograms(r.Context(), s.store, channelID, req.URL, s.cfg.UserAgent, s.cfg.Timeout)
	if err != nil {
		if isStoreErr(err) {
			writeStoreErr(w, r, err)
			return
		}
		writeErr(w, r, http.StatusBadGateway, fmt.Errorf("import: %w", err))
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"channel_id":    channelID,
		"program_count": count,
	})
}

// --- program handlers ---

func (s *Server) handleListPrograms(w http.ResponseWriter, r *http.Request) {
	var channelID int64
	if v := r.URL.Query().Get("channel_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeErr(w, r, http.StatusBadRequest, fmt.Errorf("invalid channel_id: %s", v))
			return
		}
		channelID = id
	}
	programs, err := s.store.ListPrograms(r.Context(), channelID)
	if err != nil {
		writeStoreErr(w, r, err)
		return
	}
	if programs == nil {
		programs = []models.Program{}
	}
	writeJSON(w, http.StatusOK, programs)
}

type createProgramRequest struct {
	ChannelID       int64   `json:"channel_id"`
	Title           string  `json:"title"`
	Description     *string `json:"description"`
	EmbedURL        *string `json:"embed_url"`
	ContentKind     string  `json:"content_kind"`
	DurationSeconds *int    `json:"duration_seconds"`
	Tags            *string `json:"tags"`
}

func (s *Server) handleCreateProgram(w http.ResponseWriter, r *http.Request) {
	var req createProgramRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErr(w, r, http.StatusBadRequest, err)
		return
	}
	if req.ChannelID <= 0 {
		writeErr(w, r, http.StatusBadRequest, fmt.Errorf("channel_id is required"))
		return
	}
	if _, err := s.store.GetChannel(r.Context(), req.ChannelID); err != nil {
		writeStoreErr(w, r, fmt.Errorf("channel %d: %w", req.ChannelID, err))
		return
	}
	p, err := s.store.CreateProgram(r.Context(), &models.Program{
		ChannelID:       req.ChannelID,
		Title:           req.Title,
		Description:     req.Description,
		EmbedURL:        req.EmbedURL,
		ContentKind:     req.ContentKind,
		DurationSeconds: req.DurationSeconds,
		Tags:            req.Tags,
	})
	if err != nil {
		writeStoreErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleGetProgram(w http.ResponseWriter, r *http.Request) {
	programID, err := parseID(r, "id")
	if err != nil {
		writeErr(w, r, http.StatusBadRequest, err)
		return
	}
	p, err := s.store.GetProgram(r.Context(), programID)
	if err != nil {
		writeStoreErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type updateProgramRequest struct {
	Title           *string `json:"title"`
	Description     *string `json:"description"`
	EmbedURL        *string `json:"embed_url"`
	ContentKind     *string `json:"content_kind"`
	DurationSeconds *int    `json:"duration_seconds"`
	Tags            *string `json:"tags"`
}

func (s *Server) handleUpdateProgram(w http.ResponseWriter, r *http.Request) {
	programID, err := parseID(r, "id")
	if err != nil {
		writeErr(w, r, http.StatusBadRequest, err)
		return
	}
	var req updateProgramRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErr(w, r, http.StatusBadRequest, err)
		return
	}
	p, err := s.store.UpdateProgram(r.Context(), programID, store.ProgramUpdate{
		Title:           req.Title,
		Description:     req.Description,
		EmbedURL:        req.EmbedURL,
		ContentKind:     req.ContentKind,
		DurationSeconds: req.DurationSeconds,
		Tags:            req.Tags,
	})
	if err != nil {
		writeStoreErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProgram(w http.ResponseWriter, r *http.Request) {
	programID, err := parseID(r, "id")
	if err != nil {
		writeErr(w, r, http.StatusBadRequest, err)
		return
	}
	if err := s.store.DeleteProgram(r.Context(), programID); err != nil {
		writeStoreErr(w, r, err)
		return
	}
	writeNoContent(w)
}

// --- helpers ---

func validHTTPURL(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// isStoreErr reports whether err carries one of the store sentinels.
func isStoreErr(err error) bool {
	for _, target := range []error{store.ErrNotFound, store.ErrInvalidRange, store.ErrEmptyTitle, store.ErrInvalidKind, store.ErrInvalidInput} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// slugify lowercases name and joins alphanumeric runs with dashes.
func slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

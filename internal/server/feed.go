package server

import (
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/voyagen/nowplaying/internal/cache"
	nplog "github.com/voyagen/nowplaying/internal/log"
	"github.com/voyagen/nowplaying/internal/models"
)

// --- ticker handlers ---

func (s *Server) handleListTickers(w http.ResponseWriter, r *http.Request) {
	activeOnly, err := queryBool(r, "active_only", true)
	if err != nil {
		writeErr(w, r, http.StatusBadRequest, err)
		return
	}
	items, err := s.store.ListTickers(r.Context(), activeOnly)
	if err != nil {
		writeStoreErr(w, r, err)
		return
	}
	if items == nil {
		items = []models.TickerItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

type tickerRequest struct {
	Text     string `json:"text"`
	Priority *int   `json:"priority"`
	Active   *bool  `json:"active"`
}

func (req tickerRequest) item() (*models.TickerItem, error) {
	t := &models.TickerItem{
		Text:     strings.TrimSpace(req.Text),
		Priority: models.DefaultTickerPriority,
		Active:   true,
	}
	if t.Text == "" {
		return nil, fmt.Errorf("text is required")
	}
	if req.Priority != nil {
		t.Priority = *req.Priority
	}
	if req.Active != nil {
		t.Active = *req.Active
	}
	return t, nil
}

func (s *Server) handleCreateTicker(w http.ResponseWriter, r *http.Request) {
	var req tickerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErr(w, r, http.StatusBadRequest, err)
		return
	}
	t, err := req.item()
	if err != nil {
		writeErr(w, r, http.StatusBadRequest, err)
		return
	}
	out, err := s.store.CreateTicker(r.Context(), t)
	if err != nil {
		writeStoreErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleUpdateTicker(w http.ResponseWriter, r *http.Request) {
	tickerID, err := parseID(r, "id")
	if err != nil {
		writeErr(w, r, http.StatusBadRequest, err)
		return
	}
	var req tickerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErr(w, r, http.StatusBadRequest, err)
		return
	}
	t, err := req.item()
	if err != nil {
		writeErr(w, r, http.StatusBadRequest, err)
		return
	}
	out, err := s.store.UpdateTicker(r.Context(), tickerID, t)
	if err != nil {
		writeStoreErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteTicker(w http.ResponseWriter, r *http.Request) {
	tickerID, err := parseID(r, "id")
	if err != nil {
		writeErr(w, r, http.StatusBadRequest, err)
		return
	}
	if err := s.store.DeleteTicker(r.Context(), tickerID); err != nil {
		writeStoreErr(w, r, err)
		return
	}
	writeNoContent(w)
}

// --- ad handlers ---

func (s *Server) handleListAds(w http.ResponseWriter, r *http.Request) {
	activeOnly, err := queryBool(r, "active_only", true)
	if err != nil {
		writeErr(w, r, http.StatusBadRequest, err)
		return
	}
	ads, err := s.store.ListAds(r.Context(), activeOnly)
	if err != nil {
		writeStoreErr(w, r, err)
		return
	}
	if ads == nil {
		ads = []models.Ad{}
	}
	writeJSON(w, http.StatusOK, ads)
}

type createAdRequest struct {
	Title    string  `json:"title"`
	ImageURL string  `json:"image_url"`
	ClickURL *string `json:"click_url"`
	Priority *int    `json:"priority"`
	Active   *bool   `json:"active"`
}

func (s *Server) handleCreateAd(w http.ResponseWriter, r *http.Request) {
	var req createAdRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErr(w, r, http.StatusBadRequest, err)
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeErr(w, r, http.StatusBadRequest, fmt.Errorf("title is required"))
		return
	}
	if !validHTTPURL(req.ImageURL) {
		writeErr(w, r, http.StatusBadRequest, fmt.Errorf("image_url must be a valid http or https URL"))
		return
	}
	if req.ClickURL != nil && !validHTTPURL(*req.ClickURL) {
		writeErr(w, r, http.StatusBadRequest, fmt.Errorf("click_url must be a valid http or https URL"))
		return
	}
	ad := &models.Ad{
		Title:    req.Title,
		ImageURL: req.ImageURL,
		ClickURL: req.ClickURL,
		Priority: models.DefaultAdPriority,
		Active:   true,
	}
	if req.Priority != nil {
		ad.Priority = *req.Priority
	}
	if req.Active != nil {
		ad.Active = *req.Active
	}
	out, err := s.store.CreateAd(r.Context(), ad)
	if err != nil {
		writeStoreErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleDeleteAd(w http.ResponseWriter, r *http.Request) {
	adID, err := parseID(r, "id")
	if err != nil {
		writeErr(w, r, http.StatusBadRequest, err)
		return
	}
	if err := s.store.DeleteAd(r.Context(), adID); err != nil {
		writeStoreErr(w, r, err)
		return
	}
	writeNoContent(w)
}

// --- contact handlers ---

type contactRequest struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Phone   *string `json:"phone"`
	Message string  `json:"message"`
}

const maxContactMessage = 5000

func (s *Server) handleCreateContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErr(w, r, http.StatusBadRequest, err)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Message = strings.TrimSpace(req.Message)
	switch {
	case req.Name == "":
		writeErr(w, r, http.StatusBadRequest, fmt.Errorf("name is required"))
		return
	case req.Message == "":
		writeErr(w, r, http.StatusBadRequest, fmt.Errorf("message is required"))
		return
	case len(req.Message) > maxContactMessage:
		writeErr(w, r, http.StatusBadRequest, fmt.Errorf("message exceeds %d bytes", maxContactMessage))
		return
	}
	addr, err := mail.ParseAddress(req.Email)
	if err != nil {
		writeErr(w, r, http.StatusBadRequest, fmt.Errorf("email is not a valid address"))
		return
	}

	msg, err := s.store.CreateContact(r.Context(), &models.ContactMessage{
		Name:    req.Name,
		Email:   addr.Address,
		Phone:   req.Phone,
		Message: req.Message,
	})
	if err != nil {
		writeStoreErr(w, r, err)
		return
	}

	if s.redis != nil {
		job := cache.ContactJob{Message: *msg, EnqueuedAt: time.Now().UTC()}
		if err := cache.Enqueue(r.Context(), s.redis, cache.ContactQueue, job); err != nil {
			// The message is stored; only the notification is lost.
			l := nplog.FromContext(r.Context(), "api")
			l.Warn().Err(err).Int64("contact_id", msg.ID).Msg("enqueue contact notification")
		}
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (s *Server) handleListContacts(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.store.ListContacts(r.Context())
	if err != nil {
		writeStoreErr(w, r, err)
		return
	}
	if msgs == nil {
		msgs = []models.ContactMessage{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

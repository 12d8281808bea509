package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/voyagen/nowplaying/internal/feed"
	"github.com/voyagen/nowplaying/internal/models"
)

// Memory implements Store in process memory. Records are deep-copied on the way in
// and out, so callers get an immutable snapshot per call and may read concurrently
// with the writer.
type Memory struct {
	mu       sync.RWMutex
	nextID   int64
	now      func() time.Time
	channels map[int64]models.Channel
	programs map[int64]models.Program
	schedule map[int64]models.ScheduleItem
	tickers  map[int64]models.TickerItem
	ads      map[int64]models.Ad
	contacts map[int64]models.ContactMessage
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		now:      time.Now,
		channels: make(map[int64]models.Channel),
		programs: make(map[int64]models.Program),
		schedule: make(map[int64]models.ScheduleItem),
		tickers:  make(map[int64]models.TickerItem),
		ads:      make(map[int64]models.Ad),
		contacts: make(map[int64]models.ContactMessage),
	}
}

// id hands out the next id; caller holds mu.
func (m *Memory) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *Memory) stamp() *time.Time {
	t := m.now().UTC()
	return &t
}

// --- channels ---

func (m *Memory) CreateChannel(_ context.Context, ch *models.Channel) (*models.Channel, error) {
	if ch.Name == "" {
		return nil, ErrInvalidInput
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *ch
	c.ID = m.id()
	c.CreatedAt = m.stamp()
	m.channels[c.ID] = cloneChannel(c)
	return &c, nil
}

func (m *Memory) GetChannel(_ context.Context, channelID int64) (*models.Channel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.channels[channelID]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneChannel(c)
	return &out, nil
}

func (m *Memory) ListChannels(_ context.Context) ([]models.Channel, error) {
	m.mu.RLock()
	out := make([]models.Channel, 0, len(m.channels))
	for _, c := range m.channels {
		out = append(out, cloneChannel(c))
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- programs ---

func (m *Memory) CreateProgram(_ context.Context, p *models.Program) (*models.Program, error) {
	prog := *p
	if err := validateProgram(&prog); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	prog.ID = m.id()
	prog.CreatedAt = m.stamp()
	m.programs[prog.ID] = cloneProgram(prog)
	return &prog, nil
}

func (m *Memory) GetProgram(_ context.Context, programID int64) (*models.Program, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.programs[programID]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneProgram(p)
	return &out, nil
}

func (m *Memory) ListPrograms(_ context.Context, channelID int64) ([]models.Program, error) {
	m.mu.RLock()
	out := make([]models.Program, 0)
	for _, p := range m.programs {
		if channelID == 0 || p.ChannelID == channelID {
			out = append(out, cloneProgram(p))
		}
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) UpdateProgram(_ context.Context, programID int64, fields ProgramUpdate) (*models.Program, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.programs[programID]
	if !ok {
		return nil, ErrNotFound
	}
	applyProgramUpdate(&p, fields)
	if err := validateProgram(&p); err != nil {
		return nil, err
	}
	m.programs[programID] = cloneProgram(p)
	return &p, nil
}

func (m *Memory) DeleteProgram(_ context.Context, programID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.programs[programID]; !ok {
		return ErrNotFound
	}
	delete(m.programs, programID)
	return nil
}

// --- schedule ---

func (m *Memory) CreateSchedule(_ context.Context, item *models.ScheduleItem) (*models.ScheduleItem, error) {
	it := *item
	if err := validateRange(&it); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	it.ID = m.id()
	it.Status = models.StatusScheduled
	it.CreatedAt = m.stamp()
	it.UpdatedAt = it.CreatedAt
	m.schedule[it.ID] = cloneSchedule(it)
	return &it, nil
}

func (m *Memory) GetSchedule(_ context.Context, itemID int64) (*models.ScheduleItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	it, ok := m.schedule[itemID]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneSchedule(it)
	return &out, nil
}

func (m *Memory) ListSchedule(_ context.Context, channelID int64, window *TimeRange) ([]models.ScheduleItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.ScheduleItem, 0)
	for _, it := range m.schedule {
		if it.ChannelID == channelID && window.Includes(it) {
			out = append(out, cloneSchedule(it))
		}
	}
	return out, nil
}

func (m *Memory) UpdateSchedule(_ context.Context, itemID int64, fields ScheduleUpdate) (*models.ScheduleItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.schedule[itemID]
	if !ok {
		return nil, ErrNotFound
	}
	applyScheduleUpdate(&it, fields)
	if err := validateRange(&it); err != nil {
		return nil, err
	}
	it.UpdatedAt = m.stamp()
	m.schedule[itemID] = cloneSchedule(it)
	return &it, nil
}

func (m *Memory) DeleteSchedule(_ context.Context, itemID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schedule[itemID]; !ok {
		return ErrNotFound
	}
	delete(m.schedule, itemID)
	return nil
}

// --- tickers ---

func (m *Memory) CreateTicker(_ context.Context, t *models.TickerItem) (*models.TickerItem, error) {
	if t.Text == "" {
		return nil, ErrInvalidInput
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tk := *t
	tk.ID = m.id()
	tk.CreatedAt = m.stamp()
	m.tickers[tk.ID] = cloneTicker(tk)
	return &tk, nil
}

func (m *Memory) ListTickers(_ context.Context, activeOnly bool) ([]models.TickerItem, error) {
	m.mu.RLock()
	all := make([]models.TickerItem, 0, len(m.tickers))
	for _, t := range m.tickers {
		all = append(all, cloneTicker(t))
	}
	m.mu.RUnlock()
	return feed.Tickers(all, activeOnly), nil
}

func (m *Memory) UpdateTicker(_ context.Context, tickerID int64, t *models.TickerItem) (*models.TickerItem, error) {
	if t.Text == "" {
		return nil, ErrInvalidInput
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.tickers[tickerID]
	if !ok {
		return nil, ErrNotFound
	}
	cur.Text = t.Text
	cur.Priority = t.Priority
	cur.Active = t.Active
	m.tickers[tickerID] = cloneTicker(cur)
	return &cur, nil
}

func (m *Memory) DeleteTicker(_ context.Context, tickerID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tickers[tickerID]; !ok {
		return ErrNotFound
	}
	delete(m.tickers, tickerID)
	return nil
}

// --- ads ---

func (m *Memory) CreateAd(_ context.Context, ad *models.Ad) (*models.Ad, error) {
	if ad.Title == "" || ad.ImageURL == "" {
		return nil, ErrInvalidInput
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a := *ad
	a.ID = m.id()
	a.CreatedAt = m.stamp()
	m.ads[a.ID] = cloneAd(a)
	return &a, nil
}

func (m *Memory) ListAds(_ context.Context, activeOnly bool) ([]models.Ad, error) {
	m.mu.RLock()
	all := make([]models.Ad, 0, len(m.ads))
	for _, a := range m.ads {
		all = append(all, cloneAd(a))
	}
	m.mu.RUnlock()
	return feed.Ads(all, activeOnly), nil
}

func (m *Memory) DeleteAd(_ context.Context, adID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.ads[adID]; !ok {
		return ErrNotFound
	}
	delete(m.ads, adID)
	return nil
}

// --- contact messages ---

func (m *Memory) CreateContact(_ context.Context, msg *models.ContactMessage) (*models.ContactMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *msg
	c.ID = m.id()
	c.CreatedAt = m.stamp()
	m.contacts[c.ID] = cloneContact(c)
	return &c, nil
}

func (m *Memory) ListContacts(_ context.Context) ([]models.ContactMessage, error) {
	m.mu.RLock()
	out := make([]models.ContactMessage, 0, len(m.contacts))
	for _, c := range m.contacts {
		out = append(out, cloneContact(c))
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// --- copies ---

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneChannel(c models.Channel) models.Channel {
	c.Description = clonePtr(c.Description)
	c.DefaultEmbedURL = clonePtr(c.DefaultEmbedURL)
	c.CreatedAt = clonePtr(c.CreatedAt)
	return c
}

func cloneProgram(p models.Program) models.Program {
	p.Description = clonePtr(p.Description)
	p.EmbedURL = clonePtr(p.EmbedURL)
	p.DurationSeconds = clonePtr(p.DurationSeconds)
	p.Tags = clonePtr(p.Tags)
	p.CreatedAt = clonePtr(p.CreatedAt)
	return p
}

func cloneSchedule(it models.ScheduleItem) models.ScheduleItem {
	it.CreatedAt = clonePtr(it.CreatedAt)
	it.UpdatedAt = clonePtr(it.UpdatedAt)
	return it
}

func cloneTicker(t models.TickerItem) models.TickerItem {
	t.CreatedAt = clonePtr(t.CreatedAt)
	return t
}

func cloneAd(a models.Ad) models.Ad {
	a.ClickURL = clonePtr(a.ClickURL)
	a.CreatedAt = clonePtr(a.CreatedAt)
	return a
}

func cloneContact(c models.ContactMessage) models.ContactMessage {
	c.Phone = clonePtr(c.Phone)
	c.CreatedAt = clonePtr(c.CreatedAt)
	return c
}

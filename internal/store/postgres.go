package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/voyagen/nowplaying/internal/models"
)

// Postgres implements Store using PostgreSQL.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres store from a DSN. Caller must call Close when done.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close closes the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}

// notFound maps pgx.ErrNoRows to ErrNotFound and wraps anything else with op.
func notFound(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

// execOne runs a DELETE/UPDATE that must touch exactly one row.
func (p *Postgres) execOne(ctx context.Context, op, sql string, args ...any) error {
	tag, err := p.pool.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- channels ---

const channelColumns = `id, name, slug, description, default_embed_url, created_at`

func scanChannel(row pgx.Row) (*models.Channel, error) {
	var c models.Channel
	if err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.DefaultEmbedURL, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateChannel inserts a channel.
func (p *Postgres) CreateChannel(ctx context.Context, ch *models.Channel) (*models.Channel, error) {
	if ch.Name == "" {
		return nil, ErrInvalidInput
	}
	c, err := scanChannel(p.pool.QueryRow(ctx,
		`INSERT INTO channels (name, slug, description, default_embed_url)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+channelColumns,
		ch.Name, ch.Slug, ch.Description, ch.DefaultEmbedURL,
	))
	if err != nil {
		return nil, fmt.Errorf("CreateChannel: %w", err)
	}
	return c, nil
}

// GetChannel returns a channel by id.
func (p *Postgres) GetChannel(ctx context.Context, channelID int64) (*models.Channel, error) {
	c, err := scanChannel(p.pool.QueryRow(ctx,
		`SELECT `+channelColumns+` FROM channels WHERE id = $1`, channelID))
	if err != nil {
		return nil, notFound("GetChannel", err)
	}
	return c, nil
}

// ListChannels returns all channels.
func (p *Postgres) ListChannels(ctx context.Context) ([]models.Channel, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+channelColumns+` FROM channels ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("ListChannels: %w", err)
	}
	defer rows.Close()
	var out []models.Channel
	for rows.Next() {
		c, err := scanChannel(rows)
		if err != nil {
			return nil, fmt.Errorf("ListChannels scan: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// --- programs ---

const programColumns = `id, channel_id, title, description, embed_url, content_kind, duration_seconds, tags, created_at`

func scanProgram(row pgx.Row) (*models.Program, error) {
	var pr models.Program
	if err := row.Scan(&pr.ID, &pr.ChannelID, &pr.Title, &pr.Description, &pr.EmbedURL,
		&pr.ContentKind, &pr.DurationSeconds, &pr.Tags, &pr.CreatedAt); err != nil {
		return nil, err
	}
	return &pr, nil
}

// CreateProgram validates and inserts a program.
func (p *Postgres) CreateProgram(ctx context.Context, in *models.Program) (*models.Program, error) {
	prog := *in
	if err := validateProgram(&prog); err != nil {
		return nil, err
	}
	out, err := scanProgram(p.pool.QueryRow(ctx,
		`INSERT INTO programs (channel_id, title, description, embed_url, content_kind, duration_seconds, tags)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+programColumns,
		prog.ChannelID, prog.Title, prog.Description, prog.EmbedURL, prog.ContentKind, prog.DurationSeconds, prog.Tags,
	))
	if err != nil {
		return nil, fmt.Errorf("CreateProgram: %w", err)
	}
	return out, nil
}

// GetProgram returns a program by id.
func (p *Postgres) GetProgram(ctx context.Context, programID int64) (*models.Program, error) {
	pr, err := scanProgram(p.pool.QueryRow(ctx,
		`SELECT `+programColumns+` FROM programs WHERE id = $1`, programID))
	if err != nil {
		return nil, notFound("GetProgram", err)
	}
	return pr, nil
}

// ListPrograms returns programs for a channel, or all programs when channelID is 0.
func (p *Postgres) ListPrograms(ctx context.Context, channelID int64) ([]models.Program, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+programColumns+` FROM programs
		 WHERE ($1 = 0 OR channel_id = $1)
		 ORDER BY id`, channelID)
	if err != nil {
		return nil, fmt.Errorf("ListPrograms: %w", err)
	}
	defer rows.Close()
	var out []models.Program
	for rows.Next() {
		pr, err := scanProgram(rows)
		if err != nil {
			return nil, fmt.Errorf("ListPrograms scan: %w", err)
		}
		out = append(out, *pr)
	}
	return out, rows.Err()
}

// UpdateProgram applies a patch. The row is read, patched and validated in Go, then
// written back, all inside one transaction.
func (p *Postgres) UpdateProgram(ctx context.Context, programID int64, fields ProgramUpdate) (*models.Program, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("UpdateProgram begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cur, err := scanProgram(tx.QueryRow(ctx,
		`SELECT `+programColumns+` FROM programs WHERE id = $1 FOR UPDATE`, programID))
	if err != nil {
		return nil, notFound("UpdateProgram", err)
	}
	applyProgramUpdate(cur, fields)
	if err := validateProgram(cur); err != nil {
		return nil, err
	}
	out, err := scanProgram(tx.QueryRow(ctx,
		`UPDATE programs SET title = $2, description = $3, embed_url = $4, content_kind = $5,
		   duration_seconds = $6, tags = $7
		 WHERE id = $1
		 RETURNING `+programColumns,
		programID, cur.Title, cur.Description, cur.EmbedURL, cur.ContentKind, cur.DurationSeconds, cur.Tags,
	))
	if err != nil {
		return nil, fmt.Errorf("UpdateProgram: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("UpdateProgram commit: %w", err)
	}
	return out, nil
}

// DeleteProgram removes a program. schedule_items.program_id has no foreign key, so
// referencing items survive and resolve to a missing program.
func (p *Postgres) DeleteProgram(ctx context.Context, programID int64) error {
	return p.execOne(ctx, "DeleteProgram", `DELETE FROM programs WHERE id = $1`, programID)
}

// --- schedule ---

const scheduleColumns = `id, channel_id, program_id, start_time, end_time, is_live, created_at, updated_at`

func scanSchedule(row pgx.Row) (*models.ScheduleItem, error) {
	var it models.ScheduleItem
	if err := row.Scan(&it.ID, &it.ChannelID, &it.ProgramID, &it.StartTime, &it.EndTime,
		&it.IsLive, &it.CreatedAt, &it.UpdatedAt); err != nil {
		return nil, err
	}
	it.StartTime = it.StartTime.UTC()
	it.EndTime = it.EndTime.UTC()
	it.Status = models.StatusScheduled
	return &it, nil
}

// CreateSchedule inserts a schedule item.
func (p *Postgres) CreateSchedule(ctx context.Context, in *models.ScheduleItem) (*models.ScheduleItem, error) {
	it := *in
	if err := validateRange(&it); err != nil {
		return nil, err
	}
	out, err := scanSchedule(p.pool.QueryRow(ctx,
		`INSERT INTO schedule_items (channel_id, program_id, start_time, end_time, is_live)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+scheduleColumns,
		it.ChannelID, it.ProgramID, it.StartTime, it.EndTime, it.IsLive,
	))
	if err != nil {
		return nil, fmt.Errorf("CreateSchedule: %w", err)
	}
	return out, nil
}

// GetSchedule returns a schedule item by id.
func (p *Postgres) GetSchedule(ctx context.Context, itemID int64) (*models.ScheduleItem, error) {
	it, err := scanSchedule(p.pool.QueryRow(ctx,
		`SELECT `+scheduleColumns+` FROM schedule_items WHERE id = $1`, itemID))
	if err != nil {
		return nil, notFound("GetSchedule", err)
	}
	return it, nil
}

// ListSchedule returns a channel's items, optionally limited by window.
func (p *Postgres) ListSchedule(ctx context.Context, channelID int64, window *TimeRange) ([]models.ScheduleItem, error) {
	var from, to, endAfter *time.Time
	if window != nil {
		from, to, endAfter = utcOrNil(window.From), utcOrNil(window.To), utcOrNil(window.EndAfter)
	}
	rows, err := p.pool.Query(ctx,
		`SELECT `+scheduleColumns+` FROM schedule_items
		 WHERE channel_id = $1
		   AND ($2::timestamptz IS NULL OR start_time >= $2)
		   AND ($3::timestamptz IS NULL OR start_time < $3)
		   AND ($4::timestamptz IS NULL OR end_time > $4)`,
		channelID, from, to, endAfter)
	if err != nil {
		return nil, fmt.Errorf("ListSchedule: %w", err)
	}
	defer rows.Close()
	out := make([]models.ScheduleItem, 0)
	for rows.Next() {
		it, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("ListSchedule scan: %w", err)
		}
		out = append(out, *it)
	}
	return out, rows.Err()
}

func utcOrNil(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	t = t.UTC()
	return &t
}

// UpdateSchedule applies a patch inside a transaction, re-checking the range.
func (p *Postgres) UpdateSchedule(ctx context.Context, itemID int64, fields ScheduleUpdate) (*models.ScheduleItem, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("UpdateSchedule begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	cur, err := scanSchedule(tx.QueryRow(ctx,
		`SELECT `+scheduleColumns+` FROM schedule_items WHERE id = $1 FOR UPDATE`, itemID))
	if err != nil {
		return nil, notFound("UpdateSchedule", err)
	}
	applyScheduleUpdate(cur, fields)
	if err := validateRange(cur); err != nil {
		return nil, err
	}
	out, err := scanSchedule(tx.QueryRow(ctx,
		`UPDATE schedule_items SET program_id = $2, start_time = $3, end_time = $4, is_live = $5,
		   updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+scheduleColumns,
		itemID, cur.ProgramID, cur.StartTime, cur.EndTime, cur.IsLive,
	))
	if err != nil {
		return nil, fmt.Errorf("UpdateSchedule: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("UpdateSchedule commit: %w", err)
	}
	return out, nil
}

// DeleteSchedule removes a schedule item.
func (p *Postgres) DeleteSchedule(ctx context.Context, itemID int64) error {
	return p.execOne(ctx, "DeleteSchedule", `DELETE FROM schedule_items WHERE id = $1`, itemID)
}

// --- tickers ---

const tickerColumns = `id, text, priority, active, created_at`

func scanTicker(row pgx.Row) (*models.TickerItem, error) {
	var t models.TickerItem
	if err := row.Scan(&t.ID, &t.Text, &t.Priority, &t.Active, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTicker inserts a ticker item.
func (p *Postgres) CreateTicker(ctx context.Context, in *models.TickerItem) (*models.TickerItem, error) {
	if in.Text == "" {
		return nil, ErrInvalidInput
	}
	t, err := scanTicker(p.pool.QueryRow(ctx,
		`INSERT INTO tickers (text, priority, active) VALUES ($1, $2, $3)
		 RETURNING `+tickerColumns,
		in.Text, in.Priority, in.Active,
	))
	if err != nil {
		return nil, fmt.Errorf("CreateTicker: %w", err)
	}
	return t, nil
}

// ListTickers returns ticker items by ascending priority.
func (p *Postgres) ListTickers(ctx context.Context, activeOnly bool) ([]models.TickerItem, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+tickerColumns+` FROM tickers
		 WHERE (NOT $1 OR active)
		 ORDER BY priority, id`, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("ListTickers: %w", err)
	}
	defer rows.Close()
	var out []models.TickerItem
	for rows.Next() {
		t, err := scanTicker(rows)
		if err != nil {
			return nil, fmt.Errorf("ListTickers scan: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// UpdateTicker replaces text, priority and active flag.
func (p *Postgres) UpdateTicker(ctx context.Context, tickerID int64, in *models.TickerItem) (*models.TickerItem, error) {
	if in.Text == "" {
		return nil, ErrInvalidInput
	}
	t, err := scanTicker(p.pool.QueryRow(ctx,
		`UPDATE tickers SET text = $2, priority = $3, active = $4 WHERE id = $1
		 RETURNING `+tickerColumns,
		tickerID, in.Text, in.Priority, in.Active,
	))
	if err != nil {
		return nil, notFound("UpdateTicker", err)
	}
	return t, nil
}

// DeleteTicker removes a ticker item.
func (p *Postgres) DeleteTicker(ctx context.Context, tickerID int64) error {
	return p.execOne(ctx, "DeleteTicker", `DELETE FROM tickers WHERE id = $1`, tickerID)
}

// --- ads ---

const adColumns = `id, title, image_url, click_url, priority, active, created_at`

func scanAd(row pgx.Row) (*models.Ad, error) {
	var a models.Ad
	if err := row.Scan(&a.ID, &a.Title, &a.ImageURL, &a.ClickURL, &a.Priority, &a.Active, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAd inserts an ad.
func (p *Postgres) CreateAd(ctx context.Context, in *models.Ad) (*models.Ad, error) {
	if in.Title == "" || in.ImageURL == "" {
		return nil, ErrInvalidInput
	}
	a, err := scanAd(p.pool.QueryRow(ctx,
		`INSERT INTO ads (title, image_url, click_url, priority, active) VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+adColumns,
		in.Title, in.ImageURL, in.ClickURL, in.Priority, in.Active,
	))
	if err != nil {
		return nil, fmt.Errorf("CreateAd: %w", err)
	}
	return a, nil
}

// ListAds returns ads by ascending priority.
func (p *Postgres) ListAds(ctx context.Context, activeOnly bool) ([]models.Ad, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+adColumns+` FROM ads
		 WHERE (NOT $1 OR active)
		 ORDER BY priority, id`, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("ListAds: %w", err)
	}
	defer rows.Close()
	var out []models.Ad
	for rows.Next() {
		a, err := scanAd(rows)
		if err != nil {
			return nil, fmt.Errorf("ListAds scan: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// DeleteAd removes an ad.
func (p *Postgres) DeleteAd(ctx context.Context, adID int64) error {
	return p.execOne(ctx, "DeleteAd", `DELETE FROM ads WHERE id = $1`, adID)
}

// --- contact messages ---

const contactColumns = `id, name, email, phone, message, created_at`

func scanContact(row pgx.Row) (*models.ContactMessage, error) {
	var c models.ContactMessage
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Message, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateContact stores a contact form submission.
func (p *Postgres) CreateContact(ctx context.Context, in *models.ContactMessage) (*models.ContactMessage, error) {
	c, err := scanContact(p.pool.QueryRow(ctx,
		`INSERT INTO contact_messages (name, email, phone, message) VALUES ($1, $2, $3, $4)
		 RETURNING `+contactColumns,
		in.Name, in.Email, in.Phone, in.Message,
	))
	if err != nil {
		return nil, fmt.Errorf("CreateContact: %w", err)
	}
	return c, nil
}

// ListContacts returns contact messages, newest first.
func (p *Postgres) ListContacts(ctx context.Context) ([]models.ContactMessage, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+contactColumns+` FROM contact_messages ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("ListContacts: %w", err)
	}
	defer rows.Close()
	var out []models.ContactMessage
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, fmt.Errorf("ListContacts scan: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNowPlaying(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/schedule/now-playing", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("channel_id"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"channel_id": 3,
			"resolved_at": "2026-10-19T09:30:00Z",
			"current_item": {"id": 7, "channel_id": 3, "program_id": 2,
				"start_time": "2026-10-19T09:00:00Z", "end_time": "2026-10-19T10:00:00Z",
				"is_live": true, "status": "running"},
			"current_program": {"id": 2, "channel_id": 3, "title": "Breaking", "content_kind": "live"}
		}`))
	}))
	defer srv.Close()

	np, err := New(srv.URL+"/", nil).NowPlaying(context.Background(), 3)
	require.NoError(t, err)
	require.NotNil(t, np.CurrentItem)
	assert.Equal(t, int64(7), np.CurrentItem.ID)
	assert.True(t, np.CurrentItem.IsLive)
	assert.Equal(t, "Breaking", np.CurrentProgram.Title)
	assert.True(t, np.ResolvedAt.Equal(time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)))
	assert.Nil(t, np.NextItem)
}

func TestTickers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("active_only"))
		_, _ = w.Write([]byte(`[{"id":1,"text":"Breaking","priority":1,"active":true}]`))
	}))
	defer srv.Close()

	items, err := New(srv.URL, nil).Tickers(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Breaking", items[0].Text)
}

func TestErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":400,"error":"Bad Request","detail":"invalid channel_id: x"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, nil).Week(context.Background(), 1)
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "invalid channel_id: x", apiErr.Detail)
}

func TestErrorWithoutEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL, nil).Channels(context.Background())
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, "Bad Gateway", apiErr.Message)
}

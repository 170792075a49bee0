package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/ponto/internal/domain"
)

type delivery struct {
	header http.Header
	body   []byte
}

type receiver struct {
	mu         sync.Mutex
	deliveries []delivery
	failFirst  int32
	calls      atomic.Int32
}

func (r *receiver) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	n := r.calls.Add(1)
	body, _ := io.ReadAll(req.Body)

	r.mu.Lock()
	r.deliveries = append(r.deliveries, delivery{header: req.Header.Clone(), body: body})
	r.mu.Unlock()

	if n <= r.failFirst {
		w.WriteHeader(http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (r *receiver) all() []delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]delivery(nil), r.deliveries...)
}

func newTestWorker(t *testing.T, url string, maxAttempts int) *Worker {
	t.Helper()
	cfg := DefaultConfig(url, "s3cret")
	cfg.MaxAttempts = maxAttempts
	cfg.BaseDelay = 5 * time.Millisecond
	cfg.Timeout = time.Second

	w := NewWorker(NewService(cfg), cfg, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go w.Run(ctx)
	return w
}

func TestWorker_DeliversSignedPayload(t *testing.T) {
	recv := &receiver{}
	srv := httptest.NewServer(recv)
	defer srv.Close()

	w := newTestWorker(t, srv.URL, 3)
	ts := time.Date(2026, 3, 2, 9, 15, 0, 0, time.UTC)

	w.AttendanceLogged(context.Background(), domain.AttendanceRecord{ID: 7, Name: "Alice", Timestamp: ts})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, w.Close(ctx))

	got := recv.all()
	require.Len(t, got, 1)

	d := got[0]
	assert.Equal(t, "application/json", d.header.Get("Content-Type"))
	assert.Equal(t, EventAttendanceLogged, d.header.Get(EventHeader))
	assert.NotEmpty(t, d.header.Get(DeliveryHeader))
	assert.True(t, Verify("s3cret", d.body, d.header.Get(SignatureHeader)))

	var payload struct {
		ID   string                  `json:"id"`
		Type string                  `json:"type"`
		Data domain.AttendanceRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal(d.body, &payload))
	assert.Equal(t, d.header.Get(DeliveryHeader), payload.ID)
	assert.Equal(t, EventAttendanceLogged, payload.Type)
	assert.Equal(t, "Alice", payload.Data.Name)
	assert.Equal(t, int64(7), payload.Data.ID)
	assert.True(t, ts.Equal(payload.Data.Timestamp))
}

func TestWorker_RetriesWithSamePayload(t *testing.T) {
	recv := &receiver{failFirst: 2}
	srv := httptest.NewServer(recv)
	defer srv.Close()

	w := newTestWorker(t, srv.URL, 5)
	require.NoError(t, w.Enqueue(EventAttendanceLogged, map[string]string{"name": "Bob"}))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, w.Close(ctx))

	got := recv.all()
	require.Len(t, got, 3)
	for _, d := range got[1:] {
		assert.Equal(t, got[0].body, d.body)
		assert.Equal(t, got[0].header.Get(SignatureHeader), d.header.Get(SignatureHeader))
		assert.Equal(t, got[0].header.Get(DeliveryHeader), d.header.Get(DeliveryHeader))
	}
}

func TestWorker_GivesUpAfterMaxAttempts(t *testing.T) {
	recv := &receiver{failFirst: 100}
	srv := httptest.NewServer(recv)
	defer srv.Close()

	w := newTestWorker(t, srv.URL, 3)
	require.NoError(t, w.Enqueue(EventAttendanceLogged, "x"))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, w.Close(ctx))

	assert.Equal(t, int32(3), recv.calls.Load())
}

func TestWorker_EnqueueAfterClose(t *testing.T) {
	w := newTestWorker(t, "http://127.0.0.1:1", 1)
	require.NoError(t, w.Close(context.Background()))

	err := w.Enqueue(EventAttendanceLogged, "x")

	assert.ErrorIs(t, err, ErrWorkerClosed)
}

func TestWorker_CloseHonorsContext(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	w := newTestWorker(t, srv.URL, 1)
	require.NoError(t, w.Enqueue(EventAttendanceLogged, "x"))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	err := w.Close(ctx)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWorker_QueueFull(t *testing.T) {
	cfg := DefaultConfig("http://127.0.0.1:1", "s")
	cfg.QueueSize = 1
	// not running, so nothing drains the queue
	w := NewWorker(NewService(cfg), cfg, nil)

	require.NoError(t, w.Enqueue(EventAttendanceLogged, 1))
	assert.Error(t, w.Enqueue(EventAttendanceLogged, 2))
}

func TestBackoff(t *testing.T) {
	tests := []struct {
		attempts int
		want     time.Duration
	}{
		{0, time.Second},
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{5, 16 * time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, backoff(time.Second, tt.attempts), "attempts=%d", tt.attempts)
	}
}

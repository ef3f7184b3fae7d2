package api

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/stockchat/stockchat/internal/agent"
	"github.com/stockchat/stockchat/internal/log"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// stubAgent returns a canned reply and records the last query.
type stubAgent struct {
	reply agent.Reply
	query string
}

func (a *stubAgent) Process(_ context.Context, query string) agent.Reply {
	a.query = query
	return a.reply
}

// stubProber fails readiness with err when set.
type stubProber struct {
	err error
}

func (p *stubProber) Probe(context.Context) error { return p.err }

func newTestServer(t *testing.T, a QueryAgent) http.Handler {
	t.Helper()
	srv := NewServer(ServerConfig{
		Agent:     a,
		Readiness: &stubProber{},
		Logger:    log.NewNop(),
	})
	return srv.Handler()
}

func TestServer_HealthEndpoints(t *testing.T) {
	handler := newTestServer(t, &stubAgent{})

	t.Run("GET /health returns 200", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ok", w.Body.String())
	})

	t.Run("GET /ready returns 200 when model is available", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ready", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ready", w.Body.String())
	})
}

func TestServer_MiddlewareChain(t *testing.T) {
	handler := newTestServer(t, &stubAgent{})

	t.Run("every response carries a request ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.NotEmpty(t, w.Header().Get(requestIDHeader))
	})
}

func TestServer_Run_GracefulShutdown(t *testing.T) {
	srv := NewServer(ServerConfig{
		Agent:     &stubAgent{},
		Readiness: &stubProber{},
		Logger:    log.NewNop(),
	})

	ctx, cancel := context.WithCancel(context.Background())

	// Find an available port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	_ = listener.Close()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(ctx, addr)
	}()

	// Poll for server readiness instead of fixed sleep
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 50*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down in time")
	}
}

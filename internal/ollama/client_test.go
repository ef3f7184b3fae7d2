package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockchat/stockchat/internal/log"
)

// fakeOllama serves /api/tags with the given model names and /api/generate
// with the given raw NDJSON body.
func fakeOllama(t *testing.T, models []string, generateBody string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/tags", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		entries := make([]string, len(models))
		for i, m := range models {
			entries[i] = fmt.Sprintf("{%q:%q}", "name", m)
		}
		fmt.Fprintf(w, `{"models":[%s]}`, strings.Join(entries, ","))
	})
	mux.HandleFunc("POST /api/generate", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/x-ndjson")
		_, _ = w.Write([]byte(generateBody))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(host string, model string, allowFallback bool) *Client {
	return New(Config{
		Host:             host,
		Model:            model,
		Temperature:      0.7,
		AllowTagFallback: allowFallback,
	}, log.NewNop())
}

func TestProbe_ExactMatch(t *testing.T) {
	srv := fakeOllama(t, []string{"llama3.2", "qwen3:0.6b"}, "")
	c := newTestClient(srv.URL, "qwen3:0.6b", false)

	assert.NoError(t, c.Probe(context.Background()))
}

func TestProbe_BaseNameFallback(t *testing.T) {
	srv := fakeOllama(t, []string{"qwen3"}, "")

	t.Run("enabled", func(t *testing.T) {
		c := newTestClient(srv.URL, "qwen3:0.6b", true)
		assert.NoError(t, c.Probe(context.Background()))
	})

	t.Run("disabled", func(t *testing.T) {
		c := newTestClient(srv.URL, "qwen3:0.6b", false)
		err := c.Probe(context.Background())
		assert.ErrorIs(t, err, ErrModelNotFound)
	})
}

func TestProbe_NotFound(t *testing.T) {
	srv := fakeOllama(t, []string{"llama3.2"}, "")
	c := newTestClient(srv.URL, "qwen3:0.6b", true)

	err := c.Probe(context.Background())
	assert.ErrorIs(t, err, ErrModelNotFound)
}

func TestProbe_TransportError(t *testing.T) {
	srv := fakeOllama(t, nil, "")
	srv.Close()
	c := newTestClient(srv.URL, "qwen3:0.6b", true)

	err := c.Probe(context.Background())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrModelNotFound))
}

func TestGenerate_AccumulatesStream(t *testing.T) {
	body := `{"response":"Hello","done":false}
{"response":", ","done":false}
{"response":"world.","done":true}
`
	srv := fakeOllama(t, []string{"qwen3:0.6b"}, body)
	c := newTestClient(srv.URL, "qwen3:0.6b", false)

	got, err := c.Generate(context.Background(), "say hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello, world.", got)
}

func TestGenerate_ShortCircuitsOnMissingModel(t *testing.T) {
	generateCalled := false
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/tags", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"models":[]}`))
	})
	mux.HandleFunc("POST /api/generate", func(http.ResponseWriter, *http.Request) {
		generateCalled = true
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := newTestClient(srv.URL, "qwen3:0.6b", true)
	_, err := c.Generate(context.Background(), "anything")

	assert.ErrorIs(t, err, ErrModelNotFound)
	assert.False(t, generateCalled, "generation must not be attempted for a missing model")
}

func TestGenerate_404MapsToModelNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/tags", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"models":[{"name":"qwen3:0.6b"}]}`))
	})
	mux.HandleFunc("POST /api/generate", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := newTestClient(srv.URL, "qwen3:0.6b", false)
	_, err := c.Generate(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrModelNotFound)
}

func TestAccumulate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "empty stream",
			input: "",
			want:  "",
		},
		{
			name:  "done flag terminates fold",
			input: "{\"response\":\"a\",\"done\":false}\n{\"response\":\"b\",\"done\":true}\n{\"response\":\"ignored\",\"done\":false}\n",
			want:  "ab",
		},
		{
			name:  "malformed line skipped",
			input: "{\"response\":\"a\",\"done\":false}\n{not json\n{\"response\":\"b\",\"done\":true}\n",
			want:  "ab",
		},
		{
			name:  "stream close without done still yields text",
			input: "{\"response\":\"partial\",\"done\":false}\n",
			want:  "partial",
		},
		{
			name:  "blank lines ignored",
			input: "\n\n{\"response\":\"x\",\"done\":true}\n",
			want:  "x",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, accumulate(strings.NewReader(tt.input)))
		})
	}
}

func TestNotFoundMessage(t *testing.T) {
	c := newTestClient("http://localhost:11434", "qwen3:0.6b", true)
	msg := c.NotFoundMessage()

	assert.Contains(t, msg, "qwen3:0.6b")
	assert.Contains(t, msg, "ollama pull")
	// Deterministic: same input, same message.
	assert.Equal(t, msg, c.NotFoundMessage())
}

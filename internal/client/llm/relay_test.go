package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatrelay/internal/model"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestRelayClient_Generate(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/generate", r.URL.Path)
			assert.Equal(t, "test-key", r.Header.Get("x-api-key"))

			var req model.ChatRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "Hello", req.Message)

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"text":"Hi there"}`))
		}))
		t.Cleanup(srv.Close)

		client := NewRelay(srv.URL, "test-key", 5*time.Second, quietLogger())
		result, err := client.Generate(context.Background(), "Hello")

		require.NoError(t, err)
		assert.Equal(t, "Hi there", result.Text)
	})

	t.Run("non_2xx_status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		t.Cleanup(srv.Close)

		client := NewRelay(srv.URL, "test-key", 5*time.Second, quietLogger())
		_, err := client.Generate(context.Background(), "Hello")

		require.Error(t, err)
		var upstreamErr *UpstreamError
		require.True(t, errors.As(err, &upstreamErr))
		assert.Equal(t, http.StatusBadGateway, upstreamErr.Status)
	})

	t.Run("connection_refused", func(t *testing.T) {
		client := NewRelay("http://127.0.0.1:1", "test-key", time.Second, quietLogger())
		_, err := client.Generate(context.Background(), "Hello")

		require.Error(t, err)
		var upstreamErr *UpstreamError
		assert.True(t, errors.As(err, &upstreamErr))
	})
}

func TestRelayClient_Stream(t *testing.T) {
	t.Parallel()

	ndjsonServer := func(t *testing.T, lines ...string) *httptest.Server {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/stream", r.URL.Path)
			w.Header().Set("Content-Type", "application/x-ndjson")
			for _, line := range lines {
				fmt.Fprintln(w, line)
			}
		}))
		t.Cleanup(srv.Close)
		return srv
	}

	t.Run("forwards_events_in_order", func(t *testing.T) {
		srv := ndjsonServer(t,
			`{"type":"start"}`,
			`{"type":"text-delta","content":"Hi"}`,
			`{"type":"finish"}`,
		)

		client := NewRelay(srv.URL, "test-key", 5*time.Second, quietLogger())

		var got []model.StreamEvent
		err := client.Stream(context.Background(), "Hello", func(ev model.StreamEvent) error {
			got = append(got, ev)
			return nil
		})

		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, model.EventStart, got[0].Type)
		assert.Equal(t, model.EventTextDelta, got[1].Type)
		assert.Equal(t, "Hi", got[1].Content)
		assert.Equal(t, model.EventFinish, got[2].Type)
	})

	t.Run("delta_field_accepted", func(t *testing.T) {
		srv := ndjsonServer(t,
			`{"type":"text-delta","delta":"Hi"}`,
			`{"type":"finish"}`,
		)

		client := NewRelay(srv.URL, "test-key", 5*time.Second, quietLogger())

		var got []model.StreamEvent
		err := client.Stream(context.Background(), "Hello", func(ev model.StreamEvent) error {
			got = append(got, ev)
			return nil
		})

		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, model.EventTextDelta, got[0].Type)
		assert.Equal(t, "Hi", got[0].Content)
	})

	t.Run("content_wins_over_delta", func(t *testing.T) {
		srv := ndjsonServer(t,
			`{"type":"text-delta","content":"A","delta":"B"}`,
			`{"type":"finish"}`,
		)

		client := NewRelay(srv.URL, "test-key", 5*time.Second, quietLogger())

		var got []string
		err := client.Stream(context.Background(), "Hello", func(ev model.StreamEvent) error {
			if ev.Type == model.EventTextDelta {
				got = append(got, ev.Content)
			}
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, []string{"A"}, got)
	})

	t.Run("malformed_line_skipped", func(t *testing.T) {
		srv := ndjsonServer(t,
			`{"type":"text-delta","content":"A"}`,
			`{garbage`,
			`{"type":"text-delta","content":"B"}`,
		)

		client := NewRelay(srv.URL, "test-key", 5*time.Second, quietLogger())

		var got []string
		err := client.Stream(context.Background(), "Hello", func(ev model.StreamEvent) error {
			got = append(got, ev.Content)
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, []string{"A", "B"}, got)
	})

	t.Run("blank_lines_ignored", func(t *testing.T) {
		srv := ndjsonServer(t,
			``,
			`{"type":"finish"}`,
			``,
		)

		client := NewRelay(srv.URL, "test-key", 5*time.Second, quietLogger())

		count := 0
		err := client.Stream(context.Background(), "Hello", func(model.StreamEvent) error {
			count++
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("callback_error_stops_reading", func(t *testing.T) {
		srv := ndjsonServer(t,
			`{"type":"text-delta","content":"A"}`,
			`{"type":"text-delta","content":"B"}`,
			`{"type":"text-delta","content":"C"}`,
		)

		client := NewRelay(srv.URL, "test-key", 5*time.Second, quietLogger())

		stop := errors.New("enough")
		count := 0
		err := client.Stream(context.Background(), "Hello", func(model.StreamEvent) error {
			count++
			return stop
		})

		require.ErrorIs(t, err, stop)
		assert.Equal(t, 1, count)
	})

	t.Run("non_2xx_status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		t.Cleanup(srv.Close)

		client := NewRelay(srv.URL, "test-key", 5*time.Second, quietLogger())

		err := client.Stream(context.Background(), "Hello", func(model.StreamEvent) error {
			t.Fatal("no events expected")
			return nil
		})

		var upstreamErr *UpstreamError
		require.True(t, errors.As(err, &upstreamErr))
		assert.Equal(t, http.StatusServiceUnavailable, upstreamErr.Status)
	})
}

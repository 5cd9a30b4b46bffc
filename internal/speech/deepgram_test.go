package speech

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hammamikhairi/voiceguide/internal/logger"
)

// fakeDeepgram serves the speak websocket: it answers a Speak+Flush pair
// with the given frames followed by a Flushed message, or with an Error
// message when fail is set.
func fakeDeepgram(t *testing.T, frames [][]byte, fail bool) (*httptest.Server, *string) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	var query string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "token dg-key" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		query = r.URL.RawQuery
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			var msg deepgramControl
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			switch msg.Type {
			case "Flush":
				if fail {
					conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"Error","description":"bad model"}`))
					continue
				}
				for _, f := range frames {
					conn.WriteMessage(websocket.BinaryMessage, f)
				}
				conn.WriteJSON(deepgramControl{Type: "Flushed"})
			case "Close":
				return
			}
		}
	}))
	return srv, &query
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestDeepgramSynthesize(t *testing.T) {
	srv, query := fakeDeepgram(t, [][]byte{{1, 2}, {3, 4}}, false)
	defer srv.Close()

	c := NewDeepgramClient("dg-key", logger.New(logger.LevelOff, nil),
		WithDeepgramURL(wsURL(srv)),
		WithDeepgramModel("aura-2-orion-en"),
	)
	got, err := c.Synthesize(context.Background(), "Opening GitHub")
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	if !bytes.Equal(got, []byte{1, 2, 3, 4}) {
		t.Fatalf("expected concatenated frames, got %v", got)
	}
	for _, want := range []string{"model=aura-2-orion-en", "encoding=linear16", "sample_rate=24000"} {
		if !strings.Contains(*query, want) {
			t.Errorf("query %q missing %q", *query, want)
		}
	}
	if c.Voice() != "aura-2-orion-en" {
		t.Fatalf("unexpected voice %q", c.Voice())
	}
}

func TestDeepgramServerError(t *testing.T) {
	srv, _ := fakeDeepgram(t, nil, true)
	defer srv.Close()

	c := NewDeepgramClient("dg-key", logger.New(logger.LevelOff, nil), WithDeepgramURL(wsURL(srv)))
	if _, err := c.Synthesize(context.Background(), "hello"); err == nil {
		t.Fatal("expected server error")
	}
}

func TestDeepgramMissingKey(t *testing.T) {
	c := NewDeepgramClient("", logger.New(logger.LevelOff, nil))
	if _, err := c.Synthesize(context.Background(), "hello"); err == nil {
		t.Fatal("expected missing key error")
	}
}

func TestDeepgramCanceled(t *testing.T) {
	srv, _ := fakeDeepgram(t, nil, false)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewDeepgramClient("dg-key", logger.New(logger.LevelOff, nil), WithDeepgramURL(wsURL(srv)))
	if _, err := c.Synthesize(ctx, "hello"); err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestDeepgramTimeout(t *testing.T) {
	upgrader := websocket.Upgrader{}
	// Accepts the text and never answers the flush.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	c := NewDeepgramClient("dg-key", logger.New(logger.LevelOff, nil),
		WithDeepgramURL(wsURL(srv)),
		WithDeepgramTimeout(50*time.Millisecond),
	)
	start := time.Now()
	_, err := c.Synthesize(context.Background(), "hello")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if took := time.Since(start); took > 2*time.Second {
		t.Fatalf("timeout not applied, took %s", took)
	}
}

package speech

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hammamikhairi/voiceguide/internal/logger"
)

// Compile-time interface check.
var _ Synthesizer = (*DeepgramClient)(nil)

// DeepgramOption configures the Deepgram TTS client.
type DeepgramOption func(*DeepgramClient)

// WithDeepgramModel sets the Aura model (voice).
func WithDeepgramModel(model string) DeepgramOption {
	return func(c *DeepgramClient) {
		c.model = model
	}
}

// WithDeepgramURL overrides the websocket endpoint, e.g. for tests.
func WithDeepgramURL(u string) DeepgramOption {
	return func(c *DeepgramClient) {
		c.endpoint = u
	}
}

// WithDeepgramTimeout bounds a whole synthesis round trip.
func WithDeepgramTimeout(d time.Duration) DeepgramOption {
	return func(c *DeepgramClient) {
		c.timeout = d
	}
}

// DeepgramClient synthesizes speech over Deepgram's streaming /v1/speak
// websocket. Each call opens a connection, sends the text with a flush,
// collects binary PCM frames until the server confirms the flush, then
// closes.
type DeepgramClient struct {
	apiKey   string
	model    string
	endpoint string
	timeout  time.Duration
	dialer   *websocket.Dialer
	log      *logger.Logger
}

// NewDeepgramClient creates a Deepgram TTS client.
func NewDeepgramClient(apiKey string, log *logger.Logger, opts ...DeepgramOption) *DeepgramClient {
	c := &DeepgramClient{
		apiKey:   apiKey,
		model:    DefaultDeepgramModel,
		endpoint: "wss://api.deepgram.com/v1/speak",
		timeout:  DefaultHTTPTimeout,
		dialer:   websocket.DefaultDialer,
		log:      log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Voice returns the Aura model name.
func (c *DeepgramClient) Voice() string { return c.model }

type deepgramControl struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Synthesize converts text to PCM audio.
func (c *DeepgramClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if c.apiKey == "" {
		return nil, errors.New("deepgram: API key missing")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, _, err := c.dialer.DialContext(ctx, c.speakURL(), http.Header{"Authorization": {"token " + c.apiKey}})
	if err != nil {
		return nil, fmt.Errorf("deepgram: dial: %w", err)
	}
	defer conn.Close()

	// Unblock ReadMessage when the caller cancels.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Now())
	})
	defer stop()

	c.log.Debug("deepgram tts: synthesizing %d chars with model %s", len(text), c.model)

	if err := conn.WriteJSON(deepgramControl{Type: "Speak", Text: text}); err != nil {
		return nil, fmt.Errorf("deepgram: speak: %w", err)
	}
	if err := conn.WriteJSON(deepgramControl{Type: "Flush"}); err != nil {
		return nil, fmt.Errorf("deepgram: flush: %w", err)
	}

	var pcm []byte
	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("deepgram: %w", ctxErr)
			}
			return nil, fmt.Errorf("deepgram: read: %w", err)
		}

		switch msgType {
		case websocket.BinaryMessage:
			pcm = append(pcm, msg...)
		case websocket.TextMessage:
			var ctrl deepgramControl
			if err := json.Unmarshal(msg, &ctrl); err != nil {
				c.log.Debug("deepgram tts: ignoring unparseable message: %v", err)
				continue
			}
			switch ctrl.Type {
			case "Flushed":
				_ = conn.WriteJSON(deepgramControl{Type: "Close"})
				c.log.Debug("deepgram tts: got %d bytes of PCM", len(pcm))
				return pcm, nil
			case "Warning", "Error":
				c.log.Warn("deepgram tts: server %s: %s", ctrl.Type, string(msg))
				if ctrl.Type == "Error" {
					return nil, fmt.Errorf("deepgram: server error: %s", string(msg))
				}
			}
		}
	}
}

func (c *DeepgramClient) speakURL() string {
	q := url.Values{}
	q.Set("model", c.model)
	q.Set("encoding", "linear16")
	q.Set("sample_rate", strconv.Itoa(SampleRate))
	q.Set("container", "none")
	return c.endpoint + "?" + q.Encode()
}

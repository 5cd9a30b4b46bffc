package speech

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/hammamikhairi/voiceguide/internal/logger"
)

// Compile-time interface check.
var _ Synthesizer = (*AzureClient)(nil)

// AzureOption configures the Azure TTS client.
type AzureOption func(*AzureClient)

// WithVoice sets the TTS voice.
func WithVoice(voice string) AzureOption {
	return func(c *AzureClient) {
		c.voice = voice
	}
}

// WithProsody sets rate and pitch for every utterance. Volume is applied
// by the audio sink.
func WithProsody(p Prosody) AzureOption {
	return func(c *AzureClient) {
		c.prosody = p
	}
}

// WithLanguage sets the SSML xml:lang.
func WithLanguage(lang string) AzureOption {
	return func(c *AzureClient) {
		c.lang = lang
	}
}

// WithHTTPTimeout sets the HTTP client timeout for TTS requests.
func WithHTTPTimeout(d time.Duration) AzureOption {
	return func(c *AzureClient) {
		c.httpClient.Timeout = d
	}
}

// WithAzureTracerProvider sets where request spans go. Defaults to the
// global provider.
func WithAzureTracerProvider(tp trace.TracerProvider) AzureOption {
	return func(c *AzureClient) {
		c.tracing = tp
	}
}

// WithEndpoint overrides the regional endpoint URL.
func WithEndpoint(url string) AzureOption {
	return func(c *AzureClient) {
		c.endpoint = url
	}
}

// WithRateLimit caps synthesis requests per second. Hover descriptions
// can arrive in bursts; the free Azure tier rejects bursts with 429.
func WithRateLimit(perSecond float64, burst int) AzureOption {
	return func(c *AzureClient) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// AzureClient handles text-to-speech synthesis via Azure Cognitive Services.
type AzureClient struct {
	subscriptionKey string
	endpoint        string
	voice           string
	lang            string
	prosody         Prosody
	httpClient      *http.Client
	tracing         trace.TracerProvider
	limiter         *rate.Limiter
	log             *logger.Logger
}

// NewAzureClient creates an Azure TTS client with the given credentials.
func NewAzureClient(key, region string, log *logger.Logger, opts ...AzureOption) *AzureClient {
	c := &AzureClient{
		subscriptionKey: key,
		endpoint:        fmt.Sprintf("https://%s.tts.speech.microsoft.com/cognitiveservices/v1", region),
		voice:           DefaultVoice,
		lang:            DefaultLanguage,
		prosody:         DefaultProsody,
		httpClient: &http.Client{
			Timeout: DefaultHTTPTimeout,
		},
		tracing: otel.GetTracerProvider(),
		limiter: rate.NewLimiter(rate.Limit(5), 5),
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.httpClient.Transport = otelhttp.NewTransport(http.DefaultTransport,
		otelhttp.WithTracerProvider(c.tracing),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return "azure tts " + r.Method
		}),
	)
	return c
}

// Voice returns the configured voice name.
func (c *AzureClient) Voice() string { return c.voice }

// Synthesize converts text to PCM audio.
func (c *AzureClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	ssml, err := c.buildSSML(text)
	if err != nil {
		return nil, err
	}
	c.log.Debug("azure tts: synthesizing %d chars with voice %s", len(text), c.voice)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(ssml))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Ocp-Apim-Subscription-Key", c.subscriptionKey)
	req.Header.Set("Content-Type", "application/ssml+xml")
	req.Header.Set("X-Microsoft-OutputFormat", DefaultAudioFormat)
	req.Header.Set("User-Agent", "VoiceGuide/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("azure tts error %d: %s", resp.StatusCode, string(body))
	}

	wav, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading audio data: %w", err)
	}

	pcm, err := extractPCM(wav)
	if err != nil {
		return nil, fmt.Errorf("decoding azure audio: %w", err)
	}

	c.log.Debug("azure tts: got %d bytes of PCM", len(pcm))
	return pcm, nil
}

// buildSSML creates SSML markup for the synthesis request. Link
// descriptions are free-form and may contain '&', so text is escaped.
func (c *AzureClient) buildSSML(text string) (string, error) {
	var escaped strings.Builder
	if err := xml.EscapeText(&escaped, []byte(text)); err != nil {
		return "", fmt.Errorf("escaping ssml text: %w", err)
	}
	return fmt.Sprintf(
		`<speak version='1.0' xml:lang='%s'><voice xml:lang='%s' name='%s'><prosody rate='%s' pitch='%s'>%s</prosody></voice></speak>`,
		c.lang, c.lang, c.voice,
		percentDelta(c.prosody.Rate), percentDelta(c.prosody.Pitch),
		escaped.String(),
	), nil
}

// percentDelta renders a 1.0-based multiplier as an SSML relative
// percentage: 1.0 -> "+0%", 1.25 -> "+25%", 0.8 -> "-20%".
func percentDelta(m float64) string {
	d := int((m-1)*100 + sign(m-1)*0.5)
	if d >= 0 {
		return fmt.Sprintf("+%d%%", d)
	}
	return fmt.Sprintf("%d%%", d)
}

func sign(f float64) float64 {
	if f < 0 {
		return -1
	}
	return 1
}

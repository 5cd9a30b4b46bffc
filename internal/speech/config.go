package speech

import "time"

// Default voice for Azure TTS. Change this constant to switch voices.
// Full list: https://learn.microsoft.com/en-us/azure/ai-services/speech-service/language-support
const DefaultVoice = "en-US-AvaNeural"

// DefaultDeepgramModel is the Aura voice used by the Deepgram engine.
const DefaultDeepgramModel = "aura-2-thalia-en"

// DefaultLanguage is the xml:lang of every utterance.
const DefaultLanguage = "en-US"

// Audio format requested from Azure. The player consumes the PCM inside.
const DefaultAudioFormat = "riff-24khz-16bit-mono-pcm"

// Audio parameters shared by every synthesizer and sink.
const (
	SampleRate   = 24000
	ChannelCount = 1
	BitDepth     = 16
)

// Env var names for engine credentials.
const (
	EnvAzureSpeechKey    = "AZURE_SPEECH_KEY"
	EnvAzureSpeechRegion = "AZURE_SPEECH_REGION"
	EnvDeepgramKey       = "DEEPGRAM_API_KEY"
)

// Prosody describes how an utterance is read. The zero value is not
// useful; start from DefaultProsody.
type Prosody struct {
	Rate   float64 // 1.0 = normal speed
	Pitch  float64 // 1.0 = normal pitch
	Volume float64 // 0..1
}

// DefaultProsody matches the voice guide's original reading style.
var DefaultProsody = Prosody{Rate: 1.0, Pitch: 1.0, Volume: 0.8}

// Defaults for the audio backend.
const (
	DefaultChunkSize   = 200 // roughly 2 sentences
	DefaultHTTPTimeout = 30 * time.Second
)

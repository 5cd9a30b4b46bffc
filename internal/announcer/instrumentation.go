package announcer

import "go.opentelemetry.io/otel"

// ScopeName is the instrumentation scope of announcement spans.
const ScopeName = "github.com/hammamikhairi/voiceguide/internal/announcer"

var tracer = otel.Tracer(ScopeName)

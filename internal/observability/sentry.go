package observability

import (
	"time"

	"github.com/getsentry/sentry-go"
)

// InitSentry is a no-op when dsn is empty; capture calls are then dropped.
func InitSentry(dsn, environment string) error {
	if dsn == "" {
		return nil
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		AttachStacktrace: true,
	})
}

func FlushSentry() {
	sentry.Flush(2 * time.Second)
}

// ReportError logs err under event and forwards it to Sentry tagged with the
// same event name.
func ReportError(logger *Logger, event string, err error, fields map[string]any) {
	payload := map[string]any{"error": err.Error()}
	for k, v := range fields {
		payload[k] = v
	}
	logger.Error(event, payload)

	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("event", event)
		sentry.CaptureException(err)
	})
}

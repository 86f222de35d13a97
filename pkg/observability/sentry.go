package observability

import (
	"time"

	"github.com/getsentry/sentry-go"
)

// InitSentry configures the global sentry client. With an empty DSN it is a no-op.
// The returned function flushes buffered events and must be called on shutdown.
func InitSentry(dsn, env, release string) (func(), error) {
	if dsn == "" {
		return func() {}, nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: env,
		Release:     release,
	}); err != nil {
		return func() {}, err
	}
	return func() { sentry.Flush(2 * time.Second) }, nil
}

// CaptureErr reports err with optional tags.
func CaptureErr(err error, tags map[string]string) {
	if err == nil {
		return
	}
	if len(tags) == 0 {
		sentry.CaptureException(err)
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		sentry.CaptureException(err)
	})
}

// Package logging provides the request-scoped structured logger used
// throughout logserv. It is a thin wrapper around logrus: a single
// process-wide base logger, fields attached per request (request id, path,
// peer), never a shared mutable logger mutated mid-request.
package logging

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
)

// Mode selects where log output goes and at what verbosity. Mirrors the
// teacher's DEBUG/INFO/WARNING/ERROR levels, gated by a single Debug switch
// rather than a bespoke mode struct per sink.
type Mode struct {
	Debug bool
}

var base = logrus.New()

// Start configures the process-wide logger. Called once from main; every
// other caller only ever reads fields off base via L()/With().
func Start(mode Mode) {
	base.SetOutput(os.Stderr)
	base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if mode.Debug {
		base.SetLevel(logrus.DebugLevel)
		return
	}
	base.SetLevel(logrus.InfoLevel)
}

// L returns the base logger. Prefer With/WithRequestID for call sites that
// have request context.
func L() *logrus.Logger {
	return base
}

type ctxKey struct{}

// WithRequestID returns a context carrying a request-scoped logger entry
// tagged with id, retrievable later via From.
func WithRequestID(ctx context.Context, id string) context.Context {
	entry := base.WithField("request_id", id)
	return context.WithValue(ctx, ctxKey{}, entry)
}

// From returns the request-scoped logger entry attached to ctx, or the base
// logger (wrapped as an entry) if none was attached.
func From(ctx context.Context) *logrus.Entry {
	if entry, ok := ctx.Value(ctxKey{}).(*logrus.Entry); ok {
		return entry
	}
	return logrus.NewEntry(base)
}

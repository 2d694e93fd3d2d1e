// Package ffss encodes a competition graph to the FFSS XML document format and
// decodes it back, resolving cross-entity references pass by pass.
package ffss

import (
	"errors"
	"strconv"
	"strings"
)

// FormatVersion is the only document version this codec reads and writes.
const FormatVersion = 1

// ErrMalformedDocument is returned when the document is not well-formed XML
// or declares an unsupported version.
var ErrMalformedDocument = errors.New("malformed ffss document")

// Logger receives warnings for skipped records and stale stored values.
// *slog.Logger satisfies it.
type Logger interface {
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

// Codec converts between *domain.Graph and FFSS documents.
type Codec struct {
	logger Logger
}

// Option configures a Codec.
type Option func(*Codec)

// WithLogger routes decode warnings to logger.
func WithLogger(logger Logger) Option {
	return func(c *Codec) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New returns a codec.
func New(opts ...Option) *Codec {
	c := &Codec{logger: noopLogger{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func joinInts(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, " ")
}

func formatBool(v bool) string {
	if v {
		return "true"
	}
	return ""
}

// Package logging builds the slog loggers used by the binaries.
package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

var ErrUnknownFormat = errors.New("logging: unknown format")

type Format string

const (
	FormatText   Format = "text"
	FormatJSON   Format = "json"
	FormatPretty Format = "pretty"
)

type Options struct {
	Format    Format
	Level     slog.Level
	AddSource bool
}

// New returns a logger writing to w in the requested format.
func New(w io.Writer, opts Options) (*slog.Logger, error) {
	ho := &slog.HandlerOptions{Level: opts.Level, AddSource: opts.AddSource}
	switch opts.Format {
	case FormatText, "":
		return slog.New(slog.NewTextHandler(w, ho)), nil
	case FormatJSON:
		return slog.New(slog.NewJSONHandler(w, ho)), nil
	case FormatPretty:
		return slog.New(NewPrettyJSONHandler(w, ho)), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, opts.Format)
	}
}

// ParseLevel accepts debug, info, warn and error in any case.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("logging: level %q: %w", s, err)
	}
	return l, nil
}

// FromFlags is the common setup for binaries taking -log-format and
// -log-level.
func FromFlags(w io.Writer, format, level string) (*slog.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return New(w, Options{Format: Format(format), Level: lvl})
}

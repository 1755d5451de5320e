package logger

import (
	"io"
	"log/slog"
)

// Option tunes a logger built by New.
type Option func(*config)

// WithDebug lowers the level to Debug, which adds per-worker start and stop
// records and load details. Info is the default.
func WithDebug(debug bool) Option {
	return func(c *config) {
		c.level = slog.LevelInfo
		if debug {
			c.level = slog.LevelDebug
		}
	}
}

// WithPretty selects the colorized charmbracelet/log handler. The CLI turns it
// on when stderr is a terminal.
func WithPretty(pretty bool) Option {
	return func(c *config) { c.pretty = pretty }
}

// WithJSON selects slog's JSON handler, for --log-json and --log-file. It wins
// over WithPretty.
func WithJSON(json bool) Option {
	return func(c *config) { c.json = json }
}

// WithWriter sends records to w instead of os.Stdout.
func WithWriter(w io.Writer) Option {
	return func(c *config) { c.writers = []io.Writer{w} }
}

// WithWriters sends every record to each of ws.
func WithWriters(ws ...io.Writer) Option {
	return func(c *config) { c.writers = ws }
}

// WithSource annotates records with file:line. The predict command enables it
// together with --debug.
func WithSource(source bool) Option {
	return func(c *config) { c.source = source }
}

// Package timing wraps operations to report their wall-clock duration to a
// log sink. Wrapping never alters the wrapped call's result or error.
package timing

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Timed runs fn, logs its elapsed wall-clock time under the given operation
// name, and returns fn's value and error untouched. A nil logger falls back
// to slog.Default().
func Timed[T any](logger *slog.Logger, op string, fn func() (T, error)) (T, error) {
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()
	v, err := fn()
	logger.Info("Operation finished", "op", op, "duration", time.Since(start))
	return v, err
}

// Do is the error-only variant of Timed.
func Do(logger *slog.Logger, op string, fn func() error) error {
	_, err := Timed(logger, op, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// NewLogger builds a terminal-friendly slog logger writing to w, colorized
// only when stderr is a TTY. Pass os.Stderr for regular use.
func NewLogger(w io.Writer, level slog.Leveler) *slog.Logger {
	if f, ok := w.(*os.File); ok {
		return slog.New(tint.NewHandler(colorable.NewColorable(f), &tint.Options{
			Level:      level,
			TimeFormat: "15:04:05.000", // Like time.TimeOnly plus milliseconds.
			NoColor:    !isatty.IsTerminal(f.Fd()),
		}))
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05.000",
		NoColor:    true,
	}))
}

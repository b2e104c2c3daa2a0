// Package logger builds the stderr logger shared by command-line tools.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// New returns a text logger tagged with the tool name. Debug records are kept
// only when verbose is set.
func New(tool string, verbose bool) *slog.Logger {
	return newWithWriter(os.Stderr, tool, verbose)
}

func newWithWriter(w io.Writer, tool string, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Interactive output; the shell already timestamps history.
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	})
	return slog.New(handler).With("tool", tool)
}

// Package logging configures the process-wide slog logger.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Setup builds a *slog.Logger and installs it as the default.
//
// Format "json" produces structured JSON output (production); anything else
// produces human-readable text output.
func Setup(format string) *slog.Logger {
	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, nil)
	} else {
		handler = slog.NewTextHandler(os.Stderr, nil)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

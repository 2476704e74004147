package runtime

import (
	"io"
	"log/slog"
	"time"

	"github.com/InsulaLabs/sphere/config"
	charmlog "github.com/charmbracelet/log"
	"github.com/fatih/color"
)

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		color.HiYellow("Unknown logging level: %s, defaulting to info", level)
		return slog.LevelInfo
	}
}

// newLogger builds the process logger. "pretty" is meant for terminals;
// json stays the default for anything that ships logs somewhere.
func newLogger(w io.Writer, format string, level slog.Level) *slog.Logger {
	switch format {
	case config.LogFormatText:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	case config.LogFormatPretty:
		handler := charmlog.NewWithOptions(w, charmlog.Options{
			Level:           charmlog.Level(level),
			ReportTimestamp: true,
			TimeFormat:      time.Kitchen,
		})
		return slog.New(handler)
	default:
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	}
}

// Package logging initializes the application wide structured loggers.
package logging

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/melonguard/melonguard-go/internal/conf"
)

const (
	LevelTrace = slog.Level(-8)
	LevelFatal = slog.Level(12)
)

// Add trace and fatal level names.
var levelNames = map[slog.Leveler]string{
	LevelTrace: "TRACE",
	LevelFatal: "FATAL",
}

// Init configures the default slog logger according to settings. Log output
// goes to stderr, and additionally to a rotated log file when enabled.
func Init(settings *conf.Settings) {
	var w io.Writer = os.Stderr

	if settings.Main.Log.Enabled && settings.Main.Log.Path != "" {
		fileWriter := &lumberjack.Logger{
			Filename:   settings.Main.Log.Path,
			MaxSize:    settings.Main.Log.MaxSize,
			MaxAge:     settings.Main.Log.MaxAge,
			MaxBackups: settings.Main.Log.MaxBackups,
			Compress:   true,
		}
		w = io.MultiWriter(os.Stderr, fileWriter)
	}

	level := slog.LevelInfo
	if settings.Debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Customize level names for the extended levels
			if a.Key == slog.LevelKey {
				level := a.Value.Any().(slog.Level)
				levelLabel, exists := levelNames[level]
				if !exists {
					levelLabel = level.String()
				}
				a.Value = slog.StringValue(levelLabel)
			}
			return a
		},
	}

	var handler slog.Handler
	if settings.Main.Log.JSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	slog.SetDefault(slog.New(handler))
}

// ForModule returns a logger scoped to the given module name. Module scoping
// keeps log lines attributable when multiple packages share the default
// handler.
func ForModule(name string) *slog.Logger {
	return slog.Default().With("module", name)
}

package slogx

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	sfmt "github.com/samber/slog-formatter"
)

// credentialKeys are masked wherever they appear, whatever the handler
var credentialKeys = []string{"password", "access_token", "refresh_token", "authorization"}

// New builds the process logger: JSON lines, or a tint console handler that
// colours output when w is a terminal.
func New(w io.Writer, level string, json bool) *slog.Logger {
	lvl := ParseLevel(level)

	var handler slog.Handler
	if json {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	} else {
		handler = tint.NewHandler(w, &tint.Options{
			Level:      lvl,
			TimeFormat: "Jan 02 15:04:05.000",
			NoColor:    !isTerminal(w),
		})
	}

	formatters := make([]sfmt.Formatter, 0, len(credentialKeys))
	for _, key := range credentialKeys {
		formatters = append(formatters, sfmt.FormatByKey(key, maskValue))
	}
	return slog.New(sfmt.NewFormatterHandler(formatters...)(handler))
}

func maskValue(v slog.Value) slog.Value {
	return slog.StringValue(SecureString(v.String()))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

// Discard returns a logger that drops every record
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

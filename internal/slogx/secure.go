package slogx

import (
	"log/slog"
	"strings"
)

// SecureString masks raw, keeping a short prefix and suffix visible:
// "prefix########suffix". Strings too short to reveal anything are fully masked.
func SecureString(raw string) string {
	const (
		prefix = 6
		suffix = 4
		hidden = 8
	)
	if raw == "" {
		return ""
	}
	if len(raw) <= prefix+suffix+hidden {
		return strings.Repeat("#", hidden)
	}
	return raw[:prefix] + strings.Repeat("#", hidden) + raw[len(raw)-suffix:]
}

// Token returns a log attribute holding a masked credential
func Token(key, raw string) slog.Attr {
	return slog.String(key, SecureString(raw))
}

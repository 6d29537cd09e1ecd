// Package config loads and validates the labeler configuration.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath turns a configured file location into a local path. It
// accepts a file:// URL, a leading ~ and $VAR references, and cleans the
// result. Empty input stays empty.
func ExpandPath(path string) string {
	path = os.ExpandEnv(strings.TrimPrefix(strings.TrimSpace(path), "file://"))
	if path == "" {
		return ""
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = home + path[1:]
		}
	}
	return filepath.Clean(path)
}

package diagfmt

import (
	"path/filepath"
	"strings"
)

func formatPath(path string, mode PathMode, baseDir string) string {
	if path == "" {
		return "<unknown>"
	}
	switch mode {
	case PathModeBasename:
		return filepath.Base(path)
	case PathModeAbsolute:
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
		return path
	case PathModeRelative:
		if rel, ok := relTo(path, baseDir); ok {
			return rel
		}
		return path
	default:
		if rel, ok := relTo(path, baseDir); ok && !strings.HasPrefix(rel, "..") {
			return rel
		}
		return path
	}
}

func relTo(path, baseDir string) (string, bool) {
	if baseDir == "" {
		return "", false
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return "", false
	}
	rel, err := filepath.Rel(absBase, absPath)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

package diagfmt

import (
	"os"
	"strings"
	"sync"
)

// LineSource resolves the text of a 1-based source line.
type LineSource interface {
	Line(path string, line int) (string, bool)
}

// MapSource serves lines from in-memory file contents keyed by path.
type MapSource map[string][]byte

func (m MapSource) Line(path string, line int) (string, bool) {
	content, ok := m[path]
	if !ok {
		return "", false
	}
	return nthLine(splitLines(content), line)
}

// FileLines reads files from disk on first use and keeps their lines.
type FileLines struct {
	mu    sync.Mutex
	files map[string][]string
}

func NewFileLines() *FileLines {
	return &FileLines{files: make(map[string][]string)}
}

func (f *FileLines) Line(path string, line int) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lines, ok := f.files[path]
	if !ok {
		content, err := os.ReadFile(path)
		if err != nil {
			f.files[path] = nil
			return "", false
		}
		lines = splitLines(content)
		f.files[path] = lines
	}
	return nthLine(lines, line)
}

func splitLines(content []byte) []string {
	text := strings.ReplaceAll(string(content), "\r\n", "\n")
	return strings.Split(text, "\n")
}

func nthLine(lines []string, line int) (string, bool) {
	if line < 1 || line > len(lines) {
		return "", false
	}
	return lines[line-1], true
}

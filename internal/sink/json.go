package sink

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/sha3"

	"github.com/spiralhouse/scraper/internal/crawler"
)

// maxNameLength bounds the URL-derived part of a file name.
const maxNameLength = 100

// JSONWriter writes every crawled page to its own JSON file.
type JSONWriter struct {
	dir    string
	logger *slog.Logger
}

// NewJSONWriter creates dir if needed and returns a writer storing pages
// there. A nil logger discards write failures.
func NewJSONWriter(dir string, logger *slog.Logger) (*JSONWriter, error) {
	if dir == "" {
		return nil, ErrEmptyOutputDir
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &JSONWriter{dir: dir, logger: logger}, nil
}

// Dir returns the output directory.
func (w *JSONWriter) Dir() string {
	return w.dir
}

// PageCrawled writes page to <dir>/<FileName(url)>.
func (w *JSONWriter) PageCrawled(url string, page *crawler.PageResult) {
	data, err := json.MarshalIndent(page, "", "  ")
	if err != nil {
		w.logger.Warn("failed to encode page", "url", url, "error", err)
		return
	}
	data = append(data, '\n')

	path := filepath.Join(w.dir, FileName(url))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		w.logger.Warn("failed to write page", "url", url, "path", path, "error", err)
		return
	}
	w.logger.Debug("page written", "url", url, "path", path)
}

// FileName derives a file name from a URL. Separators are replaced with
// underscores and the result is truncated, so a short digest of the full
// URL keeps names of long URLs sharing a prefix distinct.
func FileName(url string) string {
	name := strings.NewReplacer("://", "_", "/", "_", ".", "_").Replace(url)
	name = strings.Map(func(r rune) rune {
		switch r {
		case '?', '&', '=', ':', '*', '"', '<', '>', '|', '\\', '#', '%':
			return '_'
		}
		return r
	}, name)
	if len(name) > maxNameLength {
		// Cut on a rune boundary so multi-byte hosts stay valid UTF-8.
		cut := maxNameLength
		for cut > 0 && !utf8.RuneStart(name[cut]) {
			cut--
		}
		name = name[:cut]
	}

	sum := sha3.Sum256([]byte(url))
	return name + "_" + hex.EncodeToString(sum[:4]) + ".json"
}

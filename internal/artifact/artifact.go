// Package artifact hands out per-invocation output paths so concurrent
// commands never write to the same chart or spreadsheet file.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Dir is a directory of transient output files.
type Dir struct {
	Root string
}

// NewDir creates root if needed.
func NewDir(root string) (*Dir, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Dir{Root: root}, nil
}

// Path returns a fresh, unused path such as <root>/<prefix>-<uuid>.<ext>.
func (d *Dir) Path(prefix, ext string) string {
	name := fmt.Sprintf("%s-%s.%s", sanitize(prefix), uuid.NewString(), strings.TrimPrefix(ext, "."))
	return filepath.Join(d.Root, name)
}

// Remove deletes path, ignoring files that are already gone.
func (d *Dir) Remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("path", path).Msg("remove artifact")
	}
}

// Sweep deletes regular files older than maxAge and returns how many were removed.
func (d *Dir) Sweep(maxAge time.Duration, now time.Time) (int, error) {
	entries, err := os.ReadDir(d.Root)
	if err != nil {
		return 0, fmt.Errorf("read output dir: %w", err)
	}
	removed := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) < maxAge {
			continue
		}
		if err := os.Remove(filepath.Join(d.Root, e.Name())); err != nil {
			log.Warn().Err(err).Str("file", e.Name()).Msg("sweep artifact")
			continue
		}
		removed++
	}
	return removed, nil
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}

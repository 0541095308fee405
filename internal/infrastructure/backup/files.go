package backup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"newsdigest/internal/domain"
	"newsdigest/internal/ports"
)

var unsafeExpr = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// FileBackup keeps a durable secondary copy of each rewritten article as a
// pretty-printed JSON file.
type FileBackup struct {
	dir string
}

var _ ports.Backup = (*FileBackup)(nil)

// NewFileBackup points the backup at dir; the directory is created lazily.
func NewFileBackup(dir string) *FileBackup {
	return &FileBackup{dir: dir}
}

// Save writes the rewritten article under a filename derived from id.
func (b *FileBackup) Save(id string, article domain.RewrittenArticle) error {
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}

	data, err := json.MarshalIndent(article, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal article: %w", err)
	}

	path := filepath.Join(b.dir, Filename(id))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write backup %s: %w", path, err)
	}

	return nil
}

// Clear deletes all backup files and returns how many were removed.
func (b *FileBackup) Clear() (int, error) {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read backup dir: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		if err := os.Remove(filepath.Join(b.dir, entry.Name())); err != nil {
			return removed, fmt.Errorf("remove %s: %w", entry.Name(), err)
		}
		removed++
	}

	return removed, nil
}

// Filename sanitizes a record identifier into a backup filename.
func Filename(id string) string {
	return unsafeExpr.ReplaceAllString(id, "-") + ".json"
}

package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"newsdigest/internal/domain"
	"newsdigest/internal/ports"
)

// Maintenance groups the destructive admin operations.
type Maintenance struct {
	store  ports.Store
	backup ports.Backup
	logger *slog.Logger
}

func NewMaintenance(store ports.Store, backup ports.Backup, logger *slog.Logger) *Maintenance {
	return &Maintenance{store: store, backup: backup, logger: logger}
}

// ClearRewrites deletes every rewritten record so the next pipeline run
// reprocesses from the raw articles, which stay in place. With includeFiles
// the backup directory is emptied too. Returns how many store records were
// deleted.
func (m *Maintenance) ClearRewrites(ctx context.Context, includeFiles bool) (int, error) {
	keys, err := m.store.ListKeys(ctx, domain.RewrittenPrefix())
	if err != nil {
		return 0, fmt.Errorf("list rewritten keys: %w", err)
	}

	var deleted int
	if len(keys) > 0 {
		deleted, err = m.store.Delete(ctx, keys...)
		if err != nil {
			return deleted, fmt.Errorf("delete rewritten records: %w", err)
		}
	}

	var files int
	if includeFiles && m.backup != nil {
		files, err = m.backup.Clear()
		if err != nil {
			return deleted, fmt.Errorf("clear backup files: %w", err)
		}
	}

	if m.logger != nil {
		m.logger.Info("cleared rewritten articles", "records", deleted, "files", files)
	}
	return deleted, nil
}

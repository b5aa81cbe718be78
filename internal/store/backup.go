package store

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

var ErrBackupUnsupported = errors.New("backup is only supported for sqlite")

// Backup writes a consistent copy of a SQLite database to path, which must not exist yet.
// It returns the size of the written file.
func (s *Store) Backup(ctx context.Context, path string) (int64, error) {
	if s.db.Dialector.Name() != DriverSQLite {
		return 0, ErrBackupUnsupported
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.WithContext(ctx).Exec("VACUUM INTO ?", path).Error; err != nil {
		return 0, fmt.Errorf("vacuum into %s: %w", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat backup: %w", err)
	}

	s.log.Info("database backup written",
		zap.String("path", path),
		zap.String("size", humanize.Bytes(uint64(info.Size()))),
	)
	return info.Size(), nil
}

package sqlite

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/zeroaltitude/vestige/internal/storage"
	"github.com/zeroaltitude/vestige/internal/verrors"
)

var _ storage.BackupRestorer = (*Store)(nil)

// Backup writes a consistent point-in-time copy of the database to path
// using SQLite's VACUUM INTO, which handles WAL mode correctly without
// requiring the caller to pause writers.
func (s *Store) Backup(ctx context.Context, path string) error {
	if path == "" {
		return verrors.New(verrors.KindInvalidInput, "backup path is required")
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", path)); err != nil {
		return verrors.Wrap(verrors.KindStorageError, err, "backing up database")
	}
	return nil
}

// RestoreFrom replaces the live database file with a backup file's content.
// It verifies the backup's integrity before touching live state, then
// replaces the file wholesale and re-verifies the result, mirroring the
// file-copy restore the standalone backup tooling used.
func (s *Store) RestoreFrom(ctx context.Context, path string) error {
	if err := s.integrityCheckFile(path); err != nil {
		return verrors.Wrap(verrors.KindInvalidInput, err, "backup file failed integrity check")
	}

	if _, err := s.db.ExecContext(ctx, `PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		return verrors.Wrap(verrors.KindStorageError, err, "checkpointing before restore")
	}

	if err := copyFile(path, s.path); err != nil {
		return verrors.Wrap(verrors.KindStorageError, err, "copying backup over live database")
	}

	if err := s.integrityCheckFile(s.path); err != nil {
		return verrors.Wrap(verrors.KindStorageError, err, "restored database failed integrity check")
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

// integrityCheckFile opens path as a bare read-only connection (not via
// Open, which applies WAL/journal pragmas that a read-only handle can't
// satisfy) and runs PRAGMA integrity_check against it.
func (s *Store) integrityCheckFile(path string) error {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", path))
	if err != nil {
		return err
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return err
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}
	return nil
}

// Export writes every non-tombstoned memory to path as either a single JSON
// array ("json") or newline-delimited JSON objects ("jsonl" / "json-lines").
func (s *Store) Export(ctx context.Context, path string, format string) error {
	memories, err := s.AllActive(ctx)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return verrors.Wrap(verrors.KindStorageError, err, "creating export file")
	}
	defer f.Close()

	switch format {
	case "jsonl", "json-lines", "json_lines":
		w := bufio.NewWriter(f)
		enc := json.NewEncoder(w)
		for _, m := range memories {
			if err := enc.Encode(m); err != nil {
				return verrors.Wrap(verrors.KindStorageError, err, "encoding export row")
			}
		}
		return verrors.Wrap(verrors.KindStorageError, w.Flush(), "flushing export file")
	case "json", "":
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		if err := enc.Encode(memories); err != nil {
			return verrors.Wrap(verrors.KindStorageError, err, "encoding export")
		}
		return nil
	default:
		return verrors.New(verrors.KindInvalidInput, fmt.Sprintf("unsupported export format %q", format))
	}
}

package engine

import "context"

// Backup writes a consistent point-in-time copy of the store to path.
func (e *Engine) Backup(ctx context.Context, path string) error {
	if err := e.checkStarted(); err != nil {
		return err
	}
	return e.store.Backup(ctx, path)
}

// Restore replaces the live store's content with a backup file's.
func (e *Engine) Restore(ctx context.Context, path string) error {
	if err := e.checkStarted(); err != nil {
		return err
	}
	return e.store.RestoreFrom(ctx, path)
}

// ExportData writes every non-deleted memory to path in the given format
// (store-defined; the sqlite backend writes a JSON array for "json" or "",
// and JSON lines for "jsonl"). Connections and intentions are not exported.
func (e *Engine) ExportData(ctx context.Context, path, format string) error {
	if err := e.checkStarted(); err != nil {
		return err
	}
	return e.store.Export(ctx, path, format)
}

// Package backup implements a periodic backup scheduler with tiered
// retention (hourly/daily/weekly/monthly), sitting on top of whatever
// Backup/RestoreFrom implementation the caller wires in (storage.Store's,
// normally) rather than talking to sqlite directly itself.
package backup

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// BackupFunc writes a point-in-time backup to path. Satisfied by
// storage.BackupRestorer.Backup.
type BackupFunc func(ctx context.Context, path string) error

// RestoreFunc replaces live state from a backup file at path. Satisfied by
// storage.BackupRestorer.RestoreFrom.
type RestoreFunc func(ctx context.Context, path string) error

// Service runs BackupFunc on a timer, verifying each result by re-opening it
// (via Verify) and pruning old backups per RetentionPolicy.
type Service struct {
	backupFn  BackupFunc
	restoreFn RestoreFunc
	verify    func(path string) error

	backupDir     string
	interval      time.Duration
	retention     RetentionPolicy
	verifyBackups bool

	mu             sync.Mutex
	running        bool
	stopCh         chan struct{}
	lastBackupTime time.Time
	nextBackupTime time.Time
}

// Config configures a Service.
type Config struct {
	BackupDir     string
	Interval      time.Duration
	Retention     RetentionPolicy
	VerifyBackups bool
}

// New builds a Service around the given backup/restore/verify functions.
// verify may be nil, in which case VerifyBackups is forced off.
func New(backupFn BackupFunc, restoreFn RestoreFunc, verify func(path string) error, cfg Config) (*Service, error) {
	if backupFn == nil {
		return nil, fmt.Errorf("a backup function is required")
	}
	if cfg.BackupDir == "" {
		return nil, fmt.Errorf("backup directory is required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 1 * time.Hour
	}
	if cfg.Retention.Hourly == 0 {
		cfg.Retention.Hourly = 24
	}
	if cfg.Retention.Daily == 0 {
		cfg.Retention.Daily = 7
	}
	if cfg.Retention.Weekly == 0 {
		cfg.Retention.Weekly = 4
	}
	if cfg.Retention.Monthly == 0 {
		cfg.Retention.Monthly = 12
	}
	if verify == nil {
		cfg.VerifyBackups = false
	}

	if err := os.MkdirAll(cfg.BackupDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	return &Service{
		backupFn:      backupFn,
		restoreFn:     restoreFn,
		verify:        verify,
		backupDir:     cfg.BackupDir,
		interval:      cfg.Interval,
		retention:     cfg.Retention,
		verifyBackups: cfg.VerifyBackups,
		stopCh:        make(chan struct{}),
	}, nil
}

// Start runs the automated backup loop until ctx is cancelled or Stop is called.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("backup service is already running")
	}
	s.running = true
	s.nextBackupTime = time.Now().Add(s.interval)
	s.mu.Unlock()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Printf("Backup service started: interval=%v, backup_dir=%s", s.interval, s.backupDir)

	for {
		select {
		case <-ctx.Done():
			log.Println("Backup service stopping (context cancelled)")
			return ctx.Err()

		case <-s.stopCh:
			log.Println("Backup service stopping (stop requested)")
			return nil

		case <-ticker.C:
			log.Println("Starting scheduled backup...")
			result, err := s.BackupNow(ctx)
			if err != nil {
				log.Printf("Scheduled backup failed: %v", err)
			} else {
				log.Printf("Scheduled backup completed: path=%s, size=%d bytes, duration=%v, verified=%v",
					result.Path, result.Size, result.Duration, result.Verified)
			}

			s.mu.Lock()
			s.nextBackupTime = time.Now().Add(s.interval)
			s.mu.Unlock()
		}
	}
}

// Stop stops the backup service gracefully.
func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return fmt.Errorf("backup service is not running")
	}

	close(s.stopCh)
	s.running = false
	return nil
}

// BackupNow performs an immediate backup, optionally verifies it, and
// applies the retention policy.
func (s *Service) BackupNow(ctx context.Context) (*BackupResult, error) {
	startTime := time.Now()

	timestamp := time.Now().Format("20060102-150405.000000")
	backupName := fmt.Sprintf("vestige-backup-%s.db", timestamp)
	backupPath := filepath.Join(s.backupDir, backupName)

	if err := s.backupFn(ctx, backupPath); err != nil {
		return &BackupResult{Path: backupPath, Duration: time.Since(startTime), Error: err}, err
	}

	info, err := os.Stat(backupPath)
	if err != nil {
		return &BackupResult{Path: backupPath, Duration: time.Since(startTime), Error: fmt.Errorf("failed to stat backup: %w", err)}, err
	}

	result := &BackupResult{Path: backupPath, Duration: time.Since(startTime), Size: info.Size()}

	if s.verifyBackups {
		if err := s.verify(backupPath); err != nil {
			result.Error = fmt.Errorf("backup verification failed: %w", err)
			return result, result.Error
		}
		result.Verified = true
	}

	s.mu.Lock()
	s.lastBackupTime = time.Now()
	s.mu.Unlock()

	if err := applyRetention(s.backupDir, s.retention); err != nil {
		log.Printf("Warning: failed to apply retention policy: %v", err)
	}

	return result, nil
}

// ListBackups lists all available backups.
func (s *Service) ListBackups() ([]BackupInfo, error) {
	return listBackups(s.backupDir)
}

// RestoreBackup restores from a backup file. The service must be stopped first.
func (s *Service) RestoreBackup(ctx context.Context, backupPath string) error {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()
	if running {
		return fmt.Errorf("cannot restore while backup service is running")
	}
	if s.restoreFn == nil {
		return fmt.Errorf("no restore function configured")
	}
	if _, err := os.Stat(backupPath); err != nil {
		return fmt.Errorf("backup not found: %w", err)
	}

	if err := s.restoreFn(ctx, backupPath); err != nil {
		return err
	}
	log.Printf("Database restored from backup: %s", backupPath)
	return nil
}

// HealthCheck returns the current health status of the backup service.
func (s *Service) HealthCheck() (*HealthStatus, error) {
	s.mu.Lock()
	lastBackup := s.lastBackupTime
	nextBackup := s.nextBackupTime
	s.mu.Unlock()

	backups, err := s.ListBackups()
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}

	diskUsage, err := calculateDiskUsage(s.backupDir)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate disk usage: %w", err)
	}

	status := &HealthStatus{
		LastBackup:    lastBackup,
		NextBackup:    nextBackup,
		TotalBackups:  len(backups),
		BackupDir:     s.backupDir,
		DiskSpaceUsed: diskUsage,
		Status:        "healthy",
	}

	if !lastBackup.IsZero() && time.Since(lastBackup) > s.interval*2 {
		status.Status = "warning"
		status.Message = fmt.Sprintf("Backup overdue by %v", time.Since(lastBackup)-s.interval)
	} else if lastBackup.IsZero() {
		status.Status = "healthy"
		status.Message = "No backups yet"
	} else {
		status.Message = fmt.Sprintf("Last backup: %v ago", time.Since(lastBackup).Round(time.Minute))
	}

	return status, nil
}

package scheduler

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const (
	backupPrefix = "animetrack-"
	backupSuffix = ".db"
	// backupTimeLayout sorts lexically in time order
	backupTimeLayout = "20060102-150405"
)

// Backupper writes a consistent snapshot of the store to a file
type Backupper interface {
	BackupToFile(path string) error
}

// Scheduler manages scheduled tasks
type Scheduler struct {
	cron   *cron.Cron
	db     Backupper
	spec   string
	dir    string
	retain int
	now    func() time.Time
	logger *logrus.Logger
}

// NewScheduler creates a new scheduler that snapshots db into dir on the
// cron spec and keeps the newest retain snapshots
func NewScheduler(db Backupper, spec, dir string, retain int, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		db:     db,
		spec:   spec,
		dir:    dir,
		retain: retain,
		now:    time.Now,
		logger: logger,
	}
}

// Start starts the scheduler. An empty spec leaves scheduled backups disabled.
func (s *Scheduler) Start() error {
	if s.spec == "" {
		s.logger.Info("Scheduled backups disabled")
		return nil
	}

	s.logger.Info("Starting scheduler")

	_, err := s.cron.AddFunc(s.spec, func() {
		s.runBackup()
	})
	if err != nil {
		return fmt.Errorf("failed to add backup job: %w", err)
	}

	s.cron.Start()
	s.logger.WithFields(logrus.Fields{
		"schedule": s.spec,
		"dir":      s.dir,
		"retain":   s.retain,
	}).Info("Scheduler started")

	return nil
}

// Stop stops the scheduler and waits for a running backup to finish
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	<-s.cron.Stop().Done()
}

// runBackup executes the backup job
func (s *Scheduler) runBackup() {
	s.logger.Info("Running scheduled backup")

	path, err := s.Backup()
	if err != nil {
		s.logger.WithError(err).Error("Backup job failed")
		return
	}

	removed, err := s.Prune()
	if err != nil {
		s.logger.WithError(err).Warn("Failed to prune old backups")
	}

	s.logger.WithFields(logrus.Fields{
		"path":    path,
		"removed": removed,
	}).Info("Backup job completed successfully")
}

// Backup writes a timestamped snapshot into the backup directory and returns its path
func (s *Scheduler) Backup() (string, error) {
	name := backupPrefix + s.now().UTC().Format(backupTimeLayout) + backupSuffix
	path := filepath.Join(s.dir, name)
	if err := s.db.BackupToFile(path); err != nil {
		return "", fmt.Errorf("failed to back up to %s: %w", path, err)
	}
	return path, nil
}

// Prune deletes all but the newest retain snapshots and returns how many were removed
func (s *Scheduler) Prune() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to list backups: %w", err)
	}

	var backups []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.Type().IsRegular() && strings.HasPrefix(name, backupPrefix) && strings.HasSuffix(name, backupSuffix) {
			backups = append(backups, name)
		}
	}
	if len(backups) <= s.retain {
		return 0, nil
	}

	sort.Strings(backups)
	removed := 0
	for _, name := range backups[:len(backups)-s.retain] {
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", name, err)
		}
		removed++
	}
	return removed, nil
}

package scheduler

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

type fileBackupper struct {
	calls int
}

func (b *fileBackupper) BackupToFile(path string) error {
	b.calls++
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte("snapshot"), 0600)
}

func newTestScheduler(t *testing.T, retain int) (*Scheduler, *fileBackupper) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	db := &fileBackupper{}
	s := NewScheduler(db, "@daily", t.TempDir(), retain, logger)
	return s, db
}

func TestBackupAndPrune(t *testing.T) {
	s, db := newTestScheduler(t, 2)

	clock := time.Date(2024, 3, 1, 4, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	var paths []string
	for i := 0; i < 4; i++ {
		path, err := s.Backup()
		if err != nil {
			t.Fatalf("Backup() error = %v", err)
		}
		paths = append(paths, path)
		clock = clock.Add(24 * time.Hour)
	}
	if db.calls != 4 {
		t.Fatalf("BackupToFile calls = %d, want 4", db.calls)
	}

	// Unrelated files are never pruned
	other := filepath.Join(s.dir, "notes.txt")
	if err := os.WriteFile(other, []byte("keep"), 0600); err != nil {
		t.Fatal(err)
	}

	removed, err := s.Prune()
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if removed != 2 {
		t.Errorf("Prune() removed %d, want 2", removed)
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	want := []string{
		"animetrack-20240303-040000.db",
		"animetrack-20240304-040000.db",
		"notes.txt",
	}
	if len(names) != len(want) {
		t.Fatalf("remaining files = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("remaining[%d] = %q, want %q", i, names[i], want[i])
		}
	}
	if filepath.Base(paths[3]) != want[1] {
		t.Errorf("latest backup path = %q", paths[3])
	}
}

func TestPruneUnderLimit(t *testing.T) {
	s, _ := newTestScheduler(t, 7)
	if _, err := s.Backup(); err != nil {
		t.Fatalf("Backup() error = %v", err)
	}

	removed, err := s.Prune()
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if removed != 0 {
		t.Errorf("Prune() removed %d, want 0", removed)
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s, _ := newTestScheduler(t, 1)
	s.spec = "every tuesday"
	if err := s.Start(); err == nil {
		s.Stop()
		t.Fatal("Start() error = nil, want error")
	}
}

func TestStartDisabled(t *testing.T) {
	s, _ := newTestScheduler(t, 1)
	s.spec = ""
	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	s.Stop()
}

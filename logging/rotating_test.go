package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/giygas/rxu-api/config"
)

func logFileName(week string) string {
	return fmt.Sprintf("%s-%s.log", logFilePrefix, week)
}

func countLogFiles(t *testing.T, dir string) (total, numbered int) {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to read log directory: %v", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), logFilePrefix+"-") || !strings.HasSuffix(e.Name(), ".log") {
			continue
		}
		total++
		if numberedFileRe.MatchString(e.Name()) {
			numbered++
		}
	}
	return total, numbered
}

func TestRotatingLoggerOpenAndWrite(t *testing.T) {
	tempDir := filepath.Join(t.TempDir(), "nested", "logs")

	rl := NewRotatingLogger(tempDir, 1)
	if err := rl.Open(); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if _, err := rl.Write([]byte("catalog loaded")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := rl.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(tempDir, logFileName(getWeekKey(time.Now()))))
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(content), "catalog loaded") {
		t.Errorf("Log file does not contain the message: %s", content)
	}
}

func TestGetWeekKey(t *testing.T) {
	tests := []struct {
		date time.Time
		want string
	}{
		{time.Date(2025, 10, 7, 12, 0, 0, 0, time.UTC), "2025-W41"},
		{time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), "2026-W01"},
		{time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC), "2025-W01"},
	}
	for _, tt := range tests {
		if got := getWeekKey(tt.date); got != tt.want {
			t.Errorf("getWeekKey(%s) = %s, want %s", tt.date.Format("2006-01-02"), got, tt.want)
		}
	}
}

func TestRotatingLoggerWeekChange(t *testing.T) {
	tempDir := t.TempDir()

	rl := NewRotatingLogger(tempDir, 1)
	defer func() { _ = rl.Close() }()

	for _, week := range []string{"2025-W40", "2025-W41"} {
		rl.mu.Lock()
		err := rl.doRotate(week)
		rl.mu.Unlock()
		if err != nil {
			t.Fatalf("Failed to rotate to %s: %v", week, err)
		}
		if _, err := os.Stat(filepath.Join(tempDir, logFileName(week))); err != nil {
			t.Errorf("Expected log file for %s: %v", week, err)
		}
	}
}

func TestCleanupOldLogs(t *testing.T) {
	tempDir := t.TempDir()
	rl := NewRotatingLogger(tempDir, 1)

	oldFile := filepath.Join(tempDir, logFileName("2025-W30"))
	newFile := filepath.Join(tempDir, logFileName(getWeekKey(time.Now())))
	foreign := filepath.Join(tempDir, "other.log")

	for _, f := range []string{oldFile, newFile, foreign} {
		if err := os.WriteFile(f, []byte("content"), 0666); err != nil {
			t.Fatal(err)
		}
	}
	threeWeeksAgo := time.Now().AddDate(0, 0, -21)
	for _, f := range []string{oldFile, foreign} {
		if err := os.Chtimes(f, threeWeeksAgo, threeWeeksAgo); err != nil {
			t.Fatal(err)
		}
	}

	if err := rl.cleanupOldLogs(); err != nil {
		t.Fatalf("cleanupOldLogs failed: %v", err)
	}

	if _, err := os.Stat(oldFile); !os.IsNotExist(err) {
		t.Error("Old log file was not deleted")
	}
	if _, err := os.Stat(newFile); err != nil {
		t.Error("Current log file was deleted")
	}
	if _, err := os.Stat(foreign); err != nil {
		t.Error("Files not owned by the logger must be left alone")
	}
}

func TestRotatingLoggerSizeLimit(t *testing.T) {
	tempDir := t.TempDir()

	rl := NewRotatingLoggerWithSizeLimit(tempDir, 1, 100)
	defer func() { _ = rl.Close() }()
	if err := rl.Open(); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if _, err := rl.Write([]byte("small")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if _, err := rl.Write([]byte(strings.Repeat("sentiment fetch ", 10))); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	total, numbered := countLogFiles(t, tempDir)
	if total < 2 || numbered < 1 {
		t.Errorf("Expected a size rotated file, got %d files (%d numbered)", total, numbered)
	}
}

func TestRotatingLoggerOpenError(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(file, nil, 0666); err != nil {
		t.Fatal(err)
	}

	rl := NewRotatingLogger(filepath.Join(file, "logs"), 1)
	if err := rl.Open(); err == nil {
		t.Error("Expected Open to fail under a regular file")
	}
	if _, err := rl.Write([]byte("x")); err == nil {
		t.Error("Expected Write to fail without a log file")
	}
	if err := rl.Close(); err != nil {
		t.Errorf("Close should succeed after a failed Open: %v", err)
	}
}

func TestRotatingLoggerConcurrentWrites(t *testing.T) {
	tempDir := t.TempDir()

	rl := NewRotatingLoggerWithSizeLimit(tempDir, 1, 2000)
	defer func() { _ = rl.Close() }()
	if err := rl.Open(); err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			msg := fmt.Sprintf("goroutine %d: %s\n", id, strings.Repeat("x", 80))
			for range 50 {
				if _, err := rl.Write([]byte(msg)); err != nil {
					t.Errorf("Concurrent write failed: %v", err)
					return
				}
			}
		}(i)
	}
	wg.Wait()

	if total, _ := countLogFiles(t, tempDir); total < 1 {
		t.Error("Expected at least 1 log file")
	}
}

func TestRotatingLoggerExistingFile(t *testing.T) {
	tests := []struct {
		name         string
		existing     int
		wantNumbered bool
		wantSize     int64
	}{
		{"at size limit", 2048, true, 0},
		{"below size limit", 512, false, 512},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()
			week := getWeekKey(time.Now())
			base := filepath.Join(tempDir, logFileName(week))
			if err := os.WriteFile(base, []byte(strings.Repeat("x", tt.existing)), 0666); err != nil {
				t.Fatal(err)
			}

			rl := NewRotatingLoggerWithSizeLimit(tempDir, 1, 1024)
			defer func() { _ = rl.Close() }()

			rl.mu.Lock()
			err := rl.doRotate(week)
			rl.mu.Unlock()
			if err != nil {
				t.Fatalf("Failed to rotate: %v", err)
			}

			numbered := rl.currentFile.Name() != base
			if numbered != tt.wantNumbered {
				t.Errorf("Current file %s, numbered = %v, want %v", rl.currentFile.Name(), numbered, tt.wantNumbered)
			}
			if rl.currentSize.Load() != tt.wantSize {
				t.Errorf("currentSize = %d, want %d", rl.currentSize.Load(), tt.wantSize)
			}
		})
	}
}

func TestGlobalLoggingService(t *testing.T) {
	tempDir := t.TempDir()
	ResetForTest(t, tempDir, config.EnvTest, "", 2, 100*1024*1024)

	if DefaultLoggingService == nil || DefaultLoggingService.rotating == nil {
		t.Fatal("DefaultLoggingService was not initialized with a file")
	}

	Info("Info message")
	Debug("Debug message")
	Warn("Warning message")
	Error("Error message")

	content, err := os.ReadFile(filepath.Join(tempDir, logFileName(getWeekKey(time.Now()))))
	if err != nil {
		t.Fatalf("Expected log file: %v", err)
	}
	// The file handler records everything, including debug
	if !strings.Contains(string(content), `"msg":"Debug message"`) {
		t.Errorf("Expected the debug line in the JSON file, got: %s", content)
	}
}

func TestInitLoggerWithOptionsReplacesPrevious(t *testing.T) {
	previous := DefaultLoggingService
	previousDefault := slog.Default()
	defer func() {
		DefaultLoggingService = previous
		slog.SetDefault(previousDefault)
	}()

	first := t.TempDir()
	InitLoggerWithOptions(Options{Dir: first, Env: config.EnvTest})
	firstSvc := DefaultLoggingService

	InitLoggerWithOptions(Options{Dir: t.TempDir(), Env: config.EnvTest})
	defer func() { _ = Close() }()

	if DefaultLoggingService == firstSvc {
		t.Fatal("Expected a new logging service")
	}
	if firstSvc.rotating.currentFile != nil {
		t.Error("Expected the previous log file to be closed")
	}
}

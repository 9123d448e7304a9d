package logging

import (
	"testing"

	"github.com/giygas/rxu-api/config"
)

// ResetForTest installs a fresh global logger writing under dir and restores
// the previous one when the test ends
func ResetForTest(t testing.TB, dir string, env config.Environment, level string, retentionWeeks int, maxFileSize int64) {
	t.Helper()

	previous := DefaultLoggingService
	svc := NewLoggingService(Options{
		Dir:            dir,
		Env:            env,
		Level:          level,
		RetentionWeeks: retentionWeeks,
		MaxFileSize:    maxFileSize,
	})
	DefaultLoggingService = svc

	t.Cleanup(func() {
		_ = svc.Close()
		DefaultLoggingService = previous
	})
}

package testing

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/Rakishiii/production-scheduler/pkg/logging"
)

// AssertEventually fails the test if condition does not hold within timeout
func AssertEventually(t *testing.T, condition func() bool, timeout time.Duration, message string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for !condition() {
		if time.Now().After(deadline) {
			t.Fatalf("Condition not met within timeout: %s", message)
		}
		<-ticker.C
	}
}

// CreateTestContext creates a context with a timeout for tests
func CreateTestContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

// DiscardLogger returns a logger that writes nowhere
func DiscardLogger() *logging.Logger {
	cfg := logging.DefaultConfig("test")
	cfg.Output = io.Discard
	return logging.New(cfg)
}

// FixedClock returns a clock function pinned to the given calendar day at 09:00 UTC
func FixedClock(year int, month time.Month, day int) func() time.Time {
	t := time.Date(year, month, day, 9, 0, 0, 0, time.UTC)
	return func() time.Time { return t }
}

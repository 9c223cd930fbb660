package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DaianCosta/pipehttp/internal/common"
)

// WritePolicy bounds how often a failed run write is attempted again.
// It only covers transient database conditions; backend calls are never retried.
type WritePolicy struct {
	Attempts int
	Delay    time.Duration
	MaxDelay time.Duration
}

// DefaultWritePolicy tolerates a briefly locked SQLite file or a dropped
// PostgreSQL connection.
func DefaultWritePolicy() WritePolicy {
	return WritePolicy{Attempts: 3, Delay: 50 * time.Millisecond, MaxDelay: time.Second}
}

var transientMarkers = []string{
	"database is locked",
	"database table is locked",
	"sqlite_busy",
	"connection refused",
	"connection reset",
	"broken pipe",
	"bad connection",
	"deadlock",
}

func isTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, m := range transientMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// backoff doubles the delay per attempt, capped at MaxDelay.
func (p WritePolicy) backoff(attempt int) time.Duration {
	d := p.Delay << attempt
	if d <= 0 || (p.MaxDelay > 0 && d > p.MaxDelay) {
		return p.MaxDelay
	}
	return d
}

func (p WritePolicy) do(ctx context.Context, log *common.Logger, op func() error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = op(); err == nil {
			if i > 0 {
				log.Info("run write succeeded after retry", "attempt", i+1)
			}
			return nil
		}
		if !isTransient(err) || i == attempts-1 {
			break
		}
		delay := p.backoff(i)
		log.Warn("run write failed, retrying", "error", err, "attempt", i+1, "retry_delay", delay)
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("run write cancelled: %w", ctx.Err())
		case <-t.C:
		}
	}
	return err
}

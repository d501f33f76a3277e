package core

// sync_limiter.go bounds how many batch syncs reconcile at once.
//
// A batch holds one slot from before its first record is resolved until its
// last failure is quarantined, so a slot maps to one open run of store
// writes plus the quarantine inserts that follow. Devices coming back online
// together tend to sync at the same moment; past the limit a batch waits up
// to maxWait and then fails whole with ErrTooManySyncs (HTTP 503 with
// Retry-After). No record of a rejected batch has been touched, so the
// client can resend the same batch unchanged.
//
// On shutdown WaitForDrain holds the process until running batches finish,
// otherwise their failures would never reach the quarantine table.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManySyncs rejects a batch that found no free slot within the wait
// limit. Nothing from the batch was stored.
var ErrTooManySyncs = errors.New("too many concurrent syncs, please try again later")

// DefaultMaxConcurrentSyncs applies when SYNC_MAX_CONCURRENT is unset.
const DefaultMaxConcurrentSyncs = 8

// DefaultMaxWaitTime applies when SYNC_MAX_WAIT is unset. It stays well
// under the request timeout so a queued batch still has time to run.
const DefaultMaxWaitTime = 15 * time.Second

// drainPoll is how often WaitForDrain rechecks the running count.
const drainPoll = 100 * time.Millisecond

// SyncLimiter is a counting semaphore over batch syncs.
type SyncLimiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu     sync.RWMutex
	active int
}

// NewSyncLimiter allows maxConcurrent batches to reconcile together.
// Non-positive arguments fall back to the defaults.
func NewSyncLimiter(maxConcurrent int, maxWait time.Duration) *SyncLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentSyncs
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	return &SyncLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire takes a slot for one batch, waiting at most maxWait. A cancelled
// ctx returns ctx.Err(); an expired wait returns ErrTooManySyncs. Every nil
// return must be paired with one Release.
func (l *SyncLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.track(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManySyncs
	}
}

// TryAcquire takes a slot only if one is free right now.
func (l *SyncLimiter) TryAcquire() bool {
	select {
	case l.slots <- struct{}{}:
		l.track(1)
		return true
	default:
		return false
	}
}

// Release frees the slot of a finished batch.
func (l *SyncLimiter) Release() {
	l.track(-1)
	<-l.slots
}

func (l *SyncLimiter) track(delta int) {
	l.mu.Lock()
	l.active += delta
	l.mu.Unlock()
}

// ActiveCount returns the number of batches reconciling now.
func (l *SyncLimiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// MaxConcurrent returns the slot count.
func (l *SyncLimiter) MaxConcurrent() int {
	return cap(l.slots)
}

// Available returns the number of free slots.
func (l *SyncLimiter) Available() int {
	return cap(l.slots) - len(l.slots)
}

// WaitForDrain blocks until no batch is running or ctx is done.
func (l *SyncLimiter) WaitForDrain(ctx context.Context) error {
	if l.ActiveCount() == 0 {
		return nil
	}

	ticker := time.NewTicker(drainPoll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if l.ActiveCount() == 0 {
				return nil
			}
		}
	}
}

// SyncLimiterStatus is what /healthz reports under "sync".
type SyncLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status snapshots the limiter.
func (l *SyncLimiter) Status() SyncLimiterStatus {
	return SyncLimiterStatus{
		Active:        l.ActiveCount(),
		Available:     l.Available(),
		MaxConcurrent: l.MaxConcurrent(),
	}
}

package runner

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// raceWindow is how long CheckRace waits for a signal that trails an input error.
const raceWindow = 100 * time.Millisecond

// SignalManager turns interrupt signals into a re-armable context.
// The runner uses it to tell "Ctrl+C while waiting for a memo" (detach and
// keep going) from "Ctrl+C at the prompt" (leave the loop).
type SignalManager struct {
	signals []os.Signal

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// NewSignalManager starts listening for the given signals, or SIGINT and SIGTERM when none are given.
func NewSignalManager(signals ...os.Signal) *SignalManager {
	if len(signals) == 0 {
		signals = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
	sm := &SignalManager{signals: signals}
	sm.Reset()
	return sm
}

// Context is cancelled when a signal arrives. It stays cancelled until Reset.
func (sm *SignalManager) Context() context.Context {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.ctx
}

// Interrupted reports whether a signal arrived since the last Reset.
func (sm *SignalManager) Interrupted() bool {
	return sm.Context().Err() != nil
}

// Reset re-arms the listener after a signal has been handled.
func (sm *SignalManager) Reset() {
	ctx, cancel := signal.NotifyContext(context.Background(), sm.signals...)

	sm.mu.Lock()
	defer sm.mu.Unlock()
	// Release the old listener only once the new one is registered.
	if sm.cancel != nil {
		sm.cancel()
	}
	sm.ctx, sm.cancel = ctx, cancel
}

// Stop releases the listener. Context reports cancelled afterwards.
func (sm *SignalManager) Stop() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.cancel != nil {
		sm.cancel()
	}
}

// CheckRace gives a pending signal a short window to land after an input error.
// Some terminals deliver EOF on stdin slightly before SIGINT reaches the process.
func (sm *SignalManager) CheckRace() {
	ctx := sm.Context()
	if ctx.Err() != nil {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(raceWindow):
	}
}

// Package lock serializes runs that target the same WebDriverAgent endpoint,
// both between goroutines and between springboard-runner processes.
package lock

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/devicelab-dev/springboard-runner/pkg/core"
)

const retryDelay = 100 * time.Millisecond

// Locker provides mutual exclusion with context support.
type Locker interface {
	Lock(ctx context.Context) error
	Unlock() error
	TryLock() (bool, error)
}

var _ Locker = (*DeviceLock)(nil)

// DeviceLock combines an in-process token (a size-1 channel, so Lock can
// honor ctx) with flock(2) on a per-endpoint file. Every acquisition opens
// a fresh flock so callers sharing one DeviceLock block each other.
type DeviceLock struct {
	path string
	ch   chan struct{}
	fl   *flock.Flock
}

// New creates a lock backed by the file at path.
func New(path string) *DeviceLock {
	return &DeviceLock{path: path, ch: make(chan struct{}, 1)}
}

// ForEndpoint creates the lock for a WDA base URL inside dir.
func ForEndpoint(dir, endpoint string) (*DeviceLock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir %s: %w", dir, err)
	}
	return New(filepath.Join(dir, FileName(endpoint))), nil
}

// FileName maps an endpoint to a stable lock file name, e.g.
// http://10.0.0.5:8100 becomes 10.0.0.5_8100.lock.
func FileName(endpoint string) string {
	key := endpoint
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		key = u.Host + u.Path
	}
	key = strings.Trim(strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			return r
		}
		return '_'
	}, key), "_")
	if key == "" {
		key = "default"
	}
	return key + ".lock"
}

// Path returns the lock file path.
func (l *DeviceLock) Path() string {
	return l.path
}

// Lock blocks until the device is free or ctx is done. A ctx expiry is
// reported as core.ErrDeviceBusy.
func (l *DeviceLock) Lock(ctx context.Context) error {
	select {
	case l.ch <- struct{}{}:
	case <-ctx.Done():
		return l.busy(ctx.Err())
	}
	ok, err := l.commit(func(fl *flock.Flock) (bool, error) {
		return fl.TryLockContext(ctx, retryDelay)
	})
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("acquire flock %s: %w", l.path, err)
	}
	if !ok {
		return l.busy(ctx.Err())
	}
	return nil
}

// TryLock attempts a non-blocking acquisition. It returns (false, nil)
// if another caller holds the device.
func (l *DeviceLock) TryLock() (bool, error) {
	select {
	case l.ch <- struct{}{}:
	default:
		return false, nil
	}
	return l.commit(func(fl *flock.Flock) (bool, error) {
		return fl.TryLock()
	})
}

// Unlock releases the lock. Unlocking a free lock is a no-op.
func (l *DeviceLock) Unlock() error {
	var err error
	if l.fl != nil {
		err = l.fl.Unlock()
		l.fl = nil
	}
	select {
	case <-l.ch:
	default:
	}
	if err != nil {
		return fmt.Errorf("release flock %s: %w", l.path, err)
	}
	return nil
}

// commit opens a fresh flock and runs acquire. On failure the in-process
// token is returned so Lock and Unlock stay paired.
func (l *DeviceLock) commit(acquire func(*flock.Flock) (bool, error)) (bool, error) {
	fl := flock.New(l.path)
	locked, err := acquire(fl)
	if err != nil || !locked {
		<-l.ch
		return false, err
	}
	l.fl = fl
	return true, nil
}

func (l *DeviceLock) busy(cause error) error {
	return core.ErrDeviceBusy.
		WithDetails(map[string]interface{}{"lock": l.path}).
		WithCause(cause)
}

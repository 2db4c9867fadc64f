package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
)

// Backend waits for a watched path to change.
type Backend interface {
	// Wait blocks until the path changes, a backend specific timeout passes
	// or ctx is done. It reports whether a change was seen.
	Wait(ctx context.Context) (bool, error)
	Close() error
}

// Backend names accepted by New.
const (
	BackendAuto  = "auto"
	BackendEvent = "event"
	BackendPoll  = "poll"
)

// ErrClosed is returned by a backend whose event source went away.
var ErrClosed = errors.New("watcher closed")

type eventBackend struct {
	w       *fsnotify.Watcher
	name    string
	anyName bool
	timeout time.Duration
}

// NewEventBackend watches path with the operating system's notification
// API. Files are watched through their parent directory so editors that
// replace the file keep triggering events. timeout bounds each Wait.
func NewEventBackend(path string, timeout time.Duration) (Backend, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	b := &eventBackend{w: w, name: abs, timeout: timeout}
	dir := filepath.Dir(abs)
	if info.IsDir() {
		dir = abs
		b.anyName = true
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, err
	}
	return b, nil
}

func (b *eventBackend) Wait(ctx context.Context) (bool, error) {
	timer := time.NewTimer(b.timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-timer.C:
			return false, nil
		case err, ok := <-b.w.Errors:
			if !ok {
				return false, ErrClosed
			}
			return false, err
		case ev, ok := <-b.w.Events:
			if !ok {
				return false, ErrClosed
			}
			if b.anyName || filepath.Clean(ev.Name) == b.name {
				return true, nil
			}
		}
	}
}

func (b *eventBackend) Close() error {
	return b.w.Close()
}

type snapshot struct {
	exists  bool
	modTime time.Time
	size    int64
}

type pollBackend struct {
	fs       afero.Fs
	path     string
	interval time.Duration
	last     snapshot
}

// NewPollBackend watches path by sampling its modification time and size
// every interval.
func NewPollBackend(fsys afero.Fs, path string, interval time.Duration) Backend {
	b := &pollBackend{fs: fsys, path: path, interval: interval}
	b.last = b.stat()
	return b
}

func (b *pollBackend) stat() snapshot {
	info, err := b.fs.Stat(b.path)
	if err != nil {
		return snapshot{}
	}
	return snapshot{exists: true, modTime: info.ModTime(), size: info.Size()}
}

func (b *pollBackend) Wait(ctx context.Context) (bool, error) {
	timer := time.NewTimer(b.interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case <-timer.C:
	}

	cur := b.stat()
	if cur == b.last {
		return false, nil
	}
	b.last = cur
	return true, nil
}

func (b *pollBackend) Close() error {
	return nil
}

// New creates the backend named by kind. The automatic choice prefers
// events and falls back to polling when they can't be set up.
func New(kind, path string, pollInterval time.Duration) (Backend, error) {
	switch kind {
	case BackendEvent:
		return NewEventBackend(path, pollInterval)
	case BackendPoll:
		return NewPollBackend(afero.NewOsFs(), path, pollInterval), nil
	case BackendAuto, "":
		if b, err := NewEventBackend(path, pollInterval); err == nil {
			return b, nil
		}
		return NewPollBackend(afero.NewOsFs(), path, pollInterval), nil
	default:
		return nil, fmt.Errorf("unknown watch backend %q", kind)
	}
}

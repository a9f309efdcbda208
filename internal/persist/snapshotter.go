package persist

// Goroutine safety:
// The drain goroutine and Sync are the only callers of flush; writeMu keeps
// their writes ordered so an older snapshot never lands after a newer one.
// mu guards latest, closed, and sends on wake, which makes Save safe to call
// concurrently with Close.

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/abelbrown/localscout/internal/filter"
)

const defaultWriteTimeout = 2 * time.Second

// Snapshotter writes the latest applied spec to Storage in the background.
// Saves coalesce: if several arrive while a write is in flight, only the
// newest is written next.
type Snapshotter struct {
	storage Storage
	key     string
	logger  *log.Logger
	timeout time.Duration
	onError func(error)

	mu     sync.Mutex
	latest []byte
	closed bool
	wake   chan struct{}

	writeMu   sync.Mutex
	written   atomic.Uint64
	failed    atomic.Uint64
	done      chan struct{}
	closeOnce sync.Once
}

// Option configures a Snapshotter.
type Option func(*Snapshotter)

// WithLogger sets the logger used for write and restore warnings.
func WithLogger(l *log.Logger) Option {
	return func(s *Snapshotter) { s.logger = l }
}

// WithWriteTimeout bounds each Storage.Put call.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Snapshotter) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithErrorHook is called from the drain goroutine after each failed write.
func WithErrorHook(fn func(error)) Option {
	return func(s *Snapshotter) { s.onError = fn }
}

// NewSnapshotter starts a Snapshotter writing under key. Call Close to
// flush and stop it.
func NewSnapshotter(storage Storage, key string, opts ...Option) *Snapshotter {
	s := &Snapshotter{
		storage: storage,
		key:     key,
		timeout: defaultWriteTimeout,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	go s.drain()
	return s
}

// Key returns the storage key snapshots are written under.
func (s *Snapshotter) Key() string {
	return s.key
}

// Save queues spec for writing and returns immediately. Encoding failures
// and saves after Close are logged and dropped.
func (s *Snapshotter) Save(spec filter.Spec) {
	data, err := Encode(spec)
	if err != nil {
		s.failed.Add(1)
		s.logger.Warn("snapshot encode failed", "key", s.key, "err", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.failed.Add(1)
		return
	}
	s.latest = data
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Restore reads the stored spec. ok is false when nothing usable was
// stored; the returned spec is then the default. Restore never fails the
// caller: read and decode errors are logged as warnings.
func (s *Snapshotter) Restore(ctx context.Context) (spec filter.Spec, ok bool) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	data, err := s.storage.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("snapshot read failed", "key", s.key, "err", err)
		}
		return filter.Default(), false
	}

	spec, err = Decode(data)
	if err != nil {
		s.logger.Warn("discarding corrupt snapshot", "key", s.key, "err", err)
		return filter.Default(), false
	}
	spec.IsApplied = true
	return spec, true
}

// Sync writes any queued snapshot on the caller's goroutine.
func (s *Snapshotter) Sync() {
	s.flush()
}

// Written returns the number of successful writes.
func (s *Snapshotter) Written() uint64 {
	return s.written.Load()
}

// Failed returns the number of snapshots that could not be written.
func (s *Snapshotter) Failed() uint64 {
	return s.failed.Load()
}

// Close writes any queued snapshot and stops the drain goroutine.
func (s *Snapshotter) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.wake)
		s.mu.Unlock()
		<-s.done
	})
}

func (s *Snapshotter) drain() {
	defer close(s.done)
	for range s.wake {
		s.flush()
	}
	s.flush()
}

func (s *Snapshotter) flush() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	data := s.latest
	s.latest = nil
	s.mu.Unlock()
	if data == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.storage.Put(ctx, s.key, data); err != nil {
		s.failed.Add(1)
		s.logger.Warn("snapshot write failed", "key", s.key, "err", err)
		if s.onError != nil {
			s.onError(err)
		}
		return
	}
	s.written.Add(1)
}

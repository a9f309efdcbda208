package analytics

// Goroutine safety:
// Once started, run is the sole reader of s.ch and the sole writer to s.sink.
// A Service stopped without Start drains s.ch under s.mu instead.
// Track may be called from any goroutine. The channel is never closed, so a
// Track racing with Stop leaves at most one event unread; it is never a panic.

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Config tunes batching and throttling.
type Config struct {
	BatchSize     int           // flush when this many events are buffered
	FlushInterval time.Duration // flush at least this often
	BufferSize    int           // channel capacity; events beyond it are dropped
	RatePerSecond float64       // sustained Track rate; 0 disables throttling
	Burst         int
}

// DefaultConfig returns the settings used by the scout binary.
func DefaultConfig() Config {
	return Config{
		BatchSize:     50,
		FlushInterval: 5 * time.Second,
		BufferSize:    1024,
		RatePerSecond: 20,
		Burst:         40,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.BatchSize <= 0 {
		c.BatchSize = d.BatchSize
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = d.FlushInterval
	}
	if c.BufferSize <= 0 {
		c.BufferSize = d.BufferSize
	}
	if c.Burst <= 0 {
		c.Burst = d.Burst
	}
	return c
}

// Service batches events and writes them to a sink as JSONL.
type Service struct {
	cfg       Config
	sink      io.Writer
	logger    *log.Logger
	limiter   *rate.Limiter // nil when throttling is disabled
	sessionID string
	ch        chan Event

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}

	stopped atomic.Bool
	sent    atomic.Uint64
	dropped atomic.Uint64
}

// NewService creates a stopped Service writing to sink. A nil logger
// discards warnings.
func NewService(sink io.Writer, cfg Config, logger *log.Logger) *Service {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Service{
		cfg:       cfg,
		sink:      sink,
		logger:    logger,
		sessionID: uuid.NewString(),
		ch:        make(chan Event, cfg.BufferSize),
		done:      make(chan struct{}),
	}
	if cfg.RatePerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst)
	}
	return s
}

// SessionID identifies this run in every event.
func (s *Service) SessionID() string {
	return s.sessionID
}

// Start launches the flush goroutine. Events tracked before Start are
// buffered. Calling Start twice, or after Stop, does nothing.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started || s.stopped.Load() {
		return
	}
	s.started = true
	ctx, s.cancel = context.WithCancel(ctx)
	go s.run(ctx)
}

// Track queues e without blocking. Events are dropped when the service is
// stopped, the rate limit is exceeded, or the buffer is full.
func (s *Service) Track(e Event) {
	if s.stopped.Load() {
		s.dropped.Add(1)
		return
	}
	if s.limiter != nil && !s.limiter.Allow() {
		s.dropped.Add(1)
		return
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	e.SessionID = s.sessionID
	e.Extra = copyExtra(e.Extra)

	select {
	case s.ch <- e:
	default:
		s.dropped.Add(1)
	}
}

// Stop flushes buffered events and waits for the flush goroutine to exit.
// Safe to call more than once. Without Start, events tracked so far are
// written directly.
func (s *Service) Stop() {
	s.stopped.Store(true)

	s.mu.Lock()
	started, cancel := s.started, s.cancel
	s.cancel = nil
	if !started {
		// Never started: write what was buffered on the caller's goroutine.
		s.flush(s.drainLocked())
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	<-s.done
}

// drainLocked empties the buffer without blocking. s.mu must be held.
func (s *Service) drainLocked() []Event {
	var batch []Event
	for {
		select {
		case e := <-s.ch:
			batch = append(batch, e)
		default:
			return batch
		}
	}
}

// Sent returns the number of events written to the sink.
func (s *Service) Sent() uint64 {
	return s.sent.Load()
}

// Dropped returns the number of events discarded.
func (s *Service) Dropped() uint64 {
	return s.dropped.Load()
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.cfg.FlushInterval)
	defer ticker.Stop()

	batch := make([]Event, 0, s.cfg.BatchSize)
	for {
		select {
		case e := <-s.ch:
			batch = append(batch, e)
			if len(batch) >= s.cfg.BatchSize {
				batch = s.flush(batch)
			}
		case <-ticker.C:
			batch = s.flush(batch)
		case <-ctx.Done():
			for {
				select {
				case e := <-s.ch:
					batch = append(batch, e)
				default:
					s.flush(batch)
					return
				}
			}
		}
	}
}

// flush writes batch in a single Write and returns it emptied.
func (s *Service) flush(batch []Event) []Event {
	if len(batch) == 0 {
		return batch
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	n := 0
	for _, e := range batch {
		if err := enc.Encode(e); err != nil {
			s.dropped.Add(1)
			continue
		}
		n++
	}

	if _, err := s.sink.Write(buf.Bytes()); err != nil {
		s.dropped.Add(uint64(n))
		s.logger.Warn("analytics flush failed", "events", n, "err", err)
	} else {
		s.sent.Add(uint64(n))
	}
	return batch[:0]
}

// Package hooks fans IConsumerObserver callbacks out to any number of
// registered observers, decoupling slow sinks (shell scripts, webhooks)
// from the receiver's single-goroutine dispatcher.
package hooks

import (
	"log/slog"
	"sync"

	"github.com/ndnrtc-go/receiver/internal/ndnrtc/observer"
)

// Config governs how the manager runs registered observers.
type Config struct {
	// Concurrency bounds how many observer callbacks may be in flight at
	// once. Zero selects a sensible default.
	Concurrency int
}

// DefaultConfig returns the manager's default concurrency bound.
func DefaultConfig() Config { return Config{Concurrency: 10} }

// Manager implements observer.IConsumerObserver itself, fanning every
// call out to its registered observers on a bounded worker pool. Each
// observer call runs on its own goroutine; when Concurrency calls are
// already in flight, the caller blocks until one of them finishes.
type Manager struct {
	mu        sync.RWMutex
	observers []observer.IConsumerObserver
	pool      chan struct{}
	logger    *slog.Logger
}

// NewManager builds a Manager with the given concurrency bound.
func NewManager(cfg Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConfig().Concurrency
	}
	return &Manager{
		pool:   make(chan struct{}, cfg.Concurrency),
		logger: logger,
	}
}

// Register adds an observer to the fan-out set.
func (m *Manager) Register(o observer.IConsumerObserver) {
	if o == nil {
		return
	}
	m.mu.Lock()
	m.observers = append(m.observers, o)
	m.mu.Unlock()
}

func (m *Manager) snapshot() []observer.IConsumerObserver {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]observer.IConsumerObserver, len(m.observers))
	copy(out, m.observers)
	return out
}

func (m *Manager) dispatch(label string, fn func(observer.IConsumerObserver)) {
	for _, o := range m.snapshot() {
		o := o
		m.pool <- struct{}{}
		go func() {
			defer func() { <-m.pool }()
			defer func() {
				if r := recover(); r != nil {
					m.logger.Error("hook observer panicked", "hook", label, "recover", r)
				}
			}()
			fn(o)
		}()
	}
}

func (m *Manager) OnStatusChanged(status observer.Status) {
	m.dispatch("status_changed", func(o observer.IConsumerObserver) { o.OnStatusChanged(status) })
}

func (m *Manager) OnRebuffering() {
	m.dispatch("rebuffering", func(o observer.IConsumerObserver) { o.OnRebuffering() })
}

func (m *Manager) OnPlaybackEvent(kind observer.PlaybackEventKind, seqNo uint32) {
	m.dispatch("playback_event", func(o observer.IConsumerObserver) { o.OnPlaybackEvent(kind, seqNo) })
}

func (m *Manager) OnThreadSwitched(name string) {
	m.dispatch("thread_switched", func(o observer.IConsumerObserver) { o.OnThreadSwitched(name) })
}

var _ observer.IConsumerObserver = (*Manager)(nil)

package journal

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mcoot/matchlobby/internal/model"
	"github.com/mcoot/matchlobby/internal/services/broker"
	"github.com/mcoot/matchlobby/internal/storage"
)

// Config holds journal settings
type Config struct {
	// BufferSize bounds the number of pairings waiting to be saved
	BufferSize int
	// SaveTimeout bounds a single write to the store
	SaveTimeout time.Duration
}

// DefaultConfig returns the default journal configuration
func DefaultConfig() Config {
	return Config{
		BufferSize:  256,
		SaveTimeout: 5 * time.Second,
	}
}

// Journal writes completed pairings to a PairingStore off the broker loop
type Journal struct {
	cfg     Config
	store   storage.PairingStore
	logger  *slog.Logger
	entries chan model.Pairing

	// mu orders Record against Stop so nothing is queued after the flush
	mu      sync.RWMutex
	stopped bool
	done    chan struct{}
	exited  chan struct{}
	started atomic.Bool
	dropped atomic.Int64

	startOnce sync.Once
	stopOnce  sync.Once
}

// Ensure Journal implements broker.PairingRecorder
var _ broker.PairingRecorder = (*Journal)(nil)

// New creates a Journal backed by store
func New(cfg Config, store storage.PairingStore, logger *slog.Logger) *Journal {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}
	if cfg.SaveTimeout <= 0 {
		cfg.SaveTimeout = DefaultConfig().SaveTimeout
	}
	return &Journal{
		cfg:     cfg,
		store:   store,
		logger:  logger.With(slog.String("component", "journal")),
		entries: make(chan model.Pairing, cfg.BufferSize),
		done:    make(chan struct{}),
		exited:  make(chan struct{}),
	}
}

// Start launches the writer goroutine
func (j *Journal) Start() {
	j.startOnce.Do(func() {
		j.started.Store(true)
		go j.run()
	})
}

// Stop flushes buffered pairings and waits for the writer to exit
func (j *Journal) Stop() {
	j.stopOnce.Do(func() {
		j.mu.Lock()
		j.stopped = true
		close(j.done)
		j.mu.Unlock()
		if j.started.Load() {
			<-j.exited
		}
	})
}

func (j *Journal) run() {
	defer close(j.exited)
	j.logger.Info("journal started", slog.Int("buffer_size", j.cfg.BufferSize))

	for {
		select {
		case p := <-j.entries:
			j.save(p)
		case <-j.done:
			flushed := 0
			for {
				select {
				case p := <-j.entries:
					j.save(p)
					flushed++
				default:
					j.logger.Info("journal stopped",
						slog.Int("flushed", flushed),
						slog.Int64("dropped", j.dropped.Load()))
					return
				}
			}
		}
	}
}

func (j *Journal) save(p model.Pairing) {
	ctx, cancel := context.WithTimeout(context.Background(), j.cfg.SaveTimeout)
	defer cancel()

	if err := j.store.SavePairing(ctx, &p); err != nil {
		j.logger.Error("failed to save pairing",
			slog.String("match_id", string(p.MatchID)),
			slog.String("error", err.Error()))
		return
	}
	j.logger.Debug("pairing saved", slog.String("match_id", string(p.MatchID)))
}

// Record queues a pairing for saving. It never blocks. A pairing is either
// queued and saved by the writer or counted in Dropped, including when
// Record races with Stop.
func (j *Journal) Record(p model.Pairing) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	if j.stopped {
		j.drop(p, "journal stopped")
		return
	}

	select {
	case j.entries <- p:
	default:
		j.drop(p, "journal buffer full")
	}
}

func (j *Journal) drop(p model.Pairing, reason string) {
	j.dropped.Add(1)
	j.logger.Warn("pairing dropped",
		slog.String("match_id", string(p.MatchID)),
		slog.String("reason", reason))
}

// Dropped returns the number of pairings that were never queued
func (j *Journal) Dropped() int64 {
	return j.dropped.Load()
}

// List returns up to limit saved pairings, newest first
func (j *Journal) List(ctx context.Context, limit int) ([]*model.Pairing, error) {
	return j.store.ListPairings(ctx, limit)
}

// Get returns the saved pairing for a match
func (j *Journal) Get(ctx context.Context, id model.MatchID) (*model.Pairing, error) {
	return j.store.GetPairing(ctx, id)
}

// Package syncer orchestrates per-store ingestion: it fans adapters out in
// parallel, serializes their batches through a single writer per store, and
// reports a per-source summary. Stores sync independently of each other.
package syncer

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vironax/adinsights/internal/adapter"
	"github.com/vironax/adinsights/internal/config"
	"github.com/vironax/adinsights/internal/domain"
	"github.com/vironax/adinsights/internal/factstore"
	"github.com/vironax/adinsights/internal/pkg/distlock"
	"github.com/vironax/adinsights/internal/pkg/logger"
)

// SourceSummary is the per-adapter slice of a sync summary.
type SourceSummary struct {
	Inserted int    `json:"inserted"`
	Updated  int    `json:"updated"`
	Skipped  int    `json:"skipped"`
	Errors   int    `json:"errors"`
	ErrKind  string `json:"err_kind,omitempty"`
}

// Summary is the result of one per-store sync run.
type Summary struct {
	StoreID    string                    `json:"store_id"`
	Window     domain.Window             `json:"-"`
	StartDate  string                    `json:"start_date"`
	EndDate    string                    `json:"end_date"`
	StartedAt  time.Time                 `json:"started_at"`
	DurationMS int64                     `json:"duration_ms"`
	Sources    map[string]*SourceSummary `json:"sources"`
}

func (s *Summary) source(name string) *SourceSummary {
	if s.Sources[name] == nil {
		s.Sources[name] = &SourceSummary{}
	}
	return s.Sources[name]
}

// Failed reports whether any source recorded an error.
func (s *Summary) Failed() bool {
	for _, src := range s.Sources {
		if src.Errors > 0 {
			return true
		}
	}
	return false
}

// ErrLocked is returned when another instance holds the store's sync lock.
var ErrLocked = fmt.Errorf("store sync already running elsewhere")

// LockFactory builds a distributed lock for one store's sync run. A nil
// factory means single-instance deployment, no locking.
type LockFactory func(storeID string) distlock.DistLock

// Syncer runs ingestion for a set of stores.
type Syncer struct {
	cfg      config.SyncConfig
	stores   []domain.Store
	adapters []adapter.SourceAdapter
	writer   factstore.Writer
	notifier *Notifier
	locks    LockFactory
}

// New creates a Syncer. notifier may be nil when no Redis is wired (tests).
func New(cfg config.SyncConfig, stores []domain.Store, adapters []adapter.SourceAdapter, writer factstore.Writer, notifier *Notifier) *Syncer {
	return &Syncer{
		cfg:      cfg,
		stores:   stores,
		adapters: adapters,
		writer:   writer,
		notifier: notifier,
	}
}

// SetLocks installs a distributed-lock factory so concurrent deployments
// do not sync the same store twice.
func (s *Syncer) SetLocks(f LockFactory) { s.locks = f }

// DefaultWindow returns the sliding window the scheduled loop syncs.
func (s *Syncer) DefaultWindow(now time.Time) domain.Window {
	days := s.cfg.WindowDays
	if days <= 0 {
		days = 30
	}
	return domain.LastNDays(now, days)
}

// Run executes the scheduled loop until ctx is done. Each tick syncs every
// store over the default window.
func (s *Syncer) Run(ctx context.Context) {
	interval := s.cfg.Interval()
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("sync loop started", "interval", interval.String(), "stores", len(s.stores))
	s.SyncAll(ctx)
	for {
		select {
		case <-ctx.Done():
			logger.Info("sync loop stopped")
			return
		case <-ticker.C:
			s.SyncAll(ctx)
		}
	}
}

// SyncAll syncs every configured store in parallel over the default window.
func (s *Syncer) SyncAll(ctx context.Context) {
	w := s.DefaultWindow(time.Now())
	g, gctx := errgroup.WithContext(ctx)
	for _, store := range s.stores {
		store := store
		g.Go(func() error {
			runCtx, cancel := context.WithTimeout(gctx, s.syncTimeout())
			defer cancel()
			if _, err := s.SyncStore(runCtx, store, w); err != nil {
				logger.Error("store sync failed", "store", store.ID, "error", err.Error())
			}
			return nil
		})
	}
	g.Wait()
}

func (s *Syncer) syncTimeout() time.Duration {
	if t := s.cfg.Timeout(); t > 0 {
		return t
	}
	return 10 * time.Minute
}

// batchSize caps the rows handed to one upsert statement.
func (s *Syncer) batchSize() int {
	if s.cfg.BatchSize > 0 {
		return s.cfg.BatchSize
	}
	return 500
}

// chunk splits rows into slices of at most n.
func chunk[T any](rows []T, n int) [][]T {
	var out [][]T
	for len(rows) > n {
		out = append(out, rows[:n])
		rows = rows[n:]
	}
	if len(rows) > 0 {
		out = append(out, rows)
	}
	return out
}

// writeJob pairs a batch with its originating source so the writer can
// attribute counts.
type writeJob struct {
	source string
	batch  adapter.Batch
}

// SyncStore runs every adapter for one store over the window. Adapters fetch
// in parallel; a single writer goroutine applies their batches in submission
// order so no two writes for the store race. An adapter failure is recorded
// in the summary and does not stop the other adapters.
func (s *Syncer) SyncStore(ctx context.Context, store domain.Store, w domain.Window) (*Summary, error) {
	if s.locks != nil {
		lock := s.locks(store.ID)
		ok, err := lock.Acquire(ctx)
		if err != nil {
			return nil, fmt.Errorf("acquire sync lock for store %s: %w", store.ID, err)
		}
		if !ok {
			return nil, ErrLocked
		}
		defer func() {
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
				logger.Warn("sync lock release failed", "store", store.ID, "error", err.Error())
			}
		}()
	}

	started := time.Now()
	summary := &Summary{
		StoreID:   store.ID,
		Window:    w,
		StartDate: w.StartDate(),
		EndDate:   w.EndDate(),
		StartedAt: started.UTC(),
		Sources:   map[string]*SourceSummary{},
	}

	queue := s.cfg.WriterQueueBatches
	if queue <= 0 {
		queue = 5
	}
	jobs := make(chan writeJob, queue)

	// Writer: the only goroutine touching the fact store for this run.
	results := make(map[string]factstore.UpsertResult)
	var newOrders []domain.OrderEvent
	writerDone := make(chan error, 1)
	go func() {
		writerDone <- s.drain(ctx, jobs, results, &newOrders)
	}()

	// Adapters fan out; errors land in the summary, not in the group, so a
	// broken source never cancels a healthy one.
	var g errgroup.Group
	for _, a := range s.adapters {
		a := a
		g.Go(func() error {
			if err := s.runAdapter(ctx, a, store, w, jobs); err != nil {
				src := summary.source(a.Name())
				src.Errors++
				src.ErrKind = string(adapter.KindOf(err))
				adapterErrors.WithLabelValues(a.Name(), string(adapter.KindOf(err))).Inc()
				logger.Warn("adapter failed",
					"store", store.ID, "source", a.Name(),
					"kind", string(adapter.KindOf(err)), "error", err.Error())
			}
			return nil
		})
	}
	g.Wait()
	close(jobs)

	writeErr := <-writerDone
	for source, res := range results {
		src := summary.source(source)
		src.Inserted += res.Inserted
		src.Updated += res.Updated
		src.Skipped += res.Skipped
		rowsUpserted.WithLabelValues(store.ID, source, "inserted").Add(float64(res.Inserted))
		rowsUpserted.WithLabelValues(store.ID, source, "updated").Add(float64(res.Updated))
		rowsUpserted.WithLabelValues(store.ID, source, "skipped").Add(float64(res.Skipped))
	}

	summary.DurationMS = time.Since(started).Milliseconds()
	syncDuration.WithLabelValues(store.ID).Observe(time.Since(started).Seconds())

	if writeErr != nil {
		return summary, fmt.Errorf("apply batches for store %s: %w", store.ID, writeErr)
	}

	if s.notifier != nil {
		if err := s.notifier.Record(ctx, store, newOrders); err != nil {
			logger.Warn("notification record failed", "store", store.ID, "error", err.Error())
		}
		if err := s.notifier.SaveSummary(ctx, summary); err != nil {
			logger.Warn("summary cache failed", "store", store.ID, "error", err.Error())
		}
	}

	logger.Info("store sync finished",
		"store", store.ID, "window", w.StartDate()+".."+w.EndDate(),
		"duration_ms", summary.DurationMS, "failed", summary.Failed())
	return summary, nil
}

// runAdapter pumps one adapter's stream into the shared writer queue.
func (s *Syncer) runAdapter(ctx context.Context, a adapter.SourceAdapter, store domain.Store, w domain.Window, jobs chan<- writeJob) error {
	stream := a.Fetch(ctx, store, w)
	for b := range stream.Batches() {
		select {
		case jobs <- writeJob{source: a.Name(), batch: b}:
		case <-ctx.Done():
			// Drain so the adapter's Emit unblocks and its goroutine exits.
			go func() {
				for range stream.Batches() {
				}
			}()
			return ctx.Err()
		}
	}
	return stream.Err()
}

// drain applies queued batches one at a time, in arrival order.
func (s *Syncer) drain(ctx context.Context, jobs <-chan writeJob, results map[string]factstore.UpsertResult, newOrders *[]domain.OrderEvent) error {
	var firstErr error
	for job := range jobs {
		if firstErr != nil {
			continue // keep consuming so producers don't block
		}
		res, err := s.apply(ctx, job.batch)
		if err != nil {
			firstErr = err
			continue
		}
		agg := results[job.source]
		agg.Add(res)
		results[job.source] = agg
		*newOrders = append(*newOrders, res.NewOrders...)
	}
	return firstErr
}

func (s *Syncer) apply(ctx context.Context, b adapter.Batch) (factstore.UpsertResult, error) {
	var total factstore.UpsertResult
	size := s.batchSize()
	for _, rows := range chunk(b.Campaigns, size) {
		res, err := s.writer.UpsertCampaignBatch(ctx, rows)
		if err != nil {
			return total, err
		}
		total.Add(res)
	}
	for _, rows := range chunk(b.Spend, size) {
		res, err := s.writer.UpsertSpendBatch(ctx, rows)
		if err != nil {
			return total, err
		}
		total.Add(res)
	}
	for _, rows := range chunk(b.Orders, size) {
		res, err := s.writer.UpsertOrderBatch(ctx, rows)
		if err != nil {
			return total, err
		}
		total.Add(res)
	}
	return total, nil
}

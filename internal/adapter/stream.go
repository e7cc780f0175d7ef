package adapter

import (
	"context"
	"sync"

	"github.com/vironax/adinsights/internal/domain"
)

// DefaultBatchSize bounds how many facts an adapter may put in one batch.
const DefaultBatchSize = 500

// Batch is one bounded chunk of normalized facts. An adapter fills whichever
// slices apply to its source; the orchestrator routes each to the matching
// upsert.
type Batch struct {
	Spend     []domain.AdSpendRow
	Orders    []domain.OrderEvent
	Campaigns []domain.CampaignDim
}

// Len returns the total fact count across all slices.
func (b Batch) Len() int {
	return len(b.Spend) + len(b.Orders) + len(b.Campaigns)
}

// Stream is a lazy sequence of batches produced by an adapter Fetch.
// Consumers range over Batches() and then check Err(); Err is only valid
// once Batches() is closed.
type Stream struct {
	ch  chan Batch
	err error
}

// Batches returns the receive side of the stream.
func (s *Stream) Batches() <-chan Batch { return s.ch }

// Err returns the terminal error, if any. Call only after Batches() closes.
func (s *Stream) Err() error { return s.err }

// Emitter is the producer side of a Stream. Emit blocks when the consumer
// is behind (the channel buffer is the backpressure bound).
type Emitter struct {
	s       *Stream
	closeCh sync.Once
}

// NewStream creates a connected Stream/Emitter pair. buffer is the number of
// in-flight batches allowed before Emit blocks.
func NewStream(buffer int) (*Stream, *Emitter) {
	if buffer <= 0 {
		buffer = 1
	}
	s := &Stream{ch: make(chan Batch, buffer)}
	return s, &Emitter{s: s}
}

// Emit sends a batch, honoring cancellation.
func (e *Emitter) Emit(ctx context.Context, b Batch) error {
	if b.Len() == 0 {
		return nil
	}
	select {
	case e.s.ch <- b:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close terminates the stream with err (nil on success). Safe to call once;
// must be called after the final Emit.
func (e *Emitter) Close(err error) {
	e.closeCh.Do(func() {
		e.s.err = err
		close(e.s.ch)
	})
}

// SourceAdapter is implemented by every external system the service pulls
// from. Fetch must be idempotent: the same store and window always yield
// facts with the same natural keys.
type SourceAdapter interface {
	// Name identifies the adapter in sync summaries ("meta", "shopify", "salla").
	Name() string

	// Fetch starts the pull and returns immediately; facts arrive on the
	// stream as pages are fetched. Pagination and rate-limit backoff are
	// the adapter's problem, cancellation is the caller's.
	Fetch(ctx context.Context, store domain.Store, window domain.Window) *Stream
}

package factstore

import (
	"context"
	"time"

	"github.com/vironax/adinsights/internal/domain"
)

// UpsertResult summarizes one batch write. Inserted counts brand-new natural
// keys, Updated counts replaced rows, Skipped counts rows dropped before the
// write (validation).
type UpsertResult struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Skipped  int `json:"skipped"`

	// NewOrders carries the order events that were genuine inserts, for
	// new-order notification diffing. Only populated by UpsertOrderBatch.
	NewOrders []domain.OrderEvent `json:"-"`
}

// Add folds another result into r.
func (r *UpsertResult) Add(o UpsertResult) {
	r.Inserted += o.Inserted
	r.Updated += o.Updated
	r.Skipped += o.Skipped
	r.NewOrders = append(r.NewOrders, o.NewOrders...)
}

// Writer is the upsert API the sync orchestrator writes through. All writes
// are idempotent on natural key; re-ingestion replaces the row and refreshes
// ingested_at, preserving rows from other sources.
type Writer interface {
	UpsertSpendBatch(ctx context.Context, rows []domain.AdSpendRow) (UpsertResult, error)
	UpsertOrderBatch(ctx context.Context, rows []domain.OrderEvent) (UpsertResult, error)
	UpsertCampaignBatch(ctx context.Context, rows []domain.CampaignDim) (UpsertResult, error)
}

// ManualWriter is the CRUD surface for operator-entered facts.
type ManualWriter interface {
	UpsertManualOrder(ctx context.Context, o domain.ManualOrder) error
	DeleteManualOrder(ctx context.Context, storeID, id string) error
	ReplaceManualOverride(ctx context.Context, o domain.SpendOverride) error
	DeleteManualOverride(ctx context.Context, storeID, id string) error
}

// SpendFilter narrows spend reads. The zero value returns every row in the
// window. Dimension selects rows whose tuple matches a breakdown shape:
// "" (all rows), "total" (the unbrokendown rows), "country", "age",
// "gender", "age_gender", "placement".
type SpendFilter struct {
	CampaignID string
	Country    string
	Dimension  string
	SourceTags []domain.SourceTag
}

// Reader is the query API the reconciliation and aggregation layers read
// through. Readers take no locks and observe whatever is committed.
type Reader interface {
	SpendRows(ctx context.Context, storeID string, w domain.Window, f SpendFilter) ([]domain.AdSpendRow, error)
	OrderDaily(ctx context.Context, storeID string, w domain.Window) ([]domain.OrderDaily, error)
	OrderEvents(ctx context.Context, storeID string, w domain.Window) ([]domain.OrderEvent, error)
	ManualOrders(ctx context.Context, storeID string, w domain.Window) ([]domain.ManualOrder, error)
	SpendOverrides(ctx context.Context, storeID string, w domain.Window) ([]domain.SpendOverride, error)
	Campaigns(ctx context.Context, storeID string) ([]domain.CampaignDim, error)

	// SourceFreshness reports the most recent ingested_at per source tag /
	// platform, for the dashboard diagnostics block.
	SourceFreshness(ctx context.Context, storeID string) (map[string]time.Time, error)
}

// Admin holds the operator maintenance operations.
type Admin interface {
	// ClearStoreMetaData transactionally deletes every fact whose source_tag
	// begins with "meta_" and returns the number of rows removed.
	ClearStoreMetaData(ctx context.Context, storeID string) (int64, error)
}

// Store is the full fact-store surface.
type Store interface {
	Writer
	ManualWriter
	Reader
	Admin
}

package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/vironax/adinsights/internal/domain"
)

const (
	hwmKeyFmt     = "orders:hwm:%s"
	notifyKeyFmt  = "notify:%s"
	summaryKeyFmt = "sync:summary:%s"

	notifyKeep = 200
	summaryTTL = 24 * time.Hour
)

// Notifier persists new-order notifications, the per-store high-water mark,
// and the latest sync summary in Redis.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier wraps a Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Record diffs freshly inserted orders against the store's high-water mark
// and pushes a notification per order past the mark. The mark is the latest
// order date ever notified for the store; inserts behind it are backfill and
// stay silent. The first sync for a store only establishes the mark.
func (n *Notifier) Record(ctx context.Context, store domain.Store, inserted []domain.OrderEvent) error {
	if len(inserted) == 0 {
		return nil
	}

	hwmKey := fmt.Sprintf(hwmKeyFmt, store.ID)
	mark, err := n.rdb.Get(ctx, hwmKey).Result()
	initial := errors.Is(err, redis.Nil)
	if err != nil && !initial {
		return fmt.Errorf("read high-water mark: %w", err)
	}

	maxDate := mark
	notifyKey := fmt.Sprintf(notifyKeyFmt, store.ID)
	for _, o := range inserted {
		if o.Date > maxDate {
			maxDate = o.Date
		}
		if initial || o.Date < mark {
			continue
		}
		note := domain.Notification{
			ID:        uuid.NewString(),
			StoreID:   store.ID,
			Platform:  o.SourcePlatform,
			OrderID:   o.OrderID,
			Country:   o.Country,
			Revenue:   o.Revenue,
			CreatedAt: time.Now().UTC(),
		}
		payload, merr := json.Marshal(note)
		if merr != nil {
			return fmt.Errorf("encode notification: %w", merr)
		}
		if err := n.rdb.LPush(ctx, notifyKey, payload).Err(); err != nil {
			return fmt.Errorf("push notification: %w", err)
		}
	}
	if err := n.rdb.LTrim(ctx, notifyKey, 0, notifyKeep-1).Err(); err != nil {
		return fmt.Errorf("trim notifications: %w", err)
	}

	if maxDate != mark {
		if err := n.rdb.Set(ctx, hwmKey, maxDate, 0).Err(); err != nil {
			return fmt.Errorf("advance high-water mark: %w", err)
		}
	}
	return nil
}

// Recent returns up to limit notifications, newest first.
func (n *Notifier) Recent(ctx context.Context, storeID string, limit int) ([]domain.Notification, error) {
	if limit <= 0 || limit > notifyKeep {
		limit = notifyKeep
	}
	raw, err := n.rdb.LRange(ctx, fmt.Sprintf(notifyKeyFmt, storeID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read notifications: %w", err)
	}
	notes := make([]domain.Notification, 0, len(raw))
	for _, item := range raw {
		var note domain.Notification
		if err := json.Unmarshal([]byte(item), &note); err != nil {
			continue
		}
		notes = append(notes, note)
	}
	return notes, nil
}

// SaveSummary caches the latest sync summary for the dashboard diagnostics.
func (n *Notifier) SaveSummary(ctx context.Context, s *Summary) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	key := fmt.Sprintf(summaryKeyFmt, s.StoreID)
	if err := n.rdb.Set(ctx, key, payload, summaryTTL).Err(); err != nil {
		return fmt.Errorf("cache summary: %w", err)
	}
	return nil
}

// LastSummary returns the cached summary for the store, or nil when none.
func (n *Notifier) LastSummary(ctx context.Context, storeID string) (*Summary, error) {
	raw, err := n.rdb.Get(ctx, fmt.Sprintf(summaryKeyFmt, storeID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cached summary: %w", err)
	}
	var s Summary
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("decode cached summary: %w", err)
	}
	return &s, nil
}

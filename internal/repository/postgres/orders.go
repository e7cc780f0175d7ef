package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vironax/adinsights/internal/domain"
	"github.com/vironax/adinsights/internal/factstore"
)

// UpsertOrderBatch writes order events keyed by (store, platform, order_id).
// Genuine inserts are collected into NewOrders for the orchestrator's
// new-order notification diff.
func (r *Repo) UpsertOrderBatch(ctx context.Context, rows []domain.OrderEvent) (factstore.UpsertResult, error) {
	var res factstore.UpsertResult
	if len(rows) == 0 {
		return res, nil
	}

	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, row := range rows {
			if row.StoreID == "" || row.OrderID == "" || row.Date == "" || row.SourcePlatform == "" {
				res.Skipped++
				continue
			}
			var hour sql.NullInt64
			if row.Hour != nil {
				hour = sql.NullInt64{Int64: int64(*row.Hour), Valid: true}
			}
			var inserted bool
			err := tx.QueryRowContext(ctx, `
				INSERT INTO order_event
					(store_id, source_platform, order_id, date, hour,
					 country, region, city, revenue, currency, ingested_at)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW())
				ON CONFLICT (store_id, source_platform, order_id)
				DO UPDATE SET
					date = EXCLUDED.date,
					hour = EXCLUDED.hour,
					country = EXCLUDED.country,
					region = EXCLUDED.region,
					city = EXCLUDED.city,
					revenue = EXCLUDED.revenue,
					currency = EXCLUDED.currency,
					ingested_at = NOW()
				RETURNING (xmax = 0)
			`, row.StoreID, row.SourcePlatform, row.OrderID, row.Date, hour,
				row.Country, row.Region, row.City, row.Revenue, row.Currency,
			).Scan(&inserted)
			if err != nil {
				return fmt.Errorf("upsert order %s/%s: %w", row.StoreID, row.OrderID, err)
			}
			if inserted {
				res.Inserted++
				res.NewOrders = append(res.NewOrders, row)
			} else {
				res.Updated++
			}
		}
		return nil
	})
	if err != nil {
		return factstore.UpsertResult{}, err
	}
	return res, nil
}

// OrderDaily returns the per-(date, country, platform) rollup of order
// events in the window.
func (r *Repo) OrderDaily(ctx context.Context, storeID string, w domain.Window) ([]domain.OrderDaily, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT TO_CHAR(date, 'YYYY-MM-DD'), country, source_platform,
		       COUNT(*), COALESCE(SUM(revenue), 0)
		FROM order_event
		WHERE store_id = $1 AND date BETWEEN $2 AND $3
		GROUP BY date, country, source_platform
		ORDER BY date, country
	`, storeID, w.StartDate(), w.EndDate())
	if err != nil {
		return nil, fmt.Errorf("query order daily: %w", err)
	}
	defer rows.Close()

	var out []domain.OrderDaily
	for rows.Next() {
		d := domain.OrderDaily{StoreID: storeID}
		if err := rows.Scan(&d.Date, &d.Country, &d.SourcePlatform, &d.OrderCount, &d.Revenue); err != nil {
			return nil, fmt.Errorf("scan order daily: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// OrderEvents returns raw order events in the window, for the time-of-day
// and day-of-week views.
func (r *Repo) OrderEvents(ctx context.Context, storeID string, w domain.Window) ([]domain.OrderEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT store_id, source_platform, order_id, TO_CHAR(date, 'YYYY-MM-DD'),
		       hour, country, region, city, revenue, currency, ingested_at
		FROM order_event
		WHERE store_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date, order_id
	`, storeID, w.StartDate(), w.EndDate())
	if err != nil {
		return nil, fmt.Errorf("query order events: %w", err)
	}
	defer rows.Close()

	var out []domain.OrderEvent
	for rows.Next() {
		var e domain.OrderEvent
		var hour sql.NullInt64
		if err := rows.Scan(
			&e.StoreID, &e.SourcePlatform, &e.OrderID, &e.Date,
			&hour, &e.Country, &e.Region, &e.City, &e.Revenue, &e.Currency, &e.IngestedAt,
		); err != nil {
			return nil, fmt.Errorf("scan order event: %w", err)
		}
		if hour.Valid {
			h := int(hour.Int64)
			e.Hour = &h
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// SourceFreshness reports the latest ingested_at per spend source tag and
// per order platform, for the diagnostics block.
func (r *Repo) SourceFreshness(ctx context.Context, storeID string) (map[string]time.Time, error) {
	out := make(map[string]time.Time)

	rows, err := r.db.QueryContext(ctx, `
		SELECT source_tag, MAX(ingested_at) FROM ad_spend_daily
		WHERE store_id = $1 GROUP BY source_tag
	`, storeID)
	if err != nil {
		return nil, fmt.Errorf("query spend freshness: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var tag string
		var ts time.Time
		if err := rows.Scan(&tag, &ts); err != nil {
			return nil, fmt.Errorf("scan spend freshness: %w", err)
		}
		out[tag] = ts
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	orows, err := r.db.QueryContext(ctx, `
		SELECT source_platform, MAX(ingested_at) FROM order_event
		WHERE store_id = $1 GROUP BY source_platform
	`, storeID)
	if err != nil {
		return nil, fmt.Errorf("query order freshness: %w", err)
	}
	defer orows.Close()
	for orows.Next() {
		var platform string
		var ts time.Time
		if err := orows.Scan(&platform, &ts); err != nil {
			return nil, fmt.Errorf("scan order freshness: %w", err)
		}
		out[platform] = ts
	}
	return out, orows.Err()
}

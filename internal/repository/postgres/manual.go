package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/vironax/adinsights/internal/domain"
	"github.com/vironax/adinsights/internal/factstore"
)

// UpsertManualOrder inserts or replaces an operator-entered order fact.
// Concurrent edits to the same row are last-write-wins.
func (r *Repo) UpsertManualOrder(ctx context.Context, o domain.ManualOrder) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	var spend sql.NullFloat64
	if o.Spend != nil {
		spend = sql.NullFloat64{Float64: *o.Spend, Valid: true}
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO manual_order
			(id, store_id, date, country, campaign_id, orders_count,
			 revenue, spend, source_label, notes, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW())
		ON CONFLICT (id) DO UPDATE SET
			date = EXCLUDED.date,
			country = EXCLUDED.country,
			campaign_id = EXCLUDED.campaign_id,
			orders_count = EXCLUDED.orders_count,
			revenue = EXCLUDED.revenue,
			spend = EXCLUDED.spend,
			source_label = EXCLUDED.source_label,
			notes = EXCLUDED.notes
	`, o.ID, o.StoreID, o.Date, o.Country, o.CampaignID, o.OrdersCount,
		o.Revenue, spend, o.SourceLabel, o.Notes)
	if err != nil {
		return fmt.Errorf("upsert manual order: %w", err)
	}
	return nil
}

// DeleteManualOrder removes an operator-entered order fact.
func (r *Repo) DeleteManualOrder(ctx context.Context, storeID, id string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM manual_order WHERE id = $1 AND store_id = $2
	`, id, storeID)
	if err != nil {
		return fmt.Errorf("delete manual order: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return factstore.ErrNotFound
	}
	return nil
}

// ManualOrders returns operator-entered orders in the window.
func (r *Repo) ManualOrders(ctx context.Context, storeID string, w domain.Window) ([]domain.ManualOrder, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, store_id, TO_CHAR(date, 'YYYY-MM-DD'), country, campaign_id,
		       orders_count, revenue, spend, source_label, notes, created_at
		FROM manual_order
		WHERE store_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date, created_at
	`, storeID, w.StartDate(), w.EndDate())
	if err != nil {
		return nil, fmt.Errorf("query manual orders: %w", err)
	}
	defer rows.Close()

	var out []domain.ManualOrder
	for rows.Next() {
		var m domain.ManualOrder
		var spend sql.NullFloat64
		if err := rows.Scan(
			&m.ID, &m.StoreID, &m.Date, &m.Country, &m.CampaignID,
			&m.OrdersCount, &m.Revenue, &spend, &m.SourceLabel, &m.Notes, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan manual order: %w", err)
		}
		if spend.Valid {
			v := spend.Float64
			m.Spend = &v
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ReplaceManualOverride inserts or replaces the spend override for the
// (store, date, country) cell. Exactly one override resolves per cell.
func (r *Repo) ReplaceManualOverride(ctx context.Context, o domain.SpendOverride) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO manual_spend_override
			(id, store_id, date, country, amount, notes, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,NOW())
		ON CONFLICT (store_id, date, country) DO UPDATE SET
			amount = EXCLUDED.amount,
			notes = EXCLUDED.notes
	`, o.ID, o.StoreID, o.Date, o.Country, o.Amount, o.Notes)
	if err != nil {
		return fmt.Errorf("replace spend override: %w", err)
	}
	return nil
}

// DeleteManualOverride removes a spend override by ID.
func (r *Repo) DeleteManualOverride(ctx context.Context, storeID, id string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM manual_spend_override WHERE id = $1 AND store_id = $2
	`, id, storeID)
	if err != nil {
		return fmt.Errorf("delete spend override: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return factstore.ErrNotFound
	}
	return nil
}

// SpendOverrides returns the overrides applying to the window.
func (r *Repo) SpendOverrides(ctx context.Context, storeID string, w domain.Window) ([]domain.SpendOverride, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, store_id, TO_CHAR(date, 'YYYY-MM-DD'), country, amount, notes, created_at
		FROM manual_spend_override
		WHERE store_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date, country
	`, storeID, w.StartDate(), w.EndDate())
	if err != nil {
		return nil, fmt.Errorf("query spend overrides: %w", err)
	}
	defer rows.Close()

	var out []domain.SpendOverride
	for rows.Next() {
		var o domain.SpendOverride
		if err := rows.Scan(&o.ID, &o.StoreID, &o.Date, &o.Country, &o.Amount, &o.Notes, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan spend override: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

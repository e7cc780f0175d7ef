package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vironax/adinsights/internal/domain"
	"github.com/vironax/adinsights/internal/factstore"
)

// UpsertCampaignBatch writes campaign dimension rows. Names may change over
// time; the latest ingested name wins.
func (r *Repo) UpsertCampaignBatch(ctx context.Context, rows []domain.CampaignDim) (factstore.UpsertResult, error) {
	var res factstore.UpsertResult
	if len(rows) == 0 {
		return res, nil
	}

	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, row := range rows {
			if row.StoreID == "" || row.CampaignID == "" {
				res.Skipped++
				continue
			}
			var inserted bool
			err := tx.QueryRowContext(ctx, `
				INSERT INTO campaign_dim
					(store_id, campaign_id, ad_set_id, ad_id, name, ad_set_name, ad_name, platform)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
				ON CONFLICT (store_id, campaign_id, ad_set_id, ad_id)
				DO UPDATE SET
					name = EXCLUDED.name,
					ad_set_name = EXCLUDED.ad_set_name,
					ad_name = EXCLUDED.ad_name,
					platform = EXCLUDED.platform
				RETURNING (xmax = 0)
			`, row.StoreID, row.CampaignID, row.AdSetID, row.AdID,
				row.Name, row.AdSetName, row.AdName, row.Platform,
			).Scan(&inserted)
			if err != nil {
				return fmt.Errorf("upsert campaign %s/%s: %w", row.StoreID, row.CampaignID, err)
			}
			if inserted {
				res.Inserted++
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

// Campaigns returns every campaign dimension row for the store, campaign
// rows first so callers can build the hierarchy in one pass.
func (r *Repo) Campaigns(ctx context.Context, storeID string) ([]domain.CampaignDim, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT store_id, campaign_id, ad_set_id, ad_id, name, ad_set_name, ad_name, platform
		FROM campaign_dim
		WHERE store_id = $1
		ORDER BY campaign_id, ad_set_id, ad_id
	`, storeID)
	if err != nil {
		return nil, fmt.Errorf("query campaigns: %w", err)
	}
	defer rows.Close()

	var out []domain.CampaignDim
	for rows.Next() {
		var c domain.CampaignDim
		if err := rows.Scan(
			&c.StoreID, &c.CampaignID, &c.AdSetID, &c.AdID,
			&c.Name, &c.AdSetName, &c.AdName, &c.Platform,
		); err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

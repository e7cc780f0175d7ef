package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// ClearStoreMetaData transactionally deletes every fact whose source_tag
// begins with "meta_" for the store, plus orphaned meta campaign dimension
// rows. Storefront orders and manual entries are untouched.
func (r *Repo) ClearStoreMetaData(ctx context.Context, storeID string) (int64, error) {
	var total int64
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			DELETE FROM ad_spend_daily
			WHERE store_id = $1 AND source_tag LIKE 'meta\_%'
		`, storeID)
		if err != nil {
			return fmt.Errorf("clear meta spend: %w", err)
		}
		n, _ := res.RowsAffected()
		total += n

		res, err = tx.ExecContext(ctx, `
			DELETE FROM campaign_dim
			WHERE store_id = $1 AND platform = 'meta'
			  AND NOT EXISTS (
			      SELECT 1 FROM ad_spend_daily s
			      WHERE s.store_id = campaign_dim.store_id
			        AND s.campaign_id = campaign_dim.campaign_id
			  )
		`, storeID)
		if err != nil {
			return fmt.Errorf("clear meta campaigns: %w", err)
		}
		n, _ = res.RowsAffected()
		total += n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

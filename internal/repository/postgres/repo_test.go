package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vironax/adinsights/internal/domain"
)

func TestUpsertOrderBatchCountsInsertsAndUpdates(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO order_event`).
		WithArgs("vironax", "salla", "1001", "2026-08-10", nil, "SA", "", "Riyadh", 280.0, "SAR").
		WillReturnRows(sqlmock.NewRows([]string{"inserted"}).AddRow(true))
	mock.ExpectQuery(`INSERT INTO order_event`).
		WithArgs("vironax", "salla", "1002", "2026-08-10", nil, "SA", "", "", 280.0, "SAR").
		WillReturnRows(sqlmock.NewRows([]string{"inserted"}).AddRow(false))
	mock.ExpectCommit()

	repo := New(db)
	res, err := repo.UpsertOrderBatch(context.Background(), []domain.OrderEvent{
		{StoreID: "vironax", SourcePlatform: domain.PlatformSalla, OrderID: "1001", Date: "2026-08-10", Country: "SA", City: "Riyadh", Revenue: 280, Currency: "SAR"},
		{StoreID: "vironax", SourcePlatform: domain.PlatformSalla, OrderID: "1002", Date: "2026-08-10", Country: "SA", Revenue: 280, Currency: "SAR"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, 1, res.Updated)
	require.Len(t, res.NewOrders, 1, "only genuine inserts feed notifications")
	assert.Equal(t, "1001", res.NewOrders[0].OrderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertOrderBatchSkipsInvalidRows(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	repo := New(db)
	res, err := repo.UpsertOrderBatch(context.Background(), []domain.OrderEvent{
		{StoreID: "vironax"}, // no order id
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClearStoreMetaDataIsTransactional(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM ad_spend_daily`).
		WithArgs("vironax").
		WillReturnResult(sqlmock.NewResult(0, 42))
	mock.ExpectExec(`DELETE FROM campaign_dim`).
		WithArgs("vironax").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	repo := New(db)
	n, err := repo.ClearStoreMetaData(context.Background(), "vironax")
	require.NoError(t, err)
	assert.EqualValues(t, 45, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertSpendBatchRollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO ad_spend_daily`).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	repo := New(db)
	_, err = repo.UpsertSpendBatch(context.Background(), []domain.AdSpendRow{
		{StoreID: "vironax", Date: "2026-08-10", CampaignID: "c1", SourceTag: domain.SourceMetaAPI, Spend: 100},
	})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

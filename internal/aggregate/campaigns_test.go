package aggregate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vironax/adinsights/internal/domain"
)

func adRow(campaign, adset, ad string, spend float64, conversions int64) domain.AdSpendRow {
	return domain.AdSpendRow{
		StoreID: "vironax", Date: "2026-08-09",
		CampaignID: campaign, AdSetID: adset, AdID: ad,
		Spend: spend, Impressions: 1000, Clicks: 50, Conversions: conversions,
		ConversionValue: float64(conversions) * 100,
		SourceTag:       domain.SourceMetaAPI,
	}
}

func TestHierarchyTree(t *testing.T) {
	reader := &fakeReader{
		spend: []domain.AdSpendRow{
			adRow("c1", "as1", "ad1", 100, 2),
			adRow("c1", "as1", "ad2", 50, 1),
			adRow("c1", "as2", "ad3", 25, 0),
			adRow("c2", "as9", "ad9", 500, 4),
		},
		campaigns: []domain.CampaignDim{
			{StoreID: "vironax", CampaignID: "c1", Name: "Prospecting"},
			{StoreID: "vironax", CampaignID: "c1", AdSetID: "as1", AdSetName: "Broad"},
			{StoreID: "vironax", CampaignID: "c1", AdSetID: "as1", AdID: "ad1", AdName: "Video A"},
			{StoreID: "vironax", CampaignID: "c2", Name: "Retargeting"},
		},
	}
	svc := New(reader)
	nodes, err := svc.Hierarchy(context.Background(), "vironax", mustWindow(t, "2026-08-09", "2026-08-09"))
	require.NoError(t, err)

	require.Len(t, nodes, 2)
	// Sorted by spend descending.
	assert.Equal(t, "Retargeting", nodes[0].Name)
	assert.Equal(t, 500.0, nodes[0].Counters.Spend)

	c1 := nodes[1]
	assert.Equal(t, "Prospecting", c1.Name)
	assert.Equal(t, 175.0, c1.Counters.Spend)
	require.Len(t, c1.Children, 2)
	as1 := c1.Children[0]
	assert.Equal(t, "Broad", as1.Name)
	assert.Equal(t, 150.0, as1.Counters.Spend)
	require.Len(t, as1.Children, 2)
	assert.Equal(t, "Video A", as1.Children[0].Name)
	// No dimension record for ad2; the id stands in for the name.
	assert.Equal(t, "ad2", as1.Children[1].Name)

	// Ad-network ROAS rides along at every level.
	require.NotNil(t, c1.ROAS)
	assert.InDelta(t, 300.0/175.0, *c1.ROAS, 1e-9)
}

func TestBreakdownByCountry(t *testing.T) {
	row := func(country string, spend float64) domain.AdSpendRow {
		return domain.AdSpendRow{
			StoreID: "vironax", Date: "2026-08-09", CampaignID: "c1",
			Dimensions: domain.DimensionTuple{Country: country},
			Spend:      spend, SourceTag: domain.SourceMetaAPI,
		}
	}
	reader := &fakeReader{
		spend: []domain.AdSpendRow{row("SA", 300), row("AE", 100)},
		campaigns: []domain.CampaignDim{
			{StoreID: "vironax", CampaignID: "c1", Name: "Prospecting"},
		},
	}
	svc := New(reader)
	rows, err := svc.Breakdown(context.Background(), "vironax", mustWindow(t, "2026-08-09", "2026-08-09"), "country", "spend")
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, "SA", rows[0].Dimension)
	assert.Equal(t, "Prospecting", rows[0].CampaignName)
	assert.InDelta(t, 75.0, *rows[0].SpendShare, 1e-9)
	assert.InDelta(t, 25.0, *rows[1].SpendShare, 1e-9)
}

func TestBreakdownTieBreaksByNameAscending(t *testing.T) {
	row := func(campaign, age string) domain.AdSpendRow {
		return domain.AdSpendRow{
			StoreID: "vironax", Date: "2026-08-09", CampaignID: campaign,
			Dimensions: domain.DimensionTuple{Age: age},
			Spend:      100, SourceTag: domain.SourceMetaAPI,
		}
	}
	reader := &fakeReader{
		spend: []domain.AdSpendRow{row("zeta", "25-34"), row("alpha", "25-34")},
		campaigns: []domain.CampaignDim{
			{StoreID: "vironax", CampaignID: "zeta", Name: "Zeta"},
			{StoreID: "vironax", CampaignID: "alpha", Name: "Alpha"},
		},
	}
	svc := New(reader)
	rows, err := svc.Breakdown(context.Background(), "vironax", mustWindow(t, "2026-08-09", "2026-08-09"), "age", "spend")
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, "Alpha", rows[0].CampaignName)
	assert.Equal(t, "Zeta", rows[1].CampaignName)
}

func TestBreakdownRejectsUnknownDimension(t *testing.T) {
	svc := New(&fakeReader{})
	_, err := svc.Breakdown(context.Background(), "vironax", mustWindow(t, "2026-08-09", "2026-08-09"), "device", "spend")
	assert.Error(t, err)
}

func TestBreakdownAgeGenderLabel(t *testing.T) {
	reader := &fakeReader{
		spend: []domain.AdSpendRow{{
			StoreID: "vironax", Date: "2026-08-09", CampaignID: "c1",
			Dimensions: domain.DimensionTuple{Age: "25-34", Gender: "female"},
			Spend:      80, SourceTag: domain.SourceMetaAPI,
		}},
	}
	svc := New(reader)
	rows, err := svc.Breakdown(context.Background(), "vironax", mustWindow(t, "2026-08-09", "2026-08-09"), "age_gender", "spend")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "25-34|female", rows[0].Dimension)
}

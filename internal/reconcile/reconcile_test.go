package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vironax/adinsights/internal/domain"
	"github.com/vironax/adinsights/internal/factstore"
)

// fakeReader serves canned facts and applies the dimension filter the way
// the real repository does.
type fakeReader struct {
	spend     []domain.AdSpendRow
	daily     []domain.OrderDaily
	events    []domain.OrderEvent
	manual    []domain.ManualOrder
	overrides []domain.SpendOverride
	campaigns []domain.CampaignDim
}

func (f *fakeReader) SpendRows(ctx context.Context, storeID string, w domain.Window, filter factstore.SpendFilter) ([]domain.AdSpendRow, error) {
	var out []domain.AdSpendRow
	for _, r := range f.spend {
		if filter.CampaignID != "" && r.CampaignID != filter.CampaignID {
			continue
		}
		d := r.Dimensions
		switch filter.Dimension {
		case "total":
			if !d.IsTotal() {
				continue
			}
		case "country":
			if d.Country == "" || d.Age != "" || d.Gender != "" || d.Placement != "" {
				continue
			}
		}
		if filter.Country != "" && d.Country != filter.Country {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeReader) OrderDaily(ctx context.Context, storeID string, w domain.Window) ([]domain.OrderDaily, error) {
	return f.daily, nil
}

func (f *fakeReader) OrderEvents(ctx context.Context, storeID string, w domain.Window) ([]domain.OrderEvent, error) {
	return f.events, nil
}

func (f *fakeReader) ManualOrders(ctx context.Context, storeID string, w domain.Window) ([]domain.ManualOrder, error) {
	return f.manual, nil
}

func (f *fakeReader) SpendOverrides(ctx context.Context, storeID string, w domain.Window) ([]domain.SpendOverride, error) {
	return f.overrides, nil
}

func (f *fakeReader) Campaigns(ctx context.Context, storeID string) ([]domain.CampaignDim, error) {
	return f.campaigns, nil
}

func (f *fakeReader) SourceFreshness(ctx context.Context, storeID string) (map[string]time.Time, error) {
	return nil, nil
}

const day = "2026-08-10"

func window(t *testing.T) domain.Window {
	t.Helper()
	w, err := domain.NewWindow(day, day)
	require.NoError(t, err)
	return w
}

func spendRow(country string, spend float64) domain.AdSpendRow {
	return domain.AdSpendRow{
		StoreID: "vironax", Date: day, CampaignID: "c1",
		Dimensions: domain.DimensionTuple{Country: country},
		Spend:      spend, SourceTag: domain.SourceMetaAPI,
	}
}

func totalRow(spend float64, conversions int64, convValue float64) domain.AdSpendRow {
	return domain.AdSpendRow{
		StoreID: "vironax", Date: day, CampaignID: "c1",
		Spend: spend, Conversions: conversions, ConversionValue: convValue,
		SourceTag: domain.SourceMetaAPI,
	}
}

func TestSpendRevenueOrdersReconciled(t *testing.T) {
	// Meta 1400 SAR, Salla 5 orders x 280 SAR, one country.
	reader := &fakeReader{
		spend: []domain.AdSpendRow{totalRow(1400, 0, 0), spendRow("SA", 1400)},
		daily: []domain.OrderDaily{{StoreID: "vironax", Date: day, Country: "SA", SourcePlatform: domain.PlatformSalla, OrderCount: 5, Revenue: 1400}},
	}
	v, err := New(reader).View(context.Background(), "vironax", window(t), Filter{})
	require.NoError(t, err)

	d := v.Days[day]
	require.NotNil(t, d)
	require.NotNil(t, d.TotalSpend)
	assert.Equal(t, 1400.0, *d.TotalSpend)

	sa := d.Cells["SA"]
	require.NotNil(t, sa)
	require.NotNil(t, sa.Spend)
	assert.Equal(t, 1400.0, *sa.Spend)
	assert.Equal(t, SpendFromRaw, sa.SpendSource)
	require.NotNil(t, sa.Orders)
	assert.Equal(t, 5, *sa.Orders)
	require.NotNil(t, sa.Revenue)
	assert.Equal(t, 1400.0, *sa.Revenue)
	assert.Equal(t, 280.0, *sa.AOV)
	assert.Equal(t, 280.0, *sa.CAC)
	assert.Equal(t, 1.0, *sa.ROAS)
}

func TestAllOverrideReplacesDay(t *testing.T) {
	reader := &fakeReader{
		spend: []domain.AdSpendRow{totalRow(1400, 0, 0), spendRow("SA", 1400)},
		daily: []domain.OrderDaily{{StoreID: "vironax", Date: day, Country: "SA", SourcePlatform: domain.PlatformSalla, OrderCount: 5, Revenue: 1400}},
		overrides: []domain.SpendOverride{
			{StoreID: "vironax", Date: day, Country: domain.OverrideAllCountries, Amount: 2000},
		},
	}
	v, err := New(reader).View(context.Background(), "vironax", window(t), Filter{})
	require.NoError(t, err)

	d := v.Days[day]
	assert.Equal(t, 2000.0, *d.TotalSpend)
	sa := d.Cells["SA"]
	assert.Equal(t, 2000.0, *sa.Spend)
	assert.Equal(t, SpendFromAllOverride, sa.SpendSource)
	assert.InDelta(t, 0.70, *sa.ROAS, 1e-9)
}

func TestCountryOverrideBeatsAllOverride(t *testing.T) {
	reader := &fakeReader{
		spend: []domain.AdSpendRow{totalRow(1400, 0, 0), spendRow("SA", 1400)},
		daily: []domain.OrderDaily{{StoreID: "vironax", Date: day, Country: "SA", SourcePlatform: domain.PlatformSalla, OrderCount: 5, Revenue: 1400}},
		overrides: []domain.SpendOverride{
			{StoreID: "vironax", Date: day, Country: domain.OverrideAllCountries, Amount: 2000},
			{StoreID: "vironax", Date: day, Country: "SA", Amount: 1000},
		},
	}
	v, err := New(reader).View(context.Background(), "vironax", window(t), Filter{})
	require.NoError(t, err)

	d := v.Days[day]
	sa := d.Cells["SA"]
	assert.Equal(t, 1000.0, *sa.Spend)
	assert.Equal(t, SpendFromOverride, sa.SpendSource)
	// The only country is specifically overridden, so the ALL amount has
	// nowhere to land and the day total is the specific amount alone.
	assert.Equal(t, 1000.0, *d.TotalSpend)
}

func TestAllOverrideProportionalSplit(t *testing.T) {
	reader := &fakeReader{
		spend: []domain.AdSpendRow{
			spendRow("SA", 300),
			spendRow("AE", 100),
		},
		daily: []domain.OrderDaily{
			// KW ordered but never saw spend; it gets 0 from the ALL split.
			{StoreID: "vironax", Date: day, Country: "KW", SourcePlatform: domain.PlatformShopify, OrderCount: 1, Revenue: 50},
		},
		overrides: []domain.SpendOverride{
			{StoreID: "vironax", Date: day, Country: domain.OverrideAllCountries, Amount: 1000},
		},
	}
	v, err := New(reader).View(context.Background(), "vironax", window(t), Filter{})
	require.NoError(t, err)

	d := v.Days[day]
	assert.Equal(t, 750.0, *d.Cells["SA"].Spend)
	assert.Equal(t, 250.0, *d.Cells["AE"].Spend)
	assert.Equal(t, 0.0, *d.Cells["KW"].Spend)
	assert.Equal(t, 1000.0, *d.TotalSpend)
}

func TestMetaConversionsStaySeparate(t *testing.T) {
	// A campaign converting in Meta with no storefront orders must not leak
	// conversions into the orders column.
	reader := &fakeReader{
		spend: []domain.AdSpendRow{totalRow(500, 10, 2800), spendRow("SA", 500)},
	}
	v, err := New(reader).View(context.Background(), "vironax", window(t), Filter{})
	require.NoError(t, err)

	sa := v.Days[day].Cells["SA"]
	assert.Nil(t, sa.Orders)
	assert.Nil(t, sa.Revenue)
	assert.Nil(t, sa.AOV)
	assert.Nil(t, sa.CAC)
	assert.Nil(t, sa.ROAS)
}

func TestManualOrdersAndSpendJoinRawLayer(t *testing.T) {
	spend := 120.0
	reader := &fakeReader{
		spend: []domain.AdSpendRow{spendRow("SA", 300)},
		manual: []domain.ManualOrder{{
			StoreID: "vironax", Date: day, Country: "SA",
			OrdersCount: 2, Revenue: 400, Spend: &spend, SourceLabel: "whatsapp",
		}},
	}
	v, err := New(reader).View(context.Background(), "vironax", window(t), Filter{})
	require.NoError(t, err)

	sa := v.Days[day].Cells["SA"]
	assert.Equal(t, 420.0, *sa.Spend)
	assert.Equal(t, 2, *sa.Orders)
	assert.Equal(t, 400.0, *sa.Revenue)
	assert.Equal(t, 420.0, *v.Days[day].TotalSpend)
}

func TestAbsentAndZeroStayDistinct(t *testing.T) {
	reader := &fakeReader{
		daily: []domain.OrderDaily{{StoreID: "vironax", Date: day, Country: "SA", SourcePlatform: domain.PlatformShopify, OrderCount: 0, Revenue: 0}},
	}
	v, err := New(reader).View(context.Background(), "vironax", window(t), Filter{})
	require.NoError(t, err)

	sa := v.Days[day].Cells["SA"]
	// The storefront reported, so orders are a real zero.
	require.NotNil(t, sa.Orders)
	assert.Equal(t, 0, *sa.Orders)
	// No ad network reported, so spend and everything derived from it are absent.
	assert.Nil(t, sa.Spend)
	assert.Nil(t, sa.CAC)
	assert.Nil(t, sa.ROAS)
	assert.Nil(t, sa.AOV)
	assert.Nil(t, v.Days[day].TotalSpend)
}

func TestFunnelOnlyWhereBreakdownExists(t *testing.T) {
	row := spendRow("SA", 200)
	row.Impressions = 10000
	row.Clicks = 150
	row.LPV = 90
	reader := &fakeReader{
		spend: []domain.AdSpendRow{row, spendRow("AE", 100)},
	}
	v, err := New(reader).View(context.Background(), "vironax", window(t), Filter{})
	require.NoError(t, err)

	sa := v.Days[day].Cells["SA"]
	require.NotNil(t, sa.Funnel)
	assert.InDelta(t, 1.5, *sa.Funnel.CTR, 1e-9)
	assert.InDelta(t, 60.0, *sa.Funnel.UpperRate, 1e-9)

	// AE has spend but no counter data; its funnel is absent, not zero.
	assert.Nil(t, v.Days[day].Cells["AE"].Funnel)
}

func TestRowsOrderedByDateThenCountry(t *testing.T) {
	reader := &fakeReader{
		spend: []domain.AdSpendRow{spendRow("SA", 10), spendRow("AE", 5)},
	}
	v, err := New(reader).View(context.Background(), "vironax", window(t), Filter{})
	require.NoError(t, err)

	rows := v.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "AE", rows[0].Country)
	assert.Equal(t, "SA", rows[1].Country)
}

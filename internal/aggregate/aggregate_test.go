package aggregate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vironax/adinsights/internal/domain"
	"github.com/vironax/adinsights/internal/factstore"
)

// fakeReader serves canned facts filtered by window and dimension, the way
// the real repository would.
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
		if !inWindow(w, r.Date) {
			continue
		}
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
		case "age":
			if d.Age == "" || d.Country != "" || d.Gender != "" || d.Placement != "" {
				continue
			}
		case "gender":
			if d.Gender == "" || d.Country != "" || d.Age != "" || d.Placement != "" {
				continue
			}
		case "age_gender":
			if d.Age == "" || d.Gender == "" || d.Country != "" || d.Placement != "" {
				continue
			}
		case "placement":
			if d.Placement == "" || d.Country != "" || d.Age != "" || d.Gender != "" {
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
	var out []domain.OrderDaily
	for _, d := range f.daily {
		if inWindow(w, d.Date) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeReader) OrderEvents(ctx context.Context, storeID string, w domain.Window) ([]domain.OrderEvent, error) {
	var out []domain.OrderEvent
	for _, e := range f.events {
		if inWindow(w, e.Date) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeReader) ManualOrders(ctx context.Context, storeID string, w domain.Window) ([]domain.ManualOrder, error) {
	var out []domain.ManualOrder
	for _, m := range f.manual {
		if inWindow(w, m.Date) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeReader) SpendOverrides(ctx context.Context, storeID string, w domain.Window) ([]domain.SpendOverride, error) {
	var out []domain.SpendOverride
	for _, o := range f.overrides {
		if inWindow(w, o.Date) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeReader) Campaigns(ctx context.Context, storeID string) ([]domain.CampaignDim, error) {
	return f.campaigns, nil
}

func (f *fakeReader) SourceFreshness(ctx context.Context, storeID string) (map[string]time.Time, error) {
	return nil, nil
}

func inWindow(w domain.Window, date string) bool {
	return date >= w.StartDate() && date <= w.EndDate()
}

func mustWindow(t *testing.T, start, end string) domain.Window {
	t.Helper()
	w, err := domain.NewWindow(start, end)
	require.NoError(t, err)
	return w
}

func metaTotal(date string, spend float64) domain.AdSpendRow {
	return domain.AdSpendRow{
		StoreID: "vironax", Date: date, CampaignID: "c1",
		Spend: spend, SourceTag: domain.SourceMetaAPI,
	}
}

func metaCountry(date, country string, spend float64) domain.AdSpendRow {
	return domain.AdSpendRow{
		StoreID: "vironax", Date: date, CampaignID: "c1",
		Dimensions: domain.DimensionTuple{Country: country},
		Spend:      spend, SourceTag: domain.SourceMetaAPI,
	}
}

func sallaDaily(date, country string, orders int, revenue float64) domain.OrderDaily {
	return domain.OrderDaily{
		StoreID: "vironax", Date: date, Country: country,
		SourcePlatform: domain.PlatformSalla,
		OrderCount:     orders, Revenue: revenue,
	}
}

func TestOverviewTotals(t *testing.T) {
	// Meta 1400 spend, Salla 5 orders x 280 over a 7-day window.
	reader := &fakeReader{
		spend: []domain.AdSpendRow{metaTotal("2026-08-10", 1400), metaCountry("2026-08-10", "SA", 1400)},
		daily: []domain.OrderDaily{sallaDaily("2026-08-10", "SA", 5, 1400)},
	}
	svc := New(reader)
	w := mustWindow(t, "2026-08-04", "2026-08-10")

	ov, err := svc.Overview(context.Background(), "vironax", w)
	require.NoError(t, err)

	require.NotNil(t, ov.Totals.Spend)
	assert.Equal(t, 1400.0, *ov.Totals.Spend)
	assert.Equal(t, 1400.0, *ov.Totals.Revenue)
	assert.Equal(t, 5, ov.Totals.Orders)
	assert.Equal(t, 280.0, *ov.Totals.AOV)
	assert.Equal(t, 280.0, *ov.Totals.CAC)
	assert.Equal(t, 1.0, *ov.Totals.ROAS)

	// Country share of the filtered set.
	rows, err := svc.Countries(context.Background(), "vironax", w)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "SA", rows[0].Country)
	assert.Equal(t, "Saudi Arabia", rows[0].Name)
	assert.Equal(t, 100.0, *rows[0].OrderShare)
}

func TestOverviewChangeAgainstPriorWindow(t *testing.T) {
	reader := &fakeReader{
		spend: []domain.AdSpendRow{
			metaTotal("2026-08-09", 100), metaCountry("2026-08-09", "SA", 100),
			metaTotal("2026-08-07", 50), metaCountry("2026-08-07", "SA", 50),
		},
		daily: []domain.OrderDaily{
			sallaDaily("2026-08-09", "SA", 4, 400),
			sallaDaily("2026-08-07", "SA", 2, 100),
		},
	}
	svc := New(reader)
	// Current [08-08, 08-09], prior [08-06, 08-07].
	w := mustWindow(t, "2026-08-08", "2026-08-09")

	ov, err := svc.Overview(context.Background(), "vironax", w)
	require.NoError(t, err)

	require.NotNil(t, ov.Change.Spend)
	assert.InDelta(t, 100.0, *ov.Change.Spend, 1e-9)
	assert.InDelta(t, 100.0, *ov.Change.Orders, 1e-9)
	assert.InDelta(t, 300.0, *ov.Change.Revenue, 1e-9)
}

func TestOverviewChangeAbsentWithoutPriorData(t *testing.T) {
	reader := &fakeReader{
		spend: []domain.AdSpendRow{metaTotal("2026-08-09", 100)},
	}
	svc := New(reader)
	ov, err := svc.Overview(context.Background(), "vironax", mustWindow(t, "2026-08-08", "2026-08-09"))
	require.NoError(t, err)
	assert.Nil(t, ov.Change.Spend)
	assert.Nil(t, ov.Change.Orders)
}

func TestTrendsZeroFillDays(t *testing.T) {
	reader := &fakeReader{
		daily: []domain.OrderDaily{sallaDaily("2026-08-09", "SA", 3, 300)},
	}
	svc := New(reader)
	points, err := svc.Trends(context.Background(), "vironax", mustWindow(t, "2026-08-08", "2026-08-10"))
	require.NoError(t, err)

	require.Len(t, points, 3)
	assert.Equal(t, "2026-08-08", points[0].Date)
	assert.Equal(t, 0, points[0].Orders)
	assert.Nil(t, points[0].Spend)
	assert.Equal(t, 3, points[1].Orders)
	require.NotNil(t, points[1].Revenue)
	assert.Equal(t, 300.0, *points[1].Revenue)
	assert.Equal(t, "2026-08-10", points[2].Date)
}

func TestCountriesSortedByRevenueThenName(t *testing.T) {
	reader := &fakeReader{
		daily: []domain.OrderDaily{
			sallaDaily("2026-08-09", "KW", 1, 100),
			sallaDaily("2026-08-09", "AE", 1, 100),
			sallaDaily("2026-08-09", "SA", 5, 900),
		},
	}
	svc := New(reader)
	rows, err := svc.Countries(context.Background(), "vironax", mustWindow(t, "2026-08-09", "2026-08-09"))
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, "SA", rows[0].Country)
	// Equal revenue breaks by code ascending.
	assert.Equal(t, "AE", rows[1].Country)
	assert.Equal(t, "KW", rows[2].Country)
}

func TestCountryTrendsZeroFilled(t *testing.T) {
	reader := &fakeReader{
		daily: []domain.OrderDaily{
			sallaDaily("2026-08-08", "SA", 2, 200),
			sallaDaily("2026-08-10", "SA", 1, 80),
		},
	}
	svc := New(reader)
	trends, err := svc.CountryTrends(context.Background(), "vironax", mustWindow(t, "2026-08-08", "2026-08-10"))
	require.NoError(t, err)

	require.Len(t, trends, 1)
	require.Len(t, trends[0].Series, 3)
	assert.Equal(t, 2, trends[0].Series[0].Orders)
	assert.Equal(t, 0, trends[0].Series[1].Orders)
	assert.Equal(t, 1, trends[0].Series[2].Orders)
}

package aggregate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vironax/adinsights/internal/domain"
)

func event(date string, hour *int, country string, revenue float64) domain.OrderEvent {
	return domain.OrderEvent{
		StoreID: "vironax", SourcePlatform: domain.PlatformSalla,
		OrderID: date + country, Date: date, Hour: hour,
		Country: country, Revenue: revenue,
	}
}

func hourPtr(h int) *int { return &h }

func TestTimeOfDayHistogram(t *testing.T) {
	reader := &fakeReader{
		events: []domain.OrderEvent{
			event("2026-08-09", hourPtr(14), "SA", 100),
			event("2026-08-09", hourPtr(14), "SA", 50),
			event("2026-08-09", hourPtr(3), "AE", 80),
			// No hour recorded; excluded from this view only.
			event("2026-08-09", nil, "SA", 999),
		},
	}
	svc := New(reader)
	buckets, err := svc.TimeOfDay(context.Background(), "vironax", mustWindow(t, "2026-08-09", "2026-08-09"), "", "", "")
	require.NoError(t, err)

	require.Len(t, buckets, 24)
	assert.Equal(t, 2, buckets[14].Orders)
	assert.Equal(t, 150.0, buckets[14].Revenue)
	assert.Equal(t, 1, buckets[3].Orders)
	require.NotNil(t, buckets[14].Share)
	assert.InDelta(t, 66.666, *buckets[14].Share, 0.01)
}

func TestTimeOfDayCountryFilter(t *testing.T) {
	reader := &fakeReader{
		events: []domain.OrderEvent{
			event("2026-08-09", hourPtr(10), "SA", 100),
			event("2026-08-09", hourPtr(11), "AE", 80),
		},
	}
	svc := New(reader)
	buckets, err := svc.TimeOfDay(context.Background(), "vironax", mustWindow(t, "2026-08-09", "2026-08-09"), "", "", "SA")
	require.NoError(t, err)

	assert.Equal(t, 1, buckets[10].Orders)
	assert.Equal(t, 0, buckets[11].Orders)
	assert.Equal(t, 100.0, *buckets[10].Share)
}

func TestTimeOfDayTimezoneShift(t *testing.T) {
	reader := &fakeReader{
		events: []domain.OrderEvent{
			// 23:00 Riyadh is 20:00 UTC.
			event("2026-08-09", hourPtr(23), "SA", 100),
		},
	}
	svc := New(reader)
	buckets, err := svc.TimeOfDay(context.Background(), "vironax", mustWindow(t, "2026-08-09", "2026-08-09"), "Asia/Riyadh", "UTC", "")
	require.NoError(t, err)
	assert.Equal(t, 1, buckets[20].Orders)
	assert.Equal(t, 0, buckets[23].Orders)
}

func TestTimeOfDayBadTimezone(t *testing.T) {
	svc := New(&fakeReader{})
	_, err := svc.TimeOfDay(context.Background(), "vironax", mustWindow(t, "2026-08-09", "2026-08-09"), "Asia/Riyadh", "Not/AZone", "")
	assert.Error(t, err)
}

func TestDaysOfWeekShares(t *testing.T) {
	reader := &fakeReader{
		events: []domain.OrderEvent{
			// 2026-08-09 is a Sunday, 2026-08-10 a Monday.
			event("2026-08-09", hourPtr(10), "SA", 100),
			event("2026-08-09", hourPtr(12), "SA", 100),
			event("2026-08-10", nil, "SA", 50),
		},
	}
	svc := New(reader)
	buckets, err := svc.DaysOfWeek(context.Background(), "vironax", mustWindow(t, "2026-08-09", "2026-08-10"))
	require.NoError(t, err)

	require.Len(t, buckets, 7)
	assert.Equal(t, "Sunday", buckets[0].Weekday)
	assert.Equal(t, 2, buckets[0].Orders)
	// Orders without an hour still count toward weekdays.
	assert.Equal(t, 1, buckets[1].Orders)
	assert.InDelta(t, 66.666, *buckets[0].Share, 0.01)
}

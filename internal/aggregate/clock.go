package aggregate

import (
	"context"
	"fmt"
	"time"

	"github.com/vironax/adinsights/internal/domain"
)

// HourBucket is one hour of the time-of-day histogram.
type HourBucket struct {
	Hour    int      `json:"hour"`
	Orders  int      `json:"orders"`
	Revenue float64  `json:"revenue"`
	Share   *float64 `json:"share"`
}

// TimeOfDay builds the 24-bucket order histogram for the window. Events are
// recorded in the store's local hour; tz shifts them into the requested
// timezone. Events without an hour are left out of this view only. country
// filters to one shipping country when set.
func (s *Service) TimeOfDay(ctx context.Context, storeID string, w domain.Window, storeTZ, tz, country string) ([]HourBucket, error) {
	events, err := s.reader.OrderEvents(ctx, storeID, w)
	if err != nil {
		return nil, fmt.Errorf("time of day: %w", err)
	}

	shift, err := hourShift(storeTZ, tz, w.Start)
	if err != nil {
		return nil, err
	}

	buckets := make([]HourBucket, 24)
	for i := range buckets {
		buckets[i].Hour = i
	}
	total := 0
	for _, e := range events {
		if e.Hour == nil {
			continue
		}
		if country != "" && e.Country != country {
			continue
		}
		h := ((*e.Hour+shift)%24 + 24) % 24
		buckets[h].Orders++
		buckets[h].Revenue += e.Revenue
		total++
	}
	for i := range buckets {
		buckets[i].Share = domain.Pct(float64(buckets[i].Orders), float64(total))
	}
	return buckets, nil
}

// hourShift returns the whole-hour offset from one zone to another at the
// given instant. Zone names are IANA; empty means no shift.
func hourShift(from, to string, at time.Time) (int, error) {
	if from == "" || to == "" || from == to {
		return 0, nil
	}
	fromLoc, err := time.LoadLocation(from)
	if err != nil {
		return 0, fmt.Errorf("timezone %q: %w", from, err)
	}
	toLoc, err := time.LoadLocation(to)
	if err != nil {
		return 0, fmt.Errorf("timezone %q: %w", to, err)
	}
	_, fromOff := at.In(fromLoc).Zone()
	_, toOff := at.In(toLoc).Zone()
	return (toOff - fromOff) / 3600, nil
}

// WeekdayBucket is one weekday of the day-of-week view.
type WeekdayBucket struct {
	Weekday string   `json:"weekday"`
	Orders  int      `json:"orders"`
	Revenue float64  `json:"revenue"`
	Share   *float64 `json:"share"`
}

// DaysOfWeek folds the window's orders per weekday, Sunday first.
func (s *Service) DaysOfWeek(ctx context.Context, storeID string, w domain.Window) ([]WeekdayBucket, error) {
	events, err := s.reader.OrderEvents(ctx, storeID, w)
	if err != nil {
		return nil, fmt.Errorf("days of week: %w", err)
	}

	buckets := make([]WeekdayBucket, 7)
	for i := range buckets {
		buckets[i].Weekday = time.Weekday(i).String()
	}
	total := 0
	for _, e := range events {
		d, err := time.Parse(domain.DateLayout, e.Date)
		if err != nil {
			continue
		}
		wd := int(d.Weekday())
		buckets[wd].Orders++
		buckets[wd].Revenue += e.Revenue
		total++
	}
	for i := range buckets {
		buckets[i].Share = domain.Pct(float64(buckets[i].Orders), float64(total))
	}
	return buckets, nil
}

package api

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vironax/adinsights/internal/domain"
)

func TestParseWindowExplicitRange(t *testing.T) {
	r := httptest.NewRequest("GET", "/x?startDate=2026-08-01&endDate=2026-08-15", nil)
	w, err := parseWindow(r, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "2026-08-01", w.StartDate())
	assert.Equal(t, "2026-08-15", w.EndDate())
	assert.Equal(t, 15, w.Days())
}

func TestParseWindowRelative(t *testing.T) {
	loc := time.UTC
	today := domain.Midnight(time.Now().In(loc)).Format(domain.DateLayout)

	cases := []struct {
		query string
		days  int
	}{
		{"days=7", 7},
		{"days=1", 1},
		{"weeks=2", 14},
		{"", 30},
	}
	for _, c := range cases {
		r := httptest.NewRequest("GET", "/x?"+c.query, nil)
		w, err := parseWindow(r, loc)
		require.NoError(t, err, c.query)
		assert.Equal(t, c.days, w.Days(), c.query)
		assert.Equal(t, today, w.EndDate(), c.query)
	}
}

func TestParseWindowMonthsEndsToday(t *testing.T) {
	loc := time.UTC
	now := domain.Midnight(time.Now().In(loc))
	r := httptest.NewRequest("GET", "/x?months=2", nil)
	w, err := parseWindow(r, loc)
	require.NoError(t, err)
	assert.Equal(t, now.Format(domain.DateLayout), w.EndDate())
	assert.Equal(t, now.AddDate(0, -2, 1).Format(domain.DateLayout), w.StartDate())
}

func TestParseWindowYesterday(t *testing.T) {
	loc := time.UTC
	r := httptest.NewRequest("GET", "/x?yesterday=1", nil)
	w, err := parseWindow(r, loc)
	require.NoError(t, err)
	assert.Equal(t, 1, w.Days())
	y := domain.Midnight(time.Now().In(loc)).AddDate(0, 0, -1)
	assert.Equal(t, y.Format(domain.DateLayout), w.EndDate())
}

func TestParseWindowRejectsBadInput(t *testing.T) {
	for _, q := range []string{
		"days=0",
		"days=-1",
		"days=abc",
		"weeks=x",
		"months=0",
		"startDate=2026-08-01",
		"endDate=2026-08-15",
		"startDate=bad&endDate=2026-08-15",
		"startDate=2026-08-15&endDate=2026-08-01",
	} {
		r := httptest.NewRequest("GET", "/x?"+q, nil)
		_, err := parseWindow(r, time.UTC)
		assert.Error(t, err, q)
	}
}

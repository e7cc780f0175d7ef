package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWindow(t *testing.T) {
	w, err := NewWindow("2026-08-01", "2026-08-07")
	require.NoError(t, err)
	assert.Equal(t, 7, w.Days())
	assert.Equal(t, "2026-08-01", w.StartDate())
	assert.Equal(t, "2026-08-07", w.EndDate())

	_, err = NewWindow("2026-08-07", "2026-08-01")
	assert.Error(t, err, "end before start must be rejected")

	_, err = NewWindow("08/01/2026", "2026-08-07")
	assert.Error(t, err)
}

func TestPriorWindowArithmetic(t *testing.T) {
	// For [a,b] the comparison window is exactly [a-(b-a+1), a-1].
	w, err := NewWindow("2026-08-10", "2026-08-16")
	require.NoError(t, err)

	p := w.Prior()
	assert.Equal(t, "2026-08-03", p.StartDate())
	assert.Equal(t, "2026-08-09", p.EndDate())
	assert.Equal(t, w.Days(), p.Days())

	// Single-day window: prior is the previous day.
	d, err := NewWindow("2026-03-01", "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, "2026-02-28", d.Prior().StartDate())
	assert.Equal(t, "2026-02-28", d.Prior().EndDate())
}

func TestWindowContainsAndEachDay(t *testing.T) {
	w, err := NewWindow("2026-01-30", "2026-02-02")
	require.NoError(t, err)

	assert.True(t, w.Contains("2026-01-30"))
	assert.True(t, w.Contains("2026-02-02"))
	assert.False(t, w.Contains("2026-02-03"))
	assert.False(t, w.Contains("not-a-date"))

	days := w.EachDay()
	assert.Equal(t, []string{"2026-01-30", "2026-01-31", "2026-02-01", "2026-02-02"}, days)
}

func TestLastNDays(t *testing.T) {
	w, err := NewWindow("2026-08-16", "2026-08-16")
	require.NoError(t, err)
	s := LastNDays(w.End, 30)
	assert.Equal(t, 30, s.Days())
	assert.Equal(t, "2026-07-18", s.StartDate())
}

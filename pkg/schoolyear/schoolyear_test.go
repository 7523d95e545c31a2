package schoolyear

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	y, err := Parse("2024-2025")
	require.NoError(t, err)
	assert.Equal(t, 2024, y.Start)
	assert.Equal(t, 2025, y.End())
	assert.Equal(t, "2024-2025", y.String())

	for _, bad := range []string{"", "2024", "2024-2026", "24-25", "abcd-efgh", "2024/2025", "2025-2024"} {
		_, err := Parse(bad)
		assert.ErrorIs(t, err, ErrInvalidSchoolYear, bad)
	}
}

func TestOrderingUsesStartYear(t *testing.T) {
	a := MustParse("2023-2024")
	b := MustParse("2024-2025")
	assert.True(t, a.Before(b))
	assert.False(t, b.Before(a))
	assert.Equal(t, b, a.Next())
	assert.Equal(t, a, b.Previous())

	// Lexical comparison would put "10000-10001" before "9999-10000".
	assert.True(t, Year{Start: 9999}.Before(Year{Start: 10000}))
}

func TestForDate(t *testing.T) {
	assert.Equal(t, 2025, ForDate(time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC), DefaultStartMonth).Start)
	assert.Equal(t, 2024, ForDate(time.Date(2025, time.August, 31, 0, 0, 0, 0, time.UTC), DefaultStartMonth).Start)
	assert.Equal(t, 2024, ForDate(time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC), 0).Start)
}

func TestMonthStart(t *testing.T) {
	y := MustParse("2025-2026")
	assert.Equal(t, time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC), y.MonthStart(time.October))
	assert.Equal(t, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC), y.MonthStart(time.March))
}

func TestPeriod(t *testing.T) {
	p, err := ParsePeriod("2026-02")
	require.NoError(t, err)
	assert.Equal(t, "2026-02", p.String())
	assert.Equal(t, time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC), p.End())
	assert.Equal(t, "2025-2026", p.SchoolYear(DefaultStartMonth).String())

	_, err = ParsePeriod("2026-13")
	assert.Error(t, err)
}

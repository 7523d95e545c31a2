// Package schoolyear parses and compares "YYYY-YYYY" school years.
package schoolyear

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultStartMonth is the month a school year begins in.
const DefaultStartMonth = time.September

var ErrInvalidSchoolYear = errors.New("invalid_school_year")

// Year is a school year spanning two calendar years.
type Year struct {
	Start int
}

// Parse reads a "2024-2025" style school year.
func Parse(value string) (Year, error) {
	parts := strings.Split(strings.TrimSpace(value), "-")
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 4 {
		return Year{}, fmt.Errorf("%w: %q", ErrInvalidSchoolYear, value)
	}
	start, err := strconv.Atoi(parts[0])
	if err != nil {
		return Year{}, fmt.Errorf("%w: %q", ErrInvalidSchoolYear, value)
	}
	end, err := strconv.Atoi(parts[1])
	if err != nil {
		return Year{}, fmt.Errorf("%w: %q", ErrInvalidSchoolYear, value)
	}
	if end != start+1 {
		return Year{}, fmt.Errorf("%w: %q", ErrInvalidSchoolYear, value)
	}
	return Year{Start: start}, nil
}

// MustParse is Parse for constants and tests.
func MustParse(value string) Year {
	y, err := Parse(value)
	if err != nil {
		panic(err)
	}
	return y
}

// Valid reports whether value is a well-formed school year.
func Valid(value string) bool {
	_, err := Parse(value)
	return err == nil
}

func (y Year) String() string {
	return fmt.Sprintf("%04d-%04d", y.Start, y.Start+1)
}

func (y Year) End() int { return y.Start + 1 }

func (y Year) Before(other Year) bool { return y.Start < other.Start }

func (y Year) Next() Year { return Year{Start: y.Start + 1} }

func (y Year) Previous() Year { return Year{Start: y.Start - 1} }

// ForDate returns the school year containing t. Dates before startMonth belong
// to the year that began the previous calendar year.
func ForDate(t time.Time, startMonth time.Month) Year {
	if startMonth < time.January || startMonth > time.December {
		startMonth = DefaultStartMonth
	}
	if t.Month() >= startMonth {
		return Year{Start: t.Year()}
	}
	return Year{Start: t.Year() - 1}
}

// MonthStart returns the first day of month within the school year, in UTC,
// assuming the year starts in September.
func (y Year) MonthStart(month time.Month) time.Time {
	return y.MonthStartFrom(month, DefaultStartMonth)
}

// MonthStartFrom is MonthStart for schools starting in another month.
func (y Year) MonthStartFrom(month, startMonth time.Month) time.Time {
	calendarYear := y.Start
	if month < startMonth {
		calendarYear = y.Start + 1
	}
	return time.Date(calendarYear, month, 1, 0, 0, 0, 0, time.UTC)
}

// Period is a calendar month inside a school year.
type Period struct {
	Year  int
	Month time.Month
}

// ParsePeriod reads a "2025-10" style billing period.
func ParsePeriod(value string) (Period, error) {
	t, err := time.Parse("2006-01", strings.TrimSpace(value))
	if err != nil {
		return Period{}, fmt.Errorf("invalid_period: %q", value)
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Start is the first instant of the period in UTC.
func (p Period) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End is the last day of the period at midnight UTC.
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, -1)
}

// SchoolYear returns the school year the period belongs to.
func (p Period) SchoolYear(startMonth time.Month) Year {
	return ForDate(p.Start(), startMonth)
}

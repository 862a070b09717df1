package core

import (
	"fmt"
	"strconv"
	"time"
)

const DateLayout = "2006-01-02"

type (
	Date struct {
		time.Time
	}

	// YearMonth identifies a calendar month independently of any time zone.
	YearMonth struct {
		Year  int
		Month int // 1-12
	}
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string as a UTC calendar day.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q (want YYYY-MM-DD)", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: zero date", ErrInvalidDate)
	}
	return nil
}

// AddMonths shifts d by n calendar months with time.AddDate normalisation.
func (d Date) AddMonths(n int) Date {
	return Date{Time: d.AddDate(0, n, 0)}
}

// YearMonth returns the calendar month containing d.
func (d Date) YearMonth() YearMonth {
	return YearMonth{Year: d.Year(), Month: int(d.Month())}
}

// ParseYearMonth reads the year and month digits straight out of a
// YYYY-MM-DD string. No calendar conversion happens, so the result never
// depends on the local time zone.
func ParseYearMonth(date string) (YearMonth, error) {
	if len(date) < 7 || date[4] != '-' {
		return YearMonth{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	year, err := strconv.Atoi(date[0:4])
	if err != nil {
		return YearMonth{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	month, err := strconv.Atoi(date[5:7])
	if err != nil || month < 1 || month > 12 {
		return YearMonth{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return YearMonth{Year: year, Month: month}, nil
}

// Key renders the month as "YYYY-MM".
func (ym YearMonth) Key() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, ym.Month)
}

func (ym YearMonth) Before(other YearMonth) bool {
	if ym.Year != other.Year {
		return ym.Year < other.Year
	}
	return ym.Month < other.Month
}

// Add returns the month n months after ym (n may be negative).
func (ym YearMonth) Add(n int) YearMonth {
	idx := ym.Year*12 + (ym.Month - 1) + n
	return YearMonth{Year: idx / 12, Month: idx%12 + 1}
}

// FirstDay returns the first calendar day of the month.
func (ym YearMonth) FirstDay() Date {
	return NewDate(ym.Year, ym.Month, 1)
}

// MonthName returns the English month name.
func (ym YearMonth) MonthName() string {
	return time.Month(ym.Month).String()
}

// MonthsBack lists n months ending at end, newest first.
func MonthsBack(end YearMonth, n int) []YearMonth {
	months := make([]YearMonth, 0, max(n, 0))
	for i := 0; i < n; i++ {
		months = append(months, end.Add(-i))
	}
	return months
}

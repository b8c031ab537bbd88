package picker

import (
	"fmt"
	"time"
)

// YearMonth is the page shown by the calendar picker.
type YearMonth struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// ParseYearMonth parses a YYYY-MM string.
func ParseYearMonth(s string) (YearMonth, bool) {
	if len(s) != len("2006-01") {
		return YearMonth{}, false
	}
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return YearMonth{}, false
	}
	return MonthOf(t), true
}

// Add moves n months forward (negative n moves back), wrapping years.
func (ym YearMonth) Add(n int) YearMonth {
	idx := ym.Year*12 + int(ym.Month) - 1 + n
	year, month := idx/12, idx%12
	if month < 0 {
		month += 12
		year--
	}
	return YearMonth{Year: year, Month: time.Month(month + 1)}
}

// String renders YYYY-MM.
func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// First returns the first day of the month.
func (ym YearMonth) First() time.Time {
	return time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Days returns the number of days in the month.
func (ym YearMonth) Days() int {
	return ym.First().AddDate(0, 1, -1).Day()
}

// Date renders day d of the month as YYYY-MM-DD.
func (ym YearMonth) Date(d int) string {
	return fmt.Sprintf("%s-%02d", ym, d)
}

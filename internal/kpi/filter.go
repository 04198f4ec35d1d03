package kpi

import (
	"errors"
	"time"
)

// ErrInvalidFilter indicates a filter state that cannot be resolved.
var ErrInvalidFilter = errors.New("kpi: invalid filter")

// defaultLookback is the window used when no date control is active.
const defaultLookback = 30 * 24 * time.Hour

// Window is the resolved closed date interval scoping a KPI query.
type Window struct {
	From time.Time
	To   time.Time
}

// Equal reports whether two windows cover the same instant range.
func (w Window) Equal(other Window) bool {
	return w.From.Equal(other.From) && w.To.Equal(other.To)
}

// FilterMode identifies which pair of date controls is authoritative.
type FilterMode string

const (
	ModeNone      FilterMode = "none"
	ModeRange     FilterMode = "range"
	ModeMonthYear FilterMode = "monthYear"
)

// FilterState tracks the dashboard date controls for one view. The zero value
// means "no filter active". All transitions go through the setters so that the
// range pair and the month/year pair can never both be populated.
type FilterState struct {
	mode     FilterMode
	dateFrom time.Time
	dateTo   time.Time
	month    time.Month
	year     int
}

// Mode returns the active filter mode.
func (f *FilterState) Mode() FilterMode {
	if f == nil || f.mode == "" {
		return ModeNone
	}
	return f.mode
}

// Range returns the raw range pair when range mode is active.
func (f *FilterState) Range() (from, to time.Time, ok bool) {
	if f.Mode() != ModeRange {
		return time.Time{}, time.Time{}, false
	}
	return f.dateFrom, f.dateTo, true
}

// MonthYear returns the raw month/year pair when month mode is active.
func (f *FilterState) MonthYear() (time.Month, int, bool) {
	if f.Mode() != ModeMonthYear {
		return 0, 0, false
	}
	return f.month, f.year, true
}

// SetDateFrom activates range mode and discards any month/year selection.
func (f *FilterState) SetDateFrom(t time.Time) {
	f.enterRange()
	f.dateFrom = t
}

// SetDateTo activates range mode and discards any month/year selection.
func (f *FilterState) SetDateTo(t time.Time) {
	f.enterRange()
	f.dateTo = t
}

// SetMonth activates month/year mode and discards any range selection.
func (f *FilterState) SetMonth(m time.Month) {
	f.enterMonthYear()
	f.month = m
}

// SetYear activates month/year mode and discards any range selection.
func (f *FilterState) SetYear(y int) {
	f.enterMonthYear()
	f.year = y
}

// Clear deactivates both control pairs.
func (f *FilterState) Clear() {
	*f = FilterState{}
}

func (f *FilterState) enterRange() {
	if f.mode != ModeRange {
		f.month = 0
		f.year = 0
		f.mode = ModeRange
	}
}

func (f *FilterState) enterMonthYear() {
	if f.mode != ModeMonthYear {
		f.dateFrom = time.Time{}
		f.dateTo = time.Time{}
		f.mode = ModeMonthYear
	}
}

// Resolve turns the filter state into a concrete window. Range mode requires
// a start date; an open end defaults to now. Month mode covers the first
// through the last calendar day of the month, with missing month or year
// falling back to the current one. No active mode means the trailing 30 days.
func (f *FilterState) Resolve(now time.Time) (Window, error) {
	switch f.Mode() {
	case ModeRange:
		if f.dateFrom.IsZero() {
			return Window{}, ErrInvalidFilter
		}
		to := f.dateTo
		if to.IsZero() {
			to = now
		}
		if to.Before(f.dateFrom) {
			return Window{}, ErrInvalidFilter
		}
		return Window{From: f.dateFrom, To: to}, nil
	case ModeMonthYear:
		month := f.month
		if month == 0 {
			month = now.Month()
		}
		year := f.year
		if year == 0 {
			year = now.Year()
		}
		return MonthWindow(year, month, now.Location()), nil
	default:
		return Window{From: now.Add(-defaultLookback), To: now}, nil
	}
}

// MonthWindow returns the closed window spanning one calendar month. The end
// bound is computed as day zero of the following month, which normalizes
// month lengths and leap years.
func MonthWindow(year int, month time.Month, loc *time.Location) Window {
	if loc == nil {
		loc = time.UTC
	}
	from := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	to := time.Date(year, month+1, 0, 23, 59, 59, int(time.Second-time.Nanosecond), loc)
	return Window{From: from, To: to}
}

// Package schedule computes execution dates for recurring configurations.
//
// Each recurrence unit (daily, weekly, monthly, yearly) has its own advancer
// that moves a timestamp forward by exactly one calendar period. Month and
// year steps clamp to the last day of the target month instead of letting
// the day overflow into the following month.
package schedule

import (
	"fmt"
	"sync"
	"time"

	"smartwallet/internal/core"
)

// PeriodAdvancer is the strategy interface for moving a timestamp forward by one period.
type PeriodAdvancer interface {
	Advance(t time.Time) time.Time
}

// DailyAdvancer adds one calendar day.
type DailyAdvancer struct{}

func (DailyAdvancer) Advance(t time.Time) time.Time { return t.AddDate(0, 0, 1) }

// WeeklyAdvancer adds seven calendar days.
type WeeklyAdvancer struct{}

func (WeeklyAdvancer) Advance(t time.Time) time.Time { return t.AddDate(0, 0, 7) }

// MonthlyAdvancer adds one calendar month, clamping Jan 31 to the end of February.
type MonthlyAdvancer struct{}

func (MonthlyAdvancer) Advance(t time.Time) time.Time { return addMonthsClamped(t, 1) }

// YearlyAdvancer adds one year; Feb 29 becomes Feb 28 in common years.
type YearlyAdvancer struct{}

func (YearlyAdvancer) Advance(t time.Time) time.Time { return addMonthsClamped(t, 12) }

func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := DaysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

var (
	mu        sync.RWMutex
	advancers = map[core.Recurrence]PeriodAdvancer{
		core.Daily:   DailyAdvancer{},
		core.Weekly:  WeeklyAdvancer{},
		core.Monthly: MonthlyAdvancer{},
		core.Yearly:  YearlyAdvancer{},
	}
)

// GetPeriodAdvancer returns the advancer for a recurrence unit.
// NoRepeat and unknown units return an error.
func GetPeriodAdvancer(rec core.Recurrence) (PeriodAdvancer, error) {
	mu.RLock()
	defer mu.RUnlock()
	a, ok := advancers[rec]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidRecurrence, rec)
	}
	return a, nil
}

// RegisterPeriodAdvancer adds or replaces the advancer for a recurrence unit.
func RegisterPeriodAdvancer(rec core.Recurrence, a PeriodAdvancer) {
	mu.Lock()
	defer mu.Unlock()
	advancers[rec] = a
}

// NextExecution returns the first execution time of a series starting on date.
func NextExecution(date core.Date, rec core.Recurrence) (time.Time, error) {
	a, err := GetPeriodAdvancer(rec)
	if err != nil {
		return time.Time{}, err
	}
	return a.Advance(date.Time), nil
}

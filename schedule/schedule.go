// Package schedule computes payback dates for a payback plan.
//
// Every function here is pure: the caller supplies "today". Dates are
// calendar dates; time of day and location are discarded. Missing or
// invalid input yields an empty result instead of an error.
package schedule

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Frequency is how often a plan collects.
type Frequency string

const (
	Daily   Frequency = "DAILY"
	Weekly  Frequency = "WEEKLY"
	Monthly Frequency = "MONTHLY"
)

// DateLayout is the wire format of every date produced by this package.
const DateLayout = "2006-01-02"

// maxWalkDays bounds every day-by-day walk (about 40 years).
const maxWalkDays = 15000

// IsValid reports whether f is DAILY, WEEKLY or MONTHLY.
func (f Frequency) IsValid() bool {
	switch f {
	case Daily, Weekly, Monthly:
		return true
	}
	return false
}

// ParseFrequency accepts any letter case and surrounding spaces.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToUpper(strings.TrimSpace(s)))
	if !f.IsValid() {
		return "", fmt.Errorf("invalid frequency %q", s)
	}
	return f, nil
}

// Input describes a plan. PaydayList holds weekday indices (0 = Sunday)
// for DAILY and WEEKLY, and a day of month (1-31) for MONTHLY.
type Input struct {
	StartDate    time.Time
	Frequency    Frequency
	PaydayList   []int
	PaybackCount int
}

// Result holds both dates as YYYY-MM-DD, or "" when not computable.
type Result struct {
	NextPaybackDate  string `json:"next_payback_date"`
	ScheduledEndDate string `json:"scheduled_end_date"`
}

// Calculate returns both dates; either may be "".
func Calculate(in Input, today time.Time) Result {
	return Result{
		NextPaybackDate:  NextPaybackDate(in, today),
		ScheduledEndDate: ScheduledEndDate(in),
	}
}

// NextPaybackDate formats NextPaybackTime; "" when there is none.
func NextPaybackDate(in Input, today time.Time) string {
	return format(NextPaybackTime(in, today))
}

// ScheduledEndDate formats ScheduledEndTime; "" when there is none.
func ScheduledEndDate(in Input) string {
	return format(ScheduledEndTime(in))
}

// NextPaybackTime is the first payday on or after both today and the start date.
func NextPaybackTime(in Input, today time.Time) (time.Time, bool) {
	if !in.valid() {
		return time.Time{}, false
	}
	from := dateOf(in.StartDate)
	if t := dateOf(today); !today.IsZero() && t.After(from) {
		from = t
	}
	return in.firstPaydayOnOrAfter(from)
}

// ScheduledEndTime needs a positive PaybackCount.
//
//	DAILY:   the first payday after the last of PaybackCount paydays counted from the start date
//	WEEKLY:  start date + PaybackCount weeks
//	MONTHLY: start date + PaybackCount months, clamped to the month's last day
func ScheduledEndTime(in Input) (time.Time, bool) {
	if !in.valid() || in.PaybackCount <= 0 {
		return time.Time{}, false
	}
	start := dateOf(in.StartDate)
	switch in.Frequency {
	case Daily:
		return in.nthPayday(start, in.PaybackCount+1)
	case Weekly:
		return start.AddDate(0, 0, 7*in.PaybackCount), true
	case Monthly:
		return addMonthsClamped(start, in.PaybackCount, start.Day()), true
	}
	return time.Time{}, false
}

// Installments lists the PaybackCount due dates, starting with the first payday on or after the start date.
func Installments(in Input) []time.Time {
	if !in.valid() || in.PaybackCount <= 0 {
		return nil
	}
	first, ok := in.firstPaydayOnOrAfter(dateOf(in.StartDate))
	if !ok {
		return nil
	}
	out := make([]time.Time, 0, in.PaybackCount)
	switch in.Frequency {
	case Daily:
		set := weekdaySet(in.PaydayList)
		d := first
		for steps := 0; len(out) < in.PaybackCount && steps < maxWalkDays; steps++ {
			if set[d.Weekday()] {
				out = append(out, d)
			}
			d = d.AddDate(0, 0, 1)
		}
	case Weekly:
		for i := 0; i < in.PaybackCount; i++ {
			out = append(out, first.AddDate(0, 0, 7*i))
		}
	case Monthly:
		for i := 0; i < in.PaybackCount; i++ {
			out = append(out, addMonthsClamped(first, i, in.PaydayList[0]))
		}
	}
	return out
}

func (in Input) valid() bool {
	if in.StartDate.IsZero() || !in.Frequency.IsValid() || len(in.PaydayList) == 0 {
		return false
	}
	switch in.Frequency {
	case Daily:
		for _, d := range in.PaydayList {
			if d < 0 || d > 6 {
				return false
			}
		}
	case Weekly:
		if len(in.PaydayList) != 1 || in.PaydayList[0] < 0 || in.PaydayList[0] > 6 {
			return false
		}
	case Monthly:
		if len(in.PaydayList) != 1 || in.PaydayList[0] < 1 || in.PaydayList[0] > 31 {
			return false
		}
	}
	return true
}

func (in Input) firstPaydayOnOrAfter(from time.Time) (time.Time, bool) {
	switch in.Frequency {
	case Daily, Weekly:
		set := weekdaySet(in.PaydayList)
		d := from
		for i := 0; i < 7; i++ {
			if set[d.Weekday()] {
				return d, true
			}
			d = d.AddDate(0, 0, 1)
		}
	case Monthly:
		day := in.PaydayList[0]
		d := clampedDate(from.Year(), from.Month(), day)
		if d.Before(from) {
			d = addMonthsClamped(d, 1, day)
		}
		return d, true
	}
	return time.Time{}, false
}

// nthPayday returns the n-th DAILY payday counting from (and including) from.
func (in Input) nthPayday(from time.Time, n int) (time.Time, bool) {
	set := weekdaySet(in.PaydayList)
	d := from
	counted := 0
	for steps := 0; steps < maxWalkDays; steps++ {
		if set[d.Weekday()] {
			counted++
			if counted == n {
				return d, true
			}
		}
		d = d.AddDate(0, 0, 1)
	}
	return time.Time{}, false
}

func weekdaySet(days []int) map[time.Weekday]bool {
	set := make(map[time.Weekday]bool, len(days))
	for _, d := range days {
		set[time.Weekday(d)] = true
	}
	return set
}

// addMonthsClamped moves t by months and pins the day to day, or the month's last day if shorter.
func addMonthsClamped(t time.Time, months int, day int) time.Time {
	firstOfMonth := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, months, 0)
	return clampedDate(firstOfMonth.Year(), firstOfMonth.Month(), day)
}

func clampedDate(year int, month time.Month, day int) time.Time {
	if last := daysIn(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func format(t time.Time, ok bool) string {
	if !ok {
		return ""
	}
	return t.Format(DateLayout)
}

// ParsePaydayList parses "1, 2,3" into a sorted, de-duplicated list.
func ParsePaydayList(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	seen := map[int]bool{}
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid payday %q", part)
		}
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out, nil
}

// FormatPaydayList is the inverse of ParsePaydayList: sorted, deduplicated, comma separated.
func FormatPaydayList(days []int) string {
	sorted := append([]int(nil), days...)
	sort.Ints(sorted)
	parts := make([]string, 0, len(sorted))
	for i, d := range sorted {
		if i > 0 && d == sorted[i-1] {
			continue
		}
		parts = append(parts, strconv.Itoa(d))
	}
	return strings.Join(parts, ",")
}

// Validate reports why a plan cannot produce dates. Used at write time;
// the calculators themselves stay silent.
func (in Input) Validate() error {
	if in.StartDate.IsZero() {
		return errors.New("start date is required")
	}
	if !in.Frequency.IsValid() {
		return errors.New("frequency must be DAILY, WEEKLY or MONTHLY")
	}
	if len(in.PaydayList) == 0 {
		return errors.New("payday list is required")
	}
	if in.PaybackCount <= 0 {
		return errors.New("payback count must be greater than zero")
	}
	if !in.valid() {
		switch in.Frequency {
		case Daily:
			return errors.New("daily paydays must be weekdays 0-6")
		case Weekly:
			return errors.New("weekly plans take exactly one weekday 0-6")
		default:
			return errors.New("monthly plans take exactly one day of month 1-31")
		}
	}
	return nil
}

package models

import (
	"testing"
	"time"

	"github.com/mcaservicing/mca_backend/schedule"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultInstallment(t *testing.T) {
	assert.True(t, DefaultInstallment(dec("27000"), 120).Equal(dec("225")))
	assert.True(t, DefaultInstallment(dec("1000"), 3).Equal(dec("333.33")))
	assert.True(t, DefaultInstallment(dec("1000"), 0).IsZero())
}

func TestBuildInstallmentSchedule(t *testing.T) {
	in := schedule.Input{
		StartDate:    time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		Frequency:    schedule.Weekly,
		PaydayList:   []int{1},
		PaybackCount: 3,
	}
	rows := BuildInstallmentSchedule(in, dec("1000"), decimal.Zero)
	require.Len(t, rows, 3)

	assert.Equal(t, "2026-01-05", rows[0].DueDate)
	assert.Equal(t, "2026-01-12", rows[1].DueDate)
	assert.Equal(t, "2026-01-19", rows[2].DueDate)
	assert.True(t, rows[0].Amount.Equal(dec("333.33")))
	assert.True(t, rows[2].Amount.Equal(dec("333.34")), "last row takes the remainder")
	assert.True(t, rows[2].Cumulative.Equal(dec("1000")))
	assert.True(t, rows[2].Remaining.IsZero())
	assert.Equal(t, 3, rows[2].Number)
}

func TestBuildInstallmentScheduleCapsAtTotal(t *testing.T) {
	in := schedule.Input{
		StartDate:    time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		Frequency:    schedule.Daily,
		PaydayList:   []int{1, 2, 3, 4, 5},
		PaybackCount: 4,
	}
	rows := BuildInstallmentSchedule(in, dec("500"), dec("200"))
	require.Len(t, rows, 4)
	assert.True(t, rows[2].Amount.Equal(dec("100")))
	assert.True(t, rows[3].Amount.IsZero())
	assert.True(t, rows[3].Remaining.IsZero())
}

func TestBuildInstallmentScheduleIncompleteInput(t *testing.T) {
	assert.Nil(t, BuildInstallmentSchedule(schedule.Input{Frequency: schedule.Daily}, dec("100"), decimal.Zero))
}

// dateColumn mimics a DATE column behind a loc=UTC connection: the driver
// writes the UTC calendar day and reads it back as UTC midnight.
func dateColumn(t time.Time) time.Time {
	d, _ := time.ParseInLocation(schedule.DateLayout, t.UTC().Format(schedule.DateLayout), time.UTC)
	return d
}

func TestPlanDatesSurviveStorageInEveryTimezone(t *testing.T) {
	zones := []*time.Location{
		time.FixedZone("Tokyo", 9*3600),
		time.FixedZone("Auckland", 13*3600),
		time.UTC,
		time.FixedZone("New York", -5*3600),
		time.FixedZone("Honolulu", -10*3600),
	}
	plans := []struct {
		frequency schedule.Frequency
		paydays   string
		count     int
	}{
		{schedule.Weekly, "3", 4},
		{schedule.Monthly, "31", 2},
		{schedule.Daily, "1,2,3,4,5", 10},
	}
	for _, loc := range zones {
		for _, p := range plans {
			name := loc.String() + "/" + string(p.frequency)
			start, err := time.ParseInLocation(schedule.DateLayout, "2026-01-05", loc)
			require.NoError(t, err)
			days, err := schedule.ParsePaydayList(p.paydays)
			require.NoError(t, err)
			// late evening locally, already the next day in UTC west of Greenwich
			today := time.Date(2026, 1, 7, 23, 30, 0, 0, loc)

			local := schedule.Input{StartDate: start, Frequency: p.frequency, PaydayList: days, PaybackCount: p.count}
			want := schedule.Calculate(local, today)

			// create path
			in := local
			in.StartDate = calendarDate(start)
			next, end := planDates(in, today)
			require.NotNil(t, next, name)
			require.NotNil(t, end, name)

			// refresh path reads the stored row back
			stored := PaybackPlan{
				StartDate:    dateColumn(in.StartDate),
				Frequency:    p.frequency,
				PaydayList:   schedule.FormatPaydayList(days),
				PaybackCount: p.count,
			}
			assert.Equal(t, "2026-01-05", stored.ScheduleInput().StartDate.Format(schedule.DateLayout), name)
			refreshedNext, refreshedEnd := planDates(stored.ScheduleInput(), today)

			assert.Equal(t, want.NextPaybackDate, dateColumn(*next).Format(schedule.DateLayout), name)
			assert.Equal(t, want.ScheduledEndDate, dateColumn(*end).Format(schedule.DateLayout), name)
			assert.Equal(t, want.NextPaybackDate, dateColumn(*refreshedNext).Format(schedule.DateLayout), name)
			assert.Equal(t, want.ScheduledEndDate, dateColumn(*refreshedEnd).Format(schedule.DateLayout), name)
		}
	}
}

func TestScheduleInputUsesStartDateCalendarDay(t *testing.T) {
	tokyo := time.FixedZone("Tokyo", 9*3600)
	plan := PaybackPlan{
		StartDate:    time.Date(2026, 1, 5, 0, 0, 0, 0, tokyo),
		Frequency:    schedule.Weekly,
		PaydayList:   "3",
		PaybackCount: 4,
	}
	in := plan.ScheduleInput()
	assert.Equal(t, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), in.StartDate)
	assert.Equal(t, []int{3}, in.PaydayList)
	assert.Equal(t, "2026-02-02", schedule.ScheduledEndDate(in))
}

func TestPlanDatesIncompleteInput(t *testing.T) {
	next, end := planDates(schedule.Input{Frequency: schedule.Weekly, PaybackCount: 3}, time.Now())
	assert.Nil(t, next)
	assert.Nil(t, end)
}

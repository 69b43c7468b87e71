package schedule

import (
	"testing"
	"time"
)

var weekdays = []int{1, 2, 3, 4, 5}

func day(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestNextPaybackDate(t *testing.T) {
	cases := []struct {
		name  string
		in    Input
		today string
		want  string
	}{
		{
			name:  "daily weekdays from a saturday lands on monday",
			in:    Input{StartDate: day("2026-01-03"), Frequency: Daily, PaydayList: weekdays, PaybackCount: 10},
			today: "2026-01-03",
			want:  "2026-01-05",
		},
		{
			name:  "daily start day counts when it is a payday",
			in:    Input{StartDate: day("2026-01-05"), Frequency: Daily, PaydayList: weekdays, PaybackCount: 10},
			today: "2026-01-05",
			want:  "2026-01-05",
		},
		{
			name:  "daily uses today when later than start",
			in:    Input{StartDate: day("2026-01-05"), Frequency: Daily, PaydayList: weekdays, PaybackCount: 10},
			today: "2026-01-10",
			want:  "2026-01-12",
		},
		{
			name:  "future start date wins over today",
			in:    Input{StartDate: day("2026-03-02"), Frequency: Daily, PaydayList: weekdays, PaybackCount: 10},
			today: "2026-01-10",
			want:  "2026-03-02",
		},
		{
			name:  "weekly wednesday from a monday is two days later",
			in:    Input{StartDate: day("2026-01-05"), Frequency: Weekly, PaydayList: []int{3}, PaybackCount: 12},
			today: "2026-01-05",
			want:  "2026-01-07",
		},
		{
			name:  "weekly sunday index zero",
			in:    Input{StartDate: day("2026-01-05"), Frequency: Weekly, PaydayList: []int{0}, PaybackCount: 12},
			today: "2026-01-05",
			want:  "2026-01-11",
		},
		{
			name:  "monthly 31 in a 30 day month clamps to the 30th",
			in:    Input{StartDate: day("2026-04-10"), Frequency: Monthly, PaydayList: []int{31}, PaybackCount: 6},
			today: "2026-04-10",
			want:  "2026-04-30",
		},
		{
			name:  "monthly 31 in february clamps to the 28th",
			in:    Input{StartDate: day("2026-02-01"), Frequency: Monthly, PaydayList: []int{31}, PaybackCount: 6},
			today: "2026-02-01",
			want:  "2026-02-28",
		},
		{
			name:  "monthly day already passed rolls to next month",
			in:    Input{StartDate: day("2026-01-20"), Frequency: Monthly, PaydayList: []int{15}, PaybackCount: 6},
			today: "2026-01-20",
			want:  "2026-02-15",
		},
		{
			name:  "next date needs no payback count",
			in:    Input{StartDate: day("2026-01-03"), Frequency: Daily, PaydayList: weekdays},
			today: "2026-01-03",
			want:  "2026-01-05",
		},
	}
	for _, tc := range cases {
		if got := NextPaybackDate(tc.in, day(tc.today)); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestScheduledEndDate(t *testing.T) {
	cases := []struct {
		name string
		in   Input
		want string
	}{
		{
			name: "daily ten weekdays from a monday is exactly two weeks later",
			in:   Input{StartDate: day("2026-01-05"), Frequency: Daily, PaydayList: weekdays, PaybackCount: 10},
			want: "2026-01-19",
		},
		{
			name: "daily from a saturday skips the weekend first",
			in:   Input{StartDate: day("2026-01-03"), Frequency: Daily, PaydayList: weekdays, PaybackCount: 5},
			want: "2026-01-12",
		},
		{
			name: "daily every day",
			in:   Input{StartDate: day("2026-01-01"), Frequency: Daily, PaydayList: []int{0, 1, 2, 3, 4, 5, 6}, PaybackCount: 30},
			want: "2026-01-31",
		},
		{
			name: "weekly adds whole weeks",
			in:   Input{StartDate: day("2026-01-05"), Frequency: Weekly, PaydayList: []int{3}, PaybackCount: 4},
			want: "2026-02-02",
		},
		{
			name: "monthly adds months",
			in:   Input{StartDate: day("2026-01-15"), Frequency: Monthly, PaydayList: []int{15}, PaybackCount: 3},
			want: "2026-04-15",
		},
		{
			name: "monthly from the 31st clamps in short months",
			in:   Input{StartDate: day("2026-01-31"), Frequency: Monthly, PaydayList: []int{31}, PaybackCount: 1},
			want: "2026-02-28",
		},
		{
			name: "monthly clamp does not stick",
			in:   Input{StartDate: day("2026-01-31"), Frequency: Monthly, PaydayList: []int{31}, PaybackCount: 2},
			want: "2026-03-31",
		},
		{
			name: "zero count yields nothing",
			in:   Input{StartDate: day("2026-01-05"), Frequency: Daily, PaydayList: weekdays},
			want: "",
		},
	}
	for _, tc := range cases {
		if got := ScheduledEndDate(tc.in); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestMissingInputYieldsEmptyStrings(t *testing.T) {
	today := day("2026-01-05")
	cases := map[string]Input{
		"missing start date":    {Frequency: Daily, PaydayList: weekdays, PaybackCount: 10},
		"empty payday list":     {StartDate: today, Frequency: Daily, PaybackCount: 10},
		"missing frequency":     {StartDate: today, PaydayList: weekdays, PaybackCount: 10},
		"unknown frequency":     {StartDate: today, Frequency: "HOURLY", PaydayList: weekdays, PaybackCount: 10},
		"weekday out of range":  {StartDate: today, Frequency: Daily, PaydayList: []int{7}, PaybackCount: 10},
		"weekly with two days":  {StartDate: today, Frequency: Weekly, PaydayList: []int{1, 3}, PaybackCount: 10},
		"monthly day zero":      {StartDate: today, Frequency: Monthly, PaydayList: []int{0}, PaybackCount: 10},
		"monthly day thirtytwo": {StartDate: today, Frequency: Monthly, PaydayList: []int{32}, PaybackCount: 10},
	}
	for name, in := range cases {
		res := Calculate(in, today)
		if res.NextPaybackDate != "" || res.ScheduledEndDate != "" {
			t.Fatalf("%s: expected empty result, got %+v", name, res)
		}
		if Installments(in) != nil {
			t.Fatalf("%s: expected no installments", name)
		}
		if in.Validate() == nil {
			t.Fatalf("%s: expected a validation error", name)
		}
	}
}

func TestTimeOfDayAndLocationAreIgnored(t *testing.T) {
	la, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Skip("tzdata not available")
	}
	in := Input{StartDate: time.Date(2026, 1, 3, 23, 30, 0, 0, la), Frequency: Daily, PaydayList: weekdays, PaybackCount: 1}
	res := Calculate(in, time.Date(2026, 1, 3, 8, 0, 0, 0, la))
	if res.NextPaybackDate != "2026-01-05" || res.ScheduledEndDate != "2026-01-06" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestInstallments(t *testing.T) {
	daily := Installments(Input{StartDate: day("2026-01-05"), Frequency: Daily, PaydayList: weekdays, PaybackCount: 10})
	if len(daily) != 10 {
		t.Fatalf("expected 10 daily installments, got %d", len(daily))
	}
	for i, d := range daily {
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			t.Fatalf("installment %d falls on a weekend: %s", i, d.Format(DateLayout))
		}
		if i > 0 && !d.After(daily[i-1]) {
			t.Fatalf("installments not increasing at %d", i)
		}
	}
	if got := daily[9].Format(DateLayout); got != "2026-01-16" {
		t.Fatalf("expected last daily installment 2026-01-16, got %s", got)
	}

	weekly := Installments(Input{StartDate: day("2026-01-05"), Frequency: Weekly, PaydayList: []int{3}, PaybackCount: 3})
	want := []string{"2026-01-07", "2026-01-14", "2026-01-21"}
	for i, w := range want {
		if weekly[i].Format(DateLayout) != w {
			t.Fatalf("weekly installment %d: expected %s, got %s", i, w, weekly[i].Format(DateLayout))
		}
	}

	monthly := Installments(Input{StartDate: day("2026-01-15"), Frequency: Monthly, PaydayList: []int{31}, PaybackCount: 3})
	want = []string{"2026-01-31", "2026-02-28", "2026-03-31"}
	for i, w := range want {
		if monthly[i].Format(DateLayout) != w {
			t.Fatalf("monthly installment %d: expected %s, got %s", i, w, monthly[i].Format(DateLayout))
		}
	}
}

func TestParseAndFormatPaydayList(t *testing.T) {
	got, err := ParsePaydayList(" 5, 1,3,3 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 || got[0] != 1 || got[1] != 3 || got[2] != 5 {
		t.Fatalf("unexpected list %v", got)
	}
	if _, err := ParsePaydayList("1,x"); err == nil {
		t.Fatalf("expected error for non-numeric payday")
	}
	if got, _ := ParsePaydayList(""); got != nil {
		t.Fatalf("expected nil for empty input")
	}
	if s := FormatPaydayList([]int{5, 1, 1}); s != "1,5" {
		t.Fatalf("expected 1,5, got %s", s)
	}
}

func TestParseFrequency(t *testing.T) {
	f, err := ParseFrequency(" weekly ")
	if err != nil || f != Weekly {
		t.Fatalf("expected WEEKLY, got %q err %v", f, err)
	}
	if _, err := ParseFrequency("yearly"); err == nil {
		t.Fatalf("expected error for yearly")
	}
}

/*
schedule.go - Payment schedule generation

PURPOSE:

	Lays out the expected payments for a pledge from its payment frequency.
	Weekly and bi-weekly schedules advance by fixed day offsets; monthly,
	quarterly, and annual schedules use calendar month arithmetic so that a
	schedule anchored on Jan 31 lands on the right month-end dates rather
	than drifting by fixed day counts.

ROUNDING:

	Each entry's amount is rounded to cents. The sum of rounded entries may
	differ from the pledge amount by a cent; that is expected and accepted
	(payroll systems reconcile the residual into the final deduction).
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/unitedfund/pledge-engine/money"
)

// periodsPerYear maps a frequency to its number of schedule entries.
var periodsPerYear = map[PaymentFrequency]int{
	FrequencyWeekly:    52,
	FrequencyBiWeekly:  26,
	FrequencyMonthly:   12,
	FrequencyQuarterly: 4,
	FrequencyAnnually:  1,
}

// GeneratePaymentSchedule builds the expected payment entries for a
// pledge. Pure function: it does not mutate the pledge.
//
// One-time pledges (or unknown frequencies) get a single entry for the
// full amount on the pledge date. Recurring pledges split the amount
// evenly across the frequency's periods, starting at the payroll start
// date when set, otherwise the pledge date.
func GeneratePaymentSchedule(p *Pledge) []ScheduleEntry {
	periods, ok := periodsPerYear[p.Frequency]
	if !ok || p.Frequency == FrequencyOneTime {
		return []ScheduleEntry{{
			DueDate:        p.PledgeDate,
			ExpectedAmount: p.Amount.Round2(),
			Status:         SchedulePending,
		}}
	}

	perEntry := p.Amount.Div(decimal.NewFromInt(int64(periods))).Round2()

	start := p.PledgeDate
	if p.PayrollStartDate != nil {
		start = *p.PayrollStartDate
	}

	schedule := make([]ScheduleEntry, 0, periods)
	for i := 0; i < periods; i++ {
		schedule = append(schedule, ScheduleEntry{
			DueDate:        dueDate(start, p.Frequency, i),
			ExpectedAmount: perEntry,
			Status:         SchedulePending,
		})
	}
	return schedule
}

func dueDate(start time.Time, freq PaymentFrequency, i int) time.Time {
	switch freq {
	case FrequencyWeekly:
		return start.AddDate(0, 0, i*7)
	case FrequencyBiWeekly:
		return start.AddDate(0, 0, i*14)
	case FrequencyMonthly:
		return addMonths(start, i)
	case FrequencyQuarterly:
		return addMonths(start, i*3)
	case FrequencyAnnually:
		return addMonths(start, i*12)
	default:
		return start.AddDate(0, 0, i*7)
	}
}

// addMonths advances by calendar months, clamping to the last day of the
// target month. Go's AddDate normalizes Jan 31 + 1 month to Mar 2/3; a
// deduction scheduled "monthly from the 31st" must land in February, not
// skip it.
func addMonths(t time.Time, n int) time.Time {
	year, month, day := t.Date()
	target := time.Date(year, month+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	lastDay := daysIn(target.Year(), target.Month())
	if day > lastDay {
		day = lastDay
	}
	return time.Date(target.Year(), target.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ScheduleTotal sums the expected amounts of a schedule. Because entries
// are rounded per-line, the total may differ from the pledge amount by a
// cent.
func ScheduleTotal(entries []ScheduleEntry) money.Amount {
	total := money.Zero()
	for _, e := range entries {
		total = total.Add(e.ExpectedAmount)
	}
	return total
}

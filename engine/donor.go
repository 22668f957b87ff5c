/*
donor.go - Donor lifetime statistics

PURPOSE:

	Derives a donor's lifetime giving, most recent gift, consecutive giving
	years, and recognition level from their submitted donations. Like every
	other rollup in the engine this is a full re-derivation, so it heals any
	drift left by the best-effort cascade.
*/
package engine

import (
	"sort"
	"time"

	"github.com/unitedfund/pledge-engine/money"
)

// RecomputeDonorStats re-derives all donor rollup fields from the full
// donation set. Only submitted donations from this donor count.
func RecomputeDonorStats(donor *Donor, donations []Donation) {
	var owned []Donation
	for _, d := range donations {
		if d.Status == Submitted && d.Donor == donor.ID {
			owned = append(owned, d)
		}
	}

	if len(owned) == 0 {
		donor.LifetimeGiving = money.Zero()
		donor.LastDonationDate = nil
		donor.LastDonationAmount = money.Zero()
		donor.ConsecutiveYearsGiving = 0
		donor.Level = LevelNone
		return
	}

	sort.Slice(owned, func(i, j int) bool { return owned[i].Date.After(owned[j].Date) })

	total := money.Zero()
	for _, d := range owned {
		total = total.Add(d.Amount)
	}

	last := owned[0].Date
	donor.LifetimeGiving = total
	donor.LastDonationDate = &last
	donor.LastDonationAmount = owned[0].Amount
	donor.ConsecutiveYearsGiving = consecutiveYears(owned)
	donor.Level = LevelFor(total)
}

// consecutiveYears counts the unbroken run of giving years backward from
// the most recent year with a donation.
func consecutiveYears(donations []Donation) int {
	yearSet := make(map[int]bool)
	for _, d := range donations {
		yearSet[d.Date.Year()] = true
	}

	years := make([]int, 0, len(yearSet))
	for y := range yearSet {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))

	consecutive := 1
	for i := 1; i < len(years); i++ {
		if years[i] != years[i-1]-1 {
			break
		}
		consecutive++
	}
	return consecutive
}

var levelThresholds = []struct {
	min   money.Amount
	level DonorLevel
}{
	{money.FromInt(10000), LevelTocqueville},
	{money.FromInt(1000), LevelLeadership},
	{money.FromInt(500), LevelCommunityBuilder},
	{money.FromInt(100), LevelPartner},
}

// LevelFor maps lifetime giving to a recognition level.
func LevelFor(lifetime money.Amount) DonorLevel {
	for _, t := range levelThresholds {
		if lifetime.GreaterThanOrEqual(t.min) {
			return t.level
		}
	}
	if lifetime.IsPositive() {
		return LevelSupporter
	}
	return LevelNone
}

// OverdueEntries flips pending schedule entries whose due date has
// passed to overdue. Returns the number of entries changed.
func OverdueEntries(p *Pledge, asOf time.Time) int {
	flipped := 0
	for i := range p.Schedule {
		if p.Schedule[i].Status == SchedulePending && p.Schedule[i].DueDate.Before(asOf) {
			p.Schedule[i].Status = ScheduleOverdue
			flipped++
		}
	}
	return flipped
}

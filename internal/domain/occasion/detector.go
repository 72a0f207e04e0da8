package occasion

import (
	"sort"
	"time"

	"office_cheer_bot/internal/domain/staff"
)

// Detect scans a roster snapshot and returns every occasion whose observed
// date falls within windowDays of the reference date. Zero-year anniversaries
// are not occasions. The result is ordered by target date, ties broken by
// staff ID, so repeated scans over the same inputs are byte-for-byte
// identical.
//
// Detect is pure: it does not consult the delivery ledger and has no side
// effects.
func Detect(roster []*staff.Record, reference time.Time, windowDays int, policy MilestonePolicy) []Occasion {
	occasions := make([]Occasion, 0, len(roster))

	for _, rec := range roster {
		if days := DaysUntilNextOccurrence(reference, rec.BirthDate); WithinWindow(days, windowDays) {
			target := NextOccurrence(reference, rec.BirthDate)
			age := ElapsedYears(rec.BirthDate, target)
			occasions = append(occasions, Occasion{
				StaffID:      rec.ID,
				Kind:         KindBirthday,
				Year:         target.Year(),
				ElapsedYears: age,
				Milestone:    policy.IsMilestone(age),
				TargetDate:   target,
			})
		}

		if days := DaysUntilNextOccurrence(reference, rec.StartDate); WithinWindow(days, windowDays) {
			target := NextOccurrence(reference, rec.StartDate)
			tenure := ElapsedYears(rec.StartDate, target)
			if tenure < 1 {
				continue
			}
			occasions = append(occasions, Occasion{
				StaffID:      rec.ID,
				Kind:         KindAnniversary,
				Year:         target.Year(),
				ElapsedYears: tenure,
				Milestone:    policy.IsMilestone(tenure),
				TargetDate:   target,
			})
		}
	}

	sort.SliceStable(occasions, func(i, j int) bool {
		if !occasions[i].TargetDate.Equal(occasions[j].TargetDate) {
			return occasions[i].TargetDate.Before(occasions[j].TargetDate)
		}
		return occasions[i].StaffID < occasions[j].StaffID
	})

	return occasions
}

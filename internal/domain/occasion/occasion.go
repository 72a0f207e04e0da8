package occasion

import "time"

// Kind distinguishes the two monitored occasion types.
type Kind string

const (
	KindBirthday    Kind = "BIRTHDAY"
	KindAnniversary Kind = "ANNIVERSARY"
)

// Occasion is a detected birthday or work-anniversary instance for one staff
// member in one calendar year. Occasions are rebuilt on every scan and never
// persisted; the (StaffID, Kind, Year) triple identifies the occasion in the
// delivery ledger.
type Occasion struct {
	StaffID      int64
	Kind         Kind
	Year         int // calendar year the occasion falls in
	ElapsedYears int // age for birthdays, tenure for anniversaries
	Milestone    bool
	TargetDate   time.Time
}

// MilestonePolicy decides which elapsed-year counts are called out as
// milestones. An empty set falls back to the default rule: the first year, or
// any positive multiple of five.
type MilestonePolicy struct {
	years map[int]struct{}
}

func NewMilestonePolicy(years []int) MilestonePolicy {
	if len(years) == 0 {
		return MilestonePolicy{}
	}
	set := make(map[int]struct{}, len(years))
	for _, y := range years {
		set[y] = struct{}{}
	}
	return MilestonePolicy{years: set}
}

// IsMilestone reports whether the elapsed-year count is a milestone under
// this policy.
func (p MilestonePolicy) IsMilestone(elapsedYears int) bool {
	if p.years == nil {
		return elapsedYears == 1 || (elapsedYears > 0 && elapsedYears%5 == 0)
	}
	_, ok := p.years[elapsedYears]
	return ok
}

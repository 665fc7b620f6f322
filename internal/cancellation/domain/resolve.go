package domain

// Select returns the active tier with the largest threshold not above
// daysBeforeCheckin, or nil. Equal thresholds go to the most recently
// created tier, then to the larger id.
func Select(tiers []PolicyTier, daysBeforeCheckin int) *PolicyTier {
	var best *PolicyTier
	for i := range tiers {
		tier := &tiers[i]
		if !tier.Active || tier.DaysBeforeCheckin > daysBeforeCheckin {
			continue
		}
		if best == nil || outranks(*tier, *best) {
			best = tier
		}
	}
	return best
}

func outranks(a, b PolicyTier) bool {
	if a.DaysBeforeCheckin != b.DaysBeforeCheckin {
		return a.DaysBeforeCheckin > b.DaysBeforeCheckin
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

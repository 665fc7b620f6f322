package domain

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/roomledger/pkg/daterange"
)

// Resolve picks one rule per night of stay. Rules must already be limited
// to the room type. Inactive rules and rules scoped to another meal plan are
// ignored.
//
// When several rules cover a night the winner is, in order:
//  1. a rule scoped to the requested meal plan over a meal-plan-agnostic one;
//  2. the rule with the shorter inclusive date span;
//  3. the most recently created rule (last defined wins);
//  4. the larger id, which is time ordered and unique, so the result never
//     depends on input order.
//
// A night no rule covers fails with *NoPriceDefinedError. After every night
// is priced, the stay length is checked against each winning rule's
// min_nights and max_nights and fails with *StayLengthViolationError.
func Resolve(rules []TariffRule, stay daterange.Stay, mealPlanID *snowflake.ID) ([]ResolvedNight, error) {
	candidates := make([]TariffRule, 0, len(rules))
	for _, rule := range rules {
		if !rule.Active || !rule.Span().OverlapsStay(stay) {
			continue
		}
		if rule.MealPlanID != nil && !rule.specificTo(mealPlanID) {
			continue
		}
		candidates = append(candidates, rule)
	}

	nights := stay.Nights()
	resolved := make([]ResolvedNight, 0, nights)
	for _, date := range stay.Dates() {
		var best *TariffRule
		for i := range candidates {
			rule := &candidates[i]
			if !rule.Span().Contains(date) {
				continue
			}
			if best == nil || outranks(*rule, *best, mealPlanID) {
				best = rule
			}
		}
		if best == nil {
			return nil, &NoPriceDefinedError{Date: date}
		}
		resolved = append(resolved, ResolvedNight{Date: date, Rule: *best})
	}

	seen := make(map[snowflake.ID]struct{}, len(resolved))
	for _, night := range resolved {
		rule := night.Rule
		if _, ok := seen[rule.ID]; ok {
			continue
		}
		seen[rule.ID] = struct{}{}

		minNights := rule.MinNights
		if minNights < 1 {
			minNights = 1
		}
		if nights < minNights || (rule.MaxNights != nil && nights > *rule.MaxNights) {
			return nil, &StayLengthViolationError{
				RuleID:    rule.ID,
				Nights:    nights,
				MinNights: minNights,
				MaxNights: rule.MaxNights,
			}
		}
	}
	return resolved, nil
}

// ResolvedNight is the rule chosen for one night.
type ResolvedNight struct {
	Date daterange.Date
	Rule TariffRule
}

func outranks(a, b TariffRule, mealPlanID *snowflake.ID) bool {
	if aSpecific, bSpecific := a.specificTo(mealPlanID), b.specificTo(mealPlanID); aSpecific != bSpecific {
		return aSpecific
	}
	if aDays, bDays := a.Span().Days(), b.Span().Days(); aDays != bDays {
		return aDays < bDays
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

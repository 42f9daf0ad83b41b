package domain

import (
	"cmp"
	"slices"
)

// ResultKind tells whether the group reached a unanimous decision
type ResultKind string

const (
	ResultUnanimous ResultKind = "unanimous"
	ResultRanked    ResultKind = "ranked"
)

// OptionTally is the number of yes swipes an option received
type OptionTally struct {
	OptionID string `json:"optionId"`
	YesCount int    `json:"yesCount"`
}

// AggregateResult is the outcome of a session's vote.
type AggregateResult struct {
	Kind        ResultKind    `json:"kind"`
	MemberCount int           `json:"memberCount"`
	Unanimous   []string      `json:"unanimous,omitempty"`
	AllResults  []OptionTally `json:"allResults"`
}

// Aggregate counts yes swipes per option ID across the ledger. An option is
// unanimous when every current member swiped yes on it; with no members
// nothing is unanimous. No votes are ignored and option IDs are treated as
// opaque keys, so swipes on undeclared options still count.
//
// AllResults is ordered by yes count descending, then option ID ascending.
// Returns ErrNoYesSwipes when no yes vote exists and nothing is unanimous.
func Aggregate(s *Session) (*AggregateResult, error) {
	memberCount := len(s.Users)

	yes := make(map[string]int)
	for _, record := range s.Swipes {
		for optionID, vote := range record.Votes {
			if vote == VoteYes {
				yes[optionID]++
			}
		}
	}

	tallies := make([]OptionTally, 0, len(yes))
	for optionID, count := range yes {
		tallies = append(tallies, OptionTally{OptionID: optionID, YesCount: count})
	}
	slices.SortFunc(tallies, func(a, b OptionTally) int {
		if c := cmp.Compare(b.YesCount, a.YesCount); c != 0 {
			return c
		}
		return cmp.Compare(a.OptionID, b.OptionID)
	})

	var unanimous []string
	if memberCount > 0 {
		for _, t := range tallies {
			if t.YesCount == memberCount {
				unanimous = append(unanimous, t.OptionID)
			}
		}
	}
	slices.Sort(unanimous)

	if len(unanimous) > 0 {
		return &AggregateResult{
			Kind:        ResultUnanimous,
			MemberCount: memberCount,
			Unanimous:   unanimous,
			AllResults:  tallies,
		}, nil
	}

	if len(tallies) == 0 {
		return nil, ErrNoYesSwipes
	}

	return &AggregateResult{
		Kind:        ResultRanked,
		MemberCount: memberCount,
		AllResults:  tallies,
	}, nil
}

package scoring

import "sort"

type Order string

const (
	Desc Order = "desc"
	Asc  Order = "asc"
)

// Entry is a unit to be ranked: any id paired with a comparable value.
type Entry struct {
	Id    int
	Value float64
}

// Ranked is an Entry with its competition rank assigned. A nil rank means
// the entry did not qualify, i.e. nobody has scored it yet.
type Ranked struct {
	Id    int
	Value float64
	Rank  *int
}

// Rank assigns competition ranks ("1224"): tied values share the rank of
// the first entry in their tie group and the next distinct value takes its
// 1-based position, leaving gaps after ties (1,1,3,4 - never 1,1,2,3).
//
// Entries with Value <= 0 are treated as not yet scored: they keep a nil
// rank and are placed after all qualifying entries. Equal values keep
// their input order, so callers control tie-break stability by feeding
// entries in display order.
func Rank(entries []Entry, order Order) []Ranked {
	qualified := make([]Entry, 0, len(entries))
	unranked := make([]Entry, 0)
	for _, entry := range entries {
		if entry.Value > 0 {
			qualified = append(qualified, entry)
		} else {
			unranked = append(unranked, entry)
		}
	}
	sort.SliceStable(qualified, func(i, j int) bool {
		if order == Asc {
			return qualified[i].Value < qualified[j].Value
		}
		return qualified[i].Value > qualified[j].Value
	})

	ranked := make([]Ranked, 0, len(entries))
	groupRank := 0
	for i, entry := range qualified {
		if i == 0 || entry.Value != qualified[i-1].Value {
			groupRank = i + 1
		}
		rank := groupRank
		ranked = append(ranked, Ranked{Id: entry.Id, Value: entry.Value, Rank: &rank})
	}
	for _, entry := range unranked {
		ranked = append(ranked, Ranked{Id: entry.Id, Value: entry.Value})
	}
	return ranked
}

// RankMap is a convenience over Rank that returns ranks keyed by id.
func RankMap(entries []Entry, order Order) map[int]*int {
	ranks := make(map[int]*int, len(entries))
	for _, ranked := range Rank(entries, order) {
		ranks[ranked.Id] = ranked.Rank
	}
	return ranks
}

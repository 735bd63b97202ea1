package aggregate

import (
	"cmp"
	"slices"
)

// DefaultRankingSize is how many rows each ranking table shows.
const DefaultRankingSize = 10

// RankedRow is one line of a closest/furthest table. Rank starts at 1.
type RankedRow struct {
	Rank     int      `json:"rank"`
	StatePO  string   `json:"state_po"`
	State    string   `json:"state"`
	Category Category `json:"category"`
	Value    float64  `json:"value"`
}

// RankItem is the input to SelectRanking. Key orders the rows; Value is what
// the table displays, which may be rounded or rescaled.
type RankItem struct {
	StatePO  string
	State    string
	Category Category
	Key      float64
	Value    float64
}

// Ranking holds the two ranked views of one list.
type Ranking struct {
	Closest  []RankedRow `json:"closest"`
	Furthest []RankedRow `json:"furthest"`
}

// SelectRanking returns the n smallest keys ascending and the n largest keys
// descending. Equal keys fall back to state_po ascending in both lists.
// n <= 0 uses DefaultRankingSize.
func SelectRanking(items []RankItem, n int) Ranking {
	if n <= 0 {
		n = DefaultRankingSize
	}

	asc := slices.Clone(items)
	slices.SortFunc(asc, func(a, b RankItem) int {
		if c := cmp.Compare(a.Key, b.Key); c != 0 {
			return c
		}
		return cmp.Compare(a.StatePO, b.StatePO)
	})

	desc := slices.Clone(items)
	slices.SortFunc(desc, func(a, b RankItem) int {
		if c := cmp.Compare(b.Key, a.Key); c != 0 {
			return c
		}
		return cmp.Compare(a.StatePO, b.StatePO)
	})

	return Ranking{
		Closest:  toRows(asc, n),
		Furthest: toRows(desc, n),
	}
}

func toRows(items []RankItem, n int) []RankedRow {
	if len(items) < n {
		n = len(items)
	}
	rows := make([]RankedRow, n)
	for i := range n {
		it := items[i]
		rows[i] = RankedRow{
			Rank:     i + 1,
			StatePO:  it.StatePO,
			State:    it.State,
			Category: it.Category,
			Value:    it.Value,
		}
	}
	return rows
}

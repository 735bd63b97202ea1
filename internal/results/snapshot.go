package results

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

// Snapshot is the read-only dataset shared by every request. It is built once
// at startup and passed explicitly to the aggregation functions.
type Snapshot struct {
	rows      []ResultRow
	byYear    map[int][]ResultRow
	years     []int
	names     map[string]string
	alloc     []ElectoralAllocation
	allocByPO map[string]ElectoralAllocation
}

// NewSnapshot validates and indexes the two source tables. The input slices
// are copied so later mutation by the caller cannot leak in.
func NewSnapshot(rows []ResultRow, alloc []ElectoralAllocation) (*Snapshot, error) {
	if len(rows) == 0 {
		return nil, errors.New("snapshot has no result rows")
	}

	s := &Snapshot{
		rows:      slices.Clone(rows),
		byYear:    make(map[int][]ResultRow),
		names:     make(map[string]string),
		alloc:     slices.Clone(alloc),
		allocByPO: make(map[string]ElectoralAllocation, len(alloc)),
	}

	for i, r := range s.rows {
		if r.StatePO == "" {
			return nil, fmt.Errorf("row %d: missing state_po", i)
		}
		if r.Party != DEM && r.Party != REP {
			return nil, fmt.Errorf("row %d: unknown party %q", i, r.Party)
		}
		if r.Pct < 0 || r.Pct > 1 {
			return nil, fmt.Errorf("row %d: pct %v outside [0,1]", i, r.Pct)
		}
		if _, ok := s.byYear[r.Year]; !ok {
			s.years = append(s.years, r.Year)
		}
		s.byYear[r.Year] = append(s.byYear[r.Year], r)
		if r.State != "" {
			s.names[r.StatePO] = r.State
		}
	}
	sort.Ints(s.years)

	for _, a := range s.alloc {
		if _, dup := s.allocByPO[a.StatePO]; dup {
			return nil, fmt.Errorf("duplicate electoral allocation for %s", a.StatePO)
		}
		if a.ElectoralVotes < 0 {
			return nil, fmt.Errorf("negative electoral votes for %s", a.StatePO)
		}
		s.allocByPO[a.StatePO] = a
		if _, ok := s.names[a.StatePO]; !ok && a.State != "" {
			s.names[a.StatePO] = a.State
		}
	}

	return s, nil
}

// Years returns the distinct election years in ascending order.
func (s *Snapshot) Years() []int {
	return slices.Clone(s.years)
}

// YearRange returns the first and last dataset years.
func (s *Snapshot) YearRange() (first, last int) {
	return s.years[0], s.years[len(s.years)-1]
}

// CheckYear fails with ErrOutOfRange unless year is a dataset year.
func (s *Snapshot) CheckYear(year int) error {
	if _, ok := s.byYear[year]; ok {
		return nil
	}
	first, last := s.YearRange()
	if year < first || year > last {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrOutOfRange, year, first, last)
	}
	return fmt.Errorf("%w: no results for %d", ErrOutOfRange, year)
}

// Rows returns a copy of the result rows for one year.
func (s *Snapshot) Rows(year int) ([]ResultRow, error) {
	if err := s.CheckYear(year); err != nil {
		return nil, err
	}
	return slices.Clone(s.byYear[year]), nil
}

// AllRows returns a copy of every result row in load order.
func (s *Snapshot) AllRows() []ResultRow {
	return slices.Clone(s.rows)
}

// Allocations returns the electoral allocation table in load order.
func (s *Snapshot) Allocations() []ElectoralAllocation {
	return slices.Clone(s.alloc)
}

// Allocation looks up one state's electoral allocation.
func (s *Snapshot) Allocation(statePO string) (ElectoralAllocation, error) {
	a, ok := s.allocByPO[statePO]
	if !ok {
		return ElectoralAllocation{}, fmt.Errorf("%w: electoral allocation for %q", ErrKeyNotFound, statePO)
	}
	return a, nil
}

// StateName returns the display name for a postal code, falling back to the
// code itself.
func (s *Snapshot) StateName(statePO string) string {
	if n, ok := s.names[statePO]; ok {
		return n
	}
	return statePO
}

// Len is the number of result rows.
func (s *Snapshot) Len() int { return len(s.rows) }

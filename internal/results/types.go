// Package results holds the election dataset types and the immutable
// Snapshot that every aggregation reads from.
package results

import (
	"fmt"
	"strings"
)

// Party is one of the two major parties tracked by the dataset.
type Party string

const (
	DEM Party = "DEM"
	REP Party = "REP"
)

// ParseParty accepts DEM/REP in any case, plus the long-form labels that
// appear in some MIT Election Lab exports.
func ParseParty(s string) (Party, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEM", "DEMOCRAT", "DEMOCRATIC":
		return DEM, nil
	case "REP", "REPUBLICAN":
		return REP, nil
	default:
		return "", fmt.Errorf("unknown party %q", s)
	}
}

// Other returns the opposing party.
func (p Party) Other() Party {
	if p == DEM {
		return REP
	}
	return DEM
}

// ResultRow is one party's vote share in one state for one election year.
type ResultRow struct {
	Year    int     `json:"year"`
	State   string  `json:"state"`
	StatePO string  `json:"state_po"`
	Party   Party   `json:"party"`
	Pct     float64 `json:"pct"`
}

// ElectoralAllocation is the static per-state electoral college reference.
type ElectoralAllocation struct {
	StatePO        string `json:"state_po"`
	State          string `json:"state"`
	ElectoralVotes int    `json:"electoral_votes"`
	InitialLean    Rating `json:"initial_lean"`
}

// Rating is an election-night classification. The numeric order is the
// map legend order, from safest DEM to safest REP.
type Rating int

const (
	DEMSolid Rating = iota
	DEMLikely
	DEMLean
	Tossup
	REPLean
	REPLikely
	REPSolid
)

var ratingNames = [...]string{
	DEMSolid:  "DEM-Solid",
	DEMLikely: "DEM-Likely",
	DEMLean:   "DEM-Lean",
	Tossup:    "Tossup",
	REPLean:   "REP-Lean",
	REPLikely: "REP-Likely",
	REPSolid:  "REP-Solid",
}

var ratingColors = [...]string{
	DEMSolid:  "#08306b",
	DEMLikely: "#2171b5",
	DEMLean:   "#6baed6",
	Tossup:    "#808080",
	REPLean:   "#fb6a4a",
	REPLikely: "#d7301f",
	REPSolid:  "#67000d",
}

// Ratings lists every rating in legend order.
func Ratings() []Rating {
	return []Rating{DEMSolid, DEMLikely, DEMLean, Tossup, REPLean, REPLikely, REPSolid}
}

func (r Rating) valid() bool { return r >= DEMSolid && r <= REPSolid }

func (r Rating) String() string {
	if !r.valid() {
		return fmt.Sprintf("Rating(%d)", int(r))
	}
	return ratingNames[r]
}

// Color is the hex map color for the rating.
func (r Rating) Color() string {
	if !r.valid() {
		return ratingColors[Tossup]
	}
	return ratingColors[r]
}

// IsDEM reports whether the rating counts toward the DEM electoral total.
func (r Rating) IsDEM() bool { return r >= DEMSolid && r <= DEMLean }

// IsREP reports whether the rating counts toward the REP electoral total.
func (r Rating) IsREP() bool { return r >= REPLean && r <= REPSolid }

// ParseRating parses labels such as "DEM-Solid" or "rep likely". Both the
// hyphenated and the space separated spellings are accepted.
func ParseRating(s string) (Rating, error) {
	norm := strings.ToLower(strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return r == '-' || r == ' ' || r == '_'
	}), "-"))
	for i, name := range ratingNames {
		if strings.ToLower(name) == norm {
			return Rating(i), nil
		}
	}
	return Tossup, fmt.Errorf("unknown rating %q", s)
}

func (r Rating) MarshalText() ([]byte, error) {
	if !r.valid() {
		return nil, fmt.Errorf("invalid rating %d", int(r))
	}
	return []byte(r.String()), nil
}

func (r *Rating) UnmarshalText(b []byte) error {
	v, err := ParseRating(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

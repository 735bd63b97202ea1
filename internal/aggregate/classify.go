// Package aggregate turns raw vote-share rows into per-state winners,
// margins, rankings and color categories.
package aggregate

import (
	"fmt"
	"strings"

	"github.com/banshee-data/election.report/internal/results"
)

// Scheme selects how states are colored on the static maps.
type Scheme int

const (
	// Basic colors by winning party (or by sign of change).
	Basic Scheme = iota
	// Banded splits the winner by margin band, or a margin change into the
	// four party-to-party transitions.
	Banded
)

// ParseScheme accepts "basic" and "banded"; the empty string is Basic.
func ParseScheme(s string) (Scheme, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "basic":
		return Basic, nil
	case "banded":
		return Banded, nil
	default:
		return Basic, fmt.Errorf("unknown scheme %q", s)
	}
}

func (s Scheme) String() string {
	if s == Banded {
		return "banded"
	}
	return "basic"
}

// Category is a map legend label.
type Category string

const (
	CategoryDEM Category = "DEM"
	CategoryREP Category = "REP"

	DEMLean   Category = "DEM Lean"
	DEMLikely Category = "DEM Likely"
	DEMSolid  Category = "DEM Solid"
	REPLean   Category = "REP Lean"
	REPLikely Category = "REP Likely"
	REPSolid  Category = "REP Solid"

	Positive Category = "Positive"
	Negative Category = "Negative"

	REPToREP Category = "REP to REP"
	REPToDEM Category = "REP to DEM"
	DEMToREP Category = "DEM to REP"
	DEMToDEM Category = "DEM to DEM"
)

var categoryColors = map[Category]string{
	CategoryDEM: "blue",
	CategoryREP: "red",
	DEMLean:     "#a6cee3",
	DEMLikely:   "#1f78b4",
	DEMSolid:    "#08306b",
	REPLean:     "#fb9a99",
	REPLikely:   "#e31a1c",
	REPSolid:    "#67000d",
	Positive:    "red",
	Negative:    "blue",
	REPToREP:    "#ff9999",
	REPToDEM:    "#00008b",
	DEMToREP:    "#8b0000",
	DEMToDEM:    "#add8e6",
}

// Color returns the fill color for c, or gray for unknown labels.
func (c Category) Color() string {
	if col, ok := categoryColors[c]; ok {
		return col
	}
	return "#808080"
}

var categoryParty = map[Category]results.Party{
	CategoryDEM: results.DEM,
	DEMLean:     results.DEM,
	DEMLikely:   results.DEM,
	DEMSolid:    results.DEM,
	CategoryREP: results.REP,
	REPLean:     results.REP,
	REPLikely:   results.REP,
	REPSolid:    results.REP,
}

// Party returns the party component of a winner category. Transition and
// sign categories have no party and return "".
func (c Category) Party() results.Party {
	return categoryParty[c]
}

// Margin bands in percentage points. A margin equal to a boundary belongs to
// the lower band.
const (
	LeanMax   = 5.0
	LikelyMax = 15.0
)

// ClassifyWinner maps a state winner and its margin (percentage points) to a
// legend category.
func ClassifyWinner(party results.Party, margin float64, scheme Scheme) Category {
	if scheme == Basic {
		if party == results.DEM {
			return CategoryDEM
		}
		return CategoryREP
	}

	dem := party == results.DEM
	switch {
	case margin <= LeanMax:
		if dem {
			return DEMLean
		}
		return REPLean
	case margin <= LikelyMax:
		if dem {
			return DEMLikely
		}
		return REPLikely
	default:
		if dem {
			return DEMSolid
		}
		return REPSolid
	}
}

// ClassifyChange colors a margin or share change. Banded only applies to
// MARGIN mode, where start and end are signed REP-minus-DEM margins; a value
// of exactly zero counts as DEM.
func ClassifyChange(mode Mode, start, end, change float64, scheme Scheme) Category {
	if scheme == Banded && mode == ModeMargin {
		switch {
		case start > 0 && end > 0:
			return REPToREP
		case start > 0:
			return REPToDEM
		case end > 0:
			return DEMToREP
		default:
			return DEMToDEM
		}
	}
	if change > 0 {
		return Positive
	}
	return Negative
}

// Legend returns the categories a scheme can produce for a view, in legend
// order.
func Legend(view string, mode Mode, scheme Scheme) []Category {
	if view == "evolution" {
		if scheme == Banded && mode == ModeMargin {
			return []Category{REPToREP, REPToDEM, DEMToREP, DEMToDEM}
		}
		return []Category{Positive, Negative}
	}
	if scheme == Banded {
		return []Category{DEMLean, DEMLikely, DEMSolid, REPLean, REPLikely, REPSolid}
	}
	return []Category{CategoryDEM, CategoryREP}
}

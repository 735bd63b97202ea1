// Package nightsim is the election-night what-if board: every state starts
// at a lean rating and each click moves it one step through a fixed cycle
// while the electoral vote totals and the race call are kept current.
package nightsim

import (
	"fmt"
	"sort"
	"sync"

	"github.com/banshee-data/election.report/internal/monitoring"
	"github.com/banshee-data/election.report/internal/results"
)

// WinThreshold is the electoral vote count a party must exceed to be called.
const WinThreshold = 269

// TooEarly is the call while neither party is past WinThreshold.
const TooEarly = "Too Early to Call"

// Next returns the rating a click moves r to. DEM ratings collapse to Tossup,
// Tossup goes to REP-Likely and REP ratings flip to DEM-Lean.
func Next(r results.Rating) results.Rating {
	switch {
	case r.IsDEM():
		return results.Tossup
	case r == results.Tossup:
		return results.REPLikely
	default:
		return results.DEMLean
	}
}

// Transition describes one click after it has been applied.
type Transition struct {
	StatePO  string
	From     results.Rating
	To       results.Rating
	DemVotes int
	RepVotes int
}

// Observer is called once per applied transition, outside the board lock.
type Observer func(Transition)

// LogObserver logs the transition and counts it in Prometheus.
func LogObserver(t Transition) {
	monitoring.Logf("[night] %s %s -> %s (DEM %d, REP %d)", t.StatePO, t.From, t.To, t.DemVotes, t.RepVotes)
	monitoring.RecordTransition(t.From.String(), t.To.String())
}

// Options configures a Board.
type Options struct {
	// Observer defaults to LogObserver.
	Observer Observer
}

// Board is one viewer's election-night map. It is safe for concurrent use.
type Board struct {
	mu       sync.Mutex
	initial  map[string]results.Rating
	ratings  map[string]results.Rating
	votes    map[string]int
	names    map[string]string
	observer Observer
}

// NewBoard seeds a board from the electoral allocation table.
func NewBoard(alloc []results.ElectoralAllocation, opts Options) *Board {
	ratings := make(map[string]results.Rating, len(alloc))
	votes := make(map[string]int, len(alloc))
	b := newBoard(opts)
	for _, a := range alloc {
		ratings[a.StatePO] = a.InitialLean
		votes[a.StatePO] = a.ElectoralVotes
		if a.State != "" {
			b.names[a.StatePO] = a.State
		}
	}
	b.seed(ratings, votes)
	return b
}

// NewBoardWith builds a board from explicit ratings and votes. A state may be
// rated without having votes; totals then fail once it leans to a party.
func NewBoardWith(ratings map[string]results.Rating, votes map[string]int, opts Options) *Board {
	b := newBoard(opts)
	b.seed(ratings, votes)
	return b
}

func newBoard(opts Options) *Board {
	obs := opts.Observer
	if obs == nil {
		obs = LogObserver
	}
	return &Board{names: make(map[string]string), observer: obs}
}

func (b *Board) seed(ratings map[string]results.Rating, votes map[string]int) {
	b.initial = make(map[string]results.Rating, len(ratings))
	b.ratings = make(map[string]results.Rating, len(ratings))
	for po, r := range ratings {
		b.initial[po] = r
		b.ratings[po] = r
	}
	b.votes = make(map[string]int, len(votes))
	for po, v := range votes {
		b.votes[po] = v
	}
}

// Click advances statePO to its next rating and returns the updated view.
// The board is left unchanged when statePO is unknown or the new totals
// cannot be computed.
func (b *Board) Click(statePO string) (View, error) {
	b.mu.Lock()
	from, ok := b.ratings[statePO]
	if !ok {
		b.mu.Unlock()
		return View{}, fmt.Errorf("state %q is not on the board: %w", statePO, results.ErrKeyNotFound)
	}
	to := Next(from)
	b.ratings[statePO] = to
	dem, rep, err := b.totalsLocked()
	if err != nil {
		b.ratings[statePO] = from
		b.mu.Unlock()
		return View{}, err
	}
	view := b.viewLocked(dem, rep)
	b.mu.Unlock()

	b.observer(Transition{StatePO: statePO, From: from, To: to, DemVotes: dem, RepVotes: rep})
	return view, nil
}

// Totals sums the electoral votes of states leaning to each party. Tossup
// states count for neither.
func (b *Board) Totals() (dem, rep int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.totalsLocked()
}

func (b *Board) totalsLocked() (dem, rep int, err error) {
	for po, r := range b.ratings {
		if r == results.Tossup {
			continue
		}
		v, ok := b.votes[po]
		if !ok {
			return 0, 0, fmt.Errorf("no electoral votes for %s: %w", po, results.ErrKeyNotFound)
		}
		if r.IsDEM() {
			dem += v
		} else {
			rep += v
		}
	}
	return dem, rep, nil
}

// Rating returns the current rating of statePO.
func (b *Board) Rating(statePO string) (results.Rating, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.ratings[statePO]
	if !ok {
		return 0, fmt.Errorf("state %q is not on the board: %w", statePO, results.ErrKeyNotFound)
	}
	return r, nil
}

// View returns a consistent copy of the board.
func (b *Board) View() (View, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	dem, rep, err := b.totalsLocked()
	if err != nil {
		return View{}, err
	}
	return b.viewLocked(dem, rep), nil
}

// Reset restores every state to its starting rating.
func (b *Board) Reset() (View, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for po, r := range b.initial {
		b.ratings[po] = r
	}
	dem, rep, err := b.totalsLocked()
	if err != nil {
		return View{}, err
	}
	return b.viewLocked(dem, rep), nil
}

// StateView is one state on the board.
type StateView struct {
	StatePO        string         `json:"state_po"`
	State          string         `json:"state"`
	Rating         results.Rating `json:"rating"`
	Color          string         `json:"color"`
	ElectoralVotes int            `json:"electoral_votes"`
}

// View is a snapshot of a board.
type View struct {
	States   []StateView `json:"states"`
	DemVotes int         `json:"dem_votes"`
	RepVotes int         `json:"rep_votes"`
	Winner   string      `json:"winner"`
}

// Call names the winner for the given totals.
func Call(dem, rep int) string {
	switch {
	case dem > WinThreshold:
		return string(results.DEM)
	case rep > WinThreshold:
		return string(results.REP)
	default:
		return TooEarly
	}
}

func (b *Board) viewLocked(dem, rep int) View {
	codes := make([]string, 0, len(b.ratings))
	for po := range b.ratings {
		codes = append(codes, po)
	}
	sort.Strings(codes)

	v := View{
		States:   make([]StateView, 0, len(codes)),
		DemVotes: dem,
		RepVotes: rep,
		Winner:   Call(dem, rep),
	}
	for _, po := range codes {
		r := b.ratings[po]
		name := b.names[po]
		if name == "" {
			name = po
		}
		v.States = append(v.States, StateView{
			StatePO:        po,
			State:          name,
			Rating:         r,
			Color:          r.Color(),
			ElectoralVotes: b.votes[po],
		})
	}
	return v
}

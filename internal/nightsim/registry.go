package nightsim

import (
	"fmt"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/banshee-data/election.report/internal/monitoring"
	"github.com/banshee-data/election.report/internal/results"
)

// DefaultSessionLimit bounds how many boards a Registry keeps.
const DefaultSessionLimit = 1024

// Registry holds one Board per session id. The least recently used board is
// dropped once the limit is reached.
type Registry struct {
	boards   *lru.Cache[string, *Board]
	newBoard func() *Board
}

// NewRegistry builds a registry whose boards come from newBoard.
// limit <= 0 uses DefaultSessionLimit.
func NewRegistry(limit int, newBoard func() *Board) (*Registry, error) {
	if limit <= 0 {
		limit = DefaultSessionLimit
	}
	boards, err := lru.NewWithEvict[string, *Board](limit, func(id string, _ *Board) {
		monitoring.Logf("[night] session %s evicted", id)
	})
	if err != nil {
		return nil, fmt.Errorf("create session cache: %w", err)
	}
	return &Registry{boards: boards, newBoard: newBoard}, nil
}

// Create starts a new session and returns its id.
func (r *Registry) Create() (string, *Board) {
	id := uuid.NewString()
	b := r.newBoard()
	r.boards.Add(id, b)
	monitoring.NightSessions.Set(float64(r.boards.Len()))
	return id, b
}

// Get returns the board for id.
func (r *Registry) Get(id string) (*Board, error) {
	b, ok := r.boards.Get(id)
	if !ok {
		return nil, fmt.Errorf("session %q: %w", id, results.ErrKeyNotFound)
	}
	return b, nil
}

// Delete drops a session. Unknown ids are ignored.
func (r *Registry) Delete(id string) {
	r.boards.Remove(id)
	monitoring.NightSessions.Set(float64(r.boards.Len()))
}

// Len reports how many sessions are held.
func (r *Registry) Len() int { return r.boards.Len() }

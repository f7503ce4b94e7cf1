package game

import "time"

// HistoryEntry is one line of the ordered match log.
type HistoryEntry struct {
	Turn   int       `json:"turn"`
	Kind   string    `json:"kind"`
	Detail string    `json:"detail"`
	At     time.Time `json:"at"`
}

// GameState is the shared state mutated exclusively by the resolution
// engine, vote tally, and victory evaluator, each invoked synchronously by
// the orchestrator. Once Ended is true no phase transition or resolution may
// mutate Winner or WinningPlayers.
type GameState struct {
	ID           string
	Turn         int
	CurrentPhase *Phase
	History      []HistoryEntry
	Archived     []Action

	Ended          bool
	Winner         Team
	WinningPlayers []string

	CreatedAt time.Time

	roster Roster
	phases map[string]*Phase
}

// NewGameState creates a fresh state over the given roster and phase set.
func NewGameState(id string, roster Roster, phases map[string]*Phase) *GameState {
	return &GameState{
		ID:        id,
		roster:    roster,
		phases:    phases,
		CreatedAt: time.Now(),
	}
}

// Roster exposes the roster accessor for role hooks and evaluators.
func (g *GameState) Roster() Roster { return g.roster }

// Phase looks up a phase by id.
func (g *GameState) Phase(id string) (*Phase, bool) {
	p, ok := g.phases[id]
	return p, ok
}

// Record appends an entry to the match history.
func (g *GameState) Record(kind, detail string) {
	g.History = append(g.History, HistoryEntry{
		Turn:   g.Turn,
		Kind:   kind,
		Detail: detail,
		At:     time.Now(),
	})
}

package game

import (
	"fmt"
	"sync"
	"time"

	"lycan/internal/config"
)

// MatchState represents the lifecycle of a match container.
type MatchState string

const (
	MatchLobby   MatchState = "lobby"
	MatchPlaying MatchState = "playing"
	MatchEnded   MatchState = "ended"
)

// Match is the container one game runs in: the roster, the lifecycle state,
// and, once started, the orchestrator. The mutex serializes every entry
// point, which is what gives the rules engine its single-writer guarantee.
type Match struct {
	Code       string
	State      MatchState
	MaxPlayers int
	CreatedAt  time.Time
	StartedAt  time.Time

	players []*Player
	byID    map[string]*Player
	orch    *Orchestrator

	mu sync.RWMutex
}

// NewMatch creates an empty lobby.
func NewMatch(code string, maxPlayers int) *Match {
	return &Match{
		Code:       code,
		State:      MatchLobby,
		MaxPlayers: maxPlayers,
		CreatedAt:  time.Now(),
		byID:       make(map[string]*Player),
	}
}

// AddPlayer adds a player to the lobby. The roster is frozen once the match
// starts.
func (m *Match) AddPlayer(player *Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.State != MatchLobby {
		return ErrMatchStarted
	}
	if len(m.players) >= m.MaxPlayers {
		return ErrMatchFull
	}
	for _, p := range m.players {
		if p.Name == player.Name {
			return ErrDuplicateName
		}
	}
	m.players = append(m.players, player)
	m.byID[player.ID] = player
	return nil
}

// RemovePlayer removes a lobby player. Ignored after start.
func (m *Match) RemovePlayer(playerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.State != MatchLobby {
		return
	}
	if _, ok := m.byID[playerID]; !ok {
		return
	}
	delete(m.byID, playerID)
	for i, p := range m.players {
		if p.ID == playerID {
			m.players = append(m.players[:i], m.players[i+1:]...)
			break
		}
	}
}

// GetPlayer retrieves a player by id.
func (m *Match) GetPlayer(playerID string) *Player {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.byID[playerID]
}

// Players returns a copy of the roster in join order. Match satisfies the
// Roster contract for pre-start callers; the orchestrator gets a frozen
// snapshot to avoid re-entrant locking.
func (m *Match) Players() []*Player {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*Player(nil), m.players...)
}

// PlayerCount returns the roster size.
func (m *Match) PlayerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.players)
}

// CanStart checks if the game can start.
func (m *Match) CanStart(minPlayers int) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.State == MatchLobby && len(m.players) >= minPlayers
}

// Start freezes the roster, deals roles per the regulations, and boots the
// orchestrator. gameID identifies the game state (events reference it).
func (m *Match) Start(gameID string, bus Publisher, cfg *config.ServerConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.State != MatchLobby {
		return ErrMatchStarted
	}
	if len(m.players) < cfg.Server.MinPlayersPerMatch {
		return fmt.Errorf("%w: have %d, need %d", ErrNotEnoughPlayers,
			len(m.players), cfg.Server.MinPlayersPerMatch)
	}

	dist, err := cfg.Regulations.DistributionFor(len(m.players))
	if err != nil {
		return err
	}
	if err := AssignRoles(m.players, dist); err != nil {
		return err
	}

	roster := rosterView{players: append([]*Player(nil), m.players...)}
	orch, err := NewOrchestrator(gameID, roster, bus, cfg.Regulations)
	if err != nil {
		return err
	}
	if err := orch.Start(); err != nil {
		return err
	}

	m.orch = orch
	m.State = MatchPlaying
	m.StartedAt = time.Now()
	return nil
}

// Orchestrator returns the running orchestrator, nil in the lobby.
func (m *Match) Orchestrator() *Orchestrator {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.orch
}

// PlayerSnapshot is a value copy of one roster entry. Role and Team are
// empty while the player has no role.
type PlayerSnapshot struct {
	ID    string
	Name  string
	Alive bool
	Role  string
	Team  Team
}

// PhaseSnapshot is a value copy of the active phase's read-side state.
type PhaseSnapshot struct {
	ID               string
	Name             string
	AllowedActions   []string
	Remaining        time.Duration
	HasTimeLimit     bool
	TimeLimitReached bool
}

// MatchSnapshot is a point-in-time copy of everything a read handler needs,
// taken in one critical section. Handlers read from snapshots rather than
// the live orchestrator, so concurrent submissions cannot race their reads.
type MatchSnapshot struct {
	Code    string
	State   MatchState
	Started bool

	Turn           int
	Ended          bool
	Winner         Team
	WinningPlayers []string

	Phase      *PhaseSnapshot
	Visibility VisibilityPolicy

	Players []PlayerSnapshot
}

// Snapshot copies the match and game state under the match lock.
func (m *Match) Snapshot() MatchSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := MatchSnapshot{Code: m.Code, State: m.State}
	for _, p := range m.players {
		ps := PlayerSnapshot{ID: p.ID, Name: p.Name, Alive: p.Alive}
		if p.Role != nil {
			ps.Role = p.Role.Name()
			ps.Team = p.Role.Team()
		}
		snap.Players = append(snap.Players, ps)
	}
	if m.orch == nil {
		return snap
	}

	snap.Started = true
	state := m.orch.State()
	snap.Turn = state.Turn
	snap.Ended = state.Ended
	snap.Winner = state.Winner
	snap.WinningPlayers = append([]string(nil), state.WinningPlayers...)

	if phase := m.orch.CurrentPhase(); phase != nil {
		ps := PhaseSnapshot{
			ID:             phase.ID(),
			Name:           phase.Name(),
			AllowedActions: phase.AllowedActions(),
		}
		ps.Remaining, ps.HasTimeLimit = phase.RemainingTime()
		ps.TimeLimitReached = phase.TimeLimitReached()
		snap.Phase = &ps
		snap.Visibility = phase.Visibility()
	}
	return snap
}

// VotesFor returns the viewer-filtered vote list under the match lock.
func (m *Match) VotesFor(viewerID string) ([]Vote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.orch == nil {
		return nil, ErrNoActivePhase
	}
	return m.orch.VotesFor(viewerID), nil
}

// CountsFor returns the viewer-filtered count mapping under the match lock.
func (m *Match) CountsFor(viewerID string) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.orch == nil {
		return nil, ErrNoActivePhase
	}
	return m.orch.CountsFor(viewerID), nil
}

// VoteStatusFor returns the viewer-filtered vote progress under the match
// lock.
func (m *Match) VoteStatusFor(viewerID string) (VoteStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.orch == nil {
		return VoteStatus{}, ErrNoActivePhase
	}
	return m.orch.VoteStatusFor(viewerID), nil
}

// SubmitAction forwards a night-action submission under the match lock.
func (m *Match) SubmitAction(actorID, targetID string, typ ActionType) (*Action, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.orch == nil {
		return nil, ErrNoActivePhase
	}
	return m.orch.SubmitAction(actorID, targetID, typ)
}

// CastVote forwards a ballot under the match lock.
func (m *Match) CastVote(voterID, targetID string, strength int) (*Vote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.orch == nil {
		return nil, ErrNoActivePhase
	}
	return m.orch.CastVote(voterID, targetID, strength)
}

// EndPhase force-ends the active phase under the match lock and flips the
// match to ended when the game reaches its terminal state.
func (m *Match) EndPhase() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.orch == nil {
		return ErrNoActivePhase
	}
	if err := m.orch.EndPhase(); err != nil {
		return err
	}
	if m.orch.State().Ended {
		m.State = MatchEnded
	}
	return nil
}

// CheckTimeout polls the advisory time limit and force-ends on expiry.
func (m *Match) CheckTimeout() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.orch == nil {
		return false, nil
	}
	ended, err := m.orch.CheckTimeout()
	if err == nil && ended && m.orch.State().Ended {
		m.State = MatchEnded
	}
	return ended, err
}

// Reset returns the match to the lobby with every player revived and roles
// cleared.
func (m *Match) Reset(newGameID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.orch != nil {
		m.orch.Reset(newGameID)
		m.orch = nil
	}
	for _, p := range m.players {
		p.Alive = true
		p.Role = nil
		p.DeathCause = ""
		p.DeathTurn = 0
	}
	m.State = MatchLobby
	m.StartedAt = time.Time{}
}

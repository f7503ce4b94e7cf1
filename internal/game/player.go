package game

import (
	"time"
)

// Player is the roster entity the engine reads ids and roles from. The
// engine owns only the liveness flag, which resolution and execution flip;
// everything else belongs to the roster layer. Role may be nil (unassigned
// or externally withheld) and role-scoped computations must exclude such
// players rather than fail.
type Player struct {
	ID         string
	Name       string
	Alive      bool
	Role       Role
	DeathCause string
	DeathTurn  int
	JoinedAt   time.Time
}

// NewPlayer creates a live, unassigned player.
func NewPlayer(id, name string) *Player {
	return &Player{
		ID:       id,
		Name:     name,
		Alive:    true,
		JoinedAt: time.Now(),
	}
}

func (p *Player) kill(cause string, turn int) {
	p.Alive = false
	p.DeathCause = cause
	p.DeathTurn = turn
}

// Roster is the inbound collaborator contract: a stable, ordered view of the
// match's players. Entries with a nil Role are legal and are excluded from
// role-scoped computations.
type Roster interface {
	Players() []*Player
}

// rosterView is a frozen roster snapshot handed to the orchestrator at match
// start. The pointers stay shared, so liveness updates are visible to every
// holder.
type rosterView struct {
	players []*Player
}

func (r rosterView) Players() []*Player { return r.players }

func findPlayer(roster Roster, id string) *Player {
	for _, p := range roster.Players() {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func alivePlayers(roster Roster) []*Player {
	var alive []*Player
	for _, p := range roster.Players() {
		if p.Alive {
			alive = append(alive, p)
		}
	}
	return alive
}

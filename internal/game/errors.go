package game

import "errors"

var (
	ErrMatchFull          = errors.New("match is full")
	ErrMatchStarted       = errors.New("match has already started")
	ErrNotEnoughPlayers   = errors.New("not enough players to start")
	ErrDuplicateName      = errors.New("a player with that name already exists in the match")
	ErrUnknownPlayer      = errors.New("player not found")
	ErrUnknownRole        = errors.New("unknown role")
	ErrUnknownPhase       = errors.New("unknown phase")
	ErrPhaseNotStarted    = errors.New("phase not started")
	ErrNoActivePhase      = errors.New("no active phase")
	ErrActionNotAllowed   = errors.New("action type not allowed in current phase")
	ErrDuplicateAction    = errors.New("actor already submitted an action of this type")
	ErrActorDead          = errors.New("actor is dead")
	ErrVoterDead          = errors.New("voter is dead")
	ErrTargetDead         = errors.New("target is dead")
	ErrVotesFrozen        = errors.New("votes are frozen")
	ErrNotRunoffCandidate = errors.New("target is not a runoff candidate")
	ErrGameEnded          = errors.New("game has already ended")
)

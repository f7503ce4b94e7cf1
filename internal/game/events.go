package game

import "time"

// EventType identifies events emitted by the engine.
type EventType string

const (
	EventPhaseStart     EventType = "phase.start"
	EventPhaseEnd       EventType = "phase.end"
	EventNightResult    EventType = "night.result"
	EventVoteResult     EventType = "vote.result"
	EventExecution      EventType = "execution.result"
	EventGameEnd        EventType = "game.end"
	EventGameReset      EventType = "game.reset"
	EventRegulationsSet EventType = "game.regulations.set"

	// Private reveals use "<role>.<event>" types, e.g. "madman.teammates".
	EventSeerDivine   EventType = "seer.divine"
	EventMediumResult EventType = "medium.result"
)

// Event is a domain event produced by the rules engine. Target carries a
// player id for private reveals and is empty for broadcasts.
type Event struct {
	Type   EventType
	Target string
	Data   map[string]any
	At     time.Time
}

// Publisher delivers events to whatever transport encloses the engine.
// Domain objects never publish directly; the orchestrator is the only caller,
// so event ordering follows resolution order.
type Publisher interface {
	Publish(e Event)
}

// NopPublisher discards events. Useful for tests and headless evaluation.
type NopPublisher struct{}

func (NopPublisher) Publish(Event) {}

func teammateEventType(roleName string) EventType {
	return EventType(roleName + ".teammates")
}

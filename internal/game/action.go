package game

import (
	"fmt"
	"sort"
)

// ActionType identifies player submissions gated by the active phase.
type ActionType string

const (
	ActionAttack  ActionType = "attack"
	ActionDivine  ActionType = "divine"
	ActionGuard   ActionType = "guard"
	ActionVote    ActionType = "vote"
	ActionDiscuss ActionType = "discuss"
)

// Action is one night-phase submission. Created on submission, consumed
// exactly once at resolution, then archived into history.
type Action struct {
	Actor  string
	Target string
	Type   ActionType
	Order  int
	Turn   int
}

// ActionOutcome records what a single resolved action did.
type ActionOutcome struct {
	Action     Action
	Applied    bool       // the effect took hold
	Nullified  bool       // an attack was blocked by protection
	Disclosure Disclosure // divine result, empty otherwise
	Killed     string     // target id for a lethal attack, empty otherwise
	Reason     string     // why nothing happened, for the audit trail
}

// NightResult is the consolidated summary of one night's resolution.
type NightResult struct {
	Turn     int
	Deaths   []string
	Outcomes []ActionOutcome
}

// effect resolution priority: protective before investigative before
// aggressive. Same-tier actions keep submission order.
var effectPriority = map[EffectKind]int{
	EffectGuard:  0,
	EffectDivine: 1,
	EffectAttack: 2,
}

// nightEffectKind maps each submittable night-action type to the effect kind
// the actor's role must produce for it. Vote and discuss carry no night
// effect and never reach the effect pass.
var nightEffectKind = map[ActionType]EffectKind{
	ActionAttack: EffectAttack,
	ActionDivine: EffectDivine,
	ActionGuard:  EffectGuard,
}

// Engine collects night-action submissions for the active phase and
// resolves them as one batch when the phase ends.
type Engine struct {
	seq     int
	pending []*Action
	index   map[string]*Action // keyed by actor + "/" + type
}

// NewEngine creates an empty resolution engine.
func NewEngine() *Engine {
	return &Engine{index: make(map[string]*Action)}
}

func submissionKey(actorID string, typ ActionType) string {
	return actorID + "/" + string(typ)
}

// Pending returns the number of unresolved submissions.
func (e *Engine) Pending() int { return len(e.pending) }

// HasSubmitted reports whether the actor already has a pending submission of
// the given type.
func (e *Engine) HasSubmitted(actorID string, typ ActionType) bool {
	_, ok := e.index[submissionKey(actorID, typ)]
	return ok
}

// Submit accepts one action per (actor, type) for the active night phase.
// Dead actors and types outside the phase's allowed set are rejected, as is
// a night-action type whose effect the actor's role cannot produce: the
// phase gate says what the table allows, the role says what this actor can
// do, and both must agree. A second submission for the same (actor, type) is
// rejected with ErrDuplicateAction and the first stands; overwriting would
// silently discard an order-dependent submission, so the conflict is
// surfaced to the caller instead.
func (e *Engine) Submit(g *GameState, actorID, targetID string, typ ActionType) (*Action, error) {
	if g.Ended {
		return nil, ErrGameEnded
	}
	phase := g.CurrentPhase
	if phase == nil || !phase.Started() {
		return nil, ErrNoActivePhase
	}
	if !phase.IsActionAllowed(string(typ)) {
		return nil, fmt.Errorf("%w: %q in phase %q", ErrActionNotAllowed, typ, phase.ID())
	}
	actor := findPlayer(g.roster, actorID)
	if actor == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlayer, actorID)
	}
	if !actor.Alive {
		return nil, fmt.Errorf("%w: %q", ErrActorDead, actorID)
	}
	if kind, night := nightEffectKind[typ]; night && actor.Role != nil {
		effect := actor.Role.NightAction(targetID, g.Turn)
		if effect == nil || effect.Kind != kind {
			return nil, fmt.Errorf("%w: role %s cannot %s",
				ErrActionNotAllowed, actor.Role.Name(), typ)
		}
	}
	key := submissionKey(actorID, typ)
	if _, dup := e.index[key]; dup {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateAction, key)
	}

	e.seq++
	action := &Action{
		Actor:  actorID,
		Target: targetID,
		Type:   typ,
		Order:  e.seq,
		Turn:   g.Turn,
	}
	e.pending = append(e.pending, action)
	e.index[key] = action
	return action, nil
}

// Discard drops the pending batch unresolved and clears the duplicate
// index. Submissions never carry across phases: the orchestrator discards on
// every phase end that does not resolve. Returns the number of submissions
// dropped.
func (e *Engine) Discard() int {
	n := len(e.pending)
	e.pending = nil
	e.index = make(map[string]*Action)
	return n
}

// Resolve applies the pending batch against the shared game state and
// returns one outcome per action plus the consolidated night summary.
// Effects resolve guard, then divine, then attack; ties keep submission
// order. An attack on a protected target is recorded as nullified with no
// state change. Resolved actions are archived and cleared; submissions for
// the next phase start from an empty batch.
func (e *Engine) Resolve(g *GameState) *NightResult {
	type resolved struct {
		action *Action
		effect *Effect
	}

	batch := make([]resolved, 0, len(e.pending))
	result := &NightResult{Turn: g.Turn}

	for _, a := range e.pending {
		actor := findPlayer(g.roster, a.Actor)
		if actor == nil || actor.Role == nil {
			// Malformed roster data excludes the record, never aborts the pass.
			result.Outcomes = append(result.Outcomes, ActionOutcome{
				Action: *a, Reason: "actor has no role data",
			})
			continue
		}
		kind, night := nightEffectKind[a.Type]
		if !night {
			result.Outcomes = append(result.Outcomes, ActionOutcome{
				Action: *a, Reason: "no night effect for this action type",
			})
			continue
		}
		if !actor.Role.CanUseAbility(a.Turn) {
			result.Outcomes = append(result.Outcomes, ActionOutcome{
				Action: *a, Reason: "ability not usable this turn",
			})
			continue
		}
		effect := actor.Role.NightAction(a.Target, a.Turn)
		if effect == nil {
			result.Outcomes = append(result.Outcomes, ActionOutcome{
				Action: *a, Reason: "role has no night action",
			})
			continue
		}
		if effect.Kind != kind {
			// The submitted type and the role's effect must agree; a
			// mismatch that slipped past Submit (role assigned later) is
			// excluded, never reinterpreted as the role's own effect.
			result.Outcomes = append(result.Outcomes, ActionOutcome{
				Action: *a, Reason: "role cannot produce this effect",
			})
			continue
		}
		batch = append(batch, resolved{action: a, effect: effect})
	}

	sort.SliceStable(batch, func(i, j int) bool {
		return effectPriority[batch[i].effect.Kind] < effectPriority[batch[j].effect.Kind]
	})

	protected := make(map[string]bool)
	for _, r := range batch {
		outcome := ActionOutcome{Action: *r.action}
		target := findPlayer(g.roster, r.effect.Target)

		switch r.effect.Kind {
		case EffectGuard:
			if target == nil || !target.Alive {
				outcome.Reason = "guard target unavailable"
				break
			}
			protected[target.ID] = true
			outcome.Applied = true

		case EffectDivine:
			if target == nil || target.Role == nil {
				outcome.Reason = "divine target has no role data"
				break
			}
			outcome.Applied = true
			outcome.Disclosure = target.Role.FortuneResult()

		case EffectAttack:
			if target == nil || !target.Alive {
				outcome.Reason = "attack target unavailable"
				break
			}
			if protected[target.ID] {
				outcome.Nullified = true
				outcome.Reason = "target was protected"
				break
			}
			target.kill(string(ActionAttack), g.Turn)
			outcome.Applied = true
			outcome.Killed = target.ID
			result.Deaths = append(result.Deaths, target.ID)
		}

		result.Outcomes = append(result.Outcomes, outcome)
	}

	for _, a := range e.pending {
		g.Archived = append(g.Archived, *a)
	}
	e.pending = nil
	e.index = make(map[string]*Action)

	for _, d := range result.Deaths {
		g.Record("death", fmt.Sprintf("%s died in the night", d))
	}
	return result
}

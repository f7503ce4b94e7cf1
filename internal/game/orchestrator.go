package game

import (
	"fmt"
	"log"
	"time"

	"lycan/internal/config"
)

// phaseAfter is the default transition table. Vote outcomes override the
// vote -> execution edge with a runoff when the top targets tie.
var phaseAfter = map[string]string{
	PhasePreparation: PhaseFirstNight,
	PhaseFirstNight:  PhaseFirstDay,
	PhaseFirstDay:    PhaseVote,
	PhaseVote:        PhaseExecution,
	PhaseRunoffVote:  PhaseExecution,
	PhaseExecution:   PhaseNight,
	PhaseNight:       PhaseDay,
	PhaseDay:         PhaseVote,
}

// Orchestrator drives phase transitions and invokes the resolution engine,
// vote tally, and victory evaluator in sequence. It is the only publisher of
// domain events, which keeps event ordering tied to resolution order. All
// entry points are synchronous; callers serialize access (Match holds the
// lock).
type Orchestrator struct {
	state      *GameState
	bus        Publisher
	engine     *Engine
	tally      *Tally
	visibility *VoteVisibility
	evaluator  *VictoryEvaluator
	reg        config.Regulations

	runoffCandidates []string
	pendingExecution string
	started          bool
}

// NewOrchestrator builds the coordination layer for one match. The phase
// set is the standard table with time limits overridden per the
// regulations; the validation mode comes from the regulations, never from
// the environment.
func NewOrchestrator(id string, roster Roster, bus Publisher, reg config.Regulations) (*Orchestrator, error) {
	if bus == nil {
		bus = NopPublisher{}
	}
	mode := ValidationStrict
	if reg.Validation == string(ValidationOff) {
		mode = ValidationOff
	}

	phases := make(map[string]*Phase, len(standardPhaseTable))
	for _, cfg := range standardPhaseTable {
		if limit, ok := reg.PhaseLimits[cfg.ID]; ok {
			d := limit
			cfg.TimeLimit = &d
		}
		p, err := NewPhase(cfg, mode)
		if err != nil {
			return nil, fmt.Errorf("build phase table: %w", err)
		}
		phases[p.ID()] = p
	}

	return &Orchestrator{
		state:  NewGameState(id, roster, phases),
		bus:    bus,
		engine: NewEngine(),
		visibility: NewVoteVisibility(VoteVisibilitySettings{
			ShowVoterNames:    reg.Votes.ShowVoterNames,
			ShowVoteCount:     reg.Votes.ShowVoteCount,
			ShowRealTimeVotes: reg.Votes.ShowRealTimeVotes,
			AnonymousUntilEnd: reg.Votes.AnonymousUntilEnd,
		}),
		evaluator: NewVictoryEvaluator(),
		reg:       reg,
	}, nil
}

// State exposes the shared game state.
func (o *Orchestrator) State() *GameState { return o.state }

// CurrentPhase returns the active phase, nil before Start.
func (o *Orchestrator) CurrentPhase() *Phase { return o.state.CurrentPhase }

// Visibility returns the vote-visibility filter for this match.
func (o *Orchestrator) Visibility() *VoteVisibility { return o.visibility }

func (o *Orchestrator) publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	o.bus.Publish(e)
}

// Start publishes the regulations, runs every role's one-time game-start
// hook (publishing the reveals the roles return), and opens the preparation
// phase. Calling Start twice is an error: the hooks must run exactly once.
func (o *Orchestrator) Start() error {
	if o.started {
		return ErrMatchStarted
	}
	o.started = true

	o.publish(Event{
		Type: EventRegulationsSet,
		Data: map[string]any{"regulations": o.reg},
	})

	for _, p := range o.state.roster.Players() {
		if p.Role == nil {
			continue
		}
		for _, e := range p.Role.OnGameStart(o.state.roster, p.ID) {
			o.publish(e)
		}
	}

	return o.StartPhase(PhasePreparation)
}

// StartPhase activates the named phase and begins a fresh timer cycle.
// Entering a night phase advances the turn counter; entering a vote phase
// opens a fresh tally (restricted to the stashed candidates for a runoff).
func (o *Orchestrator) StartPhase(id string) error {
	if o.state.Ended && id != PhaseGameEnd {
		return ErrGameEnded
	}
	phase, ok := o.state.Phase(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPhase, id)
	}

	switch id {
	case PhaseFirstNight, PhaseNight:
		o.state.Turn++
	case PhaseVote:
		o.tally = NewTally()
	case PhaseRunoffVote:
		o.tally = NewRunoffTally(o.runoffCandidates)
	}

	o.state.CurrentPhase = phase
	phase.Start()
	o.state.Record("phase", fmt.Sprintf("phase %s started", id))
	o.publish(Event{
		Type: EventPhaseStart,
		Data: map[string]any{"phaseId": id, "timestamp": phase.StartedAt()},
	})
	return nil
}

// EndPhase closes the active phase, runs the resolution step that belongs
// to it, evaluates victory, and advances to the next phase. Force-ending a
// phase early goes through this same path, so the duration contract always
// holds. Submissions arriving after this returns are rejected by the closed
// phase, never buffered.
func (o *Orchestrator) EndPhase() error {
	phase := o.state.CurrentPhase
	if phase == nil {
		return ErrNoActivePhase
	}
	duration, err := phase.End()
	if err != nil {
		return err
	}
	id := phase.ID()
	o.state.Record("phase", fmt.Sprintf("phase %s ended", id))
	o.publish(Event{
		Type: EventPhaseEnd,
		Data: map[string]any{"phaseId": id, "duration": duration.Seconds()},
	})

	// Submissions are scoped to the phase that accepted them. Night ends
	// resolve the batch; every other end discards it, so nothing accepted in
	// phase N is visible to the handler running for phase N+1.
	if id != PhaseFirstNight && id != PhaseNight {
		if dropped := o.engine.Discard(); dropped > 0 {
			log.Printf("phase %s ended with %d unresolved submissions, discarded", id, dropped)
		}
	}

	next := phaseAfter[id]
	switch id {
	case PhaseFirstNight, PhaseNight:
		o.resolveNight()
	case PhaseVote, PhaseRunoffVote:
		if runoff := o.resolveVote(); runoff {
			next = PhaseRunoffVote
		}
	case PhaseExecution:
		o.applyExecution()
	case PhaseGameEnd:
		o.state.CurrentPhase = nil
		return nil
	}

	if o.state.Ended {
		o.publish(Event{
			Type: EventGameEnd,
			Data: map[string]any{
				"winner":         o.state.Winner,
				"winningPlayers": o.state.WinningPlayers,
			},
		})
		return o.StartPhase(PhaseGameEnd)
	}
	return o.StartPhase(next)
}

func (o *Orchestrator) resolveNight() {
	result := o.engine.Resolve(o.state)

	for _, outcome := range result.Outcomes {
		if outcome.Disclosure == "" || !outcome.Applied {
			continue
		}
		o.publish(Event{
			Type:   EventSeerDivine,
			Target: outcome.Action.Actor,
			Data: map[string]any{
				"target": outcome.Action.Target,
				"result": outcome.Disclosure,
			},
		})
	}

	o.publish(Event{
		Type: EventNightResult,
		Data: map[string]any{"turn": result.Turn, "deaths": result.Deaths},
	})
	o.evaluator.Evaluate(o.state)
}

// resolveVote freezes and tallies the ballots. Returns true when a runoff
// is required; otherwise the execution target (possibly none) is stashed
// for the execution phase.
func (o *Orchestrator) resolveVote() bool {
	if o.tally == nil {
		o.pendingExecution = ""
		return false
	}
	o.tally.Freeze()
	result := o.tally.Result()

	o.publish(Event{
		Type: EventVoteResult,
		Data: map[string]any{
			"counts":      result.Counts,
			"target":      result.ExecutionTarget,
			"runoff":      result.Runoff,
			"noExecution": result.NoExecution,
		},
	})

	if result.Runoff {
		o.runoffCandidates = result.RunoffCandidates
		o.state.Record("vote", fmt.Sprintf("runoff among %v", result.RunoffCandidates))
		return true
	}
	o.pendingExecution = result.ExecutionTarget
	if result.NoExecution {
		o.state.Record("vote", "no execution")
	}
	return false
}

func (o *Orchestrator) applyExecution() {
	defer o.evaluator.Evaluate(o.state)

	targetID := o.pendingExecution
	o.pendingExecution = ""
	if targetID == "" {
		return
	}
	target := findPlayer(o.state.roster, targetID)
	if target == nil || !target.Alive {
		log.Printf("execution target %s unavailable, skipping", targetID)
		return
	}
	target.kill("execution", o.state.Turn)
	o.state.Record("execution", fmt.Sprintf("%s was executed", targetID))
	o.publish(Event{
		Type: EventExecution,
		Data: map[string]any{"target": targetID, "turn": o.state.Turn},
	})

	// Mediums learn the executed player's disclosure.
	if target.Role == nil {
		return
	}
	for _, p := range alivePlayers(o.state.roster) {
		if p.Role == nil || p.Role.Name() != RoleMedium {
			continue
		}
		o.publish(Event{
			Type:   EventMediumResult,
			Target: p.ID,
			Data: map[string]any{
				"target": targetID,
				"result": target.Role.MediumResult(),
			},
		})
	}
}

// SubmitAction records a night-action submission against the active phase.
func (o *Orchestrator) SubmitAction(actorID, targetID string, typ ActionType) (*Action, error) {
	if typ == ActionVote {
		return nil, fmt.Errorf("%w: votes go through CastVote", ErrActionNotAllowed)
	}
	return o.engine.Submit(o.state, actorID, targetID, typ)
}

// CastVote records (or revises) a ballot in the active vote phase.
func (o *Orchestrator) CastVote(voterID, targetID string, strength int) (*Vote, error) {
	if o.tally == nil {
		return nil, ErrNoActivePhase
	}
	return o.tally.Cast(o.state, voterID, targetID, strength)
}

// Votes returns the ballots of the current tally.
func (o *Orchestrator) Votes() []Vote {
	if o.tally == nil {
		return nil
	}
	return o.tally.Votes()
}

// VoteComplete reports whether every living player has voted or the tally
// is frozen.
func (o *Orchestrator) VoteComplete() bool {
	if o.tally == nil {
		return false
	}
	if o.tally.Frozen() {
		return true
	}
	for _, p := range alivePlayers(o.state.roster) {
		if !o.tally.HasVoted(p.ID) {
			return false
		}
	}
	return true
}

// VoteStatusFor builds the viewer-filtered status of the vote in progress.
func (o *Orchestrator) VoteStatusFor(viewerID string) VoteStatus {
	status := VoteStatus{Total: len(alivePlayers(o.state.roster))}
	if o.tally == nil {
		return status
	}
	votes := o.tally.Votes()
	status.Cast = len(votes)
	status.Complete = o.VoteComplete()
	return o.visibility.VisibleStatus(status, votes, viewerID)
}

// VotesFor returns the viewer-filtered vote list.
func (o *Orchestrator) VotesFor(viewerID string) []Vote {
	if o.tally == nil {
		return []Vote{}
	}
	return o.visibility.VisibleVotes(o.tally.Votes(), viewerID, o.VoteComplete())
}

// CountsFor returns the viewer-filtered count mapping.
func (o *Orchestrator) CountsFor(viewerID string) map[string]int {
	if o.tally == nil {
		return map[string]int{}
	}
	return o.visibility.VisibleCounts(o.tally.Counts(), viewerID)
}

// RequiredActionsComplete reports whether the active phase's required
// submissions have all arrived: every living player for a vote phase, at
// least one submission per required type otherwise. The orchestrator's
// caller uses this to force an early end.
func (o *Orchestrator) RequiredActionsComplete() bool {
	phase := o.state.CurrentPhase
	if phase == nil || !phase.Started() {
		return false
	}
	required := phase.RequiredActions()
	if len(required) == 0 {
		return false
	}
	for _, typ := range required {
		if typ == string(ActionVote) {
			if !o.VoteComplete() {
				return false
			}
			continue
		}
		found := false
		for _, p := range alivePlayers(o.state.roster) {
			if o.engine.HasSubmitted(p.ID, ActionType(typ)) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// CheckTimeout force-ends the active phase when its advisory time limit has
// expired. Returns true if a phase was ended.
func (o *Orchestrator) CheckTimeout() (bool, error) {
	phase := o.state.CurrentPhase
	if phase == nil || !phase.TimeLimitReached() {
		return false, nil
	}
	log.Printf("phase %s reached its time limit, forcing end", phase.ID())
	if err := o.EndPhase(); err != nil {
		return false, err
	}
	return true, nil
}

// Reset discards the current game state, revives every player, and clears
// role assignments; roles must be re-dealt before the next Start. The reset
// event carries the new state id.
func (o *Orchestrator) Reset(newID string) {
	for _, p := range o.state.roster.Players() {
		p.Alive = true
		p.DeathCause = ""
		p.DeathTurn = 0
		p.Role = nil
	}
	o.state = NewGameState(newID, o.state.roster, o.state.phases)
	o.engine = NewEngine()
	o.tally = nil
	o.runoffCandidates = nil
	o.pendingExecution = ""
	o.started = false
	o.publish(Event{
		Type: EventGameReset,
		Data: map[string]any{"id": newID, "timestamp": o.state.CreatedAt},
	})
}

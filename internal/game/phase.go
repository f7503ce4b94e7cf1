package game

import (
	"fmt"
	"time"
)

// Standard phase ids. The standard set is a configuration table, not
// special-cased logic; custom phases built from a PhaseConfig follow the
// identical contract.
const (
	PhasePreparation = "preparation"
	PhaseFirstNight  = "firstNight"
	PhaseFirstDay    = "firstDay"
	PhaseVote        = "vote"
	PhaseRunoffVote  = "runoffVote"
	PhaseExecution   = "execution"
	PhaseNight       = "night"
	PhaseDay         = "day"
	PhaseGameEnd     = "gameEnd"
)

// ValidationMode controls whether construction-time checks are enforced.
// It is injected explicitly (typically from configuration), never read from
// the ambient environment.
type ValidationMode string

const (
	ValidationStrict ValidationMode = "strict"
	ValidationOff    ValidationMode = "off"
)

// VisibilityPolicy describes what a phase exposes by default.
type VisibilityPolicy struct {
	ShowDeadPlayers bool `json:"showDeadPlayers"`
	ShowRoles       bool `json:"showRoles"`
	ShowVotes       bool `json:"showVotes"`
}

// VisibilityPatch is a partial update to a VisibilityPolicy. Nil fields are
// skipped; there are no unrecognized keys to ignore because the patch is a
// closed struct.
type VisibilityPatch struct {
	ShowDeadPlayers *bool `json:"showDeadPlayers"`
	ShowRoles       *bool `json:"showRoles"`
	ShowVotes       *bool `json:"showVotes"`
}

// PhaseConfig is the construction-time description of a phase.
type PhaseConfig struct {
	ID              string
	Name            string
	Description     string
	AllowedActions  []string
	RequiredActions []string
	TimeLimit       *time.Duration
	Visibility      VisibilityPolicy
	Metadata        map[string]string
}

// Phase is a passive descriptor of one stage of the match: which action
// types are legal, default visibility, and timer state. The allowed-action
// set and time limit are immutable after construction; timer fields mutate
// only through Start and End. A Phase never self-terminates on timeout;
// expiry is advisory state the orchestrator polls.
type Phase struct {
	id          string
	name        string
	description string
	allowed     map[string]struct{}
	allowedList []string
	required    []string
	timeLimit   *time.Duration
	visibility  VisibilityPolicy
	metadata    map[string]string

	started  bool
	startAt  time.Time
	endAt    time.Time
	duration time.Duration

	now func() time.Time
}

// NewPhase validates cfg and builds a reusable phase. A missing id, display
// name, or allowed-action list is a configuration error with no recovery
// path. ValidationOff skips these checks for pre-vetted tables.
func NewPhase(cfg PhaseConfig, mode ValidationMode) (*Phase, error) {
	if mode != ValidationOff {
		if cfg.ID == "" {
			return nil, fmt.Errorf("phase config: missing id")
		}
		if cfg.Name == "" {
			return nil, fmt.Errorf("phase config %q: missing display name", cfg.ID)
		}
		if cfg.AllowedActions == nil {
			return nil, fmt.Errorf("phase config %q: missing allowed-action list", cfg.ID)
		}
	}

	allowed := make(map[string]struct{}, len(cfg.AllowedActions))
	allowedList := make([]string, 0, len(cfg.AllowedActions))
	for _, a := range cfg.AllowedActions {
		if _, dup := allowed[a]; dup {
			continue
		}
		allowed[a] = struct{}{}
		allowedList = append(allowedList, a)
	}

	// Defensive copies: the caller keeps ownership of its slices.
	required := append([]string(nil), cfg.RequiredActions...)

	var limit *time.Duration
	if cfg.TimeLimit != nil {
		d := *cfg.TimeLimit
		limit = &d
	}

	metadata := make(map[string]string, len(cfg.Metadata))
	for k, v := range cfg.Metadata {
		metadata[k] = v
	}

	return &Phase{
		id:          cfg.ID,
		name:        cfg.Name,
		description: cfg.Description,
		allowed:     allowed,
		allowedList: allowedList,
		required:    required,
		timeLimit:   limit,
		visibility:  cfg.Visibility,
		metadata:    metadata,
		now:         time.Now,
	}, nil
}

func (p *Phase) ID() string          { return p.id }
func (p *Phase) Name() string        { return p.name }
func (p *Phase) Description() string { return p.description }

// AllowedActions returns a copy of the allowed-action list in construction
// order.
func (p *Phase) AllowedActions() []string {
	return append([]string(nil), p.allowedList...)
}

// RequiredActions returns a copy of the required-action list.
func (p *Phase) RequiredActions() []string {
	return append([]string(nil), p.required...)
}

// Metadata returns the value for a metadata key.
func (p *Phase) Metadata(key string) (string, bool) {
	v, ok := p.metadata[key]
	return v, ok
}

// Start records the start time. Phases are reused across turns: each call
// begins a fresh cycle, resetting end time and duration.
func (p *Phase) Start() {
	p.started = true
	p.startAt = p.now()
	p.endAt = time.Time{}
	p.duration = 0
}

// End records the end time and returns the elapsed duration. Ending a phase
// that was never started is operational misuse and is reported, never
// guessed around.
func (p *Phase) End() (time.Duration, error) {
	if !p.started {
		return 0, fmt.Errorf("phase %q: %w", p.id, ErrPhaseNotStarted)
	}
	p.endAt = p.now()
	p.duration = p.endAt.Sub(p.startAt)
	p.started = false
	return p.duration, nil
}

// Started reports whether the phase is in an active cycle.
func (p *Phase) Started() bool { return p.started }

// StartedAt returns the start of the current (or last) cycle.
func (p *Phase) StartedAt() time.Time { return p.startAt }

// Duration returns the recorded duration of the last completed cycle.
func (p *Phase) Duration() time.Duration { return p.duration }

// IsActionAllowed reports whether the given action type is legal in this
// phase. Empty input is never allowed; the check is membership, nothing more.
func (p *Phase) IsActionAllowed(actionType string) bool {
	if actionType == "" {
		return false
	}
	_, ok := p.allowed[actionType]
	return ok
}

// Visibility returns the phase's current visibility policy.
func (p *Phase) Visibility() VisibilityPolicy { return p.visibility }

// ApplyVisibility merges the non-nil fields of the patch into the policy.
// This is a best-effort partial update, not a validation boundary.
func (p *Phase) ApplyVisibility(patch VisibilityPatch) {
	if patch.ShowDeadPlayers != nil {
		p.visibility.ShowDeadPlayers = *patch.ShowDeadPlayers
	}
	if patch.ShowRoles != nil {
		p.visibility.ShowRoles = *patch.ShowRoles
	}
	if patch.ShowVotes != nil {
		p.visibility.ShowVotes = *patch.ShowVotes
	}
}

// TimeLimit returns the configured limit, if any.
func (p *Phase) TimeLimit() (time.Duration, bool) {
	if p.timeLimit == nil {
		return 0, false
	}
	return *p.timeLimit, true
}

// RemainingTime returns the time left in the current cycle. ok is false when
// the phase is unstarted or has no time limit. The value is floored at zero
// and non-increasing while the cycle runs.
func (p *Phase) RemainingTime() (time.Duration, bool) {
	if !p.started || p.timeLimit == nil {
		return 0, false
	}
	remaining := *p.timeLimit - p.now().Sub(p.startAt)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

// TimeLimitReached reports whether the current cycle has used up its limit.
// Advisory only: the phase takes no action on its own.
func (p *Phase) TimeLimitReached() bool {
	remaining, ok := p.RemainingTime()
	return ok && remaining == 0
}

func seconds(n int) *time.Duration {
	d := time.Duration(n) * time.Second
	return &d
}

// standardPhaseTable is the default phase set. Time limits here are
// defaults; regulations may override them at orchestrator construction.
var standardPhaseTable = []PhaseConfig{
	{
		ID:             PhasePreparation,
		Name:           "Preparation",
		Description:    "Roles are dealt and private reveals are delivered",
		AllowedActions: []string{},
		Visibility:     VisibilityPolicy{ShowDeadPlayers: true},
	},
	{
		ID:              PhaseFirstNight,
		Name:            "First Night",
		Description:     "Night abilities are submitted for the opening turn",
		AllowedActions:  []string{string(ActionAttack), string(ActionDivine), string(ActionGuard)},
		RequiredActions: []string{string(ActionAttack)},
		TimeLimit:       seconds(180),
	},
	{
		ID:             PhaseFirstDay,
		Name:           "First Day",
		Description:    "Open discussion after the first night's deaths",
		AllowedActions: []string{string(ActionDiscuss)},
		TimeLimit:      seconds(300),
		Visibility:     VisibilityPolicy{ShowDeadPlayers: true},
	},
	{
		ID:              PhaseVote,
		Name:            "Vote",
		Description:     "Ballots are cast toward execution",
		AllowedActions:  []string{string(ActionVote)},
		RequiredActions: []string{string(ActionVote)},
		TimeLimit:       seconds(120),
		Visibility:      VisibilityPolicy{ShowDeadPlayers: true, ShowVotes: true},
	},
	{
		ID:              PhaseRunoffVote,
		Name:            "Runoff Vote",
		Description:     "Revote restricted to the tied targets",
		AllowedActions:  []string{string(ActionVote)},
		RequiredActions: []string{string(ActionVote)},
		TimeLimit:       seconds(60),
		Visibility:      VisibilityPolicy{ShowDeadPlayers: true, ShowVotes: true},
	},
	{
		ID:             PhaseExecution,
		Name:           "Execution",
		Description:    "The vote outcome is carried out",
		AllowedActions: []string{},
		Visibility:     VisibilityPolicy{ShowDeadPlayers: true, ShowVotes: true},
	},
	{
		ID:              PhaseNight,
		Name:            "Night",
		Description:     "Night abilities are submitted",
		AllowedActions:  []string{string(ActionAttack), string(ActionDivine), string(ActionGuard)},
		RequiredActions: []string{string(ActionAttack)},
		TimeLimit:       seconds(180),
	},
	{
		ID:             PhaseDay,
		Name:           "Day",
		Description:    "Open discussion",
		AllowedActions: []string{string(ActionDiscuss)},
		TimeLimit:      seconds(300),
		Visibility:     VisibilityPolicy{ShowDeadPlayers: true},
	},
	{
		ID:             PhaseGameEnd,
		Name:           "Game End",
		Description:    "The match is over and all information is revealed",
		AllowedActions: []string{},
		Visibility:     VisibilityPolicy{ShowDeadPlayers: true, ShowRoles: true, ShowVotes: true},
	},
}

// StandardPhases builds the standard phase set keyed by phase id. The table
// is vetted, so validation mode is irrelevant here.
func StandardPhases() map[string]*Phase {
	phases := make(map[string]*Phase, len(standardPhaseTable))
	for _, cfg := range standardPhaseTable {
		p, err := NewPhase(cfg, ValidationStrict)
		if err != nil {
			// The table is compiled in; a bad entry is a programming error.
			panic(err)
		}
		phases[p.ID()] = p
	}
	return phases
}

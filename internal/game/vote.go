package game

import (
	"fmt"
	"sort"
	"time"
)

// Vote is a day-phase ballot. Mutable only before the owning phase ends;
// frozen after tally.
type Vote struct {
	Voter    string    `json:"voter"`
	Target   string    `json:"target"`
	Strength int       `json:"strength"`
	CastAt   time.Time `json:"castAt"`
}

// VoteResult is the outcome of tallying one vote phase.
type VoteResult struct {
	Counts           map[string]int `json:"counts"`
	ExecutionTarget  string         `json:"executionTarget,omitempty"`
	Runoff           bool           `json:"runoff"`
	RunoffCandidates []string       `json:"runoffCandidates,omitempty"`
	NoExecution      bool           `json:"noExecution"`
}

// Tally collects ballots for one vote phase and computes the outcome. A
// runoff tally is restricted to the tied candidates of the previous round.
type Tally struct {
	votes      []*Vote
	byVoter    map[string]*Vote
	candidates map[string]struct{} // nil means unrestricted
	frozen     bool
	now        func() time.Time
}

// NewTally creates an unrestricted tally.
func NewTally() *Tally {
	return &Tally{byVoter: make(map[string]*Vote), now: time.Now}
}

// NewRunoffTally creates a tally restricted to exactly the given candidates.
func NewRunoffTally(candidates []string) *Tally {
	t := NewTally()
	t.candidates = make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		t.candidates[c] = struct{}{}
	}
	return t
}

// IsRunoff reports whether this tally is candidate-restricted.
func (t *Tally) IsRunoff() bool { return t.candidates != nil }

// Candidates returns the runoff candidate list, sorted.
func (t *Tally) Candidates() []string {
	if t.candidates == nil {
		return nil
	}
	out := make([]string, 0, len(t.candidates))
	for c := range t.candidates {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Cast records a ballot. Casting again before the freeze replaces the
// voter's previous ballot in place: day votes are revisable until the phase
// ends, unlike night actions. Strength below one defaults to one.
func (t *Tally) Cast(g *GameState, voterID, targetID string, strength int) (*Vote, error) {
	if t.frozen {
		return nil, ErrVotesFrozen
	}
	if g.Ended {
		return nil, ErrGameEnded
	}
	phase := g.CurrentPhase
	if phase == nil || !phase.Started() {
		return nil, ErrNoActivePhase
	}
	if !phase.IsActionAllowed(string(ActionVote)) {
		return nil, fmt.Errorf("%w: %q in phase %q", ErrActionNotAllowed, ActionVote, phase.ID())
	}
	voter := findPlayer(g.roster, voterID)
	if voter == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlayer, voterID)
	}
	if !voter.Alive {
		return nil, fmt.Errorf("%w: %q", ErrVoterDead, voterID)
	}
	target := findPlayer(g.roster, targetID)
	if target == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlayer, targetID)
	}
	if !target.Alive {
		return nil, fmt.Errorf("%w: %q", ErrTargetDead, targetID)
	}
	if t.candidates != nil {
		if _, ok := t.candidates[targetID]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrNotRunoffCandidate, targetID)
		}
	}
	if strength < 1 {
		strength = 1
	}

	if existing, ok := t.byVoter[voterID]; ok {
		existing.Target = targetID
		existing.Strength = strength
		existing.CastAt = t.now()
		return existing, nil
	}

	vote := &Vote{Voter: voterID, Target: targetID, Strength: strength, CastAt: t.now()}
	t.votes = append(t.votes, vote)
	t.byVoter[voterID] = vote
	return vote, nil
}

// Votes returns value copies of the cast ballots in cast order.
func (t *Tally) Votes() []Vote {
	out := make([]Vote, len(t.votes))
	for i, v := range t.votes {
		out[i] = *v
	}
	return out
}

// HasVoted reports whether the voter has a ballot in this tally.
func (t *Tally) HasVoted(voterID string) bool {
	_, ok := t.byVoter[voterID]
	return ok
}

// Counts sums vote strength per target.
func (t *Tally) Counts() map[string]int {
	counts := make(map[string]int)
	for _, v := range t.votes {
		counts[v.Target] += v.Strength
	}
	return counts
}

// Freeze makes the tally immutable. Called when the owning phase ends.
func (t *Tally) Freeze() { t.frozen = true }

// Frozen reports whether the tally has been frozen.
func (t *Tally) Frozen() bool { return t.frozen }

// Result computes the outcome. The target with the strictly highest strength
// sum is the execution target. A top tie on an unrestricted tally calls for
// a runoff among exactly the tied targets; a tie persisting through a runoff
// means no execution, a fixed policy rather than iteration-order luck. An empty
// tally likewise yields no execution.
func (t *Tally) Result() *VoteResult {
	counts := t.Counts()
	result := &VoteResult{Counts: counts}

	max := 0
	for _, n := range counts {
		if n > max {
			max = n
		}
	}
	if max == 0 {
		result.NoExecution = true
		return result
	}

	var top []string
	for target, n := range counts {
		if n == max {
			top = append(top, target)
		}
	}
	sort.Strings(top)

	if len(top) == 1 {
		result.ExecutionTarget = top[0]
		return result
	}
	if t.IsRunoff() {
		result.NoExecution = true
		return result
	}
	result.Runoff = true
	result.RunoffCandidates = top
	return result
}

package game

import (
	"errors"
	"testing"
	"time"
)

func TestNewPhase_Validation(t *testing.T) {
	limit := 60 * time.Second

	tests := []struct {
		name    string
		cfg     PhaseConfig
		wantErr bool
	}{
		{
			"valid",
			PhaseConfig{ID: "dusk", Name: "Dusk", AllowedActions: []string{"vote"}, TimeLimit: &limit},
			false,
		},
		{
			"missing id",
			PhaseConfig{Name: "Dusk", AllowedActions: []string{"vote"}},
			true,
		},
		{
			"missing display name",
			PhaseConfig{ID: "dusk", AllowedActions: []string{"vote"}},
			true,
		},
		{
			"missing allowed actions",
			PhaseConfig{ID: "dusk", Name: "Dusk"},
			true,
		},
		{
			"empty allowed actions is fine",
			PhaseConfig{ID: "dusk", Name: "Dusk", AllowedActions: []string{}},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPhase(tt.cfg, ValidationStrict)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewPhase() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewPhase_ValidationOff(t *testing.T) {
	// Pre-vetted tables may skip the checks entirely.
	p, err := NewPhase(PhaseConfig{}, ValidationOff)
	if err != nil {
		t.Fatalf("expected no error with validation off, got %v", err)
	}
	if p.IsActionAllowed("vote") {
		t.Error("empty phase should allow nothing")
	}
}

func TestPhase_DefensiveCopies(t *testing.T) {
	allowed := []string{"vote"}
	required := []string{"vote"}
	p, err := NewPhase(PhaseConfig{
		ID: "dusk", Name: "Dusk",
		AllowedActions: allowed, RequiredActions: required,
	}, ValidationStrict)
	if err != nil {
		t.Fatal(err)
	}

	allowed[0] = "attack"
	required[0] = "attack"

	if p.IsActionAllowed("attack") {
		t.Error("mutating the caller's slice leaked into the allowed set")
	}
	if !p.IsActionAllowed("vote") {
		t.Error("original allowed action lost")
	}
	if got := p.RequiredActions(); got[0] != "vote" {
		t.Errorf("required actions not copied, got %v", got)
	}
}

func TestPhase_IsActionAllowed(t *testing.T) {
	p, err := NewPhase(PhaseConfig{
		ID: "dusk", Name: "Dusk", AllowedActions: []string{"vote"},
	}, ValidationStrict)
	if err != nil {
		t.Fatal(err)
	}

	if !p.IsActionAllowed("vote") {
		t.Error(`isActionAllowed("vote") = false, want true`)
	}
	if p.IsActionAllowed("discuss") {
		t.Error(`isActionAllowed("discuss") = true, want false`)
	}
	if p.IsActionAllowed("") {
		t.Error("empty action type must never be allowed")
	}
}

func TestPhase_EndBeforeStart(t *testing.T) {
	p, _ := NewPhase(PhaseConfig{ID: "dusk", Name: "Dusk", AllowedActions: []string{}}, ValidationStrict)

	_, err := p.End()
	if !errors.Is(err, ErrPhaseNotStarted) {
		t.Errorf("End() before Start() error = %v, want ErrPhaseNotStarted", err)
	}
}

func TestPhase_TimerCycle(t *testing.T) {
	p, _ := NewPhase(PhaseConfig{ID: "dusk", Name: "Dusk", AllowedActions: []string{}}, ValidationStrict)

	base := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
	clock := base
	p.now = func() time.Time { return clock }

	p.Start()
	clock = clock.Add(42 * time.Second)
	d, err := p.End()
	if err != nil {
		t.Fatal(err)
	}
	if d != 42*time.Second {
		t.Errorf("duration = %v, want 42s", d)
	}

	// Phases are reused: a second cycle starts clean.
	clock = clock.Add(time.Hour)
	p.Start()
	if p.Duration() != 0 {
		t.Errorf("restart did not reset duration, got %v", p.Duration())
	}
	clock = clock.Add(5 * time.Second)
	d, err = p.End()
	if err != nil || d != 5*time.Second {
		t.Errorf("second cycle duration = %v, %v; want 5s", d, err)
	}
}

func TestPhase_RemainingTime(t *testing.T) {
	limit := 120 * time.Second
	p, _ := NewPhase(PhaseConfig{
		ID: "dusk", Name: "Dusk", AllowedActions: []string{}, TimeLimit: &limit,
	}, ValidationStrict)

	if _, ok := p.RemainingTime(); ok {
		t.Error("unstarted phase should report no remaining time")
	}

	base := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
	clock := base
	p.now = func() time.Time { return clock }
	p.Start()

	remaining, ok := p.RemainingTime()
	if !ok || remaining != 120*time.Second {
		t.Errorf("remaining = %v, %v; want 120s, true", remaining, ok)
	}

	clock = clock.Add(50 * time.Second)
	later, ok := p.RemainingTime()
	if !ok || later != 70*time.Second {
		t.Errorf("remaining = %v, %v; want 70s, true", later, ok)
	}
	if later > remaining {
		t.Error("remaining time increased")
	}
	if p.TimeLimitReached() {
		t.Error("limit reported reached with 70s left")
	}

	clock = clock.Add(10 * time.Minute)
	floored, ok := p.RemainingTime()
	if !ok || floored != 0 {
		t.Errorf("remaining = %v, %v; want 0, true", floored, ok)
	}
	if !p.TimeLimitReached() {
		t.Error("limit not reported reached after expiry")
	}
}

func TestPhase_NoTimeLimit(t *testing.T) {
	p, _ := NewPhase(PhaseConfig{ID: "dusk", Name: "Dusk", AllowedActions: []string{}}, ValidationStrict)
	p.Start()
	if _, ok := p.RemainingTime(); ok {
		t.Error("phase without a limit should report no remaining time")
	}
	if p.TimeLimitReached() {
		t.Error("phase without a limit can never reach it")
	}
}

func TestPhase_ApplyVisibility(t *testing.T) {
	p, _ := NewPhase(PhaseConfig{
		ID: "dusk", Name: "Dusk", AllowedActions: []string{},
		Visibility: VisibilityPolicy{ShowDeadPlayers: true},
	}, ValidationStrict)

	show := true
	p.ApplyVisibility(VisibilityPatch{ShowVotes: &show})

	got := p.Visibility()
	if !got.ShowVotes {
		t.Error("ShowVotes not merged")
	}
	if !got.ShowDeadPlayers {
		t.Error("untouched field was clobbered")
	}
	if got.ShowRoles {
		t.Error("nil field was applied")
	}
}

func TestStandardPhases(t *testing.T) {
	phases := StandardPhases()

	want := []string{
		PhasePreparation, PhaseFirstNight, PhaseFirstDay, PhaseVote,
		PhaseRunoffVote, PhaseExecution, PhaseNight, PhaseDay, PhaseGameEnd,
	}
	for _, id := range want {
		if _, ok := phases[id]; !ok {
			t.Errorf("standard set missing phase %q", id)
		}
	}

	vote := phases[PhaseVote]
	if !vote.IsActionAllowed("vote") {
		t.Error("vote phase must allow voting")
	}
	if vote.IsActionAllowed("discuss") {
		t.Error("vote phase must not allow discussion")
	}
	if !phases[PhaseGameEnd].Visibility().ShowRoles {
		t.Error("game end should reveal roles")
	}
}

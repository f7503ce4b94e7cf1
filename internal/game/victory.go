package game

import "fmt"

// WinCondition is a team's predicate over the live-player team distribution.
type WinCondition struct {
	Team        Team
	Name        string
	Description string
	Check       func(alive map[Team]int) bool
}

// StandardWinConditions returns the built-in conditions in their fixed
// priority order: the village's eradication check runs before the werewolf
// parity check, so a state satisfying both resolves to a village win.
func StandardWinConditions() []WinCondition {
	return []WinCondition{
		{
			Team:        TeamVillage,
			Name:        "eradication",
			Description: "every werewolf is dead",
			Check: func(alive map[Team]int) bool {
				return alive[TeamWerewolf] == 0
			},
		},
		{
			Team:        TeamWerewolf,
			Name:        "parity",
			Description: "werewolves match or outnumber the remaining humans",
			Check: func(alive map[Team]int) bool {
				return alive[TeamWerewolf] > 0 && alive[TeamWerewolf] >= alive[TeamVillage]
			},
		},
	}
}

// VictoryResult reports a satisfied win condition.
type VictoryResult struct {
	Winner         Team     `json:"winner"`
	Condition      string   `json:"condition"`
	WinningPlayers []string `json:"winningPlayers"`
}

// VictoryEvaluator checks win conditions after each resolution or tally
// step. Terminal state is sticky: once the game ends, Evaluate never
// touches winner or winning players again.
type VictoryEvaluator struct {
	conditions []WinCondition
}

// NewVictoryEvaluator builds an evaluator; with no arguments it uses the
// standard condition set.
func NewVictoryEvaluator(conditions ...WinCondition) *VictoryEvaluator {
	if len(conditions) == 0 {
		conditions = StandardWinConditions()
	}
	return &VictoryEvaluator{conditions: conditions}
}

// Evaluate computes the live team distribution (players with missing role
// data are excluded) and checks each condition in priority order. On the
// first satisfied condition it sets the terminal fields on the state and
// returns the result; on an already-ended game it is a no-op returning nil.
func (v *VictoryEvaluator) Evaluate(g *GameState) *VictoryResult {
	if g.Ended {
		return nil
	}

	alive := make(map[Team]int)
	for _, p := range g.roster.Players() {
		if p.Role == nil || !p.Alive {
			continue
		}
		alive[p.Role.Team()]++
	}

	for _, cond := range v.conditions {
		if !cond.Check(alive) {
			continue
		}
		var winners []string
		for _, p := range g.roster.Players() {
			if p.Role != nil && p.Role.Team() == cond.Team {
				winners = append(winners, p.ID)
			}
		}
		g.Ended = true
		g.Winner = cond.Team
		g.WinningPlayers = winners
		g.Record("victory", fmt.Sprintf("%s win by %s", cond.Team, cond.Name))
		return &VictoryResult{Winner: cond.Team, Condition: cond.Name, WinningPlayers: winners}
	}
	return nil
}

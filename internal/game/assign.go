package game

import (
	"fmt"
	"math/rand"
	"sort"
)

// AssignRoles deals roles to the players from a role-count distribution.
// Players are shuffled first, so assignment order carries no information;
// players left over after the named counts are dealt become villagers.
// Roles are assigned once per match and never reassigned.
func AssignRoles(players []*Player, distribution map[string]int) error {
	total := 0
	for name, count := range distribution {
		if _, ok := roleTable[name]; !ok {
			return fmt.Errorf("%w: %q in distribution", ErrUnknownRole, name)
		}
		total += count
	}
	if total > len(players) {
		return fmt.Errorf("distribution assigns %d roles to %d players", total, len(players))
	}

	shuffled := make([]*Player, len(players))
	copy(shuffled, players)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	// Deterministic deal order over the shuffled players.
	names := make([]string, 0, len(distribution))
	for name := range distribution {
		names = append(names, name)
	}
	sort.Strings(names)

	idx := 0
	for _, name := range names {
		for i := 0; i < distribution[name]; i++ {
			role, err := NewRole(name)
			if err != nil {
				return err
			}
			shuffled[idx].Role = role
			idx++
		}
	}
	for ; idx < len(shuffled); idx++ {
		role, _ := NewRole(RoleVillager)
		shuffled[idx].Role = role
	}
	return nil
}

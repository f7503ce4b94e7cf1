package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRole(t *testing.T, name string) Role {
	t.Helper()
	r, err := NewRole(name)
	require.NoError(t, err)
	return r
}

func playerWithRole(t *testing.T, id, name, roleName string) *Player {
	t.Helper()
	p := NewPlayer(id, name)
	p.Role = mustRole(t, roleName)
	return p
}

func TestNewRole(t *testing.T) {
	for _, name := range RoleNames() {
		r, err := NewRole(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, r.Name())
	}

	_, err := NewRole("bard")
	assert.ErrorIs(t, err, ErrUnknownRole)
}

func TestRoleDisclosures(t *testing.T) {
	tests := []struct {
		role    string
		fortune Disclosure
		medium  Disclosure
		team    Team
	}{
		{RoleVillager, DisclosureHuman, DisclosureHuman, TeamVillage},
		{RoleWerewolf, DisclosureWerewolf, DisclosureWerewolf, TeamWerewolf},
		{RoleSeer, DisclosureHuman, DisclosureHuman, TeamVillage},
		{RoleMedium, DisclosureHuman, DisclosureHuman, TeamVillage},
		{RoleKnight, DisclosureHuman, DisclosureHuman, TeamVillage},
		// The madman reads as human to both checks despite the allegiance.
		{RoleMadman, DisclosureHuman, DisclosureHuman, TeamWerewolf},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			r := mustRole(t, tt.role)
			assert.Equal(t, tt.fortune, r.FortuneResult())
			assert.Equal(t, tt.medium, r.MediumResult())
			assert.Equal(t, tt.team, r.Team())
		})
	}
}

func TestAbilityGating(t *testing.T) {
	assert.False(t, mustRole(t, RoleVillager).CanUseAbility(3))
	assert.False(t, mustRole(t, RoleMedium).CanUseAbility(3))
	assert.False(t, mustRole(t, RoleMadman).CanUseAbility(3))

	assert.True(t, mustRole(t, RoleWerewolf).CanUseAbility(1))
	assert.True(t, mustRole(t, RoleSeer).CanUseAbility(1))

	knight := mustRole(t, RoleKnight)
	assert.False(t, knight.CanUseAbility(1), "no guard on the opening night")
	assert.True(t, knight.CanUseAbility(2))
}

func TestAbilityTargets(t *testing.T) {
	wolf := playerWithRole(t, "w1", "Wolfram", RoleWerewolf)
	wolf2 := playerWithRole(t, "w2", "Lupa", RoleWerewolf)
	seer := playerWithRole(t, "s1", "Cassandra", RoleSeer)
	dead := playerWithRole(t, "v1", "Victim", RoleVillager)
	dead.Alive = false
	unassigned := NewPlayer("u1", "Drifter")

	roster := rosterView{players: []*Player{wolf, wolf2, seer, dead, unassigned}}

	t.Run("werewolf skips packmates and the dead", func(t *testing.T) {
		targets := wolf.Role.AbilityTargets(roster, wolf.ID)
		assert.ElementsMatch(t, []string{"s1", "u1"}, targets)
	})

	t.Run("seer targets any other living player", func(t *testing.T) {
		targets := seer.Role.AbilityTargets(roster, seer.ID)
		assert.ElementsMatch(t, []string{"w1", "w2", "u1"}, targets)
	})

	t.Run("villager has no targets", func(t *testing.T) {
		v := mustRole(t, RoleVillager)
		assert.Empty(t, v.AbilityTargets(roster, "v1"))
	})
}

func TestWerewolfReveal(t *testing.T) {
	wolf := playerWithRole(t, "w1", "Wolfram", RoleWerewolf)
	wolf2 := playerWithRole(t, "w2", "Lupa", RoleWerewolf)
	madman := playerWithRole(t, "m1", "Loon", RoleMadman)
	villager := playerWithRole(t, "v1", "Ann", RoleVillager)

	roster := rosterView{players: []*Player{wolf, wolf2, madman, villager}}

	events := wolf.Role.OnGameStart(roster, wolf.ID)
	require.Len(t, events, 1)
	assert.Equal(t, EventType("werewolf.teammates"), events[0].Type)
	assert.Equal(t, "w1", events[0].Target)

	mates, ok := events[0].Data["teammates"]
	require.True(t, ok)
	// The pack sees werewolf roles only; the madman stays hidden.
	assert.Len(t, mates, 1)
}

func TestWerewolfReveal_LoneWolf(t *testing.T) {
	wolf := playerWithRole(t, "w1", "Wolfram", RoleWerewolf)
	villager := playerWithRole(t, "v1", "Ann", RoleVillager)

	roster := rosterView{players: []*Player{wolf, villager}}
	assert.Empty(t, wolf.Role.OnGameStart(roster, wolf.ID))
}

func TestMadmanReveal(t *testing.T) {
	madman := playerWithRole(t, "m1", "Loon", RoleMadman)
	wolf := playerWithRole(t, "w1", "Wolfram", RoleWerewolf)
	wolf2 := playerWithRole(t, "w2", "Lupa", RoleWerewolf)
	villager := playerWithRole(t, "v1", "Ann", RoleVillager)
	unassigned := NewPlayer("u1", "Drifter")

	roster := rosterView{players: []*Player{madman, wolf, wolf2, villager, unassigned}}

	events := madman.Role.OnGameStart(roster, madman.ID)
	require.Len(t, events, 1, "exactly one reveal regardless of teammate count")
	assert.Equal(t, EventType("madman.teammates"), events[0].Type)
	assert.Equal(t, "m1", events[0].Target)
}

func TestMadmanReveal_NoTeammates(t *testing.T) {
	madman := playerWithRole(t, "m1", "Loon", RoleMadman)
	villager := playerWithRole(t, "v1", "Ann", RoleVillager)

	roster := rosterView{players: []*Player{madman, villager}}
	assert.Empty(t, madman.Role.OnGameStart(roster, madman.ID))
}

func TestNightActionEffects(t *testing.T) {
	wolf := mustRole(t, RoleWerewolf)
	effect := wolf.NightAction("v1", 1)
	require.NotNil(t, effect)
	assert.Equal(t, EffectAttack, effect.Kind)
	assert.Equal(t, "v1", effect.Target)

	seer := mustRole(t, RoleSeer)
	effect = seer.NightAction("w1", 1)
	require.NotNil(t, effect)
	assert.Equal(t, EffectDivine, effect.Kind)

	knight := mustRole(t, RoleKnight)
	effect = knight.NightAction("v1", 2)
	require.NotNil(t, effect)
	assert.Equal(t, EffectGuard, effect.Kind)

	assert.Nil(t, mustRole(t, RoleVillager).NightAction("v1", 2))
	assert.Nil(t, mustRole(t, RoleMadman).NightAction("v1", 2))
}

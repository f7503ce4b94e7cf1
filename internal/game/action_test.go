package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nightState builds a game state sitting in a started night phase with the
// given roster.
func nightState(t *testing.T, turn int, players ...*Player) *GameState {
	t.Helper()
	g := NewGameState("g1", rosterView{players: players}, StandardPhases())
	g.Turn = turn
	phase, ok := g.Phase(PhaseNight)
	require.True(t, ok)
	g.CurrentPhase = phase
	phase.Start()
	return g
}

func TestEngineSubmit_Rejections(t *testing.T) {
	wolf := playerWithRole(t, "w1", "Wolfram", RoleWerewolf)
	villager := playerWithRole(t, "v1", "Ann", RoleVillager)
	dead := playerWithRole(t, "d1", "Ghost", RoleVillager)
	dead.Alive = false
	g := nightState(t, 2, wolf, villager, dead)

	e := NewEngine()

	t.Run("unknown actor", func(t *testing.T) {
		_, err := e.Submit(g, "nobody", "v1", ActionAttack)
		assert.ErrorIs(t, err, ErrUnknownPlayer)
	})

	t.Run("dead actor", func(t *testing.T) {
		_, err := e.Submit(g, "d1", "v1", ActionAttack)
		assert.ErrorIs(t, err, ErrActorDead)
	})

	t.Run("action outside the phase", func(t *testing.T) {
		_, err := e.Submit(g, "w1", "v1", ActionDiscuss)
		assert.ErrorIs(t, err, ErrActionNotAllowed)
	})

	t.Run("duplicate keeps the first submission", func(t *testing.T) {
		first, err := e.Submit(g, "w1", "v1", ActionAttack)
		require.NoError(t, err)

		_, err = e.Submit(g, "w1", "d1", ActionAttack)
		assert.ErrorIs(t, err, ErrDuplicateAction)
		assert.True(t, e.HasSubmitted("w1", ActionAttack))
		assert.Equal(t, "v1", first.Target, "first submission must stand")
		assert.Equal(t, 1, e.Pending())
	})

	t.Run("no active phase", func(t *testing.T) {
		g2 := NewGameState("g2", rosterView{players: []*Player{wolf}}, StandardPhases())
		_, err := NewEngine().Submit(g2, "w1", "v1", ActionAttack)
		assert.ErrorIs(t, err, ErrNoActivePhase)
	})

	t.Run("ended game", func(t *testing.T) {
		g3 := nightState(t, 2, wolf, villager)
		g3.Ended = true
		_, err := NewEngine().Submit(g3, "w1", "v1", ActionAttack)
		assert.ErrorIs(t, err, ErrGameEnded)
	})
}

func TestEngineSubmit_TypeMustMatchRole(t *testing.T) {
	wolf := playerWithRole(t, "w1", "Wolfram", RoleWerewolf)
	villager := playerWithRole(t, "v1", "Ann", RoleVillager)
	bystander := playerWithRole(t, "v2", "Bea", RoleVillager)
	g := nightState(t, 2, wolf, villager, bystander)

	e := NewEngine()
	_, err := e.Submit(g, "w1", "v1", ActionAttack)
	require.NoError(t, err)

	// The phase allows divine, but a werewolf cannot produce one; accepting
	// it would hand the wolf a second attack under a different type key.
	_, err = e.Submit(g, "w1", "v2", ActionDivine)
	assert.ErrorIs(t, err, ErrActionNotAllowed)
	_, err = e.Submit(g, "w1", "v2", ActionGuard)
	assert.ErrorIs(t, err, ErrActionNotAllowed)

	result := e.Resolve(g)
	assert.Equal(t, []string{"v1"}, result.Deaths, "one wolf, one kill per night")
	assert.True(t, bystander.Alive)
}

func TestEngineResolve_MismatchedTypeExcluded(t *testing.T) {
	drifter := NewPlayer("u1", "Drifter")
	villager := playerWithRole(t, "v1", "Ann", RoleVillager)
	g := nightState(t, 2, drifter, villager)

	e := NewEngine()
	// No role data at submission time, so the type check cannot run yet.
	_, err := e.Submit(g, "u1", "v1", ActionDivine)
	require.NoError(t, err)

	// Role data arrives before resolution; the stale divine must not turn
	// into the role's attack.
	drifter.Role = mustRole(t, RoleWerewolf)

	result := e.Resolve(g)
	require.Len(t, result.Outcomes, 1)
	assert.False(t, result.Outcomes[0].Applied)
	assert.Equal(t, "role cannot produce this effect", result.Outcomes[0].Reason)
	assert.Empty(t, result.Deaths)
	assert.True(t, villager.Alive)
}

func TestEngineDiscard(t *testing.T) {
	wolf := playerWithRole(t, "w1", "Wolfram", RoleWerewolf)
	villager := playerWithRole(t, "v1", "Ann", RoleVillager)
	g := nightState(t, 2, wolf, villager)

	e := NewEngine()
	_, err := e.Submit(g, "w1", "v1", ActionAttack)
	require.NoError(t, err)

	assert.Equal(t, 1, e.Discard())
	assert.Zero(t, e.Pending())
	assert.False(t, e.HasSubmitted("w1", ActionAttack))
	assert.Empty(t, g.Archived, "discarded submissions are not archived")

	// The discarded batch frees the (actor, type) slot.
	_, err = e.Submit(g, "w1", "v1", ActionAttack)
	assert.NoError(t, err)
	assert.Zero(t, NewEngine().Discard())
}

func TestEngineResolve_AttackKills(t *testing.T) {
	wolf := playerWithRole(t, "w1", "Wolfram", RoleWerewolf)
	villager := playerWithRole(t, "v1", "Ann", RoleVillager)
	g := nightState(t, 2, wolf, villager)

	e := NewEngine()
	_, err := e.Submit(g, "w1", "v1", ActionAttack)
	require.NoError(t, err)

	result := e.Resolve(g)
	require.Len(t, result.Outcomes, 1)
	assert.True(t, result.Outcomes[0].Applied)
	assert.Equal(t, "v1", result.Outcomes[0].Killed)
	assert.Equal(t, []string{"v1"}, result.Deaths)

	assert.False(t, villager.Alive)
	assert.Equal(t, "attack", villager.DeathCause)
	assert.Equal(t, 2, villager.DeathTurn)
}

func TestEngineResolve_GuardBeforeAttack(t *testing.T) {
	wolf := playerWithRole(t, "w1", "Wolfram", RoleWerewolf)
	knight := playerWithRole(t, "k1", "Roland", RoleKnight)
	villager := playerWithRole(t, "v1", "Ann", RoleVillager)
	g := nightState(t, 2, wolf, knight, villager)

	e := NewEngine()
	// Attack lands in the batch before the guard; priority still wins.
	_, err := e.Submit(g, "w1", "v1", ActionAttack)
	require.NoError(t, err)
	_, err = e.Submit(g, "k1", "v1", ActionGuard)
	require.NoError(t, err)

	result := e.Resolve(g)
	require.Len(t, result.Outcomes, 2)

	guard, attack := result.Outcomes[0], result.Outcomes[1]
	assert.Equal(t, ActionGuard, guard.Action.Type)
	assert.True(t, guard.Applied)

	assert.Equal(t, ActionAttack, attack.Action.Type)
	assert.True(t, attack.Nullified)
	assert.False(t, attack.Applied)
	assert.Empty(t, result.Deaths)
	assert.True(t, villager.Alive)
}

func TestEngineResolve_GuardElsewhereDoesNotProtect(t *testing.T) {
	wolf := playerWithRole(t, "w1", "Wolfram", RoleWerewolf)
	knight := playerWithRole(t, "k1", "Roland", RoleKnight)
	villager := playerWithRole(t, "v1", "Ann", RoleVillager)
	bystander := playerWithRole(t, "v2", "Bea", RoleVillager)
	g := nightState(t, 2, wolf, knight, villager, bystander)

	e := NewEngine()
	_, err := e.Submit(g, "k1", "v2", ActionGuard)
	require.NoError(t, err)
	_, err = e.Submit(g, "w1", "v1", ActionAttack)
	require.NoError(t, err)

	result := e.Resolve(g)
	assert.Equal(t, []string{"v1"}, result.Deaths)
	assert.False(t, villager.Alive)
	assert.True(t, bystander.Alive)
}

func TestEngineResolve_Divine(t *testing.T) {
	seer := playerWithRole(t, "s1", "Cassandra", RoleSeer)
	wolf := playerWithRole(t, "w1", "Wolfram", RoleWerewolf)
	madman := playerWithRole(t, "m1", "Loon", RoleMadman)
	g := nightState(t, 1, seer, wolf, madman)

	e := NewEngine()
	_, err := e.Submit(g, "s1", "w1", ActionDivine)
	require.NoError(t, err)

	result := e.Resolve(g)
	require.Len(t, result.Outcomes, 1)
	assert.True(t, result.Outcomes[0].Applied)
	assert.Equal(t, DisclosureWerewolf, result.Outcomes[0].Disclosure)
}

func TestEngineResolve_AbilityGatedByTurn(t *testing.T) {
	knight := playerWithRole(t, "k1", "Roland", RoleKnight)
	villager := playerWithRole(t, "v1", "Ann", RoleVillager)
	g := nightState(t, 1, knight, villager)
	// The first-night phase allows guard submissions; the role itself gates
	// the opening turn at resolution.
	first, ok := g.Phase(PhaseFirstNight)
	require.True(t, ok)
	g.CurrentPhase = first
	first.Start()

	e := NewEngine()
	_, err := e.Submit(g, "k1", "v1", ActionGuard)
	require.NoError(t, err)

	result := e.Resolve(g)
	require.Len(t, result.Outcomes, 1)
	assert.False(t, result.Outcomes[0].Applied)
	assert.Equal(t, "ability not usable this turn", result.Outcomes[0].Reason)
}

func TestEngineResolve_SubmissionOrderWithinTier(t *testing.T) {
	wolf := playerWithRole(t, "w1", "Wolfram", RoleWerewolf)
	wolf2 := playerWithRole(t, "w2", "Lupa", RoleWerewolf)
	villager := playerWithRole(t, "v1", "Ann", RoleVillager)
	villager2 := playerWithRole(t, "v2", "Bea", RoleVillager)
	g := nightState(t, 2, wolf, wolf2, villager, villager2)

	e := NewEngine()
	_, err := e.Submit(g, "w2", "v2", ActionAttack)
	require.NoError(t, err)
	_, err = e.Submit(g, "w1", "v1", ActionAttack)
	require.NoError(t, err)

	result := e.Resolve(g)
	require.Len(t, result.Outcomes, 2)
	assert.Equal(t, "w2", result.Outcomes[0].Action.Actor)
	assert.Equal(t, "w1", result.Outcomes[1].Action.Actor)
	assert.Equal(t, []string{"v2", "v1"}, result.Deaths)
}

func TestEngineResolve_ArchivesAndClears(t *testing.T) {
	wolf := playerWithRole(t, "w1", "Wolfram", RoleWerewolf)
	villager := playerWithRole(t, "v1", "Ann", RoleVillager)
	g := nightState(t, 2, wolf, villager)

	e := NewEngine()
	_, err := e.Submit(g, "w1", "v1", ActionAttack)
	require.NoError(t, err)

	e.Resolve(g)
	assert.Zero(t, e.Pending())
	assert.False(t, e.HasSubmitted("w1", ActionAttack))
	require.Len(t, g.Archived, 1)
	assert.Equal(t, "w1", g.Archived[0].Actor)

	// The next phase starts from an empty batch.
	_, err = e.Submit(g, "w1", "v1", ActionAttack)
	assert.NoError(t, err, "resolution clears the duplicate index")
}

func TestEngineResolve_MissingRoleExcluded(t *testing.T) {
	unassigned := NewPlayer("u1", "Drifter")
	villager := playerWithRole(t, "v1", "Ann", RoleVillager)
	g := nightState(t, 2, unassigned, villager)

	e := NewEngine()
	_, err := e.Submit(g, "u1", "v1", ActionAttack)
	require.NoError(t, err)

	result := e.Resolve(g)
	require.Len(t, result.Outcomes, 1)
	assert.False(t, result.Outcomes[0].Applied)
	assert.Equal(t, "actor has no role data", result.Outcomes[0].Reason)
	assert.True(t, villager.Alive)
}

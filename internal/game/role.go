package game

import (
	"fmt"
	"time"
)

// Team is the winning coalition a role belongs to. A player's team is fixed
// once the role is assigned.
type Team string

const (
	TeamVillage  Team = "village"
	TeamWerewolf Team = "werewolf"
)

// Disclosure is the binary result a seer or medium learns about a role:
// aligned with the village or opposed to it.
type Disclosure string

const (
	DisclosureHuman    Disclosure = "human"
	DisclosureWerewolf Disclosure = "werewolf"
)

// EffectKind classifies a night-action effect for resolution ordering.
type EffectKind string

const (
	EffectGuard  EffectKind = "guard"
	EffectDivine EffectKind = "divine"
	EffectAttack EffectKind = "attack"
)

// Effect is what a role's night action does to a target.
type Effect struct {
	Kind   EffectKind
	Target string
}

// Role names form a closed set dispatched through roleTable.
const (
	RoleVillager = "villager"
	RoleWerewolf = "werewolf"
	RoleSeer     = "seer"
	RoleMedium   = "medium"
	RoleKnight   = "knight"
	RoleMadman   = "madman"
)

// Role is the per-variant capability set. Implementations are stateless;
// all game state flows in through the roster.
//
// OnGameStart is a one-time hook invoked exactly once per match by the
// orchestrator; it returns the events to publish rather than publishing
// itself. Re-invocation is not a guaranteed no-op.
type Role interface {
	Name() string
	Team() Team
	CanUseAbility(turn int) bool
	AbilityTargets(roster Roster, selfID string) []string
	NightAction(targetID string, turn int) *Effect
	FortuneResult() Disclosure
	MediumResult() Disclosure
	OnGameStart(roster Roster, selfID string) []Event
}

var roleTable = map[string]func() Role{
	RoleVillager: func() Role { return villagerRole{} },
	RoleWerewolf: func() Role { return werewolfRole{} },
	RoleSeer:     func() Role { return seerRole{} },
	RoleMedium:   func() Role { return mediumRole{} },
	RoleKnight:   func() Role { return knightRole{} },
	RoleMadman:   func() Role { return madmanRole{} },
}

// NewRole builds a role variant by name.
func NewRole(name string) (Role, error) {
	factory, ok := roleTable[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, name)
	}
	return factory(), nil
}

// RoleNames lists the closed role set in a fixed order.
func RoleNames() []string {
	return []string{RoleVillager, RoleWerewolf, RoleSeer, RoleMedium, RoleKnight, RoleMadman}
}

// noAbility is embedded by roles whose ability slots are permanently empty.
type noAbility struct{}

func (noAbility) CanUseAbility(int) bool                 { return false }
func (noAbility) AbilityTargets(Roster, string) []string { return nil }
func (noAbility) NightAction(string, int) *Effect        { return nil }

// passiveStart is embedded by roles with no game-start discovery.
type passiveStart struct{}

func (passiveStart) OnGameStart(Roster, string) []Event { return nil }

// teammateReveal scans the roster for other players matching the predicate
// and, only if at least one exists, builds exactly one private reveal
// addressed to selfID listing them. Players with missing role data are
// excluded, never fatal.
func teammateReveal(roster Roster, selfID, roleName string, match func(*Player) bool) []Event {
	type teammate struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	var mates []teammate
	for _, p := range roster.Players() {
		if p.ID == selfID || p.Role == nil {
			continue
		}
		if match(p) {
			mates = append(mates, teammate{ID: p.ID, Name: p.Name})
		}
	}
	if len(mates) == 0 {
		return nil
	}
	return []Event{{
		Type:   teammateEventType(roleName),
		Target: selfID,
		Data:   map[string]any{"teammates": mates},
		At:     time.Now(),
	}}
}

// livingTargets enumerates live players other than self that pass the filter.
func livingTargets(roster Roster, selfID string, keep func(*Player) bool) []string {
	var targets []string
	for _, p := range roster.Players() {
		if !p.Alive || p.ID == selfID {
			continue
		}
		if keep == nil || keep(p) {
			targets = append(targets, p.ID)
		}
	}
	return targets
}

type villagerRole struct {
	noAbility
	passiveStart
}

func (villagerRole) Name() string              { return RoleVillager }
func (villagerRole) Team() Team                { return TeamVillage }
func (villagerRole) FortuneResult() Disclosure { return DisclosureHuman }
func (villagerRole) MediumResult() Disclosure  { return DisclosureHuman }

type werewolfRole struct{}

func (werewolfRole) Name() string              { return RoleWerewolf }
func (werewolfRole) Team() Team                { return TeamWerewolf }
func (werewolfRole) CanUseAbility(turn int) bool { return turn >= 1 }

func (werewolfRole) AbilityTargets(roster Roster, selfID string) []string {
	return livingTargets(roster, selfID, func(p *Player) bool {
		return p.Role == nil || p.Role.Name() != RoleWerewolf
	})
}

func (werewolfRole) NightAction(targetID string, turn int) *Effect {
	return &Effect{Kind: EffectAttack, Target: targetID}
}

func (werewolfRole) FortuneResult() Disclosure { return DisclosureWerewolf }
func (werewolfRole) MediumResult() Disclosure  { return DisclosureWerewolf }

// Werewolves know each other. The reveal covers fellow werewolf roles only:
// the madman shares their team but stays hidden from the pack.
func (werewolfRole) OnGameStart(roster Roster, selfID string) []Event {
	return teammateReveal(roster, selfID, RoleWerewolf, func(p *Player) bool {
		return p.Role.Name() == RoleWerewolf
	})
}

type seerRole struct {
	passiveStart
}

func (seerRole) Name() string                { return RoleSeer }
func (seerRole) Team() Team                  { return TeamVillage }
func (seerRole) CanUseAbility(turn int) bool { return turn >= 1 }

func (seerRole) AbilityTargets(roster Roster, selfID string) []string {
	return livingTargets(roster, selfID, nil)
}

func (seerRole) NightAction(targetID string, turn int) *Effect {
	return &Effect{Kind: EffectDivine, Target: targetID}
}

func (seerRole) FortuneResult() Disclosure { return DisclosureHuman }
func (seerRole) MediumResult() Disclosure  { return DisclosureHuman }

type mediumRole struct {
	noAbility
	passiveStart
}

func (mediumRole) Name() string              { return RoleMedium }
func (mediumRole) Team() Team                { return TeamVillage }
func (mediumRole) FortuneResult() Disclosure { return DisclosureHuman }
func (mediumRole) MediumResult() Disclosure  { return DisclosureHuman }

type knightRole struct {
	passiveStart
}

func (knightRole) Name() string { return RoleKnight }
func (knightRole) Team() Team   { return TeamVillage }

// No guard on the opening night.
func (knightRole) CanUseAbility(turn int) bool { return turn >= 2 }

func (knightRole) AbilityTargets(roster Roster, selfID string) []string {
	return livingTargets(roster, selfID, nil)
}

func (knightRole) NightAction(targetID string, turn int) *Effect {
	return &Effect{Kind: EffectGuard, Target: targetID}
}

func (knightRole) FortuneResult() Disclosure { return DisclosureHuman }
func (knightRole) MediumResult() Disclosure  { return DisclosureHuman }

// madmanRole has no active ability but sides with the werewolves. Its only
// power is the one-time discovery at game start: it learns who its hidden
// teammates are, while they never learn it exists.
type madmanRole struct {
	noAbility
}

func (madmanRole) Name() string              { return RoleMadman }
func (madmanRole) Team() Team                { return TeamWerewolf }
func (madmanRole) FortuneResult() Disclosure { return DisclosureHuman }
func (madmanRole) MediumResult() Disclosure  { return DisclosureHuman }

func (m madmanRole) OnGameStart(roster Roster, selfID string) []Event {
	return teammateReveal(roster, selfID, RoleMadman, func(p *Player) bool {
		return p.Role.Team() == m.Team()
	})
}

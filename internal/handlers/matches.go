package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"lycan/internal/game"
)

// statusForError maps engine sentinels to HTTP statuses. Anything
// unrecognized is a client error: the engine has no internal failure modes
// on these paths.
func statusForError(err error) int {
	switch {
	case errors.Is(err, game.ErrUnknownPlayer), errors.Is(err, game.ErrUnknownPhase):
		return http.StatusNotFound
	case errors.Is(err, game.ErrDuplicateAction), errors.Is(err, game.ErrDuplicateName),
		errors.Is(err, game.ErrMatchStarted), errors.Is(err, game.ErrVotesFrozen):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// CreateMatch opens a new lobby.
func (h *Handler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	match, err := h.store.CreateMatch()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	log.Printf("created match %s", match.Code)
	writeJSON(w, http.StatusCreated, map[string]any{
		"code":       match.Code,
		"state":      match.State,
		"maxPlayers": match.MaxPlayers,
	})
}

// JoinMatch adds a player to a lobby.
func (h *Handler) JoinMatch(w http.ResponseWriter, r *http.Request) {
	match, err := h.store.GetMatch(chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("a player name is required"))
		return
	}

	player := game.NewPlayer(uuid.NewString(), req.Name)
	if err := match.AddPlayer(player); err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":   player.ID,
		"name": player.Name,
	})
}

// LeaveMatch removes a lobby player.
func (h *Handler) LeaveMatch(w http.ResponseWriter, r *http.Request) {
	match, err := h.store.GetMatch(chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	match.RemovePlayer(chi.URLParam(r, "playerID"))
	w.WriteHeader(http.StatusNoContent)
}

// StartMatch freezes the roster, deals roles, and starts the game.
func (h *Handler) StartMatch(w http.ResponseWriter, r *http.Request) {
	match, err := h.store.GetMatch(chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	gameID := uuid.NewString()
	bus := matchPublisher{bus: h.eventBus, code: match.Code}
	if err := match.Start(gameID, bus, h.config); err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	log.Printf("match %s started with %d players", match.Code, match.PlayerCount())
	writeJSON(w, http.StatusOK, h.matchSummary(match, moderatorParam(r)))
}

// MatchState reports the viewer-filtered match summary.
func (h *Handler) MatchState(w http.ResponseWriter, r *http.Request) {
	match, err := h.store.GetMatch(chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, h.matchSummary(match, moderatorParam(r)))
}

// SubmitAction records a night-action submission.
func (h *Handler) SubmitAction(w http.ResponseWriter, r *http.Request) {
	match, err := h.store.GetMatch(chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	var req struct {
		Actor  string `json:"actor"`
		Target string `json:"target"`
		Type   string `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("malformed submission"))
		return
	}

	action, err := match.SubmitAction(req.Actor, req.Target, game.ActionType(req.Type))
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"actor":  action.Actor,
		"target": action.Target,
		"type":   action.Type,
		"order":  action.Order,
		"turn":   action.Turn,
	})
}

// CastVote records or revises a ballot.
func (h *Handler) CastVote(w http.ResponseWriter, r *http.Request) {
	match, err := h.store.GetMatch(chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	var req struct {
		Voter    string `json:"voter"`
		Target   string `json:"target"`
		Strength int    `json:"strength"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("malformed ballot"))
		return
	}

	vote, err := match.CastVote(req.Voter, req.Target, req.Strength)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, vote)
}

// Votes returns the viewer-filtered vote list.
func (h *Handler) Votes(w http.ResponseWriter, r *http.Request) {
	match, err := h.store.GetMatch(chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	viewer := moderatorParam(r)
	votes, err := match.VotesFor(viewer)
	if err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	counts, err := match.CountsFor(viewer)
	if err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"votes":  votes,
		"counts": counts,
	})
}

// VoteStatus returns the viewer-filtered vote progress.
func (h *Handler) VoteStatus(w http.ResponseWriter, r *http.Request) {
	match, err := h.store.GetMatch(chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	status, err := match.VoteStatusFor(moderatorParam(r))
	if err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// EndPhase force-ends the active phase (moderator operation). The phase's
// end contract runs in full before resolution, exactly as on a timeout.
func (h *Handler) EndPhase(w http.ResponseWriter, r *http.Request) {
	match, err := h.store.GetMatch(chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err := match.EndPhase(); err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, h.matchSummary(match, game.ModeratorViewer))
}

// ResetMatch returns a match to the lobby.
func (h *Handler) ResetMatch(w http.ResponseWriter, r *http.Request) {
	match, err := h.store.GetMatch(chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	match.Reset(uuid.NewString())
	writeJSON(w, http.StatusOK, map[string]any{"code": match.Code, "state": match.State})
}

// moderatorParam reads the viewer id from the query string; absence means
// the moderator viewpoint.
func moderatorParam(r *http.Request) string {
	return r.URL.Query().Get("viewer")
}

// matchSummary builds the viewer-filtered state document from a single
// match snapshot, so a concurrent submission cannot tear the view. Dead
// players and roles are included per the active phase's visibility policy;
// the moderator always sees everything.
func (h *Handler) matchSummary(match *game.Match, viewerID string) map[string]any {
	snap := match.Snapshot()
	summary := map[string]any{
		"code":  snap.Code,
		"state": snap.State,
	}

	policy := game.VisibilityPolicy{ShowDeadPlayers: true}
	if snap.Started {
		summary["turn"] = snap.Turn
		summary["ended"] = snap.Ended
		if snap.Ended {
			summary["winner"] = snap.Winner
			summary["winningPlayers"] = snap.WinningPlayers
		}
		if snap.Phase != nil {
			policy = snap.Visibility
			phaseDoc := map[string]any{
				"id":             snap.Phase.ID,
				"name":           snap.Phase.Name,
				"allowedActions": snap.Phase.AllowedActions,
			}
			if snap.Phase.HasTimeLimit {
				phaseDoc["remainingSeconds"] = int(snap.Phase.Remaining.Seconds())
				phaseDoc["timeLimitReached"] = snap.Phase.TimeLimitReached
			}
			summary["phase"] = phaseDoc
		}
	}

	moderator := viewerID == game.ModeratorViewer
	var players []map[string]any
	for _, p := range snap.Players {
		if !p.Alive && !policy.ShowDeadPlayers && !moderator {
			continue
		}
		doc := map[string]any{
			"id":    p.ID,
			"name":  p.Name,
			"alive": p.Alive,
		}
		if p.Role != "" && (moderator || policy.ShowRoles || p.ID == viewerID) {
			doc["role"] = p.Role
			doc["team"] = p.Team
		}
		players = append(players, doc)
	}
	summary["players"] = players
	return summary
}

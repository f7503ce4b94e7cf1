package game

// ModeratorViewer is the uniform moderator viewpoint across every
// visibility-producing operation. The moderator sees everything.
const ModeratorViewer = ""

// VoteVisibilitySettings governs what a viewpoint may observe of the vote.
type VoteVisibilitySettings struct {
	ShowVoterNames    bool `json:"showVoterNames"`
	ShowVoteCount     bool `json:"showVoteCount"`
	ShowRealTimeVotes bool `json:"showRealTimeVotes"`
	AnonymousUntilEnd bool `json:"anonymousUntilEnd"`
}

// VoteVisibilityPatch is a partial settings update; nil fields are skipped.
type VoteVisibilityPatch struct {
	ShowVoterNames    *bool `json:"showVoterNames"`
	ShowVoteCount     *bool `json:"showVoteCount"`
	ShowRealTimeVotes *bool `json:"showRealTimeVotes"`
	AnonymousUntilEnd *bool `json:"anonymousUntilEnd"`
}

// VoteStatus is the per-viewpoint summary of a vote phase in progress.
// Votes, OwnVote and Counts are filled per the viewer's privileges.
type VoteStatus struct {
	Total    int            `json:"total"`
	Cast     int            `json:"cast"`
	Complete bool           `json:"complete"`
	Votes    []Vote         `json:"votes,omitempty"`
	OwnVote  *Vote          `json:"ownVote,omitempty"`
	Counts   map[string]int `json:"counts,omitempty"`
}

// VoteVisibility filters vote data per viewpoint.
type VoteVisibility struct {
	settings VoteVisibilitySettings
}

// NewVoteVisibility creates a filter with the given defaults.
func NewVoteVisibility(defaults VoteVisibilitySettings) *VoteVisibility {
	return &VoteVisibility{settings: defaults}
}

// Settings returns the current settings.
func (v *VoteVisibility) Settings() VoteVisibilitySettings { return v.settings }

// Configure merges the non-nil fields of the patch. Best-effort partial
// update, not a validation boundary.
func (v *VoteVisibility) Configure(patch VoteVisibilityPatch) {
	if patch.ShowVoterNames != nil {
		v.settings.ShowVoterNames = *patch.ShowVoterNames
	}
	if patch.ShowVoteCount != nil {
		v.settings.ShowVoteCount = *patch.ShowVoteCount
	}
	if patch.ShowRealTimeVotes != nil {
		v.settings.ShowRealTimeVotes = *patch.ShowRealTimeVotes
	}
	if patch.AnonymousUntilEnd != nil {
		v.settings.AnonymousUntilEnd = *patch.AnonymousUntilEnd
	}
}

// VisibleVotes returns the votes the viewer may see, as copies. The
// moderator, or any viewer when real-time votes are on, sees every vote;
// while anonymous-until-end is set and the vote is incomplete, voter
// identity is blanked on the copies. A non-privileged viewer sees only their
// own ballot, or nothing if they have not voted. ShowVoterNames=false
// additionally hides voter identity from non-moderator viewers.
func (v *VoteVisibility) VisibleVotes(votes []Vote, viewerID string, complete bool) []Vote {
	privileged := viewerID == ModeratorViewer || v.settings.ShowRealTimeVotes
	if !privileged {
		for _, vote := range votes {
			if vote.Voter == viewerID {
				return []Vote{vote}
			}
		}
		return []Vote{}
	}

	anonymize := v.settings.AnonymousUntilEnd && !complete
	hideNames := viewerID != ModeratorViewer && !v.settings.ShowVoterNames
	out := make([]Vote, len(votes))
	for i, vote := range votes {
		out[i] = vote
		if anonymize || hideNames {
			out[i].Voter = ""
		}
	}
	return out
}

// VisibleCounts returns the count mapping the viewer may see: empty for
// non-moderator viewers when vote counts are hidden, otherwise a copy of
// the full mapping.
func (v *VoteVisibility) VisibleCounts(counts map[string]int, viewerID string) map[string]int {
	if viewerID != ModeratorViewer && !v.settings.ShowVoteCount {
		return map[string]int{}
	}
	out := make(map[string]int, len(counts))
	for k, n := range counts {
		out[k] = n
	}
	return out
}

// VisibleStatus returns the viewer's view of the vote in progress. The
// moderator view embeds the full vote list. A player view always includes
// their own ballot if cast; when real-time votes are on it additionally
// carries either an anonymized aggregate count mapping (anonymous-until-end
// and incomplete) or the viewer-filtered vote list.
func (v *VoteVisibility) VisibleStatus(status VoteStatus, votes []Vote, viewerID string) VoteStatus {
	out := status
	out.Votes = nil
	out.OwnVote = nil
	out.Counts = nil

	if viewerID == ModeratorViewer {
		out.Votes = append([]Vote(nil), votes...)
		return out
	}

	for _, vote := range votes {
		if vote.Voter == viewerID {
			own := vote
			out.OwnVote = &own
			break
		}
	}

	if !v.settings.ShowRealTimeVotes {
		return out
	}
	if v.settings.AnonymousUntilEnd && !status.Complete {
		counts := make(map[string]int)
		for _, vote := range votes {
			counts[vote.Target] += vote.Strength
		}
		out.Counts = counts
		return out
	}
	out.Votes = v.VisibleVotes(votes, viewerID, status.Complete)
	return out
}

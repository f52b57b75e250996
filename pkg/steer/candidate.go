package steer

import "github.com/plume-design/opensync-sub020/internal/logger"

// Candidate is one BSS steering candidate: bssid/channel identity plus the
// mutable preference a recalc pass writes.
type Candidate struct {
	BSSID      string
	Channel    int
	Preference Preference
	Reason     string
}

// CandidateList is a flat, insertion-ordered list of candidates (C5).
type CandidateList struct {
	order []string
	byBSS map[string]*Candidate
}

// NewCandidateList constructs an empty candidate list.
func NewCandidateList() *CandidateList {
	return &CandidateList{byBSS: make(map[string]*Candidate)}
}

// BSSSet creates or updates a candidate in place, preserving insertion
// order and any already-written preference/reason.
func (l *CandidateList) BSSSet(bssid string, channel int) *Candidate {
	if c, ok := l.byBSS[bssid]; ok {
		c.Channel = channel
		return c
	}
	c := &Candidate{BSSID: bssid, Channel: channel, Preference: PreferenceNone}
	l.byBSS[bssid] = c
	l.order = append(l.order, bssid)
	return c
}

// Lookup returns a mutable reference to the candidate for bssid, or nil.
func (l *CandidateList) Lookup(bssid string) *Candidate {
	return l.byBSS[bssid]
}

// Clear resets every candidate's preference back to none and drops its
// reason; bssid/channel identity is preserved.
func (l *CandidateList) Clear() {
	for _, c := range l.byBSS {
		c.Preference = PreferenceNone
		c.Reason = ""
	}
}

// Candidates returns the candidate list in insertion order.
func (l *CandidateList) Candidates() []*Candidate {
	out := make([]*Candidate, 0, len(l.order))
	for _, bssid := range l.order {
		out = append(out, l.byBSS[bssid])
	}
	return out
}

// SetPreference writes p to c with reason, honoring the strength ordering
// out_of_scope > hard_blocked > soft_blocked > available > none. A write
// with strictly weaker strength than the candidate's current preference
// is ignored (but logged); equal-or-stronger writes succeed, which also
// covers re-asserting "available" to override the implicit "none"
// default.
func SetPreference(c *Candidate, reason string, p Preference) {
	if p.strength() < c.Preference.strength() {
		logger.Debug("steer: weaker preference write ignored",
			"bssid", c.BSSID, "current", c.Preference.String(), "attempted", p.String(), "reason", reason)
		return
	}
	c.Preference = p
	c.Reason = reason
}

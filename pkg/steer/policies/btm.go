package policies

import (
	"time"

	"github.com/plume-design/opensync-sub020/pkg/steer"
)

// btmWindow is how long a BTM response constrains recalc after receipt.
const btmWindow = 10 * time.Second

// BTMResponseEntry is one (bssid, preference) pair from a cached 802.11v
// BSS Transition Management response.
type BTMResponseEntry struct {
	BSSID      string
	Preference steer.Preference
}

type btmState struct {
	response   []BTMResponseEntry
	receivedAt time.Time
	now        func() time.Time
}

// NewBTMResponsePolicy builds a steer.Policy implementing the BTM-response
// strategy (spec §4.7): caches the most recent response list and, for up
// to 10 seconds afterward, marks every candidate whose bssid is NOT in the
// response as out_of_scope.
//
// now defaults to time.Now; tests may override it for determinism.
func NewBTMResponsePolicy(name, staMAC string, mediator steer.Mediator, now func() time.Time) *steer.Policy {
	if now == nil {
		now = time.Now
	}
	state := &btmState{now: now}
	return &steer.Policy{
		Name:     name,
		StaMAC:   staMAC,
		Mediator: mediator,
		Priv:     state,
		Recalc: func(p *steer.Policy, candidates *steer.CandidateList) {
			st := p.Priv.(*btmState)
			if st.response == nil {
				return
			}
			if st.now().Sub(st.receivedAt) > btmWindow {
				return
			}
			listed := make(map[string]bool, len(st.response))
			for _, e := range st.response {
				listed[e.BSSID] = true
			}
			for _, cand := range candidates.Candidates() {
				if !listed[cand.BSSID] {
					steer.SetPreference(cand, name, steer.PreferenceOutOfScope)
				}
			}
		},
	}
}

// OnBTMResponse records a newly received BTM response on p, starting its
// 10-second recalc-filtering window. p must have been built by
// NewBTMResponsePolicy.
func OnBTMResponse(p *steer.Policy, response []BTMResponseEntry) {
	st := p.Priv.(*btmState)
	st.response = response
	st.receivedAt = st.now()
}

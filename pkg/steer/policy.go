package steer

// Policy owns a named steering strategy for one station, a callback
// table invoked by the stack/mediator, and opaque private FSM state. The
// callback table models the capability set a concrete policy implements;
// an unset callback is simply never invoked (there is nothing for it to
// do), mirroring dpi.Plugin's nil-callback-as-no-op convention.
type Policy struct {
	Name          string
	StaMAC        string
	BSSIDInterest string // optional; empty means "no single BSS of interest"
	Priv          any    // concrete policy's FSM state

	Mediator Mediator

	// Recalc is the only mutation point on candidates: called once per
	// stack recalc pass, in stack order, with the scratch candidate list.
	Recalc func(p *Policy, candidates *CandidateList)

	// SigUSR1Dump emits diagnostic state for this policy (e.g. to a debug
	// log); optional.
	SigUSR1Dump func(p *Policy) string

	// StaSNRChange reports an updated SNR reading for a link.
	StaSNRChange func(p *Policy, bssid string, snr int)

	// StaDataVolChange reports an updated cumulative byte counter for a
	// link.
	StaDataVolChange func(p *Policy, bssid string, bytes uint64)
}

// Stack holds an ordered list of policies; a recalc pass invokes every
// policy's Recalc in index order against a scratch candidate list,
// making the "implicit ordering via registration order" of the source
// explicit (spec §9 design note).
type Stack struct {
	policies []*Policy
	scratch  *CandidateList
}

// NewStack constructs an empty policy stack over scratch, the candidate
// list recalc passes mutate.
func NewStack(scratch *CandidateList) *Stack {
	return &Stack{scratch: scratch}
}

// Push appends a policy to the end of the stack, to be invoked last in
// future recalcs.
func (s *Stack) Push(p *Policy) {
	s.policies = append(s.policies, p)
}

// Policies returns the stack's policies in invocation order.
func (s *Stack) Policies() []*Policy {
	return append([]*Policy(nil), s.policies...)
}

// Recalc clears the scratch candidate list, then invokes every policy's
// Recalc in stack order. Each policy may downgrade or upgrade candidate
// preferences, subject to SetPreference's monotonicity. The resulting
// candidate list is returned for the executor decision.
func (s *Stack) Recalc() *CandidateList {
	s.scratch.Clear()
	for _, p := range s.policies {
		if p.Recalc != nil {
			p.Recalc(p, s.scratch)
		}
	}
	return s.scratch
}

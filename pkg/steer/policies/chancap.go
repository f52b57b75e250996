package policies

import (
	"github.com/plume-design/opensync-sub020/internal/logger"
	"github.com/plume-design/opensync-sub020/pkg/steer"
)

// Capability is a station's reported support level for a given channel.
type Capability int

const (
	CapabilitySupported Capability = iota
	CapabilityMaybe
	CapabilityNotSupported
)

// CapabilityOracle reports a station's capability for a (sta, freq) pair.
type CapabilityOracle func(staMAC string, freqMHz int) Capability

// ChanCapConfig configures the channel-capability policy.
type ChanCapConfig struct {
	Oracle         CapabilityOracle
	ChannelFreqMHz func(channel int) int
}

// NewChanCapPolicy builds a steer.Policy implementing the channel-capability
// strategy (spec §4.7): on CapabilityNotSupported with a candidate
// currently at PreferenceNone, mark it out_of_scope. Non-none preferences
// are left alone — the policy only ever strengthens an unset preference,
// preserving monotonicity rather than downgrading a stronger write from
// another policy.
func NewChanCapPolicy(name, staMAC string, mediator steer.Mediator, cfg ChanCapConfig) *steer.Policy {
	return &steer.Policy{
		Name:     name,
		StaMAC:   staMAC,
		Mediator: mediator,
		Priv:     cfg,
		Recalc: func(p *steer.Policy, candidates *steer.CandidateList) {
			c := p.Priv.(ChanCapConfig)
			if c.Oracle == nil {
				return
			}
			for _, cand := range candidates.Candidates() {
				freq := cand.Channel
				if c.ChannelFreqMHz != nil {
					freq = c.ChannelFreqMHz(cand.Channel)
				}
				capability := c.Oracle(staMAC, freq)
				if capability != CapabilityNotSupported {
					continue
				}
				if cand.Preference == steer.PreferenceNone {
					steer.SetPreference(cand, name, steer.PreferenceOutOfScope)
					continue
				}
				logger.Warn("chan-cap: candidate unsupported but already has a non-none preference",
					"bssid", cand.BSSID, "sta_mac", staMAC, "preference", cand.Preference.String())
			}
		},
	}
}

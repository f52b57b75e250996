// Package policies implements the concrete steering policies of C7: band
// filter, channel capability, BTM response, and the SNR-level backoff FSM.
package policies

import "github.com/plume-design/opensync-sub020/pkg/steer"

// Band is a Wi-Fi frequency band.
type Band int

const (
	Band24GHz Band = iota
	Band5GHz
	Band6GHz
)

// BandOf derives a candidate's band from its control channel frequency,
// in MHz.
func BandOf(controlFreqMHz int) Band {
	switch {
	case controlFreqMHz < 2500:
		return Band24GHz
	case controlFreqMHz < 5925:
		return Band5GHz
	default:
		return Band6GHz
	}
}

// BandFilterConfig configures the band-filter policy.
type BandFilterConfig struct {
	IncludedOverride bool
	IncludedPref     steer.Preference

	ExcludedOverride bool
	ExcludedPref     steer.Preference

	Bands map[Band]bool

	// ChannelFreqMHz resolves a candidate's control channel to a
	// frequency; required since Candidate only carries a channel number.
	ChannelFreqMHz func(channel int) int
}

// NewBandFilterPolicy builds a steer.Policy implementing the band-filter
// strategy (spec §4.7): for each candidate, compute its band; if the band
// is in cfg.Bands and IncludedOverride is set, write IncludedPref;
// otherwise if ExcludedOverride is set, write ExcludedPref. Candidates
// whose band falls outside cfg.Bands with no excluded override configured
// are left untouched.
func NewBandFilterPolicy(name, staMAC string, mediator steer.Mediator, cfg BandFilterConfig) *steer.Policy {
	return &steer.Policy{
		Name:     name,
		StaMAC:   staMAC,
		Mediator: mediator,
		Priv:     cfg,
		Recalc: func(p *steer.Policy, candidates *steer.CandidateList) {
			c := p.Priv.(BandFilterConfig)
			for _, cand := range candidates.Candidates() {
				freq := cand.Channel
				if c.ChannelFreqMHz != nil {
					freq = c.ChannelFreqMHz(cand.Channel)
				}
				band := BandOf(freq)
				if c.Bands[band] {
					if c.IncludedOverride {
						steer.SetPreference(cand, name, c.IncludedPref)
					}
				} else if c.ExcludedOverride {
					steer.SetPreference(cand, name, c.ExcludedPref)
				}
			}
		},
	}
}

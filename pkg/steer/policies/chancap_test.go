package policies

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/plume-design/opensync-sub020/pkg/steer"
)

func TestChanCapMarksOutOfScopeWhenNotSupportedAndNone(t *testing.T) {
	candidates := steer.NewCandidateList()
	c := candidates.BSSSet("aa:bb", 1)

	p := NewChanCapPolicy("chan-cap", "sta", nil, ChanCapConfig{
		Oracle: func(sta string, freq int) Capability { return CapabilityNotSupported },
	})
	p.Recalc(p, candidates)

	assert.Equal(t, steer.PreferenceOutOfScope, c.Preference)
}

func TestChanCapDoesNotDowngradeNonNonePreference(t *testing.T) {
	candidates := steer.NewCandidateList()
	c := candidates.BSSSet("aa:bb", 1)
	steer.SetPreference(c, "other-policy", steer.PreferenceAvailable)

	p := NewChanCapPolicy("chan-cap", "sta", nil, ChanCapConfig{
		Oracle: func(sta string, freq int) Capability { return CapabilityNotSupported },
	})
	p.Recalc(p, candidates)

	assert.Equal(t, steer.PreferenceAvailable, c.Preference)
	assert.Equal(t, "other-policy", c.Reason)
}

func TestChanCapIgnoresSupportedCandidates(t *testing.T) {
	candidates := steer.NewCandidateList()
	c := candidates.BSSSet("aa:bb", 1)

	p := NewChanCapPolicy("chan-cap", "sta", nil, ChanCapConfig{
		Oracle: func(sta string, freq int) Capability { return CapabilitySupported },
	})
	p.Recalc(p, candidates)

	assert.Equal(t, steer.PreferenceNone, c.Preference)
}

package policies

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/plume-design/opensync-sub020/pkg/steer"
)

func TestBandOfClassifiesFrequencies(t *testing.T) {
	assert.Equal(t, Band24GHz, BandOf(2437))
	assert.Equal(t, Band5GHz, BandOf(5180))
	assert.Equal(t, Band6GHz, BandOf(5955))
}

func TestBandFilterWritesIncludedPreferenceForMatchingBand(t *testing.T) {
	candidates := steer.NewCandidateList()
	c := candidates.BSSSet("aa:bb", 1)

	p := NewBandFilterPolicy("band-filter", "sta", nil, BandFilterConfig{
		IncludedOverride: true,
		IncludedPref:     steer.PreferenceAvailable,
		Bands:            map[Band]bool{Band24GHz: true},
		ChannelFreqMHz:   func(ch int) int { return 2412 },
	})

	p.Recalc(p, candidates)

	assert.Equal(t, steer.PreferenceAvailable, c.Preference)
}

func TestBandFilterWritesExcludedPreferenceForNonMatchingBand(t *testing.T) {
	candidates := steer.NewCandidateList()
	c := candidates.BSSSet("aa:bb", 36)

	p := NewBandFilterPolicy("band-filter", "sta", nil, BandFilterConfig{
		ExcludedOverride: true,
		ExcludedPref:     steer.PreferenceSoftBlocked,
		Bands:            map[Band]bool{Band24GHz: true},
		ChannelFreqMHz:   func(ch int) int { return 5180 },
	})

	p.Recalc(p, candidates)

	assert.Equal(t, steer.PreferenceSoftBlocked, c.Preference)
}

func TestBandFilterLeavesCandidateUntouchedWithoutOverrides(t *testing.T) {
	candidates := steer.NewCandidateList()
	c := candidates.BSSSet("aa:bb", 36)

	p := NewBandFilterPolicy("band-filter", "sta", nil, BandFilterConfig{
		Bands:          map[Band]bool{Band24GHz: true},
		ChannelFreqMHz: func(ch int) int { return 5180 },
	})

	p.Recalc(p, candidates)

	assert.Equal(t, steer.PreferenceNone, c.Preference)
}

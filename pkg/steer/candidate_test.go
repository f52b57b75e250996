package steer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBSSSetCreatesThenUpdatesInPlace(t *testing.T) {
	l := NewCandidateList()
	c1 := l.BSSSet("aa:bb", 1)
	c2 := l.BSSSet("aa:bb", 6)

	assert.Same(t, c1, c2)
	assert.Equal(t, 6, c1.Channel)
}

func TestCandidatesPreservesInsertionOrder(t *testing.T) {
	l := NewCandidateList()
	l.BSSSet("c", 1)
	l.BSSSet("a", 1)
	l.BSSSet("b", 1)

	got := l.Candidates()
	require.Len(t, got, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{got[0].BSSID, got[1].BSSID, got[2].BSSID})
}

func TestSetPreferenceRespectsStrengthOrder(t *testing.T) {
	l := NewCandidateList()
	c := l.BSSSet("aa:bb", 1)

	SetPreference(c, "policy-a", PreferenceSoftBlocked)
	SetPreference(c, "policy-b", PreferenceAvailable) // weaker, ignored
	assert.Equal(t, PreferenceSoftBlocked, c.Preference)
	assert.Equal(t, "policy-a", c.Reason)

	SetPreference(c, "policy-c", PreferenceOutOfScope) // stronger, accepted
	assert.Equal(t, PreferenceOutOfScope, c.Preference)
	assert.Equal(t, "policy-c", c.Reason)
}

func TestSetPreferenceAvailableOverridesImplicitNone(t *testing.T) {
	l := NewCandidateList()
	c := l.BSSSet("aa:bb", 1)

	SetPreference(c, "policy-a", PreferenceAvailable)
	assert.Equal(t, PreferenceAvailable, c.Preference)
}

func TestClearResetsPreferenceButKeepsIdentity(t *testing.T) {
	l := NewCandidateList()
	c := l.BSSSet("aa:bb", 6)
	SetPreference(c, "policy-a", PreferenceHardBlocked)

	l.Clear()

	assert.Equal(t, PreferenceNone, c.Preference)
	assert.Equal(t, "", c.Reason)
	assert.Equal(t, "aa:bb", c.BSSID)
	assert.Equal(t, 6, c.Channel)
}

func TestLookupReturnsMutableReferenceOrNil(t *testing.T) {
	l := NewCandidateList()
	l.BSSSet("aa:bb", 1)

	c := l.Lookup("aa:bb")
	require.NotNil(t, c)
	c.Reason = "mutated"
	assert.Equal(t, "mutated", l.Lookup("aa:bb").Reason)

	assert.Nil(t, l.Lookup("missing"))
}

package policies

import (
	"time"

	"github.com/plume-design/opensync-sub020/internal/logger"
	"github.com/plume-design/opensync-sub020/pkg/steer"
)

// SNRMode selects the direction in which threshold_snr triggers a steer
// attempt.
type SNRMode int

const (
	// ModeBlockFromWhenAbove considers moving when SNR is above threshold
	// (station has plenty of signal on the from-side; move it to make
	// room / balance load).
	ModeBlockFromWhenAbove SNRMode = iota
	// ModeBlockFromWhenBelow considers moving when SNR is below threshold
	// (station's link is degrading; move it before it drops further).
	ModeBlockFromWhenBelow
)

// snrPhase is the per-STA SNR-level policy state.
type snrPhase int

const (
	phaseIdle snrPhase = iota
	phaseEnforce
	phaseSettling
	phaseBackoff
)

// SNRLevelConfig configures the SNR-level policy.
type SNRLevelConfig struct {
	Mode SNRMode

	ThresholdSNR    *int
	ThresholdBytes  *uint64
	FromBSSIDs      map[string]bool
	ToBSSIDs        map[string]bool

	EnforceDuration time.Duration // default 5s
	BackoffDuration time.Duration // default 60s
	AgeoutDuration  time.Duration // default 30s
	BackoffExpBase  uint64        // default 2

	// ConnectedBSSID reports the bssid the station currently has its
	// single active link to, or "" if it has none / more than one.
	ConnectedBSSID func() string

	// LinkCount reports how many links the station currently has (used
	// by the settling phase, which waits for exactly one).
	LinkCount func() int

	Now func() time.Time
}

type linkEntry struct {
	lastSNR   int
	lastBytes uint64
	enforced  bool
}

type snrState struct {
	cfg SNRLevelConfig

	phase snrPhase
	links map[string]*linkEntry

	enforceDeadline time.Time
	backoffDeadline time.Time
	ageoutDeadline  time.Time

	backoffPow     uint64
	noAlternatives bool
	ageoutActive   bool
}

const backoffPowMax uint64 = 1<<32 - 1 // 2^32-1, per spec clamp

// NewSNRLevelPolicy builds a steer.Policy implementing the SNR-level
// backoff FSM (spec §4.7): idle -> enforce -> settling -> (idle|backoff)
// -> idle.
func NewSNRLevelPolicy(name, staMAC string, mediator steer.Mediator, cfg SNRLevelConfig) *steer.Policy {
	if cfg.EnforceDuration == 0 {
		cfg.EnforceDuration = 5 * time.Second
	}
	if cfg.BackoffDuration == 0 {
		cfg.BackoffDuration = 60 * time.Second
	}
	if cfg.AgeoutDuration == 0 {
		cfg.AgeoutDuration = 30 * time.Second
	}
	if cfg.BackoffExpBase == 0 {
		cfg.BackoffExpBase = 2
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	state := &snrState{cfg: cfg, phase: phaseIdle, links: make(map[string]*linkEntry), backoffPow: 1}

	p := &steer.Policy{
		Name:     name,
		StaMAC:   staMAC,
		Mediator: mediator,
		Priv:     state,
	}
	p.Recalc = func(p *steer.Policy, candidates *steer.CandidateList) {
		snrRecalc(p, state, candidates)
	}
	p.StaSNRChange = func(p *steer.Policy, bssid string, snr int) {
		link := state.link(bssid)
		if link.lastSNR == snr {
			return
		}
		link.lastSNR = snr
		if p.Mediator != nil {
			p.Mediator.ScheduleStackRecalc(p)
		}
	}
	p.StaDataVolChange = func(p *steer.Policy, bssid string, bytes uint64) {
		link := state.link(bssid)
		if link.lastBytes == bytes {
			return
		}
		link.lastBytes = bytes
		if p.Mediator != nil {
			p.Mediator.ScheduleStackRecalc(p)
		}
	}
	return p
}

func (s *snrState) link(bssid string) *linkEntry {
	l, ok := s.links[bssid]
	if !ok {
		l = &linkEntry{}
		s.links[bssid] = l
	}
	return l
}

// shouldConsiderMoving applies the configured mode/threshold and the
// optional idle-bytes gate.
func (s *snrState) shouldConsiderMoving(fromBSSID string) bool {
	link := s.links[fromBSSID]
	if link == nil {
		return false
	}
	if s.cfg.ThresholdSNR != nil {
		switch s.cfg.Mode {
		case ModeBlockFromWhenAbove:
			if link.lastSNR < *s.cfg.ThresholdSNR {
				return false
			}
		case ModeBlockFromWhenBelow:
			if link.lastSNR > *s.cfg.ThresholdSNR {
				return false
			}
		}
	}
	if s.cfg.ThresholdBytes != nil && link.lastBytes >= *s.cfg.ThresholdBytes {
		return false
	}
	return true
}

func snrRecalc(p *steer.Policy, s *snrState, candidates *steer.CandidateList) {
	now := s.cfg.Now()

	switch s.phase {
	case phaseIdle:
		snrTryEnterEnforce(p, s, candidates, now)
	case phaseEnforce:
		snrRunEnforce(p, s, candidates, now)
	case phaseSettling:
		snrRunSettling(p, s, now)
	case phaseBackoff:
		snrRunBackoff(p, s, now)
	}
}

func snrTryEnterEnforce(p *steer.Policy, s *snrState, candidates *steer.CandidateList, now time.Time) {
	if len(s.cfg.ToBSSIDs) == 0 {
		return
	}
	connected := ""
	if s.cfg.ConnectedBSSID != nil {
		connected = s.cfg.ConnectedBSSID()
	}
	if connected == "" || !s.cfg.FromBSSIDs[connected] {
		return
	}
	if !s.shouldConsiderMoving(connected) {
		return
	}

	if p.Mediator != nil {
		p.Mediator.TriggerExecutor(p)
		p.Mediator.NotifySteeringAttempt(p)
	}
	s.link(connected).enforced = true
	s.enforceDeadline = now.Add(s.cfg.EnforceDuration)
	s.noAlternatives = false
	s.phase = phaseEnforce

	// Apply the first enforce pass immediately rather than waiting for the
	// next recalc, so a just-triggered enforcement is visible right away.
	snrRunEnforce(p, s, candidates, now)
}

func snrRunEnforce(p *steer.Policy, s *snrState, candidates *steer.CandidateList, now time.Time) {
	available := make([]string, 0, len(s.cfg.ToBSSIDs))
	for bssid := range s.cfg.ToBSSIDs {
		c := candidates.Lookup(bssid)
		if c == nil {
			continue
		}
		if c.Preference == steer.PreferenceNone || c.Preference == steer.PreferenceAvailable {
			available = append(available, bssid)
		}
	}

	if len(available) == 0 {
		s.noAlternatives = true
		logger.Info("snr-level: no alternative to_bssids available, not hard-blocking from_bssids", "sta_mac", p.StaMAC)
	} else {
		for _, bssid := range available {
			if c := candidates.Lookup(bssid); c != nil && c.Preference == steer.PreferenceNone {
				steer.SetPreference(c, p.Name, steer.PreferenceAvailable)
			}
		}
		for bssid := range s.cfg.FromBSSIDs {
			if c := candidates.Lookup(bssid); c != nil && c.Preference == steer.PreferenceNone {
				steer.SetPreference(c, p.Name, steer.PreferenceHardBlocked)
			}
		}
	}

	if now.Before(s.enforceDeadline) {
		return
	}

	if p.Mediator != nil {
		p.Mediator.DismissExecutor(p)
	}
	s.phase = phaseSettling
}

func snrRunSettling(p *steer.Policy, s *snrState, now time.Time) {
	linkCount := 0
	if s.cfg.LinkCount != nil {
		linkCount = s.cfg.LinkCount()
	}
	if linkCount != 1 {
		return
	}
	connected := ""
	if s.cfg.ConnectedBSSID != nil {
		connected = s.cfg.ConnectedBSSID()
	}
	if s.cfg.ToBSSIDs[connected] {
		s.noAlternatives = false
		s.phase = phaseIdle
		return
	}
	snrEnterBackoff(p, s, now)
}

// snrEnterBackoff arms the backoff timer per spec's exponential-growth
// rule: backoff_pow *= backoff_exp_base (clamped at 2^32-1), reset to 1
// first if ageout already expired since the last backoff entry, or if
// no_alternatives was sticky during the enforce just concluded.
func snrEnterBackoff(p *steer.Policy, s *snrState, now time.Time) {
	ageoutExpired := s.ageoutActive && now.After(s.ageoutDeadline)
	if ageoutExpired || s.noAlternatives {
		s.backoffPow = 1
	}
	s.ageoutActive = false
	s.noAlternatives = false

	seconds := s.backoffPow * uint64(s.cfg.BackoffDuration/time.Second)
	s.backoffDeadline = now.Add(time.Duration(seconds) * time.Second)
	s.phase = phaseBackoff

	if p.Mediator != nil {
		p.Mediator.NotifyBackoff(p, uint32(seconds))
	}

	next := s.backoffPow * s.cfg.BackoffExpBase
	if next > backoffPowMax {
		next = backoffPowMax
	}
	s.backoffPow = next
}

func snrRunBackoff(p *steer.Policy, s *snrState, now time.Time) {
	if now.Before(s.backoffDeadline) {
		return
	}
	s.ageoutDeadline = now.Add(s.cfg.AgeoutDuration)
	s.ageoutActive = true
	s.phase = phaseIdle
}

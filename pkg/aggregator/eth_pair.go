package aggregator

import "github.com/plume-design/opensync-sub020/pkg/flow"

// EthPair is rooted at (smac, dmac, vlan) and owns two child trees: one
// keyed by ethertype (ethernet-only flows, IPVersion==IPNone) and one keyed
// by 5-tuple. The pair's own accumulator holds the sum of its ethertype
// children's counters; in relative mode, CloseCounters reports it net of
// the previously reported bytes/packets.
type EthPair struct {
	Key flow.EthPairKey

	Own *flow.Accumulator

	ethFlows   map[uint16]*flow.Accumulator
	tupleFlows map[flow.FiveTuple]*flow.Accumulator

	// ftBaseline is the last folded running total per ethertype child,
	// used by foldChildren to guard against counter wrap/reset. See
	// foldChildren for the exact (intentionally asymmetric) update rule.
	ftBaseline map[uint16]flow.Counters
}

func newEthPair(key flow.EthPairKey) *EthPair {
	return &EthPair{
		Key:        key,
		Own:        flow.NewAccumulator(flow.Key{SMAC: nil, DMAC: nil, VlanID: key.VlanID}),
		ethFlows:   make(map[uint16]*flow.Accumulator),
		tupleFlows: make(map[flow.FiveTuple]*flow.Accumulator),
		ftBaseline: make(map[uint16]flow.Counters),
	}
}

// lookupEthertype looks up or creates the ethertype-keyed accumulator for
// an ethernet-only flow (IPVersion == IPNone).
func (p *EthPair) lookupEthertype(key flow.Key, onCreate AccumulatorHook) *flow.Accumulator {
	acc, ok := p.ethFlows[key.Ethertype]
	if ok {
		return acc
	}
	acc = flow.NewAccumulator(key)
	p.ethFlows[key.Ethertype] = acc
	if onCreate != nil {
		onCreate(acc)
	}
	return acc
}

// lookupTuple looks up or creates the 5-tuple-keyed accumulator for an
// IP flow within this ethernet pair.
func (p *EthPair) lookupTuple(key flow.Key, onCreate AccumulatorHook) *flow.Accumulator {
	ft := flow.FiveTupleOf(key)
	acc, ok := p.tupleFlows[ft]
	if ok {
		return acc
	}
	acc = flow.NewAccumulator(key)
	p.tupleFlows[ft] = acc
	if onCreate != nil {
		onCreate(acc)
	}
	return acc
}

// foldChildren sets the pair's own accumulator's Current snapshot to the
// sum of the per-child baselines (ftBaseline), after updating each child's
// baseline from its Current counters. The update rule for each child is
// intentionally asymmetric
// between the "growth" and "shrink" cases — see spec.md §9's open question
// on the ethernet-accumulation "else if" branch. It is reproduced here
// exactly as described rather than normalized to a symmetric max, since the
// upstream behavior is flagged, not confirmed as a defect:
//
//   - if the child's current counters are strictly greater in both packets
//     and bytes than the stored baseline, the baseline is replaced in full
//     (normal monotonic growth);
//   - else if the child's current counters are strictly smaller in both
//     packets and bytes (a counter reset), only the packets field of the
//     baseline is replaced from the child — bytes is left untouched;
//   - any other relation (one field grew, the other shrank) leaves the
//     baseline unchanged for this round.
func (p *EthPair) foldChildren() {
	var sum flow.Counters
	for ethertype, child := range p.ethFlows {
		ct := child.Current
		ft := p.ftBaseline[ethertype]

		switch {
		case ct.Packets > ft.Packets && ct.Bytes > ft.Bytes:
			ft = ct
		case ct.Packets < ft.Packets && ct.Bytes < ft.Bytes:
			ft.Packets = ct.Packets
		}
		p.ftBaseline[ethertype] = ft
		sum.Packets += ft.Packets
		sum.Bytes += ft.Bytes
	}
	p.Own.Current = sum
}

// allAccumulators returns every live accumulator owned by this pair,
// including its own rollup accumulator.
func (p *EthPair) allAccumulators() []*flow.Accumulator {
	out := make([]*flow.Accumulator, 0, len(p.ethFlows)+len(p.tupleFlows)+1)
	out = append(out, p.Own)
	for _, a := range p.ethFlows {
		out = append(out, a)
	}
	for _, a := range p.tupleFlows {
		out = append(out, a)
	}
	return out
}

func (p *EthPair) removeEthertype(et uint16) {
	delete(p.ethFlows, et)
	delete(p.ftBaseline, et)
}

func (p *EthPair) removeTuple(ft flow.FiveTuple) {
	delete(p.tupleFlows, ft)
}

// empty reports whether the pair has no remaining child accumulators (all
// ethertype/tuple children are gone); the pair's own accumulator is not
// considered.
func (p *EthPair) empty() bool {
	return len(p.ethFlows) == 0 && len(p.tupleFlows) == 0
}

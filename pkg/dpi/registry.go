package dpi

import (
	"sort"
	"sync"
)

// attrNode holds the ordered subscriber set for one (plugin, attr) pair.
type attrNode struct {
	subscribers []*Subscriber
}

func (n *attrNode) insert(sub *Subscriber) {
	for _, existing := range n.subscribers {
		if existing.ID == sub.ID {
			return
		}
	}
	idx := sort.Search(len(n.subscribers), func(i int) bool {
		return n.subscribers[i].Name >= sub.Name
	})
	n.subscribers = append(n.subscribers, nil)
	copy(n.subscribers[idx+1:], n.subscribers[idx:])
	n.subscribers[idx] = sub
}

func (n *attrNode) removeAll(sub *Subscriber) {
	kept := n.subscribers[:0]
	for _, s := range n.subscribers {
		if s.ID != sub.ID {
			kept = append(kept, s)
		}
	}
	n.subscribers = kept
}

// pluginState is the per-plugin registration state: the attr tree and the
// set of sessions configured against this plugin (used by
// RegisterClients/NotifyTagUpdate to resolve tag references).
type pluginState struct {
	plugin   *Plugin
	attrs    map[string]*attrNode
	sessions []*session
}

// Registry is the DPI client registry (spec §4.4): a per-plugin map of
// attribute to ordered subscriber set, dispatching process_attr and
// reducing verdicts with the weighted action ladder.
type Registry struct {
	mu      sync.Mutex
	plugins map[string]*pluginState

	// pendingTags holds, per tag, the values announced so far through
	// NotifyTagUpdate, so a session added later by AddSession can resolve
	// them retroactively.
	pendingTags map[string][]string
}

// NewRegistry constructs an empty DPI client registry.
func NewRegistry() *Registry {
	return &Registry{
		plugins:     make(map[string]*pluginState),
		pendingTags: make(map[string][]string),
	}
}

func (r *Registry) stateFor(plugin *Plugin) *pluginState {
	st, ok := r.plugins[plugin.Name]
	if !ok {
		st = &pluginState{plugin: plugin, attrs: make(map[string]*attrNode)}
		r.plugins[plugin.Name] = st
	}
	return st
}

// RegisterClient registers subscriber's interest in attr on plugin. The
// plugin's register_client callback fires exactly once, the first time any
// subscriber asks for this attr. Missing required callbacks
// (register_client, flow_attr_cmp) make this a silent no-op, per spec
// failure semantics.
func (r *Registry) RegisterClient(plugin *Plugin, sub *Subscriber, attr string) error {
	if !plugin.usable() {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	st := r.stateFor(plugin)
	node, exists := st.attrs[attr]
	if !exists {
		node = &attrNode{}
		if err := plugin.RegisterClient(attr); err != nil {
			return err
		}
		st.attrs[attr] = node
	}
	node.insert(sub)
	return nil
}

// UnregisterClient removes every entry matching sub for attr on plugin.
// When the attr's subscriber set becomes empty, the attr node is dropped
// and the plugin's unregister_client callback fires.
func (r *Registry) UnregisterClient(plugin *Plugin, sub *Subscriber, attr string) error {
	if plugin == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.plugins[plugin.Name]
	if !ok {
		return nil
	}
	node, ok := st.attrs[attr]
	if !ok {
		return nil
	}
	node.removeAll(sub)
	if len(node.subscribers) == 0 {
		delete(st.attrs, attr)
		if plugin.UnregisterClient != nil {
			return plugin.UnregisterClient(attr)
		}
	}
	return nil
}

// UnregisterClients sweeps every attr registered for plugin, unregistering
// all subscribers of each — one unregister_client callback per attr.
func (r *Registry) UnregisterClients(plugin *Plugin) error {
	r.mu.Lock()
	st, ok := r.plugins[plugin.Name]
	var attrs []string
	if ok {
		for attr := range st.attrs {
			attrs = append(attrs, attr)
		}
	}
	r.mu.Unlock()

	for _, attr := range attrs {
		r.mu.Lock()
		node := st.attrs[attr]
		var subs []*Subscriber
		if node != nil {
			subs = append(subs, node.subscribers...)
		}
		r.mu.Unlock()
		for _, sub := range subs {
			if err := r.UnregisterClient(plugin, sub, attr); err != nil {
				return err
			}
		}
	}
	return nil
}

// RegisterClients (re)initializes plugin's clients tree and walks every
// session already configured for it, registering each session's literal
// attrs. Tag-referenced attrs are resolved separately by NotifyTagUpdate.
func (r *Registry) RegisterClients(plugin *Plugin) error {
	if !plugin.usable() {
		return nil
	}

	r.mu.Lock()
	st := r.stateFor(plugin)
	if st.attrs == nil {
		st.attrs = make(map[string]*attrNode)
	}
	sessions := append([]*session(nil), st.sessions...)
	r.mu.Unlock()

	for _, sess := range sessions {
		for _, attr := range sess.attrs {
			if err := r.RegisterClient(plugin, sess.subscriber, attr); err != nil {
				return err
			}
		}
	}
	return nil
}

// AddSession attaches a DPI-client session's configuration to plugin:
// sub will have RegisterClient called for each literal attr in attrs, and
// for each tag in tags, added/removed values notified via
// NotifyTagUpdate going forward (including any already-pending additions
// for that tag).
func (r *Registry) AddSession(plugin *Plugin, sub *Subscriber, attrs, tags []string) error {
	r.mu.Lock()
	st := r.stateFor(plugin)
	sess := &session{plugin: plugin, subscriber: sub, attrs: append([]string(nil), attrs...), tags: append([]string(nil), tags...)}
	st.sessions = append(st.sessions, sess)

	var pendingAdds []string
	for _, tag := range sess.tags {
		pendingAdds = append(pendingAdds, r.pendingTags[tag]...)
	}
	r.mu.Unlock()

	for _, attr := range attrs {
		if err := r.RegisterClient(plugin, sub, attr); err != nil {
			return err
		}
	}
	for _, val := range pendingAdds {
		if err := r.RegisterClient(plugin, sub, val); err != nil {
			return err
		}
	}
	return nil
}

// CallClient dispatches attr's packet-attribute callback to every
// subscriber registered on plugin for attr, and reduces their verdicts
// with the weighted action ladder (highest weight wins; unrecognized
// codes are skipped). Returns VerdictIgnored when no subscriber is
// present to render an opinion (unknown plugin, unknown attr, or an empty
// subscriber set), per spec.md §8 P_ladder_max.
func (r *Registry) CallClient(plugin *Plugin, attr string, attrType uint8, length int, value []byte, pkt PacketInfo) Verdict {
	if plugin == nil || plugin.ProcessAttr == nil {
		return VerdictIgnored
	}

	r.mu.Lock()
	st, ok := r.plugins[plugin.Name]
	if !ok {
		r.mu.Unlock()
		return VerdictIgnored
	}
	node, ok := st.attrs[attr]
	if !ok {
		r.mu.Unlock()
		return VerdictIgnored
	}
	subs := append([]*Subscriber(nil), node.subscribers...)
	r.mu.Unlock()

	verdicts := make([]Verdict, 0, len(subs))
	for _, sub := range subs {
		verdicts = append(verdicts, plugin.ProcessAttr(sub, attr, attrType, length, value, pkt))
	}
	return combineVerdicts(verdicts)
}

// NotifyTagUpdate is the tag-driven update path: the policy-tag subsystem
// reports that tag gained `added` values and lost `removed` ones (updated
// is informational only, no separate code path). Every session that
// references tag, across every plugin, gets register_client called for
// each added value and unregister_client for each removed value. Sessions
// added before a tag's first event are still found, since sessions are
// walked live rather than snapshotted at AddSession time.
func (r *Registry) NotifyTagUpdate(tag string, removed, added []string, updated bool) error {
	r.mu.Lock()
	var matches []*session
	for _, st := range r.plugins {
		for _, sess := range st.sessions {
			if sess.referencesTag(tag) {
				matches = append(matches, sess)
			}
		}
	}
	current := r.pendingTags[tag]
	for _, val := range removed {
		kept := current[:0]
		for _, v := range current {
			if v != val {
				kept = append(kept, v)
			}
		}
		current = kept
	}
	r.pendingTags[tag] = append(current, added...)
	r.mu.Unlock()

	for _, sess := range matches {
		for _, val := range removed {
			if err := r.UnregisterClient(sess.plugin, sess.subscriber, val); err != nil {
				return err
			}
		}
		for _, val := range added {
			if err := r.RegisterClient(sess.plugin, sess.subscriber, val); err != nil {
				return err
			}
		}
	}
	return nil
}

// PluginCount reports how many plugins currently hold registrations.
func (r *Registry) PluginCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.plugins)
}

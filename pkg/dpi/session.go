package dpi

import "github.com/google/uuid"

// Subscriber identifies a DPI-client session. Subscribers within an attr
// node are ordered deterministically by Name, never by registration order
// or ID, so that verdict combination and sigusr1-style dumps are
// reproducible across runs.
type Subscriber struct {
	ID   uuid.UUID
	Name string
}

// NewSubscriber allocates a subscriber with a fresh session ID.
func NewSubscriber(name string) *Subscriber {
	return &Subscriber{ID: uuid.New(), Name: name}
}

// session is a DPI-client session's configuration: a subscriber attached
// to one plugin, with a set of literal attribute names it always wants
// and a set of tag names it wants resolved indirectly (see
// Registry.NotifyTagUpdate). A subscriber may reference a tag with no
// values defined yet; resolution happens lazily as tag-update events
// arrive.
type session struct {
	plugin     *Plugin
	subscriber *Subscriber
	attrs      []string
	tags       []string
}

func (s *session) referencesTag(tag string) bool {
	for _, t := range s.tags {
		if t == tag {
			return true
		}
	}
	return false
}

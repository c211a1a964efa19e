// Package projection builds derived views by folding over the
// conversation entry log. The log stores raw facts; anything like a
// participant's current presence is computed here, never persisted.
package projection

import (
	"qrchat/domain"
)

// Presence tracks which participants are currently in the
// conversation by consuming Enter/Exit events in log order.
type Presence struct {
	active []bool
}

func NewPresence(participantCount int) *Presence {
	return &Presence{active: make([]bool, participantCount)}
}

// Consume folds a single entry into the presence view. Chat messages
// carry no presence information and are ignored. Events referencing
// an unknown index are ignored rather than panicking; the codec
// validates indexes before they get here.
func (p *Presence) Consume(e domain.Entry) {
	evt, ok := e.(domain.SystemEvent)
	if !ok {
		return
	}
	if evt.Participant < 0 || evt.Participant >= len(p.active) {
		return
	}
	switch evt.Event {
	case domain.EventEnter:
		p.active[evt.Participant] = true
	case domain.EventExit:
		p.active[evt.Participant] = false
	}
}

// Active reports the presence of a single participant.
func (p *Presence) Active(idx int) bool {
	if idx < 0 || idx >= len(p.active) {
		return false
	}
	return p.active[idx]
}

// Snapshot returns the presence of every participant in index order.
func (p *Presence) Snapshot() []bool {
	out := make([]bool, len(p.active))
	copy(out, p.active)
	return out
}

// Replay folds a whole entry log and returns the final presence of
// each participant. This is the only source of truth for the Active
// flag on domain.Participant.
func Replay(entries []domain.Entry, participantCount int) []bool {
	p := NewPresence(participantCount)
	for _, e := range entries {
		p.Consume(e)
	}
	return p.Snapshot()
}

// Apply recomputes the Active flag of every participant from the log.
func Apply(c *domain.Conversation) {
	active := Replay(c.Entries, len(c.Participants))
	for i := range c.Participants {
		c.Participants[i].Active = active[i]
	}
}

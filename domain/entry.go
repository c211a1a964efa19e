package domain

// EventType discriminates system events in the log.
type EventType uint8

const (
	EventEnter EventType = iota
	EventExit
)

func (t EventType) String() string {
	if t == EventEnter {
		return "enter"
	}
	return "exit"
}

// Entry is one record of the conversation log, either a ChatMessage
// or a SystemEvent.
type Entry interface {
	isEntry()
}

// ChatMessage is a message posted by the participant at Speaker.
type ChatMessage struct {
	Speaker int
	Text    string
}

// SystemEvent records a participant entering or leaving.
type SystemEvent struct {
	Event       EventType
	Participant int
}

func (ChatMessage) isEntry() {}
func (SystemEvent) isEntry() {}

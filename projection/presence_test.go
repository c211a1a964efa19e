package projection

import (
	"testing"

	"github.com/stretchr/testify/require"

	"qrchat/domain"
)

func TestPresence_Consume(t *testing.T) {
	req := require.New(t)

	p := NewPresence(2)
	p.Consume(domain.SystemEvent{Event: domain.EventEnter, Participant: 0})
	p.Consume(domain.SystemEvent{Event: domain.EventEnter, Participant: 1})
	p.Consume(domain.ChatMessage{Speaker: 0, Text: "hi"})
	req.Equal([]bool{true, true}, p.Snapshot())

	p.Consume(domain.SystemEvent{Event: domain.EventExit, Participant: 0})
	req.False(p.Active(0))
	req.True(p.Active(1))
}

func TestPresence_DoubleExitIsHarmless(t *testing.T) {
	req := require.New(t)

	entries := []domain.Entry{
		domain.SystemEvent{Event: domain.EventEnter, Participant: 0},
		domain.SystemEvent{Event: domain.EventExit, Participant: 0},
		domain.SystemEvent{Event: domain.EventExit, Participant: 0},
	}
	req.Equal([]bool{false}, Replay(entries, 1))
}

func TestPresence_RejoinAfterExit(t *testing.T) {
	req := require.New(t)

	entries := []domain.Entry{
		domain.SystemEvent{Event: domain.EventEnter, Participant: 0},
		domain.SystemEvent{Event: domain.EventExit, Participant: 0},
		domain.SystemEvent{Event: domain.EventEnter, Participant: 0},
	}
	req.Equal([]bool{true}, Replay(entries, 1))
}

func TestPresence_OutOfRangeEventIgnored(t *testing.T) {
	req := require.New(t)

	p := NewPresence(1)
	p.Consume(domain.SystemEvent{Event: domain.EventEnter, Participant: 5})
	req.Equal([]bool{false}, p.Snapshot())
}

func TestApply_RecomputesFlagsFromLog(t *testing.T) {
	req := require.New(t)

	c := &domain.Conversation{
		Participants: []domain.Participant{
			{Name: "alice", Active: true},
			{Name: "bob"},
		},
		Entries: []domain.Entry{
			domain.SystemEvent{Event: domain.EventEnter, Participant: 0},
			domain.SystemEvent{Event: domain.EventEnter, Participant: 1},
			domain.SystemEvent{Event: domain.EventExit, Participant: 0},
		},
	}
	Apply(c)
	req.False(c.Participants[0].Active)
	req.True(c.Participants[1].Active)
}

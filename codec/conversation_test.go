package codec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"qrchat/domain"
	"qrchat/errors"
)

func duoConversation(enc domain.TextEncoding) *domain.Conversation {
	return &domain.Conversation{
		Version:  domain.CurrentVersion,
		Mode:     domain.ModeDuo,
		Encoding: enc,
		Participants: []domain.Participant{
			{Name: "alice"},
			{Name: "bob"},
		},
		Entries: []domain.Entry{
			domain.SystemEvent{Event: domain.EventEnter, Participant: 0},
			domain.SystemEvent{Event: domain.EventEnter, Participant: 1},
			domain.ChatMessage{Speaker: 0, Text: "hey bob"},
			domain.ChatMessage{Speaker: 1, Text: "hey alice!"},
			domain.ChatMessage{Speaker: 1, Text: "long time no see"},
			domain.ChatMessage{Speaker: 0, Text: "way too long"},
		},
	}
}

func groupConversation() *domain.Conversation {
	return &domain.Conversation{
		Version:  domain.CurrentVersion,
		Mode:     domain.ModeGroup,
		Encoding: domain.EncodingUTF8,
		Participants: []domain.Participant{
			{Name: "alice"},
			{Name: "bob"},
			{Name: "carol"},
		},
		Entries: []domain.Entry{
			domain.SystemEvent{Event: domain.EventEnter, Participant: 0},
			domain.SystemEvent{Event: domain.EventEnter, Participant: 1},
			domain.SystemEvent{Event: domain.EventEnter, Participant: 2},
			domain.ChatMessage{Speaker: 2, Text: "room for one more?"},
			domain.ChatMessage{Speaker: 0, Text: "always"},
			domain.SystemEvent{Event: domain.EventExit, Participant: 1},
		},
	}
}

func TestConversation_RoundTripDuo(t *testing.T) {
	for _, enc := range []domain.TextEncoding{domain.EncodingUTF8, domain.EncodingSixBit} {
		t.Run(enc.String(), func(t *testing.T) {
			req := require.New(t)
			c := duoConversation(enc)

			buf, err := Encode(c, 0)
			req.NoError(err)
			req.LessOrEqual(len(buf), DefaultMaxBytes)

			decoded, err := Decode(buf)
			req.NoError(err)
			req.Equal(c.Mode, decoded.Mode)
			req.Equal(c.Encoding, decoded.Encoding)
			req.Equal(c.Entries, decoded.Entries)
			req.Len(decoded.Participants, 2)
			req.Equal("alice", decoded.Participants[0].Name)
			req.True(decoded.Participants[0].Active)
			req.True(decoded.Participants[1].Active)
		})
	}
}

func TestConversation_RoundTripGroup(t *testing.T) {
	req := require.New(t)
	c := groupConversation()

	buf, err := Encode(c, 0)
	req.NoError(err)

	decoded, err := Decode(buf)
	req.NoError(err)
	req.Equal(domain.ModeGroup, decoded.Mode)
	req.Equal(c.Entries, decoded.Entries)

	// bob left, the others are still in.
	req.True(decoded.Participants[0].Active)
	req.False(decoded.Participants[1].Active)
	req.True(decoded.Participants[2].Active)
}

func TestConversation_HeaderLayout(t *testing.T) {
	req := require.New(t)
	c := duoConversation(domain.EncodingSixBit)

	buf, err := Encode(c, 0)
	req.NoError(err)

	header := buf[0]
	req.Equal(uint8(domain.CurrentVersion), header>>6)
	req.Equal(uint8(domain.ModeDuo), header>>4&3)
	req.Equal(uint8(domain.EncodingSixBit), header>>2&3)
	// Two participants fit in the hint, no count varint follows.
	req.Equal(uint8(2), header&3)
}

func TestConversation_ExtendedCountHint(t *testing.T) {
	req := require.New(t)
	c := groupConversation()
	c.Participants = append(c.Participants,
		domain.Participant{Name: "dave"}, domain.Participant{Name: "erin"})
	c.Entries = append(c.Entries,
		domain.SystemEvent{Event: domain.EventEnter, Participant: 3},
		domain.SystemEvent{Event: domain.EventEnter, Participant: 4},
		domain.ChatMessage{Speaker: 4, Text: "hello everyone"})

	buf, err := Encode(c, 0)
	req.NoError(err)
	req.Equal(uint8(3), buf[0]&3)

	decoded, err := Decode(buf)
	req.NoError(err)
	req.Len(decoded.Participants, 5)
	req.Equal(c.Entries, decoded.Entries)
	req.True(decoded.Participants[4].Active)
}

func TestConversation_EventOnlyLog(t *testing.T) {
	req := require.New(t)
	c := duoConversation(domain.EncodingUTF8)
	c.Entries = []domain.Entry{
		domain.SystemEvent{Event: domain.EventEnter, Participant: 0},
		domain.SystemEvent{Event: domain.EventEnter, Participant: 1},
		domain.SystemEvent{Event: domain.EventExit, Participant: 0},
	}

	buf, err := Encode(c, 0)
	req.NoError(err)

	decoded, err := Decode(buf)
	req.NoError(err)
	req.Equal(c.Entries, decoded.Entries)
	req.False(decoded.Participants[0].Active)
	req.True(decoded.Participants[1].Active)
}

func TestConversation_TruncationBound(t *testing.T) {
	req := require.New(t)
	c := duoConversation(domain.EncodingUTF8)
	for i := 0; i < 60; i++ {
		speaker := i % 2
		c.Entries = append(c.Entries, domain.ChatMessage{
			Speaker: speaker,
			Text:    strings.Repeat("chatter ", 4),
		})
	}
	full, err := EncodedSize(c)
	req.NoError(err)
	req.Greater(full, 500)

	buf, err := Encode(c, 500)
	req.NoError(err)
	req.LessOrEqual(len(buf), 500)

	decoded, err := Decode(buf)
	req.NoError(err)
	req.NotEmpty(decoded.Entries)

	// The surviving entries are exactly the newest suffix of the log.
	kept := len(decoded.Entries)
	req.Equal(c.Entries[len(c.Entries)-kept:], decoded.Entries)

	// One more entry would not have fit.
	c2 := *c
	c2.Entries = c.Entries[len(c.Entries)-kept-1:]
	over, err := EncodedSize(&c2)
	req.NoError(err)
	req.Greater(over, 500)
}

func TestConversation_TruncationKeepsParticipants(t *testing.T) {
	req := require.New(t)
	c := groupConversation()
	for i := 0; i < 100; i++ {
		c.Entries = append(c.Entries, domain.ChatMessage{
			Speaker: i % 3,
			Text:    "the usual back and forth about nothing in particular",
		})
	}

	buf, err := Encode(c, 800)
	req.NoError(err)
	req.LessOrEqual(len(buf), 800)

	decoded, err := Decode(buf)
	req.NoError(err)
	req.Len(decoded.Participants, 3)
	req.Equal("carol", decoded.Participants[2].Name)
}

func TestDecode_ReservedFieldsRejectedCleanly(t *testing.T) {
	req := require.New(t)
	c := duoConversation(domain.EncodingUTF8)
	buf, err := Encode(c, 0)
	req.NoError(err)

	huffman := append([]byte(nil), buf...)
	huffman[0] = huffman[0]&^0x0c | uint8(domain.EncodingHuffman)<<2
	_, err = Decode(huffman)
	req.ErrorIs(err, errors.ErrUnsupportedEncoding)

	solo := append([]byte(nil), buf...)
	solo[0] = solo[0]&^0x30 | uint8(domain.ModeSolo)<<4
	_, err = Decode(solo)
	req.ErrorIs(err, errors.ErrUnsupportedMode)
}

func TestDecode_GroupTagWrapRejected(t *testing.T) {
	req := require.New(t)

	// Hand-built group buffer whose single entry carries the maximum
	// varint tag. Subtracting one must not wrap into a negative
	// speaker index that sails past the range check.
	buf := []byte{uint8(domain.CurrentVersion)<<6 | uint8(domain.ModeGroup)<<4 | 1}
	buf = AppendUvarint(buf, 1) // entry count
	buf = AppendUvarint(buf, 1) // name length
	buf = append(buf, 'a')
	buf = AppendUvarint(buf, ^uint64(0)) // entry tag
	buf = AppendUvarint(buf, 0)          // text length

	_, err := Decode(buf)
	req.ErrorIs(err, errors.ErrSpeakerOutOfRange)
}

func TestDecode_SixBitCountOverflowRejected(t *testing.T) {
	req := require.New(t)

	// A six-bit message claiming 2^63 characters over zero packed
	// bytes must fail, not decode as an empty string.
	buf := []byte{uint8(domain.CurrentVersion)<<6 | uint8(domain.ModeGroup)<<4 |
		uint8(domain.EncodingSixBit)<<2 | 1}
	buf = AppendUvarint(buf, 1) // entry count
	buf = AppendUvarint(buf, 1) // name length
	buf = append(buf, 'a')
	buf = AppendUvarint(buf, 1)     // entry tag, speaker 0
	buf = AppendUvarint(buf, 1<<63) // char count
	buf = AppendUvarint(buf, 0)     // packed length

	_, err := Decode(buf)
	req.ErrorIs(err, errors.ErrTruncatedInput)
}

func TestDecode_UnknownVersionRejected(t *testing.T) {
	req := require.New(t)
	c := duoConversation(domain.EncodingUTF8)
	buf, err := Encode(c, 0)
	req.NoError(err)

	stale := append([]byte(nil), buf...)
	stale[0] &^= 0xc0 // version 0
	_, err = Decode(stale)
	req.ErrorIs(err, errors.ErrUnsupportedVersion)

	future := append([]byte(nil), buf...)
	future[0] |= 0xc0 // version 3
	_, err = Decode(future)
	req.ErrorIs(err, errors.ErrUnsupportedVersion)
}

func TestDecode_TruncatedBuffer(t *testing.T) {
	req := require.New(t)
	c := duoConversation(domain.EncodingUTF8)
	buf, err := Encode(c, 0)
	req.NoError(err)

	for _, cut := range []int{1, 2, 5, len(buf) / 2, len(buf) - 1} {
		_, err := Decode(buf[:cut])
		req.Error(err, "cut at %d bytes", cut)
	}

	_, err = Decode(nil)
	req.ErrorIs(err, errors.ErrTruncatedInput)
}

func TestEncode_RejectsBadState(t *testing.T) {
	req := require.New(t)

	c := duoConversation(domain.EncodingUTF8)
	c.Entries = append(c.Entries, domain.ChatMessage{Speaker: 7, Text: "ghost"})
	_, err := Encode(c, 0)
	req.ErrorIs(err, errors.ErrSpeakerOutOfRange)

	c = duoConversation(domain.EncodingUTF8)
	c.Participants[0].Name = strings.Repeat("x", 33)
	_, err = Encode(c, 0)
	req.ErrorIs(err, errors.ErrNameLength)

	c = duoConversation(domain.EncodingUTF8)
	c.Encoding = domain.EncodingDeflate
	_, err = Encode(c, 0)
	req.ErrorIs(err, errors.ErrUnsupportedEncoding)
}

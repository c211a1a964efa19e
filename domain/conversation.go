// Package domain contains core concepts of the QR chat system.
// A Conversation is an append-only log of entries shared by scanning
// QR codes back and forth; no server ever sees it.
// No runtime, network, or UI logic should be added here.
package domain

// CurrentVersion is the wire format version written by this codebase.
// The header byte reserves two bits for it.
const CurrentVersion = 1

// MaxNameBytes bounds a participant name in the wire format.
const MaxNameBytes = 32

// MaxEventParticipants bounds the index space of the packed event
// record, which stores the participant index in four bits.
const MaxEventParticipants = 16

// Mode selects the entry layout used on the wire.
type Mode uint8

const (
	// ModeDuo packs two-party speaker sequences into a turn bitmap.
	ModeDuo Mode = iota
	// ModeGroup stores a varint speaker index per message.
	ModeGroup
	// ModeSolo is a reserved slot, never emitted.
	ModeSolo
	// ModeExtended is a reserved slot, never emitted.
	ModeExtended
)

func (m Mode) String() string {
	switch m {
	case ModeDuo:
		return "duo"
	case ModeGroup:
		return "group"
	case ModeSolo:
		return "solo"
	case ModeExtended:
		return "extended"
	}
	return "unknown"
}

// TextEncoding selects how message text is packed on the wire.
type TextEncoding uint8

const (
	EncodingUTF8 TextEncoding = iota
	EncodingSixBit
	// EncodingHuffman is a reserved slot, never emitted.
	EncodingHuffman
	// EncodingDeflate is a reserved slot, never emitted.
	EncodingDeflate
)

func (e TextEncoding) String() string {
	switch e {
	case EncodingUTF8:
		return "utf8"
	case EncodingSixBit:
		return "sixbit"
	case EncodingHuffman:
		return "huffman"
	case EncodingDeflate:
		return "deflate"
	}
	return "unknown"
}

// Participant is one member of a conversation. Its index in
// Conversation.Participants is its permanent speaker ID; indexes are
// never reused or renumbered. Active is derived by replaying the
// Enter/Exit events in the log and is never serialized on its own.
type Participant struct {
	Name   string
	Active bool
}

// Conversation is the full aggregate: participants plus the ordered,
// append-only entry log. Entries are never reordered or mutated after
// append; encoding may drop the oldest entries to fit a byte budget.
type Conversation struct {
	Version      uint8
	Mode         Mode
	Encoding     TextEncoding
	Participants []Participant
	Entries      []Entry
}

package errors

import "fmt"

var (
	ErrSpeakerOutOfRange     = fmt.Errorf("speaker index out of range")
	ErrParticipantOutOfRange = fmt.Errorf("participant index out of range")
	ErrParticipantInactive   = fmt.Errorf("participant has left the conversation")
	ErrParticipantLimit      = fmt.Errorf("participant index space exhausted")
	ErrEmptyMessage          = fmt.Errorf("message text is empty")
	ErrNameLength            = fmt.Errorf("participant name must be 1 to 32 bytes")
	ErrTruncatedInput        = fmt.Errorf("truncated input")
	ErrVarintOverflow        = fmt.Errorf("varint overflows 64 bits")
	ErrUnsupportedMode       = fmt.Errorf("unsupported conversation mode")
	ErrUnsupportedVersion    = fmt.Errorf("unsupported wire version")
	ErrUnsupportedEncoding   = fmt.Errorf("unsupported text encoding")
	ErrInvalidEscape         = fmt.Errorf("invalid escape sequence")
	ErrConversationNotFound  = fmt.Errorf("conversation not found")
	ErrNotAnImage            = fmt.Errorf("input is not a supported image")
)

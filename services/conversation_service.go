// Package services exposes the conversation operations the rest of
// the system calls: growing the append-only log, choosing a text
// encoding, and moving conversations in and out of their wire form.
package services

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"

	"qrchat/codec"
	"qrchat/domain"
	"qrchat/errors"
	"qrchat/moderation"
	"qrchat/projection"
)

// sixBitThreshold is the alphabet coverage above which ToBytes picks
// the packed six-bit encoding over plain UTF-8.
const sixBitThreshold = 0.9

// Per-entry overhead estimates used by RemainingCapacity, in bytes.
// Duo entries share bitmaps, group entries each carry a varint tag.
const (
	duoEntryOverhead   = 1.5
	groupEntryOverhead = 3.0
	sixBitRatio        = 0.75
)

var validate = validator.New()

type nameRequest struct {
	Name string `validate:"required,min=1,max=32"`
}

type ConversationService struct {
	log       *slog.Logger
	moderator *moderation.Moderator
}

// NewConversationService wires the service. moderator may be nil, in
// which case message text passes through unfiltered.
func NewConversationService(log *slog.Logger, moderator *moderation.Moderator) *ConversationService {
	return &ConversationService{log: log, moderator: moderator}
}

// Create starts a conversation with a single active participant and
// its Enter event already in the log.
func (s *ConversationService) Create(name string) (*domain.Conversation, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	c := &domain.Conversation{
		Version:      domain.CurrentVersion,
		Mode:         domain.ModeDuo,
		Encoding:     domain.EncodingUTF8,
		Participants: []domain.Participant{{Name: name}},
		Entries: []domain.Entry{
			domain.SystemEvent{Event: domain.EventEnter, Participant: 0},
		},
	}
	projection.Apply(c)
	s.log.Debug("conversation created", "creator", name)
	return c, nil
}

// Join adds a participant, or re-activates an existing one matched
// case-insensitively by name; the old index is reused so the speaker
// ID stays stable across leave/rejoin. Growing past two participants
// upgrades the mode to Group, permanently.
func (s *ConversationService) Join(c *domain.Conversation, name string) (int, error) {
	if err := validateName(name); err != nil {
		return 0, err
	}
	idx := -1
	for i, p := range c.Participants {
		if strings.EqualFold(p.Name, name) {
			idx = i
			break
		}
	}
	if idx == -1 {
		if len(c.Participants) >= domain.MaxEventParticipants {
			return 0, fmt.Errorf("join %q: %w", name, errors.ErrParticipantLimit)
		}
		c.Participants = append(c.Participants, domain.Participant{Name: name})
		idx = len(c.Participants) - 1
	}
	c.Entries = append(c.Entries, domain.SystemEvent{Event: domain.EventEnter, Participant: idx})
	if len(c.Participants) > 2 {
		// Never reverts, even if the roster shrinks back to two.
		c.Mode = domain.ModeGroup
	}
	projection.Apply(c)
	s.log.Debug("participant joined", "name", name, "index", idx, "mode", c.Mode.String())
	return idx, nil
}

// AddMessage appends a chat entry. It rejects out-of-range speakers,
// speakers who have left, and empty text; nothing is ever dropped
// silently.
func (s *ConversationService) AddMessage(c *domain.Conversation, speaker int, text string) error {
	if speaker < 0 || speaker >= len(c.Participants) {
		return fmt.Errorf("speaker %d of %d participants: %w",
			speaker, len(c.Participants), errors.ErrSpeakerOutOfRange)
	}
	if !c.Participants[speaker].Active {
		return fmt.Errorf("%q: %w", c.Participants[speaker].Name, errors.ErrParticipantInactive)
	}
	if text == "" {
		return errors.ErrEmptyMessage
	}
	if s.moderator != nil {
		censored, matched := s.moderator.Censor(text)
		if len(matched) > 0 {
			s.log.Info("message censored", "speaker", c.Participants[speaker].Name, "words", len(matched))
		}
		text = censored
	}
	c.Entries = append(c.Entries, domain.ChatMessage{Speaker: speaker, Text: text})
	return nil
}

// Leave marks the participant gone and records the Exit. Leaving
// twice just records two Exit events; the log is a fact record, not a
// deduplicated snapshot.
func (s *ConversationService) Leave(c *domain.Conversation, idx int) error {
	if idx < 0 || idx >= len(c.Participants) {
		return fmt.Errorf("participant %d of %d: %w",
			idx, len(c.Participants), errors.ErrParticipantOutOfRange)
	}
	c.Entries = append(c.Entries, domain.SystemEvent{Event: domain.EventExit, Participant: idx})
	projection.Apply(c)
	return nil
}

// EncodeOptions tunes ToBytes. A zero MaxBytes means the default QR
// v40-L budget; a nil ForceEncoding lets the service sample message
// text and pick for itself.
type EncodeOptions struct {
	MaxBytes      int
	ForceEncoding *domain.TextEncoding
}

// ToBytes serializes the conversation, selecting the text encoding
// first: six-bit packing wins when more than 90% of all message
// characters fall inside its alphabet, otherwise plain UTF-8.
func (s *ConversationService) ToBytes(c *domain.Conversation, opts EncodeOptions) ([]byte, error) {
	if opts.ForceEncoding != nil {
		c.Encoding = *opts.ForceEncoding
	} else {
		c.Encoding = selectEncoding(c.Entries)
	}
	buf, err := codec.Encode(c, opts.MaxBytes)
	if err != nil {
		return nil, err
	}
	s.log.Debug("conversation encoded",
		"bytes", len(buf), "encoding", c.Encoding.String(), "entries", len(c.Entries))
	return buf, nil
}

// FromBytes reconstructs a conversation from its wire form.
func (s *ConversationService) FromBytes(data []byte) (*domain.Conversation, error) {
	return codec.Decode(data)
}

// RemainingCapacity estimates how many more messages of avgMsgLen
// characters fit under maxBytes, combining the direct encoded size
// with a mode-dependent per-entry overhead and an encoding-dependent
// text-size estimate.
func (s *ConversationService) RemainingCapacity(c *domain.Conversation, avgMsgLen, maxBytes int) int {
	if maxBytes <= 0 {
		maxBytes = codec.DefaultMaxBytes
	}
	used, err := codec.EncodedSize(c)
	if err != nil {
		return 0
	}
	remaining := maxBytes - used
	if remaining <= 0 {
		return 0
	}
	overhead := groupEntryOverhead
	if c.Mode == domain.ModeDuo {
		overhead = duoEntryOverhead
	}
	textBytes := float64(avgMsgLen)
	if selectEncoding(c.Entries) == domain.EncodingSixBit {
		textBytes *= sixBitRatio
	}
	return int(float64(remaining) / (overhead + textBytes))
}

// selectEncoding samples every message character in the log and
// returns six-bit when coverage clears the threshold. Conversations
// with no message text default to UTF-8.
func selectEncoding(entries []domain.Entry) domain.TextEncoding {
	total, inside := 0, 0
	for _, e := range entries {
		msg, ok := e.(domain.ChatMessage)
		if !ok {
			continue
		}
		for _, r := range msg.Text {
			total++
			if codec.InSixBitAlphabet(r) {
				inside++
			}
		}
	}
	if total == 0 {
		return domain.EncodingUTF8
	}
	if float64(inside)/float64(total) > sixBitThreshold {
		return domain.EncodingSixBit
	}
	return domain.EncodingUTF8
}

func validateName(name string) error {
	if err := validate.Struct(nameRequest{Name: name}); err != nil {
		return fmt.Errorf("%q: %w", name, errors.ErrNameLength)
	}
	// The validator counts runes; the wire format caps bytes.
	if len(name) > domain.MaxNameBytes {
		return fmt.Errorf("%q: %w", name, errors.ErrNameLength)
	}
	return nil
}

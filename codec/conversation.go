// Package codec owns the wire format: a conversation serialized into
// a self-describing byte buffer small enough to live inside a single
// QR symbol. The layout is bit-exact; two independent implementations
// must interoperate on nothing but these bytes.
package codec

import (
	"fmt"

	"qrchat/domain"
	"qrchat/errors"
	"qrchat/projection"
)

// Header byte layout: bits 7-6 version, 5-4 mode, 3-2 text encoding,
// 1-0 participant count hint. A hint of 3 means the true count
// follows as a varint.
const (
	versionShift  = 6
	modeShift     = 4
	encodingShift = 2
	fieldMask     = 0x03
	hintExtended  = 3
)

// Encode serializes the conversation into at most maxBytes bytes
// (DefaultMaxBytes when maxBytes is zero or negative). If the direct
// encoding overflows the budget it binary-searches the largest number
// of most-recent entries whose re-encoding fits, dropping the oldest
// first; truncation is lossy and one-way. The header-and-participants
// shell overflowing the budget on its own is an accepted boundary
// case, returned as-is.
func Encode(c *domain.Conversation, maxBytes int) ([]byte, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	buf, err := encodeEntries(c, c.Entries)
	if err != nil {
		return nil, err
	}
	if len(buf) <= maxBytes {
		return buf, nil
	}

	// "does keeping the newest k entries fit" is monotonic in k, so a
	// standard integer binary search finds the largest fitting k. Each
	// probe is a full re-encode, which is fine at the sizes this
	// format targets.
	fits := func(k int) ([]byte, bool) {
		trial, err := encodeEntries(c, c.Entries[len(c.Entries)-k:])
		if err != nil {
			return nil, false
		}
		return trial, len(trial) <= maxBytes
	}
	best, _ := fits(0)
	lo, hi := 0, len(c.Entries)
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if trial, ok := fits(mid); ok {
			best = trial
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return best, nil
}

// EncodedSize returns the length of the direct, untruncated encoding.
func EncodedSize(c *domain.Conversation) (int, error) {
	buf, err := encodeEntries(c, c.Entries)
	if err != nil {
		return 0, err
	}
	return len(buf), nil
}

func encodeEntries(c *domain.Conversation, entries []domain.Entry) ([]byte, error) {
	switch c.Mode {
	case domain.ModeDuo, domain.ModeGroup:
	default:
		return nil, fmt.Errorf("encode mode %s: %w", c.Mode, errors.ErrUnsupportedMode)
	}
	switch c.Encoding {
	case domain.EncodingUTF8, domain.EncodingSixBit:
	default:
		return nil, fmt.Errorf("encode with %s: %w", c.Encoding, errors.ErrUnsupportedEncoding)
	}
	if err := validate(c, entries); err != nil {
		return nil, err
	}

	count := len(c.Participants)
	hint := count
	if count >= hintExtended {
		hint = hintExtended
	}
	header := c.Version<<versionShift |
		uint8(c.Mode)<<modeShift |
		uint8(c.Encoding)<<encodingShift |
		uint8(hint)
	buf := []byte{header}
	if hint == hintExtended {
		buf = AppendUvarint(buf, uint64(count))
	}
	buf = AppendUvarint(buf, uint64(len(entries)))
	for _, p := range c.Participants {
		buf = AppendUvarint(buf, uint64(len(p.Name)))
		buf = append(buf, p.Name...)
	}

	if c.Mode == domain.ModeDuo {
		return encodeDuoEntries(buf, c.Encoding, entries)
	}
	return encodeGroupEntries(buf, c.Encoding, entries)
}

func validate(c *domain.Conversation, entries []domain.Entry) error {
	if c.Mode == domain.ModeDuo && len(c.Participants) > 2 {
		return fmt.Errorf("duo conversation with %d participants: %w",
			len(c.Participants), errors.ErrUnsupportedMode)
	}
	for _, p := range c.Participants {
		if len(p.Name) == 0 || len(p.Name) > domain.MaxNameBytes {
			return fmt.Errorf("participant %q: %w", p.Name, errors.ErrNameLength)
		}
	}
	for _, e := range entries {
		switch v := e.(type) {
		case domain.ChatMessage:
			if v.Speaker < 0 || v.Speaker >= len(c.Participants) {
				return fmt.Errorf("message speaker %d of %d participants: %w",
					v.Speaker, len(c.Participants), errors.ErrSpeakerOutOfRange)
			}
		case domain.SystemEvent:
			if v.Participant < 0 || v.Participant >= len(c.Participants) {
				return fmt.Errorf("event participant %d of %d participants: %w",
					v.Participant, len(c.Participants), errors.ErrParticipantOutOfRange)
			}
			if v.Participant >= domain.MaxEventParticipants {
				// The packed event record stores the index in 4 bits.
				return fmt.Errorf("event participant %d: %w", v.Participant, errors.ErrParticipantLimit)
			}
		}
	}
	return nil
}

// encodeDuoEntries writes the compact two-party layout: an entry-type
// bitmap (0=message, 1=event) so the decoder can tell messages from
// events before reading any payload, the first chat speaker as a raw
// byte, the turn bitmap over the chat-message subsequence, then each
// entry's payload in original order.
func encodeDuoEntries(buf []byte, enc domain.TextEncoding, entries []domain.Entry) ([]byte, error) {
	var types bitWriter
	var speakers []int
	for _, e := range entries {
		switch v := e.(type) {
		case domain.SystemEvent:
			types.writeBits(1, 1)
		case domain.ChatMessage:
			types.writeBits(0, 1)
			speakers = append(speakers, v.Speaker)
		}
	}
	buf = append(buf, types.bytes()...)

	if len(speakers) > 0 {
		buf = append(buf, byte(speakers[0]))
		buf = append(buf, EncodeTurnBitmap(speakers)...)
	}

	for _, e := range entries {
		switch v := e.(type) {
		case domain.SystemEvent:
			buf = append(buf, eventRecord(v))
		case domain.ChatMessage:
			buf = appendText(buf, enc, v.Text)
		}
	}
	return buf, nil
}

// encodeGroupEntries writes one varint tag per entry: 0 flags an
// event record, speaker+1 flags a message. The +1 offset keeps 0 free
// for events.
func encodeGroupEntries(buf []byte, enc domain.TextEncoding, entries []domain.Entry) ([]byte, error) {
	for _, e := range entries {
		switch v := e.(type) {
		case domain.SystemEvent:
			buf = AppendUvarint(buf, 0)
			buf = append(buf, eventRecord(v))
		case domain.ChatMessage:
			buf = AppendUvarint(buf, uint64(v.Speaker)+1)
			buf = appendText(buf, enc, v.Text)
		}
	}
	return buf, nil
}

// eventRecord packs an event into one byte: high nibble event type,
// low nibble participant index.
func eventRecord(v domain.SystemEvent) byte {
	return byte(v.Event)<<4 | byte(v.Participant)&0x0f
}

func appendText(buf []byte, enc domain.TextEncoding, text string) []byte {
	if enc == domain.EncodingSixBit {
		packed, chars := EncodeSixBit(text)
		buf = AppendUvarint(buf, uint64(chars))
		buf = AppendUvarint(buf, uint64(len(packed)))
		return append(buf, packed...)
	}
	buf = AppendUvarint(buf, uint64(len(text)))
	return append(buf, text...)
}

// Decode is the structural inverse of Encode. It reads the header,
// the participant list, then the mode-dependent entry section, and
// finally replays every Enter/Exit event to derive each participant's
// Active flag. Any read past the end of the buffer fails with a
// truncated-input error instead of producing garbage.
func Decode(buf []byte) (*domain.Conversation, error) {
	r := &reader{buf: buf}
	header, err := r.readByte()
	if err != nil {
		return nil, err
	}
	c := &domain.Conversation{
		Version:  header >> versionShift,
		Mode:     domain.Mode(header >> modeShift & fieldMask),
		Encoding: domain.TextEncoding(header >> encodingShift & fieldMask),
	}
	if c.Version != domain.CurrentVersion {
		return nil, fmt.Errorf("decode version %d: %w", c.Version, errors.ErrUnsupportedVersion)
	}
	switch c.Mode {
	case domain.ModeDuo, domain.ModeGroup:
	default:
		// Solo and Extended are reserved slots with no defined layout.
		return nil, fmt.Errorf("decode mode %s: %w", c.Mode, errors.ErrUnsupportedMode)
	}
	switch c.Encoding {
	case domain.EncodingUTF8, domain.EncodingSixBit:
	default:
		// Huffman and Deflate are forward-compatibility placeholders; a
		// buffer carrying one is rejected cleanly, never crashed on.
		return nil, fmt.Errorf("decode %s text: %w", c.Encoding, errors.ErrUnsupportedEncoding)
	}

	count := uint64(header & fieldMask)
	if count == hintExtended {
		if count, err = r.readUvarint(); err != nil {
			return nil, err
		}
	}
	if count > uint64(len(buf)) {
		return nil, fmt.Errorf("participant count %d: %w", count, errors.ErrTruncatedInput)
	}
	if c.Mode == domain.ModeDuo && count > 2 {
		return nil, fmt.Errorf("duo conversation with %d participants: %w", count, errors.ErrUnsupportedMode)
	}
	entryCount, err := r.readUvarint()
	if err != nil {
		return nil, err
	}
	if entryCount > uint64(len(buf))*8 {
		return nil, fmt.Errorf("entry count %d: %w", entryCount, errors.ErrTruncatedInput)
	}

	c.Participants = make([]domain.Participant, 0, count)
	for i := uint64(0); i < count; i++ {
		nameLen, err := r.readUvarint()
		if err != nil {
			return nil, err
		}
		if nameLen == 0 || nameLen > domain.MaxNameBytes {
			return nil, fmt.Errorf("participant %d name length %d: %w", i, nameLen, errors.ErrNameLength)
		}
		name, err := r.take(int(nameLen))
		if err != nil {
			return nil, err
		}
		c.Participants = append(c.Participants, domain.Participant{Name: string(name)})
	}

	if c.Mode == domain.ModeDuo {
		c.Entries, err = decodeDuoEntries(r, c.Encoding, int(entryCount), len(c.Participants))
	} else {
		c.Entries, err = decodeGroupEntries(r, c.Encoding, int(entryCount), len(c.Participants))
	}
	if err != nil {
		return nil, err
	}

	projection.Apply(c)
	return c, nil
}

func decodeDuoEntries(r *reader, enc domain.TextEncoding, entryCount, participants int) ([]domain.Entry, error) {
	typeBytes, err := r.take((entryCount + 7) / 8)
	if err != nil {
		return nil, err
	}
	types := bitReader{buf: typeBytes}
	isEvent := make([]bool, entryCount)
	msgCount := 0
	for i := 0; i < entryCount; i++ {
		bit, err := types.readBits(1)
		if err != nil {
			return nil, err
		}
		isEvent[i] = bit == 1
		if bit == 0 {
			msgCount++
		}
	}

	var speakers []int
	if msgCount > 0 {
		first, err := r.readByte()
		if err != nil {
			return nil, err
		}
		if int(first) >= participants {
			return nil, fmt.Errorf("first speaker %d of %d participants: %w",
				first, participants, errors.ErrSpeakerOutOfRange)
		}
		turnBytes, err := r.take((msgCount - 1 + 7) / 8)
		if err != nil {
			return nil, err
		}
		if speakers, err = DecodeTurnBitmap(turnBytes, msgCount, int(first)); err != nil {
			return nil, err
		}
	}

	entries := make([]domain.Entry, 0, entryCount)
	mi := 0
	for i := 0; i < entryCount; i++ {
		if isEvent[i] {
			evt, err := readEventRecord(r, participants)
			if err != nil {
				return nil, err
			}
			entries = append(entries, evt)
			continue
		}
		text, err := readText(r, enc)
		if err != nil {
			return nil, err
		}
		speaker := speakers[mi]
		mi++
		if speaker >= participants {
			return nil, fmt.Errorf("speaker %d of %d participants: %w",
				speaker, participants, errors.ErrSpeakerOutOfRange)
		}
		entries = append(entries, domain.ChatMessage{Speaker: speaker, Text: text})
	}
	return entries, nil
}

func decodeGroupEntries(r *reader, enc domain.TextEncoding, entryCount, participants int) ([]domain.Entry, error) {
	entries := make([]domain.Entry, 0, entryCount)
	for i := 0; i < entryCount; i++ {
		tag, err := r.readUvarint()
		if err != nil {
			return nil, err
		}
		if tag == 0 {
			evt, err := readEventRecord(r, participants)
			if err != nil {
				return nil, err
			}
			entries = append(entries, evt)
			continue
		}
		// Bound the tag before the signed conversion; a huge tag would
		// otherwise wrap into a negative speaker index.
		if tag > uint64(participants) {
			return nil, fmt.Errorf("speaker tag %d of %d participants: %w",
				tag, participants, errors.ErrSpeakerOutOfRange)
		}
		speaker := int(tag - 1)
		text, err := readText(r, enc)
		if err != nil {
			return nil, err
		}
		entries = append(entries, domain.ChatMessage{Speaker: speaker, Text: text})
	}
	return entries, nil
}

func readEventRecord(r *reader, participants int) (domain.SystemEvent, error) {
	b, err := r.readByte()
	if err != nil {
		return domain.SystemEvent{}, err
	}
	evtType := domain.EventType(b >> 4)
	idx := int(b & 0x0f)
	if evtType != domain.EventEnter && evtType != domain.EventExit {
		return domain.SystemEvent{}, fmt.Errorf("unknown event type %d", evtType)
	}
	if idx >= participants {
		return domain.SystemEvent{}, fmt.Errorf("event participant %d of %d: %w",
			idx, participants, errors.ErrParticipantOutOfRange)
	}
	return domain.SystemEvent{Event: evtType, Participant: idx}, nil
}

func readText(r *reader, enc domain.TextEncoding) (string, error) {
	if enc == domain.EncodingSixBit {
		chars, err := r.readUvarint()
		if err != nil {
			return "", err
		}
		packedLen, err := r.readUvarint()
		if err != nil {
			return "", err
		}
		packed, err := r.take(int(packedLen))
		if err != nil {
			return "", err
		}
		return DecodeSixBit(packed, int(chars))
	}
	n, err := r.readUvarint()
	if err != nil {
		return "", err
	}
	raw, err := r.take(int(n))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// reader walks a byte buffer with explicit bounds checks; every read
// past the end surfaces as ErrTruncatedInput.
type reader struct {
	buf []byte
	pos int
}

func (r *reader) readByte() (byte, error) {
	if r.pos >= len(r.buf) {
		return 0, fmt.Errorf("offset %d: %w", r.pos, errors.ErrTruncatedInput)
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

func (r *reader) readUvarint() (uint64, error) {
	v, n, err := DecodeUvarint(r.buf[r.pos:])
	if err != nil {
		return 0, fmt.Errorf("offset %d: %w", r.pos, err)
	}
	r.pos += n
	return v, nil
}

func (r *reader) take(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.buf) {
		return nil, fmt.Errorf("%d bytes at offset %d: %w", n, r.pos, errors.ErrTruncatedInput)
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

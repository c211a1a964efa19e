package codec

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"qrchat/errors"
)

// sixBitAlphabet maps symbol values 0..62 to characters. Value 63 is
// the escape marker and has no character of its own. The table is
// immutable, process-wide state; never mutate it.
const sixBitAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789 .,!?'\"-:;()&@#$%*+=/\n_<>~^"

const escapeSymbol = 63

// sixBitIndex is the reverse lookup: ASCII code point to symbol
// value, -1 for out-of-alphabet. Built once at init.
var sixBitIndex [128]int8

func init() {
	for i := range sixBitIndex {
		sixBitIndex[i] = -1
	}
	for i, r := range sixBitAlphabet {
		sixBitIndex[r] = int8(i)
	}
}

// InSixBitAlphabet reports whether r packs into six bits without an
// escape sequence.
func InSixBitAlphabet(r rune) bool {
	return r < 128 && sixBitIndex[r] >= 0
}

// SixBitCoverage returns the fraction of characters in s that belong
// to the six-bit alphabet. An empty string counts as full coverage.
func SixBitCoverage(s string) float64 {
	if s == "" {
		return 1
	}
	total, inside := 0, 0
	for _, r := range s {
		total++
		if InSixBitAlphabet(r) {
			inside++
		}
	}
	return float64(inside) / float64(total)
}

// EncodeSixBit packs s at six bits per in-alphabet character,
// MSB-first. An out-of-alphabet character is escaped ONCE: the escape
// symbol (63) followed by the character's complete UTF-8 byte
// sequence, each byte written as eight bits. The returned character
// count counts every character exactly once, escaped or not; the
// decoder needs it because escape runs make the packed length
// ambiguous on its own.
func EncodeSixBit(s string) (packed []byte, charCount int) {
	var w bitWriter
	for _, r := range s {
		charCount++
		if InSixBitAlphabet(r) {
			w.writeBits(uint32(sixBitIndex[r]), 6)
			continue
		}
		w.writeBits(escapeSymbol, 6)
		var seq [utf8.UTFMax]byte
		n := utf8.EncodeRune(seq[:], r)
		for _, b := range seq[:n] {
			w.writeBits(uint32(b), 8)
		}
	}
	return w.bytes(), charCount
}

// DecodeSixBit unpacks charCount characters from packed. After an
// escape symbol it reads one eight-bit lead byte, derives the UTF-8
// sequence length from it, and reads the remaining continuation
// bytes, so multi-byte characters round-trip. Running out of bits is
// a truncated-input error; a lead byte that cannot start a UTF-8
// sequence is an invalid-escape error.
func DecodeSixBit(packed []byte, charCount int) (string, error) {
	// Every character costs at least six bits, so a count beyond
	// len(packed)*8/6 cannot have come from the encoder. This also
	// catches counts that wrapped negative in a uint64-to-int
	// conversion upstream.
	if charCount < 0 || charCount > len(packed)*8/6 {
		return "", fmt.Errorf("char count %d for %d packed bytes: %w",
			charCount, len(packed), errors.ErrTruncatedInput)
	}
	r := bitReader{buf: packed}
	var sb strings.Builder
	for i := 0; i < charCount; i++ {
		sym, err := r.readBits(6)
		if err != nil {
			return "", err
		}
		if sym != escapeSymbol {
			sb.WriteByte(sixBitAlphabet[sym])
			continue
		}
		lead, err := r.readBits(8)
		if err != nil {
			return "", err
		}
		n := utf8SeqLen(byte(lead))
		if n == 0 {
			return "", fmt.Errorf("six-bit lead byte 0x%02x: %w", lead, errors.ErrInvalidEscape)
		}
		seq := []byte{byte(lead)}
		for j := 1; j < n; j++ {
			b, err := r.readBits(8)
			if err != nil {
				return "", err
			}
			seq = append(seq, byte(b))
		}
		sb.Write(seq)
	}
	return sb.String(), nil
}

// utf8SeqLen returns the total length of the UTF-8 sequence starting
// with lead, or 0 if lead is not a valid first byte.
func utf8SeqLen(lead byte) int {
	switch {
	case lead < 0x80:
		return 1
	case lead >= 0xc0 && lead < 0xe0:
		return 2
	case lead >= 0xe0 && lead < 0xf0:
		return 3
	case lead >= 0xf0 && lead < 0xf8:
		return 4
	}
	return 0
}

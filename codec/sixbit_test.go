package codec

import (
	"testing"

	"github.com/stretchr/testify/require"

	"qrchat/errors"
)

func TestSixBit_AlphabetTableShape(t *testing.T) {
	req := require.New(t)

	// 63 printable symbols; value 63 is the escape marker.
	req.Len(sixBitAlphabet, 63)
	for i, r := range sixBitAlphabet {
		req.Equal(int8(i), sixBitIndex[r])
	}
}

func TestSixBit_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"plain lowercase", "hey alice!"},
		{"digits and punctuation", "meet at 9:30, ok? (bring snacks)"},
		{"newlines", "line one\nline two\nline three"},
		{"every symbol", sixBitAlphabet},
		{"empty", ""},
		{"escaped ascii uppercase", "Hello World"},
		{"escaped ascii symbols", "a|b{c}d"},
		{"multi-byte accents", "un été à Paris"},
		{"multi-byte cjk", "你好 alice"},
		{"four-byte emoji", "on my way 🚀"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			packed, chars := EncodeSixBit(tt.input)
			decoded, err := DecodeSixBit(packed, chars)
			req.NoError(err)
			req.Equal(tt.input, decoded)
		})
	}
}

func TestSixBit_CharCountCountsEscapedRunesOnce(t *testing.T) {
	req := require.New(t)

	// Three runes total, one of them multi-byte.
	_, chars := EncodeSixBit("aéz")
	req.Equal(3, chars)
}

func TestSixBit_PacksSmallerThanUTF8(t *testing.T) {
	req := require.New(t)

	text := "the quick brown fox jumps over the lazy dog"
	packed, _ := EncodeSixBit(text)
	req.Less(len(packed), len(text))
}

func TestSixBit_TruncatedPacked(t *testing.T) {
	req := require.New(t)

	packed, chars := EncodeSixBit("hello there")
	_, err := DecodeSixBit(packed[:len(packed)-1], chars)
	req.ErrorIs(err, errors.ErrTruncatedInput)
}

func TestSixBit_CharCountBeyondPayloadRejected(t *testing.T) {
	req := require.New(t)

	packed, chars := EncodeSixBit("hi there")

	// Six bits per character is the floor, so any count past
	// len(packed)*8/6 is corrupt rather than merely short.
	_, err := DecodeSixBit(packed, len(packed)*8/6+1)
	req.ErrorIs(err, errors.ErrTruncatedInput)

	// A count that wrapped negative upstream must not decode as "".
	_, err = DecodeSixBit(packed, -1)
	req.ErrorIs(err, errors.ErrTruncatedInput)

	decoded, err := DecodeSixBit(packed, chars)
	req.NoError(err)
	req.Equal("hi there", decoded)
}

func TestSixBit_Coverage(t *testing.T) {
	req := require.New(t)

	req.Equal(1.0, SixBitCoverage("all lowercase, fits"))
	req.Equal(1.0, SixBitCoverage(""))
	req.Equal(0.5, SixBitCoverage("aAbB"))
	req.Equal(0.0, SixBitCoverage("ÀÉÎÕÜ"))
}

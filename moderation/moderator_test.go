package moderation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModerator_Censor(t *testing.T) {
	req := require.New(t)
	mod, err := NewModerator([]string{"badger", "snake"}, '*')
	req.NoError(err)

	tests := []struct {
		name     string
		input    string
		expected string
		matched  int
	}{
		{"plain match", "the badger is back", "the ****** is back", 1},
		{"case and punctuation", "watch the B.A.D.G.E.R go", "watch the *********** go", 1},
		{"two words", "snake meets badger", "***** meets ******", 2},
		{"no match", "nothing to see here", "nothing to see here", 0},
		{"empty", "", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, matched := mod.Censor(tt.input)
			require.Equal(t, tt.expected, out)
			require.Len(t, matched, tt.matched)
		})
	}
}

func TestModerator_EmptyWordList(t *testing.T) {
	req := require.New(t)
	mod, err := NewModerator(nil, '*')
	req.NoError(err)

	out, matched := mod.Censor("anything goes")
	req.Equal("anything goes", out)
	req.Empty(matched)
}

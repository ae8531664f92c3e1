package guid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormatRoundTrip(t *testing.T) {
	cases := []string{
		"4f68bce3-e8cd-4db1-96e7-fbcaf984b709",
		"00000000-0000-0000-0000-000000000000",
		"FFFFFFFF-FFFF-FFFF-FFFF-FFFFFFFFFFFF",
	}
	for _, s := range cases {
		g, err := Parse(s)
		require.NoError(t, err)
		assert.Equal(t, len(s), len(g.String()))
		g2, err := Parse(g.String())
		require.NoError(t, err)
		assert.Equal(t, g, g2)
	}
}

func TestParseCaseInsensitive(t *testing.T) {
	lower, err := Parse("4f68bce3-e8cd-4db1-96e7-fbcaf984b709")
	require.NoError(t, err)
	upper, err := Parse("4F68BCE3-E8CD-4DB1-96E7-FBCAF984B709")
	require.NoError(t, err)
	assert.Equal(t, lower, upper)
}

func TestParseMalformedReturnsZero(t *testing.T) {
	cases := []string{
		"",
		"not-a-guid",
		"4f68bce3e8cd4db196e7fbcaf984b709",        // missing dashes
		"4f68bce3-e8cd-4db1-96e7-fbcaf984b70",      // too short
		"4f68bce3-e8cd-4db1-96e7-fbcaf984b709X",    // too long
		"zzzzzzzz-zzzz-zzzz-zzzz-zzzzzzzzzzzz",     // not hex
	}
	for _, s := range cases {
		g, err := Parse(s)
		assert.Error(t, err, s)
		assert.Equal(t, Zero, g, s)
	}
}

func TestFormatAlwaysCanonical36Chars(t *testing.T) {
	var g GUID
	for i := range g {
		g[i] = byte(i * 17)
	}
	s := g.String()
	assert.Len(t, s, 36)
	assert.Equal(t, byte('-'), s[8])
	assert.Equal(t, byte('-'), s[13])
	assert.Equal(t, byte('-'), s[18])
	assert.Equal(t, byte('-'), s[23])
}

func TestGPTByteRoundTrip(t *testing.T) {
	g := MustParse("4f68bce3-e8cd-4db1-96e7-fbcaf984b709")
	require.False(t, g.IsZero())
	raw := ToGPTBytes(g)
	back := FromGPTBytes(raw)
	assert.Equal(t, g, back)
}

func TestIsZero(t *testing.T) {
	assert.True(t, Zero.IsZero())
	assert.False(t, MustParse("4f68bce3-e8cd-4db1-96e7-fbcaf984b709").IsZero())
}

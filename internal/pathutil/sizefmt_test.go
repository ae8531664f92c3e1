package pathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatBytesIEC(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0-byte"},
		{1023, "1023-byte"},
		{1024, "1 KiB"},
		{1536, "1.50 KiB"},
		{1024 * 1024, "1 MiB"},
		{1024 * 1024 * 1024, "1 GiB"},
		{int64(1.5 * 1024 * 1024 * 1024), "1.50 GiB"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, FormatBytesIEC(c.in), "in=%d", c.in)
	}
}

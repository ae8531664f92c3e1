package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewProducesDistinctIDs(t *testing.T) {
	a := New()
	b := New()
	assert.NotEqual(t, a.String(), b.String())
}

func TestStringIsCanonicalUUID(t *testing.T) {
	id := New()
	assert.Len(t, id.String(), 36)
}

package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound_HalfUp(t *testing.T) {
	assert.Equal(t, int64(25003), Round(25002.5))
	assert.Equal(t, int64(3), Round(2.5))
	assert.Equal(t, int64(-2), Round(-2.5))
	assert.Equal(t, int64(-3), Round(-2.51))
	assert.Equal(t, int64(0), Round(0.49))
}

func TestCeil(t *testing.T) {
	assert.Equal(t, int64(25001), Ceil(25000.0001))
	assert.Equal(t, int64(5000), Ceil(5000))
	assert.Equal(t, int64(-2), Ceil(-2.5))
}

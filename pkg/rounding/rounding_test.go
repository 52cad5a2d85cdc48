package rounding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHalfUp(t *testing.T) {
	assert.Equal(t, 1.5, HalfUp(1.5, 2))
	assert.Equal(t, 1.25, HalfUp(1.245, 2))
	assert.Equal(t, 0.33, HalfUp(1.0/3.0, 2))
	assert.Equal(t, 300.0, HalfUp(1.5*200, 2))
	assert.Equal(t, -1.25, HalfUp(-1.245, 2))
	assert.Equal(t, 2.0, HalfUp(1.5, 0))
	assert.Equal(t, 2.0, HalfUp(1.5, -1))
}

package jsqps

import (
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestStateSpaceEnumeration(t *testing.T) {
	ss, err := NewStateSpace(3, 4)
	require.NoError(t, err)

	assert.Equal(t, 3, ss.Servers())
	assert.Equal(t, 4, ss.Limit())
	assert.Equal(t, 64, ss.Size())

	assert.Equal(t, []int{0, 0, 0}, ss.State(0))
	assert.Equal(t, []int{0, 0, 1}, ss.State(1))
	assert.Equal(t, []int{0, 1, 0}, ss.State(4))
	assert.Equal(t, []int{3, 3, 3}, ss.State(63))

	for idx := 0; idx < ss.Size(); idx++ {
		back, ok := ss.Index(ss.State(idx))
		require.True(t, ok)
		assert.Equal(t, idx, back)
	}
}

func TestStateSpaceStride(t *testing.T) {
	ss, err := NewStateSpace(3, 5)
	require.NoError(t, err)
	assert.Equal(t, 25, ss.stride(0))
	assert.Equal(t, 5, ss.stride(1))
	assert.Equal(t, 1, ss.stride(2))
}

func TestStateSpaceIndexRejects(t *testing.T) {
	ss, err := NewStateSpace(2, 3)
	require.NoError(t, err)

	tests := []struct {
		name  string
		state []int
	}{
		{"short", []int{1}},
		{"long", []int{1, 1, 1}},
		{"negative", []int{-1, 0}},
		{"at limit", []int{0, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := ss.Index(tt.state)
			assert.False(t, ok)
		})
	}
}

func TestStateSpaceInvalid(t *testing.T) {
	_, err := NewStateSpace(0, 3)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))

	_, err = NewStateSpace(2, 0)
	assert.True(t, errors.Is(err, ErrInvalidConfiguration))

	// 2^64 states overflow int
	_, err = NewStateSpace(64, 2)
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "limit", ce.Param)
}

func TestStateSpaceSingleState(t *testing.T) {
	ss, err := NewStateSpace(4, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, ss.Size())
	assert.Equal(t, []int{0, 0, 0, 0}, ss.State(0))
}

func TestOccupancyHelpers(t *testing.T) {
	least, tied := minOccupancy([]int{2, 1, 3, 1})
	assert.Equal(t, 1, least)
	assert.Equal(t, 2, tied)

	least, tied = minOccupancy([]int{0})
	assert.Equal(t, 0, least)
	assert.Equal(t, 1, tied)

	assert.Equal(t, 7, totalOccupancy([]int{2, 1, 3, 1}))
	assert.Equal(t, "(2,1,3)", stateString([]int{2, 1, 3}))
}

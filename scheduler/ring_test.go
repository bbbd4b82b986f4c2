package scheduler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRingAverage(t *testing.T) {
	var r = NewRing(3)
	require.Equal(t, 0, r.Len())
	require.Equal(t, 0.0, r.Average())

	r.Push(3)
	r.Push(6)
	require.Equal(t, 2, r.Len())
	require.Equal(t, 4.5, r.Average())

	r.Push(9)
	r.Push(12) // Displaces 3.
	require.Equal(t, 3, r.Len())
	require.Equal(t, 9.0, r.Average())

	r.Push(0)
	r.Push(0)
	r.Push(0)
	require.Equal(t, 0.0, r.Average())

	require.Panics(t, func() { NewRing(0) })
}

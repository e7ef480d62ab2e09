package pool

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFloat64Scratch(t *testing.T) {
	t.Run("starts empty", func(t *testing.T) {
		s := GetFloat64Scratch()
		require.Empty(t, s)
		PutFloat64Scratch(s)
	})

	t.Run("grown slice comes back empty", func(t *testing.T) {
		s := GetFloat64Scratch()
		for i := range 64 {
			s = append(s, float64(i))
		}
		PutFloat64Scratch(s)

		again := GetFloat64Scratch()
		require.Empty(t, again)
		PutFloat64Scratch(again)
	})

	t.Run("oversized slices are dropped", func(t *testing.T) {
		require.NotPanics(t, func() { PutFloat64Scratch(make([]float64, 0, scratchLimit+1)) })
		require.NotPanics(t, func() { PutFloat64Scratch(nil) })
	})
}

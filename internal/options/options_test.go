package options

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type runConfig struct {
	workers int
	cutoff  int
	label   string
}

func withWorkers(n int) Option[*runConfig] {
	return New(func(c *runConfig) error {
		if n < 1 {
			return errors.New("workers must be at least 1")
		}
		c.workers = n

		return nil
	})
}

func withLabel(label string) Option[*runConfig] {
	return NoError(func(c *runConfig) {
		c.label = label
	})
}

func TestApply(t *testing.T) {
	t.Run("applies options in order", func(t *testing.T) {
		cfg := &runConfig{cutoff: 2}
		err := Apply(cfg, withWorkers(4), withLabel("first"), withLabel("second"))
		require.NoError(t, err)
		require.Equal(t, 4, cfg.workers)
		require.Equal(t, 2, cfg.cutoff)
		require.Equal(t, "second", cfg.label)
	})

	t.Run("stops at first error", func(t *testing.T) {
		cfg := &runConfig{}
		err := Apply(cfg, withLabel("kept"), withWorkers(0), withLabel("skipped"))
		require.Error(t, err)
		require.Contains(t, err.Error(), "workers must be at least 1")
		require.Equal(t, "kept", cfg.label)
		require.Zero(t, cfg.workers)
	})

	t.Run("empty and nil options", func(t *testing.T) {
		cfg := &runConfig{workers: 3}
		require.NoError(t, Apply(cfg))
		require.NoError(t, Apply[*runConfig](cfg, nil))
		require.Equal(t, 3, cfg.workers)
	})
}

func TestNoError_PrimitiveTarget(t *testing.T) {
	var n int
	require.NoError(t, Apply(&n, NoError(func(p *int) { *p = 42 })))
	require.Equal(t, 42, n)
}

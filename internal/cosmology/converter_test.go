package cosmology

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gwcatalog/internal/errors"
)

var (
	defaultOnce      sync.Once
	defaultConverter *Converter
	defaultErr       error
)

func newDefaultConverter(t *testing.T) *Converter {
	t.Helper()
	defaultOnce.Do(func() {
		defaultConverter, defaultErr = NewConverter(DefaultConfig())
	})
	require.NoError(t, defaultErr)
	return defaultConverter
}

func TestKnownDistances(t *testing.T) {
	c := newDefaultConverter(t)

	tests := []struct {
		name     string
		z        float64
		distance float64
	}{
		{name: "z=0.10484", z: 0.10483980, distance: 500},
		{name: "z=1", z: 1, distance: 6797.987},
		{name: "z=5", z: 5, distance: 47817.0855},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := c.RedshiftToDistance(tt.z)
			require.NoError(t, err)
			assert.InDelta(t, tt.distance, d, 1e-5*tt.distance)

			z, err := c.DistanceToRedshift(tt.distance)
			require.NoError(t, err)
			assert.InDelta(t, tt.z, z, 1e-4*tt.z)
		})
	}
}

func TestDistanceToRedshiftMonotonic(t *testing.T) {
	for _, method := range []string{InterpolationLinear, InterpolationFritschButland} {
		t.Run(method, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Interpolation = method
			c, err := NewConverter(cfg)
			require.NoError(t, err)

			prev := -1.0
			for d := 0.0; d <= c.MaxDistance(); d += c.MaxDistance() / 5000 {
				z, err := c.DistanceToRedshift(d)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, z, prev, "distance %g", d)
				prev = z
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	c := newDefaultConverter(t)

	for _, z := range []float64{1e-3, 0.01, 0.05, 0.1, 0.3, 0.75, 1, 2.5, 5, 9.9} {
		d, err := c.RedshiftToDistance(z)
		require.NoError(t, err)

		back, err := c.DistanceToRedshift(d)
		require.NoError(t, err)
		assert.InDelta(t, 0, (back-z)/z, 1e-3, "z=%g", z)
	}
}

func TestDistanceToRedshiftDomain(t *testing.T) {
	c := newDefaultConverter(t)

	z, err := c.DistanceToRedshift(0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, z)

	z, err = c.DistanceToRedshift(c.MaxDistance())
	require.NoError(t, err)
	assert.InDelta(t, DefaultZMax, z, 1e-9)

	for _, d := range []float64{-1, math.NaN(), c.MaxDistance() * 1.01, math.Inf(1)} {
		_, err := c.DistanceToRedshift(d)
		require.Error(t, err, "distance %g", d)
		assert.True(t, errors.IsDomainError(err))
		assert.Contains(t, err.Error(), "luminosity_distance")
	}

	for _, z := range []float64{-0.1, 10.5, math.NaN()} {
		_, err := c.RedshiftToDistance(z)
		assert.True(t, errors.IsDomainError(err), "z %g", z)
	}
}

func TestToSourceFrame(t *testing.T) {
	for _, m := range []float64{0, 1.4, 30, 150} {
		assert.Equal(t, m, ToSourceFrame(m, 0))
	}
	assert.InDelta(t, 20.0, ToSourceFrame(30, 0.5), 1e-12)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{name: "zero H0", modify: func(c *Config) { c.Model.H0 = 0 }},
		{name: "negative Om0", modify: func(c *Config) { c.Model.Om0 = -0.1 }},
		{name: "Om0 above one", modify: func(c *Config) { c.Model.Om0 = 1.5 }},
		{name: "zero zmax", modify: func(c *Config) { c.ZMax = 0 }},
		{name: "infinite zmax", modify: func(c *Config) { c.ZMax = math.Inf(1) }},
		{name: "coarse grid", modify: func(c *Config) { c.GridPoints = 10 }},
		{name: "unknown interpolation", modify: func(c *Config) { c.Interpolation = "spline" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			_, err := NewConverter(cfg)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrTypeConfig))
		})
	}

	cfg := DefaultConfig()
	cfg.Interpolation = ""
	c, err := NewConverter(cfg)
	require.NoError(t, err)
	assert.Equal(t, InterpolationLinear, c.Config().Interpolation)
}

func TestHubbleDistance(t *testing.T) {
	assert.InDelta(t, 4425.6, Planck15().HubbleDistance(), 0.1)
}

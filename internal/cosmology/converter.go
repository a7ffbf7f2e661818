// Package cosmology converts luminosity distances to redshifts and detector-frame
// quantities to the source frame under a flat ΛCDM model.
//
// Redshift has no closed form in terms of luminosity distance, so a Converter
// tabulates D_L(z) once on a dense exponential redshift grid and inverts it with
// a monotone interpolant. A Converter is immutable after construction and safe
// for concurrent use.
package cosmology

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/interp"

	"gwcatalog/internal/errors"
)

// SpeedOfLight in km/s.
const SpeedOfLight = 299792.458

// Interpolation methods for the distance to redshift lookup.
const (
	InterpolationLinear         = "linear"
	InterpolationFritschButland = "fritsch-butland"
)

const (
	DefaultZMax       = 10.0
	DefaultGridPoints = 10000
	MinGridPoints     = 1000

	// quadratureNodes is the Gauss-Legendre order used per grid interval.
	quadratureNodes = 8
)

// Model is a flat ΛCDM cosmology. Radiation is neglected.
type Model struct {
	H0  float64 // Hubble constant, km/s/Mpc
	Om0 float64 // matter density today
}

// Planck15 returns the Planck 2015 parameters used by the catalog.
func Planck15() Model {
	return Model{H0: 67.74, Om0: 0.3075}
}

// HubbleDistance returns c/H0 in Mpc.
func (m Model) HubbleDistance() float64 {
	return SpeedOfLight / m.H0
}

// inverseE is 1/E(z) with E(z) = sqrt(Om (1+z)^3 + 1 - Om).
func (m Model) inverseE(z float64) float64 {
	zp1 := 1 + z
	return 1 / math.Sqrt(m.Om0*zp1*zp1*zp1+1-m.Om0)
}

// Config pins everything that affects redshift precision.
type Config struct {
	Model         Model
	ZMax          float64
	GridPoints    int
	Interpolation string
}

// DefaultConfig returns Planck15 on a 10000-point grid up to z=10 with linear interpolation.
func DefaultConfig() Config {
	return Config{
		Model:         Planck15(),
		ZMax:          DefaultZMax,
		GridPoints:    DefaultGridPoints,
		Interpolation: InterpolationLinear,
	}
}

// Validate checks the configuration before a grid is built.
func (c Config) Validate() error {
	switch {
	case !(c.Model.H0 > 0):
		return errors.NewConfigError(fmt.Sprintf("H0 must be positive, got %g", c.Model.H0), nil)
	case !(c.Model.Om0 > 0 && c.Model.Om0 <= 1):
		return errors.NewConfigError(fmt.Sprintf("Om0 must lie in (0,1], got %g", c.Model.Om0), nil)
	case !(c.ZMax > 0) || math.IsInf(c.ZMax, 0):
		return errors.NewConfigError(fmt.Sprintf("zmax must be positive and finite, got %g", c.ZMax), nil)
	case c.GridPoints < MinGridPoints:
		return errors.NewConfigError(fmt.Sprintf("grid needs at least %d points, got %d", MinGridPoints, c.GridPoints), nil)
	}
	if _, err := newInterpolant(c.Interpolation); err != nil {
		return err
	}
	return nil
}

// Converter maps luminosity distance to redshift through a precomputed grid.
type Converter struct {
	config      Config
	redshifts   []float64
	comoving    []float64 // line-of-sight comoving distance, Mpc
	distances   []float64 // luminosity distance, Mpc
	interpolant interp.Predictor
}

// NewConverter tabulates the model on the configured grid and fits the inverse.
func NewConverter(cfg Config) (*Converter, error) {
	if cfg.Interpolation == "" {
		cfg.Interpolation = InterpolationLinear
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	n := cfg.GridPoints
	step := math.Log1p(cfg.ZMax) / float64(n-1)

	c := &Converter{
		config:    cfg,
		redshifts: make([]float64, n),
		comoving:  make([]float64, n),
		distances: make([]float64, n),
	}
	dh := cfg.Model.HubbleDistance()
	for i := 1; i < n; i++ {
		z := math.Expm1(float64(i) * step)
		if i == n-1 {
			z = cfg.ZMax
		}
		c.redshifts[i] = z
		c.comoving[i] = c.comoving[i-1] + dh*quad.Fixed(cfg.Model.inverseE, c.redshifts[i-1], z, quadratureNodes, quad.Legendre{}, 0)
		c.distances[i] = (1 + z) * c.comoving[i]
	}

	fitter, err := newInterpolant(cfg.Interpolation)
	if err != nil {
		return nil, err
	}
	if err := fitter.Fit(c.distances, c.redshifts); err != nil {
		return nil, errors.NewConfigError("fit distance to redshift interpolant", err)
	}
	c.interpolant = fitter

	return c, nil
}

func newInterpolant(method string) (interp.FittablePredictor, error) {
	switch strings.ToLower(method) {
	case InterpolationLinear:
		return &interp.PiecewiseLinear{}, nil
	case InterpolationFritschButland:
		return &interp.FritschButland{}, nil
	default:
		return nil, errors.NewConfigError(fmt.Sprintf("unsupported interpolation %q", method), nil)
	}
}

// Config returns the configuration the converter was built with.
func (c *Converter) Config() Config {
	return c.config
}

// MaxDistance returns the largest tabulated luminosity distance in Mpc.
func (c *Converter) MaxDistance() float64 {
	return c.distances[len(c.distances)-1]
}

// DistanceToRedshift interpolates the redshift of a luminosity distance in Mpc.
// Distances outside [0, MaxDistance] are a domain error.
func (c *Converter) DistanceToRedshift(distance float64) (float64, error) {
	if math.IsNaN(distance) || distance < 0 || distance > c.MaxDistance() {
		return 0, errors.NewDomainError("luminosity_distance", distance,
			fmt.Sprintf("outside tabulated range [0, %.6g] Mpc", c.MaxDistance()))
	}
	if distance == 0 {
		return 0, nil
	}
	return c.interpolant.Predict(distance), nil
}

// RedshiftToDistance evaluates the model luminosity distance in Mpc at z,
// reusing the tabulated comoving distance below z.
func (c *Converter) RedshiftToDistance(z float64) (float64, error) {
	if math.IsNaN(z) || z < 0 || z > c.config.ZMax {
		return 0, errors.NewDomainError("redshift", z,
			fmt.Sprintf("outside tabulated range [0, %g]", c.config.ZMax))
	}
	i := sort.SearchFloat64s(c.redshifts, z)
	if i < len(c.redshifts) && c.redshifts[i] == z {
		return c.distances[i], nil
	}
	lo := i - 1
	dc := c.comoving[lo] + c.config.Model.HubbleDistance()*
		quad.Fixed(c.config.Model.inverseE, c.redshifts[lo], z, quadratureNodes, quad.Legendre{}, 0)
	return (1 + z) * dc, nil
}

// ToSourceFrame converts a detector-frame mass-like value at redshift z.
func ToSourceFrame(value, z float64) float64 {
	return value / (1 + z)
}

package dataprocessing

import (
	"fmt"

	"gwcatalog/internal/errors"
	"gwcatalog/pkg/contracts/domain"
)

// Canonical parameter names shared by every producer.
const (
	ParamMass1              = "mass_1"
	ParamMass2              = "mass_2"
	ParamChirpMass          = "chirp_mass"
	ParamMassRatio          = "mass_ratio"
	ParamTotalMass          = "total_mass"
	ParamLuminosityDistance = "luminosity_distance"
	ParamRA                 = "ra"
	ParamDec                = "dec"
	ParamChiEff             = "chi_eff"
	ParamChiP               = "chi_p"
	ParamGPS                = domain.KeyGPS
	ParamCosThetaJN         = "cos_theta_jn"
	ParamIota               = "iota"
	ParamPsi                = "psi"
	ParamPhase              = "phase"
	ParamA1                 = "a_1"
	ParamA2                 = "a_2"
	ParamCosTilt1           = "cos_tilt_1"
	ParamCosTilt2           = "cos_tilt_2"
	ParamRedshift           = "redshift"
)

// SourceFrameParameters are the mass-like parameters converted to the source frame.
var SourceFrameParameters = []string{ParamMass1, ParamMass2, ParamChirpMass, ParamTotalMass}

// Deriver maps one producer's raw columns onto the canonical parameter set.
// Derive never mutates raw.
type Deriver interface {
	Producer() domain.Producer
	// RequiredColumns lists the raw columns Derive cannot work without.
	RequiredColumns() []string
	// CanonicalParameters lists the canonical columns every output must carry.
	CanonicalParameters() []string
	Derive(raw *SampleTable) (*SampleTable, error)
}

// DeriverFor returns the deriver registered for producer.
func DeriverFor(producer domain.Producer) (Deriver, error) {
	switch producer {
	case domain.ProducerLVC:
		return LVCDeriver{}, nil
	case domain.ProducerPyCBC:
		return PyCBCDeriver{}, nil
	case domain.ProducerIAS:
		return IASDeriver{}, nil
	default:
		return nil, errors.NewNotFoundError(fmt.Sprintf("deriver for producer %q", producer))
	}
}

// massParameters are supplied by every producer.
var massParameters = []string{
	ParamMass1, ParamMass2, ParamChirpMass, ParamMassRatio, ParamTotalMass,
	ParamLuminosityDistance, ParamRA, ParamDec,
}

// canonicalBuilder accumulates derived columns, keeping the first error.
type canonicalBuilder struct {
	table *SampleTable
	err   error
}

func newCanonicalBuilder() *canonicalBuilder {
	return &canonicalBuilder{table: NewSampleTable()}
}

func (b *canonicalBuilder) add(name string, values []float64) {
	if b.err != nil {
		return
	}
	if err := b.table.AddColumn(name, values); err != nil {
		b.err = fmt.Errorf("add canonical column %s: %w", name, err)
	}
}

func (b *canonicalBuilder) build() (*SampleTable, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.table, nil
}

// optionalGroup returns the named raw columns when all are present and
// ok=false when none are. A partially present group is an error naming the
// first missing column.
func optionalGroup(raw *SampleTable, names ...string) ([][]float64, bool, error) {
	present := 0
	for _, name := range names {
		if raw.Has(name) {
			present++
		}
	}
	if present == 0 {
		return nil, false, nil
	}
	cols, err := raw.MustColumns(names...)
	if err != nil {
		return nil, false, err
	}
	return cols, true, nil
}

// componentMassColumns orders each draw so m1 >= m2 and derives q, total and
// chirp mass. swapped[i] records rows whose bodies were exchanged.
type componentMassColumns struct {
	mass1, mass2, ratio, total, chirp []float64
	swapped                           []bool
}

func deriveFromComponents(m1, m2 []float64) componentMassColumns {
	n := len(m1)
	out := componentMassColumns{
		mass1:   make([]float64, n),
		mass2:   make([]float64, n),
		ratio:   make([]float64, n),
		total:   make([]float64, n),
		chirp:   make([]float64, n),
		swapped: make([]bool, n),
	}
	for i := range m1 {
		a, b, swapped := orderedPair(m1[i], m2[i])
		out.mass1[i] = a
		out.mass2[i] = b
		out.swapped[i] = swapped
		out.ratio[i] = MassRatio(a, b)
		out.total[i] = a + b
		out.chirp[i] = ChirpMass(a, b)
	}
	return out
}

// reorder applies the row swaps recorded in swapped to a pair of per-body columns.
func reorder(first, second []float64, swapped []bool) ([]float64, []float64) {
	a := make([]float64, len(first))
	b := make([]float64, len(second))
	for i := range first {
		if swapped[i] {
			a[i], b[i] = second[i], first[i]
		} else {
			a[i], b[i] = first[i], second[i]
		}
	}
	return a, b
}

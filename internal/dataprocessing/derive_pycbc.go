package dataprocessing

import (
	"gwcatalog/pkg/contracts/domain"
)

// Raw column names of the PyCBC 2-OGC posterior samples.
const (
	pycbcMass1        = "mass1"
	pycbcMass2        = "mass2"
	pycbcDistance     = "distance"
	pycbcRA           = "ra"
	pycbcDec          = "dec"
	pycbcMergerTime   = "tc"
	pycbcChiEff       = "chi_eff"
	pycbcChiP         = "chi_p"
	pycbcInclination  = "inclination"
	pycbcPolarization = "polarization"
	pycbcSpin1        = "spin1_a"
	pycbcSpin2        = "spin2_a"
)

// PyCBCDeriver maps PyCBC samples onto the canonical set. Effective spin is
// supplied directly; mass ratio, total and chirp mass are derived.
type PyCBCDeriver struct{}

// Producer implements Deriver.
func (PyCBCDeriver) Producer() domain.Producer { return domain.ProducerPyCBC }

// RequiredColumns implements Deriver.
func (PyCBCDeriver) RequiredColumns() []string {
	return []string{pycbcMass1, pycbcMass2, pycbcDistance, pycbcRA, pycbcDec, pycbcMergerTime, pycbcChiEff}
}

// CanonicalParameters implements Deriver.
func (PyCBCDeriver) CanonicalParameters() []string {
	return append(append([]string(nil), massParameters...), ParamChiEff)
}

// Derive implements Deriver.
func (d PyCBCDeriver) Derive(raw *SampleTable) (*SampleTable, error) {
	cols, err := raw.MustColumns(d.RequiredColumns()...)
	if err != nil {
		return nil, err
	}
	m1, m2, distance, ra, dec, tc, chiEff := cols[0], cols[1], cols[2], cols[3], cols[4], cols[5], cols[6]

	masses := deriveFromComponents(m1, m2)

	b := newCanonicalBuilder()
	b.add(ParamMass1, masses.mass1)
	b.add(ParamMass2, masses.mass2)
	b.add(ParamMassRatio, masses.ratio)
	b.add(ParamTotalMass, masses.total)
	b.add(ParamChirpMass, masses.chirp)
	b.add(ParamLuminosityDistance, distance)
	b.add(ParamRA, ra)
	b.add(ParamDec, dec)
	b.add(ParamGPS, tc)
	b.add(ParamChiEff, chiEff)

	for _, rename := range []struct{ raw, canonical string }{
		{pycbcChiP, ParamChiP},
		{pycbcInclination, ParamIota},
		{pycbcPolarization, ParamPsi},
	} {
		if values, ok := raw.Column(rename.raw); ok {
			b.add(rename.canonical, values)
		}
	}

	spins, ok, err := optionalGroup(raw, pycbcSpin1, pycbcSpin2)
	if err != nil {
		return nil, err
	}
	if ok {
		a1, a2 := reorder(spins[0], spins[1], masses.swapped)
		b.add(ParamA1, a1)
		b.add(ParamA2, a2)
	}

	return b.build()
}

package dataprocessing

import (
	"gwcatalog/pkg/contracts/domain"
)

// Raw column names of the LVC GWTC-2 overall posterior.
const (
	lvcDistance   = "luminosity_distance_Mpc"
	lvcMass1      = "m1_detector_frame_Msun"
	lvcMass2      = "m2_detector_frame_Msun"
	lvcRA         = "right_ascension"
	lvcDec        = "declination"
	lvcCosThetaJN = "costheta_jn"
	lvcSpin1      = "spin1"
	lvcCosTilt1   = "costilt1"
	lvcSpin2      = "spin2"
	lvcCosTilt2   = "costilt2"
)

// LVCDeriver maps LVC detector-frame component masses onto the canonical set.
// The release carries no mass ratio, chirp mass or total mass, so all three
// are derived from the component masses.
type LVCDeriver struct{}

// Producer implements Deriver.
func (LVCDeriver) Producer() domain.Producer { return domain.ProducerLVC }

// RequiredColumns implements Deriver.
func (LVCDeriver) RequiredColumns() []string {
	return []string{lvcDistance, lvcMass1, lvcMass2, lvcRA, lvcDec}
}

// CanonicalParameters implements Deriver.
func (LVCDeriver) CanonicalParameters() []string {
	return append([]string(nil), massParameters...)
}

// Derive implements Deriver.
func (d LVCDeriver) Derive(raw *SampleTable) (*SampleTable, error) {
	cols, err := raw.MustColumns(d.RequiredColumns()...)
	if err != nil {
		return nil, err
	}
	distance, m1, m2, ra, dec := cols[0], cols[1], cols[2], cols[3], cols[4]

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

	if inclination, ok := raw.Column(lvcCosThetaJN); ok {
		b.add(ParamCosThetaJN, inclination)
	}

	spins, ok, err := optionalGroup(raw, lvcSpin1, lvcCosTilt1, lvcSpin2, lvcCosTilt2)
	if err != nil {
		return nil, err
	}
	if ok {
		a1, a2 := reorder(spins[0], spins[2], masses.swapped)
		tilt1, tilt2 := reorder(spins[1], spins[3], masses.swapped)

		chiEff := make([]float64, len(a1))
		for i := range a1 {
			chiEff[i] = EffectiveSpin(a1[i]*tilt1[i], a2[i]*tilt2[i], masses.ratio[i])
		}
		b.add(ParamA1, a1)
		b.add(ParamA2, a2)
		b.add(ParamCosTilt1, tilt1)
		b.add(ParamCosTilt2, tilt2)
		b.add(ParamChiEff, chiEff)
	}

	return b.build()
}

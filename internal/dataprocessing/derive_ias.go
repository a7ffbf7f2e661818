package dataprocessing

import (
	"gwcatalog/pkg/contracts/domain"
)

// Raw column names of the IAS O2 samples, in file order.
const (
	iasChirpMass    = "mchirp"
	iasMassRatio    = "eta"
	iasSpin1z       = "s1z"
	iasSpin2z       = "s2z"
	iasRA           = "RA"
	iasDec          = "DEC"
	iasPolarization = "psi"
	iasInclination  = "iota"
	iasPhase        = "vphi"
	iasArrivalTime  = "tc"
	iasDistance     = "DL"
)

// IASColumns is the positional column layout of IAS sample arrays.
var IASColumns = []string{
	iasChirpMass, iasMassRatio, iasSpin1z, iasSpin2z, iasRA, iasDec,
	iasPolarization, iasInclination, iasPhase, iasArrivalTime, iasDistance,
}

// IASDeriver maps IAS chirp mass and mass ratio samples onto the canonical
// set. Despite its name the "eta" column holds q = m2/m1, not the symmetric
// mass ratio. The "tc" column is an arrival time with an arbitrary offset and
// is not carried over.
type IASDeriver struct{}

// Producer implements Deriver.
func (IASDeriver) Producer() domain.Producer { return domain.ProducerIAS }

// RequiredColumns implements Deriver.
func (IASDeriver) RequiredColumns() []string {
	return []string{iasChirpMass, iasMassRatio, iasSpin1z, iasSpin2z, iasRA, iasDec, iasDistance}
}

// CanonicalParameters implements Deriver.
func (IASDeriver) CanonicalParameters() []string {
	return append(append([]string(nil), massParameters...), ParamChiEff)
}

// Derive implements Deriver.
func (d IASDeriver) Derive(raw *SampleTable) (*SampleTable, error) {
	cols, err := raw.MustColumns(d.RequiredColumns()...)
	if err != nil {
		return nil, err
	}
	chirp, rawRatio, s1z, s2z, ra, dec, distance :=
		cols[0], cols[1], cols[2], cols[3], cols[4], cols[5], cols[6]

	n := raw.Len()
	ratio := make([]float64, n)
	swapped := make([]bool, n)
	total := make([]float64, n)
	mass1 := make([]float64, n)
	mass2 := make([]float64, n)
	for i := 0; i < n; i++ {
		q := rawRatio[i]
		if q > 1 {
			q = 1 / q
			swapped[i] = true
		}
		ratio[i] = q
		total[i] = TotalMassFromChirpMassAndRatio(chirp[i], q)
		mass1[i], mass2[i] = ComponentMasses(total[i], q)
	}

	spin1, spin2 := reorder(s1z, s2z, swapped)
	chiEff := make([]float64, n)
	for i := 0; i < n; i++ {
		chiEff[i] = EffectiveSpin(spin1[i], spin2[i], ratio[i])
	}

	b := newCanonicalBuilder()
	b.add(ParamChirpMass, chirp)
	b.add(ParamMassRatio, ratio)
	b.add(ParamTotalMass, total)
	b.add(ParamMass1, mass1)
	b.add(ParamMass2, mass2)
	b.add(ParamChiEff, chiEff)
	b.add(ParamLuminosityDistance, distance)
	b.add(ParamRA, ra)
	b.add(ParamDec, dec)

	for _, rename := range []struct{ raw, canonical string }{
		{iasPolarization, ParamPsi},
		{iasInclination, ParamIota},
		{iasPhase, ParamPhase},
	} {
		if values, ok := raw.Column(rename.raw); ok {
			b.add(rename.canonical, values)
		}
	}

	return b.build()
}

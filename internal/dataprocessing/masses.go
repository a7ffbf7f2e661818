package dataprocessing

import (
	"math"
)

// Binary mass relations. All functions follow the m1 >= m2, q = m2/m1 <= 1
// convention and operate on a single posterior draw.

// ChirpMass returns (m1 m2)^(3/5) / (m1 + m2)^(1/5).
func ChirpMass(m1, m2 float64) float64 {
	return math.Pow(m1*m2, 3.0/5.0) / math.Pow(m1+m2, 1.0/5.0)
}

// MassRatio returns m2/m1.
func MassRatio(m1, m2 float64) float64 {
	return m2 / m1
}

// TotalMassFromChirpMassAndRatio inverts the chirp mass definition for a given q.
func TotalMassFromChirpMassAndRatio(chirpMass, q float64) float64 {
	return chirpMass * math.Pow(1+q, 6.0/5.0) / math.Pow(q, 3.0/5.0)
}

// ComponentMasses splits a total mass by mass ratio into (m1, m2).
func ComponentMasses(totalMass, q float64) (float64, float64) {
	m1 := totalMass / (1 + q)
	return m1, q * m1
}

// EffectiveSpin returns the mass-weighted aligned spin (s1z + q s2z) / (1 + q).
func EffectiveSpin(s1z, s2z, q float64) float64 {
	return (s1z + s2z*q) / (1 + q)
}

// orderedPair returns (a, b, swapped) with a >= b.
func orderedPair(a, b float64) (float64, float64, bool) {
	if b > a {
		return b, a, true
	}
	return a, b, false
}

// SPDX-License-Identifier: MIT
package analysis

import "math"

// BandEnergy is the normalized energy of one named frequency band,
// clamped to [0, 1] for direct use by visualization consumers.
type BandEnergy struct {
	Name   string  `json:"name"`
	LowHz  float64 `json:"low_hz"`
	HighHz float64 `json:"high_hz"`
	Value  float64 `json:"value"`
}

// bandEnergyScale maps typical music magnitudes into a usable [0, 1] range
// before clamping. Chosen empirically for full-scale material.
const bandEnergyScale = 50.0

// BandMapper folds a magnitude spectrum into a fixed set of named bands
// from sub bass to treble. Bin ranges are resolved once at construction
// from the sample rate and frame size.
type BandMapper struct {
	bands []BandEnergy
	lo    []int // first bin of each band, inclusive
	hi    []int // last bin of each band, exclusive
}

// NewBandMapper creates a mapper for spectra of fftSize/2 bins at the given
// sample rate. The treble band extends to Nyquist.
func NewBandMapper(sampleRate float64, fftSize int) *BandMapper {
	nyquist := sampleRate / 2
	bands := []BandEnergy{
		{Name: "sub", LowHz: 20, HighHz: 60},
		{Name: "bass", LowHz: 60, HighHz: 250},
		{Name: "lowMid", LowHz: 250, HighHz: 500},
		{Name: "mid", LowHz: 500, HighHz: 2000},
		{Name: "highMid", LowHz: 2000, HighHz: 4000},
		{Name: "treble", LowHz: 4000, HighHz: nyquist},
	}

	binWidth := sampleRate / float64(fftSize)
	maxBin := fftSize / 2
	m := &BandMapper{
		bands: bands,
		lo:    make([]int, len(bands)),
		hi:    make([]int, len(bands)),
	}
	for i, band := range bands {
		lo := int(band.LowHz / binWidth)
		hi := int(band.HighHz / binWidth)
		if lo < 0 {
			lo = 0
		}
		if hi <= lo {
			hi = lo + 1
		}
		if hi > maxBin {
			hi = maxBin
		}
		m.lo[i], m.hi[i] = lo, hi
	}
	return m
}

// Map computes the band energies for a magnitude spectrum. Each band's
// value is the square root of its mean bin energy, scaled and clamped to
// [0, 1]. The returned slice is freshly allocated.
func (m *BandMapper) Map(magnitude []float64) []BandEnergy {
	out := make([]BandEnergy, len(m.bands))
	copy(out, m.bands)
	for i := range m.bands {
		lo, hi := m.lo[i], m.hi[i]
		if lo >= len(magnitude) {
			continue
		}
		if hi > len(magnitude) {
			hi = len(magnitude)
		}
		var energy float64
		for bin := lo; bin < hi; bin++ {
			energy += magnitude[bin] * magnitude[bin]
		}
		if n := hi - lo; n > 0 {
			energy /= float64(n)
		}
		out[i].Value = math.Min(1.0, math.Sqrt(energy)*bandEnergyScale)
	}
	return out
}

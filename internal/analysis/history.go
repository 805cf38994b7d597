// SPDX-License-Identifier: MIT
package analysis

import "gonum.org/v1/gonum/floats"

// History is the bounded circular store of recent snapshots used for
// temporal smoothing. Record overwrites the oldest slot; Average takes the
// elementwise mean over all slots.
//
// Slots start zero-filled and the mean always divides by the full depth, so
// early averages are biased toward zero until depth snapshots have been
// recorded. That ramp-up is the intended visual behavior, not a defect.
//
// History is owned by the analysis loop and is not synchronized.
type History struct {
	depth int
	bins  int
	mag   [][]float64
	pow   [][]float64
	pos   int
}

// NewHistory creates a history of depth slots holding bins values each.
func NewHistory(depth, bins int) *History {
	h := &History{
		depth: depth,
		bins:  bins,
		mag:   make([][]float64, depth),
		pow:   make([][]float64, depth),
	}
	for i := 0; i < depth; i++ {
		h.mag[i] = make([]float64, bins)
		h.pow[i] = make([]float64, bins)
	}
	return h
}

// Record copies the snapshot's spectra into the current slot and advances
// the rotation index. Rows shorter than the slot are ignored.
func (h *History) Record(s Snapshot) {
	if len(s.Magnitude) != h.bins || len(s.Power) != h.bins {
		return
	}
	copy(h.mag[h.pos], s.Magnitude)
	copy(h.pow[h.pos], s.Power)
	h.pos = (h.pos + 1) % h.depth
}

// Average returns the elementwise mean of the magnitude and power rows
// across all slots. The returned slices are freshly allocated and safe to
// hand off to subscribers.
func (h *History) Average() (magnitude, power []float64) {
	magnitude = make([]float64, h.bins)
	power = make([]float64, h.bins)
	for i := 0; i < h.depth; i++ {
		floats.Add(magnitude, h.mag[i])
		floats.Add(power, h.pow[i])
	}
	inv := 1.0 / float64(h.depth)
	floats.Scale(inv, magnitude)
	floats.Scale(inv, power)
	return magnitude, power
}

// Depth returns the number of slots.
func (h *History) Depth() int {
	return h.depth
}

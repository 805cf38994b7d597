// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/stat"

	"spectra/pkg/utils"
)

func constantSnapshot(bins int, value float64) Snapshot {
	mag := make([]float64, bins)
	pow := make([]float64, bins)
	for i := range mag {
		mag[i] = value
		pow[i] = value
	}
	return Snapshot{Magnitude: mag, Power: pow}
}

func TestHistoryColdStartBias(t *testing.T) {
	const depth, bins = 20, 16
	h := NewHistory(depth, bins)

	// A single recorded snapshot averages against depth-1 zero slots.
	h.Record(constantSnapshot(bins, 1.0))
	mag, _ := h.Average()
	want := 1.0 / float64(depth)
	for i, v := range mag {
		if math.Abs(v-want) > 1e-12 {
			t.Fatalf("bin %d = %f, want %f (cold-start bias toward zero)", i, v, want)
		}
	}
}

func TestHistoryAverageAfterFill(t *testing.T) {
	const depth, bins = 4, 8
	h := NewHistory(depth, bins)

	for i := 0; i < depth; i++ {
		h.Record(constantSnapshot(bins, float64(i+1))) // 1, 2, 3, 4
	}
	mag, pow := h.Average()
	for i := range mag {
		if math.Abs(mag[i]-2.5) > 1e-12 {
			t.Fatalf("magnitude bin %d = %f, want 2.5", i, mag[i])
		}
		if math.Abs(pow[i]-2.5) > 1e-12 {
			t.Fatalf("power bin %d = %f, want 2.5", i, pow[i])
		}
	}
}

func TestHistoryRotationOverwritesOldest(t *testing.T) {
	const depth, bins = 3, 4
	h := NewHistory(depth, bins)

	h.Record(constantSnapshot(bins, 10)) // will be overwritten
	h.Record(constantSnapshot(bins, 1))
	h.Record(constantSnapshot(bins, 1))
	h.Record(constantSnapshot(bins, 1)) // overwrites the 10

	mag, _ := h.Average()
	for i, v := range mag {
		if math.Abs(v-1.0) > 1e-12 {
			t.Fatalf("bin %d = %f, want 1.0 after the oldest slot was replaced", i, v)
		}
	}
}

func TestHistoryIgnoresWrongShape(t *testing.T) {
	h := NewHistory(2, 8)
	h.Record(constantSnapshot(4, 5)) // wrong bin count, must be ignored

	mag, _ := h.Average()
	for i, v := range mag {
		if v != 0 {
			t.Fatalf("bin %d = %f after rejected snapshot, want 0", i, v)
		}
	}
}

// Smoothing must reduce flicker: across many white-noise frames, the
// variance of any bin of the smoothed average is strictly lower than the
// variance of the same bin in the raw per-frame snapshots.
func TestHistorySmoothingReducesVariance(t *testing.T) {
	const size = 512
	const rate = 44100.0
	const depth = 20
	const cycles = 200

	tr, err := NewTransform(size, rate, Hann)
	if err != nil {
		t.Fatal(err)
	}
	h := NewHistory(depth, tr.Bins())

	bin := 37
	raw := make([]float64, 0, cycles)
	smoothed := make([]float64, 0, cycles)

	for i := 0; i < cycles; i++ {
		frame := utils.WhiteNoise(size, 0.8, uint64(i+1))
		snap, err := tr.Compute(frame)
		if err != nil {
			t.Fatal(err)
		}
		h.Record(snap)
		mag, _ := h.Average()
		raw = append(raw, snap.Magnitude[bin])
		smoothed = append(smoothed, mag[bin])
	}

	// Discard the cold-start ramp before comparing.
	rawVar := stat.Variance(raw[depth:], nil)
	smoothedVar := stat.Variance(smoothed[depth:], nil)
	if smoothedVar >= rawVar {
		t.Errorf("smoothed variance %g not below raw variance %g", smoothedVar, rawVar)
	}
}

func TestHistoryAverageIndependentOfInternalState(t *testing.T) {
	h := NewHistory(2, 4)
	h.Record(constantSnapshot(4, 1))

	mag, _ := h.Average()
	mag[0] = 99 // caller mutation must not leak back

	again, _ := h.Average()
	if again[0] == 99 {
		t.Error("Average returned a live reference to internal state")
	}
}

func BenchmarkHistoryRecordAverage(b *testing.B) {
	h := NewHistory(20, 1024)
	snap := constantSnapshot(1024, 0.5)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		h.Record(snap)
		_, _ = h.Average()
	}
}

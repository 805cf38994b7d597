// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"testing"

	"spectra/pkg/utils"
)

const (
	testFFTSize    = 2048
	testSampleRate = 44100.0
)

func newTestTransform(t *testing.T) *Transform {
	t.Helper()
	tr, err := NewTransform(testFFTSize, testSampleRate, Hann)
	if err != nil {
		t.Fatalf("NewTransform: %v", err)
	}
	return tr
}

func TestNewTransformValidation(t *testing.T) {
	tests := []struct {
		name       string
		size       int
		sampleRate float64
		wantErr    bool
	}{
		{"Valid", 2048, 44100, false},
		{"SmallPowerOfTwo", 256, 8000, false},
		{"NonPowerOfTwo", 1000, 44100, true},
		{"ZeroSize", 0, 44100, true},
		{"ZeroRate", 2048, 0, true},
		{"NegativeRate", 2048, -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTransform(tt.size, tt.sampleRate, Hann)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewTransform(%d, %f) error = %v, wantErr %v", tt.size, tt.sampleRate, err, tt.wantErr)
			}
		})
	}
}

func TestComputeSineDominantBin(t *testing.T) {
	tr := newTestTransform(t)

	// The dominant bin for f0 must land at round(f0*F/R) within one bin
	// of spectral leakage.
	frequencies := []float64{440, 1000, 5000, 10000}
	for _, f0 := range frequencies {
		frame := utils.Sine(testFFTSize, testSampleRate, f0, 1.0)
		snap, err := tr.Compute(frame)
		if err != nil {
			t.Fatalf("Compute: %v", err)
		}

		want := int(math.Round(f0 * testFFTSize / testSampleRate))
		got := utils.FindPeakBin(snap.Magnitude, 1, len(snap.Magnitude)-1)
		if got < want-1 || got > want+1 {
			t.Errorf("f0=%.0f Hz: dominant bin %d, want %d±1", f0, got, want)
		}
	}
}

func TestComputeSilenceFloor(t *testing.T) {
	tr := newTestTransform(t)

	snap, err := tr.Compute(make([]float64, testFFTSize))
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	// 20*log10(epsilon) with epsilon = 1e-12.
	floor := 20 * math.Log10(powerFloorEpsilon)
	for i, p := range snap.Power {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			t.Fatalf("power bin %d is %f for silence", i, p)
		}
		if math.Abs(p-floor) > 1e-9 {
			t.Fatalf("power bin %d = %f, want floor %f", i, p, floor)
		}
	}
	if snap.RMS != 0 {
		t.Errorf("RMS = %f for silence, want 0", snap.RMS)
	}
	if snap.Peak != 0 {
		t.Errorf("Peak = %f for silence, want 0", snap.Peak)
	}
}

func TestComputeSnapshotShape(t *testing.T) {
	tr := newTestTransform(t)
	snap, err := tr.Compute(utils.ComplexWave(testFFTSize, testSampleRate))
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	if len(snap.Magnitude) != testFFTSize/2 {
		t.Errorf("magnitude length %d, want %d", len(snap.Magnitude), testFFTSize/2)
	}
	if len(snap.Power) != testFFTSize/2 {
		t.Errorf("power length %d, want %d", len(snap.Power), testFFTSize/2)
	}
	if snap.Peak <= 0 {
		t.Error("peak should be positive for a non-silent frame")
	}
	if snap.RMS <= 0 || snap.RMS > snap.Peak {
		t.Errorf("RMS %f should be positive and not exceed peak %f", snap.RMS, snap.Peak)
	}
}

func TestComputeMalformedFrame(t *testing.T) {
	tr := newTestTransform(t)

	for _, n := range []int{0, 1, testFFTSize - 1, testFFTSize + 1} {
		if _, err := tr.Compute(make([]float64, n)); err == nil {
			t.Errorf("Compute accepted a frame of %d samples", n)
		}
	}
}

func TestComputeDeterministic(t *testing.T) {
	tr := newTestTransform(t)
	frame := utils.ComplexWave(testFFTSize, testSampleRate)

	a, err := tr.Compute(frame)
	if err != nil {
		t.Fatal(err)
	}
	b, err := tr.Compute(frame)
	if err != nil {
		t.Fatal(err)
	}

	for i := range a.Magnitude {
		if a.Magnitude[i] != b.Magnitude[i] {
			t.Fatalf("magnitude bin %d differs between identical computes", i)
		}
	}
	if a.RMS != b.RMS || a.Peak != b.Peak {
		t.Error("RMS/peak differ between identical computes")
	}
}

func TestComputeSnapshotsIndependent(t *testing.T) {
	tr := newTestTransform(t)

	a, _ := tr.Compute(utils.Sine(testFFTSize, testSampleRate, 440, 1.0))
	saved := a.Magnitude[20]
	_, _ = tr.Compute(utils.Sine(testFFTSize, testSampleRate, 10000, 1.0))

	if a.Magnitude[20] != saved {
		t.Error("earlier snapshot was mutated by a later Compute")
	}
}

func TestBinFrequency(t *testing.T) {
	tr := newTestTransform(t)

	binWidth := testSampleRate / testFFTSize
	tests := []struct {
		bin  int
		want float64
	}{
		{0, 0},
		{1, binWidth},
		{100, 100 * binWidth},
		{-1, 0},
		{testFFTSize / 2, 0}, // out of range
	}
	for _, tt := range tests {
		if got := tr.BinFrequency(tt.bin); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("BinFrequency(%d) = %f, want %f", tt.bin, got, tt.want)
		}
	}
}

func TestParseWindowFunc(t *testing.T) {
	tests := []struct {
		name    string
		want    WindowFunc
		wantErr bool
	}{
		{"hann", Hann, false},
		{"Hanning", Hann, false},
		{"HAMMING", Hamming, false},
		{"blackman", Blackman, false},
		{"nuttall", Nuttall, false},
		{"triangle", Hann, true},
	}
	for _, tt := range tests {
		got, err := ParseWindowFunc(tt.name)
		if got != tt.want || (err != nil) != tt.wantErr {
			t.Errorf("ParseWindowFunc(%q) = (%v, %v), want (%v, err=%v)", tt.name, got, err, tt.want, tt.wantErr)
		}
	}
}

func BenchmarkCompute(b *testing.B) {
	tr, err := NewTransform(testFFTSize, testSampleRate, Hann)
	if err != nil {
		b.Fatal(err)
	}
	frame := utils.ComplexWave(testFFTSize, testSampleRate)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = tr.Compute(frame)
	}
}

// SPDX-License-Identifier: MIT
package analysis

import (
	"testing"

	"spectra/pkg/utils"
)

func TestBandMapperNames(t *testing.T) {
	m := NewBandMapper(44100, 2048)
	bands := m.Map(make([]float64, 1024))

	wantNames := []string{"sub", "bass", "lowMid", "mid", "highMid", "treble"}
	if len(bands) != len(wantNames) {
		t.Fatalf("got %d bands, want %d", len(bands), len(wantNames))
	}
	for i, name := range wantNames {
		if bands[i].Name != name {
			t.Errorf("band %d = %q, want %q", i, bands[i].Name, name)
		}
		if bands[i].Value != 0 {
			t.Errorf("band %q = %f for silence, want 0", name, bands[i].Value)
		}
	}
}

func TestBandMapperLocalizesEnergy(t *testing.T) {
	const size = 2048
	const rate = 44100.0

	tr, err := NewTransform(size, rate, Hann)
	if err != nil {
		t.Fatal(err)
	}
	m := NewBandMapper(rate, size)

	// A 100 Hz tone lands in the bass band (60-250 Hz).
	snap, err := tr.Compute(utils.Sine(size, rate, 100, 1.0))
	if err != nil {
		t.Fatal(err)
	}
	bands := m.Map(snap.Magnitude)

	byName := map[string]float64{}
	for _, b := range bands {
		byName[b.Name] = b.Value
	}
	if byName["bass"] <= byName["mid"] || byName["bass"] <= byName["treble"] {
		t.Errorf("bass %f should dominate mid %f and treble %f for a 100 Hz tone",
			byName["bass"], byName["mid"], byName["treble"])
	}
}

func TestBandMapperClampsToUnity(t *testing.T) {
	m := NewBandMapper(44100, 2048)
	loud := make([]float64, 1024)
	for i := range loud {
		loud[i] = 10.0
	}
	for _, b := range m.Map(loud) {
		if b.Value < 0 || b.Value > 1 {
			t.Errorf("band %q = %f outside [0, 1]", b.Name, b.Value)
		}
	}
}

func TestBandMapperShortSpectrum(t *testing.T) {
	m := NewBandMapper(44100, 2048)
	// A spectrum shorter than the configured bin ranges must not panic.
	bands := m.Map(make([]float64, 10))
	if len(bands) == 0 {
		t.Fatal("expected bands for a short spectrum")
	}
}

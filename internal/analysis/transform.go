// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"
	"math/cmplx"
	"strings"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"

	"spectra/pkg/bitint"
)

// powerFloorEpsilon keeps the dB conversion defined at zero energy:
// 20*log10(0 + epsilon) = -240 dB is the floor value silence settles at.
const powerFloorEpsilon = 1e-12

// WindowFunc selects the analysis window applied before the FFT.
type WindowFunc int

const (
	Hann WindowFunc = iota
	Hamming
	Blackman
	Nuttall
)

// ParseWindowFunc converts a window name (case-insensitive) to a
// WindowFunc. Unknown names return Hann and an error.
func ParseWindowFunc(name string) (WindowFunc, error) {
	switch strings.ToLower(name) {
	case "hann", "hanning":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "blackman":
		return Blackman, nil
	case "nuttall":
		return Nuttall, nil
	default:
		return Hann, fmt.Errorf("unknown window function name: %q", name)
	}
}

// Snapshot is the immediate, unsmoothed output of one transform: the linear
// magnitude spectrum and its dB counterpart over F/2 bins, plus the frame's
// RMS energy and peak magnitude. Snapshots are never mutated after Compute
// returns them.
type Snapshot struct {
	Magnitude []float64
	Power     []float64
	RMS       float64
	Peak      float64
}

// Transform computes spectral snapshots from fixed-size sample frames.
// The window coefficients and FFT plan are built once at construction; the
// windowed-input scratch buffer is reused across calls, so a single
// Transform instance must not be shared between goroutines. Output slices
// are freshly allocated per call so snapshots stay immutable.
//
// Magnitude is |bin|/F, which scales with the window's coherent gain.
// Callers wanting unity gain for a pure tone must divide by the window
// power themselves; the raw scaling is kept because the smoothing history
// and all downstream consumers only compare values to each other.
type Transform struct {
	size       int
	sampleRate float64
	fft        *fourier.FFT
	window     []float64
	scratch    []float64    // windowed input, reused per call
	spectrum   []complex128 // F/2+1 complex bins, reused per call
}

// NewTransform creates a Transform for frames of size samples. Size must be
// a power of two and sampleRate positive.
func NewTransform(size int, sampleRate float64, windowType WindowFunc) (*Transform, error) {
	if !bitint.IsPowerOfTwo(size) {
		return nil, fmt.Errorf("frame size must be a power of 2, got %d", size)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %f", sampleRate)
	}

	coeffs := make([]float64, size)
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	applyWindow(coeffs, windowType)

	return &Transform{
		size:       size,
		sampleRate: sampleRate,
		fft:        fourier.NewFFT(size),
		window:     coeffs,
		scratch:    make([]float64, size),
		spectrum:   make([]complex128, size/2+1),
	}, nil
}

// Compute windows the frame, runs the real FFT and derives the magnitude
// and power spectra plus RMS and peak. The frame must hold exactly the
// configured size; anything else is a malformed frame and returns an error
// without touching internal state.
func (t *Transform) Compute(frame []float64) (Snapshot, error) {
	if len(frame) != t.size {
		return Snapshot{}, fmt.Errorf("malformed frame: got %d samples, want %d", len(frame), t.size)
	}

	for i, s := range frame {
		t.scratch[i] = s * t.window[i]
	}
	t.fft.Coefficients(t.spectrum, t.scratch)

	// The real FFT yields F/2+1 bins; the Nyquist bin is trimmed so the
	// snapshot length matches the smoothing history rows.
	bins := t.size / 2
	magnitude := make([]float64, bins)
	power := make([]float64, bins)

	var sumSquares float64
	var peak float64
	norm := 1.0 / float64(t.size)
	for i := 0; i < bins; i++ {
		m := cmplx.Abs(t.spectrum[i]) * norm
		magnitude[i] = m
		power[i] = 20 * math.Log10(m+powerFloorEpsilon)
		sumSquares += m * m
		if m > peak {
			peak = m
		}
	}

	return Snapshot{
		Magnitude: magnitude,
		Power:     power,
		RMS:       math.Sqrt(sumSquares / float64(bins)),
		Peak:      peak,
	}, nil
}

// Bins returns the number of frequency bins per snapshot (F/2).
func (t *Transform) Bins() int {
	return t.size / 2
}

// Size returns the configured frame size F.
func (t *Transform) Size() int {
	return t.size
}

// SampleRate returns the configured sample rate in Hz.
func (t *Transform) SampleRate() float64 {
	return t.sampleRate
}

// BinFrequency returns the center frequency in Hz for a bin index, or 0 for
// out-of-range indices. Each bin covers sampleRate/F Hz.
func (t *Transform) BinFrequency(bin int) float64 {
	if bin < 0 || bin >= t.size/2 {
		return 0
	}
	return float64(bin) * t.sampleRate / float64(t.size)
}

func applyWindow(coeffs []float64, windowType WindowFunc) {
	switch windowType {
	case Hann:
		window.Hann(coeffs)
	case Hamming:
		window.Hamming(coeffs)
	case Blackman:
		window.Blackman(coeffs)
	case Nuttall:
		window.Nuttall(coeffs)
	default:
		window.Hann(coeffs)
	}
}

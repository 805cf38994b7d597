// Package utils provides signal generators and spectrum helpers shared by
// tests across the project.
package utils

import "math"

// Sine returns n samples of a sine wave at the given frequency and
// amplitude, sampled at sampleRate Hz.
func Sine(n int, sampleRate, frequency, amplitude float64) []float64 {
	buffer := make([]float64, n)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = amplitude * math.Sin(2*math.Pi*frequency*t)
	}
	return buffer
}

// ComplexWave returns n samples of a 440 Hz fundamental plus two harmonics,
// useful when a test needs a broadband but deterministic signal.
func ComplexWave(n int, sampleRate float64) []float64 {
	buffer := make([]float64, n)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = math.Sin(2*math.Pi*440*t)*0.5 +
			math.Sin(2*math.Pi*880*t)*0.3 +
			math.Sin(2*math.Pi*1320*t)*0.2
	}
	return buffer
}

// WhiteNoise returns n samples of deterministic pseudo-random noise in
// [-amplitude, amplitude]. A small xorshift generator keeps test runs
// reproducible for any given seed.
func WhiteNoise(n int, amplitude float64, seed uint64) []float64 {
	if seed == 0 {
		seed = 0x9E3779B97F4A7C15
	}
	buffer := make([]float64, n)
	state := seed
	for i := range buffer {
		state ^= state << 13
		state ^= state >> 7
		state ^= state << 17
		// Map to [-1, 1) before scaling.
		buffer[i] = amplitude * (float64(state>>11)/float64(1<<52) - 1)
	}
	return buffer
}

// FindPeakBin returns the index of the largest value in magnitudes within
// [startBin, endBin]. Out-of-range bounds are clamped.
func FindPeakBin(magnitudes []float64, startBin, endBin int) int {
	if len(magnitudes) == 0 {
		return 0
	}
	if startBin < 0 {
		startBin = 0
	}
	if endBin >= len(magnitudes) {
		endBin = len(magnitudes) - 1
	}

	peakBin := startBin
	peakValue := magnitudes[startBin]
	for bin := startBin + 1; bin <= endBin; bin++ {
		if magnitudes[bin] > peakValue {
			peakValue = magnitudes[bin]
			peakBin = bin
		}
	}
	return peakBin
}

// SPDX-License-Identifier: MIT

// Package bitint provides power-of-two helpers used for FFT and buffer
// sizing. All operations are O(1), allocation-free and safe to call from
// real-time code.
package bitint

import "math/bits"

// NextPowerOfTwo returns the smallest power of 2 >= size.
// The size-1 subtraction keeps exact powers of two unchanged: without it,
// bits.Len64(8) is 4 and the result would incorrectly double to 16.
// Non-positive inputs return 1.
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len64(uint64(size-1))
}

// IsPowerOfTwo reports whether n is a positive power of 2.
// A power of two has exactly one bit set, so n&(n-1) clears it to zero.
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

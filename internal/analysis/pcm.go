// SPDX-License-Identifier: MIT
package analysis

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// SampleFormat identifies the encoding of raw PCM chunks handed to Push.
// All formats are little-endian.
type SampleFormat int

const (
	FormatInt16 SampleFormat = iota
	FormatInt32
	FormatFloat32
)

func (f SampleFormat) String() string {
	switch f {
	case FormatInt16:
		return "int16"
	case FormatInt32:
		return "int32"
	case FormatFloat32:
		return "float32"
	default:
		return "unknown"
	}
}

// BytesPerSample returns the encoded width of one sample, or 0 for an
// unknown format.
func (f SampleFormat) BytesPerSample() int {
	switch f {
	case FormatInt16:
		return 2
	case FormatInt32:
		return 4
	case FormatFloat32:
		return 4
	default:
		return 0
	}
}

// ParseSampleFormat converts a format name (case-insensitive) to a
// SampleFormat. Unknown names return FormatInt16 and an error.
func ParseSampleFormat(name string) (SampleFormat, error) {
	switch strings.ToLower(name) {
	case "int16", "s16le":
		return FormatInt16, nil
	case "int32", "s32le":
		return FormatInt32, nil
	case "float32", "f32le":
		return FormatFloat32, nil
	default:
		return FormatInt16, fmt.Errorf("unknown sample format: %q", name)
	}
}

// Normalization factors for integer PCM. Int16 divides by 32768 so the
// most negative sample maps exactly to -1.
const (
	int16Norm = 1.0 / 32768.0
	int32Norm = 1.0 / 2147483648.0
)

// DecodePCM converts a raw little-endian PCM chunk into normalized mono
// float64 samples appended to dst, averaging interleaved channels down to
// one. The chunk length must be a whole number of sample frames
// (bytesPerSample * channels); trailing partial frames are a malformed
// chunk and rejected whole.
func DecodePCM(dst []float64, chunk []byte, format SampleFormat, channels int) ([]float64, error) {
	if channels <= 0 {
		return dst, fmt.Errorf("channel count must be positive, got %d", channels)
	}
	width := format.BytesPerSample()
	if width == 0 {
		return dst, fmt.Errorf("unknown sample format %d", int(format))
	}
	stride := width * channels
	if len(chunk)%stride != 0 {
		return dst, fmt.Errorf("chunk length %d is not a multiple of the %d-byte sample frame", len(chunk), stride)
	}

	frames := len(chunk) / stride
	invChannels := 1.0 / float64(channels)
	for i := 0; i < frames; i++ {
		var sum float64
		base := i * stride
		for ch := 0; ch < channels; ch++ {
			off := base + ch*width
			switch format {
			case FormatInt16:
				s := int16(binary.LittleEndian.Uint16(chunk[off:]))
				sum += float64(s) * int16Norm
			case FormatInt32:
				s := int32(binary.LittleEndian.Uint32(chunk[off:]))
				sum += float64(s) * int32Norm
			case FormatFloat32:
				sum += float64(math.Float32frombits(binary.LittleEndian.Uint32(chunk[off:])))
			}
		}
		dst = append(dst, sum*invChannels)
	}
	return dst, nil
}

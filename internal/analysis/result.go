// SPDX-License-Identifier: MIT
package analysis

import "time"

// Result is the published output of one analysis cycle: the smoothed
// magnitude and power spectra, the latest frame's RMS and peak, and the
// band energy summary. Results are immutable after publication; the worker
// never touches a Result's slices again once it is handed out.
type Result struct {
	Seq       uint64       `json:"seq"`
	Timestamp time.Time    `json:"timestamp"`
	Magnitude []float64    `json:"magnitude"`
	Power     []float64    `json:"power"`
	RMS       float64      `json:"rms"`
	Peak      float64      `json:"peak"`
	Bands     []BandEnergy `json:"bands"`
}

// Stats reports the worker's recoverable-event counters. All conditions
// counted here are part of normal operation; none of them stops the loop.
type Stats struct {
	Published     uint64 // results delivered to the latest slot
	DroppedChunks uint64 // whole chunks rejected by the ingest buffer
	Underruns     uint64 // cycles skipped for lack of a full frame
	ComputeErrors uint64 // malformed frames rejected by the transform
	DecodeErrors  uint64 // PCM chunks rejected before reaching the buffer
}

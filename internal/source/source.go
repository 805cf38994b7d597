// Package source implements the producers that feed PCM chunks into the
// analysis engine: a paced WAV-file reader standing in for a playback
// pipeline, and a live PortAudio capture stream.
package source

// Sink accepts normalized mono samples. Push must be non-blocking and may
// reject a chunk under backpressure; sources treat a rejected chunk as
// lost and move on. analysis.Worker satisfies this.
type Sink interface {
	PushSamples(samples []float64) bool
}

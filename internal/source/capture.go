// SPDX-License-Identifier: MIT
package source

import (
	"fmt"
	"runtime"

	"github.com/gordonklaus/portaudio"

	applog "spectra/internal/log"
)

// captureNorm maps int32 samples into [-1, 1).
const captureNorm = 1.0 / float64(1<<31)

// CaptureSource delivers live input from a PortAudio device to a Sink.
// The stream callback is the real-time producer: it converts the hardware
// buffer to normalized mono using pre-allocated scratch and hands it to
// the sink's lossy push, so it never blocks and never allocates.
type CaptureSource struct {
	stream   *portaudio.Stream
	sink     Sink
	channels int
	mono     []float64 // callback scratch, sized once
}

// NewCaptureSource opens (but does not start) an input stream on the given
// device. Initialize must have been called first.
func NewCaptureSource(deviceID, channels int, sampleRate float64, framesPerChunk int, lowLatency bool, sink Sink) (*CaptureSource, error) {
	if sink == nil {
		return nil, fmt.Errorf("capture source requires a sink")
	}
	device, err := InputDevice(deviceID)
	if err != nil {
		return nil, err
	}

	latency := device.DefaultHighInputLatency
	if lowLatency {
		latency = device.DefaultLowInputLatency
	}

	c := &CaptureSource{
		sink:     sink,
		channels: channels,
		mono:     make([]float64, framesPerChunk),
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: channels,
			Device:   device,
			Latency:  latency,
		},
		FramesPerBuffer: framesPerChunk,
		SampleRate:      sampleRate,
	}
	stream, err := portaudio.OpenStream(params, c.processInput)
	if err != nil {
		return nil, fmt.Errorf("failed to open input stream: %w", err)
	}
	c.stream = stream

	applog.Infof("CaptureSource: %s (%d ch, %.0f Hz, %d frames/chunk)",
		device.Name, channels, sampleRate, framesPerChunk)
	return c, nil
}

// Start begins capture; the callback runs until Stop.
func (c *CaptureSource) Start() error {
	if err := c.stream.Start(); err != nil {
		return fmt.Errorf("failed to start input stream: %w", err)
	}
	return nil
}

// Stop ends capture and closes the stream.
func (c *CaptureSource) Stop() error {
	if c.stream == nil {
		return nil
	}
	if err := c.stream.Stop(); err != nil {
		return err
	}
	if err := c.stream.Close(); err != nil {
		return err
	}
	c.stream = nil
	return nil
}

// processInput is the real-time capture callback.
// No allocations, no locks, no blocking calls.
func (c *CaptureSource) processInput(in []int32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	frames := len(in) / c.channels
	if frames > len(c.mono) {
		frames = len(c.mono)
	}

	if c.channels == 1 {
		for i := 0; i < frames; i++ {
			c.mono[i] = float64(in[i]) * captureNorm
		}
	} else {
		invChannels := 1.0 / float64(c.channels)
		for i := 0; i < frames; i++ {
			var sum float64
			for ch := 0; ch < c.channels; ch++ {
				sum += float64(in[i*c.channels+ch])
			}
			c.mono[i] = sum * captureNorm * invChannels
		}
	}

	// Lossy by design: a full analyzer buffer drops the chunk rather
	// than stalling the audio thread.
	c.sink.PushSamples(c.mono[:frames])
}

// SPDX-License-Identifier: MIT
package source

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	applog "spectra/internal/log"
)

// WAVSource reads a WAV file and pushes decoded chunks to a Sink at
// real-time cadence, simulating the playback pipeline the analyzer
// normally sits behind. The source stops on its own at end of file.
type WAVSource struct {
	path        string
	chunkFrames int
	sink        Sink

	file    *os.File
	decoder *wav.Decoder

	done     chan struct{}
	finished chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewWAVSource opens and validates the file. chunkFrames is the number of
// sample frames pushed per cadence tick.
func NewWAVSource(path string, chunkFrames int, sink Sink) (*WAVSource, error) {
	if chunkFrames <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkFrames)
	}
	if sink == nil {
		return nil, fmt.Errorf("WAV source requires a sink")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open WAV file: %w", err)
	}
	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("%s is not a valid WAV file", path)
	}

	applog.Infof("WAVSource: %s (%d Hz, %d ch, %d bit)",
		path, decoder.SampleRate, decoder.NumChans, decoder.BitDepth)

	return &WAVSource{
		path:        path,
		chunkFrames: chunkFrames,
		sink:        sink,
		file:        f,
		decoder:     decoder,
		done:        make(chan struct{}),
		finished:    make(chan struct{}),
	}, nil
}

// SampleRate returns the file's sample rate in Hz.
func (s *WAVSource) SampleRate() float64 {
	return float64(s.decoder.SampleRate)
}

// Channels returns the file's channel count.
func (s *WAVSource) Channels() int {
	return int(s.decoder.NumChans)
}

// Start launches the reader goroutine. One chunk is pushed immediately,
// then one per chunk duration until EOF or Stop.
func (s *WAVSource) Start() {
	s.wg.Add(1)
	go s.run()
}

// Done is closed when the file has been fully consumed or the source was
// stopped.
func (s *WAVSource) Done() <-chan struct{} {
	return s.finished
}

// Stop terminates the reader and closes the file. Safe to call after the
// file finished on its own, and safe to call more than once.
func (s *WAVSource) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
	s.wg.Wait()
}

func (s *WAVSource) run() {
	defer s.wg.Done()
	defer close(s.finished)
	defer s.file.Close()

	channels := int(s.decoder.NumChans)
	scale := 1.0 / float64(int(1)<<(s.decoder.BitDepth-1))

	intBuf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  int(s.decoder.SampleRate),
		},
		Data: make([]int, s.chunkFrames*channels),
	}
	mono := make([]float64, s.chunkFrames)

	chunkDuration := time.Duration(float64(s.chunkFrames) / s.SampleRate() * float64(time.Second))
	ticker := time.NewTicker(chunkDuration)
	defer ticker.Stop()

	for {
		n, err := s.decoder.PCMBuffer(intBuf)
		if err != nil {
			applog.Errorf("WAVSource: read error: %v", err)
			return
		}
		if n == 0 {
			applog.Infof("WAVSource: finished %s", s.path)
			return
		}

		frames := n / channels
		for i := 0; i < frames; i++ {
			var sum float64
			for ch := 0; ch < channels; ch++ {
				sum += float64(intBuf.Data[i*channels+ch])
			}
			mono[i] = sum * scale / float64(channels)
		}
		if !s.sink.PushSamples(mono[:frames]) {
			applog.Debugf("WAVSource: chunk dropped under backpressure")
		}

		select {
		case <-s.done:
			return
		case <-ticker.C:
		}
	}
}

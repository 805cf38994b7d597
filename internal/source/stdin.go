// SPDX-License-Identifier: MIT
package source

import (
	"fmt"
	"io"
	"os"
	"sync"

	"spectra/internal/analysis"
	applog "spectra/internal/log"
)

// PCMSink extends Sink with raw byte ingestion so stdin chunks skip a
// second decode buffer. analysis.Worker satisfies this too.
type PCMSink interface {
	Sink
	Push(chunk []byte, format analysis.SampleFormat, channels int) bool
}

// StdinSource reads raw little-endian PCM from an io.Reader (normally
// os.Stdin, fed by a pipeline like ffmpeg or parec) and pushes it to the
// sink as fast as it arrives. Pacing is left to the writing process.
type StdinSource struct {
	reader   io.Reader
	sink     PCMSink
	format   analysis.SampleFormat
	channels int
	chunk    []byte

	done     chan struct{}
	finished chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewStdinSource creates a source reading chunkFrames sample frames per
// read. Pass nil for reader to use os.Stdin.
func NewStdinSource(reader io.Reader, format analysis.SampleFormat, channels, chunkFrames int, sink PCMSink) (*StdinSource, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("channel count must be positive, got %d", channels)
	}
	if chunkFrames <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkFrames)
	}
	if sink == nil {
		return nil, fmt.Errorf("stdin source requires a sink")
	}
	if reader == nil {
		reader = os.Stdin
	}
	return &StdinSource{
		reader:   reader,
		sink:     sink,
		format:   format,
		channels: channels,
		chunk:    make([]byte, chunkFrames*channels*format.BytesPerSample()),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}, nil
}

// Start launches the reader goroutine.
func (s *StdinSource) Start() {
	applog.Infof("StdinSource: reading %s, %d ch", s.format, s.channels)
	s.wg.Add(1)
	go s.run()
}

// Done is closed when the input stream ends or the source is stopped.
func (s *StdinSource) Done() <-chan struct{} {
	return s.finished
}

// Stop terminates the reader. A read already in flight finishes first, so
// with a quiet pipe Stop can block until the next write or EOF.
func (s *StdinSource) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
	s.wg.Wait()
}

func (s *StdinSource) run() {
	defer s.wg.Done()
	defer close(s.finished)

	stride := s.channels * s.format.BytesPerSample()
	for {
		select {
		case <-s.done:
			return
		default:
		}

		n, err := io.ReadFull(s.reader, s.chunk)
		if err == io.ErrUnexpectedEOF {
			// Trim the tail to whole sample frames.
			n -= n % stride
		} else if err != nil {
			if err != io.EOF {
				applog.Errorf("StdinSource: read error: %v", err)
			} else {
				applog.Infof("StdinSource: end of input")
			}
			return
		}
		if n == 0 {
			return
		}
		if !s.sink.Push(s.chunk[:n], s.format, s.channels) {
			applog.Debugf("StdinSource: chunk dropped under backpressure")
		}
	}
}

// SPDX-License-Identifier: MIT
/*
Package analysis implements the real-time spectral analysis engine: a
mutex-guarded staging buffer fed by the audio producer, a windowed FFT
transform, a rotating smoothing history, and a fixed-cadence worker loop
that publishes immutable results to subscribers.

Thread model:
  - one producer calls Push/PushSamples, never blocks, may lose chunks
  - one worker goroutine runs the analysis loop at a fixed period
  - subscribers receive value copies over buffered channels; a slow
    subscriber misses results instead of stalling the loop
*/
package analysis

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	applog "spectra/internal/log"
)

// State is the worker lifecycle state.
type State int32

const (
	Stopped State = iota
	Running
	Stopping
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// subscriberBuffer is the per-subscriber channel depth. At a 20 ms cadence
// eight slots give a subscriber 160 ms of slack before it starts missing
// results.
const subscriberBuffer = 8

// Options fixes the worker configuration at construction.
type Options struct {
	SampleRate     float64       // input sample rate in Hz
	FFTSize        int           // frame size F, power of two
	HistoryDepth   int           // smoothing slots, 0 for 20
	Period         time.Duration // loop wake-up period, 0 for 20 ms
	BufferCapacity int           // ingest capacity in samples, 0 for 2*FFTSize
	Window         WindowFunc    // analysis window
}

func (o *Options) applyDefaults() {
	if o.HistoryDepth == 0 {
		o.HistoryDepth = 20
	}
	if o.Period == 0 {
		o.Period = 20 * time.Millisecond
	}
}

// Worker owns the ingest buffer, transform and history, and runs the
// analysis loop on its own goroutine. Start and Stop may be cycled; Close
// shuts the worker down permanently and releases its subscriber channels.
type Worker struct {
	opts      Options
	buffer    *IngestBuffer
	transform *Transform
	history   *History
	bandMap   *BandMapper

	frame  []float64 // pop destination, owned by the loop goroutine
	decode []float64 // PCM decode scratch, owned by the producer side

	state atomic.Int32
	mu    sync.Mutex // guards start/stop transitions and done
	done  chan struct{}
	wg    sync.WaitGroup

	latest atomic.Pointer[Result]
	seq    atomic.Uint64

	subsMu sync.Mutex
	subs   []chan Result
	diags  []chan error
	closed bool

	published     atomic.Uint64
	underruns     atomic.Uint64
	computeErrors atomic.Uint64
	decodeErrors  atomic.Uint64
}

// NewWorker validates the options and builds a stopped worker.
func NewWorker(opts Options) (*Worker, error) {
	opts.applyDefaults()
	if opts.HistoryDepth < 0 {
		return nil, fmt.Errorf("history depth must be positive, got %d", opts.HistoryDepth)
	}
	if opts.Period < 0 {
		return nil, fmt.Errorf("period must be positive, got %s", opts.Period)
	}

	transform, err := NewTransform(opts.FFTSize, opts.SampleRate, opts.Window)
	if err != nil {
		return nil, err
	}
	buffer, err := NewIngestBuffer(opts.FFTSize, opts.BufferCapacity)
	if err != nil {
		return nil, err
	}

	applog.Infof("Analysis: initializing worker (F=%d, rate=%.0f Hz, depth=%d, period=%s, capacity=%d)",
		opts.FFTSize, opts.SampleRate, opts.HistoryDepth, opts.Period, buffer.Cap())

	return &Worker{
		opts:      opts,
		buffer:    buffer,
		transform: transform,
		history:   NewHistory(opts.HistoryDepth, transform.Bins()),
		bandMap:   NewBandMapper(opts.SampleRate, opts.FFTSize),
		frame:     make([]float64, opts.FFTSize),
	}, nil
}

// State returns the current lifecycle state.
func (w *Worker) State() State {
	return State(w.state.Load())
}

// Start transitions Stopped to Running and spawns the loop goroutine.
// Starting a worker that is not stopped is an error.
func (w *Worker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("worker is closed")
	}
	if !w.state.CompareAndSwap(int32(Stopped), int32(Running)) {
		return fmt.Errorf("cannot start worker in state %s", w.State())
	}

	w.done = make(chan struct{})
	w.wg.Add(1)
	go w.run(w.done)

	applog.Infof("Analysis: worker started")
	return nil
}

// Stop signals the loop to exit at the next cycle boundary and blocks until
// the goroutine has joined. Stopping an already stopped worker is a no-op.
// Shutdown latency is bounded by one period under normal operation; if the
// loop fails to exit within a generous multiple of the period that is a
// defect and is logged loudly before returning an error.
func (w *Worker) Stop() error {
	w.mu.Lock()
	if !w.state.CompareAndSwap(int32(Running), int32(Stopping)) {
		w.mu.Unlock()
		return nil
	}
	close(w.done)
	w.mu.Unlock()

	joined := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(joined)
	}()

	timeout := 50 * w.opts.Period
	if timeout < time.Second {
		timeout = time.Second
	}
	select {
	case <-joined:
	case <-time.After(timeout):
		w.state.Store(int32(Stopped))
		applog.Errorf("Analysis: worker loop failed to exit within %s; this is a defect", timeout)
		return fmt.Errorf("worker loop did not stop within %s", timeout)
	}

	w.state.Store(int32(Stopped))
	applog.Infof("Analysis: worker stopped")
	return nil
}

// Close stops the worker if needed and closes all subscriber channels. The
// worker cannot be restarted afterwards.
func (w *Worker) Close() error {
	err := w.Stop()

	w.subsMu.Lock()
	if !w.closed {
		w.closed = true
		for _, ch := range w.subs {
			close(ch)
		}
		for _, ch := range w.diags {
			close(ch)
		}
		w.subs = nil
		w.diags = nil
	}
	w.subsMu.Unlock()
	return err
}

// Push decodes a raw PCM chunk and stages it for analysis. It never blocks:
// the return value reports whether the chunk was accepted. Push may be
// called in any state; chunks staged while stopped are consumed once the
// worker runs. Single-producer discipline applies.
func (w *Worker) Push(chunk []byte, format SampleFormat, channels int) bool {
	var err error
	w.decode, err = DecodePCM(w.decode[:0], chunk, format, channels)
	if err != nil {
		w.decodeErrors.Add(1)
		applog.Warnf("Analysis: rejecting PCM chunk: %v", err)
		return false
	}
	return w.buffer.Push(w.decode)
}

// PushSamples stages already-normalized mono samples, skipping the decode
// step. Same contract as Push.
func (w *Worker) PushSamples(samples []float64) bool {
	return w.buffer.Push(samples)
}

// Subscribe registers a consumer of analysis results. Each subscriber sees
// results in generation order; results that arrive while the subscriber's
// channel is full are skipped for that subscriber only. The channel is
// closed by Close. Subscribing to a closed worker yields an already-closed
// channel so readers see end-of-stream instead of blocking forever.
func (w *Worker) Subscribe() <-chan Result {
	ch := make(chan Result, subscriberBuffer)
	w.subsMu.Lock()
	if w.closed {
		w.subsMu.Unlock()
		close(ch)
		return ch
	}
	w.subs = append(w.subs, ch)
	w.subsMu.Unlock()
	return ch
}

// Diagnostics registers a consumer of recoverable processing errors
// (malformed frames). Delivery is best-effort, like results, and the
// closed-worker behavior matches Subscribe.
func (w *Worker) Diagnostics() <-chan error {
	ch := make(chan error, subscriberBuffer)
	w.subsMu.Lock()
	if w.closed {
		w.subsMu.Unlock()
		close(ch)
		return ch
	}
	w.diags = append(w.diags, ch)
	w.subsMu.Unlock()
	return ch
}

// Latest returns the most recently published result, or nil before the
// first publication. The returned value is immutable.
func (w *Worker) Latest() *Result {
	return w.latest.Load()
}

// Stats returns a snapshot of the recoverable-event counters.
func (w *Worker) Stats() Stats {
	return Stats{
		Published:     w.published.Load(),
		DroppedChunks: w.buffer.Dropped(),
		Underruns:     w.underruns.Load(),
		ComputeErrors: w.computeErrors.Load(),
		DecodeErrors:  w.decodeErrors.Load(),
	}
}

// run is the analysis loop. One cycle per period: pop a frame if available,
// transform, record, average, publish. Underruns skip the cycle. The stop
// signal is honored at cycle granularity so shutdown never waits on a
// partial publication.
func (w *Worker) run(done <-chan struct{}) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.opts.Period)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			// Re-check the stop signal so a tick racing the close does
			// not publish after Stop has begun.
			select {
			case <-done:
				return
			default:
			}
			w.cycle()
		}
	}
}

// cycle performs one analysis pass.
func (w *Worker) cycle() {
	if !w.buffer.PopFrame(w.frame) {
		// Underrun: not enough buffered samples yet. Expected whenever the
		// producer cadence lags one frame behind; not an error.
		w.underruns.Add(1)
		return
	}

	snapshot, err := w.transform.Compute(w.frame)
	if err != nil {
		// A single bad frame must never take the loop down.
		w.computeErrors.Add(1)
		applog.Errorf("Analysis: skipping frame: %v", err)
		w.publishDiagnostic(err)
		return
	}

	w.history.Record(snapshot)
	magnitude, power := w.history.Average()

	result := &Result{
		Seq:       w.seq.Add(1),
		Timestamp: time.Now(),
		Magnitude: magnitude,
		Power:     power,
		RMS:       snapshot.RMS,
		Peak:      snapshot.Peak,
		Bands:     w.bandMap.Map(magnitude),
	}

	w.latest.Store(result)
	w.published.Add(1)

	w.subsMu.Lock()
	for _, ch := range w.subs {
		select {
		case ch <- *result:
		default:
			// Subscriber is behind; it misses this result.
		}
	}
	w.subsMu.Unlock()
}

func (w *Worker) publishDiagnostic(err error) {
	w.subsMu.Lock()
	for _, ch := range w.diags {
		select {
		case ch <- err:
		default:
		}
	}
	w.subsMu.Unlock()
}

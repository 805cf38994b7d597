// SPDX-License-Identifier: MIT
package source

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// collectSink accumulates pushed samples.
type collectSink struct {
	samples []float64
}

func (c *collectSink) PushSamples(samples []float64) bool {
	c.samples = append(c.samples, samples...)
	return true
}

// writeTestWAV writes a mono 16-bit sine file and returns its path.
func writeTestWAV(t *testing.T, sampleRate, numSamples int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:   make([]int, numSamples),
	}
	for i := range buf.Data {
		v := 0.5 * math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate))
		buf.Data[i] = int(v * 32767)
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	return path
}

func TestWAVSourceReadsWholeFile(t *testing.T) {
	const sampleRate = 8000
	const numSamples = 1600 // 200 ms

	path := writeTestWAV(t, sampleRate, numSamples)
	sink := &collectSink{}

	src, err := NewWAVSource(path, 800, sink)
	if err != nil {
		t.Fatalf("NewWAVSource: %v", err)
	}
	if src.SampleRate() != sampleRate {
		t.Errorf("SampleRate = %f, want %d", src.SampleRate(), sampleRate)
	}
	if src.Channels() != 1 {
		t.Errorf("Channels = %d, want 1", src.Channels())
	}

	src.Start()
	select {
	case <-src.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("source did not finish")
	}
	src.Stop()

	if len(sink.samples) != numSamples {
		t.Fatalf("pushed %d samples, want %d", len(sink.samples), numSamples)
	}
	for i, s := range sink.samples {
		if s < -1 || s > 1 {
			t.Fatalf("sample %d = %f outside [-1, 1]", i, s)
		}
	}

	// Spot-check normalization against the generated tone.
	want := 0.5 * math.Sin(2*math.Pi*440*float64(100)/float64(sampleRate))
	if math.Abs(sink.samples[100]-want) > 0.01 {
		t.Errorf("sample 100 = %f, want about %f", sink.samples[100], want)
	}
}

func TestWAVSourceStopMidFile(t *testing.T) {
	path := writeTestWAV(t, 8000, 80000) // 10 s of audio
	sink := &collectSink{}

	src, err := NewWAVSource(path, 400, sink)
	if err != nil {
		t.Fatal(err)
	}
	src.Start()
	time.Sleep(60 * time.Millisecond)
	src.Stop()

	select {
	case <-src.Done():
	case <-time.After(time.Second):
		t.Fatal("Done not closed after Stop")
	}
	if len(sink.samples) == 0 {
		t.Error("expected some samples before Stop")
	}
	if len(sink.samples) >= 80000 {
		t.Error("Stop should have interrupted the read")
	}
}

func TestNewWAVSourceValidation(t *testing.T) {
	sink := &collectSink{}

	if _, err := NewWAVSource("missing.wav", 400, sink); err == nil {
		t.Error("missing file should be rejected")
	}

	bad := filepath.Join(t.TempDir(), "bad.wav")
	if err := os.WriteFile(bad, []byte("not a wav"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewWAVSource(bad, 400, sink); err == nil {
		t.Error("invalid file should be rejected")
	}

	good := writeTestWAV(t, 8000, 100)
	if _, err := NewWAVSource(good, 0, sink); err == nil {
		t.Error("zero chunk size should be rejected")
	}
	if _, err := NewWAVSource(good, 400, nil); err == nil {
		t.Error("nil sink should be rejected")
	}
}

// SPDX-License-Identifier: MIT
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"spectra/cmd"
	"spectra/internal/analysis"
	applog "spectra/internal/log"
	"spectra/internal/source"
	"spectra/internal/transport"
	"spectra/internal/transport/udp"
	"spectra/internal/tui"
	"spectra/pkg/build"
)

// main is the entry point for the analysis engine. The program flow is
// divided into three distinct phases:
//
// 1. Startup Phase (Cold Path):
//   - Resolve build information
//   - Parse command line arguments and load configuration
//   - Execute one-off commands if requested
//   - Construct the analysis worker and attach transports
//
// 2. Concurrent Phase (Hot Path):
//   - Start the worker loop
//   - Begin input delivery (WAV file or capture device)
//   - Render the terminal spectrum view, or block on signals
//
// 3. Shutdown Phase (Cold Path):
//   - Stop input delivery
//   - Flush and close transports
//   - Close the worker
func main() {
	// ==================== STARTUP PHASE (Cold Path) ====================

	buildInfo := build.Info()

	config, err := cmd.ParseArgs()
	if err != nil {
		applog.Fatalf("%v", err)
	}

	if config.Debug {
		applog.SetLevel(applog.LevelDebug)
	} else if level, ok := applog.ParseLevel(config.LogLevel); ok {
		applog.SetLevel(level)
	}

	// One-off commands run without the engine.
	if config.Command == "devices" {
		if err := source.Initialize(); err != nil {
			applog.Fatalf("%v", err)
		}
		defer source.Terminate()
		if err := source.ListDevices(); err != nil {
			applog.Fatalf("%v", err)
		}
		return
	}

	window, err := analysis.ParseWindowFunc(config.Analysis.Window)
	if err != nil {
		applog.Fatalf("%v", err)
	}
	worker, err := analysis.NewWorker(analysis.Options{
		SampleRate:     config.Analysis.SampleRate,
		FFTSize:        config.Analysis.FFTSize,
		HistoryDepth:   config.Analysis.HistoryDepth,
		Period:         config.Analysis.Period,
		BufferCapacity: config.Analysis.BufferCapacity,
		Window:         window,
	})
	if err != nil {
		applog.Fatalf("%v", err)
	}

	// Transports subscribe before the worker starts so no result is missed.
	var wsTransport *transport.WebSocketTransport
	if config.Transport.WebSocketEnabled {
		wsTransport = transport.NewWebSocketTransport(config.Transport.WebSocketAddr)
		go transport.Pump(worker.Subscribe(), wsTransport)
	}

	var udpPublisher *udp.Publisher
	if config.Transport.UDPEnabled {
		sender, err := udp.NewSender(config.Transport.UDPTargetAddress)
		if err != nil {
			applog.Fatalf("%v", err)
		}
		publisher, err := udp.NewPublisher(sender, worker.Subscribe())
		if err != nil {
			applog.Fatalf("%v", err)
		}
		publisher.Start()
		udpPublisher = publisher
	}

	// Surface non-fatal analysis errors in the log.
	go func() {
		for err := range worker.Diagnostics() {
			applog.Warnf("Analysis: %v", err)
		}
	}()

	// ==================== CONCURRENT PHASE (Hot Path) ====================

	if err := worker.Start(); err != nil {
		applog.Fatalf("%v", err)
	}

	// Chunks a quarter frame long keep the ingest buffer topped up without
	// bursting past its capacity.
	chunkFrames := config.Analysis.FFTSize / 4

	var wavSource *source.WAVSource
	var stdinSource *source.StdinSource
	var captureSource *source.CaptureSource
	if config.Input.File == "-" {
		format, err := analysis.ParseSampleFormat(config.Input.Format)
		if err != nil {
			applog.Fatalf("%v", err)
		}
		stdinSource, err = source.NewStdinSource(nil, format, config.Input.Channels, chunkFrames, worker)
		if err != nil {
			applog.Fatalf("%v", err)
		}
		stdinSource.Start()
	} else if config.Input.File != "" {
		wavSource, err = source.NewWAVSource(config.Input.File, chunkFrames, worker)
		if err != nil {
			applog.Fatalf("%v", err)
		}
		if wavSource.SampleRate() != config.Analysis.SampleRate {
			applog.Warnf("File rate %.0f Hz differs from analysis rate %.0f Hz, bin frequencies will be off",
				wavSource.SampleRate(), config.Analysis.SampleRate)
		}
		wavSource.Start()
	} else {
		if err := source.Initialize(); err != nil {
			applog.Fatalf("%v", err)
		}
		defer source.Terminate()

		captureSource, err = source.NewCaptureSource(
			config.Input.DeviceID, config.Input.Channels, config.Analysis.SampleRate,
			chunkFrames, true, worker)
		if err != nil {
			applog.Fatalf("%v", err)
		}
		if err := captureSource.Start(); err != nil {
			applog.Fatalf("%v", err)
		}
	}

	// The terminal view and a stdin PCM stream both want stdin; the
	// stream wins and the run is headless.
	if stdinSource != nil {
		config.TUIMode = false
	}

	if config.TUIMode {
		program := tea.NewProgram(
			tui.NewSpectrumModel(worker.Subscribe()),
			tea.WithAltScreen(),
		)
		if _, err := program.Run(); err != nil {
			applog.Errorf("TUI: %v", err)
		}
	} else {
		fmt.Printf("%s %s running, Ctrl+C to stop\n", buildInfo.Name, buildInfo.Version)

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
		switch {
		case wavSource != nil:
			select {
			case <-sigs:
			case <-wavSource.Done():
				applog.Infof("End of file reached")
			}
		case stdinSource != nil:
			select {
			case <-sigs:
			case <-stdinSource.Done():
			}
		default:
			<-sigs
		}
	}

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	if wavSource != nil {
		wavSource.Stop()
	}
	if stdinSource != nil {
		stdinSource.Stop()
	}
	if captureSource != nil {
		if err := captureSource.Stop(); err != nil {
			applog.Errorf("Capture: %v", err)
		}
	}
	if udpPublisher != nil {
		if err := udpPublisher.Close(); err != nil {
			applog.Errorf("UDP publisher: %v", err)
		}
	}
	if wsTransport != nil {
		if err := wsTransport.Close(); err != nil {
			applog.Errorf("WebSocket: %v", err)
		}
	}
	if err := worker.Close(); err != nil {
		applog.Errorf("Worker: %v", err)
	}

	stats := worker.Stats()
	applog.Infof("Published %d results (%d dropped chunks, %d underruns)",
		stats.Published, stats.DroppedChunks, stats.Underruns)
}

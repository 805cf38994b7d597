// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"

	"spectra/internal/analysis"
	applog "spectra/internal/log"
)

/*
Packet layout (BigEndian):

|<---- 4 Bytes ---->|<------ 8 Bytes ------>|<-- 2 Bytes -->|<----- N * 4 Bytes ----->|
+-------------------+-----------------------+---------------+-------------------------+
|  Sequence Number  |       Timestamp       |   Bin Count   |   Smoothed Magnitudes   |
|      (uint32)     |   (int64, ns epoch)   |    (uint16)   |      (N * float32)      |
+-------------------+-----------------------+---------------+-------------------------+

The sequence number is the analysis result's own sequence truncated to 32
bits, so receivers can detect gaps caused by drops anywhere in the chain.
*/

// Publisher consumes analysis results from a subscription channel, packs
// each one into the binary packet format and sends it via a Sender. It
// runs on its own goroutine between Start and Stop.
type Publisher struct {
	sender  *Sender
	results <-chan analysis.Result

	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex // guards doneChan across Start/Stop

	f32Buffer    []float32     // magnitudes converted for packing
	packetBuffer *bytes.Buffer // reusable packet assembly buffer
}

// NewPublisher creates a Publisher reading from the given result channel.
func NewPublisher(sender *Sender, results <-chan analysis.Result) (*Publisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("UDP publisher requires a sender")
	}
	if results == nil {
		return nil, fmt.Errorf("UDP publisher requires a result channel")
	}
	return &Publisher{
		sender:       sender,
		results:      results,
		packetBuffer: new(bytes.Buffer),
	}, nil
}

// Start launches the publisher goroutine. Safe to call once per
// Start/Stop cycle; a second call while running is a no-op.
func (p *Publisher) Start() {
	p.mu.Lock()
	if p.doneChan != nil {
		p.mu.Unlock()
		applog.Warnf("UDPPublisher: Start called but already running")
		return
	}
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}
	doneChan := p.doneChan
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		applog.Infof("UDPPublisher: started")
		for {
			select {
			case result, ok := <-p.results:
				if !ok {
					applog.Infof("UDPPublisher: result channel closed")
					return
				}
				p.sendPacket(result)
			case <-doneChan:
				applog.Infof("UDPPublisher: stop signal received")
				return
			}
		}
	}()
}

// Stop signals the goroutine to exit and waits for it. Safe to call
// multiple times.
func (p *Publisher) Stop() error {
	p.mu.Lock()
	if p.doneChan == nil {
		p.mu.Unlock()
		return nil
	}
	p.stopOnce.Do(func() {
		close(p.doneChan)
		p.doneChan = nil
	})
	p.mu.Unlock()

	p.wg.Wait()
	return nil
}

// Close stops the publisher and releases the sender socket.
func (p *Publisher) Close() error {
	if err := p.Stop(); err != nil {
		return err
	}
	return p.sender.Close()
}

func (p *Publisher) sendPacket(result analysis.Result) {
	if cap(p.f32Buffer) < len(result.Magnitude) {
		p.f32Buffer = make([]float32, len(result.Magnitude))
	}
	p.f32Buffer = p.f32Buffer[:len(result.Magnitude)]
	for i, v := range result.Magnitude {
		p.f32Buffer[i] = float32(v)
	}

	p.packetBuffer.Reset()
	if err := encodePacket(p.packetBuffer, uint32(result.Seq), result.Timestamp.UnixNano(), p.f32Buffer); err != nil {
		applog.Errorf("UDPPublisher: failed to pack result %d: %v", result.Seq, err)
		return
	}

	if err := p.sender.Send(p.packetBuffer.Bytes()); err == nil {
		applog.Debugf("UDPPublisher: sent packet %d (%d bytes)", result.Seq, p.packetBuffer.Len())
	}
}

// encodePacket writes one packet into buf using the layout documented at
// the top of this file.
func encodePacket(buf *bytes.Buffer, seq uint32, timestamp int64, magnitudes []float32) error {
	if err := binary.Write(buf, binary.BigEndian, seq); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.BigEndian, timestamp); err != nil {
		return err
	}
	if err := binary.Write(buf, binary.BigEndian, uint16(len(magnitudes))); err != nil {
		return err
	}
	return binary.Write(buf, binary.BigEndian, magnitudes)
}

package transport

import (
	applog "spectra/internal/log"

	"spectra/internal/analysis"
)

// LoggingTransport implements Transport by logging a one-line summary of
// each result at debug level. Useful when bringing up a new input source
// without any network consumer attached.
type LoggingTransport struct{}

// NewLoggingTransport creates a LoggingTransport.
func NewLoggingTransport() *LoggingTransport {
	applog.Infof("Transport: using logging transport")
	return &LoggingTransport{}
}

// Send logs the result summary. It never fails.
func (lt *LoggingTransport) Send(result analysis.Result) error {
	applog.Debugf("Transport: result seq=%d rms=%.4f peak=%.4f bins=%d",
		result.Seq, result.RMS, result.Peak, len(result.Magnitude))
	return nil
}

// Close is a no-op.
func (lt *LoggingTransport) Close() error {
	return nil
}

var _ Transport = (*LoggingTransport)(nil)

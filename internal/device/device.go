// Package device pumps printer bytes into the daemon: a serial source for
// real hardware and a TCP source for the simulator, both with the same
// connect/retry discipline. The source owns the producer goroutine; the sink
// (the bridge) is called synchronously from it.
package device

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Defaults applied by New for zero Config fields.
const (
	DefaultBaud           = 115200
	DefaultReconnectDelay = 2 * time.Second
)

// readTimeout bounds a single blocking read so cancellation is noticed.
const readTimeout = 500 * time.Millisecond

// zlog is an optional structured logger for connect/retry noise.
var zlog *zerolog.Logger

// SetLogger installs a structured logger used by the sources.
func SetLogger(l zerolog.Logger) { zlog = &l }

// Sink receives transport lifecycle and data callbacks, in order: one
// HandleConnect, any number of HandleData, one HandleDisconnect. The writer
// given to HandleConnect stays valid until HandleDisconnect returns.
type Sink interface {
	HandleConnect(w io.Writer)
	HandleData(data []byte)
	HandleDisconnect()
}

// Source pumps one device session after another into its sink until the
// context is cancelled, retrying failed opens at a fixed cadence.
type Source interface {
	Run(ctx context.Context) error
}

// Config selects and tunes a source. Device is either a serial port path
// ("/dev/ttyACM0") or a "tcp://host:port" endpoint.
type Config struct {
	Device         string
	Baud           int
	ReconnectDelay time.Duration
}

// New builds the source matching cfg.Device.
func New(cfg Config, sink Sink) Source {
	if cfg.Baud <= 0 {
		cfg.Baud = DefaultBaud
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	if addr, ok := strings.CutPrefix(cfg.Device, "tcp://"); ok {
		return &tcpSource{addr: addr, delay: cfg.ReconnectDelay, sink: sink}
	}
	return &serialSource{device: cfg.Device, baud: cfg.Baud, delay: cfg.ReconnectDelay, sink: sink}
}

// sleep waits d or until ctx is done, reporting whether the full delay
// elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

package device

import (
	"context"
	"time"

	"go.bug.st/serial"
)

// serialSource owns a USB/UART printer link: 8 data bits, no parity, one
// stop bit, configurable baud. Opens are retried forever; a dropped port
// becomes a disconnect followed by the same retry loop.
type serialSource struct {
	device string
	baud   int
	delay  time.Duration
	sink   Sink
}

func (s *serialSource) Run(ctx context.Context) error {
	mode := &serial.Mode{
		BaudRate: s.baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		port, err := serial.Open(s.device, mode)
		if err != nil {
			if zlog != nil {
				zlog.Warn().Str("device", s.device).Err(err).Msg("serial open failed, retrying")
			}
			if !sleep(ctx, s.delay) {
				return ctx.Err()
			}
			continue
		}
		if err := port.SetReadTimeout(readTimeout); err != nil && zlog != nil {
			zlog.Debug().Err(err).Msg("set read timeout failed")
		}

		s.sink.HandleConnect(port)
		s.pump(ctx, port)
		port.Close()
		s.sink.HandleDisconnect()

		if !sleep(ctx, s.delay) {
			return ctx.Err()
		}
	}
}

// pump reads until the port fails or ctx is done. A timed-out read returns
// zero bytes with a nil error; that is the moment to re-check ctx.
func (s *serialSource) pump(ctx context.Context, port serial.Port) {
	buf := make([]byte, 512)
	for {
		if ctx.Err() != nil {
			return
		}
		n, err := port.Read(buf)
		if n > 0 {
			s.sink.HandleData(buf[:n])
		}
		if err != nil {
			if zlog != nil {
				zlog.Warn().Str("device", s.device).Err(err).Msg("serial read failed")
			}
			return
		}
	}
}

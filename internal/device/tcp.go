package device

import (
	"context"
	"net"
	"time"
)

// tcpSource dials a printer console over TCP, used with the simulator and in
// tests. Reconnect behavior mirrors the serial source.
type tcpSource struct {
	addr  string
	delay time.Duration
	sink  Sink
}

func (s *tcpSource) Run(ctx context.Context) error {
	dialer := net.Dialer{Timeout: 5 * time.Second}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		conn, err := dialer.DialContext(ctx, "tcp", s.addr)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if zlog != nil {
				zlog.Warn().Str("addr", s.addr).Err(err).Msg("dial failed, retrying")
			}
			if !sleep(ctx, s.delay) {
				return ctx.Err()
			}
			continue
		}

		s.sink.HandleConnect(conn)
		s.pump(ctx, conn)
		conn.Close()
		s.sink.HandleDisconnect()

		if !sleep(ctx, s.delay) {
			return ctx.Err()
		}
	}
}

func (s *tcpSource) pump(ctx context.Context, conn net.Conn) {
	buf := make([]byte, 512)
	for {
		if ctx.Err() != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		n, err := conn.Read(buf)
		if n > 0 {
			s.sink.HandleData(buf[:n])
		}
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			if zlog != nil {
				zlog.Warn().Str("addr", s.addr).Err(err).Msg("connection lost")
			}
			return
		}
	}
}

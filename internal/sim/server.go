package sim

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// zlog is an optional structured logger. If unset, the server stays quiet.
var zlog *zerolog.Logger

// SetLogger installs a structured logger for connection events.
func SetLogger(l zerolog.Logger) { zlog = &l }

// idlePoll is how often the reporter re-checks the interval while
// auto-reporting is disabled (M155 S0).
const idlePoll = 250 * time.Millisecond

// Config carries the simulator's listen address and initial state.
type Config struct {
	// Addr is the TCP listen address, e.g. "127.0.0.1:9100". An empty port
	// picks a free one; Addr() reports the bound address.
	Addr string
	// PrintMinutes, when positive, starts a fake job of that many simulated
	// minutes as soon as the server starts.
	PrintMinutes int
	// ReportInterval overrides the initial telemetry cadence when positive.
	ReportInterval time.Duration
}

// Server owns the listener and shares one Engine across every connection,
// the way a single printer serves a single console over many sessions.
type Server struct {
	cfg Config
	eng *Engine

	mu    sync.Mutex
	ln    net.Listener
	conns map[net.Conn]struct{}
}

// NewServer builds a simulator around a fresh engine.
func NewServer(cfg Config) *Server {
	eng := NewEngine()
	if cfg.ReportInterval > 0 {
		eng.SetReportInterval(cfg.ReportInterval)
	}
	return &Server{cfg: cfg, eng: eng, conns: make(map[net.Conn]struct{})}
}

// Engine exposes the shared printer model for test hooks.
func (s *Server) Engine() *Engine { return s.eng }

// Listen binds the TCP listener. Addr is valid afterwards.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("sim listen: %w", err)
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	if zlog != nil {
		zlog.Info().Str("addr", ln.Addr().String()).Msg("simulator listening")
	}
	return nil
}

// Addr returns the bound listen address, or "" before Listen.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Serve accepts connections until ctx is canceled or Close is called.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	if ln == nil {
		return errors.New("sim serve: not listening")
	}

	if s.cfg.PrintMinutes > 0 {
		s.eng.StartPrint(s.cfg.PrintMinutes)
	}

	go func() {
		<-ctx.Done()
		s.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			if zlog != nil {
				zlog.Warn().Err(err).Msg("accept failed")
			}
			continue
		}
		go s.handleConn(ctx, conn)
	}
}

// ListenAndServe is Listen followed by Serve.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Close stops the listener and severs every live console session, so a
// dropped USB cable can be simulated by closing and restarting the server.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.conns {
		c.Close()
	}
	if s.ln == nil {
		return nil
	}
	return s.ln.Close()
}

func (s *Server) track(conn net.Conn) {
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}

// handleConn runs one console session: a reader that acks commands and a
// reporter that emits telemetry on the engine's cadence. Writes from both
// are serialized through one mutex.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	s.track(conn)
	defer s.untrack(conn)
	defer conn.Close()
	if zlog != nil {
		zlog.Info().Str("client", conn.RemoteAddr().String()).Msg("console attached")
	}

	var wmu sync.Mutex
	writeLines := func(lines []string) error {
		wmu.Lock()
		defer wmu.Unlock()
		for _, l := range lines {
			if _, err := conn.Write([]byte(l + "\n")); err != nil {
				return err
			}
		}
		return nil
	}

	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go s.report(sessionCtx, cancel, writeLines)

	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		resp := s.eng.Command(sc.Text())
		if err := writeLines(resp); err != nil {
			break
		}
	}
	if zlog != nil {
		zlog.Info().Str("client", conn.RemoteAddr().String()).Msg("console detached")
	}
}

// report emits engine ticks until the session ends. The timer is re-armed
// from the engine each cycle so M155 takes effect immediately on the next
// report.
func (s *Server) report(ctx context.Context, cancel context.CancelFunc, writeLines func([]string) error) {
	timer := time.NewTimer(idlePoll)
	defer timer.Stop()
	for {
		every := s.eng.ReportInterval()
		wait := every
		if wait <= 0 {
			wait = idlePoll
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(wait)
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		if every <= 0 {
			continue
		}
		if err := writeLines(s.eng.Tick()); err != nil {
			cancel()
			return
		}
	}
}

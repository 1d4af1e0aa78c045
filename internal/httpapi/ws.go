package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"printerd/internal/hub"
	"printerd/pkg/types"
)

// Socket liveness defaults; BrokerConfig overrides them.
const (
	defaultWriteWait  = 10 * time.Second
	defaultPongWait   = 60 * time.Second
	defaultPingPeriod = 54 * time.Second
)

var websocketUpgrader = websocket.Upgrader{
	// The daemon serves a trusted LAN; dashboards connect from arbitrary
	// origins and there are no credentials to protect.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Registry is the subscriber table the websocket layer attaches clients to.
// The hub satisfies it.
type Registry interface {
	Subscribe(id string) (int, error)
	Unsubscribe(id string)
}

// BrokerConfig carries socket liveness cadence. Zero values select the
// package defaults; PingPeriod must stay under PongWait.
type BrokerConfig struct {
	WriteWait  time.Duration
	PongWait   time.Duration
	PingPeriod time.Duration
}

// Broker owns the websocket side of the fan-out: it serves /ws, maps
// subscriber identifiers to connections, reads command frames off each
// socket, and implements the hub's delivery callback. All data frames are
// written by the single hub delivery goroutine; the per-session ping uses
// control frames, which gorilla allows concurrently.
type Broker struct {
	reg Registry
	svc Service

	writeWait  time.Duration
	pongWait   time.Duration
	pingPeriod time.Duration

	seq atomic.Uint64

	mu    sync.Mutex
	conns map[string]*websocket.Conn
}

// NewBroker builds the websocket broker over the given registry and service.
func NewBroker(cfg BrokerConfig, reg Registry, svc Service) *Broker {
	if cfg.WriteWait <= 0 {
		cfg.WriteWait = defaultWriteWait
	}
	if cfg.PongWait <= 0 {
		cfg.PongWait = defaultPongWait
	}
	if cfg.PingPeriod <= 0 {
		cfg.PingPeriod = defaultPingPeriod
	}
	return &Broker{
		reg:        reg,
		svc:        svc,
		writeWait:  cfg.WriteWait,
		pongWait:   cfg.PongWait,
		pingPeriod: cfg.PingPeriod,
		conns:      make(map[string]*websocket.Conn),
	}
}

// Deliver hands one drained message to a subscriber socket, best effort. A
// failed write is not retried; the session read loop notices the broken
// socket shortly after and unsubscribes.
func (b *Broker) Deliver(id string, m types.Message) error {
	b.mu.Lock()
	conn := b.conns[id]
	b.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("no connection for subscriber %s", id)
	}
	_ = conn.SetWriteDeadline(time.Now().Add(b.writeWait))
	return conn.WriteMessage(websocket.TextMessage, m.Payload)
}

// handleWS upgrades the request and attaches the client as a subscriber.
// When every slot is taken the socket is closed immediately with a
// try-again-later close frame.
//
// @Summary  Subscribe to the live telemetry stream
// @Success  101 {string} string "switching protocols"
// @Router   /ws [get]
func (b *Broker) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocketUpgrader.Upgrade(w, r, nil)
	if err != nil {
		countWSConnection("upgrade_failed")
		if zlog != nil {
			zlog.Warn().Err(err).Msg("websocket upgrade failed")
		}
		return
	}

	id := "ws-" + strconv.FormatUint(b.seq.Add(1), 10) + "-" + r.RemoteAddr
	b.mu.Lock()
	b.conns[id] = conn
	b.mu.Unlock()

	if _, err := b.reg.Subscribe(id); err != nil {
		b.drop(id)
		countWSConnection("rejected")
		reason := err.Error()
		code := websocket.CloseInternalServerErr
		if hub.IsRegistryFull(err) {
			code = websocket.CloseTryAgainLater
		}
		deadline := time.Now().Add(b.writeWait)
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
		conn.Close()
		return
	}
	countWSConnection("accepted")
	if zlog != nil {
		zlog.Info().Str("client", id).Msg("websocket subscriber attached")
	}
	b.session(r, conn, id)
}

// session runs until the client goes away, a ping write fails, or the server
// shuts down. Cleanup is idempotent with respect to the hub.
func (b *Broker) session(r *http.Request, conn *websocket.Conn, id string) {
	ctx, cancel := joinContexts(serverBaseCtx, r.Context())
	defer cancel()
	defer func() {
		b.reg.Unsubscribe(id)
		b.drop(id)
		conn.Close()
		if zlog != nil {
			zlog.Info().Str("client", id).Msg("websocket subscriber detached")
		}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(b.pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(b.pongWait))
	})

	ticker := time.NewTicker(b.pingPeriod)
	defer ticker.Stop()

	frames := make(chan types.ClientFrame)
	done := make(chan struct{})
	defer close(done)
	go b.readFrames(conn, frames, done)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deadline := time.Now().Add(b.writeWait)
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, deadline); err != nil {
				return
			}
		case f, ok := <-frames:
			if !ok {
				return
			}
			b.handleFrame(id, f)
		}
	}
}

// readFrames decodes client frames until the socket fails, then closes the
// channel. done guards against blocking on a session that already ended.
func (b *Broker) readFrames(conn *websocket.Conn, frames chan<- types.ClientFrame, done <-chan struct{}) {
	defer close(frames)
	for {
		var f types.ClientFrame
		if err := conn.ReadJSON(&f); err != nil {
			return
		}
		select {
		case frames <- f:
		case <-done:
			return
		}
	}
}

// handleFrame applies one client frame. Commands ride the same socket the
// telemetry flows out of; unknown frame types are ignored so clients can
// extend the protocol without breaking older daemons.
func (b *Broker) handleFrame(id string, f types.ClientFrame) {
	if f.Type != "command" || strings.TrimSpace(f.Command) == "" {
		return
	}
	if err := b.svc.SendCommand(f.Command); err != nil && zlog != nil {
		zlog.Debug().Str("client", id).Str("command", f.Command).Err(err).Msg("websocket command failed")
	}
}

func (b *Broker) drop(id string) {
	b.mu.Lock()
	delete(b.conns, id)
	b.mu.Unlock()
}

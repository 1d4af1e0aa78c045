// Package bridge wires the printer byte stream to the rest of the daemon:
// it assembles lines, parses them into telemetry events, applies the events
// to the live snapshot and broadcasts wire messages through the hub. It also
// carries commands in the opposite direction, verbatim, back to the device.
package bridge

import (
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"printerd/internal/console"
	"printerd/internal/state"
	"printerd/internal/telemetry"
	"printerd/pkg/types"
)

// zlog is an optional structured logger. If unset, the bridge stays quiet.
var zlog *zerolog.Logger

// SetLogger installs a structured logger for connection and archive events.
func SetLogger(l zerolog.Logger) { zlog = &l }

// Broadcaster fans one wire message out to every active subscriber. The hub
// satisfies this; tests substitute a recorder.
type Broadcaster interface {
	Broadcast(types.Message)
}

// Config carries the tunables the bridge owns. Zero values select package
// defaults from internal/console; an empty Greeting sends nothing.
type Config struct {
	// MaxLineBytes bounds one assembled console line.
	MaxLineBytes int
	// HistoryLines sizes the raw-line replay ring.
	HistoryLines int
	// Greeting commands are written to the device on every connect.
	Greeting []string
	// Archive, when non-nil, receives every raw line (newline-terminated).
	Archive io.Writer
}

// Bridge is the single producer for the snapshot and the hub: the device
// source calls HandleConnect/HandleData/HandleDisconnect from one goroutine.
// SendCommand may be called from any goroutine.
type Bridge struct {
	asm     *console.Assembler
	ring    *console.Ring
	tracker *state.Tracker
	hub     Broadcaster

	greeting []string
	archive  io.Writer

	mu  sync.Mutex // guards dev
	dev io.Writer  // nil while disconnected
}

// New builds a bridge over the given snapshot tracker and broadcaster.
func New(cfg Config, tracker *state.Tracker, h Broadcaster) *Bridge {
	return &Bridge{
		asm:      console.NewAssembler(cfg.MaxLineBytes),
		ring:     console.NewRing(cfg.HistoryLines),
		tracker:  tracker,
		hub:      h,
		greeting: cfg.Greeting,
		archive:  cfg.Archive,
	}
}

// HandleConnect attaches the device writer, restarts line assembly, flags
// the link up and sends the greeting commands.
func (b *Bridge) HandleConnect(w io.Writer) {
	b.mu.Lock()
	b.dev = w
	b.mu.Unlock()
	b.asm.Reset()

	ev := telemetry.Status{Connected: true}
	b.tracker.Apply(ev)
	b.publish(ev)
	if zlog != nil {
		zlog.Info().Msg("device connected")
	}

	for _, cmd := range b.greeting {
		if err := b.SendCommand(cmd); err != nil {
			if zlog != nil {
				zlog.Warn().Str("command", cmd).Err(err).Msg("greeting failed")
			}
			return
		}
	}
}

// HandleData consumes a chunk of raw bytes from the device. Called
// synchronously from the device source; never blocks on subscribers.
func (b *Bridge) HandleData(data []byte) {
	for _, line := range b.asm.Feed(data) {
		b.consumeLine(line)
	}
}

// HandleDisconnect detaches the device writer and flags the link down.
// Last-known readings stay in the snapshot until the device reports again.
func (b *Bridge) HandleDisconnect() {
	b.mu.Lock()
	b.dev = nil
	b.mu.Unlock()

	ev := telemetry.Status{Connected: false}
	b.tracker.Apply(ev)
	b.publish(ev)
	if zlog != nil {
		zlog.Info().Msg("device disconnected")
	}
}

// SendCommand forwards one raw command to the device, verbatim plus a line
// terminator. Commands are never parsed here. Returns an error satisfying
// IsNotConnected when no device is attached.
func (b *Bridge) SendCommand(cmd string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.dev == nil {
		return notConnectedError{}
	}
	if _, err := b.dev.Write([]byte(cmd + "\n")); err != nil {
		return fmt.Errorf("write command: %w", err)
	}
	commandsTotal.Inc()
	return nil
}

// State returns the current printer snapshot.
func (b *Bridge) State() types.PrinterState {
	return b.tracker.Snapshot()
}

// Connected reports whether the device link is up.
func (b *Bridge) Connected() bool {
	return b.tracker.Connected()
}

// Recent returns the retained raw console lines, oldest first.
func (b *Bridge) Recent() []string {
	return b.ring.Lines()
}

// consumeLine records one raw line and fans out its telemetry.
func (b *Bridge) consumeLine(line string) {
	linesTotal.Inc()
	b.ring.Append(line)
	if b.archive != nil {
		if _, err := b.archive.Write(append([]byte(line), '\n')); err != nil && zlog != nil {
			zlog.Debug().Err(err).Msg("archive write failed")
		}
	}
	for _, ev := range telemetry.Parse(line) {
		b.tracker.Apply(ev)
		b.publish(ev)
	}
}

// publish broadcasts the message for one event. Log and error events carry
// their own payload; state categories are rebuilt whole from the snapshot so
// subscribers always see full-category state, never a diff.
func (b *Bridge) publish(ev telemetry.Event) {
	var msg types.Message
	switch e := ev.(type) {
	case telemetry.Log:
		msg = logMessage(e.Text)
	case telemetry.Temperature:
		msg = temperatureMessage(b.tracker.Snapshot())
	case telemetry.Power:
		msg = powerMessage(b.tracker.Snapshot())
	case telemetry.Progress:
		msg = progressMessage(b.tracker.Snapshot())
	case telemetry.Position:
		msg = positionMessage(b.tracker.Snapshot())
	case telemetry.Status:
		msg = statusMessage(e.Connected)
	case telemetry.FirmwareError:
		msg = errorMessage(e.Code, e.Text)
	default:
		return
	}
	eventsTotal.WithLabelValues(msg.Type).Inc()
	b.hub.Broadcast(msg)
}

package bridge

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"printerd/internal/state"
	"printerd/pkg/types"
)

type recorder struct {
	mu   sync.Mutex
	msgs []types.Message
}

func (r *recorder) Broadcast(m types.Message) {
	r.mu.Lock()
	r.msgs = append(r.msgs, m)
	r.mu.Unlock()
}

func (r *recorder) all() []types.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]types.Message(nil), r.msgs...)
}

func newTestBridge(cfg Config) (*Bridge, *recorder) {
	rec := &recorder{}
	return New(cfg, state.New(), rec), rec
}

func TestHandleDataBroadcastsLogFirst(t *testing.T) {
	br, rec := newTestBridge(Config{})
	br.HandleData([]byte("T:210.0/210.0 B:60.0/60.0 @:127 B@:64\n"))

	msgs := rec.all()
	if len(msgs) != 3 {
		t.Fatalf("expected log+temperature+power, got %d messages", len(msgs))
	}
	if msgs[0].Type != types.MessageLog || msgs[1].Type != types.MessageTemperature || msgs[2].Type != types.MessagePower {
		t.Fatalf("unexpected order: %s %s %s", msgs[0].Type, msgs[1].Type, msgs[2].Type)
	}

	var tm types.TemperatureMessage
	if err := json.Unmarshal(msgs[1].Payload, &tm); err != nil {
		t.Fatalf("temperature payload: %v", err)
	}
	if tm.Nozzle.Current != 210 || tm.Bed.Current != 60 {
		t.Fatalf("unexpected temperature payload: %s", msgs[1].Payload)
	}

	var pm types.PowerMessage
	if err := json.Unmarshal(msgs[2].Payload, &pm); err != nil {
		t.Fatalf("power payload: %v", err)
	}
	if pm.NozzlePWM != 127 || pm.BedPWM != 64 {
		t.Fatalf("unexpected power payload: %s", msgs[2].Payload)
	}
}

func TestCategoryMessagesCarryWholeState(t *testing.T) {
	br, rec := newTestBridge(Config{})
	br.HandleData([]byte("T:23.9/0.0 B:22.5/0.0 X:24.1/0.0 C@:31.5\n"))
	br.HandleData([]byte("T:24.0/0.0 B:22.6/0.0\n"))

	msgs := rec.all()
	last := msgs[len(msgs)-1]
	if last.Type != types.MessageTemperature {
		t.Fatalf("expected temperature last, got %s", last.Type)
	}
	var tm types.TemperatureMessage
	if err := json.Unmarshal(last.Payload, &tm); err != nil {
		t.Fatalf("payload: %v", err)
	}
	// The second line had no heatbreak/chamber, but the rebuilt message
	// still carries the last-known readings.
	if tm.Heatbreak.Current != 24.1 || tm.Chamber.Current != 31.5 {
		t.Fatalf("whole-category rebuild lost readings: %s", last.Payload)
	}
}

func TestHandleConnectSendsGreetingAndStatus(t *testing.T) {
	dev := &bytes.Buffer{}
	br, rec := newTestBridge(Config{Greeting: []string{"M300 S2000 P50", "M155 S2", "M73"}})
	br.HandleConnect(dev)

	want := "M300 S2000 P50\nM155 S2\nM73\n"
	if dev.String() != want {
		t.Fatalf("greeting: got %q want %q", dev.String(), want)
	}
	msgs := rec.all()
	if len(msgs) != 1 || msgs[0].Type != types.MessageStatus {
		t.Fatalf("expected one status message, got %+v", msgs)
	}
	var sm types.StatusMessage
	if err := json.Unmarshal(msgs[0].Payload, &sm); err != nil || !sm.Connected {
		t.Fatalf("unexpected status payload: %s", msgs[0].Payload)
	}
}

func TestConnectResetsTornLine(t *testing.T) {
	br, rec := newTestBridge(Config{})
	br.HandleConnect(&bytes.Buffer{})
	br.HandleData([]byte("torn fragment without terminator"))
	br.HandleDisconnect()
	br.HandleConnect(&bytes.Buffer{})
	br.HandleData([]byte("fresh\n"))

	for _, m := range rec.all() {
		if m.Type != types.MessageLog {
			continue
		}
		var lm types.LogMessage
		if err := json.Unmarshal(m.Payload, &lm); err != nil {
			t.Fatalf("log payload: %v", err)
		}
		if lm.Text != "fresh" {
			t.Fatalf("torn line leaked into new session: %q", lm.Text)
		}
	}
}

func TestDisconnectKeepsReadings(t *testing.T) {
	br, rec := newTestBridge(Config{})
	br.HandleConnect(&bytes.Buffer{})
	br.HandleData([]byte("T:210.0/210.0 B:60.0/60.0\n"))
	br.HandleDisconnect()

	st := br.State()
	if st.Connected {
		t.Fatalf("expected disconnected")
	}
	if st.Temps.Nozzle.Current != 210 {
		t.Fatalf("disconnect cleared readings: %+v", st.Temps)
	}
	last := rec.all()[len(rec.all())-1]
	if last.Type != types.MessageStatus {
		t.Fatalf("expected trailing status message, got %s", last.Type)
	}
}

func TestSendCommand(t *testing.T) {
	br, _ := newTestBridge(Config{})
	if err := br.SendCommand("G28"); !IsNotConnected(err) {
		t.Fatalf("expected not-connected error, got %v", err)
	}

	dev := &bytes.Buffer{}
	br.HandleConnect(dev)
	if err := br.SendCommand("G28"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if dev.String() != "G28\n" {
		t.Fatalf("command not verbatim: %q", dev.String())
	}
}

func TestFirmwareErrorBroadcast(t *testing.T) {
	br, rec := newTestBridge(Config{})
	br.HandleData([]byte("Error: 153 heater failure\n"))
	msgs := rec.all()
	if len(msgs) != 2 || msgs[1].Type != types.MessageError {
		t.Fatalf("expected log+error, got %+v", msgs)
	}
	var em types.ErrorMessage
	if err := json.Unmarshal(msgs[1].Payload, &em); err != nil || em.Code != 153 {
		t.Fatalf("unexpected error payload: %s", msgs[1].Payload)
	}
}

func TestLogMessageFitsWireCap(t *testing.T) {
	br, rec := newTestBridge(Config{})
	// Quotes double in size when escaped, pushing the serialized form well
	// past the cap while the raw line stays under the assembler limit.
	line := strings.Repeat(`"`, 400)
	br.HandleData([]byte(line + "\n"))

	msgs := rec.all()
	if len(msgs) == 0 || msgs[0].Type != types.MessageLog {
		t.Fatalf("expected log message, got %+v", msgs)
	}
	if len(msgs[0].Payload) > types.MaxMessageBytes {
		t.Fatalf("payload exceeds cap: %d bytes", len(msgs[0].Payload))
	}
	if !json.Valid(msgs[0].Payload) {
		t.Fatalf("truncated payload is not valid JSON: %s", msgs[0].Payload)
	}
	var lm types.LogMessage
	if err := json.Unmarshal(msgs[0].Payload, &lm); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if !strings.HasPrefix(line, lm.Text) {
		t.Fatalf("truncated text is not a prefix of the input")
	}
}

func TestCatchUpMessages(t *testing.T) {
	br, _ := newTestBridge(Config{})
	br.HandleData([]byte("T:210.0/210.0 B:60.0/60.0\n"))

	msgs := CatchUpMessages(br.State())
	wantOrder := []string{
		types.MessageStatus,
		types.MessageTemperature,
		types.MessageProgress,
		types.MessagePosition,
		types.MessagePower,
	}
	if len(msgs) != len(wantOrder) {
		t.Fatalf("expected %d messages, got %d", len(wantOrder), len(msgs))
	}
	for i, m := range msgs {
		if m.Type != wantOrder[i] {
			t.Fatalf("catch-up order: got %s at %d, want %s", m.Type, i, wantOrder[i])
		}
		if len(m.Payload) > types.MaxMessageBytes || !json.Valid(m.Payload) {
			t.Fatalf("bad payload for %s: %s", m.Type, m.Payload)
		}
	}
}

func TestArchiveReceivesRawLines(t *testing.T) {
	arch := &bytes.Buffer{}
	br, _ := newTestBridge(Config{Archive: arch})
	br.HandleData([]byte("one\ntwo\n"))
	if arch.String() != "one\ntwo\n" {
		t.Fatalf("unexpected archive: %q", arch.String())
	}
}

func TestRecentLines(t *testing.T) {
	br, _ := newTestBridge(Config{HistoryLines: 2})
	br.HandleData([]byte("a\nb\nc\n"))
	got := br.Recent()
	if len(got) != 2 || got[0] != "b" || got[1] != "c" {
		t.Fatalf("unexpected recent lines: %q", got)
	}
}

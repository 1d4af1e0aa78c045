package httpapi

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"printerd/internal/hub"
	"printerd/pkg/types"
)

func testCatchUp() []types.Message {
	return []types.Message{
		{Type: types.MessageStatus, Payload: []byte(`{"type":"status","connected":true}`)},
		{Type: types.MessageTemperature, Payload: []byte(`{"type":"temperature"}`)},
	}
}

// wsFixture wires a real hub to a Broker behind an httptest server and runs
// the delivery loop for the duration of the test.
func wsFixture(t *testing.T, slots int, svc *mockService) (*hub.Hub, *httptest.Server) {
	t.Helper()
	h := hub.New(hub.Config{Slots: slots, QueueSize: 8, Interval: 2 * time.Millisecond}, testCatchUp)
	broker := NewBroker(BrokerConfig{}, h, svc)
	srv := httptest.NewServer(NewMux(svc, broker))

	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx, broker)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return h, srv
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return c
}

func readTyped(t *testing.T, c *websocket.Conn) string {
	t.Helper()
	_ = c.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, p, err := c.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var m struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(p, &m); err != nil {
		t.Fatalf("unmarshal %q: %v", p, err)
	}
	return m.Type
}

func TestWS_CatchUpThenBroadcast(t *testing.T) {
	svc := &mockService{connected: true}
	h, srv := wsFixture(t, 2, svc)

	c := dialWS(t, srv)
	defer c.Close()

	if got := readTyped(t, c); got != types.MessageStatus {
		t.Fatalf("first message type=%q", got)
	}
	if got := readTyped(t, c); got != types.MessageTemperature {
		t.Fatalf("second message type=%q", got)
	}

	h.Broadcast(types.Message{Type: types.MessageProgress, Payload: []byte(`{"type":"progress","percent":42}`)})
	if got := readTyped(t, c); got != types.MessageProgress {
		t.Fatalf("broadcast message type=%q", got)
	}
}

func TestWS_CommandFrameForwarded(t *testing.T) {
	svc := &mockService{connected: true}
	_, srv := wsFixture(t, 2, svc)

	c := dialWS(t, srv)
	defer c.Close()
	readTyped(t, c)
	readTyped(t, c)

	// Unknown frame types are ignored; a command frame reaches the device.
	if err := c.WriteJSON(types.ClientFrame{Type: "ping"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := c.WriteJSON(types.ClientFrame{Type: "command", Command: "G28"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if sent := svc.sentCommands(); len(sent) == 1 && sent[0] == "G28" {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("command not forwarded, sent=%v", svc.sentCommands())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestWS_RegistryFullCloses1013(t *testing.T) {
	svc := &mockService{connected: true}
	_, srv := wsFixture(t, 1, svc)

	first := dialWS(t, srv)
	defer first.Close()
	readTyped(t, first)

	second := dialWS(t, srv)
	defer second.Close()
	_ = second.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := second.ReadMessage()
	if err == nil {
		t.Fatalf("expected close error on full registry")
	}
	if !websocket.IsCloseError(err, websocket.CloseTryAgainLater) {
		t.Fatalf("expected 1013 try-again-later, got %v", err)
	}
}

func TestWS_SlotFreedOnClientClose(t *testing.T) {
	svc := &mockService{connected: true}
	_, srv := wsFixture(t, 1, svc)

	first := dialWS(t, srv)
	readTyped(t, first)
	first.Close()

	// Cleanup is asynchronous; the slot becomes free once the session notices
	// the closed socket.
	deadline := time.Now().Add(2 * time.Second)
	for {
		second, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
		if err == nil {
			_ = second.SetReadDeadline(time.Now().Add(2 * time.Second))
			if _, _, err := second.ReadMessage(); err == nil {
				second.Close()
				return
			}
			second.Close()
		}
		if time.Now().After(deadline) {
			t.Fatalf("slot never freed after client close")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

package e2e

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"printerd/internal/bridge"
	"printerd/internal/device"
	"printerd/internal/httpapi"
	"printerd/internal/hub"
	"printerd/internal/sim"
	"printerd/internal/state"
	"printerd/pkg/types"
)

// stack is the full daemon wired against a simulated printer: sim TCP server
// <- device source <- bridge <- hub/broker <- httptest HTTP server.
type stack struct {
	sim *sim.Server
	br  *bridge.Bridge
	fan *hub.Hub
	srv *httptest.Server
}

// startStack boots a simulator and the daemon around it, with cadences tuned
// for tests. Everything is torn down via t.Cleanup.
func startStack(t *testing.T) *stack {
	t.Helper()

	fake := sim.NewServer(sim.Config{Addr: "127.0.0.1:0", ReportInterval: 50 * time.Millisecond})
	if err := fake.Listen(); err != nil {
		t.Fatalf("sim listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	go fake.Serve(ctx)

	var br *bridge.Bridge
	fan := hub.New(hub.Config{Interval: 2 * time.Millisecond},
		func() []types.Message { return bridge.CatchUpMessages(br.State()) })
	br = bridge.New(bridge.Config{
		Greeting: []string{"M300 S2000 P50", "M73"},
	}, state.New(), fan)

	src := device.New(device.Config{
		Device:         "tcp://" + fake.Addr(),
		ReconnectDelay: 50 * time.Millisecond,
	}, br)

	broker := httpapi.NewBroker(httpapi.BrokerConfig{}, fan, br)
	srv := httptest.NewServer(httpapi.NewMux(br, broker))

	go fan.Run(ctx, broker)
	go src.Run(ctx)

	t.Cleanup(func() {
		cancel()
		srv.Close()
		fake.Close()
	})
	return &stack{sim: fake, br: br, fan: fan, srv: srv}
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func httpPostJSON(t *testing.T, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, strings.NewReader(string(payload)))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

// waitStatus polls url until it returns want or the deadline passes.
func waitStatus(t *testing.T, url string, want int, within time.Duration) {
	t.Helper()
	deadline := time.Now().Add(within)
	last := 0
	for {
		resp, _ := httpGet(t, url)
		last = resp.StatusCode
		if last == want {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("%s never returned %d; last=%d", url, want, last)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

// dialWS opens a websocket subscriber against the stack's /ws endpoint.
func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("ws dial: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

// waitMessage reads frames until one of the wanted type arrives, returning
// its decoded payload.
func waitMessage(t *testing.T, c *websocket.Conn, wantType string, within time.Duration) map[string]any {
	t.Helper()
	_ = c.SetReadDeadline(time.Now().Add(within))
	for {
		_, p, err := c.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %q message: %v", wantType, err)
		}
		var m map[string]any
		if err := json.Unmarshal(p, &m); err != nil {
			t.Fatalf("bad frame %q: %v", p, err)
		}
		if m["type"] == wantType {
			return m
		}
	}
}

package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/arnvid/norsechat/internal/core"
	"github.com/arnvid/norsechat/internal/session"
)

func testServer(t *testing.T) (*httptest.Server, *core.Registry) {
	t.Helper()

	logger := zerolog.Nop()
	reg := core.NewRegistry("midgard", "ODIN", "asgard")
	router := core.NewRouter(reg, &logger)
	handler := session.NewHandler(reg, router, &logger)

	srv := NewServer(":0", time.Second, handler, reg, &logger)
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(func() {
		reg.CloseAll()
		ts.Close()
	})
	return ts, reg
}

func TestHealthz(t *testing.T) {
	ts, _ := testServer(t)

	resp, err := stdhttp.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != stdhttp.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestStatsSnapshot(t *testing.T) {
	ts, reg := testServer(t)

	for _, name := range []string{"bjorn", "freya"} {
		if err := reg.Register(name, nopConn{}); err != nil {
			t.Fatalf("register: %v", err)
		}
	}
	if _, _, err := reg.MoveToRoom("freya", "asgard"); err != nil {
		t.Fatalf("move: %v", err)
	}

	resp, err := stdhttp.Get(ts.URL + "/stats")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	var st StatsResponse
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if st.Clients != 2 || st.Rooms != 2 {
		t.Fatalf("unexpected stats: %+v", st)
	}
	if st.RoomSizes["midgard"] != 1 || st.RoomSizes["asgard"] != 1 {
		t.Fatalf("unexpected room sizes: %+v", st.RoomSizes)
	}
}

// nopConn satisfies core.Conn for registry-only fixtures.
type nopConn struct{}

func (nopConn) WriteLine(string) error { return nil }
func (nopConn) Close() error           { return nil }
func (nopConn) RemoteAddr() string     { return "nop:0" }

type wsClient struct {
	conn *websocket.Conn
	ctx  context.Context
}

func dialWS(t *testing.T, ts *httptest.Server, name string) *wsClient {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "test over") })

	c := &wsClient{conn: conn, ctx: ctx}
	c.send(t, name)
	return c
}

func (c *wsClient) send(t *testing.T, line string) {
	t.Helper()
	if err := c.conn.Write(c.ctx, websocket.MessageText, []byte(line)); err != nil {
		t.Fatalf("ws write: %v", err)
	}
}

func (c *wsClient) expect(t *testing.T, substr string) {
	t.Helper()
	for {
		_, data, err := c.conn.Read(c.ctx)
		if err != nil {
			t.Fatalf("waiting for %q: %v", substr, err)
		}
		if strings.Contains(string(data), substr) {
			return
		}
	}
}

// TestWSSessionSpeaksLineProtocol drives a chat session over the
// WebSocket transport: same handshake, commands, and notices as TCP.
func TestWSSessionSpeaksLineProtocol(t *testing.T) {
	ts, reg := testServer(t)

	bjorn := dialWS(t, ts, "bjorn")
	bjorn.expect(t, "Joining midgard...")

	freya := dialWS(t, ts, "freya")
	freya.expect(t, "Joining midgard...")
	bjorn.expect(t, `"freya" has joined midgard!`)

	bjorn.send(t, "skol!")
	freya.expect(t, "bjorn: skol!")

	bjorn.send(t, "%u")
	bjorn.expect(t, "List of Users in midgard:")

	bjorn.send(t, "%q")
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := reg.Lookup("bjorn"); !ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("bjorn still registered after quit")
}

package control

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-trace/engine/mirror"
	"github.com/Carmen-Shannon/oxy-trace/engine/runstate"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeController struct {
	mu       sync.Mutex
	commands []runstate.Command
	status   *mirror.Status
	full     bool
}

func (f *fakeController) Submit(cmd runstate.Command) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.full {
		return false
	}
	f.commands = append(f.commands, cmd)
	return true
}

func (f *fakeController) Status() (mirror.Status, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.status == nil {
		return mirror.Status{}, false
	}
	return *f.status, true
}

func (f *fakeController) setStatus(s mirror.Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = &s
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readType reads messages until one of the given type arrives.
func readType(t *testing.T, conn *websocket.Conn, typ string) Response {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var resp Response
		require.NoError(t, conn.ReadJSON(&resp))
		if resp.Type == typ {
			return resp
		}
	}
}

func TestCommandRoundTrip(t *testing.T) {
	ctrl := &fakeController{}
	srv := httptest.NewServer(NewServer(ctrl, WithStatusInterval(10*time.Millisecond)).Handler())
	defer srv.Close()
	conn := dial(t, srv)

	require.NoError(t, conn.WriteJSON(Request{Command: "toggle"}))
	ack := readType(t, conn, MessageAck)
	assert.Equal(t, "toggle", ack.Command)
	assert.True(t, ack.Accepted)

	require.NoError(t, conn.WriteJSON(Request{Command: "explode"}))
	errResp := readType(t, conn, MessageError)
	assert.Contains(t, errResp.Error, "explode")

	ctrl.mu.Lock()
	ctrl.full = true
	ctrl.mu.Unlock()
	require.NoError(t, conn.WriteJSON(Request{Command: "reset"}))
	ack = readType(t, conn, MessageAck)
	assert.False(t, ack.Accepted)

	ctrl.mu.Lock()
	assert.Equal(t, []runstate.Command{runstate.CommandToggle}, ctrl.commands)
	ctrl.mu.Unlock()
}

func TestStatusPush(t *testing.T) {
	ctrl := &fakeController{}
	srv := httptest.NewServer(NewServer(ctrl, WithStatusInterval(5*time.Millisecond)).Handler())
	defer srv.Close()
	conn := dial(t, srv)

	ctrl.setStatus(mirror.Status{Frame: 7, State: "Running", Text: "Rendering", Action: "Pause", Progress: 0.25})
	resp := readType(t, conn, MessageStatus)
	require.NotNil(t, resp.Status)
	assert.Equal(t, uint64(7), resp.Status.Frame)
	assert.Equal(t, "Pause", resp.Status.Action)

	ctrl.setStatus(mirror.Status{Frame: 8, State: "Done", Text: "Done!", Action: "Reset", Progress: 1})
	resp = readType(t, conn, MessageStatus)
	assert.Equal(t, uint64(8), resp.Status.Frame)
}

func TestStatusEndpoint(t *testing.T) {
	ctrl := &fakeController{}
	srv := httptest.NewServer(NewServer(ctrl).Handler())
	defer srv.Close()

	res, err := http.Get(srv.URL + "/status")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, res.StatusCode)

	ctrl.setStatus(mirror.Status{Frame: 3, State: "Waiting"})
	res, err = http.Get(srv.URL + "/status")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var got mirror.Status
	require.NoError(t, json.NewDecoder(res.Body).Decode(&got))
	assert.Equal(t, uint64(3), got.Frame)
}

func TestServeStopsOnCancel(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- NewServer(&fakeController{}).Serve(ctx, l) }()

	require.Eventually(t, func() bool {
		res, err := http.Get("http://" + l.Addr().String() + "/status")
		if err != nil {
			return false
		}
		res.Body.Close()
		return true
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

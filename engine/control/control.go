package control

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-trace/common"
	"github.com/Carmen-Shannon/oxy-trace/engine/mirror"
	"github.com/Carmen-Shannon/oxy-trace/engine/runstate"
	"github.com/gorilla/websocket"
)

// Message types sent to clients.
const (
	MessageStatus = "status"
	MessageAck    = "ack"
	MessageError  = "error"
)

// Controller is the part of the engine a control client can reach.
type Controller interface {
	Submit(cmd runstate.Command) bool
	Status() (mirror.Status, bool)
}

// Request is a client message.
type Request struct {
	Command string `json:"command"`
}

// Response is a server message. Status is set for MessageStatus,
// Command and Accepted for MessageAck, Error for MessageError.
type Response struct {
	Type     string         `json:"type"`
	Status   *mirror.Status `json:"status,omitempty"`
	Command  string         `json:"command,omitempty"`
	Accepted bool           `json:"accepted,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// Server exposes run commands and the live status over a websocket at /ws,
// and the latest status as JSON at /status.
type Server interface {
	// Handler returns the HTTP handler serving /ws and /status.
	Handler() http.Handler

	// ListenAndServe serves on addr until ctx is cancelled.
	//
	// Parameters:
	//   - ctx: stops the server
	//   - addr: the listen address
	//
	// Returns:
	//   - error: listen errors, nil after ctx is cancelled
	ListenAndServe(ctx context.Context, addr string) error

	// Serve serves on an existing listener until ctx is cancelled.
	Serve(ctx context.Context, l net.Listener) error
}

type server struct {
	ctrl           Controller
	upgrader       websocket.Upgrader
	statusInterval time.Duration
	writeTimeout   time.Duration
	mux            *http.ServeMux
}

var _ Server = &server{}

// NewServer creates a control Server for ctrl.
//
// Parameters:
//   - ctrl: the engine to control
//   - options: functional options
//
// Returns:
//   - Server: the server
func NewServer(ctrl Controller, options ...ServerBuilderOption) Server {
	if ctrl == nil {
		panic("control: controller must not be nil")
	}
	s := &server{
		ctrl:           ctrl,
		statusInterval: 250 * time.Millisecond,
		writeTimeout:   5 * time.Second,
	}
	for _, opt := range options {
		opt(s)
	}
	s.mux = http.NewServeMux()
	s.mux.HandleFunc("/ws", s.handleSocket)
	s.mux.HandleFunc("/status", s.handleStatus)
	return s
}

func (s *server) Handler() http.Handler {
	return s.mux
}

func (s *server) ListenAndServe(ctx context.Context, addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, l)
}

func (s *server) Serve(ctx context.Context, l net.Listener) error {
	hs := &http.Server{Handler: s.mux, BaseContext: func(net.Listener) context.Context { return ctx }}
	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = hs.Shutdown(shutdown)
	}()

	common.Logger().Info("control server listening", "addr", l.Addr().String())
	if err := hs.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, ok := s.ctrl.Status()
	if !ok {
		http.Error(w, "no frame yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(status)
}

// handleSocket runs one client: a reader goroutine applies commands and queues acks,
// and this goroutine is the only writer, interleaving acks with periodic status.
func (s *server) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		common.Logger().Warn("control upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	log := common.Logger().With("component", "control", "remote", r.RemoteAddr)
	log.Info("client connected")
	defer log.Info("client disconnected")

	replies := make(chan Response, 8)
	done := make(chan struct{})
	var once sync.Once
	stop := func() { once.Do(func() { close(done) }) }

	go func() {
		defer stop()
		for {
			var req Request
			if err := conn.ReadJSON(&req); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Debug("read failed", "err", err)
				}
				return
			}
			select {
			case replies <- s.apply(req):
			case <-done:
				return
			}
		}
	}()

	ticker := time.NewTicker(s.statusInterval)
	defer ticker.Stop()

	var last mirror.Status
	sent := false
	for {
		var resp Response
		select {
		case <-done:
			return
		case <-r.Context().Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(time.Second))
			return
		case resp = <-replies:
		case <-ticker.C:
			status, ok := s.ctrl.Status()
			if !ok || (sent && status == last) {
				continue
			}
			last, sent = status, true
			resp = Response{Type: MessageStatus, Status: &status}
		}
		_ = conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
		if err := conn.WriteJSON(resp); err != nil {
			log.Debug("write failed", "err", err)
			stop()
			return
		}
	}
}

// apply submits one client command.
func (s *server) apply(req Request) Response {
	cmd, ok := runstate.ParseCommand(req.Command)
	if !ok {
		return Response{Type: MessageError, Error: "unknown command " + req.Command}
	}
	accepted := s.ctrl.Submit(cmd)
	return Response{Type: MessageAck, Command: cmd.String(), Accepted: accepted}
}

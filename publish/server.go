package publish

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/tkw1536/gogokeyboard/hub"
	"github.com/tkw1536/gogokeyboard/key"
	"github.com/tkw1536/gogokeyboard/logging"
)

var serverLogger zerolog.Logger

func init() {
	logging.ComponentLogger("publish.Server", &serverLogger)
}

const (
	writeDeadline = 5 * time.Second
	pingInterval  = 30 * time.Second
	readDeadline  = 3 * pingInterval
)

// DefaultTopic is the topic key events are published on.
const DefaultTopic = "key_press"

// Server publishes the events of a Hub to websocket clients.
//
// Clients connect to /<Topic>.
// Each client has its own subscription, so it receives every event dispatched after it connected, in order.
// GET /pressed returns the currently pressed keys.
type Server struct {
	Hub *hub.Hub

	// Topic is the name of the topic, defaults to DefaultTopic.
	Topic string

	CORSDomains string

	m      sync.Mutex
	conns  map[*websocket.Conn]struct{}
	closed bool
	wg     sync.WaitGroup
}

type jsonMessage struct {
	Message string `json:"message"`
}

func (server *Server) topic() string {
	if server.Topic == "" {
		return DefaultTopic
	}
	return strings.Trim(server.Topic, "/")
}

// ServeHTTP responds to a http request
func (server *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(r.URL.Path, "/")
	switch {
	case r.Method == http.MethodOptions:
		server.writeJSON(w, http.StatusOK, jsonMessage{Message: "this is fine"})
	case path == server.topic():
		server.serveTopic(w, r)
	case path == "pressed" && r.Method == http.MethodGet:
		server.servePressed(w, r)
	case path == "pressed":
		server.writeJSON(w, http.StatusMethodNotAllowed, jsonMessage{Message: "method not allowed"})
	default:
		server.writeJSON(w, http.StatusNotFound, jsonMessage{Message: "not found"})
	}
}

func (server *Server) servePressed(w http.ResponseWriter, r *http.Request) {
	snapshot := server.Hub.Snapshot()

	pressed := make([]key.Event, 0, len(snapshot))
	for _, event := range snapshot {
		pressed = append(pressed, event)
	}
	sort.Slice(pressed, func(i, j int) bool {
		return pressed[i].Code < pressed[j].Code
	})
	server.writeJSON(w, http.StatusOK, pressed)
}

func (server *Server) serveTopic(w http.ResponseWriter, r *http.Request) {
	if !server.track(nil) {
		server.writeJSON(w, http.StatusServiceUnavailable, jsonMessage{Message: "server closed"})
		return
	}

	sub, err := server.Hub.Subscribe()
	if err != nil {
		serverLogger.Warn().Err(err).Msg("rejecting client")
		server.writeJSON(w, http.StatusServiceUnavailable, jsonMessage{Message: err.Error()})
		return
	}
	defer sub.Cancel()

	upgrader := websocket.Upgrader{}
	if server.CORSDomains != "" {
		upgrader.CheckOrigin = func(*http.Request) bool { return true }
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		serverLogger.Warn().Err(err).Msg("upgrade failed")
		return
	}
	if !server.track(conn) {
		conn.Close()
		return
	}
	defer server.untrack(conn)

	logger := serverLogger.With().Str("remote", conn.RemoteAddr().String()).Str("subscription", sub.ID()).Logger()
	logger.Info().Msg("client connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// read pump: the client is not expected to send anything, but reading processes pongs and close frames.
	conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readDeadline))
	})
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	var writeMu sync.Mutex
	write := func(messageType int, data []byte) error {
		writeMu.Lock()
		defer writeMu.Unlock()

		conn.SetWriteDeadline(time.Now().Add(writeDeadline))
		return conn.WriteMessage(messageType, data)
	}

	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := write(websocket.PingMessage, nil); err != nil {
					cancel()
					return
				}
			}
		}
	}()

	err = sub.Each(ctx, func(event key.Event) error {
		data, err := Encode(event)
		if err != nil {
			return err
		}
		return write(websocket.TextMessage, data)
	})

	if err == nil {
		// the hub was closed
		write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "closed"))
	}
	conn.Close()
	logger.Info().AnErr("reason", err).Msg("client disconnected")
}

// track registers conn with this server.
// A nil conn only checks if the server is still accepting connections.
func (server *Server) track(conn *websocket.Conn) bool {
	server.m.Lock()
	defer server.m.Unlock()

	if server.closed {
		return false
	}
	if conn == nil {
		return true
	}
	if server.conns == nil {
		server.conns = make(map[*websocket.Conn]struct{})
	}
	server.conns[conn] = struct{}{}
	server.wg.Add(1)
	return true
}

func (server *Server) untrack(conn *websocket.Conn) {
	server.m.Lock()
	defer server.m.Unlock()

	delete(server.conns, conn)
	server.wg.Done()
}

// Close disconnects all websocket clients and waits for their handlers to return.
// Close is idempotent.
func (server *Server) Close() error {
	server.m.Lock()
	if server.closed {
		server.m.Unlock()
		return nil
	}
	server.closed = true
	for conn := range server.conns {
		conn.Close()
	}
	server.m.Unlock()

	server.wg.Wait()
	serverLogger.Info().Msg("closed")
	return nil
}

func (server *Server) writeJSON(w http.ResponseWriter, statusCode int, content interface{}) {
	bytes, err := json.Marshal(content)
	if err != nil {
		w.WriteHeader(statusCode)
		return
	}
	h := w.Header()

	h.Add("Content-Type", "application/json")
	if server.CORSDomains != "" {
		h.Add("Access-Control-Allow-Origin", server.CORSDomains)
		h.Add("Access-Control-Allow-Methods", "GET,OPTIONS")
		h.Add("Access-Control-Allow-Headers", "*")
	}
	w.WriteHeader(statusCode)

	w.Write(bytes)
}

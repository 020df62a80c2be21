package publish

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/tkw1536/gogokeyboard/hub"
	"github.com/tkw1536/gogokeyboard/key"
)

func waitFor(t *testing.T, what string, fn func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for !fn() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func dial(t *testing.T, ts *httptest.Server, path string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial(%q): %v", url, err)
	}
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) key.Event {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	kind, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage(): %v", err)
	}
	if kind != websocket.TextMessage {
		t.Fatalf("got message type %d, want text", kind)
	}
	event, err := Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	return event
}

func TestServer_topic(t *testing.T) {
	h := hub.New(nil, hub.DefaultConfig())
	server := &Server{Hub: h}
	ts := httptest.NewServer(server)
	defer ts.Close()
	defer server.Close()

	first := dial(t, ts, "/key_press")
	defer first.Close()
	second := dial(t, ts, "/key_press")
	defer second.Close()
	waitFor(t, "both clients to subscribe", func() bool { return h.Stats().Subscribers == 2 })

	h.Dispatch(key.Down("A", 4, key.LCtrl))
	h.Dispatch(key.Down("B", 5, key.LCtrl))
	h.Dispatch(key.Up("A", 4, 0))

	want := []key.Event{
		{Symbol: "A", Code: 4, Modifiers: key.LCtrl, Pressed: true},
		{Symbol: "B", Code: 5, Modifiers: key.LCtrl, Pressed: true},
		{Symbol: "A", Code: 4, Pressed: false},
	}
	for _, conn := range []*websocket.Conn{first, second} {
		for i, w := range want {
			if got := readEvent(t, conn); got != w {
				t.Errorf("message %d = %v, want %v", i, got, w)
			}
		}
	}

	// a client that leaves gives up its subscription
	first.Close()
	waitFor(t, "the first client to unsubscribe", func() bool { return h.Stats().Subscribers == 1 })

	// closing the hub ends the stream with a normal close frame
	h.Close()
	second.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := second.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Errorf("ReadMessage() after hub close = %v, want a normal close", err)
	}
}

func TestServer_customTopic(t *testing.T) {
	h := hub.New(nil, hub.DefaultConfig())
	defer h.Close()

	server := &Server{Hub: h, Topic: "/keys/"}
	ts := httptest.NewServer(server)
	defer ts.Close()
	defer server.Close()

	conn := dial(t, ts, "/keys")
	defer conn.Close()
	waitFor(t, "the client to subscribe", func() bool { return h.Stats().Subscribers == 1 })

	h.Dispatch(key.Down("Space", 44, 0))
	if got := readEvent(t, conn); got.Code != 44 {
		t.Errorf("got %v, want press of Space", got)
	}
}

func TestServer_pressed(t *testing.T) {
	h := hub.New(nil, hub.DefaultConfig())
	defer h.Close()

	server := &Server{Hub: h, CORSDomains: "*"}
	ts := httptest.NewServer(server)
	defer ts.Close()

	h.Dispatch(key.Down("C", 6, 0))
	h.Dispatch(key.Down("A", 4, 0))
	h.Dispatch(key.Down("B", 5, 0))
	h.Dispatch(key.Up("B", 5, 0))

	res, err := http.Get(ts.URL + "/pressed")
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", res.StatusCode)
	}
	if got := res.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}

	var pressed []key.Event
	if err := json.NewDecoder(res.Body).Decode(&pressed); err != nil {
		t.Fatal(err)
	}
	if len(pressed) != 2 || pressed[0].Code != 4 || pressed[1].Code != 6 {
		t.Errorf("pressed = %v, want A and C ordered by code", pressed)
	}
}

func TestServer_rejects(t *testing.T) {
	config := hub.DefaultConfig()
	config.MaxSubscribers = 1
	h := hub.New(nil, config)
	defer h.Close()

	server := &Server{Hub: h}
	ts := httptest.NewServer(server)
	defer ts.Close()
	defer server.Close()

	conn := dial(t, ts, "/key_press")
	defer conn.Close()
	waitFor(t, "the client to subscribe", func() bool { return h.Stats().Subscribers == 1 })

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/key_press"
	if _, res, err := websocket.DefaultDialer.Dial(url, nil); err == nil || res == nil || res.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("second Dial() = %v, want status 503", err)
	}

	res, err := http.Get(ts.URL + "/nothing")
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", res.StatusCode)
	}
}

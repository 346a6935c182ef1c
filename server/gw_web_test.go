package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/undeconstructed/solarquest/comms"
	"github.com/undeconstructed/solarquest/game"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func startWeb(t *testing.T, s *Session) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(newWebHandler(s, []string{"*"}, zerolog.Nop()))
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, v interface{}) int {
	t.Helper()
	res, err := http.Get(url)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	defer res.Body.Close()
	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
	return res.StatusCode
}

func postJSON(t *testing.T, url string, v interface{}) int {
	t.Helper()
	res, err := http.Post(url, "application/json", nil)
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	defer res.Body.Close()
	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		t.Fatalf("decode %s: %v", url, err)
	}
	return res.StatusCode
}

type wsClient struct {
	t    *testing.T
	ctx  context.Context
	conn *websocket.Conn
}

func dialWS(t *testing.T, srv *httptest.Server) *wsClient {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		Subprotocols: []string{"comms"},
	})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return &wsClient{t: t, ctx: ctx, conn: conn}
}

func (c *wsClient) send(head string, v interface{}) {
	c.t.Helper()
	msg, err := comms.Encode(head, v)
	if err != nil {
		c.t.Fatalf("encode: %v", err)
	}
	raw, _ := json.Marshal(WsJSONMessage{Head: string(msg.Head), Data: msg.Data})
	if err := c.conn.Write(c.ctx, websocket.MessageText, raw); err != nil {
		c.t.Fatalf("write: %v", err)
	}
}

func (c *wsClient) expect(head string) comms.Message {
	c.t.Helper()
	for {
		msg, err := readMessageWs(c.ctx, c.conn)
		if err != nil {
			c.t.Fatalf("waiting for %s: %v", head, err)
		}
		if msg.Type() == head {
			return msg
		}
	}
}

func TestREST(t *testing.T) {
	s := newTestSession(t, Options{})
	srv := startWeb(t, s)
	runSession(t, s)

	var st Status
	if code := getJSON(t, srv.URL+"/api/session", &st); code != http.StatusOK {
		t.Fatalf("status code %d", code)
	}
	if st.ID != s.ID() || st.Game != "inner planets" || st.Started {
		t.Errorf("status: %+v", st)
	}

	var ce comms.CommsError
	if code := getJSON(t, srv.URL+"/api/session/snapshot", &ce); code != http.StatusConflict || ce.Code != "NOTSTARTED" {
		t.Errorf("snapshot before start: %d %+v", code, ce)
	}
	if code := postJSON(t, srv.URL+"/api/session/start", &ce); code != http.StatusConflict || ce.Code != "NOPLAYERS" {
		t.Errorf("start with nobody: %d %+v", code, ce)
	}

	c1, _ := s.Connect()
	c2, _ := s.Connect()
	s.Join(c1, "ann")
	s.Join(c2, "bob")

	if code := postJSON(t, srv.URL+"/api/session/start", &st); code != http.StatusOK || !st.Started {
		t.Errorf("start: %d %+v", code, st)
	}

	var snap game.Snapshot
	if code := getJSON(t, srv.URL+"/api/session/snapshot", &snap); code != http.StatusOK {
		t.Fatalf("snapshot code %d", code)
	}
	if len(snap.Players) != 2 || snap.Players[0].Name != "ann" {
		t.Errorf("snapshot: %+v", snap)
	}
}

func TestCORS(t *testing.T) {
	s := newTestSession(t, Options{})
	srv := startWeb(t, s)

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/api/session/start", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	res.Body.Close()

	if got := res.Header.Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("allow origin %q", got)
	}
}

func TestWebSocketGateway(t *testing.T) {
	s := newTestSession(t, Options{})
	srv := startWeb(t, s)
	runSession(t, s)

	ann := dialWS(t, srv)
	bob := dialWS(t, srv)
	ann.expect("hello")
	bob.expect("hello")

	var jr comms.JoinResponse
	ann.send("join", comms.JoinRequest{Name: "ann"})
	if err := comms.Decode(ann.expect("joined"), &jr); err != nil || jr.Player != 0 {
		t.Fatalf("ann joined: %+v %v", jr, err)
	}
	bob.send("join", comms.JoinRequest{Name: "bob"})
	if err := comms.Decode(bob.expect("joined"), &jr); err != nil || jr.Player != 1 {
		t.Fatalf("bob joined: %+v %v", jr, err)
	}

	ann.send("start", nil)
	var players []int
	if err := comms.Decode(ann.expect("players"), &players); err != nil || len(players) != 1 || players[0] != 0 {
		t.Fatalf("players: %v %v", players, err)
	}

	ann.send("act", comms.ActRequest{Player: 0, Type: "no_pre_roll"})
	for {
		var ev game.Event
		if err := comms.Decode(bob.expect("event"), &ev); err != nil {
			t.Fatalf("event: %v", err)
		}
		if ev.Type == game.EventRolled {
			break
		}
	}
}

func TestWebSocketGateway_noSubprotocol(t *testing.T) {
	s := newTestSession(t, Options{})
	srv := startWeb(t, s)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	_, _, err = conn.Read(ctx)
	if websocket.CloseStatus(err) != websocket.StatusPolicyViolation {
		t.Errorf("read: %v", err)
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/Seednode/argunet/games/debate"
	"github.com/Seednode/argunet/storage"
	"github.com/gorilla/websocket"
)

// received holds the fields of any server message.
type received struct {
	Type    string          `json:"type"`
	IsHost  bool            `json:"is_host"`
	State   debate.State    `json:"state"`
	Session *debate.Session `json:"session"`
	Summary *debate.Summary `json:"summary"`
	Scoring bool            `json:"scoring"`
	Pending bool            `json:"pending"`
	Player  string          `json:"player"`
	Topic   string          `json:"topic"`
	Kind    string          `json:"kind"`
	Message string          `json:"message"`
}

func fixedScorer(v int) debate.Scorer {
	return debate.ScorerFunc(func(_ context.Context, _ debate.ScoreRequest) debate.Evaluation {
		return debate.Evaluation{Value: v, Reasoning: "fixed"}
	})
}

func testConfig() *Config {
	return &Config{
		playerTimeout:  time.Minute,
		sessionTimeout: time.Hour,
		threshold:      30,
		store:          storage.KindMemory,
		scorer:         scorerLocal,
	}
}

func newTestServer(t *testing.T, score int) (*httptest.Server, *backend) {
	t.Helper()

	cfg := testConfig()
	b := &backend{
		store:  storage.NewMemory(),
		scorer: fixedScorer(score),
		topics: debate.TopicFunc(func(context.Context) string { return "Suggested topic" }),
	}

	mux, gm, _ := newRouter(cfg, b)
	srv := httptest.NewServer(mux)

	t.Cleanup(func() {
		gm.Close()
		srv.Close()
	})

	return srv, b
}

func dial(t *testing.T, srv *httptest.Server, gameID, playerID string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/debate/" + gameID + "/ws"
	header := http.Header{"Cookie": {playerCookieName + "=" + playerID}}

	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}

// readUntil reads messages until one of type typ satisfies match.
func readUntil(t *testing.T, conn *websocket.Conn, typ string, match func(received) bool) received {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for {
		_ = conn.SetReadDeadline(deadline)

		var msg received
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("waiting for %s: %v", typ, err)
		}

		if msg.Type == typ && (match == nil || match(msg)) {
			return msg
		}
	}
}

func send(t *testing.T, conn *websocket.Conn, msg ClientMessage) {
	t.Helper()

	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %s: %v", msg.Type, err)
	}
}

func inState(state debate.State) func(received) bool {
	return func(m received) bool { return m.State == state }
}

func join(t *testing.T, srv *httptest.Server, gameID, playerID string) (*websocket.Conn, received) {
	t.Helper()

	conn := dial(t, srv, gameID, playerID)
	info := readUntil(t, conn, "session_info", nil)
	readUntil(t, conn, "game_state", nil)

	return conn, info
}

func TestDebate_FirstConnectionHosts(t *testing.T) {
	srv, _ := newTestServer(t, 5)

	_, host := join(t, srv, "hosted", "host")
	_, guest := join(t, srv, "hosted", "guest")

	if !host.IsHost {
		t.Error("first connection should be host")
	}
	if guest.IsHost {
		t.Error("second connection should not be host")
	}
}

func TestDebate_FullGame(t *testing.T) {
	srv, b := newTestServer(t, 5)

	host, _ := join(t, srv, "fullgame", "host")
	guest, _ := join(t, srv, "fullgame", "guest")

	send(t, host, ClientMessage{Type: "start", Player1: "Ada", Player2: "Grace", Threshold: 10, Topic: "Tabs or spaces?"})

	for _, conn := range []*websocket.Conn{host, guest} {
		msg := readUntil(t, conn, "game_state", inState(debate.StateActive))
		if msg.Session.Topic != "Tabs or spaces?" || msg.Session.Threshold != 10 {
			t.Errorf("started session = %+v", msg.Session)
		}
	}

	send(t, guest, ClientMessage{Type: "argue", Text: "Tabs are semantic."})

	scoring := readUntil(t, host, "scoring", nil)
	if !scoring.Pending || scoring.Player != "Ada" {
		t.Errorf("scoring = %+v, want pending for Ada", scoring)
	}

	msg := readUntil(t, host, "game_state", func(m received) bool {
		return m.Session != nil && m.Session.Rounds() == 1
	})
	if msg.Session.Players[0].Score != 5 || msg.Session.TurnIndex != 1 || msg.Scoring {
		t.Errorf("after first argument: %+v", msg.Session)
	}

	send(t, host, ClientMessage{Type: "argue", Text: "Spaces render everywhere."})
	readUntil(t, host, "game_state", func(m received) bool {
		return m.Session != nil && m.Session.Rounds() == 2
	})

	send(t, host, ClientMessage{Type: "argue", Text: "Tabs let readers choose."})
	end := readUntil(t, guest, "game_state", inState(debate.StateEnded))

	if end.Summary == nil || end.Summary.Winner != "Ada" || end.Summary.FinalScore != 10 || end.Summary.Rounds != 3 {
		t.Errorf("summary = %+v", end.Summary)
	}

	data, err := b.store.Get(context.Background(), debate.KeyPrefix+"fullgame")
	if err != nil {
		t.Fatalf("store.Get() error = %v", err)
	}
	if s, err := debate.DecodeSnapshot(data); err != nil || !s.IsOver {
		t.Errorf("stored snapshot = %+v, %v", s, err)
	}
}

func TestDebate_OnlyHostStarts(t *testing.T) {
	srv, _ := newTestServer(t, 5)

	join(t, srv, "nothost", "host")
	guest, _ := join(t, srv, "nothost", "guest")

	send(t, guest, ClientMessage{Type: "start", Player1: "Ada", Player2: "Grace", Topic: "x"})

	msg := readUntil(t, guest, "error", nil)
	if msg.Kind != kindNotHost {
		t.Errorf("error kind = %q, want %q", msg.Kind, kindNotHost)
	}

	send(t, guest, ClientMessage{Type: "reset"})

	msg = readUntil(t, guest, "error", nil)
	if msg.Kind != kindNotHost {
		t.Errorf("reset error kind = %q, want %q", msg.Kind, kindNotHost)
	}
}

func TestDebate_ErrorsGoToSender(t *testing.T) {
	srv, _ := newTestServer(t, 5)

	host, _ := join(t, srv, "errors", "host")

	send(t, host, ClientMessage{Type: "argue", Text: "too early"})
	if msg := readUntil(t, host, "error", nil); msg.Kind != kindSessionNotActive {
		t.Errorf("error kind = %q, want %q", msg.Kind, kindSessionNotActive)
	}

	send(t, host, ClientMessage{Type: "start", Player1: "Ada", Player2: " "})
	if msg := readUntil(t, host, "error", nil); msg.Kind != kindInvalidConfiguration {
		t.Errorf("error kind = %q, want %q", msg.Kind, kindInvalidConfiguration)
	}

	send(t, host, ClientMessage{Type: "start", Player1: "Ada", Player2: "Grace", Topic: "x"})
	readUntil(t, host, "game_state", inState(debate.StateActive))

	send(t, host, ClientMessage{Type: "argue", Text: "   "})
	if msg := readUntil(t, host, "error", nil); msg.Kind != kindEmptyArgument {
		t.Errorf("error kind = %q, want %q", msg.Kind, kindEmptyArgument)
	}

	bad := 2
	send(t, host, ClientMessage{Type: "vote", Player: &bad})
	if msg := readUntil(t, host, "error", nil); msg.Kind != kindInvalidPlayer {
		t.Errorf("error kind = %q, want %q", msg.Kind, kindInvalidPlayer)
	}
}

func TestDebate_StartOnlyFromSetup(t *testing.T) {
	srv, b := newTestServer(t, 5)

	host, _ := join(t, srv, "restart", "host")

	send(t, host, ClientMessage{Type: "start", Player1: "Ada", Player2: "Grace", Threshold: 5, Topic: "x"})
	readUntil(t, host, "game_state", inState(debate.StateActive))

	send(t, host, ClientMessage{Type: "start", Player1: "Eve", Player2: "Mallory", Threshold: 5, Topic: "y"})
	if msg := readUntil(t, host, "error", nil); msg.Kind != kindSessionInProgress {
		t.Errorf("restart while active: kind = %q, want %q", msg.Kind, kindSessionInProgress)
	}

	send(t, host, ClientMessage{Type: "argue", Text: "Decisive point."})
	end := readUntil(t, host, "game_state", inState(debate.StateEnded))
	if end.Session.Players[0].Name != "Ada" {
		t.Errorf("debate was replaced: %+v", end.Session.Players)
	}

	send(t, host, ClientMessage{Type: "start", Player1: "Eve", Player2: "Mallory", Threshold: 5, Topic: "y"})
	if msg := readUntil(t, host, "error", nil); msg.Kind != kindSessionInProgress {
		t.Errorf("restart while ended: kind = %q, want %q", msg.Kind, kindSessionInProgress)
	}

	data, err := b.store.Get(context.Background(), debate.KeyPrefix+"restart")
	if err != nil {
		t.Fatal(err)
	}
	if s, err := debate.DecodeSnapshot(data); err != nil || s.Players[0].Name != "Ada" {
		t.Errorf("stored snapshot = %+v, %v", s, err)
	}

	send(t, host, ClientMessage{Type: "reset"})
	readUntil(t, host, "game_state", inState(debate.StateSetup))

	send(t, host, ClientMessage{Type: "start", Player1: "Eve", Player2: "Mallory", Threshold: 5, Topic: "y"})
	msg := readUntil(t, host, "game_state", inState(debate.StateActive))
	if msg.Session.Players[0].Name != "Eve" {
		t.Errorf("start after reset: %+v", msg.Session.Players)
	}
}

func TestDebate_OversizedInput(t *testing.T) {
	srv, _ := newTestServer(t, 5)

	host, _ := join(t, srv, "oversized", "host")

	send(t, host, ClientMessage{Type: "start", Player1: "Ada", Player2: "Grace", Topic: "x"})
	readUntil(t, host, "game_state", inState(debate.StateActive))

	send(t, host, ClientMessage{Type: "argue", Text: strings.Repeat("a", debate.MaxArgumentLength+1)})
	if msg := readUntil(t, host, "error", nil); msg.Kind != kindArgumentTooLong {
		t.Errorf("error kind = %q, want %q", msg.Kind, kindArgumentTooLong)
	}

	// The server may hang up before the whole frame is written.
	_ = host.WriteJSON(ClientMessage{Type: "argue", Text: strings.Repeat("a", maxMessageSize)})

	_ = host.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var msg received
		err := host.ReadJSON(&msg)
		if err == nil {
			if msg.Type == "game_state" && msg.Session != nil && msg.Session.Rounds() > 0 {
				t.Fatal("oversized frame was accepted")
			}
			continue
		}

		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			t.Fatal("connection still open after an oversized frame")
		}
		break
	}
}

func TestDebate_MutualVoteStalemate(t *testing.T) {
	srv, _ := newTestServer(t, 5)

	host, _ := join(t, srv, "stalemate", "host")

	send(t, host, ClientMessage{Type: "start", Player1: "Ada", Player2: "Grace", Topic: "x"})
	readUntil(t, host, "game_state", inState(debate.StateActive))

	for _, p := range []int{0, 1} {
		send(t, host, ClientMessage{Type: "vote", Player: &p})
	}

	end := readUntil(t, host, "game_state", inState(debate.StateEnded))
	if end.Summary == nil || !end.Summary.Stalemate || end.Summary.Winner != "" {
		t.Errorf("summary = %+v, want stalemate", end.Summary)
	}

	send(t, host, ClientMessage{Type: "reset"})
	readUntil(t, host, "game_state", inState(debate.StateSetup))
}

func TestDebate_DefaultsAndSuggestions(t *testing.T) {
	srv, _ := newTestServer(t, 5)

	host, _ := join(t, srv, "defaults", "host")

	send(t, host, ClientMessage{Type: "suggest_topic"})
	if msg := readUntil(t, host, "topic", nil); msg.Topic != "Suggested topic" {
		t.Errorf("topic = %q", msg.Topic)
	}

	send(t, host, ClientMessage{Type: "start", Player1: "Ada", Player2: "Grace"})
	msg := readUntil(t, host, "game_state", inState(debate.StateActive))

	if msg.Session.Topic != "Suggested topic" || msg.Session.Threshold != 30 {
		t.Errorf("session = %+v, want suggested topic and default threshold", msg.Session)
	}
}

func TestDebate_ResumesStoredGame(t *testing.T) {
	srv, b := newTestServer(t, 5)

	s, err := debate.NewSession("Ada", "Grace", 30, "Saved topic")
	if err != nil {
		t.Fatal(err)
	}
	data, err := debate.EncodeSnapshot(s)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.store.Put(context.Background(), debate.KeyPrefix+"resumed", data); err != nil {
		t.Fatal(err)
	}

	conn := dial(t, srv, "resumed", "host")
	msg := readUntil(t, conn, "game_state", nil)

	if msg.State != debate.StateActive || msg.Session.Topic != "Saved topic" {
		t.Errorf("resumed state = %q, session = %+v", msg.State, msg.Session)
	}
}

func TestDebate_HostSeatReleased(t *testing.T) {
	cfg := testConfig()
	cfg.playerTimeout = 50 * time.Millisecond

	b := &backend{store: storage.NewMemory(), scorer: fixedScorer(5), topics: debate.LocalTopics{}}
	mux, gm, _ := newRouter(cfg, b)
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		gm.Close()
		srv.Close()
	})

	host, _ := join(t, srv, "handoff", "host")
	guest, info := join(t, srv, "handoff", "guest")
	if info.IsHost {
		t.Fatal("guest should not start as host")
	}

	host.Close()

	promoted := readUntil(t, guest, "session_info", nil)
	if !promoted.IsHost {
		t.Error("guest should become host once the seat is released")
	}
}

// slowStore blocks reads of one key until release is closed.
type slowStore struct {
	*storage.Memory
	key     string
	release chan struct{}
}

func (s slowStore) Get(ctx context.Context, key string) ([]byte, error) {
	if key == s.key {
		<-s.release
	}
	return s.Memory.Get(ctx, key)
}

func TestGameManager_SlowLoadDoesNotBlockOthers(t *testing.T) {
	cfg := testConfig()
	store := slowStore{Memory: storage.NewMemory(), key: debate.KeyPrefix + "slow", release: make(chan struct{})}

	gm := newGameManager(&backend{store: store, scorer: fixedScorer(5), topics: debate.LocalTopics{}}, 0)
	t.Cleanup(gm.Close)

	type result struct {
		hub *Hub
		err error
	}
	slow := make(chan result, 2)
	for range 2 {
		go func() {
			hub, err := gm.getHub(cfg, "slow")
			slow <- result{hub, err}
		}()
	}

	fast := make(chan error, 1)
	go func() {
		_, err := gm.getHub(cfg, "fast")
		fast <- err
	}()

	select {
	case err := <-fast:
		if err != nil {
			t.Fatalf("getHub(fast) error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("getHub(fast) waited on another game's load")
	}

	close(store.release)

	first, second := <-slow, <-slow
	if first.err != nil || second.err != nil {
		t.Fatalf("getHub(slow) errors = %v, %v", first.err, second.err)
	}
	if first.hub != second.hub {
		t.Error("concurrent loads of one game produced two hubs")
	}
}

func TestRedirectNewGame(t *testing.T) {
	srv, _ := newTestServer(t, 5)

	client := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}

	resp, err := client.Get(srv.URL + "/debate")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusTemporaryRedirect)
	}
	if loc := resp.Header.Get("Location"); !regexp.MustCompile(`^/debate/[A-Za-z0-9]{8}$`).MatchString(loc) {
		t.Errorf("Location = %q", loc)
	}
}

func TestRoutes(t *testing.T) {
	srv, _ := newTestServer(t, 5)

	tests := []struct {
		path   string
		status int
		ctype  string
		body   string
	}{
		{path: "/", status: http.StatusOK, ctype: "text/html", body: "argunet"},
		{path: "/healthz", status: http.StatusOK, ctype: "text/plain", body: "Ok"},
		{path: "/version", status: http.StatusOK, ctype: "text/plain", body: "argunet v" + releaseVersion},
		{path: "/robots.txt", status: http.StatusOK, ctype: "text/plain", body: "GPTBot"},
		{path: "/debate/abc123", status: http.StatusOK, ctype: "text/html", body: "argue-form"},
		{path: "/assets/debate/app.js", status: http.StatusOK, ctype: "text/javascript", body: "WebSocket"},
		{path: "/assets/debate/app.css", status: http.StatusOK, ctype: "text/css", body: "--for"},
		{path: "/assets/debate/missing.js", status: http.StatusNotFound},
		{path: "/favicons/favicon.svg", status: http.StatusOK, ctype: "image/svg+xml", body: "<svg"},
		{path: "/debate/abc123/qr", status: http.StatusOK, ctype: "image/png", body: "\x89PNG"},
		{path: "/debate/not-valid!/qr", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tt.path)
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if tt.status != http.StatusOK {
				return
			}

			if got := resp.Header.Get("Content-Type"); !strings.HasPrefix(got, tt.ctype) {
				t.Errorf("Content-Type = %q, want %q", got, tt.ctype)
			}

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(string(body), tt.body) {
				t.Errorf("body does not contain %q", tt.body)
			}
		})
	}
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{debate.ErrInvalidConfiguration, kindInvalidConfiguration},
		{fmt.Errorf("wrapped: %w", debate.ErrEmptyArgument), kindEmptyArgument},
		{debate.ErrSessionNotActive, kindSessionNotActive},
		{fmt.Errorf("%w: debate is ACTIVE", debate.ErrSessionInProgress), kindSessionInProgress},
		{debate.ErrInvalidPlayer, kindInvalidPlayer},
		{fmt.Errorf("%w: 2001 characters", debate.ErrArgumentTooLong), kindArgumentTooLong},
		{fmt.Errorf("%w: disk full", debate.ErrPersistence), kindPersistence},
		{errors.New("boom"), kindUnknown},
	}

	for _, tt := range tests {
		if got := errorKind(tt.err); got != tt.want {
			t.Errorf("errorKind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

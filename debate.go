/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Argunet Debate
//
// Two debaters share one screen (or one game link) and take turns arguing
// for and against a topic. Every argument is scored from 1 to 10 and the
// first debater to reach the threshold wins. Both debaters may instead agree
// to end early, in which case the higher score wins or the debate ends in a
// stalemate.
//
// Features:
// - WebSockets per game ID: /path/:gameid and /path/:gameid/ws
// - First connection to a game becomes host; only the host may start or reset
// - Any connected participant may argue or vote (hot-seat play)
// - Host seat is released after the host stays away for --player-timeout
// - Players identified by cookie (playerID)
// - Arguments are scored off the hub goroutine and applied when done
// - Every change is written to the session store and resumed on next visit
// - Hubs unloaded after configurable idle timeout
// - Random 8-char game IDs via crypto/rand, with server-side collision check
// - In-browser QR button to share the current session, backed by go-qrcode

package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/Seednode/argunet/games/debate"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

// Messages coming from clients
type ClientMessage struct {
	Type      string `json:"type"`                // "start", "argue", "vote", "reset", "suggest_topic"
	Player1   string `json:"player1,omitempty"`   // start
	Player2   string `json:"player2,omitempty"`   // start
	Threshold int    `json:"threshold,omitempty"` // start
	Topic     string `json:"topic,omitempty"`     // start
	Text      string `json:"text,omitempty"`      // argue
	Player    *int   `json:"player,omitempty"`    // vote
}

// SessionInfoMessage is sent on connect, and again whenever the host changes.
type SessionInfoMessage struct {
	Type             string `json:"type"` // "session_info"
	GameID           string `json:"game_id"`
	IsHost           bool   `json:"is_host"`
	DefaultThreshold int    `json:"default_threshold"`
}

// GameStateMessage carries the whole debate after every change.
type GameStateMessage struct {
	Type    string          `json:"type"` // "game_state"
	State   debate.State    `json:"state"`
	Session *debate.Session `json:"session,omitempty"`
	Summary *debate.Summary `json:"summary,omitempty"`
	Scoring bool            `json:"scoring"`
}

// ScoringMessage announces that an argument is being evaluated.
type ScoringMessage struct {
	Type    string `json:"type"` // "scoring"
	Pending bool   `json:"pending"`
	Player  string `json:"player,omitempty"`
}

type TopicMessage struct {
	Type  string `json:"type"` // "topic"
	Topic string `json:"topic"`
}

// ErrorMessage is sent only to the client whose request failed, except for
// persistence failures which everyone sees.
type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

const (
	kindInvalidConfiguration = "invalid_configuration"
	kindEmptyArgument        = "empty_argument"
	kindArgumentTooLong      = "argument_too_long"
	kindSessionNotActive     = "session_not_active"
	kindSessionInProgress    = "session_in_progress"
	kindInvalidPlayer        = "invalid_player"
	kindNotHost              = "not_host"
	kindBusy                 = "busy"
	kindPersistence          = "persistence"
	kindUnknown              = "unknown"
)

func errorKind(err error) string {
	switch {
	case errors.Is(err, debate.ErrInvalidConfiguration):
		return kindInvalidConfiguration
	case errors.Is(err, debate.ErrEmptyArgument):
		return kindEmptyArgument
	case errors.Is(err, debate.ErrArgumentTooLong):
		return kindArgumentTooLong
	case errors.Is(err, debate.ErrSessionNotActive):
		return kindSessionNotActive
	case errors.Is(err, debate.ErrSessionInProgress):
		return kindSessionInProgress
	case errors.Is(err, debate.ErrInvalidPlayer):
		return kindInvalidPlayer
	case errors.Is(err, debate.ErrPersistence):
		return kindPersistence
	default:
		return kindUnknown
	}
}

func newError(kind, message string) ErrorMessage {
	return ErrorMessage{Type: "error", Kind: kind, Message: message}
}

type Client struct {
	conn     *websocket.Conn
	send     chan any
	playerID string
}

type command struct {
	client *Client
	msg    ClientMessage
}

// scoredArgument is an evaluation finished off the hub goroutine.
type scoredArgument struct {
	client     *Client
	generation int
	text       string
	eval       debate.Evaluation
}

type suggestedTopic struct {
	client *Client
	topic  string
}

type Hub struct {
	id      string
	game    *debate.Game
	topics  debate.TopicSource
	clients map[*Client]bool

	register    chan *Client
	unreg       chan *Client
	commands    chan command
	scored      chan scoredArgument
	suggested   chan suggestedTopic
	releaseHost chan string

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.RWMutex
	lastActive time.Time

	hostPlayerID string

	// scoring is set while an argument is out for evaluation. generation
	// changes on start and reset so stale evaluations are dropped.
	scoring    bool
	generation int
}

func newHub(gameID string, game *debate.Game, topics debate.TopicSource) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	return &Hub{
		id:          gameID,
		game:        game,
		topics:      topics,
		clients:     make(map[*Client]bool),
		register:    make(chan *Client),
		unreg:       make(chan *Client),
		commands:    make(chan command),
		scored:      make(chan scoredArgument),
		suggested:   make(chan suggestedTopic),
		releaseHost: make(chan string),
		ctx:         ctx,
		cancel:      cancel,
		lastActive:  time.Now(),
	}
}

func (h *Hub) run(cfg *Config) {
	for {
		select {
		case <-h.ctx.Done():
			h.closeAll()

			return

		case c := <-h.register:
			h.touch()

			// First connection becomes host
			if h.hostPlayerID == "" {
				h.hostPlayerID = c.playerID
				logf(cfg, "GAMES: %s is now hosted by %s", h.id, c.playerID)
			}

			h.clients[c] = true

			h.sendTo(c, h.sessionInfo(cfg, c))
			h.sendTo(c, h.gameState())

		case c := <-h.unreg:
			h.touch()

			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}

			if c.playerID == h.hostPlayerID && !h.connected(c.playerID) && cfg.playerTimeout > 0 {
				go h.scheduleHostRelease(c.playerID, cfg.playerTimeout)
			}

		case playerID := <-h.releaseHost:
			if playerID != h.hostPlayerID || h.connected(playerID) {
				continue
			}

			h.hostPlayerID = ""
			for client := range h.clients {
				h.hostPlayerID = client.playerID
				break
			}

			logf(cfg, "GAMES: %s host seat released by %s", h.id, playerID)

			for client := range h.clients {
				h.sendTo(client, h.sessionInfo(cfg, client))
			}

		case cmd := <-h.commands:
			h.touch()
			h.handleCommand(cfg, cmd)

		case sa := <-h.scored:
			h.touch()
			h.handleScored(cfg, sa)

		case st := <-h.suggested:
			h.sendTo(st.client, TopicMessage{Type: "topic", Topic: st.topic})
		}
	}
}

func (h *Hub) touch() {
	h.mu.Lock()
	h.lastActive = time.Now()
	h.mu.Unlock()
}

func (h *Hub) idleSince() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.lastActive
}

func (h *Hub) connected(playerID string) bool {
	for client := range h.clients {
		if client.playerID == playerID {
			return true
		}
	}
	return false
}

func (h *Hub) scheduleHostRelease(playerID string, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
	case <-h.ctx.Done():
		return
	}

	select {
	case h.releaseHost <- playerID:
	case <-h.ctx.Done():
	}
}

func (h *Hub) sessionInfo(cfg *Config, c *Client) SessionInfoMessage {
	return SessionInfoMessage{
		Type:             "session_info",
		GameID:           h.id,
		IsHost:           c.playerID == h.hostPlayerID,
		DefaultThreshold: cfg.threshold,
	}
}

func (h *Hub) gameState() GameStateMessage {
	msg := GameStateMessage{
		Type:    "game_state",
		State:   h.game.State(),
		Session: h.game.Session(),
		Scoring: h.scoring,
	}

	if sum, ok := h.game.Summary(); ok {
		msg.Summary = &sum
	}

	return msg
}

// sendTo queues msg for one client, dropping clients that cannot keep up.
func (h *Hub) sendTo(c *Client, msg any) {
	if !h.clients[c] {
		return
	}

	select {
	case c.send <- msg:
	default:
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) broadcast(msg any) {
	for client := range h.clients {
		h.sendTo(client, msg)
	}
}

// report tells the requester about a failed command. Persistence failures
// go to everyone, since the change they describe still took effect.
func (h *Hub) report(cfg *Config, c *Client, err error) {
	kind := errorKind(err)
	msg := newError(kind, err.Error())

	if kind == kindPersistence {
		logf(cfg, "STORE: %s: %v", h.id, err)
		h.broadcast(msg)

		return
	}

	h.sendTo(c, msg)
}

func (h *Hub) handleCommand(cfg *Config, cmd command) {
	c, msg := cmd.client, cmd.msg
	isHost := c.playerID == h.hostPlayerID

	switch msg.Type {
	case "start":
		if !isHost {
			h.sendTo(c, newError(kindNotHost, "only the host can start a debate"))
			return
		}

		threshold := msg.Threshold
		if threshold == 0 {
			threshold = cfg.threshold
		}

		err := h.game.Start(h.ctx, msg.Player1, msg.Player2, threshold, msg.Topic)
		if err != nil && !errors.Is(err, debate.ErrPersistence) {
			h.sendTo(c, newError(errorKind(err), err.Error()))
			return
		}

		h.generation++
		h.scoring = false

		if s := h.game.Session(); s != nil {
			logf(cfg, "GAMES: %s started: %s vs %s on %q (threshold %d)",
				h.id, s.Players[0].Name, s.Players[1].Name, s.Topic, s.Threshold)
		}

		h.broadcast(h.gameState())

		if err != nil {
			h.report(cfg, c, err)
		}

	case "argue":
		if h.scoring {
			h.sendTo(c, newError(kindBusy, "an argument is already being scored"))
			return
		}

		req, err := h.game.Request(msg.Text)
		if err != nil {
			h.report(cfg, c, err)
			return
		}

		h.scoring = true
		speaker := h.game.Session().ActivePlayer().Name

		h.broadcast(ScoringMessage{Type: "scoring", Pending: true, Player: speaker})

		go h.score(c, h.generation, req)

	case "vote":
		if h.scoring {
			h.sendTo(c, newError(kindBusy, "wait for the current argument to be scored"))
			return
		}

		if msg.Player == nil {
			h.sendTo(c, newError(kindInvalidPlayer, "vote requires a player"))
			return
		}

		err := h.game.ToggleEndVote(h.ctx, *msg.Player)
		if err != nil && !errors.Is(err, debate.ErrPersistence) {
			h.report(cfg, c, err)
			return
		}

		if h.game.State() == debate.StateEnded {
			logf(cfg, "GAMES: %s ended by agreement", h.id)
		}

		h.broadcast(h.gameState())

		if err != nil {
			h.report(cfg, c, err)
		}

	case "reset":
		if !isHost {
			h.sendTo(c, newError(kindNotHost, "only the host can reset the debate"))
			return
		}

		h.generation++
		h.scoring = false

		err := h.game.Reset(h.ctx)

		logf(cfg, "GAMES: %s reset", h.id)

		h.broadcast(h.gameState())

		if err != nil {
			h.report(cfg, c, err)
		}

	case "suggest_topic":
		go h.suggestTopic(c)

	default:
		// ignore unknown types
	}
}

// score runs the scorer without holding up the hub.
func (h *Hub) score(c *Client, generation int, req debate.ScoreRequest) {
	eval := h.game.Scorer().Score(h.ctx, req)

	select {
	case h.scored <- scoredArgument{client: c, generation: generation, text: req.Text, eval: eval}:
	case <-h.ctx.Done():
	}
}

func (h *Hub) suggestTopic(c *Client) {
	topic := h.topics.SuggestTopic(h.ctx)

	select {
	case h.suggested <- suggestedTopic{client: c, topic: topic}:
	case <-h.ctx.Done():
	}
}

func (h *Hub) handleScored(cfg *Config, sa scoredArgument) {
	if sa.generation != h.generation {
		return
	}

	h.scoring = false

	msg, err := h.game.Apply(h.ctx, sa.text, sa.eval)
	if err != nil && !errors.Is(err, debate.ErrPersistence) {
		h.broadcast(h.gameState())
		h.report(cfg, sa.client, err)

		return
	}

	logf(cfg, "GAMES: %s: %s scored %d (%s)", h.id, msg.SenderName, msg.Score, msg.Reasoning)

	if winner, ok := h.game.Session().WinningPlayer(); ok {
		logf(cfg, "GAMES: %s won by %s", h.id, winner.Name)
	}

	h.broadcast(h.gameState())

	if err != nil {
		h.report(cfg, sa.client, err)
	}
}

// closeAll disconnects all clients of this hub. Only called from run.
func (h *Hub) closeAll() {
	for c := range h.clients {
		close(c.send)
		_ = c.conn.Close()
		delete(h.clients, c)
	}
}

// stop ends the hub goroutine and any scoring still in flight.
func (h *Hub) stop() {
	h.cancel()
}

// maxMessageSize bounds a single client frame. It leaves room for the
// longest argument after JSON escaping.
const maxMessageSize = 64 << 10

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const playerCookieName = "argunet_id"

func getOrSetPlayerID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(playerCookieName); err == nil && c.Value != "" {
		return c.Value
	}

	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		log.Println("rand.Read error:", err)
		return ""
	}
	id := hex.EncodeToString(buf)

	http.SetCookie(w, &http.Cookie{
		Name:     playerCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return id
}

var errManagerClosed = errors.New("game manager is closed")

var gameIDPattern = regexp.MustCompile(`^[A-Za-z0-9]{1,32}$`)

// GameManager holds a set of hubs keyed by game ID, so each $path/$gameid
// is its own isolated debate.
type GameManager struct {
	mu          sync.Mutex
	hubs        map[string]*Hub
	backend     *backend
	idleTimeout time.Duration
	done        chan struct{}
	closeOnce   sync.Once
}

func newGameManager(b *backend, idleTimeout time.Duration) *GameManager {
	gm := &GameManager{
		hubs:        make(map[string]*Hub),
		backend:     b,
		idleTimeout: idleTimeout,
		done:        make(chan struct{}),
	}
	if idleTimeout > 0 {
		go gm.reaperLoop()
	}
	return gm
}

// getHub returns the running hub for gameID, loading any saved debate the
// first time the game is visited.
func (gm *GameManager) getHub(cfg *Config, gameID string) (*Hub, error) {
	gm.mu.Lock()
	hub, ok := gm.hubs[gameID]
	gm.mu.Unlock()

	if ok {
		return hub, nil
	}

	// Load without holding the lock so a slow store only delays this game.
	game, err := gm.backend.newGame(context.Background(), cfg, debate.KeyPrefix+gameID)
	if err != nil {
		return nil, err
	}

	gm.mu.Lock()
	defer gm.mu.Unlock()

	select {
	case <-gm.done:
		return nil, errManagerClosed
	default:
	}

	// Another request may have loaded the same game meanwhile.
	if hub, ok := gm.hubs[gameID]; ok {
		return hub, nil
	}

	hub = newHub(gameID, game, gm.backend.topics)
	gm.hubs[gameID] = hub
	go hub.run(cfg)

	return hub, nil
}

// newGameID generates a crypto-random game ID and ensures it doesn't
// collide with existing games.
func (gm *GameManager) newGameID() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	for {
		buf := make([]byte, 8)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, 8)
		for i := range out {
			out[i] = letters[int(buf[i])%len(letters)]
		}
		id := string(out)

		gm.mu.Lock()
		_, exists := gm.hubs[id]
		gm.mu.Unlock()

		if !exists {
			return id
		}
	}
}

// reaperLoop periodically unloads hubs that have been idle longer than
// idleTimeout. Their debates stay in the store.
func (gm *GameManager) reaperLoop() {
	ticker := time.NewTicker(gm.idleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-gm.done:
			return
		case <-ticker.C:
		}

		cutoff := time.Now().Add(-gm.idleTimeout)

		gm.mu.Lock()
		for id, hub := range gm.hubs {
			if hub.idleSince().Before(cutoff) {
				delete(gm.hubs, id)
				hub.stop()
			}
		}
		gm.mu.Unlock()
	}
}

// Close stops the reaper and every hub.
func (gm *GameManager) Close() {
	gm.closeOnce.Do(func() {
		close(gm.done)

		gm.mu.Lock()
		defer gm.mu.Unlock()

		for id, hub := range gm.hubs {
			delete(gm.hubs, id)
			hub.stop()
		}
	})
}

// WebSocket handler that picks the hub based on :gameid
func serveWSForManager(cfg *Config, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID := ps.ByName("gameid")
		if !gameIDPattern.MatchString(gameID) {
			http.Error(w, "invalid game id", http.StatusBadRequest)
			return
		}

		playerID := getOrSetPlayerID(w, r)
		if playerID == "" {
			http.Error(w, "unable to assign player id", http.StatusInternalServerError)
			return
		}

		hub, err := gm.getHub(cfg, gameID)
		if err != nil {
			logf(cfg, "STORE: Unable to load game %s: %v", gameID, err)
			http.Error(w, "unable to load game", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		client := &Client{
			conn:     conn,
			send:     make(chan any, 16),
			playerID: playerID,
		}

		select {
		case hub.register <- client:
		case <-hub.ctx.Done():
			_ = conn.Close()
			return
		}

		go client.writePump()
		client.readPump(hub)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-h.ctx.Done():
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		select {
		case h.commands <- command{client: c, msg: msg}:
		case <-h.ctx.Done():
			return
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// QR handler: generates a PNG QR code for the current game URL using go-qrcode.
func qrHandler(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID := ps.ByName("gameid")
		if !gameIDPattern.MatchString(gameID) {
			http.Error(w, "invalid game id", http.StatusBadRequest)
			return
		}

		// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		// We are at /.../:gameid/qr; strip trailing "/qr" to get the game URL.
		path := strings.TrimSuffix(r.URL.Path, "/qr")

		url := scheme + "://" + r.Host + path

		const qrSize = 320 // mobile-friendly size
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		securityHeaders(cfg, w)

		_, _ = w.Write(png)
	}
}

func serveDebatePage(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		if !gameIDPattern.MatchString(ps.ByName("gameid")) {
			http.NotFound(w, r)
			return
		}

		data, err := assets.ReadFile("assets/debate/index.html")
		if err != nil {
			http.Error(w, "missing page", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		securityHeaders(cfg, w)

		_ = getOrSetPlayerID(w, r)

		_, _ = w.Write(data)
	}
}

// redirectNewGame handles GET /path by generating a new random game ID
// (with server-side collision detection) and redirecting to /path/:gameid.
func redirectNewGame(cfg *Config, path string, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		gameID := gm.newGameID()
		logf(cfg, "GAMES: Created game %s/%s", path, gameID)
		http.Redirect(w, r, cfg.prefix+path+"/"+gameID, http.StatusTemporaryRedirect)
	}
}

// registerDebateGame sets up routes so that:
//   - $path                  → redirects to new random game (8-char ID)
//   - $path/:gameid          → HTML client
//   - $path/:gameid/ws       → WebSocket for that game
//   - $path/:gameid/qr       → PNG QR code for that game URL
//
// The returned manager must be closed on shutdown.
func registerDebateGame(cfg *Config, path string, mux *httprouter.Router, b *backend) *GameManager {
	gm := newGameManager(b, cfg.sessionTimeout)

	mux.GET(cfg.prefix+path, redirectNewGame(cfg, path, gm))

	mux.GET(cfg.prefix+path+"/:gameid", serveDebatePage(cfg))

	mux.GET(cfg.prefix+path+"/:gameid/ws", serveWSForManager(cfg, gm))

	mux.GET(cfg.prefix+path+"/:gameid/qr", qrHandler(cfg))

	return gm
}

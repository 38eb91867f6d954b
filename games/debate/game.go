/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package debate

import (
	"context"
	"errors"
	"fmt"

	"github.com/Seednode/argunet/storage"
)

// KeyPrefix namespaces debate snapshots in a shared store.
const KeyPrefix = "argunet/"

// Game drives a Session through SETUP, ACTIVE and ENDED, writing a snapshot
// to the store after every mutation. Like Session, it has a single owner.
type Game struct {
	store   storage.Store
	key     string
	scorer  Scorer
	session *Session

	// Topics fills in the topic when Start is called without one.
	Topics TopicSource

	// Logf, when set, receives notes about discarded snapshots.
	Logf func(format string, args ...any)
}

// NewGame returns a game in SETUP. A nil store disables persistence; a nil
// scorer falls back to the local heuristic.
func NewGame(store storage.Store, key string, scorer Scorer) *Game {
	if scorer == nil {
		scorer = NewLocalScorer()
	}

	return &Game{
		store:  store,
		key:    key,
		scorer: scorer,
		Topics: LocalTopics{},
	}
}

// Key is the store key this game persists under.
func (g *Game) Key() string {
	return g.key
}

func (g *Game) logf(format string, args ...any) {
	if g.Logf != nil {
		g.Logf(format, args...)
	}
}

// Load reads the saved snapshot once at startup. A running debate is
// resumed; finished and unreadable snapshots are deleted and the game stays
// in SETUP. Only store failures are returned.
func (g *Game) Load(ctx context.Context) error {
	g.session = nil

	if g.store == nil {
		return nil
	}

	data, err := g.store.Get(ctx, g.key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: load %s: %v", ErrPersistence, g.key, err)
	}

	s, err := DecodeSnapshot(data)
	if err != nil {
		g.logf("Discarding snapshot %s: %v", g.key, err)
		return g.discard(ctx)
	}

	if s.IsOver {
		g.logf("Discarding finished debate %s", g.key)
		return g.discard(ctx)
	}

	g.session = s

	return nil
}

func (g *Game) discard(ctx context.Context) error {
	if err := g.store.Delete(ctx, g.key); err != nil {
		return fmt.Errorf("%w: delete %s: %v", ErrPersistence, g.key, err)
	}
	return nil
}

func (g *Game) State() State {
	return g.session.State()
}

// Session returns a copy of the current session, or nil in SETUP.
func (g *Game) Session() *Session {
	return g.session.Clone()
}

// Start begins a new debate. It is only allowed from SETUP; a running or
// finished debate must be Reset first.
func (g *Game) Start(ctx context.Context, player1, player2 string, threshold int, topic string) error {
	if g.State() != StateSetup {
		return fmt.Errorf("%w: debate is %s", ErrSessionInProgress, g.State())
	}

	s, err := NewSession(player1, player2, threshold, topic)
	if err != nil {
		return err
	}

	if s.Topic == "" && g.Topics != nil {
		s.Topic = g.Topics.SuggestTopic(ctx)
	}

	g.session = s

	return g.save(ctx)
}

// Submit scores and records an argument for the player whose turn it is.
func (g *Game) Submit(ctx context.Context, text string) (Message, error) {
	msg, err := g.session.Submit(ctx, g.scorer, text)
	if err != nil {
		return Message{}, err
	}

	return msg, g.save(ctx)
}

// Scorer returns the scorer used by Submit. Scorers are safe to call from
// other goroutines.
func (g *Game) Scorer() Scorer {
	return g.scorer
}

// Request validates text against the running debate without changing it.
func (g *Game) Request(text string) (ScoreRequest, error) {
	return g.session.Request(text)
}

// Apply records an argument scored elsewhere, typically by a goroutine that
// called Scorer().Score with the result of Request.
func (g *Game) Apply(ctx context.Context, text string, eval Evaluation) (Message, error) {
	msg, err := g.session.Apply(text, eval)
	if err != nil {
		return Message{}, err
	}

	return msg, g.save(ctx)
}

// ToggleEndVote flips a player's vote to end the debate early.
func (g *Game) ToggleEndVote(ctx context.Context, player int) error {
	if err := g.session.ToggleEndVote(player); err != nil {
		return err
	}

	return g.save(ctx)
}

// Reset returns to SETUP and erases the saved snapshot.
func (g *Game) Reset(ctx context.Context) error {
	g.session = nil

	if g.store == nil {
		return nil
	}

	return g.discard(ctx)
}

// save writes the snapshot. The in-memory transition stands even when the
// write fails.
func (g *Game) save(ctx context.Context) error {
	if g.store == nil {
		return nil
	}

	data, err := EncodeSnapshot(g.session)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if err := g.store.Put(ctx, g.key, data); err != nil {
		return fmt.Errorf("%w: save %s: %v", ErrPersistence, g.key, err)
	}

	return nil
}

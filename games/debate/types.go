/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package debate

import (
	"context"
	"time"
)

// Role is the side a player argues for the whole session.
type Role string

const (
	Proponent Role = "PROPONENT"
	Opponent  Role = "OPPONENT"
)

// Label returns the short side name shown to players.
func (r Role) Label() string {
	switch r {
	case Proponent:
		return "FOR"
	case Opponent:
		return "AGAINST"
	default:
		return string(r)
	}
}

// State is the lifecycle state of a game.
type State string

const (
	StateSetup  State = "SETUP"
	StateActive State = "ACTIVE"
	StateEnded  State = "ENDED"
)

type Player struct {
	Name  string `json:"name"`
	Role  Role   `json:"role"`
	Score int    `json:"score"`
}

// Message records one accepted argument. Messages are never edited.
type Message struct {
	ID         string    `json:"id"`
	SenderName string    `json:"senderName"`
	Role       Role      `json:"role"`
	Text       string    `json:"text"`
	Score      int       `json:"score"`
	Reasoning  string    `json:"reasoning"`
	Timestamp  time.Time `json:"timestamp"`
}

// Evaluation is the outcome of scoring one argument.
type Evaluation struct {
	Value     int    `json:"score"`
	Reasoning string `json:"reasoning"`
}

// ScoreRequest carries what a scorer may look at. The local heuristic only
// reads Text; remote judges also use the topic and the debater's side.
type ScoreRequest struct {
	Topic string
	Role  Role
	Text  string
}

// Scorer evaluates a single argument. Implementations must not fail: any
// internal fault is reported as a low-value Evaluation instead.
type Scorer interface {
	Score(ctx context.Context, req ScoreRequest) Evaluation
}

// ScorerFunc adapts a plain function to the Scorer interface.
type ScorerFunc func(ctx context.Context, req ScoreRequest) Evaluation

func (f ScorerFunc) Score(ctx context.Context, req ScoreRequest) Evaluation {
	return f(ctx, req)
}

// TopicSource suggests debate topics for games started without one.
type TopicSource interface {
	SuggestTopic(ctx context.Context) string
}

// TopicFunc adapts a plain function to the TopicSource interface.
type TopicFunc func(ctx context.Context) string

func (f TopicFunc) SuggestTopic(ctx context.Context) string {
	return f(ctx)
}

/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package debate

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxArgumentLength is the longest argument accepted, in characters.
const MaxArgumentLength = 2000

// Session is the authoritative state of one debate. It is owned by a single
// goroutine; callers serialize all mutations.
type Session struct {
	Topic        string    `json:"topic"`
	Players      [2]Player `json:"players"`
	Threshold    int       `json:"threshold"`
	Messages     []Message `json:"messages"`
	TurnIndex    int       `json:"turnIndex"`
	IsOver       bool      `json:"isGameOver"`
	Winner       *int      `json:"winner"`
	EndAgreement [2]bool   `json:"endAgreement"`
}

var (
	newMessageID = uuid.NewString
	now          = time.Now
)

// NewSession validates the setup inputs and returns a fresh session with
// player one to move.
func NewSession(player1, player2 string, threshold int, topic string) (*Session, error) {
	player1 = strings.TrimSpace(player1)
	player2 = strings.TrimSpace(player2)

	switch {
	case player1 == "":
		return nil, fmt.Errorf("%w: player 1 name is required", ErrInvalidConfiguration)
	case player2 == "":
		return nil, fmt.Errorf("%w: player 2 name is required", ErrInvalidConfiguration)
	case threshold < 1:
		return nil, fmt.Errorf("%w: threshold must be positive, got %d", ErrInvalidConfiguration, threshold)
	}

	return &Session{
		Topic: strings.TrimSpace(topic),
		Players: [2]Player{
			{Name: player1, Role: Proponent},
			{Name: player2, Role: Opponent},
		},
		Threshold: threshold,
		Messages:  []Message{},
	}, nil
}

// State reports ACTIVE or ENDED. A nil session is in SETUP.
func (s *Session) State() State {
	switch {
	case s == nil:
		return StateSetup
	case s.IsOver:
		return StateEnded
	default:
		return StateActive
	}
}

// ActivePlayer returns the player whose turn it is.
func (s *Session) ActivePlayer() Player {
	return s.Players[s.TurnIndex]
}

// WinningPlayer returns the winner, or false on a stalemate or while the
// debate is still running.
func (s *Session) WinningPlayer() (Player, bool) {
	if s == nil || !s.IsOver || s.Winner == nil {
		return Player{}, false
	}
	return s.Players[*s.Winner], true
}

// Rounds is the number of accepted arguments.
func (s *Session) Rounds() int {
	return len(s.Messages)
}

// Submit scores text for the active player and applies the result. The
// session is left untouched when an error is returned.
func (s *Session) Submit(ctx context.Context, scorer Scorer, text string) (Message, error) {
	req, err := s.Request(text)
	if err != nil {
		return Message{}, err
	}

	return s.Apply(text, scorer.Score(ctx, req))
}

// Request checks that text may be submitted now and returns what a scorer
// should see for it. Shells that score off the owning goroutine call Request,
// score, then Apply.
func (s *Session) Request(text string) (ScoreRequest, error) {
	if s == nil || s.IsOver {
		return ScoreRequest{}, ErrSessionNotActive
	}
	if strings.TrimSpace(text) == "" {
		return ScoreRequest{}, ErrEmptyArgument
	}
	if n := utf8.RuneCountInString(text); n > MaxArgumentLength {
		return ScoreRequest{}, fmt.Errorf("%w: %d characters, limit is %d", ErrArgumentTooLong, n, MaxArgumentLength)
	}

	return ScoreRequest{
		Topic: s.Topic,
		Role:  s.Players[s.TurnIndex].Role,
		Text:  text,
	}, nil
}

// Apply records an already scored argument for the active player. The value
// is clamped, end votes are cleared, and the turn passes unless the player
// reached the threshold.
func (s *Session) Apply(text string, eval Evaluation) (Message, error) {
	if _, err := s.Request(text); err != nil {
		return Message{}, err
	}

	idx := s.TurnIndex
	player := s.Players[idx]
	value := clamp(eval.Value)

	msg := Message{
		ID:         newMessageID(),
		SenderName: player.Name,
		Role:       player.Role,
		Text:       text,
		Score:      value,
		Reasoning:  eval.Reasoning,
		Timestamp:  now().UTC(),
	}

	s.Players[idx].Score += value
	s.Messages = append(s.Messages, msg)
	s.EndAgreement = [2]bool{}

	if s.Players[idx].Score >= s.Threshold {
		s.IsOver = true
		s.Winner = &idx
		return msg, nil
	}

	s.TurnIndex = 1 - idx

	return msg, nil
}

// ToggleEndVote flips one player's vote to end early. When both votes are
// set the debate ends and the strictly higher scorer wins.
func (s *Session) ToggleEndVote(player int) error {
	if s == nil || s.IsOver {
		return ErrSessionNotActive
	}
	if player < 0 || player > 1 {
		return fmt.Errorf("%w: %d", ErrInvalidPlayer, player)
	}

	s.EndAgreement[player] = !s.EndAgreement[player]

	if s.EndAgreement[0] && s.EndAgreement[1] {
		s.IsOver = true
		s.Winner = leader(s.Players)
	}

	return nil
}

func leader(players [2]Player) *int {
	var idx int
	switch {
	case players[0].Score > players[1].Score:
		idx = 0
	case players[1].Score > players[0].Score:
		idx = 1
	default:
		return nil
	}
	return &idx
}

// Clone returns a deep copy safe to hand to renderers.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}

	c := *s
	c.Messages = append(make([]Message, 0, len(s.Messages)), s.Messages...)
	if s.Winner != nil {
		w := *s.Winner
		c.Winner = &w
	}

	return &c
}

/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package debate

import (
	"encoding/json"
	"fmt"
)

// UnmarshalJSON also accepts the older "isOver" spelling of the end flag.
func (s *Session) UnmarshalJSON(data []byte) error {
	type plain Session

	aux := struct {
		*plain
		LegacyOver *bool `json:"isOver"`
	}{plain: (*plain)(s)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.LegacyOver != nil && *aux.LegacyOver {
		s.IsOver = true
	}

	return nil
}

// EncodeSnapshot serializes a session for the blob store.
func EncodeSnapshot(s *Session) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("encode snapshot: %w", ErrSessionNotActive)
	}

	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	return data, nil
}

// DecodeSnapshot parses and validates a stored session. Any failure is
// reported as ErrPersistenceCorrupt.
func DecodeSnapshot(data []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistenceCorrupt, err)
	}

	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistenceCorrupt, err)
	}

	if s.Messages == nil {
		s.Messages = []Message{}
	}

	return &s, nil
}

func (s *Session) validate() error {
	for i, p := range s.Players {
		if p.Name == "" {
			return fmt.Errorf("player %d has no name", i+1)
		}
		if p.Score < 0 {
			return fmt.Errorf("player %d has negative score %d", i+1, p.Score)
		}
	}

	if s.Players[0].Role != Proponent || s.Players[1].Role != Opponent {
		return fmt.Errorf("unexpected roles %q/%q", s.Players[0].Role, s.Players[1].Role)
	}
	if s.Threshold < 1 {
		return fmt.Errorf("threshold must be positive, got %d", s.Threshold)
	}
	if s.TurnIndex != 0 && s.TurnIndex != 1 {
		return fmt.Errorf("turn index %d out of range", s.TurnIndex)
	}
	if s.Winner != nil {
		if *s.Winner != 0 && *s.Winner != 1 {
			return fmt.Errorf("winner index %d out of range", *s.Winner)
		}
		if !s.IsOver {
			return fmt.Errorf("winner recorded for a running debate")
		}
	}

	for i, m := range s.Messages {
		if m.Score < MinScore || m.Score > MaxScore {
			return fmt.Errorf("message %d has score %d outside %d-%d", i+1, m.Score, MinScore, MaxScore)
		}
	}

	if s.IsOver {
		return nil
	}

	// A running debate must not already meet an end condition.
	if s.EndAgreement[0] && s.EndAgreement[1] {
		return fmt.Errorf("both players voted to end a running debate")
	}
	for i, p := range s.Players {
		if p.Score >= s.Threshold {
			return fmt.Errorf("player %d has %d of %d points in a running debate", i+1, p.Score, s.Threshold)
		}
	}
	if s.TurnIndex != len(s.Messages)%2 {
		return fmt.Errorf("turn index %d after %d messages", s.TurnIndex, len(s.Messages))
	}

	return nil
}

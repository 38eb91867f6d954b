package debate

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestSnapshotRoundTrip(t *testing.T) {
	s := newTestSession(t, 9)
	ctx := context.Background()

	for _, text := range []string{"opening", "rebuttal", "closing"} {
		if _, err := s.Submit(ctx, NewLocalScorer(), text); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.ToggleEndVote(1); err != nil {
		t.Fatal(err)
	}

	data, err := EncodeSnapshot(s)
	if err != nil {
		t.Fatalf("EncodeSnapshot() error = %v", err)
	}

	got, err := DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("DecodeSnapshot() error = %v", err)
	}

	if got.Topic != s.Topic || got.Threshold != s.Threshold || got.TurnIndex != s.TurnIndex {
		t.Errorf("header fields differ: got %+v", got)
	}
	if got.Players != s.Players {
		t.Errorf("Players = %+v, want %+v", got.Players, s.Players)
	}
	if got.EndAgreement != s.EndAgreement || got.IsOver != s.IsOver {
		t.Errorf("flags differ: got over=%v votes=%v", got.IsOver, got.EndAgreement)
	}
	if len(got.Messages) != len(s.Messages) {
		t.Fatalf("Messages length = %d, want %d", len(got.Messages), len(s.Messages))
	}
	for i := range s.Messages {
		want := s.Messages[i]
		m := got.Messages[i]
		if m.ID != want.ID || m.Text != want.Text || m.Score != want.Score ||
			m.Reasoning != want.Reasoning || m.SenderName != want.SenderName ||
			m.Role != want.Role || !m.Timestamp.Equal(want.Timestamp) {
			t.Errorf("Messages[%d] = %+v, want %+v", i, m, want)
		}
	}
}

func TestSnapshotFieldNames(t *testing.T) {
	s := newTestSession(t, 9)

	data, err := EncodeSnapshot(s)
	if err != nil {
		t.Fatal(err)
	}

	for _, key := range []string{`"topic"`, `"players"`, `"threshold"`, `"messages"`, `"turnIndex"`, `"isGameOver"`, `"winner":null`, `"endAgreement"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("snapshot %s missing %s", data, key)
		}
	}
}

func TestDecodeSnapshot_LegacyOverFlag(t *testing.T) {
	payload := `{"topic":"t","players":[{"name":"a","role":"PROPONENT","score":3},{"name":"b","role":"OPPONENT","score":3}],"threshold":5,"messages":[],"turnIndex":0,"isOver":true,"winner":null,"endAgreement":[true,true]}`

	s, err := DecodeSnapshot([]byte(payload))
	if err != nil {
		t.Fatalf("DecodeSnapshot() error = %v", err)
	}
	if !s.IsOver {
		t.Error("IsOver = false, want true from legacy isOver")
	}
}

func TestDecodeSnapshot_NilMessages(t *testing.T) {
	payload := `{"topic":"t","players":[{"name":"a","role":"PROPONENT"},{"name":"b","role":"OPPONENT"}],"threshold":5}`

	s, err := DecodeSnapshot([]byte(payload))
	if err != nil {
		t.Fatalf("DecodeSnapshot() error = %v", err)
	}
	if s.Messages == nil {
		t.Error("Messages should be an empty slice, not nil")
	}
	if s.State() != StateActive {
		t.Errorf("State() = %q, want %q", s.State(), StateActive)
	}
}

func TestDecodeSnapshot_Corrupt(t *testing.T) {
	valid := func(mut string) string {
		return strings.Replace(
			`{"topic":"t","players":[{"name":"a","role":"PROPONENT"},{"name":"b","role":"OPPONENT"}],"threshold":5,"turnIndex":0,"winner":null,"isGameOver":false}`,
			mut[:strings.Index(mut, "=")], mut[strings.Index(mut, "=")+1:], 1)
	}

	tests := map[string]string{
		"truncated":       `{"topic":`,
		"array":           `[]`,
		"missing name":    valid(`"name":"a"="name":""`),
		"swapped roles":   valid(`"role":"PROPONENT"="role":"OPPONENT"`),
		"turn index":      valid(`"turnIndex":0="turnIndex":2`),
		"winner range":    valid(`"winner":null="winner":5`),
		"winner running":  valid(`"winner":null="winner":0`),
		"threshold":       valid(`"threshold":5="threshold":-1`),
		"negative score":  valid(`"name":"b","role":"OPPONENT"="name":"b","role":"OPPONENT","score":-2`),
		"only one player": `{"topic":"t","players":[{"name":"a","role":"PROPONENT"}],"threshold":5}`,
		"both votes":      valid(`"isGameOver":false="isGameOver":false,"endAgreement":[true,true]`),
		"score at limit":  valid(`"name":"a","role":"PROPONENT"="name":"a","role":"PROPONENT","score":5`),
		"turn parity":     valid(`"turnIndex":0="turnIndex":1`),
		"message score":   valid(`"turnIndex":0="turnIndex":1,"messages":[{"id":"m1","senderName":"a","role":"PROPONENT","text":"x","score":99}]`),
		"message score 0": valid(`"turnIndex":0="turnIndex":1,"messages":[{"id":"m1","senderName":"a","role":"PROPONENT","text":"x","score":0}]`),
	}

	for name, payload := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodeSnapshot([]byte(payload)); !errors.Is(err, ErrPersistenceCorrupt) {
				t.Errorf("DecodeSnapshot(%s) error = %v, want ErrPersistenceCorrupt", payload, err)
			}
		})
	}
}

func TestDecodeSnapshot_EndedMayMeetEndConditions(t *testing.T) {
	payload := `{"topic":"t","players":[{"name":"a","role":"PROPONENT","score":6},{"name":"b","role":"OPPONENT","score":0}],"threshold":5,"messages":[{"id":"m1","senderName":"a","role":"PROPONENT","text":"x","score":6}],"turnIndex":0,"isGameOver":true,"winner":0,"endAgreement":[true,true]}`

	if _, err := DecodeSnapshot([]byte(payload)); err != nil {
		t.Errorf("DecodeSnapshot() error = %v, want nil for a finished debate", err)
	}
}

func TestEncodeSnapshot_Nil(t *testing.T) {
	if _, err := EncodeSnapshot(nil); err == nil {
		t.Error("EncodeSnapshot(nil) should fail")
	}
}

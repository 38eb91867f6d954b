/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package debate

import "math"

// Summary is what the result screen shows once a debate has ended.
type Summary struct {
	Topic        string  `json:"topic"`
	Threshold    int     `json:"threshold"`
	Rounds       int     `json:"rounds"`
	Winner       string  `json:"winner,omitempty"`
	WinnerRole   Role    `json:"winner_role,omitempty"`
	FinalScore   int     `json:"final_score"`
	Efficiency   float64 `json:"efficiency"`
	Stalemate    bool    `json:"stalemate"`
	ScoreFor     int     `json:"score_for"`
	ScoreAgainst int     `json:"score_against"`
}

// Summarize reports the outcome of an ended session. The second return is
// false while the debate is still running.
func Summarize(s *Session) (Summary, bool) {
	if s == nil || !s.IsOver {
		return Summary{}, false
	}

	sum := Summary{
		Topic:        s.Topic,
		Threshold:    s.Threshold,
		Rounds:       s.Rounds(),
		ScoreFor:     s.Players[0].Score,
		ScoreAgainst: s.Players[1].Score,
	}

	winner, ok := s.WinningPlayer()
	if !ok {
		sum.Stalemate = s.EndAgreement[0] && s.EndAgreement[1]
		return sum, true
	}

	sum.Winner = winner.Name
	sum.WinnerRole = winner.Role
	sum.FinalScore = winner.Score
	sum.Efficiency = math.Round(float64(winner.Score)/float64(max(sum.Rounds, 1))*10) / 10

	return sum, true
}

// Summary is Summarize applied to the current session.
func (g *Game) Summary() (Summary, bool) {
	return Summarize(g.session)
}

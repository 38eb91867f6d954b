/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package debate

import (
	"context"
	"math/rand/v2"
	"strings"
	"unicode/utf8"
)

const (
	MinScore  = 1
	MaxScore  = 10
	baseScore = 3

	maxMarkerBonus = 2
)

// Logical-rigor markers, matched as case-insensitive substrings.
var markers = []string{
	"because",
	"therefore",
	"however",
	"consequently",
	"evidence",
	"study",
	"logic",
	"fact",
	"research",
}

// Flavor text only; never derived from the score.
var reasonings = []string{
	"High rhetorical impact detected.",
	"Strong structural cohesion.",
	"Well-articulated logical premise.",
	"Effective counter-point synthesis.",
	"Concise and efficient delivery.",
	"Significant topical depth achieved.",
}

// LocalScorer is the deterministic length-and-marker heuristic. Only the
// reasoning phrase is random.
type LocalScorer struct {
	pick func(n int) int
}

func NewLocalScorer() *LocalScorer {
	return &LocalScorer{pick: rand.IntN}
}

func (s *LocalScorer) Score(_ context.Context, req ScoreRequest) Evaluation {
	pick := rand.IntN
	if s != nil && s.pick != nil {
		pick = s.pick
	}

	return Evaluation{
		Value:     HeuristicScore(req.Text),
		Reasoning: reasonings[pick(len(reasonings))],
	}
}

// HeuristicScore computes the numeric part of the local score. Empty and
// whitespace-only text earns the base score and no length bonus.
func HeuristicScore(text string) int {
	content := strings.TrimSpace(text)
	words := len(strings.Fields(content))
	chars := utf8.RuneCountInString(content)

	score := baseScore

	if words > 15 {
		score += 2
	}
	if words > 40 {
		score += 2
	}
	if chars > 300 {
		score++
	}

	score += min(countMarkers(content), maxMarkerBonus)

	return clamp(score)
}

func countMarkers(content string) int {
	lower := strings.ToLower(content)

	found := 0
	for _, m := range markers {
		if strings.Contains(lower, m) {
			found++
		}
	}

	return found
}

// ClampScore limits v to the valid per-argument range.
func ClampScore(v int) int {
	return clamp(v)
}

func clamp(v int) int {
	return min(MaxScore, max(MinScore, v))
}

/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/Seednode/argunet/games/debate"
)

const (
	failureReasoning = "Evaluation system temporary failure."
	defaultReasoning = "Good point made."

	scoringPrompt = `You are an expert debate judge. Score the given argument from 1 to 10. Be strict. Deduct points for logical fallacies, lack of evidence, or being off-topic. Reward logic, clarity, and impactful points. Provide a very short reasoning (max 15 words).
Return ONLY valid JSON in this exact format: {"score": number, "reasoning": "..."}
Do NOT include any other text or markdown formatting.`
)

var codeBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")

// Scorer asks a language model to judge each argument. It implements
// debate.Scorer and never fails: errors become a minimal Evaluation.
type Scorer struct {
	llm   Completer
	model string

	// Logf, when set, receives one line per degraded evaluation.
	Logf func(format string, args ...any)
}

func NewScorer(llm Completer, model string) *Scorer {
	if model == "" {
		model = DefaultModel
	}

	return &Scorer{llm: llm, model: model}
}

func (s *Scorer) Score(ctx context.Context, req debate.ScoreRequest) debate.Evaluation {
	eval, err := s.evaluate(ctx, req)
	if err != nil {
		if s.Logf != nil {
			s.Logf("Scoring failed: %v", err)
		}

		return debate.Evaluation{Value: debate.MinScore, Reasoning: failureReasoning}
	}

	return eval
}

func (s *Scorer) evaluate(ctx context.Context, req debate.ScoreRequest) (debate.Evaluation, error) {
	msgs := []Message{
		{Role: "system", Content: scoringPrompt},
		{Role: "user", Content: fmt.Sprintf("Topic: %s\nDebater Position: %s\nArgument: %s", req.Topic, req.Role, req.Text)},
	}

	resp, err := s.llm.ChatCompletion(ctx, s.model, msgs)
	if err != nil {
		return debate.Evaluation{}, err
	}

	raw, err := content(resp)
	if err != nil {
		return debate.Evaluation{}, err
	}

	v, ok := parseVerdict(raw)
	if !ok {
		return debate.Evaluation{}, fmt.Errorf("judge: unparseable verdict %q", raw)
	}

	return normalize(v), nil
}

// normalize maps a raw verdict onto the valid score range. A zero or
// missing score counts as the minimum.
func normalize(v verdict) debate.Evaluation {
	score := debate.MinScore
	if !math.IsNaN(v.Score) && v.Score != 0 {
		score = debate.ClampScore(int(math.Round(max(-1e6, min(1e6, v.Score)))))
	}

	reasoning := strings.TrimSpace(v.Reasoning)
	if reasoning == "" {
		reasoning = defaultReasoning
	}

	return debate.Evaluation{Value: score, Reasoning: reasoning}
}

// parseVerdict extracts the JSON object from model output. It accepts bare
// JSON, a fenced code block, or the first {...} span in surrounding prose.
func parseVerdict(raw string) (verdict, bool) {
	var v verdict

	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &v); err == nil {
		return v, true
	}

	if matches := codeBlockRe.FindStringSubmatch(raw); len(matches) > 1 {
		if err := json.Unmarshal([]byte(strings.TrimSpace(matches[1])), &v); err == nil {
			return v, true
		}
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(raw[start:end+1]), &v); err == nil {
			return v, true
		}
	}

	return verdict{}, false
}

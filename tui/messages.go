/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package tui

import (
	"context"

	"github.com/Seednode/argunet/games/debate"
	tea "github.com/charmbracelet/bubbletea"
)

// scoredMsg carries an evaluation finished outside the update loop.
type scoredMsg struct {
	generation int
	text       string
	eval       debate.Evaluation
}

// startMsg asks the model to start a debate once a topic is known.
type startMsg struct {
	player1   string
	player2   string
	threshold int
	topic     string
}

// scoreArgument evaluates req without blocking the update loop.
func scoreArgument(ctx context.Context, scorer debate.Scorer, generation int, req debate.ScoreRequest) tea.Cmd {
	return func() tea.Msg {
		return scoredMsg{
			generation: generation,
			text:       req.Text,
			eval:       scorer.Score(ctx, req),
		}
	}
}

// suggestThenStart fetches a topic before starting the debate.
func suggestThenStart(ctx context.Context, topics debate.TopicSource, start startMsg) tea.Cmd {
	return func() tea.Msg {
		start.topic = topics.SuggestTopic(ctx)
		return start
	}
}

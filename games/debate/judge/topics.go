/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package judge

import (
	"context"
	"strings"
)

const (
	FallbackTopic = "Should universal basic income be implemented globally?"
	emptyTopic    = "Is AI a threat or a tool for human progress?"

	topicPrompt = "Suggest one engaging and controversial debate topic that is suitable for a 1v1 debate. Return only the topic string."
)

// Topics suggests debate topics through the model. It implements
// debate.TopicSource.
type Topics struct {
	llm   Completer
	model string

	Logf func(format string, args ...any)
}

func NewTopics(llm Completer, model string) *Topics {
	if model == "" {
		model = DefaultModel
	}

	return &Topics{llm: llm, model: model}
}

func (t *Topics) SuggestTopic(ctx context.Context) string {
	resp, err := t.llm.ChatCompletion(ctx, t.model, []Message{{Role: "user", Content: topicPrompt}})
	if err == nil {
		var raw string
		raw, err = content(resp)
		if err == nil {
			topic := strings.Trim(strings.TrimSpace(raw), `"`)
			if topic == "" {
				return emptyTopic
			}

			return topic
		}
	}

	if t.Logf != nil {
		t.Logf("Topic suggestion failed: %v", err)
	}

	return FallbackTopic
}

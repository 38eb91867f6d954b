/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package debate

import (
	"context"
	"math/rand/v2"
)

var topics = []string{
	"Is artificial intelligence a threat to human creativity?",
	"Should social media platforms be treated as public utilities?",
	"Is a universal basic income the future of global economy?",
	"Should human genetic engineering be strictly prohibited?",
	"Is the exploration of deep space worth the environmental cost?",
}

// LocalTopics picks from a fixed list of topics.
type LocalTopics struct{}

func (LocalTopics) SuggestTopic(_ context.Context) string {
	return RandomTopic()
}

func RandomTopic() string {
	return topics[rand.IntN(len(topics))]
}

// Topics returns a copy of the built-in topic list.
func Topics() []string {
	return append([]string(nil), topics...)
}

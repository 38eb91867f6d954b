/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"time"

	"github.com/Seednode/argunet/games/debate"
	"github.com/Seednode/argunet/games/debate/judge"
	"github.com/Seednode/argunet/storage"
)

// backend bundles what every shell needs to run a debate.
type backend struct {
	store  storage.Store
	scorer debate.Scorer
	topics debate.TopicSource
}

func newBackend(cfg *Config) (*backend, error) {
	desc := storeDescription(cfg)

	store, err := storage.Open(cfg.store, cfg.storePath)
	if err != nil {
		return nil, err
	}

	logf(cfg, "STORE: Using %s", desc)

	scorer, topics := newScorer(cfg)

	b := &backend{
		store:  store,
		scorer: scorer,
		topics: topics,
	}

	return b, nil
}

// newScorer builds the configured scorer and the matching topic source.
func newScorer(cfg *Config) (debate.Scorer, debate.TopicSource) {
	if cfg.scorer != scorerRemote {
		return debate.NewLocalScorer(), debate.LocalTopics{}
	}

	client := judge.NewClient(cfg.apiKey, cfg.judgeURL)

	scorer := judge.NewScorer(client, cfg.judgeModel)
	scorer.Logf = judgeLogger(cfg)

	topics := judge.NewTopics(client, cfg.judgeModel)
	topics.Logf = judgeLogger(cfg)

	logf(cfg, "JUDGE: Scoring arguments remotely via %s", client.BaseURL())

	return timeoutScorer(scorer, cfg.judgeTimeout), timeoutTopics(topics, cfg.judgeTimeout)
}

func (b *backend) Close() error {
	return b.store.Close()
}

// newGame returns a game for key with any saved debate already loaded.
func (b *backend) newGame(ctx context.Context, cfg *Config, key string) (*debate.Game, error) {
	g := debate.NewGame(b.store, key, b.scorer)
	g.Topics = b.topics
	g.Logf = func(format string, args ...any) {
		logf(cfg, "STORE: "+format, args...)
	}

	if err := g.Load(ctx); err != nil {
		return nil, err
	}

	if g.State() == debate.StateActive {
		logf(cfg, "GAMES: Resumed debate %s", key)
	}

	return g, nil
}

func judgeLogger(cfg *Config) func(string, ...any) {
	return func(format string, args ...any) {
		logf(cfg, "JUDGE: "+format, args...)
	}
}

func timeoutScorer(s debate.Scorer, d time.Duration) debate.Scorer {
	return debate.ScorerFunc(func(ctx context.Context, req debate.ScoreRequest) debate.Evaluation {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		return s.Score(ctx, req)
	})
}

func timeoutTopics(t debate.TopicSource, d time.Duration) debate.TopicSource {
	return debate.TopicFunc(func(ctx context.Context) string {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		return t.SuggestTopic(ctx)
	})
}

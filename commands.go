/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/Seednode/argunet/games/debate"
	"github.com/Seednode/argunet/tui"
	"github.com/spf13/cobra"
)

// localGameKey is where the terminal client keeps its single debate.
const localGameKey = debate.KeyPrefix + "local"

func newPlayCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Play a hot-seat debate in the terminal",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validateGame(); err != nil {
				return err
			}

			b, err := newBackend(cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			game, err := b.newGame(cmd.Context(), cfg, localGameKey)
			if err != nil {
				return err
			}

			return tui.Run(cmd.Context(), game, cfg.threshold)
		},
	}
}

func newScoreCmd(cfg *Config) *cobra.Command {
	var topic string

	cmd := &cobra.Command{
		Use:   "score [argument...]",
		Short: "Score a single argument, read from the arguments or stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validateScorer(); err != nil {
				return err
			}

			text := strings.Join(args, " ")
			if len(args) == 0 {
				data, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return err
				}
				text = string(data)
			}

			eval, err := scoreText(cmd.Context(), cfg, topic, text)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "score: %d\nreasoning: %s\n", eval.Value, eval.Reasoning)

			return nil
		},
	}

	cmd.Flags().StringVar(&topic, "topic", "", "debate topic passed to the remote judge")

	return cmd
}

func scoreText(ctx context.Context, cfg *Config, topic, text string) (debate.Evaluation, error) {
	if strings.TrimSpace(text) == "" {
		return debate.Evaluation{}, debate.ErrEmptyArgument
	}

	scorer, _ := newScorer(cfg)

	eval := scorer.Score(ctx, debate.ScoreRequest{
		Topic: topic,
		Role:  debate.Proponent,
		Text:  text,
	})
	eval.Value = debate.ClampScore(eval.Value)

	return eval, nil
}

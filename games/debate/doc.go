/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package debate implements the two-player debate game: a scorer for
// submitted arguments and the session state machine that applies them.
//
// # Lifecycle
//
// A Game moves through three states:
//
//   - SETUP: no session exists
//   - ACTIVE: players alternate submitting arguments
//   - ENDED: a player reached the threshold, or both voted to stop
//
// Only Reset leaves ENDED, returning to SETUP.
//
// # Scoring
//
// Each argument earns 1 to 10 points. LocalScorer starts from 3, adds 2
// above 15 words and another 2 above 40, 1 above 300 characters, and up to
// 2 for logical markers such as "because" or "evidence". Any Scorer may be
// plugged in instead, including the remote judge in package judge.
//
// # Persistence
//
// Game writes a JSON snapshot to a storage.Store after every mutation and
// reads it back once in Load. Finished or unreadable snapshots are dropped
// rather than resumed.
//
// # Usage
//
//	g := debate.NewGame(store, debate.KeyPrefix+"local", debate.NewLocalScorer())
//	if err := g.Load(ctx); err != nil { ... }
//	if g.State() == debate.StateSetup {
//		err = g.Start(ctx, "Ada", "Grace", 30, "")
//	}
//	msg, err := g.Submit(ctx, "Compilers matter because ...")
//
// Session and Game are not safe for concurrent use.
package debate

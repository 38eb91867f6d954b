/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package debate

import "errors"

var (
	ErrInvalidConfiguration = errors.New("invalid game configuration")
	ErrEmptyArgument        = errors.New("argument is empty")
	ErrArgumentTooLong      = errors.New("argument is too long")
	ErrSessionNotActive     = errors.New("no active debate session")
	ErrSessionInProgress    = errors.New("a debate is already under way; reset it first")
	ErrInvalidPlayer        = errors.New("player index out of range")

	// ErrPersistenceCorrupt marks a stored snapshot that could not be
	// decoded. Load discards such snapshots instead of returning it.
	ErrPersistenceCorrupt = errors.New("stored session is corrupt")

	// ErrPersistence wraps failures of the underlying blob store.
	ErrPersistence = errors.New("session persistence failed")
)

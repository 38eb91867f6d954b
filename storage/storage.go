/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package storage holds the key-value blob stores used to persist game
// snapshots between restarts.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned by Get when no value is stored under a key.
var ErrNotFound = errors.New("not found")

// Store is a named-blob store. Delete of a missing key is not an error.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

const (
	KindBolt   = "bolt"
	KindSQLite = "sqlite"
	KindMemory = "memory"
)

// Kinds lists the supported backends.
func Kinds() []string {
	return []string{KindBolt, KindSQLite, KindMemory}
}

// Open opens the backend named by kind. The path is ignored for memory stores.
func Open(kind, path string) (Store, error) {
	switch strings.ToLower(kind) {
	case KindBolt:
		s, err := OpenBolt(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case KindSQLite:
		s, err := OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case KindMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store kind %q (want one of %s)", kind, strings.Join(Kinds(), ", "))
	}
}

func checkKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("storage key is required")
	}
	return nil
}

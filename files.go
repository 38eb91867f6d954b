/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"os"

	"github.com/Seednode/argunet/storage"
	"github.com/dustin/go-humanize"
)

func humanReadableSize(bytes int) string {
	return humanize.Bytes(uint64(max(bytes, 0)))
}

// storeDescription names the session store for log output, including the
// size of its file when one already exists.
func storeDescription(cfg *Config) string {
	if cfg.store == storage.KindMemory {
		return "in-memory session store"
	}

	info, err := os.Stat(cfg.storePath)
	if err != nil {
		return cfg.store + " session store at " + cfg.storePath + " (new)"
	}

	return cfg.store + " session store at " + cfg.storePath + " (" + humanize.Bytes(uint64(info.Size())) + ")"
}

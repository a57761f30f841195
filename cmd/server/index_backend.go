package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pastewarden.ai/internal/persistence/indexdb"
	"pastewarden.ai/internal/sim/catalogs"
	"pastewarden.ai/internal/sim/host"
	"pastewarden.ai/internal/sim/tuning"
)

type runtimeIndex interface {
	host.Sink
	Close() error
	Dropped() uint64
	UpsertCatalogs(cats *catalogs.Catalogs, tune tuning.Tuning) error
}

func openRuntimeIndex(dataDir string, disableDB bool) (runtimeIndex, error) {
	if disableDB {
		return nil, nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("PW_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		dbPath := filepath.Join(dataDir, "index", "decisions.sqlite")
		return indexdb.OpenSQLite(dbPath)
	default:
		return nil, fmt.Errorf("unsupported PW_INDEX_BACKEND: %s", backend)
	}
}

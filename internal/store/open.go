package store

import (
	"context"
	"fmt"

	"github.com/spf13/afero"

	"github.com/pbaille/fitlog/internal/logging"
)

// Backend kinds accepted by Options.Backend
const (
	BackendAuto       = "auto"
	BackendSQLite     = "sqlite"
	BackendSQLitePure = "sqlite-pure"
	BackendBlob       = "blob"
)

type Options struct {
	Backend  string
	DBPath   string
	BlobPath string
	// Fs hosts the blob backend; defaults to the OS filesystem
	Fs     afero.Fs
	Logger logging.Logger
}

// OpenBackend opens the requested backend. In auto mode it probes the cgo
// sqlite driver, then the pure-Go one, and falls back to the blob store.
// An error means even the blob store is unusable.
func OpenBackend(ctx context.Context, opts Options) (Backend, error) {
	log := logging.OrNop(opts.Logger)
	fsys := opts.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}

	switch opts.Backend {
	case BackendSQLite:
		return OpenSQLite(ctx, DriverCgo, opts.DBPath)
	case BackendSQLitePure:
		return OpenSQLite(ctx, DriverPure, opts.DBPath)
	case BackendBlob:
		return OpenBlob(fsys, opts.BlobPath)
	case "", BackendAuto:
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}

	for _, driver := range []string{DriverCgo, DriverPure} {
		s, err := OpenSQLite(ctx, driver, opts.DBPath)
		if err == nil {
			log.Info("store: using %s at %s", s.Name(), opts.DBPath)
			return s, nil
		}
		log.Debug("store: %s driver unavailable: %v", driver, err)
	}

	b, err := OpenBlob(fsys, opts.BlobPath)
	if err != nil {
		return nil, fmt.Errorf("open fallback store: %w", err)
	}
	log.Info("store: sqlite unavailable, using blob at %s", opts.BlobPath)
	return b, nil
}

// Open opens a backend and wraps it in a NoteStore
func Open(ctx context.Context, opts Options) (*NoteStore, error) {
	b, err := OpenBackend(ctx, opts)
	if err != nil {
		return nil, err
	}
	return New(b, opts.Logger), nil
}

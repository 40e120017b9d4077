package platform

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/nudge/pkg/adapters/fs"
	"github.com/aretw0/nudge/pkg/adapters/sqlite"
	"github.com/aretw0/nudge/pkg/core"
	"github.com/aretw0/nudge/pkg/reminder"
)

// New creates a ready-to-use service.
//
//	svc, err := nudge.New("./vault", nudge.WithAdapter("sqlite"))
//
// The URI argument is adapter-specific; both bundled adapters take a vault directory.
func New(uri string, opts ...Option) (*core.Service, error) {
	repo, err := Init(uri, opts...)
	if err != nil {
		return nil, err
	}

	o := buildOptions(opts)

	var svcOpts []core.ServiceOption
	if o.logger != nil {
		svcOpts = append(svcOpts, core.WithServiceLogger(o.logger))
	}
	if o.clock != nil {
		svcOpts = append(svcOpts, core.WithServiceClock(o.clock))
	}
	svcOpts = append(svcOpts, core.WithServiceDefaultCategory(o.defaultCategory))

	return core.NewService(repo, svcOpts...), nil
}

// Init builds the configured repository and runs its initialization.
func Init(uri string, opts ...Option) (core.Repository, error) {
	o := buildOptions(opts)
	if o.repository != nil {
		return o.repository, nil
	}

	repo, err := Open(uri, opts...)
	if err != nil {
		return nil, err
	}
	if err := repo.Initialize(context.Background()); err != nil {
		if c, ok := repo.(io.Closer); ok {
			_ = c.Close()
		}
		return nil, err
	}
	return repo, nil
}

// Open builds the configured repository without initializing it, e.g. to
// Reset a store that fails initialization with ErrMalformedState.
func Open(uri string, opts ...Option) (core.Repository, error) {
	o := buildOptions(opts)
	if o.repository != nil {
		return o.repository, nil
	}

	path := resolvePath(uri, o)

	var repo core.Repository
	switch o.adapter {
	case AdapterFS:
		r, err := fs.NewRepository(fs.Config{
			Path:         path,
			FileName:     o.fileName,
			SystemDir:    o.systemDir,
			MustExist:    o.mustExist || !o.autoInit,
			ReadOnly:     o.readOnly,
			IOTimeout:    o.ioTimeout,
			Logger:       o.logger,
			ErrorHandler: o.errorHandler,
		})
		if err != nil {
			return nil, err
		}
		repo = r
	case AdapterSQLite:
		repo = sqlite.NewRepository(sqlite.Config{
			Path:        path,
			FileName:    o.fileName,
			MustExist:   o.mustExist || !o.autoInit,
			ReadOnly:    o.readOnly,
			BusyTimeout: o.ioTimeout,
			Logger:      o.logger,
		})
	default:
		return nil, fmt.Errorf("unknown adapter: %s", o.adapter)
	}
	return repo, nil
}

// CheckpointFor returns the scanner checkpoint kept by repo, or nil when the
// adapter has nowhere to keep one.
func CheckpointFor(repo core.Repository) reminder.Checkpoint {
	switch r := repo.(type) {
	case *fs.Repository:
		return r.NewCheckpoint()
	case *sqlite.Repository:
		return r.NewCheckpoint()
	default:
		return nil
	}
}

// resolvePath applies the dev sandbox rules to the user path.
func resolvePath(uri string, o *options) string {
	bypass := o.readOnly || !o.devSafety
	useTemp := o.forceTemp || (IsDevRun() && !bypass)
	resolved := ResolveVaultPath(uri, useTemp)

	if o.logger != nil && useTemp && resolved != uri {
		o.logger.Warn("running in SAFE MODE (dev sandbox)", "original_path", uri, "resolved_path", resolved)
	}
	return resolved
}

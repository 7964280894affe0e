package cli

import (
	"context"
	"fmt"

	"github.com/spf13/afero"

	"github.com/odagate/odagate/internal/adapters/outbound/config"
	"github.com/odagate/odagate/internal/adapters/outbound/history"
	"github.com/odagate/odagate/internal/adapters/outbound/manifeststore"
	"github.com/odagate/odagate/internal/adapters/outbound/parquet"
	"github.com/odagate/odagate/internal/application"
	"github.com/odagate/odagate/internal/domain"
)

// services are the adapters and application services built from Settings.
type services struct {
	catalog   domain.Config
	fs        afero.Fs
	manifests *manifeststore.Store
	validator *application.ValidateService
}

// newServices loads the catalog and wires the validation service. cached
// wraps the parquet reader in the LRU loader for long-lived processes.
func (a *app) newServices(cached bool) (*services, error) {
	catalog, err := config.New().Load(a.settings.Project)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	fsys := afero.NewOsFs()
	var loader domain.FrameLoader = parquet.New(fsys)
	if cached {
		if loader, err = parquet.NewCachingLoader(fsys, loader, parquet.DefaultCacheSize); err != nil {
			return nil, err
		}
	}
	store := manifeststore.New(fsys, a.settings.Paths.ManifestsDir)

	svc := application.NewValidateService(loader, store, catalog, application.Settings{
		CacheDir:    a.settings.Paths.CacheDir,
		CDNDir:      a.settings.Paths.CDNDir,
		Parallelism: a.settings.Run.Parallelism,
	}).WithClock(a.now)

	return &services{catalog: catalog, fs: fsys, manifests: store, validator: svc}, nil
}

// openHistory opens the run history database. The caller closes it.
func (a *app) openHistory(ctx context.Context) (*history.DB, error) {
	db, err := history.Open(ctx, a.settings.Paths.HistoryDB)
	if err != nil {
		return nil, fmt.Errorf("opening run history: %w", err)
	}
	return db, nil
}

// release returns the release named in args, or the default for now.
func (a *app) release(args []string) (string, error) {
	name := domain.DefaultReleaseName(a.now())
	if len(args) > 0 {
		name = args[0]
	}
	if err := domain.CheckReleaseName(name); err != nil {
		return "", err
	}
	return name, nil
}

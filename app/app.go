// Package app wires configuration, storage, the catalog and the batch loop
// into the two image commands.
package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/luinbytes/car-images/batch"
	"github.com/luinbytes/car-images/catalog"
	"github.com/luinbytes/car-images/config"
	"github.com/luinbytes/car-images/fetch"
	"github.com/luinbytes/car-images/launch"
	"github.com/luinbytes/car-images/logging"
	"github.com/luinbytes/car-images/placeholder"
	"github.com/luinbytes/car-images/report"
	"github.com/luinbytes/car-images/storage"
	"github.com/luinbytes/car-images/tui"
	"github.com/luinbytes/car-images/watch"
)

// Main runs the tool selected by mode with command-line args and returns the
// process exit code.
func Main(mode report.Mode, args []string) int {
	cfg, err := config.Load(mode.String(), args)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		return 1
	}

	log := logging.Init(cfg.Verbose)

	// Started from a file manager: reopen in a terminal with the progress view
	if !cfg.TUI && len(args) == 0 && launch.IsDoubleClick() {
		err := launch.SpawnTerminal("-tui")
		if err == nil {
			return 0
		}
		log.Debug().Err(err).Msg("Could not open a terminal, running here")
	}
	if launch.Spawned() {
		defer launch.Pause(os.Stdin, os.Stdout)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := New(cfg, mode, log, os.Stdout)
	defer a.Close()

	if _, err := a.RunOnce(ctx); err != nil {
		log.Error().Err(err).Msgf("%sCannot open destination", a.markers.Emoji("❌"))
		return 1
	}

	if cfg.Watch {
		if err := a.Watch(ctx); err != nil {
			log.Error().Err(err).Msgf("%sError in watch mode", a.markers.Emoji("❌"))
			return 1
		}
	}
	return 0
}

// App holds everything one tool needs across runs
type App struct {
	cfg     *config.Config
	mode    report.Mode
	log     zerolog.Logger
	markers report.Markers
	out     io.Writer

	// OpenStore creates the destination. It is called at most once, after
	// the catalog has been found.
	OpenStore func(ctx context.Context) (storage.Provider, error)

	store    storage.Provider
	producer batch.Producer
	delay    time.Duration
}

// New prepares a tool. The summary goes to out; everything else is logged.
func New(cfg *config.Config, mode report.Mode, log zerolog.Logger, out io.Writer) *App {
	a := &App{
		cfg:     cfg,
		mode:    mode,
		log:     log,
		markers: report.Markers{NoEmoji: cfg.NoEmoji},
		out:     out,
	}
	a.OpenStore = a.openStore

	if cfg.File != "" {
		log.Debug().Msgf("%sLoaded config from: %s", a.markers.Emoji("📄"), cfg.File)
	}

	switch mode {
	case report.Placeholder:
		opts := placeholder.DefaultOptions()
		opts.Faces = placeholder.DefaultFaces(cfg.Font, cfg.FontSize)
		r := placeholder.New(opts, log)
		log.Debug().Msgf("%sFont: %s", a.markers.Emoji("🔤"), r.FaceName())
		a.producer = batch.Placeholders{Renderer: r}
	default:
		client := fetch.New(time.Duration(cfg.Timeout), cfg.UserAgent)
		log.Debug().Msgf("%sTimeout: %v, delay: %v", a.markers.Emoji("⏱️"), cfg.Timeout, cfg.Delay)
		a.producer = batch.Downloader{Client: client}
		a.delay = time.Duration(cfg.Delay)
	}
	return a
}

func (a *App) openStore(ctx context.Context) (storage.Provider, error) {
	switch storage.ProviderType(a.cfg.Dest) {
	case storage.ProviderGoogleDrive:
		return storage.NewGoogleDriveProvider(ctx, *a.cfg.Cloud.GoogleDrive)
	default:
		return storage.NewLocalProvider(a.cfg.OutPath())
	}
}

func (a *App) destination(ctx context.Context) (storage.Provider, error) {
	if a.store != nil {
		return a.store, nil
	}
	store, err := a.OpenStore(ctx)
	if err != nil {
		return nil, err
	}
	a.store = store
	return store, nil
}

// Close releases the destination.
func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// where shows a destination name the way the user would look it up.
func where(store storage.Provider) func(string) string {
	if lp, ok := store.(*storage.LocalProvider); ok {
		return lp.Path
	}
	loc := store.Location()
	return func(name string) string { return path.Join(loc, name) }
}

// RunOnce processes the catalog a single time. A missing or malformed
// catalog is reported and ends the run quietly; only a destination that
// cannot be opened is returned as an error.
func (a *App) RunOnce(ctx context.Context) (report.Summary, error) {
	start := time.Now()
	catalogPath := a.cfg.CatalogPath()
	catalogName := filepath.Base(catalogPath)

	summary := report.Summary{Mode: a.mode}

	if _, err := os.Stat(catalogPath); errors.Is(err, fs.ErrNotExist) {
		a.log.Error().Str("path", catalogPath).Msgf("Error: %s not found", catalogName)
		return summary, nil
	}

	store, err := a.destination(ctx)
	if err != nil {
		return summary, err
	}
	a.log.Info().Msgf("Created/verified %s folder: %s", a.folder(store), store.Location())

	records, err := catalog.Load(catalogPath)
	if err != nil {
		var pe *catalog.ParseError
		if errors.As(err, &pe) {
			err = pe.Err
		}
		a.log.Error().Msgf("Error parsing %s: %v", catalogName, err)
		return summary, nil
	}
	a.log.Info().Msgf("Found %d cars in %s", len(records), catalogName)

	runner := &batch.Runner{
		Store:    store,
		Producer: a.producer,
		Delay:    a.delay,
	}

	var runErr error
	if a.cfg.TUI {
		m := tui.New(a.mode, a.markers, store.Location(), len(records))
		summary, runErr = tui.Run(ctx, m, func(ctx context.Context, obs batch.Observer) (report.Summary, error) {
			runner.Observer = obs
			return a.run(ctx, runner, records)
		})
	} else {
		runner.Observer = report.LogObserver{
			Log:     a.log,
			Mode:    a.mode,
			Markers: a.markers,
			Where:   where(store),
		}
		summary, runErr = a.run(ctx, runner, records)
	}

	if batch.IsCanceled(runErr) {
		a.log.Warn().Msgf("%sStopped before the end of the catalog", a.markers.Emoji(report.Warn))
	} else if runErr != nil {
		a.log.Error().Err(runErr).Msg("Run failed")
	}

	if a.cfg.Verbose {
		summary.Elapsed = time.Since(start)
	}
	fmt.Fprintf(a.out, "\n%s\n", report.Render(summary, a.markers, logging.IsTerminal(a.out)))
	return summary, nil
}

func (a *App) run(ctx context.Context, runner *batch.Runner, records []catalog.Record) (report.Summary, error) {
	tally, err := runner.Run(ctx, records)
	summary := report.Summary{
		Mode:   a.mode,
		Tally:  tally,
		Folder: a.folder(runner.Store),
	}

	// Count even after an interrupt; the context may already be done.
	n, countErr := report.CountImages(context.WithoutCancel(ctx), runner.Store)
	if countErr != nil {
		a.log.Warn().Err(countErr).Msg("Could not count images in the destination")
	}
	summary.InFolder = n
	return summary, err
}

func (a *App) folder(store storage.Provider) string {
	return path.Base(filepath.ToSlash(store.Location()))
}

// Watch re-runs the tool whenever the catalog changes, until ctx is done.
func (a *App) Watch(ctx context.Context) error {
	w, err := watch.New(a.cfg.CatalogPath(), time.Duration(a.cfg.WatchDebounce), a.log)
	if err != nil {
		return err
	}
	defer w.Close()

	a.log.Info().Msgf("%sWatching: %s", a.markers.Emoji("👁️"), w.Path())
	a.log.Info().Msgf("%sDebounce: %v", a.markers.Emoji("⏱️"), a.cfg.WatchDebounce)
	a.log.Info().Msgf("%sPress Ctrl+C to stop watching...", a.markers.Emoji("💡"))

	err = w.Run(ctx, func(ctx context.Context) {
		a.log.Info().Msgf("%sCatalog changed, running again", a.markers.Emoji("🔄"))
		if _, err := a.RunOnce(ctx); err != nil {
			a.log.Error().Err(err).Msgf("%sCannot open destination", a.markers.Emoji("❌"))
		}
	})
	a.log.Info().Msgf("%sWatch mode stopped.", a.markers.Emoji("👋"))
	return err
}

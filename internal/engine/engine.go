// Package engine assembles the playback engine from configuration: stores,
// backends, analysis, autoplay and the playback service.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/llehouerou/drift/internal/catalog"
	"github.com/llehouerou/drift/internal/config"
	"github.com/llehouerou/drift/internal/errmsg"
	"github.com/llehouerou/drift/internal/lastfm"
	"github.com/llehouerou/drift/internal/mpris"
	"github.com/llehouerou/drift/internal/notify"
	"github.com/llehouerou/drift/internal/playback"
	"github.com/llehouerou/drift/internal/player"
	"github.com/llehouerou/drift/internal/playlist"
	"github.com/llehouerou/drift/internal/playlists"
	"github.com/llehouerou/drift/internal/state"
	"github.com/llehouerou/drift/internal/suggest"
)

// Engine owns every long-lived component of a session.
type Engine struct {
	Playback  playback.Service
	Library   *playlists.Library
	Searcher  catalog.Searcher
	Trending  catalog.Trending // nil without a YouTube API key
	Suggester suggest.Suggester
	Lastfm    *lastfm.Client // nil without Last.fm credentials

	logger zerolog.Logger
	local  *state.SQLite
	store  state.Store
	sync   *state.Sync
	mpris  *mpris.Adapter

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	closeOnce sync.Once
	closeErr  error
}

// Option customizes how New builds the engine.
type Option func(*options)

type options struct {
	remote player.Remote
	output player.Output
	store  state.Store
}

// WithRemote replaces the mpv process behind the embed backend.
func WithRemote(r player.Remote) Option {
	return func(o *options) { o.remote = r }
}

// WithOutput replaces the speaker behind the direct backend.
func WithOutput(out player.Output) Option {
	return func(o *options) { o.output = out }
}

// errHeadless is what streaming loads fail with in a headless engine.
var errHeadless = errors.New("headless session has no player")

// Headless builds the engine without mpv or an audio device, for commands
// that only edit the user's collections. Mutations are written through to
// the store as in a playing session and flushed by Close.
func Headless() Option {
	return func(o *options) {
		o.remote = unavailableRemote{err: errHeadless}
		o.output = player.NewNullOutput()
	}
}

// WithStore replaces the configured user document store.
func WithStore(s state.Store) Option {
	return func(o *options) { o.store = s }
}

// New builds and starts an engine. The user document is pulled before New
// returns; remote changes are applied in the background until Close.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts ...Option) (*Engine, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	e := &Engine{logger: logger}
	e.ctx, e.cancel = context.WithCancel(context.Background())

	if err := e.openStores(ctx, cfg, o.store); err != nil {
		e.cancel()
		return nil, err
	}

	queue := playlist.NewQueue()
	history := playlist.NewHistory(playlist.DefaultHistorySize)
	e.Library = playlists.New()

	e.Searcher, e.Trending = NewCatalog(cfg)
	e.Lastfm = NewLastfm(cfg, e.local, logger)
	e.Suggester = NewSuggester(cfg, e.Lastfm, logger)

	remote := o.remote
	if remote == nil {
		remote = e.startMPV(ctx, cfg)
	}
	output := o.output
	if output == nil {
		output = player.Speaker()
	}
	embed := player.NewEmbed(remote)
	direct := player.NewDirect(output)

	e.Playback = playback.New(playback.Config{
		Backends: []player.Backend{embed, direct},
		Queue:    queue,
		History:  history,
		Resolver: e.buildResolver(cfg),
		Frames:   newFrames(cfg, direct),
		Volume:   cfg.GetVolume(),
		Logger:   logger.With().Str("component", "playback").Logger(),
	})

	if err := e.startSync(ctx, cfg, queue, history); err != nil {
		_ = e.Close()
		return nil, err
	}
	e.startScrobbler()

	return e, nil
}

func (e *Engine) openStores(ctx context.Context, cfg *config.Config, override state.Store) error {
	if override != nil {
		local, err := OpenLocal(cfg)
		if err != nil {
			return err
		}
		e.local, e.store = local, override
		return nil
	}
	local, store, err := OpenStores(ctx, cfg)
	if err != nil {
		return err
	}
	e.local, e.store = local, store
	return nil
}

// OpenLocal opens the local database holding settings and caches.
func OpenLocal(cfg *config.Config) (*state.SQLite, error) {
	path := cfg.GetStoreConfig().Path
	if path == "" {
		p, err := state.DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", errmsg.OpInitialize, err)
		}
		path = p
	}
	local, err := state.OpenSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("open local database: %w", err)
	}
	return local, nil
}

// OpenStores opens the local database and the configured user document
// store. Both are the same value for the sqlite kind.
func OpenStores(ctx context.Context, cfg *config.Config) (*state.SQLite, state.Store, error) {
	local, err := OpenLocal(cfg)
	if err != nil {
		return nil, nil, err
	}
	sc := cfg.GetStoreConfig()
	switch sc.Kind {
	case config.StoreMongo:
		m, err := state.OpenMongo(ctx, sc.MongoURI, sc.MongoDatabase)
		if err != nil {
			local.Close()
			return nil, nil, fmt.Errorf("open mongo store: %w", err)
		}
		return local, m, nil
	case config.StoreMemory:
		return local, state.NewMemory(), nil
	default:
		return local, local, nil
	}
}

// Local returns the local database, which holds settings and caches.
func (e *Engine) Local() *state.SQLite {
	return e.local
}

// StartMPRIS exposes playback on the session bus.
func (e *Engine) StartMPRIS() error {
	a, err := mpris.New(e.Playback)
	if err != nil {
		return err
	}
	e.mpris = a
	return nil
}

// StartNotifier posts a desktop notification for each new track, unless
// disabled in the config.
func (e *Engine) StartNotifier(cfg *config.Config) {
	if !cfg.NotificationsEnabled() {
		return
	}
	n, err := notify.New()
	if err != nil {
		e.logger.Warn().Err(err).Msg("notifications unavailable")
		return
	}
	announcer := notify.NewAnnouncer(n, e.logger.With().Str("component", "notify").Logger())
	sub := e.Playback.Subscribe()
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		announcer.Run(e.ctx, sub)
	}()
}

// Close stops every component. The analysis graph and the remote player
// are released by the playback service.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		e.cancel()

		var errs []error
		if e.mpris != nil {
			errs = append(errs, e.mpris.Close())
		}
		if e.Playback != nil {
			errs = append(errs, e.Playback.Close())
		}
		e.wg.Wait()
		if e.sync != nil {
			e.sync.Close()
		}
		if e.store != nil && e.store != state.Store(e.local) {
			errs = append(errs, e.store.Close())
		}
		if e.local != nil {
			errs = append(errs, e.local.Close())
		}
		e.closeErr = errors.Join(errs...)
	})
	return e.closeErr
}

package engine

import (
	"context"
	"net/http"
	"net/url"
	"time"

	ollama "github.com/ollama/ollama/api"
	"github.com/rs/zerolog"

	"github.com/llehouerou/drift/internal/analyzer"
	"github.com/llehouerou/drift/internal/catalog"
	"github.com/llehouerou/drift/internal/config"
	"github.com/llehouerou/drift/internal/lastfm"
	"github.com/llehouerou/drift/internal/mpv"
	"github.com/llehouerou/drift/internal/player"
	"github.com/llehouerou/drift/internal/radio"
	"github.com/llehouerou/drift/internal/state"
	"github.com/llehouerou/drift/internal/suggest"
)

// spectrumBands is the number of bars in a frequency snapshot.
const spectrumBands = 64

// NewCatalog returns the configured search provider and, when a YouTube
// API key is set, the trending provider.
func NewCatalog(cfg *config.Config) (catalog.Searcher, catalog.Trending) {
	sc := cfg.GetSearchConfig()
	if sc.YouTubeAPIKey == "" {
		return catalog.NewYTMusic(), nil
	}
	yt := catalog.NewYouTube(sc.YouTubeAPIKey, sc.Region)
	if sc.Provider == config.SearchYouTube {
		return yt, yt
	}
	return catalog.NewYTMusic(), yt
}

// NewLastfm returns a client with the stored session, or nil when Last.fm
// is not configured.
func NewLastfm(cfg *config.Config, local *state.SQLite, logger zerolog.Logger) *lastfm.Client {
	if !cfg.HasLastfmConfig() {
		return nil
	}
	client := lastfm.New(cfg.Lastfm.APIKey, cfg.Lastfm.APISecret)
	key, err := local.Setting(state.SettingLastfmSession)
	if err != nil {
		logger.Warn().Err(err).Msg("could not read last.fm session")
		return client
	}
	if key != "" {
		client.SetSessionKey(key)
	}
	return client
}

// NewSuggester returns the configured suggestion provider. Anything
// misconfigured degrades to suggest.None.
func NewSuggester(cfg *config.Config, lf *lastfm.Client, logger zerolog.Logger) suggest.Suggester {
	switch cfg.GetAutoplayConfig().Suggester {
	case config.SuggesterLastfm:
		if lf == nil {
			logger.Warn().Msg("lastfm suggester needs api_key and api_secret, autoplay disabled")
			return suggest.None{}
		}
		return suggest.NewLastfm(lf)
	case config.SuggesterNone:
		return suggest.None{}
	}

	oc := cfg.GetOllamaConfig()
	if oc.Host != "" {
		base, err := url.Parse(oc.Host)
		if err != nil {
			logger.Warn().Err(err).Str("host", oc.Host).Msg("invalid ollama host, autoplay disabled")
			return suggest.None{}
		}
		return suggest.NewOllama(ollama.NewClient(base, http.DefaultClient), oc.Model)
	}
	o, err := suggest.OllamaFromEnvironment(oc.Model)
	if err != nil {
		logger.Warn().Err(err).Msg("autoplay disabled")
		return suggest.None{}
	}
	return o
}

func (e *Engine) buildResolver(cfg *config.Config) *radio.Resolver {
	ttl := time.Duration(cfg.GetAutoplayConfig().CacheTTLHours) * time.Hour
	cache, err := radio.NewCache(e.local.DB(), ttl)
	if err != nil {
		e.logger.Warn().Err(err).Msg("search cache unavailable")
		cache = nil
	} else if err := cache.CleanExpired(); err != nil {
		e.logger.Debug().Err(err).Msg("search cache cleanup failed")
	}
	return radio.New(e.Suggester, e.Searcher, cache,
		e.logger.With().Str("component", "radio").Logger())
}

// startMPV launches the remote player. Without mpv the embed backend still
// exists and every streaming load fails with the start error.
func (e *Engine) startMPV(ctx context.Context, cfg *config.Config) player.Remote {
	ec := cfg.GetEmbedConfig()
	client, err := mpv.Start(ctx, mpv.Config{
		Path:       ec.MPVPath,
		SocketPath: ec.SocketPath,
		YtdlFormat: ec.YTDLFormat,
	}, e.logger.With().Str("component", "mpv").Logger())
	if err != nil {
		e.logger.Warn().Err(err).Msg("mpv unavailable, streaming sources disabled")
		return unavailableRemote{err: err}
	}
	return client
}

func newFrames(cfg *config.Config, direct *player.DirectBackend) *analyzer.Loop {
	ac := cfg.GetAnalyzerConfig()
	a := analyzer.New(direct.SampleRate(), ac.FFTSize, spectrumBands, *ac.Smoothing)
	return analyzer.NewLoop(direct, a, ac.FPS)
}

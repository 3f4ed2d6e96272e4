// Package main provides the player daemon entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	apiconnect "github.com/osa030/nowplaying/internal/api/connect"
	"github.com/osa030/nowplaying/internal/app/artwork"
	"github.com/osa030/nowplaying/internal/app/filter"
	"github.com/osa030/nowplaying/internal/app/notification"
	"github.com/osa030/nowplaying/internal/app/playback"
	"github.com/osa030/nowplaying/internal/app/projector"
	"github.com/osa030/nowplaying/internal/app/source"
	"github.com/osa030/nowplaying/internal/infra/config"
	"github.com/osa030/nowplaying/internal/infra/lastfm"
	"github.com/osa030/nowplaying/internal/infra/logger"
	"github.com/osa030/nowplaying/internal/infra/spotify"
)

var (
	app        = kingpin.New("nowplayingd", "Now-playing player daemon")
	configPath = app.Flag("config", "Path to config file").Default("config/nowplaying.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stderr)").String()

	// list-filters command
	listFiltersCmd = app.Command("list-filters", "List available filters and exit")
)

func init() {
	app.Command("start", "Start the player (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if command == listFiltersCmd.FullCommand() {
		printFilters()
		return
	}

	loggerConfig := logger.Config{Level: "info", File: *logfile}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	closer, err := logger.Init(loggerConfig)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer closer.Close()

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Player error: %v", err)
		os.Exit(1)
	}
}

// run wires the player and serves it until a shutdown signal arrives.
func run(cfg *config.Config) error {
	ctx := context.Background()

	// A nil SpotifyClient must stay an untyped nil interface.
	var spotifyClient source.SpotifyClient
	if cfg.UsesSpotify() {
		client, err := spotify.New(ctx, spotify.Config{
			ClientID:     cfg.Spotify.ClientID,
			ClientSecret: cfg.Spotify.ClientSecret,
			RefreshToken: cfg.Spotify.RefreshToken,
			Market:       cfg.Spotify.Market,
		})
		if err != nil {
			return errors.Wrap(err, "failed to create Spotify client")
		}
		spotifyClient = client

		if err := source.ValidatePlaylists(ctx, cfg, spotifyClient); err != nil {
			zlog.Warn().Msgf("%v", err)
		}
	}

	chain, err := filter.NewChainFromConfig(cfg)
	if err != nil {
		return errors.Wrap(err, "invalid filter config")
	}
	providers, err := source.NewProviderChainFromConfig(cfg, spotifyClient, chain)
	if err != nil {
		return errors.Wrap(err, "invalid queue config")
	}
	selection, err := providers.Select(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to build queue")
	}
	zlog.Info().Msgf("Queue selected: source=%s tracks=%d", selection.DisplayName, len(selection.Tracks))

	tracks := selection.Tracks
	if cfg.LastFM.APIKey != "" {
		lastfmClient, err := lastfm.New(lastfm.Config{APIKey: cfg.LastFM.APIKey, CacheSize: cfg.LastFM.CacheSize})
		if err != nil {
			return errors.Wrap(err, "failed to create Last.fm client")
		}
		tracks = source.FillMissingArtwork(ctx, tracks, lastfmClient)
	}

	repeatMode, err := playback.ParseRepeatMode(cfg.Playback.RepeatMode)
	if err != nil {
		return err
	}
	engine := playback.NewController(playback.Config{
		BackSkipThreshold: cfg.Playback.BackSkipThreshold(),
		RepeatMode:        repeatMode,
		Clock:             playback.NewTickerClock(cfg.Playback.TickInterval()),
	})
	defer engine.Close()

	viewDispatcher := notification.NewSerial()
	defer viewDispatcher.Close()
	proj := projector.New(engine, projector.Config{Dispatcher: viewDispatcher})
	defer proj.Close()

	remote, err := artwork.NewRemoteResolver(artwork.RemoteConfig{
		CacheSize: cfg.Artwork.CacheSize,
		Timeout:   cfg.Artwork.FetchTimeout(),
	})
	if err != nil {
		return errors.Wrap(err, "failed to create artwork resolver")
	}
	loader := artwork.NewLoader(artwork.NewRouter(
		artwork.NewAssetResolver(afero.NewOsFs(), cfg.Artwork.AssetDir),
		remote,
	))
	defer loader.Close()
	proj.SubscribeArtwork(loader.HandleRequest)
	proj.SubscribeViews(func(v projector.ViewState) {
		zlog.Debug().Msgf("view: title=%q elapsed=%s/%s playing=%t repeat=%s liked=%t",
			v.Title, v.ElapsedText, v.DurationText, v.IsPlaying, v.RepeatMode, v.IsLiked)
	})

	if err := engine.Load(tracks); err != nil {
		return errors.Wrap(err, "failed to load queue")
	}
	if cfg.Playback.Autoplay {
		engine.Play()
	}

	playerService := apiconnect.NewPlayerService(proj)
	var opts []connect.HandlerOption
	if cfg.Server.Token != "" {
		opts = append(opts, connect.WithInterceptors(apiconnect.NewTokenInterceptor(cfg.Server.Token)))
	} else {
		zlog.Warn().Msg("No control token configured, remote control is open")
	}
	playerPath, playerHandler := apiconnect.NewPlayerServiceHandler(playerService, opts...)

	mux := http.NewServeMux()
	mux.Handle(playerPath, playerHandler)
	mux.Handle("/artwork", loader)

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: h2c.NewHandler(mux, &http2.Server{}),
	}

	serverErrCh := make(chan error, 1)
	go func() {
		zlog.Info().Msgf("Starting server: addr=%s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	executeHooks(cfg.Server.Hooks.OnStarted, "on_started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case err := <-serverErrCh:
		return errors.Wrap(err, "server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// End watch streams before the server waits on them.
	playerService.Close()
	engine.Pause()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}
	zlog.Info().Msg("Server stopped")

	executeHooks(cfg.Server.Hooks.OnStopped, "on_stopped")
	return nil
}

// printFilters prints available filters.
func printFilters() {
	fmt.Println("Available Filters:")
	registry := filter.GetRegistered()
	for _, name := range filter.RegisteredNames() {
		f := registry[name]()
		codes := strings.Join(f.ReturnCodes(), ", ")
		fmt.Printf("  %-30s - %s [codes: %s]\n", f.Name(), f.Description(), codes)
	}
}

// executeHooks runs a list of shell commands.
func executeHooks(hooks []string, stage string) {
	if len(hooks) == 0 {
		return
	}

	zlog.Info().Msgf("Executing %s hooks (%d commands)", stage, len(hooks))

	for _, hook := range hooks {
		zlog.Info().Msgf("Executing hook: %s", hook)
		cmd := exec.Command("sh", "-c", hook)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			zlog.Error().Err(err).Msgf("Failed to execute hook: %s", hook)
		}
	}
}

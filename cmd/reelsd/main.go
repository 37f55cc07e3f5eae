// SPDX-License-Identifier: MIT

// reelsd runs the headless reels playback daemon: it loads the feed,
// opens the music lookup store, mounts a playback session and serves
// the HTTP input/state API.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/glintworks/reels/internal/api"
	"github.com/glintworks/reels/internal/config"
	"github.com/glintworks/reels/internal/deeplink"
	"github.com/glintworks/reels/internal/feed"
	infraaudio "github.com/glintworks/reels/internal/infra/audio"
	inframedia "github.com/glintworks/reels/internal/infra/media"
	xglog "github.com/glintworks/reels/internal/log"
	"github.com/glintworks/reels/internal/music"
	"github.com/glintworks/reels/internal/music/sqlitestore"
	"github.com/glintworks/reels/internal/playback/audio"
	"github.com/glintworks/reels/internal/playback/cache"
	"github.com/glintworks/reels/internal/playback/navigator"
	"github.com/glintworks/reels/internal/playback/ports"
	"github.com/glintworks/reels/internal/playback/session"
	"github.com/glintworks/reels/internal/playback/syncer"
)

var (
	version   = "v0.3.0"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("reelsd %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	if err := run(*configPath); err != nil {
		logger := xglog.WithComponent("daemon")
		logger.Error().Err(err).Msg("daemon exited with error")
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	xglog.Configure(xglog.Config{
		Level:   cfg.LogLevel,
		Service: "reelsd",
	})
	logger := xglog.WithComponent("daemon")
	logger.Info().Str("version", version).Msg("starting reelsd")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	source, err := feed.NewFileSource(cfg.Feed.Path)
	if err != nil {
		return fmt.Errorf("load feed: %w", err)
	}
	logger.Info().Str("path", cfg.Feed.Path).Int("items", len(source.Items())).Msg("feed loaded")

	store, err := sqlitestore.New(cfg.Music.DBPath)
	if err != nil {
		return fmt.Errorf("open music store: %w", err)
	}
	defer func() { _ = store.Close() }()

	var link ports.LinkState
	if cfg.Feed.LinkStatePath != "" {
		fileLink, err := deeplink.Open(cfg.Feed.LinkStatePath)
		if err != nil {
			return fmt.Errorf("open deep link state: %w", err)
		}
		link = fileLink
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	sess, err := session.Mount(source.Items(), session.Deps{
		Output:   infraaudio.NewSpeakerOutput(),
		Decoder:  infraaudio.NewFetchDecoder(httpClient),
		Factory:  inframedia.NewFactory(httpClient),
		Link:     link,
		Resolver: music.NewResolver(store),
	}, sessionConfig(cfg))
	if err != nil {
		return fmt.Errorf("mount session: %w", err)
	}
	defer sess.Unmount()

	server := api.New(api.Config{
		Listen:    cfg.API.Listen,
		RateLimit: cfg.API.RateLimit,
	}, source, func() *session.Session { return sess })

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Start(ctx)
	})
	if cfg.Feed.Watch {
		g.Go(func() error {
			if err := feed.Watch(ctx, source, time.Second); err != nil && ctx.Err() == nil {
				return fmt.Errorf("feed watcher: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			syncFeed(ctx, source, sess)
			return nil
		})
	}

	err = g.Wait()
	logger.Info().Msg("shutting down")
	return err
}

// syncFeed pushes reloaded feed snapshots into the session.
func syncFeed(ctx context.Context, source *feed.FileSource, sess *session.Session) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	last := source.Version()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if v := source.Version(); v != last {
				last = v
				sess.SetItems(source.Items())
			}
		}
	}
}

func sessionConfig(cfg config.FileConfig) session.Config {
	// An explicit lookBehind of 0 maps to the cache's negative
	// sentinel; its zero value means "use the default".
	lookBehind := cfg.Cache.LookBehind
	if lookBehind == 0 {
		lookBehind = -1
	}
	return session.Config{
		Audio: audio.Config{
			FadeIn:  cfg.Playback.FadeIn,
			FadeOut: cfg.Playback.FadeOut,
		},
		Syncer: syncer.Config{
			SettleDelay:  cfg.Playback.SettleDelay,
			SlideAdvance: cfg.Playback.SlideAdvance,
		},
		Navigator: navigator.Config{
			CoolDown:   cfg.Playback.CoolDown,
			SwipeMinPx: cfg.Playback.SwipeMinPx,
		},
		Cache: cache.Config{
			LookAhead:   cfg.Cache.LookAhead,
			LookBehind:  lookBehind,
			Concurrency: cfg.Cache.PreloadConcurrency,
		},
	}
}

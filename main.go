package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"skidoodle/spotify-admute/internal/admute"
	"skidoodle/spotify-admute/internal/app"
	"skidoodle/spotify-admute/internal/audio"
	"skidoodle/spotify-admute/internal/config"
	"skidoodle/spotify-admute/internal/logging"
	"skidoodle/spotify-admute/internal/notify"
	"skidoodle/spotify-admute/internal/spotify"
	"skidoodle/spotify-admute/internal/websocket"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc"
	"github.com/spf13/pflag"
)

func main() {
	flags := config.Flags()
	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load(flags)
	if err != nil {
		logrus.WithError(err).Fatal("failed to load configuration")
	}

	logger, err := logging.New(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		logrus.WithError(err).Fatal("failed to set up logging")
	}

	if err := run(cfg, logger); err != nil {
		logger.Named("main").WithError(err).Error("application error")
		_ = logger.Close()
		os.Exit(1)
	}
	_ = logger.Close()
}

func run(cfg *config.Config, logger *logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.Named("main")
	log.WithField("file", logger.Path).Info("logging to file")
	if !cfg.EnvFileLoaded {
		log.Warn("no .env file found, using environment variables")
	}
	if file := cfg.File(); file != "" {
		log.WithField("file", file).Info("loaded config file")
	}
	if cfg.WatchLogLevel(func(level string) {
		logger.SetLevel(logging.ParseLevel(level))
		log.WithField("level", level).Info("log level changed")
	}) {
		log.Debug("watching config file for log level changes")
	}

	remote := spotify.NewClient(ctx, cfg.Spotify.ClientID, cfg.Spotify.ClientSecret, cfg.Spotify.RefreshToken, logger.Named("spotify"))

	muter, err := audio.New(cfg.Audio.Backend, cfg.Audio.Sink, logger.Named("audio"))
	if err != nil {
		return fmt.Errorf("audio: %w", err)
	}
	defer func() {
		if err := muter.Close(); err != nil {
			log.WithError(err).Warn("failed to close audio backend")
		}
	}()

	a := app.New(app.Deps{
		Remote:   remote,
		Muter:    muter,
		Notifier: notify.New(cfg.Notify, logger.Named("notify")),
		Prompter: app.NewPrompter(cfg.PromptMode, os.Stdin, os.Stdout),
		Logger:   logger.Named("app"),
	}, app.Options{
		Username: cfg.Spotify.Username,
		Poll: admute.Options{
			Attempts:     cfg.Poll.Attempts,
			SilentRounds: cfg.Poll.SilentRounds,
			TimeUnit:     cfg.Poll.TimeUnit,
			LogPath:      logger.Path,
		},
	})

	var wg conc.WaitGroup
	if cfg.ServerPort != "" {
		server := websocket.NewServer(":"+cfg.ServerPort, cfg.AllowedOrigins, a, logger.Named("server"))
		a.SetBroadcaster(server)
		wg.Go(func() {
			if err := server.Run(ctx); err != nil {
				log.WithError(err).Error("status server failed")
			}
		})
	}

	err = a.Run(ctx)
	// Take the status server down too when the app returns on its own.
	stop()
	wg.Wait()

	if err != nil {
		return err
	}
	log.Info("shutdown complete")
	return nil
}

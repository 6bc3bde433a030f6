package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/circleapp/theater/pkg/ctxlogger"
)

func loadPeerConfig() (peerConfig, string) {
	pflag.String("server", "ws://localhost:8080", "Relay server url")
	pflag.String("session", "", "Session id to join")
	pflag.String("name", "peer", "Display name")
	pflag.String("auth-token", "", "Auth token from a previous join")
	pflag.String("video", "", "YouTube url or id; defaults to the session video")
	pflag.Bool("play", false, "Start playback after joining")
	pflag.String("log-level", "INFO", "Logging level")
	pflag.Parse()

	viper.SetEnvPrefix("PEER")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	viper.BindPFlags(pflag.CommandLine)

	return peerConfig{
		Server:    viper.GetString("server"),
		SessionID: viper.GetString("session"),
		Name:      viper.GetString("name"),
		AuthToken: viper.GetString("auth-token"),
		Video:     viper.GetString("video"),
		Play:      viper.GetBool("play"),
	}, viper.GetString("log-level")
}

func main() {
	cfg, logLevel := loadPeerConfig()
	if cfg.SessionID == "" {
		log.Fatal("--session is required")
	}

	level := slog.LevelInfo
	if err := level.UnmarshalText([]byte(strings.ToUpper(logLevel))); err != nil {
		log.Fatal(err)
	}
	cfg.Logger = slog.New(ctxlogger.ContextHandler{
		Handler: slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, err := dial(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	if err := p.join(ctx); err != nil {
		log.Fatal(err)
	}
	if err := p.run(ctx); err != nil {
		cfg.Logger.Info("connection closed", "error", err)
	}
}

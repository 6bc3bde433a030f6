package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/circleapp/theater/internal/content"
	"github.com/circleapp/theater/internal/controller"
	"github.com/circleapp/theater/internal/geolocation"
	"github.com/circleapp/theater/internal/geolocation/geoip"
	"github.com/circleapp/theater/internal/repository/checkin/sqlite"
	"github.com/circleapp/theater/internal/repository/connection/inmemory"
	"github.com/circleapp/theater/internal/repository/session/redis"
	"github.com/circleapp/theater/internal/service/checkin"
	"github.com/circleapp/theater/internal/service/theater"
	"github.com/circleapp/theater/internal/storage"
	"github.com/circleapp/theater/pkg/ctxlogger"
	"github.com/circleapp/theater/pkg/redisclient"
	"github.com/circleapp/theater/pkg/youtube"
)

const (
	sessionTTL      = 24 * 14 * time.Hour
	shutdownTimeout = 30 * time.Second
)

type AppConfig struct {
	Secret             string        `json:"-"`
	Host               string        `json:"host"`
	Port               int           `json:"port"`
	LogLevel           string        `json:"log_level"`
	PeersLimit         int           `json:"peers_limit"`
	SessionExp         time.Duration `json:"session_exp"`
	RedisHost          string        `json:"redis_host"`
	RedisPort          int           `json:"redis_port"`
	RedisPassword      string        `json:"-"`
	DriftTolerance     time.Duration `json:"drift_tolerance"`
	CorrectionInterval time.Duration `json:"correction_interval"`
	PollInterval       time.Duration `json:"poll_interval"`
	GeoIPDB            string        `json:"geoip_db"`
	SQLitePath         string        `json:"sqlite_path"`
	S3Endpoint         string        `json:"s3_endpoint"`
	S3PublicEndpoint   string        `json:"s3_public_endpoint"`
	S3Bucket           string        `json:"s3_bucket"`
	S3AccessKey        string        `json:"-"`
	S3SecretKey        string        `json:"-"`
	S3Region           string        `json:"s3_region"`
	AssetURLExp        time.Duration `json:"asset_url_exp"`
	CORSOrigins        []string      `json:"cors_origins"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.Secret == "" {
		return errors.New("secret must be set")
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", cfg.Port)
	}
	if cfg.PeersLimit < 2 {
		return fmt.Errorf("peers limit must be at least 2")
	}
	if cfg.SessionExp <= 0 {
		return fmt.Errorf("session exp must be positive")
	}
	if cfg.DriftTolerance < 0 || cfg.CorrectionInterval < 0 || cfg.PollInterval < 0 {
		return fmt.Errorf("sync intervals must not be negative")
	}
	if cfg.SQLitePath == "" {
		return fmt.Errorf("sqlite path must be set")
	}
	if cfg.S3Bucket != "" && (cfg.S3AccessKey == "" || cfg.S3SecretKey == "") {
		return fmt.Errorf("s3 bucket requires access and secret keys")
	}
	if _, err := parseLogLevel(cfg.LogLevel); err != nil {
		return err
	}

	return nil
}

func parseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}

	return level, nil
}

func newLogger(w io.Writer, logLevel string) (*slog.Logger, error) {
	level, err := parseLogLevel(logLevel)
	if err != nil {
		return nil, err
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     level,
			AddSource: true,
		}),
	}

	return slog.New(&h), nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	logger, err := newLogger(os.Stdout, cfg.LogLevel)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	rc, err := redisclient.NewRedisClient(ctx, &redisclient.Config{
		Port:     cfg.RedisPort,
		Host:     cfg.RedisHost,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer rc.Close()

	checkInRepo, err := sqlite.Open(cfg.SQLitePath, logger)
	if err != nil {
		return fmt.Errorf("failed to open check-in store: %w", err)
	}
	defer checkInRepo.Close()

	resolver := geoip.New(cfg.GeoIPDB, logger)
	defer resolver.Close()

	var signer content.URLSigner
	if cfg.S3Bucket != "" {
		st, err := storage.New(ctx, storage.Config{
			Endpoint:       cfg.S3Endpoint,
			PublicEndpoint: cfg.S3PublicEndpoint,
			Bucket:         cfg.S3Bucket,
			AccessKey:      cfg.S3AccessKey,
			SecretKey:      cfg.S3SecretKey,
			Region:         cfg.S3Region,
			Expiry:         cfg.AssetURLExp,
		})
		if err != nil {
			return fmt.Errorf("failed to create storage: %w", err)
		}
		signer = st
	}
	library := content.New(content.DefaultItems(), signer, logger)

	theaterService := theater.NewService(
		redis.NewRepo(rc, logger, sessionTTL),
		inmemory.NewRepo(logger),
		library,
		logger,
		&theater.Config{
			PeersLimit:         cfg.PeersLimit,
			Secret:             cfg.Secret,
			SessionExp:         cfg.SessionExp,
			DriftTolerance:     cfg.DriftTolerance,
			CorrectionInterval: cfg.CorrectionInterval,
			PollInterval:       cfg.PollInterval,
		},
	)
	defer theaterService.Close()

	checkInService := checkin.NewService(checkInRepo, resolver, logger, &checkin.Config{
		Options: geolocation.DefaultOptions(),
	})

	ctrl := controller.NewController(
		theaterService,
		checkInService,
		library,
		youtube.NewClient(),
		logger,
		&controller.Config{CORSOrigins: cfg.CORSOrigins},
	)
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           ctrl.GetMux(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)
	defer serverStopCtx()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer signal.Stop(sig)

	shutdownErr := make(chan error, 1)
	go func() {
		select {
		case <-sig:
		case <-serverCtx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(serverCtx), shutdownTimeout)
		defer cancel()

		logger.InfoContext(shutdownCtx, "shutting down server")
		shutdownErr <- server.Shutdown(shutdownCtx)
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	if err := <-shutdownErr; err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	return nil
}

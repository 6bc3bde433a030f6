package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/circleapp/theater/internal/app"
)

type configVar[T any] struct {
	envKey       string
	flagKey      string
	defaultValue T
	usage        string
}

// bind declares the flag and wires env and default lookups through viper.
func (v configVar[T]) bind(fs *pflag.FlagSet) {
	switch d := any(v.defaultValue).(type) {
	case string:
		fs.String(v.flagKey, d, v.usage)
	case int:
		fs.Int(v.flagKey, d, v.usage)
	case time.Duration:
		fs.Duration(v.flagKey, d, v.usage)
	case []string:
		fs.StringSlice(v.flagKey, d, v.usage)
	default:
		panic(fmt.Sprintf("unsupported config type %T for %s", d, v.flagKey))
	}

	viper.BindEnv(v.flagKey, v.envKey)
	viper.SetDefault(v.flagKey, v.defaultValue)
}

var (
	secret = configVar[string]{
		envKey:       "SERVER_SECRET",
		flagKey:      "secret",
		defaultValue: "",
		usage:        "Server secret used to sign auth tokens",
	}
	host = configVar[string]{
		envKey:       "SERVER_HOST",
		flagKey:      "host",
		defaultValue: "0.0.0.0",
		usage:        "Server host",
	}
	port = configVar[int]{
		envKey:       "SERVER_PORT",
		flagKey:      "port",
		defaultValue: 8080,
		usage:        "Server port",
	}
	logLevel = configVar[string]{
		envKey:       "SERVER_LOG_LEVEL",
		flagKey:      "log-level",
		defaultValue: "INFO",
		usage:        "Logging level",
	}
	peersLimit = configVar[int]{
		envKey:       "SERVER_PEERS_LIMIT",
		flagKey:      "peers-limit",
		defaultValue: 2,
		usage:        "Maximum number of peers in a session",
	}
	sessionExp = configVar[time.Duration]{
		envKey:       "SERVER_SESSION_EXP",
		flagKey:      "session-exp",
		defaultValue: 30 * time.Second,
		usage:        "How long an empty session is kept",
	}
	redisHost = configVar[string]{
		envKey:       "REDIS_HOST",
		flagKey:      "redis-host",
		defaultValue: "localhost",
		usage:        "Redis host",
	}
	redisPort = configVar[int]{
		envKey:       "REDIS_PORT",
		flagKey:      "redis-port",
		defaultValue: 6379,
		usage:        "Redis port",
	}
	redisPassword = configVar[string]{
		envKey:       "REDIS_PASSWORD",
		flagKey:      "redis-password",
		defaultValue: "",
		usage:        "Redis password",
	}
	driftTolerance = configVar[time.Duration]{
		envKey:       "SYNC_DRIFT_TOLERANCE",
		flagKey:      "drift-tolerance",
		defaultValue: 2 * time.Second,
		usage:        "Position drift tolerated before a correcting seek",
	}
	correctionInterval = configVar[time.Duration]{
		envKey:       "SYNC_CORRECTION_INTERVAL",
		flagKey:      "correction-interval",
		defaultValue: 500 * time.Millisecond,
		usage:        "Minimum time between correcting seeks",
	}
	pollInterval = configVar[time.Duration]{
		envKey:       "SYNC_POLL_INTERVAL",
		flagKey:      "poll-interval",
		defaultValue: time.Second,
		usage:        "Playback progress poll interval",
	}
	geoIPDB = configVar[string]{
		envKey:       "GEOIP_DB",
		flagKey:      "geoip-db",
		defaultValue: "",
		usage:        "Path to a MaxMind city database; empty disables ip check-ins",
	}
	sqlitePath = configVar[string]{
		envKey:       "SQLITE_PATH",
		flagKey:      "sqlite-path",
		defaultValue: "theater.db",
		usage:        "Path to the check-in database",
	}
	s3Endpoint = configVar[string]{
		envKey:       "S3_ENDPOINT",
		flagKey:      "s3-endpoint",
		defaultValue: "",
		usage:        "S3 endpoint for content assets",
	}
	s3PublicEndpoint = configVar[string]{
		envKey:       "S3_PUBLIC_ENDPOINT",
		flagKey:      "s3-public-endpoint",
		defaultValue: "",
		usage:        "Endpoint used in presigned asset urls",
	}
	s3Bucket = configVar[string]{
		envKey:       "S3_BUCKET",
		flagKey:      "s3-bucket",
		defaultValue: "",
		usage:        "Bucket holding content assets; empty serves static urls",
	}
	s3AccessKey = configVar[string]{
		envKey:       "S3_ACCESS_KEY",
		flagKey:      "s3-access-key",
		defaultValue: "",
		usage:        "S3 access key",
	}
	s3SecretKey = configVar[string]{
		envKey:       "S3_SECRET_KEY",
		flagKey:      "s3-secret-key",
		defaultValue: "",
		usage:        "S3 secret key",
	}
	s3Region = configVar[string]{
		envKey:       "S3_REGION",
		flagKey:      "s3-region",
		defaultValue: "us-east-1",
		usage:        "S3 region",
	}
	assetURLExp = configVar[time.Duration]{
		envKey:       "ASSET_URL_EXP",
		flagKey:      "asset-url-exp",
		defaultValue: 15 * time.Minute,
		usage:        "Lifetime of presigned asset urls",
	}
	corsOrigins = configVar[[]string]{
		envKey:       "CORS_ORIGINS",
		flagKey:      "cors-origins",
		defaultValue: nil,
		usage:        "Allowed CORS origins; empty allows all",
	}
)

func loadAppConfig() *app.AppConfig {
	fs := pflag.CommandLine
	secret.bind(fs)
	host.bind(fs)
	port.bind(fs)
	logLevel.bind(fs)
	peersLimit.bind(fs)
	sessionExp.bind(fs)
	redisHost.bind(fs)
	redisPort.bind(fs)
	redisPassword.bind(fs)
	driftTolerance.bind(fs)
	correctionInterval.bind(fs)
	pollInterval.bind(fs)
	geoIPDB.bind(fs)
	sqlitePath.bind(fs)
	s3Endpoint.bind(fs)
	s3PublicEndpoint.bind(fs)
	s3Bucket.bind(fs)
	s3AccessKey.bind(fs)
	s3SecretKey.bind(fs)
	s3Region.bind(fs)
	assetURLExp.bind(fs)
	corsOrigins.bind(fs)
	pflag.Parse()

	viper.BindPFlags(fs)

	return &app.AppConfig{
		Secret:             viper.GetString(secret.flagKey),
		Host:               viper.GetString(host.flagKey),
		Port:               viper.GetInt(port.flagKey),
		LogLevel:           viper.GetString(logLevel.flagKey),
		PeersLimit:         viper.GetInt(peersLimit.flagKey),
		SessionExp:         viper.GetDuration(sessionExp.flagKey),
		RedisHost:          viper.GetString(redisHost.flagKey),
		RedisPort:          viper.GetInt(redisPort.flagKey),
		RedisPassword:      viper.GetString(redisPassword.flagKey),
		DriftTolerance:     viper.GetDuration(driftTolerance.flagKey),
		CorrectionInterval: viper.GetDuration(correctionInterval.flagKey),
		PollInterval:       viper.GetDuration(pollInterval.flagKey),
		GeoIPDB:            viper.GetString(geoIPDB.flagKey),
		SQLitePath:         viper.GetString(sqlitePath.flagKey),
		S3Endpoint:         viper.GetString(s3Endpoint.flagKey),
		S3PublicEndpoint:   viper.GetString(s3PublicEndpoint.flagKey),
		S3Bucket:           viper.GetString(s3Bucket.flagKey),
		S3AccessKey:        viper.GetString(s3AccessKey.flagKey),
		S3SecretKey:        viper.GetString(s3SecretKey.flagKey),
		S3Region:           viper.GetString(s3Region.flagKey),
		AssetURLExp:        viper.GetDuration(assetURLExp.flagKey),
		CORSOrigins:        viper.GetStringSlice(corsOrigins.flagKey),
	}
}

func main() {
	ctx := context.Background()

	appConfig := loadAppConfig()

	jsonConfig, _ := json.MarshalIndent(appConfig, "", "  ")
	fmt.Printf("starting app with config: %s\n", jsonConfig)

	if err := appConfig.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	if err := app.Run(ctx, appConfig); err != nil {
		log.Fatal(err)
	}
}

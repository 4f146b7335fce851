package commands

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"electorsearch/internal/components/serviceutil"
	"electorsearch/internal/components/telemetry"
	"electorsearch/internal/db"
	"electorsearch/internal/scrapers/erms"
	"electorsearch/pkg/configutil"

	"golang.org/x/time/rate"
)

const envPrefix = "ELECTORSEARCH_"

type PortalConfig struct {
	BaseUrl        string `json:"base_url" env:"PORTAL_URL"`
	TimeoutSeconds int    `json:"timeout_seconds" env:"PORTAL_TIMEOUT_SECONDS"`
	// zero means no rate limit
	RequestsPerSecond float64 `json:"requests_per_second" env:"PORTAL_RPS"`
	// zero means every combination is searched at once
	Concurrency int `json:"concurrency" env:"PORTAL_CONCURRENCY"`
}

type ServerConfig struct {
	Port int `json:"port" env:"PORT"`
}

type Config struct {
	Debug     bool             `json:"debug" env:"DEBUG"`
	Portal    PortalConfig     `json:"portal"`
	Server    ServerConfig     `json:"server"`
	Database  db.Config        `json:"database"`
	Telemetry telemetry.Config `json:"telemetry"`
}

var (
	cfg     Config
	tel     telemetry.API = telemetry.SlogAPI{}
	otelSdk telemetry.Telemetry
)

// loadConfig reads the config file if there is one, then applies the environment.
func loadConfig(path string) (Config, error) {
	config, err := configutil.ReadConfig[Config](path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}
	err = configutil.ApplyEnv(&config, envPrefix)
	if err != nil {
		return Config{}, err
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.Database.File == "" && config.Database.Url == "" {
		config.Database.File = "electorsearch.db"
	}
	return config, nil
}

func setup(ctx context.Context) {
	var err error
	cfg, err = loadConfig(*configPath)
	if err != nil {
		serviceutil.Fatal("read config", err)
	}

	telemetry.InitSlog(*verbose || cfg.Debug)
	otelSdk, err = telemetry.Setup(ctx, "electorsearch", cfg.Telemetry)
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
}

func teardown() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()
	err := otelSdk.Shutdown(ctx)
	if err != nil {
		slog.Warn("shutdown telemetry", "err", err)
	}
}

// newClient creates a portal client from the config, `dumpDir` can be empty.
func newClient(dumpDir string) *erms.Client {
	opts := erms.Options{
		BaseUrl: cfg.Portal.BaseUrl,
		Timeout: time.Duration(cfg.Portal.TimeoutSeconds) * time.Second,
	}
	if cfg.Portal.RequestsPerSecond > 0 {
		opts.Limiter = rate.NewLimiter(rate.Limit(cfg.Portal.RequestsPerSecond), 1)
	}
	if dumpDir != "" {
		output, err := telemetry.NewFilesystemOutput(dumpDir)
		if err != nil {
			serviceutil.Fatal("create dump directory", err)
		}
		opts.Output = output
	}

	client, err := erms.NewClient(opts, tel)
	if err != nil {
		serviceutil.Fatal("create portal client", err)
	}
	return client
}

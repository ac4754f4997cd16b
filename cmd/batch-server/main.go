package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/freight-batch/internal/api"
	"github.com/Sternrassler/freight-batch/internal/config"
	"github.com/Sternrassler/freight-batch/pkg/client"
	"github.com/Sternrassler/freight-batch/pkg/credential"
	"github.com/Sternrassler/freight-batch/pkg/lanerate"
	"github.com/Sternrassler/freight-batch/pkg/logging"
	"github.com/Sternrassler/freight-batch/pkg/operation"
	"github.com/Sternrassler/freight-batch/pkg/ratelimit"
	"github.com/Sternrassler/freight-batch/pkg/store"
	"github.com/Sternrassler/freight-batch/pkg/tms"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const userAgent = "freight-batch/0.1.0"

// shutdownTimeout covers the longest batch we expect to be in flight.
const shutdownTimeout = 2 * time.Minute

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	flag.Parse()

	cfg, err := config.LoadFromEnv(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger := logging.Setup(logging.Config{
		Level:   logging.LogLevel(cfg.Server.LogLevel),
		Pretty:  cfg.Server.LogPretty,
		Output:  os.Stderr,
		Service: "freight-batch",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return err
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		// Batches still run; only retention and /ready suffer.
		logger.Warn().Err(err).Str("addr", redisOpts.Addr).Msg("Redis unavailable, reports will not be retained")
	} else {
		logger.Info().Str("addr", redisOpts.Addr).Msg("Connected to Redis")
	}
	cancel()

	reports := store.NewRedis(redisClient, cfg.Redis.ReportTTL())
	opts := []operation.Option{operation.WithStore(reports), operation.WithLogger(logger)}

	if cfg.Export.S3Bucket != "" {
		archiver, err := store.NewS3Archiver(ctx, store.S3Config{
			Bucket: cfg.Export.S3Bucket,
			Prefix: cfg.Export.S3Prefix,
			Region: cfg.Export.S3Region,
		})
		if err != nil {
			return err
		}
		opts = append(opts, operation.WithArchiver(archiver))
	}

	runner, err := newRunner(cfg, logger, opts...)
	if err != nil {
		return err
	}

	throttle := ratelimit.NewLimiter(cfg.Server.SubmitRPS, cfg.Server.SubmitBurst)
	throttle.StartJanitor(ctx)

	handlers := &api.Handlers{Runner: runner, Reports: reports, Ready: reports, Logger: logger}
	srv := api.NewServer(cfg.Server.Addr(), api.NewRouter(handlers, api.RouterConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Throttle:       throttle,
	}))

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Int("operations", len(runner.Operations())).Msg("Starting batch server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down, waiting for running batches")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newRunner wires both partners and registers every operation. Secrets are
// not checked here: a missing one fails the batch that needs it.
func newRunner(cfg *config.Config, logger zerolog.Logger, opts ...operation.Option) (*operation.Runner, error) {
	tmsCfg := client.DefaultConfig(operation.PartnerTMS, cfg.TMS.BaseURL)
	tmsCfg.APIKey = cfg.TMS.APIKey
	tmsCfg.UserAgent = userAgent
	tmsCfg.Timeout = cfg.TMS.Timeout()
	tmsClient, err := client.New(tmsCfg)
	if err != nil {
		return nil, err
	}

	laneCfg := client.DefaultConfig(operation.PartnerLaneRate, cfg.LaneRate.AnalyticsURL)
	laneCfg.UserAgent = userAgent
	laneCfg.Timeout = cfg.LaneRate.Timeout()
	laneClient, err := client.New(laneCfg)
	if err != nil {
		return nil, err
	}

	providerLogger := logger.With().Str("component", "credential").Logger()
	tmsAuth := &credential.TMSProvider{
		BaseURL:      cfg.TMS.BaseURL,
		APIKey:       cfg.TMS.APIKey,
		ClientID:     cfg.TMS.ClientID,
		ClientSecret: cfg.TMS.ClientSecret,
		Username:     cfg.TMS.Username,
		Password:     cfg.TMS.Password,
		Scope:        cfg.TMS.Scope,
		HTTPClient:   &http.Client{Timeout: cfg.TMS.Timeout()},
		Logger:       &providerLogger,
	}
	laneAuth := &credential.LaneProvider{
		IdentityURL:     cfg.LaneRate.IdentityURL,
		ServiceEmail:    cfg.LaneRate.ServiceAccountEmail,
		ServicePassword: cfg.LaneRate.ServiceAccountPassword,
		Username:        cfg.LaneRate.Username,
		HTTPClient:      &http.Client{Timeout: cfg.LaneRate.Timeout()},
	}

	runner := operation.NewRunner(opts...)
	tmsSvc := tms.NewService(tmsClient)
	for _, op := range []operation.Operation{
		operation.NewCheckMC(tmsSvc),
		operation.NewTagCarrier(tmsSvc),
		operation.NewTargetRateTag(tmsSvc),
	} {
		name := string(op.Info().Name)
		runner.Register(op, tmsAuth, cfg.Waves(name))
	}
	runner.Register(operation.NewDATRates(lanerate.NewService(laneClient)), laneAuth, cfg.Waves(string(operation.DATRates)))

	return runner, nil
}

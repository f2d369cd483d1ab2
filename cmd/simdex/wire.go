package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/simdex/internal/config"
	"github.com/kailas-cloud/simdex/internal/db"
	dbRedis "github.com/kailas-cloud/simdex/internal/db/redis"
	"github.com/kailas-cloud/simdex/internal/domain/similarity"
	logpkg "github.com/kailas-cloud/simdex/internal/logger"
	"github.com/kailas-cloud/simdex/internal/metrics"
	"github.com/kailas-cloud/simdex/internal/repository/ticketcache"
	"github.com/kailas-cloud/simdex/internal/transport/glpi"
	healthuc "github.com/kailas-cloud/simdex/internal/usecase/health"
	rankinguc "github.com/kailas-cloud/simdex/internal/usecase/ranking"
	ticketuc "github.com/kailas-cloud/simdex/internal/usecase/ticket"
	"github.com/kailas-cloud/simdex/internal/version"
)

// app is the composition root shared by the serve and mcp commands.
type app struct {
	env    string
	cfg    config.Config
	logger *zap.Logger

	store   db.Store     // nil when database.driver is none
	glpi    *glpi.Client // nil when glpi.base_url is empty
	scorer  *similarity.Scorer
	ranking *rankinguc.Service
	tickets *ticketuc.Service // nil without a ticket source
	health  *healthuc.Service
}

func loadConfig() (string, config.Config, error) {
	env := config.GetEnv()
	var (
		cfg config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load(env)
	}
	if err != nil {
		return "", config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return env, cfg, nil
}

func newApp(ctx context.Context) (*app, error) {
	env, cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	logger.Info("Starting simdex",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Bool("glpi", cfg.GLPI.Enabled()),
	)

	// Register HTTP, ranking, GLPI, cache and MCP metrics explicitly (no init())
	metrics.Register()

	a := &app{env: env, cfg: cfg, logger: logger}

	if err := a.connectStore(ctx); err != nil {
		_ = logger.Sync()
		return nil, err
	}

	weights := similarity.Weights(cfg.Similarity.Weights)
	a.scorer = similarity.NewScorer(weights)
	a.ranking = rankinguc.New(a.scorer, logger.Named("ranking")).
		WithWorkers(cfg.Similarity.Workers).
		WithMaxItems(cfg.Similarity.MaxItems).
		WithTaskTimeout(time.Duration(cfg.Similarity.TaskTimeoutSec) * time.Second)

	var checker healthuc.TicketSourceChecker
	if cfg.GLPI.Enabled() {
		a.glpi = glpi.NewClient(&glpi.Config{
			BaseURL:    cfg.GLPI.BaseURL,
			AppToken:   cfg.GLPI.AppToken,
			UserToken:  cfg.GLPI.UserToken,
			PageSize:   cfg.GLPI.PageSize,
			HTTPClient: glpiHTTPClient(&cfg.GLPI),
			Logger:     logger.Named("glpi"),
		})
		checker = a.glpi

		var source ticketuc.Source = a.glpi
		if cfg.Cache.Enabled && a.store != nil {
			source = ticketcache.New(a.glpi, a.store,
				time.Duration(cfg.Cache.TTLSec)*time.Second, metrics.TicketCacheTotal, logger)
		}
		a.tickets = ticketuc.New(source, a.ranking, logger.Named("tickets")).
			WithCandidateLimit(cfg.Similarity.MaxItems).
			WithAnonymization(cfg.Similarity.Anonymize)
	}

	// Pass nil interfaces (not typed nil pointers) for missing components.
	var pinger healthuc.DBPinger
	if a.store != nil {
		pinger = a.store
	}
	a.health = healthuc.New(a.ranking, pinger, checker, logger)

	return a, nil
}

func (a *app) connectStore(ctx context.Context) error {
	switch a.cfg.Database.Driver {
	case config.DriverNone:
		return nil
	case config.DriverValkey, config.DriverRedis:
		// Valkey speaks the Redis protocol; one rueidis store serves both.
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    a.cfg.Database.Addrs,
			Password: a.cfg.Database.Password,
		})
		if err != nil {
			return fmt.Errorf("create %s store: %w", a.cfg.Database.Driver, err)
		}
		timeout := time.Duration(a.cfg.Database.ReadinessTimeout) * time.Second
		if err := s.WaitForReady(ctx, timeout); err != nil {
			s.Close()
			return fmt.Errorf("database not ready: %w", err)
		}
		a.logger.Info("Connected to database", zap.Strings("addrs", a.cfg.Database.Addrs))
		a.store = s
		return nil
	default:
		return fmt.Errorf("unknown database driver %q", a.cfg.Database.Driver)
	}
}

func glpiHTTPClient(cfg *config.GLPIConfig) *http.Client {
	c := &http.Client{Timeout: time.Duration(cfg.TimeoutSec) * time.Second}
	if cfg.InsecureSkipVerify() {
		c.Transport = &http.Transport{
			//nolint:gosec // Explicitly configured for self-signed GLPI installs.
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	return c
}

// Close releases the GLPI session and the store.
func (a *app) Close() {
	if a.glpi != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := a.glpi.KillSession(ctx); err != nil {
			a.logger.Warn("Failed to close GLPI session", zap.Error(err))
		}
		cancel()
	}
	if a.store != nil {
		a.store.Close()
	}
	_ = a.logger.Sync()
}

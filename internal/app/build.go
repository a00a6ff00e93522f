package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/ent0n29/botgate/internal/bot"
	"github.com/ent0n29/botgate/internal/config"
	"github.com/ent0n29/botgate/internal/httpapi"
	"github.com/ent0n29/botgate/internal/media"
	"github.com/ent0n29/botgate/internal/observability"
	"github.com/ent0n29/botgate/internal/record"
	"github.com/ent0n29/botgate/internal/session"
)

type BuildResult struct {
	Config   config.Config
	API      *httpapi.Server
	Sessions *session.Store
	Bots     bot.Registry
	Records  record.Store
	Metrics  *observability.Metrics

	// Cleanup should be called on shutdown to release external resources (DB, spool dir, etc).
	Cleanup func() error
}

func Build(ctx context.Context, cfg config.Config) (*BuildResult, error) {
	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	records, err := record.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("record store init failed: %w", err)
	}

	spool, err := media.NewSpooler(cfg.UploadDir)
	if err != nil {
		_ = records.Close()
		return nil, fmt.Errorf("upload spooler init failed: %w", err)
	}

	var bots bot.Registry
	switch cfg.BackendMode {
	case "sim":
		bots = bot.NewSimRegistry(cfg.SimBots...)
	default:
		_ = spool.Close()
		_ = records.Close()
		return nil, fmt.Errorf("invalid backend mode: %q", cfg.BackendMode)
	}

	sessions := session.NewStore(cfg.AuthKey, cfg.PendingTTL)

	api := httpapi.New(cfg, sessions, bots, records, spool, metrics)

	cleanup := func() error {
		var errs []string
		if err := spool.Close(); err != nil {
			errs = append(errs, err.Error())
		}
		if err := records.Close(); err != nil {
			errs = append(errs, err.Error())
		}
		if len(errs) > 0 {
			return fmt.Errorf("%s", strings.Join(errs, "; "))
		}
		return nil
	}

	return &BuildResult{
		Config:   cfg,
		API:      api,
		Sessions: sessions,
		Bots:     bots,
		Records:  records,
		Metrics:  metrics,
		Cleanup:  cleanup,
	}, nil
}

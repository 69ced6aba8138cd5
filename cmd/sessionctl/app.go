package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/dashboard"
	"github.com/MrEthical07/goSession/internal/apiclient"
	"github.com/MrEthical07/goSession/internal/logging"
	"github.com/MrEthical07/goSession/resource"
)

var errNoAPI = errors.New("no API configured: set identity.base_url or GOSESSION_API_URL")

// app is the wired object graph shared by the session commands.
type app struct {
	cfg       goSession.Config
	logger    *zap.Logger
	manager   *goSession.Manager
	resources *resource.Client
	dashboard *dashboard.Service
}

func loadConfig(opts globalOptions) (goSession.Config, error) {
	var dotenv []string
	if opts.dotenv != "" {
		dotenv = []string{opts.dotenv}
	}
	return goSession.LoadConfig(opts.configPath, dotenv...)
}

func newApp(ctx context.Context, opts globalOptions, logOut io.Writer) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewWithWriter(cfg.Log.Level, cfg.Log.Format, logOut)
	if err != nil {
		return nil, err
	}
	for _, w := range cfg.Lint().BySeverity(goSession.LintWarn) {
		logger.Warn("config lint",
			zap.String("code", w.Code),
			zap.String("severity", w.Severity.String()),
			zap.String("message", w.Message),
		)
	}

	b := goSession.New().WithConfig(cfg).WithLogger(logger)
	if cfg.Audit.Enabled {
		b = b.WithAuditSink(goSession.NewZapSink(logger))
	}
	m, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("build session manager: %w", err)
	}
	m.Hydrate(ctx)

	a := &app{cfg: cfg, logger: logger, manager: m}
	if cfg.Identity.BaseURL == "" {
		return a, nil
	}

	rc, err := resource.New(resource.Config{
		Config: apiclient.Config{
			BaseURL:         cfg.Identity.BaseURL,
			Timeout:         cfg.Identity.Timeout,
			MaxResponseSize: cfg.Identity.MaxResponseSize,
			RequestsPerSec:  cfg.Identity.RequestsPerSecond,
			Burst:           cfg.Identity.Burst,
			UserAgent:       "sessionctl",
			Logger:          logger,
		},
		Tokens:         m,
		OnUnauthorized: m.HandleUnauthorized,
		IDFields:       cfg.Identity.IDFields,
	})
	if err != nil {
		_ = m.Close()
		return nil, err
	}
	svc, err := dashboard.NewService(dashboard.Config{
		Source:   rc,
		Sessions: m,
		CacheTTL: cfg.Dashboard.CacheTTL,
		Logger:   logger,
	})
	if err != nil {
		_ = m.Close()
		return nil, err
	}
	a.resources = rc
	a.dashboard = svc
	return a, nil
}

func (a *app) requireAPI() error {
	if a.resources == nil {
		return errNoAPI
	}
	return nil
}

// Close stops the manager and flushes the logger.
func (a *app) Close() {
	if err := a.manager.Close(); err != nil {
		a.logger.Warn("close session manager", zap.Error(err))
	}
	_ = a.logger.Sync()
}

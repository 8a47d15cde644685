package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/alexanderramin/caseflow/internal/app"
	"github.com/alexanderramin/caseflow/internal/classifier"
	"github.com/alexanderramin/caseflow/internal/cli"
	"github.com/alexanderramin/caseflow/internal/config"
	"github.com/alexanderramin/caseflow/internal/db"
	"github.com/alexanderramin/caseflow/internal/httpapi"
	"github.com/alexanderramin/caseflow/internal/identity"
	"github.com/alexanderramin/caseflow/internal/logging"
	"github.com/alexanderramin/caseflow/internal/repository"
	"github.com/alexanderramin/caseflow/internal/service"
	"github.com/alexanderramin/caseflow/internal/validation"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	reads := repository.NewSQLiteSet(database)
	uow := db.NewSQLiteUnitOfWork(database)
	v := validation.New()

	observers := []service.UseCaseObserver{service.NewLogUseCaseObserver(logger)}
	registry := prometheus.NewRegistry()
	if cfg.Metrics {
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics, err := service.NewMetricsUseCaseObserver(registry)
		if err != nil {
			return fmt.Errorf("registering metrics: %w", err)
		}
		observers = append(observers, metrics)
	}

	cases := service.NewCaseService(reads, uow, observers...)
	progress := service.NewProgressionService(reads, uow, v, observers...)
	a := &cli.App{
		Cases:           cases,
		Progress:        progress,
		Lifecycle:       service.NewLifecycleService(reads, uow, v, observers...),
		Archive:         service.NewArchiveService(reads, uow, observers...),
		Recommendations: service.NewRecommendationService(reads, uow, v, observers...),
		IsInteractive:   cli.StdinIsTerminal,
		Confirm:         cli.HuhConfirm,
	}
	if cfg.Classifier.URL != "" {
		client := classifier.NewClient(cfg.Classifier.URL, cfg.Classifier.Timeout())
		a.Handwriting = service.NewHandwritingService(cases, progress, client)
	}

	a.Serve = func(ctx context.Context, addr string) error {
		if addr == "" {
			addr = cfg.HTTP.Addr
		}
		var resolver app.IdentityResolver = identity.StaticResolver{}
		if cfg.Auth.Secret != "" {
			resolver = identity.NewJWTResolver(cfg.Auth.Secret, cfg.Auth.Issuer)
		} else {
			logger.Warn("auth.secret is empty; trusting role:user bearer tokens")
		}
		rc := httpapi.RouterConfig{
			Services: httpapi.Services{
				Cases:           a.Cases,
				Progress:        a.Progress,
				Lifecycle:       a.Lifecycle,
				Archive:         a.Archive,
				Recommendations: a.Recommendations,
				Handwriting:     a.Handwriting,
			},
			Resolver: resolver,
			Logger:   logger,
		}
		if cfg.Metrics {
			rc.Gatherer = registry
		}
		gin.SetMode(gin.ReleaseMode)
		return httpapi.NewServer(rc).Run(ctx, addr)
	}

	return cli.NewRootCmd(a).Execute()
}

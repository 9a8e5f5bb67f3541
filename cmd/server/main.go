package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"akeno/internal/logger"
	"akeno/internal/server/api"
	"akeno/internal/server/approval"
	"akeno/internal/server/audit"
	"akeno/internal/server/command"
	"akeno/internal/server/config"
	"akeno/internal/server/credentials"
	"akeno/internal/server/nlp"
	"akeno/internal/server/notify"
	"akeno/internal/server/ratelimit"
	"akeno/internal/server/security"
	"akeno/internal/server/service"
	"akeno/internal/server/storage"
	"akeno/internal/version"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		info := version.GetInfo()
		fmt.Println(info.String())
		os.Exit(0)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&cfg.Log)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()
	log = log.Named("server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := storage.New(&cfg.Storage, log)
	if err != nil {
		log.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer store.Close()

	limiter, err := ratelimit.New(cfg.RateLimit, log)
	if err != nil {
		log.Fatal("Failed to initialize rate limiter", zap.Error(err))
	}

	creds, err := credentials.NewStore(cfg.Credentials, store, log)
	if err != nil {
		log.Fatal("Failed to initialize credential store", zap.Error(err))
	}

	sinks, err := buildAuditSinks(cfg.Audit)
	if err != nil {
		log.Fatal("Failed to initialize audit sinks", zap.Error(err))
	}
	auditLogger := audit.NewLogger(store, sinks, log)
	defer func() { _ = auditLogger.Close() }()

	var notifier *notify.DiscordNotifier
	if cfg.Notify.Discord.Enabled {
		notifier, err = notify.NewDiscordNotifier(&cfg.Notify.Discord, log)
		if err != nil {
			log.Fatal("Failed to initialize discord notifier", zap.Error(err))
		}
	}

	detector := command.NewDetector()
	approvals := approval.NewManager(cfg.Approval.Timeout, log)
	defer approvals.Stop()

	svc := service.New(
		nlp.NewParser(log),
		command.NewGenerator(detector, cfg.Generator, log),
		security.NewValidator(log),
		limiter,
		approvals,
		command.NewExecutor(detector, log),
		detector,
		auditLogger,
		creds,
		store,
		notifier,
		service.Options{
			ExecTimeout:    cfg.Executor.Timeout,
			MaxOutputChars: cfg.Executor.MaxOutputChars,
		},
		log,
	)

	go runAuditCleanup(ctx, svc, cfg.Audit, log)

	router := api.NewRouter(cfg, svc, log)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("Starting server",
			zap.String("address", cfg.Server.Address),
			zap.String("storage", store.Driver()))
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal("Server error", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.Info("Received signal", zap.String("signal", sig.String()))

	log.Info("Starting graceful shutdown")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	log.Info("Shutdown complete")
}

// buildAuditSinks constructs the enabled stream sinks
func buildAuditSinks(cfg audit.Config) ([]audit.Sink, error) {
	var sinks []audit.Sink

	if cfg.Kafka.Enabled {
		sink, err := audit.NewKafkaSink(cfg.Kafka)
		if err != nil {
			return nil, fmt.Errorf("kafka sink: %w", err)
		}
		sinks = append(sinks, sink)
	}

	if cfg.AMQP.Enabled {
		sink, err := audit.NewAMQPSink(cfg.AMQP)
		if err != nil {
			return nil, fmt.Errorf("amqp sink: %w", err)
		}
		sinks = append(sinks, sink)
	}

	return sinks, nil
}

// runAuditCleanup prunes audit entries once a day, capping the entry
// count and optionally sweeping by age
func runAuditCleanup(ctx context.Context, svc *service.Service, cfg audit.Config, log *zap.Logger) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := svc.CleanupAudit(ctx, cfg.MaxEntries); err != nil {
				log.Error("Audit cleanup failed", zap.Error(err))
			}
			if cfg.Retention > 0 {
				if _, err := svc.CleanupAuditOlderThan(ctx, cfg.Retention); err != nil {
					log.Error("Audit cleanup failed", zap.Error(err))
				}
			}
		}
	}
}

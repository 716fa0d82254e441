package main

import (
    "context"
    "fmt"
    "net/http"
    "os"
    "path/filepath"
    "time"

    "github.com/rs/zerolog/log"
    "github.com/spf13/cobra"

    cfgpkg "github.com/local/pdfimages/internal/config"
    "github.com/local/pdfimages/internal/engine"
    "github.com/local/pdfimages/internal/limiter"
    logpkg "github.com/local/pdfimages/internal/logger"
    "github.com/local/pdfimages/internal/metrics"
    "github.com/local/pdfimages/internal/orchestrator"
    "github.com/local/pdfimages/internal/queue"
    "github.com/local/pdfimages/internal/statuscheck"
    "github.com/local/pdfimages/internal/storage"
    "github.com/local/pdfimages/internal/store"
    "github.com/local/pdfimages/internal/web"
    "github.com/local/pdfimages/internal/worker"
)

var serveCmd = &cobra.Command{
    Use:   "serve",
    Short: "Run the extraction service: HTTP API, queue workers and dashboard",
    RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
    ctx := cmd.Context()
    cfg := cfgpkg.FromEnv()

    // Init logging
    _ = logpkg.Init(logpkg.Options{
        Level:        cfg.Logging.Level,
        Pretty:       cfg.Logging.Pretty,
        File:         cfg.Logging.File,
        MaxSizeMB:    cfg.Logging.MaxSizeMB,
        MaxBackups:   cfg.Logging.MaxBackups,
        MaxAgeDays:   cfg.Logging.MaxAgeDays,
        Compress:     cfg.Logging.Compress,
        SendToAxiom:  cfg.Axiom.Send && cfg.Axiom.APIKey != "",
        AxiomAPIKey:  cfg.Axiom.APIKey,
        AxiomOrgID:   cfg.Axiom.OrgID,
        AxiomDataset: cfg.Axiom.Dataset,
        AxiomFlush:   cfg.Axiom.FlushInterval,
    })
    defer logpkg.Close()

    metrics.Init()

    // Workspace directories
    for _, dir := range []string{
        cfg.Server.UploadDir,
        filepath.Join(cfg.Server.DataDir, "images"),
        filepath.Join(cfg.Server.DataDir, "downloads"),
    } {
        if err := os.MkdirAll(dir, 0o755); err != nil {
            return fmt.Errorf("failed to create %s: %w", dir, err)
        }
    }

    // Queue
    rq, err := queue.NewRedisQueue(cfg.Queue.RedisURL, cfg.Queue.Stream, cfg.Queue.Group, cfg.Queue.PollInterval)
    if err != nil {
        return fmt.Errorf("failed to connect to redis: %w", err)
    }
    defer rq.Close()

    // Status store
    statusStore, err := store.NewRedisStatus(cfg.Queue.RedisURL)
    if err != nil {
        return fmt.Errorf("failed to init status store: %w", err)
    }
    defer statusStore.Close()

    // Result store
    resultStore, err := store.NewResultStore(cfg.Queue.RedisURL)
    if err != nil {
        return fmt.Errorf("failed to init result store: %w", err)
    }
    defer resultStore.Close()

    // Optional S3 result storage
    var s3c *storage.S3Client
    if cfg.Storage.Bucket != "" {
        s3c, err = storage.NewS3Client(ctx, storage.Options{
            Bucket:    cfg.Storage.Bucket,
            Region:    cfg.Storage.Region,
            AccessKey: cfg.Storage.AccessKey,
            SecretKey: cfg.Storage.SecretKey,
        })
        if err != nil {
            log.Warn().Err(err).Msg("s3 storage disabled")
            s3c = nil
        } else {
            log.Info().Str("bucket", cfg.Storage.Bucket).Msg("s3 storage enabled")
        }
    }

    runner := &worker.Runner{
        DataDir:            cfg.Server.DataDir,
        UploadResults:      cfg.Storage.UploadResults,
        EncryptionPassword: cfg.Storage.EncryptionPassword,
    }
    if s3c != nil {
        runner.Storage = s3c
    }

    checkOpts := statuscheck.Options{
        Redis:       rq,
        EngineProbe: engine.Probe,
        DataDir:     cfg.Server.DataDir,
    }
    if s3c != nil {
        checkOpts.S3 = s3c
    }

    mux := http.NewServeMux()

    orch := orchestrator.New(orchestrator.Dependencies{
        Queue:   rq,
        Status:  statusStore,
        Results: resultStore,
        Runner:  runner,
        Limiter: limiter.New(cfg.Worker.MaxInflight),
        Checker: statuscheck.New(checkOpts),
        Config:  cfg,
    })
    orch.RegisterRoutes(mux)
    mux.Handle("/metrics", metrics.Handler())

    // Dashboard
    dash := web.New(cfg.Web.Username, cfg.Web.Password, cfg.Server.Port)
    dash.RegisterRoutes(mux)

    // Queue workers (optional; the API can run enqueue-only)
    var wk *worker.Worker
    if cfg.Worker.Run {
        wk = worker.New(worker.Config{
            Concurrency:    cfg.Worker.Concurrency,
            JobTimeout:     cfg.Worker.JobTimeout,
            MaxAttempts:    cfg.Worker.JobMaxAttempts,
            RetryBaseDelay: cfg.Worker.RetryBaseDelay,
            BackoffFactor:  cfg.Worker.RetryBackoffFactor,
        }, rq, statusStore, resultStore, runner)
        wk.Start()
    }

    worker.StartDepthMonitor(ctx, rq, 15*time.Second)

    // Retention janitor
    jan := &orchestrator.Janitor{
        DataDir:  cfg.Server.DataDir,
        Interval: cfg.Cleanup.Interval,
        MaxAge:   cfg.Cleanup.MaxAge,
    }
    jan.Start(ctx)

    srv := &http.Server{Addr: ":" + cfg.Server.Port, Handler: mux}

    go func() {
        log.Info().Msgf("HTTP server listening on :%s", cfg.Server.Port)
        if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
            log.Fatal().Err(err).Msg("http server error")
        }
    }()

    <-ctx.Done()

    shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    _ = srv.Shutdown(shutdownCtx)
    if wk != nil {
        if err := wk.Stop(shutdownCtx); err != nil {
            log.Warn().Err(err).Msg("workers did not drain in time")
        }
    }
    log.Info().Msg("shutdown complete")
    return nil
}

package config

import (
    "os"
    "strconv"
    "strings"
    "time"
)

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
    Port        string
    MaxUploadMB int64
    DataDir     string
    UploadDir   string
}

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
    Level        string
    Pretty       bool
    File         string
    MaxSizeMB    int
    MaxBackups   int
    MaxAgeDays   int
    Compress     bool
}

// AxiomConfig holds Axiom logging configuration.
type AxiomConfig struct {
    Send          bool
    APIKey        string
    OrgID         string
    Dataset       string
    FlushInterval time.Duration
}

// ExtractConfig defines the default knobs for extraction runs. Request
// parameters override these per run.
type ExtractConfig struct {
    MinSize            float64
    DPI                int
    JPEGQuality        int
    OverlapThreshold   float64
    DuplicateThreshold float64
    FilterDuplicates   bool
    FilterContained    bool
    FilterText         bool
    RatioDenominator   string
}

// WorkerConfig defines async worker behavior and limits.
type WorkerConfig struct {
    Run                bool
    Concurrency        int
    JobTimeout         time.Duration
    JobMaxAttempts     int
    RetryBaseDelay     time.Duration
    RetryBackoffFactor float64
    MaxInflight        int
}

// QueueConfig defines queue connectivity and names.
type QueueConfig struct {
    RedisURL     string
    Stream       string
    Group        string
    PollInterval time.Duration
}

// StorageConfig defines the optional S3 result store.
type StorageConfig struct {
    Bucket             string
    Region             string
    AccessKey          string
    SecretKey          string
    UploadResults      bool
    EncryptionPassword string
}

// CleanupConfig defines the retention janitor.
type CleanupConfig struct {
    Interval time.Duration
    MaxAge   time.Duration
}

// WebConfig holds dashboard credentials.
type WebConfig struct {
    Username string
    Password string
}

// Config is the top-level configuration.
type Config struct {
    Server  ServerConfig
    Logging LoggingConfig
    Axiom   AxiomConfig
    Extract ExtractConfig
    Worker  WorkerConfig
    Queue   QueueConfig
    Storage StorageConfig
    Cleanup CleanupConfig
    Web     WebConfig
}

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
    cfg := Config{}

    // Server defaults
    cfg.Server = ServerConfig{
        Port:        getEnv("PORT", "8000"),
        MaxUploadMB: int64(parseInt(getEnv("MAX_UPLOAD_MB", "50"), 50)),
        DataDir:     getEnv("DATA_DIR", "data"),
        UploadDir:   getEnv("UPLOAD_DIR", ""),
    }
    if cfg.Server.UploadDir == "" {
        cfg.Server.UploadDir = cfg.Server.DataDir + "/uploads"
    }

    // Logging defaults
    cfg.Logging = LoggingConfig{
        Level:      getEnv("LOG_LEVEL", "info"),
        Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
        File:       getEnv("LOG_FILE", "logs/pdfimages.log"),
        MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
        MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
        MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
        Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
    }

    // Axiom defaults
    baseDataset := getEnv("AXIOM_DATASET", "dev")
    cfg.Axiom = AxiomConfig{
        Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
        APIKey:        getEnv("AXIOM_API_TOKEN", getEnv("AXIOM_API_KEY", "")),
        OrgID:         getEnv("AXIOM_ORG_ID", ""),
        Dataset:       baseDataset + "_pdfimages",
        FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
    }

    // Extraction defaults
    cfg.Extract = ExtractConfig{
        MinSize:            parseFloat(getEnv("EXTRACT_MIN_SIZE", "100"), 100),
        DPI:                parseInt(getEnv("EXTRACT_DPI", "300"), 300),
        JPEGQuality:        parseInt(getEnv("EXTRACT_JPEG_QUALITY", "85"), 85),
        OverlapThreshold:   parseFloat(getEnv("EXTRACT_OVERLAP_THRESHOLD", "0.8"), 0.8),
        DuplicateThreshold: parseFloat(getEnv("EXTRACT_DUPLICATE_THRESHOLD", "0.9"), 0.9),
        FilterDuplicates:   parseBool(getEnv("EXTRACT_FILTER_DUPLICATES", "true")),
        FilterContained:    parseBool(getEnv("EXTRACT_FILTER_CONTAINED", "true")),
        FilterText:         parseBool(getEnv("EXTRACT_FILTER_TEXT", "false")),
        RatioDenominator:   getEnv("EXTRACT_RATIO_DENOMINATOR", "smaller"),
    }

    // Worker defaults
    cfg.Worker = WorkerConfig{
        Run:                parseBool(getEnv("RUN_WORKER", "true")),
        Concurrency:        parseInt(getEnv("WORKER_CONCURRENCY", "2"), 2),
        JobTimeout:         parseDuration(getEnv("JOB_TIMEOUT", "10m"), 10*time.Minute),
        JobMaxAttempts:     parseInt(getEnv("JOB_MAX_ATTEMPTS", "3"), 3),
        RetryBaseDelay:     parseDuration(getEnv("RETRY_BASE_DELAY", "2s"), 2*time.Second),
        RetryBackoffFactor: parseFloat(getEnv("RETRY_BACKOFF_FACTOR", "2.0"), 2.0),
        MaxInflight:        parseInt(getEnv("MAX_INFLIGHT_EXTRACTIONS", "2"), 2),
    }

    // Queue defaults
    cfg.Queue = QueueConfig{
        RedisURL:     getEnv("REDIS_URL", "redis://localhost:6379"),
        Stream:       getEnv("REDIS_STREAM", "jobs:extract:documents"),
        Group:        getEnv("REDIS_GROUP", "workers:extract"),
        PollInterval: parseDuration(getEnv("REDIS_POLL_INTERVAL", "100ms"), 100*time.Millisecond),
    }

    // Storage defaults
    cfg.Storage = StorageConfig{
        Bucket:             getEnv("S3_BUCKET", ""),
        Region:             getEnv("S3_REGION", "us-east-1"),
        AccessKey:          getEnv("S3_ACCESS_KEY", ""),
        SecretKey:          getEnv("S3_SECRET_KEY", ""),
        UploadResults:      parseBool(getEnv("S3_UPLOAD_RESULTS", "0")),
        EncryptionPassword: getEnv("S3_ENCRYPTION_PASSWORD", ""),
    }

    // Cleanup defaults
    cfg.Cleanup = CleanupConfig{
        Interval: parseDuration(getEnv("CLEANUP_INTERVAL", "1h"), time.Hour),
        MaxAge:   parseDuration(getEnv("TEMP_MAX_AGE", "24h"), 24*time.Hour),
    }

    // Web defaults
    cfg.Web = WebConfig{
        Username: getEnv("WEB_USERNAME", "admin"),
        Password: getEnv("WEB_PASSWORD", ""),
    }

    return cfg
}

// Helpers
func getEnv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func parseInt(s string, def int) int {
    if s == "" { return def }
    if n, err := strconv.Atoi(s); err == nil { return n }
    return def
}

func parseFloat(s string, def float64) float64 {
    if s == "" { return def }
    if f, err := strconv.ParseFloat(s, 64); err == nil { return f }
    return def
}

func parseBool(s string) bool {
    v := strings.ToLower(strings.TrimSpace(s))
    return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
    if s == "" { return def }
    if d, err := time.ParseDuration(s); err == nil { return d }
    return def
}

func devDefaultPretty() string {
    env := strings.ToLower(os.Getenv("ENVIRONMENT"))
    if env == "dev" || env == "development" || env == "local" { return "true" }
    return "false"
}

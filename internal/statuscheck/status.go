package statuscheck

import (
    "context"
    "errors"
    "os"
    "path/filepath"
    "time"
)

// RedisPinger models the minimal Redis capability we need for status checks.
type RedisPinger interface {
    Ping(ctx context.Context) error
}

// S3Pinger models the storage reachability check.
type S3Pinger interface {
    Ping(ctx context.Context) error
}

// Checker aggregates health checks for the subsystems the service depends on.
type Checker struct {
    redis       RedisPinger
    s3          S3Pinger
    engineProbe func() error
    dataDir     string
}

// Options configures the Checker. Nil fields report as unavailable.
type Options struct {
    Redis       RedisPinger
    S3          S3Pinger
    EngineProbe func() error
    DataDir     string
}

// Status represents the readiness of a subsystem.
type Status struct {
    OK      bool   `json:"ok"`
    Message string `json:"message"`
}

// Summary bundles all subsystem statuses for the verbose health endpoint
// and the dashboard.
type Summary struct {
    Redis     Status `json:"redis"`
    S3        Status `json:"s3"`
    Engine    Status `json:"engine"`
    Workspace Status `json:"workspace"`
}

// OK reports whether every checked subsystem is ready. Storage is optional,
// so an unconfigured S3 client does not fail the summary.
func (s Summary) OK() bool {
    if !s.Redis.OK || !s.Engine.OK || !s.Workspace.OK {
        return false
    }
    if !s.S3.OK && s.S3.Message != "Not configured" {
        return false
    }
    return true
}

// New creates a new Checker with the provided options.
func New(opts Options) *Checker {
    return &Checker{
        redis:       opts.Redis,
        s3:          opts.S3,
        engineProbe: opts.EngineProbe,
        dataDir:     opts.DataDir,
    }
}

// Summary returns the current status snapshot.
func (c *Checker) Summary(ctx context.Context) Summary {
    return Summary{
        Redis:     c.checkRedis(ctx),
        S3:        c.checkS3(ctx),
        Engine:    c.checkEngine(),
        Workspace: c.checkWorkspace(),
    }
}

func (c *Checker) checkRedis(ctx context.Context) Status {
    if c.redis == nil {
        return Status{OK: false, Message: "client unavailable"}
    }
    ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
    defer cancel()
    if err := c.redis.Ping(ctx); err != nil {
        return Status{OK: false, Message: trimError(err)}
    }
    return Status{OK: true, Message: "Connected"}
}

func (c *Checker) checkS3(ctx context.Context) Status {
    if c.s3 == nil {
        return Status{OK: false, Message: "Not configured"}
    }
    ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
    defer cancel()
    if err := c.s3.Ping(ctx); err != nil {
        return Status{OK: false, Message: trimError(err)}
    }
    return Status{OK: true, Message: "Connected"}
}

// checkEngine renders a one-page probe document so a broken MuPDF library
// surfaces here instead of on the first job.
func (c *Checker) checkEngine() Status {
    if c.engineProbe == nil {
        return Status{OK: false, Message: "probe unavailable"}
    }
    if err := c.engineProbe(); err != nil {
        return Status{OK: false, Message: trimError(err)}
    }
    return Status{OK: true, Message: "Available"}
}

func (c *Checker) checkWorkspace() Status {
    if c.dataDir == "" {
        return Status{OK: false, Message: "Data dir not configured"}
    }
    if err := os.MkdirAll(c.dataDir, 0o755); err != nil {
        return Status{OK: false, Message: trimError(err)}
    }
    probe := filepath.Join(c.dataDir, ".writecheck")
    if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
        return Status{OK: false, Message: trimError(err)}
    }
    os.Remove(probe)
    return Status{OK: true, Message: "Writable"}
}

func trimError(err error) string {
    if err == nil {
        return ""
    }
    var netErr interface{ Timeout() bool }
    if errors.As(err, &netErr) && netErr.Timeout() {
        return "timeout"
    }
    msg := err.Error()
    if len(msg) > 120 {
        return msg[:120]
    }
    return msg
}

package orchestrator

import (
    "context"
    "os"
    "path/filepath"
    "strings"
    "time"

    "github.com/rs/zerolog/log"
)

// Janitor removes aged artifacts: uploads, extracted image directories,
// result archives and the temp files the input stager leaves behind on
// crashes (pdfdl-*.pdf, s3pdf-*.pdf).
type Janitor struct {
    DataDir  string
    Interval time.Duration
    MaxAge   time.Duration
}

// Start sweeps on a ticker until ctx is done. One sweep runs immediately.
func (j *Janitor) Start(ctx context.Context) {
    if j.Interval <= 0 {
        j.Interval = time.Hour
    }
    if j.MaxAge <= 0 {
        j.MaxAge = 24 * time.Hour
    }
    go func() {
        j.Sweep()
        ticker := time.NewTicker(j.Interval)
        defer ticker.Stop()
        for {
            select {
            case <-ctx.Done():
                return
            case <-ticker.C:
                j.Sweep()
            }
        }
    }()
}

// Sweep performs one cleanup pass and returns the number of entries removed.
func (j *Janitor) Sweep() int {
    cutoff := time.Now().Add(-j.MaxAge)
    removed := 0
    removed += sweepDir(filepath.Join(j.DataDir, "uploads"), cutoff)
    removed += sweepDir(filepath.Join(j.DataDir, "downloads"), cutoff)
    removed += sweepDir(filepath.Join(j.DataDir, "images"), cutoff)
    removed += sweepTemps(cutoff)
    if removed > 0 {
        log.Info().Int("removed", removed).Dur("max_age", j.MaxAge).Msg("janitor sweep finished")
    }
    return removed
}

// sweepDir removes direct children of dir older than cutoff. Image output
// directories are removed as a whole once stale.
func sweepDir(dir string, cutoff time.Time) int {
    entries, err := os.ReadDir(dir)
    if err != nil {
        return 0
    }
    removed := 0
    for _, entry := range entries {
        info, err := entry.Info()
        if err != nil {
            continue
        }
        if !info.ModTime().Before(cutoff) {
            continue
        }
        path := filepath.Join(dir, entry.Name())
        if err := os.RemoveAll(path); err != nil {
            log.Warn().Err(err).Str("path", path).Msg("janitor failed to remove entry")
            continue
        }
        removed++
    }
    return removed
}

// sweepTemps clears staging leftovers from the system temp dir.
func sweepTemps(cutoff time.Time) int {
    entries, err := os.ReadDir(os.TempDir())
    if err != nil {
        return 0
    }
    removed := 0
    for _, entry := range entries {
        name := entry.Name()
        if !strings.HasPrefix(name, "pdfdl-") && !strings.HasPrefix(name, "s3pdf-") {
            continue
        }
        info, err := entry.Info()
        if err != nil || info.IsDir() {
            continue
        }
        if !info.ModTime().Before(cutoff) {
            continue
        }
        if err := os.Remove(filepath.Join(os.TempDir(), name)); err == nil {
            removed++
        }
    }
    return removed
}

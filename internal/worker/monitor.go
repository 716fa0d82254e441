package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfimages/internal/metrics"
)

// DepthReader reports queue backlog sizes.
type DepthReader interface {
	Depths(ctx context.Context) (ready, delayed, dlq int64, err error)
}

// StartDepthMonitor exports queue depths as gauges until ctx is done.
func StartDepthMonitor(ctx context.Context, q DepthReader, interval time.Duration) {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				pollCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
				ready, delayed, dlq, err := q.Depths(pollCtx)
				cancel()
				if err != nil {
					log.Debug().Err(err).Msg("failed to read queue depths")
					continue
				}
				metrics.SetQueueDepth("ready", ready)
				metrics.SetQueueDepth("delayed", delayed)
				metrics.SetQueueDepth("dlq", dlq)
			}
		}
	}()
}

package metrics

import (
    "net/http"
    "time"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
    extractionsTotal = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "pdfimages",
            Name:      "extractions_total",
            Help:      "Total extraction runs by document mode and result",
        },
        []string{"mode", "result"},
    )

    extractionLatency = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{
            Namespace: "pdfimages",
            Name:      "extraction_duration_seconds",
            Help:      "Duration of extraction runs by document mode",
            Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
        },
        []string{"mode"},
    )

    imagesExtracted = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "pdfimages",
            Name:      "images_extracted_total",
            Help:      "Images written, labeled by extraction method",
        },
        []string{"method"},
    )

    candidatesFiltered = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "pdfimages",
            Name:      "candidates_filtered_total",
            Help:      "Candidates rejected by the filter, labeled by reason",
        },
        []string{"reason"},
    )

    pagesProcessed = prometheus.NewCounter(
        prometheus.CounterOpts{
            Namespace: "pdfimages",
            Name:      "pages_processed_total",
            Help:      "Total pages touched by extraction runs",
        },
    )

    jobsTotal = prometheus.NewCounterVec(
        prometheus.CounterOpts{
            Namespace: "pdfimages",
            Name:      "jobs_total",
            Help:      "Async jobs finished, by result (completed, failed, cancelled, dlq)",
        },
        []string{"result"},
    )

    retriesTotal = prometheus.NewCounter(
        prometheus.CounterOpts{
            Namespace: "pdfimages",
            Name:      "job_retries_total",
            Help:      "Total number of job retries",
        },
    )

    queueDepth = prometheus.NewGaugeVec(
        prometheus.GaugeOpts{
            Namespace: "pdfimages",
            Name:      "queue_depth",
            Help:      "Queue depth gauges for stream, delayed and dlq",
        },
        []string{"type"},
    )

    inflight = prometheus.NewGauge(
        prometheus.GaugeOpts{
            Namespace: "pdfimages",
            Name:      "extractions_inflight",
            Help:      "Extraction runs currently executing in this process",
        },
    )
)

// Init registers collectors.
func Init() {
    prometheus.MustRegister(extractionsTotal, extractionLatency, imagesExtracted, candidatesFiltered, pagesProcessed, jobsTotal, retriesTotal, queueDepth, inflight)
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

// ObserveExtraction records one finished run.
func ObserveExtraction(mode, result string, pages int, dur time.Duration) {
    extractionsTotal.WithLabelValues(mode, result).Inc()
    extractionLatency.WithLabelValues(mode).Observe(dur.Seconds())
    pagesProcessed.Add(float64(pages))
}

// AddImages counts written images per method.
func AddImages(method string, n int) {
    if n > 0 { imagesExtracted.WithLabelValues(method).Add(float64(n)) }
}

// AddFiltered counts filter rejections per reason.
func AddFiltered(reason string, n int) {
    if n > 0 { candidatesFiltered.WithLabelValues(reason).Add(float64(n)) }
}

func JobFinished(result string) { jobsTotal.WithLabelValues(result).Inc() }
func IncRetry()                 { retriesTotal.Inc() }

func SetQueueDepth(kind string, v int64) { queueDepth.WithLabelValues(kind).Set(float64(v)) }
func SetInflight(v int)                  { inflight.Set(float64(v)) }

package orchestrator

import (
    "context"
    "encoding/json"
    "fmt"
    "io"
    "net/http"
    "net/url"
    "os"
    "path/filepath"
    "strconv"
    "strings"
    "time"

    "github.com/google/uuid"
    "github.com/rs/zerolog/log"

    "github.com/local/pdfimages/internal/classify"
    "github.com/local/pdfimages/internal/config"
    "github.com/local/pdfimages/internal/engine"
    "github.com/local/pdfimages/internal/extract"
    "github.com/local/pdfimages/internal/filetype"
    "github.com/local/pdfimages/internal/limiter"
    "github.com/local/pdfimages/internal/metrics"
    "github.com/local/pdfimages/internal/statuscheck"
    "github.com/local/pdfimages/internal/store"
    "github.com/local/pdfimages/internal/worker"
)

// Queue is the producer side of the job queue.
type Queue interface {
    Enqueue(ctx context.Context, payload []byte) error
    CancelJob(ctx context.Context, jobID string) error
}

// StatusStore reads and writes job state for polling clients.
type StatusStore interface {
    Set(ctx context.Context, jobID string, st store.Status) error
    Get(ctx context.Context, jobID string) (store.Status, bool, error)
    SetFileJobMapping(ctx context.Context, fileID, jobID string) error
    GetJobByFileID(ctx context.Context, fileID string) (string, error)
}

// ResultStore fetches persisted result payloads.
type ResultStore interface {
    GetResult(ctx context.Context, jobID string) ([]byte, error)
}

// Runner executes synchronous extractions in-process.
type Runner interface {
    Run(ctx context.Context, job worker.Job, progress func(done, total int)) (*worker.RunResult, error)
}

// Checker produces the verbose health summary.
type Checker interface {
    Summary(ctx context.Context) statuscheck.Summary
}

type Dependencies struct {
    Queue   Queue
    Status  StatusStore
    Results ResultStore
    Runner  Runner
    Limiter *limiter.Inflight
    Checker Checker
    Config  config.Config
}

// Orchestrator owns the HTTP API: synchronous and async extraction,
// analysis, progress, results, cancellation and downloads.
type Orchestrator struct {
    deps Dependencies
}

func New(deps Dependencies) *Orchestrator {
    return &Orchestrator{deps: deps}
}

func (o *Orchestrator) RegisterRoutes(mux *http.ServeMux) {
    mux.HandleFunc("/health", o.handleHealth)
    mux.HandleFunc("/analyze", o.handleAnalyze)
    mux.HandleFunc("/extract", o.handleExtract)
    mux.HandleFunc("/extract_async", o.handleExtractAsync)
    mux.HandleFunc("/progress/", o.handleProgress)
    mux.HandleFunc("/result/", o.handleResult)
    mux.HandleFunc("/cancel/", o.handleCancel)
    mux.HandleFunc("/download/", o.handleDownload)

    imagesDir := filepath.Join(o.deps.Config.Server.DataDir, "images")
    mux.Handle("/images/", http.StripPrefix("/images/", http.FileServer(http.Dir(imagesDir))))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
    w.Header().Set("Content-Type", "application/json")
    w.WriteHeader(code)
    _ = json.NewEncoder(w).Encode(v)
}

func apiError(w http.ResponseWriter, code int, msg string) {
    writeJSON(w, code, map[string]any{"success": false, "error": msg})
}

func (o *Orchestrator) handleHealth(w http.ResponseWriter, r *http.Request) {
    if r.URL.Query().Get("verbose") == "" {
        w.WriteHeader(http.StatusOK)
        _, _ = w.Write([]byte("ok"))
        return
    }
    if o.deps.Checker == nil {
        apiError(w, http.StatusServiceUnavailable, "status checks unavailable")
        return
    }
    sum := o.deps.Checker.Summary(r.Context())
    code := http.StatusOK
    if !sum.OK() {
        code = http.StatusServiceUnavailable
    }
    writeJSON(w, code, sum)
}

type analyzeResponse struct {
    *classify.Analysis
    FileID           string `json:"file_id"`
    OriginalFilename string `json:"original_filename"`
}

// handleAnalyze probes an uploaded PDF and returns the structural report
// without extracting anything.
func (o *Orchestrator) handleAnalyze(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    data, fileName, ok := o.readUpload(w, r)
    if !ok {
        return
    }

    doc, err := engine.OpenBytes(data, fileName)
    if err != nil {
        apiError(w, http.StatusBadRequest, err.Error())
        return
    }
    defer doc.Close()

    writeJSON(w, http.StatusOK, analyzeResponse{
        Analysis:         classify.Analyze(doc, fileName),
        FileID:           uuid.NewString(),
        OriginalFilename: fileName,
    })
}

// handleExtract runs an extraction synchronously and returns the full
// result. Concurrency is bounded; callers over the limit get a 429.
func (o *Orchestrator) handleExtract(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    if o.deps.Runner == nil {
        apiError(w, http.StatusServiceUnavailable, "extraction not available")
        return
    }

    if o.deps.Limiter != nil {
        release, ok := o.deps.Limiter.Acquire()
        if !ok {
            w.Header().Set("Retry-After", "5")
            apiError(w, http.StatusTooManyRequests, "too many concurrent extractions, retry later")
            return
        }
        metrics.SetInflight(o.deps.Limiter.InUse())
        defer func() {
            release()
            metrics.SetInflight(o.deps.Limiter.InUse())
        }()
    }

    localPath, fileName, ok := o.saveUpload(w, r)
    if !ok {
        return
    }
    opts := parseOptions(r.Form, o.defaultOptions())

    fileID := uuid.NewString()
    job := worker.Job{
        ID:       fileID,
        FileID:   fileID,
        FileRef:  "file://" + localPath,
        FileName: fileName,
        Options:  opts,
        Source:   "sync",
    }

    runRes, err := o.deps.Runner.Run(r.Context(), job, nil)
    if err != nil {
        if extract.IsInputError(err) {
            apiError(w, http.StatusBadRequest, err.Error())
        } else {
            log.Error().Err(err).Str("file", fileName).Msg("synchronous extraction failed")
            apiError(w, http.StatusInternalServerError, "extraction failed")
        }
        return
    }

    resp := extractResponse{
        Result:           runRes.Result,
        FileID:           fileID,
        OriginalFilename: fileName,
        S3URL:            runRes.S3URL,
    }
    if runRes.ZipPath != "" {
        resp.ZipDownloadURL = "/download/" + fileID
    }
    writeJSON(w, http.StatusOK, resp)
}

type extractResponse struct {
    *extract.Result
    FileID           string `json:"file_id"`
    OriginalFilename string `json:"original_filename"`
    ZipDownloadURL   string `json:"zip_download_url,omitempty"`
    S3URL            string `json:"s3_url,omitempty"`
}

type asyncReq struct {
    FileRef  string           `json:"file_ref"`
    FileName string           `json:"file_name"`
    Options  *extract.Options `json:"options"`
    Source   string           `json:"source"`
}

// handleExtractAsync accepts either a multipart upload or a JSON reference
// (file://, http(s)://, s3://) and queues the job for the workers.
func (o *Orchestrator) handleExtractAsync(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    if o.deps.Queue == nil || o.deps.Status == nil {
        apiError(w, http.StatusServiceUnavailable, "queue not available")
        return
    }

    var fileRef, fileName, source string
    opts := o.defaultOptions()

    if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
        defer r.Body.Close()
        // Decoding into the prefilled options keeps configured defaults for
        // fields the request leaves out.
        req := asyncReq{Options: &opts}
        if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
            apiError(w, http.StatusBadRequest, "invalid json")
            return
        }
        if req.FileRef == "" {
            apiError(w, http.StatusBadRequest, "missing file_ref")
            return
        }
        fileRef = req.FileRef
        fileName = req.FileName
        if fileName == "" {
            fileName = filepath.Base(strings.SplitN(fileRef, "#", 2)[0])
        }
        opts = req.Options.Normalize()
        source = req.Source
        if source == "" {
            source = "api"
        }
    } else {
        localPath, name, ok := o.saveUpload(w, r)
        if !ok {
            return
        }
        fileRef = "file://" + localPath
        fileName = name
        opts = parseOptions(r.Form, opts)
        source = "upload"
    }

    jobID := uuid.NewString()
    fileID := uuid.NewString()

    job := worker.Job{
        ID:         jobID,
        FileID:     fileID,
        FileRef:    fileRef,
        FileName:   fileName,
        Options:    opts,
        Source:     source,
        EnqueuedAt: time.Now(),
    }
    payload, err := job.Encode()
    if err != nil {
        apiError(w, http.StatusInternalServerError, "failed to encode job")
        return
    }

    start := time.Now()
    _ = o.deps.Status.Set(r.Context(), jobID, store.Status{
        Status:   "queued",
        Progress: 0,
        Message:  "queued for extraction",
        Start:    &start,
        Metadata: map[string]interface{}{"file_id": fileID, "file_name": fileName, "source": source},
    })
    _ = o.deps.Status.SetFileJobMapping(r.Context(), fileID, jobID)

    if err := o.deps.Queue.Enqueue(r.Context(), payload); err != nil {
        log.Error().Err(err).Str("job_id", jobID).Msg("enqueue failed")
        apiError(w, http.StatusServiceUnavailable, "queue unavailable")
        return
    }

    log.Info().Str("job_id", jobID).Str("file_id", fileID).Str("file", fileName).
        Str("source", source).Msg("extraction job queued")
    writeJSON(w, http.StatusAccepted, map[string]any{
        "success": true,
        "job_id":  jobID,
        "file_id": fileID,
        "status":  "queued",
    })
}

// handleProgress reports job state. Accepts either a job_id or a file_id.
func (o *Orchestrator) handleProgress(w http.ResponseWriter, r *http.Request) {
    id := strings.TrimPrefix(r.URL.Path, "/progress/")
    if id == "" {
        apiError(w, http.StatusBadRequest, "missing job id")
        return
    }
    jobID := id
    st, ok, err := o.deps.Status.Get(r.Context(), jobID)
    if err != nil {
        apiError(w, http.StatusInternalServerError, "status lookup failed")
        return
    }
    if !ok {
        if mapped, merr := o.deps.Status.GetJobByFileID(r.Context(), id); merr == nil && mapped != "" {
            jobID = mapped
            st, ok, err = o.deps.Status.Get(r.Context(), jobID)
            if err != nil {
                apiError(w, http.StatusInternalServerError, "status lookup failed")
                return
            }
        }
    }
    if !ok {
        apiError(w, http.StatusNotFound, "job not found")
        return
    }
    writeJSON(w, http.StatusOK, map[string]any{
        "success":    st.Status == "completed",
        "job_id":     jobID,
        "status":     st.Status,
        "progress":   st.Progress,
        "message":    st.Message,
        "start_time": st.Start,
        "end_time":   st.End,
        "metadata":   st.Metadata,
    })
}

// handleResult returns the stored result payload for a finished job.
func (o *Orchestrator) handleResult(w http.ResponseWriter, r *http.Request) {
    jobID := strings.TrimPrefix(r.URL.Path, "/result/")
    if jobID == "" {
        apiError(w, http.StatusBadRequest, "missing job id")
        return
    }
    if o.deps.Results == nil {
        apiError(w, http.StatusServiceUnavailable, "results not available")
        return
    }
    data, err := o.deps.Results.GetResult(r.Context(), jobID)
    if err != nil {
        apiError(w, http.StatusInternalServerError, "result lookup failed")
        return
    }
    if data == nil {
        st, ok, _ := o.deps.Status.Get(r.Context(), jobID)
        if ok && st.Status != "failed" {
            writeJSON(w, http.StatusAccepted, map[string]any{
                "success": false, "job_id": jobID, "status": st.Status, "message": "result not ready",
            })
            return
        }
        if ok {
            writeJSON(w, http.StatusOK, map[string]any{
                "success": false, "job_id": jobID, "status": st.Status, "error": st.Message,
            })
            return
        }
        apiError(w, http.StatusNotFound, "job not found")
        return
    }
    w.Header().Set("Content-Type", "application/json")
    _, _ = w.Write(data)
}

type cancelReq struct {
    Reason string `json:"reason,omitempty"`
}

func (o *Orchestrator) handleCancel(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.WriteHeader(http.StatusMethodNotAllowed)
        return
    }
    jobID := strings.TrimPrefix(r.URL.Path, "/cancel/")
    if jobID == "" {
        apiError(w, http.StatusBadRequest, "missing job id")
        return
    }
    var req cancelReq
    if r.Body != nil {
        _ = json.NewDecoder(r.Body).Decode(&req)
    }

    st, ok, _ := o.deps.Status.Get(r.Context(), jobID)
    if ok && (st.Status == "completed" || st.Status == "failed" || st.Status == "cancelled") {
        apiError(w, http.StatusConflict, fmt.Sprintf("job already %s", st.Status))
        return
    }

    if err := o.deps.Queue.CancelJob(r.Context(), jobID); err != nil {
        apiError(w, http.StatusInternalServerError, "cancel failed")
        return
    }
    msg := "Cancelled"
    if req.Reason != "" {
        msg = "Cancelled: " + req.Reason
    }
    now := time.Now()
    st.Status = "cancelled"
    st.Message = msg
    st.End = &now
    _ = o.deps.Status.Set(r.Context(), jobID, st)

    log.Info().Str("job_id", jobID).Str("reason", req.Reason).Msg("job cancelled")
    writeJSON(w, http.StatusOK, map[string]any{"success": true, "job_id": jobID, "status": "cancelled"})
}

// handleDownload serves the zip archive for a finished extraction.
func (o *Orchestrator) handleDownload(w http.ResponseWriter, r *http.Request) {
    fileID := strings.TrimPrefix(r.URL.Path, "/download/")
    if fileID == "" {
        apiError(w, http.StatusBadRequest, "missing file id")
        return
    }
    if strings.ContainsAny(fileID, "/\\") || strings.Contains(fileID, "..") {
        apiError(w, http.StatusBadRequest, "invalid file id")
        return
    }
    zipPath := filepath.Join(o.deps.Config.Server.DataDir, "downloads", fileID+"_images.zip")
    if _, err := os.Stat(zipPath); err != nil {
        apiError(w, http.StatusNotFound, "archive not found")
        return
    }
    w.Header().Set("Content-Type", "application/zip")
    w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s_images.zip", fileID))
    http.ServeFile(w, r, zipPath)
}

func (o *Orchestrator) defaultOptions() extract.Options {
    e := o.deps.Config.Extract
    opts := extract.DefaultOptions()
    if e.MinSize > 0 {
        opts.MinSize = e.MinSize
    }
    if e.DPI > 0 {
        opts.DPI = e.DPI
    }
    if e.JPEGQuality > 0 {
        opts.JPEGQuality = e.JPEGQuality
    }
    if e.OverlapThreshold > 0 {
        opts.OverlapThreshold = e.OverlapThreshold
    }
    if e.DuplicateThreshold > 0 {
        opts.DuplicateThreshold = e.DuplicateThreshold
    }
    opts.FilterDuplicates = e.FilterDuplicates
    opts.FilterContained = e.FilterContained
    opts.FilterText = e.FilterText
    if e.RatioDenominator != "" {
        opts.RatioDenominator = e.RatioDenominator
    }
    return opts.Normalize()
}

// parseOptions overlays request form fields onto the configured defaults.
// Unknown or malformed values keep the default.
func parseOptions(form url.Values, defaults extract.Options) extract.Options {
    opts := defaults
    if v := form.Get("min_size"); v != "" {
        if f, err := strconv.ParseFloat(v, 64); err == nil {
            opts.MinSize = f
        }
    }
    if v := form.Get("dpi"); v != "" {
        if n, err := strconv.Atoi(v); err == nil {
            opts.DPI = n
        }
    }
    if v := form.Get("jpeg_quality"); v != "" {
        if n, err := strconv.Atoi(v); err == nil {
            opts.JPEGQuality = n
        }
    }
    if v := form.Get("overlap_threshold"); v != "" {
        if f, err := strconv.ParseFloat(v, 64); err == nil {
            opts.OverlapThreshold = f
        }
    }
    if v := form.Get("duplicate_threshold"); v != "" {
        if f, err := strconv.ParseFloat(v, 64); err == nil {
            opts.DuplicateThreshold = f
        }
    }
    if v := form.Get("contain_tolerance"); v != "" {
        if f, err := strconv.ParseFloat(v, 64); err == nil {
            opts.ContainTolerance = f
        }
    }
    if v := form.Get("filter_duplicates"); v != "" {
        opts.FilterDuplicates = parseFormBool(v)
    }
    if v := form.Get("filter_contained"); v != "" {
        opts.FilterContained = parseFormBool(v)
    }
    if v := form.Get("filter_text"); v != "" {
        opts.FilterText = parseFormBool(v)
    }
    if v := form.Get("force_mode"); v != "" {
        opts.ForceMode = v
    }
    if v := form.Get("ratio_denominator"); v != "" {
        opts.RatioDenominator = v
    }
    return opts.Normalize()
}

func parseFormBool(v string) bool {
    s := strings.ToLower(strings.TrimSpace(v))
    return s == "1" || s == "true" || s == "yes" || s == "on"
}

// readUpload pulls the pdf_file form file fully into memory and verifies it
// is a PDF. Writes the error response itself when it returns !ok.
func (o *Orchestrator) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
    r.Body = http.MaxBytesReader(w, r.Body, o.maxUploadBytes())
    if err := r.ParseMultipartForm(32 << 20); err != nil {
        apiError(w, http.StatusBadRequest, "invalid multipart form")
        return nil, "", false
    }
    file, hdr, err := r.FormFile("pdf_file")
    if err != nil {
        apiError(w, http.StatusBadRequest, "missing pdf_file")
        return nil, "", false
    }
    defer file.Close()

    data, err := io.ReadAll(file)
    if err != nil {
        apiError(w, http.StatusBadRequest, "failed to read upload")
        return nil, "", false
    }
    info := filetype.New().DetectBytes(data)
    if !info.IsPDF {
        apiError(w, http.StatusBadRequest,
            fmt.Sprintf("unsupported file type %s, only PDF is accepted", info.MIMEType))
        return nil, "", false
    }

    name := filepath.Base(hdr.Filename)
    if name == "" || name == "." || name == string(filepath.Separator) {
        name = "upload.pdf"
    }
    return data, name, true
}

// saveUpload persists the pdf_file form file under the upload dir with a
// collision-proof name. Writes the error response itself when it returns !ok.
func (o *Orchestrator) saveUpload(w http.ResponseWriter, r *http.Request) (string, string, bool) {
    data, name, ok := o.readUpload(w, r)
    if !ok {
        return "", "", false
    }
    uploadDir := o.deps.Config.Server.UploadDir
    if err := os.MkdirAll(uploadDir, 0o755); err != nil {
        apiError(w, http.StatusInternalServerError, "cannot create upload dir")
        return "", "", false
    }
    localPath := filepath.Join(uploadDir, uuid.NewString()+"_"+name)
    if err := os.WriteFile(localPath, data, 0o644); err != nil {
        apiError(w, http.StatusInternalServerError, "cannot save upload")
        return "", "", false
    }
    return localPath, name, true
}

func (o *Orchestrator) maxUploadBytes() int64 {
    mb := o.deps.Config.Server.MaxUploadMB
    if mb <= 0 {
        mb = 50
    }
    return mb << 20
}

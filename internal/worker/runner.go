package worker

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfimages/internal/engine"
	"github.com/local/pdfimages/internal/extract"
	"github.com/local/pdfimages/internal/filetype"
	"github.com/local/pdfimages/internal/metrics"
)

// ResultStorage is the slice of the S3 client the runner needs. Nil disables
// both s3:// inputs and result uploads.
type ResultStorage interface {
	S3Fetcher
	UploadFile(ctx context.Context, key, path, contentType, password string) (string, error)
}

// Runner executes one extraction end to end: stage the input locally,
// validate it, run the extractor and package the results. It is shared by
// the synchronous API path and the queue workers.
type Runner struct {
	DataDir            string
	Storage            ResultStorage
	UploadResults      bool
	EncryptionPassword string
}

// RunResult is what a finished run leaves behind.
type RunResult struct {
	Result   *extract.Result `json:"result"`
	ZipPath  string          `json:"zip_path,omitempty"`
	InfoPath string          `json:"info_path,omitempty"`
	S3URL    string          `json:"s3_url,omitempty"`
}

// Run processes a single job. Progress, when non-nil, receives per-page
// completion callbacks.
func (r *Runner) Run(ctx context.Context, job Job, progress func(done, total int)) (*RunResult, error) {
	localPath, cleanup, err := EnsureLocalPDF(ctx, job.FileRef, r.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to stage input: %w", err)
	}
	defer cleanup()

	displayName := job.FileName
	if displayName == "" {
		displayName = filepath.Base(localPath)
	}

	info, err := filetype.New().Detect(localPath)
	if err != nil {
		return nil, &extract.InputError{File: displayName, Reason: err.Error()}
	}
	if !info.IsPDF {
		return nil, &extract.InputError{File: displayName,
			Reason: fmt.Sprintf("unsupported file type %s, only PDF is accepted", info.MIMEType)}
	}

	// pdfcpu catches truncated or structurally broken files before the
	// render engine touches them.
	pages, err := api.PageCountFile(localPath)
	if err != nil {
		return nil, &extract.InputError{File: displayName, Reason: "not a readable PDF: " + err.Error()}
	}
	if pages == 0 {
		return nil, &extract.InputError{File: displayName, Reason: "document has no pages"}
	}

	doc, err := engine.Open(localPath)
	if err != nil {
		return nil, &extract.InputError{File: displayName, Reason: err.Error()}
	}
	defer doc.Close()
	doc.SetName(displayName)

	outputDir := filepath.Join(r.DataDir, "images", job.FileID)
	ex := extract.New(doc, outputDir, job.Options)
	ex.OnPage = progress

	start := time.Now()
	res, err := ex.Extract(ctx)
	if err != nil {
		metrics.ObserveExtraction("unknown", "error", 0, time.Since(start))
		return nil, err
	}
	metrics.ObserveExtraction(string(res.Mode), "success", res.PDFInfo.PageCount, time.Since(start))
	countImageMetrics(res)

	for i := range res.Images {
		res.Images[i].DownloadURL = "/images/" + job.FileID + "/" + res.Images[i].FileName
	}

	out := &RunResult{Result: res}

	infoPath, err := extract.WriteInfo(res, outputDir)
	if err != nil {
		log.Warn().Err(err).Str("job_id", job.ID).Msg("failed to write extraction info")
	} else {
		out.InfoPath = infoPath
	}

	if len(res.Images) > 0 {
		zipPath := filepath.Join(r.DataDir, "downloads", job.FileID+"_images.zip")
		if err := extract.ArchiveImages(res.Images, zipPath); err != nil {
			return nil, fmt.Errorf("failed to archive images: %w", err)
		}
		out.ZipPath = zipPath

		if r.UploadResults && r.Storage != nil {
			key := fmt.Sprintf("results/%s/images.zip", job.FileID)
			url, err := r.Storage.UploadFile(ctx, key, zipPath, "application/zip", r.EncryptionPassword)
			if err != nil {
				log.Warn().Err(err).Str("job_id", job.ID).Msg("failed to upload result archive")
			} else {
				out.S3URL = url
			}
		}
	}

	log.Info().Str("job_id", job.ID).Str("file", displayName).Int("images", res.Count).
		Str("mode", string(res.Mode)).Dur("took", time.Since(start)).Msg("extraction run finished")
	return out, nil
}

func countImageMetrics(res *extract.Result) {
	perMethod := map[string]int{}
	for _, img := range res.Images {
		perMethod[string(img.Method)]++
	}
	for method, n := range perMethod {
		metrics.AddImages(method, n)
	}
	for reason, n := range res.Rejections {
		metrics.AddFiltered(reason, n)
	}
}

package worker

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// S3Fetcher downloads objects from the configured bucket.
type S3Fetcher interface {
	Bucket() string
	DownloadToFile(ctx context.Context, key, destPath string) (int64, error)
}

// EnsureLocalPDF resolves a job file reference to a local path. Supports
// plain filesystem paths, file:// paths, http(s):// URLs and s3://bucket/key
// references. The cleanup func removes any temp file that was created and is
// safe to call unconditionally.
func EnsureLocalPDF(ctx context.Context, ref string, s3c S3Fetcher) (string, func(), error) {
	// Strip optional #page fragment if present
	if i := strings.Index(ref, "#"); i >= 0 {
		ref = ref[:i]
	}

	noop := func() {}
	switch {
	case strings.HasPrefix(ref, "s3://"):
		return downloadS3ToTemp(ctx, ref, s3c)
	case strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://"):
		return downloadHTTPToTemp(ctx, ref)
	case strings.HasPrefix(ref, "file://"):
		return strings.TrimPrefix(ref, "file://"), noop, nil
	default:
		return ref, noop, nil
	}
}

func downloadHTTPToTemp(ctx context.Context, url string) (string, func(), error) {
	noop := func() {}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", noop, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", noop, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", noop, fmt.Errorf("http %d fetching %s", resp.StatusCode, url)
	}

	f, err := os.CreateTemp("", "pdfdl-*.pdf")
	if err != nil {
		return "", noop, err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", noop, fmt.Errorf("failed to save %s: %w", url, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", noop, err
	}
	log.Debug().Str("url", url).Str("file", f.Name()).Msg("downloaded source pdf over http")
	return f.Name(), func() { os.Remove(f.Name()) }, nil
}

func downloadS3ToTemp(ctx context.Context, s3url string, s3c S3Fetcher) (string, func(), error) {
	noop := func() {}
	if s3c == nil {
		return "", noop, fmt.Errorf("job references %s but S3 storage is not configured", s3url)
	}

	// s3://bucket/key
	path := strings.TrimPrefix(s3url, "s3://")
	slash := strings.Index(path, "/")
	if slash <= 0 {
		return "", noop, fmt.Errorf("invalid s3 url: %s", s3url)
	}
	bucket := path[:slash]
	key := path[slash+1:]
	if bucket != s3c.Bucket() {
		return "", noop, fmt.Errorf("job references bucket %s, service is configured for %s", bucket, s3c.Bucket())
	}

	f, err := os.CreateTemp("", "s3pdf-*.pdf")
	if err != nil {
		return "", noop, err
	}
	// DownloadToFile recreates the file, keep only the name.
	tmp := f.Name()
	f.Close()

	if _, err := s3c.DownloadToFile(ctx, key, tmp); err != nil {
		os.Remove(tmp)
		return "", noop, err
	}
	return tmp, func() { os.Remove(tmp) }, nil
}

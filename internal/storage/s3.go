package storage

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/pbkdf2"
)

// gcmMagic marks the encrypted envelope:
// magic(8) + salt(16) + nonce(12) + ciphertext + auth_tag(16)
const gcmMagic = "GCM3NCR0"

// S3Client wraps the AWS S3 client for source-document downloads and
// result uploads, with optional envelope encryption.
type S3Client struct {
	client     *s3.Client
	uploader   *manager.Uploader
	downloader *manager.Downloader
	bucketName string
}

// Options configure the client. Empty AccessKey/SecretKey fall back to the
// default AWS credential chain.
type Options struct {
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// FileMetadata describes a stored object.
type FileMetadata struct {
	OriginalName string `json:"original_name"`
	ContentType  string `json:"content_type"`
	Size         int64  `json:"size"`
	Encrypted    bool   `json:"encrypted"`
}

// NewS3Client creates a new S3 client.
func NewS3Client(ctx context.Context, opts Options) (*S3Client, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket not configured")
	}

	var loadOpts []func(*awscfg.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awscfg.WithRegion(opts.Region))
	}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		loadOpts = append(loadOpts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	}

	cfg, err := awscfg.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	cli := s3.NewFromConfig(cfg)
	return &S3Client{
		client:     cli,
		uploader:   manager.NewUploader(cli),
		downloader: manager.NewDownloader(cli),
		bucketName: opts.Bucket,
	}, nil
}

// Bucket returns the configured bucket name.
func (s *S3Client) Bucket() string { return s.bucketName }

// Ping verifies bucket reachability, for health checks.
func (s *S3Client) Ping(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucketName)})
	if err != nil {
		return fmt.Errorf("head bucket %s: %w", s.bucketName, err)
	}
	return nil
}

// DownloadToFile fetches an object into destPath using the concurrent
// downloader. Used for source PDFs referenced by s3:// job payloads.
func (s *S3Client) DownloadToFile(ctx context.Context, key, destPath string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create download dir: %w", err)
	}
	f, err := os.Create(destPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", destPath, err)
	}
	defer f.Close()

	n, err := s.downloader.Download(ctx, f, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		os.Remove(destPath)
		return 0, fmt.Errorf("failed to download s3://%s/%s: %w", s.bucketName, key, err)
	}
	log.Debug().Str("key", key).Int64("bytes", n).Str("dest", destPath).Msg("downloaded object from S3")
	return n, nil
}

// DownloadFile fetches an object into memory, decrypting the envelope when
// one is present and a password is given.
func (s *S3Client) DownloadFile(ctx context.Context, key, password string) ([]byte, *FileMetadata, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to download from S3: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read S3 object: %w", err)
	}

	meta := &FileMetadata{}
	if result.Metadata != nil {
		if name, ok := result.Metadata["name"]; ok {
			meta.OriginalName = name
		} else if name, ok := result.Metadata["Name"]; ok {
			meta.OriginalName = name
		}
	}
	if result.ContentLength != nil {
		meta.Size = *result.ContentLength
	}

	if isEncrypted(data) {
		if password == "" {
			return nil, nil, fmt.Errorf("object %s is encrypted but no password configured", key)
		}
		plain, err := decryptGCM(data, password)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to decrypt %s: %w", key, err)
		}
		meta.Encrypted = true
		log.Debug().Str("key", key).Int("size", len(plain)).Msg("downloaded and decrypted object from S3")
		return plain, meta, nil
	}
	return data, meta, nil
}

// UploadFile uploads a local file, encrypting it when a password is set.
// Returns the s3:// URL of the stored object.
func (s *S3Client) UploadFile(ctx context.Context, key, path, contentType, password string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	encrypted := false
	if password != "" {
		data, err = encryptGCM(data, password)
		if err != nil {
			return "", fmt.Errorf("failed to encrypt %s: %w", path, err)
		}
		encrypted = true
	}

	s3Metadata := map[string]string{
		"name": filepath.Base(path),
	}
	if encrypted {
		s3Metadata["encrypted"] = "true"
		s3Metadata["encryption-format"] = gcmMagic
	}

	input := &s3.PutObjectInput{
		Bucket:   aws.String(s.bucketName),
		Key:      aws.String(key),
		Body:     bytes.NewReader(data),
		Metadata: s3Metadata,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	url := fmt.Sprintf("s3://%s/%s", s.bucketName, key)
	log.Info().Str("key", key).Int("bytes", len(data)).Bool("encrypted", encrypted).
		Msg("uploaded file to S3")
	return url, nil
}

func isEncrypted(data []byte) bool {
	return len(data) >= len(gcmMagic) && string(data[:len(gcmMagic)]) == gcmMagic
}

// encryptGCM seals data into the envelope format.
func encryptGCM(data []byte, password string) ([]byte, error) {
	salt := make([]byte, 16)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	key := pbkdf2.Key([]byte(password), salt, 100000, 32, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, data, nil)

	out := make([]byte, 0, len(gcmMagic)+len(salt)+len(nonce)+len(sealed))
	out = append(out, gcmMagic...)
	out = append(out, salt...)
	out = append(out, nonce...)
	out = append(out, sealed...)
	return out, nil
}

// decryptGCM opens the envelope format.
func decryptGCM(encryptedData []byte, password string) ([]byte, error) {
	// Format: magic(8) + salt(16) + nonce(12) + encrypted_data + auth_tag(16)
	if len(encryptedData) < 8+16+12+16 {
		return nil, fmt.Errorf("GCM data too short: %d bytes", len(encryptedData))
	}

	salt := encryptedData[8:24]
	nonce := encryptedData[24:36]
	encryptedWithTag := encryptedData[36:]

	key := pbkdf2.Key([]byte(password), salt, 100000, 32, sha256.New)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	plaintext, err := gcm.Open(nil, nonce, encryptedWithTag, nil)
	if err != nil {
		return nil, fmt.Errorf("GCM decryption failed: %w", err)
	}
	return plaintext, nil
}

// internal/blob/blob.go
//
// Sendero – Screenshot storage.
//
// Context
//   The feedback widget may attach a screenshot as a data URL.  The
//   handler decodes it with ParseDataURL and hands the bytes to a Store,
//   which returns a URL the issue description can link to.  S3Store is the
//   production implementation; Memory backs tests and local runs.
//
//------------------------------------------------------------------------------

package blob

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// MaxScreenshotBytes caps a decoded screenshot.
const MaxScreenshotBytes = 5 << 20

// Accepted screenshot types mapped to a file extension.
var imageTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

// Errors returned by ParseDataURL.
var (
	ErrNotDataURL   = errors.New("blob: not a base64 data URL")
	ErrType         = errors.New("blob: unsupported image type")
	ErrTooLarge     = errors.New("blob: image exceeds size limit")
	ErrUndecodeable = errors.New("blob: invalid base64 payload")
)

// Store saves an object and returns a URL for it.
type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

// Ext returns the file extension for an accepted image content type.
func Ext(contentType string) string { return imageTypes[contentType] }

// ParseDataURL decodes "data:image/png;base64,...." and enforces the type
// allow-list and MaxScreenshotBytes.
func ParseDataURL(s string) (contentType string, data []byte, err error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, ErrNotDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrNotDataURL
	}
	contentType, enc, ok := strings.Cut(meta, ";")
	if !ok || enc != "base64" {
		return "", nil, ErrNotDataURL
	}
	contentType = strings.ToLower(contentType)
	if _, ok := imageTypes[contentType]; !ok {
		return "", nil, ErrType
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxScreenshotBytes+2 {
		return "", nil, ErrTooLarge
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, ErrUndecodeable
	}
	if len(data) > MaxScreenshotBytes {
		return "", nil, ErrTooLarge
	}
	return contentType, data, nil
}

/*────────────────────────────── S3Store ────────────────────────────────────*/

// S3API is the slice of the S3 client S3Store uses.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config holds bucket settings.
type S3Config struct {
	Bucket        string
	Region        string
	Prefix        string // e.g. "feedback/"
	PublicBaseURL string // CDN in front of the bucket, optional
	AccessKey     string
	SecretKey     string
}

// S3Store writes objects to one bucket.
type S3Store struct {
	client S3API
	cfg    S3Config
}

// NewS3Store loads the default AWS config.  Static keys are used when both
// are set; otherwise the SDK credential chain applies.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3 config: %w", err)
	}
	return NewS3StoreWithClient(s3.NewFromConfig(awsCfg), cfg), nil
}

// NewS3StoreWithClient wraps an existing client.
func NewS3StoreWithClient(client S3API, cfg S3Config) *S3Store {
	return &S3Store{client: client, cfg: cfg}
}

// Put uploads data under Prefix+key.
func (s *S3Store) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	full := s.cfg.Prefix + key
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(full),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
		CacheControl:  aws.String("private, max-age=31536000"),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put %s: %w", full, err)
	}
	return s.url(full), nil
}

func (s *S3Store) url(key string) string {
	if s.cfg.PublicBaseURL != "" {
		u, err := url.JoinPath(s.cfg.PublicBaseURL, key)
		if err == nil {
			return u
		}
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, key)
}

/*────────────────────────────── Memory ─────────────────────────────────────*/

// Memory keeps objects in process.
type Memory struct {
	mu      sync.Mutex
	objects map[string][]byte
	Err     error // returned by Put when set
}

// Put stores a copy of data.
func (m *Memory) Put(_ context.Context, key, _ string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return "", m.Err
	}
	if m.objects == nil {
		m.objects = make(map[string][]byte)
	}
	m.objects[key] = append([]byte(nil), data...)
	return "memory://" + key, nil
}

// Get returns the stored object.
func (m *Memory) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[key]
	return b, ok
}

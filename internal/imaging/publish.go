package imaging

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"
)

// Publisher makes a normalized image reachable by the storefront and returns
// its public URL.
type Publisher interface {
	Publish(ctx context.Context, hash, localPath string, data []byte) (string, error)
}

// BaseURLPublisher assumes the cache directory is served at base.
type BaseURLPublisher struct {
	base string
}

func NewBaseURLPublisher(base string) BaseURLPublisher {
	return BaseURLPublisher{base: strings.TrimRight(base, "/")}
}

func (p BaseURLPublisher) Publish(_ context.Context, _, localPath string, _ []byte) (string, error) {
	return p.base + "/" + filepath.Base(localPath), nil
}

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// S3Publisher uploads images with AWS Signature V4 under
// images/<hash[:2]>/<hash>.jpg.
type S3Publisher struct {
	cfg    S3Config
	client *http.Client
	now    func() time.Time
}

func NewS3Publisher(cfg S3Config) (*S3Publisher, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, fmt.Errorf("s3 bucket and region are required")
	}
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, fmt.Errorf("s3 credentials are required")
	}
	return &S3Publisher{cfg: cfg, client: &http.Client{Timeout: 60 * time.Second}, now: time.Now}, nil
}

func (s *S3Publisher) Publish(ctx context.Context, hash, _ string, data []byte) (string, error) {
	if len(hash) < 2 {
		return "", fmt.Errorf("invalid content hash %q", hash)
	}
	key := fmt.Sprintf("images/%s/%s.jpg", hash[:2], hash)
	objectURL := s.ObjectURL(key)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, objectURL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create upload request: %w", err)
	}
	now := s.now().UTC()
	amzDate := now.Format("20060102T150405Z")
	dateStamp := now.Format("20060102")
	payloadHash := sha256Hex(data)

	req.ContentLength = int64(len(data))
	req.Header.Set("Content-Type", "image/jpeg")
	req.Header.Set("X-Amz-Date", amzDate)
	req.Header.Set("X-Amz-Content-Sha256", payloadHash)
	req.Header.Set("Authorization", s.sign(req, payloadHash, amzDate, dateStamp))

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("upload image: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return objectURL, nil
}

// ObjectURL is virtual-hosted style on AWS and path style on a custom endpoint.
func (s *S3Publisher) ObjectURL(key string) string {
	if s.cfg.Endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.cfg.Endpoint, "/"), s.cfg.Bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, key)
}

func (s *S3Publisher) sign(req *http.Request, payloadHash, amzDate, dateStamp string) string {
	const service = "s3"
	const algorithm = "AWS4-HMAC-SHA256"

	canonicalURI := req.URL.EscapedPath()
	if canonicalURI == "" {
		canonicalURI = "/"
	}
	headers := [][2]string{
		{"content-type", req.Header.Get("Content-Type")},
		{"host", req.URL.Host},
		{"x-amz-content-sha256", payloadHash},
		{"x-amz-date", amzDate},
	}
	var canonicalHeaders strings.Builder
	names := make([]string, 0, len(headers))
	for _, h := range headers {
		canonicalHeaders.WriteString(h[0] + ":" + strings.TrimSpace(h[1]) + "\n")
		names = append(names, h[0])
	}
	signedHeaders := strings.Join(names, ";")

	canonicalRequest := strings.Join([]string{
		req.Method, canonicalURI, "", canonicalHeaders.String(), signedHeaders, payloadHash,
	}, "\n")
	scope := fmt.Sprintf("%s/%s/%s/aws4_request", dateStamp, s.cfg.Region, service)
	stringToSign := strings.Join([]string{algorithm, amzDate, scope, sha256Hex([]byte(canonicalRequest))}, "\n")

	kDate := hmacSHA256([]byte("AWS4"+s.cfg.SecretAccessKey), []byte(dateStamp))
	kRegion := hmacSHA256(kDate, []byte(s.cfg.Region))
	kService := hmacSHA256(kRegion, []byte(service))
	kSigning := hmacSHA256(kService, []byte("aws4_request"))
	signature := hex.EncodeToString(hmacSHA256(kSigning, []byte(stringToSign)))

	return fmt.Sprintf("%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		algorithm, s.cfg.AccessKeyID, scope, signedHeaders, signature)
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func hmacSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}

package imaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"wholesale-catalog/internal/retry"
)

// Fetcher returns the raw bytes behind an image reference. Errors wrapped
// with retry.Stop are not worth retrying.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

const maxImageBytes = 32 << 20

// HTTPFetcher downloads http(s) references and reads everything else from
// the local filesystem.
type HTTPFetcher struct {
	client  *http.Client
	limiter *rate.Limiter
}

// NewHTTPFetcher limits requests to perSecond (unlimited when <= 0) and
// bounds each request by timeout.
func NewHTTPFetcher(timeout time.Duration, perSecond float64) *HTTPFetcher {
	limit := rate.Inf
	burst := 1
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
		burst = int(perSecond)
		if burst < 1 {
			burst = 1
		}
	}
	return &HTTPFetcher{
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, burst),
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return nil, retry.Stop(fmt.Errorf("parse image ref: %w", err))
	}
	switch u.Scheme {
	case "http", "https":
		return f.get(ctx, u.String())
	case "file":
		return readLocal(u.Path)
	case "":
		return readLocal(ref)
	default:
		return nil, retry.Stop(fmt.Errorf("unsupported image scheme %q", u.Scheme))
	}
}

func (f *HTTPFetcher) get(ctx context.Context, target string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, retry.Stop(err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		err := fmt.Errorf("get image: unexpected status %d", resp.StatusCode)
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return nil, err
		}
		return nil, retry.Stop(err)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image body: %w", err)
	}
	if len(body) > maxImageBytes {
		return nil, retry.Stop(fmt.Errorf("image larger than %d bytes", maxImageBytes))
	}
	return body, nil
}

func readLocal(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return nil, retry.Stop(err)
	}
	return b, err
}

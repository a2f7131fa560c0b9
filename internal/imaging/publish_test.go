package imaging

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"wholesale-catalog/internal/retry"
)

func TestS3Publisher_SignsAndUploads(t *testing.T) {
	var gotPath, gotAuth, gotSHA string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotSHA = r.Header.Get("X-Amz-Content-Sha256")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	pub, err := NewS3Publisher(S3Config{Bucket: "media", Region: "us-east-1", Endpoint: srv.URL, AccessKeyID: "AKID", SecretAccessKey: "secret"})
	if err != nil {
		t.Fatalf("NewS3Publisher: %v", err)
	}
	pub.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	data := []byte("jpeg-bytes")
	hash := Hash(data)
	u, err := pub.Publish(context.Background(), hash, "/cache/x-1.jpg", data)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	wantPath := "/media/images/" + hash[:2] + "/" + hash + ".jpg"
	if gotPath != wantPath || u != srv.URL+wantPath {
		t.Fatalf("path %q url %q, want %q", gotPath, u, wantPath)
	}
	if !strings.HasPrefix(gotAuth, "AWS4-HMAC-SHA256 Credential=AKID/20240102/us-east-1/s3/aws4_request") {
		t.Fatalf("unexpected authorization %q", gotAuth)
	}
	if gotSHA != hash || string(gotBody) != "jpeg-bytes" {
		t.Fatalf("payload hash %q body %q", gotSHA, gotBody)
	}
}

func TestS3Publisher_RequiresCredentials(t *testing.T) {
	if _, err := NewS3Publisher(S3Config{Bucket: "b", Region: "r"}); err == nil {
		t.Fatalf("expected error without credentials")
	}
}

func TestBaseURLPublisher(t *testing.T) {
	u, _ := NewBaseURLPublisher("https://img.example/catalog/").Publish(context.Background(), "h", "/var/cache/foo-1.jpg", nil)
	if u != "https://img.example/catalog/foo-1.jpg" {
		t.Fatalf("url = %q", u)
	}
}

func TestHTTPFetcher_ClassifiesStatus(t *testing.T) {
	status := http.StatusNotFound
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status == http.StatusOK {
			_, _ = w.Write([]byte("img"))
			return
		}
		w.WriteHeader(status)
	}))
	defer srv.Close()
	f := NewHTTPFetcher(time.Second, 0)

	if _, err := f.Fetch(context.Background(), srv.URL+"/a.jpg"); !retry.IsPermanent(err) {
		t.Fatalf("404 should be permanent, got %v", err)
	}
	status = http.StatusServiceUnavailable
	if _, err := f.Fetch(context.Background(), srv.URL+"/a.jpg"); err == nil || retry.IsPermanent(err) {
		t.Fatalf("503 should be retryable, got %v", err)
	}
	status = http.StatusOK
	if b, err := f.Fetch(context.Background(), srv.URL+"/a.jpg"); err != nil || string(b) != "img" {
		t.Fatalf("fetch = %q, %v", b, err)
	}
	if _, err := f.Fetch(context.Background(), "/definitely/missing.jpg"); !retry.IsPermanent(err) {
		t.Fatalf("missing local file should be permanent, got %v", err)
	}
}

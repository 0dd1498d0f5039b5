package security

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// PhotoFetcherService downloads a profile photo from an admin-supplied URL.
// Unlike a best-effort asset fetch, failures surface as errors so the admin
// sees why the photo was rejected.
type PhotoFetcherService interface {
	// FetchPhoto downloads the image at photoURL and returns its bytes and
	// mime type. The URL is SSRF-validated, the response must be 2xx with
	// an image/* content type, and the body is capped at maxSize.
	FetchPhoto(ctx context.Context, photoURL string) (data []byte, mimeType string, err error)
}

// PhotoFetcher is the PhotoFetcherService implementation.
type PhotoFetcher struct {
	ssrfGuard SSRFGuardService
	timeout   time.Duration
	maxSize   int64
}

// NewPhotoFetcher builds a PhotoFetcher.
func NewPhotoFetcher(ssrfGuard SSRFGuardService, timeout time.Duration, maxSize int64) *PhotoFetcher {
	return &PhotoFetcher{
		ssrfGuard: ssrfGuard,
		timeout:   timeout,
		maxSize:   maxSize,
	}
}

// ErrPhotoBlocked marks a URL rejected by the SSRF policy, so callers can
// distinguish policy rejections from plain fetch failures.
var ErrPhotoBlocked = fmt.Errorf("photo URL blocked by security policy")

// FetchPhoto downloads the image at photoURL.
func (f *PhotoFetcher) FetchPhoto(ctx context.Context, photoURL string) ([]byte, string, error) {
	if err := f.ssrfGuard.ValidateURL(photoURL); err != nil {
		return nil, "", fmt.Errorf("%w: %s", ErrPhotoBlocked, err)
	}

	client := f.ssrfGuard.NewSafeClient(f.timeout)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, photoURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build photo request: %w", err)
	}
	req.Header.Set("User-Agent", "Titula/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch photo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("photo fetch returned status %d", resp.StatusCode)
	}

	mimeType := resp.Header.Get("Content-Type")
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, "", fmt.Errorf("unexpected content type: %s", mimeType)
	}

	// Read one byte past the cap to tell "exactly maxSize" from "too big".
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read photo body: %w", err)
	}
	if int64(len(data)) > f.maxSize {
		return nil, "", fmt.Errorf("photo exceeds the maximum size of %d bytes", f.maxSize)
	}

	return data, mimeType, nil
}

// compile-time interface check
var _ PhotoFetcherService = (*PhotoFetcher)(nil)

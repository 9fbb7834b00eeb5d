package composer

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"
)

// HTTPProber fetches an image URL and checks the answer looks like an image.
type HTTPProber struct {
	client *http.Client
}

// NewHTTPProber returns a prober using hc, or a client with a short timeout when hc is nil.
func NewHTTPProber(hc *http.Client) *HTTPProber {
	if hc == nil {
		hc = &http.Client{Timeout: 5 * time.Second}
	}
	return &HTTPProber{client: hc}
}

// Probe returns an error unless rawURL answers 2xx with an image/* content type.
func (p *HTTPProber) Probe(ctx context.Context, rawURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "image/*")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("image request returned status %d", resp.StatusCode)
	}
	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		return fmt.Errorf("image response has no usable content type: %w", err)
	}
	if !strings.HasPrefix(mediaType, "image/") {
		return fmt.Errorf("content type %q is not an image", mediaType)
	}
	return nil
}

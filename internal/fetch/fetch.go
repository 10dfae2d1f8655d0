// Package fetch retrieves HTML pages for the scraper.
package fetch

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"cardscrape/internal/metrics"
)

// FetchError reports a non-2xx HTTP response. It is fatal for the run; there
// is no retry.
type FetchError struct {
	URL        string
	StatusCode int
	Body       string // first bytes of the response body, for debugging
}

func (e *FetchError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("fetch %s: http status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: http status %d: %s", e.URL, e.StatusCode, e.Body)
}

const maxErrorBody = 4096

// Fetcher performs GET requests with a per-request timeout.
type Fetcher struct {
	client  *resty.Client
	timeout time.Duration
}

// New creates a Fetcher. If httpClient is nil, http.DefaultClient is used.
func New(httpClient *http.Client, timeout time.Duration) *Fetcher {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Fetcher{
		client:  resty.NewWithClient(httpClient),
		timeout: timeout,
	}
}

// Fetch GETs url with headers and returns the body decoded to UTF-8 using the
// charset of the Content-Type header.
//
// Non-2xx responses return *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, url string, headers map[string]string) (string, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := f.client.R().
		SetContext(ctx).
		SetHeaders(headers).
		Get(url)
	if err != nil {
		metrics.RecordHTTP(0, err, time.Since(start), -1)
		return "", fmt.Errorf("http get %s: %w", url, err)
	}

	body := resp.Body()
	metrics.RecordHTTP(resp.StatusCode(), nil, resp.Time(), int64(len(body)))

	if !resp.IsSuccess() {
		snippet := body
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return "", &FetchError{
			URL:        url,
			StatusCode: resp.StatusCode(),
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	text, err := decodeBody(body, resp.Header().Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	return text, nil
}

// decodeBody converts body to UTF-8. Missing, UTF-8 or unknown charsets pass
// the bytes through unchanged.
func decodeBody(body []byte, contentType string) (string, error) {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return string(body), nil
	}
	charset := strings.ToLower(strings.TrimSpace(params["charset"]))
	if charset == "" || charset == "utf-8" || charset == "utf8" {
		return string(body), nil
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		return string(body), nil
	}
	out, _, err := transform.Bytes(enc.NewDecoder(), body)
	if err != nil {
		return "", fmt.Errorf("decode %s body: %w", charset, err)
	}
	return string(out), nil
}

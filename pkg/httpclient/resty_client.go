package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultRetryCount = 2
	maxSnippetLen     = 512
	maxPageBytes      = 8 << 20
)

// RestyClient adapts resty.Client to the httpclient.Client interface.
type RestyClient struct {
	client *resty.Client
}

// NewRestyClient creates a new RestyClient with the specified timeout and user agent.
func NewRestyClient(timeout time.Duration, userAgent string) *RestyClient {
	c := resty.New()
	c.SetTimeout(timeout)
	c.SetRetryCount(defaultRetryCount)
	c.SetRetryWaitTime(500 * time.Millisecond)
	if ua := strings.TrimSpace(userAgent); ua != "" {
		c.SetHeader("User-Agent", ua)
	}
	return &RestyClient{client: c}
}

// Get performs an HTTP GET request with the specified context, URL, and headers.
func (r *RestyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	req := r.client.R().SetContext(ctx)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	resp, err := req.Get(url)
	if err != nil {
		return nil, err
	}
	return &restyResponseAdapter{resp: resp}, nil
}

// restyResponseAdapter adapts resty.Response to the httpclient.Response interface.
type restyResponseAdapter struct {
	resp *resty.Response
}

func (r *restyResponseAdapter) Body() []byte    { return r.resp.Body() }
func (r *restyResponseAdapter) StatusCode() int { return r.resp.StatusCode() }
func (r *restyResponseAdapter) Header(name string) string {
	return r.resp.Header().Get(name)
}

// FetchPage downloads an HTML page and rejects non-200 responses.
func FetchPage(ctx context.Context, client Client, url string) ([]byte, error) {
	if client == nil {
		return nil, fmt.Errorf("http client is nil")
	}
	resp, err := client.Get(ctx, url, map[string]string{"Accept": "text/html,application/xhtml+xml"})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}

	body := resp.Body()
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d body: %s", url, resp.StatusCode(), snippet(body))
	}
	if ct := strings.ToLower(resp.Header("Content-Type")); ct != "" && !strings.Contains(ct, "html") && !strings.Contains(ct, "xml") {
		return nil, fmt.Errorf("fetch %s: unexpected content type %q", url, ct)
	}
	if len(body) > maxPageBytes {
		body = body[:maxPageBytes]
	}
	return body, nil
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxSnippetLen {
		return s[:maxSnippetLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}

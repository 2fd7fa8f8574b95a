package httpclient

import "context"

// Response is the part of an HTTP response page fetching needs.
type Response interface {
	Body() []byte
	StatusCode() int
	Header(name string) string
}

// Client abstracts HTTP GETs so tests can inject canned pages.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
}

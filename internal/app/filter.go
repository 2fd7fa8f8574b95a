package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/samvad-hq/listing-filter/internal/blocklist"
	"github.com/samvad-hq/listing-filter/internal/logger"
	"github.com/samvad-hq/listing-filter/internal/page"
	"github.com/samvad-hq/listing-filter/internal/reconcile"
	"github.com/samvad-hq/listing-filter/pkg/httpclient"
)

// LoadPage parses a listing page from a file path, "-" for stdin, or an http(s) URL.
func LoadPage(ctx context.Context, src string, stdin io.Reader, client httpclient.Client, layout page.Layout) (*page.Page, error) {
	src = strings.TrimSpace(src)
	switch {
	case src == "" || src == "-":
		if stdin == nil {
			return nil, fmt.Errorf("no input: stdin is not available")
		}
		return page.Parse(stdin, layout)
	case strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://"):
		body, err := httpclient.FetchPage(ctx, client, src)
		if err != nil {
			return nil, err
		}
		return page.Parse(bytes.NewReader(body), layout)
	default:
		f, err := os.Open(src)
		if err != nil {
			return nil, fmt.Errorf("open page: %w", err)
		}
		defer f.Close()
		return page.Parse(f, layout)
	}
}

// FilterOptions tunes a one-shot filter run.
type FilterOptions struct {
	// Show reveals blocked rows instead of hiding them.
	Show bool
}

// FilterResult is the outcome of a filter run.
type FilterResult struct {
	HTML   string               `json:"-"`
	Status string               `json:"status"`
	Count  int                  `json:"count"`
	Hidden int                  `json:"hidden"`
	Pass   reconcile.PassResult `json:"pass"`
}

// Filter runs a single pass over p and renders the result.
func Filter(p *page.Page, store *blocklist.Store, opts FilterOptions, log logger.Logger) (FilterResult, error) {
	sess, err := NewSession(p, store, log)
	if err != nil {
		return FilterResult{}, err
	}
	res := sess.Refresh()
	if opts.Show {
		sess.Show(true)
	}
	return renderResult(sess, res)
}

func renderResult(sess *Session, res reconcile.PassResult) (FilterResult, error) {
	html, err := sess.HTML()
	if err != nil {
		return FilterResult{}, err
	}
	return FilterResult{
		HTML:   html,
		Status: sess.Status(),
		Count:  sess.Count(),
		Hidden: sess.Hidden(),
		Pass:   res,
	}, nil
}

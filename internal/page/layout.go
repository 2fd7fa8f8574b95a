package page

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Layout holds the selectors used to find rows and their seller on a listing page.
type Layout struct {
	RowSelector        string `json:"row_selector" yaml:"row_selector"`
	SellerLinkSelector string `json:"seller_link_selector" yaml:"seller_link_selector"`
	ShippingSelector   string `json:"shipping_selector" yaml:"shipping_selector"`
	ShippingAttr       string `json:"shipping_attr" yaml:"shipping_attr"`
	UsernameAttr       string `json:"username_attr" yaml:"username_attr"`
	SellerPathMarker   string `json:"seller_path_marker" yaml:"seller_path_marker"`
	RowIDAttr          string `json:"row_id_attr" yaml:"row_id_attr"`
	StatusID           string `json:"status_id" yaml:"status_id"`
}

// DefaultLayout matches the marketplace's article table.
func DefaultLayout() Layout {
	return Layout{
		RowSelector:        ".article-row",
		SellerLinkSelector: ".seller-name a",
		ShippingSelector:   "[data-bs-toggle=\"shipping\"]",
		ShippingAttr:       "data-username",
		UsernameAttr:       "data-username",
		SellerPathMarker:   "/Users/",
		RowIDAttr:          "id",
		StatusID:           "listing-filter-status",
	}
}

// LoadLayout reads a YAML or JSON layout file and overlays it on DefaultLayout.
// An empty path returns the default layout.
func LoadLayout(path string) (Layout, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultLayout(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read layout file: %w", err)
	}

	override, err := parseLayout(raw, filepath.Ext(path))
	if err != nil {
		return Layout{}, err
	}

	layout := merge(DefaultLayout(), sanitize(override))
	if err := layout.Validate(); err != nil {
		return Layout{}, err
	}
	return layout, nil
}

type unmarshalFn func([]byte, any) error

func parseLayout(data []byte, ext string) (Layout, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	var errs []error
	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var l Layout
		if err := d.fn(data, &l); err != nil {
			errs = append(errs, fmt.Errorf("decode %s layout: %w", d.name, err))
			continue
		}
		return l, nil
	}
	if len(errs) > 0 {
		return Layout{}, errors.Join(errs...)
	}
	return Layout{}, errors.New("layout file format not recognized (expected YAML or JSON)")
}

func sanitize(l Layout) Layout {
	l.RowSelector = strings.TrimSpace(l.RowSelector)
	l.SellerLinkSelector = strings.TrimSpace(l.SellerLinkSelector)
	l.ShippingSelector = strings.TrimSpace(l.ShippingSelector)
	l.ShippingAttr = strings.TrimSpace(l.ShippingAttr)
	l.UsernameAttr = strings.TrimSpace(l.UsernameAttr)
	l.SellerPathMarker = strings.TrimSpace(l.SellerPathMarker)
	l.RowIDAttr = strings.TrimSpace(l.RowIDAttr)
	l.StatusID = strings.TrimSpace(l.StatusID)
	return l
}

func merge(base, over Layout) Layout {
	pick := func(b, o string) string {
		if o != "" {
			return o
		}
		return b
	}
	return Layout{
		RowSelector:        pick(base.RowSelector, over.RowSelector),
		SellerLinkSelector: pick(base.SellerLinkSelector, over.SellerLinkSelector),
		ShippingSelector:   pick(base.ShippingSelector, over.ShippingSelector),
		ShippingAttr:       pick(base.ShippingAttr, over.ShippingAttr),
		UsernameAttr:       pick(base.UsernameAttr, over.UsernameAttr),
		SellerPathMarker:   pick(base.SellerPathMarker, over.SellerPathMarker),
		RowIDAttr:          pick(base.RowIDAttr, over.RowIDAttr),
		StatusID:           pick(base.StatusID, over.StatusID),
	}
}

// Validate checks the fields every page scan depends on.
func (l Layout) Validate() error {
	if l.RowSelector == "" {
		return errors.New("layout row_selector is required")
	}
	if l.SellerPathMarker == "" {
		return errors.New("layout seller_path_marker is required")
	}
	if !strings.HasPrefix(l.SellerPathMarker, "/") {
		return fmt.Errorf("layout seller_path_marker %q must start with /", l.SellerPathMarker)
	}
	return nil
}

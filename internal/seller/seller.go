package seller

import (
	"net/url"
	"strings"
)

// Canonicalize reduces a raw seller identifier to its comparison key:
// lowercase ASCII letters and digits only. Empty input yields "".
func Canonicalize(raw string) string {
	if raw == "" {
		return ""
	}
	lower := strings.ToLower(raw)
	var b strings.Builder
	b.Grow(len(lower))
	for i := 0; i < len(lower); i++ {
		c := lower[i]
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Same reports whether two raw identifiers name the same seller.
func Same(a, b string) bool {
	ka := Canonicalize(a)
	return ka != "" && ka == Canonicalize(b)
}

// Source is what a listing row exposes to the extraction strategies.
type Source interface {
	// SellerLink returns the display text and href of the row's seller link.
	SellerLink() (text, href string, ok bool)
	// ShippingUsername returns the username attribute of a shipping control.
	ShippingUsername() (string, bool)
	// Username returns a generic username-bearing attribute.
	Username() (string, bool)
	// Links returns every href in the row, in document order.
	Links() []string
}

// Strategy extracts a raw seller identifier from a row.
type Strategy struct {
	Name    string
	Extract func(Source) (string, bool)
}

// Chain runs strategies in order; the first non-blank result wins.
type Chain []Strategy

// Extract returns the seller identifier and the name of the strategy that produced it.
func (c Chain) Extract(src Source) (sellerID, strategy string, ok bool) {
	if src == nil {
		return "", "", false
	}
	for _, s := range c {
		if s.Extract == nil {
			continue
		}
		if v, found := s.Extract(src); found {
			if v = strings.TrimSpace(v); v != "" {
				return v, s.Name, true
			}
		}
	}
	return "", "", false
}

// DefaultMarker is the path segment that precedes a username in seller profile URLs.
const DefaultMarker = "/Users/"

// DefaultChain builds the standard fallback order for the given URL marker.
func DefaultChain(marker string) Chain {
	if strings.TrimSpace(marker) == "" {
		marker = DefaultMarker
	}
	return Chain{
		{Name: "link_text", Extract: linkText},
		{Name: "link_path", Extract: func(src Source) (string, bool) {
			_, href, ok := src.SellerLink()
			if !ok {
				return "", false
			}
			return SegmentAfter(href, marker)
		}},
		{Name: "shipping_attr", Extract: func(src Source) (string, bool) { return src.ShippingUsername() }},
		{Name: "username_attr", Extract: func(src Source) (string, bool) { return src.Username() }},
		{Name: "any_link", Extract: func(src Source) (string, bool) {
			for _, href := range src.Links() {
				if v, ok := SegmentAfter(href, marker); ok {
					return v, true
				}
			}
			return "", false
		}},
	}
}

func linkText(src Source) (string, bool) {
	text, _, ok := src.SellerLink()
	if !ok {
		return "", false
	}
	text = strings.Join(strings.Fields(text), " ")
	return text, text != ""
}

// SegmentAfter returns the path segment that follows marker in href,
// e.g. "/en/Magic/Users/Foo/Offers" with marker "/Users/" yields "Foo".
func SegmentAfter(href, marker string) (string, bool) {
	if href == "" || marker == "" {
		return "", false
	}
	path := href
	if u, err := url.Parse(href); err == nil && u.Path != "" {
		path = u.Path
	}
	idx := strings.Index(path, marker)
	if idx < 0 {
		return "", false
	}
	rest := path[idx+len(marker):]
	if end := strings.IndexAny(rest, "/?#"); end >= 0 {
		rest = rest[:end]
	}
	if unescaped, err := url.PathUnescape(rest); err == nil {
		rest = unescaped
	}
	rest = strings.TrimSpace(rest)
	return rest, rest != ""
}

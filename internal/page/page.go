package page

import (
	"crypto/sha1" //nolint:gosec // non-cryptographic id generation
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/samvad-hq/listing-filter/internal/reconcile"
)

const (
	attrBlocked      = "data-lf-blocked"
	attrHidden       = "data-lf-hidden"
	attrNativeHidden = "data-lf-native-hidden"
)

// Page is a parsed listing page.
type Page struct {
	doc    *goquery.Document
	layout Layout
}

// Parse reads HTML from r.
func Parse(r io.Reader, layout Layout) (*Page, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &Page{doc: doc, layout: layout}, nil
}

// Layout returns the layout the page was parsed with.
func (p *Page) Layout() Layout { return p.layout }

// Rows returns the listing rows in document order.
func (p *Page) Rows() []reconcile.Row {
	var out []reconcile.Row
	p.eachRow(func(r *row) { out = append(out, r) })
	return out
}

// eachRow walks rows with stable ids: the id attribute when present and
// unique, otherwise a digest of the row's content. Rows with identical
// content are told apart by an ordinal suffix in document order.
func (p *Page) eachRow(fn func(*row)) {
	seen := make(map[string]struct{})
	p.doc.Find(p.layout.RowSelector).Each(func(_ int, sel *goquery.Selection) {
		r := &row{sel: sel, layout: p.layout}
		id := ""
		if p.layout.RowIDAttr != "" {
			id = strings.TrimSpace(sel.AttrOr(p.layout.RowIDAttr, ""))
		}
		if _, dup := seen[id]; id == "" || dup {
			base := "row-" + r.fingerprint()
			id = base
			for n := 1; ; n++ {
				if _, taken := seen[id]; !taken {
					break
				}
				id = base + "-" + strconv.Itoa(n)
			}
		}
		seen[id] = struct{}{}
		r.id = id
		fn(r)
	})
}

// Apply writes row states onto the DOM and returns the number of hidden rows.
// Only hidden attributes this package added are ever removed.
func (p *Page) Apply(states map[string]reconcile.State) int {
	hidden := 0
	p.eachRow(func(r *row) {
		st := states[r.id]

		if st.Blocked {
			r.sel.SetAttr(attrBlocked, "true")
		} else {
			r.sel.RemoveAttr(attrBlocked)
		}

		_, ours := r.sel.Attr(attrHidden)
		switch {
		case st.Hidden:
			if _, native := r.sel.Attr("hidden"); native && !ours {
				r.sel.SetAttr(attrNativeHidden, "true")
			}
			r.sel.SetAttr(attrHidden, "true")
			r.sel.SetAttr("hidden", "")
			hidden++
		case ours:
			r.sel.RemoveAttr(attrHidden)
			if _, native := r.sel.Attr(attrNativeHidden); native {
				r.sel.RemoveAttr(attrNativeHidden)
			} else {
				r.sel.RemoveAttr("hidden")
			}
		}
	})
	return hidden
}

// SetStatus writes the status readout at the top of the body. count drives
// whether the toggle hint is shown.
func (p *Page) SetStatus(text string, count int, showing bool) {
	if p.layout.StatusID == "" {
		return
	}
	status := p.doc.Find("#" + p.layout.StatusID)
	if status.Length() == 0 {
		body := p.doc.Find("body").First()
		if body.Length() == 0 {
			return
		}
		body.PrependHtml(`<div id="` + p.layout.StatusID + `"></div>`)
		status = p.doc.Find("#" + p.layout.StatusID)
	}
	status.SetAttr("data-count", strconv.Itoa(count))
	status.SetAttr("data-showing", strconv.FormatBool(showing))
	if count == 0 {
		status.SetAttr("data-toggle", "hidden")
	} else {
		status.RemoveAttr("data-toggle")
	}
	status.SetText(text)
}

// HTML renders the document.
func (p *Page) HTML() (string, error) {
	html, err := goquery.OuterHtml(p.doc.Selection)
	if err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return html, nil
}

// row adapts a goquery selection to reconcile.Row.
type row struct {
	id     string
	sel    *goquery.Selection
	layout Layout
}

func (r *row) ID() string { return r.id }

func (r *row) SellerLink() (string, string, bool) {
	if r.layout.SellerLinkSelector == "" {
		return "", "", false
	}
	link := r.sel.Find(r.layout.SellerLinkSelector).First()
	if link.Length() == 0 {
		return "", "", false
	}
	return strings.TrimSpace(link.Text()), strings.TrimSpace(link.AttrOr("href", "")), true
}

func (r *row) ShippingUsername() (string, bool) {
	if r.layout.ShippingSelector == "" || r.layout.ShippingAttr == "" {
		return "", false
	}
	return firstAttr(r.sel.Find(r.layout.ShippingSelector), r.layout.ShippingAttr)
}

func (r *row) Username() (string, bool) {
	attr := r.layout.UsernameAttr
	if attr == "" {
		return "", false
	}
	if v, ok := firstAttr(r.sel, attr); ok {
		return v, true
	}
	return firstAttr(r.sel.Find("["+attr+"]"), attr)
}

func (r *row) Links() []string {
	var out []string
	r.sel.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		if href := strings.TrimSpace(a.AttrOr("href", "")); href != "" {
			out = append(out, href)
		}
	})
	return out
}

// fingerprint digests what the filter reads from a row. Attributes written
// by Apply are not part of it, so ids survive re-rendering.
func (r *row) fingerprint() string {
	var b strings.Builder
	b.WriteString(strings.Join(strings.Fields(r.sel.Text()), " "))
	for _, href := range r.Links() {
		b.WriteString("\x00")
		b.WriteString(href)
	}
	if v, ok := r.ShippingUsername(); ok {
		b.WriteString("\x00s=" + v)
	}
	if v, ok := r.Username(); ok {
		b.WriteString("\x00u=" + v)
	}
	sum := sha1.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:6])
}

func firstAttr(sel *goquery.Selection, attr string) (string, bool) {
	var (
		value string
		found bool
	)
	sel.EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v := strings.TrimSpace(s.AttrOr(attr, "")); v != "" {
			value, found = v, true
			return false
		}
		return true
	})
	return value, found
}

package page

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/samvad-hq/listing-filter/internal/blocklist"
	"github.com/samvad-hq/listing-filter/internal/reconcile"
	"github.com/samvad-hq/listing-filter/internal/seller"
)

const sampleListing = `
<html>
  <body>
    <div class="table-body">
      <div id="articleRow1" class="article-row">
        <span class="seller-name"><a href="/en/Magic/Users/Justicker">Justicker</a></span>
        <span class="price">1,00 €</span>
      </div>
      <div id="articleRow2" class="article-row">
        <span class="seller-name"><a href="/en/Magic/Users/KUPIKU-EU"></a></span>
      </div>
      <div id="articleRow3" class="article-row">
        <span data-bs-toggle="shipping" data-username="ship-only"></span>
      </div>
      <div class="article-row" data-username="attr.seller"></div>
      <div class="article-row">
        <a href="/en/Magic/Products/Singles/Foo">Foo</a>
        <a href="https://www.example.com/en/Magic/Users/LinkOnly/Offers">offers</a>
      </div>
      <div class="article-row"><span class="price">nobody</span></div>
      <div class="article-row" hidden><a href="/en/Magic/Users/Fine">Fine</a></div>
    </div>
  </body>
</html>`

func parseSample(t *testing.T) *Page {
	t.Helper()
	p, err := Parse(strings.NewReader(sampleListing), DefaultLayout())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return p
}

func TestRowsExtractSellersThroughFallbacks(t *testing.T) {
	p := parseSample(t)
	chain := seller.DefaultChain(p.Layout().SellerPathMarker)

	want := []struct {
		id, seller string
		ok         bool
	}{
		{"articleRow1", "Justicker", true},
		{"articleRow2", "KUPIKU-EU", true},
		{"articleRow3", "ship-only", true},
		{"", "attr.seller", true},
		{"", "LinkOnly", true},
		{"", "", false},
		{"", "Fine", true},
	}

	rows := p.Rows()
	if len(rows) != len(want) {
		t.Fatalf("expected %d rows, got %d", len(want), len(rows))
	}
	seen := make(map[string]bool)
	for i, w := range want {
		id := rows[i].ID()
		switch {
		case w.id != "" && id != w.id:
			t.Fatalf("row %d id = %q, want %q", i, id, w.id)
		case w.id == "" && !strings.HasPrefix(id, "row-"):
			t.Fatalf("row %d id = %q, want a content-derived id", i, id)
		case seen[id]:
			t.Fatalf("row %d id %q is not unique", i, id)
		}
		seen[id] = true
		got, _, ok := chain.Extract(rows[i])
		if ok != w.ok || got != w.seller {
			t.Fatalf("row %s seller = %q (%v), want %q", id, got, ok, w.seller)
		}
	}
}

func rowIDs(t *testing.T, html string) []string {
	t.Helper()
	p, err := Parse(strings.NewReader(html), DefaultLayout())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	var ids []string
	for _, r := range p.Rows() {
		ids = append(ids, r.ID())
	}
	return ids
}

func TestRowIDsSurviveInsertionAbove(t *testing.T) {
	const (
		other  = `<div class="article-row"><span class="seller-name"><a href="/en/Magic/Users/Other">Other</a></span></div>`
		inject = `<div class="article-row"><span class="seller-name"><a href="/en/Magic/Users/Justicker">Justicker</a></span></div>`
	)
	before := rowIDs(t, `<html><body>`+other+`</body></html>`)
	after := rowIDs(t, `<html><body>`+inject+other+`</body></html>`)

	if len(before) != 1 || len(after) != 2 {
		t.Fatalf("unexpected rows before=%v after=%v", before, after)
	}
	if after[1] != before[0] {
		t.Fatalf("existing row changed id on insertion: %q -> %q", before[0], after[1])
	}
	if after[0] == before[0] {
		t.Fatalf("inserted row reused an existing id %q", after[0])
	}
}

func TestRowIDsDisambiguateIdenticalRows(t *testing.T) {
	const dup = `<div class="article-row" id="x"><a href="/en/Magic/Users/Same">Same</a></div>`
	ids := rowIDs(t, `<html><body>`+dup+dup+dup+`</body></html>`)

	if ids[0] != "x" {
		t.Fatalf("first row should keep its id attribute, got %q", ids[0])
	}
	if ids[1] == ids[2] || !strings.HasPrefix(ids[1], "row-") || ids[2] != ids[1]+"-1" {
		t.Fatalf("duplicates should get ordinal ids, got %v", ids)
	}
}

func TestRowIDsStableAcrossApply(t *testing.T) {
	p := parseSample(t)
	before := p.Rows()

	r := reconcile.New(seller.DefaultChain(""), nil)
	r.Pass(before, blocklist.NewSet([]string{"attr.seller", "linkonly"}))
	p.Apply(r.Snapshot())

	after := p.Rows()
	for i := range before {
		if before[i].ID() != after[i].ID() {
			t.Fatalf("row %d id changed after Apply: %q -> %q", i, before[i].ID(), after[i].ID())
		}
	}
}

func TestApplyKeepsNativelyHiddenRowsHidden(t *testing.T) {
	p := parseSample(t)
	r := reconcile.New(seller.DefaultChain(""), nil)
	r.Pass(p.Rows(), blocklist.NewSet([]string{"fine"}))

	p.Apply(r.Snapshot())
	html, _ := p.HTML()
	if !strings.Contains(html, attrNativeHidden+`="true"`) {
		t.Fatalf("natively hidden row should be recorded:\n%s", html)
	}

	r.Reset()
	p.Apply(r.Snapshot())
	html, _ = p.HTML()
	if strings.Contains(html, attrNativeHidden) || strings.Contains(html, attrHidden) {
		t.Fatalf("markers should be cleared after unblocking:\n%s", html)
	}
	if !strings.Contains(html, `<div class="article-row" hidden=""><a href="/en/Magic/Users/Fine">`) {
		t.Fatalf("row hidden by the page must stay hidden:\n%s", html)
	}
}

func TestApplyMarksAndRestoresRows(t *testing.T) {
	p := parseSample(t)
	r := reconcile.New(seller.DefaultChain(""), nil)
	r.Pass(p.Rows(), blocklist.NewSet([]string{"justicker", "kupiku.eu"}))

	if hidden := p.Apply(r.Snapshot()); hidden != 2 {
		t.Fatalf("expected 2 hidden rows, got %d", hidden)
	}
	html, err := p.HTML()
	if err != nil {
		t.Fatalf("HTML: %v", err)
	}
	if !strings.Contains(html, `id="articleRow1" class="article-row" data-lf-blocked="true" data-lf-hidden="true" hidden=""`) {
		t.Fatalf("blocked row not marked:\n%s", html)
	}

	r.SetHiddenForBlocked(true)
	if hidden := p.Apply(r.Snapshot()); hidden != 0 {
		t.Fatalf("expected no hidden rows after show, got %d", hidden)
	}
	html, _ = p.HTML()
	if strings.Contains(html, attrHidden) {
		t.Fatalf("hidden marker should be removed:\n%s", html)
	}
	if strings.Count(html, attrBlocked) != 2 {
		t.Fatalf("blocked markers should survive a show toggle:\n%s", html)
	}
	if !strings.Contains(html, `<div class="article-row" hidden=""><a href="/en/Magic/Users/Fine">`) {
		t.Fatalf("pre-existing hidden attribute must be preserved:\n%s", html)
	}

	r.Reset()
	p.Apply(r.Snapshot())
	html, _ = p.HTML()
	if strings.Contains(html, attrBlocked) {
		t.Fatalf("reset should clear blocked markers:\n%s", html)
	}
}

func TestSetStatusInsertsAndUpdates(t *testing.T) {
	p := parseSample(t)

	p.SetStatus("2 hidden", 2, false)
	p.SetStatus("0 hidden", 0, true)

	html, _ := p.HTML()
	if strings.Count(html, `id="listing-filter-status"`) != 1 {
		t.Fatalf("status should be inserted once:\n%s", html)
	}
	if !strings.Contains(html, `data-count="0"`) || !strings.Contains(html, `data-toggle="hidden"`) || !strings.Contains(html, ">0 hidden<") {
		t.Fatalf("status not updated:\n%s", html)
	}
}

func TestParseRejectsInvalidLayout(t *testing.T) {
	if _, err := Parse(strings.NewReader("<html></html>"), Layout{}); err == nil {
		t.Fatalf("expected layout validation error")
	}
}

func TestLoadLayoutOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "layout.yaml")
	content := `
row_selector: " tr.offer "
seller_path_marker: /seller/
`
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("write layout file: %v", err)
	}

	l, err := LoadLayout(file)
	if err != nil {
		t.Fatalf("LoadLayout: %v", err)
	}
	if l.RowSelector != "tr.offer" || l.SellerPathMarker != "/seller/" {
		t.Fatalf("overrides not applied: %+v", l)
	}
	if l.SellerLinkSelector != DefaultLayout().SellerLinkSelector {
		t.Fatalf("defaults not kept: %+v", l)
	}
}

func TestLoadLayoutJSONAndErrors(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "layout.json")
	if err := os.WriteFile(good, []byte(`{"username_attr": "data-seller"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	l, err := LoadLayout(good)
	if err != nil || l.UsernameAttr != "data-seller" {
		t.Fatalf("LoadLayout json: %+v %v", l, err)
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"seller_path_marker": "Users"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadLayout(bad); err == nil {
		t.Fatalf("expected marker validation error")
	}

	if _, err := LoadLayout(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected missing file error")
	}

	if l, err := LoadLayout(""); err != nil || l != DefaultLayout() {
		t.Fatalf("empty path should return defaults")
	}
}

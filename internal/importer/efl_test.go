package importer

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/wattfinder/wattfinder/pkg/sources"
)

func TestParseEFLText(t *testing.T) {
	sample := `
Electricity Facts Label
Acme Energy - Saver 12
Average Monthly Use: 500 kWh 1,000 kWh 2,000 kWh
Average price per kWh: 15.2¢ 12.1¢ 11.2¢
Contract Term: 12 months
`
	res, err := ParseEFLText(sample)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Rate500 != 15.2 {
		t.Errorf("unexpected 500 kWh price: %v", res.Rate500)
	}
	if res.Rate1000 != 12.1 {
		t.Errorf("unexpected 1000 kWh price: %v", res.Rate1000)
	}
	if res.Rate2000 != 11.2 {
		t.Errorf("unexpected 2000 kWh price: %v", res.Rate2000)
	}
	if res.TermMonths != 12 {
		t.Errorf("unexpected term: %v", res.TermMonths)
	}
}

func TestParseEFLTextNoPriceTable(t *testing.T) {
	_, err := ParseEFLText("this is not a facts label")
	if !errors.Is(err, sources.ErrParseFailed) {
		t.Fatalf("expected ErrParseFailed, got %v", err)
	}
}

func TestDiscoverEFLURLFromHTML(t *testing.T) {
	html := `
<html><body>
<a href="/docs/terms.pdf">Terms of Service</a>
<a href="/docs/efl-residential.pdf">Electricity Facts Label</a>
<a href="/docs/brochure.pdf">Brochure</a>
</body></html>
`
	got, err := discoverEFLURLFromHTML("https://example.com/plans", html)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "https://example.com/docs/efl-residential.pdf" {
		t.Fatalf("unexpected best candidate: %s", got)
	}
}

func TestDiscoverEFLURLFromHTMLNoLinks(t *testing.T) {
	if _, err := discoverEFLURLFromHTML("https://example.com", "<html></html>"); err == nil {
		t.Fatal("expected error when no PDF links present")
	}
}

func TestApplyEFLRatesFillsOnlyMissing(t *testing.T) {
	l := sources.PlanListing{ID: "x", Rate1000: 12.5}
	applyEFLRates(&l, &EFLRates{Rate500: 15, Rate1000: 99, Rate2000: 11, TermMonths: 24})

	if l.Rate500 != 15 || l.Rate2000 != 11 {
		t.Fatalf("missing rates not filled: %+v", l)
	}
	if l.Rate1000 != 12.5 {
		t.Fatalf("published rate overwritten: %v", l.Rate1000)
	}
	if l.TermMonths != 24 {
		t.Fatalf("term not filled: %d", l.TermMonths)
	}
}

func TestNeedsEFLRates(t *testing.T) {
	full := sources.PlanListing{Rate500: 15, Rate1000: 12, Rate2000: 11}
	if needsEFLRates(full) {
		t.Fatal("complete listing should not need EFL rates")
	}
	if !needsEFLRates(sources.PlanListing{Rate500: 15, Rate1000: 12}) {
		t.Fatal("listing missing a tier should need EFL rates")
	}
}

func TestDownloadEFL(t *testing.T) {
	body := []byte("%PDF-1.4 fake label body")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "cache", "plan.pdf")
	if err := DownloadEFL(srv.URL+"/efl.pdf", path); err != nil {
		t.Fatalf("DownloadEFL: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if string(got) != string(body) {
		t.Fatalf("downloaded content mismatch: %q", got)
	}
}

func TestDownloadEFLBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	if err := DownloadEFL(srv.URL+"/missing.pdf", filepath.Join(t.TempDir(), "x.pdf")); err == nil {
		t.Fatal("expected error on 404")
	}
}

package importer

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	pdf "github.com/ledongthuc/pdf"

	"github.com/wattfinder/wattfinder/pkg/sources"
	"github.com/wattfinder/wattfinder/pkg/sources/shared"
)

// EFLRates holds the average prices disclosed by an Electricity Facts Label.
type EFLRates struct {
	// Cents per kWh at the three disclosure tiers.
	Rate500  float64
	Rate1000 float64
	Rate2000 float64

	TermMonths int
}

// ParseEFLPDF opens an Electricity Facts Label PDF at the given path,
// extracts text, and delegates to ParseEFLText.
func ParseEFLPDF(path string) (*EFLRates, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	rc, err := r.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("extract pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, rc); err != nil {
		return nil, fmt.Errorf("read pdf text: %w", err)
	}

	return ParseEFLText(buf.String())
}

var (
	// The disclosure table lists three average prices in tier order,
	// following the "Average Monthly Use" header row.
	eflPriceRe = regexp.MustCompile(`(?is)Average\s+price\s+per\s+kWh[^0-9]*([0-9]+(?:\.[0-9]+)?)\s*¢?[^0-9]*([0-9]+(?:\.[0-9]+)?)\s*¢?[^0-9]*([0-9]+(?:\.[0-9]+)?)\s*¢?`)
	eflTermRe  = regexp.MustCompile(`(?i)Contract\s+Term[:\s]*([0-9]+)\s*month`)
)

// ParseEFLText parses a plain-text representation of an Electricity Facts
// Label and extracts the 500/1000/2000 kWh average prices.
func ParseEFLText(text string) (*EFLRates, error) {
	m := eflPriceRe.FindStringSubmatch(text)
	if len(m) < 4 {
		return nil, fmt.Errorf("%w: no average price table found", sources.ErrParseFailed)
	}

	var rates [3]float64
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseFloat(m[i+1], 64)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("%w: bad average price %q", sources.ErrParseFailed, m[i+1])
		}
		rates[i] = v
	}

	term := int(shared.ParseFirstFloat(eflTermRe, text))

	return &EFLRates{
		Rate500:    rates[0],
		Rate1000:   rates[1],
		Rate2000:   rates[2],
		TermMonths: term,
	}, nil
}

// needsEFLRates reports whether a listing is missing any disclosure rate.
func needsEFLRates(l sources.PlanListing) bool {
	return l.Rate500 <= 0 || l.Rate1000 <= 0 || l.Rate2000 <= 0
}

// applyEFLRates fills a listing's missing rates and term from a parsed label,
// leaving values the source already published untouched.
func applyEFLRates(l *sources.PlanListing, r *EFLRates) {
	if l.Rate500 <= 0 {
		l.Rate500 = r.Rate500
	}
	if l.Rate1000 <= 0 {
		l.Rate1000 = r.Rate1000
	}
	if l.Rate2000 <= 0 {
		l.Rate2000 = r.Rate2000
	}
	if l.TermMonths == 0 && r.TermMonths > 0 {
		l.TermMonths = r.TermMonths
	}
}

func eflCacheDir() string {
	if dir := os.Getenv("WATTFINDER_EFL_CACHE_DIR"); dir != "" {
		return dir
	}
	return filepath.Join(os.TempDir(), "wattfinder-efl")
}

// enrichFromEFL downloads and parses a listing's Electricity Facts Label to
// fill in rates the source did not publish. Listings without an EFL link fall
// back to discovering one on the source's landing page.
func enrichFromEFL(l *sources.PlanListing, landingURL string) error {
	eflURL := l.EFLURL
	if eflURL == "" {
		u, err := DiscoverEFLURL(landingURL)
		if err != nil {
			return err
		}
		eflURL = u
		l.EFLURL = u
	}

	path := filepath.Join(eflCacheDir(), l.ID+".pdf")
	if err := DownloadEFL(eflURL, path); err != nil {
		return err
	}

	rates, err := ParseEFLPDF(path)
	if err != nil {
		return err
	}
	applyEFLRates(l, rates)
	return nil
}

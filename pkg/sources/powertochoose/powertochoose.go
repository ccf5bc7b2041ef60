package powertochoose

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/wattfinder/wattfinder/pkg/sources"
)

const (
	sourceKey  = "powertochoose"
	exportURL  = "https://www.powertochoose.org/en-us/Plan/ExportToCsv"
	landingURL = "https://www.powertochoose.org/"
)

// PathEnv points Fetch at a local CSV export instead of downloading one.
const PathEnv = "WATTFINDER_POWER_TO_CHOOSE_PATH"

// FetchTimeout controls how long we wait for the CSV export.
var FetchTimeout = 60 * time.Second

func init() {
	sources.Register(&PowerToChoose{})
}

// PowerToChoose imports retail plans from the PUCT's Power to Choose CSV
// export.
type PowerToChoose struct{}

func (p *PowerToChoose) Key() string        { return sourceKey }
func (p *PowerToChoose) Name() string       { return "Power to Choose" }
func (p *PowerToChoose) LandingURL() string { return landingURL }

func (p *PowerToChoose) Fetch(ctx context.Context) ([]sources.PlanListing, error) {
	if path := os.Getenv(PathEnv); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open csv at %s: %w", path, err)
		}
		defer f.Close()
		return ParseCSV(f)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", exportURL, nil)
	if err != nil {
		return nil, err
	}
	client := &http.Client{Timeout: FetchTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download csv export: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("csv export returned status %d", resp.StatusCode)
	}

	return ParseCSV(resp.Body)
}

// tduCoverage maps a TDU company name to the 3-digit ZIP prefixes of its
// service territory. Coverage rows store the prefixes directly.
var tduCoverage = map[string][]string{
	"CENTERPOINT ENERGY HOUSTON ELECTRIC LLC": {"770", "772", "773", "774", "775", "776", "777"},
	"ONCOR ELECTRIC DELIVERY COMPANY":         {"750", "751", "752", "753", "754", "760", "761", "762", "763", "764", "769"},
	"AEP TEXAS CENTRAL COMPANY":               {"780", "781", "782", "784"},
	"AEP TEXAS NORTH COMPANY":                 {"795", "796"},
	"TEXAS-NEW MEXICO POWER COMPANY":          {"775", "779", "790"},
}

// ParseCSV parses a Power to Choose CSV export into plan listings. Rows it
// cannot make sense of are skipped rather than failing the whole import; the
// export reliably contains a few malformed lines.
func ParseCSV(r io.Reader) ([]sources.PlanListing, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: read csv header: %v", sources.ErrParseFailed, err)
	}

	col := make(map[string]int, len(header))
	for i, h := range header {
		// Headers arrive as "[idKey]", "[kwh500]" etc.
		h = strings.ToLower(strings.Trim(strings.TrimSpace(h), "[]"))
		col[h] = i
	}
	for _, required := range []string{"repcompany", "product", "kwh500", "kwh1000", "kwh2000"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("%w: csv header missing column %q", sources.ErrParseFailed, required)
		}
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var out []sources.PlanListing
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		provider := field(row, "repcompany")
		name := field(row, "product")
		if provider == "" || name == "" {
			continue
		}

		rate500, ok1 := parseRate(field(row, "kwh500"))
		rate1000, ok2 := parseRate(field(row, "kwh1000"))
		rate2000, ok3 := parseRate(field(row, "kwh2000"))
		if !ok1 || !ok2 || !ok3 {
			continue
		}

		term, _ := strconv.Atoi(field(row, "termvalue"))

		id := field(row, "idkey")
		if id == "" {
			id = slugify(provider + "-" + name + "-" + strconv.Itoa(term))
		}

		out = append(out, sources.PlanListing{
			ID:         sourceKey + "-" + id,
			Provider:   provider,
			Name:       name,
			TermMonths: term,
			Rate500:    rate500,
			Rate1000:   rate1000,
			Rate2000:   rate2000,
			EFLURL:     field(row, "factsurl"),
			Zips:       tduCoverage[strings.ToUpper(field(row, "tducompanyname"))],
		})
	}

	if len(out) == 0 {
		return nil, sources.ErrNoListings
	}
	return out, nil
}

// parseRate converts an export rate cell to cents per kWh. The export lists
// dollars per kWh ("0.142"); anything >= 1 is assumed to already be cents.
func parseRate(s string) (float64, bool) {
	s = strings.TrimPrefix(s, "$")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	if v < 1 {
		v *= 100
	}
	return v, true
}

func slugify(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

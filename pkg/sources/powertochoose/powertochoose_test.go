package powertochoose

import (
	"errors"
	"strings"
	"testing"

	"github.com/wattfinder/wattfinder/pkg/sources"
)

const sampleCSV = `"[idKey]","[TduCompanyName]","[RepCompany]","[Product]","[kwh500]","[kwh1000]","[kwh2000]","[TermValue]","[FactsURL]"
"10001","CENTERPOINT ENERGY HOUSTON ELECTRIC LLC","Acme Energy","Saver 12","0.152","0.121","0.112","12","https://example.com/efl/10001.pdf"
"10002","ONCOR ELECTRIC DELIVERY COMPANY","Acme Energy","Steady 24","0.148","0.126","0.118","24","https://example.com/efl/10002.pdf"
"10003","CENTERPOINT ENERGY HOUSTON ELECTRIC LLC","","Nameless","0.1","0.1","0.1","12",""
"10004","CENTERPOINT ENERGY HOUSTON ELECTRIC LLC","Acme Energy","Broken Rates","n/a","0.1","0.1","12",""
`

func TestParseCSV(t *testing.T) {
	listings, err := ParseCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("ParseCSV: %v", err)
	}
	if len(listings) != 2 {
		t.Fatalf("expected 2 listings (malformed rows skipped), got %d", len(listings))
	}

	first := listings[0]
	if first.ID != "powertochoose-10001" {
		t.Fatalf("unexpected id %s", first.ID)
	}
	if first.Provider != "Acme Energy" || first.Name != "Saver 12" {
		t.Fatalf("unexpected provider/name: %s / %s", first.Provider, first.Name)
	}
	if first.TermMonths != 12 {
		t.Fatalf("expected term 12, got %d", first.TermMonths)
	}
	// Dollar rates convert to cents.
	if first.Rate1000 != 12.1 {
		t.Fatalf("expected rate_1000 of 12.1 cents, got %v", first.Rate1000)
	}
	if first.EFLURL != "https://example.com/efl/10001.pdf" {
		t.Fatalf("unexpected EFL URL %s", first.EFLURL)
	}

	// CenterPoint territory resolves to Houston-area prefixes.
	foundHouston := false
	for _, z := range first.Zips {
		if z == "770" {
			foundHouston = true
		}
	}
	if !foundHouston {
		t.Fatalf("expected 770 prefix in coverage, got %v", first.Zips)
	}
}

func TestParseCSVMissingColumns(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("\"[idKey]\",\"[Product]\"\n\"1\",\"x\"\n"))
	if !errors.Is(err, sources.ErrParseFailed) {
		t.Fatalf("expected ErrParseFailed, got %v", err)
	}
}

func TestParseCSVEmpty(t *testing.T) {
	head := "\"[idKey]\",\"[TduCompanyName]\",\"[RepCompany]\",\"[Product]\",\"[kwh500]\",\"[kwh1000]\",\"[kwh2000]\"\n"
	_, err := ParseCSV(strings.NewReader(head))
	if !errors.Is(err, sources.ErrNoListings) {
		t.Fatalf("expected ErrNoListings, got %v", err)
	}
}

func TestRegistered(t *testing.T) {
	s, ok := sources.Get("powertochoose")
	if !ok {
		t.Fatal("powertochoose source not registered")
	}
	if s.Name() != "Power to Choose" {
		t.Fatalf("unexpected name %s", s.Name())
	}
}

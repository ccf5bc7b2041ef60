package climate

import "testing"

func TestResolveZone_KnownPrefixes(t *testing.T) {
	cases := []struct {
		zip  string
		want ZoneID
	}{
		{"77001", ZoneHouston},
		{"77494", ZoneHouston},
		{"75201", ZoneDallas},
		{"76102", ZoneFortWorth},
		{"76903", ZoneFortWorth},
		{"78701", ZoneAustin},
		{"78205", ZoneSanAntonio},
	}
	for _, tc := range cases {
		got := ResolveZone(tc.zip)
		if got.ID != tc.want {
			t.Fatalf("ResolveZone(%q) = %s, want %s", tc.zip, got.ID, tc.want)
		}
	}
}

func TestResolveZone_FallbackToOther(t *testing.T) {
	for _, zip := range []string{"", "7", "77", "79901", "10001", "abcde", "xx"} {
		got := ResolveZone(zip)
		if got.ID != ZoneOther {
			t.Fatalf("ResolveZone(%q) = %s, want other", zip, got.ID)
		}
		if got.UsageModifier != 0.10 {
			t.Fatalf("catch-all modifier = %v, want 0.10", got.UsageModifier)
		}
	}
}

func TestResolveZone_DependsOnlyOnPrefix(t *testing.T) {
	// Every valid ZIP sharing a 3-digit prefix resolves identically.
	for _, suffix := range []string{"00", "01", "42", "99"} {
		got := ResolveZone("770" + suffix)
		if got.ID != ZoneHouston {
			t.Fatalf("ResolveZone(770%s) = %s, want houston", suffix, got.ID)
		}
	}
}

func TestZones_IncludesAllAndModifiersFixed(t *testing.T) {
	all := Zones()
	if len(all) != 6 {
		t.Fatalf("expected 6 zones, got %d", len(all))
	}
	want := map[ZoneID]float64{
		ZoneHouston:   0.15,
		ZoneFortWorth: 0.10,
		ZoneOther:     0.10,
	}
	for _, z := range all {
		if z.UsageModifier < 0 {
			t.Fatalf("zone %s has negative modifier %v", z.ID, z.UsageModifier)
		}
		if m, ok := want[z.ID]; ok && z.UsageModifier != m {
			t.Fatalf("zone %s modifier = %v, want %v", z.ID, z.UsageModifier, m)
		}
	}
}

func TestZoneCoversPrefix(t *testing.T) {
	if !ZoneCoversPrefix(ZoneHouston, "770") {
		t.Fatalf("expected houston to cover 770")
	}
	if ZoneCoversPrefix(ZoneDallas, "770") {
		t.Fatalf("dallas must not cover 770")
	}
	if !ZoneCoversPrefix(ZoneOther, "799") {
		t.Fatalf("expected other to cover unassigned prefix 799")
	}
	if ZoneCoversPrefix(ZoneOther, "770") {
		t.Fatalf("other must not cover a metro prefix")
	}
}

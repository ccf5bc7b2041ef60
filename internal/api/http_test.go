package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/wattfinder/wattfinder/internal/config"
	"github.com/wattfinder/wattfinder/internal/plans"
	"github.com/wattfinder/wattfinder/internal/storage"
	"github.com/wattfinder/wattfinder/internal/usage"
	_ "github.com/wattfinder/wattfinder/pkg/sources/powertochoose"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	cfg := config.Config{
		StorageDriver: "memory",
		AdminUsername: "admin",
		AdminPassword: "test-password",
	}
	mux, err := NewMux(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewMux: %v", err)
	}

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, token string, body interface{}) *http.Response {
	t.Helper()
	return doJSON(t, http.MethodPost, url, token, body)
}

func doJSON(t *testing.T, method, url, token string, body interface{}) *http.Response {
	t.Helper()

	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req, err := http.NewRequest(method, url, bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func login(t *testing.T, srv *httptest.Server) string {
	t.Helper()

	resp := postJSON(t, srv.URL+"/api/v2/auth/login", "", map[string]string{
		"username": "admin",
		"password": "test-password",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, want 200", resp.StatusCode)
	}
	var out struct {
		Token string `json:"token"`
	}
	decode(t, resp, &out)
	if out.Token == "" {
		t.Fatal("login returned empty token")
	}
	return out.Token
}

func TestZonesEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/zones")
	if err != nil {
		t.Fatalf("GET /api/zones: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var out struct {
		Zones []struct {
			ID string `json:"id"`
		} `json:"zones"`
	}
	decode(t, resp, &out)
	if len(out.Zones) == 0 {
		t.Fatal("expected at least one climate zone")
	}
}

func TestEstimateEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/estimate", "", usage.HouseholdProfile{
		BedroomCount: 3,
		ZipCode:      "77001",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var out EstimateResponse
	decode(t, resp, &out)
	if out.Estimate == nil || out.Estimate.TotalUsage <= 0 {
		t.Fatalf("estimate = %+v, want positive usage", out.Estimate)
	}
	if out.Tier != plans.Tier500 && out.Tier != plans.Tier1000 && out.Tier != plans.Tier2000 {
		t.Fatalf("tier = %v, want a valid tier", out.Tier)
	}
}

func TestEstimateRejectsBadProfile(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/estimate", "", usage.HouseholdProfile{
		BedroomCount: 0,
		ZipCode:      "77001",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestAdminPlanUpsertAndPublicCompare(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv)

	plan := plans.PlanRecord{
		ID:         "test-fixed-12",
		Provider:   "Test Energy",
		Name:       "Fixed 12",
		TermMonths: 12,
		RateAtTier: map[plans.Tier]float64{
			plans.Tier500:  14.0,
			plans.Tier1000: 12.5,
			plans.Tier2000: 11.9,
		},
		IsActive: true,
	}
	resp := postJSON(t, srv.URL+"/api/v2/plans", token, plan)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("upsert plan status = %d, want 204", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, http.MethodPut, srv.URL+"/api/v2/plans/test-fixed-12/coverage", token, map[string][]string{
		"zips": {"770"},
	})
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("replace coverage status = %d, want 204", resp.StatusCode)
	}
	resp.Body.Close()

	// Prefix coverage row 770 should match any 770xx ZIP.
	resp, err := http.Get(srv.URL + "/api/plans?zip=77001&tier=1000")
	if err != nil {
		t.Fatalf("GET /api/plans: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("plans status = %d, want 200", resp.StatusCode)
	}
	var out PlansResponse
	decode(t, resp, &out)
	if len(out.Plans) != 1 || out.Plans[0].ID != "test-fixed-12" {
		t.Fatalf("plans = %+v, want the seeded plan", out.Plans)
	}

	// A ZIP outside the coverage prefix has no plans.
	resp, err = http.Get(srv.URL + "/api/plans?zip=75001")
	if err != nil {
		t.Fatalf("GET /api/plans: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("uncovered zip status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestPlanUpsertRequiresAuth(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/v2/plans", "", plans.PlanRecord{ID: "nope"})
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLeadsListRequiresToken(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/v2/leads", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated status = %d, want 401", resp.StatusCode)
	}
	resp.Body.Close()

	token := login(t, srv)
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/v2/leads", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin status = %d, want 200", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLeadCapture(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/leads", "", map[string]interface{}{
		"name":         "Jordan Doe",
		"email":        "jordan@example.com",
		"phone":        "555-0100",
		"bedroomCount": 3,
		"zipCode":      "76101",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	var lead storage.Lead
	decode(t, resp, &lead)
	if lead.ID == "" {
		t.Fatal("lead ID not assigned")
	}
	if lead.EstimatedUsage <= 0 {
		t.Fatalf("estimated usage = %d, want positive", lead.EstimatedUsage)
	}
}

func TestLeadCaptureRequiresNameAndEmail(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/leads", "", map[string]interface{}{
		"bedroomCount": 2,
		"zipCode":      "77001",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestProvidersSeededFromSources(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/providers")
	if err != nil {
		t.Fatalf("GET /providers: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var out struct {
		Providers []storage.ProviderInfo `json:"providers"`
	}
	decode(t, resp, &out)

	found := false
	for _, p := range out.Providers {
		if p.Key == "powertochoose" && p.Name == "Power to Choose" && p.LandingURL != "" {
			found = true
		}
	}
	if !found {
		t.Fatalf("registered source not in provider directory: %+v", out.Providers)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz", "/livez"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s status = %d, want 200", path, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestRootRedirectsToUI(t *testing.T) {
	srv := newTestServer(t)

	client := &http.Client{CheckRedirect: func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Get(srv.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("status = %d, want 302", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); !strings.HasPrefix(loc, "/ui/") {
		t.Fatalf("location = %q, want /ui/", loc)
	}
}

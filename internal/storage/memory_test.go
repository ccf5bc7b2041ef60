package storage

import (
	"context"
	"testing"
)

func TestMemory_PlanAndCoverageRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	defer m.Close()

	p := Plan{
		ID:       "plan-1",
		Provider: "Lone Star Energy",
		Name:     "Saver 12",
		Rate500:  14.2, Rate1000: 12.1, Rate2000: 11.4,
		IsActive: true,
	}
	if err := m.UpsertPlan(ctx, p); err != nil {
		t.Fatalf("UpsertPlan failed: %v", err)
	}
	if err := m.ReplaceCoverage(ctx, p.ID, []string{"77001", "77002"}); err != nil {
		t.Fatalf("ReplaceCoverage failed: %v", err)
	}

	got, err := m.GetPlan(ctx, "plan-1")
	if err != nil {
		t.Fatalf("GetPlan failed: %v", err)
	}
	if got == nil || got.Name != "Saver 12" {
		t.Fatalf("unexpected plan: %+v", got)
	}

	zips, err := m.ListCoverage(ctx, "plan-1")
	if err != nil {
		t.Fatalf("ListCoverage failed: %v", err)
	}
	if len(zips) != 2 {
		t.Fatalf("expected 2 coverage rows, got %d", len(zips))
	}
}

func TestMemory_ListPlansForZipEmitsOneRowPerCoverageMatch(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	defer m.Close()

	if err := m.UpsertPlan(ctx, Plan{ID: "a", IsActive: true}); err != nil {
		t.Fatalf("UpsertPlan: %v", err)
	}
	// Duplicate coverage row for the same ZIP, as can happen after imports
	// from overlapping source files.
	if err := m.ReplaceCoverage(ctx, "a", []string{"77001", "77001", "77002"}); err != nil {
		t.Fatalf("ReplaceCoverage: %v", err)
	}

	got, err := m.ListPlansForZip(ctx, "77001")
	if err != nil {
		t.Fatalf("ListPlansForZip: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected raw join to emit 2 rows, got %d", len(got))
	}
}

func TestMemory_ListPlansForZipMatchesPrefix(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	defer m.Close()

	if err := m.UpsertPlan(ctx, Plan{ID: "a", IsActive: true}); err != nil {
		t.Fatalf("UpsertPlan: %v", err)
	}
	// Prefix coverage row covers every ZIP starting with 770.
	if err := m.ReplaceCoverage(ctx, "a", []string{"770"}); err != nil {
		t.Fatalf("ReplaceCoverage: %v", err)
	}

	got, err := m.ListPlansForZip(ctx, "77001")
	if err != nil {
		t.Fatalf("ListPlansForZip: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected prefix row to match, got %d rows", len(got))
	}

	got, err = m.ListPlansForZip(ctx, "75001")
	if err != nil {
		t.Fatalf("ListPlansForZip: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no match outside prefix, got %d rows", len(got))
	}
}

func TestMemory_ListPlansActiveOnly(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	defer m.Close()

	_ = m.UpsertPlan(ctx, Plan{ID: "on", IsActive: true})
	_ = m.UpsertPlan(ctx, Plan{ID: "off", IsActive: false})

	all, err := m.ListPlans(ctx, false)
	if err != nil {
		t.Fatalf("ListPlans: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 plans, got %d", len(all))
	}

	active, err := m.ListPlans(ctx, true)
	if err != nil {
		t.Fatalf("ListPlans active: %v", err)
	}
	if len(active) != 1 || active[0].ID != "on" {
		t.Fatalf("expected only the active plan, got %+v", active)
	}
}

func TestMemory_ProvidersPreload(t *testing.T) {
	ctx := context.Background()
	p := ProviderInfo{Key: "lonestar", Name: "Lone Star Energy", LandingURL: "https://example.org"}

	m := NewMemoryWithProviders([]ProviderInfo{p})
	defer m.Close()

	list, err := m.ListProviders(ctx)
	if err != nil {
		t.Fatalf("ListProviders failed: %v", err)
	}
	if len(list) != 1 || list[0].Key != p.Key || list[0].Name != p.Name {
		t.Fatalf("provider mismatch: want %+v got %+v", p, list)
	}
}

func TestMemory_LeadLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	defer m.Close()

	l := Lead{ID: "lead-1", Email: "visitor@example.com", ZipCode: "77001", EstimatedUsage: 1100}
	if err := m.CreateLead(ctx, l); err != nil {
		t.Fatalf("CreateLead failed: %v", err)
	}

	got, err := m.GetLead(ctx, "lead-1")
	if err != nil {
		t.Fatalf("GetLead failed: %v", err)
	}
	if got == nil || got.Email != l.Email {
		t.Fatalf("unexpected lead: %+v", got)
	}

	list, err := m.ListLeads(ctx, 10)
	if err != nil {
		t.Fatalf("ListLeads failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 lead, got %d", len(list))
	}
}

func TestMemory_ImportRuns(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	defer m.Close()

	id, err := m.CreateImportRun(ctx, ImportRun{Source: "powertochoose", Status: "running"})
	if err != nil {
		t.Fatalf("CreateImportRun failed: %v", err)
	}
	if err := m.CompleteImportRun(ctx, id, "succeeded", 42, ""); err != nil {
		t.Fatalf("CompleteImportRun failed: %v", err)
	}

	run, err := m.LatestImportRun(ctx, "powertochoose")
	if err != nil {
		t.Fatalf("LatestImportRun failed: %v", err)
	}
	if run == nil || run.Status != "succeeded" || run.PlanCount != 42 {
		t.Fatalf("unexpected run: %+v", run)
	}
	if run.CompletedAt == nil {
		t.Fatalf("expected CompletedAt to be set")
	}
}

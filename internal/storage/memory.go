package storage

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStorage is an in-memory Storage implementation, useful for tests and
// simple single-process deployments.
type MemoryStorage struct {
	mu            sync.RWMutex
	plans         map[string]Plan
	coverage      map[string][]string // planID -> zips
	providers     map[string]ProviderInfo
	leads         map[string]Lead
	importRuns    []ImportRun
	batchProgress map[string]BatchProgress
	settings      map[string]string
	users         map[string]User
	tokens        map[string]Token
	emailConfig   *EmailConfig
}

// NewMemory returns an empty MemoryStorage.
func NewMemory() *MemoryStorage {
	return &MemoryStorage{
		plans:         make(map[string]Plan),
		coverage:      make(map[string][]string),
		providers:     make(map[string]ProviderInfo),
		leads:         make(map[string]Lead),
		batchProgress: make(map[string]BatchProgress),
		settings:      make(map[string]string),
		users:         make(map[string]User),
		tokens:        make(map[string]Token),
	}
}

// NewMemoryWithProviders returns a MemoryStorage preloaded with provider
// reference data. Conversion from other descriptor types is the caller's job,
// which keeps this package free of upward imports.
func NewMemoryWithProviders(list []ProviderInfo) *MemoryStorage {
	m := NewMemory()
	for _, p := range list {
		m.providers[p.Key] = p
	}
	return m
}

func (m *MemoryStorage) Close() error { return nil }

func (m *MemoryStorage) Ping(ctx context.Context) error { return nil }

// Plans

func (m *MemoryStorage) ListPlans(ctx context.Context, activeOnly bool) ([]Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Plan, 0, len(m.plans))
	for _, p := range m.plans {
		if activeOnly && !p.IsActive {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStorage) GetPlan(ctx context.Context, id string) (*Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.plans[id]
	if !ok {
		return nil, nil
	}
	cp := p
	return &cp, nil
}

func (m *MemoryStorage) UpsertPlan(ctx context.Context, p Plan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	p.UpdatedAt = time.Now()
	m.plans[p.ID] = p
	return nil
}

func (m *MemoryStorage) DeletePlan(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.plans, id)
	delete(m.coverage, id)
	return nil
}

// coverageMatches reports whether a coverage row (a full ZIP or a 3-digit
// prefix) covers the queried ZIP.
func coverageMatches(row, zip string) bool {
	if row == zip {
		return true
	}
	return len(row) == 3 && len(zip) >= 3 && zip[:3] == row
}

func (m *MemoryStorage) ListPlansForZip(ctx context.Context, zip string) ([]Plan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	// Walk coverage rows the way the SQL join does: one output row per
	// matching coverage row, so a plan covering the ZIP twice appears twice.
	planIDs := make([]string, 0, len(m.coverage))
	for id := range m.coverage {
		planIDs = append(planIDs, id)
	}
	sort.Strings(planIDs)

	var out []Plan
	for _, id := range planIDs {
		p, ok := m.plans[id]
		if !ok {
			continue
		}
		for _, z := range m.coverage[id] {
			if coverageMatches(z, zip) {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

// Coverage

func (m *MemoryStorage) ReplaceCoverage(ctx context.Context, planID string, zips []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]string, len(zips))
	copy(cp, zips)
	m.coverage[planID] = cp
	return nil
}

func (m *MemoryStorage) ListCoverage(ctx context.Context, planID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	zips := m.coverage[planID]
	out := make([]string, len(zips))
	copy(out, zips)
	return out, nil
}

// Providers

func (m *MemoryStorage) ListProviders(ctx context.Context) ([]ProviderInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ProviderInfo, 0, len(m.providers))
	for _, p := range m.providers {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *MemoryStorage) GetProvider(ctx context.Context, key string) (*ProviderInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.providers[key]
	if !ok {
		return nil, nil
	}
	cp := p
	return &cp, nil
}

func (m *MemoryStorage) UpsertProvider(ctx context.Context, p ProviderInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providers[p.Key] = p
	return nil
}

func (m *MemoryStorage) DeleteProvider(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.providers, key)
	return nil
}

// Leads

func (m *MemoryStorage) CreateLead(ctx context.Context, l Lead) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	m.leads[l.ID] = l
	return nil
}

func (m *MemoryStorage) GetLead(ctx context.Context, id string) (*Lead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.leads[id]
	if !ok {
		return nil, nil
	}
	cp := l
	return &cp, nil
}

func (m *MemoryStorage) ListLeads(ctx context.Context, limit int) ([]Lead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Lead, 0, len(m.leads))
	for _, l := range m.leads {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Import runs

func (m *MemoryStorage) CreateImportRun(ctx context.Context, run ImportRun) (uint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run.ID = uint(len(m.importRuns) + 1)
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	m.importRuns = append(m.importRuns, run)
	return run.ID, nil
}

func (m *MemoryStorage) CompleteImportRun(ctx context.Context, id uint, status string, planCount int, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.importRuns {
		if m.importRuns[i].ID == id {
			now := time.Now()
			m.importRuns[i].Status = status
			m.importRuns[i].PlanCount = planCount
			m.importRuns[i].Error = errMsg
			m.importRuns[i].CompletedAt = &now
			return nil
		}
	}
	return nil
}

func (m *MemoryStorage) LatestImportRun(ctx context.Context, source string) (*ImportRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := len(m.importRuns) - 1; i >= 0; i-- {
		if m.importRuns[i].Source == source {
			cp := m.importRuns[i]
			return &cp, nil
		}
	}
	return nil, nil
}

// Batch progress

func (m *MemoryStorage) SaveBatchProgress(ctx context.Context, progress BatchProgress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	progress.UpdatedAt = time.Now()
	m.batchProgress[progress.BatchID+":"+progress.Source] = progress
	return nil
}

func (m *MemoryStorage) GetBatchProgress(ctx context.Context, batchID, source string) (*BatchProgress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.batchProgress[batchID+":"+source]
	if !ok {
		return nil, nil
	}
	cp := p
	return &cp, nil
}

func (m *MemoryStorage) GetPendingBatchSources(ctx context.Context, batchID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	prefix := batchID + ":"
	var sources []string
	for key, p := range m.batchProgress {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			if p.Status == "pending" || p.Status == "failed" {
				sources = append(sources, p.Source)
			}
		}
	}
	sort.Strings(sources)
	return sources, nil
}

// Settings

func (m *MemoryStorage) GetSetting(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings[key], nil
}

func (m *MemoryStorage) SetSetting(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[key] = value
	return nil
}

// Users

func (m *MemoryStorage) CreateUser(ctx context.Context, user User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	return nil
}

func (m *MemoryStorage) GetUser(ctx context.Context, id string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := u
	return &cp, nil
}

func (m *MemoryStorage) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Username == username {
			cp := u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemoryStorage) UpdateUser(ctx context.Context, user User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return nil
	}
	m.users[user.ID] = user
	return nil
}

func (m *MemoryStorage) DeleteUser(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, id)
	return nil
}

func (m *MemoryStorage) ListUsers(ctx context.Context) ([]User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []User
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

// Tokens

func (m *MemoryStorage) CreateToken(ctx context.Context, token Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token.ID] = token
	return nil
}

func (m *MemoryStorage) GetToken(ctx context.Context, id string) (*Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tokens[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (m *MemoryStorage) GetTokenByHash(ctx context.Context, hash string) (*Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.tokens {
		if t.TokenHash == hash {
			return &t, nil
		}
	}
	return nil, nil
}

func (m *MemoryStorage) ListTokens(ctx context.Context, userID string) ([]Token, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Token
	for _, t := range m.tokens {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *MemoryStorage) DeleteToken(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, id)
	return nil
}

func (m *MemoryStorage) UpdateTokenLastUsed(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tokens[id]; ok {
		now := time.Now()
		t.LastUsedAt = &now
		m.tokens[id] = t
	}
	return nil
}

// Casbin rules are not persisted in memory; the enforcer keeps its own state.

func (m *MemoryStorage) LoadCasbinRules(ctx context.Context) ([]CasbinRule, error) {
	return nil, nil
}

func (m *MemoryStorage) AddCasbinRule(ctx context.Context, rule CasbinRule) error { return nil }

func (m *MemoryStorage) RemoveCasbinRule(ctx context.Context, rule CasbinRule) error { return nil }

// Email config

func (m *MemoryStorage) GetEmailConfig(ctx context.Context) (*EmailConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.emailConfig == nil {
		return nil, nil
	}
	cfg := *m.emailConfig
	return &cfg, nil
}

func (m *MemoryStorage) SaveEmailConfig(ctx context.Context, config EmailConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.emailConfig = &config
	return nil
}

// Coordination: a single in-memory instance always holds the lock.

func (m *MemoryStorage) AcquireAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	return true, nil
}

func (m *MemoryStorage) ReleaseAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	return true, nil
}

func (m *MemoryStorage) UpdateScheduledJob(ctx context.Context, name string, started time.Time, dur time.Duration, success bool, errMsg string) error {
	return nil
}

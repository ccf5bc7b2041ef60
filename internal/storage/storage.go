package storage

import (
	"context"
	"time"
)

// Storage abstracts persistence for plans, coverage, providers, leads, and the
// supporting admin tables.
type Storage interface {
	// Plans
	ListPlans(ctx context.Context, activeOnly bool) ([]Plan, error)
	GetPlan(ctx context.Context, id string) (*Plan, error)
	UpsertPlan(ctx context.Context, p Plan) error
	DeletePlan(ctx context.Context, id string) error

	// ListPlansForZip returns the plans whose coverage includes the ZIP.
	// Coverage rows hold either a full 5-digit ZIP or a 3-digit prefix;
	// both match. The result comes from the coverage join and may contain
	// the same plan more than once; deduplication is the ranking engine's
	// job.
	ListPlansForZip(ctx context.Context, zip string) ([]Plan, error)

	// Coverage
	ReplaceCoverage(ctx context.Context, planID string, zips []string) error
	ListCoverage(ctx context.Context, planID string) ([]string, error)

	// Providers
	ListProviders(ctx context.Context) ([]ProviderInfo, error)
	GetProvider(ctx context.Context, key string) (*ProviderInfo, error)
	UpsertProvider(ctx context.Context, p ProviderInfo) error
	DeleteProvider(ctx context.Context, key string) error

	// Leads
	CreateLead(ctx context.Context, l Lead) error
	GetLead(ctx context.Context, id string) (*Lead, error)
	ListLeads(ctx context.Context, limit int) ([]Lead, error)

	// Import runs
	CreateImportRun(ctx context.Context, run ImportRun) (uint, error)
	CompleteImportRun(ctx context.Context, id uint, status string, planCount int, errMsg string) error
	LatestImportRun(ctx context.Context, source string) (*ImportRun, error)

	// Batch progress
	SaveBatchProgress(ctx context.Context, progress BatchProgress) error
	GetBatchProgress(ctx context.Context, batchID, source string) (*BatchProgress, error)
	GetPendingBatchSources(ctx context.Context, batchID string) ([]string, error)

	// Settings
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	// Users
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	UpdateUser(ctx context.Context, user User) error
	DeleteUser(ctx context.Context, id string) error
	ListUsers(ctx context.Context) ([]User, error)

	// Tokens
	CreateToken(ctx context.Context, token Token) error
	GetToken(ctx context.Context, id string) (*Token, error)
	GetTokenByHash(ctx context.Context, hash string) (*Token, error)
	ListTokens(ctx context.Context, userID string) ([]Token, error)
	DeleteToken(ctx context.Context, id string) error
	UpdateTokenLastUsed(ctx context.Context, id string) error

	// Casbin policy rules
	LoadCasbinRules(ctx context.Context) ([]CasbinRule, error)
	AddCasbinRule(ctx context.Context, rule CasbinRule) error
	RemoveCasbinRule(ctx context.Context, rule CasbinRule) error

	// Email configuration
	GetEmailConfig(ctx context.Context) (*EmailConfig, error)
	SaveEmailConfig(ctx context.Context, config EmailConfig) error

	// Coordination for multi-instance workers. Backends without advisory
	// locks always grant the lock.
	AcquireAdvisoryLock(ctx context.Context, key int64) (bool, error)
	ReleaseAdvisoryLock(ctx context.Context, key int64) (bool, error)
	UpdateScheduledJob(ctx context.Context, name string, started time.Time, dur time.Duration, success bool, errMsg string) error

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}

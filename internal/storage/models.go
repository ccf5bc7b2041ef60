package storage

import "time"

// Plan is a retail electricity plan as stored. Rates are cents per kWh quoted
// at the three standard usage tiers; all three are always present.
type Plan struct {
	ID         string    `json:"id" gorm:"primaryKey;column:id"`
	Provider   string    `json:"provider" gorm:"column:provider"`
	Name       string    `json:"name" gorm:"column:name"`
	TermMonths int       `json:"termMonths" gorm:"column:term_months"`
	Rate500    float64   `json:"rate500" gorm:"column:rate_500"`
	Rate1000   float64   `json:"rate1000" gorm:"column:rate_1000"`
	Rate2000   float64   `json:"rate2000" gorm:"column:rate_2000"`
	EFLURL     string    `json:"eflUrl,omitempty" gorm:"column:efl_url"`
	IsActive   bool      `json:"isActive" gorm:"column:is_active"`
	CreatedAt  time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt  time.Time `json:"updated_at" gorm:"column:updated_at"`
}

// PlanCoverage associates a plan with one serviceable ZIP code. A plan carries
// one row per covered ZIP, which is why raw plan queries can return the same
// plan more than once.
type PlanCoverage struct {
	ID     uint   `json:"-" gorm:"primaryKey;column:id"`
	PlanID string `json:"plan_id" gorm:"index;column:plan_id"`
	Zip    string `json:"zip" gorm:"index;column:zip"`
}

// ProviderInfo holds reference data about a retail electric provider.
type ProviderInfo struct {
	Key        string `json:"key" gorm:"primaryKey;column:key"`
	Name       string `json:"name" gorm:"column:name"`
	LandingURL string `json:"landingUrl" gorm:"column:landing_url"`
	PUCTNumber string `json:"puctNumber,omitempty" gorm:"column:puct_number"`
	Notes      string `json:"notes,omitempty" gorm:"column:notes"`
}

// Lead is a captured visitor contact together with the household profile and
// estimate they submitted.
type Lead struct {
	ID             string    `json:"id" gorm:"primaryKey;column:id"`
	Name           string    `json:"name" gorm:"column:name"`
	Email          string    `json:"email" gorm:"column:email"`
	Phone          string    `json:"phone,omitempty" gorm:"column:phone"`
	ZipCode        string    `json:"zip_code" gorm:"index;column:zip_code"`
	BedroomCount   int       `json:"bedroom_count" gorm:"column:bedroom_count"`
	SquareFootage  *int      `json:"square_footage,omitempty" gorm:"column:square_footage"`
	HasEV          bool      `json:"has_ev" gorm:"column:has_ev"`
	HasSolar       bool      `json:"has_solar" gorm:"column:has_solar"`
	EstimatedUsage int       `json:"estimated_usage" gorm:"column:estimated_usage"`
	SelectedPlanID string    `json:"selected_plan_id,omitempty" gorm:"column:selected_plan_id"`
	CreatedAt      time.Time `json:"created_at" gorm:"column:created_at"`
}

// ImportRun records one execution of the plan importer for a source.
type ImportRun struct {
	ID          uint       `json:"id" gorm:"primaryKey;column:id"`
	Source      string     `json:"source" gorm:"index;column:source"`
	Status      string     `json:"status" gorm:"column:status"` // "running", "succeeded", "failed"
	PlanCount   int        `json:"plan_count" gorm:"column:plan_count"`
	Error       string     `json:"error,omitempty" gorm:"column:error"`
	StartedAt   time.Time  `json:"started_at" gorm:"column:started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" gorm:"column:completed_at"`
}

// BatchProgress tracks per-source progress inside a resumable import batch.
type BatchProgress struct {
	ID        uint      `json:"-" gorm:"primaryKey;column:id"`
	BatchID   string    `json:"batch_id" gorm:"uniqueIndex:idx_batch_source;column:batch_id"`
	Source    string    `json:"source" gorm:"uniqueIndex:idx_batch_source;column:source"`
	Status    string    `json:"status" gorm:"column:status"` // "pending", "running", "done", "failed"
	Attempts  int       `json:"attempts" gorm:"column:attempts"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at"`
}

// User represents a registered admin user.
type User struct {
	ID           string    `json:"id" gorm:"primaryKey;column:id"`
	Username     string    `json:"username" gorm:"unique;column:username"`
	Email        string    `json:"email" gorm:"column:email"`
	PasswordHash string    `json:"-" gorm:"column:password_hash"`
	Role         string    `json:"role" gorm:"column:role"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"column:updated_at"`
}

// Token represents an API access token.
type Token struct {
	ID         string     `json:"id" gorm:"primaryKey;column:id"`
	UserID     string     `json:"user_id" gorm:"column:user_id"`
	Name       string     `json:"name" gorm:"column:name"`
	TokenHash  string     `json:"-" gorm:"column:token_hash"`
	Role       string     `json:"role" gorm:"column:role"`
	CreatedAt  time.Time  `json:"created_at" gorm:"column:created_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty" gorm:"column:expires_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty" gorm:"column:last_used_at"`
}

// CasbinRule represents a policy rule for RBAC.
type CasbinRule struct {
	ID    uint   `gorm:"primaryKey"`
	PType string `json:"ptype" gorm:"column:ptype"`
	V0    string `json:"v0" gorm:"column:v0"`
	V1    string `json:"v1" gorm:"column:v1"`
	V2    string `json:"v2" gorm:"column:v2"`
	V3    string `json:"v3" gorm:"column:v3"`
	V4    string `json:"v4" gorm:"column:v4"`
	V5    string `json:"v5" gorm:"column:v5"`
}

// EmailConfig holds configuration for lead notification email.
type EmailConfig struct {
	ID          string    `json:"id" gorm:"primaryKey;column:id"`
	Provider    string    `json:"provider" gorm:"column:provider"` // "smtp", "sendgrid", "gmail", "resend"
	Host        string    `json:"host,omitempty" gorm:"column:host"`
	Port        int       `json:"port,omitempty" gorm:"column:port"`
	Username    string    `json:"username,omitempty" gorm:"column:username"`
	Password    string    `json:"password,omitempty" gorm:"column:password"`
	FromAddress string    `json:"from_address" gorm:"column:from_address"`
	FromName    string    `json:"from_name" gorm:"column:from_name"`
	APIKey      string    `json:"api_key,omitempty" gorm:"column:api_key"`
	Encryption  string    `json:"encryption,omitempty" gorm:"column:encryption"` // "none", "ssl", "tls"
	NotifyTo    string    `json:"notify_to,omitempty" gorm:"column:notify_to"`
	Enabled     bool      `json:"enabled" gorm:"column:enabled"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"column:updated_at"`
}

// Setting is a generic key/value runtime setting.
type Setting struct {
	Key       string    `gorm:"primaryKey;column:key"`
	Value     string    `gorm:"column:value"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// ScheduledJob records the last outcome of a named background job.
type ScheduledJob struct {
	Name           string    `gorm:"primaryKey;column:name"`
	LastRunAt      time.Time `gorm:"column:last_run_at"`
	LastDurationMs int64     `gorm:"column:last_duration_ms"`
	LastSuccess    int       `gorm:"column:last_success"`
	LastError      string    `gorm:"column:last_error"`
}

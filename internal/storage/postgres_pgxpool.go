package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresPoolStorage backs Storage with a pgx connection pool. It is the
// backend the cron worker requires, since it exposes real PostgreSQL advisory
// locks for multi-instance coordination.
type PostgresPoolStorage struct {
	pool *pgxpool.Pool
}

func OpenPostgresPool(ctx context.Context, dsn string) (*PostgresPoolStorage, error) {
	if dsn == "" {
		dsn = "postgres://localhost:5432/wattfinder?sslmode=disable"
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &PostgresPoolStorage{pool: pool}, nil
}

// Pool exposes the underlying pool for metrics collection.
func (s *PostgresPoolStorage) Pool() *pgxpool.Pool { return s.pool }

func (s *PostgresPoolStorage) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresPoolStorage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Plans

const planColumns = `id, provider, name, term_months, rate_500, rate_1000, rate_2000, efl_url, is_active, created_at, updated_at`

func scanPlan(row pgx.Row) (*Plan, error) {
	var p Plan
	err := row.Scan(&p.ID, &p.Provider, &p.Name, &p.TermMonths,
		&p.Rate500, &p.Rate1000, &p.Rate2000, &p.EFLURL, &p.IsActive,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (s *PostgresPoolStorage) ListPlans(ctx context.Context, activeOnly bool) ([]Plan, error) {
	q := `SELECT ` + planColumns + ` FROM plans ORDER BY id`
	if activeOnly {
		q = `SELECT ` + planColumns + ` FROM plans WHERE is_active ORDER BY id`
	}
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Plan
	for rows.Next() {
		var p Plan
		if err := rows.Scan(&p.ID, &p.Provider, &p.Name, &p.TermMonths,
			&p.Rate500, &p.Rate1000, &p.Rate2000, &p.EFLURL, &p.IsActive,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresPoolStorage) GetPlan(ctx context.Context, id string) (*Plan, error) {
	return scanPlan(s.pool.QueryRow(ctx, `SELECT `+planColumns+` FROM plans WHERE id=$1`, id))
}

func (s *PostgresPoolStorage) UpsertPlan(ctx context.Context, p Plan) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	p.UpdatedAt = time.Now()
	_, err := s.pool.Exec(ctx, `
		INSERT INTO plans (id, provider, name, term_months, rate_500, rate_1000, rate_2000, efl_url, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (id) DO UPDATE SET
			provider=EXCLUDED.provider,
			name=EXCLUDED.name,
			term_months=EXCLUDED.term_months,
			rate_500=EXCLUDED.rate_500,
			rate_1000=EXCLUDED.rate_1000,
			rate_2000=EXCLUDED.rate_2000,
			efl_url=EXCLUDED.efl_url,
			is_active=EXCLUDED.is_active,
			updated_at=EXCLUDED.updated_at
	`, p.ID, p.Provider, p.Name, p.TermMonths, p.Rate500, p.Rate1000, p.Rate2000,
		p.EFLURL, p.IsActive, p.CreatedAt, p.UpdatedAt)
	return err
}

func (s *PostgresPoolStorage) DeletePlan(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM plan_coverages WHERE plan_id=$1`, id); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM plans WHERE id=$1`, id)
	return err
}

func (s *PostgresPoolStorage) ListPlansForZip(ctx context.Context, zip string) ([]Plan, error) {
	// Deliberately no DISTINCT: one row per coverage row, matching the
	// engine's raw-input contract. A coverage row is a full ZIP or a
	// 3-digit prefix.
	prefix := zip
	if len(zip) >= 3 {
		prefix = zip[:3]
	}
	rows, err := s.pool.Query(ctx, `
		SELECT p.id, p.provider, p.name, p.term_months, p.rate_500, p.rate_1000, p.rate_2000,
		       p.efl_url, p.is_active, p.created_at, p.updated_at
		FROM plans p
		JOIN plan_coverages c ON c.plan_id = p.id
		WHERE c.zip = $1 OR c.zip = $2
		ORDER BY p.id
	`, zip, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Plan
	for rows.Next() {
		var p Plan
		if err := rows.Scan(&p.ID, &p.Provider, &p.Name, &p.TermMonths,
			&p.Rate500, &p.Rate1000, &p.Rate2000, &p.EFLURL, &p.IsActive,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Coverage

func (s *PostgresPoolStorage) ReplaceCoverage(ctx context.Context, planID string, zips []string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM plan_coverages WHERE plan_id=$1`, planID); err != nil {
		return err
	}
	for _, zip := range zips {
		if _, err := tx.Exec(ctx, `INSERT INTO plan_coverages (plan_id, zip) VALUES ($1,$2)`, planID, zip); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *PostgresPoolStorage) ListCoverage(ctx context.Context, planID string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT zip FROM plan_coverages WHERE plan_id=$1 ORDER BY zip`, planID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var zip string
		if err := rows.Scan(&zip); err != nil {
			return nil, err
		}
		out = append(out, zip)
	}
	return out, rows.Err()
}

// Providers

func (s *PostgresPoolStorage) ListProviders(ctx context.Context) ([]ProviderInfo, error) {
	rows, err := s.pool.Query(ctx, `SELECT key, name, landing_url, puct_number, notes FROM provider_infos ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ProviderInfo
	for rows.Next() {
		var p ProviderInfo
		if err := rows.Scan(&p.Key, &p.Name, &p.LandingURL, &p.PUCTNumber, &p.Notes); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresPoolStorage) GetProvider(ctx context.Context, key string) (*ProviderInfo, error) {
	var p ProviderInfo
	err := s.pool.QueryRow(ctx, `SELECT key, name, landing_url, puct_number, notes FROM provider_infos WHERE key=$1`, key).
		Scan(&p.Key, &p.Name, &p.LandingURL, &p.PUCTNumber, &p.Notes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (s *PostgresPoolStorage) UpsertProvider(ctx context.Context, p ProviderInfo) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO provider_infos (key, name, landing_url, puct_number, notes)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (key) DO UPDATE SET
			name=EXCLUDED.name,
			landing_url=EXCLUDED.landing_url,
			puct_number=EXCLUDED.puct_number,
			notes=EXCLUDED.notes
	`, p.Key, p.Name, p.LandingURL, p.PUCTNumber, p.Notes)
	return err
}

func (s *PostgresPoolStorage) DeleteProvider(ctx context.Context, key string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM provider_infos WHERE key=$1`, key)
	return err
}

// Leads

func (s *PostgresPoolStorage) CreateLead(ctx context.Context, l Lead) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO leads (id, name, email, phone, zip_code, bedroom_count, square_footage,
		                   has_ev, has_solar, estimated_usage, selected_plan_id, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, l.ID, l.Name, l.Email, l.Phone, l.ZipCode, l.BedroomCount, l.SquareFootage,
		l.HasEV, l.HasSolar, l.EstimatedUsage, l.SelectedPlanID, l.CreatedAt)
	return err
}

func (s *PostgresPoolStorage) GetLead(ctx context.Context, id string) (*Lead, error) {
	var l Lead
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, email, phone, zip_code, bedroom_count, square_footage,
		       has_ev, has_solar, estimated_usage, selected_plan_id, created_at
		FROM leads WHERE id=$1
	`, id).Scan(&l.ID, &l.Name, &l.Email, &l.Phone, &l.ZipCode, &l.BedroomCount,
		&l.SquareFootage, &l.HasEV, &l.HasSolar, &l.EstimatedUsage, &l.SelectedPlanID, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

func (s *PostgresPoolStorage) ListLeads(ctx context.Context, limit int) ([]Lead, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, email, phone, zip_code, bedroom_count, square_footage,
		       has_ev, has_solar, estimated_usage, selected_plan_id, created_at
		FROM leads ORDER BY created_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Lead
	for rows.Next() {
		var l Lead
		if err := rows.Scan(&l.ID, &l.Name, &l.Email, &l.Phone, &l.ZipCode, &l.BedroomCount,
			&l.SquareFootage, &l.HasEV, &l.HasSolar, &l.EstimatedUsage, &l.SelectedPlanID, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Import runs

func (s *PostgresPoolStorage) CreateImportRun(ctx context.Context, run ImportRun) (uint, error) {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	var id uint
	err := s.pool.QueryRow(ctx, `
		INSERT INTO import_runs (source, status, plan_count, error, started_at)
		VALUES ($1,$2,$3,$4,$5) RETURNING id
	`, run.Source, run.Status, run.PlanCount, run.Error, run.StartedAt).Scan(&id)
	return id, err
}

func (s *PostgresPoolStorage) CompleteImportRun(ctx context.Context, id uint, status string, planCount int, errMsg string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE import_runs SET status=$2, plan_count=$3, error=$4, completed_at=now() WHERE id=$1
	`, id, status, planCount, errMsg)
	return err
}

func (s *PostgresPoolStorage) LatestImportRun(ctx context.Context, source string) (*ImportRun, error) {
	var run ImportRun
	err := s.pool.QueryRow(ctx, `
		SELECT id, source, status, plan_count, error, started_at, completed_at
		FROM import_runs WHERE source=$1 ORDER BY started_at DESC LIMIT 1
	`, source).Scan(&run.ID, &run.Source, &run.Status, &run.PlanCount, &run.Error,
		&run.StartedAt, &run.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &run, nil
}

// Batch progress

func (s *PostgresPoolStorage) SaveBatchProgress(ctx context.Context, progress BatchProgress) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO batch_progresses (batch_id, source, status, attempts, updated_at)
		VALUES ($1,$2,$3,$4,now())
		ON CONFLICT (batch_id, source) DO UPDATE SET
			status=EXCLUDED.status,
			attempts=EXCLUDED.attempts,
			updated_at=now()
	`, progress.BatchID, progress.Source, progress.Status, progress.Attempts)
	return err
}

func (s *PostgresPoolStorage) GetBatchProgress(ctx context.Context, batchID, source string) (*BatchProgress, error) {
	var p BatchProgress
	err := s.pool.QueryRow(ctx, `
		SELECT id, batch_id, source, status, attempts, updated_at
		FROM batch_progresses WHERE batch_id=$1 AND source=$2
	`, batchID, source).Scan(&p.ID, &p.BatchID, &p.Source, &p.Status, &p.Attempts, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (s *PostgresPoolStorage) GetPendingBatchSources(ctx context.Context, batchID string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT source FROM batch_progresses
		WHERE batch_id=$1 AND status IN ('pending','failed')
		ORDER BY source
	`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var src string
		if err := rows.Scan(&src); err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, rows.Err()
}

// Settings

func (s *PostgresPoolStorage) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.pool.QueryRow(ctx, `SELECT value FROM settings WHERE key=$1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

func (s *PostgresPoolStorage) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES ($1,$2,now())
		ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=now()
	`, key, value)
	return err
}

// Users

func (s *PostgresPoolStorage) CreateUser(ctx context.Context, user User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, username, email, password_hash, role, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, user.ID, user.Username, user.Email, user.PasswordHash, user.Role, user.CreatedAt, user.UpdatedAt)
	return err
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (s *PostgresPoolStorage) GetUser(ctx context.Context, id string) (*User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT id, username, email, password_hash, role, created_at, updated_at FROM users WHERE id=$1`, id))
}

func (s *PostgresPoolStorage) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT id, username, email, password_hash, role, created_at, updated_at FROM users WHERE username=$1`, username))
}

func (s *PostgresPoolStorage) UpdateUser(ctx context.Context, user User) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE users SET username=$2, email=$3, password_hash=$4, role=$5, updated_at=now() WHERE id=$1
	`, user.ID, user.Username, user.Email, user.PasswordHash, user.Role)
	return err
}

func (s *PostgresPoolStorage) DeleteUser(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	return err
}

func (s *PostgresPoolStorage) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, username, email, password_hash, role, created_at, updated_at FROM users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Tokens

func scanToken(row pgx.Row) (*Token, error) {
	var t Token
	err := row.Scan(&t.ID, &t.UserID, &t.Name, &t.TokenHash, &t.Role, &t.CreatedAt, &t.ExpiresAt, &t.LastUsedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

const tokenColumns = `id, user_id, name, token_hash, role, created_at, expires_at, last_used_at`

func (s *PostgresPoolStorage) CreateToken(ctx context.Context, token Token) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tokens (id, user_id, name, token_hash, role, created_at, expires_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, token.ID, token.UserID, token.Name, token.TokenHash, token.Role, token.CreatedAt, token.ExpiresAt)
	return err
}

func (s *PostgresPoolStorage) GetToken(ctx context.Context, id string) (*Token, error) {
	return scanToken(s.pool.QueryRow(ctx, `SELECT `+tokenColumns+` FROM tokens WHERE id=$1`, id))
}

func (s *PostgresPoolStorage) GetTokenByHash(ctx context.Context, hash string) (*Token, error) {
	return scanToken(s.pool.QueryRow(ctx, `SELECT `+tokenColumns+` FROM tokens WHERE token_hash=$1`, hash))
}

func (s *PostgresPoolStorage) ListTokens(ctx context.Context, userID string) ([]Token, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+tokenColumns+` FROM tokens WHERE user_id=$1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Token
	for rows.Next() {
		var t Token
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.TokenHash, &t.Role, &t.CreatedAt, &t.ExpiresAt, &t.LastUsedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *PostgresPoolStorage) DeleteToken(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM tokens WHERE id=$1`, id)
	return err
}

func (s *PostgresPoolStorage) UpdateTokenLastUsed(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `UPDATE tokens SET last_used_at=now() WHERE id=$1`, id)
	return err
}

// Casbin rules

func (s *PostgresPoolStorage) LoadCasbinRules(ctx context.Context) ([]CasbinRule, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, ptype, v0, v1, v2, v3, v4, v5 FROM casbin_rules`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CasbinRule
	for rows.Next() {
		var r CasbinRule
		if err := rows.Scan(&r.ID, &r.PType, &r.V0, &r.V1, &r.V2, &r.V3, &r.V4, &r.V5); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresPoolStorage) AddCasbinRule(ctx context.Context, rule CasbinRule) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO casbin_rules (ptype, v0, v1, v2, v3, v4, v5) VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, rule.PType, rule.V0, rule.V1, rule.V2, rule.V3, rule.V4, rule.V5)
	return err
}

func (s *PostgresPoolStorage) RemoveCasbinRule(ctx context.Context, rule CasbinRule) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM casbin_rules WHERE ptype=$1 AND v0=$2 AND v1=$3 AND v2=$4
	`, rule.PType, rule.V0, rule.V1, rule.V2)
	return err
}

// Email config

func (s *PostgresPoolStorage) GetEmailConfig(ctx context.Context) (*EmailConfig, error) {
	var cfg EmailConfig
	err := s.pool.QueryRow(ctx, `
		SELECT id, provider, host, port, username, password, from_address, from_name,
		       api_key, encryption, notify_to, enabled, created_at, updated_at
		FROM email_configs LIMIT 1
	`).Scan(&cfg.ID, &cfg.Provider, &cfg.Host, &cfg.Port, &cfg.Username, &cfg.Password,
		&cfg.FromAddress, &cfg.FromName, &cfg.APIKey, &cfg.Encryption, &cfg.NotifyTo,
		&cfg.Enabled, &cfg.CreatedAt, &cfg.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &cfg, nil
}

func (s *PostgresPoolStorage) SaveEmailConfig(ctx context.Context, config EmailConfig) error {
	if config.CreatedAt.IsZero() {
		config.CreatedAt = time.Now()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO email_configs (id, provider, host, port, username, password, from_address,
		                           from_name, api_key, encryption, notify_to, enabled, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,now())
		ON CONFLICT (id) DO UPDATE SET
			provider=EXCLUDED.provider, host=EXCLUDED.host, port=EXCLUDED.port,
			username=EXCLUDED.username, password=EXCLUDED.password,
			from_address=EXCLUDED.from_address, from_name=EXCLUDED.from_name,
			api_key=EXCLUDED.api_key, encryption=EXCLUDED.encryption,
			notify_to=EXCLUDED.notify_to, enabled=EXCLUDED.enabled, updated_at=now()
	`, config.ID, config.Provider, config.Host, config.Port, config.Username, config.Password,
		config.FromAddress, config.FromName, config.APIKey, config.Encryption, config.NotifyTo,
		config.Enabled, config.CreatedAt)
	return err
}

// Coordination

func (s *PostgresPoolStorage) AcquireAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx, `SELECT pg_try_advisory_lock($1)`, key).Scan(&ok)
	return ok, err
}

func (s *PostgresPoolStorage) ReleaseAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx, `SELECT pg_advisory_unlock($1)`, key).Scan(&ok)
	return ok, err
}

func (s *PostgresPoolStorage) UpdateScheduledJob(ctx context.Context, name string, started time.Time, dur time.Duration, success bool, errMsg string) error {
	ok := 0
	if success {
		ok = 1
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO scheduled_jobs (name, last_run_at, last_duration_ms, last_success, last_error)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (name) DO UPDATE SET
			last_run_at=EXCLUDED.last_run_at,
			last_duration_ms=EXCLUDED.last_duration_ms,
			last_success=EXCLUDED.last_success,
			last_error=EXCLUDED.last_error
	`, name, started, dur.Milliseconds(), ok, errMsg)
	return err
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// GormStorage backs Storage with GORM over sqlite or postgres.
type GormStorage struct {
	db     *gorm.DB
	driver string
}

func NewGormStorage(driver, dsn string) (*GormStorage, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	return &GormStorage{db: db, driver: driver}, nil
}

// Migrate auto-migrates all models. Used as a fallback when goose migrations
// are disabled.
func (s *GormStorage) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&Plan{},
		&PlanCoverage{},
		&ProviderInfo{},
		&Lead{},
		&ImportRun{},
		&BatchProgress{},
		&Setting{},
		&User{},
		&Token{},
		&CasbinRule{},
		&EmailConfig{},
		&ScheduledJob{},
	)
}

// Plans

func (s *GormStorage) ListPlans(ctx context.Context, activeOnly bool) ([]Plan, error) {
	var plans []Plan
	q := s.db.WithContext(ctx).Order("id")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	return plans, q.Find(&plans).Error
}

func (s *GormStorage) GetPlan(ctx context.Context, id string) (*Plan, error) {
	var p Plan
	result := s.db.WithContext(ctx).First(&p, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &p, nil
}

func (s *GormStorage) UpsertPlan(ctx context.Context, p Plan) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	p.UpdatedAt = time.Now()
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&p).Error
}

func (s *GormStorage) DeletePlan(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Delete(&PlanCoverage{}, "plan_id = ?", id).Error; err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(&Plan{}, "id = ?", id).Error
}

func (s *GormStorage) ListPlansForZip(ctx context.Context, zip string) ([]Plan, error) {
	// One output row per coverage row on purpose; callers rank and dedupe.
	// A coverage row is a full ZIP or a 3-digit prefix.
	prefix := zip
	if len(zip) >= 3 {
		prefix = zip[:3]
	}
	var plans []Plan
	err := s.db.WithContext(ctx).
		Table("plans").
		Select("plans.*").
		Joins("JOIN plan_coverages ON plan_coverages.plan_id = plans.id").
		Where("plan_coverages.zip = ? OR plan_coverages.zip = ?", zip, prefix).
		Order("plans.id").
		Scan(&plans).Error
	return plans, err
}

// Coverage

func (s *GormStorage) ReplaceCoverage(ctx context.Context, planID string, zips []string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&PlanCoverage{}, "plan_id = ?", planID).Error; err != nil {
			return err
		}
		for _, zip := range zips {
			if err := tx.Create(&PlanCoverage{PlanID: planID, Zip: zip}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *GormStorage) ListCoverage(ctx context.Context, planID string) ([]string, error) {
	var zips []string
	err := s.db.WithContext(ctx).
		Model(&PlanCoverage{}).
		Where("plan_id = ?", planID).
		Order("zip").
		Pluck("zip", &zips).Error
	return zips, err
}

// Providers

func (s *GormStorage) ListProviders(ctx context.Context) ([]ProviderInfo, error) {
	var providers []ProviderInfo
	return providers, s.db.WithContext(ctx).Order("key").Find(&providers).Error
}

func (s *GormStorage) GetProvider(ctx context.Context, key string) (*ProviderInfo, error) {
	var p ProviderInfo
	result := s.db.WithContext(ctx).First(&p, "key = ?", key)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &p, nil
}

func (s *GormStorage) UpsertProvider(ctx context.Context, p ProviderInfo) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		UpdateAll: true,
	}).Create(&p).Error
}

func (s *GormStorage) DeleteProvider(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Delete(&ProviderInfo{}, "key = ?", key).Error
}

// Leads

func (s *GormStorage) CreateLead(ctx context.Context, l Lead) error {
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	return s.db.WithContext(ctx).Create(&l).Error
}

func (s *GormStorage) GetLead(ctx context.Context, id string) (*Lead, error) {
	var l Lead
	result := s.db.WithContext(ctx).First(&l, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &l, nil
}

func (s *GormStorage) ListLeads(ctx context.Context, limit int) ([]Lead, error) {
	var leads []Lead
	q := s.db.WithContext(ctx).Order("created_at desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	return leads, q.Find(&leads).Error
}

// Import runs

func (s *GormStorage) CreateImportRun(ctx context.Context, run ImportRun) (uint, error) {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	err := s.db.WithContext(ctx).Create(&run).Error
	return run.ID, err
}

func (s *GormStorage) CompleteImportRun(ctx context.Context, id uint, status string, planCount int, errMsg string) error {
	now := time.Now()
	return s.db.WithContext(ctx).Model(&ImportRun{}).Where("id = ?", id).Updates(map[string]any{
		"status":       status,
		"plan_count":   planCount,
		"error":        errMsg,
		"completed_at": &now,
	}).Error
}

func (s *GormStorage) LatestImportRun(ctx context.Context, source string) (*ImportRun, error) {
	var run ImportRun
	result := s.db.WithContext(ctx).Order("started_at desc").First(&run, "source = ?", source)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &run, nil
}

// Batch progress

func (s *GormStorage) SaveBatchProgress(ctx context.Context, progress BatchProgress) error {
	progress.UpdatedAt = time.Now()
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "batch_id"}, {Name: "source"}},
		UpdateAll: true,
	}).Create(&progress).Error
}

func (s *GormStorage) GetBatchProgress(ctx context.Context, batchID, source string) (*BatchProgress, error) {
	var p BatchProgress
	result := s.db.WithContext(ctx).First(&p, "batch_id = ? AND source = ?", batchID, source)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &p, nil
}

func (s *GormStorage) GetPendingBatchSources(ctx context.Context, batchID string) ([]string, error) {
	var sources []string
	err := s.db.WithContext(ctx).
		Model(&BatchProgress{}).
		Where("batch_id = ? AND status IN ?", batchID, []string{"pending", "failed"}).
		Order("source").
		Pluck("source", &sources).Error
	return sources, err
}

// Settings

func (s *GormStorage) GetSetting(ctx context.Context, key string) (string, error) {
	var setting Setting
	result := s.db.WithContext(ctx).First(&setting, "key = ?", key)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", result.Error
	}
	return setting.Value, nil
}

func (s *GormStorage) SetSetting(ctx context.Context, key, value string) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		UpdateAll: true,
	}).Create(&Setting{Key: key, Value: value, UpdatedAt: time.Now()}).Error
}

// Users

func (s *GormStorage) CreateUser(ctx context.Context, user User) error {
	return s.db.WithContext(ctx).Create(&user).Error
}

func (s *GormStorage) GetUser(ctx context.Context, id string) (*User, error) {
	var u User
	result := s.db.WithContext(ctx).First(&u, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &u, nil
}

func (s *GormStorage) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	result := s.db.WithContext(ctx).First(&u, "username = ?", username)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &u, nil
}

func (s *GormStorage) UpdateUser(ctx context.Context, user User) error {
	return s.db.WithContext(ctx).Save(&user).Error
}

func (s *GormStorage) DeleteUser(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&User{}, "id = ?", id).Error
}

func (s *GormStorage) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	return users, s.db.WithContext(ctx).Find(&users).Error
}

// Tokens

func (s *GormStorage) CreateToken(ctx context.Context, token Token) error {
	return s.db.WithContext(ctx).Create(&token).Error
}

func (s *GormStorage) GetToken(ctx context.Context, id string) (*Token, error) {
	var t Token
	result := s.db.WithContext(ctx).First(&t, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &t, nil
}

func (s *GormStorage) GetTokenByHash(ctx context.Context, hash string) (*Token, error) {
	var t Token
	result := s.db.WithContext(ctx).First(&t, "token_hash = ?", hash)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &t, nil
}

func (s *GormStorage) ListTokens(ctx context.Context, userID string) ([]Token, error) {
	var tokens []Token
	return tokens, s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&tokens).Error
}

func (s *GormStorage) DeleteToken(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&Token{}, "id = ?", id).Error
}

func (s *GormStorage) UpdateTokenLastUsed(ctx context.Context, id string) error {
	now := time.Now()
	return s.db.WithContext(ctx).Model(&Token{}).Where("id = ?", id).Update("last_used_at", &now).Error
}

// Casbin rules

func (s *GormStorage) LoadCasbinRules(ctx context.Context) ([]CasbinRule, error) {
	var rules []CasbinRule
	return rules, s.db.WithContext(ctx).Find(&rules).Error
}

func (s *GormStorage) AddCasbinRule(ctx context.Context, rule CasbinRule) error {
	return s.db.WithContext(ctx).Create(&rule).Error
}

func (s *GormStorage) RemoveCasbinRule(ctx context.Context, rule CasbinRule) error {
	return s.db.WithContext(ctx).
		Where("ptype = ? AND v0 = ? AND v1 = ? AND v2 = ?", rule.PType, rule.V0, rule.V1, rule.V2).
		Delete(&CasbinRule{}).Error
}

// Email config

func (s *GormStorage) GetEmailConfig(ctx context.Context) (*EmailConfig, error) {
	var cfg EmailConfig
	result := s.db.WithContext(ctx).First(&cfg)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &cfg, nil
}

func (s *GormStorage) SaveEmailConfig(ctx context.Context, config EmailConfig) error {
	config.UpdatedAt = time.Now()
	return s.db.WithContext(ctx).Save(&config).Error
}

// Coordination

func (s *GormStorage) AcquireAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	if s.driver == "postgres" {
		var ok bool
		err := s.db.WithContext(ctx).Raw("SELECT pg_try_advisory_lock(?)", key).Scan(&ok).Error
		return ok, err
	}
	// sqlite is single-writer; treat the lock as always held.
	return true, nil
}

func (s *GormStorage) ReleaseAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	if s.driver == "postgres" {
		var ok bool
		err := s.db.WithContext(ctx).Raw("SELECT pg_advisory_unlock(?)", key).Scan(&ok).Error
		return ok, err
	}
	return true, nil
}

func (s *GormStorage) UpdateScheduledJob(ctx context.Context, name string, started time.Time, dur time.Duration, success bool, errMsg string) error {
	job := ScheduledJob{
		Name:           name,
		LastRunAt:      started,
		LastDurationMs: dur.Milliseconds(),
		LastError:      errMsg,
	}
	if success {
		job.LastSuccess = 1
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		UpdateAll: true,
	}).Create(&job).Error
}

// Lifecycle

func (s *GormStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStorage) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

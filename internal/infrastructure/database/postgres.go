package database

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sangkips/crm-backend/internal/config"
	"github.com/sangkips/crm-backend/internal/domain/entity"
	"github.com/sangkips/crm-backend/internal/domain/enum"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens the configured database. PostgreSQL is the production
// store; sqlite is accepted for local development.
func NewDatabase(cfg *config.DatabaseConfig, debug bool, log *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.Path)
	default:
		dialector = postgres.New(postgres.Config{
			DSN:                  cfg.DSN(),
			PreferSimpleProtocol: true, // disables implicit prepared statement usage
		})
	}

	logLevel := logger.Warn
	if debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time { return time.Now().UTC() },

		// Unique violations surface as gorm.ErrDuplicatedKey.
		TranslateError: true,

		// Users are referenced, never cascaded; children are removed by the repositories.
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)

	log.Info("connected to database", zap.String("driver", cfg.Driver))
	return db, nil
}

// Models lists every persisted entity in migration order.
func Models() []interface{} {
	return []interface{}{
		&entity.User{},
		&entity.LoginHistory{},
		&entity.PasswordResetToken{},
		&entity.Lead{},
		&entity.Activity{},
		&entity.Quotation{},
		&entity.QuotationItem{},
		&entity.Company{},
		&entity.CustomFieldDefinition{},
		&entity.IdempotencyKey{},
	}
}

// AutoMigrate runs GORM auto-migration for all entities
func AutoMigrate(db *gorm.DB, log *zap.Logger) error {
	log.Info("running database migrations")
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database migrations completed")
	return nil
}

// SeedDefaultData creates the company row and, when configured, the first admin account
func SeedDefaultData(db *gorm.DB, admin *config.AdminConfig, log *zap.Logger) error {
	var company entity.Company
	err := db.First(&company).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := db.Create(&entity.Company{Name: entity.DefaultCompanyName}).Error; err != nil {
			return fmt.Errorf("seed company: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("load company: %w", err)
	}

	if admin.Email == "" || admin.Password == "" {
		return nil
	}

	email := strings.ToLower(strings.TrimSpace(admin.Email))
	var existing entity.User
	err = db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		log.Info("admin user already exists", zap.String("email", email))
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("load admin user: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	name := admin.Name
	if name == "" {
		name = "Administrator"
	}
	user := entity.User{
		Name:     name,
		Email:    email,
		Password: string(hashed),
		Role:     enum.RoleAdmin,
	}
	if err := db.Create(&user).Error; err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}
	log.Info("admin user created", zap.String("email", email))
	return nil
}

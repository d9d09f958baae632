package database

import (
	"context"
	"fmt"

	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	mysql "gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/masdikaaa/wedding-invitation/internal/config"
	"github.com/masdikaaa/wedding-invitation/internal/rsvp"
)

// Open establishes the database connection for the configured driver and
// performs schema migrations. Handlers assume the schema exists from here on;
// no request path runs DDL.
func Open(cfg config.AppConfig, logger *zap.Logger) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)

	switch cfg.DatabaseDriver {
	case config.DriverMySQL:
		db, err = gorm.Open(mysql.Open(mysqlDSN(cfg)), &gorm.Config{})
	case config.DriverSQLite:
		if cfg.DatabasePath == "" {
			return nil, fmt.Errorf("database path is required")
		}
		db, err = gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{})
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}
	if err != nil {
		return nil, err
	}

	if cfg.DatabaseDriver == config.DriverSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&rsvp.Submission{}, &migrationRecord{}); err != nil {
		return nil, err
	}

	if err := applyMigrations(db, logger); err != nil {
		return nil, err
	}

	if logger != nil {
		logger.Info("database initialized",
			zap.String("driver", cfg.DatabaseDriver))
	}

	return db, nil
}

// Ping round-trips the underlying connection pool. Used by the liveness probe.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Pinger adapts a gorm handle to the liveness probe interface.
type Pinger struct {
	db *gorm.DB
}

// NewPinger wraps the provided database handle.
func NewPinger(db *gorm.DB) *Pinger {
	return &Pinger{db: db}
}

// Ping reports whether the storage backend is reachable.
func (p *Pinger) Ping(ctx context.Context) error {
	return Ping(ctx, p.db)
}

func mysqlDSN(cfg config.AppConfig) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		cfg.DatabaseUser,
		cfg.DatabasePassword,
		cfg.DatabaseHost,
		cfg.DatabasePort,
		cfg.DatabaseName)
}

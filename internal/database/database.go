package database

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"todo/internal/config"
	"todo/internal/model"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Open connects to the database selected by cfg.DBDriver.
func Open(cfg *config.Config) (*gorm.DB, error) {
	switch cfg.DBDriver {
	case DriverPostgres, "":
		return open(postgres.Open(cfg.DSN()), cfg.AppDebug)
	case DriverSQLite:
		return OpenSQLite(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

// OpenSQLite opens a sqlite database with foreign keys enforced. A single
// connection is used so in-memory databases are shared by every query.
func OpenSQLite(dsn string) (*gorm.DB, error) {
	db, err := open(sqlite.Open(sqliteDSN(dsn)), false)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

// NewLogger returns the gorm logger used for every connection. Lookups that
// miss are an expected outcome here, so ErrRecordNotFound is not logged.
func NewLogger(w logger.Writer, debug bool) logger.Interface {
	level := logger.Warn
	if debug {
		level = logger.Info
	}
	return logger.New(w, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}

func open(dialector gorm.Dialector, debug bool) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         NewLogger(zap.NewStdLog(zap.L().Named("gorm")), debug),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	zap.L().Info("connected to database", zap.String("driver", dialector.Name()))
	return db, nil
}

func sqliteDSN(dsn string) string {
	if dsn == "" {
		dsn = "todo.db"
	}
	if strings.Contains(dsn, "_foreign_keys") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=on"
	}
	return dsn + "?_foreign_keys=on"
}

// AutoMigrate creates the schema through gorm. It is used for sqlite,
// postgres goes through the versioned SQL migrations.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Task{},
		&model.Tag{},
		&model.TaskTag{},
		&model.AccessToken{},
		&model.PasswordReset{},
	)
}

// Ping checks the connection, used by the health endpoint.
func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

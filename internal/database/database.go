package database

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/emilythestrangee/institute-hub/backend/internal/config"
	"github.com/emilythestrangee/institute-hub/backend/internal/models"
)

// Service represents a service that interacts with a database.
type Service interface {
	// Health returns a map of health status information.
	// The keys and values in the map are service-specific.
	Health() map[string]string

	// Close terminates the database connection.
	// It returns an error if the connection cannot be closed.
	Close() error
	GetDB() *gorm.DB
}

type service struct {
	db     *gorm.DB
	name   string
	logger *slog.Logger
}

// New opens the postgres pool described by cfg and migrates the schema.
func New(cfg config.Config, slogger *slog.Logger) (Service, error) {
	slogger = config.ResolveLogger(slogger)

	level := logger.Warn
	if cfg.IsDev() && cfg.LogLevel == "debug" {
		level = logger.Info
	}
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  cfg.IsDev(),
		},
	)

	db, err := Open(cfg.DSN(), gormLogger)
	if err != nil {
		return nil, err
	}
	slogger.Info("database connected", "event", "db_connected", "module", "database", "db", cfg.DBName)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	slogger.Info("database migrations completed", "event", "db_migrated", "module", "database")

	return &service{db: db, name: cfg.DBName, logger: slogger}, nil
}

// Open connects with gorm's pgx-backed postgres driver and sizes the pool.
func Open(dsn string, gormLogger logger.Interface) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormLogger,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "database: open")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "database: pool")
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// Migrate creates or updates every table the API uses.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Forum{},
		&models.Thread{},
		&models.Comment{},
		&models.Vote{},
		&models.Appointment{},
		&models.AvailabilitySlot{},
		&models.Course{},
		&models.CourseVersion{},
		&models.Group{},
		&models.Enrollment{},
		&models.EnrollmentResult{},
		&models.Module{},
		&models.Exam{},
		&models.Grade{},
		&models.Attendance{},
	)
	return errors.Wrap(err, "database: migrate")
}

func (s *service) GetDB() *gorm.DB {
	return s.db
}

// Health checks the health of the database connection by pinging the database.
func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stats := make(map[string]string)

	sqlDB, err := s.db.DB()
	if err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db error: %v", err)
		return stats
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		return stats
	}

	stats["status"] = "up"
	stats["message"] = "It's healthy"

	dbStats := sqlDB.Stats()
	stats["open_connections"] = fmt.Sprintf("%d", dbStats.OpenConnections)
	stats["in_use"] = fmt.Sprintf("%d", dbStats.InUse)
	stats["idle"] = fmt.Sprintf("%d", dbStats.Idle)

	return stats
}

// Close closes the database connection.
func (s *service) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	s.logger.Info("database disconnected", "event", "db_closed", "module", "database", "db", s.name)
	return sqlDB.Close()
}

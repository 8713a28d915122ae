package database

import (
	"fmt"
	"time"

	"hospital-appointments/internal/config"
	"hospital-appointments/internal/models"
	"hospital-appointments/pkg/logger"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Connect initializes and returns a GORM database connection
func Connect(cfg *config.Config, log *logger.Logger) (*gorm.DB, error) {
	level := gormlogger.Info
	if cfg.Server.GinMode == "release" {
		level = gormlogger.Warn
	}

	db, err := gorm.Open(mysql.Open(cfg.Database.DSN()), GormConfig(log, level))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// Set connection pool settings
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.WithComponent("database").Info("Successfully connected to database")

	return db, nil
}

// GormConfig is shared by the MySQL connection and the SQLite test database.
// Timestamps are UTC and driver errors are translated to gorm.ErrDuplicatedKey etc.
func GormConfig(log *logger.Logger, level gormlogger.LogLevel) *gorm.Config {
	return &gorm.Config{
		Logger: gormlogger.New(
			log.WithComponent("gorm"),
			gormlogger.Config{
				SlowThreshold:             200 * time.Millisecond,
				LogLevel:                  level,
				IgnoreRecordNotFoundError: true,
			},
		),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		TranslateError: true,
	}
}

// Migrate creates or updates every table the service owns
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Hospital{},
		&models.Patient{},
		&models.Doctor{},
		&models.DoctorAppointment{},
		&models.Appointment{},
		&models.AuditLog{},
		&models.RefreshToken{},
	)
}

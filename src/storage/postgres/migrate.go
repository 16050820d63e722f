package postgres

import (
	"fmt"

	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"evalviewer/src/infrastructure/job"
	"evalviewer/src/storage/postgres/runctrl"
	"evalviewer/src/storage/postgres/sessionctrl"
)

// Config holds the connection settings of the postgres database
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	DB       string
}

func (c Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.Host, c.User, c.Password, c.DB, c.Port)
}

// Open connects to postgres and migrates the tables evalviewer owns
func Open(cfg Config) (*gorm.DB, error) {
	db, err := gorm.Open(pgdriver.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&job.Job{}, &runctrl.Result{}, &sessionctrl.NavigationSession{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

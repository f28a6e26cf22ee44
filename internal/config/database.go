package config

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"robux-topup-backend/pkg/log"
)

// InitDB opens the postgres connection, retrying while the database comes up.
func InitDB(cfg Postgres) (*gorm.DB, error) {
	l := log.GetLogger()

	attempts := cfg.MaxConnAttempts
	if attempts < 1 {
		attempts = 1
	}

	var db *gorm.DB
	var err error
	for i := 1; i <= attempts; i++ {
		db, err = gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
		if err == nil {
			sqlDB, dbErr := db.DB()
			if dbErr == nil {
				if err = sqlDB.Ping(); err == nil {
					sqlDB.SetMaxOpenConns(25)
					sqlDB.SetMaxIdleConns(5)
					sqlDB.SetConnMaxLifetime(5 * time.Minute)
					l.Info().Str("host", cfg.Host).Str("db", cfg.Name).Msg("database connection established")
					return db, nil
				}
			} else {
				err = dbErr
			}
		}
		l.Warn().Err(err).Int("attempt", i).Int("of", attempts).Msg("waiting for database")
		if i < attempts {
			time.Sleep(2 * time.Second)
		}
	}
	return nil, fmt.Errorf("could not reach database after %d attempts: %w", attempts, err)
}

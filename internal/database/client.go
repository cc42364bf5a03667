// Package database opens gorm connections to PostgreSQL/TimescaleDB
package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/chrissnell/solarclear/internal/log"
	"go.uber.org/zap"
)

// GormLogger routes gorm's warnings and slow-query reports through zap
func GormLogger() logger.Interface {
	return logger.New(
		zap.NewStdLog(log.GetZapLogger()),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// CreateConnection is a helper function to create a database connection with standard GORM configuration
func CreateConnection(connectionString string) (*gorm.DB, error) {
	log.Info("connecting to PostgreSQL...")
	db, err := gorm.Open(postgres.Open(connectionString), &gorm.Config{Logger: GormLogger()})
	if err != nil {
		log.Warn("warning: unable to create a PostgreSQL connection:", err)
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}
	log.Info("PostgreSQL connection successful")

	return db, nil
}

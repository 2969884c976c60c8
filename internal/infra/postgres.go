package infra

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"tripmate/internal/models/db_models"
	"tripmate/pkg/logger"
)

// InitPostgresql opens the database and migrates the trip tables. An empty
// dsn returns a nil handle; callers then fall back to in-memory storage.
func InitPostgresql(dsn string, withEmbeddings bool) (*gorm.DB, error) {
	if dsn == "" {
		logger.Log.Info("POSTGRES_URL not set, using in-memory storage")
		return nil, nil
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := db.AutoMigrate(&db_models.Trip{}); err != nil {
		return nil, fmt.Errorf("migrate trips: %w", err)
	}
	if withEmbeddings {
		if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
			return nil, fmt.Errorf("enable pgvector: %w", err)
		}
		if err := db.AutoMigrate(&db_models.DestinationEmbedding{}); err != nil {
			return nil, fmt.Errorf("migrate destination embeddings: %w", err)
		}
	}
	logger.Log.Info("connected to postgres", zap.Bool("embeddings", withEmbeddings))
	return db, nil
}

func ClosePostgresql(db *gorm.DB) {
	if db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Log.Warn("get database instance", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		logger.Log.Warn("close database connection", zap.Error(err))
	} else {
		logger.Log.Info("PostgreSQL database connection closed")
	}
}

func StartTransaction(db *gorm.DB) *gorm.DB {
	tx := db.Begin()
	if tx.Error != nil {
		logger.Log.Warn("start transaction", zap.Error(tx.Error))
	}
	return tx
}

// ReleaseTransaction commits tx, or rolls it back when err is set.
func ReleaseTransaction(tx *gorm.DB, err error) error {
	if err != nil {
		if rollbackErr := tx.Rollback().Error; rollbackErr != nil {
			logger.Log.Warn("rollback transaction", zap.Error(rollbackErr))
		}
		return err
	}
	if commitErr := tx.Commit().Error; commitErr != nil {
		return fmt.Errorf("commit: %w", commitErr)
	}
	return nil
}

package database

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/inkweave/inkweave-backend/internal/config"
	"github.com/inkweave/inkweave-backend/internal/models"
)

var DB *gorm.DB

func Connect(cfg *config.Config) error {
	var err error
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	slog.Info("database connected")
	return nil
}

// Migrate runs AutoMigrate for all models.
func Migrate() error {
	return DB.AutoMigrate(AllModels()...)
}

// AllModels lists every persisted model, in dependency order. Shared with
// the test helper so migrations never drift from production.
func AllModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.RefreshToken{},
		&models.Board{},
		&models.BoardAuthor{},
		&models.BoardSection{},
		&models.Thread{},
		&models.ThreadViewer{},
		&models.ThreadCircle{},
		&models.Reply{},
		&models.AccessCircle{},
		&models.CircleMember{},
		&models.Block{},
		&models.ThreadAuthor{},
		&models.ThreadView{},
		&models.BoardView{},
		&models.Tag{},
		&models.ThreadTag{},
		&models.Favorite{},
		&models.SystemLog{},
	}
}

func Ping() error {
	sqlDB, err := DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

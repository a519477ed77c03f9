package database

import (
	"coder_edu_progress/internal/config"
	"coder_edu_progress/internal/model"
	"coder_edu_progress/pkg/logger"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func dsn(cfg *config.DatabaseConfig) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)
}

// InitDB 连接 MySQL。debug 模式或带 -migrate 启动时执行迁移和默认数据初始化。
func InitDB(cfg *config.Config) (*gorm.DB, error) {
	logLevel := gormlogger.Warn
	if cfg.Server.Mode == "debug" {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(mysql.Open(dsn(&cfg.Database)), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
		// 唯一约束冲突统一翻译为 gorm.ErrDuplicatedKey，证书签发依赖它判断冲突
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("database connection established", zap.String("host", cfg.Database.Host))

	if cfg.Server.Mode == "debug" || cfg.ForceMigrate {
		if err := Migrate(db, cfg.Engine.SeedAchievements); err != nil {
			return nil, err
		}
	}

	return db, nil
}

func Migrate(db *gorm.DB, seed bool) error {
	if err := db.AutoMigrate(model.AllModels()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	logger.Log.Info("database migration completed")

	if !seed {
		return nil
	}
	n, err := SeedAchievements(db)
	if err != nil {
		return fmt.Errorf("seed achievements: %w", err)
	}
	if n > 0 {
		logger.Log.Info("seeded default achievements", zap.Int("count", n))
	}
	return nil
}

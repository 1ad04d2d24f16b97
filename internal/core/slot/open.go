package slot

import (
	"context"
	"fmt"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"car-classifieds/internal/core/config"
	"car-classifieds/internal/core/database"
	"car-classifieds/internal/core/logger"
)

// Open 按 storage.backend 构造槽位；返回的 cleanup 负责释放连接
func Open(ctx context.Context, cfg *config.Config, l *zap.Logger) (Slot, func(), error) {
	switch cfg.Storage.Backend {
	case "file":
		l.Info("slot: file", zap.String("path", cfg.Storage.FilePath))
		return NewFileSlot(afero.NewOsFs(), cfg.Storage.FilePath), func() {}, nil

	case "redis":
		rdb := NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("redis ping %s: %w", cfg.Redis.Addr, err)
		}
		l.Info("slot: redis", zap.String("addr", cfg.Redis.Addr), zap.String("key", cfg.Storage.SlotKey))
		return NewRedisSlot(rdb, cfg.Storage.SlotKey), func() { _ = rdb.Close() }, nil

	case "db":
		stdl, err := logger.ToStdLogger(l.Named("gorm"), zapcore.WarnLevel)
		if err != nil {
			return nil, nil, err
		}
		db, err := database.NewGorm(database.Opts{
			Driver:             cfg.DB.Driver,
			DSN:                cfg.DB.DSN,
			Username:           cfg.DB.Username,
			Password:           cfg.DB.Password,
			MaxOpenConns:       cfg.DB.MaxOpenConns,
			MaxIdleConns:       cfg.DB.MaxIdleConns,
			ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
			LogLevel:           cfg.DB.LogLevel,
			Writer:             stdl,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("open db: %w", err)
		}
		if cfg.DB.AutoMigrate {
			if err := db.WithContext(ctx).AutoMigrate(&SlotModel{}); err != nil {
				return nil, nil, fmt.Errorf("automigrate kv_slots: %w", err)
			}
		}
		cleanup := func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		l.Info("slot: db", zap.String("driver", cfg.DB.Driver), zap.String("key", cfg.Storage.SlotKey))
		return NewGormSlot(db, cfg.Storage.SlotKey), cleanup, nil
	}
	return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}

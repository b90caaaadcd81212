package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrDirtyMigration 上次迁移中途失败，需人工修复 users 表后再 force 版本
var ErrDirtyMigration = errors.New("users schema migration left dirty")

// RunMigrations 将 users 表结构升级到二进制内嵌的最新版本
//
// 启动时调用；上次迁移处于 dirty 状态时直接拒绝启动，不在半成品结构上继续写入。
func RunMigrations(db *sql.DB, logger *zap.Logger) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("读取内嵌迁移脚本: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("准备 postgres 迁移驱动: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("创建迁移器: %w", err)
	}

	from, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		from = 0
	case err != nil:
		return fmt.Errorf("读取当前 schema 版本: %w", err)
	case dirty:
		return fmt.Errorf("%w (version %d)", ErrDirtyMigration, from)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("升级 users schema（自版本 %d）: %w", from, err)
	}

	to, _, err := m.Version()
	if err != nil {
		return fmt.Errorf("读取升级后 schema 版本: %w", err)
	}
	if to == from {
		logger.Info("users schema 已是最新", zap.Uint("version", to))
	} else {
		logger.Info("users schema 已升级", zap.Uint("from", from), zap.Uint("to", to))
	}
	return nil
}

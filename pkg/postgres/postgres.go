package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shenikar/resq_dispatch/internal/config"
	"github.com/sirupsen/logrus"
)

// NewPostgresDB создает новый пул соединений PostgreSQL
func NewPostgresDB(ctx context.Context, appCfg *config.Config) (*pgxpool.Pool, error) {
	cfgPool, err := pgxpool.ParseConfig(appCfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("ошибка при разборе конфигурации postgres: %w", err)
	}
	if appCfg.DBMaxConns > 0 {
		cfgPool.MaxConns = int32(appCfg.DBMaxConns)
	}

	dbpool, err := pgxpool.NewWithConfig(ctx, cfgPool)
	if err != nil {
		return nil, fmt.Errorf("не удалось создать пул соединений: %w", err)
	}

	// Проверяем соединение с базой данных
	if err := dbpool.Ping(ctx); err != nil {
		dbpool.Close()
		return nil, fmt.Errorf("не удалось выполнить ping к postgres: %w", err)
	}

	return dbpool, nil
}

// MigrationURL переводит DSN postgres:// в схему драйвера pgx5 для golang-migrate
func MigrationURL(databaseURL string) string {
	switch {
	case strings.HasPrefix(databaseURL, "pgx5://"):
		return databaseURL
	case strings.HasPrefix(databaseURL, "postgresql://"):
		return "pgx5://" + strings.TrimPrefix(databaseURL, "postgresql://")
	default:
		return strings.Replace(databaseURL, "postgres://", "pgx5://", 1)
	}
}

// RunMigrations применяет миграции из sourceURL (например, file://migrations)
func RunMigrations(appCfg *config.Config, log *logrus.Logger) error {
	log.Info("Running database migrations...")

	m, err := migrate.New(appCfg.MigrationsPath, MigrationURL(appCfg.DatabaseURL))
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("Database migrations applied successfully")
	return nil
}

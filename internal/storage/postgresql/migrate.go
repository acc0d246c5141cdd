package postgresql

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// NewMigrator открывает отдельное соединение через lib/pq и готовит migrate
// со встроенными SQL-миграциями. Закрыть его должен вызывающий (m.Close()).
func NewMigrator(databaseURL string) (*migrate.Migrate, error) {
	const op = "storage.postgresql.NewMigrator"

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create migration source: %w", op, err)
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: failed to create migration driver: %w", op, err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		_ = driver.Close()
		return nil, fmt.Errorf("%s: failed to create migrator: %w", op, err)
	}

	return m, nil
}

// RunMigrations применяет все миграции. Если схема уже актуальна, ошибки нет.
func RunMigrations(databaseURL string) error {
	const op = "storage.postgresql.RunMigrations"

	m, err := NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

package persistence

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// RunMigrations brings the ledger schema up to date. A dirty schema is
// reported with its version and never forced.
func RunMigrations(databaseURL string, migrationsPath string) error {
	source, err := migrationSource(migrationsPath)
	if err != nil {
		return err
	}
	if databaseURL == "" {
		return errors.New("database URL cannot be empty")
	}

	m, err := migrate.New(source, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open migrations at %s: %w", source, err)
	}
	defer m.Close()

	upErr := m.Up()
	var dirty migrate.ErrDirty
	switch {
	case upErr == nil, errors.Is(upErr, migrate.ErrNoChange):
		return nil
	case errors.As(upErr, &dirty):
		return fmt.Errorf("ledger schema is dirty at version %d: %w", dirty.Version, upErr)
	}
	return fmt.Errorf("failed to apply ledger migrations: %w", upErr)
}

// migrationSource turns a directory into a file:// source URL and passes
// anything that already names a scheme through
func migrationSource(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", errors.New("migrations path cannot be empty")
	}
	if strings.Contains(path, "://") {
		return path, nil
	}
	return "file://" + path, nil
}

package db

import (
	"embed"
	"io/fs"
	"os"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DevMode reads migrations from MigrationsDir on disk instead of the copy
// embedded in the binary.
var DevMode = false

// MigrationsDir is the on-disk migrations directory used in DevMode.
var MigrationsDir = "internal/db/migrations"

// getMigrationsFS returns a filesystem whose root holds the *.sql files.
func getMigrationsFS() (fs.FS, error) {
	if DevMode {
		if _, err := os.Stat(MigrationsDir); err != nil {
			return nil, err
		}
		return os.DirFS(MigrationsDir), nil
	}
	return fs.Sub(migrationsFS, "migrations")
}

// MigrationsFS is the filesystem used by NewDB and the migrate command.
func MigrationsFS() (fs.FS, error) {
	return getMigrationsFS()
}

package migrate

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	upRegex   = regexp.MustCompile(`^(\d+)_(.+)\.up\.sql$`)
	downRegex = regexp.MustCompile(`^(\d+)_(.+)\.down\.sql$`)
)

// FileProvider loads NNN_name.up.sql / NNN_name.down.sql pairs from a file
// system, either a directory on disk or an embedded one
type FileProvider struct {
	fsys           fs.FS
	migrationTable string
	dbDriver       string // "sqlite" or "postgres"
}

// NewFileProvider reads migrations from a directory on disk
func NewFileProvider(dir, migrationTable, dbDriver string) *FileProvider {
	return NewFSProvider(os.DirFS(dir), migrationTable, dbDriver)
}

// NewFSProvider reads migrations from the root of fsys
func NewFSProvider(fsys fs.FS, migrationTable, dbDriver string) *FileProvider {
	if migrationTable == "" {
		migrationTable = "schema_migrations"
	}
	if dbDriver == "" {
		dbDriver = "postgres"
	}
	return &FileProvider{
		fsys:           fsys,
		migrationTable: migrationTable,
		dbDriver:       dbDriver,
	}
}

// GetMigrations loads all migrations, sorted by version
func (fp *FileProvider) GetMigrations() ([]Migration, error) {
	byVersion := make(map[int]*Migration)

	err := fs.WalkDir(fp.fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		up := true
		matches := upRegex.FindStringSubmatch(d.Name())
		if matches == nil {
			up = false
			matches = downRegex.FindStringSubmatch(d.Name())
		}
		if matches == nil {
			return nil
		}

		version, err := strconv.Atoi(matches[1])
		if err != nil {
			return fmt.Errorf("invalid version number in file %s: %w", d.Name(), err)
		}
		content, err := fs.ReadFile(fp.fsys, path)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", path, err)
		}

		mg := byVersion[version]
		if mg == nil {
			mg = &Migration{Version: version, Name: strings.ReplaceAll(matches[2], "_", " ")}
			byVersion[version] = mg
		}
		if up {
			mg.Up = string(content)
		} else {
			mg.Down = string(content)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	migrations := make([]Migration, 0, len(byVersion))
	for _, mg := range byVersion {
		migrations = append(migrations, *mg)
	}
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

// CreateMigrationTable creates the version tracking table
func (fp *FileProvider) CreateMigrationTable(ctx context.Context, db DB) error {
	column := "TIMESTAMP"
	if fp.dbDriver == "sqlite" {
		column = "DATETIME"
	}
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version INTEGER PRIMARY KEY,
			applied_at %s DEFAULT CURRENT_TIMESTAMP
		)`, fp.migrationTable, column)

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create migration table: %w", err)
	}
	return nil
}

// GetCurrentVersion returns the highest applied migration version
func (fp *FileProvider) GetCurrentVersion(ctx context.Context, db DB) (int, error) {
	query := fmt.Sprintf("SELECT COALESCE(MAX(version), 0) FROM %s", fp.migrationTable)

	var version int
	if err := db.QueryRowContext(ctx, query).Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get current version: %w", err)
	}
	return version, nil
}

// SetVersion records version as applied. Rolling back removes the rows above it.
func (fp *FileProvider) SetVersion(ctx context.Context, db DB, version int) error {
	del := fmt.Sprintf("DELETE FROM %s WHERE version > %s", fp.migrationTable, fp.placeholder())
	if _, err := db.ExecContext(ctx, del, version); err != nil {
		return fmt.Errorf("failed to set version: %w", err)
	}
	if version == 0 {
		return nil
	}

	var ins string
	if fp.dbDriver == "postgres" {
		ins = fmt.Sprintf(`INSERT INTO %s (version, applied_at) VALUES ($1, CURRENT_TIMESTAMP)
			ON CONFLICT (version) DO UPDATE SET applied_at = CURRENT_TIMESTAMP`, fp.migrationTable)
	} else {
		ins = fmt.Sprintf(`INSERT OR REPLACE INTO %s (version, applied_at) VALUES (?, CURRENT_TIMESTAMP)`, fp.migrationTable)
	}
	if _, err := db.ExecContext(ctx, ins, version); err != nil {
		return fmt.Errorf("failed to set version: %w", err)
	}
	return nil
}

func (fp *FileProvider) placeholder() string {
	if fp.dbDriver == "postgres" {
		return "$1"
	}
	return "?"
}

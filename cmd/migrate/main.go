package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	_ "github.com/jackc/pgx/v5/stdlib" // Postgres driver, registered as "pgx"
	_ "github.com/lib/pq"              // Postgres driver, registered as "postgres"
	_ "modernc.org/sqlite"             // SQLite driver

	"github.com/chrissnell/remoteclimate/internal/log"
	"github.com/chrissnell/remoteclimate/internal/storage/climatedb"
	"github.com/chrissnell/remoteclimate/pkg/migrate"
)

func main() {
	var (
		dbDriver       = flag.String("driver", "pgx", "Database driver (pgx, postgres, sqlite)")
		dbDSN          = flag.String("dsn", "", "Database connection string")
		migrationDir   = flag.String("dir", "", "Migration directory (default: the embedded climate migrations)")
		migrationTable = flag.String("table", climatedb.MigrationTable, "Migration table name")
		command        = flag.String("command", "up", "Migration command: up, down, to, version, status")
		targetVersion  = flag.String("target", "", "Target version for down/to commands")
		debug          = flag.Bool("debug", false, "Turn on debugging output")
		helpFlag       = flag.Bool("help", false, "Show help")
	)

	flag.Parse()

	if *helpFlag {
		showHelp()
		return
	}

	if *dbDSN == "" {
		fmt.Fprintf(os.Stderr, "Error: -dsn flag is required\n")
		showHelp()
		os.Exit(1)
	}

	if err := log.Init(*debug, ""); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(context.Background(), *dbDriver, *dbDSN, *migrationDir, *migrationTable, *command, *targetVersion); err != nil {
		log.Errorf("Migration command failed: %v", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, driver, dsn, dir, table, command, target string) error {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	dialect := driver
	if driver == "pgx" {
		dialect = "postgres"
	}

	var provider *migrate.FileProvider
	if dir == "" {
		provider = migrate.NewFSProvider(climatedb.Migrations(), table, dialect)
	} else {
		provider = migrate.NewFileProvider(dir, table, dialect)
	}
	migrator := migrate.NewMigrator(db, provider, log.GetSugaredLogger())

	switch command {
	case "up":
		err = migrator.MigrateUp(ctx)
	case "down", "to":
		if target == "" {
			return fmt.Errorf("-target flag is required for %s command", command)
		}
		v, convErr := strconv.Atoi(target)
		if convErr != nil {
			return fmt.Errorf("invalid target version: %w", convErr)
		}
		if command == "down" {
			err = migrator.MigrateDown(ctx, v)
		} else {
			err = migrator.MigrateTo(ctx, v)
		}
	case "version":
		v, verr := migrator.CurrentVersion(ctx)
		if verr != nil {
			return verr
		}
		fmt.Printf("Current version: %d\n", v)
		return nil
	case "status":
		return showStatus(ctx, migrator)
	default:
		showHelp()
		return fmt.Errorf("unknown command: %s", command)
	}

	if err != nil {
		return err
	}
	fmt.Println("Migration completed successfully")
	return nil
}

func showStatus(ctx context.Context, migrator *migrate.Migrator) error {
	statuses, err := migrator.Status(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "VERSION\tNAME\tAPPLIED")
	for _, s := range statuses {
		fmt.Fprintf(w, "%d\t%s\t%v\n", s.Version, s.Name, s.Applied)
	}
	return w.Flush()
}

func showHelp() {
	fmt.Println("Climate Database Migration Tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  migrate [flags]")
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  -driver string     Database driver: pgx, postgres or sqlite (default: pgx)")
	fmt.Println("  -dsn string        Database connection string (required)")
	fmt.Println("  -dir string        Migration directory (default: embedded climate migrations)")
	fmt.Printf("  -table string      Migration table name (default: %s)\n", climatedb.MigrationTable)
	fmt.Println("  -command string    Migration command (default: up)")
	fmt.Println("  -target string     Target version for down/to commands")
	fmt.Println("  -help              Show this help message")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  up                 Apply all pending migrations")
	fmt.Println("  down               Roll back to target version")
	fmt.Println("  to                 Migrate to specific version (up or down)")
	fmt.Println("  version            Show current migration version")
	fmt.Println("  status             Show migration status")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  migrate -dsn postgres://climate@localhost/climate?sslmode=disable -command up")
	fmt.Println("  migrate -dsn postgres://climate@localhost/climate -command down -target 1")
	fmt.Println("  migrate -dsn postgres://climate@localhost/climate -command status")
}

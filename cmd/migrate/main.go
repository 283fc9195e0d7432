package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/chrissnell/ctsmpost/internal/log"
	"github.com/chrissnell/ctsmpost/internal/store"
	"github.com/chrissnell/ctsmpost/pkg/config"
	"github.com/chrissnell/ctsmpost/pkg/migrate"
)

func main() {
	var (
		cfgFile       = flag.String("config", "", "YAML configuration file to take the database settings from")
		dbDriver      = flag.String("driver", "", "Database driver (sqlite, postgres, pgx); overrides the configuration")
		dbDSN         = flag.String("dsn", "", "Database connection string; overrides the configuration")
		command       = flag.String("command", "status", "Migration command: up, down, to, version, status")
		targetVersion = flag.String("target", "", "Target version for down/to commands")
		debug         = flag.Bool("debug", false, "Turn on debugging output")
		helpFlag      = flag.Bool("help", false, "Show help")
	)

	flag.Parse()

	if *helpFlag {
		showHelp()
		return
	}

	if err := log.Init(*debug, ""); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *dbDriver != "" {
		cfg.Database.Driver = *dbDriver
	}
	if *dbDSN != "" {
		cfg.Database.DSN = *dbDSN
	}

	ctx := context.Background()
	st, err := store.Connect(ctx, cfg.Database.Driver, cfg.Database.DSN, log.GetSugaredLogger())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer st.Close()

	migrator := st.Migrator()

	switch *command {
	case "up":
		err = migrator.MigrateUp(ctx)
	case "down", "to":
		var target int
		target, err = parseTarget(*command, *targetVersion)
		if err != nil {
			break
		}
		if *command == "down" {
			err = migrator.MigrateDown(ctx, target)
		} else {
			err = migrator.MigrateTo(ctx, target)
		}
	case "version":
		version, err := migrator.GetCurrentVersion(ctx)
		if err != nil {
			log.Fatalf("Failed to get current version: %v", err)
		}
		fmt.Printf("Current version: %d\n", version)
		return
	case "status":
		err = showStatus(ctx, migrator)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", *command)
		showHelp()
		os.Exit(1)
	}

	if err != nil {
		log.Fatalf("Migration command failed: %v", err)
	}

	log.Infow("migration command completed", "command", *command, "driver", cfg.Database.Driver)
}

func parseTarget(command, target string) (int, error) {
	if target == "" {
		return 0, fmt.Errorf("-target flag is required for %s command", command)
	}
	v, err := strconv.Atoi(target)
	if err != nil {
		return 0, fmt.Errorf("invalid target version: %w", err)
	}
	return v, nil
}

func showStatus(ctx context.Context, migrator *migrate.Migrator) error {
	currentVersion, err := migrator.GetCurrentVersion(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	pending, err := migrator.GetPendingMigrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to get pending migrations: %w", err)
	}

	fmt.Printf("Current version: %d\n", currentVersion)
	fmt.Printf("Pending migrations: %d\n", len(pending))

	if len(pending) > 0 {
		fmt.Println("\nPending migrations:")
		for _, migration := range pending {
			fmt.Printf("  %d: %s\n", migration.Version, migration.Name)
		}
	}

	return nil
}

func showHelp() {
	fmt.Println("Calendar database migration tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  migrate [flags]")
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  -config string     YAML configuration file (default: defaults and CTSMPOST_* environment)")
	fmt.Println("  -driver string     Database driver, overrides the configuration")
	fmt.Println("  -dsn string        Database connection string, overrides the configuration")
	fmt.Println("  -command string    Migration command (default: status)")
	fmt.Println("  -target string     Target version for down/to commands")
	fmt.Println("  -debug             Turn on debugging output")
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
	fmt.Println("  migrate -dsn ctsmpost.db -command up")
	fmt.Println("  migrate -driver pgx -dsn postgres://localhost/ctsm -command down -target 0")
	fmt.Println("  migrate -config ctsmpost.yaml -command status")
}

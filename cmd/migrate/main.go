package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/lib/pq"
	identityapp "github.com/remotive/saleshub/internal/application/identity"
	"github.com/remotive/saleshub/internal/infrastructure/config"
	"github.com/remotive/saleshub/internal/infrastructure/event"
	"github.com/remotive/saleshub/internal/infrastructure/logger"
	"github.com/remotive/saleshub/internal/infrastructure/migration"
	"github.com/remotive/saleshub/internal/infrastructure/persistence"
	"github.com/remotive/saleshub/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const defaultMigrationsPath = "migrations"

// bootstrapPasswordEnv supplies the owner password so it never appears in
// shell history.
const bootstrapPasswordEnv = "SALESHUB_BOOTSTRAP_PASSWORD"

func main() {
	var (
		migrationsPath string
		logLevel       string
		embedded       bool
	)

	flag.StringVar(&migrationsPath, "path", "", "Path to migrations directory (default: ./migrations)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.BoolVar(&embedded, "embedded", false, "Use the migrations compiled into the binary")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log := logger.New(logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	defer logger.Sync(log)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	if migrationsPath == "" {
		migrationsPath = findMigrationsDir()
	}
	absPath, err := filepath.Abs(migrationsPath)
	if err != nil {
		log.Fatal("Failed to get absolute path", zap.Error(err))
	}
	migrationsPath = absPath

	log.Info("Migration CLI started",
		zap.String("command", command),
		zap.String("migrations_path", migrationsPath),
		zap.Bool("embedded", embedded),
	)

	// Commands that work on files only.
	switch command {
	case "create":
		if len(args) < 2 {
			log.Fatal("Migration name required. Usage: migrate create <name> [description]")
		}
		description := ""
		if len(args) > 2 {
			description = args[2]
		}
		mf, err := migration.CreateMigration(migrationsPath, args[1], description)
		if err != nil {
			log.Fatal("Failed to create migration", zap.Error(err))
		}
		log.Info("Migration created successfully",
			zap.Uint("version", mf.Version),
			zap.String("up_file", mf.UpPath),
			zap.String("down_file", mf.DownPath),
		)
		return

	case "list":
		files, err := migration.ListMigrations(migrationsPath)
		if err != nil {
			log.Fatal("Failed to list migrations", zap.Error(err))
		}
		if len(files) == 0 {
			log.Info("No migrations found")
			return
		}
		log.Info("Available migrations", zap.Int("count", len(files)))
		for _, m := range files {
			fmt.Println("  -", m)
		}
		return

	case "bootstrap":
		runBootstrap(cfg, args[1:], log)
		return
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database", zap.Error(err))
	}

	src := migration.Dir(migrationsPath)
	if embedded {
		src = migration.Embedded()
	}
	m, err := migration.New(db, src, log)
	if err != nil {
		log.Fatal("Failed to create migrator", zap.Error(err))
	}
	defer m.Close()

	switch command {
	case "up":
		if err := m.Up(); err != nil {
			log.Fatal("Migration up failed", zap.Error(err))
		}

	case "down":
		if err := m.Down(); err != nil {
			log.Fatal("Migration down failed", zap.Error(err))
		}

	case "step":
		if len(args) < 2 {
			log.Fatal("Step count required. Usage: migrate step <n>")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatal("Invalid step count", zap.String("value", args[1]))
		}
		if err := m.Steps(n); err != nil {
			log.Fatal("Migration step failed", zap.Error(err))
		}

	case "goto":
		if len(args) < 2 {
			log.Fatal("Version required. Usage: migrate goto <version>")
		}
		version, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			log.Fatal("Invalid version number", zap.String("value", args[1]))
		}
		if err := m.GoTo(uint(version)); err != nil {
			log.Fatal("Migration goto failed", zap.Error(err))
		}

	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			log.Fatal("Failed to get version", zap.Error(err))
		}
		if version == 0 {
			log.Info("No migrations applied")
		} else {
			log.Info("Current migration version",
				zap.Uint("version", version),
				zap.Bool("dirty", dirty),
			)
		}

	case "force":
		if len(args) < 2 {
			log.Fatal("Version required. Usage: migrate force <version>")
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			log.Fatal("Invalid version number", zap.String("value", args[1]))
		}
		log.Warn("Forcing migration version - use with caution!")
		if err := m.Force(version); err != nil {
			log.Fatal("Force version failed", zap.Error(err))
		}

	case "drop":
		confirm := false
		for _, arg := range args[1:] {
			if arg == "-confirm" || arg == "--confirm" {
				confirm = true
				break
			}
		}
		if !confirm {
			log.Fatal("Drop cancelled. Use 'migrate drop -confirm' to confirm.")
		}
		if err := m.Drop(); err != nil {
			log.Fatal("Drop failed", zap.Error(err))
		}

	default:
		log.Error("Unknown command", zap.String("command", command))
		printUsage()
		os.Exit(1)
	}
}

func findMigrationsDir() string {
	if _, err := os.Stat(defaultMigrationsPath); err == nil {
		return defaultMigrationsPath
	}
	if execPath, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(execPath), "..", "..", defaultMigrationsPath)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return defaultMigrationsPath
}

// runBootstrap creates a dealership with its owner account and prints the
// inbound API key once.
func runBootstrap(cfg *config.Config, args []string, log *zap.Logger) {
	if len(args) < 4 {
		log.Fatal("Usage: migrate bootstrap <code> <name> <owner-email> <owner-name>")
	}
	password := os.Getenv(bootstrapPasswordEnv)
	if password == "" {
		log.Fatal("Owner password required", zap.String("env", bootstrapPasswordEnv))
	}

	database, err := persistence.NewDatabase(&cfg.Database, cfg.Log, telemetry.DBTracingConfig{}, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	bus := event.NewInMemoryEventBus(log)
	tenants := identityapp.NewTenantService(
		persistence.NewGormTenantRepository(database.DB),
		persistence.NewGormUserRepository(database.DB),
		cfg.CRM.DealershipSettings(),
		bus,
		log,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	result, err := tenants.Bootstrap(ctx, identityapp.BootstrapInput{
		Code:       args[0],
		Name:       args[1],
		OwnerEmail: args[2],
		OwnerName:  args[3],
		Password:   password,
	})
	if err != nil {
		log.Fatal("Bootstrap failed", zap.Error(err))
	}

	log.Info("Dealership created",
		zap.String("tenant_id", result.Tenant.ID.String()),
		zap.String("code", result.Tenant.Code),
		zap.String("owner_id", result.Owner.ID.String()),
	)
	fmt.Println("Inbound API key (shown once):", result.InboundKey)
}

func printUsage() {
	fmt.Println(`SalesHub Database Migration Tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down                  Roll back all migrations
  step <n>              Apply n migrations (positive=up, negative=down)
  goto <version>        Migrate to a specific version
  version               Show current migration version
  force <version>       Force set migration version (use with caution)
  drop -confirm         Drop all database objects (DANGEROUS)
  create <name> [desc]  Create a new migration file pair
  list                  List available migrations
  bootstrap <code> <name> <owner-email> <owner-name>
                        Create a dealership and its owner account

Flags:
  -path string          Path to migrations directory (default: ./migrations)
  -embedded             Use the migrations compiled into the binary
  -log-level string     Log level: debug, info, warn, error (default: info)

Environment Variables:
  SALESHUB_DATABASE_HOST, SALESHUB_DATABASE_PORT, SALESHUB_DATABASE_USER,
  SALESHUB_DATABASE_PASSWORD, SALESHUB_DATABASE_DBNAME, SALESHUB_DATABASE_SSLMODE
  SALESHUB_BOOTSTRAP_PASSWORD  Owner password for bootstrap

Examples:
  migrate up
  migrate step -1
  migrate create add_trade_ins "Track trade-in units on deliveries"
  SALESHUB_BOOTSTRAP_PASSWORD=... migrate bootstrap PRAIRIE "Prairie Trailers" olive@prairie.test "Olive Park"`)
}

package main

import (
	"context"
	"database/sql"
	"embed"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"sort"

	"balance-topup/internal/config"
	"balance-topup/internal/database"
	"balance-topup/internal/models"
	"balance-topup/internal/repository"
	"balance-topup/internal/services"

	_ "github.com/lib/pq"
)

//go:embed sql/*.sql
var migrations embed.FS

func main() {
	promote := flag.Int64("promote", 0, "telegram id of an existing user to grant SUPER_ADMIN")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	if err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.AutoMigrate(database.GetDB()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	if cfg.Database.Driver == "sqlite" {
		log.Println("sqlite database, skipping postgres constraint migrations")
	} else if err := applySQLMigrations(cfg.GetDSN()); err != nil {
		log.Fatalf("Failed to apply constraint migrations: %v", err)
	}

	ctx := context.Background()
	repo := repository.NewRepository(database.GetDB())

	seeded, err := services.NewSettingsService(repo, nil).SeedDefaults(ctx)
	if err != nil {
		log.Fatalf("Failed to seed payment settings: %v", err)
	}
	log.Printf("Seeded %d payment setting(s)", seeded)

	if *promote != 0 {
		admins := services.NewAdminService(repo, cfg.Telegram.AdminIDs)
		if _, err := admins.PromoteUserToAdmin(ctx, *promote, models.AdminRoleSuperAdmin, 0); err != nil {
			log.Fatalf("Failed to promote %d: %v", *promote, err)
		}
		log.Printf("User %d is now %s", *promote, models.AdminRoleSuperAdmin)
	}

	log.Println("✅ Migration completed successfully!")
}

func applySQLMigrations(dsn string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	files, err := fs.Glob(migrations, "sql/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(files)

	for _, name := range files {
		body, err := migrations.ReadFile(name)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", name, err)
		}

		log.Printf("Applying migration: %s", name)
		if _, err := db.Exec(string(body)); err != nil {
			return fmt.Errorf("failed to apply %s: %w", name, err)
		}
	}
	return nil
}

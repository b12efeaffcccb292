package main

import (
	"context"
	"flag"
	"log"
	"time"

	"inkwell/internal/config"
	"inkwell/internal/repository/postgres"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed demo data")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("BLOCKED: cannot run --drop-tables in production environment")
	}

	log.Printf("Seeding database (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		log.Println("Dropping all tables...")
		if err := dropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("Tables dropped")
	}

	log.Println("Ensuring database schema is up to date...")
	if err := runSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("Schema ready")

	if *schemaOnly {
		return
	}

	log.Println("Seeding demo data...")
	if err := seedDemoData(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to seed demo data: %v", err)
	}
	log.Println("Done")
}

func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	// Reverse dependency order.
	for _, table := range []string{
		tables.BoxConfigs,
		tables.APIKeys,
		tables.Permissions,
		tables.Notes,
		tables.Sections,
		tables.Pages,
		tables.Users,
	} {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			return err
		}
	}
	return nil
}

func runSchema(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, tablePrefix string) error {
	if _, err := pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`); err != nil {
		return err
	}

	createUsers := `
		CREATE TABLE IF NOT EXISTS ` + tables.Users + ` (
			id UUID PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createUsers); err != nil {
		return err
	}

	createPages := `
		CREATE TABLE IF NOT EXISTS ` + tables.Pages + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			owner_user_id UUID NOT NULL REFERENCES ` + tables.Users + `(id),
			name TEXT NOT NULL,
			starred BOOLEAN NOT NULL DEFAULT FALSE,
			position INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)
	`
	if _, err := pool.Exec(ctx, createPages); err != nil {
		return err
	}

	createSections := `
		CREATE TABLE IF NOT EXISTS ` + tables.Sections + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			page_id UUID NOT NULL REFERENCES ` + tables.Pages + `(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			position INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)
	`
	if _, err := pool.Exec(ctx, createSections); err != nil {
		return err
	}

	createNotes := `
		CREATE TABLE IF NOT EXISTS ` + tables.Notes + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			section_id UUID NOT NULL REFERENCES ` + tables.Sections + `(id) ON DELETE CASCADE,
			content TEXT NOT NULL,
			tags TEXT[] NOT NULL DEFAULT '{}',
			date TIMESTAMPTZ,
			completed BOOLEAN NOT NULL DEFAULT FALSE,
			completed_by_user_id UUID,
			completed_at TIMESTAMPTZ,
			created_by_user_id UUID NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)
	`
	if _, err := pool.Exec(ctx, createNotes); err != nil {
		return err
	}

	createPermissions := `
		CREATE TABLE IF NOT EXISTS ` + tables.Permissions + ` (
			page_id UUID NOT NULL REFERENCES ` + tables.Pages + `(id) ON DELETE CASCADE,
			user_id UUID NOT NULL REFERENCES ` + tables.Users + `(id) ON DELETE CASCADE,
			role TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			created_at TIMESTAMPTZ DEFAULT NOW(),
			PRIMARY KEY (page_id, user_id)
		)
	`
	if _, err := pool.Exec(ctx, createPermissions); err != nil {
		return err
	}

	createAPIKeys := `
		CREATE TABLE IF NOT EXISTS ` + tables.APIKeys + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			user_id UUID NOT NULL REFERENCES ` + tables.Users + `(id) ON DELETE CASCADE,
			key_hash TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			last_used_at TIMESTAMPTZ,
			revoked_at TIMESTAMPTZ
		)
	`
	if _, err := pool.Exec(ctx, createAPIKeys); err != nil {
		return err
	}

	createBoxConfigs := `
		CREATE TABLE IF NOT EXISTS ` + tables.BoxConfigs + ` (
			user_id UUID NOT NULL REFERENCES ` + tables.Users + `(id) ON DELETE CASCADE,
			context_id TEXT NOT NULL,
			config JSONB NOT NULL,
			updated_at TIMESTAMPTZ DEFAULT NOW(),
			PRIMARY KEY (user_id, context_id)
		)
	`
	if _, err := pool.Exec(ctx, createBoxConfigs); err != nil {
		return err
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `pages_owner ON ` + tables.Pages + `(owner_user_id) WHERE deleted_at IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `sections_page ON ` + tables.Sections + `(page_id) WHERE deleted_at IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `notes_section ON ` + tables.Notes + `(section_id) WHERE deleted_at IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `notes_tags ON ` + tables.Notes + ` USING GIN (tags)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `permissions_user ON ` + tables.Permissions + `(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `apikeys_user ON ` + tables.APIKeys + `(user_id)`,
	}
	for _, index := range indexes {
		if _, err := pool.Exec(ctx, index); err != nil {
			return err
		}
	}
	return nil
}

// seedDemoData creates one demo user with a small hierarchy so a fresh
// dev environment has something to look at.
func seedDemoData(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	userID := uuid.New().String()
	if _, err := pool.Exec(ctx,
		`INSERT INTO `+tables.Users+` (id, email) VALUES ($1, $2) ON CONFLICT (email) DO NOTHING`,
		userID, "demo@example.com"); err != nil {
		return err
	}
	// The insert may have been a no-op on re-seed; use the stored id.
	if err := pool.QueryRow(ctx,
		`SELECT id FROM `+tables.Users+` WHERE email = $1`, "demo@example.com").Scan(&userID); err != nil {
		return err
	}

	pageID := uuid.New().String()
	if _, err := pool.Exec(ctx,
		`INSERT INTO `+tables.Pages+` (id, owner_user_id, name, position) VALUES ($1, $2, $3, 0)`,
		pageID, userID, "Getting Started"); err != nil {
		return err
	}

	sectionID := uuid.New().String()
	if _, err := pool.Exec(ctx,
		`INSERT INTO `+tables.Sections+` (id, page_id, name, position) VALUES ($1, $2, $3, 0)`,
		sectionID, pageID, "Inbox"); err != nil {
		return err
	}

	notes := []struct {
		content string
		tags    []string
	}{
		{"Welcome to your notebook. Try the intake box with something like: call the dentist tomorrow #health", []string{"welcome"}},
		{"Notes support #tags, optional dates and a completion flag.", []string{"tags", "welcome"}},
	}
	for _, note := range notes {
		if _, err := pool.Exec(ctx,
			`INSERT INTO `+tables.Notes+` (id, section_id, content, tags, created_by_user_id, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			uuid.New().String(), sectionID, note.content, note.tags, userID, time.Now().UTC()); err != nil {
			return err
		}
	}
	return nil
}

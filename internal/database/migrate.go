package database

import (
	"database/sql"
	"embed"
	"fmt"
	"log"

	migrate "github.com/rubenv/sql-migrate"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

func migrationSource() *migrate.EmbedFileSystemMigrationSource {
	return &migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrationFiles,
		Root:       "migrations",
	}
}

// Migrate applies (or rolls back) up to max migrations. max <= 0 means all.
func Migrate(db *sql.DB, direction migrate.MigrationDirection, max int) (int, error) {
	var n int
	var err error
	if max > 0 {
		n, err = migrate.ExecMax(db, "postgres", migrationSource(), direction, max)
	} else {
		n, err = migrate.Exec(db, "postgres", migrationSource(), direction)
	}
	if err != nil {
		return n, fmt.Errorf("failed to run migrations: %w", err)
	}

	if n > 0 {
		log.Printf("Applied %d database migrations\n", n)
	} else {
		log.Println("No database migrations to apply")
	}

	return n, nil
}

type MigrationStatus struct {
	ID      string
	Applied bool
}

// Status lists every embedded migration and whether it has been applied.
func Status(db *sql.DB) ([]MigrationStatus, error) {
	migrations, err := migrationSource().FindMigrations()
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	records, err := migrate.GetMigrationRecords(db, "postgres")
	if err != nil {
		return nil, fmt.Errorf("failed to read migration records: %w", err)
	}

	applied := make(map[string]bool, len(records))
	for _, r := range records {
		applied[r.Id] = true
	}

	statuses := make([]MigrationStatus, 0, len(migrations))
	for _, m := range migrations {
		statuses = append(statuses, MigrationStatus{ID: m.Id, Applied: applied[m.Id]})
	}
	return statuses, nil
}

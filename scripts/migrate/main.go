package main

import (
	"flag"
	"log"
	"os"

	migrate "github.com/rubenv/sql-migrate"
	"go.uber.org/zap"

	"github.com/johnquangdev/medical-scribe/internal/infrastructure/database"
	"github.com/johnquangdev/medical-scribe/pkg/config"
)

func main() {
	dir := flag.String("dir", "migrations", "directory holding the .sql migrations")
	steps := flag.Int("steps", 0, "maximum number of migrations to apply (0 = all)")
	flag.Parse()

	command := flag.Arg(0)
	if command == "" {
		command = "up"
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database using GORM
	db, err := database.NewPostgresDB(cfg, zap.NewNop())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	log.Println("✅ Database connected successfully")

	migrations := &migrate.FileMigrationSource{
		Dir: *dir,
	}

	// Get the underlying SQL database connection from GORM
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database connection: %v", err)
	}

	switch command {
	case "up", "down":
		direction := migrate.Up
		if command == "down" {
			direction = migrate.Down
			if *steps == 0 {
				*steps = 1
			}
		}
		log.Printf("🔄 Applying %s migrations from %s/ ...", command, *dir)
		n, err := migrate.ExecMax(sqlDB, "postgres", migrations, direction, *steps)
		if err != nil {
			log.Fatalf("Failed to apply migrations: %v", err)
		}
		log.Printf("✅ Successfully applied %d migration(s)!", n)

	case "status":
		records, err := migrate.GetMigrationRecords(sqlDB, "postgres")
		if err != nil {
			log.Fatalf("Failed to read migration records: %v", err)
		}
		applied := make(map[string]bool, len(records))
		for _, r := range records {
			applied[r.Id] = true
			log.Printf("✅ %s (applied %s)", r.Id, r.AppliedAt.Format("2006-01-02 15:04:05"))
		}
		found, err := migrations.FindMigrations()
		if err != nil {
			log.Fatalf("Failed to list migrations: %v", err)
		}
		for _, m := range found {
			if !applied[m.Id] {
				log.Printf("⏳ %s (pending)", m.Id)
			}
		}

	default:
		log.Printf("unknown command %q, expected up, down or status", command)
		os.Exit(2)
	}
}

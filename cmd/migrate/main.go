// Command migrate manages the guardian database schema. It is a thin
// wrapper around goose pointed at ./migrations, with the target database
// taken from DATABASE_URL.
//
//	go run ./cmd/migrate up        # apply pending migrations
//	go run ./cmd/migrate status    # show what has been applied
//	go run ./cmd/migrate down      # roll back the most recent migration
//	go run ./cmd/migrate version   # print the current schema version
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

const migrationsDir = "migrations"

func main() {
	if len(os.Args) < 2 {
		fmt.Println("usage: migrate <command> [args]")
		fmt.Println("commands: up, down, status, version, redo, up-to <version>, down-to <version>")
		os.Exit(1)
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("migrate: DATABASE_URL must be set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("migrate: open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		log.Fatalf("migrate: connect to database: %v", err)
	}

	command := os.Args[1]
	args := os.Args[2:]

	if err := goose.RunContext(context.Background(), command, db, migrationsDir, args...); err != nil {
		log.Fatalf("migrate: %s: %v", command, err)
	}
}

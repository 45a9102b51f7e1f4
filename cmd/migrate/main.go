package main

import (
	"log"
	"os"
	"strconv"

	"paperinsight-be/internal/model"
	"paperinsight-be/pkg/database"
	"paperinsight-be/pkg/vectorstore"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to Database using existing GORM helpers
	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	color.Cyan("Starting Authoritative GORM Migration...")

	// 3. Pre-Migration: Extensions (Things GORM AutoMigrate doesn't do)
	color.Cyan("Step 1: Setting up Extensions...")

	setupSQL := []string{
		`CREATE EXTENSION IF NOT EXISTS pgcrypto;`,
		`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
		`CREATE EXTENSION IF NOT EXISTS vector;`,
	}

	for _, sql := range setupSQL {
		if err := db.Exec(sql).Error; err != nil {
			log.Printf("Warn: Failed to execute setup SQL: %v. Continuing...", err)
		}
	}

	// 4. AutoMigrate All Models (The Core Task)
	color.Cyan("Step 2: Running AutoMigrate...")

	models := []interface{}{
		&model.ChatSession{},
		&model.PaperInsight{},
		&model.Notification{},
		&model.AgentSession{},
	}

	if err := db.AutoMigrate(models...); err != nil {
		log.Fatalf("Error: AutoMigrate failed: %v", err)
	}

	// 5. Vector store schema (table, HNSW index) lives outside AutoMigrate.
	color.Cyan("Step 3: Ensuring vector store schema...")

	dims := 768
	if raw := os.Getenv("EMBEDDING_DIMENSIONS"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			dims = v
		}
	}

	store, err := vectorstore.New(db, vectorstore.Config{
		Table:      "paper_chunks",
		Dimensions: dims,
	})
	if err != nil {
		log.Fatalf("Error: Vector store setup failed: %v", err)
	}
	defer store.Close()

	color.Green("✅ Success: Database migration completed successfully via GORM.")
}

package database

import (
	"log"

	"learnly/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ConnectTestDb opens an in-memory SQLite database, runs migrations and
// installs it as the global instance. Handler tests call this instead of
// ConnectDb so they never need a running PostgreSQL.
func ConnectTestDb() *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Fatalf("Failed to open in-memory SQLite: %v", err)
	}

	// A single connection keeps every session on the same in-memory database.
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database instance: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	// Shared-cache memory DBs survive across opens within a process, so each
	// call starts from a clean slate.
	if err := db.Migrator().DropTable(
		&models.User{},
		&models.Course{},
		&models.CourseContent{},
		&models.ContentCompletion{},
		&models.Enrollment{},
		&models.PaymentEvent{},
	); err != nil {
		log.Fatalf("Failed to reset test tables: %v", err)
	}

	runMigrations(db)

	Database = DbInstance{Db: db}
	return db
}

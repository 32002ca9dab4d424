package main

import (
	"fmt"
	"log"
	"os"

	"github.com/localnerve/chapterviewer/internal/database"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm/logger"
)

// Prints the sqlite DDL AutoMigrate produces for the state tables.
func main() {
	db, err := database.Open(sqlite.Open(":memory:"), 1, logger.Silent)
	if err != nil {
		log.Fatal(err)
	}
	defer database.Close(db)

	if err := database.AutoMigrate(db); err != nil {
		log.Fatal(err)
	}

	var tables []string
	db.Raw("SELECT name FROM sqlite_master WHERE type='table' ORDER BY name").Scan(&tables)

	for _, table := range tables {
		fmt.Fprintf(os.Stdout, "\n=== Table: %s ===\n", table)
		var schema string
		db.Raw("SELECT sql FROM sqlite_master WHERE name = ?", table).Scan(&schema)
		fmt.Println(schema)

		var indexes []string
		db.Raw("SELECT sql FROM sqlite_master WHERE type='index' AND tbl_name = ? AND sql IS NOT NULL", table).Scan(&indexes)
		for _, index := range indexes {
			fmt.Println(index)
		}
	}
}

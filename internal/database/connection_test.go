package database

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/localnerve/chapterviewer/internal/config"
	"gorm.io/gorm/logger"
)

func TestDialector(t *testing.T) {
	tests := map[string]string{
		"mysql":     "mysql",
		"mariadb":   "mysql",
		"postgres":  "postgres",
		"sqlite":    "sqlite",
		"sqlserver": "sqlserver",
		"mssql":     "sqlserver",
	}
	for dbType, want := range tests {
		d, err := Dialector(&config.Config{DBType: dbType, DBDatabase: "x.db"})
		if err != nil {
			t.Fatalf("%s: %v", dbType, err)
		}
		if d.Name() != want {
			t.Errorf("%s: expected dialector %s, got %s", dbType, want, d.Name())
		}
	}

	if _, err := Dialector(&config.Config{DBType: "oracle"}); err == nil {
		t.Error("expected an error for an unsupported database type")
	}
}

func TestLogLevel(t *testing.T) {
	tests := map[string]logger.LogLevel{
		"silent": logger.Silent,
		"error":  logger.Error,
		"info":   logger.Info,
		"warn":   logger.Warn,
		"":       logger.Warn,
	}
	for name, want := range tests {
		if got := LogLevel(name); got != want {
			t.Errorf("LogLevel(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestOpenAndMigrate(t *testing.T) {
	db, err := Open(sqlite.Open(":memory:"), 1, logger.Silent)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer Close(db)

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	for _, table := range []string{"state_records", "state_entries", "deletion_logs"} {
		if !db.Migrator().HasTable(table) {
			t.Errorf("expected table %s", table)
		}
	}
}

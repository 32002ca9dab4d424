package services

import (
	"context"
	"log"

	"github.com/localnerve/chapterviewer/internal/backend"
	"github.com/localnerve/chapterviewer/internal/config"
	"github.com/localnerve/chapterviewer/internal/database"
	"gorm.io/gorm"
)

// OpenStore connects the configured record store. The database is returned
// as well when the store is database backed; the caller closes it.
func OpenStore(ctx context.Context, cfg *config.Config) (RecordStore, *gorm.DB, error) {
	if cfg.StoreType == config.StoreGitHub {
		issues := backend.NewGitHubIssues(cfg.GitHubAPIURL, cfg.GitHubRepo, cfg.GitHubToken, nil)
		if err := issues.Ping(ctx); err != nil {
			log.Printf("Issue store not reachable yet: %v", err)
		}
		return NewIssueStore(issues), nil, nil
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, err
	}

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		_ = database.Close(db)
		return nil, nil, err
	}

	return NewGormStore(db, cfg.BookID), db, nil
}

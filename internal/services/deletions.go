package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/localnerve/chapterviewer/internal/models"
	"github.com/localnerve/chapterviewer/internal/types"
	"gorm.io/gorm"
)

// ErrMissingDeletionFields is returned when a deletion report lacks the file
// path or name
var ErrMissingDeletionFields = errors.New("missing filePath or fileName")

// DeletionInput is the body of a deletion report
type DeletionInput struct {
	FilePath  string `json:"filePath"`
	FileName  string `json:"fileName"`
	Timestamp string `json:"timestamp"`
}

// LogDeletion records a deletion report. Without a database the report is
// only written to the log.
func LogDeletion(ctx context.Context, db *gorm.DB, bookID string, in DeletionInput) (time.Time, error) {
	in.FilePath = strings.TrimSpace(in.FilePath)
	in.FileName = strings.TrimSpace(in.FileName)
	if in.FilePath == "" || in.FileName == "" {
		return time.Time{}, ErrMissingDeletionFields
	}

	loggedAt := time.Now().UTC()
	log.Printf("Deletion logged: %s at %s on %s", in.FileName, in.FilePath, in.Timestamp)

	if db == nil {
		return loggedAt, nil
	}

	entry := models.DeletionLog{
		BookID:    bookID,
		FilePath:  in.FilePath,
		FileName:  in.FileName,
		DeletedAt: in.Timestamp,
		LoggedAt:  loggedAt,
	}
	if err := db.WithContext(ctx).Create(&entry).Error; err != nil {
		return time.Time{}, fmt.Errorf("store deletion log: %w", err)
	}
	return loggedAt, nil
}

// RecentDeletions returns the newest deletion reports for a book
func RecentDeletions(ctx context.Context, db *gorm.DB, bookID string, limit int) ([]models.DeletionLog, error) {
	var logs []models.DeletionLog
	query := db.WithContext(ctx).Where("book_id = ?", bookID).Order("logged_at DESC, log_id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// DeletedFiles lists the paths currently marked deleted, sorted
func DeletedFiles(ctx context.Context, store RecordStore) ([]string, error) {
	record, err := store.GetRecord(ctx, types.KindDeleted)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return []string{}, nil
		}
		return nil, err
	}

	var entries map[string]json.RawMessage
	if err := json.Unmarshal(record.Data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	paths := make([]string, 0, len(entries))
	for path := range entries {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths, nil
}

package models

import (
	"time"
)

// StateRecord is one collaborative record kind of a book. Its version is the
// optimistic concurrency token clients echo back on writes.
type StateRecord struct {
	RecordID      uint64 `gorm:"primaryKey;autoIncrement"`
	BookID        string `gorm:"uniqueIndex:idx_state_records_book_kind;size:128;not null"`
	Kind          string `gorm:"uniqueIndex:idx_state_records_book_kind;size:64;not null"`
	RecordVersion uint64 `gorm:"not null;default:0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Entries       []StateEntry `gorm:"foreignKey:RecordID;constraint:OnDelete:CASCADE"`
}

// StateEntry is one key of a record (a file path, a property key or a
// manifest key) with its JSON value.
type StateEntry struct {
	EntryID    uint64 `gorm:"primaryKey;autoIncrement"`
	RecordID   uint64 `gorm:"uniqueIndex:idx_state_entries_record_key;not null"`
	EntryKey   string `gorm:"uniqueIndex:idx_state_entries_record_key;size:255;not null"`
	EntryValue JSON
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// DeletionLog keeps the audit trail written by the log-deletion endpoint.
type DeletionLog struct {
	LogID     uint64 `gorm:"primaryKey;autoIncrement"`
	BookID    string `gorm:"index;size:128;not null"`
	FilePath  string `gorm:"size:512;not null"`
	FileName  string `gorm:"size:255;not null"`
	DeletedAt string `gorm:"size:64"`
	LoggedAt  time.Time
}

// TableName overrides the table name for StateRecord
func (StateRecord) TableName() string {
	return "state_records"
}

// TableName overrides the table name for StateEntry
func (StateEntry) TableName() string {
	return "state_entries"
}

// TableName overrides the table name for DeletionLog
func (DeletionLog) TableName() string {
	return "deletion_logs"
}

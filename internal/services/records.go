package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/localnerve/chapterviewer/internal/backend"
	"github.com/localnerve/chapterviewer/internal/models"
	"github.com/localnerve/chapterviewer/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

var (
	// ErrNotFound is returned when a record has never been written.
	ErrNotFound = errors.New("not found")
	// ErrVersion is returned when the caller's version token is stale.
	ErrVersion = errors.New("E_VERSION")
	// ErrNotSupported is returned by stores that cannot apply an operation.
	ErrNotSupported = errors.New("operation not supported by this store")
	// ErrInvalidRecord is returned when a record body is not a JSON object.
	ErrInvalidRecord = errors.New("record data must be a JSON object")
)

// Record is the API output format for one record kind
type Record struct {
	Kind    types.Kind      `json:"kind"`
	Data    json.RawMessage `json:"data" swaggertype:"object"`
	Version uint64          `json:"version"`
}

// Patch describes a per-key change to a record
type Patch struct {
	Set    map[string]json.RawMessage `json:"set,omitempty" swaggertype:"object"`
	Delete []string                   `json:"delete,omitempty"`
}

// WriteResult reports the outcome of a mutation
type WriteResult struct {
	Version      uint64
	AffectedRows int64
	Created      bool
}

// RecordStore persists the collaborative records of one book
type RecordStore interface {
	GetRecord(ctx context.Context, kind types.Kind) (*Record, error)
	PutRecord(ctx context.Context, kind types.Kind, data json.RawMessage, version *uint64) (WriteResult, error)
	PatchRecord(ctx context.Context, kind types.Kind, version uint64, patch Patch) (WriteResult, error)
	Ping(ctx context.Context) error
}

func decodeEntries(data json.RawMessage) (map[string]json.RawMessage, error) {
	entries := make(map[string]json.RawMessage)
	if len(data) == 0 || string(data) == "null" {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if entries == nil {
		entries = make(map[string]json.RawMessage)
	}
	return entries, nil
}

// GormStore keeps one versioned StateRecord per book and kind, with one
// StateEntry per key
type GormStore struct {
	DB     *gorm.DB
	BookID string
}

// NewGormStore creates a record store for bookID
func NewGormStore(db *gorm.DB, bookID string) *GormStore {
	return &GormStore{DB: db, BookID: bookID}
}

func (s *GormStore) silent(ctx context.Context, db *gorm.DB) *gorm.DB {
	return db.Session(&gorm.Session{Logger: db.Logger.LogMode(logger.Silent)}).WithContext(ctx)
}

// GetRecord retrieves the entries of a record folded back into one object
func (s *GormStore) GetRecord(ctx context.Context, kind types.Kind) (*Record, error) {
	var record models.StateRecord
	err := s.silent(ctx, s.DB).
		Preload("Entries").
		Where("book_id = ? AND kind = ?", s.BookID, kind.String()).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return reduceRecord(kind, record)
}

// reduceRecord converts a record model to API output
func reduceRecord(kind types.Kind, record models.StateRecord) (*Record, error) {
	out := make(map[string]json.RawMessage, len(record.Entries))
	for _, entry := range record.Entries {
		out[entry.EntryKey] = json.RawMessage(entry.EntryValue.Raw())
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, err
	}
	return &Record{Kind: kind, Data: data, Version: record.RecordVersion}, nil
}

// lockRecord locks the record row and checks the caller's version. A nil
// version skips the check.
func (s *GormStore) lockRecord(ctx context.Context, tx *gorm.DB, kind types.Kind, version *uint64) (models.StateRecord, bool, error) {
	var record models.StateRecord
	err := s.silent(ctx, tx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Entries").
		Where("book_id = ? AND kind = ?", s.BookID, kind.String()).
		First(&record).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return record, false, err
		}
		// Record doesn't exist, version should be 0
		if version != nil && *version != 0 {
			return record, false, ErrVersion
		}
		record = models.StateRecord{BookID: s.BookID, Kind: kind.String()}
		if err := tx.WithContext(ctx).Create(&record).Error; err != nil {
			return record, false, err
		}
		return record, true, nil
	}

	if version != nil && record.RecordVersion != *version {
		return record, false, ErrVersion
	}
	return record, false, nil
}

// applyEntries writes set and delete against the locked record and reports
// whether anything changed
func applyEntries(ctx context.Context, tx *gorm.DB, record models.StateRecord, set map[string]json.RawMessage, remove []string) (bool, error) {
	existing := make(map[string]models.StateEntry, len(record.Entries))
	for _, entry := range record.Entries {
		existing[entry.EntryKey] = entry
	}

	updated := false

	if len(remove) > 0 {
		var ids []uint64
		for _, key := range remove {
			if entry, ok := existing[key]; ok {
				ids = append(ids, entry.EntryID)
			}
		}
		if len(ids) > 0 {
			if err := tx.WithContext(ctx).Where("entry_id IN ?", ids).Delete(&models.StateEntry{}).Error; err != nil {
				return false, err
			}
			updated = true
		}
	}

	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := set[key]
		if len(value) == 0 {
			value = json.RawMessage("null")
		}
		if !json.Valid(value) {
			return false, fmt.Errorf("%w: invalid value for %q", ErrInvalidRecord, key)
		}

		entry, ok := existing[key]
		if !ok {
			entry = models.StateEntry{
				RecordID:   record.RecordID,
				EntryKey:   key,
				EntryValue: models.NewJSON(value),
			}
			if err := tx.WithContext(ctx).Create(&entry).Error; err != nil {
				return false, err
			}
			updated = true
			continue
		}

		if !sameJSON(entry.EntryValue.Raw(), value) {
			if err := tx.WithContext(ctx).Model(&entry).Update("entry_value", models.NewJSON(value)).Error; err != nil {
				return false, err
			}
			updated = true
		}
	}

	return updated, nil
}

// bumpVersion increments the record version guarded by the version read
// under lock
func bumpVersion(ctx context.Context, tx *gorm.DB, record models.StateRecord) (uint64, int64, error) {
	newVersion := record.RecordVersion + 1
	result := tx.WithContext(ctx).Model(&models.StateRecord{}).
		Where("record_id = ? AND record_version = ?", record.RecordID, record.RecordVersion).
		Update("record_version", newVersion)
	if result.Error != nil {
		return 0, 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, 0, fmt.Errorf("%w - Failed to update record due to concurrent modification", ErrVersion)
	}
	return newVersion, result.RowsAffected, nil
}

// PutRecord replaces the whole record. Keys missing from data are removed.
func (s *GormStore) PutRecord(ctx context.Context, kind types.Kind, data json.RawMessage, version *uint64) (WriteResult, error) {
	var res WriteResult

	entries, err := decodeEntries(data)
	if err != nil {
		return res, err
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		record, created, err := s.lockRecord(ctx, tx, kind, version)
		if err != nil {
			return err
		}
		res.Created = created

		var remove []string
		for _, entry := range record.Entries {
			if _, ok := entries[entry.EntryKey]; !ok {
				remove = append(remove, entry.EntryKey)
			}
		}

		updated, err := applyEntries(ctx, tx, record, entries, remove)
		if err != nil {
			return err
		}

		// Update record version if changes were made
		if updated || created {
			res.Version, res.AffectedRows, err = bumpVersion(ctx, tx, record)
			return err
		}
		res.Version = record.RecordVersion
		return nil
	})

	return res, err
}

// PatchRecord sets and deletes individual keys. The version is always checked.
func (s *GormStore) PatchRecord(ctx context.Context, kind types.Kind, version uint64, patch Patch) (WriteResult, error) {
	var res WriteResult

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		record, created, err := s.lockRecord(ctx, tx, kind, &version)
		if err != nil {
			return err
		}
		res.Created = created

		updated, err := applyEntries(ctx, tx, record, patch.Set, patch.Delete)
		if err != nil {
			return err
		}

		if updated || created {
			res.Version, res.AffectedRows, err = bumpVersion(ctx, tx, record)
			return err
		}
		res.Version = record.RecordVersion
		return nil
	})

	return res, err
}

// Ping checks database connectivity
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// IssueStore keeps records as issues in a repository. The issue tracker has
// no version token: every write wins and versions read as zero.
type IssueStore struct {
	Issues *backend.GitHubIssues
}

// NewIssueStore wraps an issue-backed key-value store
func NewIssueStore(issues *backend.GitHubIssues) *IssueStore {
	return &IssueStore{Issues: issues}
}

// GetRecord loads the fenced JSON of the kind's issue
func (s *IssueStore) GetRecord(ctx context.Context, kind types.Kind) (*Record, error) {
	data, err := s.Issues.Load(ctx, kind)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, ErrNotFound
	}
	return &Record{Kind: kind, Data: data}, nil
}

// PutRecord overwrites the kind's issue. The version is ignored.
func (s *IssueStore) PutRecord(ctx context.Context, kind types.Kind, data json.RawMessage, _ *uint64) (WriteResult, error) {
	if _, err := decodeEntries(data); err != nil {
		return WriteResult{}, err
	}
	if len(data) == 0 || string(data) == "null" {
		data = json.RawMessage("{}")
	}
	existing, err := s.Issues.Load(ctx, kind)
	if err != nil {
		return WriteResult{}, err
	}
	if err := s.Issues.Save(ctx, kind, data); err != nil {
		return WriteResult{}, err
	}
	return WriteResult{AffectedRows: 1, Created: existing == nil}, nil
}

// PatchRecord is not available on the issue store.
func (s *IssueStore) PatchRecord(context.Context, types.Kind, uint64, Patch) (WriteResult, error) {
	return WriteResult{}, ErrNotSupported
}

// Ping checks the repository is reachable
func (s *IssueStore) Ping(ctx context.Context) error {
	return s.Issues.Ping(ctx)
}

// KeyValue adapts a RecordStore to the client-side persistence contract so a
// reader session can run directly against the server store.
type KeyValue struct {
	Store RecordStore
}

// Load implements backend.KeyValue.
func (kv KeyValue) Load(ctx context.Context, kind types.Kind) (json.RawMessage, error) {
	record, err := kv.Store.GetRecord(ctx, kind)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %w", backend.ErrUnavailable, err)
	}
	return record.Data, nil
}

// Save implements backend.KeyValue with last-write-wins semantics.
func (kv KeyValue) Save(ctx context.Context, kind types.Kind, data json.RawMessage) error {
	if _, err := kv.Store.PutRecord(ctx, kind, data, nil); err != nil {
		return fmt.Errorf("%w: %w", backend.ErrUnavailable, err)
	}
	return nil
}

func sameJSON(a, b []byte) bool {
	var va, vb any
	if json.Unmarshal(a, &va) != nil || json.Unmarshal(b, &vb) != nil {
		return string(a) == string(b)
	}
	ra, _ := json.Marshal(va)
	rb, _ := json.Marshal(vb)
	return string(ra) == string(rb)
}

package models

import (
	"database/sql/driver"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// JSON wraps gorm.io/datatypes.JSON so entry values get a column type every
// supported driver accepts
type JSON struct {
	datatypes.JSON
}

// Value promotes the embedded JSON's Value method
func (j JSON) Value() (driver.Value, error) {
	if len(j.JSON) == 0 {
		return "null", nil
	}
	return j.JSON.Value()
}

// NewJSON wraps raw JSON.
func NewJSON(raw []byte) JSON {
	return JSON{JSON: datatypes.JSON(raw)}
}

// Raw returns the stored bytes, "null" when empty.
func (j JSON) Raw() []byte {
	if len(j.JSON) == 0 {
		return []byte("null")
	}
	return []byte(j.JSON)
}

// Scan promotes the embedded JSON's Scan method
func (j *JSON) Scan(value any) error {
	return j.JSON.Scan(value)
}

// GormDBDataType picks the column type per driver. sqlserver has no json type.
func (JSON) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	switch db.Dialector.Name() {
	case "mysql":
		return "JSON"
	case "postgres":
		return "JSONB"
	case "sqlserver", "mssql":
		return "NVARCHAR(MAX)"
	case "sqlite":
		return "JSON"
	}
	return "TEXT"
}

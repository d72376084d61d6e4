package domain

import (
	"database/sql"
	"time"
)

// RecordState is the soft-delete lifecycle of a persisted row. It is sealed:
// the only implementations are Active and Deleted.
type RecordState interface {
	isRecordState()
}

type Active struct{}

type Deleted struct {
	At time.Time
}

func (Active) isRecordState()  {}
func (Deleted) isRecordState() {}

// StateFromColumn maps a nullable deleted_at column to a RecordState.
func StateFromColumn(deletedAt sql.NullTime) RecordState {
	if deletedAt.Valid {
		return Deleted{At: deletedAt.Time}
	}
	return Active{}
}

// IsDeleted reports whether s is a Deleted state. A nil state counts as active.
func IsDeleted(s RecordState) bool {
	switch s.(type) {
	case Deleted:
		return true
	case Active, nil:
		return false
	default:
		panic("domain: unknown RecordState")
	}
}

// DeletedAt returns the deletion time for Deleted states.
func DeletedAt(s RecordState) (time.Time, bool) {
	if d, ok := s.(Deleted); ok {
		return d.At, true
	}
	return time.Time{}, false
}

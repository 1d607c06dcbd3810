package entity

import (
	"time"

	"challanbook/internal/core/apperror"
)

// Document is the base type for numbered business papers.
type Document struct {
	BaseDocument

	// Date is the business date printed on the document
	Date time.Time `db:"date" json:"date"`

	// DeleteReason is set together with DeletionMark
	DeleteReason *string `db:"delete_reason" json:"deleteReason,omitempty"`
}

// NewDocument creates a new Document dated date (time of day is dropped).
func NewDocument(date time.Time) Document {
	return Document{
		BaseDocument: NewBaseDocument(),
		Date:         TruncateDate(date),
	}
}

// CanModify rejects edits and re-renders of soft-deleted documents.
func (d *Document) CanModify(entityName string) error {
	if d.DeletionMark {
		return apperror.NewDocumentDeleted(entityName, d.ID.String())
	}
	return nil
}

// TruncateDate keeps the calendar day of t in its own location, at UTC midnight.
func TruncateDate(t time.Time) time.Time {
	y, m, day := t.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

package domain

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Record is a persisted resource entity (user, admin, company, ...).
// The ID is immutable and unique within its collection; everything else
// lives in the nested Attributes tree.
type Record struct {
	ID         string     `json:"id"`
	Attributes Attributes `json:"attributes"`
}

// NewRecord creates a record with a freshly generated ObjectID-style id.
func NewRecord(attrs Attributes) *Record {
	if attrs == nil {
		attrs = Attributes{}
	}
	return &Record{
		ID:         NewID(),
		Attributes: attrs,
	}
}

// NewID returns a new 24 character hex identifier.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// IsObjectID reports whether id has the 24 character hex form produced by NewID.
// Imported fixtures may carry other id formats; this is informational only.
func IsObjectID(id string) bool {
	_, err := primitive.ObjectIDFromHex(id)
	return err == nil
}

// Validate checks the record is storable.
func (r *Record) Validate() error {
	if r == nil {
		return NewValidationError("record", "cannot be nil", ErrValidation)
	}
	if r.ID == "" {
		return NewValidationError("id", "is required", ErrInvalidID)
	}
	return nil
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	return &Record{
		ID:         r.ID,
		Attributes: r.Attributes.Clone(),
	}
}

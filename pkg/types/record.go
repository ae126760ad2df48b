package types

// AttributeAccessor reads and writes named attributes on a host record.
type AttributeAccessor interface {
	// Attribute returns the current value of the named attribute, or nil
	// when the attribute is unset.
	Attribute(name string) any

	// SetAttribute assigns value to the named attribute in memory. The
	// change is not persisted until Save is called.
	SetAttribute(name string, value any)
}

// Persistable saves a record to its backing store.
type Persistable interface {
	// Save inserts or updates the record. When runValidation is true the
	// host runs its validation rules first.
	Save(runValidation bool) error

	// IsNewRecord reports whether the record has not been inserted yet.
	IsNewRecord() bool
}

// Record is the full contract a host entity offers to recordkit services.
type Record interface {
	AttributeAccessor
	Persistable

	// PrimaryKey returns the record's id, or nil for a new record.
	PrimaryKey() any
}

// Cloner produces an independent copy of a record. Transitions use it to
// build the proposed state without touching the original.
type Cloner interface {
	Clone() Record
}

// Finder loads records of one type by primary key.
// Returns ErrNotFound if no record exists with that id.
type Finder interface {
	FindByID(id any) (Record, error)
}

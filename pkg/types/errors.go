package types

import "errors"

// Record and store errors.
var (
	ErrNotFound        = errors.New("record not found")
	ErrInvalidID       = errors.New("invalid record ID")
	ErrInvalidData     = errors.New("invalid record data")
	ErrNewRecord       = errors.New("record has not been inserted")
	ErrNotCloneable    = errors.New("record cannot be cloned")
	ErrTableNotFound   = errors.New("table not found")
	ErrAlreadyAttached = errors.New("backend is already attached")
	ErrDetached        = errors.New("backend is detached")
)

// Enumeration errors.
var (
	ErrInvalidCode        = errors.New("invalid enumeration code")
	ErrTransitionRejected = errors.New("transition rejected")
)

// Identifier generation errors.
var (
	ErrEntropyUnavailable = errors.New("secure random source unavailable")
	ErrEmptyCharset       = errors.New("identifier charset is empty")
	ErrCharsetExhausted   = errors.New("identifier charset too small for unique characters")
	ErrInvalidLength      = errors.New("length must be greater than 0")
	ErrIdentifierTooShort = errors.New("maximum length leaves no room for a unique identifier")
)

// Date, query and cache errors.
var (
	ErrUnknownTimezone     = errors.New("unknown timezone")
	ErrInvalidDateTime     = errors.New("invalid date and time")
	ErrUnsupportedOperator = errors.New("unsupported comparison operator")
	ErrInvalidPredicate    = errors.New("expected Sqlizer, string-keyed map or string")
	ErrCacheMiss           = errors.New("cache miss")
)

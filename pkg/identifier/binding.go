package identifier

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/mesh-intelligence/recordkit/pkg/types"
)

// Scope answers whether an identifier is already taken. Implementations
// check "any record with attribute == identifier", skipping the record
// whose id equals exceptID when exceptID is not nil.
//
// The check is not atomic with the later save: two concurrent inserts may
// both see a free identifier. A unique index on the column is the real guard.
type Scope interface {
	ExistsByIdentifier(attribute, identifier string, exceptID any) (bool, error)
}

// Binding keeps a record's identifier attribute populated and unique.
type Binding struct {
	// Attribute receives the identifier. Defaults to "identifier".
	Attribute string

	// IDAttribute identifies the record in its table. Defaults to "id".
	IDAttribute string

	// MaximumLength bounds generated and supplied identifiers. Defaults to 10.
	MaximumLength int

	// GenerateOnEmpty generates an identifier when the attribute is empty.
	GenerateOnEmpty bool

	Creator *Creator
	Scope   Scope
	Logger  *slog.Logger
}

// NewBinding returns a Binding with defaults applied.
func NewBinding(scope Scope, creator *Creator) *Binding {
	if creator == nil {
		creator = &Creator{}
	}
	return &Binding{
		Attribute:       "identifier",
		IDAttribute:     "id",
		MaximumLength:   types.DefaultMaximumLength,
		GenerateOnEmpty: true,
		Creator:         creator,
		Scope:           scope,
	}
}

func (b *Binding) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}

// Generate returns a fresh identifier without checking uniqueness.
func (b *Binding) Generate() (string, error) {
	return b.Creator.Generate(b.MaximumLength)
}

// Exists reports whether identifier is taken by a record other than exceptID.
func (b *Binding) Exists(identifier string, exceptID any) (bool, error) {
	exists, err := b.Scope.ExistsByIdentifier(b.Attribute, identifier, exceptID)
	if err != nil {
		return false, fmt.Errorf("check identifier %q: %w", identifier, err)
	}
	return exists, nil
}

// GenerateUnique generates identifiers until one is free in scope. There is
// no retry cap; the keyspace is assumed large relative to occupied rows.
func (b *Binding) GenerateUnique() (string, error) {
	for {
		identifier, err := b.Generate()
		if err != nil {
			return "", err
		}
		exists, err := b.Exists(identifier, nil)
		if err != nil {
			return "", err
		}
		if !exists {
			return identifier, nil
		}
		b.logger().Debug("identifier collision, regenerating", "identifier", identifier)
	}
}

// Reconcile makes a caller-supplied identifier fit and unique. It is first
// truncated to MaximumLength runes. While it collides with another record,
// an incrementing counter starting at 2 is appended to the original,
// truncated further so the result still fits. ErrIdentifierTooShort is
// returned once the counter alone exceeds MaximumLength.
func (b *Binding) Reconcile(identifier string, exceptID any) (string, error) {
	if b.MaximumLength < 1 {
		return "", fmt.Errorf("%w: maximum length %d", types.ErrInvalidLength, b.MaximumLength)
	}
	original := truncate(identifier, b.MaximumLength)
	candidate := original
	for counter := 2; ; counter++ {
		exists, err := b.Exists(candidate, exceptID)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		suffix := strconv.Itoa(counter)
		if len(suffix) > b.MaximumLength {
			return "", fmt.Errorf("%w: %q within %d characters", types.ErrIdentifierTooShort, original, b.MaximumLength)
		}
		candidate = truncate(original, b.MaximumLength-len(suffix)) + suffix
	}
}

// Regenerate assigns a new unique identifier to record. With autoSave the
// record is saved as well; a record that was never inserted returns
// ErrNewRecord and is left with the new identifier in memory.
func (b *Binding) Regenerate(record types.Record, autoSave bool) error {
	identifier, err := b.GenerateUnique()
	if err != nil {
		return err
	}
	record.SetAttribute(b.Attribute, identifier)
	if !autoSave {
		return nil
	}
	if record.IsNewRecord() {
		return types.ErrNewRecord
	}
	return record.Save(false)
}

// Ensure makes sure record carries a unique identifier, either by
// generating one or by reconciling the value it already has.
func (b *Binding) Ensure(record types.Record) error {
	current := stringValue(record.Attribute(b.Attribute))
	if current == "" {
		if !b.GenerateOnEmpty {
			return nil
		}
		return b.Regenerate(record, false)
	}
	reconciled, err := b.Reconcile(current, record.Attribute(b.IDAttribute))
	if err != nil {
		return err
	}
	if reconciled != current {
		b.logger().Debug("identifier adjusted", "from", current, "to", reconciled)
		record.SetAttribute(b.Attribute, reconciled)
	}
	return nil
}

// Attach runs Ensure before validation, insert and update.
func (b *Binding) Attach(notifier types.LifecycleNotifier) {
	handler := func(e *types.Event) error {
		return b.Ensure(e.Record)
	}
	notifier.On(types.EventBeforeValidate, handler)
	notifier.On(types.EventBeforeInsert, handler)
	notifier.On(types.EventBeforeUpdate, handler)
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func stringValue(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprint(s)
	}
}

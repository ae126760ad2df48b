package enum

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/recordkit/pkg/types"
)

// Default attribute and event names.
const (
	StatusAttribute        = "status"
	TypeAttribute          = "type"
	EventAfterStatusChange = "afterStatusChange"
	EventAfterTypeChange   = "afterTypeChange"
)

// ChangeEvent is emitted after a save changed the field's attribute.
type ChangeEvent struct {
	ID        uuid.UUID
	Name      string
	Attribute string
	Old       any
	New       any
	Record    types.Record
}

// Field binds an Enumeration to one attribute of a record.
type Field struct {
	Enum      *Enumeration
	Attribute string

	// EventName is the name of emitted change events.
	EventName string

	// EventMap, when set, names the event by the old code. A change from a
	// code without an entry emits nothing.
	EventMap map[int]string

	// Notify receives change events. Nil disables notification.
	Notify func(ChangeEvent)

	Logger *slog.Logger
}

// Option configures a Field.
type Option func(*Field)

// WithAttribute overrides the bound attribute name.
func WithAttribute(name string) Option {
	return func(f *Field) { f.Attribute = name }
}

// WithEventName overrides the default change event name.
func WithEventName(name string) Option {
	return func(f *Field) { f.EventName = name }
}

// WithEventMap names change events by the code the record left.
func WithEventMap(m map[int]string) Option {
	return func(f *Field) { f.EventMap = m }
}

// WithNotify sets the change event receiver.
func WithNotify(fn func(ChangeEvent)) Option {
	return func(f *Field) { f.Notify = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Field) { f.Logger = l }
}

// Statuses binds e to the "status" attribute.
func Statuses(e *Enumeration, opts ...Option) *Field {
	return newField(e, StatusAttribute, EventAfterStatusChange, opts)
}

// Types binds e to the "type" attribute.
func Types(e *Enumeration, opts ...Option) *Field {
	return newField(e, TypeAttribute, EventAfterTypeChange, opts)
}

func newField(e *Enumeration, attribute, event string, opts []Option) *Field {
	f := &Field{Enum: e, Attribute: attribute, EventName: event}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Field) logger() *slog.Logger {
	if f.Logger == nil {
		return slog.Default()
	}
	return f.Logger
}

// Value returns the record's current code. ok is false when the attribute
// is unset or not numeric.
func (f *Field) Value(record types.AttributeAccessor) (int, bool) {
	return CodeOf(record.Attribute(f.Attribute))
}

// Set assigns code without validation or saving.
func (f *Field) Set(record types.AttributeAccessor, code int) {
	record.SetAttribute(f.Attribute, code)
}

// Title returns the label of the record's current code.
func (f *Field) Title(record types.AttributeAccessor, locale string) (string, bool) {
	code, ok := f.Value(record)
	if !ok {
		return "", false
	}
	return f.TitleOf(code, locale)
}

// TitleOf returns the label of code.
func (f *Field) TitleOf(code int, locale string) (string, bool) {
	return f.Enum.Label(code, locale)
}

// Lookup loads the record with id through finder and returns its code.
func (f *Field) Lookup(finder types.Finder, id any) (int, bool, error) {
	record, err := finder.FindByID(id)
	if err != nil {
		return 0, false, err
	}
	code, ok := f.Value(record)
	return code, ok, nil
}

// LookupTitle loads the record with id and returns the label of its code.
// An unset or undeclared code yields an empty title.
func (f *Field) LookupTitle(finder types.Finder, id any, locale string) (string, error) {
	code, ok, err := f.Lookup(finder, id)
	if err != nil || !ok {
		return "", err
	}
	title, _ := f.TitleOf(code, locale)
	return title, nil
}

// Change moves the record to code. Setting the current code again does
// nothing. An undeclared code is logged and returns ErrInvalidCode with the
// record untouched. With autoSave the record is saved afterwards.
func (f *Field) Change(record types.Record, code int, autoSave, runValidation bool) error {
	if current, ok := f.Value(record); ok && current == code {
		return nil
	}
	if !f.Enum.Has(code) {
		f.logger().Warn("invalid code", "attribute", f.Attribute, "code", code)
		return fmt.Errorf("%w: %s %d", types.ErrInvalidCode, f.Attribute, code)
	}
	f.Set(record, code)
	if !autoSave {
		return nil
	}
	if err := record.Save(runValidation); err != nil {
		return fmt.Errorf("save %s change: %w", f.Attribute, err)
	}
	return nil
}

// HandleAfterSave emits one ChangeEvent when the save changed the field's
// attribute.
func (f *Field) HandleAfterSave(e *types.Event) error {
	old, changed := e.Changed(f.Attribute)
	if !changed || f.Notify == nil {
		return nil
	}
	name := f.EventName
	if f.EventMap != nil {
		code, ok := CodeOf(old)
		if !ok {
			return nil
		}
		if name, ok = f.EventMap[code]; !ok {
			return nil
		}
	}
	f.Notify(ChangeEvent{
		ID:        uuid.New(),
		Name:      name,
		Attribute: f.Attribute,
		Old:       old,
		New:       e.Record.Attribute(f.Attribute),
		Record:    e.Record,
	})
	return nil
}

// Listen runs HandleAfterSave after every insert and update.
func (f *Field) Listen(notifier types.LifecycleNotifier) {
	notifier.On(types.EventAfterInsert, f.HandleAfterSave)
	notifier.On(types.EventAfterUpdate, f.HandleAfterSave)
}

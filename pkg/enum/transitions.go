package enum

import (
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/recordkit/pkg/types"
)

// ValidateFunc decides whether moving from the current record state to the
// proposed one is allowed.
type ValidateFunc func(from, to types.Record) bool

// Transitions is a destination-indexed transition table: any declared
// destination is reachable from any state, subject to Validate.
type Transitions struct {
	Attribute string
	Table     *Enumeration

	// Validate filters transitions. Nil allows every declared destination.
	Validate ValidateFunc

	Logger *slog.Logger
}

// NewTransitions returns Transitions on the "status" attribute.
func NewTransitions(table *Enumeration, validate ValidateFunc) *Transitions {
	return &Transitions{Attribute: StatusAttribute, Table: table, Validate: validate}
}

func (t *Transitions) logger() *slog.Logger {
	if t.Logger == nil {
		return slog.Default()
	}
	return t.Logger
}

func (t *Transitions) validate(from, to types.Record) bool {
	if t.Validate == nil {
		return true
	}
	return t.Validate(from, to)
}

// propose returns a copy of record with the attribute set to code.
func (t *Transitions) propose(record types.Record, code int) (types.Record, error) {
	cloner, ok := record.(types.Cloner)
	if !ok {
		return nil, fmt.Errorf("%w: %T", types.ErrNotCloneable, record)
	}
	proposed := cloner.Clone()
	proposed.SetAttribute(t.Attribute, code)
	return proposed, nil
}

// Allowed reports whether record may move to code.
func (t *Transitions) Allowed(record types.Record, code int) (bool, error) {
	if !t.Table.Has(code) {
		return false, nil
	}
	proposed, err := t.propose(record, code)
	if err != nil {
		return false, err
	}
	return t.validate(record, proposed), nil
}

// Available returns the destinations record may move to, in table order.
func (t *Transitions) Available(record types.Record) ([]int, error) {
	var out []int
	for _, code := range t.Table.Codes() {
		ok, err := t.Allowed(record, code)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, code)
		}
	}
	return out, nil
}

// AvailableLabels is Available with labels rendered for locale.
func (t *Transitions) AvailableLabels(record types.Record, locale string) ([]Labeled, error) {
	codes, err := t.Available(record)
	if err != nil {
		return nil, err
	}
	out := make([]Labeled, 0, len(codes))
	for _, code := range codes {
		label, _ := t.Table.Label(code, locale)
		out = append(out, Labeled{Code: code, Label: label})
	}
	return out, nil
}

// Transition moves record to code when allowed. A rejected transition
// returns ErrTransitionRejected and leaves the record unchanged.
func (t *Transitions) Transition(record types.Record, code int, autoSave bool) error {
	ok, err := t.Allowed(record, code)
	if err != nil {
		return err
	}
	if !ok {
		t.logger().Debug("transition rejected", "attribute", t.Attribute, "code", code)
		return fmt.Errorf("%w: %s to %d", types.ErrTransitionRejected, t.Attribute, code)
	}
	record.SetAttribute(t.Attribute, code)
	if !autoSave {
		return nil
	}
	if err := record.Save(true); err != nil {
		return fmt.Errorf("save %s transition: %w", t.Attribute, err)
	}
	return nil
}

// Title returns the transition label of the record's current code.
func (t *Transitions) Title(record types.AttributeAccessor, locale string) (string, bool) {
	code, ok := CodeOf(record.Attribute(t.Attribute))
	if !ok {
		return "", false
	}
	return t.Table.Label(code, locale)
}

// Package enum attaches status and type enumerations to records: code to
// label maps, guarded code changes, change notifications after save and an
// optional transition table.
package enum

import (
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/recordkit/pkg/i18n"
)

// LabelFunc renders a code's label for a locale. An empty locale means the
// application default.
type LabelFunc func(locale string) string

// Entry is one code of an Enumeration.
type Entry struct {
	Code  int
	Label LabelFunc
}

// Labeled is an Entry with its label rendered.
type Labeled struct {
	Code  int    `json:"code" yaml:"code"`
	Label string `json:"label" yaml:"label"`
}

// Enumeration is an ordered code to label map.
type Enumeration struct {
	entries []Entry
	index   map[int]int
}

// New builds an Enumeration keeping the order of entries. A repeated code
// replaces the earlier label in place.
func New(entries ...Entry) *Enumeration {
	e := &Enumeration{index: make(map[int]int, len(entries))}
	for _, entry := range entries {
		e.Add(entry.Code, entry.Label)
	}
	return e
}

// Add appends code, or replaces its label when already present.
func (e *Enumeration) Add(code int, label LabelFunc) {
	if i, ok := e.index[code]; ok {
		e.entries[i].Label = label
		return
	}
	e.index[code] = len(e.entries)
	e.entries = append(e.entries, Entry{Code: code, Label: label})
}

// Static returns a LabelFunc that ignores the locale.
func Static(label string) LabelFunc {
	return func(string) string { return label }
}

// Translated returns an Enumeration whose labels are messages in category
// translated through tr.
func Translated(tr i18n.Translator, category string, messages map[int]string, order ...int) *Enumeration {
	if len(order) == 0 {
		order = slices.Sorted(maps.Keys(messages))
	}
	e := New()
	for _, code := range order {
		msg, ok := messages[code]
		if !ok {
			continue
		}
		e.Add(code, func(locale string) string {
			return tr.Translate(category, msg, nil, locale)
		})
	}
	return e
}

// Has reports whether code is declared.
func (e *Enumeration) Has(code int) bool {
	if e == nil {
		return false
	}
	_, ok := e.index[code]
	return ok
}

// Len returns the number of codes.
func (e *Enumeration) Len() int {
	if e == nil {
		return 0
	}
	return len(e.entries)
}

// Codes returns the declared codes in order.
func (e *Enumeration) Codes() []int {
	if e == nil {
		return nil
	}
	out := make([]int, len(e.entries))
	for i, entry := range e.entries {
		out[i] = entry.Code
	}
	return out
}

// Label renders the label of code. ok is false for undeclared codes.
func (e *Enumeration) Label(code int, locale string) (string, bool) {
	if e == nil {
		return "", false
	}
	i, ok := e.index[code]
	if !ok {
		return "", false
	}
	label := e.entries[i].Label
	if label == nil {
		return strconv.Itoa(code), true
	}
	return label(locale), true
}

// Labels renders every label in order.
func (e *Enumeration) Labels(locale string) []Labeled {
	if e == nil {
		return nil
	}
	out := make([]Labeled, len(e.entries))
	for i, entry := range e.entries {
		label, _ := e.Label(entry.Code, locale)
		out[i] = Labeled{Code: entry.Code, Label: label}
	}
	return out
}

// CodeOf converts an attribute value to a code. Integers, integral floats
// and numeric strings are accepted; nil and anything else report false.
func CodeOf(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int8:
		return int(v), true
	case int16:
		return int(v), true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case uint8:
		return int(v), true
	case uint16:
		return int(v), true
	case uint32:
		return int(v), true
	case uint64:
		if v > math.MaxInt64 {
			return 0, false
		}
		return int(v), true
	case uint:
		if uint64(v) > math.MaxInt64 {
			return 0, false
		}
		return int(v), true
	case float32:
		return integral(float64(v))
	case float64:
		return integral(v)
	case []byte:
		return CodeOf(string(v))
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		return n, err == nil
	}
	return 0, false
}

func integral(f float64) (int, bool) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return int(f), true
}

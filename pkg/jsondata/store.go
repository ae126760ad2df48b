// Package jsondata keeps a free-form JSON object in a single record
// attribute and addresses nested values with dotted paths.
package jsondata

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mesh-intelligence/recordkit/pkg/types"
)

// DefaultAttribute is the attribute holding the encoded object.
const DefaultAttribute = "json_data"

// Store reads and writes the JSON object kept in Attribute.
type Store struct {
	Attribute string

	// Default is used when the attribute is empty. It may be a
	// map[string]any, a JSON string or a func() any returning either.
	Default any

	Logger *slog.Logger
}

// New returns a Store on DefaultAttribute.
func New() *Store {
	return &Store{Attribute: DefaultAttribute}
}

func (s *Store) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s *Store) attribute() string {
	if s.Attribute == "" {
		return DefaultAttribute
	}
	return s.Attribute
}

// Data decodes the stored object. Empty attributes fall back to Default.
// Malformed JSON is logged and reads as no data.
func (s *Store) Data(record types.AttributeAccessor) map[string]any {
	if data, ok := s.decode(record.Attribute(s.attribute())); ok {
		return data
	}
	def := s.Default
	if fn, ok := def.(func() any); ok {
		def = fn()
	}
	data, _ := s.decode(def)
	return data
}

// decode reports false when value holds nothing.
func (s *Store) decode(value any) (map[string]any, bool) {
	var raw []byte
	switch v := value.(type) {
	case nil:
		return nil, false
	case map[string]any:
		return cloneObject(v), true
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		s.logger().Warn("unsupported JSON data value", "attribute", s.attribute(), "type", fmt.Sprintf("%T", value))
		return nil, true
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, false
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		s.logger().Warn("invalid JSON data", "attribute", s.attribute(), "error", err)
		return nil, true
	}
	return data, true
}

// cloneObject copies obj together with every nested object and array so
// edits never reach the caller's map.
func cloneObject(obj map[string]any) map[string]any {
	if obj == nil {
		return nil
	}
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return cloneObject(x)
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = cloneValue(e)
		}
		return out
	}
	return v
}

// SetData encodes data into the attribute. An empty map stores nil.
func (s *Store) SetData(record types.AttributeAccessor, data map[string]any) error {
	if len(data) == 0 {
		record.SetAttribute(s.attribute(), nil)
		return nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", types.ErrInvalidData, s.attribute(), err)
	}
	s.logger().Debug("json data set", "attribute", s.attribute(), "bytes", len(raw))
	record.SetAttribute(s.attribute(), string(raw))
	return nil
}

// Datum returns the value at the dotted path, or def when absent.
func (s *Store) Datum(record types.AttributeAccessor, path string, def any) any {
	cur := any(s.Data(record))
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return def
		}
		if cur, ok = obj[part]; !ok {
			return def
		}
	}
	return cur
}

// SetDatum stores value at the dotted path, creating intermediate objects
// and replacing non-object values along the way.
func (s *Store) SetDatum(record types.AttributeAccessor, path string, value any) error {
	data := s.Data(record)
	if data == nil {
		data = map[string]any{}
	}
	parts := strings.Split(path, ".")
	obj := data
	for _, part := range parts[:len(parts)-1] {
		next, ok := obj[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			obj[part] = next
		}
		obj = next
	}
	obj[parts[len(parts)-1]] = value
	return s.SetData(record, data)
}

// RemoveDatum deletes the value at the dotted path. Missing paths are not
// an error.
func (s *Store) RemoveDatum(record types.AttributeAccessor, path string) error {
	data := s.Data(record)
	parts := strings.Split(path, ".")
	obj := data
	for _, part := range parts[:len(parts)-1] {
		next, ok := obj[part].(map[string]any)
		if !ok {
			return s.SetData(record, data)
		}
		obj = next
	}
	delete(obj, parts[len(parts)-1])
	return s.SetData(record, data)
}

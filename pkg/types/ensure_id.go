package types

import (
	"fmt"
	"strconv"
	"strings"
)

// EnsureID normalizes value to an integer record id. It accepts a Record
// (its primary key is used), any integer or float type, or a numeric string.
// Returns ErrInvalidID for anything else, including a record without a key.
func EnsureID(value any) (int64, error) {
	if r, ok := value.(Record); ok {
		value = r.PrimaryKey()
	}
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		return int64(v), nil
	case float32:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case string:
		s := strings.TrimSpace(v)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int64(f), nil
		}
	}
	return 0, fmt.Errorf("%w: %v", ErrInvalidID, value)
}

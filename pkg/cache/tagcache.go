package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/mesh-intelligence/recordkit/pkg/types"
)

// TagCache caches data on behalf of one record type. Every entry is tagged so
// it can be invalidated when a specific record changes (id tag), when any
// record of the type changes (common tag) or when everything for the type
// must go (type tag).
type TagCache struct {
	// Name is the type tag. Id and common tags are derived from it.
	Name string

	// Backend receives writes and invalidations. Nil means Dummy.
	Backend Backend

	// Additional backends are only invalidated, never written to. Use them
	// for caches that hold data derived from this type.
	Additional []Backend

	// DefaultTTL applies when a write passes a zero ttl.
	DefaultTTL time.Duration

	// AfterInvalidateByID runs after InvalidateByID so a host can extend
	// invalidation to related caches.
	AfterInvalidateByID func(id any)

	Logger *slog.Logger
}

// NewTagCache returns a TagCache for the named type.
func NewTagCache(name string, backend Backend) *TagCache {
	return &TagCache{
		Name:       name,
		Backend:    backend,
		DefaultTTL: types.DefaultCacheTTL,
	}
}

func (c *TagCache) backend() Backend {
	if c.Backend == nil {
		return Dummy{}
	}
	return c.Backend
}

func (c *TagCache) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// TypeTag returns the tag carried by every entry of the type.
func (c *TagCache) TypeTag() string {
	return c.Name
}

// CommonTag returns the tag invalidated whenever any record of the type
// changes.
func (c *TagCache) CommonTag() string {
	return c.Name + ".common"
}

// IDTag returns the tag for a single record. Numeric ids render as numbers
// so that 42, int64(42) and "42" share a tag; other ids are JSON-encoded.
// Integers keep every digit.
func (c *TagCache) IDTag(id any) string {
	if n, ok := numericID(id); ok {
		return c.Name + "." + n
	}
	raw, err := json.Marshal(id)
	if err != nil {
		return c.Name + "." + fmt.Sprint(id)
	}
	return c.Name + "." + string(raw)
}

// Get decodes the entry under key into dst. It reports false on a miss.
func (c *TagCache) Get(key string, dst any) (bool, error) {
	raw, ok, err := c.backend().Get(key)
	if err != nil {
		return false, fmt.Errorf("cache get %q: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("cache get %q: %w", key, err)
	}
	c.logger().Debug("data served from cache", "key", key)
	return true, nil
}

// Exists reports whether a valid entry is stored under key.
func (c *TagCache) Exists(key string) (bool, error) {
	return c.backend().Exists(key)
}

// Set caches value tagged with the type tag and tags only. It does not join
// the common set, so the entry survives InvalidateByID for other ids and is
// cleared only by InvalidateAll or by invalidating one of tags. Use SetForID
// or SetForRecord to cache data that must follow every record change.
func (c *TagCache) Set(key string, value any, ttl time.Duration, tags ...string) error {
	return c.set(key, value, ttl, append([]string{c.TypeTag()}, tags...))
}

// SetCommon caches value in the common set: it is cleared whenever any
// record of the type changes.
func (c *TagCache) SetCommon(key string, value any, ttl time.Duration, tags ...string) error {
	return c.set(key, value, ttl, append([]string{c.TypeTag(), c.CommonTag()}, tags...))
}

// SetForID caches value in the common set and, when id is not nil, ties it
// to that record as well.
func (c *TagCache) SetForID(key string, value any, id any, ttl time.Duration, tags ...string) error {
	if id != nil {
		tags = append(tags, c.IDTag(id))
	}
	return c.SetCommon(key, value, ttl, tags...)
}

// SetForRecord is SetForID with the record's primary key.
func (c *TagCache) SetForRecord(record types.Record, key string, value any, ttl time.Duration, tags ...string) error {
	return c.SetForID(key, value, record.PrimaryKey(), ttl, tags...)
}

func (c *TagCache) set(key string, value any, ttl time.Duration, tags []string) error {
	if ttl <= 0 {
		ttl = c.DefaultTTL
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache set %q: %w", key, err)
	}
	if err := c.backend().Set(key, raw, ttl, tags); err != nil {
		return fmt.Errorf("cache set %q: %w", key, err)
	}
	c.logger().Debug("cached by key", "key", key, "tags", tags)
	return nil
}

// InvalidateByID clears the common set and everything tied to id, then runs
// AfterInvalidateByID.
func (c *TagCache) InvalidateByID(id any) error {
	if err := c.ClearCommon(c.IDTag(id)); err != nil {
		return err
	}
	if c.AfterInvalidateByID != nil {
		c.AfterInvalidateByID(id)
	}
	return nil
}

// InvalidateRecord is InvalidateByID with the record's primary key.
func (c *TagCache) InvalidateRecord(record types.Record) error {
	return c.InvalidateByID(record.PrimaryKey())
}

// ClearCommon clears the common set together with any extra tags.
func (c *TagCache) ClearCommon(tags ...string) error {
	return c.ClearByTags(append(tags, c.CommonTag())...)
}

// InvalidateAll clears every entry of the type.
func (c *TagCache) InvalidateAll() error {
	return c.ClearByTags(c.TypeTag())
}

// ClearByTags invalidates tags on the primary and every additional backend.
// All backends are attempted; failures are joined.
func (c *TagCache) ClearByTags(tags ...string) error {
	var errs []error
	for _, b := range append([]Backend{c.backend()}, c.Additional...) {
		if b == nil {
			continue
		}
		if err := b.InvalidateTags(tags...); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("cache invalidate %s: %w", strings.Join(tags, ","), err)
	}
	c.logger().Debug("cache cleared by tags", "tags", tags)
	return nil
}

// Listen wires cache invalidation to record lifecycle events: an insert
// clears the common set, an update or delete invalidates the record's id.
func (c *TagCache) Listen(notifier types.LifecycleNotifier) {
	notifier.On(types.EventAfterInsert, func(*types.Event) error {
		return c.ClearCommon()
	})
	byID := func(e *types.Event) error {
		return c.InvalidateRecord(e.Record)
	}
	notifier.On(types.EventAfterUpdate, byID)
	notifier.On(types.EventAfterDelete, byID)
}

// numericID renders numeric ids and numeric strings in canonical form.
func numericID(id any) (string, bool) {
	switch v := id.(type) {
	case int:
		return strconv.FormatInt(int64(v), 10), true
	case int8:
		return strconv.FormatInt(int64(v), 10), true
	case int16:
		return strconv.FormatInt(int64(v), 10), true
	case int32:
		return strconv.FormatInt(int64(v), 10), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case uint:
		return strconv.FormatUint(uint64(v), 10), true
	case uint8:
		return strconv.FormatUint(uint64(v), 10), true
	case uint16:
		return strconv.FormatUint(uint64(v), 10), true
	case uint32:
		return strconv.FormatUint(uint64(v), 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	case float32:
		return formatFloatID(float64(v)), true
	case float64:
		return formatFloatID(v), true
	case json.Number:
		return numericString(v.String())
	case string:
		return numericString(v)
	}
	return "", false
}

func numericString(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return strconv.FormatInt(n, 10), true
	}
	if n, err := strconv.ParseUint(s, 10, 64); err == nil {
		return strconv.FormatUint(n, 10), true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return "", false
	}
	return formatFloatID(f), true
}

// formatFloatID renders integral floats in int64 range as integers so 42.0
// and 42 share a tag.
func formatFloatID(f float64) string {
	if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

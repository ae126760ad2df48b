package cache

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/recordkit/pkg/types"
)

type item struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type idRecord struct{ id any }

func (r idRecord) Attribute(string) any { return nil }
func (r idRecord) SetAttribute(string, any) {}
func (r idRecord) Save(bool) error { return nil }
func (r idRecord) IsNewRecord() bool { return r.id == nil }
func (r idRecord) PrimaryKey() any { return r.id }

type handlers map[types.LifecycleEvent][]types.EventHandler

func (h handlers) On(event types.LifecycleEvent, handler types.EventHandler) {
	h[event] = append(h[event], handler)
}

func (h handlers) fire(t *testing.T, event types.LifecycleEvent, record types.Record) {
	t.Helper()
	for _, handler := range h[event] {
		require.NoError(t, handler(&types.Event{Name: event, Record: record}))
	}
}

type failingBackend struct{ Dummy }

func (failingBackend) InvalidateTags(...string) error { return errors.New("backend down") }

func newTestCache(name string) *TagCache {
	return NewTagCache(name, NewTagged(NewMemory()))
}

func hit(t *testing.T, c *TagCache, key string) bool {
	t.Helper()
	var v item
	ok, err := c.Get(key, &v)
	require.NoError(t, err)
	return ok
}

func TestTagNames(t *testing.T) {
	c := newTestCache("app.Order")

	assert.Equal(t, "app.Order", c.TypeTag())
	assert.Equal(t, "app.Order.common", c.CommonTag())

	tests := []struct {
		id   any
		want string
	}{
		{42, "app.Order.42"},
		{int64(42), "app.Order.42"},
		{"42", "app.Order.42"},
		{42.0, "app.Order.42"},
		{4.5, "app.Order.4.5"},
		{int64(1<<53 + 1), "app.Order.9007199254740993"},
		{uint64(1<<63 + 1), "app.Order.9223372036854775809"},
		{" 9007199254740993 ", "app.Order.9007199254740993"},
		{json.Number("9007199254740993"), "app.Order.9007199254740993"},
		{"abc", `app.Order."abc"`},
		{map[string]int{"a": 1}, `app.Order.{"a":1}`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, c.IDTag(tt.id), "id %v", tt.id)
	}
}

func TestGetSetRoundTrip(t *testing.T) {
	c := newTestCache("orders")

	require.NoError(t, c.SetCommon("list", item{ID: 1, Name: "first"}, 0))

	var got item
	ok, err := c.Get("list", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, item{ID: 1, Name: "first"}, got)

	exists, err := c.Exists("list")
	require.NoError(t, err)
	assert.True(t, exists)

	ok, err = c.Get("nope", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInvalidateByIDKeepsOtherIDs(t *testing.T) {
	c := newTestCache("orders")

	require.NoError(t, c.SetForID("order:42", item{ID: 42}, 42, 0))
	require.NoError(t, c.Set("order:43", item{ID: 43}, 0, c.IDTag(43)))
	require.NoError(t, c.SetCommon("summary", item{Name: "all"}, 0))

	require.NoError(t, c.InvalidateByID(42))

	assert.False(t, hit(t, c, "order:42"))
	assert.False(t, hit(t, c, "summary"), "common set is cleared with any id")
	assert.True(t, hit(t, c, "order:43"))

	require.NoError(t, c.InvalidateByID(43))
	assert.False(t, hit(t, c, "order:43"))
}

func TestInvalidateByIDKeepsLargeIDsApart(t *testing.T) {
	c := newTestCache("orders")
	const first, second = int64(1 << 53), int64(1<<53 + 1)

	require.NotEqual(t, c.IDTag(first), c.IDTag(second))
	require.NoError(t, c.Set("order:a", item{Name: "a"}, 0, c.IDTag(first)))
	require.NoError(t, c.Set("order:b", item{Name: "b"}, 0, c.IDTag(second)))

	require.NoError(t, c.InvalidateByID(first))

	assert.False(t, hit(t, c, "order:a"))
	assert.True(t, hit(t, c, "order:b"))
}

func TestSetForIDJoinsCommonSet(t *testing.T) {
	c := newTestCache("orders")

	require.NoError(t, c.SetForID("order:43", item{ID: 43}, 43, 0))
	require.NoError(t, c.InvalidateByID(42))

	assert.False(t, hit(t, c, "order:43"))
}

func TestSetForIDWithoutID(t *testing.T) {
	c := newTestCache("orders")

	require.NoError(t, c.SetForID("k", item{}, nil, 0))
	require.NoError(t, c.InvalidateByID(7))
	assert.False(t, hit(t, c, "k"))
}

func TestInvalidateAll(t *testing.T) {
	c := newTestCache("orders")
	other := NewTagCache("customers", c.Backend)

	require.NoError(t, c.SetForID("a", item{ID: 1}, 1, 0))
	require.NoError(t, c.Set("b", item{ID: 2}, 0))
	require.NoError(t, c.SetCommon("c", item{}, 0, "reports"))
	require.NoError(t, other.SetCommon("d", item{}, 0))

	require.NoError(t, c.InvalidateAll())

	assert.False(t, hit(t, c, "a"))
	assert.False(t, hit(t, c, "b"))
	assert.False(t, hit(t, c, "c"))
	assert.True(t, hit(t, other, "d"))
}

func TestClearByExtraTag(t *testing.T) {
	c := newTestCache("orders")

	require.NoError(t, c.Set("report", item{}, 0, "reports"))
	require.NoError(t, c.Set("other", item{}, 0))

	require.NoError(t, c.ClearByTags("reports"))
	assert.False(t, hit(t, c, "report"))
	assert.True(t, hit(t, c, "other"))
}

func TestAdditionalBackendsAreInvalidated(t *testing.T) {
	c := newTestCache("orders")
	related := NewTagged(NewMemory())
	c.Additional = []Backend{related}

	require.NoError(t, related.Set("derived", []byte(`{}`), 0, []string{c.CommonTag()}))
	require.NoError(t, c.ClearCommon())

	_, ok, err := related.Get("derived")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClearByTagsJoinsErrors(t *testing.T) {
	c := newTestCache("orders")
	c.Additional = []Backend{failingBackend{}}

	err := c.InvalidateAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend down")
}

func TestAfterInvalidateByIDHook(t *testing.T) {
	c := newTestCache("orders")
	var seen []any
	c.AfterInvalidateByID = func(id any) { seen = append(seen, id) }

	require.NoError(t, c.InvalidateByID(5))
	require.NoError(t, c.InvalidateRecord(idRecord{id: 6}))
	assert.Equal(t, []any{5, 6}, seen)
}

func TestSetForRecord(t *testing.T) {
	c := newTestCache("orders")

	require.NoError(t, c.SetForRecord(idRecord{id: 9}, "nine", item{ID: 9}, 0))
	require.NoError(t, c.InvalidateRecord(idRecord{id: 9}))
	assert.False(t, hit(t, c, "nine"))
}

func TestListen(t *testing.T) {
	c := newTestCache("orders")
	h := handlers{}
	c.Listen(h)

	require.NoError(t, c.Set("order:1", item{ID: 1}, 0, c.IDTag(1)))
	require.NoError(t, c.Set("order:2", item{ID: 2}, 0, c.IDTag(2)))
	require.NoError(t, c.SetCommon("summary", item{}, 0))

	h.fire(t, types.EventAfterInsert, idRecord{id: 3})
	assert.False(t, hit(t, c, "summary"))
	assert.True(t, hit(t, c, "order:1"))

	h.fire(t, types.EventAfterUpdate, idRecord{id: 1})
	assert.False(t, hit(t, c, "order:1"))
	assert.True(t, hit(t, c, "order:2"))

	h.fire(t, types.EventAfterDelete, idRecord{id: 2})
	assert.False(t, hit(t, c, "order:2"))
}

func TestDefaultTTLAppliesToZero(t *testing.T) {
	store := NewMemory()
	c := NewTagCache("orders", NewTagged(store))
	assert.Equal(t, types.DefaultCacheTTL, c.DefaultTTL)

	require.NoError(t, c.SetCommon("k", item{}, 0))
	e := store.entries["k"]
	assert.False(t, e.expires.IsZero())
}

func TestNilBackendIsDummy(t *testing.T) {
	c := &TagCache{Name: "orders"}

	require.NoError(t, c.SetCommon("k", item{}, 0))
	assert.False(t, hit(t, c, "k"))
	require.NoError(t, c.InvalidateAll())
}

func TestTaggedDropsUnreadableEntries(t *testing.T) {
	store := NewMemory()
	tagged := NewTagged(store)
	require.NoError(t, store.Set("raw", []byte("not json"), 0))

	_, ok, err := tagged.Get("raw")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
}

func TestTaggedDeletesStaleEntries(t *testing.T) {
	store := NewMemory()
	tagged := NewTagged(store)

	require.NoError(t, tagged.Set("k", []byte("1"), 0, []string{"t"}))
	require.NoError(t, tagged.InvalidateTags("t"))

	_, ok, err := tagged.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, _ = store.Get("k")
	assert.False(t, ok)
	assert.Same(t, Store(store), tagged.Store())
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	tests := []struct {
		name  string
		cfg   types.CacheConfig
		dummy bool
		warn  bool
	}{
		{"empty driver", types.CacheConfig{}, true, false},
		{"dummy", types.CacheConfig{Driver: types.CacheDriverDummy}, true, false},
		{"memory", types.CacheConfig{Driver: types.CacheDriverMemory}, false, false},
		{"file", types.CacheConfig{Driver: types.CacheDriverFile, Dir: filepath.Join(dir, "files")}, false, false},
		{"sqlite", types.CacheConfig{Driver: types.CacheDriverSQLite, DSN: filepath.Join(dir, "c.db")}, false, false},
		{"file without dir", types.CacheConfig{Driver: types.CacheDriverFile}, true, true},
		{"sqlite without dsn", types.CacheConfig{Driver: types.CacheDriverSQLite}, true, true},
		{"unknown", types.CacheConfig{Driver: "redis"}, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			b := Open(tt.cfg, logger)
			_, isDummy := b.(Dummy)
			assert.Equal(t, tt.dummy, isDummy)
			assert.Equal(t, tt.warn, bytes.Contains(buf.Bytes(), []byte("level=WARN")))

			require.NoError(t, b.Set("k", []byte(`"v"`), 0, []string{"t"}))
			_, ok, err := b.Get("k")
			require.NoError(t, err)
			assert.Equal(t, !tt.dummy, ok)
		})
	}
}

func TestOpenNilLogger(t *testing.T) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, isDummy := Open(types.CacheConfig{Driver: "bogus"}, nil).(Dummy)
	assert.True(t, isDummy)
}

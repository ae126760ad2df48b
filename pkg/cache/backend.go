// Package cache provides a tag-scoped cache facade for record types and the
// key/value backends it runs on.
//
// Entries are grouped by tags so that one write can later be invalidated by
// any of several triggers: the record it belongs to changed, any record of
// the type changed, or everything for the type must go. Backends implement
// tag invalidation by versioning: every tag has a version token, entries
// remember the versions they were written under, and invalidating a tag
// simply rotates its token.
package cache

import "time"

// Backend is a key/value cache with tag-based bulk invalidation.
type Backend interface {
	// Get returns the value stored under key. ok is false on a miss,
	// including entries whose tags were invalidated after the write.
	Get(key string) (value []byte, ok bool, err error)

	// Set stores value under key for ttl (zero means no expiry) and
	// associates it with tags.
	Set(key string, value []byte, ttl time.Duration, tags []string) error

	// Exists reports whether a valid entry is stored under key.
	Exists(key string) (bool, error)

	// InvalidateTags makes every entry carrying any of tags a miss.
	InvalidateTags(tags ...string) error
}

// Store is a raw byte store with expiry. NewTagged layers tag
// invalidation on top of any Store.
type Store interface {
	Get(key string) (value []byte, ok bool, err error)
	Set(key string, value []byte, ttl time.Duration) error
	Exists(key string) (bool, error)
	Delete(keys ...string) error
}

// Dummy is a Backend that stores nothing. It is used when no cache is
// configured or the configured one cannot be opened.
type Dummy struct{}

var _ Backend = Dummy{}

func (Dummy) Get(string) ([]byte, bool, error) { return nil, false, nil }

func (Dummy) Set(string, []byte, time.Duration, []string) error { return nil }

func (Dummy) Exists(string) (bool, error) { return false, nil }

func (Dummy) InvalidateTags(...string) error { return nil }

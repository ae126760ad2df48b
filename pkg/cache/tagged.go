package cache

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// tagKeyPrefix namespaces tag version tokens inside the underlying store.
const tagKeyPrefix = "tag:"

// envelope is the stored form of a tagged entry.
type envelope struct {
	Value []byte            `json:"v"`
	Tags  map[string]string `json:"t,omitempty"`
}

// Tagged adds tag invalidation to a Store.
type Tagged struct {
	store Store
}

var _ Backend = (*Tagged)(nil)

// NewTagged returns a Backend that versions tags inside store.
func NewTagged(store Store) *Tagged {
	return &Tagged{store: store}
}

// Close closes the underlying store when it holds resources.
func (t *Tagged) Close() error {
	if c, ok := t.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Store returns the underlying raw store.
func (t *Tagged) Store() Store {
	return t.store
}

// Get returns the entry under key if none of its tags were invalidated since
// it was written. A stale entry is deleted and reported as a miss.
func (t *Tagged) Get(key string) ([]byte, bool, error) {
	raw, ok, err := t.store.Get(key)
	if err != nil || !ok {
		return nil, false, err
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		// Unreadable entries are dropped rather than surfaced.
		_ = t.store.Delete(key)
		return nil, false, nil
	}
	for tag, version := range env.Tags {
		current, ok, err := t.version(tag)
		if err != nil {
			return nil, false, err
		}
		if !ok || current != version {
			if err := t.store.Delete(key); err != nil {
				return nil, false, err
			}
			return nil, false, nil
		}
	}
	return env.Value, true, nil
}

// Set writes value under key, recording the current version of every tag.
// Tags seen for the first time are given a version.
func (t *Tagged) Set(key string, value []byte, ttl time.Duration, tags []string) error {
	env := envelope{Value: value}
	if len(tags) > 0 {
		env.Tags = make(map[string]string, len(tags))
	}
	for _, tag := range tags {
		version, ok, err := t.version(tag)
		if err != nil {
			return err
		}
		if !ok {
			version, err = t.rotate(tag)
			if err != nil {
				return err
			}
		}
		env.Tags[tag] = version
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode cache entry %q: %w", key, err)
	}
	return t.store.Set(key, raw, ttl)
}

// Exists reports whether Get would hit.
func (t *Tagged) Exists(key string) (bool, error) {
	_, ok, err := t.Get(key)
	return ok, err
}

// InvalidateTags rotates the version of every tag.
func (t *Tagged) InvalidateTags(tags ...string) error {
	for _, tag := range tags {
		if _, err := t.rotate(tag); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tagged) version(tag string) (string, bool, error) {
	raw, ok, err := t.store.Get(tagKeyPrefix + tag)
	if err != nil || !ok {
		return "", false, err
	}
	return string(raw), true, nil
}

func (t *Tagged) rotate(tag string) (string, error) {
	version := uuid.Must(uuid.NewV7()).String()
	if err := t.store.Set(tagKeyPrefix+tag, []byte(version), 0); err != nil {
		return "", fmt.Errorf("rotate cache tag %q: %w", tag, err)
	}
	return version, nil
}

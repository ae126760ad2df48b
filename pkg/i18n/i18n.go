// Package i18n defines the translation lookup used for default labels and
// month/weekday names, with a catalog-backed implementation built on
// golang.org/x/text.
package i18n

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Translator looks up the translation of message in category for locale and
// substitutes {name} placeholders from params. Missing translations return
// message itself.
type Translator interface {
	Translate(category, message string, params map[string]any, locale string) string
}

// Identity is a Translator that never translates.
type Identity struct{}

func (Identity) Translate(_, message string, params map[string]any, _ string) string {
	return Substitute(message, params)
}

// Catalog stores translations per locale.
type Catalog struct {
	mu       sync.RWMutex
	builder  *catalog.Builder
	fallback language.Tag
}

var _ Translator = (*Catalog)(nil)

// NewCatalog returns an empty Catalog. fallback is used when Translate is
// called without a locale.
func NewCatalog(fallback string) *Catalog {
	tag := language.Make(fallback)
	return &Catalog{
		builder:  catalog.NewBuilder(catalog.Fallback(tag)),
		fallback: tag,
	}
}

// Set registers the translation of message in category for locale.
func (c *Catalog) Set(locale, category, message, translation string) error {
	tag, err := language.Parse(locale)
	if err != nil {
		return fmt.Errorf("locale %q: %w", locale, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.builder.SetString(tag, key(category, message), escape(translation))
}

// SetAll registers every message -> translation pair of messages.
func (c *Catalog) SetAll(locale, category string, messages map[string]string) error {
	for msg, translation := range messages {
		if err := c.Set(locale, category, msg, translation); err != nil {
			return err
		}
	}
	return nil
}

// Translate implements Translator. Locales fall back to their parents, so a
// message registered for "lv" is found for "lv-LV".
func (c *Catalog) Translate(category, msg string, params map[string]any, locale string) string {
	tag := c.fallback
	if locale != "" {
		tag = language.Make(locale)
	}
	c.mu.RLock()
	p := message.NewPrinter(tag, message.Catalog(c.builder))
	out := p.Sprintf(message.Key(key(category, msg), escape(msg)))
	c.mu.RUnlock()
	return Substitute(out, params)
}

// Languages lists the locales that have at least one translation.
func (c *Catalog) Languages() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	tags := c.builder.Languages()
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, t.String())
	}
	sort.Strings(out)
	return out
}

// Substitute replaces each {name} in s with the matching param.
// Placeholders without a param are left as is.
func Substitute(s string, params map[string]any) string {
	if len(params) == 0 || !strings.Contains(s, "{") {
		return s
	}
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	pairs := make([]string, 0, 2*len(names))
	for _, name := range names {
		pairs = append(pairs, "{"+name+"}", fmt.Sprint(params[name]))
	}
	return strings.NewReplacer(pairs...).Replace(s)
}

func key(category, message string) string {
	return category + "/" + message
}

// escape protects literal percent signs from the printer's verb handling.
func escape(s string) string {
	return strings.ReplaceAll(s, "%", "%%")
}

// Package identifier generates random, human-displayable identifiers and
// keeps them unique within a record scope.
package identifier

import (
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode"

	"github.com/mesh-intelligence/recordkit/pkg/types"
)

// LookAlikeCharacters are removed from the charset when ExcludeLookAlike is set.
const LookAlikeCharacters = "O0I|l1"

// Creator builds identifiers of the form prefix + random body + suffix.
// The zero value uses types.DefaultCharset and crypto/rand.
type Creator struct {
	// Charset lists every character an identifier body may contain.
	Charset string

	// Prefix and Suffix count toward the maximum length.
	Prefix string
	Suffix string

	ExcludeLookAlike  bool
	ExcludeLowercase  bool
	EachCharacterOnce bool

	// Random is the secure byte source. Defaults to crypto/rand.Reader.
	Random io.Reader

	Logger *slog.Logger
}

// NewCreator returns a Creator configured from cfg.
func NewCreator(cfg types.IdentifierConfig) *Creator {
	return &Creator{
		Charset:           cfg.Charset,
		Prefix:            cfg.Prefix,
		Suffix:            cfg.Suffix,
		ExcludeLookAlike:  cfg.ExcludeLookAlike,
		ExcludeLowercase:  cfg.ExcludeLowercase,
		EachCharacterOnce: cfg.EachCharacterOnce,
	}
}

func (c *Creator) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

func (c *Creator) random() io.Reader {
	if c.Random != nil {
		return c.Random
	}
	return rand.Reader
}

// WorkingCharset returns the charset after the configured exclusions.
// Duplicate characters are collapsed and characters outside ASCII are
// dropped, since the body is drawn one random byte at a time.
func (c *Creator) WorkingCharset() string {
	charset := c.Charset
	if charset == "" {
		charset = types.DefaultCharset
	}
	seen := make(map[rune]bool, len(charset))
	var b strings.Builder
	for _, r := range charset {
		if r > unicode.MaxASCII || seen[r] {
			continue
		}
		if c.ExcludeLowercase && unicode.IsLower(r) {
			continue
		}
		if c.ExcludeLookAlike && strings.ContainsRune(LookAlikeCharacters, r) {
			continue
		}
		seen[r] = true
		b.WriteRune(r)
	}
	return b.String()
}

// RandomKey returns length bytes read from the secure random source.
// Returns ErrInvalidLength if length < 1 and ErrEntropyUnavailable if the
// source cannot be read. There is no fallback to a weaker source.
func (c *Creator) RandomKey(length int) ([]byte, error) {
	if length < 1 {
		return nil, types.ErrInvalidLength
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(c.random(), buf); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrEntropyUnavailable, err)
	}
	return buf, nil
}

// Generate returns a new identifier no longer than maxLength, drawn from
// the working charset.
func (c *Creator) Generate(maxLength int) (string, error) {
	return c.GenerateFromCharset(c.WorkingCharset(), maxLength)
}

// GenerateFromCharset returns prefix + body + suffix where the body is
// drawn from charset by rejection sampling over secure random bytes.
// The body fills whatever room maxLength leaves after prefix and suffix.
func (c *Creator) GenerateFromCharset(charset string, maxLength int) (string, error) {
	bodyLength := maxLength - len(c.Prefix) - len(c.Suffix)
	if bodyLength <= 0 {
		return c.Prefix + c.Suffix, nil
	}

	var accept [256]bool
	distinct := 0
	for i := 0; i < len(charset); i++ {
		if !accept[charset[i]] {
			accept[charset[i]] = true
			distinct++
		}
	}
	if distinct == 0 {
		return "", types.ErrEmptyCharset
	}
	if c.EachCharacterOnce && distinct < bodyLength {
		return "", fmt.Errorf("%w: need %d, have %d", types.ErrCharsetExhausted, bodyLength, distinct)
	}

	var used [256]bool
	body := make([]byte, 0, bodyLength)
	steps := 0
	for len(body) < bodyLength {
		b, err := c.RandomKey(1)
		if err != nil {
			return "", err
		}
		steps++
		ch := b[0]
		if !accept[ch] {
			continue
		}
		if c.EachCharacterOnce && used[ch] {
			continue
		}
		used[ch] = true
		body = append(body, ch)
	}
	c.logger().Debug("generated identifier", "steps", steps)

	return c.Prefix + string(body) + c.Suffix, nil
}

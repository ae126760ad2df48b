// Package files maps stored files to URLs, measures them and parses
// shorthand size limits such as "2M".
package files

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
)

// unitOrder is the magnitude order of size units; the index of a unit is
// its power of 1024.
const unitOrder = "bkmgtpezy"

var iecSuffix = map[byte]string{
	'b': "B",
	'k': "KiB",
	'm': "MiB",
	'g': "GiB",
	't': "TiB",
	'p': "PiB",
	'e': "EiB",
	'z': "ZiB",
	'y': "YiB",
}

// ErrOutsideRoot is returned by FileURL for paths outside the web root.
var ErrOutsideRoot = errors.New("path is outside the web root")

// Helper measures and addresses files on a filesystem.
type Helper struct {
	// Fs is the filesystem files are read from. Nil uses the OS filesystem.
	Fs afero.Fs
	// Root is the directory published at Base.
	Root string
	// Base is the URL Root is served from. Nil yields root-relative URLs.
	Base *url.URL
}

// New returns a Helper publishing root at base.
func New(root string, base *url.URL) *Helper {
	return &Helper{Fs: afero.NewOsFs(), Root: root, Base: base}
}

func (h *Helper) fs() afero.Fs {
	if h.Fs == nil {
		return afero.NewOsFs()
	}
	return h.Fs
}

// FileURL returns the URL of path, which must lie under Root. An empty path
// returns "".
func (h *Helper) FileURL(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	rel, err := filepath.Rel(h.Root, path)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}
	if rel == "." {
		rel = ""
	}
	if h.Base == nil {
		return "/" + rel, nil
	}
	return h.Base.JoinPath(rel).String(), nil
}

// MeasureFileSize returns the size of the file at path in bytes. Empty
// paths, missing files and directories measure 0.
func (h *Helper) MeasureFileSize(path string) int64 {
	if path == "" {
		return 0
	}
	info, err := h.fs().Stat(path)
	if err != nil || info.IsDir() {
		return 0
	}
	return info.Size()
}

// ParseSize converts shorthand size notation to bytes: "2M" is 2097152, "512k"
// is 524288 and "100" is 100. Characters other than digits, '.' and unit
// letters are ignored, and only the first unit letter counts. A size
// without digits is 0.
func ParseSize(size string) (float64, error) {
	var number, unit strings.Builder
	for i := 0; i < len(size); i++ {
		c := size[i]
		switch {
		case c >= '0' && c <= '9' || c == '.':
			number.WriteByte(c)
		case strings.IndexByte(unitOrder, lower(c)) >= 0:
			unit.WriteByte(lower(c))
		}
	}
	if number.Len() == 0 {
		return 0, nil
	}
	suffix := "B"
	if unit.Len() > 0 {
		suffix = iecSuffix[unit.String()[0]]
	}
	n, err := humanize.ParseBigBytes(number.String() + suffix)
	if err != nil {
		return 0, fmt.Errorf("parse size %q: %w", size, err)
	}
	f, _ := new(big.Float).SetInt(n).Float64()
	return math.Round(f), nil
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}

// FormatSize renders bytes with binary units, e.g. "2.0 MiB".
func FormatSize(bytes uint64) string {
	return humanize.IBytes(bytes)
}

// UploadMaxSize returns the effective upload limit from the post and upload
// limits in shorthand notation. The post limit is the starting point; a
// positive upload limit lowers it. A user limit, when given, caps the
// result. A result of -1 means no limit is known.
func UploadMaxSize(postMax, uploadMax string, userLimit *int64) (float64, error) {
	maxSize := -1.0
	post, err := ParseSize(postMax)
	if err != nil {
		return 0, err
	}
	if post > 0 {
		maxSize = post
	}
	upload, err := ParseSize(uploadMax)
	if err != nil {
		return 0, err
	}
	if upload > 0 && upload < maxSize {
		maxSize = upload
	}
	if userLimit == nil {
		return maxSize, nil
	}
	return math.Min(maxSize, float64(*userLimit)), nil
}

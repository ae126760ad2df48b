// Package dateformat creates, converts and formats date-time values across
// time zones, and rewrites record attributes between storage (UTC) and
// display (application zone) form.
package dateformat

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/ncruces/go-strftime"
	"github.com/spf13/cast"

	"github.com/mesh-intelligence/recordkit/pkg/i18n"
	"github.com/mesh-intelligence/recordkit/pkg/types"
)

// Layouts and templates.
const (
	StorageLayout   = "2006-01-02 15:04:05"
	DefaultTemplate = "{monthName} {day} {year}, {hours}:{minutes}"

	// Category is the translation category of month and weekday names.
	Category = "recordkit.dateformat"

	zeroDateTime = "0000-00-00 00:00:00"
)

var monthNames = [...]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

var weekdayNames = [...]string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// Formatter converts date-time values. TimeZone is the application zone,
// used for display and as the default source zone of Create.
type Formatter struct {
	TimeZone   string
	Translator i18n.Translator
	Logger     *slog.Logger
}

// New returns a Formatter for the application zone tz.
func New(tz string, tr i18n.Translator, logger *slog.Logger) *Formatter {
	return &Formatter{TimeZone: tz, Translator: tr, Logger: logger}
}

func (f *Formatter) logger() *slog.Logger {
	if f.Logger == nil {
		return slog.Default()
	}
	return f.Logger
}

func (f *Formatter) translator() i18n.Translator {
	if f.Translator == nil {
		return i18n.Identity{}
	}
	return f.Translator
}

func (f *Formatter) appZone() string {
	if f.TimeZone == "" {
		return types.DefaultTimeZone
	}
	return f.TimeZone
}

// Location loads the named zone.
func Location(name string) (*time.Location, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownTimezone, name)
	}
	return loc, nil
}

// IsEmpty reports whether value holds no date: the empty string or the
// all-zero SQL date-time.
func IsEmpty(value string) bool {
	v := strings.TrimSpace(value)
	return v == "" || v == zeroDateTime
}

// Create parses value in zone from (the application zone when empty) and
// converts it to zone to when set. Empty values, unknown zones and
// unparsable dates yield nil; the latter two are logged.
func (f *Formatter) Create(value, from, to string) *time.Time {
	t, err := f.create(value, from, to)
	if err != nil {
		f.logger().Error("could not create date", "value", value, "error", err)
		return nil
	}
	return t
}

func (f *Formatter) create(value, from, to string) (*time.Time, error) {
	if IsEmpty(value) {
		return nil, nil
	}
	if from == "" {
		from = f.appZone()
	}
	fromLoc, err := Location(from)
	if err != nil {
		return nil, err
	}
	t, err := cast.ToTimeInDefaultLocationE(strings.TrimSpace(value), fromLoc)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidDateTime, value)
	}
	if to != "" {
		toLoc, err := Location(to)
		if err != nil {
			return nil, err
		}
		t = t.In(toLoc)
	}
	return &t, nil
}

// CreateUTC parses value as a UTC date-time.
func (f *Formatter) CreateUTC(value string) *time.Time {
	return f.Create(value, "UTC", "")
}

// FormatUTC formats a UTC date-time with a Go layout. An empty layout means
// RFC 3339. Empty or invalid input yields "".
func (f *Formatter) FormatUTC(value, layout string) string {
	t := f.CreateUTC(value)
	if t == nil {
		return ""
	}
	if layout == "" {
		layout = time.RFC3339
	}
	return t.Format(layout)
}

// Strftime formats value, shown in zone tz when set, with a strftime
// pattern such as "%Y-%m-%d %H:%M".
func (f *Formatter) Strftime(value any, tz, pattern string) string {
	t := f.resolve(value, tz)
	if t == nil {
		return ""
	}
	return strftime.Format(pattern, *t)
}

// MonthNames returns month names January to December for locale.
func (f *Formatter) MonthNames(locale string) []string {
	return f.translateAll(monthNames[:], locale)
}

// WeekdayNames returns weekday names Monday to Sunday for locale.
func (f *Formatter) WeekdayNames(locale string) []string {
	return f.translateAll(weekdayNames[:], locale)
}

func (f *Formatter) translateAll(names []string, locale string) []string {
	tr := f.translator()
	out := make([]string, len(names))
	for i, name := range names {
		out[i] = tr.Translate(Category, name, nil, locale)
	}
	return out
}

// Format renders value through template. value may be a time.Time, a
// *time.Time or a date-time string in zone tz. When tz is set the value is
// shown in that zone. Recognized placeholders are {year} {month}
// {monthName} {day} {weekday} (1 = Monday) {weekdayName} {hours}
// {minutes} {seconds}.
func (f *Formatter) Format(value any, tz, template, locale string) string {
	t := f.resolve(value, tz)
	if t == nil {
		return ""
	}
	if template == "" {
		template = DefaultTemplate
	}
	weekday := int(t.Weekday()+6)%7 + 1
	return strings.NewReplacer(
		"{year}", strconv.Itoa(t.Year()),
		"{monthName}", f.MonthNames(locale)[t.Month()-1],
		"{month}", strconv.Itoa(int(t.Month())),
		"{day}", strconv.Itoa(t.Day()),
		"{weekdayName}", f.WeekdayNames(locale)[weekday-1],
		"{weekday}", strconv.Itoa(weekday),
		"{hours}", fmt.Sprintf("%02d", t.Hour()),
		"{minutes}", fmt.Sprintf("%02d", t.Minute()),
		"{seconds}", fmt.Sprintf("%02d", t.Second()),
	).Replace(template)
}

func (f *Formatter) resolve(value any, tz string) *time.Time {
	var t time.Time
	switch v := value.(type) {
	case time.Time:
		t = v
	case *time.Time:
		if v == nil {
			return nil
		}
		t = *v
	case string:
		p := f.Create(v, tz, "")
		if p == nil {
			return nil
		}
		t = *p
	default:
		f.logger().Error("unsupported date value", "type", fmt.Sprintf("%T", value))
		return nil
	}
	if tz != "" {
		loc, err := Location(tz)
		if err != nil {
			f.logger().Error("could not format date", "error", err)
			return nil
		}
		t = t.In(loc)
	}
	return &t
}

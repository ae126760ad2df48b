package dateformat

import (
	"fmt"
	"strings"
	"time"

	"github.com/mesh-intelligence/recordkit/pkg/types"
)

// ConvertOptions controls Convert. Zero values select the defaults noted on
// each field.
type ConvertOptions struct {
	// From is the zone of the input. Default "UTC".
	From string

	// To is the zone of the output. Default the application zone.
	To string

	// Layout is the Go layout of the output. Default StorageLayout.
	Layout string

	// SkipZeroTime drops the time part from Layout when the converted
	// value is exactly midnight.
	SkipZeroTime bool

	// Default is returned for empty input.
	Default any
}

// Convert moves value between zones and formats it. Empty input returns
// opts.Default; unknown zones and invalid dates are logged and yield "".
func (f *Formatter) Convert(value string, opts ConvertOptions) any {
	if IsEmpty(value) {
		return opts.Default
	}
	if opts.From == "" {
		opts.From = "UTC"
	}
	if opts.To == "" {
		opts.To = f.appZone()
	}
	t := f.Create(value, opts.From, opts.To)
	if t == nil {
		return ""
	}
	layout := opts.Layout
	if layout == "" {
		layout = StorageLayout
	}
	if opts.SkipZeroTime && t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		layout = dropTime(layout)
	}
	return t.Format(layout)
}

// dropTime removes the clock part of a layout.
func dropTime(layout string) string {
	switch {
	case strings.Contains(layout, "15:04:05"):
		layout = strings.Replace(layout, "15:04:05", "", 1)
	case strings.Contains(layout, "15:04"):
		layout = strings.Replace(layout, "15:04", "", 1)
	default:
		return layout
	}
	return strings.TrimSpace(layout)
}

// ConvertForDisplay rewrites attribute from UTC storage form to the
// application zone. opts fields that are set override the defaults.
func (f *Formatter) ConvertForDisplay(record types.AttributeAccessor, attribute string, opts ConvertOptions) {
	if opts.From == "" {
		opts.From = "UTC"
	}
	if opts.To == "" {
		opts.To = f.appZone()
	}
	record.SetAttribute(attribute, f.Convert(stringValue(record.Attribute(attribute)), opts))
}

// ConvertForStorage rewrites attribute from the application zone to UTC
// storage form. Empty values become nil.
func (f *Formatter) ConvertForStorage(record types.AttributeAccessor, attribute string, opts ConvertOptions) {
	value := stringValue(record.Attribute(attribute))
	if strings.TrimSpace(value) == "" {
		record.SetAttribute(attribute, nil)
		return
	}
	if opts.From == "" {
		opts.From = f.appZone()
	}
	if opts.To == "" {
		opts.To = "UTC"
	}
	record.SetAttribute(attribute, f.Convert(value, opts))
}

func stringValue(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	case time.Time:
		return s.Format(time.RFC3339Nano)
	case *time.Time:
		if s == nil {
			return ""
		}
		return s.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(v)
	}
}

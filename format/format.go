// Package format renders field values as text for table results.
//
// Every field may carry a query.Format:
//   - GENERAL (or none): plain text, dates as ISO 8601 in UTC
//   - TEXT: plain text
//   - NUMBER: locale aware decimals with optional grouping separators
//   - DATE_TIME: Java style patterns in a configurable time zone
//
// Values that do not suit their format fall back to plain text.
package format

import (
	"sync"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/vegasq/parsearch/query"
)

// DefaultDatePattern is used for DATE_TIME fields without a pattern.
const DefaultDatePattern = "yyyy-MM-dd'T'HH:mm:ss.SSSXX"

// Formatter formats values for one locale and local time zone. It is safe
// for concurrent use.
type Formatter struct {
	printer *message.Printer
	local   *time.Location

	mu      sync.Mutex
	zones   map[string]*time.Location
	layouts map[string]string
}

// New returns a formatter for a BCP 47 locale such as "en-US" and the zone
// used for LOCAL date formats. Unknown locales fall back to English and a
// nil zone means UTC.
func New(locale string, local *time.Location) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	if local == nil {
		local = time.UTC
	}
	return &Formatter{
		printer: message.NewPrinter(tag),
		local:   local,
		zones:   make(map[string]*time.Location),
		layouts: make(map[string]string),
	}
}

// Format renders v according to spec.
func (f *Formatter) Format(v interface{}, spec *query.Format) string {
	if v == nil {
		return ""
	}
	if spec == nil {
		return query.Stringify(v)
	}

	switch spec.Type {
	case query.FormatNumber:
		return f.formatNumber(v, spec.NumberFormat)
	case query.FormatDateTime:
		return f.formatDate(v, spec.DateTimeFormat)
	default:
		return query.Stringify(v)
	}
}

func (f *Formatter) formatNumber(v interface{}, nf *query.NumberFormat) string {
	n, err := query.ToNumber(v)
	if err != nil {
		return query.Stringify(v)
	}
	if nf == nil {
		nf = &query.NumberFormat{}
	}

	places := max(nf.DecimalPlaces, 0)
	opts := []number.Option{
		number.MinFractionDigits(places),
		number.MaxFractionDigits(places),
	}
	if !nf.UseSeparator {
		opts = append(opts, number.NoSeparator())
	}
	return f.printer.Sprint(number.Decimal(n, opts...))
}

func (f *Formatter) formatDate(v interface{}, df *query.DateTimeFormat) string {
	t, err := query.ToTime(v)
	if err != nil {
		return query.Stringify(v)
	}

	pattern := DefaultDatePattern
	var zone *query.TimeZone
	if df != nil {
		if df.Pattern != "" {
			pattern = df.Pattern
		}
		zone = df.TimeZone
	}
	return t.In(f.location(zone)).Format(f.layout(pattern))
}

// location resolves a configured time zone, defaulting to UTC.
func (f *Formatter) location(tz *query.TimeZone) *time.Location {
	if tz == nil {
		return time.UTC
	}
	switch tz.Use {
	case query.ZoneLocal:
		return f.local
	case query.ZoneID:
		return f.zone(tz.ID)
	case query.ZoneOffset:
		return Offset(tz.OffsetHours, tz.OffsetMinutes)
	default:
		return time.UTC
	}
}

func (f *Formatter) zone(id string) *time.Location {
	f.mu.Lock()
	defer f.mu.Unlock()
	if loc, ok := f.zones[id]; ok {
		return loc
	}
	loc, err := time.LoadLocation(id)
	if err != nil {
		loc = time.UTC
	}
	f.zones[id] = loc
	return loc
}

func (f *Formatter) layout(pattern string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if layout, ok := f.layouts[pattern]; ok {
		return layout
	}
	layout, err := query.JavaLayout(pattern)
	if err != nil {
		// unusable patterns render with the default one
		layout, _ = query.JavaLayout(DefaultDatePattern)
	}
	f.layouts[pattern] = layout
	return layout
}

// Offset returns a fixed zone. Minutes take the sign of hours, or keep
// their own when hours is zero.
func Offset(hours, minutes int) *time.Location {
	secs := minutes * 60
	if hours != 0 {
		secs = abs(minutes) * 60
		if hours < 0 {
			secs = -secs
		}
		secs += hours * 3600
	}
	if secs == 0 {
		return time.UTC
	}
	return time.FixedZone("", secs)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vegasq/parsearch/query"
)

func TestFormatter_General(t *testing.T) {
	f := New("en-US", nil)
	date := time.Date(2015, 2, 3, 1, 22, 33, 56_000_000, time.UTC)

	tests := []struct {
		name  string
		value interface{}
		spec  *query.Format
		want  string
	}{
		{"nil", nil, nil, ""},
		{"text", "abc", nil, "abc"},
		{"int", int64(3), nil, "3"},
		{"float", 2.5, nil, "2.5"},
		{"whole float", 4.0, nil, "4"},
		{"bool", true, nil, "true"},
		{"date", date, nil, "2015-02-03T01:22:33.056Z"},
		{"general", 1234.5, &query.Format{Type: query.FormatGeneral}, "1234.5"},
		{"text type", int64(7), &query.Format{Type: query.FormatText}, "7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Format(tt.value, tt.spec))
		})
	}
}

func TestFormatter_Number(t *testing.T) {
	number := func(places int, separator bool) *query.Format {
		return &query.Format{Type: query.FormatNumber, NumberFormat: &query.NumberFormat{DecimalPlaces: places, UseSeparator: separator}}
	}

	tests := []struct {
		name   string
		locale string
		value  interface{}
		spec   *query.Format
		want   string
	}{
		{"separator and places", "en-US", 1234567.891, number(2, true), "1,234,567.89"},
		{"no separator", "en-US", 1234.4, number(0, false), "1234"},
		{"pads places", "en-US", int64(12), number(2, false), "12.00"},
		{"numeric text", "en-US", "42.126", number(1, false), "42.1"},
		{"default number format", "en-US", 9.2, &query.Format{Type: query.FormatNumber}, "9"},
		{"german", "de-DE", 1234.5, number(2, true), "1.234,50"},
		{"not a number", "en-US", "abc", number(2, true), "abc"},
		{"unknown locale", "not a locale", 1234.25, number(2, true), "1,234.25"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.locale, nil).Format(tt.value, tt.spec))
		})
	}
}

func TestFormatter_DateTime(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Skip("time zone database unavailable")
	}
	f := New("en-US", paris)
	date := time.Date(2015, 2, 3, 1, 22, 33, 56_000_000, time.UTC)

	dateTime := func(pattern string, tz *query.TimeZone) *query.Format {
		return &query.Format{Type: query.FormatDateTime, DateTimeFormat: &query.DateTimeFormat{Pattern: pattern, TimeZone: tz}}
	}

	tests := []struct {
		name  string
		value interface{}
		spec  *query.Format
		want  string
	}{
		{"default pattern", date, &query.Format{Type: query.FormatDateTime}, "2015-02-03T01:22:33.056Z"},
		{"pattern utc", date, dateTime("yyyy-MM-dd HH:mm", &query.TimeZone{Use: query.ZoneUTC}), "2015-02-03 01:22"},
		{"offset", date, dateTime("yyyy-MM-dd HH:mm", &query.TimeZone{Use: query.ZoneOffset, OffsetHours: 2}), "2015-02-03 03:22"},
		{"negative offset", date, dateTime("yyyy-MM-dd HH:mm", &query.TimeZone{Use: query.ZoneOffset, OffsetHours: -3, OffsetMinutes: 30}), "2015-02-02 21:52"},
		{"zone id", date, dateTime("HH:mm", &query.TimeZone{Use: query.ZoneID, ID: "Europe/Paris"}), "02:22"},
		{"unknown zone id", date, dateTime("HH:mm", &query.TimeZone{Use: query.ZoneID, ID: "Mars/Base"}), "01:22"},
		{"local", date, dateTime("HH:mm", &query.TimeZone{Use: query.ZoneLocal}), "02:22"},
		{"epoch millis", date.UnixMilli(), dateTime("yyyy-MM-dd", nil), "2015-02-03"},
		{"date text", "2015-02-03 01:22:33", dateTime("dd/MM/yyyy", nil), "03/02/2015"},
		{"not a date", "soon", dateTime("yyyy", nil), "soon"},
		{"half hour behind", date, dateTime("HH:mm", &query.TimeZone{Use: query.ZoneOffset, OffsetMinutes: -30}), "00:52"},
		{"unusable pattern", date, dateTime("'Jan' yyyy", nil), "2015-02-03T01:22:33.056Z"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Format(tt.value, tt.spec))
		})
	}
}

func TestOffset(t *testing.T) {
	assert.Equal(t, time.UTC, Offset(0, 0))
	_, secs := time.Now().In(Offset(5, 30)).Zone()
	assert.Equal(t, 5*3600+30*60, secs)
	_, secs = time.Now().In(Offset(-5, 30)).Zone()
	assert.Equal(t, -(5*3600 + 30*60), secs)
	_, secs = time.Now().In(Offset(5, -30)).Zone()
	assert.Equal(t, 5*3600+30*60, secs)
	_, secs = time.Now().In(Offset(0, -30)).Zone()
	assert.Equal(t, -30*60, secs)
	_, secs = time.Now().In(Offset(0, 45)).Zone()
	assert.Equal(t, 45*60, secs)
}

package reader

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/vegasq/parsearch/expression"
)

func TestExtractSchemaInfo(t *testing.T) {
	type Address struct {
		Street string `parquet:"street"`
		City   string `parquet:"city"`
	}
	type Row struct {
		ID       int64    `parquet:"id"`
		Name     string   `parquet:"name"`
		Age      int32    `parquet:"age"`
		Score    float64  `parquet:"score"`
		Ratio    float32  `parquet:"ratio"`
		Active   bool     `parquet:"active"`
		Optional *string  `parquet:"optional,optional"`
		Tags     []string `parquet:"tags"`
		Address  Address  `parquet:"address"`
	}

	path := filepath.Join(t.TempDir(), "schema.parquet")
	writeParquet(t, path, []Row{{ID: 1, Name: "Alice", Tags: []string{"a"}}})

	infos, err := ExtractSchemaInfo(path)
	if err != nil {
		t.Fatalf("ExtractSchemaInfo() error = %v", err)
	}

	byName := make(map[string]SchemaInfo)
	for _, info := range infos {
		byName[info.Name] = info
	}

	tests := []struct {
		name     string
		typ      string
		required bool
		repeated bool
	}{
		{"id", "INT64", true, false},
		{"name", "STRING", true, false},
		{"age", "INT32", true, false},
		{"score", "FLOAT64", true, false},
		{"ratio", "FLOAT32", true, false},
		{"active", "BOOLEAN", true, false},
		{"optional", "STRING", false, false},
		{"tags", "STRING", false, true},
		{"address.street", "STRING", true, false},
		{"address.city", "STRING", true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, ok := byName[tt.name]
			if !ok {
				t.Fatalf("column %s not found in %v", tt.name, infos)
			}
			if info.Type != tt.typ {
				t.Errorf("%s type = %s, want %s", tt.name, info.Type, tt.typ)
			}
			if info.Repeated != tt.repeated {
				t.Errorf("%s repeated = %v, want %v", tt.name, info.Repeated, tt.repeated)
			}
			if !tt.repeated && info.Required != tt.required {
				t.Errorf("%s required = %v, want %v", tt.name, info.Required, tt.required)
			}
		})
	}

	if _, err := ExtractSchemaInfo(filepath.Join(t.TempDir(), "missing.parquet")); err == nil {
		t.Error("ExtractSchemaInfo() on a missing file should fail")
	}
}

func TestFieldType(t *testing.T) {
	tests := []struct {
		typ  string
		want expression.FieldType
	}{
		{"STRING", expression.TypeText},
		{"ENUM", expression.TypeText},
		{"BYTE_ARRAY", expression.TypeText},
		{"INT32", expression.TypeNumeric},
		{"FLOAT64", expression.TypeNumeric},
		{"DECIMAL", expression.TypeNumeric},
		{"BOOLEAN", expression.TypeBoolean},
		{"TIMESTAMP", expression.TypeDate},
		{"DATE", expression.TypeDate},
		{"UUID", expression.TypeID},
	}
	for _, tt := range tests {
		if got := FieldType(SchemaInfo{Type: tt.typ}); got != tt.want {
			t.Errorf("FieldType(%s) = %s, want %s", tt.typ, got, tt.want)
		}
	}
}

func TestRegistry(t *testing.T) {
	registry := Registry([]SchemaInfo{
		{Name: "host", Type: "STRING"},
		{Name: "status", Type: "INT64"},
		{Name: "tags", Type: "STRING", Repeated: true},
	})

	if registry.Len() != 2 {
		t.Errorf("Registry() holds %d fields, want 2", registry.Len())
	}
	status, ok := registry.Get("status")
	if !ok || status.Type != expression.TypeNumeric {
		t.Errorf("status = %v, %v", status, ok)
	}
	if !status.Supports(expression.Between) {
		t.Error("numeric fields should support BETWEEN")
	}
	if _, ok := registry.Get("tags"); ok {
		t.Error("repeated columns should not be queryable")
	}
}

func TestTimestampUnit(t *testing.T) {
	tests := []struct {
		logical string
		unit    time.Duration
		ok      bool
	}{
		{"TIMESTAMP(isAdjustedToUTC=true,unit=MILLIS)", time.Millisecond, true},
		{"TIMESTAMP(isAdjustedToUTC=true,unit=MICROS)", time.Microsecond, true},
		{"TIMESTAMP(isAdjustedToUTC=false,unit=NANOS)", time.Nanosecond, true},
		{"STRING", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		unit, ok := timestampUnit(tt.logical)
		if unit != tt.unit || ok != tt.ok {
			t.Errorf("timestampUnit(%q) = %v, %v, want %v, %v", tt.logical, unit, ok, tt.unit, tt.ok)
		}
	}
}

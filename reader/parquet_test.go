package reader

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/vegasq/parsearch/expression"
	"github.com/vegasq/parsearch/query"
)

type logRow struct {
	Host   string  `parquet:"host"`
	Status int64   `parquet:"status"`
	Bytes  float64 `parquet:"bytes"`
	OK     bool    `parquet:"ok"`
}

func writeParquet[T any](t *testing.T, path string, rows []T) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	writer := parquet.NewGenericWriter[T](f)
	if _, err := writer.Write(rows); err != nil {
		t.Fatalf("failed to write test data: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("failed to close file: %v", err)
	}
}

func testLogs() []logRow {
	return []logRow{
		{Host: "web1", Status: 200, Bytes: 512, OK: true},
		{Host: "web2", Status: 500, Bytes: 128},
		{Host: "web1", Status: 404, Bytes: 64},
		{Host: "db1", Status: 200, Bytes: 2048, OK: true},
	}
}

func collect(t *testing.T, source RowSource, q *query.Query) []map[string]interface{} {
	t.Helper()
	var rows []map[string]interface{}
	err := source.Stream(context.Background(), q, func(row map[string]interface{}) error {
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	return rows
}

func TestReader_Stream(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs.parquet")
	writeParquet(t, path, testLogs())

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	defer func() { _ = r.Close() }()

	if r.NumRows() != 4 {
		t.Errorf("NumRows() = %d, want 4", r.NumRows())
	}

	var hosts []string
	err = r.Stream(context.Background(), func(row map[string]interface{}) error {
		hosts = append(hosts, row["host"].(string))
		return nil
	})
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	if len(hosts) != 4 || hosts[0] != "web1" || hosts[3] != "db1" {
		t.Errorf("Stream() hosts = %v", hosts)
	}
}

func TestReader_StreamStops(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs.parquet")
	writeParquet(t, path, testLogs())

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	defer func() { _ = r.Close() }()

	stop := errors.New("stop")
	n := 0
	err = r.Stream(context.Background(), func(map[string]interface{}) error {
		n++
		return stop
	})
	if !errors.Is(err, stop) || n != 1 {
		t.Errorf("Stream() = %v after %d rows, want stop after 1", err, n)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.Stream(ctx, func(map[string]interface{}) error { return nil }); !errors.Is(err, context.Canceled) {
		t.Errorf("Stream() with cancelled context = %v, want context.Canceled", err)
	}
}

func TestReader_Close(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs.parquet")
	writeParquet(t, path, testLogs())

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("first Close() error = %v", err)
	}
	if err := r.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestNewReader_Errors(t *testing.T) {
	if _, err := NewReader(filepath.Join(t.TempDir(), "missing.parquet")); err == nil {
		t.Error("NewReader() on a missing file should fail")
	}

	path := filepath.Join(t.TempDir(), "bad.parquet")
	if err := os.WriteFile(path, []byte("not parquet"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewReader(path); err == nil {
		t.Error("NewReader() on an invalid file should fail")
	}
}

func TestStreamFiles_Glob(t *testing.T) {
	dir := t.TempDir()
	writeParquet(t, filepath.Join(dir, "a.parquet"), testLogs()[:2])
	writeParquet(t, filepath.Join(dir, "b.parquet"), testLogs()[2:])

	var files []string
	err := StreamFiles(context.Background(), filepath.Join(dir, "*.parquet"), func(row map[string]interface{}) error {
		files = append(files, filepath.Base(row[FileColumn].(string)))
		return nil
	})
	if err != nil {
		t.Fatalf("StreamFiles() error = %v", err)
	}
	sort.Strings(files)
	want := []string{"a.parquet", "a.parquet", "b.parquet", "b.parquet"}
	for i := range want {
		if i >= len(files) || files[i] != want[i] {
			t.Fatalf("StreamFiles() files = %v, want %v", files, want)
		}
	}

	err = StreamFiles(context.Background(), filepath.Join(dir, "a.parquet"), func(row map[string]interface{}) error {
		if _, ok := row[FileColumn]; ok {
			t.Errorf("single file rows should not carry %s", FileColumn)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("StreamFiles() error = %v", err)
	}

	if err := StreamFiles(context.Background(), filepath.Join(dir, "none*.parquet"), nil); err == nil {
		t.Error("StreamFiles() with no matches should fail")
	}
}

func TestParquetSource_Stream(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs.parquet")
	writeParquet(t, path, testLogs())
	source := NewParquetSource(NewCatalog(DataSource{UUID: "logs-uuid", Name: "logs", Path: path}))

	tests := []struct {
		name  string
		expr  *expression.Operator
		hosts int
	}{
		{"no expression", nil, 4},
		{"equals", expression.And(expression.NewTerm("host", expression.Equals, "web1")), 2},
		{"numeric", expression.And(expression.NewTerm("status", expression.GreaterThanOrEqualTo, "400")), 2},
		{"between", expression.And(expression.NewTerm("bytes", expression.Between, "100,600")), 2},
		{"not", expression.Not(expression.NewTerm("host", expression.Contains, "web")), 1},
		{"unknown field", expression.And(expression.NewTerm("missing", expression.Equals, "x")), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := collect(t, source, &query.Query{DataSource: query.DocRef{UUID: "logs-uuid"}, Expression: tt.expr})
			if len(rows) != tt.hosts {
				t.Errorf("Stream() returned %d rows, want %d", len(rows), tt.hosts)
			}
		})
	}
}

func TestParquetSource_Params(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs.parquet")
	writeParquet(t, path, testLogs())
	source := NewParquetSource(NewCatalog(DataSource{Name: "logs", Path: path}))

	rows := collect(t, source, &query.Query{
		DataSource: query.DocRef{Name: "logs"},
		Expression: expression.And(expression.NewTerm("host", expression.Equals, "${host}")),
		Params:     []query.Param{{Key: "host", Value: "db1"}},
	})
	if len(rows) != 1 || rows[0]["host"] != "db1" {
		t.Errorf("Stream() rows = %v, want the db1 row", rows)
	}
}

func TestParquetSource_UnknownDataSource(t *testing.T) {
	source := NewParquetSource(NewCatalog())
	err := source.Stream(context.Background(), &query.Query{DataSource: query.DocRef{UUID: "nope"}}, func(map[string]interface{}) error { return nil })
	if !errors.Is(err, ErrUnknownDataSource) {
		t.Errorf("Stream() error = %v, want ErrUnknownDataSource", err)
	}
	if err := source.Stream(context.Background(), nil, nil); err == nil {
		t.Error("Stream() without a query should fail")
	}
}

func TestMemorySource(t *testing.T) {
	source := &MemorySource{
		Fields: expression.NewRegistry(expression.Field("host", expression.TypeText)),
		Rows: []map[string]interface{}{
			{"host": "web1"}, {"host": "web2"}, {"host": "db1"},
		},
	}
	rows := collect(t, source, &query.Query{Expression: expression.And(expression.NewTerm("host", expression.In, "web2, db1"))})
	if len(rows) != 2 {
		t.Errorf("Stream() returned %d rows, want 2", len(rows))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := source.Stream(ctx, nil, func(map[string]interface{}) error { return nil }); !errors.Is(err, context.Canceled) {
		t.Errorf("Stream() with cancelled context = %v", err)
	}
}

func TestCatalog(t *testing.T) {
	c := NewCatalog(
		DataSource{UUID: "b", Name: "beta", Path: "b.parquet"},
		DataSource{Name: "alpha", Path: "a.parquet"},
	)

	if ds, err := c.Resolve(expression.DocRef{UUID: "b"}); err != nil || ds.Name != "beta" {
		t.Errorf("Resolve(uuid) = %v, %v", ds, err)
	}
	if ds, err := c.Resolve(expression.DocRef{Name: "alpha"}); err != nil || ds.Path != "a.parquet" {
		t.Errorf("Resolve(name) = %v, %v", ds, err)
	}
	if _, err := c.Resolve(expression.DocRef{UUID: "c"}); !errors.Is(err, ErrUnknownDataSource) {
		t.Errorf("Resolve(unknown) error = %v", err)
	}

	list := c.List()
	if len(list) != 2 || list[0].Name != "alpha" || list[0].UUID != "alpha" {
		t.Errorf("List() = %v", list)
	}
	if ref := list[1].Ref(); ref.UUID != "b" || ref.Type != "DataSource" {
		t.Errorf("Ref() = %v", ref)
	}
}

func TestLocationFrom(t *testing.T) {
	if LocationFrom(context.Background()).String() != "UTC" {
		t.Error("LocationFrom() without a zone should be UTC")
	}
	zone := time.FixedZone("test", 3600)
	if LocationFrom(WithLocation(context.Background(), zone)) != zone {
		t.Error("LocationFrom() should return the zone set by WithLocation")
	}
}

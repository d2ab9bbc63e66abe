package reader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/vegasq/parsearch/expression"
	"github.com/vegasq/parsearch/query"
)

// FileColumn holds the source file of each row read through a glob.
const FileColumn = "_file"

// maxFiles limits how many files one glob may expand to.
const maxFiles = 1000

// Reader streams the rows of one parquet file as maps.
//
// It maintains both an OS file handle and a parquet file handle to enable
// proper resource cleanup.
type Reader struct {
	path   string
	file   *os.File
	pqFile *parquet.File
	// timestamps maps TIMESTAMP columns to the duration of one unit
	timestamps map[string]time.Duration
}

// NewReader opens and validates a parquet file.
//
// Example:
//
//	r, err := NewReader("data.parquet")
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
func NewReader(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pqFile, err := parquet.OpenFile(file, stat.Size())
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}

	r := &Reader{
		path:       path,
		file:       file,
		pqFile:     pqFile,
		timestamps: make(map[string]time.Duration),
	}
	for _, info := range schemaInfo(pqFile.Schema()) {
		if unit, ok := timestampUnit(info.LogicalType); ok {
			r.timestamps[info.Name] = unit
		}
	}
	return r, nil
}

// Stream reads rows one at a time and passes them to emit until the end
// of the file, a cancelled context or an emit error.
func (r *Reader) Stream(ctx context.Context, emit func(map[string]interface{}) error) error {
	reader := parquet.NewReader(r.pqFile)
	defer func() { _ = reader.Close() }()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		row := make(map[string]interface{})
		if err := reader.Read(&row); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("failed to read row: %w", err)
		}
		r.convert(row)
		if err := emit(row); err != nil {
			return err
		}
	}
}

// convert turns integer timestamps into instants
func (r *Reader) convert(row map[string]interface{}) {
	for name, unit := range r.timestamps {
		if v, ok := row[name].(int64); ok {
			row[name] = time.Unix(0, v*int64(unit)).UTC()
		}
	}
}

// Schema returns the parquet file schema.
func (r *Reader) Schema() *parquet.Schema {
	return r.pqFile.Schema()
}

// NumRows returns the row count recorded in the file footer.
func (r *Reader) NumRows() int64 {
	return r.pqFile.NumRows()
}

// Close closes the underlying file. It is safe to call Close multiple
// times.
func (r *Reader) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// IsGlob reports whether path contains glob wildcards.
func IsGlob(path string) bool {
	return strings.ContainsAny(path, "*?[]{}")
}

// Files expands a path or glob pattern into the files it names.
//
// The pattern can include wildcards:
//   - * matches any sequence of non-separator characters
//   - ? matches any single non-separator character
//   - [range] matches any character in range
func Files(pattern string) ([]string, error) {
	if !IsGlob(pattern) {
		return []string{pattern}, nil
	}

	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no files match pattern: %s", pattern)
	}
	if len(matches) > maxFiles {
		return nil, fmt.Errorf("glob pattern matched too many files (%d), maximum is %d", len(matches), maxFiles)
	}
	return matches, nil
}

// StreamFiles streams every file matching pattern in order. Rows read
// through a glob are tagged with their file in the _file column.
func StreamFiles(ctx context.Context, pattern string, emit func(map[string]interface{}) error) error {
	files, err := Files(pattern)
	if err != nil {
		return err
	}
	tag := IsGlob(pattern)

	for _, path := range files {
		r, err := NewReader(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		streamErr := r.Stream(ctx, func(row map[string]interface{}) error {
			if tag {
				row[FileColumn] = path
			}
			return emit(row)
		})
		closeErr := r.Close()

		if streamErr != nil {
			return fmt.Errorf("failed to read rows from %s: %w", path, streamErr)
		}
		if closeErr != nil {
			return fmt.Errorf("failed to close %s: %w", path, closeErr)
		}
	}
	return nil
}

// ParquetSource is the RowSource for catalogued parquet data sources.
type ParquetSource struct {
	Catalog      *Catalog
	Dictionaries map[string][]string
	Folders      expression.FolderResolver
}

// NewParquetSource returns a source reading the data sources of catalog.
func NewParquetSource(catalog *Catalog) *ParquetSource {
	return &ParquetSource{Catalog: catalog}
}

// Stream implements RowSource. Rows are filtered by the query expression
// using the field types of the first file's schema.
func (s *ParquetSource) Stream(ctx context.Context, q *query.Query, emit func(map[string]interface{}) error) error {
	if q == nil {
		return errors.New("no query")
	}
	ds, err := s.Catalog.Resolve(q.DataSource)
	if err != nil {
		return err
	}

	filter := q.ResolvedExpression()
	var ectx *expression.Context
	if filter != nil {
		registry, err := s.Registry(q.DataSource)
		if err != nil {
			return err
		}
		ectx = &expression.Context{
			Fields:       registry,
			Now:          time.Now(),
			Location:     LocationFrom(ctx),
			Dictionaries: s.Dictionaries,
			Folders:      s.Folders,
		}
	}

	return StreamFiles(ctx, ds.Path, func(row map[string]interface{}) error {
		if filter != nil && !expression.Evaluate(filter, row, ectx) {
			return nil
		}
		return emit(row)
	})
}

// Registry returns the queryable fields of a data source.
func (s *ParquetSource) Registry(ref expression.DocRef) (*expression.Registry, error) {
	ds, err := s.Catalog.Resolve(ref)
	if err != nil {
		return nil, err
	}
	files, err := Files(ds.Path)
	if err != nil {
		return nil, err
	}
	infos, err := ExtractSchemaInfo(files[0])
	if err != nil {
		return nil, err
	}
	if IsGlob(ds.Path) {
		infos = append(infos, SchemaInfo{Name: FileColumn, Type: "STRING", Required: true})
	}
	return Registry(infos), nil
}

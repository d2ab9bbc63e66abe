// Package reader provides the row sources a search ingests from.
//
// ParquetSource streams the rows of catalogued Apache Parquet data sources,
// a single file or a glob of files, one row at a time and keeps only rows
// that satisfy the query's filter expression. Term field types come from
// the parquet schema:
//
//	catalog := reader.NewCatalog(reader.DataSource{UUID: "logs", Name: "logs", Path: "data/*.parquet"})
//	source := reader.NewParquetSource(catalog)
//	err := source.Stream(ctx, q, func(row map[string]interface{}) error {
//	    return nil
//	})
//
// MemorySource serves rows held in memory.
package reader

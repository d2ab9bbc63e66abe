package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/vegasq/parsearch/query"
	"github.com/vegasq/parsearch/reader"
)

// resolveSource finds arg among the configured data sources, or adds it
// to catalog as an ad hoc source when it names a parquet file or glob.
func resolveSource(catalog *reader.Catalog, arg string) (query.DocRef, error) {
	if ds, err := catalog.Resolve(query.DocRef{UUID: arg, Name: arg}); err == nil {
		return ds.Ref(), nil
	} else if !errors.Is(err, reader.ErrUnknownDataSource) {
		return query.DocRef{}, err
	}

	if reader.IsGlob(arg) {
		if _, err := reader.Files(arg); err != nil {
			return query.DocRef{}, err
		}
	} else if _, err := os.Stat(arg); err != nil {
		if os.IsNotExist(err) {
			return query.DocRef{}, fmt.Errorf("%q is neither a configured data source nor a file", arg)
		}
		return query.DocRef{}, err
	}

	ds := reader.DataSource{Name: arg, Path: arg}
	catalog.Add(ds)
	ds.UUID = arg
	return ds.Ref(), nil
}

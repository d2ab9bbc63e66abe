package reader

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/vegasq/parsearch/expression"
)

// ErrUnknownDataSource is returned when a DocRef names no catalogued source.
var ErrUnknownDataSource = errors.New("unknown data source")

// DataSource is a named set of parquet files.
type DataSource struct {
	UUID string `json:"uuid" mapstructure:"uuid"`
	Name string `json:"name" mapstructure:"name"`
	// Path is a file path or glob pattern.
	Path string `json:"path" mapstructure:"path"`
}

// Ref returns the DocRef queries use to address the source.
func (d DataSource) Ref() expression.DocRef {
	return expression.DocRef{Type: "DataSource", UUID: d.UUID, Name: d.Name}
}

// Catalog resolves DocRefs to data sources.
type Catalog struct {
	mu      sync.RWMutex
	sources map[string]DataSource
}

// NewCatalog returns a catalog holding sources.
func NewCatalog(sources ...DataSource) *Catalog {
	c := &Catalog{sources: make(map[string]DataSource, len(sources))}
	for _, s := range sources {
		c.Add(s)
	}
	return c
}

// Add registers or replaces a source. A source without uuid is keyed by
// its name.
func (c *Catalog) Add(s DataSource) {
	if s.UUID == "" {
		s.UUID = s.Name
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources[s.UUID] = s
}

// Resolve finds the source for ref by uuid, then by name.
func (c *Catalog) Resolve(ref expression.DocRef) (DataSource, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if s, ok := c.sources[ref.UUID]; ok && ref.UUID != "" {
		return s, nil
	}
	if ref.Name != "" {
		for _, s := range c.sources {
			if s.Name == ref.Name {
				return s, nil
			}
		}
	}
	return DataSource{}, fmt.Errorf("%w: %s", ErrUnknownDataSource, ref)
}

// List returns every source ordered by name.
func (c *Catalog) List() []DataSource {
	c.mu.RLock()
	defer c.mu.RUnlock()

	list := make([]DataSource, 0, len(c.sources))
	for _, s := range c.sources {
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

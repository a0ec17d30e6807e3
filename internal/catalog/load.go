package catalog

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Modules []Module `yaml:"modules"`
}

// Decode reads a YAML catalog document of the form `modules: [...]`.
func Decode(r io.Reader) ([]Module, error) {
	var doc catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode catalog yaml: %w", err)
	}
	for i := range doc.Modules {
		doc.Modules[i].Category = ParseCategory(string(doc.Modules[i].Category))
	}
	return doc.Modules, nil
}

// LoadFile builds the catalog used by a process: the built-in modules,
// extended or replaced by the modules defined in path. An empty path
// yields the built-in catalog.
func LoadFile(path string) (*Catalog, error) {
	base := Default()
	if path == "" {
		return base, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	defer f.Close()
	modules, err := Decode(f)
	if err != nil {
		return nil, err
	}
	return base.Merge(modules)
}

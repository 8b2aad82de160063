package catalog

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type file struct {
	Products []Product `yaml:"products"`
}

// Parse decodes and validates a products document.
func Parse(data []byte) ([]Product, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if len(f.Products) == 0 {
		return nil, errors.New("catalog has no products")
	}

	var errs []error
	seen := make(map[int]bool, len(f.Products))
	for _, p := range f.Products {
		if err := p.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("product %d (%s): %w", p.ID, p.Name, err))
		}
		if seen[p.ID] {
			errs = append(errs, fmt.Errorf("duplicate product id %d", p.ID))
		}
		seen[p.ID] = true
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return f.Products, nil
}

// Load reads a products YAML file from disk.
func Load(path string) ([]Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return Parse(data)
}

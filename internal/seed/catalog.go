package seed

import (
	"embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data/*.yaml
var dataFiles embed.FS

// Catalog is the reference data inserted by Seed
type Catalog struct {
	Departments []DepartmentEntry `yaml:"departments"`
}

// DepartmentEntry is one default department
type DepartmentEntry struct {
	Name string `yaml:"name"`
}

var (
	loadOnce sync.Once
	catalog  *Catalog
	loadErr  error
)

// Load parses the embedded catalog once
func Load() (*Catalog, error) {
	loadOnce.Do(func() {
		catalog, loadErr = parse("data/departments.yaml")
	})
	return catalog, loadErr
}

func parse(filename string) (*Catalog, error) {
	data, err := dataFiles.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}

	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", filename, err)
	}

	seen := make(map[string]bool, len(c.Departments))
	for i, d := range c.Departments {
		if d.Name == "" {
			return nil, fmt.Errorf("%s: department %d has no name", filename, i)
		}
		if seen[d.Name] {
			return nil, fmt.Errorf("%s: duplicate department %q", filename, d.Name)
		}
		seen[d.Name] = true
	}

	return &c, nil
}

// DepartmentNames returns the default department names in file order
func (c *Catalog) DepartmentNames() []string {
	names := make([]string, 0, len(c.Departments))
	for _, d := range c.Departments {
		names = append(names, d.Name)
	}
	return names
}

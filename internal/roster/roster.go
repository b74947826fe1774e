// Package roster reads driver lists from YAML files.
package roster

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spigell/soto-lp/internal/postcode"
)

// Entry is one driver of a roster file.
type Entry struct {
	Name     string `yaml:"name"`
	Postcode string `yaml:"postcode"`
}

type file struct {
	Drivers []Entry `yaml:"drivers"`
}

// Load reads the roster at path. Names are trimmed and postcodes normalized; entries without
// a name are rejected.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) ([]Entry, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse roster yaml: %w", err)
	}

	entries := make([]Entry, 0, len(f.Drivers))
	for i, e := range f.Drivers {
		e.Name = strings.TrimSpace(e.Name)
		e.Postcode = postcode.Normalize(e.Postcode)
		if e.Name == "" {
			return nil, fmt.Errorf("roster entry %d: name is required", i+1)
		}
		entries = append(entries, e)
	}

	return entries, nil
}

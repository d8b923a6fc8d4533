package importer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ImportSchema is the top-level structure of a tree import file. JSON files
// parse too, since JSON is valid YAML.
type ImportSchema struct {
	Tree   TreeImport   `yaml:"tree"`
	Nodes  []NodeImport `yaml:"nodes"`
	Assign []string     `yaml:"assign,omitempty"`
}

// TreeImport defines the tree-level fields in the import file.
type TreeImport struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description,omitempty"`
	TeamID      *string `yaml:"team,omitempty"`
}

// NodeImport defines a skill in the import file. Refs are local to the file;
// a parent must appear before its children.
type NodeImport struct {
	Ref         string  `yaml:"ref"`
	ParentRef   *string `yaml:"parent_ref,omitempty"`
	Title       string  `yaml:"title"`
	Description string  `yaml:"description,omitempty"`
	Order       int     `yaml:"order"`
}

// LoadImportSchema reads and parses a tree import file.
func LoadImportSchema(path string) (*ImportSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseImportSchema(data)
}

// ParseImportSchema parses an import document. Unknown fields are errors.
func ParseImportSchema(data []byte) (*ImportSchema, error) {
	var schema ImportSchema
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&schema); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parsing import file: empty document")
		}
		return nil, fmt.Errorf("parsing import file: %w", err)
	}
	return &schema, nil
}

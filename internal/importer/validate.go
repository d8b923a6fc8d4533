package importer

import (
	"fmt"
	"strings"
)

const (
	maxNameLen  = 200
	maxTitleLen = 200
)

// ValidateImportSchema checks the import schema for errors before conversion.
// Returns a slice of all validation errors found.
func ValidateImportSchema(schema *ImportSchema) []error {
	var errs []error

	errs = append(errs, validateTree(&schema.Tree)...)
	errs = append(errs, validateNodes(schema.Nodes)...)

	for i, id := range schema.Assign {
		if strings.TrimSpace(id) == "" {
			errs = append(errs, fmt.Errorf("assign[%d]: user ID is empty", i))
		}
	}

	return errs
}

func validateTree(t *TreeImport) []error {
	var errs []error

	if strings.TrimSpace(t.Name) == "" {
		errs = append(errs, fmt.Errorf("tree.name is required"))
	} else if len(t.Name) > maxNameLen {
		errs = append(errs, fmt.Errorf("tree.name: longer than %d characters", maxNameLen))
	}
	if t.TeamID != nil && *t.TeamID == "" {
		errs = append(errs, fmt.Errorf("tree.team: empty team ID"))
	}

	return errs
}

func validateNodes(nodes []NodeImport) []error {
	var errs []error
	refs := make(map[string]bool, len(nodes))

	for i, n := range nodes {
		prefix := fmt.Sprintf("nodes[%d]", i)

		if n.Ref == "" {
			errs = append(errs, fmt.Errorf("%s.ref is required", prefix))
		} else if refs[n.Ref] {
			errs = append(errs, fmt.Errorf("%s.ref: duplicate ref %q", prefix, n.Ref))
		}

		if strings.TrimSpace(n.Title) == "" {
			errs = append(errs, fmt.Errorf("%s.title is required", prefix))
		} else if len(n.Title) > maxTitleLen {
			errs = append(errs, fmt.Errorf("%s.title: longer than %d characters", prefix, maxTitleLen))
		}

		if n.ParentRef != nil && *n.ParentRef != "" {
			switch {
			case *n.ParentRef == n.Ref:
				errs = append(errs, fmt.Errorf("%s.parent_ref: node cannot be its own parent", prefix))
			case !refs[*n.ParentRef]:
				errs = append(errs, fmt.Errorf("%s.parent_ref: ref %q not found (must appear earlier in nodes list)", prefix, *n.ParentRef))
			}
		}

		if n.Ref != "" {
			refs[n.Ref] = true
		}
	}

	return errs
}

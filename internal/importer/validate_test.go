package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptrStr(s string) *string { return &s }

func validMinimalSchema() *ImportSchema {
	return &ImportSchema{
		Tree: TreeImport{Name: "Backend"},
		Nodes: []NodeImport{
			{Ref: "go", Title: "Go"},
		},
	}
}

func TestValidateImportSchema_ValidMinimal(t *testing.T) {
	errs := ValidateImportSchema(validMinimalSchema())
	assert.Empty(t, errs)
}

func TestValidateImportSchema_ValidNested(t *testing.T) {
	schema := &ImportSchema{
		Tree: TreeImport{Name: "Backend", Description: "Server side", TeamID: ptrStr("team-1")},
		Nodes: []NodeImport{
			{Ref: "go", Title: "Go", Order: 0},
			{Ref: "testing", ParentRef: ptrStr("go"), Title: "Testing", Order: 0},
			{Ref: "conc", ParentRef: ptrStr("go"), Title: "Concurrency", Order: 1},
			{Ref: "sql", Title: "SQL", Order: 1},
		},
		Assign: []string{"u1"},
	}
	assert.Empty(t, ValidateImportSchema(schema))
}

func TestValidateImportSchema_NoNodesIsValid(t *testing.T) {
	schema := &ImportSchema{Tree: TreeImport{Name: "Empty"}}
	assert.Empty(t, ValidateImportSchema(schema))
}

func TestValidateImportSchema_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *ImportSchema)
		want   string
	}{
		{"missing tree name", func(s *ImportSchema) { s.Tree.Name = " " }, "tree.name is required"},
		{"long tree name", func(s *ImportSchema) { s.Tree.Name = strings.Repeat("x", 201) }, "tree.name: longer than 200"},
		{"empty team", func(s *ImportSchema) { s.Tree.TeamID = ptrStr("") }, "tree.team"},
		{"missing ref", func(s *ImportSchema) { s.Nodes[0].Ref = "" }, "nodes[0].ref is required"},
		{"missing title", func(s *ImportSchema) { s.Nodes[0].Title = "" }, "nodes[0].title is required"},
		{"duplicate ref", func(s *ImportSchema) {
			s.Nodes = append(s.Nodes, NodeImport{Ref: "go", Title: "Again"})
		}, `nodes[1].ref: duplicate ref "go"`},
		{"self parent", func(s *ImportSchema) { s.Nodes[0].ParentRef = ptrStr("go") }, "own parent"},
		{"forward parent", func(s *ImportSchema) {
			s.Nodes[0].ParentRef = ptrStr("later")
			s.Nodes = append(s.Nodes, NodeImport{Ref: "later", Title: "Later"})
		}, "must appear earlier"},
		{"empty assignee", func(s *ImportSchema) { s.Assign = []string{""} }, "assign[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validMinimalSchema()
			tt.mutate(s)
			errs := ValidateImportSchema(s)
			require.NotEmpty(t, errs)
			var msgs []string
			for _, e := range errs {
				msgs = append(msgs, e.Error())
			}
			assert.Contains(t, strings.Join(msgs, "\n"), tt.want)
		})
	}
}

func TestValidateImportSchema_CollectsAllErrors(t *testing.T) {
	schema := &ImportSchema{
		Nodes: []NodeImport{
			{Ref: "a"},
			{Ref: "a", Title: "A"},
		},
	}
	assert.Len(t, ValidateImportSchema(schema), 3)
}

func TestParseImportSchema(t *testing.T) {
	doc := `
tree:
  name: Backend
  description: Server side
nodes:
  - ref: go
    title: Go
  - ref: testing
    parent_ref: go
    title: Testing
    order: 2
assign: [u1, u2]
`
	schema, err := ParseImportSchema([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "Backend", schema.Tree.Name)
	require.Len(t, schema.Nodes, 2)
	require.NotNil(t, schema.Nodes[1].ParentRef)
	assert.Equal(t, "go", *schema.Nodes[1].ParentRef)
	assert.Equal(t, 2, schema.Nodes[1].Order)
	assert.Equal(t, []string{"u1", "u2"}, schema.Assign)
}

func TestParseImportSchema_JSON(t *testing.T) {
	doc := `{"tree": {"name": "Backend"}, "nodes": [{"ref": "go", "title": "Go"}]}`
	schema, err := ParseImportSchema([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "Backend", schema.Tree.Name)
	assert.Len(t, schema.Nodes, 1)
}

func TestParseImportSchema_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"unknown field", "tree:\n  name: X\n  owner: me\n", "owner"},
		{"empty", "", "empty document"},
		{"malformed", "tree: [", "parsing import file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseImportSchema([]byte(tt.doc))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/tgienger/tdt/internal/projecttree"
)

const treeFixture = "Buy milk +home---errands\n" +
	"Rake leaves +home---garden\n" +
	"Water plants +home---garden\n" +
	"Write report +work"

func TestTreeText(t *testing.T) {
	c := NewCLI(t)
	c.WriteTodo(treeFixture)

	out := c.MustRun("tree")

	assert.Equal(t, "home (0)\n  errands (1)\n  garden (2)\nwork (1)", out)
}

func TestTreeJSON(t *testing.T) {
	c := NewCLI(t)
	c.WriteTodo(treeFixture)

	out := c.MustRun("tree", "--format", "json")

	var got []projecttree.Node
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, projecttree.Build([]string{
		"home---errands", "home---garden", "home---garden", "work",
	}), got)
}

func TestTreeYAML(t *testing.T) {
	c := NewCLI(t)
	c.WriteTodo("Plan +trip---japan")

	out := c.MustRun("tree", "--format", "yaml")

	var got []projecttree.Node
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "trip", got[0].Name)
	require.Len(t, got[0].Children, 1)
	assert.Equal(t, "trip---japan", got[0].Children[0].FullPath)
	assert.Equal(t, 1, got[0].Children[0].DirectCount)
}

func TestTreeEmpty(t *testing.T) {
	c := NewCLI(t)

	assert.Equal(t, "", c.MustRun("tree"))
	assert.Equal(t, "[]", c.MustRun("tree", "--format", "json"))
}

func TestPrintConfigDefaults(t *testing.T) {
	c := NewCLI(t)

	out := c.MustRun("print-config")

	assert.Contains(t, out, `todo_file = "todo.txt"`)
	assert.Contains(t, out, "# effective_cwd: "+c.Dir)
	assert.Contains(t, out, "# todo_file: "+c.TodoPath())
	assert.Contains(t, out, "#   (defaults only)")
}

func TestPrintConfigProjectSource(t *testing.T) {
	c := NewCLI(t)
	c.WriteFile(".tdt.json", `{
		// tasks live next to the code
		"todo_file": "tasks.txt",
	}`)

	out := c.MustRun("print-config")

	assert.Contains(t, out, `todo_file = "tasks.txt"`)
	assert.Contains(t, out, "#   project: ")
	assert.NotContains(t, out, "(defaults only)")
}

func TestRecentEmpty(t *testing.T) {
	c := NewCLI(t)

	assert.Equal(t, "", c.MustRun("recent"))
}

func TestRecentRejectsBadLimit(t *testing.T) {
	c := NewCLI(t)

	stderr := c.MustFail("recent", "-n", "0")

	assert.Contains(t, stderr, "--limit must be positive")
}

package cli

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/tgienger/tdt/internal/models"
)

const lsFixture = "(A) Buy milk +home---errands @shop\n" +
	"Fix homework +homework\n" +
	"x 2024-05-01 Pay rent +home\n" +
	"Write report +work @office"

func TestLsFilters(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"pending by default", nil, "1 (A) Buy milk +home---errands @shop\n2 Fix homework +homework\n4 Write report +work @office"},
		{"all", []string{"--all"}, "1 (A) Buy milk +home---errands @shop\n2 Fix homework +homework\n3 x 2024-05-01 Pay rent +home\n4 Write report +work @office"},
		{"done", []string{"--done"}, "3 x 2024-05-01 Pay rent +home"},
		{"project subtree", []string{"--project", "home"}, "1 (A) Buy milk +home---errands @shop"},
		{"project with plus", []string{"-a", "-p", "+home"}, "1 (A) Buy milk +home---errands @shop\n3 x 2024-05-01 Pay rent +home"},
		{"nested project", []string{"-p", "home---errands"}, "1 (A) Buy milk +home---errands @shop"},
		{"context", []string{"--context", "@office"}, "4 Write report +work @office"},
		{"no match", []string{"-p", "garden"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCLI(t)
			c.WriteTodo(lsFixture)

			out := c.MustRun(append([]string{"ls"}, tt.args...)...)

			assert.Equal(t, tt.want, out)
		})
	}
}

func TestLsConflictingFlags(t *testing.T) {
	c := NewCLI(t)

	stderr := c.MustFail("ls", "--all", "--done")

	assert.Contains(t, stderr, ErrConflictingFlags.Error())
}

func TestLsShowCompletedFromConfig(t *testing.T) {
	c := NewCLI(t)
	c.WriteTodo(lsFixture)
	c.WriteFile(".tdt.toml", "show_completed = true\n")

	out := c.MustRun("ls", "-p", "home")

	assert.Equal(t, "1 (A) Buy milk +home---errands @shop\n3 x 2024-05-01 Pay rent +home", out)
}

func TestLsJSON(t *testing.T) {
	c := NewCLI(t)
	c.WriteTodo(lsFixture)

	out := c.MustRun("ls", "--context", "shop", "--format", "json")

	var got []models.Task
	require.NoError(t, json.Unmarshal([]byte(out), &got))

	want := []models.Task{{
		ID:            1,
		Subject:       "Buy milk +home---errands @shop",
		Priority:      0,
		PriorityLabel: "A",
		Contexts:      []string{"shop"},
		Projects:      []string{"home---errands"},
		Raw:           "(A) Buy milk +home---errands @shop",
	}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ls json mismatch (-want +got):\n%s", diff)
	}
}

func TestLsEmptyYAML(t *testing.T) {
	c := NewCLI(t)

	out := c.MustRun("ls", "--format", "yaml")

	var got []models.Task
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.Empty(t, got)
	assert.Equal(t, "[]", out)
}

func TestLsUnknownFormat(t *testing.T) {
	c := NewCLI(t)

	stderr := c.MustFail("ls", "--format", "xml")

	assert.Contains(t, stderr, ErrUnknownFormat.Error())
}

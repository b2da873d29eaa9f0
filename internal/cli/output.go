package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tgienger/tdt/internal/models"
	"github.com/tgienger/tdt/internal/projecttree"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func validateFormat(format string) error {
	switch format {
	case formatText, formatJSON, formatYAML:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}

// encode writes v as JSON or YAML.
func encode(o *IO, format string, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(o.Out())
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(o.Out())
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, format)
	}
}

func formatTaskLine(t models.Task) string {
	return fmt.Sprintf("%d %s", t.ID, t.Raw)
}

func printTasks(o *IO, format string, tasks []models.Task) error {
	if format != formatText {
		if tasks == nil {
			tasks = []models.Task{}
		}
		return encode(o, format, tasks)
	}
	for _, t := range tasks {
		o.Println(formatTaskLine(t))
	}
	return nil
}

func printTree(o *IO, format string, nodes []projecttree.Node) error {
	if format != formatText {
		if nodes == nil {
			nodes = []projecttree.Node{}
		}
		return encode(o, format, nodes)
	}
	projecttree.Walk(nodes, func(n projecttree.Node, depth int) bool {
		o.Printf("%s%s (%d)\n", strings.Repeat("  ", depth), n.Name, n.DirectCount)
		return true
	})
	return nil
}

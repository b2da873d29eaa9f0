// Package projecttree folds hierarchical project tags into a sorted forest.
//
// A project tag such as "home---errands" names the path home > errands.
// Empty segments produced by leading, trailing or doubled separators are
// dropped, so "---home------errands---" is the same path as "home---errands".
package projecttree

import (
	"maps"
	"slices"
	"strings"

	"github.com/tgienger/tdt/internal/todotxt"
)

// Separator splits a project tag into path segments.
const Separator = "---"

// Path is a project tag split into its segments.
type Path []string

// ParsePath splits tag on Separator, dropping empty segments.
func ParsePath(tag string) Path {
	var p Path
	for _, seg := range strings.Split(tag, Separator) {
		if seg != "" {
			p = append(p, seg)
		}
	}
	return p
}

// String joins the segments back into a tag.
func (p Path) String() string {
	return strings.Join(p, Separator)
}

// HasPrefix reports whether prefix names p or one of its ancestors.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	return slices.Equal(p[:len(prefix)], prefix)
}

// Node is one level of the project hierarchy.
type Node struct {
	Name     string `json:"name" yaml:"name"`
	FullPath string `json:"full_path" yaml:"full_path"`
	// DirectCount counts tags whose path ends at this node; descendants
	// are not included.
	DirectCount int    `json:"direct_count" yaml:"direct_count"`
	Children    []Node `json:"children,omitempty" yaml:"children,omitempty"`
}

// TotalCount returns the direct count of n plus that of all descendants.
func (n Node) TotalCount() int {
	total := n.DirectCount
	for _, c := range n.Children {
		total += c.TotalCount()
	}
	return total
}

type accumulator struct {
	count    int
	children map[string]*accumulator
}

func newAccumulator() *accumulator {
	return &accumulator{children: make(map[string]*accumulator)}
}

// Build folds a multiset of project tags into a forest. The result depends
// only on the multiset, never on the order of tags. Tags without any
// non-empty segment are ignored.
func Build(tags []string) []Node {
	root := newAccumulator()

	for _, tag := range tags {
		path := ParsePath(tag)
		if len(path) == 0 {
			continue
		}

		level := root
		for _, seg := range path {
			next, ok := level.children[seg]
			if !ok {
				next = newAccumulator()
				level.children[seg] = next
			}
			level = next
		}
		level.count++
	}

	return convert(root, nil)
}

// FromTasks builds the forest from every project tag of tasks.
func FromTasks(tasks []*todotxt.Task) []Node {
	var tags []string
	for _, t := range tasks {
		tags = append(tags, t.Projects...)
	}
	return Build(tags)
}

func convert(acc *accumulator, parent Path) []Node {
	if len(acc.children) == 0 {
		return nil
	}

	names := slices.Sorted(maps.Keys(acc.children))
	nodes := make([]Node, 0, len(names))
	for _, name := range names {
		child := acc.children[name]
		path := append(slices.Clip(parent), name)
		nodes = append(nodes, Node{
			Name:        name,
			FullPath:    path.String(),
			DirectCount: child.count,
			Children:    convert(child, path),
		})
	}
	return nodes
}

// Walk visits nodes depth-first in order. Returning false from fn skips
// the children of that node.
func Walk(nodes []Node, fn func(n Node, depth int) bool) {
	walk(nodes, 0, fn)
}

func walk(nodes []Node, depth int, fn func(Node, int) bool) {
	for _, n := range nodes {
		if fn(n, depth) {
			walk(n.Children, depth+1, fn)
		}
	}
}

// Find returns the node with the given full path.
func Find(nodes []Node, fullPath string) (Node, bool) {
	var found Node
	var ok bool
	Walk(nodes, func(n Node, _ int) bool {
		if ok {
			return false
		}
		if n.FullPath == fullPath {
			found, ok = n, true
			return false
		}
		return true
	})
	return found, ok
}

// Total sums DirectCount over every node of the forest.
func Total(nodes []Node) int {
	total := 0
	for _, n := range nodes {
		total += n.TotalCount()
	}
	return total
}

// Matches reports whether tag lies at or below the node named by fullPath.
func Matches(tag, fullPath string) bool {
	want := ParsePath(fullPath)
	if len(want) == 0 {
		return false
	}
	return ParsePath(tag).HasPrefix(want)
}

// TaskMatches reports whether any project of t lies at or below fullPath.
func TaskMatches(t *todotxt.Task, fullPath string) bool {
	for _, p := range t.Projects {
		if Matches(p, fullPath) {
			return true
		}
	}
	return false
}

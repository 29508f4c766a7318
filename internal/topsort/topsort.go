// Package topsort orders task inheritance graphs so that every base comes
// before the tasks that extend it.
package topsort

import (
	"fmt"
	"sort"
	"strings"
)

// Graph maps a node to the nodes it depends on, in declaration order.
type Graph map[string][]string

// CycleError reports a dependency cycle. Path starts and ends with the same
// node, e.g. [a b a].
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("circular dependency: %s", strings.Join(e.Path, " -> "))
}

// MissingError reports an edge to a node that is not in the graph.
type MissingError struct {
	Node string
	Dep  string
}

func (e *MissingError) Error() string {
	if e.Node == "" {
		return fmt.Sprintf("node %q not found in graph", e.Dep)
	}
	return fmt.Sprintf("%q depends on undefined node %q", e.Node, e.Dep)
}

// Sort returns the nodes reachable from roots in dependency order:
// dependencies appear before dependents, and siblings keep their declared
// order. A nil roots sorts the whole graph.
func Sort(g Graph, roots []string) ([]string, error) {
	if roots == nil {
		roots = make([]string, 0, len(g))
		for name := range g {
			roots = append(roots, name)
		}
		sort.Strings(roots)
	}

	var (
		result  []string
		visited = make(map[string]bool)
		stack   []string
		onStack = make(map[string]int)
	)

	var visit func(from, name string) error
	visit = func(from, name string) error {
		if i, ok := onStack[name]; ok {
			path := append(append([]string(nil), stack[i:]...), name)
			return &CycleError{Path: path}
		}
		if visited[name] {
			return nil
		}
		deps, ok := g[name]
		if !ok {
			return &MissingError{Node: from, Dep: name}
		}

		onStack[name] = len(stack)
		stack = append(stack, name)
		for _, dep := range deps {
			if err := visit(name, dep); err != nil {
				return err
			}
		}
		stack = stack[:len(stack)-1]
		delete(onStack, name)

		visited[name] = true
		result = append(result, name)
		return nil
	}

	for _, name := range roots {
		if err := visit("", name); err != nil {
			return nil, err
		}
	}
	return result, nil
}

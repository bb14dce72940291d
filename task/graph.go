package task

import "context"

// WouldCreateCycle reports whether the edge "targetID depends on sourceID"
// would close a cycle: sourceID equals targetID, or targetID is already
// reachable from sourceID through dependency edges.
//
// The walk uses an explicit stack and expands each task at most once. Tasks
// missing from the store are dead ends.
func WouldCreateCycle(ctx context.Context, finder Finder, sourceID, targetID string) (bool, error) {
	if sourceID == targetID {
		return true, nil
	}

	visited := map[string]bool{sourceID: true}
	stack := []string{sourceID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		node, err := findOptional(ctx, finder, id)
		if err != nil {
			return false, err
		}
		if node == nil {
			continue
		}
		for _, dep := range node.Dependencies {
			if dep == targetID {
				return true, nil
			}
			if !visited[dep] {
				visited[dep] = true
				stack = append(stack, dep)
			}
		}
	}
	return false, nil
}

// CollectTransitiveDependencies returns every task reachable from taskID's
// direct dependencies, each once, in depth-first discovery order. taskID
// itself is never included, even if the graph were cyclic.
func CollectTransitiveDependencies(ctx context.Context, finder Finder, taskID string) ([]Ref, error) {
	root, err := finder.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	visited := map[string]bool{taskID: true}
	var result []Ref

	// Push in reverse so the first direct dependency is expanded first.
	stack := make([]string, 0, len(root.Dependencies))
	for i := len(root.Dependencies) - 1; i >= 0; i-- {
		stack = append(stack, root.Dependencies[i])
	}

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true

		node, err := findOptional(ctx, finder, id)
		if err != nil {
			return nil, err
		}
		if node == nil {
			continue
		}
		result = append(result, node.Ref())
		for i := len(node.Dependencies) - 1; i >= 0; i-- {
			if dep := node.Dependencies[i]; !visited[dep] {
				stack = append(stack, dep)
			}
		}
	}
	if result == nil {
		result = []Ref{}
	}
	return result, nil
}

// findOptional returns nil without error when id is absent.
func findOptional(ctx context.Context, finder Finder, id string) (*Task, error) {
	node, err := finder.FindByID(ctx, id)
	if err != nil {
		if KindOf(err) == KindNotFound {
			return nil, nil
		}
		return nil, err
	}
	return node, nil
}

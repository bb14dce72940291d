package task

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"
)

// reachable reports whether to can be reached from from by following edges.
func reachable(edges map[string][]string, from, to string) bool {
	seen := map[string]bool{}
	stack := []string{from}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == to {
			return true
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		stack = append(stack, edges[id]...)
	}
	return false
}

func TestAddDependencyMatchesReachabilityOnRandomGraphs(t *testing.T) {
	const (
		graphs = 200
		nodes  = 8
		edges  = 30
	)
	rng := rand.New(rand.NewPCG(1, 2))

	for g := range graphs {
		t.Run(fmt.Sprintf("graph-%d", g), func(t *testing.T) {
			svc := newTestService(t)
			ctx := context.Background()
			ids := make([]string, nodes)
			for i := range ids {
				ids[i] = mustCreate(t, svc, fmt.Sprintf("node %d", i)).ID
			}

			want := map[string][]string{}
			for range edges {
				from := ids[rng.IntN(nodes)]
				to := ids[rng.IntN(nodes)]

				_, err := svc.AddDependency(ctx, from, to)
				switch {
				case slices.Contains(want[from], to):
					requireKind(t, err, KindDuplicateEdge)
				case reachable(want, to, from):
					requireKind(t, err, KindCycleDetected)
				default:
					if err != nil {
						t.Fatalf("add %s -> %s: %v", from, to, err)
					}
					want[from] = append(want[from], to)
				}
			}

			for _, id := range ids {
				closure, err := CollectTransitiveDependencies(ctx, svc.store, id)
				if err != nil {
					t.Fatalf("collect %s: %v", id, err)
				}
				for _, other := range ids {
					if other == id {
						continue
					}
					inClosure := slices.Contains(refIDs(closure), other)
					if want := reachable(want, id, other); inClosure != want {
						t.Fatalf("closure of %s: %s present=%v, reachable=%v", id, other, inClosure, want)
					}
				}
				if slices.Contains(refIDs(closure), id) {
					t.Fatalf("closure of %s contains itself", id)
				}
			}
		})
	}
}

package task

import (
	"context"
	"fmt"
)

const msgBlockedByDependencies = "Cannot update task status - it has incomplete dependencies"

// ValidateTransition checks whether t may move to newStatus. Moving to an
// active status requires every direct dependency to be done; anything else
// is always allowed. Dependencies missing from the store do not block.
//
// This is a point-in-time check. A dependency that later leaves done does
// not re-block tasks that already moved on.
func ValidateTransition(ctx context.Context, finder Finder, t *Task, newStatus Status) error {
	if !newStatus.IsActive() || len(t.Dependencies) == 0 {
		return nil
	}

	deps, err := finder.FindAllByID(ctx, t.Dependencies)
	if err != nil {
		return fmt.Errorf("load dependencies: %w", err)
	}

	var blockers []Ref
	for i := range deps {
		if deps[i].Status != StatusDone {
			blockers = append(blockers, deps[i].Ref())
		}
	}
	if len(blockers) > 0 {
		return &Error{Kind: KindBlockedByDependencies, Msg: msgBlockedByDependencies, Blockers: blockers}
	}
	return nil
}

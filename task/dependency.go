package task

import (
	"context"
	"fmt"
	"time"
)

// Messages carried by dependency failures. Request layers show them as-is.
const (
	msgTaskOrDependencyNotFound = "Task or dependency task not found"
	msgDuplicateDependency      = "Dependency already exists"
	msgCircularDependency       = "Adding this dependency would create a circular reference"
	msgDependencyNotFound       = "Dependency does not exist"

	// Batch failure reasons.
	ReasonDependencyNotFound  = "Dependency task not found"
	ReasonDuplicateDependency = "Dependency already exists"
	ReasonCircularDependency  = "Would create circular reference"
)

// Options configures a Manager or Service.
type Options struct {
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	// OnMutate is called with the affected task IDs after every successful
	// mutation. Caches hang their invalidation off it.
	OnMutate func(ids ...string)
}

// Manager adds and removes dependency edges, keeping the graph acyclic.
type Manager struct {
	store    Store
	now      func() time.Time
	onMutate func(ids ...string)
}

// NewManager returns a Manager backed by store.
func NewManager(store Store, opts Options) *Manager {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{store: store, now: now, onMutate: opts.OnMutate}
}

// Store returns the underlying store.
func (m *Manager) Store() Store {
	return m.store
}

func (m *Manager) mutated(ids ...string) {
	if m.onMutate != nil {
		m.onMutate(ids...)
	}
}

// DependencyReport is a task's direct dependencies and their transitive
// closure.
type DependencyReport struct {
	Task               Summary `json:"task"`
	DirectDependencies []Ref   `json:"directDependencies"`
	AllDependencies    []Ref   `json:"allDependencies"`
}

// BatchFailure is one rejected dependency in a batch add.
type BatchFailure struct {
	DependencyID string `json:"dependencyId"`
	Reason       string `json:"reason"`
	Kind         Kind   `json:"-"`
}

// BatchResults splits a batch into accepted and rejected dependencies.
type BatchResults struct {
	Successful []string       `json:"successful"`
	Failed     []BatchFailure `json:"failed"`
}

// BatchReport is the outcome of AddMultipleDependencies.
type BatchReport struct {
	Task    Summary      `json:"task"`
	Results BatchResults `json:"results"`
}

// AddDependency records that taskID depends on dependencyID.
func (m *Manager) AddDependency(ctx context.Context, taskID, dependencyID string) (*Task, error) {
	t, err := m.findPair(ctx, taskID, dependencyID)
	if err != nil {
		return nil, err
	}

	if t.HasDependency(dependencyID) {
		return nil, newError(KindDuplicateEdge, msgDuplicateDependency)
	}

	cycle, err := WouldCreateCycle(ctx, m.store, dependencyID, taskID)
	if err != nil {
		return nil, fmt.Errorf("check cycle: %w", err)
	}
	if cycle {
		return nil, newError(KindCycleDetected, msgCircularDependency)
	}

	t.Dependencies = append(t.Dependencies, dependencyID)
	t.UpdatedAt = m.now()
	if err := m.store.Save(ctx, t); err != nil {
		return nil, err
	}
	m.mutated(taskID)
	return t, nil
}

func (m *Manager) findPair(ctx context.Context, taskID, dependencyID string) (*Task, error) {
	t, err := m.store.FindByID(ctx, taskID)
	if err != nil {
		return nil, pairError(err)
	}
	if _, err := m.store.FindByID(ctx, dependencyID); err != nil {
		return nil, pairError(err)
	}
	return t, nil
}

func pairError(err error) error {
	if KindOf(err) == KindNotFound {
		return &Error{Kind: KindNotFound, Msg: msgTaskOrDependencyNotFound, Err: err}
	}
	return err
}

// RemoveDependency deletes the edge "taskID depends on dependencyID".
func (m *Manager) RemoveDependency(ctx context.Context, taskID, dependencyID string) (*Task, error) {
	t, err := m.store.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	index := -1
	for i, dep := range t.Dependencies {
		if dep == dependencyID {
			index = i
			break
		}
	}
	if index < 0 {
		return nil, newError(KindEdgeNotFound, msgDependencyNotFound)
	}

	t.Dependencies = append(t.Dependencies[:index], t.Dependencies[index+1:]...)
	t.UpdatedAt = m.now()
	if err := m.store.Save(ctx, t); err != nil {
		return nil, err
	}
	m.mutated(taskID)
	return t, nil
}

// GetAllDependencies reports taskID's direct dependencies and everything
// reachable from them.
func (m *Manager) GetAllDependencies(ctx context.Context, taskID string) (*DependencyReport, error) {
	t, err := m.store.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	direct, err := m.store.FindAllByID(ctx, t.Dependencies)
	if err != nil {
		return nil, fmt.Errorf("load direct dependencies: %w", err)
	}
	all, err := CollectTransitiveDependencies(ctx, m.store, taskID)
	if err != nil {
		return nil, fmt.Errorf("collect dependencies: %w", err)
	}

	return &DependencyReport{
		Task:               t.Summary(),
		DirectDependencies: refs(direct),
		AllDependencies:    all,
	}, nil
}

// AddMultipleDependencies adds each of dependencyIDs to taskID in order,
// reporting per item instead of failing the batch. Later items see the edges
// accepted earlier in the same batch. The task is saved once, and only if
// something was accepted.
func (m *Manager) AddMultipleDependencies(ctx context.Context, taskID string, dependencyIDs []string) (*BatchReport, error) {
	t, err := m.store.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	report := &BatchReport{
		Task: t.Summary(),
		Results: BatchResults{
			Successful: []string{},
			Failed:     []BatchFailure{},
		},
	}
	view := &overlayFinder{base: m.store, task: t}

	for _, dependencyID := range dependencyIDs {
		fail := func(kind Kind, reason string) {
			report.Results.Failed = append(report.Results.Failed, BatchFailure{
				DependencyID: dependencyID,
				Reason:       reason,
				Kind:         kind,
			})
		}

		if _, err := view.FindByID(ctx, dependencyID); err != nil {
			if KindOf(err) != KindNotFound {
				return nil, err
			}
			fail(KindNotFound, ReasonDependencyNotFound)
			continue
		}
		if t.HasDependency(dependencyID) {
			fail(KindDuplicateEdge, ReasonDuplicateDependency)
			continue
		}
		cycle, err := WouldCreateCycle(ctx, view, dependencyID, taskID)
		if err != nil {
			return nil, fmt.Errorf("check cycle: %w", err)
		}
		if cycle {
			fail(KindCycleDetected, ReasonCircularDependency)
			continue
		}

		t.Dependencies = append(t.Dependencies, dependencyID)
		report.Results.Successful = append(report.Results.Successful, dependencyID)
	}

	if len(report.Results.Successful) > 0 {
		t.UpdatedAt = m.now()
		if err := m.store.Save(ctx, t); err != nil {
			return nil, err
		}
		m.mutated(taskID)
	}
	return report, nil
}

// overlayFinder reads through to base but answers for one task from its
// provisional, unsaved copy.
type overlayFinder struct {
	base Finder
	task *Task
}

func (f *overlayFinder) FindByID(ctx context.Context, id string) (*Task, error) {
	if id == f.task.ID {
		clone := f.task.Clone()
		return &clone, nil
	}
	return f.base.FindByID(ctx, id)
}

func (f *overlayFinder) FindAllByID(ctx context.Context, ids []string) ([]Task, error) {
	found, err := f.base.FindAllByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range found {
		if found[i].ID == f.task.ID {
			found[i] = f.task.Clone()
		}
	}
	return found, nil
}

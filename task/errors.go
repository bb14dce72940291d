package task

import (
	"errors"
	"fmt"
)

// Kind classifies every failure the task core can return. Request layers map
// kinds to transport statuses without looking at messages.
type Kind int

const (
	// KindInternal covers failures that are not part of the taxonomy, such as
	// I/O errors from a store.
	KindInternal Kind = iota
	KindNotFound
	KindDuplicateEdge
	KindEdgeNotFound
	KindCycleDetected
	KindBlockedByDependencies
	KindReferencedByOthers
	KindStoreConflict
	KindValidation
)

var kindNames = map[Kind]string{
	KindInternal:              "internal",
	KindNotFound:              "not-found",
	KindDuplicateEdge:         "duplicate-edge",
	KindEdgeNotFound:          "edge-not-found",
	KindCycleDetected:         "cycle-detected",
	KindBlockedByDependencies: "blocked-by-dependencies",
	KindReferencedByOthers:    "referenced-by-others",
	KindStoreConflict:         "store-conflict",
	KindValidation:            "validation",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

var (
	// ErrTaskNotFound is returned when an identifier does not resolve to a task.
	ErrTaskNotFound = errors.New("task not found")

	// ErrDuplicateDependency is returned when the edge is already present.
	ErrDuplicateDependency = errors.New("dependency already exists")

	// ErrDependencyNotFound is returned when removing an edge that is absent.
	ErrDependencyNotFound = errors.New("dependency does not exist")

	// ErrCircularDependency is returned when an edge would close a cycle,
	// including the self edge.
	ErrCircularDependency = errors.New("dependency would create a cycle")

	// ErrBlockedByDependencies is returned when a status change is refused
	// because a direct dependency is not done.
	ErrBlockedByDependencies = errors.New("task has incomplete dependencies")

	// ErrReferencedByOthers is returned when deleting a task other tasks depend on.
	ErrReferencedByOthers = errors.New("task is a dependency of other tasks")

	// ErrStoreConflict is returned when a save lost a race with another
	// writer. The caller should reload and retry.
	ErrStoreConflict = errors.New("task was modified concurrently")

	// ErrInvalidTask is returned for malformed input.
	ErrInvalidTask = errors.New("invalid task")

	// ErrEmptyTitle is returned when a task title is empty.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrTitleTooLong is returned when a task title exceeds MaxTitleLength.
	ErrTitleTooLong = errors.New("title exceeds maximum length")

	// ErrInvalidStatus is returned when an unknown status is provided.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrInvalidPriority is returned when an unknown priority is provided.
	ErrInvalidPriority = errors.New("invalid priority")

	// ErrInvalidDueDate is returned for a due date in an unsupported format.
	ErrInvalidDueDate = errors.New("invalid due date")

	// ErrAmbiguousTaskIDPrefix is returned when an ID prefix matches multiple tasks.
	ErrAmbiguousTaskIDPrefix = errors.New("ambiguous task ID prefix")
)

var kindSentinels = map[Kind]error{
	KindNotFound:              ErrTaskNotFound,
	KindDuplicateEdge:         ErrDuplicateDependency,
	KindEdgeNotFound:          ErrDependencyNotFound,
	KindCycleDetected:         ErrCircularDependency,
	KindBlockedByDependencies: ErrBlockedByDependencies,
	KindReferencedByOthers:    ErrReferencedByOthers,
	KindStoreConflict:         ErrStoreConflict,
	KindValidation:            ErrInvalidTask,
}

// Error is the typed failure returned by the task core.
type Error struct {
	Kind Kind

	// Msg is the client-facing message.
	Msg string

	// Blockers lists the direct dependencies that are not done
	// (KindBlockedByDependencies).
	Blockers []Ref

	// Referencing lists the tasks that depend on the task being deleted
	// (KindReferencedByOthers).
	Referencing []Ref

	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Msg == "" {
		return e.Err.Error()
	}
	if e.Err != nil && e.Kind == KindValidation {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

// Unwrap exposes both the kind's sentinel and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	var errs []error
	if sentinel, ok := kindSentinels[e.Kind]; ok {
		errs = append(errs, sentinel)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindOf returns the kind of err, looking through wrapping. Untyped errors
// are classified by sentinel, falling back to KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return KindInternal
	}
	var taskErr *Error
	if errors.As(err, &taskErr) {
		return taskErr.Kind
	}
	for kind, sentinel := range kindSentinels {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return KindInternal
}

// AsError returns the *Error inside err, if there is one.
func AsError(err error) (*Error, bool) {
	var taskErr *Error
	if errors.As(err, &taskErr) {
		return taskErr, true
	}
	return nil, false
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func notFoundError(id string) *Error {
	return &Error{Kind: KindNotFound, Msg: "Task not found", Err: fmt.Errorf("%w: %s", ErrTaskNotFound, id)}
}

func validationError(msg string, cause error) *Error {
	return &Error{Kind: KindValidation, Msg: msg, Err: cause}
}

func conflictError(id string) *Error {
	return &Error{
		Kind: KindStoreConflict,
		Msg:  "Task was modified by another request, please retry",
		Err:  fmt.Errorf("%w: %s", ErrStoreConflict, id),
	}
}

// NotFound builds the NotFound failure for id. Store implementations outside
// this package use it for absent records.
func NotFound(id string) error {
	return notFoundError(id)
}

// Conflict builds the StoreConflict failure for id.
func Conflict(id string) error {
	return conflictError(id)
}

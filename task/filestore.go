package task

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"
)

const (
	// TasksFile is the name of the JSONL file containing tasks.
	TasksFile = "tasks.jsonl"

	lockFile = "tasks.lock"

	maxJSONLineBytes = 1024 * 1024
)

// FileStore keeps tasks in a JSONL file under a data directory. Every
// operation holds an exclusive flock, so several processes may share the
// directory. Writes replace the file atomically.
type FileStore struct {
	dir string
}

// OpenFileStore returns a FileStore rooted at dir, creating dir if needed.
func OpenFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("file store: data directory is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the data directory.
func (s *FileStore) Dir() string {
	return s.dir
}

func (s *FileStore) FindByID(ctx context.Context, id string) (*Task, error) {
	var found *Task
	err := s.read(ctx, func(tasks []Task) error {
		for i := range tasks {
			if tasks[i].ID == id {
				clone := tasks[i].Clone()
				found = &clone
				return nil
			}
		}
		return notFoundError(id)
	})
	return found, err
}

func (s *FileStore) FindAllByID(ctx context.Context, ids []string) ([]Task, error) {
	var result []Task
	err := s.read(ctx, func(tasks []Task) error {
		byID := indexByID(tasks)
		result = make([]Task, 0, len(ids))
		for _, id := range ids {
			if i, ok := byID[id]; ok {
				result = append(result, tasks[i].Clone())
			}
		}
		return nil
	})
	return result, err
}

func (s *FileStore) FindReferencing(ctx context.Context, id string) ([]Task, error) {
	var result []Task
	err := s.read(ctx, func(tasks []Task) error {
		for i := range tasks {
			if tasks[i].HasDependency(id) {
				result = append(result, tasks[i].Clone())
			}
		}
		return nil
	})
	return result, err
}

func (s *FileStore) Find(ctx context.Context, q Query) ([]Task, error) {
	var result []Task
	err := s.read(ctx, func(tasks []Task) error {
		result = Select(tasks, q)
		return nil
	})
	return result, err
}

func (s *FileStore) Count(ctx context.Context, filter Filter) (int, error) {
	count := 0
	err := s.read(ctx, func(tasks []Task) error {
		for i := range tasks {
			if filter.Matches(&tasks[i]) {
				count++
			}
		}
		return nil
	})
	return count, err
}

func (s *FileStore) Create(ctx context.Context, t *Task) error {
	return s.update(ctx, func(tasks []Task) ([]Task, error) {
		if _, exists := indexByID(tasks)[t.ID]; exists {
			return nil, conflictError(t.ID)
		}
		t.Version = 0
		return append(tasks, t.Clone()), nil
	})
}

func (s *FileStore) Save(ctx context.Context, t *Task) error {
	return s.update(ctx, func(tasks []Task) ([]Task, error) {
		i, ok := indexByID(tasks)[t.ID]
		if !ok {
			return nil, notFoundError(t.ID)
		}
		if tasks[i].Version != t.Version {
			return nil, conflictError(t.ID)
		}
		t.Version++
		tasks[i] = t.Clone()
		return tasks, nil
	})
}

func (s *FileStore) DeleteByID(ctx context.Context, id string) error {
	return s.update(ctx, func(tasks []Task) ([]Task, error) {
		i, ok := indexByID(tasks)[id]
		if !ok {
			return nil, notFoundError(id)
		}
		return append(tasks[:i], tasks[i+1:]...), nil
	})
}

func (s *FileStore) read(ctx context.Context, fn func([]Task) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return withFileLock(filepath.Join(s.dir, lockFile), func() error {
		tasks, err := readJSONL[Task](filepath.Join(s.dir, TasksFile))
		if err != nil {
			return fmt.Errorf("read tasks: %w", err)
		}
		return fn(tasks)
	})
}

func (s *FileStore) update(ctx context.Context, fn func([]Task) ([]Task, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := filepath.Join(s.dir, TasksFile)
	return withFileLock(filepath.Join(s.dir, lockFile), func() error {
		tasks, err := readJSONL[Task](path)
		if err != nil {
			return fmt.Errorf("read tasks: %w", err)
		}
		tasks, err = fn(tasks)
		if err != nil {
			return err
		}
		if err := writeJSONL(path, tasks); err != nil {
			return fmt.Errorf("write tasks: %w", err)
		}
		return nil
	})
}

func indexByID(tasks []Task) map[string]int {
	index := make(map[string]int, len(tasks))
	for i := range tasks {
		index[tasks[i].ID] = i
	}
	return index
}

// withFileLock executes fn while holding an exclusive lock on the file at path.
// Creates the file if it doesn't exist.
func withFileLock(path string, fn func() error) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("open file for locking: %w", err)
	}
	defer f.Close()

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer syscall.Flock(int(f.Fd()), syscall.LOCK_UN)

	return fn()
}

// readJSONL reads all JSON objects from a JSONL file into a slice.
func readJSONL[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return readJSONLFromReader[T](f)
}

func readJSONLFromReader[T any](reader io.Reader) ([]T, error) {
	var items []T
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), maxJSONLineBytes)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var item T
		if err := json.Unmarshal(line, &item); err != nil {
			return nil, fmt.Errorf("parse line %d: %w", lineNum, err)
		}
		items = append(items, item)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return items, nil
}

// writeJSONL writes items to path through a temp file and rename.
func writeJSONL[T any](path string, items []T) error {
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}

	encoder := json.NewEncoder(f)
	for i, item := range items {
		if err := encoder.Encode(item); err != nil {
			f.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("encode item %d: %w", i, err)
		}
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}

var _ Store = (*FileStore)(nil)

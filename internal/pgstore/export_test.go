package pgstore

import "context"

// Truncate empties the tasks table between tests.
func Truncate(ctx context.Context, s *Store) error {
	_, err := s.pool.Exec(ctx, `TRUNCATE tasks`)
	return err
}

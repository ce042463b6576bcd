package postgres

import "context"

// TruncateForTest removes all rows from the memories table and resets id
// assignment; task rows go with them through the foreign key. It lives in
// the postgres package (not postgres_test) so it can reach the unexported
// db handle. Only the integration tests call it.
func (s *MemoryStore) TruncateForTest(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "TRUNCATE TABLE memories RESTART IDENTITY CASCADE")
	return err
}

package db

// MaxInParams bounds how many values go into a single "IN ?" clause. SQLite
// caps bound variables at 32766 and Postgres at 65535 per statement.
const MaxInParams = 1000

// InChunks calls fn with consecutive slices of values no longer than size.
// It stops at the first error.
func InChunks[T any](values []T, size int, fn func(chunk []T) error) error {
	if size <= 0 {
		size = MaxInParams
	}
	for start := 0; start < len(values); start += size {
		end := min(start+size, len(values))
		if err := fn(values[start:end]); err != nil {
			return err
		}
	}
	return nil
}

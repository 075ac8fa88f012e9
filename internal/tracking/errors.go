package tracking

import "errors"

// ErrConflict is returned by Upsert with OnConflict=throw when a batch
// contains a row that already exists.
var ErrConflict = errors.New("tracking: row already exists")

// ErrNotFound is returned by Pop and UpdateState when the id is unknown.
var ErrNotFound = errors.New("tracking: job not found")

package syncer

import "errors"

var (
	ErrInvalidConfig = errors.New("invalid sync configuration")
	ErrFetch         = errors.New("failed to fetch events")
	ErrIncomplete    = errors.New("event details are incomplete")
	ErrStoreQuery    = errors.New("failed to query record")
	ErrStoreCreate   = errors.New("failed to create record")
	ErrStoreUpdate   = errors.New("failed to update record")
)

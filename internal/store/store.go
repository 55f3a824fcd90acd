package store

import (
	"context"
	"errors"
)

var (
	ErrDuplicateKey  = errors.New("record with same external key exists")
	ErrNotFound      = errors.New("record not found")
	ErrEmptyKey      = errors.New("external key is empty")
	ErrIncorrectTime = errors.New("incorrect record time")
)

// Store is the target database. Records are addressed by the database they
// belong to and by their external key.
type Store interface {
	Connect(ctx context.Context) error
	Close(ctx context.Context) error
	FindByKey(ctx context.Context, databaseID string, key string) (Record, bool, error)
	Create(ctx context.Context, databaseID string, r *Record) error
	Update(ctx context.Context, databaseID string, r Record) error
}

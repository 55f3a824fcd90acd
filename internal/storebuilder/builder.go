package storebuilder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ryanparsons7/calendly-notion/internal/store"
	memorystorage "github.com/ryanparsons7/calendly-notion/internal/store/memory"
	"github.com/ryanparsons7/calendly-notion/internal/store/notion"
	sqlstorage "github.com/ryanparsons7/calendly-notion/internal/store/sql"
)

const (
	TypeNotion = "notion"
	TypeMemory = "memory"
	TypeSQL    = "sql"
)

var ErrUnknownType = errors.New("unknown store type")

type Config struct {
	Type     string
	Notion   notion.Config
	Database sqlstorage.Config
}

// New creates the store of the configured type and connects it.
func New(ctx context.Context, config Config) (store.Store, error) {
	var s store.Store
	switch config.Type {
	case TypeNotion, "":
		s = notion.New(config.Notion)
	case TypeMemory:
		s = memorystorage.New()
	case TypeSQL:
		s = sqlstorage.New(config.Database)
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownType, config.Type)
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := s.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to %s store: %w", config.Type, err)
	}
	return s, nil
}

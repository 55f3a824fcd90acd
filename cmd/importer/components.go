package main

import (
	"context"
	"fmt"
	"time"

	"github.com/ryanparsons7/calendly-notion/internal/logger"
	"github.com/ryanparsons7/calendly-notion/internal/rabbit"
	"github.com/ryanparsons7/calendly-notion/internal/sourcebuilder"
	"github.com/ryanparsons7/calendly-notion/internal/store"
	"github.com/ryanparsons7/calendly-notion/internal/storebuilder"
	"github.com/ryanparsons7/calendly-notion/internal/syncer"
	log "github.com/sirupsen/logrus"
)

// components are the connected parts of the importer shared by run and serve.
type components struct {
	config Config
	store  store.Store
	engine *syncer.Engine
	rabbit *rabbit.Provider
}

func prepare(ctx context.Context, configFile string) (*components, error) {
	config, err := NewConfig(configFile)
	if err != nil {
		return nil, err
	}
	if err := logger.PrepareLogger(config.Logger); err != nil {
		return nil, err
	}
	if err := config.SyncerConfig().Validate(); err != nil {
		return nil, err
	}

	lister, err := sourcebuilder.New(ctx, config.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to create source: %w", err)
	}
	st, err := storebuilder.New(ctx, config.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	c := &components{config: config, store: st}
	var opts []syncer.Option
	if config.Rabbit.Enabled {
		c.rabbit = rabbit.New(config.Rabbit)
		if err := c.rabbit.Connect(); err != nil {
			// The import runs without notifications when the broker is unreachable.
			log.Errorf("notifications disabled: %v", err)
			c.rabbit = nil
		} else {
			opts = append(opts, syncer.WithNotifier(rabbit.NewNotifier(c.rabbit)))
		}
	}
	c.engine = syncer.New(lister, st, opts...)
	return c, nil
}

func (c *components) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
	defer cancel()
	if err := c.store.Close(ctx); err != nil {
		log.Errorf("failed to close store: %v", err)
	}
	if c.rabbit != nil {
		if err := c.rabbit.Close(); err != nil {
			log.Errorf("failed to close broker connection: %v", err)
		}
	}
}

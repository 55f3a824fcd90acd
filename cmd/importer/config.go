package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ryanparsons7/calendly-notion/internal/logger"
	"github.com/ryanparsons7/calendly-notion/internal/rabbit"
	internalgrpc "github.com/ryanparsons7/calendly-notion/internal/server/grpc"
	internalhttp "github.com/ryanparsons7/calendly-notion/internal/server/http"
	"github.com/ryanparsons7/calendly-notion/internal/sourcebuilder"
	"github.com/ryanparsons7/calendly-notion/internal/storebuilder"
	"github.com/ryanparsons7/calendly-notion/internal/syncer"
	"github.com/spf13/viper"
)

const envConfigPrefix = "$env:"

var ErrMissingSetting = errors.New("required setting is not set")

// requiredKeys must resolve to a non-empty value, the lookahead has no default.
var requiredKeys = []string{
	"sync.lookaheadDays",
	"sync.databaseId",
	"sync.orgReference",
	"sync.linkPrefix",
}

type SyncConfig struct {
	LookaheadDays int
	LinkPrefix    string
	DatabaseID    string
	OrgReference  string
	UpdatePolicy  string
	Interval      time.Duration
	// RetainDays drops records of meetings older than that many days, 0 keeps everything.
	RetainDays int
}

type ServerConfig struct {
	HTTP internalhttp.Config
	Grpc internalgrpc.Config
}

type Config struct {
	Logger logger.Config
	Sync   SyncConfig
	Source sourcebuilder.Config
	Store  storebuilder.Config
	Rabbit rabbit.Config
	Server ServerConfig
}

func (c Config) SyncerConfig() syncer.Config {
	return syncer.Config{
		LookaheadDays: c.Sync.LookaheadDays,
		LinkPrefix:    c.Sync.LinkPrefix,
		DatabaseID:    c.Sync.DatabaseID,
		OrgReference:  c.Sync.OrgReference,
		UpdatePolicy:  syncer.UpdatePolicy(c.Sync.UpdatePolicy),
	}
}

func NewConfig(configFile string) (Config, error) {
	config := Config{}
	v := viper.New()
	v.SetConfigFile(configFile)

	v.SetDefault("logger.level", "WARN")
	v.SetDefault("sync.updatePolicy", string(syncer.UpdatePolicySkip))
	v.SetDefault("sync.interval", "15m")
	v.SetDefault("source.type", sourcebuilder.TypeCalendly)
	v.SetDefault("store.type", storebuilder.TypeNotion)
	v.SetDefault("rabbit.host", "127.0.0.1")
	v.SetDefault("rabbit.port", "5672")
	v.SetDefault("rabbit.queue", "importer.records")
	v.SetDefault("server.http.host", "127.0.0.1")
	v.SetDefault("server.http.port", "8005")
	v.SetDefault("server.grpc.host", "127.0.0.1")
	v.SetDefault("server.grpc.port", "8006")

	err := v.ReadInConfig()
	if err != nil {
		return config, fmt.Errorf("failed to read config %q: %w", configFile, err)
	}
	keys := v.AllKeys()
	for _, key := range keys {
		env := v.GetString(key)
		if !strings.HasPrefix(env, envConfigPrefix) {
			continue
		}
		err := v.BindEnv(key, env[len(envConfigPrefix):])
		if err != nil {
			return config, fmt.Errorf("failed to prepare config: %w", err)
		}
		// Unset variables must not leak the placeholder into the config.
		if strings.HasPrefix(v.GetString(key), envConfigPrefix) {
			v.Set(key, "")
		}
	}

	for _, key := range requiredKeys {
		if strings.TrimSpace(v.GetString(key)) == "" {
			return config, fmt.Errorf("%w: %s", ErrMissingSetting, key)
		}
	}

	err = v.Unmarshal(&config)
	if err != nil {
		return config, fmt.Errorf("unable to decode into config struct: %w", err)
	}
	if config.Sync.Interval <= 0 {
		return config, fmt.Errorf("sync interval should be positive, got %s", config.Sync.Interval)
	}
	return config, nil
}

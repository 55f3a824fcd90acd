package logger

import (
	"os"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestPrepareLogger(t *testing.T) {
	t.Run("level by name", func(t *testing.T) {
		require.NoError(t, PrepareLogger(Config{Level: "WARN"}))
		require.Equal(t, log.WarnLevel, log.GetLevel())

		require.NoError(t, PrepareLogger(Config{Level: "debug", Format: "json"}))
		require.Equal(t, log.DebugLevel, log.GetLevel())
		require.IsType(t, &log.JSONFormatter{}, log.StandardLogger().Formatter)

		require.NoError(t, PrepareLogger(Config{Level: "info", Output: "stderr"}))
		require.Equal(t, os.Stderr, log.StandardLogger().Out)
	})

	t.Run("incorrect values", func(t *testing.T) {
		require.Error(t, PrepareLogger(Config{Level: "loud"}))
		require.Error(t, PrepareLogger(Config{Level: "info", Format: "xml"}))
		require.Error(t, PrepareLogger(Config{Level: "info", Output: "syslog"}))
	})
}

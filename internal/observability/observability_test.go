package observability_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/msgward/msgward/internal/observability"
)

func TestInitCLILogger(t *testing.T) {
	observability.InitCLILogger("msgward-test", false)
	require.NotNil(t, observability.CLILogger)

	observability.CLILogger.Info("cli logger ready", zap.String("component", "test"))
}

func TestInitServerLogger(t *testing.T) {
	observability.InitServerLogger("msgward-test", "debug", "msgward")
	require.NotNil(t, observability.ServerLogger)

	observability.ServerLogger.Info("server logger ready",
		zap.String("component", "test"),
		zap.Int("attempt", 1))
}

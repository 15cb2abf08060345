package security

import (
	"errors"
	"testing"

	"github.com/ncpwheels/featured-payments/internal/domain/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerAdapter_FieldsAndRedaction(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger := NewZapLogger(zap.New(core))

	logger.Warn("Webhook rejected",
		ports.String("payment_id", "pay-1"),
		ports.String("merchant_key", "super-secret"),
		ports.String("hashKey", "abc123"),
		ports.Int("attempt", 2),
		ports.Err(errors.New("signature mismatch")),
	)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "pay-1", fields["payment_id"])
	assert.Equal(t, redacted, fields["merchant_key"])
	assert.Equal(t, redacted, fields["hashKey"])
	assert.EqualValues(t, 2, fields["attempt"])
	assert.Equal(t, "signature mismatch", fields["error"])
}

func TestNewLogger(t *testing.T) {
	l, err := NewLogger("debug", true)
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zap.DebugLevel))

	l, err = NewLogger("warn", false)
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zap.InfoLevel))

	_, err = NewLogger("loud", false)
	assert.Error(t, err)
}

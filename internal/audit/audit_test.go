package audit_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kaiser-net/nodefw/internal/audit"
)

func TestFileLogger_LogAndQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	logger, err := audit.NewFileLogger(path, audit.RotationConfig{})
	require.NoError(t, err)
	defer logger.Close()

	require.NoError(t, logger.Log(audit.NewEvent("ESP_010203", audit.KindZoneAssign, audit.SourceServer).WithDetail("zone-1")))
	require.NoError(t, logger.Log(audit.NewEvent("ESP_010203", audit.KindManualOverride, audit.SourceOperator).WithPin(4).WithError(errors.New("pin busy"))))

	events, err := logger.Query(audit.Filter{NodeID: "ESP_010203"})
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.True(t, events[0].Success)
	require.False(t, events[1].Success)
	require.Equal(t, "pin busy", events[1].Error)
}

func TestFileLogger_QueryFiltersBySuccess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	logger, err := audit.NewFileLogger(path, audit.RotationConfig{})
	require.NoError(t, err)
	defer logger.Close()

	require.NoError(t, logger.Log(audit.NewEvent("ESP_1", audit.KindFactoryReset, audit.SourceProvisioning)))
	require.NoError(t, logger.Log(audit.NewEvent("ESP_1", audit.KindFactoryReset, audit.SourceProvisioning).WithError(errors.New("boom"))))

	events, err := logger.Query(audit.Filter{FailureOnly: true})
	require.NoError(t, err)
	require.Len(t, events, 1)
}

func TestDefaultLogger_NoopWithoutConfiguration(t *testing.T) {
	require.NoError(t, audit.Log(audit.NewEvent("ESP_1", audit.KindFactoryReset, audit.SourceOperator)))
	events, err := audit.Query(audit.Filter{})
	require.NoError(t, err)
	require.Empty(t, events)
}

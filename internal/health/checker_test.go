package health_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kaiser-net/nodefw/internal/health"
)

func TestChecker_OverallOKWhenAllHealthy(t *testing.T) {
	c := health.NewChecker()
	report := c.Run(context.Background(), health.NodeView{
		HeapFreeBytes: 200000, HeapMinFreeBytes: 150000, HeapFragPercent: 5,
		LinkConnected: true, SignalDBm: -50, BrokerConnected: true,
		LifecycleState: "OPERATIONAL",
	})
	require.Equal(t, health.StatusOK, report.Overall)
}

func TestChecker_LinkDownIsCritical(t *testing.T) {
	c := health.NewChecker()
	report := c.Run(context.Background(), health.NodeView{
		HeapMinFreeBytes: 1, LinkConnected: false, LifecycleState: "NET_CONNECTING",
	})
	require.Equal(t, health.StatusCritical, report.Overall)
}

func TestChecker_SafeModeLifecycleIsCritical(t *testing.T) {
	c := health.NewChecker()
	report := c.Run(context.Background(), health.NodeView{
		HeapMinFreeBytes: 1, LinkConnected: true, BrokerConnected: true, LifecycleState: "SAFE_MODE",
	})
	require.Equal(t, health.StatusCritical, report.Overall)
}

package health_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kaiser-net/nodefw/internal/health"
)

func TestMonitor_FirstTickAlwaysEmits(t *testing.T) {
	m := health.NewMonitor()
	_, due := m.Tick(context.Background(), health.NodeView{HeapMinFreeBytes: 1, LinkConnected: true})
	require.True(t, due)
}

func TestMonitor_SecondTickWithNoChangeDoesNotEmit(t *testing.T) {
	m := health.NewMonitor()
	view := health.NodeView{HeapMinFreeBytes: 1, LinkConnected: true, SignalDBm: -50}
	_, due := m.Tick(context.Background(), view)
	require.True(t, due)

	_, due = m.Tick(context.Background(), view)
	require.False(t, due)
}

func TestMonitor_LinkFlipTriggersImmediateEmit(t *testing.T) {
	m := health.NewMonitor()
	view := health.NodeView{HeapMinFreeBytes: 1, LinkConnected: true}
	m.Tick(context.Background(), view)

	view.LinkConnected = false
	_, due := m.Tick(context.Background(), view)
	require.True(t, due)
}

func TestMonitor_LargeRSSIChangeTriggersImmediateEmit(t *testing.T) {
	m := health.NewMonitor()
	view := health.NodeView{HeapMinFreeBytes: 1, LinkConnected: true, SignalDBm: -50}
	m.Tick(context.Background(), view)

	view.SignalDBm = -70
	_, due := m.Tick(context.Background(), view)
	require.True(t, due)
}

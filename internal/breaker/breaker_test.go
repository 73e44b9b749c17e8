package breaker_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kaiser-net/nodefw/internal/breaker"
)

func TestBreaker_TripsAfterThresholdFailures(t *testing.T) {
	b := breaker.New(3, 30*time.Second, 10*time.Second)
	require.True(t, b.Allow())

	b.Failure()
	b.Failure()
	require.Equal(t, breaker.Closed, b.State())
	b.Failure()
	require.Equal(t, breaker.Open, b.State())
	require.False(t, b.Allow())
}

func TestBreaker_HalfOpenAfterCooldownThenCloses(t *testing.T) {
	b := breaker.New(1, 10*time.Millisecond, 5*time.Millisecond)
	b.Failure()
	require.Equal(t, breaker.Open, b.State())
	require.False(t, b.Allow())

	time.Sleep(15 * time.Millisecond)
	require.True(t, b.Allow())
	require.Equal(t, breaker.HalfOpen, b.State())

	b.Success()
	require.Equal(t, breaker.Closed, b.State())
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	b := breaker.New(1, 10*time.Millisecond, 5*time.Millisecond)
	b.Failure()
	time.Sleep(15 * time.Millisecond)
	require.True(t, b.Allow())

	b.Failure()
	require.Equal(t, breaker.Open, b.State())
}

package messaging_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kaiser-net/nodefw/internal/messaging"
	"github.com/kaiser-net/nodefw/internal/testutil"
)

func TestConnect_SubscribesAndDispatchesExactTopics(t *testing.T) {
	_, client := testutil.NewRedis(t)
	msg := messaging.New(client, func() []string { return []string{"system/command"} })

	received := make(chan string, 1)
	msg.Subscribe("system/command", func(topic string, payload []byte) {
		received <- string(payload)
	})

	require.NoError(t, msg.Connect(context.Background()))
	require.True(t, msg.Connected())

	require.NoError(t, client.Publish(context.Background(), "system/command", "hello").Err())

	select {
	case got := <-received:
		require.Equal(t, "hello", got)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for dispatched message")
	}
}

func TestPublish_BuffersWhileDisconnected(t *testing.T) {
	_, client := testutil.NewRedis(t)
	msg := messaging.New(client, func() []string { return nil })

	require.NoError(t, msg.Publish(context.Background(), "sensor/4/data", []byte("x"), messaging.QoS0))
	require.Equal(t, 1, msg.OfflineDepth())
}

func TestPublish_QoS1WithNoSubscriberCountsAsFailure(t *testing.T) {
	_, client := testutil.NewRedis(t)
	msg := messaging.New(client, func() []string { return nil })
	require.NoError(t, msg.Connect(context.Background()))

	err := msg.Publish(context.Background(), "actuator/5/command", []byte("x"), messaging.QoS1)
	require.Error(t, err)
	require.False(t, msg.Connected())
}

func TestTick_EmitsHeartbeatWhenDue(t *testing.T) {
	_, client := testutil.NewRedis(t)
	msg := messaging.New(client, func() []string { return nil })
	msg.SetHeartbeatTopic("system/heartbeat")
	msg.SetHeartbeatPayloadFunc(func() []byte { return []byte("hb") })

	sub := client.Subscribe(context.Background(), "system/heartbeat")
	defer sub.Close()
	_, err := sub.Receive(context.Background())
	require.NoError(t, err)

	require.NoError(t, msg.Connect(context.Background()))
	msg.Tick(context.Background())

	select {
	case m := <-sub.Channel():
		require.Equal(t, "hb", m.Payload)
	case <-time.After(2 * time.Second):
		t.Fatal("heartbeat not published")
	}
}

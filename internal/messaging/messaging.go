// Package messaging implements the node's pub/sub session:
// connect/reconnect lifecycle, offline buffering, heartbeat, and exact-match
// topic dispatch over redis PUBLISH/SUBSCRIBE, standing in for the MQTT
// broker session real firmware would speak over (see DESIGN.md). QoS 1 is
// simulated by treating a PUBLISH with zero receiving subscribers as an
// unacknowledged delivery, since redis's PUBLISH reply is itself the number
// of clients that received the message.
package messaging

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/kaiser-net/nodefw/internal/breaker"
	"github.com/kaiser-net/nodefw/internal/nodelog"
)

// QoS levels the node publishes at.
const (
	QoS0 = 0 // fire-and-forget
	QoS1 = 1 // simulated ack via receiver count
)

const offlineBufferCapacity = 100

// OfflineMessage is one buffered publish awaiting a reconnect.
type OfflineMessage struct {
	Topic     string
	Payload   []byte
	QoS       int
	EnqueuedAt time.Time
}

// Handler dispatches an inbound message on an exact-matched topic.
type Handler func(topic string, payload []byte)

// Client is the node's long-lived pub/sub session.
type Client struct {
	mu       sync.Mutex
	rdb      *redis.Client
	breaker  *breaker.Breaker
	handlers map[string]Handler

	connected bool
	pubsub    *redis.PubSub
	cancel    context.CancelFunc

	offline        []OfflineMessage
	overflowWarned bool

	standingTopics    func() []string
	heartbeatInterval time.Duration
	heartbeatPayload  func() []byte
	lastHeartbeat     time.Time

	hbTopic string
	now     func() time.Time
}

// New creates a messaging client over rdb, gated by a breaker that opens
// after 5 consecutive failures and stays open for 30s before a half-open
// probe.
func New(rdb *redis.Client, standingTopics func() []string) *Client {
	return &Client{
		rdb:               rdb,
		breaker:           breaker.New(5, 30*time.Second, 10*time.Second),
		handlers:          make(map[string]Handler),
		standingTopics:    standingTopics,
		heartbeatInterval: 60 * time.Second,
		heartbeatPayload:  func() []byte { return nil },
		now:               time.Now,
	}
}

// SetHeartbeatPayloadFunc installs the callback that builds the heartbeat
// payload on each emission.
func (c *Client) SetHeartbeatPayloadFunc(fn func() []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.heartbeatPayload = fn
}

// Subscribe registers handler for exact-match topic dispatch.
func (c *Client) Subscribe(topic string, handler Handler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[topic] = handler
}

// Connected reports the current session state.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Connect dials the broker (gated by the circuit breaker), re-subscribes
// to the standing topic set, and flushes the offline buffer in enqueue
// order.
func (c *Client) Connect(ctx context.Context) error {
	if !c.breaker.Allow() {
		return errConnectionRefused
	}

	if err := c.rdb.Ping(ctx).Err(); err != nil {
		c.breaker.Failure()
		return err
	}

	topics := c.standingTopics()
	subCtx, cancel := context.WithCancel(context.Background())
	pubsub := c.rdb.Subscribe(subCtx, topics...)
	if len(topics) > 0 {
		if _, err := pubsub.Receive(subCtx); err != nil {
			cancel()
			_ = pubsub.Close()
			c.breaker.Failure()
			return err
		}
	}

	c.mu.Lock()
	c.pubsub = pubsub
	c.cancel = cancel
	c.connected = true
	c.lastHeartbeat = time.Time{} // first Tick after connect emits a heartbeat
	c.mu.Unlock()

	c.breaker.Success()
	go c.listen(pubsub.Channel())

	return c.flush(context.Background())
}

// listen drains the redis pub/sub channel and dispatches to handlers. It
// runs on its own goroutine (the real firmware's MQTT library likewise
// delivers inbound messages from its own task, outside the main loop).
func (c *Client) listen(ch <-chan *redis.Message) {
	for msg := range ch {
		c.mu.Lock()
		handler, ok := c.handlers[msg.Channel]
		c.mu.Unlock()
		if !ok {
			nodelog.Logger.WithField("topic", msg.Channel).Warn("messaging: unknown topic discarded")
			continue
		}
		handler(msg.Channel, []byte(msg.Payload))
	}
}

// Disconnect tears down the current session. The next Connect call will
// re-subscribe and flush fresh.
func (c *Client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
	if c.pubsub != nil {
		_ = c.pubsub.Close()
	}
	c.connected = false
}

// Publish forwards topic/payload when connected; QoS 1 publishes with no
// receiving subscriber count as a breaker failure (simulated missed ack).
// While disconnected, the message is enqueued to the offline buffer.
func (c *Client) Publish(ctx context.Context, topic string, payload []byte, qos int) error {
	c.mu.Lock()
	connected := c.connected
	c.mu.Unlock()

	if !connected {
		c.enqueueOffline(topic, payload, qos)
		return nil
	}

	return c.publishNow(ctx, topic, payload, qos)
}

func (c *Client) publishNow(ctx context.Context, topic string, payload []byte, qos int) error {
	receivers, err := c.rdb.Publish(ctx, topic, payload).Result()
	if err != nil {
		c.breaker.Failure()
		c.Disconnect()
		return err
	}
	if qos >= QoS1 && receivers == 0 {
		c.breaker.Failure()
		c.Disconnect()
		return errUnacknowledged
	}
	c.breaker.Success()
	return nil
}

func (c *Client) enqueueOffline(topic string, payload []byte, qos int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.offline) >= offlineBufferCapacity {
		if !c.overflowWarned {
			nodelog.Logger.Warn("messaging: offline buffer full, dropping new messages")
			c.overflowWarned = true
		}
		return
	}
	c.offline = append(c.offline, OfflineMessage{
		Topic: topic, Payload: payload, QoS: qos, EnqueuedAt: c.now(),
	})
	c.overflowWarned = false
}

// flush republishes the offline buffer in FIFO order, aborting (leaving
// the remainder queued) on the first failure.
func (c *Client) flush(ctx context.Context) error {
	c.mu.Lock()
	pending := c.offline
	c.mu.Unlock()

	for i, msg := range pending {
		if err := c.publishNow(ctx, msg.Topic, msg.Payload, msg.QoS); err != nil {
			c.mu.Lock()
			c.offline = pending[i:]
			c.mu.Unlock()
			return err
		}
	}

	c.mu.Lock()
	c.offline = nil
	c.mu.Unlock()
	return nil
}

// Tick emits the heartbeat when the interval has elapsed and performs no
// other work; called once per main-loop pass.
func (c *Client) Tick(ctx context.Context) {
	c.mu.Lock()
	due := c.connected && c.now().Sub(c.lastHeartbeat) >= c.heartbeatInterval
	payloadFn := c.heartbeatPayload
	c.mu.Unlock()
	if !due {
		return
	}

	payload := payloadFn()
	if err := c.Publish(ctx, c.heartbeatTopic(), payload, QoS0); err != nil {
		nodelog.Logger.WithError(err).Warn("messaging: heartbeat publish failed")
	}

	c.mu.Lock()
	c.lastHeartbeat = c.now()
	c.mu.Unlock()
}

// heartbeatTopic is set externally once the node/parent identifiers are
// known; see SetHeartbeatTopic.
func (c *Client) heartbeatTopic() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hbTopic
}

// SetHeartbeatTopic installs the concrete heartbeat publish topic (built
// by internal/topic once identifiers are known).
func (c *Client) SetHeartbeatTopic(topic string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hbTopic = topic
}

// OfflineDepth reports the current offline-buffer length, for diagnostics.
func (c *Client) OfflineDepth() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.offline)
}

// BreakerState exposes the underlying circuit breaker's state for the
// health monitor.
func (c *Client) BreakerState() breaker.State {
	return c.breaker.State()
}

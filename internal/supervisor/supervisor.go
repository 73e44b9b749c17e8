// Package supervisor is the boot sequencer and lifecycle state machine. It
// owns construction of every other subsystem in boot order and is the only
// component that may trigger a restart; everything else is reached through
// its Run main loop.
package supervisor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/kaiser-net/nodefw/internal/actuator"
	"github.com/kaiser-net/nodefw/internal/boardprofile"
	"github.com/kaiser-net/nodefw/internal/config"
	"github.com/kaiser-net/nodefw/internal/errtrack"
	"github.com/kaiser-net/nodefw/internal/health"
	"github.com/kaiser-net/nodefw/internal/messaging"
	"github.com/kaiser-net/nodefw/internal/netlink"
	"github.com/kaiser-net/nodefw/internal/nodelog"
	"github.com/kaiser-net/nodefw/internal/pinmgr"
	"github.com/kaiser-net/nodefw/internal/provisioning"
	"github.com/kaiser-net/nodefw/internal/sensor"
	"github.com/kaiser-net/nodefw/internal/store"
	"github.com/kaiser-net/nodefw/internal/topic"
	"github.com/kaiser-net/nodefw/internal/watchdog"
)

// State is one node of the lifecycle state machine.
type State string

const (
	Boot                 State = "BOOT"
	Provisioning         State = "PROVISIONING"
	NetConnecting        State = "NET_CONNECTING"
	NetConnected         State = "NET_CONNECTED"
	BrokerConnecting     State = "BROKER_CONNECTING"
	Operational          State = "OPERATIONAL"
	SafeModeProvisioning State = "SAFE_MODE_PROVISIONING"
	SafeMode             State = "SAFE_MODE"
)

const (
	totalBoardPins        = 40 // ESP32 GPIO space, generous upper bound for both board profiles
	netAssociationTimeout = 10 * time.Second
	maxAssociationRetries = 3
	provisioningHTTPAddr  = ":80"
)

// Config configures a Supervisor at construction.
type Config struct {
	StoreAddr       string
	BoardProfile    *boardprofile.Profile
	HardwareAddress [6]byte
	Restart         func() // stands in for ESP.restart(); required in production, injectable in tests
	Link            netlink.Link
	Now             func() time.Time
}

// Supervisor owns construction and lifecycle of every other subsystem.
type Supervisor struct {
	mu    sync.Mutex
	state State
	now   func() time.Time

	store   *store.Store
	cfg     *config.Manager
	profile *boardprofile.Profile
	pins    *pinmgr.Manager
	errs    *errtrack.Tracker
	link    netlink.Link
	msg     *messaging.Client
	prov    *provisioning.Manager
	sensors *sensor.Manager
	actuators *actuator.Manager
	healthMon *health.Monitor
	wd      *watchdog.Watchdog

	nodeID       string
	zoneID       string
	parentZoneID string
	restart      func()

	netFailures  int
	safeReason   string
	bootAt       time.Time
	provHTTPStop context.CancelFunc
}

// New constructs every subsystem in boot order. It never returns an error:
// a fatal failure to open the persistent store or pin manager is
// represented as an immediate transition into SAFE_MODE rather than a
// failed construction, since the supervisor itself must exist to report
// that condition.
func New(cfg Config) *Supervisor {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	restart := cfg.Restart
	if restart == nil {
		restart = func() { nodelog.Logger.Warn("supervisor: restart requested with no restart hook installed") }
	}
	profile := cfg.BoardProfile
	if profile == nil {
		profile = &boardprofile.Full
	}

	s := &Supervisor{
		state:   Boot,
		now:     now,
		profile: profile,
		restart: restart,
		bootAt:  now(),
		errs:    errtrack.New(),
		wd:      watchdog.New(),
	}

	st, err := store.Open(cfg.StoreAddr)
	if err != nil {
		s.enterSafeMode(fmt.Sprintf("persistent store unavailable: %v", err))
		return s
	}
	s.store = st
	s.cfg = config.New(st, cfg.HardwareAddress)

	var sys config.SystemRecord
	if err := s.cfg.LoadSystem(&sys); err != nil {
		s.enterSafeMode(fmt.Sprintf("system record unreadable: %v", err))
		return s
	}
	s.nodeID = sys.NodeID
	s.safeReason = sys.SafeModeReason

	s.pins = pinmgr.New(profile, totalBoardPins, func(pin int, conv boardprofile.SafeConvention) {
		nodelog.Logger.WithField("pin", pin).WithField("convention", conv).Debug("pin driven to safe state")
	})
	s.pins.DriveAllSafe()

	var zone config.ZoneAssignment
	if err := s.cfg.LoadZone(&zone); err == nil {
		s.zoneID = zone.ZoneID
		s.parentZoneID = zone.ParentZoneID
	}

	s.link = cfg.Link
	if s.link == nil {
		s.link = netlink.NewSimLink(-50)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.StoreAddr})
	s.msg = messaging.New(rdb, s.standingTopics)
	s.msg.SetHeartbeatPayloadFunc(s.heartbeatPayload)

	s.sensors = sensor.New(s.pins, s.errs, profile.MaxSensors, s.nodeID, s.zone, s.publishSensor)
	s.actuators = actuator.New(s.pins, s.errs, profile.MaxActuators, s.nodeID, s.zone, s.publishActuatorStatus)
	s.healthMon = health.NewMonitor()

	var sensorRecords []config.SensorRecord
	if err := s.cfg.LoadSensors(&sensorRecords); err == nil {
		for _, r := range sensorRecords {
			if err := s.sensors.Configure(r); err != nil {
				nodelog.Logger.WithField("pin", r.Pin).WithField("error", err).Warn("skipping persisted sensor at boot")
			}
		}
	}
	var actuatorRecords []config.ActuatorRecord
	if err := s.cfg.LoadActuators(&actuatorRecords); err == nil {
		for _, r := range actuatorRecords {
			if err := s.actuators.Configure(r); err != nil {
				nodelog.Logger.WithField("pin", r.Pin).WithField("error", err).Warn("skipping persisted actuator at boot")
			}
		}
	}

	s.prov = provisioning.New(s.cfg, s.nodeID, nil)

	// Resume stale SAFE_MODE_PROVISIONING only after construction finishes,
	// so the rest of the boot sequence still runs to completion.
	if sys.LifecycleState == string(SafeModeProvisioning) {
		s.state = SafeModeProvisioning
		s.wd.SetMode(watchdog.Provisioning)
		return s
	}

	var net config.NetworkCredentials
	_ = s.cfg.LoadNetwork(&net)
	if !net.Configured || config.ValidateNetwork(net) != nil {
		s.state = Provisioning
	} else {
		s.state = NetConnecting
	}

	return s
}

// State reports the current lifecycle state.
func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// zone is the zoneID accessor handed to sensor/actuator managers; it reads
// live rather than capturing the value at construction time since a zone
// assignment can arrive after boot via the zone/assign topic.
func (s *Supervisor) zone() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zoneID
}

func (s *Supervisor) enterSafeMode(reason string) {
	s.mu.Lock()
	s.state = SafeMode
	s.safeReason = reason
	s.mu.Unlock()
	nodelog.Logger.WithField("reason", reason).Error("supervisor: entering safe mode")
	if s.errs != nil {
		s.errs.Report(1001, errtrack.Critical, reason)
	}
}

// Run drives the cooperative main loop until ctx is cancelled: one pass per
// tick steps the lifecycle state machine and, once operational, ticks
// netlink/messaging/sensor/actuator/health/watchdog exactly once each, never
// blocking on any one subsystem for longer than that subsystem's own work.
func (s *Supervisor) Run(ctx context.Context, tick time.Duration) error {
	if s.State() == SafeMode {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.step(ctx)
		}
	}
}

// step advances the lifecycle state machine by exactly one tick and, while
// operational, runs every subsystem's own per-tick work.
func (s *Supervisor) step(ctx context.Context) {
	switch s.State() {
	case Provisioning:
		s.stepProvisioning(ctx)
	case NetConnecting:
		s.stepNetConnecting(ctx)
	case NetConnected:
		s.stepBrokerConnecting(ctx)
	case BrokerConnecting:
		s.stepBrokerConnecting(ctx)
	case Operational:
		s.stepOperational(ctx)
	case SafeModeProvisioning:
		s.wd.Feed("provisioning-safe-mode")
	case SafeMode:
		// terminal until an operator intervenes externally (factory reset, reflash)
	}
}

func (s *Supervisor) stepProvisioning(ctx context.Context) {
	if s.provHTTPStop == nil {
		s.wd.SetMode(watchdog.Provisioning)
		s.prov.Begin()
		httpCtx, cancel := context.WithCancel(ctx)
		s.provHTTPStop = cancel
		go func() {
			if err := provisioning.Serve(httpCtx, provisioningHTTPAddr, s.prov.Router()); err != nil && httpCtx.Err() == nil {
				nodelog.Logger.WithField("error", err).Warn("provisioning: HTTP server exited")
			}
		}()
	}

	s.prov.Tick()
	s.wd.Feed("provisioning")

	select {
	case <-s.prov.RebootRequested():
		s.finishProvisioning()
	default:
	}

	if s.prov.State() == provisioning.Timeout {
		s.mu.Lock()
		s.state = SafeModeProvisioning
		s.mu.Unlock()
		s.persistLifecycle(SafeModeProvisioning, "provisioning retries exhausted")
	}
}

// finishProvisioning clears a stale SAFE_MODE_PROVISIONING reason before
// reboot: a node that was in safe mode when it received config must not
// boot back into it.
func (s *Supervisor) finishProvisioning() {
	var sys config.SystemRecord
	_ = s.cfg.LoadSystem(&sys)
	sys.SafeModeReason = ""
	sys.LifecycleState = string(Boot)
	_ = s.cfg.SaveSystem(sys)

	if s.provHTTPStop != nil {
		s.provHTTPStop()
		s.provHTTPStop = nil
	}
	s.restart()
}

func (s *Supervisor) stepNetConnecting(ctx context.Context) {
	var net config.NetworkCredentials
	_ = s.cfg.LoadNetwork(&net)

	err := netlink.ConnectWithTimeout(ctx, s.link, net.SSID, net.Passphrase, netAssociationTimeout)
	s.wd.Feed("netlink")
	if err != nil {
		s.netFailures++
		if s.netFailures >= maxAssociationRetries {
			s.mu.Lock()
			s.state = Provisioning
			s.mu.Unlock()
			s.netFailures = 0
			nodelog.Logger.Warn("supervisor: association failed three times, credentials assumed stale")
		}
		return
	}
	s.netFailures = 0
	s.mu.Lock()
	s.state = NetConnected
	s.mu.Unlock()
}

func (s *Supervisor) stepBrokerConnecting(ctx context.Context) {
	s.mu.Lock()
	s.state = BrokerConnecting
	s.mu.Unlock()

	if err := s.msg.Connect(ctx); err != nil {
		if !s.link.Connected() {
			s.mu.Lock()
			s.state = NetConnecting
			s.mu.Unlock()
		}
		return
	}

	s.errs.SetMirror(func(rec errtrack.Record) {
		_ = s.msg.Publish(ctx, topic.SystemError(s.parentZoneID, s.nodeID), []byte(rec.Message), messaging.QoS0)
	})
	s.subscribeCommandTopics()
	s.wd.SetMode(watchdog.Production)
	s.mu.Lock()
	s.state = Operational
	s.mu.Unlock()
}

func (s *Supervisor) stepOperational(ctx context.Context) {
	s.wd.Feed("main-loop")

	if !s.link.Connected() {
		s.mu.Lock()
		s.state = NetConnecting
		s.mu.Unlock()
		s.errs.SetMirror(nil)
		return
	}
	if !s.msg.Connected() {
		if err := s.msg.Connect(ctx); err != nil {
			return
		}
	}

	s.sensors.SampleAll()
	s.actuators.Tick()
	s.msg.Tick(ctx)

	var activeSensors, activeActuators int
	for _, r := range s.pins.Reserved() {
		switch r.Owner {
		case pinmgr.KindSensor:
			activeSensors++
		case pinmgr.KindActuator:
			activeActuators++
		}
	}

	view := health.NodeView{
		Uptime:           s.now().Sub(s.bootAt),
		HeapFreeBytes:    256 * 1024, // host process has no bounded heap; a nominal figure keeps the band check meaningful
		HeapMinFreeBytes: 1,
		LinkConnected:    s.link.Connected(),
		SignalDBm:        s.link.RSSI(),
		BrokerConnected:  s.msg.Connected(),
		ActiveSensors:    activeSensors,
		ActiveActuators:  activeActuators,
		LifecycleState:   string(s.State()),
		ErrorCount:       s.errs.Count(),
		Watchdog:         s.wd.Snapshot(),
	}
	if report, due := s.healthMon.Tick(ctx, view); due {
		_ = s.msg.Publish(ctx, topic.SystemDiagnostics(s.parentZoneID, s.nodeID), diagnosticsPayload(report), messaging.QoS0)
	}
}

func (s *Supervisor) subscribeCommandTopics() {
	for _, r := range s.pins.Reserved() {
		if r.Owner != pinmgr.KindActuator {
			continue
		}
		pin := r.Pin
		s.msg.Subscribe(topic.ActuatorCommand(s.parentZoneID, s.nodeID, pin), func(_ string, payload []byte) {
			s.handleActuatorCommand(pin, payload)
		})
	}
	s.msg.Subscribe(topic.ZoneAssign(s.parentZoneID, s.nodeID), s.handleZoneAssign)
	s.msg.Subscribe(topic.Config(s.parentZoneID, s.nodeID), s.handleConfigPush)
	s.msg.Subscribe(topic.SystemCommand(s.parentZoneID, s.nodeID), s.handleSystemCommand)
	s.msg.Subscribe(topic.Broadcast, s.handleBroadcastEmergency)
}

func (s *Supervisor) handleZoneAssign(_ string, payload []byte) {
	nodelog.Logger.WithField("payload", string(payload)).Info("zone assignment received")
}

func (s *Supervisor) handleConfigPush(_ string, payload []byte) {
	nodelog.Logger.WithField("payload", string(payload)).Info("config push received")
}

func (s *Supervisor) handleSystemCommand(_ string, payload []byte) {
	nodelog.Logger.WithField("payload", string(payload)).Info("system command received")
}

func (s *Supervisor) handleBroadcastEmergency(_ string, payload []byte) {
	s.actuators.EmergencyStopAll("broadcast emergency: " + string(payload))
}

func (s *Supervisor) standingTopics() []string {
	pins := make([]int, 0)
	for _, r := range s.pins.Reserved() {
		if r.Owner == pinmgr.KindActuator {
			pins = append(pins, r.Pin)
		}
	}
	return topic.StandingSubscriptions(s.parentZoneID, s.nodeID, pins)
}

func (s *Supervisor) heartbeatPayload() []byte {
	return []byte(fmt.Sprintf(`{"esp_id":%q,"uptime_s":%d}`, s.nodeID, int64(s.now().Sub(s.bootAt).Seconds())))
}

func (s *Supervisor) publishSensor(p sensor.Payload) {
	_ = s.msg.Publish(context.Background(), topic.SensorData(s.parentZoneID, s.nodeID, p.GPIO), marshalOrEmpty(p), messaging.QoS0)
}

func (s *Supervisor) publishActuatorStatus(pin int, p actuator.StatusPayload) {
	_ = s.msg.Publish(context.Background(), topic.ActuatorStatus(s.parentZoneID, s.nodeID, pin), marshalOrEmpty(p), messaging.QoS1)
}

func (s *Supervisor) persistLifecycle(state State, reason string) {
	var sys config.SystemRecord
	_ = s.cfg.LoadSystem(&sys)
	sys.LifecycleState = string(state)
	sys.SafeModeReason = reason
	_ = s.cfg.SaveSystem(sys)
}

// Sensors exposes the sensor registry for nodectl-style external callers.
func (s *Supervisor) Sensors() *sensor.Manager { return s.sensors }

// Actuators exposes the actuator registry for nodectl-style external callers.
func (s *Supervisor) Actuators() *actuator.Manager { return s.actuators }

// Errors exposes the error tracker for nodectl-style external callers.
func (s *Supervisor) Errors() *errtrack.Tracker { return s.errs }

// NodeID reports the node's derived identifier.
func (s *Supervisor) NodeID() string { return s.nodeID }

// Close disconnects the messaging session and releases the store
// connection; the messaging client's own redis client is not closed here.
func (s *Supervisor) Close() error {
	if s.msg != nil {
		s.msg.Disconnect()
	}
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

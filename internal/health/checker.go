// Package health is the periodic diagnostic snapshot and change-triggered
// emitter: a set of Check probes over a NodeView snapshot, aggregated into
// a Report via a Status enum and a Checker runner.
package health

import (
	"context"
	"fmt"
	"time"

	"github.com/kaiser-net/nodefw/internal/watchdog"
)

// Status ranks a check's outcome from ok through critical.
type Status string

const (
	StatusOK       Status = "ok"
	StatusWarning  Status = "warning"
	StatusCritical Status = "critical"
	StatusUnknown  Status = "unknown"
)

// Result is one check's outcome.
type Result struct {
	Check     string
	Status    Status
	Message   string
	Details   interface{}
	Duration  time.Duration
	Timestamp time.Time
}

// Report aggregates every check's Result for one run.
type Report struct {
	Timestamp time.Time
	Overall   Status
	Results   []Result
	Duration  time.Duration
}

// NodeView is the read-only snapshot of node state checks examine.
type NodeView struct {
	Uptime           time.Duration
	HeapFreeBytes    uint32
	HeapMinFreeBytes uint32
	HeapFragPercent  int
	ErrorCount       int
	LinkConnected    bool
	SignalDBm        int
	BrokerConnected  bool
	ActiveSensors    int
	ActiveActuators  int
	LifecycleState   string
	Watchdog         watchdog.Snapshot
}

// Check is one diagnostic probe.
type Check interface {
	Name() string
	Run(ctx context.Context, v NodeView) Result
}

// Checker runs the full set of checks and aggregates a Report.
type Checker struct {
	checks []Check
	now    func() time.Time
}

// NewChecker builds the default check set, one per NodeView field group.
func NewChecker() *Checker {
	return &Checker{
		checks: []Check{
			HeapCheck{},
			LinkCheck{},
			BrokerCheck{},
			SensorCheck{},
			ActuatorCheck{},
			WatchdogCheck{},
			LifecycleCheck{},
		},
		now: time.Now,
	}
}

// Run executes every check and aggregates the worst status as Overall.
func (c *Checker) Run(ctx context.Context, v NodeView) *Report {
	start := c.now()
	report := &Report{Timestamp: start, Overall: StatusOK, Results: make([]Result, 0, len(c.checks))}

	for _, check := range c.checks {
		result := check.Run(ctx, v)
		report.Results = append(report.Results, result)
		report.Overall = worst(report.Overall, result.Status)
	}

	report.Duration = c.now().Sub(start)
	return report
}

func worst(a, b Status) Status {
	rank := map[Status]int{StatusOK: 0, StatusUnknown: 1, StatusWarning: 2, StatusCritical: 3}
	if rank[b] > rank[a] {
		return b
	}
	return a
}

// HeapCheck flags low free heap or high fragmentation.
type HeapCheck struct{}

func (HeapCheck) Name() string { return "heap" }

func (HeapCheck) Run(ctx context.Context, v NodeView) Result {
	r := Result{Check: "heap", Timestamp: time.Now(), Details: map[string]uint32{
		"free": v.HeapFreeBytes, "min_free": v.HeapMinFreeBytes,
	}}
	switch {
	case v.HeapMinFreeBytes == 0:
		r.Status = StatusUnknown
		r.Message = "heap telemetry unavailable"
	case v.HeapFragPercent > 50:
		r.Status = StatusCritical
		r.Message = fmt.Sprintf("heap fragmentation at %d%%", v.HeapFragPercent)
	case v.HeapFragPercent > 20:
		r.Status = StatusWarning
		r.Message = fmt.Sprintf("heap fragmentation at %d%%", v.HeapFragPercent)
	default:
		r.Status = StatusOK
		r.Message = fmt.Sprintf("%d bytes free", v.HeapFreeBytes)
	}
	return r
}

// LinkCheck flags loss of Wi-Fi association.
type LinkCheck struct{}

func (LinkCheck) Name() string { return "link" }

func (LinkCheck) Run(ctx context.Context, v NodeView) Result {
	r := Result{Check: "link", Timestamp: time.Now(), Details: map[string]int{"rssi": v.SignalDBm}}
	if !v.LinkConnected {
		r.Status = StatusCritical
		r.Message = "not associated"
		return r
	}
	if v.SignalDBm < -80 {
		r.Status = StatusWarning
		r.Message = fmt.Sprintf("weak signal %d dBm", v.SignalDBm)
		return r
	}
	r.Status = StatusOK
	r.Message = fmt.Sprintf("associated, %d dBm", v.SignalDBm)
	return r
}

// BrokerCheck flags loss of the messaging session.
type BrokerCheck struct{}

func (BrokerCheck) Name() string { return "broker" }

func (BrokerCheck) Run(ctx context.Context, v NodeView) Result {
	r := Result{Check: "broker", Timestamp: time.Now()}
	if v.BrokerConnected {
		r.Status = StatusOK
		r.Message = "connected"
	} else {
		r.Status = StatusCritical
		r.Message = "disconnected"
	}
	return r
}

// SensorCheck reports the active sensor count.
type SensorCheck struct{}

func (SensorCheck) Name() string { return "sensors" }

func (SensorCheck) Run(ctx context.Context, v NodeView) Result {
	return Result{
		Check: "sensors", Timestamp: time.Now(), Status: StatusOK,
		Message: fmt.Sprintf("%d active", v.ActiveSensors),
		Details: map[string]int{"active": v.ActiveSensors},
	}
}

// ActuatorCheck reports the active actuator count.
type ActuatorCheck struct{}

func (ActuatorCheck) Name() string { return "actuators" }

func (ActuatorCheck) Run(ctx context.Context, v NodeView) Result {
	return Result{
		Check: "actuators", Timestamp: time.Now(), Status: StatusOK,
		Message: fmt.Sprintf("%d active", v.ActiveActuators),
		Details: map[string]int{"active": v.ActiveActuators},
	}
}

// WatchdogCheck flags a recent rolling-24h timeout count.
type WatchdogCheck struct{}

func (WatchdogCheck) Name() string { return "watchdog" }

func (WatchdogCheck) Run(ctx context.Context, v NodeView) Result {
	r := Result{Check: "watchdog", Timestamp: time.Now(), Details: v.Watchdog}
	if v.Watchdog.TimeoutCount24h > 0 {
		r.Status = StatusWarning
		r.Message = fmt.Sprintf("%d watchdog timeouts in 24h", v.Watchdog.TimeoutCount24h)
		return r
	}
	r.Status = StatusOK
	r.Message = fmt.Sprintf("fed %d times, last by %s", v.Watchdog.FeedCount, v.Watchdog.LastFeedBy)
	return r
}

// LifecycleCheck surfaces the supervisor's current state for observability.
type LifecycleCheck struct{}

func (LifecycleCheck) Name() string { return "lifecycle" }

func (LifecycleCheck) Run(ctx context.Context, v NodeView) Result {
	status := StatusOK
	if v.LifecycleState == "SAFE_MODE" || v.LifecycleState == "SAFE_MODE_PROVISIONING" {
		status = StatusCritical
	}
	return Result{Check: "lifecycle", Timestamp: time.Now(), Status: status, Message: v.LifecycleState}
}

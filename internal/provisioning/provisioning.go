// Package provisioning implements the state machine and HTTP intake server
// run when persistent network credentials are absent or invalid. The
// access point and DNS captive-portal trap are simulated — full
// captive-portal HTML/JS is out of scope for a host-process simulator — so
// APSimulator tracks only the state a real SoftAP would expose (active,
// client count) and the HTTP router serves a minimal machine-renderable
// form instead of a browser-facing captive-portal UI.
package provisioning

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kaiser-net/nodefw/internal/config"
	"github.com/kaiser-net/nodefw/internal/nodelog"
)

// State is one of the provisioning state machine's states.
type State string

const (
	Idle            State = "IDLE"
	APActive        State = "AP_ACTIVE"
	WaitingConfig   State = "WAITING_CONFIG"
	ConfigReceived  State = "CONFIG_RECEIVED"
	Complete        State = "COMPLETE"
	Timeout         State = "TIMEOUT"
	Error           State = "ERROR"
)

const (
	apPassphrase  = "provision"
	apChannel     = 1
	apMaxClients  = 2
	attemptWindow = 10 * time.Minute
	maxRetries    = 3
	reconnectWait = 2 * time.Second
)

// Pattern names an LED signaling pattern the supervisor may wire to a real
// driver; provisioning only names the pattern, it never drives hardware.
type Pattern string

const (
	PatternProvisioning Pattern = "provisioning"
	PatternSafeMode     Pattern = "safe-mode"
)

// APSimulator stands in for the ESP32 SoftAP + DNS captive-portal trap.
type APSimulator struct {
	mu      sync.Mutex
	active  bool
	ssid    string
	clients int
}

// NewAPSimulator names the AP SSID as AutoOne-<node-id>.
func NewAPSimulator(nodeID string) *APSimulator {
	return &APSimulator{ssid: "AutoOne-" + nodeID}
}

func (a *APSimulator) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.active = true
}

func (a *APSimulator) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.active = false
	a.clients = 0
}

func (a *APSimulator) Active() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}

func (a *APSimulator) SSID() string {
	return a.ssid
}

// IntakeRequest is the POST /provision JSON body.
type IntakeRequest struct {
	SSID          string `json:"ssid"`
	Password      string `json:"password"`
	ServerAddress string `json:"server_address"`
	MQTTPort      uint16 `json:"mqtt_port"`
	MQTTUsername  string `json:"mqtt_username"`
	MQTTPassword  string `json:"mqtt_password"`
	KaiserID      string `json:"kaiser_id"`
	ZoneName      string `json:"zone_name"`
	MasterZoneID  string `json:"master_zone_id"`
}

// intakeResult is the POST /provision and /reset JSON response envelope.
type intakeResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	ESPID     string `json:"esp_id,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// Manager drives the provisioning state machine and HTTP intake server.
type Manager struct {
	mu            sync.Mutex
	state         State
	attempts      int
	startedAt     time.Time
	config        *config.Manager
	ap            *APSimulator
	nodeID        string
	ledPattern    func(Pattern)
	rebootRequested chan struct{}
	rebootOnce    sync.Once
	now           func() time.Time
}

// New creates a provisioning manager for the given node identifier.
func New(cfg *config.Manager, nodeID string, ledPattern func(Pattern)) *Manager {
	if ledPattern == nil {
		ledPattern = func(Pattern) {}
	}
	return &Manager{
		state:           Idle,
		config:          cfg,
		ap:              NewAPSimulator(nodeID),
		nodeID:          nodeID,
		ledPattern:      ledPattern,
		rebootRequested: make(chan struct{}),
		now:             time.Now,
	}
}

// State reports the current provisioning state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// RebootRequested closes once a successful intake has completed its 2s
// delay; the supervisor selects on it to trigger a restart.
func (m *Manager) RebootRequested() <-chan struct{} {
	return m.rebootRequested
}

// Begin enters AP_ACTIVE, bringing up the simulated access point.
func (m *Manager) Begin() {
	m.mu.Lock()
	m.state = APActive
	m.attempts++
	m.startedAt = m.now()
	m.mu.Unlock()

	m.ap.Start()
	m.ledPattern(PatternProvisioning)

	m.mu.Lock()
	m.state = WaitingConfig
	m.mu.Unlock()
}

// Tick checks for attempt timeout; called once per main-loop pass.
func (m *Manager) Tick() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != WaitingConfig {
		return
	}
	if m.now().Sub(m.startedAt) < attemptWindow {
		return
	}
	if m.attempts >= maxRetries {
		m.state = Timeout
		m.ledPattern(PatternSafeMode)
		return
	}
	m.state = Idle
}

// Router builds the go-chi HTTP router serving the four provisioning
// endpoints.
func (m *Manager) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/", m.handleLanding)
	r.Post("/provision", m.handleProvision)
	r.Get("/status", m.handleStatus)
	r.Post("/reset", m.handleReset)
	return r
}

func (m *Manager) handleLanding(w http.ResponseWriter, r *http.Request) {
	var net config.NetworkCredentials
	_ = m.config.LoadNetwork(&net)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(`<html><body><form method="POST" action="/provision">` +
		`SSID: <input name="ssid" value="` + net.SSID + `"><br>` +
		`Password: <input name="password" type="password"><br>` +
		`Server: <input name="server_address" value="` + net.BrokerHost + `"><br>` +
		`<button type="submit">Provision</button></form></body></html>`))
}

func (m *Manager) handleProvision(w http.ResponseWriter, r *http.Request) {
	var req IntakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, intakeResult{Success: false, Error: "BAD_REQUEST", Message: err.Error()})
		return
	}

	creds := config.NetworkCredentials{
		SSID:       req.SSID,
		Passphrase: req.Password,
		BrokerHost: req.ServerAddress,
		BrokerPort: req.MQTTPort,
		BrokerUser: req.MQTTUsername,
		BrokerPass: req.MQTTPassword,
		Configured: true,
	}
	if err := m.config.SaveNetwork(creds); err != nil {
		writeJSON(w, http.StatusBadRequest, intakeResult{Success: false, Error: "VALIDATION_FAILED", Message: err.Error()})
		return
	}

	if req.ZoneName != "" || req.MasterZoneID != "" {
		zone := config.ZoneAssignment{ZoneName: req.ZoneName, ParentZoneID: req.MasterZoneID, Assigned: req.ZoneName != ""}
		_ = m.config.SaveZone(zone)
	}

	var sys config.SystemRecord
	_ = m.config.LoadSystem(&sys)
	sys.SafeModeReason = ""
	sys.BootCount = 0
	_ = m.config.SaveSystem(sys)

	m.mu.Lock()
	m.state = ConfigReceived
	m.mu.Unlock()

	writeJSON(w, http.StatusOK, intakeResult{
		Success: true, Message: "provisioned", ESPID: m.nodeID, Timestamp: m.now().Unix(),
	})

	go func() {
		time.Sleep(reconnectWait)
		m.mu.Lock()
		m.state = Complete
		m.mu.Unlock()
		m.rebootOnce.Do(func() { close(m.rebootRequested) })
	}()
}

func (m *Manager) handleStatus(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	state := m.state
	m.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"esp_id":  m.nodeID,
		"state":   state,
		"ap_ssid": m.ap.SSID(),
	})
}

func (m *Manager) handleReset(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Confirm bool `json:"confirm"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || !body.Confirm {
		writeJSON(w, http.StatusBadRequest, intakeResult{Success: false, Error: "CONFIRM_REQUIRED"})
		return
	}

	if err := m.config.Reset(); err != nil {
		writeJSON(w, http.StatusInternalServerError, intakeResult{Success: false, Error: "RESET_FAILED", Message: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, intakeResult{Success: true, Message: "factory reset"})
	nodelog.Logger.Warn("provisioning: factory reset requested via HTTP")

	go func() {
		time.Sleep(reconnectWait)
		m.rebootOnce.Do(func() { close(m.rebootRequested) })
	}()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Serve runs the HTTP intake server until ctx is cancelled.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: handler}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

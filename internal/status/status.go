// Package status provides a thread-safe status tracker for the ap-led
// daemon. It is read by HTTP handlers and feeds the MQTT system payloads.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/ap-led/internal/logic"
	"github.com/sweeney/ap-led/internal/wifi"
)

// Config contains daemon configuration for display.
type Config struct {
	ListenAddr      string
	QuantumMs       int64
	StatePeriod     uint32
	IndicatorPeriod uint32
	HeartbeatPeriod uint32
	TickWrapLimit   uint32
	IdleTimeoutS    int64
	Iface           string
	Broker          string
	HTTPAddr        string
	WSBroker        string // Websocket broker URL for browser MQTT (empty = disabled)
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Level         logic.Level
	Stations      int
	Sessions      int
	Ticks         uint32
	LastCommand   *logic.Command
	Counts        logic.Counts
	ListenerUp    bool
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *wifi.NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Level:     logic.LevelDisconnected,
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets the connectivity view and event counts.
// Called from the run loop after every tick and network event.
func (t *Tracker) Update(level logic.Level, stations, sessions int, ticks uint32, counts logic.Counts) {
	t.mu.Lock()
	t.snap.Level = level
	t.snap.Stations = stations
	t.snap.Sessions = sessions
	t.snap.Ticks = ticks
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetLastCommand records the most recent decoded command.
func (t *Tracker) SetLastCommand(cmd logic.Command) {
	t.mu.Lock()
	t.snap.LastCommand = &cmd
	t.mu.Unlock()
}

// SetListenerUp sets whether the TCP listener is armed.
func (t *Tracker) SetListenerUp(up bool) {
	t.mu.Lock()
	t.snap.ListenerUp = up
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the AP network info.
func (t *Tracker) SetNetwork(info *wifi.NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}

package status

import (
	"encoding/json"
	"fmt"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Level         string       `json:"level"`
	Stations      int          `json:"stations"`
	Sessions      int          `json:"open_sessions"`
	Ticks         uint32       `json:"ticks"`
	LastCommand   *CommandJSON `json:"last_command,omitempty"`
	ListenerUp    bool         `json:"listener_up"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"event_counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// CommandJSON is the JSON representation of the last decoded command.
type CommandJSON struct {
	Digit   int    `json:"digit"`
	Pattern string `json:"pattern"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Accepted     int `json:"accepted"`
	Disconnected int `json:"disconnected"`
	Reconnected  int `json:"reconnected"`
	Commands     int `json:"commands"`
	Ignored      int `json:"ignored"`
}

// NetworkJSON is the JSON representation of AP network info.
type NetworkJSON struct {
	SSID    string `json:"ssid"`
	IP      string `json:"ip"`
	Channel string `json:"channel"`
	Status  string `json:"status"`
	Gateway string `json:"gateway"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	ListenAddr      string `json:"listen_addr"`
	QuantumMs       int64  `json:"quantum_ms"`
	StatePeriod     uint32 `json:"state_period_ticks"`
	IndicatorPeriod uint32 `json:"indicator_period_ticks"`
	HeartbeatPeriod uint32 `json:"heartbeat_period_ticks"`
	TickWrapLimit   uint32 `json:"tick_wrap_limit"`
	IdleTimeoutS    int64  `json:"idle_timeout_s"`
	Iface           string `json:"iface"`
	Broker          string `json:"broker"`
	HTTPAddr        string `json:"http_addr"`
	WSBroker        string `json:"ws_broker,omitempty"`
}

func buildInner(snap Snapshot) StatusInner {
	inner := StatusInner{
		Level:         string(snap.Level),
		Stations:      snap.Stations,
		Sessions:      snap.Sessions,
		Ticks:         snap.Ticks,
		ListenerUp:    snap.ListenerUp,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Accepted:     snap.Counts.Accepted,
			Disconnected: snap.Counts.Disconnected,
			Reconnected:  snap.Counts.Reconnected,
			Commands:     snap.Counts.Commands,
			Ignored:      snap.Counts.Ignored,
		},
		Config: ConfigJSON{
			ListenAddr:      snap.Config.ListenAddr,
			QuantumMs:       snap.Config.QuantumMs,
			StatePeriod:     snap.Config.StatePeriod,
			IndicatorPeriod: snap.Config.IndicatorPeriod,
			HeartbeatPeriod: snap.Config.HeartbeatPeriod,
			TickWrapLimit:   snap.Config.TickWrapLimit,
			IdleTimeoutS:    snap.Config.IdleTimeoutS,
			Iface:           snap.Config.Iface,
			Broker:          snap.Config.Broker,
			HTTPAddr:        snap.Config.HTTPAddr,
			WSBroker:        snap.Config.WSBroker,
		},
	}

	if snap.LastCommand != nil {
		inner.LastCommand = &CommandJSON{
			Digit:   snap.LastCommand.Digit,
			Pattern: fmt.Sprintf("%03b", snap.LastCommand.Pattern),
		}
	}
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			SSID:    snap.Network.SSID,
			IP:      snap.Network.IP,
			Channel: snap.Network.Channel,
			Status:  snap.Network.Status,
			Gateway: snap.Network.Gateway,
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}

// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sweeney/ap-led/internal/logic"
)

// Topic is the MQTT topic for connectivity and command events.
const Topic = "home/ap-led/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "home/ap-led/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a connectivity or command event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (startup, shutdown,
// heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	AP APPayload `json:"ap"`
}

// APPayload contains the event details.
type APPayload struct {
	Timestamp string          `json:"timestamp"`
	Event     string          `json:"event"`
	Level     string          `json:"level"`
	Stations  int             `json:"stations"`
	Sessions  int             `json:"open_sessions"`
	Session   string          `json:"session,omitempty"`
	Command   *CommandPayload `json:"command,omitempty"`
}

// CommandPayload describes a decoded actuator command.
type CommandPayload struct {
	Digit   int    `json:"digit"`
	Pattern string `json:"pattern"`
}

// FormatPayload creates the JSON payload for a connectivity or command
// event.
func FormatPayload(event logic.Event) ([]byte, error) {
	payload := Payload{
		AP: APPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(event.Type),
			Level:     string(event.Level),
			Stations:  event.Stations,
			Sessions:  event.Sessions,
			Session:   event.Session,
		},
	}
	if event.Command != nil {
		payload.AP.Command = &CommandPayload{
			Digit:   event.Command.Digit,
			Pattern: fmt.Sprintf("%03b", event.Command.Pattern),
		}
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events that
// don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full
// status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

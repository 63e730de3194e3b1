// Package logic contains the pure state machines of the AP LED controller:
// connectivity derivation, command decoding, and the tick dispatcher.
// This package has NO external dependencies (no GPIO, network, OS, or
// time.Sleep). Time enters only as time.Time values carried on events.
package logic

import "time"

// Level represents the derived connectivity level.
type Level string

const (
	LevelDisconnected   Level = "DISCONNECTED"
	LevelWifiAssociated Level = "WIFI_ASSOCIATED"
	LevelSocketOpen     Level = "SOCKET_OPEN"
)

// PinCommand is an instruction for the status indicator LED.
type PinCommand string

const (
	PinOn     PinCommand = "ON"
	PinOff    PinCommand = "OFF"
	PinToggle PinCommand = "TOGGLE"
)

// Pattern is a raw 3-bit actuator value, one bit per LED line. The lines
// are wired active-low: a 0 bit lights the LED, a 1 bit extinguishes it.
type Pattern uint8

// NetEventType classifies a transport event.
type NetEventType string

const (
	NetAccepted     NetEventType = "ACCEPTED"
	NetReceived     NetEventType = "RECEIVED"
	NetDisconnected NetEventType = "DISCONNECTED"
	NetReconnected  NetEventType = "RECONNECTED"
)

// NetEvent is a single transport event delivered to the controller.
type NetEvent struct {
	Type    NetEventType
	Session string // transport session ID, for logging and event payloads
	Payload []byte // RECEIVED only
	Err     error  // RECONNECTED only: the I/O error that aborted the session
	Time    time.Time
}

// Command is a decoded actuator command.
type Command struct {
	Digit   int
	Pattern Pattern
}

// EventType classifies an event emitted by the controller for publication.
type EventType string

const (
	EventLevelChanged EventType = "LEVEL_CHANGED"
	EventCommand      EventType = "COMMAND"
)

// Event is emitted by the controller and published to MQTT.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Level     Level
	Stations  int
	Sessions  int
	Session   string   // COMMAND only: originating transport session
	Command   *Command // COMMAND only
}

// Counts tracks event totals since startup.
type Counts struct {
	Accepted     int
	Disconnected int
	Reconnected  int
	Commands     int
	Ignored      int
}

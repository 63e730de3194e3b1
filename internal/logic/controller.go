package logic

import "time"

// Config holds the dispatcher periods, all in ticks. The wall-clock length
// of a tick is the caller's ticker quantum, not known to this package.
type Config struct {
	StateRefreshPeriod     uint32
	IndicatorRefreshPeriod uint32
	HeartbeatPeriod        uint32 // 0 disables heartbeats
	TickWrapLimit          uint32
}

// DefaultConfig matches the production deployment at a 100 ms quantum:
// connectivity refresh every 5 s, indicator refresh every 500 ms,
// heartbeat every 15 min, counter wrap at one million ticks.
func DefaultConfig() Config {
	return Config{
		StateRefreshPeriod:     50,
		IndicatorRefreshPeriod: 5,
		HeartbeatPeriod:        9000,
		TickWrapLimit:          1_000_000,
	}
}

// DeriveLevel maps the current station and open-session counts to a
// connectivity level. Rules in priority order: no stations means
// disconnected regardless of the session count.
func DeriveLevel(stations, sessions int) Level {
	if stations == 0 {
		return LevelDisconnected
	}
	if sessions > 0 {
		return LevelSocketOpen
	}
	return LevelWifiAssociated
}

// RefreshIndicator converts a level into an indicator instruction and
// updates the blink phase: solid on while a socket is open, a 50% duty
// blink while only Wi-Fi is associated, solid off otherwise. Phase carries
// meaning only across consecutive WifiAssociated refreshes; the solid
// levels overwrite it with the driven value.
func RefreshIndicator(level Level, phase *bool) PinCommand {
	switch level {
	case LevelSocketOpen:
		*phase = true
		return PinOn
	case LevelWifiAssociated:
		*phase = !*phase
		return PinToggle
	default:
		*phase = false
		return PinOff
	}
}

// Controller owns every mutable cell of the core: the open-session count,
// the tick counter, the connectivity level and the indicator phase. It is
// not safe for concurrent use; the run loop serializes all network events
// and ticks onto a single goroutine.
type Controller struct {
	cfg Config

	tick         uint32
	sessions     int
	level        Level
	prevStations int
	indicatorOn  bool
	counts       Counts
}

// NewController creates a controller in the disconnected state.
func NewController(cfg Config) *Controller {
	return &Controller{cfg: cfg, level: LevelDisconnected}
}

// HandleNet applies one transport event and returns any events to publish.
// A RECEIVED payload that decodes to a command is returned as a COMMAND
// event; the caller performs the actuator write. A RECONNECTED event
// deliberately leaves the session count alone: a session torn down by an
// I/O error stays counted until the station count drops to zero and the
// count is clamped. Changing this would change the observed connectivity
// levels, so the drift stays.
func (c *Controller) HandleNet(ev NetEvent) []Event {
	switch ev.Type {
	case NetAccepted:
		c.sessions++
		c.counts.Accepted++
	case NetDisconnected:
		if c.sessions > 0 {
			c.sessions--
		}
		c.counts.Disconnected++
	case NetReconnected:
		c.counts.Reconnected++
	case NetReceived:
		cmd, ok := Decode(ev.Payload)
		if !ok {
			c.counts.Ignored++
			return nil
		}
		c.counts.Commands++
		return []Event{{
			Timestamp: ev.Time,
			Type:      EventCommand,
			Level:     c.level,
			Stations:  c.prevStations,
			Sessions:  c.sessions,
			Session:   ev.Session,
			Command:   &cmd,
		}}
	}
	return nil
}

// TickResult reports what one quantum produced.
type TickResult struct {
	StationsChanged bool
	LevelChanged    bool
	Indicator       PinCommand // empty when the indicator phase did not fire
	IndicatorOn     bool       // logical LED value to drive when Indicator is set
	Heartbeat       bool
	Events          []Event
}

// Tick advances the dispatcher by one quantum. Within a single quantum the
// state refresh is evaluated before the indicator refresh, so a level
// change is visible to the indicator in the same tick it occurs. The
// counter wraps to zero at the configured limit; phases are modulo-based,
// so the wrap itself never skips or doubles a refresh.
func (c *Controller) Tick(now time.Time, stations int) TickResult {
	var res TickResult

	if c.tick%c.cfg.StateRefreshPeriod == 0 {
		if stations != c.prevStations {
			res.StationsChanged = true
			c.prevStations = stations
		}
		level := DeriveLevel(stations, c.sessions)
		if stations == 0 {
			// Clamp against drift from sessions that never delivered a
			// disconnect (see HandleNet).
			c.sessions = 0
		}
		if level != c.level {
			c.level = level
			res.LevelChanged = true
			res.Events = append(res.Events, Event{
				Timestamp: now,
				Type:      EventLevelChanged,
				Level:     level,
				Stations:  stations,
				Sessions:  c.sessions,
			})
		}
	}

	if c.tick%c.cfg.IndicatorRefreshPeriod == 0 {
		res.Indicator = RefreshIndicator(c.level, &c.indicatorOn)
		res.IndicatorOn = c.indicatorOn
	}

	if c.cfg.HeartbeatPeriod > 0 && c.tick != 0 && c.tick%c.cfg.HeartbeatPeriod == 0 {
		res.Heartbeat = true
	}

	c.tick++
	if c.tick >= c.cfg.TickWrapLimit {
		c.tick = 0
	}
	return res
}

// Level returns the current connectivity level.
func (c *Controller) Level() Level { return c.level }

// Sessions returns the current open-session count.
func (c *Controller) Sessions() int { return c.sessions }

// Stations returns the last observed station count.
func (c *Controller) Stations() int { return c.prevStations }

// TickCount returns the current tick counter value.
func (c *Controller) TickCount() uint32 { return c.tick }

// CountsSnapshot returns a copy of the event totals.
func (c *Controller) CountsSnapshot() Counts { return c.counts }

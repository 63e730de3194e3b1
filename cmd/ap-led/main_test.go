package main

import (
	"errors"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/sweeney/ap-led/internal/gpio"
	"github.com/sweeney/ap-led/internal/logic"
	"github.com/sweeney/ap-led/internal/mqtt"
	"github.com/sweeney/ap-led/internal/status"
	"github.com/sweeney/ap-led/internal/wifi"
)

// loopHarness drives runLoop in a background goroutine. Every channel is
// unbuffered so a completed send means the loop has picked the value up;
// fakes are only inspected after stop() has confirmed the loop returned.
type loopHarness struct {
	panel     *gpio.FakePanel
	publisher *mqtt.FakePublisher
	tracker   *status.Tracker
	ctrl      *logic.Controller

	tick   chan time.Time
	events chan logic.NetEvent
	sig    chan os.Signal
	done   chan error
}

func startLoop(t *testing.T, cfg logic.Config, stations wifi.Counter) *loopHarness {
	t.Helper()

	h := &loopHarness{
		panel:     gpio.NewFakePanel(),
		publisher: mqtt.NewFakePublisher(),
		tracker:   status.NewTracker(time.Now(), status.Config{}),
		ctrl:      logic.NewController(cfg),
		tick:      make(chan time.Time),
		events:    make(chan logic.NetEvent),
		sig:       make(chan os.Signal),
		done:      make(chan error, 1),
	}

	go func() {
		h.done <- runLoop(h.panel, stations, h.publisher, h.publisher, h.tracker, h.ctrl,
			"", time.Now, h.tick, h.events, h.sig)
	}()
	return h
}

func (h *loopHarness) stop(t *testing.T, s os.Signal) error {
	t.Helper()

	select {
	case h.sig <- s:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out delivering signal to run loop")
	}
	select {
	case err := <-h.done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("run loop did not return after signal")
		return nil
	}
}

func tightConfig() logic.Config {
	return logic.Config{
		StateRefreshPeriod:     1,
		IndicatorRefreshPeriod: 1,
		TickWrapLimit:          1_000_000,
	}
}

func TestRunLoopShutdownPublishesSystemEvent(t *testing.T) {
	cases := []struct {
		sig    os.Signal
		reason string
	}{
		{syscall.SIGINT, "SIGINT"},
		{syscall.SIGTERM, "SIGTERM"},
	}

	for _, c := range cases {
		h := startLoop(t, tightConfig(), &wifi.FakeCounter{})
		if err := h.stop(t, c.sig); err != nil {
			t.Fatalf("runLoop returned error: %v", err)
		}

		if len(h.publisher.SystemEvents) != 1 {
			t.Fatalf("%s: expected 1 system event, got %d", c.reason, len(h.publisher.SystemEvents))
		}
		ev := h.publisher.SystemEvents[0]
		if ev.Event != "SHUTDOWN" {
			t.Errorf("%s: event = %q, want SHUTDOWN", c.reason, ev.Event)
		}
		if ev.Reason != c.reason {
			t.Errorf("reason = %q, want %q", ev.Reason, c.reason)
		}
		if !ev.Retained {
			t.Errorf("%s: shutdown event should be retained", c.reason)
		}
		if len(ev.RawPayload) == 0 {
			t.Errorf("%s: shutdown event should carry a status snapshot", c.reason)
		}
	}
}

func TestRunLoopCommandWritesPattern(t *testing.T) {
	h := startLoop(t, tightConfig(), &wifi.FakeCounter{})

	h.events <- logic.NetEvent{Type: logic.NetAccepted, Session: "s1", Time: time.Now()}
	h.events <- logic.NetEvent{Type: logic.NetReceived, Session: "s1", Payload: []byte("5"), Time: time.Now()}

	if err := h.stop(t, syscall.SIGINT); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	pat, ok := h.panel.LastPattern()
	if !ok {
		t.Fatal("no pattern was written")
	}
	if pat != 0b010 {
		t.Errorf("pattern = %03b, want 010", pat)
	}

	var cmd *logic.Event
	for i := range h.publisher.Events {
		if h.publisher.Events[i].Type == logic.EventCommand {
			cmd = &h.publisher.Events[i]
		}
	}
	if cmd == nil {
		t.Fatal("no command event was published")
	}
	if cmd.Command.Digit != 5 {
		t.Errorf("published digit = %d, want 5", cmd.Command.Digit)
	}

	snap := h.tracker.Snapshot()
	if snap.LastCommand == nil || snap.LastCommand.Digit != 5 {
		t.Errorf("tracker last command = %+v, want digit 5", snap.LastCommand)
	}
}

func TestRunLoopTickPublishesLevelAndIndicator(t *testing.T) {
	h := startLoop(t, tightConfig(), &wifi.FakeCounter{N: 2})

	h.tick <- time.Now()

	if err := h.stop(t, syscall.SIGINT); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	var level *logic.Event
	for i := range h.publisher.Events {
		if h.publisher.Events[i].Type == logic.EventLevelChanged {
			level = &h.publisher.Events[i]
		}
	}
	if level == nil {
		t.Fatal("no level event was published")
	}
	if level.Level != logic.LevelWifiAssociated {
		t.Errorf("level = %s, want %s", level.Level, logic.LevelWifiAssociated)
	}
	if level.Stations != 2 {
		t.Errorf("stations = %d, want 2", level.Stations)
	}

	if len(h.panel.Indicator) == 0 {
		t.Fatal("indicator was never written")
	}
}

// sequenceCounter returns a fixed series of results, repeating the last
// entry once exhausted. Calls happen on the run loop goroutine only.
type sequenceCounter struct {
	results []struct {
		n   int
		err error
	}
	i int
}

func (s *sequenceCounter) Stations() (int, error) {
	r := s.results[s.i]
	if s.i < len(s.results)-1 {
		s.i++
	}
	return r.n, r.err
}

func TestRunLoopSurvivesStationCounterError(t *testing.T) {
	counter := &sequenceCounter{results: []struct {
		n   int
		err error
	}{
		{3, nil},
		{0, errors.New("iw: command failed")},
	}}
	h := startLoop(t, tightConfig(), counter)

	// First tick sees 3 stations, second tick errors and must fall
	// back to the last good count.
	h.tick <- time.Now()
	h.tick <- time.Now()

	if err := h.stop(t, syscall.SIGINT); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	if h.ctrl.Stations() != 3 {
		t.Errorf("stations after counter error = %d, want last good count 3", h.ctrl.Stations())
	}
	if h.ctrl.Level() != logic.LevelWifiAssociated {
		t.Errorf("level = %s, want %s", h.ctrl.Level(), logic.LevelWifiAssociated)
	}
}

func TestRunLoopSurvivesPublishError(t *testing.T) {
	h := startLoop(t, tightConfig(), &wifi.FakeCounter{N: 1})
	h.publisher.PublishError = errors.New("broker unreachable")

	h.events <- logic.NetEvent{Type: logic.NetAccepted, Session: "s1", Time: time.Now()}
	h.events <- logic.NetEvent{Type: logic.NetReceived, Session: "s1", Payload: []byte("7"), Time: time.Now()}
	h.tick <- time.Now()

	if err := h.stop(t, syscall.SIGINT); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	// Hardware writes must not be gated on broker health.
	pat, ok := h.panel.LastPattern()
	if !ok {
		t.Fatal("no pattern was written")
	}
	if pat != 0b000 {
		t.Errorf("pattern = %03b, want 000", pat)
	}
}

func TestRunLoopHeartbeat(t *testing.T) {
	cfg := tightConfig()
	cfg.HeartbeatPeriod = 2
	h := startLoop(t, cfg, &wifi.FakeCounter{N: 1})

	// Heartbeat fires when the tick counter reaches the period, so the
	// third tick (counter value 2) produces it. Tick zero never beats.
	h.tick <- time.Now()
	h.tick <- time.Now()
	h.tick <- time.Now()

	if err := h.stop(t, syscall.SIGINT); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	var beats int
	for _, ev := range h.publisher.SystemEvents {
		if ev.Event == "HEARTBEAT" {
			beats++
			if len(ev.RawPayload) == 0 {
				t.Error("heartbeat should carry a status snapshot")
			}
			if ev.Retained {
				t.Error("heartbeat must not be retained")
			}
		}
	}
	if beats != 1 {
		t.Errorf("heartbeats = %d, want 1", beats)
	}
}

func TestResolveWSBroker(t *testing.T) {
	cases := []struct {
		ws     string
		broker string
		want   string
	}{
		{"off", "tcp://192.168.1.200:1883", ""},
		{"=broker", "tcp://192.168.1.200:1883", "ws://192.168.1.200:9001"},
		{"=broker", "tcp://broker.local:1883", "ws://broker.local:9001"},
		{"ws://other:8083", "tcp://192.168.1.200:1883", "ws://other:8083"},
		{"", "tcp://192.168.1.200:1883", ""},
	}

	for _, c := range cases {
		got := resolveWSBroker(c.ws, c.broker)
		if got != c.want {
			t.Errorf("resolveWSBroker(%q, %q) = %q, want %q", c.ws, c.broker, got, c.want)
		}
	}
}

// Command ap-led accepts digit commands from TCP clients joined to the
// device's Wi-Fi access point, drives three LEDs from them, and signals
// connectivity health on a status LED.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/ap-led/internal/gpio"
	"github.com/sweeney/ap-led/internal/logic"
	"github.com/sweeney/ap-led/internal/mqtt"
	"github.com/sweeney/ap-led/internal/server"
	"github.com/sweeney/ap-led/internal/status"
	"github.com/sweeney/ap-led/internal/web"
	"github.com/sweeney/ap-led/internal/wifi"
)

func main() {
	listen := flag.String("listen", ":1010", "TCP listen address for digit commands")
	quantum := flag.Duration("quantum", 100*time.Millisecond, "Scheduler tick quantum")
	statePeriod := flag.Uint("state-period", 50, "Connectivity refresh period, in ticks")
	indicatorPeriod := flag.Uint("indicator-period", 5, "Status LED refresh period, in ticks")
	heartbeatPeriod := flag.Uint("heartbeat-period", 9000, "Heartbeat period, in ticks (0 to disable)")
	tickWrap := flag.Uint("tick-wrap", 1_000_000, "Tick counter wrap limit")
	idleTimeout := flag.Duration("idle-timeout", 60*time.Second, "Per-connection idle timeout (0 to disable)")
	iface := flag.String("iface", "wlan0", "Wireless interface hosting the access point")
	apEnv := flag.String("ap-env", "/run/wifi-ap.env", "AP helper env file (empty to disable)")
	broker := flag.String("broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	httpAddr := flag.String("http", ":80", "HTTP status address (empty to disable)")
	wsBroker := flag.String("ws-broker", "=broker", `MQTT websocket URL for live UI ("=broker" derives from --broker, "off" disables)`)
	pinLED1 := flag.Int("pin-led1", gpio.DefaultPinLED1, "BCM pin number for LED 1 (pattern bit 0)")
	pinLED2 := flag.Int("pin-led2", gpio.DefaultPinLED2, "BCM pin number for LED 2 (pattern bit 1)")
	pinLED3 := flag.Int("pin-led3", gpio.DefaultPinLED3, "BCM pin number for LED 3 (pattern bit 2)")
	pinIndicator := flag.Int("pin-indicator", gpio.DefaultPinIndicator, "BCM pin number for the status LED")
	printState := flag.Bool("print-state", false, "Print current connectivity level and exit")

	flag.Parse()

	cfg := logic.Config{
		StateRefreshPeriod:     uint32(*statePeriod),
		IndicatorRefreshPeriod: uint32(*indicatorPeriod),
		HeartbeatPeriod:        uint32(*heartbeatPeriod),
		TickWrapLimit:          uint32(*tickWrap),
	}
	ws := resolveWSBroker(*wsBroker, *broker)
	if err := run(cfg, *listen, *quantum, *idleTimeout, *iface, *apEnv, *broker, *httpAddr, ws,
		*pinLED1, *pinLED2, *pinLED3, *pinIndicator, *printState); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(cfg logic.Config, listen string, quantum, idleTimeout time.Duration, iface, apEnv, broker, httpAddr, wsBroker string,
	pinLED1, pinLED2, pinLED3, pinIndicator int, printState bool) error {
	stations := &wifi.IWCounter{Iface: iface}

	// Print state mode needs no GPIO, listener, or broker.
	if printState {
		n, err := stations.Stations()
		if err != nil {
			return fmt.Errorf("query stations: %w", err)
		}
		fmt.Printf("stations: %d, level: %s\n", n, logic.DeriveLevel(n, 0))
		return nil
	}

	// Initialize GPIO
	panel, err := gpio.NewRealPanel(pinLED1, pinLED2, pinLED3, pinIndicator)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer panel.Close()

	// Initialize MQTT
	publisher := mqtt.NewRealPublisher(broker, "ap-led")
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		ListenAddr:      listen,
		QuantumMs:       quantum.Milliseconds(),
		StatePeriod:     cfg.StateRefreshPeriod,
		IndicatorPeriod: cfg.IndicatorRefreshPeriod,
		HeartbeatPeriod: cfg.HeartbeatPeriod,
		TickWrapLimit:   cfg.TickWrapLimit,
		IdleTimeoutS:    int64(idleTimeout.Seconds()),
		Iface:           iface,
		Broker:          broker,
		HTTPAddr:        httpAddr,
		WSBroker:        wsBroker,
	})
	if apEnv != "" {
		if net := wifi.ReadNetworkInfo(apEnv); net != nil {
			tracker.SetNetwork(net)
		}
	}

	// Arm the TCP listener. A failure here is logged and survived: the
	// daemon keeps running without a listener until restarted, and the
	// status page reports it as DOWN.
	events := make(chan logic.NetEvent, 64)
	srv, err := server.Listen(listen, idleTimeout, events)
	if err != nil {
		log.Printf("listener error: %v (continuing without listener)", err)
		tracker.SetListenerUp(false)
	} else {
		defer srv.Close()
		go srv.Serve()
		tracker.SetListenerUp(true)
		log.Printf("accepting commands on %s (idle timeout %v)", srv.Addr(), idleTimeout)
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if httpAddr != "" {
		websrv := web.New(httpAddr, tracker)
		go func() {
			if err := websrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer websrv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", httpAddr)
	}

	log.Printf("started: quantum=%v state-period=%d indicator-period=%d wrap=%d broker=%s",
		quantum, cfg.StateRefreshPeriod, cfg.IndicatorRefreshPeriod, cfg.TickWrapLimit, broker)

	ticker := time.NewTicker(quantum)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(panel, stations, publisher, publisher, tracker, logic.NewController(cfg),
		apEnv, time.Now, ticker.C, events, sigCh)
}

func runLoop(panel gpio.Panel, stations wifi.Counter, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus,
	tracker *status.Tracker, ctrl *logic.Controller, apEnv string, now func() time.Time,
	tick <-chan time.Time, events <-chan logic.NetEvent, sig <-chan os.Signal) error {

	lastStations := 0

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case ev := <-events:
			handleNetEvent(panel, publisher, tracker, ctrl, ev)

		case <-tick:
			t := now()
			n, err := stations.Stations()
			if err != nil {
				log.Printf("station count error: %v", err)
				n = lastStations
			} else {
				lastStations = n
			}

			res := ctrl.Tick(t, n)

			if res.StationsChanged {
				log.Printf("stations associated: %d", n)
			}
			for _, e := range res.Events {
				log.Printf("level: %s (stations=%d sessions=%d)", e.Level, e.Stations, e.Sessions)
				if err := publisher.Publish(e); err != nil {
					log.Printf("publish error: %v", err)
				}
			}
			if res.Indicator != "" {
				if err := panel.SetIndicator(res.IndicatorOn); err != nil {
					log.Printf("indicator write error: %v", err)
				}
			}

			if res.Heartbeat {
				hbEvent := mqtt.SystemEvent{
					Timestamp: t,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					if mqttStatus != nil {
						tracker.SetMQTTConnected(mqttStatus.IsConnected())
					}
					// Refresh AP network info for heartbeat
					if apEnv != "" {
						if net := wifi.ReadNetworkInfo(apEnv); net != nil {
							tracker.SetNetwork(net)
						}
					}
					tracker.Update(ctrl.Level(), ctrl.Stations(), ctrl.Sessions(), ctrl.TickCount(), ctrl.CountsSnapshot())
					snap := tracker.Snapshot()
					hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
					log.Printf("heartbeat: uptime=%v level=%s accepted=%d commands=%d",
						snap.Uptime().Truncate(time.Second), snap.Level, snap.Counts.Accepted, snap.Counts.Commands)
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}

			// Update status tracker for HTTP consumers
			if tracker != nil {
				tracker.Update(ctrl.Level(), ctrl.Stations(), ctrl.Sessions(), ctrl.TickCount(), ctrl.CountsSnapshot())
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}
		}
	}
}

func handleNetEvent(panel gpio.Panel, publisher mqtt.Publisher, tracker *status.Tracker, ctrl *logic.Controller, ev logic.NetEvent) {
	switch ev.Type {
	case logic.NetAccepted:
		log.Printf("session %s: connected", ev.Session)
	case logic.NetDisconnected:
		log.Printf("session %s: disconnected", ev.Session)
	case logic.NetReconnected:
		log.Printf("session %s: aborted, awaiting reconnect: %v", ev.Session, ev.Err)
	case logic.NetReceived:
		log.Printf("session %s: received %d bytes", ev.Session, len(ev.Payload))
	}

	for _, e := range ctrl.HandleNet(ev) {
		if e.Command != nil {
			log.Printf("command: digit=%d pattern=%03b session=%s", e.Command.Digit, e.Command.Pattern, e.Session)
			if err := panel.SetPattern(e.Command.Pattern); err != nil {
				log.Printf("pattern write error: %v", err)
			}
			if tracker != nil {
				tracker.SetLastCommand(*e.Command)
			}
		}
		if err := publisher.Publish(e); err != nil {
			log.Printf("publish error: %v", err)
		}
	}

	if tracker != nil {
		tracker.Update(ctrl.Level(), ctrl.Stations(), ctrl.Sessions(), ctrl.TickCount(), ctrl.CountsSnapshot())
	}
}

// resolveWSBroker converts the --ws-broker flag value into a concrete URL.
// "=broker" derives ws://host:9001 from the TCP broker address; empty disables.
func resolveWSBroker(ws, broker string) string {
	if ws == "off" {
		return ""
	}
	if ws != "=broker" {
		return ws
	}
	u, err := url.Parse(broker)
	if err != nil {
		log.Printf("ws-broker: cannot parse --broker %q: %v", broker, err)
		return ""
	}
	u.Scheme = "ws"
	u.Host = u.Hostname() + ":9001"
	return u.String()
}

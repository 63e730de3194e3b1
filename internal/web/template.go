package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/ap-led/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"levelClass": func(level status.Snapshot) string {
		switch string(level.Level) {
		case "SOCKET_OPEN":
			return "on"
		case "WIFI_ASSOCIATED":
			return "pending"
		default:
			return "off"
		}
	},
	"pattern": func(snap status.Snapshot) string {
		if snap.LastCommand == nil {
			return "—"
		}
		return fmt.Sprintf("digit %d → %03b", snap.LastCommand.Digit, snap.LastCommand.Pattern)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>AP LED Server</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.pending { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>AP LED Server{{if .Config.WSBroker}}<span id="live-dot" class="live-dot pending" title="connecting"></span>{{end}}</h1>

<h2>Connectivity</h2>
<table>
<tr><th>Level</th><td id="level" class="{{levelClass .Snapshot}}">{{.Level}}</td></tr>
<tr><th>Stations</th><td id="stations">{{.Stations}}</td></tr>
<tr><th>Open sessions</th><td id="sessions">{{.Sessions}}</td></tr>
<tr><th>TCP listener</th><td class="{{if .ListenerUp}}connected{{else}}disconnected{{end}}">{{if .ListenerUp}}UP ({{.Config.ListenAddr}}){{else}}DOWN{{end}}</td></tr>
</table>

<h2>Actuators</h2>
<table>
<tr><th>Last command</th><td id="command">{{pattern .Snapshot}}</td></tr>
<tr><th>Commands</th><td>{{.Counts.Commands}}</td></tr>
<tr><th>Ignored payloads</th><td>{{.Counts.Ignored}}</td></tr>
</table>

<h2>Sessions</h2>
<table>
<tr><th>Accepted</th><td>{{.Counts.Accepted}}</td></tr>
<tr><th>Disconnected</th><td>{{.Counts.Disconnected}}</td></tr>
<tr><th>Reconnected</th><td>{{.Counts.Reconnected}}</td></tr>
</table>

<h2>Uplink</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>AP</th><td>{{.Network.Status}} ({{.Network.SSID}}, ch {{.Network.Channel}})</td></tr>
<tr><th>AP IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Ticks</th><td>{{.Ticks}} / {{.Config.TickWrapLimit}}</td></tr>
<tr><th>Quantum</th><td>{{.Config.QuantumMs}}ms</td></tr>
<tr><th>State period</th><td>{{.Config.StatePeriod}} ticks</td></tr>
<tr><th>Indicator period</th><td>{{.Config.IndicatorPeriod}} ticks</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatPeriod 0}}disabled{{else}}{{.Config.HeartbeatPeriod}} ticks{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
{{if .Config.WSBroker}}
<script src="/mqtt.min.js"></script>
<script>
(function() {
  var broker = "{{.Config.WSBroker}}";
  var topic = "home/ap-led/events";
  var dot = document.getElementById("live-dot");
  var levelEl = document.getElementById("level");
  var stationsEl = document.getElementById("stations");
  var sessionsEl = document.getElementById("sessions");
  var commandEl = document.getElementById("command");

  function setLevel(level) {
    levelEl.textContent = level;
    levelEl.className = level === "SOCKET_OPEN" ? "on" : level === "WIFI_ASSOCIATED" ? "pending" : "off";
  }

  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }

  var client = mqtt.connect(broker, { reconnectPeriod: 5000 });

  client.on("connect", function() {
    setDot("ok", "live");
    client.subscribe(topic);
  });

  client.on("reconnect", function() {
    setDot("pending", "reconnecting");
  });

  client.on("offline", function() {
    setDot("err", "offline");
  });

  client.on("error", function() {
    setDot("err", "error");
  });

  client.on("message", function(t, payload) {
    try {
      var msg = JSON.parse(payload.toString());
      if (!msg.ap) return;
      setLevel(msg.ap.level);
      stationsEl.textContent = msg.ap.stations;
      sessionsEl.textContent = msg.ap.open_sessions;
      if (msg.ap.command) {
        commandEl.textContent = "digit " + msg.ap.command.digit + " → " + msg.ap.command.pattern;
      }
    } catch (e) {}
  });
})();
</script>
{{end}}
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	indexTmpl.Execute(w, data)
}

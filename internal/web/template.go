package web

import (
	"fmt"
	"html/template"
	"io"
	"log"
	"time"

	"github.com/sweeney/wheelchair/internal/status"
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
	"directionOrUnknown": func(s string) string {
		if s == "" {
			return "UNKNOWN"
		}
		return s
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="2">
<title>Wheelchair</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.clear { color: green; }
.obstacle { color: red; font-weight: bold; }
.stopped { color: #888; }
.moving { color: green; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Wheelchair</h1>

<h2>Vehicle</h2>
<table>
<tr><th>Direction</th><td id="direction" class="{{if eq (directionOrUnknown (printf "%s" .Vehicle.Direction)) "Stopped"}}stopped{{else}}moving{{end}}">{{directionOrUnknown (printf "%s" .Vehicle.Direction)}}</td></tr>
<tr><th>Speed</th><td>{{.Vehicle.Speed}}</td></tr>
<tr><th>Distance</th><td id="distance" class="{{if .Vehicle.Obstacle}}obstacle{{else}}clear{{end}}">{{.Vehicle.Distance}} cm{{if .Vehicle.Obstacle}} STOP{{end}}</td></tr>
<tr><th>Heart Rate</th><td>{{.Vehicle.BPM}} BPM</td></tr>
<tr><th>Display</th><td>{{.Vehicle.View}}</td></tr>
<tr><th>Ready</th><td>{{if .Ready}}yes{{else}}no{{end}}</td></tr>
{{if .LastTelemetry}}<tr><th>Last telemetry</th><td>{{.LastTelemetry}}</td></tr>{{end}}
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
<tr><th>Serial</th><td>{{.Config.SerialDevice}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Counters</h2>
<table>
<tr><th>Iterations</th><td>{{.Vehicle.Iterations}}</td></tr>
<tr><th>Obstacle stops</th><td>{{.Vehicle.Trips}}</td></tr>
<tr><th>Beats held</th><td>{{.Vehicle.Beats}}</td></tr>
<tr><th>Rejected beats</th><td>{{.Vehicle.RejectedBeats}}</td></tr>
<tr><th>Commands</th><td>{{.Vehicle.Commands}} ({{.Vehicle.Ignored}} ignored)</td></tr>
<tr><th>Serial overruns</th><td>{{.Vehicle.Overruns}}</td></tr>
<tr><th>Telemetry sent</th><td>{{.Vehicle.TelemetrySent}}</td></tr>
<tr><th>Faults</th><td>{{.Vehicle.Faults}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Session</th><td>{{.Session}}</td></tr>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Loop</th><td>{{.Config.LoopMs}}ms (tick {{.Config.TickMs}}ms)</td></tr>
<tr><th>Display cycle</th><td>{{.Config.DisplayCycleTicks}} ticks</td></tr>
<tr><th>Telemetry</th><td>every {{.Config.TelemetryTicks}} ticks</td></tr>
<tr><th>Stop distance</th><td>{{.Config.MinDistance}} cm</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
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
	if err := indexTmpl.Execute(w, data); err != nil {
		log.Printf("web: render index: %v", err)
	}
}

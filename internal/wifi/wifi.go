// Package wifi reports access-point state: the number of associated
// stations and the AP network info published by the provisioning helper.
package wifi

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/joho/godotenv"
)

// Counter reports the number of stations currently associated with the
// access point. Zero means fully disconnected.
type Counter interface {
	Stations() (int, error)
}

// IWCounter counts associated stations by running
// `iw dev <iface> station dump` and counting the station blocks.
type IWCounter struct {
	Iface string
}

// Stations queries the wireless stack for the current station count.
func (c *IWCounter) Stations() (int, error) {
	out, err := exec.Command("iw", "dev", c.Iface, "station", "dump").Output()
	if err != nil {
		return 0, fmt.Errorf("iw station dump on %s: %w", c.Iface, err)
	}
	return countStations(out), nil
}

// countStations counts the "Station <mac>" header lines in iw output.
// Per-station attribute lines are tab-indented and never match.
func countStations(out []byte) int {
	n := 0
	for _, line := range strings.Split(string(out), "\n") {
		if strings.HasPrefix(line, "Station ") {
			n++
		}
	}
	return n
}

// Env var names written by the AP provisioning helper to its env file.
const (
	envSSID    = "AP_SSID"
	envIP      = "AP_IP"
	envChannel = "AP_CHANNEL"
	envStatus  = "AP_STATUS"
	envGateway = "AP_GATEWAY"
)

// NetworkInfo contains access-point network state from the helper env file.
type NetworkInfo struct {
	SSID    string
	IP      string
	Channel string
	Status  string
	Gateway string
}

// ReadNetworkInfo parses the helper's env file. It returns nil, not an
// error, when the file is missing or carries no AP_STATUS; the daemon
// behaves identically without the info.
func ReadNetworkInfo(path string) *NetworkInfo {
	env, err := godotenv.Read(path)
	if err != nil {
		return nil
	}
	if env[envStatus] == "" {
		return nil
	}
	return &NetworkInfo{
		SSID:    env[envSSID],
		IP:      env[envIP],
		Channel: env[envChannel],
		Status:  env[envStatus],
		Gateway: env[envGateway],
	}
}

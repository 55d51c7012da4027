/*
Copyright (c) The edgetime authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package client

import (
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	yaml "gopkg.in/yaml.v2"

	"github.com/edgetime/edgetime/timestamp"
)

// Default plausibility limits of the measurement filters
const (
	// DefaultRTTPlausibilityLimit rejects RTT measurements above 200us,
	// they mean a queueing hiccup rather than a usable sample
	DefaultRTTPlausibilityLimit = 200 * time.Microsecond
	// DefaultDriftPlausibilityLimitQ32 is roughly 10000 ppm in parts-per-2**32
	DefaultDriftPlausibilityLimitQ32 = 42949673
)

// Config specifies PTP client run options
type Config struct {
	// Iface is the network interface to use. Empty means the first
	// interface with an IPv6 address is picked.
	Iface string `yaml:"iface"`
	// Timestamping is "hardware", "software" or empty for auto-detection
	Timestamping string `yaml:"timestamping"`
	// MonitoringPort is where the JSON monitoring endpoint listens, 0 disables it
	MonitoringPort int `yaml:"monitoring_port"`
	// DelayReqInterval is the nominal time between delay requests,
	// pseudorandom jitter is added on top
	DelayReqInterval time.Duration `yaml:"delay_req_interval"`
	// DelayReqTimeout bounds the wait for a delay response
	DelayReqTimeout time.Duration `yaml:"delay_req_timeout"`
	// RTTPlausibilityLimit rejects implausible round trip measurements
	RTTPlausibilityLimit time.Duration `yaml:"rtt_plausibility_limit"`
	// DriftPlausibilityLimitQ32 rejects implausible drift estimates, in parts-per-2**32
	DriftPlausibilityLimitQ32 int32 `yaml:"drift_plausibility_limit_q32"`
	// FreeRunning makes the client measure without touching the clock
	FreeRunning bool `yaml:"free_running"`
}

// DefaultConfig returns Config initialized with default values
func DefaultConfig() *Config {
	return &Config{
		MonitoringPort:            4269,
		DelayReqInterval:          10 * time.Second,
		DelayReqTimeout:           500 * time.Millisecond,
		RTTPlausibilityLimit:      DefaultRTTPlausibilityLimit,
		DriftPlausibilityLimitQ32: DefaultDriftPlausibilityLimitQ32,
	}
}

// Validate returns an error when the config is not sane
func (c *Config) Validate() error {
	if c.DelayReqInterval <= 0 {
		return fmt.Errorf("delay_req_interval must be positive")
	}
	if c.DelayReqTimeout <= 0 {
		return fmt.Errorf("delay_req_timeout must be positive")
	}
	if c.DelayReqTimeout >= c.DelayReqInterval {
		return fmt.Errorf("delay_req_timeout must be below delay_req_interval")
	}
	if c.RTTPlausibilityLimit <= 0 {
		return fmt.Errorf("rtt_plausibility_limit must be positive")
	}
	if c.DriftPlausibilityLimitQ32 <= 0 {
		return fmt.Errorf("drift_plausibility_limit_q32 must be positive")
	}
	switch c.Timestamping {
	case "", timestamp.HWTIMESTAMP, timestamp.SWTIMESTAMP:
	default:
		return fmt.Errorf("timestamping must be %q, %q or empty", timestamp.HWTIMESTAMP, timestamp.SWTIMESTAMP)
	}
	return nil
}

// ReadConfig reads the config from the file
func ReadConfig(path string) (*Config, error) {
	c := DefaultConfig()
	cData, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(cData, c); err != nil {
		return nil, err
	}
	return c, nil
}

// PrepareConfig loads the config from the file, if any, applies flag
// overrides and validates the result
func PrepareConfig(cfgPath string, iface string, monitoringPort int, interval time.Duration, setFlags map[string]bool) (*Config, error) {
	cfg := DefaultConfig()
	warn := func(name string) {
		log.Warningf("overriding config %s from CLI flag", name)
	}
	if cfgPath != "" {
		c, err := ReadConfig(cfgPath)
		if err != nil {
			return nil, fmt.Errorf("reading config from %q: %w", cfgPath, err)
		}
		cfg = c
	}
	if setFlags["iface"] || cfg.Iface == "" {
		if cfgPath != "" && setFlags["iface"] {
			warn("iface")
		}
		cfg.Iface = iface
	}
	if setFlags["monitoringport"] {
		if cfgPath != "" {
			warn("monitoringport")
		}
		cfg.MonitoringPort = monitoringPort
	}
	if setFlags["interval"] {
		if cfgPath != "" {
			warn("interval")
		}
		cfg.DelayReqInterval = interval
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config is invalid: %w", err)
	}
	return cfg, nil
}

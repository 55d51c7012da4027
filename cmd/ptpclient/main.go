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

package main

import (
	"context"
	"flag"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/edgetime/edgetime/phc"
	"github.com/edgetime/edgetime/ptp/client"

	_ "net/http/pprof"
)

func doWork(cfg *client.Config) error {
	var clock client.Clock
	if cfg.FreeRunning {
		clock = client.FreeRunClock{}
	} else {
		dev, err := phc.Open(cfg.Iface)
		if err != nil {
			return err
		}
		defer dev.Close()
		clock = dev
	}

	stats := client.NewStats()
	c := client.New(cfg, clock, stats)
	if cfg.MonitoringPort != 0 {
		go client.NewJSONStats(c, stats).Start(cfg.MonitoringPort)
	}
	ctx := context.Background()
	return c.Run(ctx)
}

func main() {
	var (
		verboseFlag        bool
		ifaceFlag          string
		monitoringPortFlag int
		intervalFlag       time.Duration
		configFlag         string
		freeRunFlag        bool
		pprofFlag          string
	)
	defaults := client.DefaultConfig()

	flag.BoolVar(&verboseFlag, "verbose", false, "verbose output")
	flag.StringVar(&ifaceFlag, "iface", defaults.Iface, "network interface to use, empty means the first one with an IPv6 address")
	flag.StringVar(&configFlag, "config", "", "path to the config")
	flag.IntVar(&monitoringPortFlag, "monitoringport", defaults.MonitoringPort, "port to start monitoring http server on")
	flag.DurationVar(&intervalFlag, "interval", defaults.DelayReqInterval, "how often to send delay requests to the server")
	flag.BoolVar(&freeRunFlag, "freerun", false, "measure offsets without touching the clock")
	flag.StringVar(&pprofFlag, "pprof", "", "address to have the profiler listen on, disabled if empty")

	flag.Parse()
	setFlags := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	log.SetLevel(log.InfoLevel)
	if verboseFlag {
		log.SetLevel(log.DebugLevel)
	}
	cfg, err := client.PrepareConfig(configFlag, ifaceFlag, monitoringPortFlag, intervalFlag, setFlags)
	if err != nil {
		log.Fatal(err)
	}
	cfg.FreeRunning = cfg.FreeRunning || freeRunFlag
	if pprofFlag != "" {
		go func() {
			if err := http.ListenAndServe(pprofFlag, nil); err != nil { //#nosec G114
				log.Errorf("failed to start pprof: %v", err)
			}
		}()
	}
	if err := doWork(cfg); err != nil {
		log.Fatal(err)
	}
}

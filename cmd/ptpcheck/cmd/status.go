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

package cmd

import (
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/edgetime/edgetime/ptp/stats"
)

var statusCountersFlag bool

func init() {
	RootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusCountersFlag, "counters", false, "also print all counters")
}

func printStatus(url string, withCounters bool) error {
	s, err := stats.FetchSnapshot(url)
	if err != nil {
		return err
	}
	fmt.Printf("clock id:        %s\n", s.ClockID)
	fmt.Printf("server clock id: %s\n", s.ServerClockID)
	fmt.Printf("phase:           %s\n", s.Phase)
	fmt.Printf("rtt:             %dns\n", s.RTTNS)
	fmt.Printf("utc offset:      %ds\n", s.UTCOffsetS)
	fmt.Printf("drift:           %d q32 (%.3f ppb)\n", s.DriftQ32, s.DriftPPB)
	fmt.Printf("offset seen:     mean %.1fns stddev %.1fns over %d samples\n", s.Offset.Mean, s.Offset.Stddev, s.Offset.Count)
	fmt.Printf("rtt seen:        mean %.1fns stddev %.1fns over %d samples\n", s.RTT.Mean, s.RTT.Stddev, s.RTT.Count)
	if !withCounters {
		return nil
	}
	counters, err := stats.FetchCounters(url)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(counters))
	for k := range counters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("%s: %d\n", k, counters[k])
	}
	return nil
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the current state of the PTP client",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()
		if err := printStatus(rootClientURLFlag, statusCountersFlag); err != nil {
			log.Fatal(err)
		}
	},
}

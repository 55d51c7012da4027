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
	"time"

	"github.com/spf13/cobra"

	"github.com/edgetime/edgetime/ptp/stats"
)

var (
	exportListenPortFlag int
	exportClientPortFlag int
	exportIntervalFlag   time.Duration
)

func init() {
	RootCmd.AddCommand(exportCmd)
	exportCmd.Flags().IntVar(&exportListenPortFlag, "listenport", 9120, "port to serve prometheus metrics on")
	exportCmd.Flags().IntVar(&exportClientPortFlag, "clientport", 4269, "monitoring port of the PTP client")
	exportCmd.Flags().DurationVar(&exportIntervalFlag, "interval", 10*time.Second, "how often to scrape the client")
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Serve the PTP client's state as prometheus metrics",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()
		exporter := stats.NewPrometheusExporter(exportListenPortFlag, exportClientPortFlag, exportIntervalFlag)
		exporter.Start()
	},
}

// Command fccached runs the flow cache end to end: a capture.Source
// (out of scope; wired here as a capture.NullSource stub), a
// flowcache.FlowCache driving the parser pipeline and timeouts, a
// statsock.Server for live counters, and an export.Exporter (wired as a
// export.LoggingExporter stub). It mirrors cmd/goProbe/main.go's
// structure: a thin main delegating to cmd.Execute, logging any
// top-level error before exiting non-zero.
package main

import (
	"os"

	"github.com/flowdeck/fccache/cmd/fccached/cmd"
	"github.com/flowdeck/fccache/pkg/logging"
)

func main() {
	if err := cmd.Execute(); err != nil {
		logging.Logger().Error("fccached terminated with an error", "error", err)
		os.Exit(1)
	}
}

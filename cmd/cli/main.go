// probeplot - Klipper probe accuracy plotter
//
// probeplot parses Klipper logs into probe samples, temperature series and
// PROBE_ACCURACY calibration runs, and prints, exports, renders or serves
// the result.
package main

import (
	"os"

	"github.com/ccollicutt/probeplot/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}

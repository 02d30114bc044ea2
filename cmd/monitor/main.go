// Command monitor reads an evaluated signal snapshot and splits it into
// confirmed buy entries and pullback-complete instruments still awaiting
// rebound confirmation.
package main

import (
	"flag"
	"fmt"
	"os"

	"swingscan-go/internal/report"
	"swingscan-go/internal/util"
)

func main() {
	signalsPath := flag.String("signals", "output/monitor_signals.csv", "evaluated signals CSV path")
	flag.Parse()

	level := os.Getenv("SWINGSCAN_LOG_LEVEL")
	if level == "" {
		level = "info"
	}
	log := util.NewLogger(level)

	results, err := report.ReadSignals(*signalsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load signals")
	}

	list := report.Classify(results)
	fmt.Printf("signals=%d buys=%d watching=%d\n", len(results), len(list.Buys), len(list.Watches))
	list.Print(os.Stdout)
}

package report

import (
	"fmt"
	"io"

	"swingscan-go/internal/swing"
)

// Watchlist splits evaluated results into confirmed buy entries and
// instruments whose pullback completed but whose rebound is still pending.
type Watchlist struct {
	Buys    []swing.Result
	Watches []swing.Result
}

// Classify buckets results for the focused monitor output.
func Classify(results []swing.Result) Watchlist {
	var list Watchlist
	for _, r := range results {
		switch {
		case r.Signal:
			list.Buys = append(list.Buys, r)
		case r.PullbackOK && !r.ReboundOK:
			list.Watches = append(list.Watches, r)
		}
	}
	return list
}

// Print renders the watchlist as a console summary.
func (w Watchlist) Print(out io.Writer) {
	if len(w.Buys) > 0 {
		fmt.Fprintln(out, "buy signals:")
		for _, r := range w.Buys {
			fmt.Fprintf(out, "  %s %s price=%.2f score=%.1f\n", r.Code, r.Name, r.CurrentPrice, r.Score)
		}
	} else {
		fmt.Fprintln(out, "no buy entries yet")
	}

	if len(w.Watches) > 0 {
		fmt.Fprintln(out, "watching (pullback complete, awaiting rebound):")
		for _, r := range w.Watches {
			fmt.Fprintf(out, "  %s %s price=%.2f retrace=%.2f%% vol_ratio=%.3f score=%.1f\n",
				r.Code, r.Name, r.CurrentPrice, r.RetracePct, r.VolumeRatio, r.Score)
		}
	}
}

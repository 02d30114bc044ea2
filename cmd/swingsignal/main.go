// Command swingsignal evaluates the pullback/rebound buy-timing state of each
// candidate in a CSV snapshot, using the minute-bar chart endpoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	ossignal "os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"swingscan-go/internal/config"
	"swingscan-go/internal/kiwoom"
	"swingscan-go/internal/metrics"
	"swingscan-go/internal/report"
	"swingscan-go/internal/screen"
	"swingscan-go/internal/swing"
	"swingscan-go/internal/util"
)

type options struct {
	input          string
	tickUnit       string
	limit          int
	out            string
	onlySignal     bool
	recentHighBars int
	pullbackMin    float64
	pullbackMax    float64
	minVolRatio    float64
	settingsPath   string
}

func parseFlags() options {
	var opts options
	flag.StringVar(&opts.input, "input", "output/weekly_candidates.csv", "input candidates CSV path")
	flag.StringVar(&opts.tickUnit, "tick-unit", "", "minute tick unit for the chart fetch (1/3/5/10...)")
	flag.IntVar(&opts.limit, "limit", 0, "max rows to print (0 uses settings)")
	flag.StringVar(&opts.out, "out", "output/weekly_signals.csv", "output CSV path")
	flag.BoolVar(&opts.onlySignal, "only-signal", false, "print/save only signal=true rows")
	flag.IntVar(&opts.recentHighBars, "recent-high-bars", 0, "high reference bars for the pullback check (0 uses settings)")
	flag.Float64Var(&opts.pullbackMin, "pullback-min", math.NaN(), "minimum pullback percent")
	flag.Float64Var(&opts.pullbackMax, "pullback-max", math.NaN(), "maximum pullback percent")
	flag.Float64Var(&opts.minVolRatio, "min-vol-ratio", math.NaN(), "minimum recent/previous volume ratio")
	flag.StringVar(&opts.settingsPath, "config", "", "settings YAML path")
	flag.Parse()
	return opts
}

func main() {
	opts := parseFlags()

	settings, err := loadSettings(opts.settingsPath)
	if err != nil {
		boot := util.NewLogger("info")
		boot.Fatal().Err(err).Msg("load settings")
	}
	log := util.NewLogger(logLevel(settings))

	if err := run(opts, settings, log); err != nil {
		log.Fatal().Err(err).Msg("swing signal check failed")
	}
}

func loadSettings(path string) (*config.Settings, error) {
	if path == "" {
		return config.DefaultSettings(), nil
	}
	return config.LoadSettings(path)
}

func logLevel(settings *config.Settings) string {
	if level := os.Getenv("SWINGSCAN_LOG_LEVEL"); level != "" {
		return level
	}
	if settings.App.LogLevel != "" {
		return settings.App.LogLevel
	}
	return "info"
}

func evaluatorParams(opts options, settings *config.Settings) swing.Params {
	params := swing.Params{
		RecentHighBars: settings.Swing.RecentHighBars,
		PullbackMin:    settings.Swing.PullbackMin,
		PullbackMax:    settings.Swing.PullbackMax,
		MinVolRatio:    settings.Swing.MinVolRatio,
	}
	if opts.recentHighBars > 0 {
		params.RecentHighBars = opts.recentHighBars
	}
	if !math.IsNaN(opts.pullbackMin) {
		params.PullbackMin = opts.pullbackMin
	}
	if !math.IsNaN(opts.pullbackMax) {
		params.PullbackMax = opts.pullbackMax
	}
	if !math.IsNaN(opts.minVolRatio) {
		params.MinVolRatio = opts.minVolRatio
	}
	return params
}

func run(opts options, settings *config.Settings, log zerolog.Logger) error {
	candidates, err := report.ReadCandidates(opts.input)
	if err != nil {
		return err
	}

	creds, err := config.FromEnv()
	if err != nil {
		return err
	}
	if settings.App.MetricsAddr != "" {
		_ = metrics.Serve(settings.App.MetricsAddr)
		log.Info().Str("addr", settings.App.MetricsAddr).Msg("metrics up")
	}

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	client := kiwoom.NewClient(creds, log)
	defer client.Close(context.Background())

	tickUnit := opts.tickUnit
	if tickUnit == "" {
		tickUnit = settings.Swing.TickUnit
	}
	runner := screen.NewRunner(client, evaluatorParams(opts, settings), tickUnit, log)
	outcome := runner.Run(ctx, candidates)

	results := outcome.Results
	if opts.onlySignal {
		filtered := results[:0:0]
		for _, r := range results {
			if r.Signal {
				filtered = append(filtered, r)
			}
		}
		results = filtered
	}

	fmt.Printf("input=%d analyzed=%d skipped=%d output=%d\n",
		len(candidates), len(outcome.Results), outcome.SkippedTotal(), len(results))
	if outcome.SkippedTotal() > 0 {
		fmt.Printf("skip reasons: %s\n", formatHistogram(outcome.Skipped))
	}

	limit := opts.limit
	if limit <= 0 {
		limit = settings.Screen.Limit
	}
	printResults(results, limit)

	if err := report.WriteSignals(opts.out, results); err != nil {
		return err
	}
	fmt.Printf("saved: %s\n", opts.out)
	return nil
}

func formatHistogram(skipped map[string]int) string {
	reasons := make([]string, 0, len(skipped))
	for reason := range skipped {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	parts := make([]string, 0, len(reasons))
	for _, reason := range reasons {
		parts = append(parts, fmt.Sprintf("%s=%d", reason, skipped[reason]))
	}
	return strings.Join(parts, " ")
}

func printResults(results []swing.Result, limit int) {
	fmt.Println("code\tname\tprice\tretrace%\tvol_ratio\tpullback\trebound\tsignal\tscore")
	if limit > len(results) {
		limit = len(results)
	}
	for _, r := range results[:limit] {
		fmt.Printf("%s\t%s\t%.2f\t%.2f\t%.3f\t%t\t%t\t%t\t%.1f\n",
			r.Code, r.Name, r.CurrentPrice, r.RetracePct, r.VolumeRatio,
			r.PullbackOK, r.ReboundOK, r.Signal, r.Score)
	}
}

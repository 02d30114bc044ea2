// Command screener extracts ranked stock lists from the brokerage API:
// volume leaders, change-rate leaders, saved condition searches, and the
// volume/change intersection used as weekly swing candidates.
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	ossignal "os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"swingscan-go/internal/config"
	"swingscan-go/internal/kiwoom"
	"swingscan-go/internal/market"
	"swingscan-go/internal/metrics"
	"swingscan-go/internal/report"
	"swingscan-go/internal/screen"
	"swingscan-go/internal/util"
)

type options struct {
	mode           string
	conditionIdx   string
	keyword        string
	minPrice       float64
	maxPrice       float64
	minVolume      int64
	limit          int
	out            string
	swingMinChange float64
	swingMaxChange float64
	settingsPath   string
}

func parseFlags() options {
	var opts options
	flag.StringVar(&opts.mode, "mode", "volume", "volume|change|condition|swing")
	flag.StringVar(&opts.conditionIdx, "condition-idx", "", "condition expression index for condition mode")
	flag.StringVar(&opts.keyword, "keyword", "", "substring match on code or name")
	flag.Float64Var(&opts.minPrice, "min-price", math.NaN(), "minimum current price")
	flag.Float64Var(&opts.maxPrice, "max-price", math.NaN(), "maximum current price")
	flag.Int64Var(&opts.minVolume, "min-volume", -1, "minimum volume")
	flag.IntVar(&opts.limit, "limit", 0, "max rows to print (0 uses settings)")
	flag.StringVar(&opts.out, "out", "", "output CSV path")
	flag.Float64Var(&opts.swingMinChange, "swing-min-change", math.NaN(), "swing mode minimum change rate percent")
	flag.Float64Var(&opts.swingMaxChange, "swing-max-change", math.NaN(), "swing mode maximum change rate percent")
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
		if opts.mode == "condition" {
			log.Warn().Msg("condition search uses the /api/dostk/websocket path and may be unsupported on paper accounts")
		}
		log.Fatal().Err(err).Msg("screener failed")
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

func run(opts options, settings *config.Settings, log zerolog.Logger) error {
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

	minChange := settings.Screen.SwingMinChange
	if !math.IsNaN(opts.swingMinChange) {
		minChange = opts.swingMinChange
	}
	maxChange := settings.Screen.SwingMaxChange
	if !math.IsNaN(opts.swingMaxChange) {
		maxChange = opts.swingMaxChange
	}

	var rows []market.Row
	switch opts.mode {
	case "volume":
		rows, err = fetchRows(ctx, client.VolumeRank, market.VolumeKeys)
	case "change":
		rows, err = fetchRows(ctx, client.ChangeRateRank, market.ChangeKeys)
	case "condition":
		if opts.conditionIdx == "" {
			return fmt.Errorf("condition mode requires -condition-idx")
		}
		rows, err = fetchRows(ctx, func(ctx context.Context) (kiwoom.Response, error) {
			return client.SearchByCondition(ctx, opts.conditionIdx)
		}, market.ConditionKeys)
	case "swing":
		var volumeRows, changeRows []market.Row
		volumeRows, err = fetchRows(ctx, client.VolumeRank, market.VolumeKeys)
		if err == nil {
			changeRows, err = fetchRows(ctx, client.ChangeRateRank, market.ChangeKeys)
		}
		if err == nil {
			rows = screen.SwingCandidates(volumeRows, changeRows, minChange, maxChange)
		}
	default:
		return fmt.Errorf("unknown mode %q", opts.mode)
	}
	if err != nil {
		return err
	}

	filters := screen.Filters{Keyword: opts.keyword}
	if !math.IsNaN(opts.minPrice) {
		filters.MinPrice = &opts.minPrice
	}
	if !math.IsNaN(opts.maxPrice) {
		filters.MaxPrice = &opts.maxPrice
	}
	if opts.minVolume >= 0 {
		filters.MinVolume = &opts.minVolume
	}
	filtered := screen.Apply(rows, filters)

	limit := opts.limit
	if limit <= 0 {
		limit = settings.Screen.Limit
	}
	printRows(opts.mode, filtered, limit)

	if opts.out != "" {
		if err := report.WriteRows(opts.out, filtered); err != nil {
			return err
		}
		fmt.Printf("saved: %s\n", opts.out)
	}
	return nil
}

// fetchRows runs one facade call and normalizes its payload; rows without an
// instrument code never pass downstream.
func fetchRows(ctx context.Context, call func(context.Context) (kiwoom.Response, error), keys []string) ([]market.Row, error) {
	resp, err := call(ctx)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	items := market.ExtractItems(resp, keys)
	rows := make([]market.Row, 0, len(items))
	for _, item := range items {
		row := market.ParseRow(item)
		if row.Code == "" {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func printRows(mode string, rows []market.Row, limit int) {
	fmt.Printf("mode=%s total=%d\n", mode, len(rows))
	if mode == "swing" {
		fmt.Println("code\tname\tprice\tvolume\tchange_rate\tswing_score")
	} else {
		fmt.Println("code\tname\tprice\tvolume\tchange_rate")
	}
	if limit > len(rows) {
		limit = len(rows)
	}
	for _, row := range rows[:limit] {
		line := fmt.Sprintf("%s\t%s\t%s\t%s\t%s",
			row.Code, row.Name,
			floatCell(row.Price, 2), intCell(row.Volume), floatCell(row.ChangeRate, 2))
		if mode == "swing" {
			line += "\t" + floatCell(row.SwingScore, 6)
		}
		fmt.Println(line)
	}
}

func floatCell(v *float64, precision int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.*f", precision, *v)
}

func intCell(v *int64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *v)
}

// Package swing classifies a price/volume series into the two-phase
// "pulled back, then confirmed rebound" buy-timing pattern.
package swing

import "sort"

// Evaluation needs at least this many samples; shorter series are rejected,
// not padded.
const minSamples = 30

// Params tunes the pullback band and rebound confirmation thresholds.
type Params struct {
	RecentHighBars int
	PullbackMin    float64
	PullbackMax    float64
	MinVolRatio    float64
}

// DefaultParams returns the stock thresholds for weekly swing candidates.
func DefaultParams() Params {
	return Params{
		RecentHighBars: 120,
		PullbackMin:    0.0,
		PullbackMax:    15.0,
		MinVolRatio:    1.0,
	}
}

// Result is one evaluated instrument. Immutable once produced; output order
// is a derived, re-sortable property.
type Result struct {
	Code         string
	Name         string
	CurrentPrice float64
	RetracePct   float64
	ShortMA      float64
	LongMA       float64
	VolumeRatio  float64
	PullbackOK   bool
	ReboundOK    bool
	Signal       bool
	Score        float64
}

// Evaluate is a pure function of one instrument's series and a parameter set.
// The second return value is false when the series is too short to judge.
func Evaluate(code, name string, closes []float64, volumes []int64, p Params) (Result, bool) {
	if len(closes) < minSamples || len(volumes) != len(closes) {
		return Result{}, false
	}

	current := closes[len(closes)-1]

	highSlice := closes
	if p.RecentHighBars > 0 && len(closes) >= p.RecentHighBars {
		highSlice = closes[len(closes)-p.RecentHighBars:]
	}
	recentHigh := maxOf(highSlice)
	retrace := 0.0
	if recentHigh > 0 {
		retrace = (recentHigh - current) / recentHigh * 100
	}

	shortMA := mean(closes[len(closes)-5:])
	longMA := mean(closes[len(closes)-20:])

	prev5High := current
	if len(closes) >= 6 {
		prev5High = maxOf(closes[len(closes)-6 : len(closes)-1])
	}

	recentVol := meanInt(volumes[len(volumes)-5:])
	prevVol := meanInt(volumes[len(volumes)-25 : len(volumes)-5])
	volRatio := 0.0
	if prevVol > 0 {
		volRatio = recentVol / prevVol
	}

	pullbackOK := retrace >= p.PullbackMin && retrace <= p.PullbackMax &&
		longMA > 0 && current >= longMA*0.98
	reboundOK := current >= prev5High && shortMA >= longMA && volRatio >= p.MinVolRatio
	signal := pullbackOK && reboundOK

	score := 0.0
	if pullbackOK {
		score += 40.0
	}
	if reboundOK {
		score += 40.0
	}
	score += clamp((volRatio-1.0)*20.0, 0.0, 20.0)

	return Result{
		Code:         code,
		Name:         name,
		CurrentPrice: current,
		RetracePct:   retrace,
		ShortMA:      shortMA,
		LongMA:       longMA,
		VolumeRatio:  volRatio,
		PullbackOK:   pullbackOK,
		ReboundOK:    reboundOK,
		Signal:       signal,
		Score:        score,
	}, true
}

// Sort orders results descending by (signal, score, volume ratio): every
// confirmed signal sorts before every non-signal regardless of score.
func Sort(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Signal != b.Signal {
			return a.Signal
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.VolumeRatio > b.VolumeRatio
	})
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func meanInt(values []int64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	var sum int64
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}

func maxOf(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	best := values[0]
	for _, v := range values[1:] {
		if v > best {
			best = v
		}
	}
	return best
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Package screen turns normalized ranking rows into filtered listings and
// weekly swing candidates, and drives batch chart evaluations.
package screen

import (
	"sort"
	"strings"

	"swingscan-go/internal/market"
)

// Filters narrows a listing; nil bounds are inactive. Rows with unknown
// values are rejected by active numeric bounds.
type Filters struct {
	Keyword   string
	MinPrice  *float64
	MaxPrice  *float64
	MinVolume *int64
}

// Apply returns the rows passing every active filter, preserving order.
func Apply(rows []market.Row, f Filters) []market.Row {
	keyword := strings.ToLower(f.Keyword)
	result := make([]market.Row, 0, len(rows))
	for _, row := range rows {
		if keyword != "" &&
			!strings.Contains(strings.ToLower(row.Code), keyword) &&
			!strings.Contains(strings.ToLower(row.Name), keyword) {
			continue
		}
		if f.MinPrice != nil && (row.Price == nil || *row.Price < *f.MinPrice) {
			continue
		}
		if f.MaxPrice != nil && (row.Price == nil || *row.Price > *f.MaxPrice) {
			continue
		}
		if f.MinVolume != nil && (row.Volume == nil || *row.Volume < *f.MinVolume) {
			continue
		}
		result = append(result, row)
	}
	return result
}

const unrankedPosition = 999

// SwingCandidates intersects the volume and change-rate leader boards,
// keeps codes whose change rate sits in [minChange, maxChange], and scores
// each by its two rank positions: 0.6 weight on volume rank, 0.4 on change
// rank, reciprocal so leaders dominate. Output sorts descending by score.
func SwingCandidates(volumeRows, changeRows []market.Row, minChange, maxChange float64) []market.Row {
	volByCode := rowsByCode(volumeRows)
	chgByCode := rowsByCode(changeRows)

	volRank := rankPositions(volumeRows, func(r market.Row) float64 {
		if r.Volume == nil {
			return 0
		}
		return float64(*r.Volume)
	})
	chgRank := rankPositions(changeRows, func(r market.Row) float64 {
		if r.ChangeRate == nil {
			return -999.0
		}
		return *r.ChangeRate
	})

	var rows []market.Row
	for code, volRow := range volByCode {
		chgRow, ok := chgByCode[code]
		if !ok {
			continue
		}
		if chgRow.ChangeRate == nil {
			continue
		}
		if *chgRow.ChangeRate < minChange || *chgRow.ChangeRate > maxChange {
			continue
		}

		vr := rankOr(volRank, code, unrankedPosition)
		cr := rankOr(chgRank, code, unrankedPosition)
		score := 1.0/float64(vr+1)*0.6 + 1.0/float64(cr+1)*0.4

		merged := market.Row{
			Code:       code,
			Name:       volRow.Name,
			Price:      volRow.Price,
			Volume:     volRow.Volume,
			ChangeRate: chgRow.ChangeRate,
			SwingScore: &score,
		}
		if merged.Name == "" {
			merged.Name = chgRow.Name
		}
		if merged.Price == nil {
			merged.Price = chgRow.Price
		}
		if merged.Volume == nil {
			merged.Volume = chgRow.Volume
		}
		rows = append(rows, merged)
	}

	sort.Slice(rows, func(i, j int) bool {
		if *rows[i].SwingScore != *rows[j].SwingScore {
			return *rows[i].SwingScore > *rows[j].SwingScore
		}
		return rows[i].Code < rows[j].Code
	})
	return rows
}

func rowsByCode(rows []market.Row) map[string]market.Row {
	byCode := make(map[string]market.Row, len(rows))
	for _, row := range rows {
		if row.Code == "" {
			continue
		}
		if _, exists := byCode[row.Code]; !exists {
			byCode[row.Code] = row
		}
	}
	return byCode
}

// rankPositions orders rows descending by the key and maps code to position.
func rankPositions(rows []market.Row, key func(market.Row) float64) map[string]int {
	sorted := make([]market.Row, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return key(sorted[i]) > key(sorted[j])
	})
	ranks := make(map[string]int, len(sorted))
	for i, row := range sorted {
		if _, exists := ranks[row.Code]; !exists {
			ranks[row.Code] = i
		}
	}
	return ranks
}

func rankOr(ranks map[string]int, code string, fallback int) int {
	if rank, ok := ranks[code]; ok {
		return rank
	}
	return fallback
}

// Package report reads and writes the flat CSV snapshots exchanged between
// the screening and signal-checking runs.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"swingscan-go/internal/market"
	"swingscan-go/internal/screen"
	"swingscan-go/internal/swing"
)

// Snapshots carry a UTF-8 signature so spreadsheet tools pick the right
// encoding for Korean instrument names.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// RankingHeader is the column set of ranked-list exports.
var RankingHeader = []string{"code", "name", "price", "volume", "change_rate", "swing_score"}

// SignalHeader is the column set of signal exports.
var SignalHeader = []string{
	"code", "name", "current_price", "retrace_pct", "short_ma", "long_ma",
	"volume_ratio", "pullback_ok", "rebound_ok", "signal", "signal_score",
}

func createSnapshot(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create snapshot: %w", err)
	}
	if _, err := file.Write(utf8BOM); err != nil {
		file.Close()
		return nil, fmt.Errorf("write signature: %w", err)
	}
	return file, nil
}

// WriteRows saves a ranked listing snapshot.
func WriteRows(path string, rows []market.Row) error {
	file, err := createSnapshot(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(RankingHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.Code,
			row.Name,
			formatFloat(row.Price, 2),
			formatInt(row.Volume),
			formatFloat(row.ChangeRate, 2),
			formatFloat(row.SwingScore, 6),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteSignals saves an evaluated signal snapshot.
func WriteSignals(path string, results []swing.Result) error {
	file, err := createSnapshot(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(SignalHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range results {
		record := []string{
			r.Code,
			r.Name,
			strconv.FormatFloat(r.CurrentPrice, 'f', 2, 64),
			strconv.FormatFloat(r.RetracePct, 'f', 2, 64),
			strconv.FormatFloat(r.ShortMA, 'f', 2, 64),
			strconv.FormatFloat(r.LongMA, 'f', 2, 64),
			strconv.FormatFloat(r.VolumeRatio, 'f', 3, 64),
			strconv.FormatBool(r.PullbackOK),
			strconv.FormatBool(r.ReboundOK),
			strconv.FormatBool(r.Signal),
			strconv.FormatFloat(r.Score, 'f', 1, 64),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadCandidates loads the code/name pairs of a candidates snapshot,
// skipping rows without a code.
func ReadCandidates(path string) ([]screen.Candidate, error) {
	records, header, err := readSnapshot(path)
	if err != nil {
		return nil, err
	}
	codeIdx, ok := header["code"]
	if !ok {
		return nil, fmt.Errorf("%s: missing code column", path)
	}
	nameIdx, hasName := header["name"]

	candidates := make([]screen.Candidate, 0, len(records))
	for _, record := range records {
		if codeIdx >= len(record) {
			continue
		}
		code := strings.TrimSpace(record[codeIdx])
		if code == "" {
			continue
		}
		name := ""
		if hasName && nameIdx < len(record) {
			name = strings.TrimSpace(record[nameIdx])
		}
		candidates = append(candidates, screen.Candidate{Code: code, Name: name})
	}
	return candidates, nil
}

// ReadSignals loads an evaluated signal snapshot back into results.
func ReadSignals(path string) ([]swing.Result, error) {
	records, header, err := readSnapshot(path)
	if err != nil {
		return nil, err
	}
	for _, column := range []string{"code", "signal", "pullback_ok", "rebound_ok"} {
		if _, ok := header[column]; !ok {
			return nil, fmt.Errorf("%s: missing %s column", path, column)
		}
	}

	results := make([]swing.Result, 0, len(records))
	for _, record := range records {
		at := func(column string) string {
			idx, ok := header[column]
			if !ok || idx >= len(record) {
				return ""
			}
			return record[idx]
		}
		result := swing.Result{
			Code:         strings.TrimSpace(at("code")),
			Name:         strings.TrimSpace(at("name")),
			CurrentPrice: parseFloat(at("current_price")),
			RetracePct:   parseFloat(at("retrace_pct")),
			ShortMA:      parseFloat(at("short_ma")),
			LongMA:       parseFloat(at("long_ma")),
			VolumeRatio:  parseFloat(at("volume_ratio")),
			PullbackOK:   parseBool(at("pullback_ok")),
			ReboundOK:    parseBool(at("rebound_ok")),
			Signal:       parseBool(at("signal")),
			Score:        parseFloat(at("signal_score")),
		}
		if result.Code == "" {
			continue
		}
		results = append(results, result)
	}
	return results, nil
}

// readSnapshot returns data records and a column-name index, tolerating the
// UTF-8 signature on the first header cell.
func readSnapshot(path string) ([][]string, map[string]int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read snapshot: %w", err)
	}
	if len(records) == 0 {
		return nil, map[string]int{}, nil
	}

	headerRow := records[0]
	if len(headerRow) > 0 {
		headerRow[0] = strings.TrimPrefix(headerRow[0], string(utf8BOM))
	}
	header := make(map[string]int, len(headerRow))
	for i, column := range headerRow {
		header[strings.TrimSpace(column)] = i
	}
	return records[1:], header, nil
}

func formatFloat(v *float64, precision int) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', precision, 64)
}

func formatInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func parseBool(s string) bool {
	v, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return false
	}
	return v
}

// Package market normalizes heterogeneous brokerage payloads into uniform
// tabular rows. The same logical attribute surfaces under different field
// names depending on the operation, so every attribute is resolved against an
// ordered list of candidate keys, first match wins.
package market

import (
	"strconv"
	"strings"
)

// Row is one normalized instrument record. Nil numeric fields mean the source
// payload did not carry the attribute.
type Row struct {
	Code       string
	Name       string
	Price      *float64
	Volume     *int64
	ChangeRate *float64
	SwingScore *float64
}

// Candidate payload-list keys per operation.
var (
	VolumeKeys    = []string{"tdy_trde_qty_upper", "output", "items"}
	ChangeKeys    = []string{"pred_pre_flu_rt_upper", "output", "items"}
	ConditionKeys = []string{"condition_item_list", "stk_list", "output", "items"}
	ChartKeys     = []string{"stk_min_pole_chart_qry", "stk_tic_stk_pc_chrt", "output", "items"}
)

// Field-name synonyms per logical attribute, in priority order.
var (
	codeKeys   = []string{"stk_cd", "code", "item_cd", "isu_cd"}
	nameKeys   = []string{"stk_nm", "name", "item_nm", "isu_nm"}
	priceKeys  = []string{"cur_prc", "cur_price", "stck_prpr", "price"}
	volumeKeys = []string{"acml_vol", "trde_qty", "now_trde_qty", "volume"}
	changeKeys = []string{"flu_rt", "prdy_ctrt", "change_rate"}
	closeKeys  = []string{"cur_prc", "stk_clsprc", "close"}
	qtyKeys    = []string{"trde_qty", "volume"}
)

// ParsePrice strips the sign and thousands separators before parsing; the
// source API encodes price direction separately from magnitude. Nil and
// unparsable values become 0.
func ParsePrice(value any) float64 {
	switch v := value.(type) {
	case nil:
		return 0.0
	case float64:
		return abs(v)
	case int:
		return abs(float64(v))
	case int64:
		return abs(float64(v))
	case string:
		clean := strings.TrimLeft(strings.ReplaceAll(strings.TrimSpace(v), ",", ""), "+-")
		if clean == "" {
			return 0.0
		}
		parsed, err := strconv.ParseFloat(clean, 64)
		if err != nil {
			return 0.0
		}
		return parsed
	default:
		return 0.0
	}
}

// ParseInt reads a volume-like value; nil means unknown.
func ParseInt(value any) *int64 {
	f := ParseFloat(value)
	if f == nil {
		return nil
	}
	n := int64(*f)
	return &n
}

// ParseFloat reads a signed numeric value; nil means unknown.
func ParseFloat(value any) *float64 {
	switch v := value.(type) {
	case float64:
		return &v
	case int:
		f := float64(v)
		return &f
	case int64:
		f := float64(v)
		return &f
	case string:
		clean := strings.ReplaceAll(strings.TrimSpace(v), ",", "")
		if clean == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(clean, 64)
		if err != nil {
			return nil
		}
		return &parsed
	default:
		return nil
	}
}

// ExtractItems returns the first candidate key holding a list of record-like
// entries, looking at the top level and then one level under "body". No match
// yields an empty slice, never an error: absence of data is normal.
func ExtractItems(resp map[string]any, keys []string) []map[string]any {
	if items, ok := itemsAt(resp, keys); ok {
		return items
	}
	if body, ok := resp["body"].(map[string]any); ok {
		if items, ok := itemsAt(body, keys); ok {
			return items
		}
	}
	return nil
}

func itemsAt(container map[string]any, keys []string) ([]map[string]any, bool) {
	for _, key := range keys {
		list, ok := container[key].([]any)
		if !ok {
			continue
		}
		items := make([]map[string]any, 0, len(list))
		for _, entry := range list {
			if record, ok := entry.(map[string]any); ok {
				items = append(items, record)
			}
		}
		return items, true
	}
	return nil, false
}

// ParseRow maps one payload record onto a normalized Row.
func ParseRow(item map[string]any) Row {
	row := Row{
		Code: strings.TrimSpace(stringAt(item, codeKeys)),
		Name: strings.TrimSpace(stringAt(item, nameKeys)),
	}
	if raw := firstValue(item, priceKeys); raw != nil {
		price := ParsePrice(raw)
		row.Price = &price
	}
	row.Volume = ParseInt(firstValue(item, volumeKeys))
	row.ChangeRate = ParseFloat(firstValue(item, changeKeys))
	return row
}

// ToSeries converts chart records into chronological close/volume slices,
// preserving response order.
func ToSeries(items []map[string]any) ([]float64, []int64) {
	closes := make([]float64, 0, len(items))
	volumes := make([]int64, 0, len(items))
	for _, item := range items {
		closes = append(closes, ParsePrice(firstValue(item, closeKeys)))
		var volume int64
		if v := ParseInt(firstValue(item, qtyKeys)); v != nil {
			volume = *v
		}
		volumes = append(volumes, volume)
	}
	return closes, volumes
}

// firstValue resolves an attribute against its synonym list; nil and empty
// strings do not match.
func firstValue(item map[string]any, keys []string) any {
	for _, key := range keys {
		value, ok := item[key]
		if !ok || value == nil {
			continue
		}
		if s, isString := value.(string); isString && s == "" {
			continue
		}
		return value
	}
	return nil
}

func stringAt(item map[string]any, keys []string) string {
	value := firstValue(item, keys)
	if value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return ""
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

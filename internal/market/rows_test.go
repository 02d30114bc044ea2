package market

import "testing"

func TestParsePrice(t *testing.T) {
	cases := []struct {
		name     string
		input    any
		expected float64
	}{
		{"thousands separator", "1,234", 1234.0},
		{"sign stripped", "-1,234", 1234.0},
		{"plus sign stripped", "+5,600", 5600.0},
		{"nil", nil, 0.0},
		{"empty string", "", 0.0},
		{"whitespace", "  ", 0.0},
		{"negative number", -42.5, 42.5},
		{"garbage", "n/a", 0.0},
	}
	for _, tc := range cases {
		if got := ParsePrice(tc.input); got != tc.expected {
			t.Fatalf("%s: expected %.2f, got %.2f", tc.name, tc.expected, got)
		}
	}
}

func TestParseIntAndFloat(t *testing.T) {
	if v := ParseInt("12,345"); v == nil || *v != 12345 {
		t.Fatalf("unexpected ParseInt result: %v", v)
	}
	if v := ParseInt(nil); v != nil {
		t.Fatalf("expected nil for nil input, got %d", *v)
	}
	if v := ParseInt(""); v != nil {
		t.Fatalf("expected nil for empty input, got %d", *v)
	}
	if v := ParseFloat("-3.25"); v == nil || *v != -3.25 {
		t.Fatalf("unexpected ParseFloat result: %v", v)
	}
	if v := ParseFloat("abc"); v != nil {
		t.Fatalf("expected nil for garbage input, got %.2f", *v)
	}
}

func TestExtractItemsTopLevel(t *testing.T) {
	resp := map[string]any{
		"tdy_trde_qty_upper": []any{
			map[string]any{"stk_cd": "005930"},
			"not-a-record",
			map[string]any{"stk_cd": "000660"},
		},
	}
	items := ExtractItems(resp, VolumeKeys)
	if len(items) != 2 {
		t.Fatalf("expected 2 record items, got %d", len(items))
	}
}

func TestExtractItemsUnderBody(t *testing.T) {
	resp := map[string]any{
		"body": map[string]any{
			"output": []any{map[string]any{"stk_cd": "005930"}},
		},
	}
	items := ExtractItems(resp, ChangeKeys)
	if len(items) != 1 {
		t.Fatalf("expected 1 item from nested body, got %d", len(items))
	}
}

func TestExtractItemsNoMatchIsEmpty(t *testing.T) {
	resp := map[string]any{"return_code": float64(0), "unrelated": "x"}
	if items := ExtractItems(resp, ConditionKeys); len(items) != 0 {
		t.Fatalf("expected empty extraction, got %d items", len(items))
	}
}

func TestExtractItemsPriorityOrder(t *testing.T) {
	resp := map[string]any{
		"output":             []any{map[string]any{"stk_cd": "wrong"}},
		"tdy_trde_qty_upper": []any{map[string]any{"stk_cd": "right"}},
	}
	items := ExtractItems(resp, VolumeKeys)
	if len(items) != 1 || items[0]["stk_cd"] != "right" {
		t.Fatalf("expected the first candidate key to win, got %+v", items)
	}
}

func TestParseRowSynonyms(t *testing.T) {
	row := ParseRow(map[string]any{
		"item_cd":  " 005930 ",
		"isu_nm":   "Samsung Electronics",
		"cur_prc":  "-71,200",
		"acml_vol": "1,234,567",
		"flu_rt":   "-2.15",
	})
	if row.Code != "005930" {
		t.Fatalf("unexpected code: %q", row.Code)
	}
	if row.Name != "Samsung Electronics" {
		t.Fatalf("unexpected name: %q", row.Name)
	}
	if row.Price == nil || *row.Price != 71200 {
		t.Fatalf("unexpected price: %v", row.Price)
	}
	if row.Volume == nil || *row.Volume != 1234567 {
		t.Fatalf("unexpected volume: %v", row.Volume)
	}
	if row.ChangeRate == nil || *row.ChangeRate != -2.15 {
		t.Fatalf("unexpected change rate: %v", row.ChangeRate)
	}
}

func TestParseRowMissingFields(t *testing.T) {
	row := ParseRow(map[string]any{"stk_cd": "000660"})
	if row.Code != "000660" {
		t.Fatalf("unexpected code: %q", row.Code)
	}
	if row.Price != nil || row.Volume != nil || row.ChangeRate != nil {
		t.Fatalf("expected unknown numeric fields, got %+v", row)
	}
}

func TestToSeries(t *testing.T) {
	items := []map[string]any{
		{"cur_prc": "-100", "trde_qty": "1,000"},
		{"stk_clsprc": "101.5", "volume": "2000"},
		{"close": float64(99)},
	}
	closes, volumes := ToSeries(items)
	if len(closes) != 3 || len(volumes) != 3 {
		t.Fatalf("unexpected series lengths: %d closes, %d volumes", len(closes), len(volumes))
	}
	if closes[0] != 100 || closes[1] != 101.5 || closes[2] != 99 {
		t.Fatalf("unexpected closes: %v", closes)
	}
	if volumes[0] != 1000 || volumes[1] != 2000 || volumes[2] != 0 {
		t.Fatalf("unexpected volumes: %v", volumes)
	}
}

package screen

import (
	"testing"

	"swingscan-go/internal/market"
)

func f64(v float64) *float64 { return &v }
func i64(v int64) *int64     { return &v }

func TestApplyFilters(t *testing.T) {
	rows := []market.Row{
		{Code: "005930", Name: "Samsung Electronics", Price: f64(71200), Volume: i64(1000000), ChangeRate: f64(1.2)},
		{Code: "000660", Name: "SK hynix", Price: f64(183000), Volume: i64(400000), ChangeRate: f64(-0.8)},
		{Code: "035720", Name: "Kakao", Price: nil, Volume: i64(900000), ChangeRate: f64(3.1)},
	}

	filtered := Apply(rows, Filters{Keyword: "sam"})
	if len(filtered) != 1 || filtered[0].Code != "005930" {
		t.Fatalf("keyword filter failed: %+v", filtered)
	}

	filtered = Apply(rows, Filters{MinPrice: f64(100000)})
	if len(filtered) != 1 || filtered[0].Code != "000660" {
		t.Fatalf("min price filter failed (unknown price must be rejected): %+v", filtered)
	}

	filtered = Apply(rows, Filters{MaxPrice: f64(100000)})
	if len(filtered) != 1 || filtered[0].Code != "005930" {
		t.Fatalf("max price filter failed: %+v", filtered)
	}

	filtered = Apply(rows, Filters{MinVolume: i64(500000)})
	if len(filtered) != 2 {
		t.Fatalf("min volume filter failed: %+v", filtered)
	}

	filtered = Apply(rows, Filters{})
	if len(filtered) != 3 {
		t.Fatalf("empty filter must pass everything: %+v", filtered)
	}
}

func TestSwingCandidatesIntersection(t *testing.T) {
	volumeRows := []market.Row{
		{Code: "A", Name: "Alpha", Price: f64(100), Volume: i64(5000)},
		{Code: "B", Name: "Beta", Price: f64(200), Volume: i64(4000)},
		{Code: "C", Name: "Gamma", Price: f64(300), Volume: i64(3000)},
	}
	changeRows := []market.Row{
		{Code: "B", Name: "Beta", ChangeRate: f64(5.0)},
		{Code: "C", Name: "Gamma", ChangeRate: f64(20.0)}, // above band
		{Code: "D", Name: "Delta", ChangeRate: f64(2.0)},  // not in volume board
	}

	rows := SwingCandidates(volumeRows, changeRows, -3.0, 12.0)
	if len(rows) != 1 {
		t.Fatalf("expected a single intersected candidate, got %+v", rows)
	}
	row := rows[0]
	if row.Code != "B" || row.Name != "Beta" {
		t.Fatalf("unexpected candidate: %+v", row)
	}
	if row.Price == nil || *row.Price != 200 {
		t.Fatalf("expected price carried from the volume board: %+v", row)
	}
	if row.SwingScore == nil {
		t.Fatalf("expected a swing score")
	}
	// B is volume rank 1 and change rank 0: 0.6/2 + 0.4/1.
	expected := 0.6/2 + 0.4/1
	if diff := *row.SwingScore - expected; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("unexpected swing score: %.6f", *row.SwingScore)
	}
}

func TestSwingCandidatesSortedByScore(t *testing.T) {
	volumeRows := []market.Row{
		{Code: "A", Name: "Alpha", Volume: i64(5000)},
		{Code: "B", Name: "Beta", Volume: i64(4000)},
	}
	changeRows := []market.Row{
		{Code: "A", ChangeRate: f64(1.0)},
		{Code: "B", ChangeRate: f64(2.0)},
	}

	rows := SwingCandidates(volumeRows, changeRows, -3.0, 12.0)
	if len(rows) != 2 {
		t.Fatalf("expected both candidates, got %+v", rows)
	}
	if *rows[0].SwingScore < *rows[1].SwingScore {
		t.Fatalf("candidates not sorted by score: %+v", rows)
	}
	// A: volume rank 0, change rank 1. B: volume rank 1, change rank 0.
	if rows[0].Code != "A" {
		t.Fatalf("expected the volume leader first, got %s", rows[0].Code)
	}
}

package services

import (
	"strings"
	"testing"

	"github.com/epeers/repricer/internal/engine"
)

func TestExportCSV_Layout(t *testing.T) {
	results := []engine.Result{
		{
			StockID:        "AB12CDE",
			CurrentPrice:   9878,
			ReferencePrice: 10000,
			TargetPercent:  98.78,
			TargetPrice:    9878,
			NewPrice:       9778,
			Reason:         "Stale nudge (10 days) - Within strategy",
			AgeDays:        10,
			AtRating:       "85",
		},
	}

	out := ExportCSV(results)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines", len(lines))
	}

	wantHeader := "stock_id,current_price,reference_price,target_percent,target_price,new_price,Amount change,Days in Stock,AT Rating,reason"
	if lines[0] != wantHeader {
		t.Errorf("unexpected header:\n got %q\nwant %q", lines[0], wantHeader)
	}

	wantRow := `AB12CDE,9878,10000,98.78%,9878,9778,-100,10,85,"Stale nudge (10 days) - Within strategy"`
	if lines[1] != wantRow {
		t.Errorf("unexpected row:\n got %q\nwant %q", lines[1], wantRow)
	}
}

func TestExportCSV_DataErrorRowBlanksEconomics(t *testing.T) {
	results := []engine.Result{
		{
			StockID:      "BAD01",
			CurrentPrice: 500,
			NewPrice:     500,
			Reason:       "Data Error: Invalid/missing age/mileage",
		},
		{
			CurrentPrice: 0,
			Reason:       "Data Error: Missing VRM/ID",
		},
	}

	out := ExportCSV(results)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}

	if lines[1] != `BAD01,500,,,,,,,,"Data Error: Invalid/missing age/mileage"` {
		t.Errorf("unexpected data-error row %q", lines[1])
	}
	// A zero price exports as an empty cell, never a literal "0".
	if lines[2] != `MISSING,,,,,,,,,"Data Error: Missing VRM/ID"` {
		t.Errorf("unexpected zero-price data-error row %q", lines[2])
	}
}

func TestExportCSV_RoundsWholePounds(t *testing.T) {
	results := []engine.Result{
		{
			StockID:        "XY1",
			CurrentPrice:   9878.49,
			ReferencePrice: 9999.6,
			TargetPercent:  95,
			TargetPrice:    9499.62,
			NewPrice:       9499.62,
			Reason:         "Decrease to target (95%)",
			AgeDays:        28,
			AtRating:       "60-77",
		},
	}

	out := ExportCSV(results)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	row := lines[1]

	if !strings.Contains(row, ",9878,") || !strings.Contains(row, ",10000,") {
		t.Errorf("prices should round to whole pounds: %q", row)
	}
	if !strings.Contains(row, ",95.00%,") {
		t.Errorf("target percent should render with two decimals: %q", row)
	}
	if !strings.Contains(row, ",-379,") {
		t.Errorf("amount change should round to whole pounds: %q", row)
	}
}

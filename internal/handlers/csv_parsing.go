package handlers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/epeers/repricer/internal/engine"
)

// Column aliases tried in order. Upload sources disagree on header names, so
// the adapter resolves each engine field through its alias chain before the
// batch reaches the pricing engine.
var (
	idAliases     = []string{"vrm", "stock_id", "stock id", "sku", "id"}
	priceAliases  = []string{"retail price", "current_price", "current price", "price"}
	ageAliases    = []string{"days in stock", "mileage", "age_days", "age", "age days"}
	ratingAliases = []string{"auto trader retail rating", "rating", "at_rating"}
)

const (
	perfScoreColumn = "performance rating score"
	perfTextColumn  = "performance rating"
	daysSinceColumn = "days since last price change"
)

// ParseInventoryCSV normalizes an uploaded inventory CSV into engine records.
// Rows that fail validation come back as Data-Error results so the caller can
// keep them in the output; only an unreadable file is an error. Raw row
// values are preserved on each record for reference-column resolution.
func ParseInventoryCSV(r io.Reader) ([]engine.Record, []engine.Result, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var records []engine.Record
	var rejected []engine.Result

	rowNum := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: failed to read CSV record: %w", rowNum+1, err)
		}
		rowNum++

		fields := make(map[string]string, len(header))
		empty := true
		for i, col := range header {
			if i >= len(row) {
				break
			}
			val := strings.TrimSpace(row[i])
			fields[col] = val
			if val != "" {
				empty = false
			}
		}
		if empty {
			continue
		}

		rec, errs := normalizeRow(fields)
		if len(errs) > 0 {
			if rec.StockID == "" {
				rec.StockID = "MISSING"
			}
			rejected = append(rejected, engine.DataErrorResult(rec, strings.Join(errs, ", ")))
			continue
		}
		records = append(records, rec)
	}

	return records, rejected, nil
}

// normalizeRow maps one raw row onto an engine record, collecting validation
// failures instead of stopping at the first.
func normalizeRow(fields map[string]string) (engine.Record, []string) {
	lower := make(map[string]string, len(fields))
	for k, v := range fields {
		lower[strings.ToLower(k)] = v
	}

	firstOf := func(aliases []string) string {
		for _, a := range aliases {
			if v := lower[a]; v != "" {
				return v
			}
		}
		return ""
	}

	rec := engine.Record{
		StockID: firstOf(idAliases),
		Fields:  fields,
	}

	if raw := firstOf(priceAliases); raw != "" {
		if val, ok := engine.ParseMoney(raw); ok {
			rec.CurrentPrice = val
		}
	}
	if raw := firstOf(ageAliases); raw != "" {
		if val, ok := engine.ParseMoney(raw); ok {
			rec.AgeDays = val
		}
	}
	rec.Rating = resolveRating(lower)
	rec.DaysSinceChange = parseIntDefault(lower[daysSinceColumn])

	var errs []string
	if rec.StockID == "" {
		errs = append(errs, "Missing VRM/ID")
	}
	if rec.CurrentPrice <= 0 {
		errs = append(errs, "Invalid/missing price")
	}
	if rec.AgeDays <= 0 {
		errs = append(errs, "Invalid/missing age/mileage")
	}
	// A zero rating is allowed; the engine's fallback band absorbs it.

	return rec, errs
}

// resolveRating extracts a numeric rating: the retail-rating columns first,
// then the performance score, then the performance text mapped onto the
// legacy score scale.
func resolveRating(lower map[string]string) string {
	for _, a := range ratingAliases {
		raw := strings.TrimSpace(lower[a])
		if raw == "" || raw == "None" {
			continue
		}
		if val, ok := engine.ParseMoney(raw); ok {
			return strconv.FormatFloat(val, 'f', -1, 64)
		}
	}

	if raw := strings.TrimSpace(lower[perfScoreColumn]); raw != "" {
		if val, ok := engine.ParseMoney(raw); ok && val > 0 {
			return strconv.FormatFloat(val, 'f', -1, 64)
		}
	}

	text := strings.ToLower(strings.TrimSpace(lower[perfTextColumn]))
	switch {
	case text == "":
	case strings.Contains(text, "below average"):
		return "45"
	case strings.Contains(text, "low"), text == "poor":
		return "25"
	case strings.Contains(text, "above average"):
		return "70"
	case strings.Contains(text, "average"):
		return "50"
	case strings.Contains(text, "high"), strings.Contains(text, "excellent"):
		return "90"
	}
	return "0"
}

// parseIntDefault reads the leading integer of a value, so "14 days" and
// "3.5" come through as 14 and 3. Missing, negative, or non-numeric values
// default to zero.
func parseIntDefault(raw string) int {
	raw = strings.TrimSpace(raw)
	i := 0
	if i < len(raw) && (raw[i] == '+' || raw[i] == '-') {
		i++
	}
	start := i
	for i < len(raw) && raw[i] >= '0' && raw[i] <= '9' {
		i++
	}
	if i == start {
		return 0
	}
	val, err := strconv.Atoi(raw[:i])
	if err != nil || val < 0 {
		return 0
	}
	return val
}

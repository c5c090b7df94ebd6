package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// dataErrorPrefix marks results for records that could not be priced.
// Downstream consumers pattern-match on this prefix, so it is part of the
// engine's observable contract along with the other reason strings.
const dataErrorPrefix = "Data Error: "

// Record is one normalized inventory item. Fields carries the raw row values
// so the configured reference column can be resolved by name.
type Record struct {
	StockID         string
	CurrentPrice    float64
	AgeDays         float64
	Rating          string
	DaysSinceChange int
	Fields          map[string]string
}

// Result is the pricing decision for one record.
type Result struct {
	StockID        string  `json:"stock_id"`
	CurrentPrice   float64 `json:"current_price"`
	ReferencePrice float64 `json:"reference_price"`
	TargetPercent  float64 `json:"target_percent"`
	TargetPrice    float64 `json:"target_price"`
	NewPrice       float64 `json:"new_price"`
	Reason         string  `json:"reason"`
	AgeDays        float64 `json:"age_days"`
	AtRating       string  `json:"at_rating"`
}

// IsDataError reports whether the result represents a failed record.
func (r Result) IsDataError() bool {
	return strings.HasPrefix(r.Reason, "Data Error")
}

// DataErrorResult builds the placeholder result for a record that failed
// processing: economics fields zeroed, price unchanged, identity preserved.
func DataErrorResult(rec Record, msg string) Result {
	return Result{
		StockID:      rec.StockID,
		CurrentPrice: rec.CurrentPrice,
		NewPrice:     rec.CurrentPrice,
		Reason:       dataErrorPrefix + msg,
		AgeDays:      rec.AgeDays,
		AtRating:     rec.Rating,
	}
}

// referenceAliases are tried in order when the configured reference column is
// absent from a row. Kept for compatibility with older export layouts.
var referenceAliases = [...]string{"Retail valuation", "benchmark_price"}

// resolveReference finds and parses the record's reference value. A field that
// is present but unparseable is treated the same as an absent one, so the
// alias chain keeps going; exhausting the chain is a data error.
func resolveReference(rec Record, cfg *StrategyConfig) (float64, error) {
	cols := append([]string{cfg.ReferenceColumn}, referenceAliases[:]...)
	for _, col := range cols {
		raw, ok := rec.Fields[col]
		if !ok {
			continue
		}
		if val, ok := ParseMoney(raw); ok {
			return val, nil
		}
	}
	return 0, fmt.Errorf("Reference column '%s' not found in CSV", cfg.ReferenceColumn)
}

// ParseMoney parses a possibly currency-formatted value: thousands separators
// and currency symbols are stripped before parsing.
func ParseMoney(raw string) (float64, bool) {
	cleaned := strings.NewReplacer(",", "", "£", "", "$", "").Replace(raw)
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return 0, false
	}
	val, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(val) || math.IsInf(val, 0) {
		return 0, false
	}
	return val, true
}

// targetPercent looks up the matrix entry for the resolved bands. Zero entries
// are placeholders left by older matrix editors and are treated as missing.
func targetPercent(cfg *StrategyConfig, ageBand, ratingBand, rawRating string) (float64, error) {
	row, ok := cfg.TargetMatrix[ageBand]
	if !ok {
		return 0, fmt.Errorf("Age band '%s' not found in target matrix", ageBand)
	}
	pct, ok := row[ratingBand]
	if !ok || pct == 0 {
		return 0, fmt.Errorf("Rating '%s' not found in matrix for %s", rawRating, ageBand)
	}
	return pct, nil
}

// withinTolerance reports whether the current price sits inside the strategy
// band around the target. Comparisons are plain floating point; no currency
// rounding is applied before comparing.
func withinTolerance(price, refVal, pct float64, cfg *StrategyConfig) bool {
	if cfg.ToleranceType == TolerancePercent {
		currentPct := price / refVal * 100
		return math.Abs(currentPct-pct) <= cfg.ToleranceValue
	}
	targetPrice := refVal * pct / 100
	return math.Abs(price-targetPrice) <= cfg.ToleranceValue
}

// toleranceBounds converts the tolerance band into price terms.
func toleranceBounds(refVal, pct, targetPrice float64, cfg *StrategyConfig) (lower, upper float64) {
	if cfg.ToleranceType == TolerancePercent {
		lower = refVal * (pct - cfg.ToleranceValue) / 100
		upper = refVal * (pct + cfg.ToleranceValue) / 100
		return lower, upper
	}
	return targetPrice - cfg.ToleranceValue, targetPrice + cfg.ToleranceValue
}

// staleNudge evaluates the nudge candidates for a stale, within-tolerance
// price. Preference "add" tries the add candidate first; "drop" and anything
// else (including "auto") try the drop candidate first. Returns ok=false when
// neither candidate stays inside the tolerance band.
func staleNudge(rec Record, refVal, pct, targetPrice float64, cfg *StrategyConfig) (float64, bool) {
	nudgeAmt := cfg.NudgeValue
	if cfg.NudgeType == NudgePercent {
		nudgeAmt = refVal * cfg.NudgeValue / 100
	}

	lower, upper := toleranceBounds(refVal, pct, targetPrice, cfg)

	drop := rec.CurrentPrice - nudgeAmt
	add := rec.CurrentPrice + nudgeAmt
	dropValid := drop >= lower && drop <= upper
	addValid := add >= lower && add <= upper

	first, firstValid, second, secondValid := drop, dropValid, add, addValid
	if strings.ToLower(string(cfg.NudgePreference)) == string(NudgeAdd) {
		first, firstValid, second, secondValid = add, addValid, drop, dropValid
	}
	if firstValid {
		return first, true
	}
	if secondValid {
		return second, true
	}
	return 0, false
}

// Decide computes the pricing decision for one record. It is a total
// function: every failure path is captured into a Data-Error result, so batch
// callers always get exactly one result per record.
func Decide(rec Record, cfg *StrategyConfig) Result {
	refVal, err := resolveReference(rec, cfg)
	if err != nil {
		return DataErrorResult(rec, err.Error())
	}

	ageBand := ResolveAgeBand(rec.AgeDays, cfg.AgeBands)
	ratingBand := ResolveRatingBand(rec.Rating, cfg.RatingBands)

	pct, err := targetPercent(cfg, ageBand, ratingBand, rec.Rating)
	if err != nil {
		return DataErrorResult(rec, err.Error())
	}

	targetPrice := refVal * pct / 100

	finalPrice := rec.CurrentPrice
	var reason string

	if withinTolerance(rec.CurrentPrice, refVal, pct, cfg) {
		switch {
		case rec.DaysSinceChange < cfg.StaleDays:
			reason = "Within strategy"
		default:
			if nudged, ok := staleNudge(rec, refVal, pct, targetPrice, cfg); ok {
				finalPrice = RoundPrice(nudged, cfg.RoundingMode)
				reason = fmt.Sprintf("Stale nudge (%d days) - Within strategy", rec.DaysSinceChange)
			} else {
				reason = fmt.Sprintf("Within strategy (Stale %d days but nudge fails tolerance)", rec.DaysSinceChange)
			}
		}
	} else {
		finalPrice = RoundPrice(targetPrice, cfg.RoundingMode)
		switch {
		case finalPrice > rec.CurrentPrice:
			reason = fmt.Sprintf("Increase to target (%s%%)", FormatPercent(pct))
		case finalPrice < rec.CurrentPrice:
			reason = fmt.Sprintf("Decrease to target (%s%%)", FormatPercent(pct))
		default:
			reason = "Price OK (Rounded)"
		}
	}

	return Result{
		StockID:        rec.StockID,
		CurrentPrice:   rec.CurrentPrice,
		ReferencePrice: refVal,
		TargetPercent:  pct,
		TargetPrice:    targetPrice,
		NewPrice:       finalPrice,
		Reason:         reason,
		AgeDays:        rec.AgeDays,
		AtRating:       rec.Rating,
	}
}

// FormatPercent renders a target percent the way it appears in reason strings:
// shortest representation, no trailing zeros (98.78 -> "98.78", 95 -> "95").
func FormatPercent(pct float64) string {
	return strconv.FormatFloat(pct, 'f', -1, 64)
}

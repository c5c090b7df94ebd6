package engine

import "math"

// charm-price endings considered within each hundred-block.
var charmSuffixes = [...]float64{25, 49, 75, 99}

// RoundPrice applies the configured rounding policy to a raw price. Unknown
// modes are the identity, so a strategy with rounding disabled passes prices
// through untouched. Pure function; the tie-break rule (first candidate wins
// on an exact tie) is part of the contract because exports are diffed against
// golden outputs.
func RoundPrice(price float64, mode RoundingMode) float64 {
	switch mode {
	case RoundingExact:
		return math.Round(price*100) / 100
	case RoundingCharm:
		return roundCharm(price)
	case RoundingEnds49:
		return roundEnds49(price)
	default:
		return price
	}
}

// roundCharm snaps to the nearest x25/x49/x75/x99 ending, searching the
// previous, current and next hundred-block. Non-positive candidates are
// discarded; with none left the price rounds to the nearest integer.
func roundCharm(price float64) float64 {
	century := math.Floor(price/100) * 100

	var candidates []float64
	for _, base := range [...]float64{century - 100, century, century + 100} {
		for _, s := range charmSuffixes {
			if val := base + s; val > 0 {
				candidates = append(candidates, val)
			}
		}
	}
	if len(candidates) == 0 {
		return math.Round(price)
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if math.Abs(c-price) < math.Abs(best-price) {
			best = c
		}
	}
	return best
}

// roundEnds49 finds the nearest non-negative integer within +/-10 of the
// rounded price whose decimal representation ends in 4 or 9, falling back to
// the rounded integer itself.
func roundEnds49(price float64) float64 {
	center := int64(math.Round(price))

	var candidates []int64
	for i := center - 10; i <= center+10; i++ {
		if i < 0 {
			continue
		}
		if d := i % 10; d == 4 || d == 9 {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return float64(center)
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if abs64(c-center) < abs64(best-center) {
			best = c
		}
	}
	return float64(best)
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
